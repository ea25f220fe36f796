package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsbench/partcounter/internal/config"
	"github.com/partsbench/partcounter/internal/detection"
	"github.com/partsbench/partcounter/internal/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conf := config.DefaultConfig()
	conf.Storage.ResultsDir = filepath.Join(t.TempDir(), "results")
	conf.Storage.ExportsDir = filepath.Join(t.TempDir(), "exports")

	srv, err := NewServer(context.Background(), conf)
	require.NoError(t, err)
	return srv
}

// trayJPEG renders a light tray carrying the given number of dark
// nut-sized disks and returns it JPEG-encoded.
func trayJPEG(t *testing.T, disks int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 1000, 1000))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.RGBA{220, 220, 220, 255}}, image.Point{}, draw.Src)

	centers := [][2]int{{200, 200}, {500, 600}, {800, 300}}
	require.LessOrEqual(t, disks, len(centers))
	for i := 0; i < disks; i++ {
		cx, cy := centers[i][0], centers[i][1]
		for y := cy - 16; y <= cy+16; y++ {
			for x := cx - 16; x <= cx+16; x++ {
				dx, dy := x-cx, y-cy
				if dx*dx+dy*dy <= 16*16 {
					img.Set(x, y, color.RGBA{25, 25, 25, 255})
				}
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(95)))
	return buf.Bytes()
}

func multipartUpload(t *testing.T, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", "tray.jpg")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func doAnalyze(t *testing.T, router *gin.Engine, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartUpload(t, data, fields)
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandleAnalyze_NoFile(t *testing.T) {
	srv := newTestServer(t)
	router := srv.SetUpRouter()

	req := httptest.NewRequest(http.MethodPost, "/analyze", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "no image file")
}

func TestHandleAnalyze_UndecodableUpload(t *testing.T) {
	srv := newTestServer(t)
	router := srv.SetUpRouter()

	rec := doAnalyze(t, router, []byte("definitely not an image"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// A rejected upload must not count as an analyzed image.
	snap := srv.service.Tracker().Snapshot()
	assert.Zero(t, snap.TotalImages)
}

func TestHandleAnalyze_CountsParts(t *testing.T) {
	srv := newTestServer(t)
	router := srv.SetUpRouter()

	rec := doAnalyze(t, router, trayJPEG(t, 3), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.True(t, resp.Ok)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, 3, resp.Classifications[detection.PartNut])
	assert.Equal(t, 3, resp.TotalClassified)
	assert.InDelta(t, 0.3, resp.MinConfidence, 1e-9)
	assert.GreaterOrEqual(t, resp.Confidence, 0.3)
	assert.LessOrEqual(t, resp.Confidence, 0.95)
	assert.Len(t, resp.Objects, 3)

	// First image of the session: neutral consistency, one image total.
	assert.Equal(t, "Take more images after vibrating the plate", resp.Vibration.Recommendation)
	assert.Equal(t, 1, resp.Stats.TotalImages)

	// The annotated result is persisted and served under /results.
	require.True(t, strings.HasPrefix(resp.ResultPath, "/results/analyzed_"), resp.ResultPath)
	name := strings.TrimPrefix(resp.ResultPath, "/results/")
	_, err := os.Stat(filepath.Join(srv.conf.Storage.ResultsDir, name))
	assert.NoError(t, err)

	// The raw upload is kept alongside it.
	inputs, err := filepath.Glob(filepath.Join(srv.conf.Storage.ResultsDir, "input_*.jpg"))
	require.NoError(t, err)
	assert.Len(t, inputs, 1)
}

func TestHandleAnalyze_MinConfidenceOverride(t *testing.T) {
	srv := newTestServer(t)
	router := srv.SetUpRouter()

	rec := doAnalyze(t, router, trayJPEG(t, 1), map[string]string{"min_confidence": "0.99"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp AnalysisResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 0.9, resp.MinConfidence, 1e-9, "override should clamp to 0.9")

	rec = doAnalyze(t, router, trayJPEG(t, 1), map[string]string{"min_confidence": "abc"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.InDelta(t, 0.3, resp.MinConfidence, 1e-9, "unparsable override should fall back to the default")
}

func TestHandleSessionStats(t *testing.T) {
	srv := newTestServer(t)
	router := srv.SetUpRouter()

	for i := 0; i < 2; i++ {
		rec := doAnalyze(t, router, trayJPEG(t, 3), nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/session-stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionStatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Ok)
	assert.Equal(t, 2, resp.Statistics.TotalImages)
	assert.Equal(t, []int{3, 3}, resp.CountHistory)
	assert.InDelta(t, 1.0, resp.Consistency.ConsistencyScore, 1e-9)
	assert.Equal(t, 3, resp.Consistency.MostFrequentCount)
}

func TestHandleResetSession(t *testing.T) {
	srv := newTestServer(t)
	router := srv.SetUpRouter()

	rec := doAnalyze(t, router, trayJPEG(t, 2), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/reset-session", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["ok"])
	assert.Equal(t, "Session reset successfully", resp["message"])

	snap := srv.service.Tracker().Snapshot()
	assert.Zero(t, snap.TotalImages)
	assert.Empty(t, snap.Window)
}

func TestHandleExportDataAndDownload(t *testing.T) {
	srv := newTestServer(t)
	router := srv.SetUpRouter()

	rec := doAnalyze(t, router, trayJPEG(t, 3), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/export-data", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Ok          bool   `json:"ok"`
		Filename    string `json:"filename"`
		DownloadURL string `json:"download_url"`
		FileSize    int64  `json:"file_size"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Ok)
	assert.Regexp(t, `^session_export_\d+\.json$`, resp.Filename)
	assert.Equal(t, "/download/"+resp.Filename, resp.DownloadURL)
	assert.Greater(t, resp.FileSize, int64(0))

	req = httptest.NewRequest(http.MethodGet, resp.DownloadURL, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), resp.Filename)

	var export session.Export
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &export))
	assert.Equal(t, []int{3}, export.CountHistory)
	assert.Equal(t, "Factory Parts Counter", export.ExportInfo.System)
}

func TestHandleDownload_RejectsUnexpectedNames(t *testing.T) {
	srv := newTestServer(t)
	router := srv.SetUpRouter()

	for _, name := range []string{"evil.json", "session_export_1.txt", "and.exe"} {
		req := httptest.NewRequest(http.MethodGet, "/download/"+name, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "name %q", name)
	}

	// Encoded traversal decodes to a multi-segment path and must not be
	// served, whichever layer rejects it.
	req := httptest.NewRequest(http.MethodGet, "/download/..%2Fsession_export_1.json", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.GreaterOrEqual(t, rec.Code, 400)

	// Well-formed but absent exports are a 404, not a 400.
	req = httptest.NewRequest(http.MethodGet, "/download/session_export_123.json", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSystemHealth(t *testing.T) {
	srv := newTestServer(t)
	router := srv.SetUpRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/system-health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "optimal", resp["status"])
	assert.Equal(t, "Factory Parts Counter", resp["system"])
	assert.Contains(t, resp, "version")
	assert.Contains(t, resp, "uptime_minutes")
	assert.EqualValues(t, 0, resp["total_images"])
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	router := srv.SetUpRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"ok"}`, rec.Body.String())
}
