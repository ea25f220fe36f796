package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/partsbench/partcounter/internal/detection"
	"github.com/partsbench/partcounter/internal/imaging"
	"github.com/partsbench/partcounter/internal/session"
	"github.com/partsbench/partcounter/internal/version"
)

// exportNamePattern is the only filename shape the download handler
// serves. Anything else, including traversal attempts, is rejected.
var exportNamePattern = regexp.MustCompile(`^session_export_\d+\.json$`)

// handleAnalyze accepts a multipart upload under the "image" field,
// runs it through the detection pipeline and returns the analysis
// payload. An optional min_confidence form or query value overrides
// the configured acceptance threshold for this request only.
func (s *Server) handleAnalyze(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		s.writeError(c, http.StatusBadRequest, fmt.Errorf("no image file provided"))
		return
	}
	maxBytes := s.conf.Detection.MaxUploadMB << 20
	if file.Size > maxBytes {
		s.writeError(c, http.StatusBadRequest,
			fmt.Errorf("image exceeds %d MB limit", s.conf.Detection.MaxUploadMB))
		return
	}

	src, err := file.Open()
	if err != nil {
		s.writeError(c, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		s.writeError(c, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	resp, err := s.service.Analyze(c.Request.Context(), data, s.minConfidence(c))
	if err != nil {
		var loadErr *imaging.LoadError
		if errors.As(err, &loadErr) {
			s.writeError(c, http.StatusBadRequest, err)
			return
		}
		s.writeError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// minConfidence resolves the acceptance threshold for one request:
// form value, then query value, then the configured default. Unparsable
// values fall back to the default; out-of-range values are clamped.
func (s *Server) minConfidence(c *gin.Context) float64 {
	raw := c.PostForm("min_confidence")
	if raw == "" {
		raw = c.Query("min_confidence")
	}
	if raw == "" {
		return s.conf.Detection.MinConfidence
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return s.conf.Detection.MinConfidence
	}
	return detection.ClampThreshold(v)
}

type SessionStatsResponse struct {
	Ok           bool                      `json:"ok"`
	Statistics   session.Stats             `json:"statistics"`
	CountHistory []int                     `json:"count_history"`
	Consistency  session.ConsistencyResult `json:"consistency"`
	Timestamp    string                    `json:"timestamp"`
}

func (s *Server) handleSessionStats(c *gin.Context) {
	snap := s.service.Tracker().Snapshot()

	currentCount := 0
	if len(snap.Window) > 0 {
		currentCount = snap.Window[len(snap.Window)-1].Count
	}

	c.JSON(http.StatusOK, SessionStatsResponse{
		Ok:           true,
		Statistics:   session.ComputeStats(snap),
		CountHistory: snap.Counts(),
		Consistency:  session.AnalyzeConsistency(snap, currentCount),
		Timestamp:    time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleResetSession(c *gin.Context) {
	s.service.Tracker().Reset()
	s.logger.Info("session reset")

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"message":   "Session reset successfully",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleExportData(c *gin.Context) {
	snap := s.service.Tracker().Snapshot()
	export := session.BuildExport(snap, session.ComputeStats(snap), version.VERSION)

	name, size, err := export.WriteFile(s.conf.Storage.ExportsDir)
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":           true,
		"filename":     name,
		"download_url": "/download/" + name,
		"file_size":    size,
	})
}

func (s *Server) handleDownload(c *gin.Context) {
	name := filepath.Base(c.Param("filename"))
	if !exportNamePattern.MatchString(name) {
		s.writeError(c, http.StatusBadRequest, fmt.Errorf("invalid export filename"))
		return
	}

	path := filepath.Join(s.conf.Storage.ExportsDir, name)
	if _, err := os.Stat(path); err != nil {
		s.writeError(c, http.StatusNotFound, fmt.Errorf("file not found"))
		return
	}
	c.FileAttachment(path, name)
}

func (s *Server) handleSystemHealth(c *gin.Context) {
	stats := session.ComputeStats(s.service.Tracker().Snapshot())

	c.JSON(http.StatusOK, gin.H{
		"status":         "optimal",
		"system":         session.SystemName(),
		"version":        version.VERSION,
		"uptime_minutes": stats.SessionDurationMinutes,
		"total_images":   stats.TotalImages,
		"last_check":     time.Now().Format(time.RFC3339),
	})
}
