package server

import (
	"context"
	"fmt"
	"math"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/partsbench/partcounter/internal/config"
	"github.com/partsbench/partcounter/internal/detection"
	"github.com/partsbench/partcounter/internal/imaging"
	"github.com/partsbench/partcounter/internal/session"
	"github.com/partsbench/partcounter/pkg/log"
)

// resultsRoute is the URL prefix under which annotated images are
// served; see SetUpRouter.
const resultsRoute = "/results"

// Service orchestrates one counting session: it runs uploads through
// the detection pipeline, folds the outcomes into the session tracker
// and persists the annotated result images.
type Service struct {
	conf    *config.Config
	tracker *session.Tracker
	palette detection.Palette
	logger  *logrus.Entry
}

func NewService(ctx context.Context, conf *config.Config) (*Service, error) {
	palette, err := detection.PaletteFromHex(
		conf.Palette.Nut,
		conf.Palette.Bolt,
		conf.Palette.Screw,
		conf.Palette.Washer,
		conf.Palette.Summary,
	)
	if err != nil {
		return nil, err
	}

	for _, dir := range []string{conf.Storage.ResultsDir, conf.Storage.ExportsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
		}
	}

	return &Service{
		conf:    conf,
		tracker: session.NewTracker(),
		palette: palette,
		logger:  log.GetLogger(ctx),
	}, nil
}

// Tracker exposes the session state for the stats, reset, export and
// health handlers.
func (s *Service) Tracker() *session.Tracker {
	return s.tracker
}

// AnalysisResponse is the /analyze payload.
type AnalysisResponse struct {
	Ok        bool   `json:"ok"`
	Timestamp string `json:"timestamp"`

	Count         int                `json:"count"`
	Confidence    float64            `json:"confidence"`
	MinConfidence float64            `json:"min_confidence"`
	Objects       []detection.Object `json:"objects"`
	ResultPath    string             `json:"result_path"`

	Classifications map[detection.PartType]int `json:"classifications"`
	TotalClassified int                        `json:"total_classified"`

	Vibration session.ConsistencyResult `json:"vibration_analysis"`
	Stats     session.Stats             `json:"session_stats"`
}

// Analyze runs one uploaded image through the full sequence: decode,
// detect, record into the session, analyze count consistency, render
// and persist the annotated result.
//
// A decode failure returns a *imaging.LoadError and leaves the session
// untouched. An empty tray is a successful analysis with count zero
// and is recorded like any other.
func (s *Service) Analyze(ctx context.Context, data []byte, minConfidence float64) (*AnalysisResponse, error) {
	logger := log.GetLogger(ctx)

	img, err := imaging.DecodeBytes(data)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	stamp := fmt.Sprintf("%s_%d", now.Format("20060102_150405"), now.UnixMilli())

	// Keep the original upload next to the annotated result so a
	// miscount can be rechecked later.
	inputName := fmt.Sprintf("input_%s.jpg", stamp)
	if err := os.WriteFile(filepath.Join(s.conf.Storage.ResultsDir, inputName), data, 0o644); err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	pipeline := detection.NewPipeline(minConfidence)
	res := pipeline.Process(img)

	avg := averageConfidence(res.Objects)
	snap := s.tracker.Push(res.Count, avg)
	vibration := session.AnalyzeConsistency(snap, res.Count)
	stats := session.ComputeStats(snap)

	annotated := detection.Annotate(img, res, detection.Summary{
		MostFrequent:  vibration.MostFrequentCount,
		AvgConfidence: avg,
	}, s.palette)

	resultName := fmt.Sprintf("analyzed_%s.jpg", stamp)
	resultPath := filepath.Join(s.conf.Storage.ResultsDir, resultName)
	if err := imaging.SaveJPEG(annotated, resultPath, s.conf.Detection.JPEGQuality); err != nil {
		return nil, fmt.Errorf("save annotated result: %w", err)
	}

	logger.Infof("analyzed image: %d objects, avg confidence %.3f, consistency %.2f",
		res.Count, avg, vibration.ConsistencyScore)

	return &AnalysisResponse{
		Ok:              true,
		Timestamp:       now.Format(time.RFC3339),
		Count:           res.Count,
		Confidence:      round3(avg),
		MinConfidence:   pipeline.MinConfidence(),
		Objects:         res.Objects,
		ResultPath:      path.Join(resultsRoute, resultName),
		Classifications: res.Tally,
		TotalClassified: res.Count,
		Vibration:       vibration,
		Stats:           stats,
	}, nil
}

// averageConfidence is the mean over accepted objects, 0 for an empty
// tray.
func averageConfidence(objects []detection.Object) float64 {
	if len(objects) == 0 {
		return 0
	}
	var sum float64
	for _, obj := range objects {
		sum += obj.Confidence
	}
	return sum / float64(len(objects))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
