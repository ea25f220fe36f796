package session

import (
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a session for the API and for exports.
type Stats struct {
	// TotalImages is the unbounded number of images analyzed this
	// session, not the window length.
	TotalImages int `json:"total_images"`

	// SessionDurationMinutes is the time since the session started,
	// rounded to one decimal.
	SessionDurationMinutes float64 `json:"session_duration_minutes"`

	// AverageCount is the mean object count over the window, rounded
	// to one decimal. Zero when the window is empty.
	AverageCount float64 `json:"average_count"`

	// MinCount and MaxCount are the window extrema, zero when the
	// window is empty.
	MinCount int `json:"min_count"`
	MaxCount int `json:"max_count"`
}

// ComputeStats aggregates the snapshot window. An empty window yields
// zero count statistics but still reports the session duration.
func ComputeStats(snap Snapshot) Stats {
	s := Stats{
		TotalImages:            snap.TotalImages,
		SessionDurationMinutes: round1(time.Since(snap.StartedAt).Minutes()),
	}

	counts := snap.Counts()
	if len(counts) == 0 {
		return s
	}

	vals := make([]float64, len(counts))
	for i, c := range counts {
		vals[i] = float64(c)
	}
	s.AverageCount = round1(stat.Mean(vals, nil))
	s.MinCount = int(floats.Min(vals))
	s.MaxCount = int(floats.Max(vals))
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
