package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// systemName identifies this system in exports and health reports.
const systemName = "Factory Parts Counter"

// SystemName returns the product name stamped into exports and health
// payloads.
func SystemName() string {
	return systemName
}

// ExportInfo identifies when and by what an export was produced.
type ExportInfo struct {
	Timestamp string `json:"timestamp"`
	System    string `json:"system"`
	Version   string `json:"version"`
}

// Export is the on-disk session snapshot format. It pairs the
// aggregate statistics with the raw window history so external tooling
// can recompute its own aggregates.
type Export struct {
	ExportInfo        ExportInfo `json:"export_info"`
	SessionData       Stats      `json:"session_data"`
	CountHistory      []int      `json:"count_history"`
	ConfidenceHistory []float64  `json:"confidence_history"`
}

// BuildExport assembles the export document for a snapshot and its
// precomputed statistics.
func BuildExport(snap Snapshot, stats Stats, version string) Export {
	return Export{
		ExportInfo: ExportInfo{
			Timestamp: time.Now().Format(time.RFC3339),
			System:    systemName,
			Version:   version,
		},
		SessionData:       stats,
		CountHistory:      snap.Counts(),
		ConfidenceHistory: snap.Confidences(),
	}
}

// ExportFilename returns the canonical export name for a point in
// time, session_export_<unix>.json. Download handlers accept exactly
// this shape.
func ExportFilename(ts time.Time) string {
	return fmt.Sprintf("session_export_%d.json", ts.Unix())
}

// WriteFile serializes the export with two-space indentation into dir
// under the canonical name and returns that name with the byte size.
// The file appears atomically: it is written to a temp name first and
// renamed into place, so a concurrent download never sees a partial
// document.
func (e Export) WriteFile(dir string) (string, int64, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create export dir: %w", err)
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return "", 0, fmt.Errorf("encode export: %w", err)
	}

	name := ExportFilename(time.Now())
	path := filepath.Join(dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", 0, fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", 0, fmt.Errorf("finalize export: %w", err)
	}
	return name, int64(len(data)), nil
}
