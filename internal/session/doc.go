// Package session tracks analysis outcomes across a counting session.
//
// A session is the period between two resets, typically one operator
// working through one batch of parts. The tracker keeps a sliding
// window of the last ten per-image outcomes plus an unbounded image
// counter; the analyzer and aggregator read immutable snapshots of
// that window, never the live tracker.
//
// # Workflow
//
// The intended physical workflow is count, vibrate the tray, count
// again. The consistency analyzer turns the resulting count series
// into an agreement score and an operator recommendation, and the
// stats aggregator condenses the window into API-facing numbers.
// Exports capture both the aggregates and the raw history.
//
// # Concurrency
//
// Tracker methods are safe for concurrent use. Push returns the
// post-push snapshot so a caller can run analysis and statistics on
// exactly the history its own image produced, regardless of other
// requests pushing concurrently.
package session
