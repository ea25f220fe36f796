package session

import (
	"sync"
	"time"
)

// windowCapacity bounds the sliding history window. Consistency
// analysis is only meaningful over recent shots of the same tray, so
// older analyses age out FIFO.
const windowCapacity = 10

// Entry records the outcome of one analyzed image.
type Entry struct {
	// Count is the number of accepted objects in the image.
	Count int `json:"count"`

	// AvgConfidence is the mean detection confidence across the
	// accepted objects, 0 when the image was empty.
	AvgConfidence float64 `json:"avg_confidence"`
}

// Snapshot is an immutable copy of the tracker state at a point in
// time. Consumers (consistency analysis, statistics, export) read a
// snapshot rather than the live tracker so that one push and all reads
// derived from it observe the same history.
type Snapshot struct {
	// Window holds the most recent entries, oldest first, at most
	// windowCapacity of them.
	Window []Entry

	// TotalImages counts every analyzed image since the session
	// started, including ones that have aged out of the window.
	TotalImages int

	// StartedAt is when the session began or was last reset.
	StartedAt time.Time
}

// Counts returns the window counts, oldest first.
func (s Snapshot) Counts() []int {
	counts := make([]int, len(s.Window))
	for i, e := range s.Window {
		counts[i] = e.Count
	}
	return counts
}

// Confidences returns the window average confidences, oldest first.
func (s Snapshot) Confidences() []float64 {
	confs := make([]float64, len(s.Window))
	for i, e := range s.Window {
		confs[i] = e.AvgConfidence
	}
	return confs
}

// Tracker accumulates per-image analysis outcomes for the current
// session: a sliding window of the last windowCapacity entries, an
// unbounded image counter and the session clock. All methods are safe
// for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	window []Entry
	total  int
	start  time.Time
}

// NewTracker starts an empty session beginning now.
func NewTracker() *Tracker {
	return &Tracker{start: time.Now()}
}

// Push appends one analysis outcome, evicting the oldest entry once
// the window is full, and returns the post-push snapshot. Callers use
// the returned snapshot for any reads that must be consistent with
// this push.
func (t *Tracker) Push(count int, avgConfidence float64) Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := Entry{Count: count, AvgConfidence: avgConfidence}
	if len(t.window) == windowCapacity {
		copy(t.window, t.window[1:])
		t.window[windowCapacity-1] = e
	} else {
		t.window = append(t.window, e)
	}
	t.total++
	return t.snapshotLocked()
}

// Snapshot returns a consistent copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Reset clears the history, zeroes the image counter and restarts the
// session clock.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.window = nil
	t.total = 0
	t.start = time.Now()
}

func (t *Tracker) snapshotLocked() Snapshot {
	return Snapshot{
		Window:      append([]Entry(nil), t.window...),
		TotalImages: t.total,
		StartedAt:   t.start,
	}
}
