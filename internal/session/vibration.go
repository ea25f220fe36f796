package session

// Operators shake the tray between shots so parts spread out instead
// of clumping. When that works, consecutive images agree on the count;
// when it doesn't, counts jump around. The consistency score measures
// that agreement over the history window.

// ConsistencyResult describes how stable the counts in the window are
// and what the operator should do next.
type ConsistencyResult struct {
	// MostFrequentCount is the consensus count across the window, the
	// current count when the window is too short to have one.
	MostFrequentCount int `json:"most_frequent_count"`

	// ConsistencyScore is the fraction of window entries matching the
	// consensus count, in [0, 1]. A fresh session scores a neutral 0.5.
	ConsistencyScore float64 `json:"consistency_score"`

	// Recommendation is operator guidance derived from the score.
	Recommendation string `json:"recommendation"`
}

// AnalyzeConsistency evaluates count agreement over the snapshot
// window. Call it with the snapshot returned by the push that recorded
// currentCount so the analysis covers that image.
//
// With fewer than two entries there is nothing to compare, so the
// result is neutral. Otherwise the consensus is the mode of the window
// counts and the score its frequency over the window size. Mode ties
// resolve toward the smallest count, keeping repeat analyses of the
// same history stable.
func AnalyzeConsistency(snap Snapshot, currentCount int) ConsistencyResult {
	counts := snap.Counts()
	if len(counts) < 2 {
		return ConsistencyResult{
			MostFrequentCount: currentCount,
			ConsistencyScore:  0.5,
			Recommendation:    "Take more images after vibrating the plate",
		}
	}

	mode, freq := modeCount(counts)
	score := float64(freq) / float64(len(counts))
	return ConsistencyResult{
		MostFrequentCount: mode,
		ConsistencyScore:  score,
		Recommendation:    recommendation(score),
	}
}

// modeCount returns the most frequent value and its frequency, ties
// broken toward the smallest value.
func modeCount(values []int) (mode, freq int) {
	occurrences := make(map[int]int, len(values))
	for _, v := range values {
		occurrences[v]++
	}
	for v, n := range occurrences {
		if n > freq || (n == freq && v < mode) {
			mode, freq = v, n
		}
	}
	return mode, freq
}

func recommendation(score float64) string {
	switch {
	case score > 0.7:
		return "Excellent! Vibration method is working perfectly."
	case score > 0.5:
		return "Good consistency. Continue using vibration method."
	default:
		return "Try more vibration to separate objects better."
	}
}
