package guard

import "github.com/loopctl/loopctl/pkg/models"

// AlternationRate measures how often consecutive iterations flipped between
// pass and fail, as a fraction of adjacent pairs in [0, 1]. Histories with
// fewer than two entries score 0.
//
// This is a post-hoc analytics metric for session review. It is deliberately
// not used by the live thrashing guard, which keys off repeated file
// mentions instead; mixing the two definitions made the source heuristic
// impossible to reason about.
func AlternationRate(history []models.HistoryEntry) float64 {
	if len(history) < 2 {
		return 0
	}
	flips := 0
	for i := 1; i < len(history); i++ {
		if history[i].Passed != history[i-1].Passed {
			flips++
		}
	}
	return float64(flips) / float64(len(history)-1)
}
