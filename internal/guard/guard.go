// Package guard decides whether an iteration loop must stop regardless of
// validation outcome. Guards inspect only persisted history and session
// configuration, never the validation engine itself.
package guard

import (
	"fmt"
	"regexp"

	"github.com/loopctl/loopctl/pkg/models"
)

// DefaultThrashingThreshold is the per-file failure-mention count that
// trips the thrashing guard.
const DefaultThrashingThreshold = 5

// Config tunes the guard evaluator for one session.
type Config struct {
	// MaxIterations is the session's iteration cap.
	MaxIterations int
	// CircuitBreakerThreshold is the consecutive-failure run that trips
	// the breaker.
	CircuitBreakerThreshold int
	// ThrashingThreshold is the per-file mention count that trips the
	// thrashing guard. Defaults to DefaultThrashingThreshold when <= 0.
	ThrashingThreshold int
}

// Verdict is the outcome of a guard check.
type Verdict struct {
	// CanContinue is true when no guard tripped.
	CanContinue bool
	// BlockedBy identifies the tripped guard, empty when CanContinue.
	BlockedBy models.GuardReason
	// Message explains the trip in operator-readable terms.
	Message string
}

// Evaluator runs the safety guards in fixed priority order.
type Evaluator struct{}

// NewEvaluator creates a guard evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Check runs the guards against the current iteration number and history.
// Guards run in fixed priority order and the first tripped guard wins:
// max iterations, circuit breaker, quality regression, thrashing.
func (e *Evaluator) Check(iterationNumber int, cfg Config, history []models.HistoryEntry) Verdict {
	if iterationNumber > cfg.MaxIterations {
		return Verdict{
			BlockedBy: models.GuardMaxIterations,
			Message:   fmt.Sprintf("iteration %d exceeds the configured maximum of %d", iterationNumber, cfg.MaxIterations),
		}
	}

	threshold := cfg.CircuitBreakerThreshold
	if threshold <= 0 {
		threshold = models.DefaultCircuitBreakerThreshold
	}
	if run := trailingFailures(history); run >= threshold {
		return Verdict{
			BlockedBy: models.GuardCircuitBreaker,
			Message:   fmt.Sprintf("%d consecutive failed validations reached the circuit breaker threshold of %d", run, threshold),
		}
	}

	if regressed(history) {
		return Verdict{
			BlockedBy: models.GuardQualityRegression,
			Message:   "validation regressed: an earlier iteration passed but the most recent one failed",
		}
	}

	thrashLimit := cfg.ThrashingThreshold
	if thrashLimit <= 0 {
		thrashLimit = DefaultThrashingThreshold
	}
	if file, count := hotFile(history); count >= thrashLimit {
		return Verdict{
			BlockedBy: models.GuardThrashing,
			Message:   fmt.Sprintf("file %q mentioned in %d validation failures, repeated rework is not converging", file, count),
		}
	}

	return Verdict{CanContinue: true}
}

// trailingFailures counts consecutive failed entries from the most recent
// entry backward. Any success resets the run to zero.
func trailingFailures(history []models.HistoryEntry) int {
	run := 0
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Passed {
			break
		}
		run++
	}
	return run
}

// regressed reports whether the attempt sequence went from success back to
// failure: at least three entries, an earlier pass, and the latest a fail.
func regressed(history []models.HistoryEntry) bool {
	if len(history) < 3 {
		return false
	}
	if history[len(history)-1].Passed {
		return false
	}
	for i := 0; i < len(history)-1; i++ {
		if history[i].Passed {
			return true
		}
	}
	return false
}

// filePattern matches path-like tokens with a file extension inside
// validation failure messages.
var filePattern = regexp.MustCompile(`[A-Za-z0-9_\-./]*[A-Za-z0-9_\-]+\.[A-Za-z][A-Za-z0-9]*`)

// hotFile extracts file mentions from every failure message in history and
// returns the most-mentioned file with its count.
func hotFile(history []models.HistoryEntry) (string, int) {
	counts := make(map[string]int)
	for i := range history {
		for _, msg := range history[i].FailureMessages {
			for _, file := range filePattern.FindAllString(msg, -1) {
				counts[file]++
			}
		}
	}

	var top string
	var max int
	for file, count := range counts {
		if count > max {
			top, max = file, count
		}
	}
	return top, max
}
