// Package models defines the shared domain types for loopctl: iteration
// signals, completion promises, validation rules and reports, and session
// history entries.
package models

// Signal is the controller's decision after inspecting one attempt.
type Signal string

const (
	// SignalContinue indicates the loop should run another iteration.
	SignalContinue Signal = "CONTINUE"
	// SignalComplete indicates the work is done and the session should end.
	SignalComplete Signal = "COMPLETE"
	// SignalEscalate indicates the loop must stop and a human should look.
	SignalEscalate Signal = "ESCALATE"
)

// Valid returns true if the signal is a known value.
func (s Signal) Valid() bool {
	switch s {
	case SignalContinue, SignalComplete, SignalEscalate:
		return true
	default:
		return false
	}
}

// GuardReason identifies which safety guard forced a stop.
type GuardReason string

const (
	// GuardMaxIterations trips when the iteration number exceeds the cap.
	GuardMaxIterations GuardReason = "max_iterations"
	// GuardCircuitBreaker trips after a run of consecutive validation failures.
	GuardCircuitBreaker GuardReason = "circuit_breaker"
	// GuardQualityRegression trips when attempts go from passing back to failing.
	GuardQualityRegression GuardReason = "quality_regression"
	// GuardThrashing trips when the same file keeps recurring in failure messages.
	GuardThrashing GuardReason = "thrashing"
)
