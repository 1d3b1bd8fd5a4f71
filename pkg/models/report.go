package models

import "time"

// ValidationResult is the outcome of running a single rule.
type ValidationResult struct {
	// RuleName is the name of the rule that produced this result.
	RuleName string `json:"rule_name"`
	// Type is the rule kind.
	Type RuleType `json:"type"`
	// Passed is true when the rule's success condition held.
	Passed bool `json:"passed"`
	// Message is a one-line human-readable outcome.
	Message string `json:"message"`
	// Details carries rule-specific diagnostics (truncated command output,
	// matched text, parsed coverage numbers).
	Details map[string]any `json:"details,omitempty"`
	// DurationMs is how long the rule took to run.
	DurationMs int64 `json:"duration_ms"`
	// Error is set when the rule errored rather than failed. Errored rules
	// never pass but also never abort the batch.
	Error string `json:"error,omitempty"`
}

// Errored returns true if the rule errored rather than cleanly failing.
func (r *ValidationResult) Errored() bool {
	return r.Error != ""
}

// ValidationReport aggregates the results of one validation batch.
type ValidationReport struct {
	// OverallPassed is true only when every rule passed.
	OverallPassed bool `json:"overall_passed"`
	// Results holds one entry per executed rule, in rule-set order.
	Results []ValidationResult `json:"results"`
	// PassedRules counts rules that passed.
	PassedRules int `json:"passed_rules"`
	// FailedRules counts rules that cleanly failed.
	FailedRules int `json:"failed_rules"`
	// ErroredRules counts rules that errored (timeout, spawn failure, panic).
	ErroredRules int `json:"errored_rules"`
	// TotalDuration is the wall-clock time for the whole batch.
	TotalDuration time.Duration `json:"total_duration"`
	// ValidatedAt is when the batch finished.
	ValidatedAt time.Time `json:"validated_at"`
}

// FailureMessages returns the messages of failed and errored results, in
// order. Used to build guidance for the next iteration and to feed the
// thrashing guard.
func (r *ValidationReport) FailureMessages() []string {
	var msgs []string
	for i := range r.Results {
		res := &r.Results[i]
		if res.Passed {
			continue
		}
		msg := res.Message
		if res.Error != "" {
			msg = res.Message + ": " + res.Error
		}
		msgs = append(msgs, res.RuleName+": "+msg)
	}
	return msgs
}
