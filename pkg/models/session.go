package models

import (
	"fmt"
	"time"
)

// MaxIterationsCeiling is the hard upper bound on configurable iterations.
const MaxIterationsCeiling = 100

// DefaultCircuitBreakerThreshold is the default run of consecutive failed
// validations that trips the circuit breaker.
const DefaultCircuitBreakerThreshold = 3

// IterationConfig is the immutable configuration of an iteration session.
type IterationConfig struct {
	// MaxIterations caps the number of attempts. Must be in [1, 100].
	MaxIterations int `json:"max_iterations" yaml:"max_iterations"`
	// CompletionPromises lists the accepted marker tokens.
	CompletionPromises []PromiseType `json:"completion_promises" yaml:"completion_promises"`
	// ValidationRules is the ordered rule set run on each validate call.
	ValidationRules []ValidationRule `json:"validation_rules,omitempty" yaml:"validation_rules,omitempty"`
	// CircuitBreakerThreshold is the consecutive-failure count that trips
	// the breaker. Defaults to DefaultCircuitBreakerThreshold.
	CircuitBreakerThreshold int `json:"circuit_breaker_threshold,omitempty" yaml:"circuit_breaker_threshold,omitempty"`
}

// BreakerThreshold returns the configured circuit breaker threshold,
// falling back to the default when unset.
func (c *IterationConfig) BreakerThreshold() int {
	if c.CircuitBreakerThreshold <= 0 {
		return DefaultCircuitBreakerThreshold
	}
	return c.CircuitBreakerThreshold
}

// AcceptsPromise returns true if the token is in the accepted set.
func (c *IterationConfig) AcceptsPromise(p PromiseType) bool {
	for _, accepted := range c.CompletionPromises {
		if accepted == p {
			return true
		}
	}
	return false
}

// Validate checks the config at session start. Malformed configs are
// rejected synchronously and never reach the store.
func (c *IterationConfig) Validate() error {
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations must be >= 1, got %d", c.MaxIterations)
	}
	if c.MaxIterations > MaxIterationsCeiling {
		return fmt.Errorf("max_iterations must be <= %d, got %d", MaxIterationsCeiling, c.MaxIterations)
	}
	if len(c.CompletionPromises) == 0 {
		return fmt.Errorf("at least one completion promise token is required")
	}
	for _, p := range c.CompletionPromises {
		if !p.Valid() {
			return fmt.Errorf("unknown completion promise token %q", p)
		}
	}
	if c.CircuitBreakerThreshold < 0 {
		return fmt.Errorf("circuit_breaker_threshold must be >= 1, got %d", c.CircuitBreakerThreshold)
	}
	if err := ValidateRuleSet(c.ValidationRules); err != nil {
		return err
	}
	return nil
}

// HistoryEntry records one completed iteration of a session.
type HistoryEntry struct {
	// Iteration is the iteration number this entry records.
	Iteration int `json:"iteration"`
	// Timestamp is when the iteration was advanced past.
	Timestamp time.Time `json:"timestamp"`
	// Passed is true when the iteration's validation passed overall.
	Passed bool `json:"passed"`
	// FailureMessages holds the failed/errored rule messages for the
	// iteration, used by the safety guards.
	FailureMessages []string `json:"failure_messages,omitempty"`
	// CheckpointRef references the checkpoint or record for this attempt.
	CheckpointRef string `json:"checkpoint_ref,omitempty"`
}
