package models

import (
	"strings"
	"testing"
)

func TestIterationConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     IterationConfig
		wantErr string
	}{
		{
			name: "valid minimal config",
			cfg: IterationConfig{
				MaxIterations:      3,
				CompletionPromises: []PromiseType{PromiseComplete},
			},
		},
		{
			name: "zero max iterations",
			cfg: IterationConfig{
				MaxIterations:      0,
				CompletionPromises: []PromiseType{PromiseComplete},
			},
			wantErr: "max_iterations must be >= 1",
		},
		{
			name: "max iterations over ceiling",
			cfg: IterationConfig{
				MaxIterations:      101,
				CompletionPromises: []PromiseType{PromiseComplete},
			},
			wantErr: "must be <= 100",
		},
		{
			name:    "no promise tokens",
			cfg:     IterationConfig{MaxIterations: 3},
			wantErr: "at least one completion promise",
		},
		{
			name: "unknown promise token",
			cfg: IterationConfig{
				MaxIterations:      3,
				CompletionPromises: []PromiseType{"DONE"},
			},
			wantErr: "unknown completion promise",
		},
		{
			name: "malformed rule rejected",
			cfg: IterationConfig{
				MaxIterations:      3,
				CompletionPromises: []PromiseType{PromiseComplete},
				ValidationRules:    []ValidationRule{{Type: RuleCommand, Name: "x"}},
			},
			wantErr: "command config missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate failed: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestBreakerThresholdDefault(t *testing.T) {
	cfg := IterationConfig{}
	if got := cfg.BreakerThreshold(); got != DefaultCircuitBreakerThreshold {
		t.Errorf("BreakerThreshold = %d, want %d", got, DefaultCircuitBreakerThreshold)
	}
	cfg.CircuitBreakerThreshold = 5
	if got := cfg.BreakerThreshold(); got != 5 {
		t.Errorf("BreakerThreshold = %d, want 5", got)
	}
}

func TestAcceptsPromise(t *testing.T) {
	cfg := IterationConfig{CompletionPromises: []PromiseType{PromiseComplete, PromiseBlocked}}
	if !cfg.AcceptsPromise(PromiseComplete) {
		t.Error("expected COMPLETE to be accepted")
	}
	if cfg.AcceptsPromise(PromiseEscalate) {
		t.Error("expected ESCALATE to be rejected")
	}
}

func TestReportFailureMessages(t *testing.T) {
	report := ValidationReport{
		Results: []ValidationResult{
			{RuleName: "a", Passed: true, Message: "ok"},
			{RuleName: "b", Passed: false, Message: "tests failed in internal/foo/bar.go"},
			{RuleName: "c", Passed: false, Message: "command errored", Error: "timed out"},
		},
	}
	msgs := report.FailureMessages()
	if len(msgs) != 2 {
		t.Fatalf("FailureMessages returned %d entries, want 2", len(msgs))
	}
	if !strings.Contains(msgs[0], "bar.go") {
		t.Errorf("first message missing file mention: %q", msgs[0])
	}
	if !strings.Contains(msgs[1], "timed out") {
		t.Errorf("errored message missing error text: %q", msgs[1])
	}
}
