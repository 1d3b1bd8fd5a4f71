package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromPathDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Defaults.MaxIterations != 10 {
		t.Errorf("max iterations = %d, want 10", cfg.Defaults.MaxIterations)
	}
	if len(cfg.Defaults.CompletionPromises) != 1 || cfg.Defaults.CompletionPromises[0] != "COMPLETE" {
		t.Errorf("completion promises = %v, want [COMPLETE]", cfg.Defaults.CompletionPromises)
	}
	if cfg.Guards.CircuitBreakerThreshold != 3 {
		t.Errorf("breaker threshold = %d, want 3", cfg.Guards.CircuitBreakerThreshold)
	}
	if cfg.Guards.ThrashingThreshold != 5 {
		t.Errorf("thrashing threshold = %d, want 5", cfg.Guards.ThrashingThreshold)
	}
	if cfg.Validation.RuleTimeout != 60*time.Second {
		t.Errorf("rule timeout = %v, want 60s", cfg.Validation.RuleTimeout)
	}
	if cfg.Validation.MaxConcurrency != 4 {
		t.Errorf("max concurrency = %d, want 4", cfg.Validation.MaxConcurrency)
	}
	if cfg.Logging.Debug {
		t.Error("debug logging should default to off")
	}
}

func TestLoadFromPathOverrides(t *testing.T) {
	content := `
defaults:
  max_iterations: 25
  completion_promises: ["COMPLETE", "BLOCKED"]
guards:
  circuit_breaker_threshold: 7
validation:
  rule_timeout: 90s
  max_concurrency: 8
logging:
  debug: true
  path: /tmp/loopctl.log
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Defaults.MaxIterations != 25 {
		t.Errorf("max iterations = %d, want 25", cfg.Defaults.MaxIterations)
	}
	if len(cfg.Defaults.CompletionPromises) != 2 {
		t.Errorf("completion promises = %v, want two entries", cfg.Defaults.CompletionPromises)
	}
	if cfg.Guards.CircuitBreakerThreshold != 7 {
		t.Errorf("breaker threshold = %d, want 7", cfg.Guards.CircuitBreakerThreshold)
	}
	if cfg.Guards.ThrashingThreshold != 5 {
		t.Errorf("thrashing threshold = %d, want default 5", cfg.Guards.ThrashingThreshold)
	}
	if cfg.Validation.RuleTimeout != 90*time.Second {
		t.Errorf("rule timeout = %v, want 90s", cfg.Validation.RuleTimeout)
	}
	if cfg.Validation.MaxConcurrency != 8 {
		t.Errorf("max concurrency = %d, want 8", cfg.Validation.MaxConcurrency)
	}
	if !cfg.Logging.Debug {
		t.Error("debug logging should be enabled")
	}
	if cfg.Logging.Path != "/tmp/loopctl.log" {
		t.Errorf("log path = %q, want /tmp/loopctl.log", cfg.Logging.Path)
	}
}

func TestLoadFromPathMissingFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}
