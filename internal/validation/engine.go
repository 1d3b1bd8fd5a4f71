package validation

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/loopctl/loopctl/internal/exec"
	"github.com/loopctl/loopctl/pkg/models"
)

const (
	// DefaultRuleTimeout is the per-rule timeout when none is configured.
	DefaultRuleTimeout = 60 * time.Second
	// MinRuleTimeout is the lower clamp for configured rule timeouts.
	MinRuleTimeout = 1 * time.Second
	// MaxRuleTimeout is the upper clamp for configured rule timeouts.
	MaxRuleTimeout = 10 * time.Minute
	// DefaultMaxConcurrency is the default bounded worker count.
	DefaultMaxConcurrency = 4
	// outputTruncateLen caps captured command output in result details.
	outputTruncateLen = 1000
)

// ArtifactSource supplies the latest stored artifact text for a task. The
// content_pattern rule's "artifact" target reads through this.
type ArtifactSource interface {
	LatestArtifactText(taskID string) (string, error)
}

// Context is the point-in-time input a rule set is validated against.
type Context struct {
	// TaskID identifies the task under iteration.
	TaskID string
	// WorkDir is the working directory for command and file rules.
	WorkDir string
	// Output is the current attempt's free-text output.
	Output string
	// Notes holds notes accompanying the attempt.
	Notes string
	// FilesModified lists files the attempt claims to have touched.
	FilesModified []string
}

// Engine executes validation rules with bounded concurrency and per-rule
// timeouts.
type Engine struct {
	runner         exec.CommandRunner
	artifacts      ArtifactSource
	validators     *CustomRegistry
	maxConcurrency int
	defaultTimeout time.Duration
}

// NewEngine creates an engine backed by the given command runner.
func NewEngine(runner exec.CommandRunner) *Engine {
	return &Engine{
		runner:         runner,
		validators:     NewCustomRegistry(),
		maxConcurrency: DefaultMaxConcurrency,
		defaultTimeout: DefaultRuleTimeout,
	}
}

// SetArtifactSource wires the artifact store used by artifact-target
// pattern rules.
func (e *Engine) SetArtifactSource(src ArtifactSource) {
	e.artifacts = src
}

// SetMaxConcurrency bounds the number of rules evaluated in parallel.
func (e *Engine) SetMaxConcurrency(n int) {
	if n > 0 {
		e.maxConcurrency = n
	}
}

// SetDefaultTimeout sets the per-rule timeout used when a rule does not
// configure its own. The value is clamped to [MinRuleTimeout, MaxRuleTimeout].
func (e *Engine) SetDefaultTimeout(d time.Duration) {
	e.defaultTimeout = clampTimeout(d)
}

// Validators returns the process-local custom validator registry.
func (e *Engine) Validators() *CustomRegistry {
	return e.validators
}

// Validate runs every enabled rule against the context and returns the
// aggregated report. Rule failures and errors are data in the report;
// Validate itself only fails on a nil engine precondition, never on rule
// behavior.
func (e *Engine) Validate(ctx context.Context, rules []models.ValidationRule, vctx Context) *models.ValidationReport {
	start := time.Now()

	var enabled []models.ValidationRule
	for _, r := range rules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}

	results := make([]models.ValidationResult, len(enabled))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.maxConcurrency)
	for i := range enabled {
		i := i
		g.Go(func() error {
			results[i] = e.runRule(gctx, enabled[i], vctx)
			return nil
		})
	}
	// Workers never return errors; failures become result entries.
	_ = g.Wait()

	report := &models.ValidationReport{
		Results:       results,
		TotalDuration: time.Since(start),
		ValidatedAt:   time.Now().UTC(),
	}
	for i := range results {
		switch {
		case results[i].Passed:
			report.PassedRules++
		case results[i].Errored():
			report.ErroredRules++
		default:
			report.FailedRules++
		}
	}
	report.OverallPassed = report.FailedRules == 0 && report.ErroredRules == 0

	return report
}

// runRule executes a single rule under its timeout, converting panics and
// errors into an errored result.
func (e *Engine) runRule(ctx context.Context, rule models.ValidationRule, vctx Context) (result models.ValidationResult) {
	start := time.Now()
	result = models.ValidationResult{
		RuleName: rule.Name,
		Type:     rule.Type,
	}
	defer func() {
		if r := recover(); r != nil {
			result.Passed = false
			result.Message = "rule panicked"
			result.Error = fmt.Sprintf("panic: %v", r)
		}
		result.DurationMs = time.Since(start).Milliseconds()
	}()

	timeout := e.defaultTimeout
	if rule.TimeoutMs > 0 {
		timeout = clampTimeout(time.Duration(rule.TimeoutMs) * time.Millisecond)
	}
	rctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	switch rule.Type {
	case models.RuleCommand:
		e.runCommandRule(rctx, rule, vctx, &result)
	case models.RuleContentPattern:
		e.runPatternRule(rule, vctx, &result)
	case models.RuleCoverage:
		e.runCoverageRule(rule, vctx, &result)
	case models.RuleFileExistence:
		e.runFileExistenceRule(rule, vctx, &result)
	case models.RuleCustom:
		e.runCustomRule(rctx, rule, vctx, &result)
	default:
		result.Message = "unknown rule type"
		result.Error = fmt.Sprintf("unsupported rule type %q", rule.Type)
	}

	return result
}

// clampTimeout bounds a timeout to [MinRuleTimeout, MaxRuleTimeout].
func clampTimeout(d time.Duration) time.Duration {
	if d < MinRuleTimeout {
		return MinRuleTimeout
	}
	if d > MaxRuleTimeout {
		return MaxRuleTimeout
	}
	return d
}

// truncate caps s at outputTruncateLen characters for reporting.
func truncate(s string) string {
	if len(s) <= outputTruncateLen {
		return s
	}
	return s[:outputTruncateLen] + "..."
}
