package models

import (
	"fmt"
	"regexp"
)

// RuleType identifies the kind of a validation rule.
type RuleType string

const (
	// RuleCommand runs an external command and checks its exit code.
	RuleCommand RuleType = "command"
	// RuleContentPattern matches a regular expression against attempt text.
	RuleContentPattern RuleType = "content_pattern"
	// RuleCoverage parses a coverage report and checks a minimum percentage.
	RuleCoverage RuleType = "coverage"
	// RuleFileExistence checks that configured paths exist on disk.
	RuleFileExistence RuleType = "file_existence"
	// RuleCustom dispatches to a validator registered in-process.
	RuleCustom RuleType = "custom"
)

// Valid returns true if the rule type is a known value.
func (t RuleType) Valid() bool {
	switch t {
	case RuleCommand, RuleContentPattern, RuleCoverage, RuleFileExistence, RuleCustom:
		return true
	default:
		return false
	}
}

// PatternTarget names the text a content_pattern rule is applied to.
type PatternTarget string

const (
	// TargetOutput matches against the current attempt's free-text output.
	TargetOutput PatternTarget = "output"
	// TargetNotes matches against notes accompanying the attempt.
	TargetNotes PatternTarget = "notes"
	// TargetArtifact matches against the latest stored artifact text.
	TargetArtifact PatternTarget = "artifact"
)

// CoverageScope names the metric a coverage rule reads from the report.
type CoverageScope string

const (
	CoverageLines      CoverageScope = "lines"
	CoverageBranches   CoverageScope = "branches"
	CoverageFunctions  CoverageScope = "functions"
	CoverageStatements CoverageScope = "statements"
)

// ValidationRule is one check the engine runs against an attempt.
// Exactly one of the config fields matching Type should be set.
type ValidationRule struct {
	// Type is the rule kind.
	Type RuleType `json:"type" yaml:"type"`
	// Name uniquely identifies the rule within its rule set.
	Name string `json:"name" yaml:"name"`
	// Enabled controls whether the engine runs this rule.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// TimeoutMs overrides the engine's per-rule timeout when > 0.
	TimeoutMs int `json:"timeout_ms,omitempty" yaml:"timeout_ms,omitempty"`

	Command       *CommandRuleConfig       `json:"command,omitempty" yaml:"command,omitempty"`
	Pattern       *PatternRuleConfig       `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Coverage      *CoverageRuleConfig      `json:"coverage,omitempty" yaml:"coverage,omitempty"`
	FileExistence *FileExistenceRuleConfig `json:"file_existence,omitempty" yaml:"file_existence,omitempty"`
	Custom        *CustomRuleConfig        `json:"custom,omitempty" yaml:"custom,omitempty"`
}

// CommandRuleConfig configures a command rule.
type CommandRuleConfig struct {
	// Command is the shell command to run.
	Command string `json:"command" yaml:"command"`
	// WorkDir overrides the engine's working directory when set.
	WorkDir string `json:"work_dir,omitempty" yaml:"work_dir,omitempty"`
	// ExpectedExitCode is the exit code treated as success. Defaults to 0.
	ExpectedExitCode int `json:"expected_exit_code,omitempty" yaml:"expected_exit_code,omitempty"`
	// SuccessExitCodes lists additional exit codes treated as success.
	SuccessExitCodes []int `json:"success_exit_codes,omitempty" yaml:"success_exit_codes,omitempty"`
}

// PatternRuleConfig configures a content_pattern rule.
type PatternRuleConfig struct {
	// Pattern is the regular expression source.
	Pattern string `json:"pattern" yaml:"pattern"`
	// Flags holds optional regexp flags: i, m, s.
	Flags string `json:"flags,omitempty" yaml:"flags,omitempty"`
	// Target selects the text to match. Defaults to TargetOutput.
	Target PatternTarget `json:"target,omitempty" yaml:"target,omitempty"`
	// MustMatch selects the success condition: when true (the default) a
	// match passes and absence fails; when false a match fails and absence
	// passes.
	MustMatch *bool `json:"must_match,omitempty" yaml:"must_match,omitempty"`
}

// WantMatch reports whether a match should count as success.
func (c *PatternRuleConfig) WantMatch() bool {
	return c.MustMatch == nil || *c.MustMatch
}

// CoverageRuleConfig configures a coverage rule.
type CoverageRuleConfig struct {
	// ReportPath is the path to the coverage report file.
	ReportPath string `json:"report_path" yaml:"report_path"`
	// MinCoverage is the minimum acceptable percentage (0-100).
	MinCoverage float64 `json:"min_coverage" yaml:"min_coverage"`
	// Scope selects the metric to read. Defaults to CoverageLines.
	Scope CoverageScope `json:"scope,omitempty" yaml:"scope,omitempty"`
}

// FileExistenceRuleConfig configures a file_existence rule.
type FileExistenceRuleConfig struct {
	// Paths lists the files to check, relative to the working directory.
	Paths []string `json:"paths" yaml:"paths"`
	// AllMustExist requires every path when true (the default); when false
	// a single existing path passes.
	AllMustExist *bool `json:"all_must_exist,omitempty" yaml:"all_must_exist,omitempty"`
}

// RequireAll reports whether every configured path must exist.
func (c *FileExistenceRuleConfig) RequireAll() bool {
	return c.AllMustExist == nil || *c.AllMustExist
}

// CustomRuleConfig configures a custom rule.
type CustomRuleConfig struct {
	// ValidatorID names the validator in the process-local registry.
	ValidatorID string `json:"validator_id" yaml:"validator_id"`
	// Config is passed verbatim to the validator.
	Config map[string]any `json:"config,omitempty" yaml:"config,omitempty"`
}

// Validate checks that the rule is well-formed: a known type, a name, and
// the config block matching the type present and internally consistent.
func (r *ValidationRule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule has no name")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("rule %q: unknown type %q", r.Name, r.Type)
	}

	switch r.Type {
	case RuleCommand:
		if r.Command == nil || r.Command.Command == "" {
			return fmt.Errorf("rule %q: command config missing", r.Name)
		}
	case RuleContentPattern:
		if r.Pattern == nil || r.Pattern.Pattern == "" {
			return fmt.Errorf("rule %q: pattern config missing", r.Name)
		}
		if _, err := CompilePattern(r.Pattern); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
		switch r.Pattern.Target {
		case "", TargetOutput, TargetNotes, TargetArtifact:
		default:
			return fmt.Errorf("rule %q: unknown pattern target %q", r.Name, r.Pattern.Target)
		}
	case RuleCoverage:
		if r.Coverage == nil || r.Coverage.ReportPath == "" {
			return fmt.Errorf("rule %q: coverage config missing", r.Name)
		}
		if r.Coverage.MinCoverage < 0 || r.Coverage.MinCoverage > 100 {
			return fmt.Errorf("rule %q: min_coverage %.1f out of range [0,100]", r.Name, r.Coverage.MinCoverage)
		}
		switch r.Coverage.Scope {
		case "", CoverageLines, CoverageBranches, CoverageFunctions, CoverageStatements:
		default:
			return fmt.Errorf("rule %q: unknown coverage scope %q", r.Name, r.Coverage.Scope)
		}
	case RuleFileExistence:
		if r.FileExistence == nil || len(r.FileExistence.Paths) == 0 {
			return fmt.Errorf("rule %q: file_existence config missing", r.Name)
		}
	case RuleCustom:
		if r.Custom == nil || r.Custom.ValidatorID == "" {
			return fmt.Errorf("rule %q: custom config missing", r.Name)
		}
	}

	return nil
}

// CompilePattern compiles a pattern rule config into a regexp, translating
// the i/m/s flag letters into inline regexp flags.
func CompilePattern(c *PatternRuleConfig) (*regexp.Regexp, error) {
	src := c.Pattern
	if c.Flags != "" {
		for _, f := range c.Flags {
			switch f {
			case 'i', 'm', 's':
			default:
				return nil, fmt.Errorf("unknown pattern flag %q", string(f))
			}
		}
		src = "(?" + c.Flags + ")" + src
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile pattern: %w", err)
	}
	return re, nil
}

// ValidateRuleSet checks every rule in the set and enforces unique names.
func ValidateRuleSet(rules []ValidationRule) error {
	seen := make(map[string]bool, len(rules))
	for i := range rules {
		if err := rules[i].Validate(); err != nil {
			return err
		}
		if seen[rules[i].Name] {
			return fmt.Errorf("duplicate rule name %q", rules[i].Name)
		}
		seen[rules[i].Name] = true
	}
	return nil
}
