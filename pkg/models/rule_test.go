package models

import (
	"strings"
	"testing"
)

func boolPtr(b bool) *bool { return &b }

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		rule    ValidationRule
		wantErr string
	}{
		{
			name: "valid command rule",
			rule: ValidationRule{
				Type: RuleCommand, Name: "tests", Enabled: true,
				Command: &CommandRuleConfig{Command: "go test ./..."},
			},
		},
		{
			name:    "missing name",
			rule:    ValidationRule{Type: RuleCommand},
			wantErr: "no name",
		},
		{
			name:    "unknown type",
			rule:    ValidationRule{Type: "shell", Name: "x"},
			wantErr: "unknown type",
		},
		{
			name:    "command without config",
			rule:    ValidationRule{Type: RuleCommand, Name: "x"},
			wantErr: "command config missing",
		},
		{
			name: "pattern with bad regexp",
			rule: ValidationRule{
				Type: RuleContentPattern, Name: "x",
				Pattern: &PatternRuleConfig{Pattern: "["},
			},
			wantErr: "compile pattern",
		},
		{
			name: "pattern with unknown flag",
			rule: ValidationRule{
				Type: RuleContentPattern, Name: "x",
				Pattern: &PatternRuleConfig{Pattern: "ok", Flags: "x"},
			},
			wantErr: "unknown pattern flag",
		},
		{
			name: "pattern with unknown target",
			rule: ValidationRule{
				Type: RuleContentPattern, Name: "x",
				Pattern: &PatternRuleConfig{Pattern: "ok", Target: "stderr"},
			},
			wantErr: "unknown pattern target",
		},
		{
			name: "coverage out of range",
			rule: ValidationRule{
				Type: RuleCoverage, Name: "x",
				Coverage: &CoverageRuleConfig{ReportPath: "cov.json", MinCoverage: 120},
			},
			wantErr: "out of range",
		},
		{
			name: "file existence without paths",
			rule: ValidationRule{
				Type: RuleFileExistence, Name: "x",
				FileExistence: &FileExistenceRuleConfig{},
			},
			wantErr: "file_existence config missing",
		},
		{
			name: "custom without validator id",
			rule: ValidationRule{
				Type: RuleCustom, Name: "x",
				Custom: &CustomRuleConfig{},
			},
			wantErr: "custom config missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
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

func TestValidateRuleSetDuplicateNames(t *testing.T) {
	rules := []ValidationRule{
		{Type: RuleFileExistence, Name: "dup", FileExistence: &FileExistenceRuleConfig{Paths: []string{"a"}}},
		{Type: RuleFileExistence, Name: "dup", FileExistence: &FileExistenceRuleConfig{Paths: []string{"b"}}},
	}
	err := ValidateRuleSet(rules)
	if err == nil || !strings.Contains(err.Error(), "duplicate rule name") {
		t.Errorf("ValidateRuleSet = %v, want duplicate name error", err)
	}
}

func TestCompilePatternFlags(t *testing.T) {
	re, err := CompilePattern(&PatternRuleConfig{Pattern: "hello", Flags: "i"})
	if err != nil {
		t.Fatalf("CompilePattern failed: %v", err)
	}
	if !re.MatchString("HELLO world") {
		t.Error("case-insensitive flag not applied")
	}
}

func TestPatternWantMatch(t *testing.T) {
	c := &PatternRuleConfig{Pattern: "x"}
	if !c.WantMatch() {
		t.Error("WantMatch should default to true")
	}
	c.MustMatch = boolPtr(false)
	if c.WantMatch() {
		t.Error("WantMatch should be false when must_match is false")
	}
}
