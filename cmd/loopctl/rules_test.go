package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/loopctl/loopctl/pkg/models"
)

func writeRules(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write rules file: %v", err)
	}
	return path
}

func TestLoadRulesFile(t *testing.T) {
	path := writeRules(t, `
rules:
  - type: command
    name: tests
    enabled: true
    command:
      command: "go test ./..."
  - type: content_pattern
    name: no-panics
    enabled: true
    pattern:
      pattern: "panic:"
      must_match: false
  - type: file_existence
    name: changelog
    enabled: false
    file_existence:
      paths: ["CHANGELOG.md"]
`)

	rules, err := loadRulesFile(path)
	if err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("rules = %d, want 3", len(rules))
	}
	if rules[0].Type != models.RuleCommand || rules[0].Command.Command != "go test ./..." {
		t.Errorf("first rule = %+v, want command rule", rules[0])
	}
	if rules[1].Pattern.WantMatch() {
		t.Error("must_match: false should invert the pattern rule")
	}
	if rules[2].Enabled {
		t.Error("third rule should be disabled")
	}
}

func TestLoadRulesFileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"duplicate names", `
rules:
  - {type: command, name: a, enabled: true, command: {command: "true"}}
  - {type: command, name: a, enabled: true, command: {command: "false"}}
`},
		{"missing config", `
rules:
  - {type: coverage, name: cov, enabled: true}
`},
		{"bad pattern", `
rules:
  - {type: content_pattern, name: p, enabled: true, pattern: {pattern: "("}}
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadRulesFile(writeRules(t, tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadRulesFileMissing(t *testing.T) {
	if _, err := loadRulesFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
