package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loopctl/loopctl/pkg/models"
)

// fakeArtifacts serves artifact text per task id.
type fakeArtifacts struct {
	texts map[string]string
	err   error
}

func (f *fakeArtifacts) LatestArtifactText(taskID string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.texts[taskID], nil
}

func patternRule(name, pattern string, target models.PatternTarget, mustMatch *bool) models.ValidationRule {
	return models.ValidationRule{
		Type: models.RuleContentPattern, Name: name, Enabled: true,
		Pattern: &models.PatternRuleConfig{Pattern: pattern, Target: target, MustMatch: mustMatch},
	}
}

func TestPatternMustMatchTruthTable(t *testing.T) {
	e := NewEngine(newFakeRunner())
	yes, no := true, false

	tests := []struct {
		name      string
		mustMatch *bool
		output    string
		wantPass  bool
	}{
		{"default match passes", nil, "build succeeded", true},
		{"default no match fails", nil, "still broken", false},
		{"must match true and match passes", &yes, "build succeeded", true},
		{"must match true and no match fails", &yes, "nothing here", false},
		{"must match false and match fails", &no, "build succeeded", false},
		{"must match false and no match passes", &no, "nothing here", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := e.Validate(context.Background(), []models.ValidationRule{
				patternRule("p", "succeeded", models.TargetOutput, tt.mustMatch),
			}, Context{Output: tt.output})
			require.Len(t, report.Results, 1)
			assert.Equal(t, tt.wantPass, report.Results[0].Passed)
			assert.Empty(t, report.Results[0].Error)
		})
	}
}

func TestPatternTargets(t *testing.T) {
	e := NewEngine(newFakeRunner())
	e.SetArtifactSource(&fakeArtifacts{texts: map[string]string{"task-1": "# Design\nfinal draft"}})

	vctx := Context{
		TaskID: "task-1",
		Output: "output text",
		Notes:  "note text",
	}

	tests := []struct {
		target  models.PatternTarget
		pattern string
	}{
		{models.TargetOutput, "output"},
		{models.TargetNotes, "note"},
		{models.TargetArtifact, "final draft"},
	}
	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			report := e.Validate(context.Background(), []models.ValidationRule{
				patternRule("p", tt.pattern, tt.target, nil),
			}, vctx)
			require.Len(t, report.Results, 1)
			assert.True(t, report.Results[0].Passed, report.Results[0].Message)
		})
	}
}

func TestPatternArtifactErrors(t *testing.T) {
	t.Run("no artifact source configured", func(t *testing.T) {
		e := NewEngine(newFakeRunner())
		report := e.Validate(context.Background(), []models.ValidationRule{
			patternRule("p", "x", models.TargetArtifact, nil),
		}, Context{TaskID: "task-1"})
		require.Len(t, report.Results, 1)
		assert.True(t, report.Results[0].Errored())
	})

	t.Run("artifact store failure is errored", func(t *testing.T) {
		e := NewEngine(newFakeRunner())
		e.SetArtifactSource(&fakeArtifacts{err: errors.New("db locked")})
		report := e.Validate(context.Background(), []models.ValidationRule{
			patternRule("p", "x", models.TargetArtifact, nil),
		}, Context{TaskID: "task-1"})
		require.Len(t, report.Results, 1)
		assert.True(t, report.Results[0].Errored())
		assert.Contains(t, report.Results[0].Error, "db locked")
	})
}

func TestPatternCaseInsensitiveFlag(t *testing.T) {
	e := NewEngine(newFakeRunner())
	rule := models.ValidationRule{
		Type: models.RuleContentPattern, Name: "p", Enabled: true,
		Pattern: &models.PatternRuleConfig{Pattern: "error", Flags: "i"},
	}
	report := e.Validate(context.Background(), []models.ValidationRule{rule}, Context{Output: "ERROR: nope"})
	require.Len(t, report.Results, 1)
	assert.True(t, report.Results[0].Passed)
}
