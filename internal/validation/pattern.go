package validation

import (
	"fmt"

	"github.com/loopctl/loopctl/pkg/models"
)

// runPatternRule applies the rule's regexp to the selected target text.
//
// Truth table for mustMatch:
//
//	mustMatch=true  (default): match found => pass, no match => fail
//	mustMatch=false:           match found => fail, no match => pass
func (e *Engine) runPatternRule(rule models.ValidationRule, vctx Context, result *models.ValidationResult) {
	cfg := rule.Pattern

	re, err := models.CompilePattern(cfg)
	if err != nil {
		result.Message = "invalid pattern"
		result.Error = err.Error()
		return
	}

	target := cfg.Target
	if target == "" {
		target = models.TargetOutput
	}

	var text string
	switch target {
	case models.TargetOutput:
		text = vctx.Output
	case models.TargetNotes:
		text = vctx.Notes
	case models.TargetArtifact:
		if e.artifacts == nil {
			result.Message = "no artifact source configured"
			result.Error = "artifact target requires an artifact store"
			return
		}
		text, err = e.artifacts.LatestArtifactText(vctx.TaskID)
		if err != nil {
			result.Message = "failed to load latest artifact"
			result.Error = err.Error()
			return
		}
	default:
		result.Message = "unknown pattern target"
		result.Error = fmt.Sprintf("unsupported target %q", target)
		return
	}

	match := re.FindString(text)
	matched := match != ""
	result.Details = map[string]any{
		"target":  string(target),
		"matched": matched,
	}
	if matched {
		result.Details["match"] = truncate(match)
	}

	if matched == cfg.WantMatch() {
		result.Passed = true
		if cfg.WantMatch() {
			result.Message = fmt.Sprintf("pattern %q matched %s", cfg.Pattern, target)
		} else {
			result.Message = fmt.Sprintf("pattern %q absent from %s", cfg.Pattern, target)
		}
		return
	}

	if cfg.WantMatch() {
		result.Message = fmt.Sprintf("pattern %q not found in %s", cfg.Pattern, target)
	} else {
		result.Message = fmt.Sprintf("forbidden pattern %q found in %s", cfg.Pattern, target)
	}
}
