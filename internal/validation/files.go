package validation

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/loopctl/loopctl/pkg/models"
)

// runFileExistenceRule checks the configured paths against the filesystem.
// With allMustExist (the default) every path must be present; otherwise a
// single existing path passes.
func (e *Engine) runFileExistenceRule(rule models.ValidationRule, vctx Context, result *models.ValidationResult) {
	cfg := rule.FileExistence

	var missing, present []string
	for _, p := range cfg.Paths {
		path := p
		if !filepath.IsAbs(path) && vctx.WorkDir != "" {
			path = filepath.Join(vctx.WorkDir, path)
		}
		if _, err := os.Stat(path); err == nil {
			present = append(present, p)
		} else {
			missing = append(missing, p)
		}
	}

	result.Details = map[string]any{
		"present": present,
		"missing": missing,
	}

	if cfg.RequireAll() {
		if len(missing) == 0 {
			result.Passed = true
			result.Message = fmt.Sprintf("all %d paths exist", len(cfg.Paths))
			return
		}
		result.Message = fmt.Sprintf("%d of %d required paths missing: %v", len(missing), len(cfg.Paths), missing)
		return
	}

	if len(present) > 0 {
		result.Passed = true
		result.Message = fmt.Sprintf("%d of %d paths exist", len(present), len(cfg.Paths))
		return
	}
	result.Message = fmt.Sprintf("none of %d paths exist", len(cfg.Paths))
}
