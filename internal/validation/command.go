package validation

import (
	"context"
	"fmt"

	"github.com/loopctl/loopctl/pkg/models"
)

// runCommandRule shells out through the command runner and checks the exit
// code against the accepted set.
func (e *Engine) runCommandRule(ctx context.Context, rule models.ValidationRule, vctx Context, result *models.ValidationResult) {
	cfg := rule.Command

	workDir := vctx.WorkDir
	if cfg.WorkDir != "" {
		workDir = cfg.WorkDir
	}

	res, err := e.runner.RunShell(ctx, workDir, cfg.Command)
	if err != nil {
		result.Message = fmt.Sprintf("command %q failed to start", cfg.Command)
		result.Error = err.Error()
		return
	}

	result.Details = map[string]any{
		"exit_code": res.ExitCode,
		"stdout":    truncate(res.Stdout),
		"stderr":    truncate(res.Stderr),
	}

	if res.TimedOut {
		result.Message = fmt.Sprintf("command %q timed out", cfg.Command)
		result.Error = "timeout"
		return
	}

	if exitCodeAccepted(res.ExitCode, cfg) {
		result.Passed = true
		result.Message = fmt.Sprintf("command exited %d", res.ExitCode)
		return
	}

	result.Message = fmt.Sprintf("command exited %d, expected %d", res.ExitCode, cfg.ExpectedExitCode)
}

// exitCodeAccepted checks the exit code against expectedExitCode and the
// successExitCodes set.
func exitCodeAccepted(code int, cfg *models.CommandRuleConfig) bool {
	if code == cfg.ExpectedExitCode {
		return true
	}
	for _, ok := range cfg.SuccessExitCodes {
		if code == ok {
			return true
		}
	}
	return false
}
