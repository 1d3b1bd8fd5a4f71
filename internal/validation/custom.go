package validation

import (
	"context"
	"fmt"
	"sync"

	"github.com/loopctl/loopctl/pkg/models"
)

// CustomFunc is a validator registered in-process. It reports pass/fail
// with a message; a returned error marks the result as errored. Custom
// funcs hold executable logic and are never persisted.
type CustomFunc func(ctx context.Context, config map[string]any, vctx Context) (passed bool, message string, err error)

// CustomRegistry is the process-local registry of custom validators,
// keyed by validator id.
type CustomRegistry struct {
	mu    sync.RWMutex
	funcs map[string]CustomFunc
}

// NewCustomRegistry creates an empty registry.
func NewCustomRegistry() *CustomRegistry {
	return &CustomRegistry{funcs: make(map[string]CustomFunc)}
}

// Register adds a validator under the given id. Re-registering an id
// replaces the previous validator.
func (r *CustomRegistry) Register(id string, fn CustomFunc) error {
	if id == "" {
		return fmt.Errorf("validator id is empty")
	}
	if fn == nil {
		return fmt.Errorf("validator %q is nil", id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[id] = fn
	return nil
}

// Lookup returns the validator registered under id, or nil.
func (r *CustomRegistry) Lookup(id string) CustomFunc {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.funcs[id]
}

// runCustomRule dispatches to the registered validator. A panicking
// validator is caught by the engine's recover in runRule; an unknown id or
// returned error becomes an errored result.
func (e *Engine) runCustomRule(ctx context.Context, rule models.ValidationRule, vctx Context, result *models.ValidationResult) {
	cfg := rule.Custom

	fn := e.validators.Lookup(cfg.ValidatorID)
	if fn == nil {
		result.Message = fmt.Sprintf("no validator registered as %q", cfg.ValidatorID)
		result.Error = "validator not found"
		return
	}

	passed, message, err := fn(ctx, cfg.Config, vctx)
	if err != nil {
		result.Message = fmt.Sprintf("validator %q errored", cfg.ValidatorID)
		result.Error = err.Error()
		return
	}

	result.Passed = passed
	result.Message = message
	if result.Message == "" {
		if passed {
			result.Message = fmt.Sprintf("validator %q passed", cfg.ValidatorID)
		} else {
			result.Message = fmt.Sprintf("validator %q failed", cfg.ValidatorID)
		}
	}
}
