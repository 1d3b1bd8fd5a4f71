// Package hook implements pluggable stop-decision callbacks evaluated
// after each validation step. Hooks can override or refine the
// controller's default continue/complete/escalate signal.
//
// Hooks hold executable decision logic that cannot be safely serialized,
// so the registry is deliberately process-local and non-durable: hooks are
// lost on restart and must be re-registered by the caller on resumption.
// Durable iteration state lives in the session store instead.
package hook

import (
	"fmt"

	"github.com/loopctl/loopctl/pkg/models"
)

// Kind selects a hook's decision strategy.
type Kind string

const (
	// KindDefault is the recommended strategy: explicit promises first,
	// then validation results, then continue.
	KindDefault Kind = "default"
	// KindValidationOnly ignores promises and decides from validation
	// results alone.
	KindValidationOnly Kind = "validation-only"
	// KindPromiseOnly ignores validation and decides from detected
	// promises alone.
	KindPromiseOnly Kind = "promise-only"
	// KindCustom runs a caller-supplied decision function.
	KindCustom Kind = "custom"
)

// Valid returns true if the kind is a known value.
func (k Kind) Valid() bool {
	switch k {
	case KindDefault, KindValidationOnly, KindPromiseOnly, KindCustom:
		return true
	default:
		return false
	}
}

// Action is a hook's verdict on the current attempt.
type Action string

const (
	// ActionContinue lets the loop run another iteration.
	ActionContinue Action = "continue"
	// ActionComplete ends the loop as done.
	ActionComplete Action = "complete"
	// ActionEscalate ends the loop and asks for a human.
	ActionEscalate Action = "escalate"
)

// Decision is the outcome of evaluating one hook or a hook chain.
type Decision struct {
	// Action is the verdict.
	Action Action `json:"action"`
	// Reason explains the verdict.
	Reason string `json:"reason,omitempty"`
	// Guidance carries failure-derived advice for the next attempt.
	Guidance string `json:"guidance,omitempty"`
	// HookID identifies the hook that produced the decision.
	HookID string `json:"hook_id,omitempty"`
	// Err holds the error when a hook callback failed; the action is
	// escalate in that case.
	Err string `json:"error,omitempty"`
}

// AgentContext is the assembled state a hook decides over.
type AgentContext struct {
	// TaskID identifies the task under iteration.
	TaskID string
	// Iteration is the current iteration number.
	Iteration int
	// MaxIterations is the session's iteration cap.
	MaxIterations int
	// Output is the attempt's free-text output.
	Output string
	// Promises holds the completion markers detected in Output.
	Promises []models.Promise
	// Report is the validation report for the attempt, nil when no rules
	// were configured or validation has not run.
	Report *models.ValidationReport
}

// Func is a hook decision callback. Returning an error yields an escalate
// decision; it never crashes the evaluation loop.
type Func func(ctx AgentContext) (Decision, error)

// Spec describes a hook at registration time.
type Spec struct {
	// Kind selects the decision strategy.
	Kind Kind
	// Enabled hooks are evaluated; disabled ones are skipped.
	Enabled bool
	// Custom is the decision callback, required when Kind is KindCustom.
	Custom Func
	// Metadata is opaque caller data surfaced by List.
	Metadata map[string]string
}

// Validate checks a spec before registration.
func (s *Spec) Validate() error {
	if !s.Kind.Valid() {
		return fmt.Errorf("unknown hook kind %q", s.Kind)
	}
	if s.Kind == KindCustom && s.Custom == nil {
		return fmt.Errorf("custom hook requires a callback")
	}
	if s.Kind != KindCustom && s.Custom != nil {
		return fmt.Errorf("%s hook must not carry a callback", s.Kind)
	}
	return nil
}

// Summary is the externally visible description of a registered hook.
type Summary struct {
	// ID is the hook's registry id.
	ID string `json:"id"`
	// TaskID is the owning task.
	TaskID string `json:"task_id"`
	// Kind is the decision strategy.
	Kind Kind `json:"kind"`
	// Enabled reports whether the hook participates in evaluation.
	Enabled bool `json:"enabled"`
	// Metadata is the opaque caller data from registration.
	Metadata map[string]string `json:"metadata,omitempty"`
}
