package hook

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// stopHook is a registered hook plus its resolved decision callback.
type stopHook struct {
	id       string
	taskID   string
	kind     Kind
	enabled  bool
	fn       Func
	metadata map[string]string
}

// Registry holds stop hooks per task. It is owned by the controller that
// created it, cleared when a session completes, and never persisted.
type Registry struct {
	mu    sync.RWMutex
	hooks map[string][]*stopHook
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{hooks: make(map[string][]*stopHook)}
}

// Register adds a hook for the task and returns its id. Hooks evaluate in
// registration order.
func (r *Registry) Register(taskID string, spec Spec) (string, error) {
	if taskID == "" {
		return "", fmt.Errorf("task id is empty")
	}
	if err := spec.Validate(); err != nil {
		return "", fmt.Errorf("invalid hook spec: %w", err)
	}

	fn := spec.Custom
	if spec.Kind != KindCustom {
		fn = presetFunc(spec.Kind)
	}

	h := &stopHook{
		id:       fmt.Sprintf("hk-%s", uuid.New().String()[:8]),
		taskID:   taskID,
		kind:     spec.Kind,
		enabled:  spec.Enabled,
		fn:       fn,
		metadata: spec.Metadata,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[taskID] = append(r.hooks[taskID], h)
	return h.id, nil
}

// Evaluate runs the task's hooks in registration order. The first hook
// returning complete or escalate stops the chain; if every hook continues,
// the last hook's reason and guidance are used. Disabled hooks are
// skipped. A callback that returns an error or panics yields an escalate
// decision carrying the error, never a crash of the evaluation loop.
//
// When the task has no enabled hooks, Evaluate returns a plain continue
// decision with an empty HookID.
func (r *Registry) Evaluate(taskID string, ctx AgentContext) Decision {
	r.mu.RLock()
	chain := make([]*stopHook, len(r.hooks[taskID]))
	copy(chain, r.hooks[taskID])
	r.mu.RUnlock()

	last := Decision{Action: ActionContinue}
	for _, h := range chain {
		if !h.enabled {
			continue
		}
		decision := runHook(h, ctx)
		decision.HookID = h.id
		if decision.Action == ActionComplete || decision.Action == ActionEscalate {
			return decision
		}
		last = decision
	}
	return last
}

// runHook invokes a single hook callback with panic isolation.
func runHook(h *stopHook, ctx AgentContext) (decision Decision) {
	defer func() {
		if p := recover(); p != nil {
			decision = Decision{
				Action: ActionEscalate,
				Reason: "hook callback panicked",
				Err:    fmt.Sprintf("panic: %v", p),
			}
		}
	}()

	d, err := h.fn(ctx)
	if err != nil {
		return Decision{
			Action: ActionEscalate,
			Reason: "hook callback failed",
			Err:    err.Error(),
		}
	}
	return d
}

// List returns summaries of the task's hooks in registration order.
func (r *Registry) List(taskID string) []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hooks := r.hooks[taskID]
	summaries := make([]Summary, 0, len(hooks))
	for _, h := range hooks {
		summaries = append(summaries, Summary{
			ID:       h.id,
			TaskID:   h.taskID,
			Kind:     h.kind,
			Enabled:  h.enabled,
			Metadata: h.metadata,
		})
	}
	return summaries
}

// Clear removes every hook for the task and returns the count removed.
func (r *Registry) Clear(taskID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := len(r.hooks[taskID])
	delete(r.hooks, taskID)
	return count
}
