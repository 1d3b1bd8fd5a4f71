// Package controller orchestrates bounded iteration sessions: it glues
// the session store, validation engine, safety guards, promise detector,
// and stop-hook registry into the start/validate/advance/complete
// lifecycle.
package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/loopctl/loopctl/internal/guard"
	"github.com/loopctl/loopctl/internal/hook"
	"github.com/loopctl/loopctl/internal/promise"
	"github.com/loopctl/loopctl/internal/state"
	"github.com/loopctl/loopctl/internal/validation"
	"github.com/loopctl/loopctl/pkg/models"
)

// Store is the durable state the controller operates against.
type Store interface {
	CreateTask(t *state.Task) error
	GetTask(id string) (*state.Task, error)
	SetTaskStatus(id string, status state.TaskStatus) error

	CreateSession(s *state.Session) error
	GetSession(id string) (*state.Session, error)
	GetActiveSessionForTask(taskID string) (*state.Session, error)
	UpdateSessionIteration(id string, fromIteration, toIteration int, history []models.HistoryEntry, validationState *models.ValidationReport) (bool, error)
	SetSessionValidationState(id string, validationState *models.ValidationReport) error
	TerminateSession(id string, status state.SessionStatus) error

	AddArtifact(taskID, content string) (string, error)
	LatestArtifactText(taskID string) (string, error)
}

var _ Store = (*state.DB)(nil)

// Controller drives iteration sessions through their lifecycle.
type Controller struct {
	store  Store
	engine *validation.Engine
	guards *guard.Evaluator
	hooks  *hook.Registry
	logger *DebugLogger
}

// New creates a controller over the given store and validation engine.
func New(store Store, engine *validation.Engine, logger *DebugLogger) *Controller {
	if logger == nil {
		logger = NopLogger()
	}
	engine.SetArtifactSource(store)
	return &Controller{
		store:  store,
		engine: engine,
		guards: guard.NewEvaluator(),
		hooks:  hook.NewRegistry(),
		logger: logger,
	}
}

// Hooks returns the controller's process-local stop-hook registry.
func (c *Controller) Hooks() *hook.Registry {
	return c.hooks
}

// StartResult is the outcome of starting a session.
type StartResult struct {
	SessionID string                 `json:"session_id"`
	TaskID    string                 `json:"task_id"`
	Iteration int                    `json:"iteration"`
	Config    models.IterationConfig `json:"config"`
}

// Start creates a new iteration session for the task. The config is
// validated up front; a malformed config never reaches the store. The
// task row is created on demand so a bare task id is enough to begin.
func (c *Controller) Start(taskID string, cfg models.IterationConfig) (*StartResult, error) {
	if taskID == "" {
		return nil, fmt.Errorf("task id is empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigInvalid, err)
	}

	task, err := c.store.GetTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if task == nil {
		now := time.Now()
		task = &state.Task{
			ID:        taskID,
			Title:     taskID,
			Status:    state.TaskPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := c.store.CreateTask(task); err != nil {
			return nil, fmt.Errorf("create task: %w", err)
		}
	}

	active, err := c.store.GetActiveSessionForTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("check active session: %w", err)
	}
	if active != nil {
		return nil, fmt.Errorf("%w: session %s", ErrSessionActive, active.ID)
	}

	now := time.Now()
	session := &state.Session{
		ID:              fmt.Sprintf("ses-%s", uuid.New().String()[:8]),
		TaskID:          taskID,
		Config:          cfg,
		IterationNumber: 1,
		History:         []models.HistoryEntry{},
		Status:          state.SessionIterating,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := c.store.CreateSession(session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	if err := c.store.SetTaskStatus(taskID, state.TaskIterating); err != nil {
		return nil, fmt.Errorf("mark task iterating: %w", err)
	}

	c.logger.Log("session %s started for task %s (max %d iterations)",
		session.ID, taskID, cfg.MaxIterations)

	return &StartResult{
		SessionID: session.ID,
		TaskID:    taskID,
		Iteration: session.IterationNumber,
		Config:    cfg,
	}, nil
}

// Attempt is one iteration's output presented for validation.
type Attempt struct {
	// Output is the attempt's free-text output, scanned for promises.
	Output string
	// Notes holds notes accompanying the attempt.
	Notes string
	// WorkDir is the working directory for command and file rules.
	WorkDir string
	// FilesModified lists files the attempt claims to have touched.
	FilesModified []string
}

// ValidateResult is the outcome of validating one attempt.
type ValidateResult struct {
	SessionID string                   `json:"session_id"`
	Iteration int                      `json:"iteration"`
	Signal    models.Signal            `json:"signal"`
	Reason    string                   `json:"reason"`
	Promises  []models.Promise         `json:"promises,omitempty"`
	Report    *models.ValidationReport `json:"report,omitempty"`
	Guard     guard.Verdict            `json:"guard"`
	Hook      *hook.Decision           `json:"hook,omitempty"`
}

// Validate evaluates one attempt against the session: promise detection,
// validation rules, safety guards, then stop hooks. The returned signal
// follows a fixed priority:
//
//  1. BLOCKED or ESCALATE promise: escalate.
//  2. Accepted COMPLETE promise: complete.
//  3. Tripped safety guard: escalate.
//  4. Decisive hook answer (complete or escalate).
//  5. All validation rules passed: complete.
//  6. Otherwise: continue.
//
// Validate records the attempt as an artifact and persists the validation
// report, but never transitions the session; Advance, Complete, and
// Escalate do that.
func (c *Controller) Validate(ctx context.Context, sessionID string, attempt Attempt) (*ValidateResult, error) {
	session, err := c.loadActiveSession(sessionID)
	if err != nil {
		return nil, err
	}

	if attempt.Output != "" {
		if _, err := c.store.AddArtifact(session.TaskID, attempt.Output); err != nil {
			return nil, fmt.Errorf("store attempt artifact: %w", err)
		}
	}

	promises := promise.Detect(attempt.Output)

	var report *models.ValidationReport
	if len(session.Config.ValidationRules) > 0 {
		report = c.engine.Validate(ctx, session.Config.ValidationRules, validation.Context{
			TaskID:        session.TaskID,
			WorkDir:       attempt.WorkDir,
			Output:        attempt.Output,
			Notes:         attempt.Notes,
			FilesModified: attempt.FilesModified,
		})
		if err := c.store.SetSessionValidationState(sessionID, report); err != nil {
			return nil, fmt.Errorf("persist validation state: %w", err)
		}
	}

	verdict := c.guards.Check(session.IterationNumber, guard.Config{
		MaxIterations:           session.Config.MaxIterations,
		CircuitBreakerThreshold: session.Config.BreakerThreshold(),
	}, session.History)

	decision := c.hooks.Evaluate(session.TaskID, hook.AgentContext{
		TaskID:        session.TaskID,
		Iteration:     session.IterationNumber,
		MaxIterations: session.Config.MaxIterations,
		Output:        attempt.Output,
		Promises:      promises,
		Report:        report,
	})

	signal, reason := resolveSignal(&session.Config, promises, report, verdict, decision)

	c.logger.Log("session %s iteration %d validated: signal=%s reason=%q",
		sessionID, session.IterationNumber, signal, reason)

	return &ValidateResult{
		SessionID: sessionID,
		Iteration: session.IterationNumber,
		Signal:    signal,
		Reason:    reason,
		Promises:  promises,
		Report:    report,
		Guard:     verdict,
		Hook:      &decision,
	}, nil
}

// resolveSignal applies the fixed signal priority over the attempt's
// evidence.
func resolveSignal(cfg *models.IterationConfig, promises []models.Promise, report *models.ValidationReport, verdict guard.Verdict, decision hook.Decision) (models.Signal, string) {
	for _, p := range promises {
		if p.Type == models.PromiseBlocked || p.Type == models.PromiseEscalate {
			reason := fmt.Sprintf("explicit %s promise", p.Type)
			if p.Content != "" {
				reason += ": " + p.Content
			}
			return models.SignalEscalate, reason
		}
	}
	for _, p := range promises {
		if p.Type == models.PromiseComplete && cfg.AcceptsPromise(models.PromiseComplete) {
			return models.SignalComplete, "explicit COMPLETE promise"
		}
	}
	if !verdict.CanContinue {
		return models.SignalEscalate, verdict.Message
	}
	switch decision.Action {
	case hook.ActionComplete:
		return models.SignalComplete, decision.Reason
	case hook.ActionEscalate:
		return models.SignalEscalate, decision.Reason
	}
	if report != nil && report.OverallPassed {
		return models.SignalComplete, fmt.Sprintf("all %d validation rules passed", report.PassedRules)
	}
	if decision.Reason != "" {
		return models.SignalContinue, decision.Reason
	}
	return models.SignalContinue, "no completion signal yet"
}

// AdvanceResult is the outcome of advancing a session by one iteration.
type AdvanceResult struct {
	SessionID string `json:"session_id"`
	Iteration int    `json:"iteration"`
	Remaining int    `json:"remaining"`
}

// Advance records the finished iteration in history and moves the session
// to the next iteration. The store's optimistic iteration check makes a
// duplicate advance fail instead of double-counting. Advancing past the
// iteration cap escalates the session and returns
// ErrMaxIterationsExceeded.
func (c *Controller) Advance(sessionID string, passed bool, failureMessages []string, checkpointRef string) (*AdvanceResult, error) {
	session, err := c.loadActiveSession(sessionID)
	if err != nil {
		return nil, err
	}

	entry := models.HistoryEntry{
		Iteration:       session.IterationNumber,
		Timestamp:       time.Now().UTC(),
		Passed:          passed,
		FailureMessages: failureMessages,
		CheckpointRef:   checkpointRef,
	}
	history := append(session.History, entry)
	next := session.IterationNumber + 1

	if next > session.Config.MaxIterations {
		if err := c.escalateSession(session, "iteration cap reached"); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: cap is %d", ErrMaxIterationsExceeded, session.Config.MaxIterations)
	}

	ok, err := c.store.UpdateSessionIteration(sessionID, session.IterationNumber, next, history, session.ValidationState)
	if err != nil {
		return nil, fmt.Errorf("advance session: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("advance session %s: iteration moved concurrently, retry from current state", sessionID)
	}

	c.logger.Log("session %s advanced to iteration %d/%d",
		sessionID, next, session.Config.MaxIterations)

	return &AdvanceResult{
		SessionID: sessionID,
		Iteration: next,
		Remaining: session.Config.MaxIterations - next,
	}, nil
}

// CompleteResult is the outcome of completing a session.
type CompleteResult struct {
	SessionID    string `json:"session_id"`
	TaskID       string `json:"task_id"`
	Iterations   int    `json:"iterations"`
	HooksCleared int    `json:"hooks_cleared"`
}

// Complete terminates the session as done. The promise token must be one
// the session's config accepts; completing with any other token fails with
// ErrInvalidCompletionPromise. Completion clears the task's stop hooks.
func (c *Controller) Complete(sessionID string, promiseType models.PromiseType) (*CompleteResult, error) {
	session, err := c.loadActiveSession(sessionID)
	if err != nil {
		return nil, err
	}
	if !session.Config.AcceptsPromise(promiseType) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCompletionPromise, promiseType)
	}

	if err := c.store.TerminateSession(sessionID, state.SessionCompleted); err != nil {
		return nil, fmt.Errorf("terminate session: %w", err)
	}
	if err := c.store.SetTaskStatus(session.TaskID, state.TaskCompleted); err != nil {
		return nil, fmt.Errorf("mark task completed: %w", err)
	}
	cleared := c.hooks.Clear(session.TaskID)

	c.logger.Log("session %s completed after %d iterations, %d hooks cleared",
		sessionID, session.IterationNumber, cleared)

	return &CompleteResult{
		SessionID:    sessionID,
		TaskID:       session.TaskID,
		Iterations:   session.IterationNumber,
		HooksCleared: cleared,
	}, nil
}

// Escalate terminates the session and hands the task to a human.
// Escalation clears the task's stop hooks.
func (c *Controller) Escalate(sessionID, reason string) (*CompleteResult, error) {
	session, err := c.loadActiveSession(sessionID)
	if err != nil {
		return nil, err
	}
	if err := c.escalateSession(session, reason); err != nil {
		return nil, err
	}
	return &CompleteResult{
		SessionID:    sessionID,
		TaskID:       session.TaskID,
		Iterations:   session.IterationNumber,
		HooksCleared: 0,
	}, nil
}

// escalateSession moves a session and its task to the escalated state and
// clears the task's hooks.
func (c *Controller) escalateSession(session *state.Session, reason string) error {
	if err := c.store.TerminateSession(session.ID, state.SessionEscalated); err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	if err := c.store.SetTaskStatus(session.TaskID, state.TaskEscalated); err != nil {
		return fmt.Errorf("mark task escalated: %w", err)
	}
	c.hooks.Clear(session.TaskID)
	c.logger.Log("session %s escalated at iteration %d: %s",
		session.ID, session.IterationNumber, reason)
	return nil
}

// Status returns the session's current durable state.
func (c *Controller) Status(sessionID string) (*state.Session, error) {
	session, err := c.store.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return session, nil
}

// loadActiveSession loads a session and rejects missing or terminal ones.
func (c *Controller) loadActiveSession(sessionID string) (*state.Session, error) {
	session, err := c.store.GetSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	if session.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrSessionTerminated, sessionID, session.Status)
	}
	return session, nil
}
