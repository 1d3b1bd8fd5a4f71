package controller

import "errors"

var (
	// ErrSessionNotFound is returned when the session id is unknown.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionTerminated is returned for operations on a completed or
	// escalated session.
	ErrSessionTerminated = errors.New("session already terminated")
	// ErrSessionActive is returned when starting a session for a task that
	// already has one iterating.
	ErrSessionActive = errors.New("task already has an active session")
	// ErrMaxIterationsExceeded is returned when advancing would exceed the
	// session's iteration cap.
	ErrMaxIterationsExceeded = errors.New("maximum iterations exceeded")
	// ErrInvalidCompletionPromise is returned when completing with a promise
	// token the session's config does not accept.
	ErrInvalidCompletionPromise = errors.New("completion promise not accepted by session config")
	// ErrConfigInvalid is returned when the iteration config fails
	// validation at session start.
	ErrConfigInvalid = errors.New("invalid iteration config")
)
