package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/loopctl/loopctl/pkg/models"
)

// SessionStatus represents the lifecycle state of an iteration session.
type SessionStatus string

const (
	// SessionIterating is the active state: advance and validate are legal.
	SessionIterating SessionStatus = "iterating"
	// SessionCompleted is terminal: the work finished.
	SessionCompleted SessionStatus = "completed"
	// SessionEscalated is terminal: a guard or signal forced a stop.
	SessionEscalated SessionStatus = "escalated"
)

// Terminal returns true for statuses where the session is inert.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionEscalated
}

// Session is one durable iteration session row. The numeric and history
// state here survives process restarts; only hook callbacks do not.
type Session struct {
	ID              string                   `json:"id"`
	TaskID          string                   `json:"task_id"`
	Config          models.IterationConfig   `json:"config"`
	IterationNumber int                      `json:"iteration_number"`
	History         []models.HistoryEntry    `json:"history"`
	ValidationState *models.ValidationReport `json:"validation_state,omitempty"`
	Status          SessionStatus            `json:"status"`
	CreatedAt       time.Time                `json:"created_at"`
	UpdatedAt       time.Time                `json:"updated_at"`
}

// CreateSession inserts a new session row.
func (db *DB) CreateSession(s *Session) error {
	config, err := json.Marshal(s.Config)
	if err != nil {
		return fmt.Errorf("marshal session config: %w", err)
	}
	history, err := json.Marshal(s.History)
	if err != nil {
		return fmt.Errorf("marshal session history: %w", err)
	}
	promises, err := json.Marshal(s.Config.CompletionPromises)
	if err != nil {
		return fmt.Errorf("marshal completion promises: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO sessions (id, task_id, config, iteration_number, history, completion_promises, validation_state, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.TaskID, string(config), s.IterationNumber, string(history), string(promises), nil,
		string(s.Status), formatTime(s.CreatedAt), formatTime(s.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID. Returns nil when not found.
func (db *DB) GetSession(id string) (*Session, error) {
	row := db.QueryRow(`
		SELECT id, task_id, config, iteration_number, history, validation_state, status, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)
	return scanSession(row)
}

// GetActiveSessionForTask returns the task's iterating session, if any.
// At most one session per task is active at a time.
func (db *DB) GetActiveSessionForTask(taskID string) (*Session, error) {
	row := db.QueryRow(`
		SELECT id, task_id, config, iteration_number, history, validation_state, status, created_at, updated_at
		FROM sessions WHERE task_id = ? AND status = ? ORDER BY created_at DESC LIMIT 1
	`, taskID, string(SessionIterating))
	return scanSession(row)
}

// UpdateSessionIteration advances a session's durable iteration state in a
// single atomic write. The fromIteration guard makes the write optimistic:
// a stale caller (duplicate advance, concurrent misuse) matches zero rows
// and the update reports false instead of clobbering newer state.
func (db *DB) UpdateSessionIteration(id string, fromIteration, toIteration int, history []models.HistoryEntry, validationState *models.ValidationReport) (bool, error) {
	historyJSON, err := json.Marshal(history)
	if err != nil {
		return false, fmt.Errorf("marshal session history: %w", err)
	}
	var stateJSON *string
	if validationState != nil {
		data, err := json.Marshal(validationState)
		if err != nil {
			return false, fmt.Errorf("marshal validation state: %w", err)
		}
		s := string(data)
		stateJSON = &s
	}

	result, err := db.Exec(`
		UPDATE sessions
		SET iteration_number = ?, history = ?, validation_state = ?, updated_at = ?
		WHERE id = ? AND iteration_number = ? AND status = ?
	`, toIteration, string(historyJSON), stateJSON, formatTime(time.Now()),
		id, fromIteration, string(SessionIterating))
	if err != nil {
		return false, fmt.Errorf("update session iteration: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return affected == 1, nil
}

// SetSessionValidationState stores the most recent validation report
// without touching the iteration number or history.
func (db *DB) SetSessionValidationState(id string, validationState *models.ValidationReport) error {
	var stateJSON *string
	if validationState != nil {
		data, err := json.Marshal(validationState)
		if err != nil {
			return fmt.Errorf("marshal validation state: %w", err)
		}
		s := string(data)
		stateJSON = &s
	}

	_, err := db.Exec(`
		UPDATE sessions SET validation_state = ?, updated_at = ? WHERE id = ?
	`, stateJSON, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set session validation state: %w", err)
	}
	return nil
}

// TerminateSession moves a session to a terminal status. Terminal sessions
// are inert: further iteration updates match zero rows.
func (db *DB) TerminateSession(id string, status SessionStatus) error {
	if !status.Terminal() {
		return fmt.Errorf("status %q is not terminal", status)
	}
	_, err := db.Exec(`
		UPDATE sessions SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("terminate session: %w", err)
	}
	return nil
}

// ListSessions lists all sessions, optionally filtered by status.
func (db *DB) ListSessions(status *SessionStatus) ([]Session, error) {
	query := `
		SELECT id, task_id, config, iteration_number, history, validation_state, status, created_at, updated_at
		FROM sessions`
	var args []any
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		s, err := scanSessionRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, nil
}

// scanSession scans a single-row query, mapping no-rows to nil.
func scanSession(row *sql.Row) (*Session, error) {
	s, err := scanSessionRow(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// scanSessionRow scans one session row through the given scan function.
func scanSessionRow(scan func(...any) error) (*Session, error) {
	var s Session
	var config, history, createdAt, updatedAt string
	var validationState sql.NullString

	err := scan(&s.ID, &s.TaskID, &config, &s.IterationNumber, &history,
		&validationState, &s.Status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if err := json.Unmarshal([]byte(config), &s.Config); err != nil {
		return nil, fmt.Errorf("unmarshal session config: %w", err)
	}
	if err := json.Unmarshal([]byte(history), &s.History); err != nil {
		return nil, fmt.Errorf("unmarshal session history: %w", err)
	}
	if validationState.Valid {
		s.ValidationState = &models.ValidationReport{}
		if err := json.Unmarshal([]byte(validationState.String), s.ValidationState); err != nil {
			return nil, fmt.Errorf("unmarshal validation state: %w", err)
		}
	}
	s.CreatedAt, _ = parseTime(createdAt)
	s.UpdatedAt, _ = parseTime(updatedAt)
	return &s, nil
}
