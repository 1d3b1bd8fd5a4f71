package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Artifact is a text output produced by one iteration attempt. The
// newest artifact for a task is what pattern rules targeting artifacts
// match against.
type Artifact struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// AddArtifact stores a new artifact for the task and returns its id.
func (db *DB) AddArtifact(taskID, content string) (string, error) {
	if taskID == "" {
		return "", fmt.Errorf("task id is empty")
	}

	id := fmt.Sprintf("art-%s", uuid.New().String()[:8])
	_, err := db.Exec(`
		INSERT INTO artifacts (id, task_id, content, created_at)
		VALUES (?, ?, ?, ?)
	`, id, taskID, content, formatTime(time.Now()))
	if err != nil {
		return "", fmt.Errorf("add artifact: %w", err)
	}
	return id, nil
}

// LatestArtifactText returns the content of the task's most recent
// artifact, or empty string when the task has none.
func (db *DB) LatestArtifactText(taskID string) (string, error) {
	row := db.QueryRow(`
		SELECT content FROM artifacts
		WHERE task_id = ? ORDER BY rowid DESC LIMIT 1
	`, taskID)

	var content string
	err := row.Scan(&content)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get latest artifact: %w", err)
	}
	return content, nil
}

// ListArtifacts returns all artifacts for the task, newest first.
func (db *DB) ListArtifacts(taskID string) ([]Artifact, error) {
	rows, err := db.Query(`
		SELECT id, task_id, content, created_at
		FROM artifacts WHERE task_id = ? ORDER BY rowid DESC
	`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var artifacts []Artifact
	for rows.Next() {
		var a Artifact
		var createdAt string
		if err := rows.Scan(&a.ID, &a.TaskID, &a.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		a.CreatedAt, _ = parseTime(createdAt)
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}
