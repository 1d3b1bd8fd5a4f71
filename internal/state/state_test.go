package state

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/loopctl/loopctl/pkg/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testTask(id string) *Task {
	now := time.Now()
	return &Task{
		ID:        id,
		Title:     "fix flaky auth tests",
		Status:    TaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func testSession(id, taskID string) *Session {
	now := time.Now()
	return &Session{
		ID:     id,
		TaskID: taskID,
		Config: models.IterationConfig{
			MaxIterations:      10,
			CompletionPromises: []models.PromiseType{models.PromiseComplete},
		},
		IterationNumber: 1,
		History:         []models.HistoryEntry{},
		Status:          SessionIterating,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestTaskRoundTrip(t *testing.T) {
	db := setupTestDB(t)

	task := testTask("task-1")
	task.Metadata = map[string]string{"source": "cli"}
	if err := db.CreateTask(task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	got, err := db.GetTask("task-1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got == nil {
		t.Fatal("expected task, got nil")
	}
	if got.Title != task.Title {
		t.Errorf("title = %q, want %q", got.Title, task.Title)
	}
	if got.Status != TaskPending {
		t.Errorf("status = %q, want %q", got.Status, TaskPending)
	}
	if got.Metadata["source"] != "cli" {
		t.Errorf("metadata = %v, want source=cli", got.Metadata)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetTask("missing")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for missing task, got %+v", got)
	}
}

func TestSetTaskStatus(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateTask(testTask("task-1")); err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := db.SetTaskStatus("task-1", TaskIterating); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, err := db.GetTask("task-1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.Status != TaskIterating {
		t.Errorf("status = %q, want %q", got.Status, TaskIterating)
	}

	if err := db.SetTaskStatus("task-1", "bogus"); err == nil {
		t.Error("expected error for invalid status")
	}
	if err := db.SetTaskStatus("missing", TaskCompleted); err == nil {
		t.Error("expected error for missing task")
	}
}

func TestListTasksByStatus(t *testing.T) {
	db := setupTestDB(t)
	for _, id := range []string{"task-1", "task-2", "task-3"} {
		if err := db.CreateTask(testTask(id)); err != nil {
			t.Fatalf("create task: %v", err)
		}
	}
	if err := db.SetTaskStatus("task-2", TaskCompleted); err != nil {
		t.Fatalf("set status: %v", err)
	}

	pending := TaskPending
	tasks, err := db.ListTasks(&pending)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Errorf("pending tasks = %d, want 2", len(tasks))
	}

	all, err := db.ListTasks(nil)
	if err != nil {
		t.Fatalf("list all tasks: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("all tasks = %d, want 3", len(all))
	}
}

func TestSessionRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateTask(testTask("task-1")); err != nil {
		t.Fatalf("create task: %v", err)
	}

	s := testSession("sess-1", "task-1")
	if err := db.CreateSession(s); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := db.GetSession("sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got == nil {
		t.Fatal("expected session, got nil")
	}
	if got.TaskID != "task-1" {
		t.Errorf("task id = %q, want task-1", got.TaskID)
	}
	if got.IterationNumber != 1 {
		t.Errorf("iteration = %d, want 1", got.IterationNumber)
	}
	if got.Config.MaxIterations != 10 {
		t.Errorf("max iterations = %d, want 10", got.Config.MaxIterations)
	}
	if got.Status != SessionIterating {
		t.Errorf("status = %q, want iterating", got.Status)
	}
	if got.ValidationState != nil {
		t.Errorf("validation state = %+v, want nil", got.ValidationState)
	}
}

func TestUpdateSessionIteration(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateTask(testTask("task-1")); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if err := db.CreateSession(testSession("sess-1", "task-1")); err != nil {
		t.Fatalf("create session: %v", err)
	}

	history := []models.HistoryEntry{
		{Iteration: 1, Timestamp: time.Now(), Passed: false, FailureMessages: []string{"tests failed"}},
	}
	report := &models.ValidationReport{OverallPassed: false, FailedRules: 1}

	ok, err := db.UpdateSessionIteration("sess-1", 1, 2, history, report)
	if err != nil {
		t.Fatalf("update iteration: %v", err)
	}
	if !ok {
		t.Fatal("expected update to apply")
	}

	got, err := db.GetSession("sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.IterationNumber != 2 {
		t.Errorf("iteration = %d, want 2", got.IterationNumber)
	}
	if len(got.History) != 1 || got.History[0].FailureMessages[0] != "tests failed" {
		t.Errorf("history = %+v, want one entry with failure message", got.History)
	}
	if got.ValidationState == nil || got.ValidationState.FailedRules != 1 {
		t.Errorf("validation state = %+v, want failed rules 1", got.ValidationState)
	}
}

func TestUpdateSessionIterationStaleRejected(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateSession(testSession("sess-1", "task-1")); err != nil {
		t.Fatalf("create session: %v", err)
	}

	ok, err := db.UpdateSessionIteration("sess-1", 1, 2, nil, nil)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if !ok {
		t.Fatal("first update should apply")
	}

	// Same from-iteration again: a duplicate advance.
	ok, err = db.UpdateSessionIteration("sess-1", 1, 2, nil, nil)
	if err != nil {
		t.Fatalf("duplicate update: %v", err)
	}
	if ok {
		t.Error("duplicate advance should match zero rows")
	}

	got, err := db.GetSession("sess-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got.IterationNumber != 2 {
		t.Errorf("iteration = %d, want 2 after rejected duplicate", got.IterationNumber)
	}
}

func TestTerminateSessionMakesItInert(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateSession(testSession("sess-1", "task-1")); err != nil {
		t.Fatalf("create session: %v", err)
	}

	if err := db.TerminateSession("sess-1", SessionIterating); err == nil {
		t.Error("expected error for non-terminal status")
	}
	if err := db.TerminateSession("sess-1", SessionCompleted); err != nil {
		t.Fatalf("terminate session: %v", err)
	}

	ok, err := db.UpdateSessionIteration("sess-1", 1, 2, nil, nil)
	if err != nil {
		t.Fatalf("update after terminate: %v", err)
	}
	if ok {
		t.Error("terminated session must reject iteration updates")
	}
}

func TestGetActiveSessionForTask(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateSession(testSession("sess-1", "task-1")); err != nil {
		t.Fatalf("create session: %v", err)
	}

	got, err := db.GetActiveSessionForTask("task-1")
	if err != nil {
		t.Fatalf("get active session: %v", err)
	}
	if got == nil || got.ID != "sess-1" {
		t.Fatalf("active session = %+v, want sess-1", got)
	}

	if err := db.TerminateSession("sess-1", SessionEscalated); err != nil {
		t.Fatalf("terminate session: %v", err)
	}
	got, err = db.GetActiveSessionForTask("task-1")
	if err != nil {
		t.Fatalf("get active session: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after terminate, got %+v", got)
	}
}

func TestArtifacts(t *testing.T) {
	db := setupTestDB(t)

	text, err := db.LatestArtifactText("task-1")
	if err != nil {
		t.Fatalf("latest artifact on empty table: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}

	if _, err := db.AddArtifact("task-1", "first attempt"); err != nil {
		t.Fatalf("add artifact: %v", err)
	}
	if _, err := db.AddArtifact("task-1", "second attempt"); err != nil {
		t.Fatalf("add artifact: %v", err)
	}

	text, err = db.LatestArtifactText("task-1")
	if err != nil {
		t.Fatalf("latest artifact: %v", err)
	}
	if text != "second attempt" {
		t.Errorf("latest artifact = %q, want %q", text, "second attempt")
	}

	artifacts, err := db.ListArtifacts("task-1")
	if err != nil {
		t.Fatalf("list artifacts: %v", err)
	}
	if len(artifacts) != 2 {
		t.Errorf("artifacts = %d, want 2", len(artifacts))
	}

	if _, err := db.AddArtifact("", "no task"); err == nil {
		t.Error("expected error for empty task id")
	}
}

func TestPurgeOldSessions(t *testing.T) {
	db := setupTestDB(t)
	if err := db.CreateSession(testSession("sess-old", "task-1")); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if err := db.TerminateSession("sess-old", SessionCompleted); err != nil {
		t.Fatalf("terminate session: %v", err)
	}
	if err := db.CreateSession(testSession("sess-live", "task-2")); err != nil {
		t.Fatalf("create session: %v", err)
	}

	// Negative age puts the cutoff in the future: everything terminated
	// is purged, iterating sessions never are.
	count, err := db.PurgeOldSessions(-time.Second)
	if err != nil {
		t.Fatalf("purge sessions: %v", err)
	}
	if count != 1 {
		t.Errorf("purged = %d, want 1", count)
	}

	got, err := db.GetSession("sess-live")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if got == nil {
		t.Error("iterating session must survive purge")
	}
}
