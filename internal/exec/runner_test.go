package exec

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesExitCodeAndStreams(t *testing.T) {
	r := NewRunner()

	res, err := r.RunShell(context.Background(), "", "echo out; echo err >&2; exit 3")
	if err != nil {
		t.Fatalf("RunShell failed: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", res.ExitCode)
	}
	if !strings.Contains(res.Stdout, "out") {
		t.Errorf("Stdout = %q, want to contain %q", res.Stdout, "out")
	}
	if !strings.Contains(res.Stderr, "err") {
		t.Errorf("Stderr = %q, want to contain %q", res.Stderr, "err")
	}
}

func TestRunSuccess(t *testing.T) {
	r := NewRunner()

	res, err := r.Run(context.Background(), "", "true")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
}

func TestRunTimeout(t *testing.T) {
	r := NewRunner()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res, err := r.RunShell(ctx, "", "sleep 5")
	if err != nil {
		t.Fatalf("RunShell failed: %v", err)
	}
	if !res.TimedOut {
		t.Error("expected TimedOut to be set")
	}
}

func TestRunSpawnFailure(t *testing.T) {
	r := NewRunner()

	_, err := r.Run(context.Background(), "", "definitely-not-a-real-binary-xyz")
	if err == nil {
		t.Fatal("expected spawn error for missing binary")
	}
}

func TestRunWorkDir(t *testing.T) {
	r := NewRunner()
	dir := t.TempDir()

	res, err := r.Run(context.Background(), dir, "pwd")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(res.Stdout, dir) {
		t.Errorf("pwd output %q does not contain workdir %q", res.Stdout, dir)
	}
}
