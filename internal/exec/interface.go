// Package exec provides the command sandbox used by validation rules.
package exec

import (
	"context"
)

// Result captures the outcome of one command execution.
type Result struct {
	// ExitCode is the command's exit code. -1 when the command never ran.
	ExitCode int
	// Stdout is the captured standard output.
	Stdout string
	// Stderr is the captured standard error.
	Stderr string
	// TimedOut is true when the command was killed by its deadline.
	TimedOut bool
}

// CommandRunner defines the interface for running external commands.
// The validation engine treats this as an opaque capability so tests can
// substitute a fake.
type CommandRunner interface {
	// Run executes a command and captures its exit code and output streams.
	// The working directory is set to workDir if non-empty. A non-zero exit
	// code is not an error; err is reserved for spawn failures.
	Run(ctx context.Context, workDir string, name string, args ...string) (*Result, error)

	// RunShell executes a shell command through "sh -c".
	RunShell(ctx context.Context, workDir string, command string) (*Result, error)
}
