package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "loopctl",
	Short: "Bounded iteration controller",
	Long: `loopctl drives a worker through a bounded fix-validate-retry loop.

A session iterates a task until its validation rules pass, the worker
emits an explicit completion promise, or a safety guard stops the loop
and escalates to a human.

Core capabilities:
- Durable iteration sessions with per-attempt history
- Validation rules: commands, content patterns, coverage, file checks
- Safety guards: iteration cap, circuit breaker, regression, thrashing
- Completion promises ([[PROMISE:COMPLETE]]) detected in worker output
- Stop hooks that refine the continue/complete/escalate decision`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(escalateCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(hooksCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}
