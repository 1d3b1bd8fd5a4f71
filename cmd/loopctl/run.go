package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/loopctl/loopctl/internal/config"
	"github.com/loopctl/loopctl/internal/controller"
	"github.com/loopctl/loopctl/internal/exec"
	"github.com/loopctl/loopctl/internal/hook"
	"github.com/loopctl/loopctl/pkg/models"
)

var (
	runWorkerCmd     string
	runRulesPath     string
	runMaxIterations int
	runPromises      []string
	runWorkDir       string
	runHookKind      string
	runJSON          bool
)

var runCmd = &cobra.Command{
	Use:   "run <task-id>",
	Short: "Drive a worker command through the full iteration loop",
	Long: `Run the complete iteration loop in one process.

Each iteration executes the worker command, validates its output against
the session's rules, and acts on the resulting signal: continue advances
to the next iteration, complete and escalate terminate the session.

The worker signals completion by printing a promise marker:

  [[PROMISE:COMPLETE]] all tests green
  [[PROMISE:BLOCKED]] cannot reach the staging database

A stop hook of the chosen kind is registered for the duration of the
loop and refines the decision after each attempt.

Examples:
  loopctl run fix-auth --cmd "./attempt-fix.sh" --rules rules.yaml
  loopctl run fix-auth --cmd "./attempt-fix.sh" --hook validation-only`,
	Args: cobra.ExactArgs(1),
	RunE: runRunCmd,
}

func init() {
	runCmd.Flags().StringVar(&runWorkerCmd, "cmd", "", "Worker shell command executed each iteration (required)")
	runCmd.Flags().StringVar(&runRulesPath, "rules", "", "Path to a YAML validation rules file")
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "Iteration cap (defaults to config)")
	runCmd.Flags().StringArrayVar(&runPromises, "promise", nil, "Accepted promise token, repeatable (defaults to config)")
	runCmd.Flags().StringVar(&runWorkDir, "workdir", "", "Working directory for the worker and validation rules")
	runCmd.Flags().StringVar(&runHookKind, "hook", string(hook.KindDefault), "Stop hook kind: default, validation-only, or promise-only")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the final result as JSON")
	runCmd.MarkFlagRequired("cmd")
}

func runRunCmd(cmd *cobra.Command, args []string) error {
	taskID := args[0]

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	iterCfg := models.IterationConfig{
		MaxIterations:           cfg.Defaults.MaxIterations,
		CircuitBreakerThreshold: cfg.Guards.CircuitBreakerThreshold,
	}
	for _, p := range cfg.Defaults.CompletionPromises {
		iterCfg.CompletionPromises = append(iterCfg.CompletionPromises, models.PromiseType(p))
	}
	if runMaxIterations > 0 {
		iterCfg.MaxIterations = runMaxIterations
	}
	if len(runPromises) > 0 {
		iterCfg.CompletionPromises = nil
		for _, p := range runPromises {
			iterCfg.CompletionPromises = append(iterCfg.CompletionPromises, models.PromiseType(p))
		}
	}
	if runRulesPath != "" {
		rules, err := loadRulesFile(runRulesPath)
		if err != nil {
			return err
		}
		iterCfg.ValidationRules = rules
	}

	db, err := openProjectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctrl := newController(db, cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	start, err := ctrl.Start(taskID, iterCfg)
	if err != nil {
		return err
	}
	fmt.Printf("Session %s started for task %s (max %d iterations)\n",
		start.SessionID, taskID, iterCfg.MaxIterations)

	if _, err := ctrl.Hooks().Register(taskID, hook.Spec{
		Kind:    hook.Kind(runHookKind),
		Enabled: true,
	}); err != nil {
		return fmt.Errorf("register stop hook: %w", err)
	}

	runner := exec.NewRunner()
	for {
		if ctx.Err() != nil {
			if _, err := ctrl.Escalate(start.SessionID, "interrupted by operator"); err != nil {
				return err
			}
			return fmt.Errorf("interrupted")
		}

		workerRes, err := runner.RunShell(ctx, runWorkDir, runWorkerCmd)
		if err != nil {
			if _, escErr := ctrl.Escalate(start.SessionID, "worker command failed to run"); escErr != nil {
				return escErr
			}
			return fmt.Errorf("run worker: %w", err)
		}
		output := workerRes.Stdout
		if workerRes.Stderr != "" {
			output += "\n" + workerRes.Stderr
		}

		vr, err := ctrl.Validate(ctx, start.SessionID, controller.Attempt{
			Output:  output,
			WorkDir: runWorkDir,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Iteration %d/%d: %s (%s)\n",
			vr.Iteration, iterCfg.MaxIterations, vr.Signal, vr.Reason)

		switch vr.Signal {
		case models.SignalComplete:
			res, err := ctrl.Complete(start.SessionID, completionToken(&iterCfg))
			if err != nil {
				return err
			}
			if runJSON {
				return printJSON(res)
			}
			successColor.Printf("Task %s completed after %d iterations\n", taskID, res.Iterations)
			return nil

		case models.SignalEscalate:
			res, err := ctrl.Escalate(start.SessionID, vr.Reason)
			if err != nil {
				return err
			}
			if runJSON {
				return printJSON(res)
			}
			failColor.Printf("Task %s escalated at iteration %d: %s\n", taskID, res.Iterations, vr.Reason)
			return nil
		}

		passed := vr.Report != nil && vr.Report.OverallPassed
		var failures []string
		if vr.Report != nil {
			failures = vr.Report.FailureMessages()
		}
		if _, err := ctrl.Advance(start.SessionID, passed, failures, ""); err != nil {
			if errors.Is(err, controller.ErrMaxIterationsExceeded) {
				failColor.Printf("Task %s escalated: iteration cap reached\n", taskID)
				return err
			}
			return err
		}
	}
}

// completionToken picks the token to complete with: COMPLETE when the
// config accepts it, the first accepted token otherwise.
func completionToken(cfg *models.IterationConfig) models.PromiseType {
	if cfg.AcceptsPromise(models.PromiseComplete) {
		return models.PromiseComplete
	}
	return cfg.CompletionPromises[0]
}
