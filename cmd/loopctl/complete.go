package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loopctl/loopctl/internal/config"
	"github.com/loopctl/loopctl/pkg/models"
)

var (
	completePromise string
	completeJSON    bool
	escalateReason  string
	escalateJSON    bool
)

var completeCmd = &cobra.Command{
	Use:   "complete <session-id>",
	Short: "Complete a session",
	Long: `Terminate the session as done and mark its task completed.

The promise token must be one the session's configuration accepts.
Completion clears the task's stop hooks.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompleteCmd,
}

var escalateCmd = &cobra.Command{
	Use:   "escalate <session-id>",
	Short: "Escalate a session to a human",
	Long:  `Terminate the session and mark its task escalated for human review.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runEscalateCmd,
}

func init() {
	completeCmd.Flags().StringVar(&completePromise, "promise", string(models.PromiseComplete), "Promise token to complete with")
	completeCmd.Flags().BoolVar(&completeJSON, "json", false, "Print the result as JSON")
	escalateCmd.Flags().StringVar(&escalateReason, "reason", "operator request", "Reason for the escalation")
	escalateCmd.Flags().BoolVar(&escalateJSON, "json", false, "Print the result as JSON")
}

func runCompleteCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openProjectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctrl := newController(db, cfg)
	res, err := ctrl.Complete(args[0], models.PromiseType(completePromise))
	if err != nil {
		return err
	}

	if completeJSON {
		return printJSON(res)
	}

	successColor.Printf("Session %s completed after %d iterations\n", res.SessionID, res.Iterations)
	return nil
}

func runEscalateCmd(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := openProjectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	ctrl := newController(db, cfg)
	res, err := ctrl.Escalate(args[0], escalateReason)
	if err != nil {
		return err
	}

	if escalateJSON {
		return printJSON(res)
	}

	failColor.Printf("Session %s escalated at iteration %d: %s\n",
		res.SessionID, res.Iterations, escalateReason)
	return nil
}
