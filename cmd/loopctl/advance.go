package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loopctl/loopctl/internal/config"
	"github.com/loopctl/loopctl/internal/controller"
)

var (
	advancePassed     bool
	advanceFailures   []string
	advanceCheckpoint string
	advanceJSON       bool
)

var advanceCmd = &cobra.Command{
	Use:   "advance <session-id>",
	Short: "Record the finished iteration and move to the next",
	Long: `Record the current iteration in the session history and advance to
the next iteration.

A duplicate advance for the same iteration is rejected by the store's
optimistic check. Advancing past the iteration cap escalates the session.

Examples:
  loopctl advance ses-1a2b3c4d --failure "tests failed in internal/auth"
  loopctl advance ses-1a2b3c4d --passed --checkpoint commit-ab12`,
	Args: cobra.ExactArgs(1),
	RunE: runAdvanceCmd,
}

func init() {
	advanceCmd.Flags().BoolVar(&advancePassed, "passed", false, "Mark the iteration's validation as passed")
	advanceCmd.Flags().StringArrayVar(&advanceFailures, "failure", nil, "Failure message for the iteration, repeatable")
	advanceCmd.Flags().StringVar(&advanceCheckpoint, "checkpoint", "", "Checkpoint reference for the iteration")
	advanceCmd.Flags().BoolVar(&advanceJSON, "json", false, "Print the result as JSON")
}

func runAdvanceCmd(cmd *cobra.Command, args []string) error {
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
	res, err := ctrl.Advance(args[0], advancePassed, advanceFailures, advanceCheckpoint)
	if err != nil {
		if errors.Is(err, controller.ErrMaxIterationsExceeded) {
			failColor.Println("Iteration cap reached; session escalated.")
		}
		return err
	}

	if advanceJSON {
		return printJSON(res)
	}

	fmt.Printf("Session %s advanced to iteration %d (%d remaining)\n",
		res.SessionID, res.Iteration, res.Remaining)
	return nil
}
