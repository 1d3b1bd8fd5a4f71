package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loopctl/loopctl/internal/hook"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "Describe the available stop hook kinds",
	Long: `List the stop hook kinds and their decision strategies.

Hooks hold executable decision logic and live only inside the running
process: 'loopctl run' registers one for the duration of its loop (see
the --hook flag) and clears it when the session terminates. They are
never persisted, so there is nothing to list across invocations.`,
	RunE: runHooksCmd,
}

func runHooksCmd(cmd *cobra.Command, args []string) error {
	kinds := []struct {
		kind hook.Kind
		desc string
	}{
		{hook.KindDefault, "promises first, then validation results, then continue"},
		{hook.KindValidationOnly, "ignore promises; complete only when every rule passes"},
		{hook.KindPromiseOnly, "ignore validation; decide from detected promises alone"},
		{hook.KindCustom, "caller-supplied callback (library use only)"},
	}

	fmt.Println("Stop hook kinds:")
	for _, k := range kinds {
		fmt.Printf("  %-16s %s\n", k.kind, k.desc)
	}
	fmt.Println("\nUse with: loopctl run <task-id> --hook <kind>")
	return nil
}
