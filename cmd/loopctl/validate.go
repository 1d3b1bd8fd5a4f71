package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/loopctl/loopctl/internal/config"
	"github.com/loopctl/loopctl/internal/controller"
	"github.com/loopctl/loopctl/pkg/models"
)

var (
	validateOutputFile string
	validateNotes      string
	validateWorkDir    string
	validateFiles      []string
	validateJSON       bool
)

var validateCmd = &cobra.Command{
	Use:   "validate <session-id>",
	Short: "Validate one attempt and print the signal",
	Long: `Validate one iteration attempt against the session's rules.

The attempt output is read from --output-file, or from stdin when the
flag is omitted. The command prints the resulting signal: CONTINUE,
COMPLETE, or ESCALATE. The session itself is not transitioned; follow up
with advance, complete, or escalate.

Examples:
  worker-step | loopctl validate ses-1a2b3c4d
  loopctl validate ses-1a2b3c4d --output-file attempt.txt --workdir .`,
	Args: cobra.ExactArgs(1),
	RunE: runValidateCmd,
}

func init() {
	validateCmd.Flags().StringVarP(&validateOutputFile, "output-file", "o", "", "File holding the attempt output (default: stdin)")
	validateCmd.Flags().StringVar(&validateNotes, "notes", "", "Notes accompanying the attempt")
	validateCmd.Flags().StringVar(&validateWorkDir, "workdir", "", "Working directory for command and file rules")
	validateCmd.Flags().StringArrayVar(&validateFiles, "file", nil, "File the attempt modified, repeatable")
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "Print the result as JSON")
}

func runValidateCmd(cmd *cobra.Command, args []string) error {
	var output string
	if validateOutputFile != "" {
		data, err := os.ReadFile(validateOutputFile)
		if err != nil {
			return fmt.Errorf("read output file: %w", err)
		}
		output = string(data)
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		output = string(data)
	}

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
	res, err := ctrl.Validate(cmd.Context(), args[0], controller.Attempt{
		Output:        output,
		Notes:         validateNotes,
		WorkDir:       validateWorkDir,
		FilesModified: validateFiles,
	})
	if err != nil {
		return err
	}

	if validateJSON {
		return printJSON(res)
	}

	printSignal(res.Signal)
	fmt.Printf("  Reason: %s\n", res.Reason)
	if len(res.Promises) > 0 {
		fmt.Printf("  Promises: ")
		for i, p := range res.Promises {
			if i > 0 {
				fmt.Print(", ")
			}
			fmt.Print(p.Type)
		}
		fmt.Println()
	}
	if res.Report != nil {
		fmt.Printf("  Rules: %d passed, %d failed, %d errored (%s)\n",
			res.Report.PassedRules, res.Report.FailedRules,
			res.Report.ErroredRules, res.Report.TotalDuration)
		for _, msg := range res.Report.FailureMessages() {
			failColor.Printf("    - %s\n", msg)
		}
	}
	if res.Hook != nil && res.Hook.Guidance != "" {
		fmt.Printf("  Guidance:\n%s\n", res.Hook.Guidance)
	}
	return nil
}

func printSignal(s models.Signal) {
	switch s {
	case models.SignalComplete:
		successColor.Printf("Signal: %s\n", s)
	case models.SignalEscalate:
		failColor.Printf("Signal: %s\n", s)
	default:
		warnColor.Printf("Signal: %s\n", s)
	}
}
