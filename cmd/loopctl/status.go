package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/loopctl/loopctl/internal/guard"
	"github.com/loopctl/loopctl/internal/state"
)

var statusJSON bool

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Width(12)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	badStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

var statusCmd = &cobra.Command{
	Use:   "status [session-id]",
	Short: "Show session state",
	Long: `Display the state of an iteration session.

Without an argument, lists every session in the project database. With a
session id, shows the session's config, iteration progress, validation
state, and per-attempt history.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatusCmd,
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Print the result as JSON")
}

func runStatusCmd(cmd *cobra.Command, args []string) error {
	db, err := openProjectDB()
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 0 {
		return listSessions(db)
	}

	session, err := db.GetSession(args[0])
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if session == nil {
		return fmt.Errorf("session %s not found", args[0])
	}

	if statusJSON {
		return printJSON(session)
	}

	displaySessionStatus(session)
	return nil
}

func listSessions(db *state.DB) error {
	sessions, err := db.ListSessions(nil)
	if err != nil {
		return err
	}

	if statusJSON {
		return printJSON(sessions)
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions. Run 'loopctl start <task-id>' to begin.")
		return nil
	}

	fmt.Println(titleStyle.Render("Sessions"))
	for _, s := range sessions {
		status := string(s.Status)
		switch s.Status {
		case state.SessionCompleted:
			status = okStyle.Render(status)
		case state.SessionEscalated:
			status = badStyle.Render(status)
		}
		fmt.Printf("  %s  task=%s  iteration=%d/%d  %s  %s\n",
			s.ID, s.TaskID, s.IterationNumber, s.Config.MaxIterations,
			status, dimStyle.Render(s.CreatedAt.Local().Format(time.RFC3339)))
	}
	return nil
}

func displaySessionStatus(s *state.Session) {
	fmt.Println(titleStyle.Render("Session " + s.ID))
	fmt.Printf("%s %s\n", labelStyle.Render("Task"), s.TaskID)
	fmt.Printf("%s %s\n", labelStyle.Render("Status"), renderSessionState(s.Status))
	fmt.Printf("%s %d/%d\n", labelStyle.Render("Iteration"), s.IterationNumber, s.Config.MaxIterations)
	fmt.Printf("%s %v\n", labelStyle.Render("Promises"), s.Config.CompletionPromises)
	fmt.Printf("%s %d\n", labelStyle.Render("Rules"), len(s.Config.ValidationRules))
	fmt.Printf("%s %.0f%%\n", labelStyle.Render("Alternation"), guard.AlternationRate(s.History)*100)

	if s.ValidationState != nil {
		line := fmt.Sprintf("%d passed, %d failed, %d errored",
			s.ValidationState.PassedRules, s.ValidationState.FailedRules,
			s.ValidationState.ErroredRules)
		if s.ValidationState.OverallPassed {
			line = okStyle.Render(line)
		} else {
			line = badStyle.Render(line)
		}
		fmt.Printf("%s %s\n", labelStyle.Render("Validation"), line)
	}

	if len(s.History) > 0 {
		fmt.Println()
		fmt.Println(titleStyle.Render("History"))
		for _, e := range s.History {
			mark := okStyle.Render("pass")
			if !e.Passed {
				mark = badStyle.Render("fail")
			}
			fmt.Printf("  #%d %s %s\n", e.Iteration, mark,
				dimStyle.Render(e.Timestamp.Local().Format("15:04:05")))
			for _, msg := range e.FailureMessages {
				fmt.Printf("       %s\n", dimStyle.Render(truncateLine(msg, 100)))
			}
		}
	}
}

func renderSessionState(s state.SessionStatus) string {
	switch s {
	case state.SessionCompleted:
		return okStyle.Render(string(s))
	case state.SessionEscalated:
		return badStyle.Render(string(s))
	default:
		return string(s)
	}
}

func truncateLine(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
