package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/loopctl/loopctl/internal/state"
)

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch <session-id>",
	Short: "Follow a session's iteration progress",
	Long: `Follow an iteration session, printing a line whenever its state
changes.

The command watches the state database directory for writes and re-reads
the session row on change, so progress made by another loopctl process
shows up live. It exits when the session reaches a terminal state.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatchCmd,
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 2*time.Second, "Fallback poll interval")
}

func runWatchCmd(cmd *cobra.Command, args []string) error {
	sessionID := args[0]

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	dbPath := state.ProjectDBPath(cwd)
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("no state database at %s, run 'loopctl init' first", dbPath)
	}

	db, err := state.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: sqlite WAL writes touch sibling files, not
	// always the db file itself.
	if err := watcher.Add(filepath.Dir(dbPath)); err != nil {
		return fmt.Errorf("watch database directory: %w", err)
	}

	var lastIteration int
	var lastStatus state.SessionStatus
	report := func() (done bool, err error) {
		session, err := db.GetSession(sessionID)
		if err != nil {
			return false, err
		}
		if session == nil {
			return false, fmt.Errorf("session %s not found", sessionID)
		}
		if session.IterationNumber != lastIteration || session.Status != lastStatus {
			lastIteration = session.IterationNumber
			lastStatus = session.Status
			fmt.Printf("[%s] session %s: iteration %d/%d, %s\n",
				time.Now().Format("15:04:05"), session.ID,
				session.IterationNumber, session.Config.MaxIterations,
				renderSessionState(session.Status))
		}
		return session.Status.Terminal(), nil
	}

	if done, err := report(); err != nil || done {
		return err
	}

	ticker := time.NewTicker(watchInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if done, err := report(); err != nil || done {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			warnColor.Printf("watch error: %v\n", err)
		case <-ticker.C:
			if done, err := report(); err != nil || done {
				return err
			}
		}
	}
}
