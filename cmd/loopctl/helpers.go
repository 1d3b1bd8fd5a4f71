package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"

	"github.com/loopctl/loopctl/internal/config"
	"github.com/loopctl/loopctl/internal/controller"
	"github.com/loopctl/loopctl/internal/exec"
	"github.com/loopctl/loopctl/internal/state"
	"github.com/loopctl/loopctl/internal/validation"
)

var (
	successColor = color.New(color.FgGreen)
	failColor    = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
)

// openProjectDB opens and migrates the state database under the current
// working directory's .loopctl folder.
func openProjectDB() (*state.DB, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	db, err := state.OpenProject(cwd)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// newController builds a controller over the project database, applying
// validation settings and debug logging from the loaded config.
func newController(db *state.DB, cfg *config.Config) *controller.Controller {
	engine := validation.NewEngine(exec.NewRunner())
	if cfg != nil {
		if cfg.Validation.MaxConcurrency > 0 {
			engine.SetMaxConcurrency(cfg.Validation.MaxConcurrency)
		}
		if cfg.Validation.RuleTimeout > 0 {
			engine.SetDefaultTimeout(cfg.Validation.RuleTimeout)
		}
	}

	logger := controller.NopLogger()
	if cfg != nil && cfg.Logging.Debug {
		path := cfg.Logging.Path
		if path == "" {
			if cwd, err := os.Getwd(); err == nil {
				return controller.New(db, engine, controller.NewDebugLoggerForProject(cwd))
			}
		}
		if l, err := controller.NewDebugLogger(path); err == nil {
			logger = l
		}
	}
	return controller.New(db, engine, logger)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
