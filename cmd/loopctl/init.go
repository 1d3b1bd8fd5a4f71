package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/loopctl/loopctl/internal/state"
)

var (
	initForce      bool
	initWithConfig bool
)

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a loopctl project",
	Long: `Initialize a directory for use with loopctl.

Creates the .loopctl directory with the state database and, optionally,
an example project configuration file.

Examples:
  loopctl init                # Initialize current directory
  loopctl init ./myproject    # Initialize specific directory
  loopctl init --with-config  # Also write an example .loopctl.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInitCmd,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if already set up")
	initCmd.Flags().BoolVar(&initWithConfig, "with-config", false, "Create an example .loopctl.yaml")
}

const exampleProjectConfig = `# loopctl project configuration
defaults:
  max_iterations: 10
  completion_promises: ["COMPLETE"]
guards:
  circuit_breaker_threshold: 3
  thrashing_threshold: 5
validation:
  rule_timeout: 60s
  max_concurrency: 4
logging:
  debug: false
`

func runInitCmd(cmd *cobra.Command, args []string) error {
	targetDir := "."
	if len(args) > 0 {
		targetDir = args[0]
	}

	absPath, err := filepath.Abs(targetDir)
	if err != nil {
		return fmt.Errorf("resolving absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", absPath, err)
	}

	loopctlDir := filepath.Join(absPath, ".loopctl")
	if _, err := os.Stat(loopctlDir); err == nil && !initForce {
		fmt.Println("Directory already initialized. Use --force to reinitialize.")
		return nil
	}

	db, err := state.OpenProject(absPath)
	if err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	if initWithConfig {
		configPath := filepath.Join(absPath, ".loopctl.yaml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) || initForce {
			if err := os.WriteFile(configPath, []byte(exampleProjectConfig), 0644); err != nil {
				return fmt.Errorf("write example config: %w", err)
			}
			fmt.Printf("Created %s\n", configPath)
		}
	}

	successColor.Printf("Initialized loopctl in %s\n", absPath)
	fmt.Printf("State database: %s\n", db.Path())
	return nil
}
