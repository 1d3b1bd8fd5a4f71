package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loopctl/loopctl/internal/config"
	"github.com/loopctl/loopctl/pkg/models"
)

var (
	startMaxIterations    int
	startPromises         []string
	startRulesPath        string
	startBreakerThreshold int
	startJSON             bool
)

var startCmd = &cobra.Command{
	Use:   "start <task-id>",
	Short: "Start an iteration session for a task",
	Long: `Start a new iteration session for the given task.

Session parameters default to the loaded configuration; flags override
them. Validation rules are read from a YAML file:

  rules:
    - type: command
      name: tests
      enabled: true
      command:
        command: "go test ./..."

Examples:
  loopctl start fix-auth --max-iterations 8 --rules rules.yaml
  loopctl start fix-auth --promise COMPLETE --promise BLOCKED`,
	Args: cobra.ExactArgs(1),
	RunE: runStartCmd,
}

func init() {
	startCmd.Flags().IntVar(&startMaxIterations, "max-iterations", 0, "Iteration cap (defaults to config)")
	startCmd.Flags().StringArrayVar(&startPromises, "promise", nil, "Accepted promise token, repeatable (defaults to config)")
	startCmd.Flags().StringVar(&startRulesPath, "rules", "", "Path to a YAML validation rules file")
	startCmd.Flags().IntVar(&startBreakerThreshold, "breaker-threshold", 0, "Circuit breaker threshold (defaults to config)")
	startCmd.Flags().BoolVar(&startJSON, "json", false, "Print the result as JSON")
}

func runStartCmd(cmd *cobra.Command, args []string) error {
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

	if startMaxIterations > 0 {
		iterCfg.MaxIterations = startMaxIterations
	}
	if startBreakerThreshold > 0 {
		iterCfg.CircuitBreakerThreshold = startBreakerThreshold
	}
	if len(startPromises) > 0 {
		iterCfg.CompletionPromises = nil
		for _, p := range startPromises {
			iterCfg.CompletionPromises = append(iterCfg.CompletionPromises, models.PromiseType(p))
		}
	}
	if startRulesPath != "" {
		rules, err := loadRulesFile(startRulesPath)
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
	res, err := ctrl.Start(args[0], iterCfg)
	if err != nil {
		return err
	}

	if startJSON {
		return printJSON(res)
	}

	successColor.Printf("Session %s started for task %s\n", res.SessionID, res.TaskID)
	fmt.Printf("  Iteration: %d/%d\n", res.Iteration, res.Config.MaxIterations)
	fmt.Printf("  Promises:  %v\n", res.Config.CompletionPromises)
	fmt.Printf("  Rules:     %d\n", len(res.Config.ValidationRules))
	return nil
}
