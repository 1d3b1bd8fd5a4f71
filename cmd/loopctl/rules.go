package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/loopctl/loopctl/pkg/models"
)

// rulesFile is the on-disk shape of a --rules file.
type rulesFile struct {
	Rules []models.ValidationRule `yaml:"rules"`
}

// loadRulesFile reads and validates a YAML rule-set file.
func loadRulesFile(path string) ([]models.ValidationRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	if err := models.ValidateRuleSet(f.Rules); err != nil {
		return nil, fmt.Errorf("rules file %s: %w", path, err)
	}
	return f.Rules, nil
}
