package validation

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/loopctl/loopctl/pkg/models"
)

// runCoverageRule parses the configured coverage report, extracts the
// percentage for the rule's scope, and compares it to minCoverage.
func (e *Engine) runCoverageRule(rule models.ValidationRule, vctx Context, result *models.ValidationResult) {
	cfg := rule.Coverage

	path := cfg.ReportPath
	if !filepath.IsAbs(path) && vctx.WorkDir != "" {
		path = filepath.Join(vctx.WorkDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Message = fmt.Sprintf("coverage report %q unreadable", cfg.ReportPath)
		result.Error = err.Error()
		return
	}

	scope := cfg.Scope
	if scope == "" {
		scope = models.CoverageLines
	}

	pct, err := extractCoverage(data, path, scope)
	if err != nil {
		result.Message = fmt.Sprintf("coverage report %q unparseable", cfg.ReportPath)
		result.Error = err.Error()
		return
	}

	result.Details = map[string]any{
		"scope":        string(scope),
		"coverage":     pct,
		"min_coverage": cfg.MinCoverage,
	}

	if pct >= cfg.MinCoverage {
		result.Passed = true
		result.Message = fmt.Sprintf("%s coverage %.1f%% >= %.1f%%", scope, pct, cfg.MinCoverage)
		return
	}
	result.Message = fmt.Sprintf("%s coverage %.1f%% below minimum %.1f%%", scope, pct, cfg.MinCoverage)
}

// extractCoverage picks a parser from the file extension, falling back to
// content sniffing for extensionless reports.
func extractCoverage(data []byte, path string, scope models.CoverageScope) (float64, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseJSONCoverage(data, scope)
	case ".xml":
		return parseXMLCoverage(data, scope)
	}

	trimmed := strings.TrimSpace(string(data))
	switch {
	case strings.HasPrefix(trimmed, "{"):
		return parseJSONCoverage(data, scope)
	case strings.HasPrefix(trimmed, "<"):
		return parseXMLCoverage(data, scope)
	default:
		return parseTextCoverage(trimmed)
	}
}

// jsonCoverageSummary mirrors the istanbul coverage-summary layout:
// {"total": {"lines": {"pct": 85.5}, "branches": {...}, ...}}.
type jsonCoverageSummary struct {
	Total map[string]struct {
		Pct float64 `json:"pct"`
	} `json:"total"`
}

func parseJSONCoverage(data []byte, scope models.CoverageScope) (float64, error) {
	var summary jsonCoverageSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return 0, fmt.Errorf("parse json coverage: %w", err)
	}
	metric, ok := summary.Total[string(scope)]
	if !ok {
		return 0, fmt.Errorf("json coverage has no %q metric in total", scope)
	}
	return metric.Pct, nil
}

// xmlCoverage mirrors the cobertura root element. Cobertura reports rates
// as fractions, so values are scaled to percentages.
type xmlCoverage struct {
	LineRate   *float64 `xml:"line-rate,attr"`
	BranchRate *float64 `xml:"branch-rate,attr"`
}

func parseXMLCoverage(data []byte, scope models.CoverageScope) (float64, error) {
	var cov xmlCoverage
	if err := xml.Unmarshal(data, &cov); err != nil {
		return 0, fmt.Errorf("parse xml coverage: %w", err)
	}

	var rate *float64
	switch scope {
	case models.CoverageLines, models.CoverageStatements:
		rate = cov.LineRate
	case models.CoverageBranches:
		rate = cov.BranchRate
	default:
		return 0, fmt.Errorf("xml coverage does not report %q", scope)
	}
	if rate == nil {
		return 0, fmt.Errorf("xml coverage missing rate for %q", scope)
	}
	return *rate * 100, nil
}

// textTotalPattern finds a percentage on a summary line of a line-oriented
// text report, e.g. `total: (statements) 85.5%` from go tool cover or the
// "All files" row of an istanbul text table.
var textTotalPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

func parseTextCoverage(text string) (float64, error) {
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "total") && !strings.Contains(lower, "all files") {
			continue
		}
		if m := textTotalPattern.FindStringSubmatch(line); m != nil {
			pct, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return 0, fmt.Errorf("parse text coverage value %q: %w", m[1], err)
			}
			return pct, nil
		}
	}
	return 0, fmt.Errorf("text coverage report has no total line with a percentage")
}
