package hook

import (
	"fmt"
	"strings"

	"github.com/loopctl/loopctl/pkg/models"
)

// presetFunc returns the decision callback for a preset kind.
func presetFunc(kind Kind) Func {
	switch kind {
	case KindValidationOnly:
		return validationOnlyDecision
	case KindPromiseOnly:
		return promiseOnlyDecision
	default:
		return defaultDecision
	}
}

// defaultDecision is the recommended strategy. Priority: explicit COMPLETE
// promise, explicit ESCALATE or BLOCKED promise, validation aggregate,
// plain continue.
func defaultDecision(ctx AgentContext) (Decision, error) {
	for _, p := range ctx.Promises {
		if p.Type == models.PromiseComplete {
			return Decision{Action: ActionComplete, Reason: "explicit COMPLETE promise"}, nil
		}
	}
	for _, p := range ctx.Promises {
		if p.Type == models.PromiseEscalate || p.Type == models.PromiseBlocked {
			reason := fmt.Sprintf("explicit %s promise", p.Type)
			if p.Content != "" {
				reason += ": " + p.Content
			}
			return Decision{Action: ActionEscalate, Reason: reason}, nil
		}
	}
	if ctx.Report != nil && len(ctx.Report.Results) > 0 {
		return decideFromReport(ctx.Report), nil
	}
	return Decision{Action: ActionContinue, Reason: "no completion signal yet"}, nil
}

// validationOnlyDecision ignores promises: complete iff every validation
// result passed.
func validationOnlyDecision(ctx AgentContext) (Decision, error) {
	if ctx.Report == nil || len(ctx.Report.Results) == 0 {
		return Decision{Action: ActionContinue, Reason: "no validation results yet"}, nil
	}
	return decideFromReport(ctx.Report), nil
}

// promiseOnlyDecision ignores validation: decide solely from detected
// promises.
func promiseOnlyDecision(ctx AgentContext) (Decision, error) {
	for _, p := range ctx.Promises {
		if p.Type == models.PromiseComplete {
			return Decision{Action: ActionComplete, Reason: "explicit COMPLETE promise"}, nil
		}
	}
	for _, p := range ctx.Promises {
		if p.Type == models.PromiseEscalate || p.Type == models.PromiseBlocked {
			return Decision{Action: ActionEscalate, Reason: fmt.Sprintf("explicit %s promise", p.Type)}, nil
		}
	}
	return Decision{Action: ActionContinue, Reason: "no promise detected"}, nil
}

// decideFromReport maps a validation report to a decision: all-pass
// completes, any failure continues with failure-derived guidance.
func decideFromReport(report *models.ValidationReport) Decision {
	if report.OverallPassed {
		return Decision{
			Action: ActionComplete,
			Reason: fmt.Sprintf("all %d validation rules passed", report.PassedRules),
		}
	}
	return Decision{
		Action: ActionContinue,
		Reason: fmt.Sprintf("%d validation rules failed, %d errored",
			report.FailedRules, report.ErroredRules),
		Guidance: "fix the following validation failures:\n" +
			strings.Join(report.FailureMessages(), "\n"),
	}
}
