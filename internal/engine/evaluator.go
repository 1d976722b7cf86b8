package engine

import (
	"fmt"

	"github.com/darmiel/polsim/internal/core"
)

// Trace evaluates every rule against the request and records why each one matched or failed.
// The outcome is identical to Evaluate: the first matching rule is selected,
// later matching rules are marked as shadowed.
func (e *Engine) Trace(request core.AttributeSet) core.EvaluationTrace {
	trace := core.EvaluationTrace{
		Request:     request,
		RuleResults: make([]core.RuleResult, 0, len(e.rules)),
		Result:      core.DefaultResult(),
	}

	selected := false
	for i, rule := range e.rules {
		res := checkRule(i, rule, request)
		if res.Matched {
			if !selected {
				res.Selected = true
				selected = true
				trace.Result = core.Result{
					Decision:  rule.Decision,
					Reason:    rule.Reason,
					RuleIndex: i,
				}
			} else {
				res.Shadowed = true
			}
		}
		trace.RuleResults = append(trace.RuleResults, res)
	}

	return trace
}

// checkRule evaluates a single rule against the request.
func checkRule(index int, rule core.Rule, request core.AttributeSet) core.RuleResult {
	result := core.RuleResult{
		Index:            index,
		RuleName:         rule.Label(index),
		Decision:         rule.Decision,
		Reason:           rule.Reason,
		Matched:          true, // fail on any mismatch
		ConditionResults: []core.ConditionResult{},
	}

	if len(rule.Conditions) == 0 {
		result.ConditionResults = append(result.ConditionResults, core.ConditionResult{
			Matched:    true,
			Expression: "(empty)",
			Reason:     "rule without conditions matches every request",
		})
		return result
	}

	// sorted keys keep the trace stable between runs
	for _, key := range rule.Conditions.Keys() {
		cr := evaluateCondition(key, rule.Conditions[key], request)
		if !cr.Matched {
			result.Matched = false
		}
		result.ConditionResults = append(result.ConditionResults, cr)
	}

	return result
}

func evaluateCondition(key, required string, request core.AttributeSet) core.ConditionResult {
	createCondition := func(passed bool, reason string) core.ConditionResult {
		return core.ConditionResult{
			Matched:    passed,
			Expression: fmt.Sprintf("%s equals '%s'", key, required),
			Reason:     reason,
		}
	}

	val, exists := request.Get(key)
	if !exists {
		return createCondition(false, fmt.Sprintf("attribute '%s' missing", key))
	}
	if val != required {
		return createCondition(false, fmt.Sprintf("expected '%s' to equal '%s'", val, required))
	}
	return createCondition(true, "")
}
