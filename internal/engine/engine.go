package engine

import (
	"fmt"

	"github.com/darmiel/polsim/internal/core"
	"github.com/darmiel/polsim/internal/validation"
)

// Engine holds a validated policy and evaluates requests against it.
// It is never mutated after construction and is safe for concurrent use.
type Engine struct {
	rules []core.Rule
}

// New validates the policy and creates an Engine for it.
func New(policy core.Policy) (*Engine, error) {
	if err := validation.ValidatePolicy(policy); err != nil {
		return nil, fmt.Errorf("invalid policy: %w", err)
	}
	rules := make([]core.Rule, len(policy.Rules))
	copy(rules, policy.Rules)
	return &Engine{
		rules: rules,
	}, nil
}

// Evaluate is a shorthand for New(policy) followed by Engine.Evaluate.
func Evaluate(policy core.Policy, request core.AttributeSet) (core.Result, error) {
	eng, err := New(policy)
	if err != nil {
		return core.Result{}, err
	}
	return eng.Evaluate(request), nil
}

// Evaluate returns the decision of the first rule whose conditions all hold for the request.
// If no rule matches, the default-deny result is returned.
func (e *Engine) Evaluate(request core.AttributeSet) core.Result {
	for i, rule := range e.rules {
		if matches(rule.Conditions, request) {
			return core.Result{
				Decision:  rule.Decision,
				Reason:    rule.Reason,
				RuleIndex: i,
			}
		}
	}
	return core.DefaultResult()
}

// Rules returns a copy of the rules in evaluation order.
func (e *Engine) Rules() []core.Rule {
	out := make([]core.Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

func matches(cond core.Condition, request core.AttributeSet) bool {
	for key, requiredValue := range cond {
		actualValue, ok := request.Get(key)
		if !ok || actualValue != requiredValue {
			return false
		}
	}
	return true
}
