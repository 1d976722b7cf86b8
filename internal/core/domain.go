package core

import "fmt"

// Decision is the outcome of evaluating a request against a policy.
type Decision string

const (
	Permitted Decision = "permitted"
	Denied    Decision = "denied"
)

func (d Decision) IsValid() bool {
	switch d {
	case Permitted, Denied:
		return true
	default:
		return false
	}
}

// DefaultReason is returned when no explicit rule of a policy matches.
const DefaultReason = "Denied: No matching rule found."

// Rule binds a Condition to a Decision.
type Rule struct {
	// Name is an optional human-readable identifier for traces.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Description explains the intent of the rule.
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// Conditions that must all hold for the rule to apply.
	// An empty Condition matches every request.
	Conditions Condition `yaml:"conditions,omitempty" json:"conditions,omitempty"`

	// Decision returned when the rule matches.
	Decision Decision `yaml:"decision" json:"decision"`

	// Reason explains the decision and is reported verbatim for denials.
	Reason string `yaml:"reason" json:"reason"`
}

// Label returns the rule name, or its position if it has none.
func (r Rule) Label(index int) string {
	if r.Name != "" {
		return r.Name
	}
	return fmt.Sprintf("rule #%d", index)
}

// Policy is an ordered list of rules. Earlier rules take precedence.
// The default-deny rule is never part of Rules; the engine synthesizes it.
type Policy struct {
	// Source describes where the policy was loaded from (file path, URL).
	Source string `yaml:"-" json:"source,omitempty"`

	Rules []Rule `yaml:"rules" json:"rules"`
}

// Result is the outcome of a single evaluation.
type Result struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason"`

	// RuleIndex is the position of the matched rule, or -1 if the default rule applied.
	RuleIndex int `json:"rule_index"`
}

// IsDefault reports whether no explicit rule matched.
func (r Result) IsDefault() bool {
	return r.RuleIndex < 0
}

// DefaultResult is the synthesized default-deny outcome.
func DefaultResult() Result {
	return Result{
		Decision:  Denied,
		Reason:    DefaultReason,
		RuleIndex: -1,
	}
}
