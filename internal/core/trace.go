package core

// EvaluationTrace captures the detailed trace of a single evaluation.
type EvaluationTrace struct {
	// Request being evaluated.
	Request AttributeSet `json:"-"`

	// RuleResults contains the result of every explicit rule of the policy.
	RuleResults []RuleResult `json:"rule_results"`

	// Result is the final outcome, including the default rule if nothing matched.
	Result Result `json:"result"`
}

// RuleResult captures why a specific rule matched or failed.
type RuleResult struct {
	Index            int               `json:"index"`
	RuleName         string            `json:"rule_name"`
	Decision         Decision          `json:"decision"`
	Reason           string            `json:"reason"`
	Matched          bool              `json:"matched"`
	Selected         bool              `json:"selected"`
	Shadowed         bool              `json:"shadowed"` // matched, but an earlier rule was selected
	ConditionResults []ConditionResult `json:"condition_results,omitempty"`
}
