package validation

import (
	"errors"
	"fmt"

	"github.com/darmiel/polsim/internal/core"
)

// ErrMalformedPolicy is returned when a policy document is not a sequence of rule objects.
var ErrMalformedPolicy = errors.New("policy is not a well-formed sequence of rules")

// RuleError describes a configuration problem with the rule at Index.
type RuleError struct {
	Index int
	Name  string
	Field string
	Err   error
}

func (e *RuleError) Error() string {
	label := fmt.Sprintf("rule #%d", e.Index)
	if e.Name != "" {
		label = fmt.Sprintf("rule #%d ('%s')", e.Index, e.Name)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s': %v", label, e.Field, e.Err)
	}
	return fmt.Sprintf("%s: %v", label, e.Err)
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

var (
	ErrMissingField    = errors.New("missing required field")
	ErrInvalidDecision = errors.New("invalid decision")
	ErrEmptyCondition  = errors.New("condition has empty attribute name")
	ErrDuplicateName   = errors.New("rule name is not unique")
)

// ValidatePolicy checks that every rule carries a valid decision, and that condition
// keys are non-empty. Rule names, if set, must be unique.
func ValidatePolicy(policy core.Policy) error {
	seenNames := make(map[string]int)

	for i, rule := range policy.Rules {
		if rule.Name != "" {
			if first, exists := seenNames[rule.Name]; exists {
				return &RuleError{
					Index: i,
					Name:  rule.Name,
					Field: "name",
					Err:   fmt.Errorf("%w: already used by rule #%d", ErrDuplicateName, first),
				}
			}
			seenNames[rule.Name] = i
		}

		if rule.Decision == "" {
			return &RuleError{Index: i, Name: rule.Name, Field: "decision", Err: ErrMissingField}
		}
		if !rule.Decision.IsValid() {
			return &RuleError{
				Index: i,
				Name:  rule.Name,
				Field: "decision",
				Err: fmt.Errorf("%w '%s' (must be '%s' or '%s')",
					ErrInvalidDecision, rule.Decision, core.Permitted, core.Denied),
			}
		}

		for key := range rule.Conditions {
			if key == "" {
				return &RuleError{Index: i, Name: rule.Name, Field: "conditions", Err: ErrEmptyCondition}
			}
		}
	}

	return nil
}

// IsConfigError reports whether err stems from a malformed policy.
func IsConfigError(err error) bool {
	var ruleErr *RuleError
	return errors.As(err, &ruleErr) || errors.Is(err, ErrMalformedPolicy)
}
