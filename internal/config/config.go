package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/mitchellh/mapstructure"

	"github.com/darmiel/polsim/internal/core"
	"github.com/darmiel/polsim/internal/logging"
	"github.com/darmiel/polsim/internal/validation"
)

// rawRule mirrors a rule object as written in a policy document.
// Pointers distinguish absent fields from empty ones.
type rawRule struct {
	Name        string         `mapstructure:"name"`
	Description string         `mapstructure:"description"`
	Conditions  map[string]any `mapstructure:"conditions"`
	Decision    *string        `mapstructure:"decision"`
	Reason      *string        `mapstructure:"reason"`
}

// LoadPolicy reads and parses the policy document at the given path.
// It returns an error if loading, parsing or validation fails.
func LoadPolicy(path string, logger logging.InternalLogger) (core.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Policy{}, fmt.Errorf("reading policy file: %w", err)
	}
	return ParsePolicy(data, path, logger)
}

// ParsePolicy parses a policy document. Both YAML and JSON are accepted.
// The document is either a mapping with a "rules" key, or a bare sequence of rules.
// Unknown rule fields are ignored and reported as warnings to logger, which may be nil.
func ParsePolicy(data []byte, source string, logger logging.InternalLogger) (core.Policy, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return core.Policy{}, fmt.Errorf("policy '%s' is empty: %w", source, validation.ErrMalformedPolicy)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return core.Policy{}, fmt.Errorf("parsing policy '%s': %w", source, err)
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case map[string]any:
		rules, ok := v["rules"]
		if !ok || rules == nil {
			// a policy without rules denies everything
			break
		}
		list, ok := rules.([]any)
		if !ok {
			return core.Policy{}, fmt.Errorf("policy '%s': 'rules' must be a sequence: %w",
				source, validation.ErrMalformedPolicy)
		}
		items = list
	default:
		return core.Policy{}, fmt.Errorf("policy '%s': %w", source, validation.ErrMalformedPolicy)
	}

	policy := core.Policy{
		Source: source,
		Rules:  make([]core.Rule, 0, len(items)),
	}
	for i, item := range items {
		rule, unused, err := decodeRule(i, item)
		if err != nil {
			return core.Policy{}, fmt.Errorf("policy '%s': %w", source, err)
		}
		if len(unused) > 0 {
			logger.Warn("policy '%s': %s: ignoring unknown field(s) %s",
				source, rule.Label(i), strings.Join(unused, ", "))
		}
		policy.Rules = append(policy.Rules, rule)
	}

	if err := validation.ValidatePolicy(policy); err != nil {
		return core.Policy{}, fmt.Errorf("policy '%s': %w", source, err)
	}
	return policy, nil
}

// decodeRule decodes a single rule object and returns the names of fields it did not use.
func decodeRule(index int, item any) (core.Rule, []string, error) {
	m, ok := item.(map[string]any)
	if !ok {
		return core.Rule{}, nil, &validation.RuleError{
			Index: index,
			Err:   fmt.Errorf("expected a rule object, got %T: %w", item, validation.ErrMalformedPolicy),
		}
	}

	var (
		raw  rawRule
		meta mapstructure.Metadata
	)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:   &raw,
		Metadata: &meta,
	})
	if err != nil {
		return core.Rule{}, nil, fmt.Errorf("creating rule decoder: %w", err)
	}
	if err := decoder.Decode(m); err != nil {
		return core.Rule{}, nil, &validation.RuleError{Index: index, Err: err}
	}

	if raw.Decision == nil {
		return core.Rule{}, nil, &validation.RuleError{
			Index: index, Name: raw.Name, Field: "decision", Err: validation.ErrMissingField,
		}
	}
	if raw.Reason == nil {
		return core.Rule{}, nil, &validation.RuleError{
			Index: index, Name: raw.Name, Field: "reason", Err: validation.ErrMissingField,
		}
	}

	conditions := make(core.Condition, len(raw.Conditions))
	for key, value := range raw.Conditions {
		str, ok := value.(string)
		if !ok {
			return core.Rule{}, nil, &validation.RuleError{
				Index: index,
				Name:  raw.Name,
				Field: "conditions." + key,
				Err:   fmt.Errorf("value must be a string, got %T", value),
			}
		}
		conditions[key] = str
	}

	sort.Strings(meta.Unused)
	return core.Rule{
		Name:        raw.Name,
		Description: raw.Description,
		Conditions:  conditions,
		Decision:    core.Decision(*raw.Decision),
		Reason:      *raw.Reason,
	}, meta.Unused, nil
}
