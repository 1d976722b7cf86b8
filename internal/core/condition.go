package core

import (
	"fmt"
	"sort"
	"strings"
)

// Recognized request attribute names.
const (
	AttrRole       = "role"
	AttrDepartment = "department"
	AttrResource   = "resource"
	AttrAction     = "action"
)

// RecognizedAttributes lists the attributes every request is expected to carry, in order.
var RecognizedAttributes = []string{AttrRole, AttrDepartment, AttrResource, AttrAction}

// AttributeSet is the immutable attribute context of a single access request.
// An attribute that was never set is absent, which is different from an empty value.
type AttributeSet struct {
	values map[string]string
}

// NewAttributeSet copies values into a new AttributeSet.
func NewAttributeSet(values map[string]string) AttributeSet {
	cp := make(map[string]string, len(values))
	for k, v := range values {
		cp[k] = v
	}
	return AttributeSet{values: cp}
}

// Get returns the value of the attribute and whether it is present.
func (a AttributeSet) Get(key string) (string, bool) {
	v, ok := a.values[key]
	return v, ok
}

// Value returns the attribute value, or "" if absent.
func (a AttributeSet) Value(key string) string {
	return a.values[key]
}

// Missing returns the recognized attributes that are absent, in recognized order.
func (a AttributeSet) Missing() []string {
	var missing []string
	for _, key := range RecognizedAttributes {
		if _, ok := a.values[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

// Map returns a copy of the underlying attributes.
func (a AttributeSet) Map() map[string]string {
	cp := make(map[string]string, len(a.values))
	for k, v := range a.values {
		cp[k] = v
	}
	return cp
}

func (a AttributeSet) String() string {
	parts := make([]string, 0, len(a.values))
	for _, key := range RecognizedAttributes {
		if v, ok := a.values[key]; ok {
			parts = append(parts, fmt.Sprintf("%s=%q", key, v))
		}
	}
	var extra []string
	for k, v := range a.values {
		if !isRecognized(k) {
			extra = append(extra, fmt.Sprintf("%s=%q", k, v))
		}
	}
	sort.Strings(extra)
	return strings.Join(append(parts, extra...), " ")
}

func isRecognized(key string) bool {
	for _, k := range RecognizedAttributes {
		if k == key {
			return true
		}
	}
	return false
}

// Condition maps attribute names to the exact value they must have.
// It matches a request if every key is present in the request with an equal value.
type Condition map[string]string

// Keys returns the condition keys, sorted.
func (c Condition) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (c Condition) String() string {
	if len(c) == 0 {
		return "(any)"
	}
	parts := make([]string, 0, len(c))
	for _, k := range c.Keys() {
		parts = append(parts, fmt.Sprintf("%s equals '%s'", k, c[k]))
	}
	return strings.Join(parts, " AND ")
}

// ConditionResult captures the outcome of a single condition check.
type ConditionResult struct {
	Matched bool `json:"matched"`

	Expression string `json:"expression"` // e.g. "role equals 'intern'"
	Reason     string `json:"reason,omitempty"`
}
