package core

import (
	"encoding/json"
	"fmt"
)

// LogEntry is one historical access event.
type LogEntry struct {
	// Line is the 1-based position of the entry in its log.
	Line int `json:"line"`

	// Identity is the user the request originated from.
	Identity string `json:"identity"`

	// Request holds the attributes of the access request.
	Request AttributeSet `json:"-"`
}

// SkippedEntry is a log entry that could not be replayed.
type SkippedEntry struct {
	Line     int      `json:"line"`
	Identity string   `json:"identity,omitempty"`
	Missing  []string `json:"missing"`
}

// Transition records a decision change for the same request between two policies.
type Transition struct {
	Identity    string   `json:"identity"`
	Resource    string   `json:"resource"`
	Action      string   `json:"action"`
	OldDecision Decision `json:"old_decision"`
	NewDecision Decision `json:"new_decision"`
	Change      string   `json:"change"` // "<old> -> <new>"
	Why         string   `json:"why"`
	Line        int      `json:"line"`
}

// FormatChange renders a decision change as "<old> -> <new>".
func FormatChange(old, new Decision) string {
	return fmt.Sprintf("%s -> %s", old, new)
}

// identityOrder remembers the order in which identities were first seen.
type identityOrder struct {
	ids  []string
	seen map[string]struct{}
}

func newIdentityOrder() *identityOrder {
	return &identityOrder{seen: make(map[string]struct{})}
}

func (o *identityOrder) note(id string) {
	if _, ok := o.seen[id]; ok {
		return
	}
	o.seen[id] = struct{}{}
	o.ids = append(o.ids, id)
}

// Cohort groups transitions by identity. Identities are listed in first-encounter order,
// which cohorts of the same ImpactReport share: an identity first seen in a permitted
// transition keeps that position in the denied cohort too.
type Cohort struct {
	order *identityOrder
	byID  map[string][]Transition
}

// NewCohort creates a standalone cohort with its own identity order.
func NewCohort() *Cohort {
	return newCohort(newIdentityOrder())
}

func newCohort(order *identityOrder) *Cohort {
	return &Cohort{
		order: order,
		byID:  make(map[string][]Transition),
	}
}

// Add appends a transition to its identity's list.
func (c *Cohort) Add(t Transition) {
	c.order.note(t.Identity)
	c.byID[t.Identity] = append(c.byID[t.Identity], t)
}

// Identities returns the identities of the cohort in encounter order.
func (c *Cohort) Identities() []string {
	out := make([]string, 0, len(c.byID))
	for _, id := range c.order.ids {
		if _, ok := c.byID[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Transitions returns the transitions recorded for an identity in encounter order.
func (c *Cohort) Transitions(identity string) []Transition {
	ts := c.byID[identity]
	out := make([]Transition, len(ts))
	copy(out, ts)
	return out
}

// Len returns the number of identities in the cohort.
func (c *Cohort) Len() int {
	return len(c.byID)
}

// Count returns the number of transitions in the cohort.
func (c *Cohort) Count() int {
	n := 0
	for _, ts := range c.byID {
		n += len(ts)
	}
	return n
}

func (c *Cohort) IsEmpty() bool {
	return len(c.byID) == 0
}

type cohortMember struct {
	Identity    string       `json:"identity"`
	Transitions []Transition `json:"transitions"`
}

// MarshalJSON encodes the cohort as an ordered array of identities.
func (c *Cohort) MarshalJSON() ([]byte, error) {
	members := make([]cohortMember, 0, len(c.byID))
	for _, id := range c.Identities() {
		members = append(members, cohortMember{Identity: id, Transitions: c.byID[id]})
	}
	return json.Marshal(members)
}

// ImpactReport is the result of replaying a log through two policies.
type ImpactReport struct {
	RunID string `json:"run_id"`

	// Denied holds transitions ending in denied, Permitted those ending in permitted.
	// An identity may appear in both.
	Denied    *Cohort `json:"denied"`
	Permitted *Cohort `json:"permitted"`

	Evaluated int            `json:"evaluated"`
	Unchanged int            `json:"unchanged"`
	Skipped   []SkippedEntry `json:"skipped,omitempty"`
}

func NewImpactReport(runID string) *ImpactReport {
	order := newIdentityOrder()
	return &ImpactReport{
		RunID:     runID,
		Denied:    newCohort(order),
		Permitted: newCohort(order),
	}
}

// Record files a transition into the cohort of its new decision.
// Transitions must be recorded in log order.
func (r *ImpactReport) Record(t Transition) {
	switch t.NewDecision {
	case Denied:
		r.Denied.Add(t)
	case Permitted:
		r.Permitted.Add(t)
	}
}
