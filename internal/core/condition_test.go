package core

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestAttributeSet(t *testing.T) {
	src := map[string]string{"role": "dev", "action": ""}
	attrs := NewAttributeSet(src)
	src["role"] = "admin" // must not leak into the set

	if v, ok := attrs.Get("role"); !ok || v != "dev" {
		t.Errorf("Get(role) = %q, %v; want dev, true", v, ok)
	}
	if v, ok := attrs.Get("action"); !ok || v != "" {
		t.Errorf("Get(action) = %q, %v; want empty, true", v, ok)
	}
	if _, ok := attrs.Get("department"); ok {
		t.Errorf("Get(department) reported present")
	}

	want := []string{"department", "resource"}
	if got := attrs.Missing(); !reflect.DeepEqual(got, want) {
		t.Errorf("Missing() = %v, want %v", got, want)
	}

	m := attrs.Map()
	m["role"] = "root"
	if attrs.Value("role") != "dev" {
		t.Errorf("Map() exposed internal state")
	}
}

func TestAttributeSet_String(t *testing.T) {
	attrs := NewAttributeSet(map[string]string{
		"action": "read", "role": "dev", "zone": "eu", "env": "prod",
	})
	want := `role="dev" action="read" env="prod" zone="eu"`
	if got := attrs.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}

func TestCondition_String(t *testing.T) {
	tests := []struct {
		name string
		cond Condition
		want string
	}{
		{name: "Empty", cond: Condition{}, want: "(any)"},
		{name: "Single", cond: Condition{"role": "intern"}, want: "role equals 'intern'"},
		{
			name: "Sorted",
			cond: Condition{"resource": "payroll", "department": "finance"},
			want: "department equals 'finance' AND resource equals 'payroll'",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cond.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCohort(t *testing.T) {
	c := NewCohort()
	c.Add(Transition{Identity: "b", Action: "read"})
	c.Add(Transition{Identity: "a", Action: "write"})
	c.Add(Transition{Identity: "b", Action: "delete"})

	if got := c.Identities(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Errorf("Identities() = %v, want [b a]", got)
	}
	if c.Len() != 2 || c.Count() != 3 {
		t.Errorf("Len() = %d, Count() = %d; want 2, 3", c.Len(), c.Count())
	}
	ts := c.Transitions("b")
	if len(ts) != 2 || ts[0].Action != "read" || ts[1].Action != "delete" {
		t.Errorf("Transitions(b) = %+v, want read then delete", ts)
	}
	if len(c.Transitions("nobody")) != 0 {
		t.Errorf("Transitions(nobody) should be empty")
	}

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var members []struct {
		Identity string `json:"identity"`
	}
	if err := json.Unmarshal(data, &members); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(members) != 2 || members[0].Identity != "b" {
		t.Errorf("JSON order = %+v, want b first", members)
	}
}

func TestImpactReport_Record(t *testing.T) {
	r := NewImpactReport("x")
	r.Record(Transition{Identity: "u1", NewDecision: Denied})
	r.Record(Transition{Identity: "u1", NewDecision: Permitted})

	if r.Denied.Len() != 1 || r.Permitted.Len() != 1 {
		t.Errorf("cohorts = %d denied, %d permitted; want 1, 1", r.Denied.Len(), r.Permitted.Len())
	}
	if FormatChange(Permitted, Denied) != "permitted -> denied" {
		t.Errorf("FormatChange() = %q", FormatChange(Permitted, Denied))
	}
}

func TestImpactReport_SharedIdentityOrder(t *testing.T) {
	r := NewImpactReport("x")
	r.Record(Transition{Identity: "u1", NewDecision: Permitted})
	r.Record(Transition{Identity: "u2", NewDecision: Denied})
	r.Record(Transition{Identity: "u1", NewDecision: Denied})

	if got := r.Denied.Identities(); !reflect.DeepEqual(got, []string{"u1", "u2"}) {
		t.Errorf("Denied.Identities() = %v, want [u1 u2]", got)
	}
	if got := r.Permitted.Identities(); !reflect.DeepEqual(got, []string{"u1"}) {
		t.Errorf("Permitted.Identities() = %v, want [u1]", got)
	}

	data, err := json.Marshal(r.Denied)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var members []struct {
		Identity string `json:"identity"`
	}
	if err := json.Unmarshal(data, &members); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(members) != 2 || members[0].Identity != "u1" {
		t.Errorf("JSON order = %+v, want u1 first", members)
	}
}
