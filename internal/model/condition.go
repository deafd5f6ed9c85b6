package model

import "fmt"

// Condition is a minimal, objectively checkable predicate whose collective
// resolution decides a Finding's claim.
type Condition struct {
	Description    string         `json:"description"`
	Why            string         `json:"why"`
	Accept         string         `json:"accept"`
	Reject         string         `json:"reject"`
	SuggestedTasks []string       `json:"suggested_tasks"`
	State          ConditionState `json:"state"`
	Rationale      string         `json:"rationale"`
	Evidence       []string       `json:"evidence"`
	EvidenceRefs   []int          `json:"evidence_refs"`
	Subconditions  []*Condition   `json:"subconditions"`
	UsedVerbs      []string       `json:"used_verbs"`
	LastVerb       string         `json:"last_verb"`
}

// NewCondition constructs a Condition in its initial unknown state, per
// spec.md §3's Condition default.
func NewCondition(desc, why, accept, reject string, suggestedTasks []string) *Condition {
	return &Condition{
		Description:    desc,
		Why:            why,
		Accept:         accept,
		Reject:         reject,
		SuggestedTasks: suggestedTasks,
		State:          ConditionUnknown,
		Evidence:       []string{},
		EvidenceRefs:   []int{},
		UsedVerbs:      []string{},
	}
}

// Validate checks the structural invariants of a Condition and recurses into
// its subconditions.
func (c *Condition) Validate() error {
	if c.Description == "" {
		return fmt.Errorf("description: field is required")
	}
	if !c.State.IsValid() {
		return fmt.Errorf("state: invalid value %q", c.State)
	}
	for i, sub := range c.Subconditions {
		if err := sub.Validate(); err != nil {
			return fmt.Errorf("subconditions[%d]: %w", i, err)
		}
	}
	return nil
}

// HasUsedVerb reports whether verb has already been executed for c.
func (c *Condition) HasUsedVerb(verb string) bool {
	for _, v := range c.UsedVerbs {
		if v == verb {
			return true
		}
	}
	return false
}

// RecordVerb records verb as used and as the most recent verb, keeping
// UsedVerbs deduplicated.
func (c *Condition) RecordVerb(verb string) {
	c.LastVerb = verb
	if !c.HasUsedVerb(verb) {
		c.UsedVerbs = append(c.UsedVerbs, verb)
	}
}

// AggregateFromChildren resolves c's state from its already-resolved
// Subconditions, per spec.md §4.6's NARROW aggregation rule. It does not
// recurse; callers resolve children bottom-up before calling this.
func (c *Condition) AggregateFromChildren() {
	if len(c.Subconditions) == 0 {
		return
	}
	satisfied, failed := 0, 0
	for _, sub := range c.Subconditions {
		switch sub.State {
		case ConditionSatisfied:
			satisfied++
		case ConditionFailed:
			failed++
		}
	}
	switch {
	case satisfied == len(c.Subconditions):
		c.State = ConditionSatisfied
	case failed > 0 && satisfied == 0:
		c.State = ConditionFailed
	default:
		c.State = ConditionUnknown
	}
}
