package rulemod

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// The kind of occurrence that causes rule evaluation.
type TriggerEvent string

const (
	EventContentPosted    TriggerEvent = "content_posted"
	EventContentReported  TriggerEvent = "content_reported"
	EventUserAction       TriggerEvent = "user_action"
	EventScheduled        TriggerEvent = "scheduled"
	EventThresholdReached TriggerEvent = "threshold_reached"
)

var TriggerEvents = []TriggerEvent{
	EventContentPosted,
	EventContentReported,
	EventUserAction,
	EventScheduled,
	EventThresholdReached,
}

// Whether a rule runs synchronously on the submission path, or in a
// scheduled pass over a window of recorded events.
type TriggerFrequency string

const (
	FreqImmediate   TriggerFrequency = "immediate"
	FreqBatchHourly TriggerFrequency = "batch_hourly"
	FreqBatchDaily  TriggerFrequency = "batch_daily"
)

var TriggerFrequencies = []TriggerFrequency{FreqImmediate, FreqBatchHourly, FreqBatchDaily}

type Operator string

const (
	OpEquals      Operator = "equals"
	OpNotEquals   Operator = "not_equals"
	OpGreaterThan Operator = "greater_than"
	OpLessThan    Operator = "less_than"
	OpContains    Operator = "contains"
	OpNotContains Operator = "not_contains"
	OpIn          Operator = "in"
	OpNotIn       Operator = "not_in"
)

type ActionType string

const (
	ActionBlock    ActionType = "block"
	ActionFlag     ActionType = "flag"
	ActionReview   ActionType = "review"
	ActionWarn     ActionType = "warn"
	ActionRestrict ActionType = "restrict"
	ActionNotify   ActionType = "notify"
	ActionAssign   ActionType = "assign"
	ActionEscalate ActionType = "escalate"
)

type ActionTarget string

const (
	TargetContent   ActionTarget = "content"
	TargetUser      ActionTarget = "user"
	TargetModerator ActionTarget = "moderator"
)

// allowed targets per action type, checked at rule-save time
var actionTargets = map[ActionType][]ActionTarget{
	ActionBlock:    {TargetContent},
	ActionFlag:     {TargetContent, TargetUser},
	ActionReview:   {TargetContent},
	ActionWarn:     {TargetUser},
	ActionRestrict: {TargetUser},
	ActionNotify:   {TargetModerator},
	ActionAssign:   {TargetModerator},
	ActionEscalate: {TargetModerator},
}

const (
	MinConditionWeight     = 0.1
	MaxConditionWeight     = 2.0
	DefaultConditionWeight = 1.0
)

// Tagged variant for a condition's configured comparison value. Exactly one
// field is set; which one must agree with the field's declared type and the
// operator (see ValidateRule).
//
// Set values may be given inline ("set") or as a reference to a named set in
// the engine's setstore ("setRef"), eg for long shared lists of domains.
type CondValue struct {
	Number *float64 `json:"number,omitempty"`
	Bool   *bool    `json:"bool,omitempty"`
	Str    *string  `json:"string,omitempty"`
	Set    []string `json:"set,omitempty"`
	SetRef string   `json:"setRef,omitempty"`
}

func NumberValue(v float64) CondValue { return CondValue{Number: &v} }
func BoolValue(v bool) CondValue      { return CondValue{Bool: &v} }
func StringValue(v string) CondValue  { return CondValue{Str: &v} }
func SetValue(vals ...string) CondValue {
	return CondValue{Set: vals}
}
func SetRefValue(name string) CondValue { return CondValue{SetRef: name} }

// Human-readable rendering, used in traces and reasons.
func (v CondValue) String() string {
	switch {
	case v.Number != nil:
		return strconv.FormatFloat(*v.Number, 'g', -1, 64)
	case v.Bool != nil:
		return strconv.FormatBool(*v.Bool)
	case v.Str != nil:
		return *v.Str
	case v.SetRef != "":
		return "set:" + v.SetRef
	case v.Set != nil:
		return "{" + strings.Join(v.Set, ", ") + "}"
	}
	return "(empty)"
}

// A single typed comparison against one resolved context field.
type RuleCondition struct {
	Type     FieldCategory `json:"type"`
	Field    string        `json:"field"`
	Operator Operator      `json:"operator"`
	Value    CondValue     `json:"value"`
	Weight   float64       `json:"weight"`
}

// Fully-qualified field name, "category.field".
func (c *RuleCondition) FQN() string {
	return string(c.Type) + "." + c.Field
}

func (c *RuleCondition) weight() float64 {
	if c.Weight == 0 {
		return DefaultConditionWeight
	}
	return c.Weight
}

// Optional, action-type-dependent parameters.
type ActionParams struct {
	DurationHours   int    `json:"durationHours,omitempty"`
	Reason          string `json:"reason,omitempty"`
	Severity        string `json:"severity,omitempty"`
	Assignee        string `json:"assignee,omitempty"`
	EscalationLevel int    `json:"escalationLevel,omitempty"`
}

// A concrete enforcement effect applied to content, a user, or a moderator
// queue.
type RuleAction struct {
	Type       ActionType   `json:"type"`
	Target     ActionTarget `json:"target"`
	Parameters ActionParams `json:"parameters,omitempty"`
}

func (a *RuleAction) String() string {
	return fmt.Sprintf("%s/%s", a.Type, a.Target)
}

// A named, prioritized bundle of conditions and actions evaluated against
// one moderation event. Rules are authored through the admin API and read by
// the engine as part of an immutable snapshot.
type ModerationRule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Description      string           `json:"description,omitempty"`
	Priority         int              `json:"priority"`
	IsActive         bool             `json:"isActive"`
	FailClosed       bool             `json:"failClosed,omitempty"`
	TriggerEvent     TriggerEvent     `json:"triggerEvent"`
	TriggerFrequency TriggerFrequency `json:"triggerFrequency"`
	Conditions       []RuleCondition  `json:"conditions"`
	Actions          []RuleAction     `json:"actions"`
	Version          int              `json:"version"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Immutable view of the active rule set, swapped atomically on reload so
// that no single evaluation observes a mix of old and new rules.
type Snapshot struct {
	// Deterministic digest over rule ids and versions; identical active rule
	// sets produce identical snapshot versions (and identical traces).
	Version        string
	CatalogVersion string
	LoadedAt       time.Time
	// Sorted by priority descending, ties broken by creation time then id
	// ascending (oldest rule wins ties).
	Rules []*ModerationRule
}

// Builds a snapshot from the given rules, establishing the evaluation order.
func NewSnapshot(rules []*ModerationRule, loadedAt time.Time) *Snapshot {
	sorted := make([]*ModerationRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].ID < sorted[j].ID
	})
	return &Snapshot{
		Version:        snapshotDigest(sorted),
		CatalogVersion: CatalogVersion,
		LoadedAt:       loadedAt,
		Rules:          sorted,
	}
}

// Active rules matching the given trigger event and frequency, in evaluation
// order.
func (s *Snapshot) RulesFor(evt TriggerEvent, freq TriggerFrequency) []*ModerationRule {
	var out []*ModerationRule
	for _, r := range s.Rules {
		if !r.IsActive {
			continue
		}
		if r.TriggerEvent != evt || r.TriggerFrequency != freq {
			continue
		}
		out = append(out, r)
	}
	return out
}
