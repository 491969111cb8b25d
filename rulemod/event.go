package rulemod

import (
	"strconv"
	"time"
)

// An incoming moderation event, as delivered by the content-submission
// pipeline (or synthesized by the batch scheduler). Carries the pre-computed
// context bundle; the engine itself never calls the analyzer or reputation
// store on the evaluation path.
type ModerationEvent struct {
	ID          string       `json:"id"`
	Type        TriggerEvent `json:"type"`
	ContentID   string       `json:"contentId"`
	ContentType string       `json:"contentType"`
	UserID      string       `json:"userId"`
	OccurredAt  time.Time    `json:"occurredAt"`
	Bundle      ContextBundle `json:"bundle"`
}

// Upstream signals for one event. Absent signals are handled per-field: some
// default (reputation score 0), some resolve through the countstore (history
// counters), and analyzer scores become "unknown".
type ContextBundle struct {
	// analyzer score name -> value (0-100); absent key means unknown
	Analysis map[string]float64 `json:"analysis,omitempty"`
	// BCP-47-ish language tag from the analyzer; empty means unknown
	Language   string          `json:"language,omitempty"`
	Reputation *ReputationMeta `json:"reputation,omitempty"`
	// history counter overrides; absent counters fall back to the countstore
	History  map[string]int `json:"history,omitempty"`
	Metadata *ContentMeta   `json:"metadata,omitempty"`
}

// Snapshot of the user's standing, from the external reputation store.
type ReputationMeta struct {
	Score          float64 `json:"score"`
	Level          string  `json:"level,omitempty"`
	Verified       bool    `json:"verified,omitempty"`
	AccountAgeDays int     `json:"accountAgeDays,omitempty"`
}

type ContentMeta struct {
	Text        string `json:"text,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Length      int    `json:"length,omitempty"`
	LinkCount   int    `json:"linkCount,omitempty"`
	MediaCount  int    `json:"mediaCount,omitempty"`
	HasMedia    bool   `json:"hasMedia,omitempty"`
}

// A resolved field value. Known=false marks a field whose upstream signal
// was unavailable and has no documented default; conditions referencing it
// never match.
type FieldValue struct {
	Type  FieldType
	Known bool
	Num   float64
	Str   string
	Bool  bool
}

func numValue(v float64) FieldValue { return FieldValue{Type: FieldNumber, Known: true, Num: v} }
func strValue(v string) FieldValue  { return FieldValue{Type: FieldString, Known: true, Str: v} }
func boolValue(v bool) FieldValue   { return FieldValue{Type: FieldBoolean, Known: true, Bool: v} }

func unknownValue(t FieldType) FieldValue { return FieldValue{Type: t} }

// Rendering for traces and reasons.
func (v FieldValue) String() string {
	if !v.Known {
		return "(unknown)"
	}
	switch v.Type {
	case FieldNumber:
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	case FieldBoolean:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Str
	}
}

// Immutable snapshot of resolved field values for one event. Built once per
// evaluation, never mutated afterwards.
type EvaluationContext struct {
	Event          *ModerationEvent
	CatalogVersion string
	// fully-qualified field name -> resolved value
	Values map[string]FieldValue
}

// Resolved value for a fully-qualified field name. Returns an unknown value
// for anything outside the catalog (which validation prevents rules from
// referencing in the first place).
func (c *EvaluationContext) Lookup(fqn string) FieldValue {
	if v, ok := c.Values[fqn]; ok {
		return v
	}
	return FieldValue{}
}
