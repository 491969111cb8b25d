package rulemod

import "fmt"

// Version of the field catalog. Embedded in snapshots and simulation traces
// so stored traces can be matched against the catalog they were produced
// with. Bump when fields are added or their semantics change.
const CatalogVersion = "2026-07"

// One of the five closed condition categories. Each category owns a closed
// set of named fields with declared types.
type FieldCategory string

const (
	CategoryContentAnalysis FieldCategory = "content_analysis"
	CategoryUserReputation  FieldCategory = "user_reputation"
	CategoryUserHistory     FieldCategory = "user_history"
	CategoryTimeBased       FieldCategory = "time_based"
	CategoryContentMetadata FieldCategory = "content_metadata"
)

var FieldCategories = []FieldCategory{
	CategoryContentAnalysis,
	CategoryUserReputation,
	CategoryUserHistory,
	CategoryTimeBased,
	CategoryContentMetadata,
}

type FieldType string

const (
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldString  FieldType = "string"
)

// Declaration of one catalog field: its type, optional numeric range or
// string enum (checked against comparison values at rule-save time), and
// what happens when the upstream signal is missing.
type FieldSpec struct {
	Category FieldCategory
	Name     string
	Type     FieldType
	// closed value set for string fields; empty means free-form
	Enum []string
	// inclusive range for number fields; nil means unbounded
	Min *float64
	Max *float64
	// When the upstream signal is missing: if UnknownWhenMissing, the field
	// resolves to "unknown" and any condition referencing it is treated as
	// non-matching. Otherwise the documented zero default applies (number 0,
	// empty string / enum default, false).
	UnknownWhenMissing bool
	// default for missing enum string fields (eg user_reputation.level)
	DefaultStr string
}

func (f *FieldSpec) FQN() string {
	return string(f.Category) + "." + f.Name
}

func fptr(v float64) *float64 { return &v }

// The fixed, versioned field catalog. Unknown field references fail rule
// validation with a field-scoped error; they are never silently defaulted.
var fieldCatalog = []FieldSpec{
	// Content-analysis scores come from the external analyzer collaborator.
	// Missing scores are "unknown", not zero, to avoid false positives when
	// the analyzer is unavailable.
	{Category: CategoryContentAnalysis, Name: "spam_score", Type: FieldNumber, Min: fptr(0), Max: fptr(100), UnknownWhenMissing: true},
	{Category: CategoryContentAnalysis, Name: "toxicity_score", Type: FieldNumber, Min: fptr(0), Max: fptr(100), UnknownWhenMissing: true},
	{Category: CategoryContentAnalysis, Name: "adult_score", Type: FieldNumber, Min: fptr(0), Max: fptr(100), UnknownWhenMissing: true},
	{Category: CategoryContentAnalysis, Name: "language", Type: FieldString, UnknownWhenMissing: true},

	{Category: CategoryUserReputation, Name: "score", Type: FieldNumber},
	{Category: CategoryUserReputation, Name: "level", Type: FieldString,
		Enum: []string{"new", "member", "trusted", "restricted"}, DefaultStr: "new"},
	{Category: CategoryUserReputation, Name: "verified", Type: FieldBoolean},

	// History counters fall back to the engine's countstore when absent from
	// the caller's bundle, then to 0.
	{Category: CategoryUserHistory, Name: "reports_received_day", Type: FieldNumber, Min: fptr(0)},
	{Category: CategoryUserHistory, Name: "posts_created_day", Type: FieldNumber, Min: fptr(0)},
	{Category: CategoryUserHistory, Name: "violations_total", Type: FieldNumber, Min: fptr(0)},
	{Category: CategoryUserHistory, Name: "account_age_days", Type: FieldNumber, Min: fptr(0)},

	// Derived from the event timestamp; always known.
	{Category: CategoryTimeBased, Name: "hour_of_day", Type: FieldNumber, Min: fptr(0), Max: fptr(23)},
	{Category: CategoryTimeBased, Name: "day_of_week", Type: FieldString,
		Enum: []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}},
	{Category: CategoryTimeBased, Name: "is_weekend", Type: FieldBoolean},

	{Category: CategoryContentMetadata, Name: "text", Type: FieldString},
	{Category: CategoryContentMetadata, Name: "content_type", Type: FieldString,
		Enum: []string{"post", "comment", "message", "profile"}, UnknownWhenMissing: true},
	{Category: CategoryContentMetadata, Name: "length", Type: FieldNumber, Min: fptr(0)},
	{Category: CategoryContentMetadata, Name: "link_count", Type: FieldNumber, Min: fptr(0)},
	{Category: CategoryContentMetadata, Name: "media_count", Type: FieldNumber, Min: fptr(0)},
	{Category: CategoryContentMetadata, Name: "has_media", Type: FieldBoolean},
}

// Reference to a field that is not part of the catalog. Raised at
// rule-validation time only; evaluation never sees unknown fields.
type UnknownFieldError struct {
	Category FieldCategory
	Field    string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field: %s.%s", e.Category, e.Field)
}

// Looks up a field declaration by category and name.
func LookupField(category FieldCategory, name string) (*FieldSpec, error) {
	for i := range fieldCatalog {
		if fieldCatalog[i].Category == category && fieldCatalog[i].Name == name {
			return &fieldCatalog[i], nil
		}
	}
	return nil, &UnknownFieldError{Category: category, Field: name}
}

// All catalog fields, in declaration order.
func CatalogFields() []FieldSpec {
	out := make([]FieldSpec, len(fieldCatalog))
	copy(out, fieldCatalog)
	return out
}
