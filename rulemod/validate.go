package rulemod

import (
	"fmt"
	"slices"
	"strings"
)

// A single field-scoped validation problem, suitable for returning to the
// rule-management UI next to the offending input.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Path + ": " + e.Message
}

type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return "invalid rule: " + strings.Join(msgs, "; ")
}

// operators allowed per declared field type
var operatorsByType = map[FieldType][]Operator{
	FieldNumber:  {OpEquals, OpNotEquals, OpGreaterThan, OpLessThan},
	FieldBoolean: {OpEquals, OpNotEquals},
	FieldString:  {OpEquals, OpNotEquals, OpContains, OpNotContains, OpIn, OpNotIn},
}

// Checks a rule against the field catalog and the action target table.
// Called at rule-save time; an invalid rule never becomes active, so
// evaluation can assume conditions are well-typed. Returns
// ValidationErrors (or nil).
//
// Inactive drafts may be saved with empty condition or action lists;
// activation requires at least one of each.
func ValidateRule(rule *ModerationRule) error {
	var errs ValidationErrors

	if strings.TrimSpace(rule.Name) == "" {
		errs = append(errs, FieldError{Path: "name", Message: "required"})
	}
	if !slices.Contains(TriggerEvents, rule.TriggerEvent) {
		errs = append(errs, FieldError{Path: "triggerEvent", Message: fmt.Sprintf("unknown trigger event %q", rule.TriggerEvent)})
	}
	if !slices.Contains(TriggerFrequencies, rule.TriggerFrequency) {
		errs = append(errs, FieldError{Path: "triggerFrequency", Message: fmt.Sprintf("unknown trigger frequency %q", rule.TriggerFrequency)})
	}

	if rule.IsActive {
		if len(rule.Conditions) == 0 {
			errs = append(errs, FieldError{Path: "conditions", Message: "an active rule needs at least one condition"})
		}
		if len(rule.Actions) == 0 {
			errs = append(errs, FieldError{Path: "actions", Message: "an active rule needs at least one action"})
		}
	}

	for i := range rule.Conditions {
		errs = append(errs, validateCondition(i, &rule.Conditions[i])...)
	}
	for i := range rule.Actions {
		errs = append(errs, validateAction(i, &rule.Actions[i])...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateCondition(idx int, cond *RuleCondition) ValidationErrors {
	var errs ValidationErrors
	path := func(suffix string) string {
		return fmt.Sprintf("conditions[%d].%s", idx, suffix)
	}

	if !slices.Contains(FieldCategories, cond.Type) {
		errs = append(errs, FieldError{Path: path("type"), Message: fmt.Sprintf("unknown condition type %q", cond.Type)})
		return errs
	}
	spec, err := LookupField(cond.Type, cond.Field)
	if err != nil {
		errs = append(errs, FieldError{Path: path("field"), Message: err.Error()})
		return errs
	}

	allowed, ok := operatorsByType[spec.Type]
	if !ok || !slices.Contains(allowed, cond.Operator) {
		errs = append(errs, FieldError{
			Path:    path("operator"),
			Message: fmt.Sprintf("operator %q not applicable to %s field %s", cond.Operator, spec.Type, spec.FQN()),
		})
		return errs
	}

	errs = append(errs, validateCondValue(path("value"), cond, spec)...)

	if cond.Weight != 0 && (cond.Weight < MinConditionWeight || cond.Weight > MaxConditionWeight) {
		errs = append(errs, FieldError{
			Path:    path("weight"),
			Message: fmt.Sprintf("weight must be between %.1f and %.1f", MinConditionWeight, MaxConditionWeight),
		})
	}
	return errs
}

func validateCondValue(path string, cond *RuleCondition, spec *FieldSpec) ValidationErrors {
	var errs ValidationErrors
	v := cond.Value

	switch cond.Operator {
	case OpIn, OpNotIn:
		if v.Set == nil && v.SetRef == "" {
			errs = append(errs, FieldError{Path: path, Message: "set operators need a set value or a set reference"})
		}
		return errs
	case OpGreaterThan, OpLessThan:
		if v.Number == nil {
			errs = append(errs, FieldError{Path: path, Message: "numeric comparison needs a number value"})
			return errs
		}
	case OpContains, OpNotContains:
		if v.Str == nil {
			errs = append(errs, FieldError{Path: path, Message: "substring comparison needs a string value"})
		}
		return errs
	default: // equals / not_equals, typed per field
		switch spec.Type {
		case FieldNumber:
			if v.Number == nil {
				errs = append(errs, FieldError{Path: path, Message: "number field needs a number value"})
				return errs
			}
		case FieldBoolean:
			if v.Bool == nil {
				errs = append(errs, FieldError{Path: path, Message: "boolean field needs a boolean value"})
			}
			return errs
		case FieldString:
			if v.Str == nil {
				errs = append(errs, FieldError{Path: path, Message: "string field needs a string value"})
				return errs
			}
			if len(spec.Enum) > 0 && !slices.Contains(spec.Enum, strings.ToLower(*v.Str)) {
				errs = append(errs, FieldError{
					Path:    path,
					Message: fmt.Sprintf("%q is not one of %s values: %s", *v.Str, spec.FQN(), strings.Join(spec.Enum, ", ")),
				})
			}
			return errs
		}
	}

	// numeric range check against the field declaration
	if v.Number != nil {
		if spec.Min != nil && *v.Number < *spec.Min {
			errs = append(errs, FieldError{Path: path, Message: fmt.Sprintf("below %s minimum %g", spec.FQN(), *spec.Min)})
		}
		if spec.Max != nil && *v.Number > *spec.Max {
			errs = append(errs, FieldError{Path: path, Message: fmt.Sprintf("above %s maximum %g", spec.FQN(), *spec.Max)})
		}
	}
	return errs
}

func validateAction(idx int, action *RuleAction) ValidationErrors {
	var errs ValidationErrors
	path := func(suffix string) string {
		return fmt.Sprintf("actions[%d].%s", idx, suffix)
	}

	targets, ok := actionTargets[action.Type]
	if !ok {
		errs = append(errs, FieldError{Path: path("type"), Message: fmt.Sprintf("unknown action type %q", action.Type)})
		return errs
	}
	if !slices.Contains(targets, action.Target) {
		errs = append(errs, FieldError{
			Path:    path("target"),
			Message: fmt.Sprintf("action %q cannot target %q", action.Type, action.Target),
		})
	}

	params := action.Parameters
	switch action.Type {
	case ActionRestrict:
		if params.DurationHours <= 0 {
			errs = append(errs, FieldError{Path: path("parameters.durationHours"), Message: "restrict needs a positive duration"})
		}
	case ActionAssign:
		if strings.TrimSpace(params.Assignee) == "" {
			errs = append(errs, FieldError{Path: path("parameters.assignee"), Message: "assign needs an assignee"})
		}
	case ActionEscalate:
		if params.EscalationLevel < 1 || params.EscalationLevel > 3 {
			errs = append(errs, FieldError{Path: path("parameters.escalationLevel"), Message: "escalation level must be 1-3"})
		}
	}
	if params.Severity != "" {
		switch params.Severity {
		case "low", "medium", "high", "critical":
		default:
			errs = append(errs, FieldError{Path: path("parameters.severity"), Message: fmt.Sprintf("unknown severity %q", params.Severity)})
		}
	}
	return errs
}
