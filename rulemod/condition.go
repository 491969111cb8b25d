package rulemod

import (
	"context"
	"fmt"
	"strings"

	"github.com/haven-social/warden/rulemod/setstore"
)

// Outcome of evaluating a single condition, kept verbatim in traces so rule
// authors can see why a rule did or did not fire.
type ConditionTrace struct {
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
	Resolved string   `json:"resolved"`
	Weight   float64  `json:"weight"`
	Matched  bool     `json:"matched"`
	Reason   string   `json:"reason"`
}

// Evaluates one condition against the resolved context. Unknown field values
// never match; a failed named-set lookup is a resolution error and likewise
// treated as non-matching rather than failing the evaluation.
func evalCondition(ctx context.Context, cond *RuleCondition, ectx *EvaluationContext, sets setstore.SetStore) ConditionTrace {
	tr := ConditionTrace{
		Field:    cond.FQN(),
		Operator: cond.Operator,
		Value:    cond.Value.String(),
		Weight:   cond.weight(),
	}
	val := ectx.Lookup(cond.FQN())
	tr.Resolved = val.String()
	if !val.Known {
		tr.Reason = fmt.Sprintf("%s is unknown", cond.FQN())
		return tr
	}

	matched, reason := applyOperator(ctx, cond, val, sets)
	tr.Matched = matched
	tr.Reason = reason
	return tr
}

func applyOperator(ctx context.Context, cond *RuleCondition, val FieldValue, sets setstore.SetStore) (bool, string) {
	describe := func(verb string) string {
		return fmt.Sprintf("%s (%s) %s %s", cond.FQN(), val.String(), verb, cond.Value.String())
	}

	switch cond.Operator {
	case OpEquals, OpNotEquals:
		eq := valuesEqual(cond, val)
		if cond.Operator == OpNotEquals {
			eq = !eq
		}
		return eq, describe(string(cond.Operator))
	case OpGreaterThan:
		// strict inequality: a score exactly at the threshold does not match
		return cond.Value.Number != nil && val.Num > *cond.Value.Number, describe("greater_than")
	case OpLessThan:
		return cond.Value.Number != nil && val.Num < *cond.Value.Number, describe("less_than")
	case OpContains, OpNotContains:
		has := false
		if cond.Value.Str != nil {
			has = strings.Contains(strings.ToLower(val.Str), strings.ToLower(*cond.Value.Str))
		}
		if cond.Operator == OpNotContains {
			has = !has
		}
		return has, describe(string(cond.Operator))
	case OpIn, OpNotIn:
		member, err := setMember(ctx, cond, val.Str, sets)
		if err != nil {
			return false, fmt.Sprintf("%s: set lookup failed: %v", cond.FQN(), err)
		}
		if cond.Operator == OpNotIn {
			member = !member
		}
		return member, describe(string(cond.Operator))
	}
	return false, fmt.Sprintf("%s: unsupported operator %q", cond.FQN(), cond.Operator)
}

func valuesEqual(cond *RuleCondition, val FieldValue) bool {
	switch val.Type {
	case FieldNumber:
		return cond.Value.Number != nil && val.Num == *cond.Value.Number
	case FieldBoolean:
		return cond.Value.Bool != nil && val.Bool == *cond.Value.Bool
	case FieldString:
		return cond.Value.Str != nil && strings.EqualFold(val.Str, *cond.Value.Str)
	}
	return false
}

func setMember(ctx context.Context, cond *RuleCondition, val string, sets setstore.SetStore) (bool, error) {
	if cond.Value.SetRef != "" {
		if sets == nil {
			return false, fmt.Errorf("no setstore configured for set %q", cond.Value.SetRef)
		}
		return sets.InSet(ctx, cond.Value.SetRef, strings.ToLower(val))
	}
	for _, member := range cond.Value.Set {
		if strings.EqualFold(member, val) {
			return true, nil
		}
	}
	return false, nil
}
