package rulemod

import (
	"context"

	"github.com/haven-social/warden/rulemod/setstore"
)

// Per-rule evaluation result. Recorded for every evaluated rule, matched or
// not, so the audit trail shows why lower-priority rules lost.
type RuleOutcome struct {
	RuleID   string `json:"ruleId"`
	RuleName string `json:"ruleName"`
	Priority int    `json:"priority"`
	Matched  bool   `json:"matched"`
	// true for the single rule whose actions are executed
	Authoritative bool `json:"authoritative"`
	// (sum of matched weights) / (sum of all condition weights); diagnostic
	// only, triggering is the strict AND of operator results
	Confidence float64          `json:"confidence"`
	Conditions []ConditionTrace `json:"conditions"`
}

// Evaluates all of a rule's conditions against the context. The rule matches
// iff every condition matches (logical AND; multiple rules provide the
// effective OR). Weighted partial matches only inform the reported
// confidence.
func matchRule(ctx context.Context, rule *ModerationRule, ectx *EvaluationContext, sets setstore.SetStore) RuleOutcome {
	out := RuleOutcome{
		RuleID:     rule.ID,
		RuleName:   rule.Name,
		Priority:   rule.Priority,
		Conditions: make([]ConditionTrace, 0, len(rule.Conditions)),
	}

	var totalWeight, matchedWeight float64
	allMatched := len(rule.Conditions) > 0
	for i := range rule.Conditions {
		tr := evalCondition(ctx, &rule.Conditions[i], ectx, sets)
		out.Conditions = append(out.Conditions, tr)
		totalWeight += tr.Weight
		if tr.Matched {
			matchedWeight += tr.Weight
		} else {
			allMatched = false
		}
	}

	out.Matched = allMatched
	if totalWeight > 0 {
		out.Confidence = matchedWeight / totalWeight
	}
	return out
}

// Reasons for a matched rule, concatenated from each matched condition.
func (o *RuleOutcome) MatchReasons() []string {
	var reasons []string
	for _, tr := range o.Conditions {
		if tr.Matched {
			reasons = append(reasons, tr.Reason)
		}
	}
	return reasons
}
