package rulemod

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMatchRuleStrictAnd(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	evt := &ModerationEvent{
		ID:         "evt-1",
		Type:       EventContentPosted,
		UserID:     "user-1",
		OccurredAt: time.Now().UTC(),
		Bundle: ContextBundle{
			Analysis:   map[string]float64{"spam_score": 90, "toxicity_score": 10},
			Reputation: &ReputationMeta{Level: "new"},
		},
	}
	ectx := testEvalContext(evt)

	rule := &ModerationRule{
		ID:   "r1",
		Name: "both thresholds",
		Conditions: []RuleCondition{
			{Type: CategoryContentAnalysis, Field: "spam_score", Operator: OpGreaterThan, Value: NumberValue(70), Weight: 2.0},
			{Type: CategoryContentAnalysis, Field: "toxicity_score", Operator: OpGreaterThan, Value: NumberValue(50)},
		},
	}

	out := matchRule(ctx, rule, ectx, nil)
	assert.False(out.Matched)
	// 2.0 of 3.0 total weight matched
	assert.InDelta(2.0/3.0, out.Confidence, 0.0001)
	assert.Len(out.Conditions, 2)

	// both conditions pass: matched, confidence 1.0
	evt.Bundle.Analysis["toxicity_score"] = 60
	ectx = testEvalContext(evt)
	out = matchRule(ctx, rule, ectx, nil)
	assert.True(out.Matched)
	assert.InDelta(1.0, out.Confidence, 0.0001)
	assert.Len(out.MatchReasons(), 2)
}

func TestMatchRuleNoConditions(t *testing.T) {
	assert := assert.New(t)

	evt := &ModerationEvent{ID: "evt-1", Type: EventContentPosted, OccurredAt: time.Now().UTC()}
	ectx := testEvalContext(evt)

	// a rule with no conditions never matches (validation prevents saving one
	// active, but the matcher holds the line anyway)
	rule := &ModerationRule{ID: "r1", Name: "empty"}
	out := matchRule(context.Background(), rule, ectx, nil)
	assert.False(out.Matched)
	assert.Equal(0.0, out.Confidence)
}

func TestMatchRuleDefaultWeight(t *testing.T) {
	assert := assert.New(t)

	evt := &ModerationEvent{
		ID:         "evt-1",
		Type:       EventContentPosted,
		OccurredAt: time.Now().UTC(),
		Bundle:     ContextBundle{Analysis: map[string]float64{"spam_score": 50}},
	}
	ectx := testEvalContext(evt)

	rule := &ModerationRule{
		ID:   "r1",
		Name: "unweighted",
		Conditions: []RuleCondition{
			{Type: CategoryContentAnalysis, Field: "spam_score", Operator: OpGreaterThan, Value: NumberValue(40)},
			{Type: CategoryContentAnalysis, Field: "spam_score", Operator: OpLessThan, Value: NumberValue(45)},
		},
	}
	out := matchRule(context.Background(), rule, ectx, nil)
	assert.False(out.Matched)
	// unspecified weights count as 1.0 each
	assert.InDelta(0.5, out.Confidence, 0.0001)
}
