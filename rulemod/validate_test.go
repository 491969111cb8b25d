package rulemod

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestRule() *ModerationRule {
	return &ModerationRule{
		Name:             "spam threshold",
		Priority:         5,
		IsActive:         true,
		TriggerEvent:     EventContentPosted,
		TriggerFrequency: FreqImmediate,
		Conditions: []RuleCondition{
			{Type: CategoryContentAnalysis, Field: "spam_score", Operator: OpGreaterThan, Value: NumberValue(70)},
		},
		Actions: []RuleAction{
			{Type: ActionFlag, Target: TargetContent},
		},
	}
}

func fieldPaths(err error) []string {
	verrs, ok := err.(ValidationErrors)
	if !ok {
		return nil
	}
	paths := make([]string, len(verrs))
	for i, e := range verrs {
		paths[i] = e.Path
	}
	return paths
}

func TestValidateRuleAccepts(t *testing.T) {
	assert := assert.New(t)

	assert.NoError(ValidateRule(validTestRule()))

	// inactive drafts may be empty
	draft := &ModerationRule{
		Name:             "draft",
		TriggerEvent:     EventContentReported,
		TriggerFrequency: FreqBatchDaily,
	}
	assert.NoError(ValidateRule(draft))
}

func TestValidateRuleRejectsShape(t *testing.T) {
	assert := assert.New(t)

	rule := validTestRule()
	rule.Name = "  "
	err := ValidateRule(rule)
	assert.Contains(fieldPaths(err), "name")

	rule = validTestRule()
	rule.TriggerEvent = "content_deleted"
	err = ValidateRule(rule)
	assert.Contains(fieldPaths(err), "triggerEvent")

	// active rules need conditions and actions
	rule = validTestRule()
	rule.Conditions = nil
	rule.Actions = nil
	err = ValidateRule(rule)
	assert.Contains(fieldPaths(err), "conditions")
	assert.Contains(fieldPaths(err), "actions")
}

func TestValidateRuleRejectsConditions(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	// field outside the catalog
	rule := validTestRule()
	rule.Conditions[0].Field = "sentiment_score"
	err := ValidateRule(rule)
	require.Error(err)
	assert.Contains(fieldPaths(err), "conditions[0].field")

	// operator not applicable to the field type
	rule = validTestRule()
	rule.Conditions[0] = RuleCondition{Type: CategoryUserReputation, Field: "verified", Operator: OpGreaterThan, Value: NumberValue(1)}
	err = ValidateRule(rule)
	assert.Contains(fieldPaths(err), "conditions[0].operator")

	// value type must agree with the operator
	rule = validTestRule()
	rule.Conditions[0].Value = StringValue("seventy")
	err = ValidateRule(rule)
	assert.Contains(fieldPaths(err), "conditions[0].value")

	// enum membership
	rule = validTestRule()
	rule.Conditions[0] = RuleCondition{Type: CategoryUserReputation, Field: "level", Operator: OpEquals, Value: StringValue("wizard")}
	err = ValidateRule(rule)
	assert.Contains(fieldPaths(err), "conditions[0].value")

	// numeric range from the field declaration
	rule = validTestRule()
	rule.Conditions[0].Value = NumberValue(150)
	err = ValidateRule(rule)
	assert.Contains(fieldPaths(err), "conditions[0].value")

	// weight bounds
	rule = validTestRule()
	rule.Conditions[0].Weight = 2.5
	err = ValidateRule(rule)
	assert.Contains(fieldPaths(err), "conditions[0].weight")

	// set operators need a set
	rule = validTestRule()
	rule.Conditions[0] = RuleCondition{Type: CategoryContentAnalysis, Field: "language", Operator: OpIn, Value: StringValue("en")}
	err = ValidateRule(rule)
	assert.Contains(fieldPaths(err), "conditions[0].value")
}

func TestValidateRuleRejectsActions(t *testing.T) {
	assert := assert.New(t)

	// block can only target content
	rule := validTestRule()
	rule.Actions[0] = RuleAction{Type: ActionBlock, Target: TargetUser}
	err := ValidateRule(rule)
	assert.Contains(fieldPaths(err), "actions[0].target")

	// restrict needs a positive duration
	rule = validTestRule()
	rule.Actions[0] = RuleAction{Type: ActionRestrict, Target: TargetUser}
	err = ValidateRule(rule)
	assert.Contains(fieldPaths(err), "actions[0].parameters.durationHours")

	// assign needs an assignee
	rule = validTestRule()
	rule.Actions[0] = RuleAction{Type: ActionAssign, Target: TargetModerator}
	err = ValidateRule(rule)
	assert.Contains(fieldPaths(err), "actions[0].parameters.assignee")

	// escalation level is 1-3
	rule = validTestRule()
	rule.Actions[0] = RuleAction{Type: ActionEscalate, Target: TargetModerator, Parameters: ActionParams{EscalationLevel: 4}}
	err = ValidateRule(rule)
	assert.Contains(fieldPaths(err), "actions[0].parameters.escalationLevel")

	// severity enum
	rule = validTestRule()
	rule.Actions[0].Parameters.Severity = "catastrophic"
	err = ValidateRule(rule)
	assert.Contains(fieldPaths(err), "actions[0].parameters.severity")
}
