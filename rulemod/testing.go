package rulemod

import (
	"log/slog"
	"time"

	"github.com/haven-social/warden/rulemod/auditlog"
	"github.com/haven-social/warden/rulemod/countstore"
	"github.com/haven-social/warden/rulemod/flagstore"
	"github.com/haven-social/warden/rulemod/platform"
	"github.com/haven-social/warden/rulemod/setstore"
)

// SnapshotSource over a fixed snapshot; for tests and one-shot simulation.
type StaticSnapshotSource struct {
	Snapshot *Snapshot
}

func (s *StaticSnapshotSource) Current() *Snapshot {
	return s.Snapshot
}

var fixtureEpoch = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

// Rules used by the engine test fixture. Intentionally exported, for use in
// other packages.
func FixtureRules() []*ModerationRule {
	return []*ModerationRule{
		{
			ID:               "rule-spam-flag",
			Name:             "high spam score",
			Priority:         5,
			IsActive:         true,
			TriggerEvent:     EventContentPosted,
			TriggerFrequency: FreqImmediate,
			Conditions: []RuleCondition{
				{Type: CategoryContentAnalysis, Field: "spam_score", Operator: OpGreaterThan, Value: NumberValue(70)},
			},
			Actions: []RuleAction{
				{Type: ActionFlag, Target: TargetContent, Parameters: ActionParams{Severity: "medium", Reason: "likely spam"}},
			},
			Version:   1,
			CreatedAt: fixtureEpoch,
			UpdatedAt: fixtureEpoch,
		},
		{
			ID:               "rule-toxic-block",
			Name:             "toxic content from new account",
			Priority:         9,
			IsActive:         true,
			TriggerEvent:     EventContentPosted,
			TriggerFrequency: FreqImmediate,
			Conditions: []RuleCondition{
				{Type: CategoryContentAnalysis, Field: "toxicity_score", Operator: OpGreaterThan, Value: NumberValue(80), Weight: 2.0},
				{Type: CategoryUserReputation, Field: "level", Operator: OpEquals, Value: StringValue("new")},
			},
			Actions: []RuleAction{
				{Type: ActionBlock, Target: TargetContent, Parameters: ActionParams{Reason: "toxicity threshold"}},
				{Type: ActionNotify, Target: TargetModerator},
			},
			Version:   1,
			CreatedAt: fixtureEpoch,
			UpdatedAt: fixtureEpoch,
		},
		{
			ID:               "rule-bad-keywords",
			Name:             "flagged keyword review",
			Priority:         3,
			IsActive:         true,
			TriggerEvent:     EventContentPosted,
			TriggerFrequency: FreqImmediate,
			Conditions: []RuleCondition{
				{Type: CategoryContentMetadata, Field: "text", Operator: OpContains, Value: StringValue("free money")},
			},
			Actions: []RuleAction{
				{Type: ActionReview, Target: TargetContent, Parameters: ActionParams{Severity: "low"}},
			},
			Version:   1,
			CreatedAt: fixtureEpoch,
			UpdatedAt: fixtureEpoch,
		},
	}
}

// Fully in-memory engine with a small fixed rule set, for use in tests here
// and in other packages.
func EngineTestFixture() Engine {
	sets := setstore.NewMemSetStore()
	sets.AddToSet("banned-domains", "scam.example", "phish.example")

	snap := NewSnapshot(FixtureRules(), fixtureEpoch)
	engine := Engine{
		Logger:   slog.Default(),
		Rules:    &StaticSnapshotSource{Snapshot: snap},
		Counters: countstore.NewMemCountStore(),
		Sets:     sets,
		Flags:    flagstore.NewMemFlagStore(),
		Platform: platform.NewMemClient(),
		Audit:    auditlog.NewMemStore(),
		Notifier: NewMemNotifier(),
	}
	return engine
}
