package rulemod

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-social/warden/rulemod/auditlog"
	"github.com/haven-social/warden/rulemod/countstore"
	"github.com/haven-social/warden/rulemod/flagstore"
	"github.com/haven-social/warden/rulemod/platform"
)

func TestEngineFlagsSpam(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	evt := &ModerationEvent{
		ID:        "evt-spam",
		Type:      EventContentPosted,
		ContentID: "content-1",
		UserID:    "user-1",
		Bundle: ContextBundle{
			Analysis: map[string]float64{"spam_score": 85},
			Metadata: &ContentMeta{Text: "totally normal post"},
		},
	}

	res, err := eng.ProcessEvent(ctx, evt)
	require.NoError(err)
	assert.False(res.Allowed)
	assert.Equal("rule-spam-flag", res.WinningRuleID)
	require.Len(res.Executed, 1)
	assert.True(res.Executed[0].OK)

	flags, err := eng.Flags.Get(ctx, flagstore.SubjectKey("content", "content-1"))
	require.NoError(err)
	assert.Equal([]string{"medium/likely spam"}, flags)

	recs, err := eng.Audit.ListByEvent(ctx, "evt-spam")
	require.NoError(err)
	require.Len(recs, 1)
	assert.Equal("rule-spam-flag", recs[0].RuleID)
	assert.Equal(auditlog.OutcomeOK, recs[0].Outcome)

	// the event itself fed the posts-created counter
	n, err := eng.Counters.GetCount(ctx, countstore.NamePostsCreated, "user-1", countstore.PeriodDay)
	require.NoError(err)
	assert.Equal(1, n)
}

func TestEngineBlocksToxicNewAccount(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	evt := &ModerationEvent{
		ID:        "evt-toxic",
		Type:      EventContentPosted,
		ContentID: "content-2",
		UserID:    "user-2",
		Bundle: ContextBundle{
			// matches both the block rule (priority 9) and the spam rule (5)
			Analysis:   map[string]float64{"spam_score": 95, "toxicity_score": 90},
			Reputation: &ReputationMeta{Level: "new"},
		},
	}

	res, err := eng.ProcessEvent(ctx, evt)
	require.NoError(err)
	assert.Equal("rule-toxic-block", res.WinningRuleID)

	// winner's block and notify, nothing from the losing spam rule
	require.Len(res.Executed, 2)
	assert.Equal(ActionBlock, res.Executed[0].Action.Type)
	assert.Equal(ActionNotify, res.Executed[1].Action.Type)

	pc := eng.Platform.(*platform.MemClient)
	calls := pc.Calls()
	require.Len(calls, 1)
	assert.Equal("block", calls[0].Op)

	notifier := eng.Notifier.(*MemNotifier)
	assert.Len(notifier.Messages(), 1)
}

func TestEngineAllowsClean(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	evt := &ModerationEvent{
		ID:        "evt-clean",
		Type:      EventContentPosted,
		ContentID: "content-3",
		UserID:    "user-3",
		Bundle: ContextBundle{
			Analysis:   map[string]float64{"spam_score": 5, "toxicity_score": 2},
			Reputation: &ReputationMeta{Level: "trusted", Verified: true},
			Metadata:   &ContentMeta{Text: "nice weather today"},
		},
	}

	res, err := eng.ProcessEvent(ctx, evt)
	require.NoError(err)
	assert.True(res.Allowed)
	assert.Empty(res.WinningRuleID)
	assert.Empty(res.Executed)
	// all immediate content_posted rules were still evaluated and traced
	assert.Len(res.Outcomes, 3)
}

func TestEngineFailsOpenWithoutSnapshot(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	eng.Rules = &StaticSnapshotSource{}

	evt := &ModerationEvent{
		ID:        "evt-orphan",
		Type:      EventContentPosted,
		ContentID: "content-4",
		UserID:    "user-4",
		Bundle:    ContextBundle{Analysis: map[string]float64{"spam_score": 99}},
	}
	res, err := eng.ProcessEvent(ctx, evt)
	require.NoError(err)
	assert.True(res.Allowed)
	assert.Empty(res.Executed)
	assert.NotEmpty(res.Reasons)
}

func TestEngineProcessBatch(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	hourly := spamRule("rule-hourly-review", 5, fixtureEpoch, RuleAction{Type: ActionReview, Target: TargetContent})
	hourly.TriggerFrequency = FreqBatchHourly
	rules := append(FixtureRules(), hourly)
	eng.Rules = &StaticSnapshotSource{Snapshot: NewSnapshot(rules, fixtureEpoch)}

	events := []*ModerationEvent{
		{ID: "b-1", Type: EventContentPosted, ContentID: "c1", UserID: "u1",
			OccurredAt: time.Now().UTC(),
			Bundle:     ContextBundle{Analysis: map[string]float64{"spam_score": 80}}},
		{ID: "b-2", Type: EventContentPosted, ContentID: "c2", UserID: "u2",
			OccurredAt: time.Now().UTC(),
			Bundle:     ContextBundle{Analysis: map[string]float64{"spam_score": 10}}},
	}
	results, err := eng.ProcessBatch(ctx, events, FreqBatchHourly)
	require.NoError(err)
	require.Len(results, 2)

	// immediate rules don't fire in an hourly pass, only the hourly one
	assert.Equal("rule-hourly-review", results[0].WinningRuleID)
	assert.True(results[1].Allowed)
}

func TestEngineBatchPassDoesNotRecountActivity(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	evt := &ModerationEvent{
		ID:        "evt-recount",
		Type:      EventContentPosted,
		ContentID: "content-5",
		UserID:    "user-5",
		Bundle: ContextBundle{
			Analysis: map[string]float64{"spam_score": 10},
			Metadata: &ContentMeta{Text: "hello"},
		},
	}

	_, err := eng.ProcessEvent(ctx, evt)
	require.NoError(err)

	// the scheduled passes re-evaluate the recorded event; only the
	// immediate pass feeds the activity counters
	_, err = eng.ProcessBatch(ctx, []*ModerationEvent{evt}, FreqBatchHourly)
	require.NoError(err)
	_, err = eng.ProcessBatch(ctx, []*ModerationEvent{evt}, FreqBatchDaily)
	require.NoError(err)

	n, err := eng.Counters.GetCount(ctx, countstore.NamePostsCreated, "user-5", countstore.PeriodDay)
	require.NoError(err)
	assert.Equal(1, n)
}
