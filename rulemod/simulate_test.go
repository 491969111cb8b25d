package rulemod

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-social/warden/rulemod/auditlog"
	"github.com/haven-social/warden/rulemod/countstore"
	"github.com/haven-social/warden/rulemod/flagstore"
	"github.com/haven-social/warden/rulemod/platform"
)

func simulationTestEvent() *ModerationEvent {
	return &ModerationEvent{
		ID:        "evt-sim",
		Type:      EventContentPosted,
		ContentID: "content-1",
		UserID:    "user-1",
		// fixed timestamp: time_based fields must resolve identically each run
		OccurredAt: time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC),
		Bundle: ContextBundle{
			Analysis:   map[string]float64{"spam_score": 85, "toxicity_score": 20},
			Reputation: &ReputationMeta{Level: "member", Score: 50},
			Metadata:   &ContentMeta{Text: "check this out"},
		},
	}
}

func TestSimulateDeterministic(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	evt := simulationTestEvent()

	first, _, err := eng.Simulate(ctx, nil, evt, FreqImmediate)
	require.NoError(err)
	second, _, err := eng.Simulate(ctx, nil, evt, FreqImmediate)
	require.NoError(err)

	rawFirst, err := json.Marshal(first)
	require.NoError(err)
	rawSecond, err := json.Marshal(second)
	require.NoError(err)
	assert.Equal(string(rawFirst), string(rawSecond))

	assert.Equal("rule-spam-flag", first.WinningRuleID)
	require.Len(first.WouldExecute, 1)
	assert.Equal(ActionFlag, first.WouldExecute[0].Action.Type)
	assert.Equal(CatalogVersion, first.CatalogVersion)
	assert.NotEmpty(first.SnapshotVersion)
}

func TestSimulateHasNoSideEffects(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	eng := EngineTestFixture()
	evt := simulationTestEvent()

	_, _, err := eng.Simulate(ctx, nil, evt, FreqImmediate)
	require.NoError(err)

	// no platform calls, no flags, no audit records, no counter writes
	pc := eng.Platform.(*platform.MemClient)
	assert.Empty(pc.Calls())

	flags, err := eng.Flags.Get(ctx, flagstore.SubjectKey("content", "content-1"))
	require.NoError(err)
	assert.Empty(flags)

	recs := eng.Audit.(*auditlog.MemStore).All()
	assert.Empty(recs)

	n, err := eng.Counters.GetCount(ctx, countstore.NamePostsCreated, "user-1", countstore.PeriodDay)
	require.NoError(err)
	assert.Equal(0, n)
}
