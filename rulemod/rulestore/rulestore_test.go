package rulestore

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-social/warden/rulemod"
)

func testRule(name string, priority int) *rulemod.ModerationRule {
	return &rulemod.ModerationRule{
		Name:             name,
		Priority:         priority,
		IsActive:         true,
		TriggerEvent:     rulemod.EventContentPosted,
		TriggerFrequency: rulemod.FreqImmediate,
		Conditions: []rulemod.RuleCondition{
			{Type: rulemod.CategoryContentAnalysis, Field: "spam_score", Operator: rulemod.OpGreaterThan, Value: rulemod.NumberValue(70)},
		},
		Actions: []rulemod.RuleAction{
			{Type: rulemod.ActionFlag, Target: rulemod.TargetContent, Parameters: rulemod.ActionParams{Severity: "medium"}},
		},
	}
}

func testStoreCRUD(t *testing.T, store Store) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	rule := testRule("spam threshold", 5)
	require.NoError(store.Create(ctx, rule))
	assert.NotEmpty(rule.ID)
	assert.Equal(1, rule.Version)

	got, err := store.Get(ctx, rule.ID)
	require.NoError(err)
	assert.Equal("spam threshold", got.Name)
	require.Len(got.Conditions, 1)
	assert.Equal(rulemod.OpGreaterThan, got.Conditions[0].Operator)
	require.Len(got.Actions, 1)
	assert.Equal("medium", got.Actions[0].Parameters.Severity)

	// update bumps the version and keeps creation time
	got.Priority = 8
	require.NoError(store.Update(ctx, got))
	assert.Equal(2, got.Version)
	again, err := store.Get(ctx, got.ID)
	require.NoError(err)
	assert.Equal(8, again.Priority)
	assert.Equal(2, again.Version)
	assert.True(again.CreatedAt.Equal(rule.CreatedAt))

	// invalid writes are rejected before touching storage
	bad := testRule("bad rule", 1)
	bad.Conditions[0].Field = "no_such_field"
	assert.Error(store.Create(ctx, bad))

	list, err := store.List(ctx)
	require.NoError(err)
	assert.Len(list, 1)

	require.NoError(store.Delete(ctx, got.ID))
	_, err = store.Get(ctx, got.ID)
	assert.ErrorIs(err, ErrNotFound)
	assert.ErrorIs(store.Delete(ctx, got.ID), ErrNotFound)
}

func TestMemStoreCRUD(t *testing.T) {
	testStoreCRUD(t, NewMemStore())
}

func TestGormStoreCRUD(t *testing.T) {
	db, err := OpenDatabase("sqlite://:memory:", 1)
	require.NoError(t, err)
	store, err := NewGormStore(db)
	require.NoError(t, err)
	testStoreCRUD(t, store)
}

func TestCacheSnapshot(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	store := NewMemStore()
	cache := NewCache(store, slog.Default(), time.Minute)

	// nothing loaded yet
	assert.Nil(cache.Current())

	r1 := testRule("rule one", 3)
	r2 := testRule("rule two", 9)
	require.NoError(store.Create(ctx, r1))
	require.NoError(store.Create(ctx, r2))

	require.NoError(cache.Reload(ctx))
	snap := cache.Current()
	require.NotNil(snap)
	require.Len(snap.Rules, 2)
	// evaluation order: priority descending
	assert.Equal("rule two", snap.Rules[0].Name)
	assert.NotEmpty(snap.Version)

	// reload with unchanged rules produces an identical snapshot version
	v1 := snap.Version
	require.NoError(cache.Reload(ctx))
	assert.Equal(v1, cache.Current().Version)

	// a rule change shows up after the next reload
	r1.Priority = 10
	require.NoError(store.Update(ctx, r1))
	require.NoError(cache.Reload(ctx))
	snap = cache.Current()
	assert.NotEqual(v1, snap.Version)
	assert.Equal("rule one", snap.Rules[0].Name)
}
