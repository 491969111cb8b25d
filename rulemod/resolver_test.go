package rulemod

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-social/warden/rulemod/countstore"
)

func TestResolverDefaults(t *testing.T) {
	assert := assert.New(t)

	// bare event: nothing in the bundle
	evt := &ModerationEvent{
		ID:         "evt-1",
		Type:       EventContentPosted,
		UserID:     "user-1",
		OccurredAt: time.Date(2026, 7, 6, 23, 15, 0, 0, time.UTC), // a monday
	}
	r := Resolver{}
	ectx := r.Resolve(context.Background(), evt)

	assert.Equal(CatalogVersion, ectx.CatalogVersion)
	// every catalog field resolves to something
	assert.Len(ectx.Values, len(CatalogFields()))

	// analyzer signals are unknown, not zero
	assert.False(ectx.Lookup("content_analysis.spam_score").Known)
	assert.False(ectx.Lookup("content_analysis.language").Known)
	assert.False(ectx.Lookup("content_metadata.content_type").Known)

	// reputation defaults
	assert.Equal(0.0, ectx.Lookup("user_reputation.score").Num)
	assert.Equal("new", ectx.Lookup("user_reputation.level").Str)
	assert.False(ectx.Lookup("user_reputation.verified").Bool)

	// time fields always resolve from the event timestamp
	assert.Equal(23.0, ectx.Lookup("time_based.hour_of_day").Num)
	assert.Equal("monday", ectx.Lookup("time_based.day_of_week").Str)
	assert.False(ectx.Lookup("time_based.is_weekend").Bool)

	// metadata defaults
	assert.Equal("", ectx.Lookup("content_metadata.text").Str)
	assert.Equal(0.0, ectx.Lookup("content_metadata.length").Num)
	assert.False(ectx.Lookup("content_metadata.has_media").Bool)
}

func TestResolverBundleValues(t *testing.T) {
	assert := assert.New(t)

	evt := &ModerationEvent{
		ID:          "evt-2",
		Type:        EventContentPosted,
		ContentID:   "content-2",
		ContentType: "Comment",
		UserID:      "user-2",
		OccurredAt:  time.Date(2026, 7, 5, 9, 0, 0, 0, time.UTC), // a sunday
		Bundle: ContextBundle{
			Analysis:   map[string]float64{"spam_score": 42.5, "toxicity_score": 0},
			Language:   "EN",
			Reputation: &ReputationMeta{Score: 87, Level: "Trusted", Verified: true, AccountAgeDays: 400},
			History:    map[string]int{"reports_received_day": 7},
			Metadata:   &ContentMeta{Text: "hello there", LinkCount: 2, MediaCount: 1},
		},
	}
	r := Resolver{}
	ectx := r.Resolve(context.Background(), evt)

	assert.Equal(42.5, ectx.Lookup("content_analysis.spam_score").Num)
	// an explicit zero score is known, unlike a missing one
	v := ectx.Lookup("content_analysis.toxicity_score")
	assert.True(v.Known)
	assert.Equal(0.0, v.Num)
	assert.False(ectx.Lookup("content_analysis.adult_score").Known)
	assert.Equal("en", ectx.Lookup("content_analysis.language").Str)

	assert.Equal(87.0, ectx.Lookup("user_reputation.score").Num)
	assert.Equal("trusted", ectx.Lookup("user_reputation.level").Str)
	assert.True(ectx.Lookup("user_reputation.verified").Bool)

	// bundle override beats the countstore
	assert.Equal(7.0, ectx.Lookup("user_history.reports_received_day").Num)
	assert.Equal(400.0, ectx.Lookup("user_history.account_age_days").Num)

	assert.True(ectx.Lookup("time_based.is_weekend").Bool)

	// length falls back to the text when unset
	assert.Equal(float64(len("hello there")), ectx.Lookup("content_metadata.length").Num)
	assert.Equal("comment", ectx.Lookup("content_metadata.content_type").Str)
	assert.Equal(2.0, ectx.Lookup("content_metadata.link_count").Num)
	// media count implies has_media
	assert.True(ectx.Lookup("content_metadata.has_media").Bool)
}

func TestResolverCountStoreFallback(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	counters := countstore.NewMemCountStore()
	for i := 0; i < 3; i++ {
		require.NoError(counters.Increment(ctx, countstore.NamePostsCreated, "user-3"))
	}
	require.NoError(counters.Increment(ctx, countstore.NameViolations, "user-3"))

	evt := &ModerationEvent{
		ID:         "evt-3",
		Type:       EventContentPosted,
		UserID:     "user-3",
		OccurredAt: time.Now().UTC(),
	}
	r := Resolver{Counters: counters}
	ectx := r.Resolve(ctx, evt)

	assert.Equal(3.0, ectx.Lookup("user_history.posts_created_day").Num)
	assert.Equal(0.0, ectx.Lookup("user_history.reports_received_day").Num)
	assert.Equal(1.0, ectx.Lookup("user_history.violations_total").Num)
}
