package countstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemCountStoreBasics(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()

	n, err := cs.GetCount(ctx, "posts-created", "user-1", PeriodTotal)
	require.NoError(err)
	assert.Equal(0, n)

	require.NoError(cs.Increment(ctx, "posts-created", "user-1"))
	require.NoError(cs.Increment(ctx, "posts-created", "user-1"))

	for _, period := range []string{PeriodTotal, PeriodDay, PeriodHour} {
		n, err = cs.GetCount(ctx, "posts-created", "user-1", period)
		require.NoError(err)
		assert.Equal(2, n)
	}

	// period-scoped increments don't touch the other buckets
	require.NoError(cs.IncrementPeriod(ctx, "quota", "block", PeriodDay))
	n, err = cs.GetCount(ctx, "quota", "block", PeriodDay)
	require.NoError(err)
	assert.Equal(1, n)
	n, err = cs.GetCount(ctx, "quota", "block", PeriodTotal)
	require.NoError(err)
	assert.Equal(0, n)

	// other subjects are unaffected
	n, err = cs.GetCount(ctx, "posts-created", "user-2", PeriodTotal)
	require.NoError(err)
	assert.Equal(0, n)
}

func TestMemCountStoreDistinct(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	cs := NewMemCountStore()
	require.NoError(cs.IncrementDistinct(ctx, "reports-received", "user-1", "content-a"))
	require.NoError(cs.IncrementDistinct(ctx, "reports-received", "user-1", "content-a"))
	require.NoError(cs.IncrementDistinct(ctx, "reports-received", "user-1", "content-b"))

	n, err := cs.GetCountDistinct(ctx, "reports-received", "user-1", PeriodDay)
	require.NoError(err)
	assert.Equal(2, n)
}
