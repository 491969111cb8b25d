package flagstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemFlagStore(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	fs := NewMemFlagStore()
	key := SubjectKey("content", "abc123")

	flags, err := fs.Get(ctx, key)
	require.NoError(err)
	assert.Empty(flags)

	require.NoError(fs.Add(ctx, key, []string{"medium/spam", "high/toxicity"}))
	require.NoError(fs.Add(ctx, key, []string{"medium/spam"}))

	flags, err = fs.Get(ctx, key)
	require.NoError(err)
	assert.Equal([]string{"high/toxicity", "medium/spam"}, flags)

	require.NoError(fs.Remove(ctx, key, []string{"high/toxicity", "not-there"}))
	flags, err = fs.Get(ctx, key)
	require.NoError(err)
	assert.Equal([]string{"medium/spam"}, flags)
}
