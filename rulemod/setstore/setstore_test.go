package setstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemSetStore(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	sets := NewMemSetStore()
	sets.AddToSet("banned-domains", "scam.example", "phish.example")

	in, err := sets.InSet(ctx, "banned-domains", "scam.example")
	require.NoError(err)
	assert.True(in)

	in, err = sets.InSet(ctx, "banned-domains", "fine.example")
	require.NoError(err)
	assert.False(in)

	// unknown set names are errors, not empty sets
	_, err = sets.InSet(ctx, "no-such-set", "anything")
	assert.Error(err)
}

func TestMemSetStoreCaseInsensitive(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	sets := NewMemSetStore()
	sets.AddToSet("banned-domains", "Scam.Example")

	// membership ignores case on both the stored member and the lookup value
	in, err := sets.InSet(ctx, "banned-domains", "scam.example")
	require.NoError(err)
	assert.True(in)

	in, err = sets.InSet(ctx, "banned-domains", "SCAM.EXAMPLE")
	require.NoError(err)
	assert.True(in)
}

func TestLoadFromFileJSON(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "sets.json")
	require.NoError(os.WriteFile(path, []byte(`{"flagged-keywords": ["spam", "Free Money"]}`), 0644))

	sets := NewMemSetStore()
	require.NoError(sets.LoadFromFileJSON(path))

	in, err := sets.InSet(ctx, "flagged-keywords", "spam")
	require.NoError(err)
	assert.True(in)

	// mixed-case file entries still match
	in, err = sets.InSet(ctx, "flagged-keywords", "free money")
	require.NoError(err)
	assert.True(in)
}
