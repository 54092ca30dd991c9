package sortedset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epsilon-ds/mscoreset/batcher"
	"github.com/epsilon-ds/mscoreset/score"
)

func TestAofStreamDrainsAllPairsInBatches(t *testing.T) {
	o, err := New(1)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		_, _, err := o.Upsert(score.Tuple{float64(i)}, RawMember(string(rune('a'+i))), UpsertFlags{})
		require.NoError(t, err)
	}

	stream, err := NewAofStream(4, 0)
	require.NoError(t, err)

	go stream.Feed(o)

	seen := 0
	batchCount := 0
	for {
		batch, err := stream.Get()
		if err != nil {
			require.ErrorIs(t, err, batcher.ErrDisposed)
			break
		}
		batchCount++
		seen += len(batch)
	}
	assert.Equal(t, 10, seen)
	assert.GreaterOrEqual(t, batchCount, 3)
}

func TestAofStreamMaxWaitFlushesPartialBatch(t *testing.T) {
	o, err := New(1)
	require.NoError(t, err)
	_, _, err = o.Upsert(score.Tuple{1}, RawMember("solo"), UpsertFlags{})
	require.NoError(t, err)

	stream, err := NewAofStream(100, 10*time.Millisecond)
	require.NoError(t, err)

	go stream.Feed(o)

	batch, err := stream.Get()
	require.NoError(t, err)
	assert.Len(t, batch, 1)
}
