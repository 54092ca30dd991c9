package sortedset

import (
	"time"

	"github.com/epsilon-ds/mscoreset/batcher"
	"github.com/epsilon-ds/mscoreset/score"
)

// AofPair is one member/score entry fed into an AofStream.
type AofPair struct {
	Member Member
	Score  score.Tuple
}

// AofStream is a pull-based alternative to AofRewrite's synchronous
// emit callback: a Host that wants to produce and consume AOF-rewrite
// batches on independent goroutines can call Feed from one and Get
// from another, the same division of labor as batcher.Batcher's own
// usage example (spec.md §4.5's batched AOF rewrite, reshaped for
// pull-based consumption).
type AofStream struct {
	b *batcher.Batcher[AofPair]
}

// NewAofStream creates a stream batching up to batchSize pairs
// (aofDefaultBatch if batchSize <= 0). If maxWait is nonzero, Get
// returns a short batch after that long rather than waiting for
// batchSize pairs to accumulate.
func NewAofStream(batchSize int, maxWait time.Duration) (*AofStream, error) {
	if batchSize <= 0 {
		batchSize = aofDefaultBatch
	}
	b, err := batcher.New[AofPair](batcher.Config[AofPair]{
		MaxItems: uint(batchSize),
		MaxTime:  maxWait,
	})
	if err != nil {
		return nil, err
	}
	return &AofStream{b: b}, nil
}

// Feed scans o's hash index in cursor order, pushing every pair into
// the stream, then disposes it so a final partial batch flushes and
// subsequent Get calls report batcher.ErrDisposed. Intended to run on
// its own goroutine while the Host drains Get concurrently.
func (s *AofStream) Feed(o *Object) {
	cursor := uint64(0)
	for {
		cursor = o.scanRaw(cursor, func(m Member, sc score.Tuple) {
			s.b.Put(AofPair{Member: m, Score: sc})
		})
		if cursor == 0 {
			break
		}
	}
	s.b.Flush()
	s.b.Dispose()
}

// Get blocks for the next ready batch. It returns batcher.ErrDisposed
// once Feed has finished and every batch has drained.
func (s *AofStream) Get() ([]AofPair, error) {
	return s.b.Get()
}
