package hashindex

// indexConfig is the mutable build-time state Option closures act on;
// it exists only for the duration of New so options can both set a
// field on the Index directly and influence the initial table size
// before the first table is allocated.
type indexConfig struct {
	idx  *Index
	size *int
}

// Option configures an Index at construction time, mirroring the
// teacher's cache.Option[K,V] functional-option shape.
type Option func(*indexConfig)

// WithInitialSize overrides the default initial bucket count (rounded
// up to the next power of two). Useful when the caller knows roughly
// how many members a set will hold and wants to skip the early grows.
func WithInitialSize(n int) Option {
	return func(c *indexConfig) {
		*c.size = nextPow2(n)
	}
}

// WithSeed pins the keyed-hash seed instead of drawing one from
// crypto/rand, for reproducible bucket placement in tests.
func WithSeed(seed uint64) Option {
	return func(c *indexConfig) {
		c.idx.seed = seed
	}
}

// WithResizeDisabled starts the index with automatic grow/shrink
// disabled; MaybeResize still fires once load crosses forceGrowRatio
// (spec.md §4.3's "resizing can be disabled... except past the
// emergency ratio").
func WithResizeDisabled() Option {
	return func(c *indexConfig) {
		c.idx.resizeDisabled = true
	}
}
