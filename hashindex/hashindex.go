/*
Package hashindex implements the sorted set's member → score companion
index: a chained hash table with two bucket arrays so growth/shrink can
proceed incrementally, a keyed 64-bit hash (spec.md §4.3: "the only
hash used"), and a reverse-binary-iteration Scan cursor that survives
resizes between calls.

Grounded on spec.md §4.3 directly — the retrieval pack's C reference
(original_source/) ships the skip list and the zset command layer but
not dict.c, so this package has no line-level original to port; the
incremental-rehash and reverse-binary-cursor algorithms below are the
textbook Redis dict.c shape the spec describes.
*/
package hashindex

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"

	"github.com/cespare/xxhash/v2"

	"github.com/epsilon-ds/mscoreset/score"
	"github.com/epsilon-ds/mscoreset/skiplist"
)

const (
	initialSize = 4

	// growLoadFactor is the used/size ratio that triggers a grow once
	// used >= size (spec.md §4.3).
	growLoadFactor = 1.0
	// forceGrowRatio bypasses resizeDisabled when load gets this high.
	forceGrowRatio = 5.0
	// shrinkLoadFactor triggers a shrink-to-fit.
	shrinkLoadFactor = 0.1

	// rehashStepBuckets is how many buckets each incremental step
	// migrates (spec.md §4.3: "default N=1").
	rehashStepBuckets = 1
)

// Member is the key type stored in the index. It is an alias of
// skiplist.Member (not just a structurally identical interface) so
// Index satisfies skiplist.Remover directly and both indexes can be
// handed the same Host-owned byte string without a wrapper type.
type Member = skiplist.Member

// processSeed is the one keyed-hash seed for this process (spec.md
// §4.3, §5: "global seed initialized once per process").
var processSeed = randomSeed()

func randomSeed() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is effectively never observed in
		// practice; fall back to a process-local PRNG seed so the
		// index still has a usable (if less unpredictable) hash.
		return mathrand.Uint64()
	}
	return binary.LittleEndian.Uint64(b[:])
}

func (h *Index) hashKey(key []byte) uint64 {
	return xxhash.Sum64(key) ^ h.seed
}

type entry struct {
	key   Member
	value score.Tuple
	next  *entry
}

type bucketTable struct {
	buckets []*entry
	mask    uint64 // size-1; size is always a power of two
	used    int
}

func newTable(size int) bucketTable {
	if size < 1 {
		size = 1
	}
	return bucketTable{
		buckets: make([]*entry, size),
		mask:    uint64(size - 1),
	}
}

func (t bucketTable) size() int { return len(t.buckets) }

// Index is the chained hash table from Member to score.Tuple, with
// Redis-dict-style incremental rehashing and a resize-safe Scan
// cursor.
type Index struct {
	tables         [2]bucketTable
	rehashIdx      int // -1 when idle
	resizeDisabled bool
	seed           uint64
}

// New creates an empty index, applying any supplied Options over the
// defaults (initial table size 4, process-wide random seed).
func New(opts ...Option) *Index {
	idx := &Index{rehashIdx: -1, seed: processSeed}
	size := initialSize
	for _, opt := range opts {
		opt(&indexConfig{idx: idx, size: &size})
	}
	idx.tables[0] = newTable(size)
	return idx
}

// Len returns the total number of entries across both tables.
func (h *Index) Len() int {
	return h.tables[0].used + h.tables[1].used
}

func nextPow2(n int) int {
	if n < 1 {
		return 1
	}
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// rehashing reports whether an incremental rehash is in progress.
func (h *Index) rehashing() bool { return h.rehashIdx != -1 }

// rehashStep migrates up to rehashStepBuckets non-empty buckets from
// ht[0] to ht[1].
func (h *Index) rehashStep() {
	if !h.rehashing() {
		return
	}
	moved := 0
	for moved < rehashStepBuckets {
		if h.tables[0].used == 0 {
			h.tables[0] = h.tables[1]
			h.tables[1] = bucketTable{}
			h.rehashIdx = -1
			return
		}
		for h.rehashIdx < len(h.tables[0].buckets) && h.tables[0].buckets[h.rehashIdx] == nil {
			h.rehashIdx++
		}
		if h.rehashIdx >= len(h.tables[0].buckets) {
			h.tables[0] = h.tables[1]
			h.tables[1] = bucketTable{}
			h.rehashIdx = -1
			return
		}
		e := h.tables[0].buckets[h.rehashIdx]
		h.tables[0].buckets[h.rehashIdx] = nil
		for e != nil {
			next := e.next
			idx := h.hashKey(e.key.Bytes()) & h.tables[1].mask
			e.next = h.tables[1].buckets[idx]
			h.tables[1].buckets[idx] = e
			h.tables[0].used--
			h.tables[1].used++
			e = next
		}
		moved++
	}
}

func (h *Index) needsGrow() bool {
	t0 := h.tables[0]
	if t0.used < t0.size() {
		return false
	}
	load := float64(t0.used) / float64(t0.size())
	if !h.resizeDisabled && load >= growLoadFactor {
		return true
	}
	return load > forceGrowRatio
}

func (h *Index) needsShrink() bool {
	t0 := h.tables[0]
	if h.resizeDisabled || t0.size() <= initialSize {
		return false
	}
	return float64(t0.used)/float64(t0.size()) < shrinkLoadFactor
}

func (h *Index) beginResize(targetSize int) {
	if h.rehashing() {
		return
	}
	h.tables[1] = newTable(nextPow2(targetSize))
	h.rehashIdx = 0
}

// MaybeResize starts an incremental grow or shrink if the load factor
// warrants it (spec.md §4.3). Safe to call after any mutation.
func (h *Index) MaybeResize() {
	if h.rehashing() {
		return
	}
	if h.needsGrow() {
		h.beginResize(h.tables[0].size() * 2)
		return
	}
	if h.needsShrink() {
		target := h.tables[0].used
		if target < initialSize {
			target = initialSize
		}
		h.beginResize(target)
	}
}

// Find returns the value for key, if present.
func (h *Index) Find(key Member) (score.Tuple, bool) {
	if h.rehashing() {
		h.rehashStep()
	}
	hv := h.hashKey(key.Bytes())
	if e := find(h.tables[0], hv, key); e != nil {
		return e.value, true
	}
	if h.rehashing() {
		if e := find(h.tables[1], hv, key); e != nil {
			return e.value, true
		}
	}
	return nil, false
}

func find(t bucketTable, hv uint64, key Member) *entry {
	if t.size() == 0 {
		return nil
	}
	for e := t.buckets[hv&t.mask]; e != nil; e = e.next {
		if bytesEqual(e.key, key) {
			return e
		}
	}
	return nil
}

func bytesEqual(a, b Member) bool {
	ab, bb := a.Bytes(), b.Bytes()
	if len(ab) != len(bb) {
		return false
	}
	for i := range ab {
		if ab[i] != bb[i] {
			return false
		}
	}
	return true
}

// Add inserts key → val if key is absent. Returns the prior value and
// true if key was already present (spec.md §4.3: "AddRaw...if key
// exists, sets existing_out and returns NULL").
func (h *Index) Add(key Member, val score.Tuple) (existing score.Tuple, existed bool) {
	if existing, existed = h.Find(key); existed {
		return existing, true
	}
	if h.rehashing() {
		h.rehashStep()
	}
	target := 0
	if h.rehashing() {
		target = 1
	}
	hv := h.hashKey(key.Bytes())
	idx := hv & h.tables[target].mask
	h.tables[target].buckets[idx] = &entry{key: key, value: val, next: h.tables[target].buckets[idx]}
	h.tables[target].used++
	h.MaybeResize()
	return nil, false
}

// SetExisting overwrites the value for an already-present key (spec.md
// §4.4: "the hash entry's value pointer is repointed to the new
// node's owned score"). Returns false if key is absent.
func (h *Index) SetExisting(key Member, val score.Tuple) bool {
	hv := h.hashKey(key.Bytes())
	if e := find(h.tables[0], hv, key); e != nil {
		e.value = val
		return true
	}
	if h.rehashing() {
		if e := find(h.tables[1], hv, key); e != nil {
			e.value = val
			return true
		}
	}
	return false
}

// Unlink removes key and returns its value. Unlike spec.md §4.3's
// two-step Unlink/FreeUnlinked, Go's garbage collector makes the
// separate free step unnecessary — removal and release happen in one
// call.
func (h *Index) Unlink(key Member) (score.Tuple, bool) {
	if h.rehashing() {
		h.rehashStep()
	}
	hv := h.hashKey(key.Bytes())
	if v, ok := unlinkFrom(&h.tables[0], hv, key); ok {
		h.MaybeResize()
		return v, true
	}
	if h.rehashing() {
		if v, ok := unlinkFrom(&h.tables[1], hv, key); ok {
			h.MaybeResize()
			return v, true
		}
	}
	return nil, false
}

func unlinkFrom(t *bucketTable, hv uint64, key Member) (score.Tuple, bool) {
	if t.size() == 0 {
		return nil, false
	}
	idx := hv & t.mask
	var prev *entry
	for e := t.buckets[idx]; e != nil; e = e.next {
		if bytesEqual(e.key, key) {
			if prev == nil {
				t.buckets[idx] = e.next
			} else {
				prev.next = e.next
			}
			t.used--
			return e.value, true
		}
		prev = e
	}
	return nil, false
}

// Delete removes key, returning whether it was present.
func (h *Index) Delete(key Member) bool {
	_, ok := h.Unlink(key)
	return ok
}

// Remove satisfies skiplist.Remover so the skip list's DeleteRangeBy*
// family can unlink from both indexes in one pass (spec.md §4.2).
func (h *Index) Remove(key Member) {
	h.Delete(key)
}
