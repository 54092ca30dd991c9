package hashindex

import (
	"math/bits"

	"github.com/epsilon-ds/mscoreset/score"
)

// ScanCallback is invoked once per visited entry during Scan.
type ScanCallback func(key Member, val score.Tuple)

// Scan visits a bounded slice of the table and returns the cursor to
// pass on the next call; cursor 0 both starts and ends a full
// traversal. The reverse-binary-iteration scheme (spec.md §4.3, §9)
// guarantees every element present for the whole traversal is visited
// at least once even if the table resizes between calls.
func (h *Index) Scan(cursor uint64, cb ScanCallback) uint64 {
	if h.Len() == 0 {
		return 0
	}

	if !h.rehashing() {
		t0 := h.tables[0]
		emitBucket(t0, cursor&t0.mask, cb)
		return advanceCursor(cursor, t0.mask)
	}

	small, big := h.tables[0], h.tables[1]
	if small.size() > big.size() {
		small, big = big, small
	}
	m0, m1 := small.mask, big.mask

	emitBucket(small, cursor&m0, cb)
	for {
		emitBucket(big, cursor&m1, cb)
		cursor = advanceCursor(cursor, m1)
		if cursor&(m0^m1) == 0 {
			break
		}
	}
	return cursor
}

func emitBucket(t bucketTable, idx uint64, cb ScanCallback) {
	for e := t.buckets[idx]; e != nil; e = e.next {
		cb(e.key, e.value)
	}
}

// advanceCursor increments a reverse-binary cursor masked to `mask`:
// set the high bits, reverse, increment, reverse back (the dict.c
// dictScan step, spec.md §9).
func advanceCursor(cursor, mask uint64) uint64 {
	cursor |= ^mask
	cursor = bits.Reverse64(cursor)
	cursor++
	cursor = bits.Reverse64(cursor)
	return cursor
}
