package hashindex

import (
	mathrand "math/rand"

	"github.com/epsilon-ds/mscoreset/score"
)

// GetRandomKey samples a bucket uniformly over the total slot count
// across both tables, then a chain position uniformly within that
// bucket (spec.md §4.3: biased toward keys in shorter chains when the
// table has long chains, same as the dict.c original). Returns false
// on an empty index.
func (h *Index) GetRandomKey() (Member, score.Tuple, bool) {
	if h.Len() == 0 {
		return nil, nil, false
	}
	if h.rehashing() {
		h.rehashStep()
	}
	for {
		e := h.sampleSlot()
		if e == nil {
			continue
		}
		return e.key, e.value, true
	}
}

// sampleSlot picks one random slot across the live tables and returns
// its chain's head, or nil if that slot was empty (caller retries).
func (h *Index) sampleSlot() *entry {
	if !h.rehashing() {
		t := h.tables[0]
		return chainAt(t, mathrand.Intn(t.size()))
	}
	total := h.tables[0].size() + h.tables[1].size()
	i := mathrand.Intn(total)
	if i < h.tables[0].size() {
		return chainAt(h.tables[0], i)
	}
	return chainAt(h.tables[1], i-h.tables[0].size())
}

func chainAt(t bucketTable, idx int) *entry {
	head := t.buckets[idx]
	if head == nil {
		return nil
	}
	n := 0
	for e := head; e != nil; e = e.next {
		n++
	}
	pick := mathrand.Intn(n)
	e := head
	for i := 0; i < pick; i++ {
		e = e.next
	}
	return e
}

// fairRandomSamples is how many GetRandomKey draws GetFairRandomKey
// takes before choosing among them (spec.md Glossary, "Fair random":
// "de-biases short-vs-long chain skew well enough for RANDMEMBER").
const fairRandomSamples = 5

// GetFairRandomKey reduces GetRandomKey's short-chain/long-chain bias
// by drawing fairRandomSamples candidates and returning one of them
// uniformly at random.
func (h *Index) GetFairRandomKey() (Member, score.Tuple, bool) {
	type candidate struct {
		key Member
		val score.Tuple
	}
	var picks []candidate
	for i := 0; i < fairRandomSamples; i++ {
		k, v, ok := h.GetRandomKey()
		if !ok {
			return nil, nil, false
		}
		picks = append(picks, candidate{k, v})
	}
	chosen := picks[mathrand.Intn(len(picks))]
	return chosen.key, chosen.val, true
}
