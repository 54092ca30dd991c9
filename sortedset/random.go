package sortedset

import (
	"math/rand"

	"github.com/epsilon-ds/mscoreset/score"
	"github.com/epsilon-ds/mscoreset/set"
)

// zrandmemberSubStrategyMul is ZRANDMEMBER_SUB_STRATEGY_MUL (spec.md
// §4.6): above this multiple of size, copying and shrinking beats
// repeated random sampling.
const zrandmemberSubStrategyMul = 3

// sampleCap bounds the "sample" strategy's retry loop so pathological
// dedupe collisions cannot spin indefinitely (spec.md §4.6).
const sampleCap = 1000

// RandomMember returns one fair-random element, or false if empty
// (spec.md §4.4: "Single: GetFairRandomKey").
func (o *Object) RandomMember() (Member, score.Tuple, bool) {
	return o.hash.GetFairRandomKey()
}

// RandomMembers implements EXZRANDMEMBER's count semantics (spec.md
// §4.6):
//   - count == 1 or count < 0: repetition allowed, |count| independent
//     fair-random draws.
//   - count == 0: empty.
//   - count >= size: the whole set in ascending skip-list order.
//   - otherwise: unique members, via the "subtract" strategy when
//     count*3 > size, else the "sample" strategy.
func (o *Object) RandomMembers(count int) []Element {
	size := o.sl.Len()
	if count == 0 || size == 0 {
		return nil
	}
	if count == 1 || count < 0 {
		n := count
		if n < 0 {
			n = -n
		}
		out := make([]Element, 0, n)
		for i := 0; i < n; i++ {
			if m, s, ok := o.hash.GetFairRandomKey(); ok {
				out = append(out, Element{Member: m, Score: s})
			}
		}
		return out
	}
	if count >= size {
		out := make([]Element, 0, size)
		for n := o.sl.First(); n != nil; n = n.Next() {
			out = append(out, Element{Member: n.Member(), Score: n.Score()})
		}
		return out
	}
	if count*zrandmemberSubStrategyMul > size {
		return o.randomSubtract(count, size)
	}
	return o.randomSample(count)
}

// randomSubtract copies every member into a scratch slice, then drops a
// uniform-random entry until only count remain (spec.md §4.6).
func (o *Object) randomSubtract(count, size int) []Element {
	type kv struct {
		m Member
		s score.Tuple
	}
	scratch := make([]kv, 0, size)
	for n := o.sl.First(); n != nil; n = n.Next() {
		scratch = append(scratch, kv{n.Member(), n.Score()})
	}
	for len(scratch) > count {
		i := rand.Intn(len(scratch))
		scratch[i] = scratch[len(scratch)-1]
		scratch = scratch[:len(scratch)-1]
	}
	out := make([]Element, len(scratch))
	for i, e := range scratch {
		out[i] = Element{Member: e.m, Score: e.s}
	}
	return out
}

// randomSample draws fair-random keys and dedupes until count unique
// members are collected, bounded by sampleCap draws (spec.md §4.6).
func (o *Object) randomSample(count int) []Element {
	seen := set.NewWithCapacity[string](count)
	out := make([]Element, 0, count)
	for draws := 0; len(out) < count && draws < sampleCap; draws++ {
		m, s, ok := o.hash.GetFairRandomKey()
		if !ok {
			break
		}
		key := string(m.Bytes())
		if seen.Exists(key) {
			continue
		}
		seen.Add(key)
		out = append(out, Element{Member: m, Score: s})
	}
	return out
}
