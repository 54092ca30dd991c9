package skiplist

import (
	"github.com/epsilon-ds/mscoreset/score"
)

// ScoreRange bounds a score-ordered traversal (spec.md §3).
type ScoreRange struct {
	Min, Max                   score.Tuple
	MinExclusive, MaxExclusive bool
}

// LexRange bounds a member-ordered traversal (spec.md §3). Min/Max may
// be NegInf/PosInf to match any member.
type LexRange struct {
	Min, Max                   Member
	MinExclusive, MaxExclusive bool
}

// empty reports whether r can never match anything, independent of
// list contents (spec.md §4.2: "whole-set emptiness predicate").
func (r ScoreRange) empty() bool {
	c := score.Cmp(r.Min, r.Max)
	return c > 0 || (c == 0 && (r.MinExclusive || r.MaxExclusive))
}

func (r ScoreRange) valueGteMin(v score.Tuple) bool {
	c := score.Cmp(v, r.Min)
	if r.MinExclusive {
		return c > 0
	}
	return c >= 0
}

func (r ScoreRange) valueLteMax(v score.Tuple) bool {
	c := score.Cmp(v, r.Max)
	if r.MaxExclusive {
		return c < 0
	}
	return c <= 0
}

// isInRange reports whether any element of sl can possibly satisfy r.
func (sl *SkipList) isInRange(r ScoreRange) bool {
	if r.empty() {
		return false
	}
	x := sl.tail
	if x == nil || !r.valueGteMin(x.score) {
		return false
	}
	x = sl.header.levels[0].forward
	if x == nil || !r.valueLteMax(x.score) {
		return false
	}
	return true
}

// FirstInRange returns the first node whose score lies in r, or nil.
func (sl *SkipList) FirstInRange(r ScoreRange) *Node {
	if !sl.isInRange(r) {
		return nil
	}
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && !r.valueGteMin(x.levels[i].forward.score) {
			x = x.levels[i].forward
		}
	}
	x = x.levels[0].forward
	if x == nil || !r.valueLteMax(x.score) {
		return nil
	}
	return x
}

// LastInRange returns the last node whose score lies in r, or nil.
func (sl *SkipList) LastInRange(r ScoreRange) *Node {
	if !sl.isInRange(r) {
		return nil
	}
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && r.valueLteMax(x.levels[i].forward.score) {
			x = x.levels[i].forward
		}
	}
	if x == sl.header {
		return nil
	}
	if !r.valueGteMin(x.score) {
		return nil
	}
	return x
}

func (r LexRange) empty() bool {
	c := compareMembers(r.Min, r.Max)
	return c > 0 || (c == 0 && (r.MinExclusive || r.MaxExclusive))
}

func (r LexRange) valueGteMin(m Member) bool {
	c := compareMembers(m, r.Min)
	if r.MinExclusive {
		return c > 0
	}
	return c >= 0
}

func (r LexRange) valueLteMax(m Member) bool {
	c := compareMembers(m, r.Max)
	if r.MaxExclusive {
		return c < 0
	}
	return c <= 0
}

// ValueGteMin reports whether m satisfies r's lower bound; exported
// for callers (e.g. sortedset) that walk ranges one step at a time
// outside this package.
func (r LexRange) ValueGteMin(m Member) bool { return r.valueGteMin(m) }

// ValueLteMax reports whether m satisfies r's upper bound.
func (r LexRange) ValueLteMax(m Member) bool { return r.valueLteMax(m) }

func (sl *SkipList) isInLexRange(r LexRange) bool {
	if r.empty() {
		return false
	}
	x := sl.tail
	if x == nil || !r.valueGteMin(x.member) {
		return false
	}
	x = sl.header.levels[0].forward
	if x == nil || !r.valueLteMax(x.member) {
		return false
	}
	return true
}

// FirstInLexRange returns the first node whose member lies in r, or
// nil. Callers must ensure every node shares the same score — lex
// ranges are only meaningful over an equal-score set (spec.md §4.2).
func (sl *SkipList) FirstInLexRange(r LexRange) *Node {
	if !sl.isInLexRange(r) {
		return nil
	}
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && !r.valueGteMin(x.levels[i].forward.member) {
			x = x.levels[i].forward
		}
	}
	x = x.levels[0].forward
	if x == nil || !r.valueLteMax(x.member) {
		return nil
	}
	return x
}

// LastInLexRange returns the last node whose member lies in r, or nil.
func (sl *SkipList) LastInLexRange(r LexRange) *Node {
	if !sl.isInLexRange(r) {
		return nil
	}
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && r.valueLteMax(x.levels[i].forward.member) {
			x = x.levels[i].forward
		}
	}
	if x == sl.header {
		return nil
	}
	if !r.valueGteMin(x.member) {
		return nil
	}
	return x
}

// Remover is the companion hash index's removal hook, used by the
// DeleteRangeBy* family to keep both indexes consistent in one pass
// (spec.md §4.2: "also removing from the companion hash").
type Remover interface {
	Remove(m Member)
}

// DeleteRangeByScore removes every node whose score lies in r,
// unlinking it from sl and from hash. Returns the count removed.
func (sl *SkipList) DeleteRangeByScore(r ScoreRange, hash Remover) int {
	var update [MaxLevel]*Node
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && !r.valueGteMin(x.levels[i].forward.score) {
			x = x.levels[i].forward
		}
		update[i] = x
	}

	removed := 0
	x = x.levels[0].forward
	for x != nil && r.valueLteMax(x.score) {
		next := x.levels[0].forward
		sl.deleteNode(x, update)
		if hash != nil {
			hash.Remove(x.member)
		}
		removed++
		x = next
	}
	return removed
}

// DeleteRangeByLex removes every node whose member lies in r.
func (sl *SkipList) DeleteRangeByLex(r LexRange, hash Remover) int {
	var update [MaxLevel]*Node
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && !r.valueGteMin(x.levels[i].forward.member) {
			x = x.levels[i].forward
		}
		update[i] = x
	}

	removed := 0
	x = x.levels[0].forward
	for x != nil && r.valueLteMax(x.member) {
		next := x.levels[0].forward
		sl.deleteNode(x, update)
		if hash != nil {
			hash.Remove(x.member)
		}
		removed++
		x = next
	}
	return removed
}

// DeleteRangeByRank removes nodes whose 1-based rank lies in
// [start, end] inclusive.
func (sl *SkipList) DeleteRangeByRank(start, end int, hash Remover) int {
	var update [MaxLevel]*Node
	traversed := 0
	x := sl.header
	for i := sl.level - 1; i >= 0; i-- {
		for x.levels[i].forward != nil && traversed+x.levels[i].span < start {
			traversed += x.levels[i].span
			x = x.levels[i].forward
		}
		update[i] = x
	}

	traversed++
	removed := 0
	x = x.levels[0].forward
	for x != nil && traversed <= end {
		next := x.levels[0].forward
		sl.deleteNode(x, update)
		if hash != nil {
			hash.Remove(x.member)
		}
		removed++
		traversed++
		x = next
	}
	return removed
}
