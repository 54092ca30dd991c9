package sortedset

import (
	"github.com/epsilon-ds/mscoreset/score"
	"github.com/epsilon-ds/mscoreset/skiplist"
)

// Element is one (member, score) pair returned by a range query.
type Element struct {
	Member Member
	Score  score.Tuple
}

// QueryKind selects which bound shape a Query uses.
type QueryKind int

const (
	// ByIndex ranges over 0-based positions (EXZRANGE/EXZREVRANGE).
	ByIndex QueryKind = iota
	// ByScore ranges over a ScoreRange (EXZRANGEBYSCORE).
	ByScore
	// ByLex ranges over a LexRange (EXZRANGEBYLEX).
	ByLex
)

// Query describes one range traversal, covering RangeByIndex/Score/Lex
// and their REV variants with a single shape so MaterializeRange and
// the read-only range calls can share one walk (SPEC_FULL.md §5).
type Query struct {
	Kind    QueryKind
	Start   int // ByIndex only; may be negative, normalized like Redis
	End     int // ByIndex only
	Score   skiplist.ScoreRange
	Lex     skiplist.LexRange
	Reverse bool
	Offset  int // ByScore/ByLex only
	Limit   int // ByScore/ByLex only; < 0 means unlimited
}

func normalizeIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	return i
}

// Range executes q against o and returns the matched elements in
// traversal order (spec.md §4.4).
func (o *Object) Range(q Query) []Element {
	switch q.Kind {
	case ByIndex:
		return o.rangeByIndex(q.Start, q.End, q.Reverse)
	case ByScore:
		return o.rangeByScore(q.Score, q.Reverse, q.Offset, q.Limit)
	case ByLex:
		return o.rangeByLex(q.Lex, q.Reverse, q.Offset, q.Limit)
	default:
		return nil
	}
}

func (o *Object) rangeByIndex(start, end int, reverse bool) []Element {
	length := o.sl.Len()
	start = normalizeIndex(start, length)
	end = normalizeIndex(end, length)
	if start < 0 {
		start = 0
	}
	if end >= length {
		end = length - 1
	}
	if start > end || start >= length || length == 0 {
		return nil
	}

	var rank int
	if reverse {
		rank = length - start
	} else {
		rank = start + 1
	}
	node := o.sl.ElementByRank(rank)
	out := make([]Element, 0, end-start+1)
	for n := 0; n <= end-start && node != nil; n++ {
		out = append(out, Element{Member: node.Member(), Score: node.Score()})
		if reverse {
			node = node.Prev()
		} else {
			node = node.Next()
		}
	}
	return out
}

func (o *Object) rangeByScore(r skiplist.ScoreRange, reverse bool, offset, limit int) []Element {
	var node *skiplist.Node
	if reverse {
		node = o.sl.LastInRange(r)
	} else {
		node = o.sl.FirstInRange(r)
	}

	var out []Element
	for node != nil && offset > 0 {
		offset--
		if reverse {
			node = prevIfInRange(node, r)
		} else {
			node = nextIfInRange(node, r)
		}
	}
	for node != nil && (limit < 0 || len(out) < limit) {
		out = append(out, Element{Member: node.Member(), Score: node.Score()})
		if reverse {
			node = prevIfInRange(node, r)
		} else {
			node = nextIfInRange(node, r)
		}
	}
	return out
}

func nextIfInRange(n *skiplist.Node, r skiplist.ScoreRange) *skiplist.Node {
	next := n.Next()
	if !boundedByMax(next, r) {
		return nil
	}
	return next
}

func boundedByMax(n *skiplist.Node, r skiplist.ScoreRange) bool {
	if n == nil {
		return false
	}
	c := score.Cmp(n.Score(), r.Max)
	if r.MaxExclusive {
		return c < 0
	}
	return c <= 0
}

func prevIfInRange(n *skiplist.Node, r skiplist.ScoreRange) *skiplist.Node {
	prev := n.Prev()
	if prev == nil {
		return nil
	}
	c := score.Cmp(prev.Score(), r.Min)
	ok := c >= 0
	if r.MinExclusive {
		ok = c > 0
	}
	if !ok {
		return nil
	}
	return prev
}

func (o *Object) rangeByLex(r skiplist.LexRange, reverse bool, offset, limit int) []Element {
	var node *skiplist.Node
	if reverse {
		node = o.sl.LastInLexRange(r)
	} else {
		node = o.sl.FirstInLexRange(r)
	}

	var out []Element
	for node != nil && offset > 0 {
		offset--
		if reverse {
			node = prevIfInLexRange(node, r)
		} else {
			node = nextIfInLexRange(node, r)
		}
	}
	for node != nil && (limit < 0 || len(out) < limit) {
		out = append(out, Element{Member: node.Member(), Score: node.Score()})
		if reverse {
			node = prevIfInLexRange(node, r)
		} else {
			node = nextIfInLexRange(node, r)
		}
	}
	return out
}

func nextIfInLexRange(n *skiplist.Node, r skiplist.LexRange) *skiplist.Node {
	next := n.Next()
	if !boundedByLexMax(next, r) {
		return nil
	}
	return next
}

func boundedByLexMax(n *skiplist.Node, r skiplist.LexRange) bool {
	if n == nil {
		return false
	}
	return r.ValueLteMax(n.Member())
}

func prevIfInLexRange(n *skiplist.Node, r skiplist.LexRange) *skiplist.Node {
	prev := n.Prev()
	if prev == nil {
		return nil
	}
	if !r.ValueGteMin(prev.Member()) {
		return nil
	}
	return prev
}

// RemoveRangeByScore deletes every element whose score lies in r,
// returning the count removed (spec.md §4.4, §4.2).
func (o *Object) RemoveRangeByScore(r skiplist.ScoreRange) int {
	return o.sl.DeleteRangeByScore(r, o.hash)
}

// RemoveRangeByLex deletes every element whose member lies in r.
func (o *Object) RemoveRangeByLex(r skiplist.LexRange) int {
	return o.sl.DeleteRangeByLex(r, o.hash)
}

// RemoveRangeByRank deletes elements whose 1-based rank lies in
// [start, end] inclusive.
func (o *Object) RemoveRangeByRank(start, end int) int {
	return o.sl.DeleteRangeByRank(start, end, o.hash)
}

// MaterializeRange runs q against o and builds a brand-new Object from
// the result, the ZRANGESTORE-equivalent the Host can bind to a
// destination key (SPEC_FULL.md §5). Returns nil, nil if the query
// matched nothing (mirroring "if empty, delete the destination").
func (o *Object) MaterializeRange(q Query) (*Object, error) {
	elems := o.Range(q)
	if len(elems) == 0 {
		return nil, nil
	}
	dst, err := New(o.arity)
	if err != nil {
		return nil, err
	}
	for _, e := range elems {
		if _, _, err := dst.Upsert(e.Score.Clone(), e.Member, UpsertFlags{}); err != nil {
			return nil, err
		}
	}
	return dst, nil
}
