package sortedset

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epsilon-ds/mscoreset/score"
	"github.com/epsilon-ds/mscoreset/skiplist"
)

func mustNew(t *testing.T, arity int) *Object {
	t.Helper()
	o, err := New(arity)
	require.NoError(t, err)
	return o
}

func TestUpsertAddedUpdatedNop(t *testing.T) {
	o := mustNew(t, 1)

	outcome, s, err := o.Upsert(score.Tuple{1}, RawMember("a"), UpsertFlags{})
	require.NoError(t, err)
	assert.Equal(t, Added, outcome)
	assert.Equal(t, score.Tuple{1}, s)

	outcome, _, err = o.Upsert(score.Tuple{2}, RawMember("a"), UpsertFlags{NX: true})
	require.NoError(t, err)
	assert.Equal(t, Nop, outcome)
	cur, _ := o.Score(RawMember("a"))
	assert.Equal(t, score.Tuple{1}, cur)

	outcome, s, err = o.Upsert(score.Tuple{2}, RawMember("a"), UpsertFlags{})
	require.NoError(t, err)
	assert.Equal(t, Updated, outcome)
	assert.Equal(t, score.Tuple{2}, s)

	outcome, _, err = o.Upsert(score.Tuple{5}, RawMember("never-there"), UpsertFlags{XX: true})
	require.NoError(t, err)
	assert.Equal(t, Nop, outcome)
	_, ok := o.Score(RawMember("never-there"))
	assert.False(t, ok)
}

func TestUpsertIncr(t *testing.T) {
	o := mustNew(t, 1)
	o.Upsert(score.Tuple{1}, RawMember("a"), UpsertFlags{})

	outcome, s, err := o.Upsert(score.Tuple{4}, RawMember("a"), UpsertFlags{INCR: true})
	require.NoError(t, err)
	assert.Equal(t, Updated, outcome)
	assert.Equal(t, score.Tuple{5}, s)
}

func TestUpsertIncrNaNLeavesUnchanged(t *testing.T) {
	o := mustNew(t, 2)
	o.Upsert(score.Tuple{1, math.Inf(1)}, RawMember("a"), UpsertFlags{})

	outcome, _, err := o.Upsert(score.Tuple{0, math.Inf(-1)}, RawMember("a"), UpsertFlags{INCR: true})
	require.NoError(t, err)
	assert.Equal(t, Nan, outcome)

	cur, ok := o.Score(RawMember("a"))
	require.True(t, ok)
	assert.Equal(t, score.Tuple{1, math.Inf(1)}, cur)
}

func TestUpsertConflictingFlags(t *testing.T) {
	o := mustNew(t, 1)
	_, _, err := o.Upsert(score.Tuple{1}, RawMember("a"), UpsertFlags{NX: true, XX: true})
	require.Error(t, err)
	var serr *ScoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, Conflict, serr.Kind)
}

func TestUpsertArityMismatchRejected(t *testing.T) {
	o := mustNew(t, 2)
	o.Upsert(score.Tuple{1, 2}, RawMember("a"), UpsertFlags{})

	_, _, err := o.Upsert(score.Tuple{3}, RawMember("b"), UpsertFlags{})
	require.Error(t, err)
	var serr *ScoreError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, ArityMismatch, serr.Kind)
	assert.Equal(t, 1, o.Len())
}

func TestRemove(t *testing.T) {
	o := mustNew(t, 1)
	o.Upsert(score.Tuple{1}, RawMember("a"), UpsertFlags{})
	assert.True(t, o.Remove(RawMember("a")))
	assert.False(t, o.Remove(RawMember("a")))
	assert.Equal(t, 0, o.Len())
}

func TestScoresBatch(t *testing.T) {
	o := mustNew(t, 1)
	o.Upsert(score.Tuple{1}, RawMember("a"), UpsertFlags{})
	o.Upsert(score.Tuple{2}, RawMember("b"), UpsertFlags{})

	got := o.Scores(RawMember("a"), RawMember("missing"), RawMember("b"))
	require.Len(t, got, 3)
	assert.Equal(t, score.Tuple{1}, got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, score.Tuple{2}, got[2])
}

func TestRankForwardAndReverse(t *testing.T) {
	o := mustNew(t, 1)
	for i, m := range []string{"a", "b", "c"} {
		o.Upsert(score.Tuple{float64(i)}, RawMember(m), UpsertFlags{})
	}
	assert.Equal(t, 0, o.Rank(RawMember("a"), false))
	assert.Equal(t, 2, o.Rank(RawMember("c"), false))
	assert.Equal(t, 2, o.Rank(RawMember("a"), true))
	assert.Equal(t, 0, o.Rank(RawMember("c"), true))
	assert.Equal(t, -1, o.Rank(RawMember("zzz"), false))
}

func TestRankByScore(t *testing.T) {
	o := mustNew(t, 1)
	o.Upsert(score.Tuple{1}, RawMember("a"), UpsertFlags{})
	o.Upsert(score.Tuple{5}, RawMember("b"), UpsertFlags{})

	fwd, err := o.RankByScore(score.Tuple{5}, false)
	require.NoError(t, err)
	assert.Equal(t, 1, fwd)

	rev, err := o.RankByScore(score.Tuple{5}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, rev)
}

// Schema fixing + tuple ordering scenarios (spec.md §8, scenarios 1-2).
func TestSchemaFixingAndOrdering(t *testing.T) {
	o := mustNew(t, 2)
	o.Upsert(score.Tuple{1, 2}, RawMember("a"), UpsertFlags{})

	_, _, err := o.Upsert(score.Tuple{3}, RawMember("b"), UpsertFlags{})
	require.Error(t, err)

	_, _, err = o.Upsert(score.Tuple{3, 4}, RawMember("b"), UpsertFlags{})
	require.NoError(t, err)
	assert.Equal(t, 2, o.Len())

	elems := o.Range(Query{Kind: ByIndex, Start: 0, End: -1})
	require.Len(t, elems, 2)
	assert.Equal(t, "a", string(elems[0].Member.Bytes()))
	assert.Equal(t, score.Tuple{1, 2}, elems[0].Score)
	assert.Equal(t, "b", string(elems[1].Member.Bytes()))
	assert.Equal(t, score.Tuple{3, 4}, elems[1].Score)
}

func TestTupleOrdering(t *testing.T) {
	o := mustNew(t, 2)
	o.Upsert(score.Tuple{2, 1}, RawMember("x"), UpsertFlags{})
	o.Upsert(score.Tuple{1, 9}, RawMember("y"), UpsertFlags{})
	o.Upsert(score.Tuple{1, 1}, RawMember("z"), UpsertFlags{})

	elems := o.Range(Query{Kind: ByIndex, Start: 0, End: -1})
	require.Len(t, elems, 3)
	assert.Equal(t, []string{"z", "y", "x"}, memberStrings(elems))
}

func memberStrings(elems []Element) []string {
	out := make([]string, len(elems))
	for i, e := range elems {
		out[i] = string(e.Member.Bytes())
	}
	return out
}

func TestRangeByIndexReverseAndBounds(t *testing.T) {
	o := mustNew(t, 1)
	for i, m := range []string{"a", "b", "c", "d", "e"} {
		o.Upsert(score.Tuple{float64(i)}, RawMember(m), UpsertFlags{})
	}
	assert.Equal(t, []string{"e", "d", "c", "b", "a"}, memberStrings(o.Range(Query{Kind: ByIndex, Start: 0, End: -1, Reverse: true})))
	assert.Equal(t, []string{"b", "c"}, memberStrings(o.Range(Query{Kind: ByIndex, Start: 1, End: 2})))
	assert.Nil(t, o.Range(Query{Kind: ByIndex, Start: 10, End: 20}))
}

func TestRangeByScoreWithOffsetLimit(t *testing.T) {
	o := mustNew(t, 1)
	for i := 1; i <= 5; i++ {
		o.Upsert(score.Tuple{float64(i)}, RawMember(string(rune('a'+i))), UpsertFlags{})
	}
	r := skiplist.ScoreRange{Min: score.Tuple{2}, Max: score.Tuple{5}}
	elems := o.Range(Query{Kind: ByScore, Score: r, Offset: 1, Limit: 2})
	require.Len(t, elems, 2)
	assert.Equal(t, score.Tuple{3}, elems[0].Score)
	assert.Equal(t, score.Tuple{4}, elems[1].Score)
}

func TestRemoveRangeByRank(t *testing.T) {
	o := mustNew(t, 1)
	for i := 1; i <= 5; i++ {
		o.Upsert(score.Tuple{float64(i)}, RawMember(string(rune('a'+i))), UpsertFlags{})
	}
	removed := o.RemoveRangeByRank(1, 3)
	assert.Equal(t, 3, removed)
	assert.Equal(t, 2, o.Len())
}

func TestMaterializeRange(t *testing.T) {
	o := mustNew(t, 1)
	for i := 1; i <= 5; i++ {
		o.Upsert(score.Tuple{float64(i)}, RawMember(string(rune('a'+i))), UpsertFlags{})
	}
	dst, err := o.MaterializeRange(Query{Kind: ByIndex, Start: 0, End: 1})
	require.NoError(t, err)
	require.NotNil(t, dst)
	assert.Equal(t, 2, dst.Len())

	empty, err := o.MaterializeRange(Query{Kind: ByIndex, Start: 100, End: 200})
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestRandomMembersWholeSetWhenCountExceedsSize(t *testing.T) {
	o := mustNew(t, 1)
	for i := 1; i <= 4; i++ {
		o.Upsert(score.Tuple{float64(i)}, RawMember(string(rune('a'+i))), UpsertFlags{})
	}
	got := o.RandomMembers(10)
	require.Len(t, got, 4)
	assert.Equal(t, score.Tuple{1}, got[0].Score)
}

func TestRandomMembersUniqueCount(t *testing.T) {
	o := mustNew(t, 1)
	for i := 0; i < 10; i++ {
		o.Upsert(score.Tuple{float64(i)}, RawMember(string(rune('a'+i))), UpsertFlags{})
	}
	got := o.RandomMembers(4)
	assert.Len(t, got, 4)
	seen := map[string]bool{}
	for _, e := range got {
		k := string(e.Member.Bytes())
		assert.False(t, seen[k])
		seen[k] = true
	}
}

func TestRandomMembersRepetitionAllowedForNegativeCount(t *testing.T) {
	o := mustNew(t, 1)
	o.Upsert(score.Tuple{1}, RawMember("a"), UpsertFlags{})
	got := o.RandomMembers(-4)
	assert.Len(t, got, 4)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	o := mustNew(t, 2)
	o.Upsert(score.Tuple{1, 2}, RawMember("a"), UpsertFlags{})
	o.Upsert(score.Tuple{3, 4}, RawMember("b"), UpsertFlags{})
	o.Upsert(score.Tuple{3, 4}, RawMember("c"), UpsertFlags{})

	var buf bytes.Buffer
	require.NoError(t, o.Save(&buf))

	loaded, err := Load(&buf)
	require.NoError(t, err)
	assert.Equal(t, o.Len(), loaded.Len())
	assert.Equal(t, o.Arity(), loaded.Arity())

	orig := o.Range(Query{Kind: ByIndex, Start: 0, End: -1})
	got := loaded.Range(Query{Kind: ByIndex, Start: 0, End: -1})
	require.Len(t, got, len(orig))
	for i := range orig {
		assert.Equal(t, string(orig[i].Member.Bytes()), string(got[i].Member.Bytes()))
		assert.Equal(t, orig[i].Score, got[i].Score)
	}
}

func TestAofRewriteBatching(t *testing.T) {
	o := mustNew(t, 1)
	for i := 0; i < 5; i++ {
		o.Upsert(score.Tuple{float64(i)}, RawMember(string(rune('a'+i))), UpsertFlags{})
	}
	var batches []AofBatch
	o.AofRewrite(2, func(b AofBatch) { batches = append(batches, b) })

	total := 0
	for _, b := range batches {
		total += len(b.Members)
		assert.LessOrEqual(t, len(b.Members), 2)
	}
	assert.Equal(t, 5, total)
}

func TestScanMatchFiltersMembers(t *testing.T) {
	o := mustNew(t, 1)
	o.Upsert(score.Tuple{1}, RawMember("apple"), UpsertFlags{})
	o.Upsert(score.Tuple{2}, RawMember("banana"), UpsertFlags{})
	o.Upsert(score.Tuple{3}, RawMember("apricot"), UpsertFlags{})

	seen := map[string]bool{}
	cursor := uint64(0)
	for {
		cursor = o.Scan(cursor, []byte("ap*"), func(m Member, s score.Tuple) {
			seen[string(m.Bytes())] = true
		})
		if cursor == 0 {
			break
		}
	}
	assert.True(t, seen["apple"])
	assert.True(t, seen["apricot"])
	assert.False(t, seen["banana"])
}
