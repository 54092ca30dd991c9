/*
Copyright 2014 Workiva, LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

 http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

/*
Package sortedset implements the Sorted Set Object: a skip list and a
hash index coupled under one set of invariants, exposing upsert,
removal, rank, range, random sampling, scanning, and persistence over
members keyed by a fixed-arity score.Tuple.

Grounded on original_source/src/tairzset.c's mzset* family and the
teacher's set/set.go (Union/Intersection shape, constructor-option
style) and cache/cache.go (functional Option[K,V] pattern).

Example usage:

	obj, _ := sortedset.New(2)
	obj.Upsert(score.Tuple{1, 2}, skiplist.RawMember("a"), sortedset.UpsertFlags{})
	rank := obj.Rank(skiplist.RawMember("a"), false)
*/
package sortedset

import (
	"github.com/epsilon-ds/mscoreset/hashindex"
	"github.com/epsilon-ds/mscoreset/score"
	"github.com/epsilon-ds/mscoreset/skiplist"
)

// Member is the shape both indexes require of a key: a borrowed,
// immutable byte string owned by the Host (spec.md §3, §9).
type Member = skiplist.Member

// RawMember is a plain-[]byte Member, the concrete type this package
// uses throughout its own tests and default wiring.
type RawMember = skiplist.RawMember

// UpsertOutcome reports what Upsert actually did (spec.md §4.4).
type UpsertOutcome int

const (
	// Added means a new (score, member) pair was inserted.
	Added UpsertOutcome = iota
	// Updated means an existing member's score changed.
	Updated
	// Nop means the call changed nothing (NX-hit or XX-miss).
	Nop
	// Nan means an INCR step produced NaN; nothing changed.
	Nan
)

// UpsertFlags mirrors EXZADD's option set (spec.md §4.4, §6).
type UpsertFlags struct {
	NX   bool
	XX   bool
	INCR bool
	CH   bool // reporting-only: whether the caller wants changed-count semantics
}

// Object couples a skip list and hash index under one schema arity
// and keeps them consistent across every mutating call (spec.md §3,
// "Sorted Set Object").
type Object struct {
	arity int
	sl    *skiplist.SkipList
	hash  *hashindex.Index
}

// New creates an empty Object with a fixed score arity (spec.md §3:
// "k is fixed per Sorted Set Object").
func New(arity int) (*Object, error) {
	if arity < 1 || arity > score.MaxArity {
		return nil, newErr(ArityMismatch, "arity %d out of range [1,%d]", arity, score.MaxArity)
	}
	return &Object{
		arity: arity,
		sl:    skiplist.New(),
		hash:  hashindex.New(),
	}, nil
}

// Arity returns the object's fixed score tuple length.
func (o *Object) Arity() int { return o.arity }

// Len returns the element count, identical in both indexes by
// invariant (spec.md §3, §8).
func (o *Object) Len() int { return o.sl.Len() }

// First returns the lowest-ordered node, or nil if empty. Exposed so
// callers like setalgebra can walk ascending skip-list order directly
// without a copying accessor.
func (o *Object) First() *skiplist.Node { return o.sl.First() }

func (o *Object) checkArity(s score.Tuple) error {
	if s.Arity() != o.arity {
		return newErr(ArityMismatch, "score arity %d does not match schema %d", s.Arity(), o.arity)
	}
	return nil
}

// Upsert inserts or updates (score, member) per flags (spec.md §4.4).
// On INCR, providedScore is the increment and is mutated in place into
// the resulting stored score — callers must not reuse it afterward.
func (o *Object) Upsert(providedScore score.Tuple, member Member, flags UpsertFlags) (UpsertOutcome, score.Tuple, error) {
	if flags.NX && flags.XX {
		return Nop, nil, newErr(Conflict, "NX and XX are mutually exclusive")
	}
	if err := o.checkArity(providedScore); err != nil {
		return Nop, nil, err
	}

	cur, exists := o.hash.Find(member)
	if exists && flags.NX {
		return Nop, nil, nil
	}
	if !exists && flags.XX {
		return Nop, nil, nil
	}

	if !exists {
		newScore := providedScore.Clone()
		node := o.sl.Insert(newScore, member)
		o.hash.Add(member, node.Score())
		return Added, node.Score(), nil
	}

	newScore := providedScore
	if flags.INCR {
		if err := score.AddInPlace(newScore, cur); err != nil {
			return Nan, nil, nil
		}
	}

	if score.Cmp(newScore, cur) == 0 {
		return Nop, cur, nil
	}

	node := o.sl.UpdateScore(cur, member, newScore.Clone())
	o.hash.SetExisting(member, node.Score())
	return Updated, node.Score(), nil
}

// Remove deletes member, returning whether it was present (spec.md
// §4.4). The caller should delete the key once Len() reaches 0.
func (o *Object) Remove(member Member) bool {
	cur, ok := o.hash.Unlink(member)
	if !ok {
		return false
	}
	o.sl.Delete(cur, member)
	return true
}

// Score returns member's score, or nil if absent (spec.md §4.4: O(1)
// via hash).
func (o *Object) Score(member Member) (score.Tuple, bool) {
	return o.hash.Find(member)
}

// Scores batches Score over several members, mirroring EXZMSCORE /
// the teacher's variadic parallel-slice accessors (SPEC_FULL.md §5).
func (o *Object) Scores(members ...Member) []score.Tuple {
	out := make([]score.Tuple, len(members))
	for i, m := range members {
		if s, ok := o.hash.Find(m); ok {
			out[i] = s
		}
	}
	return out
}

// Rank returns member's 0-based rank, or -1 if absent (spec.md §4.4).
func (o *Object) Rank(member Member, reverse bool) int {
	s, found := o.hash.Find(member)
	if !found {
		return -1
	}
	r := o.sl.RankByKey(s, member)
	if r == 0 {
		return -1
	}
	if reverse {
		return o.sl.Len() - r
	}
	return r - 1
}

// RankByScore treats s itself as the sort key (EXZRANKBYSCORE,
// spec.md §4.4, §6) and returns the count of strictly-lesser scores;
// reverse rank is `length - rank`, per the Open Question decision
// recorded in DESIGN.md (the spec's formula is ported verbatim rather
// than the `length - rank - 1` alternative it flags).
func (o *Object) RankByScore(s score.Tuple, reverse bool) (int, error) {
	if err := o.checkArity(s); err != nil {
		return 0, err
	}
	fwd := o.sl.RankByScore(s)
	if reverse {
		return o.sl.Len() - fwd, nil
	}
	return fwd, nil
}
