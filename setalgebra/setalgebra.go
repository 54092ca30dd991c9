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
Package setalgebra implements multi-source weighted union,
intersection, and difference over sortedset.Objects, grounded on
original_source/src/tairzset.c's mzunionInterGenericCommand and the
teacher's set/set.go (Union/Intersection method shape, generalized
here to weighted multi-source inputs with a pluggable Aggregate).

Example usage:

	result, err := setalgebra.Union([]setalgebra.Source{
	    setalgebra.Present(a, 1),
	    setalgebra.Present(b, 0.5),
	}, score.SUM)
*/
package setalgebra

import (
	"sort"

	"github.com/epsilon-ds/mscoreset/score"
	"github.com/epsilon-ds/mscoreset/sortedset"
)

// ErrSyntax mirrors sortedset.Syntax for set-algebra-level argument
// errors that have no Object to attach a *sortedset.ScoreError to yet.
var ErrSyntax = &sortedset.ScoreError{Kind: sortedset.Syntax, Msg: "setalgebra: invalid argument"}

// Source is one input to Union/Intersect/Difference: either a present
// object with a weight, or an absent (missing key) placeholder that
// still carries a weight for uniform iteration (spec.md §9: "Source =
// Present(obj, weight) | Absent(weight)").
type Source struct {
	obj     *sortedset.Object
	weight  float64
	present bool
}

// Present wraps an existing object as a set-algebra source.
func Present(obj *sortedset.Object, weight float64) Source {
	return Source{obj: obj, weight: weight, present: obj != nil}
}

// Absent represents a missing source key, still carrying its weight
// so weighted iteration stays uniform across present/absent sources.
func Absent(weight float64) Source {
	return Source{weight: weight, present: false}
}

func (s Source) cardinality() int {
	if !s.present {
		return 0
	}
	return s.obj.Len()
}

func schemaArity(sources []Source) (int, error) {
	arity := -1
	for _, s := range sources {
		if !s.present {
			continue
		}
		if arity == -1 {
			arity = s.obj.Arity()
			continue
		}
		if s.obj.Arity() != arity {
			return 0, &sortedset.ScoreError{Kind: sortedset.ArityMismatch, Msg: "setalgebra: sources do not share a schema"}
		}
	}
	if arity == -1 {
		return 0, &sortedset.ScoreError{Kind: sortedset.EmptyInput, Msg: "setalgebra: no present sources"}
	}
	return arity, nil
}

type accumEntry struct {
	member sortedset.Member
	score  score.Tuple
}

// Union walks every present source in order, merging same-member
// scores with agg after multiplying by each source's weight, and
// returns a brand-new Object built from the accumulator (spec.md
// §4.7). Requires at least one source.
func Union(sources []Source, agg score.Aggregate) (*sortedset.Object, error) {
	if len(sources) == 0 {
		return nil, &sortedset.ScoreError{Kind: sortedset.EmptyInput, Msg: "setalgebra: union requires at least one source"}
	}
	arity, err := schemaArity(sources)
	if err != nil {
		return nil, err
	}

	acc := make(map[string]*accumEntry)
	order := make([]string, 0)

	for _, src := range sources {
		if !src.present {
			continue
		}
		for n := src.obj.First(); n != nil; n = n.Next() {
			weighted := n.Score().Clone()
			if err := score.MulWithWeight(weighted, weighted, src.weight); err != nil {
				return nil, err
			}
			key := string(n.Member().Bytes())
			if e, ok := acc[key]; ok {
				if err := score.AggregateInto(e.score, weighted, agg); err != nil {
					return nil, err
				}
				continue
			}
			acc[key] = &accumEntry{member: n.Member(), score: weighted}
			order = append(order, key)
		}
	}

	return buildFromAccum(arity, order, acc)
}

// Intersect sorts sources ascending by cardinality (the same qsort
// TairZset performs before scanning) then walks the smallest source,
// keeping only members present in every other source and aggregating
// their weighted scores (spec.md §4.7).
func Intersect(sources []Source, agg score.Aggregate) (*sortedset.Object, error) {
	if len(sources) == 0 {
		return nil, &sortedset.ScoreError{Kind: sortedset.EmptyInput, Msg: "setalgebra: intersect requires at least one source"}
	}
	arity, err := schemaArity(sources)
	if err != nil {
		return nil, err
	}
	for _, s := range sources {
		if !s.present {
			// A missing source intersected with anything is empty.
			return sortedset.New(arity)
		}
	}

	ordered := make([]Source, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].cardinality() < ordered[j].cardinality()
	})

	acc := make(map[string]*accumEntry)
	order := make([]string, 0)

	smallest := ordered[0]
	for n := smallest.obj.First(); n != nil; n = n.Next() {
		accum := n.Score().Clone()
		if err := score.MulWithWeight(accum, accum, smallest.weight); err != nil {
			return nil, err
		}

		ok := true
		for j := 1; j < len(ordered); j++ {
			other := ordered[j]
			var t score.Tuple
			if other.obj == smallest.obj {
				t = n.Score()
			} else {
				var found bool
				t, found = other.obj.Score(n.Member())
				if !found {
					ok = false
					break
				}
			}
			weighted := t.Clone()
			if err := score.MulWithWeight(weighted, weighted, other.weight); err != nil {
				return nil, err
			}
			if err := score.AggregateInto(accum, weighted, agg); err != nil {
				return nil, err
			}
		}
		if !ok {
			continue
		}
		key := string(n.Member().Bytes())
		acc[key] = &accumEntry{member: n.Member(), score: accum}
		order = append(order, key)
	}

	return buildFromAccum(arity, order, acc)
}

// Difference returns src0 minus every member present in any other
// source. Weights and agg are deliberately not accepted: spec.md §9's
// Open Question resolves difference as having no merge step, so there
// is nothing for a weight or aggregate to apply to (see DESIGN.md).
func Difference(src0 *sortedset.Object, others ...*sortedset.Object) (*sortedset.Object, error) {
	if src0 == nil {
		return nil, &sortedset.ScoreError{Kind: sortedset.EmptyInput, Msg: "setalgebra: difference requires a non-nil first source"}
	}

	result, err := sortedset.New(src0.Arity())
	if err != nil {
		return nil, err
	}
	for n := src0.First(); n != nil; n = n.Next() {
		excluded := false
		for _, o := range others {
			if o == nil {
				continue
			}
			if _, found := o.Score(n.Member()); found {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}
		if _, _, err := result.Upsert(n.Score().Clone(), n.Member(), sortedset.UpsertFlags{}); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func buildFromAccum(arity int, order []string, acc map[string]*accumEntry) (*sortedset.Object, error) {
	result, err := sortedset.New(arity)
	if err != nil {
		return nil, err
	}
	for _, key := range order {
		e := acc[key]
		if _, _, err := result.Upsert(e.score, e.member, sortedset.UpsertFlags{}); err != nil {
			return nil, err
		}
	}
	return result, nil
}
