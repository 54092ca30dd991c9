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
Package score defines the composite sort key used by a multi-score
sorted set: a fixed-arity tuple of IEEE-754 doubles, compared
lexicographically, with a `#`-delimited textual form.

Example usage:

	t, err := score.Parse([]byte("1.5#2#-3"))
	other, _ := score.Parse([]byte("1.5#2#-2"))
	t.Cmp(other) // -1

	score.MulWithWeight(t, t, 0.5)
	score.Format(t) // "0.75#1#-1.5"
*/
package score

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/epsilon-ds/mscoreset/v2/common"
)

// MaxArity is the largest number of components a Tuple may have
// (spec: "1 ≤ k ≤ 255").
const MaxArity = 255

// Delimiter separates components in the textual form of a Tuple.
const Delimiter = '#'

var (
	// ErrEmpty is returned by Parse for an empty input.
	ErrEmpty = errors.New("score: empty input")
	// ErrMalformed is returned by Parse for leading/trailing/adjacent
	// delimiters or a component that fails the numeric grammar.
	ErrMalformed = errors.New("score: malformed component")
	// ErrTooManyComponents is returned by Parse when the token count
	// exceeds MaxArity.
	ErrTooManyComponents = errors.New("score: too many components")
	// ErrArityMismatch is returned by AddInPlace/AddIgnoreNaN/
	// MulWithWeight/AggregateInto when the two tuples do not share the
	// same arity; Cmp panics with it instead.
	ErrArityMismatch = errors.New("score: arity mismatch")
	// ErrNaN is returned when an arithmetic operation would produce a
	// NaN component.
	ErrNaN = errors.New("score: NaN result")
)

// Tuple is an ordered, fixed-arity sequence of doubles. The zero value
// is not a valid Tuple; construct one with Parse, New, or Clone.
type Tuple []float64

// New allocates a Tuple of the given arity, all components zero.
func New(arity int) Tuple {
	return make(Tuple, arity)
}

// Arity returns the number of components in t.
func (t Tuple) Arity() int {
	return len(t)
}

// Clone returns a deep copy of t. The skip list owns one such copy per
// node (spec.md §3: "Owns its score tuple (deep copy)").
func (t Tuple) Clone() Tuple {
	out := make(Tuple, len(t))
	copy(out, t)
	return out
}

// Parse tokenizes bytes by Delimiter into a Tuple. Each token must be a
// finite or ±Inf double under the strict atof-style grammar; NaN tokens,
// empty tokens, and a token count over MaxArity are rejected.
func Parse(b []byte) (Tuple, error) {
	if len(b) == 0 {
		return nil, ErrEmpty
	}
	s := string(b)
	parts := strings.Split(s, string(Delimiter))
	if len(parts) > MaxArity {
		return nil, ErrTooManyComponents
	}
	out := make(Tuple, len(parts))
	for i, p := range parts {
		if p == "" {
			return nil, ErrMalformed
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, ErrMalformed
		}
		if math.IsNaN(f) {
			return nil, ErrMalformed
		}
		out[i] = f
	}
	return out, nil
}

// Format renders t in shortest round-trip form, joined by Delimiter.
func Format(t Tuple) []byte {
	var b strings.Builder
	for i, c := range t {
		if i > 0 {
			b.WriteByte(Delimiter)
		}
		b.WriteString(strconv.FormatFloat(c, 'g', -1, 64))
	}
	return []byte(b.String())
}

// Cmp lexicographically compares a and b, returning -1, 0, or 1. It
// panics if the arities differ — callers must validate arity against
// the set's schema before comparing (spec.md §4.1: "programming error;
// fail loudly").
func Cmp(a, b Tuple) int {
	if len(a) != len(b) {
		panic(ErrArityMismatch)
	}
	for i := range a {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return 0
}

// Cmp is the method form of the package-level Cmp, matching the
// Comparable[T] capability shape used throughout this repository's
// skip list (v2/common.Comparator: "Returns a positive number if this
// item is greater...").
func (t Tuple) Cmp(other Tuple) int {
	return Cmp(t, other)
}

// Compare satisfies v2/common.Comparator[Tuple] directly, so a Tuple
// can be handed to any generic helper built against that interface
// without a wrapper type.
func (t Tuple) Compare(other Tuple) int {
	return Cmp(t, other)
}

var _ common.Comparator[Tuple] = Tuple{}

// AddInPlace adds src into dst component-wise. If any resulting
// component is NaN, dst is left unmodified and ErrNaN is returned —
// the caller must abort the whole operation (spec.md §4.1).
func AddInPlace(dst, src Tuple) error {
	if len(dst) != len(src) {
		return ErrArityMismatch
	}
	tmp := make(Tuple, len(dst))
	for i := range dst {
		tmp[i] = dst[i] + src[i]
		if math.IsNaN(tmp[i]) {
			return ErrNaN
		}
	}
	copy(dst, tmp)
	return nil
}

// AddIgnoreNaN adds src into dst component-wise, leaving any component
// that would become NaN untouched. Used by AggregateInto's SUM case,
// where a single bad source must not poison the whole accumulator
// (spec.md §4.1).
func AddIgnoreNaN(dst, src Tuple) error {
	if len(dst) != len(src) {
		return ErrArityMismatch
	}
	for i := range dst {
		sum := dst[i] + src[i]
		if !math.IsNaN(sum) {
			dst[i] = sum
		}
	}
	return nil
}

// MulWithWeight sets dst[i] = src[i] * w for all i. dst and src may be
// the same slice.
func MulWithWeight(dst, src Tuple, w float64) error {
	if len(dst) != len(src) {
		return ErrArityMismatch
	}
	for i := range src {
		dst[i] = src[i] * w
	}
	return nil
}

// Aggregate names a binary reducer for union/intersection score
// merging.
type Aggregate int

const (
	// SUM adds component-wise, ignoring NaN-producing components.
	SUM Aggregate = iota
	// MIN replaces target with source when source sorts strictly lower.
	MIN
	// MAX replaces target with source when source sorts strictly higher.
	MAX
)

// String implements fmt.Stringer for readable test failures and error
// messages.
func (a Aggregate) String() string {
	switch a {
	case SUM:
		return "SUM"
	case MIN:
		return "MIN"
	case MAX:
		return "MAX"
	default:
		return "UNKNOWN"
	}
}

// AggregateInto merges source into target according to agg (spec.md
// §4.1). For SUM it uses AddIgnoreNaN; for MIN/MAX it replaces target
// wholesale when source compares strictly lower/higher.
func AggregateInto(target, source Tuple, agg Aggregate) error {
	if len(target) != len(source) {
		return ErrArityMismatch
	}
	switch agg {
	case SUM:
		return AddIgnoreNaN(target, source)
	case MIN:
		if Cmp(source, target) < 0 {
			copy(target, source)
		}
		return nil
	case MAX:
		if Cmp(source, target) > 0 {
			copy(target, source)
		}
		return nil
	default:
		return ErrMalformed
	}
}
