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

package sortedset

import "fmt"

// ErrKind classifies a ScoreError so a Host can type-switch or
// errors.As instead of parsing message strings.
type ErrKind int

const (
	// WrongType means a key exists but is not a sorted-set object.
	WrongType ErrKind = iota
	// ArityMismatch means a score's arity differs from the schema or
	// from another argument in the same call.
	ArityMismatch
	// ScoreFormat means a textual score failed grammar or carried NaN.
	ScoreFormat
	// Syntax means an unrecognized option or wrong argument count.
	Syntax
	// OutOfRange means a non-numeric or overflowing integer where one
	// was expected.
	OutOfRange
	// NanResult means an arithmetic step (incr/aggregate) produced NaN.
	NanResult
	// Conflict means NX and XX were both set, or INCR was given more
	// than one score/member pair.
	Conflict
	// EmptyInput means a set-algebra call named fewer than one source.
	EmptyInput
)

func (k ErrKind) String() string {
	switch k {
	case WrongType:
		return "WrongType"
	case ArityMismatch:
		return "ArityMismatch"
	case ScoreFormat:
		return "ScoreFormat"
	case Syntax:
		return "Syntax"
	case OutOfRange:
		return "OutOfRange"
	case NanResult:
		return "NanResult"
	case Conflict:
		return "Conflict"
	case EmptyInput:
		return "EmptyInput"
	default:
		return "Unknown"
	}
}

// ScoreError is the one typed error every exported operation that can
// fail returns, so a Host can branch on Kind without string matching
// (spec.md §7).
type ScoreError struct {
	Kind ErrKind
	Msg  string
}

func (e *ScoreError) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newErr(kind ErrKind, format string, args ...interface{}) *ScoreError {
	return &ScoreError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}
