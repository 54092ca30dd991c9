package sortedset

import (
	"github.com/epsilon-ds/mscoreset/hashindex"
	"github.com/epsilon-ds/mscoreset/score"
)

// scanRaw delegates straight to the hash index's reverse-binary-cursor
// Scan (spec.md §4.3); the sortedset-level Scan wraps this with
// EXZSCAN's optional MATCH pattern.
func (o *Object) scanRaw(cursor uint64, cb func(Member, score.Tuple)) uint64 {
	return o.hash.Scan(cursor, func(m hashindex.Member, s score.Tuple) {
		cb(m, s)
	})
}

// Scan implements EXZSCAN: cursor-based iteration over the hash index
// with an optional glob-style MATCH filter. match == nil matches
// everything. There is no COUNT parameter: each call emits the entries
// of the bucket at the cursor position (and, during a rehash, its
// expansion buckets in the larger table) (spec.md §4.3, §6).
func (o *Object) Scan(cursor uint64, match []byte, emit func(Member, score.Tuple)) uint64 {
	return o.scanRaw(cursor, func(m Member, s score.Tuple) {
		if match != nil && !globMatch(match, m.Bytes()) {
			return
		}
		emit(m, s)
	})
}

// globMatch implements the small subset of shell-glob syntax EXZSCAN's
// MATCH option needs: '*' (any run), '?' (one byte), and literal
// bytes. No character classes — the reference command set does not
// expose them beyond this subset.
func globMatch(pattern, s []byte) bool {
	return globMatchAt(pattern, s)
}

func globMatchAt(pattern, s []byte) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case '*':
			for len(pattern) > 1 && pattern[1] == '*' {
				pattern = pattern[1:]
			}
			if len(pattern) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if globMatchAt(pattern[1:], s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		default:
			if len(s) == 0 || s[0] != pattern[0] {
				return false
			}
			pattern = pattern[1:]
			s = s[1:]
		}
	}
	return len(s) == 0
}
