package sortedset

import (
	"encoding/binary"
	"hash"
	"io"
	"math"

	"github.com/epsilon-ds/mscoreset/score"
)

// Save writes length, then arity, then every element in reverse
// skip-list order — member bytes followed by k doubles — matching the
// persisted layout `u64 length · u64 k · (member · k× f64){length}`
// (spec.md §4.5, §6). Elements are written tail to head; Load
// re-inserts them under the (score, member) comparator, so the reloaded
// order does not depend on the order in the stream.
func (o *Object) Save(w io.Writer) error {
	var hdr [16]byte
	binary.BigEndian.PutUint64(hdr[0:8], uint64(o.sl.Len()))
	binary.BigEndian.PutUint64(hdr[8:16], uint64(o.arity))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	for n := o.sl.Last(); n != nil; n = n.Prev() {
		if err := writeMemberAndScore(w, n.Member(), n.Score()); err != nil {
			return err
		}
	}
	return nil
}

func writeMemberAndScore(w io.Writer, m Member, s score.Tuple) error {
	b := m.Bytes()
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(b)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(b); err != nil {
		return err
	}
	for _, c := range s {
		var fbuf [8]byte
		binary.BigEndian.PutUint64(fbuf[:], math.Float64bits(c))
		if _, err := w.Write(fbuf[:]); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a Save-produced stream and reconstructs an Object. No
// reordering is needed on reload: the skip list is built
// deterministically under the same comparator regardless of insertion
// order within a tie (spec.md §4.5).
func Load(r io.Reader) (*Object, error) {
	var hdr [16]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	length := binary.BigEndian.Uint64(hdr[0:8])
	arity := int(binary.BigEndian.Uint64(hdr[8:16]))

	obj, err := New(arity)
	if err != nil {
		return nil, err
	}

	for i := uint64(0); i < length; i++ {
		m, s, err := readMemberAndScore(r, arity)
		if err != nil {
			return nil, err
		}
		if _, _, err := obj.Upsert(s, m, UpsertFlags{}); err != nil {
			return nil, err
		}
	}
	return obj, nil
}

func readMemberAndScore(r io.Reader, arity int) (Member, score.Tuple, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, nil, err
	}
	n := binary.BigEndian.Uint64(lenBuf[:])
	mb := make([]byte, n)
	if _, err := io.ReadFull(r, mb); err != nil {
		return nil, nil, err
	}

	s := score.New(arity)
	for i := range s {
		var fbuf [8]byte
		if _, err := io.ReadFull(r, fbuf[:]); err != nil {
			return nil, nil, err
		}
		s[i] = math.Float64frombits(binary.BigEndian.Uint64(fbuf[:]))
	}
	return RawMember(mb), s, nil
}

// aofDefaultBatch is the default command-batch size for AofRewrite
// (spec.md §4.5: "default 64 pairs").
const aofDefaultBatch = 64

// AofBatch is one append-style command batch emitted by AofRewrite:
// the member/score pairs a Host replays to reconstruct the set.
type AofBatch struct {
	Members []Member
	Scores  []score.Tuple
}

// AofRewrite iterates the hash index and emits append-style command
// batches, each of up to batchSize member/score pairs (batchSize <= 0
// uses the default of 64). emit is called once per batch in hash scan
// order (spec.md §4.5).
func (o *Object) AofRewrite(batchSize int, emit func(AofBatch)) {
	if batchSize <= 0 {
		batchSize = aofDefaultBatch
	}
	batch := AofBatch{
		Members: make([]Member, 0, batchSize),
		Scores:  make([]score.Tuple, 0, batchSize),
	}
	cursor := uint64(0)
	for {
		cursor = o.scanRaw(cursor, func(m Member, s score.Tuple) {
			batch.Members = append(batch.Members, m)
			batch.Scores = append(batch.Scores, s)
			if len(batch.Members) == batchSize {
				emit(batch)
				batch = AofBatch{
					Members: make([]Member, 0, batchSize),
					Scores:  make([]score.Tuple, 0, batchSize),
				}
			}
		})
		if cursor == 0 {
			break
		}
	}
	if len(batch.Members) > 0 {
		emit(batch)
	}
}

// Digest feeds member bytes then textual score for every element, in
// hash-iteration order, into an order-insensitive digest combinator —
// an end-of-sequence marker follows every pair so the combinator can
// be order-insensitive across calls (spec.md §4.5).
func (o *Object) Digest(combinator hash.Hash64) uint64 {
	var acc uint64
	cursor := uint64(0)
	for {
		cursor = o.scanRaw(cursor, func(m Member, s score.Tuple) {
			combinator.Reset()
			combinator.Write(m.Bytes())
			combinator.Write(score.Format(s))
			combinator.Write([]byte{0})
			acc ^= combinator.Sum64()
		})
		if cursor == 0 {
			break
		}
	}
	return acc
}
