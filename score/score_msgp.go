package score

import "github.com/tinylib/msgp/msgp"

// MarshalMsg appends the MessagePack encoding of t to b: an array
// header followed by one float64 per component. Hand-written in the
// shape `msgp` codegen produces (see DESIGN.md), since t's shape
// (slice of float64, arity fixed per sorted set, not per Tuple) isn't
// something the generator can be pointed at directly.
func (t Tuple) MarshalMsg(b []byte) ([]byte, error) {
	b = msgp.AppendArrayHeader(b, uint32(len(t)))
	for _, c := range t {
		b = msgp.AppendFloat64(b, c)
	}
	return b, nil
}

// UnmarshalMsg decodes a Tuple previously written by MarshalMsg,
// returning the remaining unread bytes.
func (t *Tuple) UnmarshalMsg(b []byte) ([]byte, error) {
	n, b, err := msgp.ReadArrayHeaderBytes(b)
	if err != nil {
		return b, err
	}
	out := make(Tuple, n)
	for i := range out {
		out[i], b, err = msgp.ReadFloat64Bytes(b)
		if err != nil {
			return b, err
		}
	}
	*t = out
	return b, nil
}

// Msgsize returns an upper bound, in bytes, on the encoded size of t.
func (t Tuple) Msgsize() int {
	return msgp.ArrayHeaderSize + len(t)*msgp.Float64Size
}
