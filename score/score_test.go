package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epsilon-ds/mscoreset/v2/common"
)

func TestParseFormat(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    Tuple
		wantErr bool
	}{
		{"single", "1", Tuple{1}, false},
		{"multi", "1#2#3", Tuple{1, 2, 3}, false},
		{"negative", "-1.5#2", Tuple{-1.5, 2}, false},
		{"inf", "+Inf#-Inf", Tuple{math.Inf(1), math.Inf(-1)}, false},
		{"empty", "", nil, true},
		{"leading delim", "#1", nil, true},
		{"trailing delim", "1#", nil, true},
		{"adjacent delim", "1##2", nil, true},
		{"nan rejected", "NaN", nil, true},
		{"garbage", "abc", nil, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Parse([]byte(c.in))
			if c.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestParseArityCap(t *testing.T) {
	s := ""
	for i := 0; i < MaxArity+1; i++ {
		if i > 0 {
			s += "#"
		}
		s += "1"
	}
	_, err := Parse([]byte(s))
	assert.ErrorIs(t, err, ErrTooManyComponents)
}

func TestFormatRoundTrip(t *testing.T) {
	in := Tuple{1.5, -2, 3.0000001}
	out, err := Parse(Format(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCmp(t *testing.T) {
	assert.Equal(t, 0, Cmp(Tuple{1, 2}, Tuple{1, 2}))
	assert.Equal(t, -1, Cmp(Tuple{1, 1}, Tuple{1, 2}))
	assert.Equal(t, 1, Cmp(Tuple{2, 0}, Tuple{1, 9}))
	assert.Equal(t, -1, Cmp(Tuple{1, 9}, Tuple{2, 0}))
}

func TestCmpArityPanics(t *testing.T) {
	assert.Panics(t, func() { Cmp(Tuple{1}, Tuple{1, 2}) })
}

func TestCompareSatisfiesCommonComparator(t *testing.T) {
	var c common.Comparator[Tuple] = Tuple{1, 2}
	assert.Equal(t, 0, c.Compare(Tuple{1, 2}))
	assert.Equal(t, -1, c.Compare(Tuple{1, 3}))
}

func TestAddInPlace(t *testing.T) {
	dst := Tuple{1, 2}
	err := AddInPlace(dst, Tuple{1, 1})
	require.NoError(t, err)
	assert.Equal(t, Tuple{2, 3}, dst)
}

func TestAddInPlaceNaN(t *testing.T) {
	dst := Tuple{1, math.Inf(1)}
	before := dst.Clone()
	err := AddInPlace(dst, Tuple{0, math.Inf(-1)})
	assert.ErrorIs(t, err, ErrNaN)
	assert.Equal(t, before, dst, "dst must be untouched on NaN failure in the copy-first path")
}

func TestAddIgnoreNaNLeavesOffenderAlone(t *testing.T) {
	dst := Tuple{1, math.Inf(1), 3}
	err := AddIgnoreNaN(dst, Tuple{1, math.Inf(-1), 1})
	require.NoError(t, err)
	assert.Equal(t, Tuple{2, math.Inf(1), 4}, dst)
}

func TestMulWithWeightInPlace(t *testing.T) {
	v := Tuple{1, 2, 3}
	err := MulWithWeight(v, v, 2)
	require.NoError(t, err)
	assert.Equal(t, Tuple{2, 4, 6}, v)
}

func TestAggregateInto(t *testing.T) {
	t.Run("sum", func(t *testing.T) {
		target := Tuple{1, 1}
		require.NoError(t, AggregateInto(target, Tuple{2, 3}, SUM))
		assert.Equal(t, Tuple{3, 4}, target)
	})
	t.Run("min", func(t *testing.T) {
		target := Tuple{5, 5}
		require.NoError(t, AggregateInto(target, Tuple{1, 9}, MIN))
		assert.Equal(t, Tuple{1, 9}, target)
	})
	t.Run("max", func(t *testing.T) {
		target := Tuple{5, 5}
		require.NoError(t, AggregateInto(target, Tuple{1, 9}, MAX))
		assert.Equal(t, Tuple{5, 5}, target)
	})
}

func TestMsgpRoundTrip(t *testing.T) {
	in := Tuple{1.5, -2, 3}
	b, err := in.MarshalMsg(nil)
	require.NoError(t, err)

	var out Tuple
	rest, err := out.UnmarshalMsg(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, in, out)
}
