package bigint_test

import (
	"bytes"
	"testing"

	"github.com/geoinvert/tdtcount/bigint"
	"github.com/stretchr/testify/require"
)

func TestUnmemoisedSentinel(t *testing.T) {
	u := bigint.Unmemoised()
	require.True(t, u.IsUnmemoised())
	require.Equal(t, -1, u.Sign())

	z := bigint.New().SetUint64(0)
	require.False(t, z.IsUnmemoised())
}

func TestArithmetic(t *testing.T) {
	a := bigint.New().SetUint64(3)
	b := bigint.New().SetUint64(4)

	sum := bigint.New().Add(a, b)
	require.Equal(t, "7", sum.String())

	prod := bigint.New().Mul(a, b)
	require.Equal(t, "12", prod.String())
}

func TestFloat64RatioStyleConversion(t *testing.T) {
	n := bigint.New().SetUint64(420)
	require.InDelta(t, 420.0, n.Float64(), 1e-9)
}

func TestRawRoundTrip(t *testing.T) {
	cases := []*bigint.Int{
		bigint.New().SetUint64(0),
		bigint.New().SetUint64(1),
		bigint.New().SetUint64(105454216),
		bigint.Unmemoised(),
	}
	for _, c := range cases {
		var buf bytes.Buffer
		require.NoError(t, c.WriteRaw(&buf))

		got, err := bigint.New().ReadRaw(&buf)
		require.NoError(t, err)
		require.Equal(t, c.Sign() < 0, got.IsUnmemoised())
		if c.Sign() >= 0 {
			require.Equal(t, c.String(), got.String())
		}
	}
}
