package multiset_test

import (
	"bytes"
	"testing"

	"github.com/geoinvert/tdtcount/multiset"
	"github.com/stretchr/testify/require"
)

func TestValueSetInsertPolicies(t *testing.T) {
	s := multiset.NewValueSet()
	s.Insert(1, 0, 10, multiset.Overwrite)
	s.Insert(1, 0, 20, multiset.Overwrite)
	v, ok := s.Value(1, 0)
	require.True(t, ok)
	require.Equal(t, 20.0, v)

	s.Insert(1, 0, 5, multiset.Sum)
	v, _ = s.Value(1, 0)
	require.Equal(t, 25.0, v)

	s.Insert(1, 0, 999, multiset.Ignore)
	v, _ = s.Value(1, 0)
	require.Equal(t, 25.0, v)
}

func TestValueSetOrderingAndNth(t *testing.T) {
	s := multiset.NewValueSet()
	s.Insert(5, 0, 1.0, multiset.Overwrite)
	s.Insert(1, 0, 2.0, multiset.Overwrite)
	s.Insert(3, 0, 3.0, multiset.Overwrite)

	k0, v0, err := s.NthElement(0, 0)
	require.NoError(t, err)
	require.Equal(t, int32(1), k0)
	require.Equal(t, 2.0, v0)

	k2, v2, err := s.NthElement(0, 2)
	require.NoError(t, err)
	require.Equal(t, int32(5), k2)
	require.Equal(t, 1.0, v2)
}

func TestValueSetRemove(t *testing.T) {
	s := multiset.NewValueSet()
	s.Insert(1, 0, 1.0, multiset.Overwrite)
	require.True(t, s.Remove(1, 0))
	require.False(t, s.Remove(1, 0))
	require.Equal(t, 0, s.TotalCount())
}

func TestValueSetWriteReadRoundTrip(t *testing.T) {
	s := multiset.NewValueSet()
	s.Insert(1, 0, 1.5, multiset.Overwrite)
	s.Insert(2, 0, 2.5, multiset.Overwrite)
	s.Insert(7, 4, -3.25, multiset.Overwrite)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))

	got := multiset.NewValueSet()
	require.NoError(t, got.Read(&buf))

	v, ok := got.Value(7, 4)
	require.True(t, ok)
	require.Equal(t, -3.25, v)
	require.Equal(t, s.TotalCount(), got.TotalCount())
}
