package persist_test

import (
	"bytes"
	"testing"

	"github.com/geoinvert/tdtcount/archetype"
	"github.com/geoinvert/tdtcount/persist"
	"github.com/geoinvert/tdtcount/tdttest"
	"github.com/stretchr/testify/require"
)

func newSelfRecursiveBinary(t *testing.T, maxH, maxK int) *archetype.Archetype {
	return tdttest.SelfRecursiveNAry(t, 2, maxH, maxK)
}

func TestSaveRestoreRoundTripsMemoisedCounts(t *testing.T) {
	a := newSelfRecursiveBinary(t, 3, 30)
	for k := 0; k <= 10; k++ {
		_, err := a.Count(3, k)
		require.NoError(t, err)
	}
	for k := 0; k <= 3; k++ {
		_, err := a.RatioKPlus1(3, k)
		require.NoError(t, err)
	}

	var buf bytes.Buffer
	require.NoError(t, persist.Save(&buf, a))

	b := newSelfRecursiveBinary(t, 3, 30)
	require.NoError(t, persist.Restore(&buf, b))

	for k := 0; k <= 10; k++ {
		require.True(t, b.IsCountMemoised(3, k))
		wantC, err := a.Count(3, k)
		require.NoError(t, err)
		gotC, err := b.Count(3, k)
		require.NoError(t, err)
		require.Equal(t, 0, wantC.Cmp(gotC))
	}
	for k := 0; k <= 3; k++ {
		wantR, err := a.RatioKPlus1(3, k)
		require.NoError(t, err)
		gotR, err := b.RatioKPlus1(3, k)
		require.NoError(t, err)
		require.InDelta(t, wantR, gotR, 1e-12)
	}
}

func TestSaveRestoreDistinctChildSubtree(t *testing.T) {
	child := newSelfRecursiveBinary(t, 3, 30)
	_, err := child.Count(2, 4)
	require.NoError(t, err)

	root, err := archetype.NewNAry(archetype.Config{
		MaxH: 3, MaxK: 60, MaxSplit: 3, Policy: archetype.NAryPolicy{N: 3},
	}, child)
	require.NoError(t, err)
	_, err = root.Count(3, 5)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, persist.Save(&buf, root))

	childCopy := newSelfRecursiveBinary(t, 3, 30)
	rootCopy, err := archetype.NewNAry(archetype.Config{
		MaxH: 3, MaxK: 60, MaxSplit: 3, Policy: archetype.NAryPolicy{N: 3},
	}, childCopy)
	require.NoError(t, err)

	require.NoError(t, persist.Restore(&buf, rootCopy))
	require.True(t, rootCopy.IsCountMemoised(3, 5))
	require.True(t, childCopy.IsCountMemoised(2, 4))
}

func TestRestoreRejectsShapeMismatch(t *testing.T) {
	a := newSelfRecursiveBinary(t, 3, 30)
	_, err := a.Count(3, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, persist.Save(&buf, a))

	wrongShape := newSelfRecursiveBinary(t, 4, 30) // different max_h
	err = persist.Restore(&buf, wrongShape)
	require.Error(t, err)
}
