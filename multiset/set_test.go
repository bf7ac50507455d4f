package multiset_test

import (
	"bytes"
	"testing"

	"github.com/geoinvert/tdtcount/multiset"
	"github.com/stretchr/testify/require"
)

func TestInsertIsIdempotentAndOrdered(t *testing.T) {
	s := multiset.NewSet()
	require.True(t, s.Insert(5, 0))
	require.True(t, s.Insert(1, 0))
	require.True(t, s.Insert(3, 0))
	require.False(t, s.Insert(3, 0)) // duplicate

	require.Equal(t, 3, s.DepthCount(0))
	require.Equal(t, 3, s.TotalCount())

	k0, _ := s.NthElement(0, 0)
	k1, _ := s.NthElement(0, 1)
	k2, _ := s.NthElement(0, 2)
	require.Equal(t, []int32{1, 3, 5}, []int32{k0, k1, k2})
}

func TestRemove(t *testing.T) {
	s := multiset.NewSet()
	s.Insert(1, 0)
	s.Insert(2, 0)

	require.True(t, s.Remove(1, 0))
	require.False(t, s.Remove(1, 0))
	require.Equal(t, 1, s.DepthCount(0))
	require.Equal(t, 1, s.TotalCount())
}

func TestNthElementOutOfRange(t *testing.T) {
	s := multiset.NewSet()
	s.Insert(1, 0)
	_, err := s.NthElement(0, 5)
	require.Error(t, err)
}

func TestChooseIndexProbability(t *testing.T) {
	s := multiset.NewSet()
	s.Insert(10, 2)
	s.Insert(20, 2)
	s.Insert(30, 2)

	_, prob, err := s.ChooseIndex(2, 0.5)
	require.NoError(t, err)
	require.InDelta(t, 1.0/3.0, prob, 1e-12)
}

func TestChooseIndexGloballyCoversAllDepths(t *testing.T) {
	s := multiset.NewSet()
	s.Insert(1, 0)
	s.Insert(2, 1)
	s.Insert(3, 1)
	s.Insert(4, 2)

	seen := map[int32]bool{}
	for i := 0; i < 400; i++ {
		u := float64(i) / 400.0
		_, key, prob, err := s.ChooseIndexGlobally(u, 2)
		require.NoError(t, err)
		require.InDelta(t, 0.25, prob, 1e-12)
		seen[key] = true
	}
	require.Len(t, seen, 4)
}

func TestChooseDepthUniformOverNonEmpty(t *testing.T) {
	s := multiset.NewSet()
	s.Insert(1, 0)
	s.Insert(2, 2)
	s.Insert(3, 4)

	depths := map[int32]bool{}
	for i := 0; i < 300; i++ {
		u := float64(i) / 300.0
		d, n, err := s.ChooseDepth(u, 4)
		require.NoError(t, err)
		require.Equal(t, 3, n)
		depths[d] = true
	}
	require.Len(t, depths, 3)
}

func TestChooseIndexWeightedZeroAlphaMatchesUniformDepthWeighting(t *testing.T) {
	s := multiset.NewSet()
	s.Insert(1, 1)
	s.Insert(2, 1)
	s.Insert(3, 5)

	depthCounts := map[int32]int{}
	const n = 4000
	for i := 0; i < n; i++ {
		u := float64(i) / float64(n)
		d, _, prob, err := s.ChooseIndexWeighted(u, 10, 0)
		require.NoError(t, err)
		require.Greater(t, prob, 0.0)
		depthCounts[d]++
	}
	// alpha=0: each depth bucket (not each key) gets equal selection
	// mass, so depth 1 (2 keys) and depth 5 (1 key) should each be
	// picked roughly half the time at the depth level.
	require.InDelta(t, float64(n)/2, float64(depthCounts[1]), float64(n)*0.08)
	require.InDelta(t, float64(n)/2, float64(depthCounts[5]), float64(n)*0.08)
}

func TestChooseIndexWeightedProbabilitiesSumToOne(t *testing.T) {
	s := multiset.NewSet()
	s.Insert(1, 1)
	s.Insert(2, 1)
	s.Insert(3, 2)
	s.Insert(4, 3)
	s.Insert(5, 3)
	s.Insert(6, 3)

	type pick struct {
		depth, key int32
	}
	seen := map[pick]float64{}
	const n = 20000
	for i := 0; i < n; i++ {
		u := float64(i) / float64(n)
		d, k, prob, err := s.ChooseIndexWeighted(u, 3, 1.5)
		require.NoError(t, err)
		seen[pick{d, k}] = prob
	}
	sum := 0.0
	for _, p := range seen {
		sum += p
	}
	require.InDelta(t, 1.0, sum, 1e-6)
}

func TestWriteReadRoundTrip(t *testing.T) {
	s := multiset.NewSet()
	s.Insert(1, 0)
	s.Insert(5, 0)
	s.Insert(2, 3)

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))

	got := multiset.NewSet()
	require.NoError(t, got.Read(&buf))

	require.Equal(t, s.TotalCount(), got.TotalCount())
	require.True(t, got.Contains(1, 0))
	require.True(t, got.Contains(5, 0))
	require.True(t, got.Contains(2, 3))
}
