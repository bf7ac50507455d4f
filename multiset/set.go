// Package multiset implements the sorted, depth-partitioned key
// containers the MCMC layer indexes live coefficient sets with. Two
// variants are exported: Set (keys only) and ValueSet (keys plus a
// scalar value). Both keep, per depth label, a dynamic array sorted
// strictly ascending by key, so membership and insertion point are
// O(log n) via binary search.
package multiset

import (
	"fmt"
	"math"
	"sort"

	"github.com/geoinvert/tdtcount/tdterr"
)

// Set is the keys-only sorted multiset, binned by depth. The zero
// value is not usable; use NewSet.
type Set struct {
	byDepth map[int32][]int32
	depths  []int32 // kept sorted ascending; mirrors the non-empty keys of byDepth
	total   int
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{byDepth: make(map[int32][]int32)}
}

// Insert adds key at depth. Idempotent: inserting an already-present
// (key, depth) pair is a no-op and returns false.
func (s *Set) Insert(key, depth int32) bool {
	keys := s.byDepth[depth]
	i := sort.Search(len(keys), func(i int) bool { return keys[i] >= key })
	if i < len(keys) && keys[i] == key {
		return false
	}
	if len(keys) == 0 {
		s.addDepth(depth)
	}
	keys = append(keys, 0)
	copy(keys[i+1:], keys[i:])
	keys[i] = key
	s.byDepth[depth] = keys
	s.total++
	return true
}

// Remove deletes key from depth, reporting whether an element was
// actually removed.
func (s *Set) Remove(key, depth int32) bool {
	keys, ok := s.byDepth[depth]
	if !ok {
		return false
	}
	i := sort.Search(len(keys), func(i int) bool { return keys[i] >= key })
	if i >= len(keys) || keys[i] != key {
		return false
	}
	keys = append(keys[:i], keys[i+1:]...)
	s.total--
	if len(keys) == 0 {
		delete(s.byDepth, depth)
		s.removeDepth(depth)
	} else {
		s.byDepth[depth] = keys
	}
	return true
}

// Contains reports whether key is present at depth.
func (s *Set) Contains(key, depth int32) bool {
	keys, ok := s.byDepth[depth]
	if !ok {
		return false
	}
	i := sort.Search(len(keys), func(i int) bool { return keys[i] >= key })
	return i < len(keys) && keys[i] == key
}

// DepthCount returns the number of keys present at depth.
func (s *Set) DepthCount(depth int32) int {
	return len(s.byDepth[depth])
}

// TotalCount returns the total number of keys across all depths.
func (s *Set) TotalCount() int { return s.total }

// NthElement returns the n-th key at depth in ascending order.
func (s *Set) NthElement(depth int32, n int) (int32, error) {
	keys := s.byDepth[depth]
	if n < 0 || n >= len(keys) {
		return 0, tdterr.New(tdterr.InvalidArgument, "multiset.NthElement",
			fmt.Errorf("index %d out of range for depth %d (%d keys)", n, depth, len(keys)))
	}
	return keys[n], nil
}

// ChooseIndex chooses uniformly among the keys at depth, given
// u in [0, 1). Returns the chosen key and the uniform selection
// probability 1/count_at_depth(depth).
func (s *Set) ChooseIndex(depth int32, u float64) (int32, float64, error) {
	keys := s.byDepth[depth]
	if len(keys) == 0 {
		return 0, 0, tdterr.New(tdterr.InvalidArgument, "multiset.ChooseIndex",
			fmt.Errorf("depth %d is empty", depth))
	}
	idx := clampIndex(u, len(keys))
	return keys[idx], 1.0 / float64(len(keys)), nil
}

// ChooseDepth selects a depth uniformly among the non-empty depths
// <= maxDepth, given u in [0, 1). Returns the chosen depth and the
// number of candidate depths, so the caller can derive the selection
// probability as 1/numCandidates.
func (s *Set) ChooseDepth(u float64, maxDepth int32) (int32, int, error) {
	candidates := s.nonemptyDepthsUpTo(maxDepth)
	if len(candidates) == 0 {
		return 0, 0, tdterr.New(tdterr.InvalidArgument, "multiset.ChooseDepth",
			fmt.Errorf("no non-empty depths <= %d", maxDepth))
	}
	idx := clampIndex(u, len(candidates))
	return candidates[idx], len(candidates), nil
}

// ChooseIndexGlobally chooses uniformly among all keys at all depths
// <= maxDepth, given u in [0, 1). Returns the depth and key chosen,
// and the selection probability 1/RestrictedTotalCount(maxDepth).
func (s *Set) ChooseIndexGlobally(u float64, maxDepth int32) (int32, int32, float64, error) {
	depths := s.nonemptyDepthsUpTo(maxDepth)
	total := s.RestrictedTotalCount(maxDepth)
	if total == 0 {
		return 0, 0, 0, tdterr.New(tdterr.InvalidArgument, "multiset.ChooseIndexGlobally",
			fmt.Errorf("no keys at depths <= %d", maxDepth))
	}
	target := clampIndex(u, total)
	remaining := target
	for _, d := range depths {
		n := len(s.byDepth[d])
		if remaining < n {
			return d, s.byDepth[d][remaining], 1.0 / float64(total), nil
		}
		remaining -= n
	}
	// unreachable given the loop invariant, but keep the contract of
	// never aborting the process.
	last := depths[len(depths)-1]
	keys := s.byDepth[last]
	return last, keys[len(keys)-1], 1.0 / float64(total), nil
}

// ChooseIndexWeighted draws a (depth, key) pair where the depth is
// selected with probability proportional to depth^alpha among the
// non-empty depths <= maxDepth (alpha == 0 degenerates to the uniform
// depth weighting ChooseDepth uses), and the key is then chosen
// uniformly within that depth. It returns the exact joint selection
// probability for the returned pair, not merely the marginal
// probability of the depth.
func (s *Set) ChooseIndexWeighted(u float64, maxDepth int32, alpha float64) (int32, int32, float64, error) {
	depths := s.nonemptyDepthsUpTo(maxDepth)
	if len(depths) == 0 {
		return 0, 0, 0, tdterr.New(tdterr.InvalidArgument, "multiset.ChooseIndexWeighted",
			fmt.Errorf("no non-empty depths <= %d", maxDepth))
	}
	weights := depthWeights(depths, alpha)
	sumW := 0.0
	for _, w := range weights {
		sumW += w
	}
	if sumW <= 0 {
		return 0, 0, 0, tdterr.New(tdterr.InvalidArgument, "multiset.ChooseIndexWeighted",
			fmt.Errorf("all candidate depths have zero weight at alpha=%g", alpha))
	}

	target := u * sumW
	cum := 0.0
	for i, d := range depths {
		cum += weights[i]
		if target < cum || i == len(depths)-1 {
			n := len(s.byDepth[d])
			// Reuse the leftover fraction within this depth's weight
			// segment to pick uniformly among its keys.
			segLo := cum - weights[i]
			frac := (target - segLo) / weights[i]
			if frac < 0 {
				frac = 0
			}
			if frac >= 1 {
				frac = 0.999999999999
			}
			idx := clampIndex(frac, n)
			prob := (weights[i] / sumW) * (1.0 / float64(n))
			return d, s.byDepth[d][idx], prob, nil
		}
	}
	// Unreachable.
	d := depths[len(depths)-1]
	keys := s.byDepth[d]
	return d, keys[len(keys)-1], 0, nil
}

// NonemptyCount returns the number of distinct depths <= maxDepth
// holding at least one key.
func (s *Set) NonemptyCount(maxDepth int32) int {
	return len(s.nonemptyDepthsUpTo(maxDepth))
}

// RestrictedTotalCount returns the sum of per-depth counts for depths
// <= maxDepth.
func (s *Set) RestrictedTotalCount(maxDepth int32) int {
	total := 0
	for _, d := range s.nonemptyDepthsUpTo(maxDepth) {
		total += len(s.byDepth[d])
	}
	return total
}

func (s *Set) nonemptyDepthsUpTo(maxDepth int32) []int32 {
	// s.depths is kept sorted ascending; stop at the first depth that
	// exceeds maxDepth rather than rescanning from scratch each call's
	// caller would otherwise need to.
	i := sort.Search(len(s.depths), func(i int) bool { return s.depths[i] > maxDepth })
	return s.depths[:i]
}

func (s *Set) addDepth(depth int32) {
	i := sort.Search(len(s.depths), func(i int) bool { return s.depths[i] >= depth })
	s.depths = append(s.depths, 0)
	copy(s.depths[i+1:], s.depths[i:])
	s.depths[i] = depth
}

func (s *Set) removeDepth(depth int32) {
	i := sort.Search(len(s.depths), func(i int) bool { return s.depths[i] >= depth })
	if i < len(s.depths) && s.depths[i] == depth {
		s.depths = append(s.depths[:i], s.depths[i+1:]...)
	}
}

// clampIndex maps u in [0, 1) to an index in [0, n). u values outside
// [0, 1) (a misbehaving caller) are clamped rather than panicking,
// consistent with "no function aborts".
func clampIndex(u float64, n int) int {
	if n <= 0 {
		return 0
	}
	if u < 0 {
		u = 0
	}
	if u >= 1 {
		u = 0.999999999999
	}
	idx := int(u * float64(n))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func depthWeights(depths []int32, alpha float64) []float64 {
	weights := make([]float64, len(depths))
	for i, d := range depths {
		if alpha == 0 {
			weights[i] = 1
			continue
		}
		weights[i] = math.Pow(float64(d), alpha)
	}
	return weights
}
