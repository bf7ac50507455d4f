package multiset

import (
	"fmt"
	"sort"

	"github.com/geoinvert/tdtcount/tdterr"
)

// ValuePolicy controls what Insert does when a key is already present
// at the target depth.
type ValuePolicy int

const (
	// Overwrite replaces the existing value.
	Overwrite ValuePolicy = iota
	// Sum adds the new value to the existing one.
	Sum
	// Ignore keeps the existing value and discards the new one.
	Ignore
)

type valueEntry struct {
	key   int32
	value float64
}

// ValueSet is the key+scalar-value variant of Set: per depth, a
// dynamic array of (key, value) pairs kept sorted by key.
type ValueSet struct {
	byDepth map[int32][]valueEntry
	depths  []int32
	total   int
}

// NewValueSet returns an empty ValueSet.
func NewValueSet() *ValueSet {
	return &ValueSet{byDepth: make(map[int32][]valueEntry)}
}

// Insert adds (key, value) at depth, applying policy if key is
// already present at that depth.
func (s *ValueSet) Insert(key, depth int32, value float64, policy ValuePolicy) {
	entries := s.byDepth[depth]
	i := sort.Search(len(entries), func(i int) bool { return entries[i].key >= key })
	if i < len(entries) && entries[i].key == key {
		switch policy {
		case Sum:
			entries[i].value += value
		case Ignore:
			// keep existing
		default: // Overwrite
			entries[i].value = value
		}
		return
	}
	if len(entries) == 0 {
		s.addDepth(depth)
	}
	entries = append(entries, valueEntry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = valueEntry{key: key, value: value}
	s.byDepth[depth] = entries
	s.total++
}

// Remove deletes key from depth, reporting whether anything was
// removed.
func (s *ValueSet) Remove(key, depth int32) bool {
	entries, ok := s.byDepth[depth]
	if !ok {
		return false
	}
	i := sort.Search(len(entries), func(i int) bool { return entries[i].key >= key })
	if i >= len(entries) || entries[i].key != key {
		return false
	}
	entries = append(entries[:i], entries[i+1:]...)
	s.total--
	if len(entries) == 0 {
		delete(s.byDepth, depth)
		s.removeDepth(depth)
	} else {
		s.byDepth[depth] = entries
	}
	return true
}

// Value returns the value stored for key at depth.
func (s *ValueSet) Value(key, depth int32) (float64, bool) {
	entries, ok := s.byDepth[depth]
	if !ok {
		return 0, false
	}
	i := sort.Search(len(entries), func(i int) bool { return entries[i].key >= key })
	if i >= len(entries) || entries[i].key != key {
		return 0, false
	}
	return entries[i].value, true
}

// DepthCount returns the number of keys present at depth.
func (s *ValueSet) DepthCount(depth int32) int { return len(s.byDepth[depth]) }

// TotalCount returns the total number of keys across all depths.
func (s *ValueSet) TotalCount() int { return s.total }

// NthElement returns the n-th (key, value) pair at depth in ascending
// key order.
func (s *ValueSet) NthElement(depth int32, n int) (int32, float64, error) {
	entries := s.byDepth[depth]
	if n < 0 || n >= len(entries) {
		return 0, 0, tdterr.New(tdterr.InvalidArgument, "multiset.ValueSet.NthElement",
			fmt.Errorf("index %d out of range for depth %d (%d keys)", n, depth, len(entries)))
	}
	return entries[n].key, entries[n].value, nil
}

// ChooseIndex chooses uniformly among the keys at depth, returning
// the key, its value, and the uniform selection probability.
func (s *ValueSet) ChooseIndex(depth int32, u float64) (int32, float64, float64, error) {
	entries := s.byDepth[depth]
	if len(entries) == 0 {
		return 0, 0, 0, tdterr.New(tdterr.InvalidArgument, "multiset.ValueSet.ChooseIndex",
			fmt.Errorf("depth %d is empty", depth))
	}
	idx := clampIndex(u, len(entries))
	e := entries[idx]
	return e.key, e.value, 1.0 / float64(len(entries)), nil
}

func (s *ValueSet) addDepth(depth int32) {
	i := sort.Search(len(s.depths), func(i int) bool { return s.depths[i] >= depth })
	s.depths = append(s.depths, 0)
	copy(s.depths[i+1:], s.depths[i:])
	s.depths[i] = depth
}

func (s *ValueSet) removeDepth(depth int32) {
	i := sort.Search(len(s.depths), func(i int) bool { return s.depths[i] >= depth })
	if i < len(s.depths) && s.depths[i] == depth {
		s.depths = append(s.depths[:i], s.depths[i+1:]...)
	}
}
