// Package tdttest holds archetype fixtures shared by the test suites
// of archetype and persist: the handful of self-recursive and
// Cartesian-product shapes spec.md's canonical scenarios are built
// from, so each test package does not re-derive its own copy of the
// construction boilerplate.
package tdttest

import (
	"testing"

	"github.com/geoinvert/tdtcount/archetype"
	"github.com/stretchr/testify/require"
)

// SelfRecursiveNAry builds an n-ary archetype whose sole child is
// itself — the shape behind the Binary/Quaternary canonical
// scenarios and behind any Cartesian product's leaf archetype.
func SelfRecursiveNAry(t testing.TB, n, maxH, maxK int) *archetype.Archetype {
	t.Helper()
	a, err := archetype.NewNAry(archetype.Config{
		MaxH: maxH, MaxK: maxK, MaxSplit: n, Policy: archetype.NAryPolicy{N: n},
	}, nil)
	require.NoError(t, err)
	require.NoError(t, a.SetChild(0, a))
	return a
}

// AggregateOfSelf builds an aggregate archetype with n child slots,
// all pointing back to the aggregate itself — the shape behind the
// Ternary canonical scenario, which exercises the aggregate kernel's
// homogeneous self-recursive case (including the n=3 special case).
func AggregateOfSelf(t testing.TB, n, maxH, maxK int) *archetype.Archetype {
	t.Helper()
	children := make([]*archetype.Archetype, n)
	a, err := archetype.NewAggregate(archetype.Config{
		MaxH: maxH, MaxK: maxK, MaxSplit: n, Policy: archetype.AggregatePolicy{},
	}, children)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		require.NoError(t, a.SetChild(i, a))
	}
	return a
}

// Cartesian builds a root n-ary archetype of arity rootN whose child
// is a distinct, self-recursive n-ary archetype of arity childN — the
// shape behind the 3/4 and 7/8 Cartesian canonical scenarios.
func Cartesian(t testing.TB, rootN, childN, maxH, maxK int) (root, child *archetype.Archetype) {
	t.Helper()
	child = SelfRecursiveNAry(t, childN, maxH, maxK)
	root, err := archetype.NewNAry(archetype.Config{
		MaxH: maxH, MaxK: maxK, MaxSplit: rootN, Policy: archetype.NAryPolicy{N: rootN},
	}, child)
	require.NoError(t, err)
	return root, child
}
