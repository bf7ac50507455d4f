package archetype

import (
	"fmt"
	"math/bits"

	"github.com/geoinvert/tdtcount/tdterr"
)

// Policy selects which recursion kernel an Archetype uses to combine
// its children's counts into its own. The source this package was
// grown from dispatches on a policy tag via function pointers; here
// the same choice is a sum type matched with a type switch, the way a
// small closed set of behaviours is usually expressed in Go.
type Policy interface {
	isPolicy()
	description() string
}

// NAryPolicy selects the general-split kernel: N identical children
// convolved together, with a single node reserved for the root.
type NAryPolicy struct {
	N int
}

func (NAryPolicy) isPolicy() {}
func (p NAryPolicy) description() string {
	return fmt.Sprintf("n-ary(%d)", p.N)
}

// AggregatePolicy selects the aggregate-split kernel: a balanced
// divide-and-conquer merge over a heterogeneous list of children.
type AggregatePolicy struct{}

func (AggregatePolicy) isPolicy() {}
func (AggregatePolicy) description() string { return "aggregate" }

// namedNAryPolicies mirrors the fixed arity names spec.md enumerates.
// Quinary (N=5) is deliberately absent: the distilled policy set never
// named it, and since arity dispatch here is a generic integer rather
// than one hand-written kernel per arity, NAryPolicy{N: 5} already
// works without a name — it is just not reachable through
// PolicyFromName. Adding a "quinary" constant the source never had
// would be tidying an interface spec.md explicitly asked not to clean
// up (see DESIGN.md).
var namedNAryPolicies = map[string]int{
	"unary":     1,
	"binary":    2,
	"ternary":   3,
	"quaternary": 4,
	"senary":    6,
	"septenary": 7,
	"octary":    8,
	"nonary":    9,
}

// PolicyFromName resolves one of the named policy constants from
// spec.md's configuration surface. Direct construction of
// NAryPolicy{N: n} for any 1 <= n <= 9 remains valid even when no name
// covers it.
func PolicyFromName(name string) (Policy, error) {
	if name == "aggregate" {
		return AggregatePolicy{}, nil
	}
	if n, ok := namedNAryPolicies[name]; ok {
		return NAryPolicy{N: n}, nil
	}
	return nil, tdterr.New(tdterr.InvalidArgument, "archetype.PolicyFromName",
		fmt.Errorf("unrecognised policy name %q", name))
}

// ceilLog2 returns ceil(log2(n)) for n >= 1, the number of power-of-two
// split bins needed to cover a fan-out of n. Grounded on
// urkle.LeafOrdinalBits and mmr.BitLength64 (bits.Len64(n-1) is the
// same "round up to the covering power of two" bit trick both use for
// sizing on-disk index widths).
func ceilLog2(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len64(uint64(n - 1))
}

// nextPow2 returns the smallest power of two >= n.
func nextPow2(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len64(uint64(n-1))
}
