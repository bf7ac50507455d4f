package archetype

import "github.com/geoinvert/tdtcount/bigint"

// aggregateCount computes h(h,k) for an archetype whose policy is
// AggregatePolicy: a heterogeneous list of children merged by
// balanced divide-and-conquer rather than n-ary convolution.
func (a *Archetype) aggregateCount(h, k int) (*bigint.Int, error) {
	if k == 0 || k == 1 {
		return one(), nil
	}
	if h == 0 {
		return zero(), nil
	}
	return a.aggregateSplit(h, k, 0, len(a.children), 0)
}

// rangeMaxK sums MaxKAtH(hChild) (clamped to each child's own max_h)
// across children[lo:hi).
func (a *Archetype) rangeMaxK(hChild, lo, hi int) (int, error) {
	sum := 0
	for i := lo; i < hi; i++ {
		c := a.children[i]
		cm, err := c.MaxKAtH(min(hChild, c.maxH))
		if err != nil {
			return 0, err
		}
		sum += cm
	}
	return sum, nil
}

// aggregateSplit computes the number of ways to fill k slots, one of
// them a root slot, with the other k-1 spread across children[lo:hi);
// memoising by (h, k, nodeIndex), where nodeIndex
// identifies this call's position in the implicit balanced-recursion
// tree (root 0, left child 2*i+1, right child 2*i+2).
func (a *Archetype) aggregateSplit(h, k, lo, hi, nodeIndex int) (*bigint.Int, error) {
	n := hi - lo
	if n == 1 {
		c := a.children[lo]
		return c.countCell(min(h-1, c.maxH), k-1)
	}
	if k == 0 || k == 1 {
		return one(), nil
	}

	full, err := a.rangeMaxK(h-1, lo, hi)
	if err != nil {
		return nil, err
	}
	if full+1 < k {
		return zero(), nil
	}
	if full+1 == k {
		return one(), nil
	}

	if cached, ok := a.getSplitCache(h, k, int64(nodeIndex)); ok {
		return cached, nil
	}

	var result *bigint.Int
	if n == 3 {
		result, err = a.aggregateSplitThree(h, k, lo, hi, nodeIndex)
	} else {
		result, err = a.aggregateSplitGeneral(h, k, lo, hi, nodeIndex)
	}
	if err != nil {
		return nil, err
	}
	a.setSplitCache(h, k, int64(nodeIndex), result)
	return result, nil
}

// aggregateSplitGeneral splits children[lo:hi) into a left half of
// ceil(n/2) children and a right half of the rest, recursing into
// each. The left branch's k argument carries the root's +1
// bookkeeping, exactly as the n-ary even-width kernel does.
func (a *Archetype) aggregateSplitGeneral(h, k, lo, hi, nodeIndex int) (*bigint.Int, error) {
	n := hi - lo
	iLeft := (n + 1) / 2
	mid := lo + iLeft

	maxLeft, err := a.rangeMaxK(h-1, lo, mid)
	if err != nil {
		return nil, err
	}
	maxRight, err := a.rangeMaxK(h-1, mid, hi)
	if err != nil {
		return nil, err
	}

	loJ := max(0, k-1-maxRight)
	hiJ := min(k-1, maxLeft)

	sum := bigint.New()
	tmp := bigint.New()
	for j := loJ; j <= hiJ; j++ {
		left, err := a.aggregateSplit(h, j+1, lo, mid, leftChildIndex(nodeIndex))
		if err != nil {
			return nil, err
		}
		right, err := a.aggregateSplit(h, k-j, mid, hi, rightChildIndex(nodeIndex))
		if err != nil {
			return nil, err
		}
		tmp.Mul(left, right)
		sum.Add(sum, tmp)
	}
	return sum, nil
}

// aggregateSplitThree is the odd-fan-out special case for exactly 3
// children: the first two are recursed into as a pair, and the third
// is folded in directly as a single count rather than its own
// aggregateSplit call.
func (a *Archetype) aggregateSplitThree(h, k, lo, hi, nodeIndex int) (*bigint.Int, error) {
	mid := lo + 2
	rightChild := a.children[mid]

	maxRight, err := rightChild.MaxKAtH(min(h-1, rightChild.maxH))
	if err != nil {
		return nil, err
	}
	maxLeft, err := a.rangeMaxK(h-1, lo, mid)
	if err != nil {
		return nil, err
	}

	loJ := max(1, k-1-maxRight)
	hiJ := min(k, maxLeft+1)

	sum := bigint.New()
	tmp := bigint.New()
	for j := loJ; j <= hiJ; j++ {
		left, err := a.aggregateSplit(h, j, lo, mid, leftChildIndex(nodeIndex))
		if err != nil {
			return nil, err
		}
		right, err := rightChild.countCell(min(h-1, rightChild.maxH), k-j)
		if err != nil {
			return nil, err
		}
		tmp.Mul(left, right)
		sum.Add(sum, tmp)
	}
	return sum, nil
}

func leftChildIndex(i int) int  { return 2*i + 1 }
func rightChildIndex(i int) int { return 2*i + 2 }
