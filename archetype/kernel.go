package archetype

import "github.com/geoinvert/tdtcount/bigint"

// nAryCount computes h(h,k) for an archetype whose policy is
// NAryPolicy{N}: a single child type repeated N times under one root.
func (a *Archetype) nAryCount(h, k int) (*bigint.Int, error) {
	p := a.policy.(NAryPolicy)
	if k == 0 || k == 1 {
		return one(), nil
	}
	if h == 0 {
		return zero(), nil
	}
	child := a.children[0]
	if p.N == 1 {
		return child.countCell(h-1, k-1)
	}
	return a.generalSplit(h, k, p.N)
}

// generalSplit is the entry point for the n-ary general-split kernel:
// a single node consumes one of the k slots, and the remaining k-1
// are distributed across n identical children.
func (a *Archetype) generalSplit(h, k, n int) (*bigint.Int, error) {
	if k == 0 || k == 1 {
		return one(), nil
	}
	child := a.children[0]
	childMaxK, err := child.MaxKAtH(h - 1)
	if err != nil {
		return nil, err
	}
	capacity := childMaxK*n + 1
	if capacity < k {
		return zero(), nil
	}
	if capacity == k {
		return one(), nil
	}
	return a.split(h, k, n)
}

// split computes the n-way convolution of the child's counts for k
// slots, one of which is the root's: for width >= 2 the children share
// k-1 nodes (splitWidth2 pairs sizes j and k-1-j, and the wider cases
// thread the root's slot down the left branch as j+1). Width 1 returns
// the child's count at size k itself. Memoised by (h, k,
// width): since widths arising from recursively halving n are shared
// across many (h,k) queries, this lets every call site reuse the same
// work.
func (a *Archetype) split(h, k, width int) (*bigint.Int, error) {
	if width == 1 {
		child := a.children[0]
		return child.countCell(h-1, k)
	}
	if cached, ok := a.getSplitCache(h, k, int64(width)); ok {
		return cached, nil
	}
	var result *bigint.Int
	var err error
	switch {
	case width == 2:
		result, err = a.splitWidth2(h, k)
	case width%2 == 0:
		result, err = a.splitWidthEven(h, k, width)
	default:
		result, err = a.splitWidthOdd(h, k, width)
	}
	if err != nil {
		return nil, err
	}
	a.setSplitCache(h, k, int64(width), result)
	return result, nil
}

func (a *Archetype) splitWidth2(h, k int) (*bigint.Int, error) {
	child := a.children[0]
	maxChildK, err := child.MaxKAtH(h - 1)
	if err != nil {
		return nil, err
	}
	lo := max(0, k-1-maxChildK)
	hi := min(k-1, maxChildK)
	sum := bigint.New()
	tmp := bigint.New()
	for j := lo; j <= hi; j++ {
		left, err := child.countCell(h-1, j)
		if err != nil {
			return nil, err
		}
		right, err := child.countCell(h-1, k-1-j)
		if err != nil {
			return nil, err
		}
		tmp.Mul(left, right)
		sum.Add(sum, tmp)
	}
	return sum, nil
}

// splitWidthEven handles split width 2m by recursing into two
// half-width convolutions; the left branch carries the root's +1
// bookkeeping as j+1, mirroring how the reference recursion threads
// it.
func (a *Archetype) splitWidthEven(h, k, width int) (*bigint.Int, error) {
	m := width / 2
	child := a.children[0]
	maxChildK, err := child.MaxKAtH(h - 1)
	if err != nil {
		return nil, err
	}
	cap := m * maxChildK
	lo := max(0, k-1-cap)
	hi := min(k-1, cap)
	sum := bigint.New()
	tmp := bigint.New()
	for j := lo; j <= hi; j++ {
		left, err := a.split(h, j+1, m)
		if err != nil {
			return nil, err
		}
		right, err := a.split(h, k-j, m)
		if err != nil {
			return nil, err
		}
		tmp.Mul(left, right)
		sum.Add(sum, tmp)
	}
	return sum, nil
}

// splitWidthOdd handles split width 2m+1 by peeling one child off
// directly and recursing the remaining 2m into splitWidthEven/2.
func (a *Archetype) splitWidthOdd(h, k, width int) (*bigint.Int, error) {
	m := (width - 1) / 2
	child := a.children[0]
	maxChildK, err := child.MaxKAtH(h - 1)
	if err != nil {
		return nil, err
	}
	cap2m := 2 * m * maxChildK
	lo := max(0, k-1-cap2m)
	hi := min(k-1, maxChildK)
	sum := bigint.New()
	tmp := bigint.New()
	for j := lo; j <= hi; j++ {
		left, err := child.countCell(h-1, j)
		if err != nil {
			return nil, err
		}
		right, err := a.split(h, k-j, 2*m)
		if err != nil {
			return nil, err
		}
		tmp.Mul(left, right)
		sum.Add(sum, tmp)
	}
	return sum, nil
}
