// Package archetype implements the counter nodes of a
// trans-dimensional tree: memoised, reference-counted graph nodes that
// each count how many embeddable subtrees of a given size exist at a
// given height, under either an n-ary or an aggregate combination
// rule. See kernel.go and aggregate.go for the two recursion kernels.
package archetype

import (
	"errors"
	"fmt"

	"github.com/geoinvert/tdtcount/bigint"
	"github.com/geoinvert/tdtcount/tdterr"
	"github.com/geoinvert/tdtcount/tdtlog"
)

// Config carries the construction-time parameters shared by both
// policies. MaxSplit means "branching factor" under NAryPolicy and is
// otherwise just a hint under AggregatePolicy, whose real fan-out is
// len(children) (see SPEC_FULL.md §9 on the max_split interface).
type Config struct {
	MaxH     int
	MaxK     int
	MaxSplit int
	Policy   Policy
	Log      tdtlog.Logger
}

// splitCell keys the shared split-memoisation table. token is a
// split width for NAryPolicy and a tree-walk index for AggregatePolicy
// — the two kernels never collide because each Archetype carries only
// one policy and therefore only ever populates the table with one
// token scheme.
type splitCell struct {
	h, k  int
	token int64
}

// Archetype is one node of the archetype graph: a memoised counter
// for "number of embeddable subtrees of size k at height h" under the
// shape its Policy describes, plus the child references that shape is
// built from.
type Archetype struct {
	id       archetypeID
	maxH     int
	maxK     int
	maxSplit int
	nSplits  int
	policy   Policy
	children []*Archetype
	refcount int
	destroying bool
	log      tdtlog.Logger

	maxKAtH        []int
	maxKAtHStorage []int

	counts      [][]*bigint.Int
	splitCounts map[splitCell]*bigint.Int
	ratios      [][]float64
}

func invalidArg(op string, msg string) error {
	return tdterr.New(tdterr.InvalidArgument, op, errors.New(msg))
}

func newBase(cfg Config) (*Archetype, error) {
	if cfg.MaxH < 0 {
		return nil, invalidArg("archetype.newBase", "max_h must be >= 0")
	}
	if cfg.MaxK < 1 {
		return nil, invalidArg("archetype.newBase", "max_k must be >= 1")
	}
	if cfg.MaxSplit < 1 {
		return nil, invalidArg("archetype.newBase", "max_split must be >= 1")
	}
	log := cfg.Log
	if log == nil {
		log = tdtlog.NoOp
	}
	a := &Archetype{
		id:             newArchetypeID(),
		maxH:           cfg.MaxH,
		maxK:           cfg.MaxK,
		policy:         cfg.Policy,
		log:            log,
		maxKAtH:        make([]int, cfg.MaxH+1),
		maxKAtHStorage: make([]int, cfg.MaxH+1),
	}
	for i := range a.maxKAtH {
		a.maxKAtH[i] = -1
		a.maxKAtHStorage[i] = -1
	}
	return a, nil
}

// NewNAry constructs an n-ary archetype. child may be nil, in which
// case it must be attached later via SetChild — the pattern a
// self-recursive archetype uses to reference itself.
func NewNAry(cfg Config, child *Archetype) (*Archetype, error) {
	p, ok := cfg.Policy.(NAryPolicy)
	if !ok {
		return nil, invalidArg("archetype.NewNAry", "Config.Policy must be an NAryPolicy")
	}
	if p.N < 1 || p.N > 9 {
		return nil, invalidArg("archetype.NewNAry", "n-ary arity must be in [1,9]")
	}
	a, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	a.maxSplit = cfg.MaxSplit
	a.nSplits = ceilLog2(a.maxSplit)
	a.children = make([]*Archetype, 1)
	if child != nil {
		if err := a.SetChild(0, child); err != nil {
			return nil, err
		}
	}
	a.log.Debugf("new n-ary archetype %s n=%d max_h=%d max_k=%d", a.id, p.N, a.maxH, a.maxK)
	return a, nil
}

// NewAggregate constructs an aggregate archetype over a heterogeneous
// list of children. At least two children are required.
func NewAggregate(cfg Config, children []*Archetype) (*Archetype, error) {
	if _, ok := cfg.Policy.(AggregatePolicy); !ok {
		return nil, invalidArg("archetype.NewAggregate", "Config.Policy must be AggregatePolicy")
	}
	if len(children) < 2 {
		return nil, invalidArg("archetype.NewAggregate", "aggregate archetypes require at least 2 children")
	}
	a, err := newBase(cfg)
	if err != nil {
		return nil, err
	}
	a.maxSplit = cfg.MaxSplit
	a.nSplits = nextPow2(len(children))
	a.children = make([]*Archetype, len(children))
	for i, c := range children {
		if c == nil {
			continue // attached later via SetChild, e.g. for self-recursion
		}
		if err := a.SetChild(i, c); err != nil {
			return nil, err
		}
	}
	a.log.Debugf("new aggregate archetype %s children=%d max_h=%d max_k=%d", a.id, len(children), a.maxH, a.maxK)
	return a, nil
}

// SetChild attaches child at slot i, which must currently be empty.
// Attaching an archetype to itself (the self-recursive case) does not
// increment the archetype's own refcount: a self-edge is not an
// independent holder, so naive reference counting never needs to
// break a cycle to reclaim it.
func (a *Archetype) SetChild(i int, child *Archetype) error {
	if i < 0 || i >= len(a.children) {
		return invalidArg("archetype.SetChild", fmt.Sprintf("child index %d out of range", i))
	}
	if a.children[i] != nil {
		return invalidArg("archetype.SetChild", fmt.Sprintf("child slot %d already set", i))
	}
	if child != a {
		child.retain()
	}
	a.children[i] = child
	return nil
}

func (a *Archetype) retain() { a.refcount++ }

// Release drops one reference to a. When the last reference goes away
// destruction cascades through a's children (skipping any self-edge,
// which was never counted in the first place).
func (a *Archetype) Release() {
	a.refcount--
	if a.refcount > 0 || a.destroying {
		return
	}
	a.destroying = true
	for _, c := range a.children {
		if c == nil || c == a {
			continue
		}
		c.Release()
	}
}

// RefCount reports the current number of holders of a.
func (a *Archetype) RefCount() int { return a.refcount }

// MaxH returns the configured maximum height.
func (a *Archetype) MaxH() int { return a.maxH }

// MaxK returns the configured maximum storable arrangement size.
func (a *Archetype) MaxK() int { return a.maxK }

// MaxSplit returns the configured fan-out hint.
func (a *Archetype) MaxSplit() int { return a.maxSplit }

// NSplits returns the number of split bins/tree-walk slots the
// archetype's policy was sized for.
func (a *Archetype) NSplits() int { return a.nSplits }

// PolicyOf returns the archetype's combination policy.
func (a *Archetype) PolicyOf() Policy { return a.policy }

// ChildCount returns the number of child slots (1 for n-ary, the
// aggregate's child list length for aggregate).
func (a *Archetype) ChildCount() int { return len(a.children) }

// Child returns the child at slot i, or nil if unset.
func (a *Archetype) Child(i int) *Archetype {
	if i < 0 || i >= len(a.children) {
		return nil
	}
	return a.children[i]
}

// MaxKAtH lazily computes and memoises the true maximum arrangement
// size achievable at height h, before any max_k storage clamp.
func (a *Archetype) MaxKAtH(h int) (int, error) {
	if h < 0 || h > a.maxH {
		return 0, invalidArg("archetype.MaxKAtH", fmt.Sprintf("height %d out of range [0,%d]", h, a.maxH))
	}
	if a.maxKAtH[h] >= 0 {
		return a.maxKAtH[h], nil
	}
	v, err := a.computeMaxKAtH(h)
	if err != nil {
		return 0, err
	}
	a.maxKAtH[h] = v
	storage := v
	if storage > a.maxK {
		storage = a.maxK
	}
	a.maxKAtHStorage[h] = storage
	return v, nil
}

// MaxKAtHStorage returns MaxKAtH(h) clamped to the configured max_k
// storage ceiling — the width counts and split_counts rows are
// actually allocated to.
func (a *Archetype) MaxKAtHStorage(h int) (int, error) {
	if _, err := a.MaxKAtH(h); err != nil {
		return 0, err
	}
	return a.maxKAtHStorage[h], nil
}

func (a *Archetype) computeMaxKAtH(h int) (int, error) {
	if h == 0 {
		// A height-0 tree is a single node: the only size it can take
		// is k=1, so the true maximum at h=0 is 1 regardless of policy.
		return 1, nil
	}
	switch p := a.policy.(type) {
	case NAryPolicy:
		child := a.children[0]
		if child == nil {
			return 0, invalidArg("archetype.computeMaxKAtH", "n-ary archetype has no child attached")
		}
		cm, err := child.MaxKAtH(h - 1)
		if err != nil {
			return 0, err
		}
		return cm*p.N + 1, nil
	case AggregatePolicy:
		sum := 0
		for _, c := range a.children {
			if c == nil {
				return 0, invalidArg("archetype.computeMaxKAtH", "aggregate archetype has an unset child slot")
			}
			cm, err := c.MaxKAtH(min(h-1, c.maxH))
			if err != nil {
				return 0, err
			}
			sum += cm
		}
		return sum + 1, nil
	default:
		return 0, tdterr.New(tdterr.InvariantViolation, "archetype.computeMaxKAtH", errors.New("unknown policy"))
	}
}

// Count returns h(h,k): the number of embeddable subtrees of size k
// at height h. Out-of-range k (negative, or beyond the max_k storage
// ceiling) is not an error — it silently returns 0. Above MaxKAtH(h)
// that is the true count; between the storage ceiling and MaxKAtH(h)
// the true count is not computed and 0 is returned instead.
func (a *Archetype) Count(h, k int) (*bigint.Int, error) {
	cell, err := a.countCell(h, k)
	if err != nil {
		return nil, err
	}
	return bigint.New().Set(cell), nil
}

// CountInto writes h(h,k) into out without allocating a fresh Int,
// the out-parameter style the recursion kernels themselves use
// internally to avoid per-call allocation.
func (a *Archetype) CountInto(h, k int, out *bigint.Int) error {
	cell, err := a.countCell(h, k)
	if err != nil {
		return err
	}
	out.Set(cell)
	return nil
}

// IsCountMemoised reports whether h(h,k) has already been computed,
// without triggering computation.
func (a *Archetype) IsCountMemoised(h, k int) bool {
	if h < 0 || h > a.maxH || k < 0 {
		return false
	}
	storage, err := a.MaxKAtHStorage(h)
	if err != nil || k > storage {
		return false
	}
	if !a.HasCountsRow(h) {
		return false
	}
	return !a.counts[h][k].IsUnmemoised()
}

// HighestMemoisedK returns the highest k at height h whose count has
// already been computed, or -1 if none has.
func (a *Archetype) HighestMemoisedK(h int) (int, error) {
	storage, err := a.MaxKAtHStorage(h)
	if err != nil {
		return -1, err
	}
	if !a.HasCountsRow(h) {
		return -1, nil
	}
	highest := -1
	for k := 0; k <= storage; k++ {
		if !a.counts[h][k].IsUnmemoised() {
			highest = k
		}
	}
	return highest, nil
}

// RatioKPlus1 returns h(h,k+1)/h(h,k), memoised per (h,k). When k is
// the true maximum at h the numerator is 0 by definition; when the
// denominator is 0 the ratio is reported as 0 rather than producing a
// division artefact.
func (a *Archetype) RatioKPlus1(h, k int) (float64, error) {
	if h < 0 || h > a.maxH {
		return 0, invalidArg("archetype.RatioKPlus1", fmt.Sprintf("height %d out of range [0,%d]", h, a.maxH))
	}
	storage, err := a.MaxKAtHStorage(h)
	if err != nil {
		return 0, err
	}
	if k < 0 || k > storage {
		return 0, nil
	}
	a.ensureRatiosRow(h, storage)
	if a.ratios[h][k] >= 0 {
		return a.ratios[h][k], nil
	}
	maxAtH, err := a.MaxKAtH(h)
	if err != nil {
		return 0, err
	}
	denominator, err := a.countCell(h, k)
	if err != nil {
		return 0, err
	}
	var ratio float64
	if denominator.Sign() == 0 {
		ratio = 0
	} else if k == maxAtH {
		ratio = 0
	} else {
		numerator, err := a.countCell(h, k+1)
		if err != nil {
			return 0, err
		}
		ratio = bigint.Ratio(numerator, denominator)
	}
	a.ratios[h][k] = ratio
	return ratio, nil
}

func (a *Archetype) countCell(h, k int) (*bigint.Int, error) {
	if h < 0 || h > a.maxH {
		return nil, invalidArg("archetype.Count", fmt.Sprintf("height %d out of range [0,%d]", h, a.maxH))
	}
	if k < 0 {
		return zero(), nil
	}
	storage, err := a.MaxKAtHStorage(h)
	if err != nil {
		return nil, err
	}
	if k > storage {
		return zero(), nil
	}
	a.ensureCountsRow(h, storage)
	cell := a.counts[h][k]
	if !cell.IsUnmemoised() {
		return cell, nil
	}
	val, err := a.computeCount(h, k)
	if err != nil {
		return nil, err
	}
	cell.Set(val)
	return cell, nil
}

func (a *Archetype) computeCount(h, k int) (*bigint.Int, error) {
	switch a.policy.(type) {
	case NAryPolicy:
		return a.nAryCount(h, k)
	case AggregatePolicy:
		return a.aggregateCount(h, k)
	default:
		return nil, tdterr.New(tdterr.InvariantViolation, "archetype.computeCount", errors.New("unknown policy"))
	}
}

func (a *Archetype) ensureCountsRow(h, storage int) {
	if a.counts == nil {
		a.counts = make([][]*bigint.Int, a.maxH+1)
	}
	if a.counts[h] != nil {
		return
	}
	row := make([]*bigint.Int, storage+1)
	for i := range row {
		row[i] = bigint.Unmemoised()
	}
	a.counts[h] = row
}

func (a *Archetype) ensureRatiosRow(h, storage int) {
	if a.ratios == nil {
		a.ratios = make([][]float64, a.maxH+1)
	}
	if a.ratios[h] != nil {
		return
	}
	row := make([]float64, storage+1)
	for i := range row {
		row[i] = -1
	}
	a.ratios[h] = row
}

// HasCountsRow reports whether any Count query has touched height h
// yet, i.e. whether the counts row at h has been allocated. Used by
// persist to decide whether a height's counts section is present at
// all, without forcing computation of any cell in it.
func (a *Archetype) HasCountsRow(h int) bool {
	return h >= 0 && h < len(a.counts) && a.counts[h] != nil
}

// CountCellRaw returns the counts[h][k] memo cell exactly as stored —
// the unmemoised sentinel if nothing has computed it yet — without
// triggering computation. h must already have an allocated row
// (HasCountsRow(h) true) and k must be within that row's width.
func (a *Archetype) CountCellRaw(h, k int) (*bigint.Int, error) {
	if !a.HasCountsRow(h) {
		return nil, invalidArg("archetype.CountCellRaw", fmt.Sprintf("height %d has no allocated counts row", h))
	}
	if k < 0 || k >= len(a.counts[h]) {
		return nil, invalidArg("archetype.CountCellRaw", fmt.Sprintf("k %d out of range for height %d", k, h))
	}
	return a.counts[h][k], nil
}

// RestoreCountsRow allocates (if needed) and overwrites the counts
// row at height h with cells, which must have exactly
// MaxKAtHStorage(h)+1 entries in ascending k order, including
// sentinels for cells that were not memoised when saved.
func (a *Archetype) RestoreCountsRow(h int, cells []*bigint.Int) error {
	storage, err := a.MaxKAtHStorage(h)
	if err != nil {
		return err
	}
	if len(cells) != storage+1 {
		return tdterr.New(tdterr.ShapeMismatch, "archetype.RestoreCountsRow",
			fmt.Errorf("height %d: expected %d cells, got %d", h, storage+1, len(cells)))
	}
	if a.counts == nil {
		a.counts = make([][]*bigint.Int, a.maxH+1)
	}
	a.counts[h] = cells
	return nil
}

// HasRatiosRow reports whether the ratios row at height h has been
// allocated.
func (a *Archetype) HasRatiosRow(h int) bool {
	return h >= 0 && h < len(a.ratios) && a.ratios[h] != nil
}

// RatioCellRaw returns ratios[h][k] exactly as stored (a negative
// sentinel if unmemoised) without triggering computation.
func (a *Archetype) RatioCellRaw(h, k int) (float64, error) {
	if !a.HasRatiosRow(h) {
		return 0, invalidArg("archetype.RatioCellRaw", fmt.Sprintf("height %d has no allocated ratios row", h))
	}
	if k < 0 || k >= len(a.ratios[h]) {
		return 0, invalidArg("archetype.RatioCellRaw", fmt.Sprintf("k %d out of range for height %d", k, h))
	}
	return a.ratios[h][k], nil
}

// RestoreRatiosRow allocates (if needed) and overwrites the ratios
// row at height h with values, which must have exactly
// MaxKAtHStorage(h)+1 entries in ascending k order.
func (a *Archetype) RestoreRatiosRow(h int, values []float64) error {
	storage, err := a.MaxKAtHStorage(h)
	if err != nil {
		return err
	}
	if len(values) != storage+1 {
		return tdterr.New(tdterr.ShapeMismatch, "archetype.RestoreRatiosRow",
			fmt.Errorf("height %d: expected %d values, got %d", h, storage+1, len(values)))
	}
	if a.ratios == nil {
		a.ratios = make([][]float64, a.maxH+1)
	}
	a.ratios[h] = values
	return nil
}

func (a *Archetype) getSplitCache(h, k int, token int64) (*bigint.Int, bool) {
	if a.splitCounts == nil {
		return nil, false
	}
	v, ok := a.splitCounts[splitCell{h: h, k: k, token: token}]
	return v, ok
}

func (a *Archetype) setSplitCache(h, k int, token int64, v *bigint.Int) {
	if a.splitCounts == nil {
		a.splitCounts = make(map[splitCell]*bigint.Int)
	}
	a.splitCounts[splitCell{h: h, k: k, token: token}] = v
}

func one() *bigint.Int  { return bigint.New().SetUint64(1) }
func zero() *bigint.Int { return bigint.New().SetUint64(0) }
