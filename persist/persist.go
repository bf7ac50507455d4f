// Package persist implements the binary, little-endian save/restore
// format for an archetype graph described in spec.md's persistence
// component: a fixed preamble, per-height counts/ratios blocks, and a
// child-subtree walk that truncates at self-recursion.
//
// The split_counts working table is not part of the serialised
// payload. It is a pure performance cache over data that is itself
// persisted (counts), so a restored archetype simply recomputes any
// split_counts cell it needs on first use — identical behaviour to a
// freshly constructed archetype that has not yet been queried at that
// cell. See DESIGN.md for the full rationale.
package persist

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/geoinvert/tdtcount/archetype"
	"github.com/geoinvert/tdtcount/bigint"
	"github.com/geoinvert/tdtcount/tdterr"
	"go.uber.org/multierr"
)

// Save writes a's full memoised state, and the state of every
// distinct (non-self-recursive) child subtree reachable from it, to
// w.
func Save(w io.Writer, root *archetype.Archetype) error {
	aw := &archetypeWriter{w: w, active: map[*archetype.Archetype]bool{}}
	return aw.writeArchetype(root)
}

// Restore overwrites root's memoised state (and that of its distinct
// child subtrees) from r, which must have been produced by Save
// against an archetype graph of the same shape: same max_h, max_k,
// max_split and, transitively, the same max_k_at_h at every height.
// root must already be a fully constructed graph; Restore does not
// create archetypes or wire up children.
func Restore(r io.Reader, root *archetype.Archetype) error {
	ar := &archetypeReader{r: r, active: map[*archetype.Archetype]bool{}}
	return ar.readArchetype(root)
}

type archetypeWriter struct {
	w      io.Writer
	active map[*archetype.Archetype]bool
}

func (aw *archetypeWriter) writeArchetype(a *archetype.Archetype) error {
	aw.active[a] = true
	defer delete(aw.active, a)

	var errs error
	errs = multierr.Append(errs, writeInt32(aw.w, int32(a.MaxH())))
	errs = multierr.Append(errs, writeInt32(aw.w, int32(a.MaxK())))
	errs = multierr.Append(errs, writeInt32(aw.w, int32(a.MaxSplit())))
	if errs != nil {
		return ioErr("persist.Save", errs)
	}

	maxH := a.MaxH()
	storages := make([]int, maxH+1)
	for h := 0; h <= maxH; h++ {
		s, err := a.MaxKAtHStorage(h)
		if err != nil {
			return err
		}
		storages[h] = s
		if err := writeInt32(aw.w, int32(s)); err != nil {
			return ioErr("persist.Save", err)
		}
	}

	if err := aw.writeCounts(a, storages); err != nil {
		return err
	}
	if err := aw.writeEmptySplitCounts(maxH); err != nil {
		return err
	}
	if err := aw.writeRatios(a, storages); err != nil {
		return err
	}
	return aw.writeSubtrees(a)
}

func (aw *archetypeWriter) writeCounts(a *archetype.Archetype, storages []int) error {
	for h, storage := range storages {
		if !a.HasCountsRow(h) {
			if err := writeInt32(aw.w, 0); err != nil {
				return ioErr("persist.Save", err)
			}
			continue
		}
		if err := writeInt32(aw.w, int32(storage)); err != nil {
			return ioErr("persist.Save", err)
		}
		for k := 0; k <= storage; k++ {
			cell, err := a.CountCellRaw(h, k)
			if err != nil {
				return err
			}
			if err := cell.WriteRaw(aw.w); err != nil {
				return ioErr("persist.Save", err)
			}
		}
	}
	return nil
}

// writeEmptySplitCounts preserves the section's position in the
// stream; see the package doc comment for why its payload is always
// empty.
func (aw *archetypeWriter) writeEmptySplitCounts(maxH int) error {
	for h := 0; h <= maxH; h++ {
		if err := writeInt32(aw.w, 0); err != nil {
			return ioErr("persist.Save", err)
		}
	}
	return nil
}

func (aw *archetypeWriter) writeRatios(a *archetype.Archetype, storages []int) error {
	for h, storage := range storages {
		if !a.HasRatiosRow(h) {
			if err := writeInt32(aw.w, 0); err != nil {
				return ioErr("persist.Save", err)
			}
			continue
		}
		if err := writeInt32(aw.w, int32(storage)); err != nil {
			return ioErr("persist.Save", err)
		}
		for k := 0; k <= storage; k++ {
			v, err := a.RatioCellRaw(h, k)
			if err != nil {
				return err
			}
			if err := writeFloat64(aw.w, v); err != nil {
				return ioErr("persist.Save", err)
			}
		}
	}
	return nil
}

func (aw *archetypeWriter) writeSubtrees(a *archetype.Archetype) error {
	for i := 0; i < a.ChildCount(); i++ {
		child := a.Child(i)
		if child == nil {
			return tdterr.New(tdterr.InvariantViolation, "persist.Save",
				fmt.Errorf("child slot %d is unset", i))
		}
		if aw.active[child] {
			if err := writeInt32(aw.w, 0); err != nil {
				return ioErr("persist.Save", err)
			}
			continue
		}
		if err := writeInt32(aw.w, 1); err != nil {
			return ioErr("persist.Save", err)
		}
		if err := aw.writeArchetype(child); err != nil {
			return err
		}
	}
	return nil
}

type archetypeReader struct {
	r      io.Reader
	active map[*archetype.Archetype]bool
}

func (ar *archetypeReader) readArchetype(a *archetype.Archetype) error {
	ar.active[a] = true
	defer delete(ar.active, a)

	maxH, err := readInt32(ar.r)
	if err != nil {
		return ioErr("persist.Restore", err)
	}
	maxK, err := readInt32(ar.r)
	if err != nil {
		return ioErr("persist.Restore", err)
	}
	maxSplit, err := readInt32(ar.r)
	if err != nil {
		return ioErr("persist.Restore", err)
	}
	if int(maxH) != a.MaxH() || int(maxK) != a.MaxK() || int(maxSplit) != a.MaxSplit() {
		return tdterr.New(tdterr.ShapeMismatch, "persist.Restore",
			fmt.Errorf("preamble (max_h=%d,max_k=%d,max_split=%d) does not match archetype (max_h=%d,max_k=%d,max_split=%d)",
				maxH, maxK, maxSplit, a.MaxH(), a.MaxK(), a.MaxSplit()))
	}

	storages := make([]int, maxH+1)
	for h := 0; h <= int(maxH); h++ {
		s, err := readInt32(ar.r)
		if err != nil {
			return ioErr("persist.Restore", err)
		}
		want, err := a.MaxKAtHStorage(h)
		if err != nil {
			return err
		}
		if int(s) != want {
			return tdterr.New(tdterr.ShapeMismatch, "persist.Restore",
				fmt.Errorf("height %d: stream max_k_at_h_storage %d does not match archetype's %d", h, s, want))
		}
		storages[h] = want
	}

	if err := ar.readCounts(a, storages); err != nil {
		return err
	}
	if err := ar.skipSplitCounts(int(maxH)); err != nil {
		return err
	}
	if err := ar.readRatios(a, storages); err != nil {
		return err
	}
	return ar.readSubtrees(a)
}

func (ar *archetypeReader) readCounts(a *archetype.Archetype, storages []int) error {
	for h, storage := range storages {
		present, err := readInt32(ar.r)
		if err != nil {
			return ioErr("persist.Restore", err)
		}
		if present == 0 {
			continue
		}
		if int(present) != storage {
			return tdterr.New(tdterr.ShapeMismatch, "persist.Restore",
				fmt.Errorf("height %d: counts row width %d does not match %d", h, present, storage))
		}
		cells := make([]*bigint.Int, storage+1)
		for k := range cells {
			v := bigint.New()
			if _, err := v.ReadRaw(ar.r); err != nil {
				return ioErr("persist.Restore", err)
			}
			cells[k] = v
		}
		if err := a.RestoreCountsRow(h, cells); err != nil {
			return err
		}
	}
	return nil
}

func (ar *archetypeReader) skipSplitCounts(maxH int) error {
	for h := 0; h <= maxH; h++ {
		if _, err := readInt32(ar.r); err != nil {
			return ioErr("persist.Restore", err)
		}
	}
	return nil
}

func (ar *archetypeReader) readRatios(a *archetype.Archetype, storages []int) error {
	for h, storage := range storages {
		present, err := readInt32(ar.r)
		if err != nil {
			return ioErr("persist.Restore", err)
		}
		if present == 0 {
			continue
		}
		if int(present) != storage {
			return tdterr.New(tdterr.ShapeMismatch, "persist.Restore",
				fmt.Errorf("height %d: ratios row width %d does not match %d", h, present, storage))
		}
		values := make([]float64, storage+1)
		for k := range values {
			v, err := readFloat64(ar.r)
			if err != nil {
				return ioErr("persist.Restore", err)
			}
			values[k] = v
		}
		if err := a.RestoreRatiosRow(h, values); err != nil {
			return err
		}
	}
	return nil
}

func (ar *archetypeReader) readSubtrees(a *archetype.Archetype) error {
	for i := 0; i < a.ChildCount(); i++ {
		marker, err := readInt32(ar.r)
		if err != nil {
			return ioErr("persist.Restore", err)
		}
		child := a.Child(i)
		if child == nil {
			return tdterr.New(tdterr.InvariantViolation, "persist.Restore",
				fmt.Errorf("child slot %d is unset", i))
		}
		if marker == 0 {
			if !ar.active[child] {
				return tdterr.New(tdterr.ShapeMismatch, "persist.Restore",
					fmt.Errorf("stream marks child slot %d as self-recursive but the archetype graph does not", i))
			}
			continue
		}
		if err := ar.readArchetype(child); err != nil {
			return err
		}
	}
	return nil
}

func ioErr(op string, err error) error {
	return tdterr.New(tdterr.IOFailure, op, err)
}

func writeInt32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

func readInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf[:])), nil
}

func writeFloat64(w io.Writer, v float64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	_, err := w.Write(buf[:])
	return err
}

func readFloat64(r io.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}
