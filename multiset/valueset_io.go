package multiset

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/geoinvert/tdtcount/tdterr"
)

// Write serialises s as: int32 depth count, then for each depth
// (ascending): int32 depth, int32 entry count, then (key, value)
// pairs in ascending key order, key as int32 and value as a raw
// float64 bit pattern.
func (s *ValueSet) Write(w io.Writer) error {
	if err := writeInt32(w, int32(len(s.depths))); err != nil {
		return tdterr.New(tdterr.IOFailure, "multiset.ValueSet.Write", err)
	}
	for _, d := range s.depths {
		entries := s.byDepth[d]
		if err := writeInt32(w, d); err != nil {
			return tdterr.New(tdterr.IOFailure, "multiset.ValueSet.Write", err)
		}
		if err := writeInt32(w, int32(len(entries))); err != nil {
			return tdterr.New(tdterr.IOFailure, "multiset.ValueSet.Write", err)
		}
		for _, e := range entries {
			if err := writeInt32(w, e.key); err != nil {
				return tdterr.New(tdterr.IOFailure, "multiset.ValueSet.Write", err)
			}
			if err := writeFloat64(w, e.value); err != nil {
				return tdterr.New(tdterr.IOFailure, "multiset.ValueSet.Write", err)
			}
		}
	}
	return nil
}

// Read replaces s's contents with the stream produced by Write.
func (s *ValueSet) Read(r io.Reader) error {
	depthCount, err := readInt32(r)
	if err != nil {
		return tdterr.New(tdterr.IOFailure, "multiset.ValueSet.Read", err)
	}
	fresh := NewValueSet()
	for i := int32(0); i < depthCount; i++ {
		depth, err := readInt32(r)
		if err != nil {
			return tdterr.New(tdterr.IOFailure, "multiset.ValueSet.Read", err)
		}
		entryCount, err := readInt32(r)
		if err != nil {
			return tdterr.New(tdterr.IOFailure, "multiset.ValueSet.Read", err)
		}
		for j := int32(0); j < entryCount; j++ {
			key, err := readInt32(r)
			if err != nil {
				return tdterr.New(tdterr.IOFailure, "multiset.ValueSet.Read", err)
			}
			value, err := readFloat64(r)
			if err != nil {
				return tdterr.New(tdterr.IOFailure, "multiset.ValueSet.Read", err)
			}
			if _, present := fresh.Value(key, depth); present {
				return tdterr.New(tdterr.InvariantViolation, "multiset.ValueSet.Read",
					fmt.Errorf("duplicate key %d at depth %d in stream", key, depth))
			}
			fresh.Insert(key, depth, value, Overwrite)
		}
	}
	*s = *fresh
	return nil
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
