package multiset

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/geoinvert/tdtcount/tdterr"
)

// Write serialises s as: int32 depth count, then for each depth
// (ascending): int32 depth, int32 key count, then the keys in
// ascending order as int32s.
func (s *Set) Write(w io.Writer) error {
	if err := writeInt32(w, int32(len(s.depths))); err != nil {
		return tdterr.New(tdterr.IOFailure, "multiset.Set.Write", err)
	}
	for _, d := range s.depths {
		keys := s.byDepth[d]
		if err := writeInt32(w, d); err != nil {
			return tdterr.New(tdterr.IOFailure, "multiset.Set.Write", err)
		}
		if err := writeInt32(w, int32(len(keys))); err != nil {
			return tdterr.New(tdterr.IOFailure, "multiset.Set.Write", err)
		}
		for _, k := range keys {
			if err := writeInt32(w, k); err != nil {
				return tdterr.New(tdterr.IOFailure, "multiset.Set.Write", err)
			}
		}
	}
	return nil
}

// Read replaces s's contents with the stream produced by Write.
func (s *Set) Read(r io.Reader) error {
	depthCount, err := readInt32(r)
	if err != nil {
		return tdterr.New(tdterr.IOFailure, "multiset.Set.Read", err)
	}
	fresh := NewSet()
	for i := int32(0); i < depthCount; i++ {
		depth, err := readInt32(r)
		if err != nil {
			return tdterr.New(tdterr.IOFailure, "multiset.Set.Read", err)
		}
		keyCount, err := readInt32(r)
		if err != nil {
			return tdterr.New(tdterr.IOFailure, "multiset.Set.Read", err)
		}
		for j := int32(0); j < keyCount; j++ {
			key, err := readInt32(r)
			if err != nil {
				return tdterr.New(tdterr.IOFailure, "multiset.Set.Read", err)
			}
			if !fresh.Insert(key, depth) {
				return tdterr.New(tdterr.InvariantViolation, "multiset.Set.Read",
					fmt.Errorf("duplicate key %d at depth %d in stream", key, depth))
			}
		}
	}
	*s = *fresh
	return nil
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
