// Package bigint is the arbitrary-precision integer façade the
// counting engine memoises against. It wraps math/big so the rest of
// the module never imports math/big directly, and so the
// "negative value means not yet memoised" sentinel discipline
// spec §3 requires lives in exactly one place.
package bigint

import (
	"fmt"
	"io"
	"math/big"
)

// Int is an arbitrary-precision non-negative integer, or the
// negative sentinel meaning "not yet computed". All arithmetic is
// exact; there is no overflow path.
type Int struct {
	v big.Int
}

// New returns a zero-valued Int.
func New() *Int {
	return &Int{}
}

// Unmemoised returns the sentinel value used by every memo table in
// place of an uncomputed cell. Sign() on the result is -1.
func Unmemoised() *Int {
	i := &Int{}
	i.v.SetInt64(-1)
	return i
}

// IsUnmemoised reports whether i is the "not yet computed" sentinel.
func (i *Int) IsUnmemoised() bool {
	return i == nil || i.v.Sign() < 0
}

// SetUint64 sets i to v and returns i.
func (i *Int) SetUint64(v uint64) *Int {
	i.v.SetUint64(v)
	return i
}

// Sign returns -1, 0, or 1 as i is negative, zero, or positive.
func (i *Int) Sign() int { return i.v.Sign() }

// Set copies the value of a into i and returns i.
func (i *Int) Set(a *Int) *Int {
	i.v.Set(&a.v)
	return i
}

// Add sets i = a + b and returns i. a and b must both be
// non-negative; Add does not itself validate this, mirroring the
// façade's "used only for non-negative integers" contract.
func (i *Int) Add(a, b *Int) *Int {
	i.v.Add(&a.v, &b.v)
	return i
}

// Mul sets i = a * b and returns i.
func (i *Int) Mul(a, b *Int) *Int {
	i.v.Mul(&a.v, &b.v)
	return i
}

// Cmp compares i to a per math/big.Int.Cmp semantics.
func (i *Int) Cmp(a *Int) int { return i.v.Cmp(&a.v) }

// String returns the base-10 representation of i.
func (i *Int) String() string { return i.v.String() }

// Float64 converts i to the nearest representable float64, via an
// intermediate big.Float as spec §4.1 prescribes.
func (i *Int) Float64() float64 {
	f := new(big.Float).SetInt(&i.v)
	v, _ := f.Float64()
	return v
}

// Ratio returns numerator/denominator as the nearest representable
// float64, via an intermediate big.Float quotient. denominator must
// be non-zero. This is the only division the façade exposes: callers
// needing the count-ratio diagnostics of spec §4.3 have no other way
// to convert two arbitrary-precision counts into a single ratio
// without first going through this intermediate.
func Ratio(numerator, denominator *Int) float64 {
	num := new(big.Float).SetInt(&numerator.v)
	den := new(big.Float).SetInt(&denominator.v)
	q := new(big.Float).Quo(num, den)
	v, _ := q.Float64()
	return v
}

// WriteRaw writes i's big-endian two's-complement-free byte encoding
// to w, preceded by a length prefix, so ReadRaw can recover it
// without external framing. The sign is written as a single byte so
// the sentinel round-trips.
func (i *Int) WriteRaw(w io.Writer) error {
	sign := int8(i.v.Sign())
	if _, err := w.Write([]byte{byte(sign)}); err != nil {
		return err
	}
	raw := i.v.Bytes()
	length := uint32(len(raw))
	if err := writeUint32(w, length); err != nil {
		return err
	}
	if length == 0 {
		return nil
	}
	_, err := w.Write(raw)
	return err
}

// ReadRaw reads an encoding produced by WriteRaw into i and returns i.
func (i *Int) ReadRaw(r io.Reader) (*Int, error) {
	var signByte [1]byte
	if _, err := io.ReadFull(r, signByte[:]); err != nil {
		return nil, fmt.Errorf("bigint: reading sign: %w", err)
	}
	length, err := readUint32(r)
	if err != nil {
		return nil, fmt.Errorf("bigint: reading length: %w", err)
	}
	raw := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("bigint: reading magnitude: %w", err)
		}
	}
	i.v.SetBytes(raw)
	if int8(signByte[0]) < 0 {
		i.v.Neg(&i.v)
	}
	return i, nil
}

func writeUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v >> 16)
	buf[3] = byte(v >> 24)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24, nil
}
