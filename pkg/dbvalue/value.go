package dbvalue

import (
	"encoding/binary"
	"fmt"
	"math"
)

// StaticSizer is implemented by fixed-size value types so that storage
// containers (see pkg/dbvec.Codec, pkg/dbmap) can compute slot layouts
// without serializing a value first.
type StaticSizer interface {
	// BinarySize returns the constant number of bytes [encoding.BinaryMarshaler]
	// produces for any value of this type.
	BinarySize() uint64
}

// Uint64 is a fixed-size unsigned 64-bit value, little-endian encoded.
type Uint64 uint64

func (v Uint64) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))

	return b, nil
}

func (v *Uint64) UnmarshalBinary(b []byte) error {
	if len(b) != 8 {
		return fmt.Errorf("%w: Uint64 wants 8 bytes, got %d", ErrCorrupt, len(b))
	}

	*v = Uint64(binary.LittleEndian.Uint64(b))

	return nil
}

func (Uint64) BinarySize() uint64 { return 8 }

// Int64 is a fixed-size signed 64-bit value, little-endian encoded.
//
// Node and edge identifiers in [pkg/graph] are represented as Int64: positive
// values name nodes, negative values name edges.
type Int64 int64

func (v Int64) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(v))

	return b, nil
}

func (v *Int64) UnmarshalBinary(b []byte) error {
	if len(b) != 8 {
		return fmt.Errorf("%w: Int64 wants 8 bytes, got %d", ErrCorrupt, len(b))
	}

	*v = Int64(binary.LittleEndian.Uint64(b))

	return nil
}

func (Int64) BinarySize() uint64 { return 8 }

// Float64 is a fixed-size IEEE-754 double, little-endian encoded.
type Float64 float64

func (v Float64) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(float64(v)))

	return b, nil
}

func (v *Float64) UnmarshalBinary(b []byte) error {
	if len(b) != 8 {
		return fmt.Errorf("%w: Float64 wants 8 bytes, got %d", ErrCorrupt, len(b))
	}

	*v = Float64(math.Float64frombits(binary.LittleEndian.Uint64(b)))

	return nil
}

func (Float64) BinarySize() uint64 { return 8 }

// Bool is a fixed-size one-byte boolean: 0 for false, 1 for any other value.
type Bool bool

func (v Bool) MarshalBinary() ([]byte, error) {
	if v {
		return []byte{1}, nil
	}

	return []byte{0}, nil
}

func (v *Bool) UnmarshalBinary(b []byte) error {
	if len(b) != 1 {
		return fmt.Errorf("%w: Bool wants 1 byte, got %d", ErrCorrupt, len(b))
	}

	*v = b[0] != 0

	return nil
}

func (Bool) BinarySize() uint64 { return 1 }

// Bytes is a variable-length byte string. Unlike [String], it is stored
// without further interpretation.
type Bytes []byte

func (v Bytes) MarshalBinary() ([]byte, error) {
	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (v *Bytes) UnmarshalBinary(b []byte) error {
	*v = append(Bytes(nil), b...)

	return nil
}

// SerializedSize returns the number of bytes this value's serialization
// occupies, for variable-size types that do not implement [StaticSizer].
func (v Bytes) SerializedSize() uint64 { return uint64(len(v)) }

// String is a variable-length UTF-8 string, stored as its raw bytes.
type String string

func (v String) MarshalBinary() ([]byte, error) {
	return []byte(v), nil
}

func (v *String) UnmarshalBinary(b []byte) error {
	*v = String(b)

	return nil
}

func (v String) SerializedSize() uint64 { return uint64(len(v)) }
