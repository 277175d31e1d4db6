package dbvalue

import "encoding/binary"

// Int64Slice serializes as an 8-byte little-endian length followed by the
// concatenated 8-byte little-endian elements. This is the format a whole
// []int64 takes when inserted as a single storage value, as opposed to
// [pkg/dbvec.DbVec] which stores each element in its own growable slot.
type Int64Slice []int64

func (v Int64Slice) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8+8*len(v))
	binary.LittleEndian.PutUint64(b, uint64(len(v)))

	for i, e := range v {
		binary.LittleEndian.PutUint64(b[8+8*i:], uint64(e))
	}

	return b, nil
}

func (v *Int64Slice) UnmarshalBinary(b []byte) error {
	n, rest, err := decodeLen(b)
	if err != nil {
		return err
	}

	if n > uint64(len(rest))/8 {
		return ErrCorrupt
	}

	out := make(Int64Slice, n)

	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(rest[8*i:]))
	}

	*v = out

	return nil
}

// Uint64Slice is the unsigned counterpart of [Int64Slice].
type Uint64Slice []uint64

func (v Uint64Slice) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8+8*len(v))
	binary.LittleEndian.PutUint64(b, uint64(len(v)))

	for i, e := range v {
		binary.LittleEndian.PutUint64(b[8+8*i:], e)
	}

	return b, nil
}

func (v *Uint64Slice) UnmarshalBinary(b []byte) error {
	n, rest, err := decodeLen(b)
	if err != nil {
		return err
	}

	if n > uint64(len(rest))/8 {
		return ErrCorrupt
	}

	out := make(Uint64Slice, n)

	for i := range out {
		out[i] = binary.LittleEndian.Uint64(rest[8*i:])
	}

	*v = out

	return nil
}

// StringSlice serializes as an 8-byte length followed by each element
// encoded as an 8-byte byte-length prefix and its UTF-8 bytes.
type StringSlice []string

func (v StringSlice) MarshalBinary() ([]byte, error) {
	size := 8
	for _, s := range v {
		size += 8 + len(s)
	}

	b := make([]byte, size)
	binary.LittleEndian.PutUint64(b, uint64(len(v)))
	off := 8

	for _, s := range v {
		binary.LittleEndian.PutUint64(b[off:], uint64(len(s)))
		off += 8
		off += copy(b[off:], s)
	}

	return b, nil
}

func (v *StringSlice) UnmarshalBinary(b []byte) error {
	n, rest, err := decodeLen(b)
	if err != nil {
		return err
	}

	out := make(StringSlice, n)

	for i := range out {
		sLen, tail, err := decodeLen(rest)
		if err != nil {
			return err
		}

		if uint64(len(tail)) < sLen {
			return ErrCorrupt
		}

		out[i] = string(tail[:sLen])
		rest = tail[sLen:]
	}

	*v = out

	return nil
}

func decodeLen(b []byte) (uint64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, ErrCorrupt
	}

	return binary.LittleEndian.Uint64(b), b[8:], nil
}
