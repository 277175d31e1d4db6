package dbvec

import (
	"github.com/calvinalkan/graphdb/pkg/dbvalue"
	"github.com/calvinalkan/graphdb/pkg/storage"
)

// Codec gives DbVec the ability to store elements of type T without DbVec
// itself knowing whether T is fixed-size (stored inline) or variable-size
// (stored as an indirection to a child record). This is the Go counterpart
// of the VecValue capability elements must satisfy.
type Codec[T any] interface {
	// StorageLen returns the fixed number of bytes a slot occupies,
	// regardless of T's own size.
	StorageLen() uint64

	// Store prepares v for writing into a slot: for variable-size T this
	// inserts a child record and returns the serialized reference to it;
	// for fixed-size T it returns the serialized value directly.
	Store(s *storage.Storage, v T) ([]byte, error)

	// Load is Store's inverse.
	Load(s *storage.Storage, slot []byte) (T, error)

	// Remove releases any child record Store allocated for slot. It is a
	// no-op for fixed-size T.
	Remove(s *storage.Storage, slot []byte) error
}

// Int64Codec stores int64 elements inline, 8 bytes each.
type Int64Codec struct{}

func (Int64Codec) StorageLen() uint64 { return 8 }

func (Int64Codec) Store(_ *storage.Storage, v int64) ([]byte, error) {
	return dbvalue.Int64(v).MarshalBinary()
}

func (Int64Codec) Load(_ *storage.Storage, slot []byte) (int64, error) {
	var v dbvalue.Int64
	if err := v.UnmarshalBinary(slot); err != nil {
		return 0, err
	}

	return int64(v), nil
}

func (Int64Codec) Remove(*storage.Storage, []byte) error { return nil }

// Uint64Codec stores uint64 elements inline, 8 bytes each.
type Uint64Codec struct{}

func (Uint64Codec) StorageLen() uint64 { return 8 }

func (Uint64Codec) Store(_ *storage.Storage, v uint64) ([]byte, error) {
	return dbvalue.Uint64(v).MarshalBinary()
}

func (Uint64Codec) Load(_ *storage.Storage, slot []byte) (uint64, error) {
	var v dbvalue.Uint64
	if err := v.UnmarshalBinary(slot); err != nil {
		return 0, err
	}

	return uint64(v), nil
}

func (Uint64Codec) Remove(*storage.Storage, []byte) error { return nil }

// Float64Codec stores float64 elements inline, 8 bytes each.
type Float64Codec struct{}

func (Float64Codec) StorageLen() uint64 { return 8 }

func (Float64Codec) Store(_ *storage.Storage, v float64) ([]byte, error) {
	return dbvalue.Float64(v).MarshalBinary()
}

func (Float64Codec) Load(_ *storage.Storage, slot []byte) (float64, error) {
	var v dbvalue.Float64
	if err := v.UnmarshalBinary(slot); err != nil {
		return 0, err
	}

	return float64(v), nil
}

func (Float64Codec) Remove(*storage.Storage, []byte) error { return nil }

// StorageIndexCodec stores [storage.StorageIndex] elements inline, 8 bytes
// each. Useful for collections that persist references to other records
// directly (for example a DbVec of child-record handles).
type StorageIndexCodec struct{}

func (StorageIndexCodec) StorageLen() uint64 { return 8 }

func (StorageIndexCodec) Store(_ *storage.Storage, v storage.StorageIndex) ([]byte, error) {
	return v.MarshalBinary()
}

func (StorageIndexCodec) Load(_ *storage.Storage, slot []byte) (storage.StorageIndex, error) {
	var v storage.StorageIndex
	if err := v.UnmarshalBinary(slot); err != nil {
		return 0, err
	}

	return v, nil
}

func (StorageIndexCodec) Remove(*storage.Storage, []byte) error { return nil }

// StringCodec stores string elements as an 8-byte child-record reference;
// the string bytes themselves live in their own record.
type StringCodec struct{}

func (StringCodec) StorageLen() uint64 { return 8 }

func (StringCodec) Store(s *storage.Storage, v string) ([]byte, error) {
	idx, err := s.Insert(dbvalue.String(v))
	if err != nil {
		return nil, err
	}

	return idx.MarshalBinary()
}

func (StringCodec) Load(s *storage.Storage, slot []byte) (string, error) {
	var idx storage.StorageIndex
	if err := idx.UnmarshalBinary(slot); err != nil {
		return "", err
	}

	var v dbvalue.String
	if err := s.Value(idx, &v); err != nil {
		return "", err
	}

	return string(v), nil
}

func (StringCodec) Remove(s *storage.Storage, slot []byte) error {
	var idx storage.StorageIndex
	if err := idx.UnmarshalBinary(slot); err != nil {
		return err
	}

	return s.Remove(idx)
}

// BytesCodec stores []byte elements as an 8-byte child-record reference.
type BytesCodec struct{}

func (BytesCodec) StorageLen() uint64 { return 8 }

func (BytesCodec) Store(s *storage.Storage, v []byte) ([]byte, error) {
	idx, err := s.Insert(dbvalue.Bytes(v))
	if err != nil {
		return nil, err
	}

	return idx.MarshalBinary()
}

func (BytesCodec) Load(s *storage.Storage, slot []byte) ([]byte, error) {
	var idx storage.StorageIndex
	if err := idx.UnmarshalBinary(slot); err != nil {
		return nil, err
	}

	var v dbvalue.Bytes
	if err := s.Value(idx, &v); err != nil {
		return nil, err
	}

	return v, nil
}

func (BytesCodec) Remove(s *storage.Storage, slot []byte) error {
	var idx storage.StorageIndex
	if err := idx.UnmarshalBinary(slot); err != nil {
		return err
	}

	return s.Remove(idx)
}
