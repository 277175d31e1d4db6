package dbmap

import (
	"fmt"

	"github.com/calvinalkan/graphdb/pkg/dbvalue"
	"github.com/calvinalkan/graphdb/pkg/storage"
)

// valueState is the one-byte tombstone discriminant for a probe slot.
// Empty terminates probing; Deleted is a reusable tombstone that lets
// probing continue past it.
type valueState byte

const (
	stateEmpty   valueState = 0
	stateValid   valueState = 1
	stateDeleted valueState = 2
)

func (s valueState) MarshalBinary() ([]byte, error) {
	return []byte{byte(s)}, nil
}

func (s *valueState) UnmarshalBinary(b []byte) error {
	if len(b) != 1 {
		return fmt.Errorf("%w: valueState wants 1 byte, got %d", dbvalue.ErrCorrupt, len(b))
	}

	*s = valueState(b[0])

	return nil
}

func (valueState) BinarySize() uint64 { return 1 }

// stateCodec is the fixed-size dbvec.Codec for valueState.
type stateCodec struct{}

func (stateCodec) StorageLen() uint64 { return 1 }

func (stateCodec) Store(_ *storage.Storage, v valueState) ([]byte, error) {
	return v.MarshalBinary()
}

func (stateCodec) Load(_ *storage.Storage, slot []byte) (valueState, error) {
	var v valueState
	if err := v.UnmarshalBinary(slot); err != nil {
		return 0, err
	}

	return v, nil
}

func (stateCodec) Remove(*storage.Storage, []byte) error { return nil }
