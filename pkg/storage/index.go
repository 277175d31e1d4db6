package storage

import (
	"encoding/binary"
	"fmt"

	"github.com/calvinalkan/graphdb/pkg/dbvalue"
)

// StorageIndex identifies a record within a Storage. Index 0 is a sentinel
// ("not a record" / free-list head) and is never returned from an insert.
type StorageIndex uint64

// NoIndex is the sentinel StorageIndex value.
const NoIndex StorageIndex = 0

func (i StorageIndex) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, uint64(i))

	return b, nil
}

func (i *StorageIndex) UnmarshalBinary(b []byte) error {
	if len(b) != 8 {
		return fmt.Errorf("%w: StorageIndex wants 8 bytes, got %d", dbvalue.ErrCorrupt, len(b))
	}

	*i = StorageIndex(binary.LittleEndian.Uint64(b))

	return nil
}

func (StorageIndex) BinarySize() uint64 { return 8 }
