package dbmap

import (
	"encoding/binary"
	"fmt"

	"github.com/calvinalkan/graphdb/pkg/dbvalue"
	"github.com/calvinalkan/graphdb/pkg/storage"
)

// mapHeaderSize is the on-disk size of a [header]: len plus three child
// StorageIndexes (states, keys, values), all 8-byte little-endian.
const mapHeaderSize = 32

// header is the small persisted record anchoring a Map/MultiMap: the count
// of Valid slots, plus the three equal-capacity DbVec children that hold
// the actual open-addressing table. This is the Go counterpart of
// MapDataIndex in spec terms.
type header struct {
	len    uint64
	states storage.StorageIndex
	keys   storage.StorageIndex
	values storage.StorageIndex
}

func (h header) MarshalBinary() ([]byte, error) {
	b := make([]byte, mapHeaderSize)
	binary.LittleEndian.PutUint64(b[0:8], h.len)
	binary.LittleEndian.PutUint64(b[8:16], uint64(h.states))
	binary.LittleEndian.PutUint64(b[16:24], uint64(h.keys))
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.values))

	return b, nil
}

func (h *header) UnmarshalBinary(b []byte) error {
	if len(b) != mapHeaderSize {
		return fmt.Errorf("%w: dbmap header wants %d bytes, got %d", dbvalue.ErrCorrupt, mapHeaderSize, len(b))
	}

	h.len = binary.LittleEndian.Uint64(b[0:8])
	h.states = storage.StorageIndex(binary.LittleEndian.Uint64(b[8:16]))
	h.keys = storage.StorageIndex(binary.LittleEndian.Uint64(b[16:24]))
	h.values = storage.StorageIndex(binary.LittleEndian.Uint64(b[24:32]))

	return nil
}
