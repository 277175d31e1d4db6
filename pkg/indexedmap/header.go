package indexedmap

import (
	"encoding/binary"
	"fmt"

	"github.com/calvinalkan/graphdb/pkg/dbvalue"
	"github.com/calvinalkan/graphdb/pkg/storage"
)

// headerSize is the on-disk size of a [header]: two StorageIndexes
// (k2v, v2k), 8-byte little-endian each.
const headerSize = 16

// header is the small persisted record anchoring an IndexedMap: the
// StorageIndex of each of its two constituent Maps.
type header struct {
	k2v storage.StorageIndex
	v2k storage.StorageIndex
}

func (h header) MarshalBinary() ([]byte, error) {
	b := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(b[0:8], uint64(h.k2v))
	binary.LittleEndian.PutUint64(b[8:16], uint64(h.v2k))

	return b, nil
}

func (h *header) UnmarshalBinary(b []byte) error {
	if len(b) != headerSize {
		return fmt.Errorf("%w: indexedmap header wants %d bytes, got %d", dbvalue.ErrCorrupt, headerSize, len(b))
	}

	h.k2v = storage.StorageIndex(binary.LittleEndian.Uint64(b[0:8]))
	h.v2k = storage.StorageIndex(binary.LittleEndian.Uint64(b[8:16]))

	return nil
}
