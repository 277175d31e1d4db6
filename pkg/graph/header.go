package graph

import (
	"encoding/binary"
	"fmt"

	"github.com/calvinalkan/graphdb/pkg/dbvalue"
	"github.com/calvinalkan/graphdb/pkg/storage"
)

// headerSize is the on-disk size of a [header]: four StorageIndexes
// (from, to, fromMeta, toMeta), 8-byte little-endian each.
const headerSize = 32

// header is the small persisted record anchoring a Graph: the StorageIndex
// of each of its four backing DbVecs.
type header struct {
	from     storage.StorageIndex
	to       storage.StorageIndex
	fromMeta storage.StorageIndex
	toMeta   storage.StorageIndex
}

func (h header) MarshalBinary() ([]byte, error) {
	b := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(b[0:8], uint64(h.from))
	binary.LittleEndian.PutUint64(b[8:16], uint64(h.to))
	binary.LittleEndian.PutUint64(b[16:24], uint64(h.fromMeta))
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.toMeta))

	return b, nil
}

func (h *header) UnmarshalBinary(b []byte) error {
	if len(b) != headerSize {
		return fmt.Errorf("%w: graph header wants %d bytes, got %d", dbvalue.ErrCorrupt, headerSize, len(b))
	}

	h.from = storage.StorageIndex(binary.LittleEndian.Uint64(b[0:8]))
	h.to = storage.StorageIndex(binary.LittleEndian.Uint64(b[8:16]))
	h.fromMeta = storage.StorageIndex(binary.LittleEndian.Uint64(b[16:24]))
	h.toMeta = storage.StorageIndex(binary.LittleEndian.Uint64(b[24:32]))

	return nil
}
