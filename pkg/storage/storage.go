package storage

import (
	"encoding"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/calvinalkan/graphdb/pkg/storagedata"
	"github.com/calvinalkan/graphdb/pkg/wal"
)

// Storage is a record manager: it allocates independently resizable,
// serialized-value records on top of a [storagedata.StorageData], making
// every mutation crash-safe via a [wal.Log] written ahead of the data.
//
// Storage is not safe for concurrent use; callers serialize access (see
// the package-level scheduling model in the collections built on top of
// it).
type Storage struct {
	data    storagedata.StorageData
	log     *wal.Log
	records *recordTable
	depth   int
}

// Open recovers data by replaying walData in reverse, then sweeps the
// recovered data to rebuild the in-memory record table.
func Open(data storagedata.StorageData, walData storagedata.StorageData) (*Storage, error) {
	log := wal.Open(walData)

	recs, err := log.Records()
	if err != nil {
		return nil, fmt.Errorf("storage: read wal: %w", err)
	}

	err = wal.Apply(recs, func(rec wal.Record) error {
		if rec.IsTruncate() {
			return data.Resize(rec.Pos)
		}

		if rec.Pos+uint64(len(rec.Bytes)) > data.Len() {
			if err := data.Resize(rec.Pos + uint64(len(rec.Bytes))); err != nil {
				return err
			}
		}

		return data.WriteAt(rec.Pos, rec.Bytes)
	})
	if err != nil {
		return nil, fmt.Errorf("storage: replay wal: %w", err)
	}

	if err := data.Flush(); err != nil {
		return nil, fmt.Errorf("storage: flush after recovery: %w", err)
	}

	if err := log.Clear(); err != nil {
		return nil, fmt.Errorf("storage: clear wal after recovery: %w", err)
	}

	table, err := sweep(data)
	if err != nil {
		return nil, fmt.Errorf("storage: sweep records: %w", err)
	}

	return &Storage{data: data, log: log, records: table}, nil
}

func sweep(data storagedata.StorageData) (*recordTable, error) {
	found := make(map[uint64]record)

	pos := uint64(0)
	total := data.Len()

	for pos+headerSize <= total {
		header := make([]byte, headerSize)
		if err := data.ReadAt(pos, header); err != nil {
			return nil, err
		}

		index := binary.LittleEndian.Uint64(header[0:8])
		size := binary.LittleEndian.Uint64(header[8:16])

		if pos+headerSize+size > total {
			return nil, fmt.Errorf("%w: record at %d overruns file", ErrCorruptHeader, pos)
		}

		if index != 0 {
			found[index] = record{index: index, pos: pos, size: size}
		}

		pos += headerSize + size
	}

	return rebuildRecordTable(found), nil
}

// Len returns the current length of the underlying data store.
func (s *Storage) Len() uint64 { return s.data.Len() }

// Insert serializes v into a new record, reusing a free-list index if one
// is available, and returns its index.
func (s *Storage) Insert(v encoding.BinaryMarshaler) (StorageIndex, error) {
	id := s.Transaction()

	bytes, err := v.MarshalBinary()
	if err != nil {
		return 0, fmt.Errorf("storage: marshal value: %w", err)
	}

	idx := s.records.allocate(s.data.Len(), uint64(len(bytes)))

	if err := s.writeHeaderAndValue(idx, bytes); err != nil {
		return 0, err
	}

	if err := s.Commit(id); err != nil {
		return 0, err
	}

	return idx, nil
}

func (s *Storage) writeHeaderAndValue(i StorageIndex, value []byte) error {
	r, _ := s.records.get(i)

	header := make([]byte, headerSize+len(value))
	binary.LittleEndian.PutUint64(header[0:8], uint64(i))
	binary.LittleEndian.PutUint64(header[8:16], uint64(len(value)))
	copy(header[headerSize:], value)

	return s.protectedWrite(r.pos, header)
}

// InsertAt writes v's bytes at offset within record i's value, growing the
// record if the write extends past its current size (see the growth
// policy on [Storage.ResizeValue]).
func (s *Storage) InsertAt(i StorageIndex, offset uint64, v encoding.BinaryMarshaler) error {
	r, ok := s.records.get(i)
	if !ok {
		return fmt.Errorf("%w: %d", ErrIndexNotFound, i)
	}

	bytes, err := v.MarshalBinary()
	if err != nil {
		return fmt.Errorf("storage: marshal value: %w", err)
	}

	id := s.Transaction()

	needSize := offset + uint64(len(bytes))
	if needSize > r.size {
		if err := s.resizeRecordValue(i, needSize); err != nil {
			return err
		}

		r, _ = s.records.get(i)
	}

	if err := s.protectedWrite(r.pos+headerSize+offset, bytes); err != nil {
		return err
	}

	return s.Commit(id)
}

// Remove invalidates record i's on-disk header and returns its index to
// the free list. The value bytes remain on disk until [Storage.ShrinkToFit].
func (s *Storage) Remove(i StorageIndex) error {
	id := s.Transaction()

	r, ok := s.records.get(i)
	if !ok {
		return fmt.Errorf("%w: %d", ErrIndexNotFound, i)
	}

	zero := make([]byte, 8)
	if err := s.protectedWrite(r.pos, zero); err != nil {
		return err
	}

	s.records.free(i)

	return s.Commit(id)
}

// ResizeValue enlarges or shrinks record i's value to exactly n bytes.
//
// If i is the last record in the file, it is extended or truncated in
// place. Otherwise the value is relocated to EOF, the old header is
// invalidated, and the gap is reclaimed by a later [Storage.ShrinkToFit].
func (s *Storage) ResizeValue(i StorageIndex, n uint64) error {
	if _, ok := s.records.get(i); !ok {
		return fmt.Errorf("%w: %d", ErrIndexNotFound, i)
	}

	id := s.Transaction()

	if err := s.resizeRecordValue(i, n); err != nil {
		return err
	}

	return s.Commit(id)
}

func (s *Storage) resizeRecordValue(i StorageIndex, n uint64) error {
	r, _ := s.records.get(i)

	if s.isLastRecord(r) {
		if n > r.size {
			pad := make([]byte, n-r.size)
			if err := s.protectedWrite(r.pos+headerSize+r.size, pad); err != nil {
				return err
			}
		} else if n < r.size {
			if err := s.truncateTo(r.pos + headerSize + n); err != nil {
				return err
			}
		}

		if err := s.rewriteSize(i, n); err != nil {
			return err
		}

		s.records.setPosSize(i, r.pos, n)

		return nil
	}

	return s.relocateToEnd(i, n)
}

func (s *Storage) isLastRecord(r record) bool {
	return r.pos+headerSize+r.size == s.data.Len()
}

func (s *Storage) rewriteSize(i StorageIndex, n uint64) error {
	r, _ := s.records.get(i)

	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, n)

	return s.protectedWrite(r.pos+8, b)
}

// relocateToEnd copies record i's existing value (up to min(oldSize,
// newSize) bytes, zero-padded to newSize) to a fresh region at EOF,
// invalidates the old header, and updates the record table in place so i
// keeps its identity.
func (s *Storage) relocateToEnd(i StorageIndex, newSize uint64) error {
	r, _ := s.records.get(i)

	old := make([]byte, r.size)
	if err := s.data.ReadAt(r.pos+headerSize, old); err != nil {
		return fmt.Errorf("storage: read value for relocation: %w", err)
	}

	value := make([]byte, newSize)
	copy(value, old[:min(uint64(len(old)), newSize)])

	newPos := s.data.Len()

	header := make([]byte, headerSize+len(value))
	binary.LittleEndian.PutUint64(header[0:8], uint64(i))
	binary.LittleEndian.PutUint64(header[8:16], newSize)
	copy(header[headerSize:], value)

	if err := s.protectedWrite(newPos, header); err != nil {
		return err
	}

	zero := make([]byte, 8)
	if err := s.protectedWrite(r.pos, zero); err != nil {
		return err
	}

	s.records.setPosSize(i, newPos, newSize)

	return nil
}

// MoveAt copies size bytes within record i's value from offset from to
// offset to, zeroing the source bytes not overlapped by the destination.
// The record grows if to+size exceeds its current size.
func (s *Storage) MoveAt(i StorageIndex, from, to, size uint64) error {
	r, ok := s.records.get(i)
	if !ok {
		return fmt.Errorf("%w: %d", ErrIndexNotFound, i)
	}

	if from+size > r.size {
		return fmt.Errorf("%w: move source [%d,%d) exceeds value size %d", ErrOutOfRange, from, from+size, r.size)
	}

	id := s.Transaction()

	if to+size > r.size {
		if err := s.resizeRecordValue(i, to+size); err != nil {
			return err
		}

		r, _ = s.records.get(i)
	}

	buf := make([]byte, size)
	if err := s.data.ReadAt(r.pos+headerSize+from, buf); err != nil {
		return fmt.Errorf("storage: read move source: %w", err)
	}

	if err := s.protectedWrite(r.pos+headerSize+to, buf); err != nil {
		return err
	}

	if err := s.zeroUnoverlapped(r, from, to, size); err != nil {
		return err
	}

	return s.Commit(id)
}

func (s *Storage) zeroUnoverlapped(r record, from, to, size uint64) error {
	srcStart, srcEnd := from, from+size
	dstStart, dstEnd := to, to+size

	overlapStart := max(srcStart, dstStart)
	overlapEnd := min(srcEnd, dstEnd)

	for _, seg := range [][2]uint64{{srcStart, overlapStart}, {overlapEnd, srcEnd}} {
		if seg[1] <= seg[0] {
			continue
		}

		zero := make([]byte, seg[1]-seg[0])
		if err := s.protectedWrite(r.pos+headerSize+seg[0], zero); err != nil {
			return err
		}
	}

	return nil
}

// Value deserializes record i's full value into out.
func (s *Storage) Value(i StorageIndex, out encoding.BinaryUnmarshaler) error {
	r, ok := s.records.get(i)
	if !ok {
		return fmt.Errorf("%w: %d", ErrIndexNotFound, i)
	}

	buf := make([]byte, r.size)
	if err := s.data.ReadAt(r.pos+headerSize, buf); err != nil {
		return fmt.Errorf("storage: read value: %w", err)
	}

	if err := out.UnmarshalBinary(buf); err != nil {
		return fmt.Errorf("storage: unmarshal value: %w", err)
	}

	return nil
}

// ValueAt deserializes n bytes at offset within record i's value into out.
func (s *Storage) ValueAt(i StorageIndex, offset, n uint64, out encoding.BinaryUnmarshaler) error {
	buf, err := s.ValueBytesAtSize(i, offset, n)
	if err != nil {
		return err
	}

	if err := out.UnmarshalBinary(buf); err != nil {
		return fmt.Errorf("storage: unmarshal value: %w", err)
	}

	return nil
}

// ValueBytesAtSize returns the raw n bytes at offset within record i's
// value, without interpretation.
func (s *Storage) ValueBytesAtSize(i StorageIndex, offset, n uint64) ([]byte, error) {
	r, ok := s.records.get(i)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrIndexNotFound, i)
	}

	if offset+n > r.size {
		return nil, fmt.Errorf("%w: [%d,%d) exceeds value size %d", ErrOutOfRange, offset, offset+n, r.size)
	}

	buf := make([]byte, n)
	if err := s.data.ReadAt(r.pos+headerSize+offset, buf); err != nil {
		return nil, fmt.Errorf("storage: read value: %w", err)
	}

	return buf, nil
}

// ValueSize returns record i's current value size in bytes.
func (s *Storage) ValueSize(i StorageIndex) (uint64, error) {
	r, ok := s.records.get(i)
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrIndexNotFound, i)
	}

	return r.size, nil
}

// ShrinkToFit compacts the store in place: live records are sorted by
// current position and slid downward to close gaps left by removed or
// relocated records, then the file is truncated to the new end.
func (s *Storage) ShrinkToFit() error {
	id := s.Transaction()

	live := s.records.live()

	sort.Slice(live, func(a, b int) bool { return live[a].Rec.pos < live[b].Rec.pos })

	dst := uint64(0)

	for _, entry := range live {
		r := entry.Rec
		recordLen := headerSize + r.size

		if r.pos != dst {
			buf := make([]byte, recordLen)
			if err := s.data.ReadAt(r.pos, buf); err != nil {
				return fmt.Errorf("storage: read record %d for compaction: %w", entry.Index, err)
			}

			if err := s.protectedWrite(dst, buf); err != nil {
				return err
			}

			s.records.setPosSize(entry.Index, dst, r.size)
		}

		dst += recordLen
	}

	if err := s.truncateTo(dst); err != nil {
		return err
	}

	return s.Commit(id)
}

func (s *Storage) truncateTo(n uint64) error {
	if err := s.log.Insert(n, nil); err != nil {
		return fmt.Errorf("storage: wal truncate record: %w", err)
	}

	if err := s.data.Resize(n); err != nil {
		return fmt.Errorf("storage: resize: %w", err)
	}

	return nil
}

// protectedWrite is the single write path every mutation funnels through:
// it records the pre-image (or a truncate record for newly appended bytes)
// in the write-ahead log before the data write lands, per the write
// ordering durability rule.
func (s *Storage) protectedWrite(pos uint64, data []byte) error {
	curLen := s.data.Len()
	end := pos + uint64(len(data))

	switch {
	case pos >= curLen:
		if err := s.log.Insert(curLen, nil); err != nil {
			return fmt.Errorf("storage: wal record: %w", err)
		}
	case end > curLen:
		preimage := make([]byte, curLen-pos)
		if err := s.data.ReadAt(pos, preimage); err != nil {
			return fmt.Errorf("storage: read preimage: %w", err)
		}

		if err := s.log.Insert(pos, preimage); err != nil {
			return fmt.Errorf("storage: wal record: %w", err)
		}

		if err := s.log.Insert(curLen, nil); err != nil {
			return fmt.Errorf("storage: wal record: %w", err)
		}
	default:
		preimage := make([]byte, len(data))
		if err := s.data.ReadAt(pos, preimage); err != nil {
			return fmt.Errorf("storage: read preimage: %w", err)
		}

		if err := s.log.Insert(pos, preimage); err != nil {
			return fmt.Errorf("storage: wal record: %w", err)
		}
	}

	if end > curLen {
		if err := s.data.Resize(end); err != nil {
			return fmt.Errorf("storage: resize: %w", err)
		}
	}

	if err := s.data.WriteAt(pos, data); err != nil {
		return fmt.Errorf("storage: write: %w", err)
	}

	return nil
}

// Transaction opens a new transaction scope and returns its nesting depth.
func (s *Storage) Transaction() int {
	s.depth++

	return s.depth
}

// Commit closes the transaction scope identified by id, which must equal
// the current nesting depth. When the depth reaches 0, the data store is
// flushed and the write-ahead log is cleared, making every write in the
// outermost transaction durable atomically.
func (s *Storage) Commit(id int) error {
	if id != s.depth {
		return fmt.Errorf("%w: got %d, want %d", ErrWrongCommit, id, s.depth)
	}

	s.depth--

	if s.depth > 0 {
		return nil
	}

	if err := s.data.Flush(); err != nil {
		return fmt.Errorf("storage: flush on commit: %w", err)
	}

	if err := s.log.Clear(); err != nil {
		return fmt.Errorf("storage: clear wal on commit: %w", err)
	}

	return nil
}

// Close flushes any pending writes and releases the underlying stores.
//
// This mirrors the destructor behavior described for Storage: even if the
// caller never explicitly committed an in-flight transaction, the stored
// write-ahead log already holds enough information for the next [Open] to
// roll it back, so Close only needs to make sure that log reaches stable
// storage.
func (s *Storage) Close() error {
	if err := s.data.Flush(); err != nil {
		return fmt.Errorf("storage: flush on close: %w", err)
	}

	if err := s.data.Close(); err != nil {
		return fmt.Errorf("storage: close data: %w", err)
	}

	if err := s.log.Close(); err != nil {
		return fmt.Errorf("storage: close wal: %w", err)
	}

	return nil
}
