package wal

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/calvinalkan/graphdb/pkg/storagedata"
)

// recordHeaderSize is the on-disk size of a record's (pos, len) header.
const recordHeaderSize = 16

// crc32cTable is the Castagnoli polynomial table, matching the checksum the
// teacher's own write-ahead log uses for its footer.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// Record is one write-ahead log entry. An empty Bytes means "truncate the
// protected store to Pos"; otherwise Bytes is the pre-image to restore at
// Pos.
type Record struct {
	Pos   uint64
	Bytes []byte
}

// IsTruncate reports whether this record means "truncate to Pos" rather
// than "restore Bytes at Pos".
func (r Record) IsTruncate() bool { return len(r.Bytes) == 0 }

// Log is a write-ahead log backed by its own [storagedata.StorageData].
// Records are appended in write order; [Log.Records] returns them in that
// same order, and callers wanting crash recovery must apply them in
// reverse.
type Log struct {
	data storagedata.StorageData
}

// Open wraps data as a write-ahead log. data is expected to already hold
// whatever records survived the previous session (or be empty).
func Open(data storagedata.StorageData) *Log {
	return &Log{data: data}
}

// Insert appends a new record. An empty bytes records a truncate-to-pos
// entry.
func (l *Log) Insert(pos uint64, bytes []byte) error {
	rec := make([]byte, recordHeaderSize+len(bytes)+4)
	binary.LittleEndian.PutUint64(rec[0:8], pos)
	binary.LittleEndian.PutUint64(rec[8:16], uint64(len(bytes)))
	copy(rec[recordHeaderSize:], bytes)
	binary.LittleEndian.PutUint32(rec[len(rec)-4:], crc32.Checksum(bytes, crc32cTable))

	oldLen := l.data.Len()
	if err := l.data.Resize(oldLen + uint64(len(rec))); err != nil {
		return fmt.Errorf("wal: grow log: %w", err)
	}

	if err := l.data.WriteAt(oldLen, rec); err != nil {
		return fmt.Errorf("wal: append record: %w", err)
	}

	return nil
}

// Records parses every record currently in the log, in insertion order.
//
// Parsing stops at the first malformed record or checksum mismatch instead
// of returning an error: a log that was only partially written during a
// crash degrades to "as if the log were truncated right before the bad
// record", which is always at least as conservative as trusting it.
func (l *Log) Records() ([]Record, error) {
	var records []Record

	pos := uint64(0)
	total := l.data.Len()

	for pos+recordHeaderSize <= total {
		header := make([]byte, recordHeaderSize)
		if err := l.data.ReadAt(pos, header); err != nil {
			return nil, fmt.Errorf("wal: read record header at %d: %w", pos, err)
		}

		recPos := binary.LittleEndian.Uint64(header[0:8])
		recLen := binary.LittleEndian.Uint64(header[8:16])

		if pos+recordHeaderSize+recLen+4 > total {
			break
		}

		body := make([]byte, recLen+4)
		if err := l.data.ReadAt(pos+recordHeaderSize, body); err != nil {
			return nil, fmt.Errorf("wal: read record body at %d: %w", pos, err)
		}

		bytes, wantCRC := body[:recLen], binary.LittleEndian.Uint32(body[recLen:])
		if crc32.Checksum(bytes, crc32cTable) != wantCRC {
			break
		}

		rec := Record{Pos: recPos}
		if recLen > 0 {
			rec.Bytes = append([]byte(nil), bytes...)
		}

		records = append(records, rec)
		pos += recordHeaderSize + recLen + 4
	}

	return records, nil
}

// Clear truncates the log to empty. Callers must do this only after every
// record has either been applied or is known to be redundant (the commit
// path clears after a successful depth-0 commit; recovery clears after
// replay).
func (l *Log) Clear() error {
	if err := l.data.Resize(0); err != nil {
		return fmt.Errorf("wal: clear: %w", err)
	}

	return nil
}

// Close flushes and releases the underlying store.
func (l *Log) Close() error {
	if err := l.data.Flush(); err != nil {
		return fmt.Errorf("wal: flush on close: %w", err)
	}

	if err := l.data.Close(); err != nil {
		return fmt.Errorf("wal: close: %w", err)
	}

	return nil
}

// Apply replays recs in reverse order against apply, which must perform the
// restore (non-empty bytes) or truncate (empty bytes) described by each
// record. Apply stops and returns the first error apply reports.
func Apply(recs []Record, apply func(rec Record) error) error {
	for i := len(recs) - 1; i >= 0; i-- {
		if err := apply(recs[i]); err != nil {
			return err
		}
	}

	return nil
}
