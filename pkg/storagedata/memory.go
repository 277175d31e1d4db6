package storagedata

import (
	"fmt"
	"os"
)

// Memory is an in-process [StorageData] backed by a byte slice. Backup and
// Rename are no-ops beyond bookkeeping since there is no file to move;
// Memory exists for tests and ephemeral graphs that never need to survive a
// process restart.
type Memory struct {
	data []byte
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Len() uint64 { return uint64(len(m.data)) }

func (m *Memory) ReadAt(pos uint64, p []byte) error {
	if pos+uint64(len(p)) > m.Len() {
		return fmt.Errorf("%w: read [%d,%d) beyond len %d", ErrOutOfBounds, pos, pos+uint64(len(p)), m.Len())
	}

	copy(p, m.data[pos:pos+uint64(len(p))])

	return nil
}

func (m *Memory) WriteAt(pos uint64, p []byte) error {
	if pos+uint64(len(p)) > m.Len() {
		return fmt.Errorf("%w: write [%d,%d) beyond len %d", ErrOutOfBounds, pos, pos+uint64(len(p)), m.Len())
	}

	copy(m.data[pos:pos+uint64(len(p))], p)

	return nil
}

func (m *Memory) Resize(n uint64) error {
	switch {
	case n <= uint64(len(m.data)):
		m.data = m.data[:n]
	case n <= uint64(cap(m.data)):
		grown := m.data[:n]
		clear(grown[len(m.data):])
		m.data = grown
	default:
		grown := make([]byte, n)
		copy(grown, m.data)
		m.data = grown
	}

	return nil
}

func (m *Memory) Flush() error { return nil }

// Backup copies the current contents to path on the real filesystem.
func (m *Memory) Backup(path string) error {
	return os.WriteFile(path, m.data, 0o644) //nolint:gosec
}

// Rename is a no-op: an in-memory store has no backing file location.
func (m *Memory) Rename(string) error { return nil }

func (m *Memory) Close() error { return nil }

var _ StorageData = (*Memory)(nil)
