package storagedata

import (
	"fmt"
	"os"
	"syscall"

	"github.com/natefinch/atomic"
)

// MappedFile is a [StorageData] that serves reads from a read-only mmap of
// the backing file and routes writes through ordinary WriteAt syscalls. The
// mapping is recreated whenever the file is resized, since a stale mapping
// would not reflect the new extent.
//
// MappedFile trades the per-read syscall cost of [File] for remap overhead
// on resize; it suits workloads with many reads and comparatively few
// growth events, such as replaying a large existing graph.
type MappedFile struct {
	path string
	f    *os.File
	data []byte // mmap'd region, length == size, nil when size == 0
	size uint64
}

// OpenMappedFile opens (creating if necessary) the file at path and maps it
// for reading. Unlike [OpenFile], MappedFile always uses the real OS file
// handle directly: mmap requires a concrete file descriptor, which [fs.FS]
// fault injection cannot meaningfully wrap.
func OpenMappedFile(path string) (*MappedFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("storagedata: open %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("storagedata: stat %q: %w", path, err)
	}

	m := &MappedFile{path: path, f: f}

	if err := m.remap(uint64(info.Size())); err != nil {
		_ = f.Close()

		return nil, err
	}

	return m, nil
}

func (m *MappedFile) remap(size uint64) error {
	if m.data != nil {
		if err := syscall.Munmap(m.data); err != nil {
			return fmt.Errorf("storagedata: munmap %q: %w", m.path, err)
		}

		m.data = nil
	}

	if size == 0 {
		m.size = 0

		return nil
	}

	data, err := syscall.Mmap(int(m.f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("storagedata: mmap %q: %w", m.path, err)
	}

	m.data = data
	m.size = size

	return nil
}

func (m *MappedFile) Len() uint64 { return m.size }

func (m *MappedFile) ReadAt(pos uint64, p []byte) error {
	if pos+uint64(len(p)) > m.size {
		return fmt.Errorf("%w: read [%d,%d) beyond len %d", ErrOutOfBounds, pos, pos+uint64(len(p)), m.size)
	}

	copy(p, m.data[pos:pos+uint64(len(p))])

	return nil
}

func (m *MappedFile) WriteAt(pos uint64, p []byte) error {
	if pos+uint64(len(p)) > m.size {
		return fmt.Errorf("%w: write [%d,%d) beyond len %d", ErrOutOfBounds, pos, pos+uint64(len(p)), m.size)
	}

	if _, err := m.f.WriteAt(p, int64(pos)); err != nil {
		return fmt.Errorf("storagedata: write %q: %w", m.path, err)
	}

	return nil
}

func (m *MappedFile) Resize(n uint64) error {
	if err := m.f.Truncate(int64(n)); err != nil {
		return fmt.Errorf("storagedata: truncate %q: %w", m.path, err)
	}

	return m.remap(n)
}

func (m *MappedFile) Flush() error {
	if err := m.f.Sync(); err != nil {
		return fmt.Errorf("storagedata: sync %q: %w", m.path, err)
	}

	return nil
}

// Backup writes a point-in-time copy of the current contents to path.
func (m *MappedFile) Backup(path string) error {
	r, err := os.Open(m.path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("storagedata: open %q for backup: %w", m.path, err)
	}
	defer func() { _ = r.Close() }()

	if err := atomic.WriteFile(path, r); err != nil {
		return fmt.Errorf("storagedata: backup to %q: %w", path, err)
	}

	return nil
}

// Rename moves the backing file to path and remaps it there.
func (m *MappedFile) Rename(path string) error {
	if m.data != nil {
		if err := syscall.Munmap(m.data); err != nil {
			return fmt.Errorf("storagedata: munmap %q: %w", m.path, err)
		}

		m.data = nil
	}

	if err := m.f.Close(); err != nil {
		return fmt.Errorf("storagedata: close %q before rename: %w", m.path, err)
	}

	if err := os.Rename(m.path, path); err != nil {
		return fmt.Errorf("storagedata: rename %q to %q: %w", m.path, path, err)
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0o644) //nolint:gosec
	if err != nil {
		return fmt.Errorf("storagedata: reopen %q after rename: %w", path, err)
	}

	m.f = f
	m.path = path

	return m.remap(m.size)
}

func (m *MappedFile) Close() error {
	if m.data != nil {
		if err := syscall.Munmap(m.data); err != nil {
			return fmt.Errorf("storagedata: munmap %q: %w", m.path, err)
		}

		m.data = nil
	}

	if err := m.f.Close(); err != nil {
		return fmt.Errorf("storagedata: close %q: %w", m.path, err)
	}

	return nil
}

var _ StorageData = (*MappedFile)(nil)
