package storagedata

import (
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"

	"github.com/calvinalkan/graphdb/pkg/fs"
)

// File is an [os]-backed [StorageData], opened and manipulated through
// [fs.FS] so tests can exercise crash behavior with [fs.Chaos].
type File struct {
	fsys fs.FS
	path string
	f    fs.File
	size uint64
}

// OpenFile opens (creating if necessary) the file at path through fsys as a
// [StorageData]. The logical length starts at the file's existing size.
func OpenFile(fsys fs.FS, path string) (*File, error) {
	f, err := fsys.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("storagedata: open %q: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("storagedata: stat %q: %w", path, err)
	}

	return &File{fsys: fsys, path: path, f: f, size: uint64(info.Size())}, nil
}

func (s *File) Len() uint64 { return s.size }

func (s *File) ReadAt(pos uint64, p []byte) error {
	if pos+uint64(len(p)) > s.size {
		return fmt.Errorf("%w: read [%d,%d) beyond len %d", ErrOutOfBounds, pos, pos+uint64(len(p)), s.size)
	}

	_, err := s.f.Seek(int64(pos), io.SeekStart)
	if err != nil {
		return fmt.Errorf("storagedata: seek %q: %w", s.path, err)
	}

	_, err = io.ReadFull(s.f, p)
	if err != nil {
		return fmt.Errorf("storagedata: read %q: %w", s.path, err)
	}

	return nil
}

func (s *File) WriteAt(pos uint64, p []byte) error {
	if pos+uint64(len(p)) > s.size {
		return fmt.Errorf("%w: write [%d,%d) beyond len %d", ErrOutOfBounds, pos, pos+uint64(len(p)), s.size)
	}

	_, err := s.f.Seek(int64(pos), io.SeekStart)
	if err != nil {
		return fmt.Errorf("storagedata: seek %q: %w", s.path, err)
	}

	_, err = s.f.Write(p)
	if err != nil {
		return fmt.Errorf("storagedata: write %q: %w", s.path, err)
	}

	return nil
}

func (s *File) Resize(n uint64) error {
	if err := s.f.Truncate(int64(n)); err != nil {
		return fmt.Errorf("storagedata: truncate %q: %w", s.path, err)
	}

	s.size = n

	return nil
}

func (s *File) Flush() error {
	if err := s.f.Sync(); err != nil {
		return fmt.Errorf("storagedata: sync %q: %w", s.path, err)
	}

	return nil
}

// Backup writes a point-in-time copy of the current contents to path using
// an atomic rename so a concurrent reader of path never observes a partial
// file (see [github.com/natefinch/atomic]).
func (s *File) Backup(path string) error {
	r, err := s.fsys.Open(s.path)
	if err != nil {
		return fmt.Errorf("storagedata: open %q for backup: %w", s.path, err)
	}
	defer func() { _ = r.Close() }()

	if err := atomic.WriteFile(path, r); err != nil {
		return fmt.Errorf("storagedata: backup to %q: %w", path, err)
	}

	return nil
}

// Rename moves the backing file to path and continues operating against it.
func (s *File) Rename(path string) error {
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("storagedata: close %q before rename: %w", s.path, err)
	}

	if err := s.fsys.Rename(s.path, path); err != nil {
		return fmt.Errorf("storagedata: rename %q to %q: %w", s.path, path, err)
	}

	f, err := s.fsys.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("storagedata: reopen %q after rename: %w", path, err)
	}

	s.f = f
	s.path = path

	return nil
}

func (s *File) Close() error {
	if err := s.f.Close(); err != nil {
		return fmt.Errorf("storagedata: close %q: %w", s.path, err)
	}

	return nil
}

var _ StorageData = (*File)(nil)
