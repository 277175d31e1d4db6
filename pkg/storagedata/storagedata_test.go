package storagedata

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/graphdb/pkg/fs"
)

func newStores(t *testing.T) map[string]StorageData {
	t.Helper()

	dir := t.TempDir()

	file, err := OpenFile(fs.NewReal(), filepath.Join(dir, "file.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = file.Close() })

	mapped, err := OpenMappedFile(filepath.Join(dir, "mapped.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mapped.Close() })

	return map[string]StorageData{
		"memory":     NewMemory(),
		"file":       file,
		"mappedfile": mapped,
	}
}

func Test_StorageData_ResizeThenWriteThenRead(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, uint64(0), s.Len())

			require.NoError(t, s.Resize(16))
			require.Equal(t, uint64(16), s.Len())

			zero := make([]byte, 16)
			got := make([]byte, 16)
			require.NoError(t, s.ReadAt(0, got))
			require.Equal(t, zero, got)

			require.NoError(t, s.WriteAt(4, []byte("abcd")))
			require.NoError(t, s.ReadAt(4, got[:4]))
			require.Equal(t, []byte("abcd"), got[:4])
		})
	}
}

func Test_StorageData_ReadAt_OutOfBounds(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Resize(4))

			err := s.ReadAt(0, make([]byte, 8))
			require.ErrorIs(t, err, ErrOutOfBounds)
		})
	}
}

func Test_StorageData_Shrink_TruncatesContent(t *testing.T) {
	for name, s := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Resize(8))
			require.NoError(t, s.WriteAt(0, []byte("01234567")))

			require.NoError(t, s.Resize(4))
			require.Equal(t, uint64(4), s.Len())

			got := make([]byte, 4)
			require.NoError(t, s.ReadAt(0, got))
			require.Equal(t, []byte("0123"), got)
		})
	}
}

func Test_StorageData_Backup_CopiesCurrentContents(t *testing.T) {
	dir := t.TempDir()
	s := NewMemory()
	require.NoError(t, s.Resize(4))
	require.NoError(t, s.WriteAt(0, []byte("data")))

	backupPath := filepath.Join(dir, "backup.db")
	require.NoError(t, s.Backup(backupPath))

	restored, err := OpenFile(fs.NewReal(), backupPath)
	require.NoError(t, err)
	defer func() { _ = restored.Close() }()

	require.Equal(t, uint64(4), restored.Len())

	got := make([]byte, 4)
	require.NoError(t, restored.ReadAt(0, got))
	require.Equal(t, []byte("data"), got)
}

func Test_File_Rename_ContinuesOperatingAtNewPath(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFile(fs.NewReal(), filepath.Join(dir, "old.db"))
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	require.NoError(t, s.Resize(4))
	require.NoError(t, s.WriteAt(0, []byte("data")))

	newPath := filepath.Join(dir, "new.db")
	require.NoError(t, s.Rename(newPath))

	exists, err := fs.NewReal().Exists(newPath)
	require.NoError(t, err)
	require.True(t, exists)

	got := make([]byte, 4)
	require.NoError(t, s.ReadAt(0, got))
	require.Equal(t, []byte("data"), got)
}
