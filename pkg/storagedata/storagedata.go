package storagedata

import "errors"

// ErrOutOfBounds is returned (wrapped) when a read or write addresses bytes
// beyond the current logical length.
var ErrOutOfBounds = errors.New("storagedata: out of bounds")

// StorageData is the byte-addressable backing store [pkg/storage] and
// [pkg/wal] are built on. Implementations need not be safe for concurrent
// use; callers serialize access (see [pkg/storage]'s concurrency model).
type StorageData interface {
	// Len returns the current logical length in bytes.
	Len() uint64

	// ReadAt reads len(p) bytes starting at pos. It returns [ErrOutOfBounds]
	// if pos+len(p) exceeds Len.
	ReadAt(pos uint64, p []byte) error

	// WriteAt writes p starting at pos. pos+len(p) must not exceed Len; grow
	// with [StorageData.Resize] first. Writes are not required to be durable
	// until [StorageData.Flush] returns.
	WriteAt(pos uint64, p []byte) error

	// Resize grows or shrinks the logical length to n bytes. Newly added
	// bytes read back as zero.
	Resize(n uint64) error

	// Flush commits previously buffered writes to stable storage.
	Flush() error

	// Backup copies the current contents to path, without disturbing this
	// store's own backing location.
	Backup(path string) error

	// Rename moves this store's backing location to path. After Rename
	// returns successfully, the store continues operating against the new
	// location.
	Rename(path string) error

	// Close releases any OS resources (file descriptors, mappings) held by
	// this store. The store must not be used afterward.
	Close() error
}
