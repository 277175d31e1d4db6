package storage

import "errors"

var (
	// ErrIndexNotFound is returned (wrapped) when an operation names a
	// [StorageIndex] that is not currently live.
	ErrIndexNotFound = errors.New("storage: index not found")

	// ErrOutOfRange is returned (wrapped) when an offset/size addresses
	// bytes outside a record's current value.
	ErrOutOfRange = errors.New("storage: offset out of range")

	// ErrWrongCommit is returned when Commit is called with a transaction
	// id that does not match the current nesting depth.
	ErrWrongCommit = errors.New("storage: commit id does not match transaction depth")

	// ErrCorruptHeader is returned when the on-disk record headers cannot
	// be swept into a consistent record table.
	ErrCorruptHeader = errors.New("storage: corrupt record header")
)
