// Package storagedata provides the byte-addressable, resizable backing
// store that [pkg/storage] builds records on top of, and the
// write-ahead-log file pair build theirs on top of.
//
// Three implementations satisfy [StorageData]:
//   - [Memory]: an in-process byte slice, for tests and scratch graphs.
//   - [File]: an [os]-backed file opened through [pkg/fs.FS], read and
//     written via a Seek followed by ordinary Read/Write syscalls.
//   - [MappedFile]: the same file-backed storage, but reads go through a
//     read-only mmap of the current file extent instead of a syscall.
//
// All three share identical semantics: Resize extends or truncates the
// logical length (zero-filling new bytes), Write at an offset beyond the
// current length is an error, and Flush forces previously buffered writes to
// stable storage.
package storagedata
