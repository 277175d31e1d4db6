// Package wal implements the write-ahead log [pkg/storage] uses to make its
// mutations crash-safe.
//
// A log is an ordered sequence of records, each either a restore record
// ("write these bytes back at this position") or a truncate record ("cut
// the file down to this length", signaled by a zero-length payload). On
// open, a caller replays the records in reverse insertion order to undo any
// writes from a transaction that never reached depth-0 commit, then clears
// the log.
//
// Every record additionally carries a CRC32-C checksum over its payload.
// This is not required by the abstract log contract — a checksum failure is
// treated exactly like a truncated log (replay stops at the first bad
// record) — but it lets an interrupted append during the log write itself
// be detected rather than silently replayed with garbage bytes.
package wal
