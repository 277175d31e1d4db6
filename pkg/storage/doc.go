// Package storage implements the record manager that sits on top of a
// [pkg/storagedata.StorageData] and a [pkg/wal.Log]: it allocates
// typed, independently resizable records identified by a numeric
// [StorageIndex], and makes every mutation crash-safe by writing a
// write-ahead log entry before touching the underlying bytes.
//
// A Storage does not know what its callers store in a record — values are
// handed in and out as [encoding.BinaryMarshaler] / [encoding.BinaryUnmarshaler]
// — it only owns byte layout, the free list of reusable indices, and
// transaction nesting. [pkg/dbvec], [pkg/dbmap], [pkg/graph] and friends are
// built on top of it.
package storage
