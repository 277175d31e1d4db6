// Package dbvec implements DbVec, a persistent growable sequence built on
// top of a single [pkg/storage.Storage] record.
//
// The record holds an 8-byte length header followed by capacity fixed-size
// element slots. Fixed-size element types (integers, floats) are stored
// inline in their slot; variable-size types (strings, byte slices) store an
// 8-byte [pkg/storage.StorageIndex] in their slot, pointing at a child
// record holding the actual bytes. A [Codec] captures which of these a
// given element type needs.
package dbvec
