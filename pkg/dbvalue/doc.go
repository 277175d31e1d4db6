// Package dbvalue defines the serialization contract the storage engine
// consumes from callers, plus the primitive int/float/bool/string/bytes
// value types and their slice forms. Record headers and map tombstone
// states are defined in the packages that persist them.
//
// A value is serializable if it implements [encoding.BinaryMarshaler]; it is
// deserializable into if a pointer to it implements
// [encoding.BinaryUnmarshaler]. Fixed-size values additionally implement
// [StaticSizer] so callers can preallocate slot storage (see
// pkg/dbvec.Codec) without first serializing the value.
package dbvalue
