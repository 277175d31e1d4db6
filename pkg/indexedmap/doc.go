// Package indexedmap implements IndexedMap, a bijective pairing of two
// [pkg/dbmap.Map]s (K→V and V→K) kept mutually consistent on every
// mutation, for alias-to-id and other reversible secondary-index use
// cases.
package indexedmap
