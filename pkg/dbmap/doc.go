// Package dbmap implements Map and MultiMap, open-addressing hash tables
// persisted as three parallel [pkg/dbvec.DbVec]s (tombstone states, keys,
// values) behind a small header record. Map enforces unique keys;
// MultiMap permits any number of values (including duplicates) per key.
// [pkg/indexedmap] builds its bijective IndexedMap on top of two Maps from
// this package.
//
// Probing is linear with wraparound. The table grows to double its
// capacity when the load factor would exceed 15/16, and shrinks to half
// when it falls to or below 7/16, with a capacity floor of 64 and every
// capacity a power of two.
package dbmap
