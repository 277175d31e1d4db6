package dbmap

import (
	"errors"
	"fmt"

	"github.com/calvinalkan/graphdb/pkg/dbvec"
	"github.com/calvinalkan/graphdb/pkg/storage"
)

// ErrKeyNotFound is returned (wrapped) when a lookup addresses a key that
// is not present. Removing an absent key is a no-op, not an error.
var ErrKeyNotFound = errors.New("dbmap: key not found")

// Map is a persistent hash map from K to V with unique keys, backed by
// open addressing with linear probing over three parallel DbVecs.
type Map[K comparable, V comparable] struct {
	t *table[K, V]
}

// NewMap allocates a new, empty Map.
func NewMap[K comparable, V comparable](
	s *storage.Storage,
	hash Hasher[K],
	keyCodec dbvec.Codec[K],
	valueCodec dbvec.Codec[V],
) (*Map[K, V], error) {
	t, err := newTable(s, hash, keyCodec, valueCodec)
	if err != nil {
		return nil, err
	}

	return &Map[K, V]{t: t}, nil
}

// OpenMap wraps an existing Map header record.
func OpenMap[K comparable, V comparable](
	s *storage.Storage,
	index storage.StorageIndex,
	hash Hasher[K],
	keyCodec dbvec.Codec[K],
	valueCodec dbvec.Codec[V],
) (*Map[K, V], error) {
	t, err := openTable(s, index, hash, keyCodec, valueCodec)
	if err != nil {
		return nil, err
	}

	return &Map[K, V]{t: t}, nil
}

// Index returns the StorageIndex of the map's header record.
func (m *Map[K, V]) Index() storage.StorageIndex { return m.t.Index() }

// Len returns the number of keys currently stored.
func (m *Map[K, V]) Len() (uint64, error) { return m.t.Len() }

// Capacity returns the current slot count of the backing table.
func (m *Map[K, V]) Capacity() (uint64, error) { return m.t.Capacity() }

// Value returns the value associated with key, or a wrapped ErrKeyNotFound.
func (m *Map[K, V]) Value(key K) (V, error) {
	var zero V

	capacity, err := m.t.Capacity()
	if err != nil {
		return zero, err
	}

	if capacity == 0 {
		return zero, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}

	slot, matched, _, err := m.t.probeKey(key)
	if err != nil {
		return zero, err
	}

	if !matched {
		return zero, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}

	return m.t.values.Value(slot)
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) (bool, error) {
	capacity, err := m.t.Capacity()
	if err != nil {
		return false, err
	}

	if capacity == 0 {
		return false, nil
	}

	_, matched, _, err := m.t.probeKey(key)

	return matched, err
}

// Insert sets key to value, overwriting any existing value for key. It
// grows the backing table first if the insert would push the load factor
// past 15/16, per spec.md §4.5.
func (m *Map[K, V]) Insert(key K, value V) error {
	if err := m.t.ensureGrowth(); err != nil {
		return err
	}

	slot, matched, insertSlot, err := m.t.probeKey(key)
	if err != nil {
		return err
	}

	txn := m.t.storage.Transaction()

	if matched {
		if err := m.t.values.Replace(slot, value); err != nil {
			return err
		}

		return m.t.storage.Commit(txn)
	}

	if err := m.t.states.Replace(insertSlot, stateValid); err != nil {
		return err
	}

	if err := m.t.keys.Replace(insertSlot, key); err != nil {
		return err
	}

	if err := m.t.values.Replace(insertSlot, value); err != nil {
		return err
	}

	length, err := m.t.Len()
	if err != nil {
		return err
	}

	if err := m.t.setLen(length + 1); err != nil {
		return err
	}

	return m.t.storage.Commit(txn)
}

// Remove deletes key, if present. Removing an absent key is a no-op. After
// removal, the slot becomes a tombstone (Deleted); the table shrinks if the
// load factor has fallen to or below 7/16.
func (m *Map[K, V]) Remove(key K) error {
	capacity, err := m.t.Capacity()
	if err != nil {
		return err
	}

	if capacity == 0 {
		return nil
	}

	slot, matched, _, err := m.t.probeKey(key)
	if err != nil {
		return err
	}

	if !matched {
		return nil
	}

	txn := m.t.storage.Transaction()

	if err := m.t.states.Replace(slot, stateDeleted); err != nil {
		return err
	}

	var zeroKey K
	if err := m.t.keys.Replace(slot, zeroKey); err != nil {
		return err
	}

	var zeroValue V
	if err := m.t.values.Replace(slot, zeroValue); err != nil {
		return err
	}

	length, err := m.t.Len()
	if err != nil {
		return err
	}

	if err := m.t.setLen(length - 1); err != nil {
		return err
	}

	if err := m.t.storage.Commit(txn); err != nil {
		return err
	}

	return m.t.maybeShrink()
}

// Entry is one key/value pair yielded by [Map.Iter].
type Entry[K comparable, V comparable] struct {
	Key   K
	Value V
}

// Iter walks every Valid slot in storage order (not insertion order), a
// snapshot of capacity taken at construction time.
func (m *Map[K, V]) Iter() (*MapIterator[K, V], error) {
	capacity, err := m.t.Capacity()
	if err != nil {
		return nil, err
	}

	return &MapIterator[K, V]{t: m.t, capacity: capacity}, nil
}

// MapIterator is returned by [Map.Iter].
type MapIterator[K comparable, V comparable] struct {
	t        *table[K, V]
	capacity uint64
	next     uint64
}

// Next advances the iterator and returns false once every slot has been
// visited or a storage error is encountered (in which case iteration ends
// silently, matching [dbvec.Iterator]).
func (it *MapIterator[K, V]) Next() (Entry[K, V], bool) {
	for it.next < it.capacity {
		idx := it.next
		it.next++

		state, err := it.t.states.Value(idx)
		if err != nil || state != stateValid {
			continue
		}

		key, err := it.t.keys.Value(idx)
		if err != nil {
			continue
		}

		value, err := it.t.values.Value(idx)
		if err != nil {
			continue
		}

		return Entry[K, V]{Key: key, Value: value}, true
	}

	return Entry[K, V]{}, false
}
