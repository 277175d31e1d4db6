package dbmap

import (
	"github.com/calvinalkan/graphdb/pkg/dbvec"
	"github.com/calvinalkan/graphdb/pkg/storage"
)

// MultiMap is a persistent hash map from K to V permitting multiple values
// per key. Every (key, value) pair occupies its own slot; duplicate
// (key, value) pairs are permitted too and are inserted as distinct
// entries, per spec.md's MultiMap semantics.
type MultiMap[K comparable, V comparable] struct {
	t *table[K, V]
}

// NewMultiMap allocates a new, empty MultiMap.
func NewMultiMap[K comparable, V comparable](
	s *storage.Storage,
	hash Hasher[K],
	keyCodec dbvec.Codec[K],
	valueCodec dbvec.Codec[V],
) (*MultiMap[K, V], error) {
	t, err := newTable(s, hash, keyCodec, valueCodec)
	if err != nil {
		return nil, err
	}

	return &MultiMap[K, V]{t: t}, nil
}

// OpenMultiMap wraps an existing MultiMap header record.
func OpenMultiMap[K comparable, V comparable](
	s *storage.Storage,
	index storage.StorageIndex,
	hash Hasher[K],
	keyCodec dbvec.Codec[K],
	valueCodec dbvec.Codec[V],
) (*MultiMap[K, V], error) {
	t, err := openTable(s, index, hash, keyCodec, valueCodec)
	if err != nil {
		return nil, err
	}

	return &MultiMap[K, V]{t: t}, nil
}

// Index returns the StorageIndex of the multimap's header record.
func (m *MultiMap[K, V]) Index() storage.StorageIndex { return m.t.Index() }

// Len returns the total number of (key, value) pairs stored.
func (m *MultiMap[K, V]) Len() (uint64, error) { return m.t.Len() }

// Capacity returns the current slot count of the backing table.
func (m *MultiMap[K, V]) Capacity() (uint64, error) { return m.t.Capacity() }

// Values returns every value associated with key, in probe order (the
// order [pkg/dbmap] resolved collisions, not insertion order), per
// spec.md §12.
func (m *MultiMap[K, V]) Values(key K) ([]V, error) {
	slots, err := m.t.matchingSlots(key)
	if err != nil {
		return nil, err
	}

	values := make([]V, 0, len(slots))

	for _, slot := range slots {
		v, err := m.t.values.Value(slot)
		if err != nil {
			return nil, err
		}

		values = append(values, v)
	}

	return values, nil
}

// Insert adds the pair (key, value) as a new entry, even if key or the pair
// itself is already present.
func (m *MultiMap[K, V]) Insert(key K, value V) error {
	if err := m.t.ensureGrowth(); err != nil {
		return err
	}

	slot, err := m.t.findFreeSlot(key)
	if err != nil {
		return err
	}

	txn := m.t.storage.Transaction()

	if err := m.t.states.Replace(slot, stateValid); err != nil {
		return err
	}

	if err := m.t.keys.Replace(slot, key); err != nil {
		return err
	}

	if err := m.t.values.Replace(slot, value); err != nil {
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

func (m *MultiMap[K, V]) clearSlot(slot uint64) error {
	if err := m.t.states.Replace(slot, stateDeleted); err != nil {
		return err
	}

	var zeroKey K
	if err := m.t.keys.Replace(slot, zeroKey); err != nil {
		return err
	}

	var zeroValue V

	return m.t.values.Replace(slot, zeroValue)
}

// RemoveKey deletes every entry associated with key, returning the number
// of entries removed.
func (m *MultiMap[K, V]) RemoveKey(key K) (uint64, error) {
	slots, err := m.t.matchingSlots(key)
	if err != nil {
		return 0, err
	}

	if len(slots) == 0 {
		return 0, nil
	}

	txn := m.t.storage.Transaction()

	for _, slot := range slots {
		if err := m.clearSlot(slot); err != nil {
			return 0, err
		}
	}

	length, err := m.t.Len()
	if err != nil {
		return 0, err
	}

	if err := m.t.setLen(length - uint64(len(slots))); err != nil {
		return 0, err
	}

	if err := m.t.storage.Commit(txn); err != nil {
		return 0, err
	}

	if err := m.t.maybeShrink(); err != nil {
		return 0, err
	}

	return uint64(len(slots)), nil
}

// RemoveValue deletes a single entry matching (key, value), if any, and
// reports whether one was removed. When several entries share (key,
// value), only the first encountered in probe order is removed.
func (m *MultiMap[K, V]) RemoveValue(key K, value V) (bool, error) {
	slots, err := m.t.matchingSlots(key)
	if err != nil {
		return false, err
	}

	var target uint64

	found := false

	for _, slot := range slots {
		v, err := m.t.values.Value(slot)
		if err != nil {
			return false, err
		}

		if v == value {
			target = slot
			found = true

			break
		}
	}

	if !found {
		return false, nil
	}

	txn := m.t.storage.Transaction()

	if err := m.clearSlot(target); err != nil {
		return false, err
	}

	length, err := m.t.Len()
	if err != nil {
		return false, err
	}

	if err := m.t.setLen(length - 1); err != nil {
		return false, err
	}

	if err := m.t.storage.Commit(txn); err != nil {
		return false, err
	}

	if err := m.t.maybeShrink(); err != nil {
		return false, err
	}

	return true, nil
}

// Iter walks every (key, value) pair in storage order.
func (m *MultiMap[K, V]) Iter() (*MultiMapIterator[K, V], error) {
	capacity, err := m.t.Capacity()
	if err != nil {
		return nil, err
	}

	return &MultiMapIterator[K, V]{t: m.t, capacity: capacity}, nil
}

// MultiMapIterator is returned by [MultiMap.Iter].
type MultiMapIterator[K comparable, V comparable] struct {
	t        *table[K, V]
	capacity uint64
	next     uint64
}

// Next advances the iterator and returns false once every slot has been
// visited or a storage error is encountered.
func (it *MultiMapIterator[K, V]) Next() (Entry[K, V], bool) {
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
