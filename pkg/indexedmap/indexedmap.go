package indexedmap

import (
	"errors"
	"fmt"

	"github.com/calvinalkan/graphdb/pkg/dbmap"
	"github.com/calvinalkan/graphdb/pkg/dbvec"
	"github.com/calvinalkan/graphdb/pkg/storage"
)

// IndexedMap is a bijective pairing of two [pkg/dbmap.Map]s, k2v: K→V and
// v2k: V→K, kept mutually consistent: every key maps to exactly one value
// and vice versa, per spec.md §4.6.
type IndexedMap[K comparable, V comparable] struct {
	storage *storage.Storage
	index   storage.StorageIndex
	k2v     *dbmap.Map[K, V]
	v2k     *dbmap.Map[V, K]
}

// New allocates a new, empty IndexedMap.
func New[K comparable, V comparable](
	s *storage.Storage,
	keyHash dbmap.Hasher[K],
	valueHash dbmap.Hasher[V],
	keyCodec dbvec.Codec[K],
	valueCodec dbvec.Codec[V],
) (*IndexedMap[K, V], error) {
	k2v, err := dbmap.NewMap(s, keyHash, keyCodec, valueCodec)
	if err != nil {
		return nil, fmt.Errorf("indexedmap: allocate k2v: %w", err)
	}

	v2k, err := dbmap.NewMap(s, valueHash, valueCodec, keyCodec)
	if err != nil {
		return nil, fmt.Errorf("indexedmap: allocate v2k: %w", err)
	}

	idx, err := s.Insert(header{k2v: k2v.Index(), v2k: v2k.Index()})
	if err != nil {
		return nil, fmt.Errorf("indexedmap: allocate header: %w", err)
	}

	return &IndexedMap[K, V]{storage: s, index: idx, k2v: k2v, v2k: v2k}, nil
}

// Open wraps an existing IndexedMap header record.
func Open[K comparable, V comparable](
	s *storage.Storage,
	index storage.StorageIndex,
	keyHash dbmap.Hasher[K],
	valueHash dbmap.Hasher[V],
	keyCodec dbvec.Codec[K],
	valueCodec dbvec.Codec[V],
) (*IndexedMap[K, V], error) {
	var h header
	if err := s.Value(index, &h); err != nil {
		return nil, fmt.Errorf("indexedmap: read header: %w", err)
	}

	k2v, err := dbmap.OpenMap(s, h.k2v, keyHash, keyCodec, valueCodec)
	if err != nil {
		return nil, fmt.Errorf("indexedmap: open k2v: %w", err)
	}

	v2k, err := dbmap.OpenMap(s, h.v2k, valueHash, valueCodec, keyCodec)
	if err != nil {
		return nil, fmt.Errorf("indexedmap: open v2k: %w", err)
	}

	return &IndexedMap[K, V]{storage: s, index: index, k2v: k2v, v2k: v2k}, nil
}

// Index returns the StorageIndex of the IndexedMap's header record.
func (m *IndexedMap[K, V]) Index() storage.StorageIndex { return m.index }

// Len returns the number of bound pairs.
func (m *IndexedMap[K, V]) Len() (uint64, error) { return m.k2v.Len() }

func lookup[A comparable, B comparable](mp *dbmap.Map[A, B], a A) (B, bool, error) {
	b, err := mp.Value(a)
	if err == nil {
		return b, true, nil
	}

	var zero B
	if errors.Is(err, dbmap.ErrKeyNotFound) {
		return zero, false, nil
	}

	return zero, false, err
}

// Value returns the value bound to key, if any.
func (m *IndexedMap[K, V]) Value(key K) (V, bool, error) {
	return lookup(m.k2v, key)
}

// Key returns the key bound to value, if any.
func (m *IndexedMap[K, V]) Key(value V) (K, bool, error) {
	return lookup(m.v2k, value)
}

// Insert binds key to value, evicting whatever either side previously
// pointed to so the pairing stays bijective. If key was already bound to
// some v_old, (v_old, k) is removed; if value was already bound to some
// k_old, (k_old, v_old_binding) is removed — both unconditionally, so a
// three-way rebind (as in spec.md scenario S6) lands atomically.
func (m *IndexedMap[K, V]) Insert(key K, value V) error {
	txn := m.storage.Transaction()

	oldValue, hadOldValue, err := lookup(m.k2v, key)
	if err != nil && !errors.Is(err, dbmap.ErrKeyNotFound) {
		return err
	}

	if err := m.k2v.Insert(key, value); err != nil {
		return err
	}

	if hadOldValue {
		if err := m.v2k.Remove(oldValue); err != nil {
			return err
		}
	}

	oldKey, hadOldKey, err := lookup(m.v2k, value)
	if err != nil {
		return err
	}

	if err := m.v2k.Insert(value, key); err != nil {
		return err
	}

	if hadOldKey {
		if err := m.k2v.Remove(oldKey); err != nil {
			return err
		}
	}

	return m.storage.Commit(txn)
}

// RemoveKey unbinds whatever key is currently bound to, a no-op if key is
// absent.
func (m *IndexedMap[K, V]) RemoveKey(key K) error {
	value, found, err := lookup(m.k2v, key)
	if err != nil {
		return err
	}

	if !found {
		return nil
	}

	txn := m.storage.Transaction()

	if err := m.k2v.Remove(key); err != nil {
		return err
	}

	if err := m.v2k.Remove(value); err != nil {
		return err
	}

	return m.storage.Commit(txn)
}

// RemoveValue unbinds whatever value is currently bound to, a no-op if
// value is absent.
func (m *IndexedMap[K, V]) RemoveValue(value V) error {
	key, found, err := lookup(m.v2k, value)
	if err != nil {
		return err
	}

	if !found {
		return nil
	}

	txn := m.storage.Transaction()

	if err := m.v2k.Remove(value); err != nil {
		return err
	}

	if err := m.k2v.Remove(key); err != nil {
		return err
	}

	return m.storage.Commit(txn)
}

// Iter walks every (key, value) pair in k2v's storage order.
func (m *IndexedMap[K, V]) Iter() (*dbmap.MapIterator[K, V], error) {
	return m.k2v.Iter()
}
