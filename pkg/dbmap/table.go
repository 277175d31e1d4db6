package dbmap

import (
	"fmt"

	"github.com/calvinalkan/graphdb/pkg/dbvec"
	"github.com/calvinalkan/graphdb/pkg/storage"
)

// minCapacity is the floor capacity described in spec.md §4.5: a table is
// either empty (capacity 0) or has at least this many slots.
const minCapacity = 64

// noFreeSlot marks "no tombstone seen yet" while probing for an insertion
// point; it is never a valid slot position since capacity never approaches
// 2^64.
const noFreeSlot = ^uint64(0)

// table is the open-addressing engine shared by [Map] and [MultiMap]:
// linear probing with wraparound over three parallel DbVecs (states, keys,
// values), grown at a 15/16 load factor and shrunk at 7/16, with a
// capacity floor of 64 and every capacity a power of two.
type table[K comparable, V comparable] struct {
	storage *storage.Storage
	index   storage.StorageIndex
	hash    Hasher[K]

	states *dbvec.DbVec[valueState]
	keys   *dbvec.DbVec[K]
	values *dbvec.DbVec[V]
}

func newTable[K comparable, V comparable](
	s *storage.Storage,
	hash Hasher[K],
	keyCodec dbvec.Codec[K],
	valueCodec dbvec.Codec[V],
) (*table[K, V], error) {
	states, err := dbvec.New(s, stateCodec{})
	if err != nil {
		return nil, fmt.Errorf("dbmap: allocate states vec: %w", err)
	}

	keys, err := dbvec.New(s, keyCodec)
	if err != nil {
		return nil, fmt.Errorf("dbmap: allocate keys vec: %w", err)
	}

	values, err := dbvec.New(s, valueCodec)
	if err != nil {
		return nil, fmt.Errorf("dbmap: allocate values vec: %w", err)
	}

	idx, err := s.Insert(header{states: states.Index(), keys: keys.Index(), values: values.Index()})
	if err != nil {
		return nil, fmt.Errorf("dbmap: allocate header: %w", err)
	}

	return &table[K, V]{storage: s, index: idx, hash: hash, states: states, keys: keys, values: values}, nil
}

func openTable[K comparable, V comparable](
	s *storage.Storage,
	index storage.StorageIndex,
	hash Hasher[K],
	keyCodec dbvec.Codec[K],
	valueCodec dbvec.Codec[V],
) (*table[K, V], error) {
	var h header
	if err := s.Value(index, &h); err != nil {
		return nil, fmt.Errorf("dbmap: read header: %w", err)
	}

	return &table[K, V]{
		storage: s,
		index:   index,
		hash:    hash,
		states:  dbvec.Open(s, h.states, stateCodec{}),
		keys:    dbvec.Open(s, h.keys, keyCodec),
		values:  dbvec.Open(s, h.values, valueCodec),
	}, nil
}

func (t *table[K, V]) readHeader() (header, error) {
	var h header
	if err := t.storage.Value(t.index, &h); err != nil {
		return header{}, fmt.Errorf("dbmap: read header: %w", err)
	}

	return h, nil
}

func (t *table[K, V]) setLen(n uint64) error {
	h, err := t.readHeader()
	if err != nil {
		return err
	}

	h.len = n

	if err := t.storage.InsertAt(t.index, 0, h); err != nil {
		return fmt.Errorf("dbmap: write header: %w", err)
	}

	return nil
}

// Len returns the number of Valid slots.
func (t *table[K, V]) Len() (uint64, error) {
	h, err := t.readHeader()
	if err != nil {
		return 0, err
	}

	return h.len, nil
}

// Capacity returns the current slot count; every one of the three child
// vecs is always resized to exactly this length (never left merely
// "reserved"), so the states vec's logical length doubles as capacity.
func (t *table[K, V]) Capacity() (uint64, error) {
	return t.states.Len()
}

// Index returns the StorageIndex of this table's header record.
func (t *table[K, V]) Index() storage.StorageIndex { return t.index }

func growCapacityFor(capacity uint64) uint64 {
	n := capacity * 2
	if n < minCapacity {
		n = minCapacity
	}

	return n
}

func shrinkCapacityFor(capacity uint64) uint64 {
	n := capacity / 2
	if n < minCapacity {
		n = minCapacity
	}

	return n
}

// ensureGrowth rehashes to double capacity (minimum 64) if inserting one
// more element would push the load factor past 15/16.
func (t *table[K, V]) ensureGrowth() error {
	capacity, err := t.Capacity()
	if err != nil {
		return err
	}

	length, err := t.Len()
	if err != nil {
		return err
	}

	if (length+1)*16 > capacity*15 {
		return t.rehash(growCapacityFor(capacity))
	}

	return nil
}

// maybeShrink rehashes to half capacity (minimum 64) if the load factor has
// fallen to or below 7/16.
func (t *table[K, V]) maybeShrink() error {
	capacity, err := t.Capacity()
	if err != nil {
		return err
	}

	if capacity == 0 {
		return nil
	}

	length, err := t.Len()
	if err != nil {
		return err
	}

	if length*16 > capacity*7 {
		return nil
	}

	newCapacity := shrinkCapacityFor(capacity)
	if newCapacity == capacity {
		return nil
	}

	return t.rehash(newCapacity)
}

// rehash relocates every Valid slot to its new home under newCapacity,
// moving entries with DbVec.Swap rather than re-storing them through the
// codec (keys are still loaded to be hashed). Growth resizes the three
// vecs up front so the relocation pass has somewhere to put entries that
// move past the old capacity; shrink relocates first and truncates after,
// per spec.md §4.5.
func (t *table[K, V]) rehash(newCapacity uint64) error {
	oldCapacity, err := t.Capacity()
	if err != nil {
		return err
	}

	txn := t.storage.Transaction()

	if newCapacity > oldCapacity {
		if err := t.resizeVecs(newCapacity); err != nil {
			return err
		}
	}

	empty := make([]bool, max(oldCapacity, newCapacity))
	for i := range empty {
		empty[i] = true
	}

	for i := uint64(0); i < oldCapacity; {
		if !empty[i] {
			i++
			continue
		}
		state, err := t.states.Value(i)
		if err != nil {
			return fmt.Errorf("dbmap: rehash read state %d: %w", i, err)
		}

		switch state {
		case stateEmpty:
			i++
		case stateDeleted:
			if err := t.states.Replace(i, stateEmpty); err != nil {
				return fmt.Errorf("dbmap: rehash clear tombstone %d: %w", i, err)
			}

			empty[i] = true
		case stateValid:
			k, err := t.keys.Value(i)
			if err != nil {
				return fmt.Errorf("dbmap: rehash read key %d: %w", i, err)
			}

			target := t.hash(k) % newCapacity
			for !empty[target] {
				target = (target + 1) % newCapacity
			}

			if target != i {
				if err := t.states.Swap(i, target); err != nil {
					return fmt.Errorf("dbmap: rehash swap states %d/%d: %w", i, target, err)
				}

				if err := t.keys.Swap(i, target); err != nil {
					return fmt.Errorf("dbmap: rehash swap keys %d/%d: %w", i, target, err)
				}

				if err := t.values.Swap(i, target); err != nil {
					return fmt.Errorf("dbmap: rehash swap values %d/%d: %w", i, target, err)
				}

				empty[i] = true
			}

			empty[target] = false
			if target == i {
				i++
			}
		}
	}

	if newCapacity < oldCapacity {
		if err := t.resizeVecs(newCapacity); err != nil {
			return err
		}
	}

	return t.storage.Commit(txn)
}

// probeKey scans the probe chain for k starting at hash(k)%capacity,
// stopping at the first Empty slot. It reports whether a Valid slot holding
// k was found (matchSlot) and, win or lose, the slot an insert of k should
// use (insertSlot): the first Deleted slot seen along the way, or the
// terminating Empty slot if no tombstone was seen. This is the
// tombstone-aware probe that keeps Map.Insert from creating a duplicate key
// when a Deleted slot precedes the key's true home or a later Empty slot.
func (t *table[K, V]) probeKey(k K) (matchSlot uint64, matched bool, insertSlot uint64, err error) {
	capacity, err := t.Capacity()
	if err != nil {
		return 0, false, 0, err
	}

	idx := t.hash(k) % capacity
	firstFree := noFreeSlot

	for range capacity {
		state, err := t.states.Value(idx)
		if err != nil {
			return 0, false, 0, fmt.Errorf("dbmap: probe read state %d: %w", idx, err)
		}

		switch state {
		case stateEmpty:
			if firstFree != noFreeSlot {
				return 0, false, firstFree, nil
			}

			return 0, false, idx, nil
		case stateDeleted:
			if firstFree == noFreeSlot {
				firstFree = idx
			}
		case stateValid:
			key, err := t.keys.Value(idx)
			if err != nil {
				return 0, false, 0, fmt.Errorf("dbmap: probe read key %d: %w", idx, err)
			}

			if key == k {
				return idx, true, idx, nil
			}
		}

		idx = (idx + 1) % capacity
	}

	if firstFree != noFreeSlot {
		return 0, false, firstFree, nil
	}

	return 0, false, 0, fmt.Errorf("dbmap: probe exhausted capacity %d without finding an empty slot", capacity)
}

// findFreeSlot scans the probe chain for k, starting at hash(k)%capacity,
// and returns the first Empty or Deleted slot without regard to whether a
// matching key exists further along the chain. MultiMap uses this: distinct
// entries sharing a key are expected, so there is no key to deduplicate
// against.
func (t *table[K, V]) findFreeSlot(k K) (uint64, error) {
	capacity, err := t.Capacity()
	if err != nil {
		return 0, err
	}

	idx := t.hash(k) % capacity

	for range capacity {
		state, err := t.states.Value(idx)
		if err != nil {
			return 0, fmt.Errorf("dbmap: probe read state %d: %w", idx, err)
		}

		if state != stateValid {
			return idx, nil
		}

		idx = (idx + 1) % capacity
	}

	return 0, fmt.Errorf("dbmap: probe exhausted capacity %d without finding a free slot", capacity)
}

// matchingSlots returns every Valid slot along k's probe chain whose key
// equals k, stopping at the first Empty slot. MultiMap uses this for
// Values/RemoveValue/RemoveKey.
func (t *table[K, V]) matchingSlots(k K) ([]uint64, error) {
	capacity, err := t.Capacity()
	if err != nil {
		return nil, err
	}

	if capacity == 0 {
		return nil, nil
	}

	idx := t.hash(k) % capacity

	var out []uint64

	for range capacity {
		state, err := t.states.Value(idx)
		if err != nil {
			return nil, fmt.Errorf("dbmap: probe read state %d: %w", idx, err)
		}

		if state == stateEmpty {
			break
		}

		if state == stateValid {
			key, err := t.keys.Value(idx)
			if err != nil {
				return nil, fmt.Errorf("dbmap: probe read key %d: %w", idx, err)
			}

			if key == k {
				out = append(out, idx)
			}
		}

		idx = (idx + 1) % capacity
	}

	return out, nil
}

func (t *table[K, V]) resizeVecs(n uint64) error {
	if err := t.states.Resize(n); err != nil {
		return fmt.Errorf("dbmap: resize states: %w", err)
	}

	if err := t.keys.Resize(n); err != nil {
		return fmt.Errorf("dbmap: resize keys: %w", err)
	}

	if err := t.values.Resize(n); err != nil {
		return fmt.Errorf("dbmap: resize values: %w", err)
	}

	return nil
}
