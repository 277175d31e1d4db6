package dbvec

import (
	"errors"
	"fmt"

	"github.com/calvinalkan/graphdb/pkg/dbvalue"
	"github.com/calvinalkan/graphdb/pkg/storage"
)

// lenHeaderSize is the size of the logical-length prefix at the start of a
// DbVec's record.
const lenHeaderSize = 8

// minCapacity is the smallest non-zero capacity a DbVec grows to.
const minCapacity = 64

// ErrIndexOutOfRange is returned (wrapped) when an element index is not in
// [0, length).
var ErrIndexOutOfRange = errors.New("dbvec: index out of range")

// DbVec is a persistent growable sequence of T, backed by one
// [storage.Storage] record.
type DbVec[T any] struct {
	storage *storage.Storage
	index   storage.StorageIndex
	codec   Codec[T]
}

// New allocates a new, empty DbVec.
func New[T any](s *storage.Storage, codec Codec[T]) (*DbVec[T], error) {
	idx, err := s.Insert(dbvalue.Uint64(0))
	if err != nil {
		return nil, fmt.Errorf("dbvec: allocate header: %w", err)
	}

	return &DbVec[T]{storage: s, index: idx, codec: codec}, nil
}

// Open wraps an existing DbVec header record (for example one referenced
// from a parent record's own layout, such as a DbMap's key/value/state
// vectors).
func Open[T any](s *storage.Storage, index storage.StorageIndex, codec Codec[T]) *DbVec[T] {
	return &DbVec[T]{storage: s, index: index, codec: codec}
}

// Index returns the StorageIndex of this DbVec's header record.
func (v *DbVec[T]) Index() storage.StorageIndex { return v.index }

// Len returns the number of logical elements.
func (v *DbVec[T]) Len() (uint64, error) {
	var n dbvalue.Uint64
	if err := v.storage.ValueAt(v.index, 0, lenHeaderSize, &n); err != nil {
		return 0, fmt.Errorf("dbvec: read length: %w", err)
	}

	return uint64(n), nil
}

// Capacity returns the number of slots currently allocated, whether or not
// they hold a logical element.
func (v *DbVec[T]) Capacity() (uint64, error) {
	size, err := v.storage.ValueSize(v.index)
	if err != nil {
		return 0, fmt.Errorf("dbvec: read capacity: %w", err)
	}

	return (size - lenHeaderSize) / v.codec.StorageLen(), nil
}

func (v *DbVec[T]) slotOffset(i uint64) uint64 {
	return lenHeaderSize + i*v.codec.StorageLen()
}

func (v *DbVec[T]) setLen(n uint64) error {
	return v.storage.InsertAt(v.index, 0, dbvalue.Uint64(n))
}

// Value returns the element at logical index i.
func (v *DbVec[T]) Value(i uint64) (T, error) {
	var zero T

	length, err := v.Len()
	if err != nil {
		return zero, err
	}

	if i >= length {
		return zero, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, i, length)
	}

	slot, err := v.storage.ValueBytesAtSize(v.index, v.slotOffset(i), v.codec.StorageLen())
	if err != nil {
		return zero, fmt.Errorf("dbvec: read slot %d: %w", i, err)
	}

	return v.codec.Load(v.storage, slot)
}

// Push appends v, growing capacity to max(64, capacity + capacity/2) if
// the vector is full.
func (v *DbVec[T]) Push(value T) error {
	length, err := v.Len()
	if err != nil {
		return err
	}

	capacity, err := v.Capacity()
	if err != nil {
		return err
	}

	txn := v.storage.Transaction()

	if length+1 > capacity {
		newCap := capacity + capacity/2
		if newCap < minCapacity {
			newCap = minCapacity
		}

		if err := v.storage.ResizeValue(v.index, lenHeaderSize+newCap*v.codec.StorageLen()); err != nil {
			return fmt.Errorf("dbvec: grow capacity: %w", err)
		}
	}

	slot, err := v.codec.Store(v.storage, value)
	if err != nil {
		return fmt.Errorf("dbvec: store element: %w", err)
	}

	if err := v.storage.InsertAt(v.index, v.slotOffset(length), dbvalue.Bytes(slot)); err != nil {
		return fmt.Errorf("dbvec: write slot %d: %w", length, err)
	}

	if err := v.setLen(length + 1); err != nil {
		return err
	}

	return v.storage.Commit(txn)
}

// Remove deletes the element at index i, sliding the tail down by one slot.
func (v *DbVec[T]) Remove(i uint64) error {
	length, err := v.Len()
	if err != nil {
		return err
	}

	if i >= length {
		return fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, i, length)
	}

	slot, err := v.storage.ValueBytesAtSize(v.index, v.slotOffset(i), v.codec.StorageLen())
	if err != nil {
		return fmt.Errorf("dbvec: read slot %d: %w", i, err)
	}

	txn := v.storage.Transaction()

	if err := v.codec.Remove(v.storage, slot); err != nil {
		return fmt.Errorf("dbvec: release slot %d: %w", i, err)
	}

	tailCount := length - i - 1
	if tailCount > 0 {
		err := v.storage.MoveAt(v.index, v.slotOffset(i+1), v.slotOffset(i), tailCount*v.codec.StorageLen())
		if err != nil {
			return fmt.Errorf("dbvec: shift tail after remove %d: %w", i, err)
		}
	}

	if err := v.setLen(length - 1); err != nil {
		return err
	}

	return v.storage.Commit(txn)
}

// Replace overwrites the element at index i, releasing any child record the
// old element owned first.
func (v *DbVec[T]) Replace(i uint64, value T) error {
	length, err := v.Len()
	if err != nil {
		return err
	}

	if i >= length {
		return fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, i, length)
	}

	old, err := v.storage.ValueBytesAtSize(v.index, v.slotOffset(i), v.codec.StorageLen())
	if err != nil {
		return fmt.Errorf("dbvec: read slot %d: %w", i, err)
	}

	txn := v.storage.Transaction()

	if err := v.codec.Remove(v.storage, old); err != nil {
		return fmt.Errorf("dbvec: release slot %d: %w", i, err)
	}

	slot, err := v.codec.Store(v.storage, value)
	if err != nil {
		return fmt.Errorf("dbvec: store element: %w", err)
	}

	if err := v.storage.InsertAt(v.index, v.slotOffset(i), dbvalue.Bytes(slot)); err != nil {
		return fmt.Errorf("dbvec: write slot %d: %w", i, err)
	}

	return v.storage.Commit(txn)
}

// Swap exchanges the slots at i and j by shuffling bytes only, without
// invoking the codec's Store/Load/Remove. This is essential for rehash
// performance in [pkg/dbmap].
func (v *DbVec[T]) Swap(i, j uint64) error {
	if i == j {
		return nil
	}

	slotLen := v.codec.StorageLen()

	a, err := v.storage.ValueBytesAtSize(v.index, v.slotOffset(i), slotLen)
	if err != nil {
		return fmt.Errorf("dbvec: read slot %d: %w", i, err)
	}

	b, err := v.storage.ValueBytesAtSize(v.index, v.slotOffset(j), slotLen)
	if err != nil {
		return fmt.Errorf("dbvec: read slot %d: %w", j, err)
	}

	txn := v.storage.Transaction()

	if err := v.storage.InsertAt(v.index, v.slotOffset(i), dbvalue.Bytes(b)); err != nil {
		return fmt.Errorf("dbvec: write slot %d: %w", i, err)
	}

	if err := v.storage.InsertAt(v.index, v.slotOffset(j), dbvalue.Bytes(a)); err != nil {
		return fmt.Errorf("dbvec: write slot %d: %w", j, err)
	}

	return v.storage.Commit(txn)
}

// Reserve grows capacity to at least n slots without changing length.
func (v *DbVec[T]) Reserve(n uint64) error {
	capacity, err := v.Capacity()
	if err != nil {
		return err
	}

	if n <= capacity {
		return nil
	}

	txn := v.storage.Transaction()

	if err := v.storage.ResizeValue(v.index, lenHeaderSize+n*v.codec.StorageLen()); err != nil {
		return fmt.Errorf("dbvec: reserve: %w", err)
	}

	return v.storage.Commit(txn)
}

// Resize changes the logical length to n. Growing fills new slots with T's
// zero value; shrinking releases the child records (if any) of every
// removed element.
func (v *DbVec[T]) Resize(n uint64) error {
	length, err := v.Len()
	if err != nil {
		return err
	}

	switch {
	case n > length:
		txn := v.storage.Transaction()

		if err := v.Reserve(n); err != nil {
			return err
		}

		var zero T

		for i := length; i < n; i++ {
			slot, err := v.codec.Store(v.storage, zero)
			if err != nil {
				return fmt.Errorf("dbvec: store default element %d: %w", i, err)
			}

			if err := v.storage.InsertAt(v.index, v.slotOffset(i), dbvalue.Bytes(slot)); err != nil {
				return fmt.Errorf("dbvec: write slot %d: %w", i, err)
			}
		}

		if err := v.setLen(n); err != nil {
			return err
		}

		return v.storage.Commit(txn)
	case n < length:
		txn := v.storage.Transaction()

		for i := n; i < length; i++ {
			slot, err := v.storage.ValueBytesAtSize(v.index, v.slotOffset(i), v.codec.StorageLen())
			if err != nil {
				return fmt.Errorf("dbvec: read slot %d: %w", i, err)
			}

			if err := v.codec.Remove(v.storage, slot); err != nil {
				return fmt.Errorf("dbvec: release slot %d: %w", i, err)
			}
		}

		if err := v.setLen(n); err != nil {
			return err
		}

		return v.storage.Commit(txn)
	default:
		return nil
	}
}

// ShrinkToFit trims capacity down to the current length.
func (v *DbVec[T]) ShrinkToFit() error {
	length, err := v.Len()
	if err != nil {
		return err
	}

	txn := v.storage.Transaction()

	if err := v.storage.ResizeValue(v.index, lenHeaderSize+length*v.codec.StorageLen()); err != nil {
		return fmt.Errorf("dbvec: shrink to fit: %w", err)
	}

	return v.storage.Commit(txn)
}
