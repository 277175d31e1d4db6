package dbvec

// Iterator walks a DbVec's logical elements. It is snapshot-by-construction:
// the length is captured at creation, and a storage error reading any
// individual element terminates iteration early rather than propagating,
// since iterators have no error channel of their own.
type Iterator[T any] struct {
	vec    *DbVec[T]
	length uint64
	next   uint64
}

// Iter returns an [Iterator] over v's current elements.
func (v *DbVec[T]) Iter() (*Iterator[T], error) {
	length, err := v.Len()
	if err != nil {
		return nil, err
	}

	return &Iterator[T]{vec: v, length: length}, nil
}

// Next returns the next element and true, or the zero value and false once
// the snapshot length is reached or an element could not be read.
func (it *Iterator[T]) Next() (T, bool) {
	var zero T

	if it.next >= it.length {
		return zero, false
	}

	i := it.next
	it.next++

	v, err := it.vec.Value(i)
	if err != nil {
		it.next = it.length // stop for good, matching the snapshot contract

		return zero, false
	}

	return v, true
}
