package dbmap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/graphdb/pkg/dbvec"
	"github.com/calvinalkan/graphdb/pkg/storage"
	"github.com/calvinalkan/graphdb/pkg/storagedata"
)

func newTestStorage(t *testing.T) *storage.Storage {
	t.Helper()

	s, err := storage.Open(storagedata.NewMemory(), storagedata.NewMemory())
	require.NoError(t, err)

	return s
}

func newTestMap(t *testing.T) *Map[uint64, uint64] {
	t.Helper()

	m, err := NewMap[uint64, uint64](newTestStorage(t), HashUint64, dbvec.Uint64Codec{}, dbvec.Uint64Codec{})
	require.NoError(t, err)

	return m
}

func Test_Map_InsertThenValue(t *testing.T) {
	m := newTestMap(t)

	require.NoError(t, m.Insert(1, 100))
	require.NoError(t, m.Insert(2, 200))

	v, err := m.Value(1)
	require.NoError(t, err)
	require.Equal(t, uint64(100), v)

	v, err = m.Value(2)
	require.NoError(t, err)
	require.Equal(t, uint64(200), v)
}

func Test_Map_Value_NotFound(t *testing.T) {
	m := newTestMap(t)

	_, err := m.Value(42)
	require.ErrorIs(t, err, ErrKeyNotFound)
}

func Test_Map_Insert_OverwritesExistingKey(t *testing.T) {
	m := newTestMap(t)

	require.NoError(t, m.Insert(1, 100))
	require.NoError(t, m.Insert(1, 200))

	length, err := m.Len()
	require.NoError(t, err)
	require.Equal(t, uint64(1), length)

	v, err := m.Value(1)
	require.NoError(t, err)
	require.Equal(t, uint64(200), v)
}

func Test_Map_Remove(t *testing.T) {
	m := newTestMap(t)

	require.NoError(t, m.Insert(1, 100))
	require.NoError(t, m.Remove(1))

	_, err := m.Value(1)
	require.ErrorIs(t, err, ErrKeyNotFound)

	length, err := m.Len()
	require.NoError(t, err)
	require.Equal(t, uint64(0), length)
}

func Test_Map_Remove_AbsentKeyIsNoop(t *testing.T) {
	m := newTestMap(t)

	require.NoError(t, m.Remove(42))
}

// S2 — Rehash growth boundary: inserting 0..100 must have grown capacity to
// 128, and removing them all back down must shrink to the floor of 64.
func Test_Map_S2_RehashGrowthBoundary(t *testing.T) {
	m := newTestMap(t)

	for i := uint64(0); i < 100; i++ {
		require.NoError(t, m.Insert(i, i))
	}

	length, err := m.Len()
	require.NoError(t, err)
	require.Equal(t, uint64(100), length)

	capacity, err := m.Capacity()
	require.NoError(t, err)
	require.Equal(t, uint64(128), capacity)

	for i := uint64(0); i < 100; i++ {
		require.NoError(t, m.Remove(i))
	}

	length, err = m.Len()
	require.NoError(t, err)
	require.Equal(t, uint64(0), length)

	capacity, err = m.Capacity()
	require.NoError(t, err)
	require.Equal(t, uint64(64), capacity)
}

func Test_Map_InsertRemoveReinsert_NoDuplicateAfterTombstone(t *testing.T) {
	m := newTestMap(t)

	for i := uint64(0); i < 10; i++ {
		require.NoError(t, m.Insert(i, i))
	}

	for i := uint64(0); i < 10; i += 2 {
		require.NoError(t, m.Remove(i))
	}

	for i := uint64(0); i < 10; i += 2 {
		require.NoError(t, m.Insert(i, i*10))
	}

	length, err := m.Len()
	require.NoError(t, err)
	require.Equal(t, uint64(10), length)

	for i := uint64(0); i < 10; i++ {
		v, err := m.Value(i)
		require.NoError(t, err)

		if i%2 == 0 {
			require.Equal(t, i*10, v)
		} else {
			require.Equal(t, i, v)
		}
	}
}

func Test_Map_Iter_VisitsEveryEntryExactlyOnce(t *testing.T) {
	m := newTestMap(t)

	want := map[uint64]uint64{}
	for i := uint64(0); i < 20; i++ {
		require.NoError(t, m.Insert(i, i*2))
		want[i] = i * 2
	}

	it, err := m.Iter()
	require.NoError(t, err)

	got := map[uint64]uint64{}

	for {
		e, ok := it.Next()
		if !ok {
			break
		}

		_, dup := got[e.Key]
		require.False(t, dup, "key %d visited twice", e.Key)
		got[e.Key] = e.Value
	}

	require.Equal(t, want, got)
}

func Test_Map_PersistsAcrossReopen(t *testing.T) {
	data := storagedata.NewMemory()
	walData := storagedata.NewMemory()

	s, err := storage.Open(data, walData)
	require.NoError(t, err)

	m, err := NewMap[uint64, uint64](s, HashUint64, dbvec.Uint64Codec{}, dbvec.Uint64Codec{})
	require.NoError(t, err)
	require.NoError(t, m.Insert(7, 70))
	require.NoError(t, s.Close())

	s2, err := storage.Open(data, walData)
	require.NoError(t, err)

	m2, err := OpenMap[uint64, uint64](s2, m.Index(), HashUint64, dbvec.Uint64Codec{}, dbvec.Uint64Codec{})
	require.NoError(t, err)

	v, err := m2.Value(7)
	require.NoError(t, err)
	require.Equal(t, uint64(70), v)
}
