package dbmap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// byteStream derives op choices deterministically from a byte slice, the
// same zero-padding-on-exhaustion idiom as the teacher's
// internal/testutil.ByteStream (see also pkg/dbvec/property_test.go).
type byteStream struct {
	b   []byte
	pos int
}

func (s *byteStream) next() byte {
	if s.pos >= len(s.b) {
		return 0
	}

	v := s.b[s.pos]
	s.pos++

	return v
}

func (s *byteStream) intn(n int) int {
	if n <= 0 {
		return 0
	}

	return int(s.next()) % n
}

var mapGenSeeds = [][]byte{
	{1, 2, 3, 250, 4, 5, 6, 200, 7, 8, 180, 9, 10, 160, 3, 3, 250, 250, 1, 1, 99, 2, 5, 230, 17},
	{250, 1, 250, 2, 250, 3, 250, 4, 250, 5, 250, 6, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13},
}

// Test_Map_GeneratedOpSequence_RespectsLoadFactorAndShrinkFloor is a
// table-driven property test for spec.md §8 invariant 4 (`len <=
// capacity*15/16` always holds, and capacity never drops below 64 once a
// shrink fires below 7/16) and invariant 3 (insert/remove correctness
// against a map oracle), driven by a generated sequence of insert/remove
// ops the same way Test_DbVec_GeneratedOpSequence_MatchesSliceModel drives
// DbVec.
func Test_Map_GeneratedOpSequence_RespectsLoadFactorAndShrinkFloor(t *testing.T) {
	for seedIdx, seed := range mapGenSeeds {
		seed := seed

		t.Run(fmt.Sprintf("seed_%d", seedIdx), func(t *testing.T) {
			stream := &byteStream{b: seed}

			m := newTestMap(t)
			model := make(map[uint64]uint64)

			const ops = 60

			for i := 0; i < ops; i++ {
				switch stream.intn(2) {
				case 0: // insert
					key := uint64(stream.intn(30))
					val := uint64(stream.intn(1000))
					require.NoError(t, m.Insert(key, val))
					model[key] = val
				case 1: // remove; a miss is a documented no-op, not an error
					key := uint64(stream.intn(30))
					require.NoError(t, m.Remove(key))
					delete(model, key)
				}

				requireMapInvariants(t, m, model, seedIdx, i)
			}
		})
	}
}

func requireMapInvariants(t *testing.T, m *Map[uint64, uint64], model map[uint64]uint64, seedIdx, opIndex int) {
	t.Helper()

	length, err := m.Len()
	require.NoError(t, err)
	require.Equalf(t, uint64(len(model)), length, "seed %d op %d: length mismatch", seedIdx, opIndex)

	capacity, err := m.Capacity()
	require.NoError(t, err)

	if capacity != 0 {
		require.GreaterOrEqualf(t, capacity, uint64(minCapacity), "seed %d op %d: nonzero capacity below floor", seedIdx, opIndex)
		require.LessOrEqualf(t, length, capacity*15/16, "seed %d op %d: load factor exceeded", seedIdx, opIndex)
	} else {
		require.Equalf(t, uint64(0), length, "seed %d op %d: zero capacity but nonzero length", seedIdx, opIndex)
	}

	for key, want := range model {
		got, err := m.Value(key)
		require.NoError(t, err)
		require.Equalf(t, want, got, "seed %d op %d: value for key %d mismatch", seedIdx, opIndex, key)
	}
}
