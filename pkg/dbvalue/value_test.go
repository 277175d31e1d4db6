package dbvalue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Uint64_Roundtrips(t *testing.T) {
	want := Uint64(0xdeadbeefcafebabe)

	b, err := want.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, int(want.BinarySize()))

	var got Uint64
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, want, got)
}

func Test_Int64_Roundtrips_Negative(t *testing.T) {
	want := Int64(-42)

	b, err := want.MarshalBinary()
	require.NoError(t, err)

	var got Int64
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, want, got)
}

func Test_Float64_Roundtrips(t *testing.T) {
	want := Float64(3.14159265)

	b, err := want.MarshalBinary()
	require.NoError(t, err)

	var got Float64
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, want, got)
}

func Test_Bool_Roundtrips(t *testing.T) {
	for _, want := range []Bool{true, false} {
		b, err := want.MarshalBinary()
		require.NoError(t, err)

		var got Bool
		require.NoError(t, got.UnmarshalBinary(b))
		require.Equal(t, want, got)
	}
}

func Test_String_Roundtrips(t *testing.T) {
	want := String("hello, graph")

	b, err := want.MarshalBinary()
	require.NoError(t, err)
	require.EqualValues(t, want.SerializedSize(), len(b))

	var got String
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, want, got)
}

func Test_Uint64_UnmarshalBinary_RejectsShortBuffer(t *testing.T) {
	var v Uint64
	require.ErrorIs(t, v.UnmarshalBinary([]byte{1, 2, 3}), ErrCorrupt)
}

func Test_Int64Slice_Roundtrips_Empty(t *testing.T) {
	want := Int64Slice{}

	b, err := want.MarshalBinary()
	require.NoError(t, err)

	var got Int64Slice
	require.NoError(t, got.UnmarshalBinary(b))
	require.Empty(t, got)
}

func Test_Int64Slice_Roundtrips(t *testing.T) {
	want := Int64Slice{1, 2, 3, -4, 5}

	b, err := want.MarshalBinary()
	require.NoError(t, err)

	var got Int64Slice
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, want, got)
}

func Test_Uint64Slice_Roundtrips(t *testing.T) {
	want := Uint64Slice{1, 2, 3, 4, 5}

	b, err := want.MarshalBinary()
	require.NoError(t, err)

	var got Uint64Slice
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, want, got)
}

func Test_StringSlice_Roundtrips(t *testing.T) {
	want := StringSlice{"alice", "", "bob's graph"}

	b, err := want.MarshalBinary()
	require.NoError(t, err)

	var got StringSlice
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, want, got)
}

func Test_Int64Slice_UnmarshalBinary_RejectsTruncated(t *testing.T) {
	var v Int64Slice
	require.ErrorIs(t, v.UnmarshalBinary([]byte{3, 0, 0, 0, 0, 0, 0, 0}), ErrCorrupt)
}
