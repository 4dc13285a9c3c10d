package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalar_Uninitialized(t *testing.T) {
	s := Uninitialized()
	require.False(t, s.IsInitialized())
	require.Equal(t, "<uninitialized>", s.String())
}

func TestScalar_Equals(t *testing.T) {
	a := NewInt(I32, 5)
	b := NewInt(I32, 5)
	c := NewInt(I32, 6)
	d := NewInt(I64, 5)

	require.True(t, a.Equals(b))
	require.False(t, a.Equals(c), "different value")
	require.False(t, a.Equals(d), "different kind, same bits")
	require.False(t, a.Equals(Uninitialized()), "equality undefined across uninitialised")
}

func TestScalar_Int64SignExtends(t *testing.T) {
	for _, tc := range []struct {
		kind ScalarKind
		bits int64
		want int64
	}{
		{I8, -1, -1},
		{I16, -1, -1},
		{I32, -1, -1},
		{I64, -1, -1},
		{I32, 127, 127},
	} {
		s := NewInt(tc.kind, tc.bits)
		require.Equal(t, tc.want, s.Int64(), "kind %s", tc.kind)
	}
}

func TestScalar_NewUint(t *testing.T) {
	s := NewUint(U32, 4000000000)
	require.Equal(t, uint64(4000000000), s.Uint64())
}

func TestScalar_NewIntPanicsOnUnsignedKind(t *testing.T) {
	require.Panics(t, func() { NewInt(U32, 1) })
}

func TestScalar_NewUintPanicsOnSignedKind(t *testing.T) {
	require.Panics(t, func() { NewUint(I32, 1) })
}

func TestScalar_NewBool(t *testing.T) {
	require.Equal(t, uint64(1), NewBool(true).Uint64())
	require.Equal(t, uint64(0), NewBool(false).Uint64())
	require.Equal(t, "true", NewBool(true).String())
}

func TestValue_IsTuple(t *testing.T) {
	scalar := ScalarValue(NewInt(I32, 1))
	require.False(t, scalar.IsTuple())

	tup := TupleValue([]Value{scalar, scalar})
	require.True(t, tup.IsTuple())
	require.Len(t, tup.Tuple, 2)
}
