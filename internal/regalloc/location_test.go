package regalloc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddress_Equals(t *testing.T) {
	a := Address{Base: RBP, Index: RegInvalid, Offset: -8}
	b := Address{Base: RBP, Index: RegInvalid, Offset: -8}
	c := Address{Base: RBP, Index: RegInvalid, Offset: -16}
	require.True(t, a.Equals(b))
	require.False(t, a.Equals(c))
}

func TestLocation_Equals(t *testing.T) {
	g1 := GprLocation(RAX)
	g2 := GprLocation(RAX)
	g3 := GprLocation(RCX)
	require.True(t, g1.Equals(g2))
	require.False(t, g1.Equals(g3))

	a1 := AddressLocation(Address{Base: RBP, Offset: -8})
	a2 := AddressLocation(Address{Base: RBP, Offset: -8})
	require.True(t, a1.Equals(a2))
	require.False(t, g1.Equals(a1), "different kinds never alias")
}

func TestLocation_AccessorsPanicOnWrongKind(t *testing.T) {
	g := GprLocation(RAX)
	require.Panics(t, func() { g.Address() })

	a := AddressLocation(Address{Base: RBP})
	require.Panics(t, func() { a.Gpr() })
}

func TestLocation_InvalidIsNotValid(t *testing.T) {
	require.False(t, InvalidLocation.IsValid())
	require.True(t, GprLocation(RAX).IsValid())
}
