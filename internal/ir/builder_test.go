package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exp-lang/expc/internal/types"
)

func TestBuilder_ArgsOccupyLeadingSsaSlots(t *testing.T) {
	in := types.NewInterner()
	strs := types.NewStringInterner()
	i32 := in.InternScalar(types.I32)

	b := NewBuilder(strs.Intern("add"), []types.ID{i32, i32}, []types.StringView{strs.Intern("a"), strs.Intern("b")}, i32)
	dst := b.NewLocal(i32)
	b.Emit(Add(dst, Ssa(0), Ssa(1)))
	b.Emit(Ret(Ssa(dst)))
	fn := b.Finish()

	require.Equal(t, 2, fn.NumArgs())
	require.Equal(t, uint32(0), fn.Args[0].Ssa)
	require.Equal(t, uint32(1), fn.Args[1].Ssa)
	require.Equal(t, dst, uint32(2), "first NewLocal after two args takes slot 2")
	require.Len(t, fn.Locals, 3)
	require.Len(t, fn.Block, 2)
	require.Equal(t, Building, fn.State)
}

func TestBuilder_EmitAfterFinishPanics(t *testing.T) {
	in := types.NewInterner()
	i32 := in.InternScalar(types.I32)
	b := NewBuilder(types.StringView{}, nil, nil, i32)
	fn := b.Finish()
	fn.State = Selected
	require.Panics(t, func() { b.Emit(Ret(Immediate(types.NewInt(types.I32, 0)))) })
}

func TestBuilder_NamedLocal(t *testing.T) {
	strs := types.NewStringInterner()
	in := types.NewInterner()
	i32 := in.InternScalar(types.I32)
	b := NewBuilder(types.StringView{}, nil, nil, i32)
	idx := b.NamedLocal(i32, strs.Intern("x"))
	fn := b.Finish()
	require.True(t, fn.Locals[idx].HasName)
	require.Equal(t, "x", fn.Locals[idx].Name.String())
}
