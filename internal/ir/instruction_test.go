package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exp-lang/expc/internal/types"
)

func TestInstruction_DefinesValue(t *testing.T) {
	require.False(t, OpRet.DefinesValue())
	for _, op := range []Opcode{OpCall, OpDot, OpLoad, OpNeg, OpAdd, OpSub, OpMul, OpDiv, OpMod} {
		require.True(t, op.DefinesValue(), "%s should define a value", op)
	}
}

func TestInstruction_Sources(t *testing.T) {
	mod := NewModule("t.exp")
	args := mod.Args.Add([]Operand{Ssa(4), Immediate(types.NewInt(types.I32, 9))})

	for _, tc := range []struct {
		name string
		in   Instruction
		want []Operand
	}{
		{"ret", Ret(Ssa(1)), []Operand{Ssa(1)}},
		{"load", Load(2, Ssa(1)), []Operand{Ssa(1)}},
		{"neg", Neg(2, Ssa(1)), []Operand{Ssa(1)}},
		{"add", Add(3, Ssa(1), Ssa(2)), []Operand{Ssa(1), Ssa(2)}},
		{"call", Call(3, Label(0), Args(args)), []Operand{Label(0), Ssa(4), Immediate(types.NewInt(types.I32, 9))}},
		{"dot", Dot(3, Ssa(1), Immediate(types.NewInt(types.I32, 0))), []Operand{Ssa(1), Immediate(types.NewInt(types.I32, 0))}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var got []Operand
			tc.in.Sources(mod, func(o Operand) { got = append(got, o) })
			require.Equal(t, tc.want, got)
		})
	}
}

func TestInstruction_SourcesInvalidOpcodePanics(t *testing.T) {
	mod := NewModule("t.exp")
	in := Instruction{Op: OpInvalid}
	require.Panics(t, func() { in.Sources(mod, func(Operand) {}) })
}

func TestInstruction_String(t *testing.T) {
	require.Equal(t, "ret v1", Ret(Ssa(1)).String())
	require.Equal(t, "v2 = add v0, v1", Add(2, Ssa(0), Ssa(1)).String())
	require.Equal(t, "v1 = neg v0", Neg(1, Ssa(0)).String())
}
