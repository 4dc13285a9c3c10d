package ir

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exp-lang/expc/internal/types"
)

func TestOperand_Variants(t *testing.T) {
	ssa := Ssa(3)
	require.True(t, ssa.IsSsa())
	require.Equal(t, uint32(3), ssa.SsaIndex())
	require.Equal(t, OperandSsa, ssa.Kind())

	imm := Immediate(types.NewInt(types.I32, 42))
	require.Equal(t, OperandImmediate, imm.Kind())
	require.Equal(t, int64(42), imm.Imm().Int64())

	cst := Constant(ConstIdx(2))
	require.Equal(t, OperandConstant, cst.Kind())
	require.Equal(t, ConstIdx(2), cst.ConstIndex())

	lbl := Label(LabelIdx(1))
	require.Equal(t, OperandLabel, lbl.Kind())
	require.Equal(t, LabelIdx(1), lbl.LabelIndex())

	args := Args(ArgIdx(4))
	require.Equal(t, OperandArgs, args.Kind())
	require.Equal(t, ArgIdx(4), args.ArgsIndex())
}

func TestOperand_WrongAccessorPanics(t *testing.T) {
	ssa := Ssa(0)
	require.Panics(t, func() { ssa.Imm() })
	require.Panics(t, func() { ssa.ConstIndex() })
	require.Panics(t, func() { ssa.LabelIndex() })
	require.Panics(t, func() { ssa.ArgsIndex() })

	imm := Immediate(types.NewInt(types.I32, 1))
	require.Panics(t, func() { imm.SsaIndex() })
}

func TestOperand_String(t *testing.T) {
	require.Equal(t, "v3", Ssa(3).String())
	require.Equal(t, "const[2]", Constant(2).String())
	require.Equal(t, "label[1]", Label(1).String())
	require.Equal(t, "args[4]", Args(4).String())
}
