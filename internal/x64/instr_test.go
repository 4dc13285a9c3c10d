package x64

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exp-lang/expc/internal/regalloc"
)

func TestOpcode_String(t *testing.T) {
	cases := map[Opcode]string{
		OpRet:  "ret",
		OpCall: "call",
		OpPush: "push",
		OpPop:  "pop",
		OpMov:  "mov",
		OpLea:  "lea",
		OpNeg:  "neg",
		OpAdd:  "add",
		OpSub:  "sub",
		OpImul: "imul",
		OpIdiv: "idiv",
		OpCdq:  "cdq",
		OpCqo:  "cqo",
	}
	for op, want := range cases {
		require.Equal(t, want, op.String())
	}
}

func TestOpcode_StringPanicsOnInvalid(t *testing.T) {
	require.Panics(t, func() { Opcode(200).String() })
}

func TestInstruction_ZeroOperandForms(t *testing.T) {
	require.Equal(t, byte(0), Ret().NumOperands)
	require.Equal(t, OpRet, Ret().Op)
	require.Equal(t, OpCdq, Cdq().Op)
	require.Equal(t, byte(0), Cdq().NumOperands)
	require.Equal(t, OpCqo, Cqo().Op)
}

func TestInstruction_OneOperandForms(t *testing.T) {
	r := Gpr(regalloc.RAX)

	push := Push(r)
	require.Equal(t, OpPush, push.Op)
	require.Equal(t, byte(1), push.NumOperands)
	require.Equal(t, byte(8), push.Size)
	require.Equal(t, r, push.A)

	pop := Pop(r)
	require.Equal(t, OpPop, pop.Op)
	require.Equal(t, byte(8), pop.Size)

	neg := Neg(r, 4)
	require.Equal(t, OpNeg, neg.Op)
	require.Equal(t, byte(4), neg.Size)

	idiv := Idiv(r, 4)
	require.Equal(t, OpIdiv, idiv.Op)
	require.Equal(t, byte(1), idiv.NumOperands)

	call := CallLabel(Lbl(0))
	require.Equal(t, OpCall, call.Op)
	require.Equal(t, byte(8), call.Size)
}

func TestInstruction_TwoOperandForms(t *testing.T) {
	dst := Gpr(regalloc.RAX)
	src := Gpr(regalloc.RCX)

	mov := Mov(dst, src, 4)
	require.Equal(t, OpMov, mov.Op)
	require.Equal(t, byte(2), mov.NumOperands)
	require.Equal(t, dst, mov.A)
	require.Equal(t, src, mov.B)
	require.Equal(t, byte(4), mov.Size)

	lea := Lea(dst, Addr(regalloc.Address{Base: regalloc.RBP, Offset: -8}))
	require.Equal(t, OpLea, lea.Op)
	require.Equal(t, byte(8), lea.Size, "addresses are always pointer-sized")

	add := Add(dst, src, 8)
	require.Equal(t, OpAdd, add.Op)

	sub := Sub(dst, src, 8)
	require.Equal(t, OpSub, sub.Op)

	imul := Imul(dst, src, 4)
	require.Equal(t, OpImul, imul.Op)
}

func TestInstruction_WithComment(t *testing.T) {
	in := Mov(Gpr(regalloc.RDI), Gpr(regalloc.RAX), 4).WithComment("arg 0")
	require.Equal(t, "arg 0", in.Comment)

	base := Ret()
	require.Empty(t, base.Comment)
	commented := base.WithComment("epilogue")
	require.Equal(t, "epilogue", commented.Comment)
	require.Empty(t, base.Comment, "WithComment must not mutate the receiver")
}
