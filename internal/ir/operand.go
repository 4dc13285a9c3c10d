// Package ir implements expc's SSA linear bytecode: a closed set of
// Operand and Instruction variants, the per-function Local table, and the
// module-scoped symbol/constant/label tables, per spec.md §3.
package ir

import (
	"fmt"

	"github.com/exp-lang/expc/internal/types"
)

// ConstIdx indexes the module constant pool.
type ConstIdx uint32

// LabelIdx indexes the module label table.
type LabelIdx uint32

// ArgIdx indexes the module's argument-list pool (see Module.Args).
type ArgIdx uint32

// OperandKind tags Operand's variant, mirroring the teacher's tagged-byte
// convention (ssa.Instruction's opcode/operand encoding).
type OperandKind byte

const (
	OperandInvalid OperandKind = iota
	OperandSsa
	OperandImmediate
	OperandConstant
	OperandLabel
	OperandArgs
)

// Operand is the closed five-variant operand set of spec.md §3: a
// reference to a local (Ssa), a literal scalar (Immediate), a pool index
// (Constant), a global symbol reference (Label), or a CALL argument list
// (Args). Args is not in spec.md's own enumeration; it exists because
// CALL's actual-argument list must be able to carry Ssa operands (e.g. a
// computed expression passed as an argument), which a Constant operand
// cannot represent — see Module.Args.
type Operand struct {
	kind  OperandKind
	ssa   uint32
	imm   types.Scalar
	cidx  ConstIdx
	label LabelIdx
	aidx  ArgIdx
}

// Ssa builds an Operand referencing local k in the current function.
func Ssa(k uint32) Operand { return Operand{kind: OperandSsa, ssa: k} }

// Immediate builds an Operand holding a compile-time scalar literal.
func Immediate(s types.Scalar) Operand { return Operand{kind: OperandImmediate, imm: s} }

// Constant builds an Operand indexing the module constant pool.
func Constant(idx ConstIdx) Operand { return Operand{kind: OperandConstant, cidx: idx} }

// Label builds an Operand referencing a global symbol.
func Label(idx LabelIdx) Operand { return Operand{kind: OperandLabel, label: idx} }

// Args builds an Operand indexing the module's argument-list pool.
func Args(idx ArgIdx) Operand { return Operand{kind: OperandArgs, aidx: idx} }

// Kind returns o's variant tag.
func (o Operand) Kind() OperandKind { return o.kind }

// IsSsa reports whether o is an Ssa operand.
func (o Operand) IsSsa() bool { return o.kind == OperandSsa }

// SsaIndex returns the referenced local index; panics if o is not Ssa.
func (o Operand) SsaIndex() uint32 {
	if o.kind != OperandSsa {
		panic(fmt.Sprintf("BUG: SsaIndex of non-ssa operand (kind %d)", o.kind))
	}
	return o.ssa
}

// Imm returns the literal scalar; panics if o is not Immediate.
func (o Operand) Imm() types.Scalar {
	if o.kind != OperandImmediate {
		panic(fmt.Sprintf("BUG: Imm of non-immediate operand (kind %d)", o.kind))
	}
	return o.imm
}

// ConstIndex returns the constant-pool index; panics if o is not Constant.
func (o Operand) ConstIndex() ConstIdx {
	if o.kind != OperandConstant {
		panic(fmt.Sprintf("BUG: ConstIndex of non-constant operand (kind %d)", o.kind))
	}
	return o.cidx
}

// LabelIndex returns the label-table index; panics if o is not Label.
func (o Operand) LabelIndex() LabelIdx {
	if o.kind != OperandLabel {
		panic(fmt.Sprintf("BUG: LabelIndex of non-label operand (kind %d)", o.kind))
	}
	return o.label
}

// ArgsIndex returns the argument-list index; panics if o is not Args.
func (o Operand) ArgsIndex() ArgIdx {
	if o.kind != OperandArgs {
		panic(fmt.Sprintf("BUG: ArgsIndex of non-args operand (kind %d)", o.kind))
	}
	return o.aidx
}

// String implements fmt.Stringer for debug dumps.
func (o Operand) String() string {
	switch o.kind {
	case OperandSsa:
		return fmt.Sprintf("v%d", o.ssa)
	case OperandImmediate:
		return o.imm.String()
	case OperandConstant:
		return fmt.Sprintf("const[%d]", o.cidx)
	case OperandLabel:
		return fmt.Sprintf("label[%d]", o.label)
	case OperandArgs:
		return fmt.Sprintf("args[%d]", o.aidx)
	default:
		return "<invalid operand>"
	}
}
