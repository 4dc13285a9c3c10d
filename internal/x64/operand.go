// Package x64 implements expc's instruction selector: it walks an
// ir.Function and lowers each ir.Instruction to one or more x86-64
// instructions, consulting internal/regalloc to realise every operand
// (spec.md §4.4).
package x64

import (
	"fmt"

	"github.com/exp-lang/expc/internal/ir"
	"github.com/exp-lang/expc/internal/regalloc"
	"github.com/exp-lang/expc/internal/types"
)

// OperandKind tags Operand's variant, per spec.md §4.4's x86-64 operand
// model.
type OperandKind byte

const (
	OperandInvalid OperandKind = iota
	OperandGpr
	OperandAddress
	OperandImmediate
	OperandLabel
)

// Operand is the x86-64 operand model of spec.md §4.4: a register, a
// memory address, an immediate scalar, or a label reference.
type Operand struct {
	kind OperandKind
	gpr  regalloc.RealReg
	addr regalloc.Address
	imm  types.Scalar
	lbl  ir.LabelIdx
}

// Gpr builds a register Operand.
func Gpr(r regalloc.RealReg) Operand { return Operand{kind: OperandGpr, gpr: r} }

// Addr builds a memory Operand.
func Addr(a regalloc.Address) Operand { return Operand{kind: OperandAddress, addr: a} }

// Imm builds an immediate Operand.
func Imm(s types.Scalar) Operand { return Operand{kind: OperandImmediate, imm: s} }

// Lbl builds a label-reference Operand.
func Lbl(idx ir.LabelIdx) Operand { return Operand{kind: OperandLabel, lbl: idx} }

// FromLocation builds the Operand corresponding to an allocator Location.
func FromLocation(loc regalloc.Location) Operand {
	if loc.IsGpr() {
		return Gpr(loc.Gpr())
	}
	return Addr(loc.Address())
}

// Kind returns o's variant tag.
func (o Operand) Kind() OperandKind { return o.kind }

// IsGpr reports whether o is a register operand.
func (o Operand) IsGpr() bool { return o.kind == OperandGpr }

// IsAddress reports whether o is a memory operand.
func (o Operand) IsAddress() bool { return o.kind == OperandAddress }

// IsMemory is an alias for IsAddress, matching the "both sides in memory"
// phrasing spec.md §4.4 uses for the Copy intrinsic.
func (o Operand) IsMemory() bool { return o.IsAddress() }

// Gpr returns the register; panics if o is not a register operand.
func (o Operand) Gpr() regalloc.RealReg {
	if o.kind != OperandGpr {
		panic(fmt.Sprintf("BUG: Gpr of non-register operand (kind %d)", o.kind))
	}
	return o.gpr
}

// Address returns the memory address; panics if o is not a memory operand.
func (o Operand) Address() regalloc.Address {
	if o.kind != OperandAddress {
		panic(fmt.Sprintf("BUG: Address of non-memory operand (kind %d)", o.kind))
	}
	return o.addr
}

// Imm returns the immediate scalar; panics if o is not an immediate operand.
func (o Operand) Imm() types.Scalar {
	if o.kind != OperandImmediate {
		panic(fmt.Sprintf("BUG: Imm of non-immediate operand (kind %d)", o.kind))
	}
	return o.imm
}

// Label returns the label index; panics if o is not a label operand.
func (o Operand) Label() ir.LabelIdx {
	if o.kind != OperandLabel {
		panic(fmt.Sprintf("BUG: Label of non-label operand (kind %d)", o.kind))
	}
	return o.lbl
}
