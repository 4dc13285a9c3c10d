package ir

import "fmt"

// Opcode is the closed instruction set of spec.md §3.
type Opcode byte

const (
	OpInvalid Opcode = iota
	OpRet
	OpCall
	OpDot
	OpLoad
	OpNeg
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	NumOpcodes
)

// String implements fmt.Stringer.
func (op Opcode) String() string {
	switch op {
	case OpRet:
		return "ret"
	case OpCall:
		return "call"
	case OpDot:
		return "dot"
	case OpLoad:
		return "load"
	case OpNeg:
		return "neg"
	case OpAdd:
		return "add"
	case OpSub:
		return "sub"
	case OpMul:
		return "mul"
	case OpDiv:
		return "div"
	case OpMod:
		return "mod"
	default:
		panic(fmt.Sprintf("BUG: invalid opcode %d", byte(op)))
	}
}

// DefinesValue reports whether this opcode writes operand A as a new SSA
// local. Only RET does not: its B field is the returned operand instead.
func (op Opcode) DefinesValue() bool { return op != OpRet }

// Instruction is the fixed-size three-address record of spec.md §3:
// {opcode, A, B, C}. A is always the destination SSA local when the
// opcode defines a value (DefinesValue); RET instead uses B as its return
// operand and leaves A unused. CALL uses B as a Label callee and C as an
// Args operand naming the actual-argument list in the module's ArgPool.
type Instruction struct {
	Op   Opcode
	A    uint32 // destination SSA index, valid iff Op.DefinesValue()
	B, C Operand
}

// Ret builds a RET instruction returning src.
func Ret(src Operand) Instruction { return Instruction{Op: OpRet, B: src} }

// Call builds a CALL instruction assigning dst from invoking callee with
// args (an Args operand indexing the module's argument-list pool).
func Call(dst uint32, callee, args Operand) Instruction {
	return Instruction{Op: OpCall, A: dst, B: callee, C: args}
}

// Dot builds a DOT instruction assigning dst the idx'th element of tuple.
// idx must be an Immediate integer operand (spec.md §4.4).
func Dot(dst uint32, tuple, idx Operand) Instruction {
	return Instruction{Op: OpDot, A: dst, B: tuple, C: idx}
}

// Load builds a LOAD instruction copying/initialising dst from src.
func Load(dst uint32, src Operand) Instruction { return Instruction{Op: OpLoad, A: dst, B: src} }

// Neg builds a NEG instruction assigning dst the negation of src.
func Neg(dst uint32, src Operand) Instruction { return Instruction{Op: OpNeg, A: dst, B: src} }

func binOp(op Opcode, dst uint32, l, r Operand) Instruction {
	return Instruction{Op: op, A: dst, B: l, C: r}
}

// Add builds dst = l + r.
func Add(dst uint32, l, r Operand) Instruction { return binOp(OpAdd, dst, l, r) }

// Sub builds dst = l - r.
func Sub(dst uint32, l, r Operand) Instruction { return binOp(OpSub, dst, l, r) }

// Mul builds dst = l * r.
func Mul(dst uint32, l, r Operand) Instruction { return binOp(OpMul, dst, l, r) }

// Div builds dst = l / r (signed quotient).
func Div(dst uint32, l, r Operand) Instruction { return binOp(OpDiv, dst, l, r) }

// Mod builds dst = l % r (signed remainder).
func Mod(dst uint32, l, r Operand) Instruction { return binOp(OpMod, dst, l, r) }

// Sources calls f for every source Operand in the instruction, i.e. every
// operand position other than A. Used by lifetime analysis (spec.md
// §4.2) and by the selector's generic operand handling.
//
// CALL's C operand is itself an Args index rather than a plain source
// operand, so it is expanded through mod's ArgPool: every Ssa reference
// inside the actual-argument list is a real use of that local at this
// instruction (e.g. `add(x + 1, y)` reads both the intermediate sum and
// y here), matching the original's lifetimes_compute_operand recursing
// into a CALL's argument tuple.
func (in Instruction) Sources(mod *Module, f func(Operand)) {
	switch in.Op {
	case OpRet, OpNeg, OpLoad:
		f(in.B)
	case OpDot, OpAdd, OpSub, OpMul, OpDiv, OpMod:
		f(in.B)
		f(in.C)
	case OpCall:
		f(in.B)
		for _, arg := range mod.Args.Get(in.C.ArgsIndex()) {
			f(arg)
		}
	default:
		panic(fmt.Sprintf("BUG: invalid opcode %d", byte(in.Op)))
	}
}

// String renders the instruction for debug dumps.
func (in Instruction) String() string {
	if !in.Op.DefinesValue() {
		return fmt.Sprintf("%s %s", in.Op, in.B)
	}
	switch in.Op {
	case OpLoad, OpNeg:
		return fmt.Sprintf("v%d = %s %s", in.A, in.Op, in.B)
	default:
		return fmt.Sprintf("v%d = %s %s, %s", in.A, in.Op, in.B, in.C)
	}
}
