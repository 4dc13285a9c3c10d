package x64

import (
	"fmt"

	"github.com/exp-lang/expc/internal/diag"
	"github.com/exp-lang/expc/internal/ir"
	"github.com/exp-lang/expc/internal/lifetime"
	"github.com/exp-lang/expc/internal/regalloc"
	"github.com/exp-lang/expc/internal/types"
)

// Machine is the instruction selector of spec.md §4.4: it walks one
// ir.Function and produces its x86-64 instruction stream, driving a
// regalloc.Allocator as it goes.
type Machine struct {
	mod   *ir.Module
	fn    *ir.Function
	alloc *regalloc.Allocator
	out   []Instruction
	log   *diag.Logger
}

// NewMachine returns a Machine bound to mod, ready to Select functions
// one at a time. log may be nil; a disabled *diag.Logger is also safe to
// pass and behaves identically.
func NewMachine(mod *ir.Module, log *diag.Logger) *Machine { return &Machine{mod: mod, log: log} }

// Select lowers fn's IR block to x86-64 instructions, including the
// prologue (prepended once the frame size is known) and, at each RET, the
// matching epilogue. It advances fn.State Building -> Selected.
func (m *Machine) Select(fn *ir.Function) []Instruction {
	if fn.State != ir.Building {
		panic(fmt.Sprintf("BUG: Select called on function in state %s, want building", fn.State))
	}
	m.log.Pass("lifetime", fn.Name.String())
	lifetime.Analyze(fn, m.mod)

	m.fn = fn
	m.alloc = regalloc.NewAllocator()
	m.alloc.SetSpillLog(m.log.SpillVictim)
	m.out = nil

	m.log.Pass("select", fn.Name.String())
	m.bindIncomingArgs()

	for i, inst := range fn.Block {
		m.lower(i, inst)
		m.alloc.ReleaseExpired(i + 1)
	}

	residue := frameAlignResidue(len(m.alloc.UsedCalleeSaved()))
	fn.FrameSize = alignTo(m.alloc.Frame.TotalSize, residue)
	prologue := m.buildPrologue()
	final := make([]Instruction, 0, len(prologue)+len(m.out))
	final = append(final, prologue...)
	final = append(final, m.out...)

	fn.State = ir.Selected
	return final
}

func (m *Machine) emit(inst Instruction) { m.out = append(m.out, inst) }

func (m *Machine) sizeAlignOf(t types.ID) regalloc.SizeAlign {
	return regalloc.SizeAlign{Size: m.mod.Types.Size(t), Align: m.mod.Types.Align(t)}
}

func (m *Machine) intervalOf(local uint32) regalloc.Interval {
	l := m.fn.Local(local)
	return regalloc.Interval{FirstUse: l.Lifetime.FirstUse, LastUse: l.Lifetime.LastUse}
}

func (m *Machine) localDies(local uint32, atIndex int) bool {
	return m.fn.Local(local).Lifetime.LastUse == atIndex
}

func (m *Machine) byteSize(t types.ID) byte {
	sz := m.mod.Types.Size(t)
	if sz > 8 {
		sz = 8 // scalars handled here are always <= 8 bytes; composites go through copy's own per-field sizing
	}
	return byte(sz)
}

// argTypes collects the formal argument types for ABI classification.
func (m *Machine) argTypes() []types.ID {
	ts := make([]types.ID, m.fn.NumArgs())
	for i, a := range m.fn.Args {
		ts[i] = a.Type
	}
	return ts
}

// bindIncomingArgs implements spec.md §4.3's "allocate_to_address ... for
// incoming arguments per the System-V AMD64 ABI": classify the formals,
// then pin each to its ABI-determined register or caller-pushed stack
// slot before any IR instruction runs.
func (m *Machine) bindIncomingArgs() {
	classes := ClassifyArgs(m.mod.Types, m.argTypes())
	for i, cls := range classes {
		local := uint32(i)
		sa := m.sizeAlignOf(m.fn.Args[i].Type)
		var loc regalloc.Location
		if cls.InReg {
			loc = m.alloc.AllocateToGpr(local, m.intervalOf(local), cls.Reg, sa)
		} else {
			// Incoming overflow arguments sit above the return address and
			// saved RBP, at a positive offset from RBP, in declaration order.
			addr := regalloc.Address{Base: regalloc.RBP, Index: regalloc.RegInvalid, Offset: int32(16 + cls.StackOf)}
			loc = m.alloc.AllocateToAddress(local, addr)
		}
		m.fn.Locals[local].Location = loc
	}
}

// lower dispatches one IR instruction to its per-opcode lowering, per the
// contracts of spec.md §4.4.
func (m *Machine) lower(idx int, inst ir.Instruction) {
	switch inst.Op {
	case ir.OpLoad:
		m.lowerLoad(idx, inst)
	case ir.OpNeg:
		m.lowerNeg(idx, inst)
	case ir.OpAdd, ir.OpSub, ir.OpMul:
		m.lowerArith(idx, inst)
	case ir.OpDiv, ir.OpMod:
		m.lowerDivMod(idx, inst)
	case ir.OpDot:
		m.lowerDot(idx, inst)
	case ir.OpCall:
		m.lowerCall(idx, inst)
	case ir.OpRet:
		m.lowerRet(idx, inst)
	default:
		panic(fmt.Sprintf("BUG: invalid opcode %d", byte(inst.Op)))
	}
}

// lowerLoad implements spec.md §4.4's LOAD contract.
func (m *Machine) lowerLoad(idx int, inst ir.Instruction) {
	dst := inst.A
	typ := m.fn.Local(dst).Type
	sa := m.sizeAlignOf(typ)
	size := m.byteSize(typ)
	interval := m.intervalOf(dst)

	switch inst.B.Kind() {
	case ir.OperandSsa:
		src := inst.B.SsaIndex()
		dies := m.localDies(src, idx)
		loc, reused := m.alloc.AllocateFromActive(dst, interval, src, dies, sa)
		m.fn.Locals[dst].Location = loc
		if !reused {
			srcLoc, ok := m.alloc.LocationOf(src)
			if !ok {
				panic("BUG: LOAD source has no allocated location")
			}
			m.copyScalarOrTuple(FromLocation(loc), FromLocation(srcLoc), typ)
		}
	case ir.OperandImmediate:
		loc := m.alloc.Allocate(dst, interval, sa)
		m.fn.Locals[dst].Location = loc
		m.emit(Mov(FromLocation(loc), Imm(inst.B.Imm()), size))
	case ir.OperandConstant:
		val := m.mod.Consts.Get(inst.B.ConstIndex())
		var loc regalloc.Location
		if val.IsTuple() {
			// A tuple gets a frame slot so copyTupleValue can address its fields.
			loc = m.alloc.AllocateToAddress(dst, m.alloc.Frame.NewSlot(sa.Size, sa.Align))
		} else {
			loc = m.alloc.Allocate(dst, interval, sa)
		}
		m.fn.Locals[dst].Location = loc
		if val.IsTuple() {
			m.copyTupleValue(FromLocation(loc), val, typ)
		} else {
			m.emit(Mov(FromLocation(loc), Imm(val.Scalar), size))
		}
	case ir.OperandLabel:
		loc := m.alloc.Allocate(dst, interval, sa)
		m.fn.Locals[dst].Location = loc
		m.emit(Lea(FromLocation(loc), Lbl(inst.B.LabelIndex())))
	default:
		panic("BUG: invalid LOAD source operand")
	}
}

// lowerNeg implements spec.md §4.4's NEG contract.
func (m *Machine) lowerNeg(idx int, inst ir.Instruction) {
	dst := inst.A
	typ := m.fn.Local(dst).Type
	sa := m.sizeAlignOf(typ)
	size := m.byteSize(typ)
	interval := m.intervalOf(dst)

	var loc regalloc.Location
	if inst.B.IsSsa() {
		src := inst.B.SsaIndex()
		dies := m.localDies(src, idx)
		var reused bool
		loc, reused = m.alloc.AllocateFromActive(dst, interval, src, dies, sa)
		m.fn.Locals[dst].Location = loc
		if !reused {
			srcLoc, _ := m.alloc.LocationOf(src)
			m.copy(FromLocation(loc), FromLocation(srcLoc), size)
		}
	} else {
		loc = m.alloc.Allocate(dst, interval, sa)
		m.fn.Locals[dst].Location = loc
		m.loadOperandInto(FromLocation(loc), inst.B, size)
	}
	m.emit(Neg(FromLocation(loc), size))
}

// lowerArith implements spec.md §4.4's ADD/SUB/MUL contract.
func (m *Machine) lowerArith(idx int, inst ir.Instruction) {
	dst := inst.A
	l, r := inst.B, inst.C
	typ := m.fn.Local(dst).Type
	sa := m.sizeAlignOf(typ)
	size := m.byteSize(typ)
	interval := m.intervalOf(dst)

	reuseSrc, other, ok := m.pickReuseOperand(idx, l, r, inst.Op == ir.OpMul)
	var loc regalloc.Location
	if ok {
		loc, _ = m.alloc.AllocateFromActive(dst, interval, reuseSrc, true, sa)
		m.fn.Locals[dst].Location = loc
		m.emitArith(inst.Op, FromLocation(loc), m.materialize(other, size), size)
	} else {
		loc = m.alloc.Allocate(dst, interval, sa)
		m.fn.Locals[dst].Location = loc
		m.loadOperandInto(FromLocation(loc), l, size)
		m.emitArith(inst.Op, FromLocation(loc), m.materialize(r, size), size)
	}
}

// pickReuseOperand decides which of l, r (if either is an Ssa local dying
// at idx) dst's location should be allocated from, per spec.md §4.4:
// "Prefer to reuse l's or r's location as dst ... when either dies at
// this instruction"; for MUL with both operands locals, prefer "the one
// with shorter remaining lifetime" — read here, among two operands that
// both die now, as preferring whichever already resides in a register,
// since IMUL's destination must itself be a register.
func (m *Machine) pickReuseOperand(idx int, l, r ir.Operand, mulTieBreak bool) (src uint32, other ir.Operand, ok bool) {
	lDies := l.IsSsa() && m.localDies(l.SsaIndex(), idx)
	rDies := r.IsSsa() && m.localDies(r.SsaIndex(), idx)
	switch {
	case lDies && rDies:
		if mulTieBreak {
			if loc, found := m.alloc.LocationOf(l.SsaIndex()); found && loc.IsGpr() {
				return l.SsaIndex(), r, true
			}
			return r.SsaIndex(), l, true
		}
		return l.SsaIndex(), r, true
	case lDies:
		return l.SsaIndex(), r, true
	case rDies:
		return r.SsaIndex(), l, true
	default:
		return 0, ir.Operand{}, false
	}
}

// emitArith emits the ADD/SUB/IMUL instruction for dst <op> src, using a
// scratch register when x86-64's operand-form restrictions would
// otherwise require an illegal memory/memory or non-register IMUL
// destination.
func (m *Machine) emitArith(op ir.Opcode, dst, src Operand, size byte) {
	if op == ir.OpMul && dst.IsMemory() {
		scratch := m.alloc.AcquireAnyGpr()
		sreg := Gpr(scratch)
		m.emit(Mov(sreg, dst, size))
		m.emit(Imul(sreg, m.toRegisterOperand(src, size), size))
		m.emit(Mov(dst, sreg, size))
		m.alloc.ReleaseGpr(scratch)
		return
	}
	if dst.IsMemory() && src.IsMemory() {
		scratch := m.alloc.AcquireAnyGpr()
		sreg := Gpr(scratch)
		m.emit(Mov(sreg, src, size))
		src = sreg
		m.emitArithOp(op, dst, src, size)
		m.alloc.ReleaseGpr(scratch)
		return
	}
	m.emitArithOp(op, dst, src, size)
}

func (m *Machine) emitArithOp(op ir.Opcode, dst, src Operand, size byte) {
	switch op {
	case ir.OpAdd:
		m.emit(Add(dst, src, size))
	case ir.OpSub:
		m.emit(Sub(dst, src, size))
	case ir.OpMul:
		m.emit(Imul(dst, src, size))
	default:
		panic(fmt.Sprintf("BUG: emitArithOp on non-arithmetic opcode %s", op))
	}
}

// toRegisterOperand materialises src into a register if it is an
// immediate or label (IMUL's source form accepts reg/mem but this keeps
// the scratch path above simple).
func (m *Machine) toRegisterOperand(src Operand, size byte) Operand {
	if src.IsGpr() || src.IsAddress() {
		return src
	}
	scratch := m.alloc.AcquireAnyGpr()
	m.emit(Mov(Gpr(scratch), src, size))
	return Gpr(scratch)
}

// materialize converts an ir.Operand into a ready-to-use x64 Operand: an
// Ssa local's current location, an Immediate/Constant scalar as an
// immediate, or a Label as-is (callers needing it in a register call
// toRegisterOperand).
func (m *Machine) materialize(op ir.Operand, size byte) Operand {
	switch op.Kind() {
	case ir.OperandSsa:
		loc, ok := m.alloc.LocationOf(op.SsaIndex())
		if !ok {
			panic("BUG: operand local has no allocated location")
		}
		return FromLocation(loc)
	case ir.OperandImmediate:
		return Imm(op.Imm())
	case ir.OperandConstant:
		val := m.mod.Consts.Get(op.ConstIndex())
		if val.IsTuple() {
			panic("BUG: tuple constant used as a scalar arithmetic operand")
		}
		return Imm(val.Scalar)
	case ir.OperandLabel:
		return Lbl(op.LabelIndex())
	default:
		panic("BUG: invalid operand")
	}
}

// loadOperandInto implements the Load intrinsics of spec.md §4.4: MOV an
// arbitrary ir.Operand's value into dst.
func (m *Machine) loadOperandInto(dst Operand, op ir.Operand, size byte) {
	switch op.Kind() {
	case ir.OperandSsa:
		loc, ok := m.alloc.LocationOf(op.SsaIndex())
		if !ok {
			panic("BUG: operand local has no allocated location")
		}
		m.copy(dst, FromLocation(loc), size)
	case ir.OperandImmediate:
		m.emit(Mov(dst, Imm(op.Imm()), size))
	case ir.OperandConstant:
		val := m.mod.Consts.Get(op.ConstIndex())
		if val.IsTuple() {
			panic("BUG: scalar load of a tuple constant")
		}
		m.emit(Mov(dst, Imm(val.Scalar), size))
	case ir.OperandLabel:
		m.emit(Lea(dst, Lbl(op.LabelIndex())))
	default:
		panic("BUG: invalid operand")
	}
}

// emitArgLoad lowers one CALL actual argument into dst via
// loadOperandInto, then tags whatever instruction(s) that emitted with
// which argument position they fill, as a comment in the emitted assembly.
func (m *Machine) emitArgLoad(dst Operand, op ir.Operand, size byte, argIdx int) {
	before := len(m.out)
	m.loadOperandInto(dst, op, size)
	for i := before; i < len(m.out); i++ {
		m.out[i] = m.out[i].WithComment(fmt.Sprintf("arg %d", argIdx))
	}
}

// copy is the scalar half of spec.md §4.4's Copy intrinsic: a single MOV
// between two locations, routed through a scratch register if both are
// memory (x86-64 has no memory-to-memory MOV).
func (m *Machine) copy(dst, src Operand, size byte) {
	if dst == src {
		return
	}
	if dst.IsMemory() && src.IsMemory() {
		scratch := m.alloc.AcquireAnyGpr()
		m.emit(Mov(Gpr(scratch), src, size))
		m.emit(Mov(dst, Gpr(scratch), size))
		m.alloc.ReleaseGpr(scratch)
		return
	}
	m.emit(Mov(dst, src, size))
}

// copyScalarOrTuple dispatches to the scalar or composite half of the
// Copy intrinsic based on typ's kind.
func (m *Machine) copyScalarOrTuple(dst, src Operand, typ types.ID) {
	if m.mod.Types.Kind(typ) != types.KindTuple {
		m.copy(dst, src, m.byteSize(typ))
		return
	}
	m.copyTupleFields(dst, src, typ)
}

// copyTupleFields is the composite half of the Copy intrinsic (spec.md
// §4.4): recurse through the tuple layout, copying each field with the
// largest aligned word that fits (8/4/2/1), greedily — following
// original_source's intrinsics/copy.h, which spec.md's distillation only
// summarises as "word-sized MOVs for aligned 8/4/2/1-byte slices".
func (m *Machine) copyTupleFields(dst, src Operand, typ types.ID) {
	size := m.mod.Types.Size(typ)
	offset := 0
	for offset < size {
		remaining := size - offset
		word := largestAlignedWord(remaining, offset)
		dstAt := offsetOperand(dst, int32(offset))
		srcAt := offsetOperand(src, int32(offset))
		m.copy(dstAt, srcAt, byte(word))
		offset += word
	}
}

// copyTupleValue copies a constant-pool tuple Value field-by-field into
// dst, a fresh local's location.
func (m *Machine) copyTupleValue(dst Operand, val types.Value, typ types.ID) {
	fields := m.mod.Types.TupleFields(typ)
	for i, fv := range val.Tuple {
		offset := m.mod.Types.FieldOffset(typ, i)
		fieldDst := offsetOperand(dst, int32(offset))
		fieldType := fields[i]
		if fv.IsTuple() {
			m.copyTupleValue(fieldDst, fv, fieldType)
			continue
		}
		m.emit(Mov(fieldDst, Imm(fv.Scalar), m.byteSize(fieldType)))
	}
}

// largestAlignedWord picks the biggest of {8,4,2,1} that is <= remaining
// and evenly divides the current offset, so the emitted MOV never
// straddles a sub-field boundary.
func largestAlignedWord(remaining, offset int) int {
	for _, w := range []int{8, 4, 2, 1} {
		if remaining >= w && offset%w == 0 {
			return w
		}
	}
	return 1
}

// offsetOperand returns op shifted by byteOffset if op is a memory
// operand. Register operands have no sub-object addressing: they are
// returned unchanged at offset 0 and any other offset panics (tuples
// always live in memory, since spec.md's composite Copy intrinsic works
// over Addresses).
func offsetOperand(op Operand, byteOffset int32) Operand {
	if !op.IsAddress() {
		if byteOffset == 0 {
			return op
		}
		panic("BUG: cannot offset a non-memory operand")
	}
	a := op.Address()
	a.Offset += byteOffset
	return Addr(a)
}

// lowerDot implements spec.md §4.4's DOT contract: index must be a
// compile-time Immediate integer (enforced by the front end's type
// checker; the selector treats any other form as a selector bug since
// front-end errors never reach it, per spec.md §4.4's Failure semantics).
func (m *Machine) lowerDot(idx int, inst ir.Instruction) {
	dst := inst.A
	tupleOp, idxOp := inst.B, inst.C
	if idxOp.Kind() != ir.OperandImmediate {
		panic("BUG: DOT index operand is not a compile-time immediate")
	}
	fieldIdx := int(idxOp.Imm().Int64())

	if !tupleOp.IsSsa() {
		panic("BUG: DOT on a non-local tuple operand")
	}
	tupleLocal := tupleOp.SsaIndex()
	tupleType := m.fn.Local(tupleLocal).Type
	fieldType := m.mod.Types.TupleFields(tupleType)[fieldIdx]
	fieldOffset := m.mod.Types.FieldOffset(tupleType, fieldIdx)

	tupleLoc, ok := m.alloc.LocationOf(tupleLocal)
	if !ok {
		panic("BUG: DOT tuple operand has no allocated location")
	}
	if tupleLoc.IsGpr() {
		panic("BUG: tuple locals must be allocated to memory, not a register")
	}
	fieldAddr := tupleLoc.Address()
	fieldAddr.Offset += int32(fieldOffset)

	typ := m.fn.Local(dst).Type
	sa := m.sizeAlignOf(typ)
	interval := m.intervalOf(dst)
	loc := m.alloc.Allocate(dst, interval, sa)
	m.fn.Locals[dst].Location = loc
	m.copyScalarOrTuple(FromLocation(loc), Addr(fieldAddr), fieldType)
}

// lowerDivMod implements spec.md §4.4's DIV/MOD contract, using CQO/CDQ
// for dividend sign-extension per the REDESIGN FLAG (spec.md §9) over the
// original's `MOV $0, %rdx`, which is only correct for non-negative
// dividends.
func (m *Machine) lowerDivMod(idx int, inst ir.Instruction) {
	dst := inst.A
	l, r := inst.B, inst.C
	typ := m.fn.Local(dst).Type
	size := m.byteSize(typ)
	sa := m.sizeAlignOf(typ)
	interval := m.intervalOf(dst)

	m.alloc.AcquireGpr(regalloc.RAX)
	m.alloc.AcquireGpr(regalloc.RDX)

	m.loadOperandInto(Gpr(regalloc.RAX), l, size)
	if size == 8 {
		m.emit(Cqo())
	} else {
		m.emit(Cdq())
	}

	divisor := m.divisorOperand(r, size)
	m.emit(Idiv(divisor, size))

	var result, spare regalloc.RealReg
	if inst.Op == ir.OpDiv {
		result, spare = regalloc.RAX, regalloc.RDX
	} else {
		result, spare = regalloc.RDX, regalloc.RAX
	}
	m.alloc.ReleaseGpr(spare)
	loc := m.alloc.AllocateToGpr(dst, interval, result, sa)
	m.fn.Locals[dst].Location = loc
}

// divisorOperand materialises r into a form IDIV accepts: a register or
// memory operand, never an immediate (x86-64's IDIV has no
// immediate-divisor encoding).
func (m *Machine) divisorOperand(r ir.Operand, size byte) Operand {
	op := m.materialize(r, size)
	if op.IsGpr() || op.IsAddress() {
		return op
	}
	scratch := m.alloc.AcquireAnyGpr()
	m.emit(Mov(Gpr(scratch), op, size))
	return Gpr(scratch)
}

// lowerCall implements spec.md §4.4's CALL contract: classify the
// callee's formal arguments per the System-V AMD64 ABI subset, load each
// actual argument (drawn from the module's ArgPool, per the Args operand
// C names), spill every caller-saved register the call will clobber,
// emit the CALL, and bind dst to the canonical scalar result location.
//
// Each actual argument is an arbitrary ir.Operand, not just a compile-time
// scalar: it may itself be an Ssa reference to a value computed earlier in
// the block (e.g. `helper(x + 1, y)`), which materialize/loadOperandInto
// already know how to realise generically.
func (m *Machine) lowerCall(idx int, inst ir.Instruction) {
	dst := inst.A
	calleeOp, argsOp := inst.B, inst.C

	if calleeOp.Kind() != ir.OperandLabel {
		panic("BUG: CALL callee operand is not a label")
	}
	if argsOp.Kind() != ir.OperandArgs {
		panic("BUG: CALL arguments operand is not an argument list")
	}
	calleeName := m.mod.Labels.Name(calleeOp.LabelIndex())
	sym, ok := m.mod.Symbols.Lookup(calleeName)
	if !ok || !sym.IsFunction() {
		panic("BUG: CALL callee label does not name a known function")
	}
	_, argTypes := m.mod.Types.FunctionSignature(sym.Type)
	args := m.mod.Args.Get(argsOp.ArgsIndex())
	classes := ClassifyArgs(m.mod.Types, argTypes)

	m.spillCallerSaved()

	var stackArgs []int
	for i, cls := range classes {
		if !cls.InReg {
			stackArgs = append(stackArgs, i)
		}
	}
	for i := len(stackArgs) - 1; i >= 0; i-- {
		m.emit(Push(m.materialize(args[stackArgs[i]], 8)))
	}
	for i, cls := range classes {
		if !cls.InReg {
			continue
		}
		size := m.byteSize(argTypes[i])
		m.alloc.AcquireGpr(cls.Reg)
		m.emitArgLoad(Gpr(cls.Reg), args[i], size, i)
		m.alloc.ReleaseGpr(cls.Reg)
	}

	m.emit(CallLabel(Lbl(calleeOp.LabelIndex())))

	if len(stackArgs) > 0 {
		bytes := int64(len(stackArgs)) * 8
		m.emit(Add(Gpr(regalloc.RSP), Imm(types.NewInt(types.I64, bytes)), 8))
	}

	typ := m.fn.Local(dst).Type
	sa := m.sizeAlignOf(typ)
	interval := m.intervalOf(dst)
	result := ResultClass(m.mod.Types, typ)
	loc := m.alloc.AllocateToGpr(dst, interval, result, sa)
	m.fn.Locals[dst].Location = loc
}

// spillCallerSaved evicts every active local out of a caller-saved GPR
// before a CALL, since the System-V AMD64 ABI lets the callee clobber all
// of them freely.
func (m *Machine) spillCallerSaved() {
	for _, r := range regalloc.CallerSavedRegs() {
		m.alloc.AcquireGpr(r)
		m.alloc.ReleaseGpr(r)
	}
}

// lowerRet implements spec.md §4.4's RET contract: place src into the
// function's canonical result location, then run the epilogue.
func (m *Machine) lowerRet(idx int, inst ir.Instruction) {
	typ := m.fn.ReturnType
	size := m.byteSize(typ)
	result := ResultClass(m.mod.Types, typ)
	m.alloc.AcquireGpr(result)
	m.loadOperandInto(Gpr(result), inst.B, size)
	m.alloc.ReleaseGpr(result)
	m.out = append(m.out, m.buildEpilogue()...)
	m.emit(Ret())
}

// buildPrologue constructs the fixed entry sequence: save the caller's
// frame pointer, establish the new one, save whatever callee-saved GPRs
// this function actually used, and reserve the local frame. The sub
// amount is chosen so that, combined with the fixed pushes, %rsp is
// 16-byte aligned at every subsequent CALL (spec.md §8's ABI-alignment
// property).
func (m *Machine) buildPrologue() []Instruction {
	used := m.alloc.UsedCalleeSaved()
	var out []Instruction
	out = append(out, Push(Gpr(regalloc.RBP)))
	out = append(out, Mov(Gpr(regalloc.RBP), Gpr(regalloc.RSP), 8))
	for _, r := range used {
		out = append(out, Push(Gpr(r)))
	}
	if m.fn.FrameSize > 0 {
		out = append(out, Sub(Gpr(regalloc.RSP), Imm(types.NewInt(types.I64, int64(m.fn.FrameSize))), 8))
	}
	return out
}

// buildEpilogue constructs the matching exit sequence: restore %rsp to
// just below the pushed callee-saved GPRs, pop them in reverse push
// order, restore %rsp the rest of the way to the saved %rbp, then pop
// the caller's frame pointer. RET itself is emitted by the caller
// (lowerRet), since a function may have multiple RET instructions
// sharing one epilogue shape.
//
// buildPrologue pushes callee-saved GPRs *after* `mov %rsp, %rbp`, so
// they live below %rbp at rbp-8, rbp-16, .... Jumping straight to %rbp
// here (as a bare `mov %rbp, %rsp` would) leaves %rsp pointing at the
// saved old %rbp instead of at those pushes, so the POPs below would
// read the wrong slots and corrupt both the callee-saved registers and
// the return sequence. `lea -8*len(used)(%rbp), %rsp` lands %rsp
// exactly where the pushes begin regardless of how large the local
// frame grew, so this needs no fn.FrameSize dependency the way
// buildPrologue's conditional `sub` does.
func (m *Machine) buildEpilogue() []Instruction {
	used := m.alloc.UsedCalleeSaved()
	var out []Instruction
	if len(used) > 0 {
		addr := regalloc.Address{Base: regalloc.RBP, Index: regalloc.RegInvalid, Offset: int32(-8 * len(used))}
		out = append(out, Lea(Gpr(regalloc.RSP), Addr(addr)))
	} else {
		out = append(out, Mov(Gpr(regalloc.RSP), Gpr(regalloc.RBP), 8))
	}
	for i := len(used) - 1; i >= 0; i-- {
		out = append(out, Pop(Gpr(used[i])))
	}
	out = append(out, Pop(Gpr(regalloc.RBP)))
	return out
}

// frameAlignResidue returns the byte residue (mod 16) the local frame's
// `sub` amount must land on so that %rsp ends 16-byte aligned at a CALL,
// given n callee-saved registers were pushed after the fixed `push %rbp`.
// Entry %rsp is always 8 (mod 16) per the System-V AMD64 ABI (the CALL
// that reached this function pushed an 8-byte return address onto an
// aligned stack); `push %rbp` cancels that offset, and each further push
// shifts it by 8.
func frameAlignResidue(numCalleeSavedPushed int) int {
	if numCalleeSavedPushed%2 == 1 {
		return 8
	}
	return 0
}

// alignTo rounds raw up to the smallest value >= raw that is congruent to
// residue modulo 16.
func alignTo(raw, residue int) int {
	n := raw
	for n%16 != residue {
		n++
	}
	return n
}
