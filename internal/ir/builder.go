package ir

import "github.com/exp-lang/expc/internal/types"

// Builder accumulates one Function's locals and block in definition
// order, handing out a fresh SSA slot per NewLocal call. It does not check
// that each local is the destination of exactly one instruction; callers
// keep that invariant by emitting one defining instruction per slot they
// obtain. It is the only way front-end
// code should construct a Function, mirroring the teacher's append-only
// builder idiom (ssa.Builder).
type Builder struct {
	fn *Function
}

// NewBuilder starts building a function with the given formal arguments
// (occupying SSA slots 0..len(args)) and return type.
func NewBuilder(name types.StringView, args []types.ID, argNames []types.StringView, ret types.ID) *Builder {
	fn := &Function{Name: name, ReturnType: ret, State: Building}
	fn.Args = make([]Local, len(args))
	for i, t := range args {
		l := Local{Ssa: uint32(i), Type: t}
		if argNames != nil && i < len(argNames) {
			l.Name, l.HasName = argNames[i], true
		}
		fn.Args[i] = l
	}
	fn.Locals = append(fn.Locals, fn.Args...)
	return &Builder{fn: fn}
}

// NewLocal allocates the next SSA slot with the given type, without yet
// appending a defining instruction. Callers building Instructions that
// define a value should call this first to obtain the destination index.
func (b *Builder) NewLocal(t types.ID) uint32 {
	idx := uint32(len(b.fn.Locals))
	b.fn.Locals = append(b.fn.Locals, Local{Ssa: idx, Type: t})
	return idx
}

// NamedLocal is like NewLocal but records a debug name.
func (b *Builder) NamedLocal(t types.ID, name types.StringView) uint32 {
	idx := b.NewLocal(t)
	b.fn.Locals[idx].Name = name
	b.fn.Locals[idx].HasName = true
	return idx
}

// Emit appends inst to the function's block.
func (b *Builder) Emit(inst Instruction) {
	if b.fn.State != Building {
		panic("BUG: Emit on a function that has left the Building state")
	}
	b.fn.Block = append(b.fn.Block, inst)
}

// Finish returns the built Function. It does not change the Function's
// State, which stays Building; Emit panics only once State has moved on.
// The Builder must not be used afterwards.
func (b *Builder) Finish() *Function {
	return b.fn
}
