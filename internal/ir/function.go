package ir

import "github.com/exp-lang/expc/internal/types"

// State is the per-function compilation state machine of spec.md §4.4:
// transitions are monotone (Building -> Selected -> Emitted); re-entering
// an earlier state is a selector bug.
type State byte

const (
	Building State = iota
	Selected
	Emitted
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Building:
		return "building"
	case Selected:
		return "selected"
	case Emitted:
		return "emitted"
	default:
		return "invalid"
	}
}

// Function is one compiled top-level function: its formal arguments
// (occupying SSA slots 0..len(Args)), return type, single-block
// instruction stream, and the full per-local table (args plus every
// subsequently defined local), per spec.md §3.
type Function struct {
	Name       types.StringView
	Args       []Local
	ReturnType types.ID
	Block      []Instruction
	Locals     []Local

	State State

	// FrameSize is filled in by internal/x64's Select: the bytes the
	// prologue subtracts from %rsp for locals, chosen so that together
	// with the callee-saved pushes %rsp stays 16-byte aligned. It is a
	// multiple of 16 only when an even number of callee-saved registers is
	// pushed.
	FrameSize int
}

// Local returns the Local record for SSA index k.
func (f *Function) Local(k uint32) *Local {
	if int(k) >= len(f.Locals) {
		panic("BUG: local index out of range")
	}
	return &f.Locals[k]
}

// NumArgs returns the number of formal arguments, i.e. the first NumArgs
// SSA slots.
func (f *Function) NumArgs() int { return len(f.Args) }
