package x64

import (
	"github.com/exp-lang/expc/internal/regalloc"
	"github.com/exp-lang/expc/internal/types"
)

// ArgClass is where one System-V AMD64 argument lands: a register or an
// overflow stack slot.
type ArgClass struct {
	Reg     regalloc.RealReg // valid iff InReg
	InReg   bool
	StackOf int // byte offset from the first overflow argument, valid iff !InReg
}

// ClassifyArgs implements the System-V AMD64 classification subset
// spec.md §4.4 specifies: "Scalars <= 8 bytes pass in the first six
// integer argument GPRs ... overflow spills to the caller-side stack in
// declaration order, aligned." Tuples spanning multiple eightbytes are
// explicitly out of scope (spec.md §9's Open Question); a tuple argument
// here is classified by its overall size exactly like a scalar would be,
// which is only correct for tuples that fit in one eightbyte — the
// selector panics on anything larger, matching the unimplemented-feature
// fatal spec.md prescribes.
func ClassifyArgs(in *types.Interner, argTypes []types.ID) []ArgClass {
	classes := make([]ArgClass, len(argTypes))
	gprs := regalloc.ArgGPRs()
	nextGpr := 0
	stackOff := 0
	for i, t := range argTypes {
		size := in.Size(t)
		if size > 8 {
			panic("BUG: multi-eightbyte tuple argument classification is not implemented")
		}
		if nextGpr < len(gprs) {
			classes[i] = ArgClass{Reg: gprs[nextGpr], InReg: true}
			nextGpr++
			continue
		}
		align := in.Align(t)
		stackOff = roundUp(stackOff, align)
		classes[i] = ArgClass{InReg: false, StackOf: stackOff}
		stackOff += 8 // one eightbyte per stack argument, matching lowerCall's 8-byte pushes
	}
	return classes
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// ResultClass is where a scalar return value lives. Per spec.md §9's
// Open Question, composite (tuple) returns via a hidden pointer argument
// are not implemented; ResultClass panics if asked to classify one.
func ResultClass(in *types.Interner, ret types.ID) regalloc.RealReg {
	if in.Kind(ret) == types.KindTuple {
		panic("unimplemented: tuple return values require a hidden pointer argument, which this MVP does not support")
	}
	return regalloc.RAX
}
