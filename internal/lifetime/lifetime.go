// Package lifetime computes, for every SSA local in one function body, the
// [FirstUse, LastUse] instruction-index interval spec.md §4.2 specifies,
// by walking the function's block in reverse.
package lifetime

import "github.com/exp-lang/expc/internal/ir"

// Analyze walks fn.Block in reverse and fills in fn.Locals[*].Lifetime.
// Per spec.md §4.2:
//   - operand A of the defining instruction sets FirstUse to that index;
//   - every Ssa source operand extends LastUse to the greatest index at
//     which it is read;
//   - a CALL's Args source operand is itself a list of operands (its
//     actual-argument list, in mod's ArgPool) rather than a single Ssa
//     reference; every Ssa element embedded in that list extends LastUse
//     the same as a direct source operand would, which is what lets a
//     computed value (e.g. `add(x + 1, y)`) be passed as a call argument
//     without dying before the call reads it. Instruction.Sources
//     performs this expansion.
//
// Args (SSA slots 0..NumArgs) are defined "before" the block by
// convention; their FirstUse is fixed at 0, matching the wazevo
// liveness pass treating incoming parameters as live from function
// entry.
func Analyze(fn *ir.Function, mod *ir.Module) {
	for i := range fn.Locals {
		fn.Locals[i].Lifetime = ir.Lifetime{FirstUse: 0, LastUse: 0}
	}
	for i := len(fn.Block) - 1; i >= 0; i-- {
		inst := fn.Block[i]
		if inst.Op.DefinesValue() {
			l := fn.Local(inst.A)
			l.Lifetime.FirstUse = i
			if l.Lifetime.LastUse < i {
				l.Lifetime.LastUse = i
			}
		}
		inst.Sources(mod, func(op ir.Operand) {
			if !op.IsSsa() {
				return
			}
			l := fn.Local(op.SsaIndex())
			if l.Lifetime.LastUse < i {
				l.Lifetime.LastUse = i
			}
		})
	}
}
