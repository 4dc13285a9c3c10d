package emit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/exp-lang/expc/internal/ir"
	"github.com/exp-lang/expc/internal/types"
)

// emitDataSymbols renders every non-function, non-extern Module symbol as
// a `.data` or `.bss` object, per spec.md §4.5. Symbols are visited in
// name order so that emission is deterministic byte-for-byte (spec.md
// §5's ordering requirement), since SymbolTable.Range walks its
// open-addressed table in hash order.
func emitDataSymbols(b *strings.Builder, mod *ir.Module) {
	type named struct {
		name string
		sym  ir.Symbol
	}
	var data []named
	mod.Symbols.Range(func(name types.StringView, sym ir.Symbol) {
		if sym.IsFunction() || sym.IsExtern {
			return
		}
		data = append(data, named{name: name.String(), sym: sym})
	})
	sort.Slice(data, func(i, j int) bool { return data[i].name < data[j].name })

	for _, d := range data {
		emitDataSymbol(b, mod, d.name, d.sym)
	}
}

func emitDataSymbol(b *strings.Builder, mod *ir.Module, name string, sym ir.Symbol) {
	size := mod.Types.Size(sym.Type)
	align := mod.Types.Align(sym.Type)

	if isZeroValue(sym.Value) {
		b.WriteString("\t.bss\n")
		fmt.Fprintf(b, "\t.globl %s\n", name)
		fmt.Fprintf(b, "\t.balign %d\n", align)
		fmt.Fprintf(b, "\t.type %s, @object\n", name)
		fmt.Fprintf(b, "\t.size %s, %d\n", name, size)
		fmt.Fprintf(b, "%s:\n", name)
		fmt.Fprintf(b, "\t.zero %d\n", size)
		return
	}

	b.WriteString("\t.data\n")
	fmt.Fprintf(b, "\t.globl %s\n", name)
	fmt.Fprintf(b, "\t.balign %d\n", align)
	fmt.Fprintf(b, "\t.type %s, @object\n", name)
	fmt.Fprintf(b, "\t.size %s, %d\n", name, size)
	fmt.Fprintf(b, "%s:\n", name)
	offset := 0
	emitValueBytes(b, mod.Types, sym.Type, sym.Value, &offset)
	if pad := size - offset; pad > 0 {
		fmt.Fprintf(b, "\t.zero %d\n", pad)
	}
}

// isZeroValue reports whether v is entirely the zero value for its type
// (every scalar either uninitialised or bit-pattern zero), the condition
// under which the symbol is emitted as `.bss` instead of `.data`.
func isZeroValue(v types.Value) bool {
	if v.IsTuple() {
		for _, f := range v.Tuple {
			if !isZeroValue(f) {
				return false
			}
		}
		return true
	}
	return !v.Scalar.IsInitialized() || v.Scalar.Uint64() == 0
}

// emitValueBytes writes v's initialised bytes as `.byte/.short/.long/
// .quad` directives, recursing through tuple fields in declaration order
// and inserting `.zero` directives for any inter-field padding the
// C-like tuple layout (spec.md §3) introduces. offset tracks the number
// of bytes written so far relative to the symbol's start.
func emitValueBytes(b *strings.Builder, in *types.Interner, typ types.ID, v types.Value, offset *int) {
	if in.Kind(typ) != types.KindTuple {
		emitScalarDirective(b, v.Scalar, in.Size(typ))
		*offset += in.Size(typ)
		return
	}
	fields := in.TupleFields(typ)
	for i, ft := range fields {
		fieldOffset := in.FieldOffset(typ, i)
		if gap := fieldOffset - *offset; gap > 0 {
			fmt.Fprintf(b, "\t.zero %d\n", gap)
			*offset += gap
		}
		emitValueBytes(b, in, ft, v.Tuple[i], offset)
	}
}

func emitScalarDirective(b *strings.Builder, s types.Scalar, size int) {
	directive := map[int]string{1: ".byte", 2: ".short", 4: ".long", 8: ".quad"}[size]
	fmt.Fprintf(b, "\t%s %s\n", directive, renderImmediateLiteral(s))
}

func renderImmediateLiteral(s types.Scalar) string {
	if !s.IsInitialized() {
		return "0"
	}
	return renderImmediate(s)
}
