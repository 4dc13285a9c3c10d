package ir

import (
	"fmt"

	"github.com/exp-lang/expc/internal/types"
)

// Symbol is a module-scope named entity: its type, and either a constant
// Value (data symbol) or a compiled Function handle (code symbol), per
// spec.md §3.
type Symbol struct {
	Type     types.ID
	Value    types.Value // valid iff Fn == nil
	Fn       *Function   // valid iff non-nil
	IsExtern bool        // declared but not defined in this translation unit
}

// IsFunction reports whether the symbol names a function.
func (s Symbol) IsFunction() bool { return s.Fn != nil }

// symbolSlot is one open-addressed table entry.
type symbolSlot struct {
	name types.StringView
	sym  Symbol
	used bool
}

// SymbolTable is the module-scoped open-addressed hash map from interned
// name to Symbol, per spec.md §3. Lookup keys are StringViews, so
// equality is index comparison rather than string comparison.
type SymbolTable struct {
	slots []symbolSlot
	count int
}

// NewSymbolTable returns a ready-to-use, empty SymbolTable.
func NewSymbolTable() *SymbolTable {
	t := &SymbolTable{}
	t.grow(32)
	return t
}

func (t *SymbolTable) grow(newCap int) {
	old := t.slots
	t.slots = make([]symbolSlot, newCap)
	t.count = 0
	for _, s := range old {
		if s.used {
			t.insert(s.name, s.sym)
		}
	}
}

func (t *SymbolTable) probe(name types.StringView) int {
	n := len(t.slots)
	slot := int(name.Hash() % uint64(n))
	for {
		if !t.slots[slot].used || t.slots[slot].name.Equals(name) {
			return slot
		}
		slot = (slot + 1) % n
	}
}

func (t *SymbolTable) insert(name types.StringView, sym Symbol) {
	if (t.count+1)*2 >= len(t.slots) {
		t.grow(len(t.slots) * 2)
	}
	slot := t.probe(name)
	if !t.slots[slot].used {
		t.count++
	}
	t.slots[slot] = symbolSlot{name: name, sym: sym, used: true}
}

// Define inserts or overwrites the symbol bound to name.
func (t *SymbolTable) Define(name types.StringView, sym Symbol) {
	t.insert(name, sym)
}

// Lookup returns the symbol bound to name, if any.
func (t *SymbolTable) Lookup(name types.StringView) (Symbol, bool) {
	slot := t.probe(name)
	if !t.slots[slot].used {
		return Symbol{}, false
	}
	return t.slots[slot].sym, true
}

// Range calls f for every defined symbol, in table order (not insertion
// order; callers that need deterministic emission order should sort, as
// internal/emit does).
func (t *SymbolTable) Range(f func(name types.StringView, sym Symbol)) {
	for _, s := range t.slots {
		if s.used {
			f(s.name, s.sym)
		}
	}
}

// ConstantPool is the append-only vector of constant Values spec.md §3
// describes; entries are not deduplicated.
type ConstantPool struct {
	values []types.Value
}

// Add appends v and returns its index.
func (p *ConstantPool) Add(v types.Value) ConstIdx {
	p.values = append(p.values, v)
	return ConstIdx(len(p.values) - 1)
}

// Get returns the value at idx.
func (p *ConstantPool) Get(idx ConstIdx) types.Value {
	if int(idx) >= len(p.values) {
		panic(fmt.Sprintf("BUG: constant index %d out of range", idx))
	}
	return p.values[idx]
}

// Len returns the number of pooled constants.
func (p *ConstantPool) Len() int { return len(p.values) }

// ArgPool is the append-only vector of CALL actual-argument lists. It is
// deliberately separate from ConstantPool: a constant-pool Value is a
// compile-time-known scalar or tuple (data symbols, composite LOAD
// sources), but a CALL argument may be an arbitrary Operand — including
// an Ssa reference to a computed value, e.g. `add(x + 1, y)` — which
// types.Value has no way to hold. Keeping the two pools distinct avoids
// teaching the type system's constant representation about SSA locals.
type ArgPool struct {
	lists [][]Operand
}

// Add appends args and returns its index.
func (p *ArgPool) Add(args []Operand) ArgIdx {
	p.lists = append(p.lists, args)
	return ArgIdx(len(p.lists) - 1)
}

// Get returns the argument list at idx.
func (p *ArgPool) Get(idx ArgIdx) []Operand {
	if int(idx) >= len(p.lists) {
		panic(fmt.Sprintf("BUG: arg-list index %d out of range", idx))
	}
	return p.lists[idx]
}

// LabelTable is the append-only vector giving every emitted global symbol
// a stable numeric handle, per spec.md §3. Labels and constants are
// disjoint index spaces.
type LabelTable struct {
	names []types.StringView
}

// Add appends a new label for name and returns its index.
func (l *LabelTable) Add(name types.StringView) LabelIdx {
	l.names = append(l.names, name)
	return LabelIdx(len(l.names) - 1)
}

// Name returns the symbol name for idx.
func (l *LabelTable) Name(idx LabelIdx) types.StringView {
	if int(idx) >= len(l.names) {
		panic(fmt.Sprintf("BUG: label index %d out of range", idx))
	}
	return l.names[idx]
}

// Len returns the number of labels.
func (l *LabelTable) Len() int { return len(l.names) }

// Module aggregates every module-level table for one translation unit:
// the type interner, string interner, symbol table, constant pool,
// argument-list pool, and label table. This is spec.md §9's "Context
// object": an explicitly passed aggregate rather than ambient global
// state.
type Module struct {
	Types    *types.Interner
	Strings  *types.StringInterner
	Symbols  *SymbolTable
	Consts   ConstantPool
	Args     ArgPool
	Labels   LabelTable
	SrcFile  string
}

// NewModule returns a ready-to-use, empty Module for compiling srcFile.
func NewModule(srcFile string) *Module {
	return &Module{
		Types:   types.NewInterner(),
		Strings: types.NewStringInterner(),
		Symbols: NewSymbolTable(),
		SrcFile: srcFile,
	}
}
