package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exp-lang/expc/internal/types"
)

func TestSymbolTable_DefineLookup(t *testing.T) {
	strs := types.NewStringInterner()
	tab := NewSymbolTable()
	name := strs.Intern("main")
	tab.Define(name, Symbol{Type: 7})

	sym, ok := tab.Lookup(name)
	require.True(t, ok)
	require.Equal(t, types.ID(7), sym.Type)

	_, ok = tab.Lookup(strs.Intern("missing"))
	require.False(t, ok)
}

func TestSymbolTable_GrowsWithoutLosingEntries(t *testing.T) {
	strs := types.NewStringInterner()
	tab := NewSymbolTable()
	names := make([]types.StringView, 0, 100)
	for i := 0; i < 100; i++ {
		n := strs.Intern(fmt.Sprintf("sym%d", i))
		names = append(names, n)
		tab.Define(n, Symbol{Type: types.ID(i)})
	}
	for i, n := range names {
		sym, ok := tab.Lookup(n)
		require.True(t, ok)
		require.Equal(t, types.ID(i), sym.Type)
	}
}

func TestSymbolTable_IsFunction(t *testing.T) {
	fn := Symbol{Fn: &Function{}}
	require.True(t, fn.IsFunction())
	data := Symbol{Value: types.ScalarValue(types.NewInt(types.I32, 1))}
	require.False(t, data.IsFunction())
}

func TestConstantPool_AppendOnly(t *testing.T) {
	var p ConstantPool
	a := p.Add(types.ScalarValue(types.NewInt(types.I32, 1)))
	b := p.Add(types.ScalarValue(types.NewInt(types.I32, 1)))
	require.NotEqual(t, a, b, "constants are not deduplicated")
	require.Equal(t, 2, p.Len())
	require.Equal(t, int64(1), p.Get(a).Scalar.Int64())
}

func TestConstantPool_GetOutOfRangePanics(t *testing.T) {
	var p ConstantPool
	require.Panics(t, func() { p.Get(0) })
}

func TestLabelTable_AddName(t *testing.T) {
	strs := types.NewStringInterner()
	var l LabelTable
	idx := l.Add(strs.Intern("add"))
	require.Equal(t, "add", l.Name(idx).String())
	require.Equal(t, 1, l.Len())
}

func TestLabelTable_NameOutOfRangePanics(t *testing.T) {
	var l LabelTable
	require.Panics(t, func() { l.Name(0) })
}

func TestModule_FreshTablesAreIndependent(t *testing.T) {
	a := NewModule("a.exp")
	b := NewModule("b.exp")
	nameA := a.Strings.Intern("x")
	a.Symbols.Define(nameA, Symbol{Type: 1})
	_, ok := b.Symbols.Lookup(b.Strings.Intern("x"))
	require.False(t, ok, "a fresh module must not see another module's symbols")
}
