package ir

import (
	"github.com/exp-lang/expc/internal/regalloc"
	"github.com/exp-lang/expc/internal/types"
)

// Lifetime is the `[FirstUse, LastUse]` instruction-index interval during
// which a local holds a meaningful value, per spec.md §4.2.
type Lifetime struct {
	FirstUse int
	LastUse  int
}

// Overlaps reports whether two lifetimes share any instruction index.
func (l Lifetime) Overlaps(other Lifetime) bool {
	return l.FirstUse <= other.LastUse && other.FirstUse <= l.LastUse
}

// Local is the per-SSA-local record of spec.md §3: its index, an optional
// debug name, its interned type, the lifetime computed by
// internal/lifetime, and the Location assigned by internal/regalloc.
type Local struct {
	Ssa      uint32
	Name     types.StringView // zero value means "no name"
	HasName  bool
	Type     types.ID
	Lifetime Lifetime
	Location regalloc.Location
}
