package types

import (
	"fmt"

	"github.com/dchest/siphash"
)

// StringView is a stable, comparable handle into a StringInterner's backing
// storage. Per spec.md §3, two equal strings always produce the same
// StringView, so later equality checks are pointer/identity comparisons
// rather than byte comparisons.
type StringView struct {
	interner *StringInterner
	index    uint32
}

// String returns the interned text.
func (v StringView) String() string {
	if v.interner == nil {
		return ""
	}
	return v.interner.strings[v.index]
}

// Equals compares two views by identity: same interner, same slot.
func (v StringView) Equals(other StringView) bool {
	return v.interner == other.interner && v.index == other.index
}

// Hash returns a stable SipHash-2-4 digest of the view's text, for use as
// a symbol-table probe key (internal/ir's SymbolTable).
func (v StringView) Hash() uint64 {
	return siphash.Hash(sipK0, sipK1, []byte(v.String()))
}

// sipK0 and sipK1 are a fixed, arbitrary key pair. It only needs to distribute hash
// buckets well within one process run, not to resist adversarial input
// across runs, so a compiled-in constant key (rather than a random one) is
// enough to keep the interner deterministic — determinism across
// identical runs is a required property (spec.md §8).
const sipK0, sipK1 = 0x0123456789abcdef, 0xfedcba9876543210

// StringInterner is an open-addressed hash table mapping interned strings
// to stable StringViews, per spec.md §3's "String interner. Owns string
// storage; returns stable views so that later equality reduces to pointer
// comparison."
type StringInterner struct {
	strings []string
	slots   []int32 // open-addressed table of indices into strings; -1 = empty
	mask    uint64
}

// NewStringInterner returns a ready-to-use, empty StringInterner.
func NewStringInterner() *StringInterner {
	in := &StringInterner{}
	in.grow(16)
	return in
}

// Intern returns the canonical StringView for s, inserting it if this is
// the first time s has been seen.
func (in *StringInterner) Intern(s string) StringView {
	if len(in.strings)*2 >= len(in.slots) {
		in.grow(len(in.slots) * 2)
	}
	h := siphash.Hash(sipK0, sipK1, []byte(s))
	slot := h & in.mask
	for {
		idx := in.slots[slot]
		if idx == -1 {
			in.slots[slot] = int32(len(in.strings))
			in.strings = append(in.strings, s)
			return StringView{interner: in, index: uint32(len(in.strings) - 1)}
		}
		if in.strings[idx] == s {
			return StringView{interner: in, index: uint32(idx)}
		}
		slot = (slot + 1) & in.mask
	}
}

func (in *StringInterner) grow(newCap int) {
	if newCap < 16 {
		newCap = 16
	}
	old := in.slots
	in.slots = make([]int32, newCap)
	for i := range in.slots {
		in.slots[i] = -1
	}
	in.mask = uint64(newCap - 1)
	if (newCap & (newCap - 1)) != 0 {
		panic(fmt.Sprintf("BUG: string interner capacity %d is not a power of two", newCap))
	}
	for _, idx := range old {
		if idx == -1 {
			continue
		}
		h := siphash.Hash(sipK0, sipK1, []byte(in.strings[idx]))
		slot := h & in.mask
		for in.slots[slot] != -1 {
			slot = (slot + 1) & in.mask
		}
		in.slots[slot] = idx
	}
}
