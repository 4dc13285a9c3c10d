package types

import "fmt"

// Scalar is a tagged variant over the scalar kinds plus an Uninitialized
// marker, per spec.md §3. Equality (Equals) is defined only between two
// initialised scalars of the same kind.
type Scalar struct {
	kind ScalarKind
	bits uint64 // raw bit pattern; sign/width interpreted via kind
	init bool
}

// Uninitialized returns the Uninitialized marker scalar.
func Uninitialized() Scalar { return Scalar{} }

// IsInitialized reports whether s carries a value.
func (s Scalar) IsInitialized() bool { return s.init }

// Kind returns s's scalar kind; panics if s is Uninitialized.
func (s Scalar) Kind() ScalarKind {
	if !s.init {
		panic("BUG: Kind of uninitialized scalar")
	}
	return s.kind
}

// NewInt builds a Scalar holding a signed integer value of the given kind.
func NewInt(kind ScalarKind, v int64) Scalar {
	if !kind.IsInt() || !kind.IsSigned() {
		panic(fmt.Sprintf("BUG: NewInt on non-signed kind %s", kind))
	}
	return Scalar{kind: kind, bits: uint64(v), init: true}
}

// NewUint builds a Scalar holding an unsigned integer value of the given kind.
func NewUint(kind ScalarKind, v uint64) Scalar {
	if !kind.IsInt() || kind.IsSigned() {
		panic(fmt.Sprintf("BUG: NewUint on non-unsigned kind %s", kind))
	}
	return Scalar{kind: kind, bits: v, init: true}
}

// NewBool builds a Scalar holding a boolean value.
func NewBool(v bool) Scalar {
	var b uint64
	if v {
		b = 1
	}
	return Scalar{kind: Bool, bits: b, init: true}
}

// NewNil builds the Scalar representing the nil unit value.
func NewNil() Scalar { return Scalar{kind: Nil, init: true} }

// Int64 returns the signed-integer interpretation of s's bit pattern,
// sign-extended from its kind's width. Panics if s does not hold an
// integer kind.
func (s Scalar) Int64() int64 {
	if !s.init || !s.kind.IsInt() {
		panic("BUG: Int64 of non-integer scalar")
	}
	switch s.kind {
	case I8:
		return int64(int8(s.bits))
	case I16:
		return int64(int16(s.bits))
	case I32:
		return int64(int32(s.bits))
	case I64:
		return int64(s.bits)
	default: // unsigned kinds: zero-extended value, fits in int64 for our widths
		return int64(s.bits)
	}
}

// Uint64 returns the raw unsigned bit pattern of s.
func (s Scalar) Uint64() uint64 {
	if !s.init {
		panic("BUG: Uint64 of uninitialized scalar")
	}
	return s.bits
}

// Equals reports whether s and other are both initialised, share a kind,
// and carry the same bit pattern. Per spec.md §3, equality between
// uninitialised scalars (or across kinds) is not defined; this returns
// false rather than panicking so callers can use it in plain hash-map
// lookups.
func (s Scalar) Equals(other Scalar) bool {
	return s.init && other.init && s.kind == other.kind && s.bits == other.bits
}

// String renders s for diagnostics.
func (s Scalar) String() string {
	if !s.init {
		return "<uninitialized>"
	}
	switch s.kind {
	case Bool:
		return fmt.Sprintf("%t", s.bits != 0)
	case Nil:
		return "nil"
	default:
		if s.kind.IsSigned() {
			return fmt.Sprintf("%d", s.Int64())
		}
		return fmt.Sprintf("%d", s.bits)
	}
}

// Value is a module-level constant: either a scalar or a tuple of values,
// matching the constant-pool entries spec.md §3 describes.
type Value struct {
	Scalar Scalar // valid iff Tuple == nil
	Tuple  []Value
}

// ScalarValue wraps a Scalar as a Value.
func ScalarValue(s Scalar) Value { return Value{Scalar: s} }

// TupleValue wraps a slice of field values as a Value.
func TupleValue(fields []Value) Value { return Value{Tuple: fields} }

// IsTuple reports whether v is a tuple constant.
func (v Value) IsTuple() bool { return v.Tuple != nil }
