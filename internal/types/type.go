package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind tags the variant a Type holds. Mirrors the tagged-union idiom the
// teacher uses for ssa.Type, ssa.Instruction and friends: one byte tag,
// explicit payload lookup, no interface-based dispatch.
type Kind byte

const (
	KindInvalid Kind = iota
	KindScalar
	KindTuple
	KindFunction
)

// ID is an interned type handle. Two structurally equal types always
// produce the same ID (invariant I5 of spec.md §3); callers may compare
// IDs directly instead of comparing type structure.
type ID uint32

// InvalidID is never returned by a successful intern call.
const InvalidID ID = 0

// typeData is the payload behind an ID. Only the fields relevant to Kind
// are meaningful; this mirrors a tagged union by convention rather than by
// an actual union (Go has none), the same trade the teacher makes.
type typeData struct {
	kind   Kind
	scalar ScalarKind
	fields []ID // KindTuple
	ret    ID   // KindFunction
	args   []ID // KindFunction
}

// Interner owns every Type produced during one compilation. It is not
// safe for concurrent use; per spec.md §5 each compilation owns its
// interner exclusively.
type Interner struct {
	table   []typeData
	scalars [numScalarKinds]ID
	tuples  map[string]ID
	funcs   map[string]ID
}

// NewInterner returns a ready-to-use, empty Interner.
func NewInterner() *Interner {
	in := &Interner{
		table:  make([]typeData, 1, 64), // index 0 reserved for InvalidID
		tuples: make(map[string]ID, 16),
		funcs:  make(map[string]ID, 16),
	}
	return in
}

// InternScalar returns the canonical ID for the given scalar kind. Repeated
// calls with the same kind return the same ID.
func (in *Interner) InternScalar(kind ScalarKind) ID {
	if id := in.scalars[kind]; id != InvalidID {
		return id
	}
	id := in.push(typeData{kind: KindScalar, scalar: kind})
	in.scalars[kind] = id
	return id
}

// InternTuple returns the canonical ID for a tuple of the given field types,
// in declaration order. Idempotent in the sequence: (i32, i64) and (i64,
// i32) intern to distinct IDs, but two (i32, i64) calls share one ID.
func (in *Interner) InternTuple(fields []ID) ID {
	key := tupleKey(fields)
	if id, ok := in.tuples[key]; ok {
		return id
	}
	owned := make([]ID, len(fields))
	copy(owned, fields)
	id := in.push(typeData{kind: KindTuple, fields: owned})
	in.tuples[key] = id
	return id
}

// InternFunction returns the canonical ID for a function type with the
// given return type and ordered argument types.
func (in *Interner) InternFunction(ret ID, args []ID) ID {
	key := funcKey(ret, args)
	if id, ok := in.funcs[key]; ok {
		return id
	}
	owned := make([]ID, len(args))
	copy(owned, args)
	id := in.push(typeData{kind: KindFunction, ret: ret, args: owned})
	in.funcs[key] = id
	return id
}

func (in *Interner) push(d typeData) ID {
	id := ID(len(in.table))
	in.table = append(in.table, d)
	return id
}

func (in *Interner) data(id ID) typeData {
	if id == InvalidID || int(id) >= len(in.table) {
		panic(fmt.Sprintf("BUG: invalid type id %d", id))
	}
	return in.table[id]
}

// Kind returns the variant tag of id.
func (in *Interner) Kind(id ID) Kind { return in.data(id).kind }

// Scalar returns the scalar kind of a KindScalar type; panics otherwise.
func (in *Interner) Scalar(id ID) ScalarKind {
	d := in.data(id)
	if d.kind != KindScalar {
		panic(fmt.Sprintf("BUG: type %d is not a scalar", id))
	}
	return d.scalar
}

// TupleFields returns the field types of a KindTuple type, in declaration
// order; panics otherwise.
func (in *Interner) TupleFields(id ID) []ID {
	d := in.data(id)
	if d.kind != KindTuple {
		panic(fmt.Sprintf("BUG: type %d is not a tuple", id))
	}
	return d.fields
}

// FunctionSignature returns the return and argument types of a
// KindFunction type; panics otherwise.
func (in *Interner) FunctionSignature(id ID) (ret ID, args []ID) {
	d := in.data(id)
	if d.kind != KindFunction {
		panic(fmt.Sprintf("BUG: type %d is not a function", id))
	}
	return d.ret, d.args
}

// Size returns the size in bytes of id, per the C-like tuple layout rule
// in spec.md §3: fields laid out in order, each padded to its own
// alignment, the whole padded to the max field alignment.
func (in *Interner) Size(id ID) int {
	d := in.data(id)
	switch d.kind {
	case KindScalar:
		return int(d.scalar.Size())
	case KindTuple:
		size, align := in.tupleLayout(d.fields)
		return roundUp(size, align)
	case KindFunction:
		// Function values are only ever referenced via Label, never
		// stored by value; treat as pointer-sized for completeness.
		return 8
	default:
		panic(fmt.Sprintf("BUG: invalid type id %d", id))
	}
}

// Align returns the alignment in bytes of id.
func (in *Interner) Align(id ID) int {
	d := in.data(id)
	switch d.kind {
	case KindScalar:
		return int(d.scalar.Align())
	case KindTuple:
		_, align := in.tupleLayout(d.fields)
		return align
	case KindFunction:
		return 8
	default:
		panic(fmt.Sprintf("BUG: invalid type id %d", id))
	}
}

// FieldOffset returns the byte offset of the idx'th field of a tuple type.
func (in *Interner) FieldOffset(id ID, idx int) int {
	fields := in.TupleFields(id)
	if idx < 0 || idx >= len(fields) {
		panic(fmt.Sprintf("BUG: tuple field index %d out of range for type %d", idx, id))
	}
	offset := 0
	for i := 0; i < idx; i++ {
		fieldAlign := in.Align(fields[i])
		offset = roundUp(offset, fieldAlign) + in.Size(fields[i])
	}
	return roundUp(offset, in.Align(fields[idx]))
}

// tupleLayout computes the (size-before-final-padding, align) pair used by
// both Size and FieldOffset.
func (in *Interner) tupleLayout(fields []ID) (size, align int) {
	align = 1
	offset := 0
	for _, f := range fields {
		fa := in.Align(f)
		if fa > align {
			align = fa
		}
		offset = roundUp(offset, fa) + in.Size(f)
	}
	return offset, align
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}

// String renders id for diagnostics and IR dumps.
func (in *Interner) String(id ID) string {
	d := in.data(id)
	switch d.kind {
	case KindScalar:
		return d.scalar.String()
	case KindTuple:
		parts := make([]string, len(d.fields))
		for i, f := range d.fields {
			parts[i] = in.String(f)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case KindFunction:
		parts := make([]string, len(d.args))
		for i, a := range d.args {
			parts[i] = in.String(a)
		}
		return "fn(" + strings.Join(parts, ", ") + ") -> " + in.String(d.ret)
	default:
		panic(fmt.Sprintf("BUG: invalid type id %d", id))
	}
}

func tupleKey(fields []ID) string {
	var b strings.Builder
	b.WriteByte('t')
	for _, f := range fields {
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(uint64(f), 10))
	}
	return b.String()
}

func funcKey(ret ID, args []ID) string {
	var b strings.Builder
	b.WriteByte('f')
	b.WriteString(strconv.FormatUint(uint64(ret), 10))
	for _, a := range args {
		b.WriteByte(',')
		b.WriteString(strconv.FormatUint(uint64(a), 10))
	}
	return b.String()
}
