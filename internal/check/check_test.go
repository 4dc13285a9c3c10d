package check

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/exp-lang/expc/internal/ir"
	"github.com/exp-lang/expc/internal/parser"
)

func mustParse(t *testing.T, src string) *parser.Program {
	t.Helper()
	prog, err := parser.Parse(src)
	require.NoError(t, err)
	return prog
}

func TestCheck_SimpleReturn(t *testing.T) {
	mod := ir.NewModule("t.exp")
	funcs, err := Check(mod, mustParse(t, `fn main() { return 0; }`))
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	require.Equal(t, ir.Building, funcs[0].State)
}

func TestCheck_DefaultReturnTypeIsI32(t *testing.T) {
	mod := ir.NewModule("t.exp")
	funcs, err := Check(mod, mustParse(t, `fn main() { return 0; }`))
	require.NoError(t, err)
	require.Equal(t, "i32", mod.Types.String(funcs[0].ReturnType))
}

func TestCheck_ExplicitReturnType(t *testing.T) {
	mod := ir.NewModule("t.exp")
	funcs, err := Check(mod, mustParse(t, `fn f(a: i64) -> i64 { return a; }`))
	require.NoError(t, err)
	require.Equal(t, "i64", mod.Types.String(funcs[0].ReturnType))
}

func TestCheck_ConstBindingAndArithmetic(t *testing.T) {
	mod := ir.NewModule("t.exp")
	_, err := Check(mod, mustParse(t, `fn main() { const x = 3; const y = 4; return x + y; }`))
	require.NoError(t, err)
}

func TestCheck_ForwardAndMutualCallsResolve(t *testing.T) {
	mod := ir.NewModule("t.exp")
	funcs, err := Check(mod, mustParse(t, `fn main() { return helper(1); } fn helper(x: i32) -> i32 { return x; }`))
	require.NoError(t, err)
	require.Len(t, funcs, 2)
}

func TestCheck_DuplicateFunctionIsError(t *testing.T) {
	mod := ir.NewModule("t.exp")
	_, err := Check(mod, mustParse(t, `fn f() { return 0; } fn f() { return 1; }`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "already declared")
}

func TestCheck_DuplicateConstNameIsError(t *testing.T) {
	mod := ir.NewModule("t.exp")
	_, err := Check(mod, mustParse(t, `fn f() { const x = 1; const x = 2; return x; }`))
	require.Error(t, err)
}

func TestCheck_UndefinedNameIsError(t *testing.T) {
	mod := ir.NewModule("t.exp")
	_, err := Check(mod, mustParse(t, `fn f() { return y; }`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "undefined name")
}

func TestCheck_UndeclaredFunctionCallIsError(t *testing.T) {
	mod := ir.NewModule("t.exp")
	_, err := Check(mod, mustParse(t, `fn f() { return g(1); }`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "undeclared function")
}

func TestCheck_WrongArgCountIsError(t *testing.T) {
	mod := ir.NewModule("t.exp")
	_, err := Check(mod, mustParse(t, `fn g(a: i32) -> i32 { return a; } fn f() { return g(1, 2); }`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "expects 1 argument")
}

// TestCheck_NonConstCallArgumentLowersAsSsaOperand exercises spec.md
// §4.2's requirement that a CALL argument need not be a compile-time
// constant: `g(x)` passes the formal parameter `x` itself, which lowers
// straight through as an Ssa operand into the argument list.
func TestCheck_NonConstCallArgumentLowersAsSsaOperand(t *testing.T) {
	mod := ir.NewModule("t.exp")
	funcs, err := Check(mod, mustParse(t, `fn g(a: i32) -> i32 { return a; } fn f(x: i32) -> i32 { return g(x); }`))
	require.NoError(t, err)

	f := funcs[1]
	require.Equal(t, "f", f.Name.String())
	var call ir.Instruction
	for _, in := range f.Block {
		if in.Op == ir.OpCall {
			call = in
		}
	}
	require.Equal(t, ir.OperandArgs, call.C.Kind())
	args := mod.Args.Get(call.C.ArgsIndex())
	require.Len(t, args, 1)
	require.True(t, args[0].IsSsa())
	require.Equal(t, uint32(0), args[0].SsaIndex(), "x is formal argument 0")
}

// TestCheck_NestedCallArgumentLowersAsSsaOperand exercises the same rule
// for a call result used directly as another call's argument.
func TestCheck_NestedCallArgumentLowersAsSsaOperand(t *testing.T) {
	mod := ir.NewModule("t.exp")
	funcs, err := Check(mod, mustParse(t, `fn h() -> i32 { return 1; } fn g(a: i32) -> i32 { return a; } fn f() -> i32 { return g(h()); }`))
	require.NoError(t, err)

	f := funcs[2]
	require.Equal(t, "f", f.Name.String())
	var calls []ir.Instruction
	for _, in := range f.Block {
		if in.Op == ir.OpCall {
			calls = append(calls, in)
		}
	}
	require.Len(t, calls, 2, "one CALL for h(), one for g(h())")
	outer := calls[1]
	args := mod.Args.Get(outer.C.ArgsIndex())
	require.Len(t, args, 1)
	require.True(t, args[0].IsSsa(), "g's argument is h()'s result, not a compile-time constant")
	require.Equal(t, calls[0].A, args[0].SsaIndex())
}

func TestCheck_TypeMismatchInBinaryIsError(t *testing.T) {
	mod := ir.NewModule("t.exp")
	_, err := Check(mod, mustParse(t, `fn f(a: i32, b: i64) -> i32 { return a + b; }`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "type mismatch")
}

func TestCheck_ReturnTypeMismatchIsError(t *testing.T) {
	mod := ir.NewModule("t.exp")
	_, err := Check(mod, mustParse(t, `fn f() -> i64 { return 0; }`))
	require.Error(t, err, "integer literals are always typed i32, so an i64-declared function mismatches")
	require.Contains(t, err.Error(), "return value has type")
}

func TestCheck_MissingReturnIsError(t *testing.T) {
	mod := ir.NewModule("t.exp")
	_, err := Check(mod, mustParse(t, `fn f() { const x = 1; }`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing return")
}

func TestCheck_UnreachableStatementAfterReturnIsError(t *testing.T) {
	mod := ir.NewModule("t.exp")
	_, err := Check(mod, mustParse(t, `fn f() { return 0; const x = 1; }`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unreachable")
}

func TestCheck_DivisionByZeroConstantIsError(t *testing.T) {
	mod := ir.NewModule("t.exp")
	_, err := Check(mod, mustParse(t, `fn f() { const x = 1; const y = 0; return x / y; }`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "division by zero")
}

func TestCheck_UnknownParamTypeIsError(t *testing.T) {
	mod := ir.NewModule("t.exp")
	_, err := Check(mod, mustParse(t, `fn f(a: notatype) { return a; }`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown type")
}

func TestCheck_FunctionsLoweredInDeclarationOrder(t *testing.T) {
	mod := ir.NewModule("t.exp")
	funcs, err := Check(mod, mustParse(t, `fn a() { return 1; } fn b() { return 2; }`))
	require.NoError(t, err)
	require.Equal(t, "a", funcs[0].Name.String())
	require.Equal(t, "b", funcs[1].Name.String())
}
