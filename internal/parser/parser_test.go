package parser

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse_EmptyProgram(t *testing.T) {
	prog, err := Parse("")
	require.NoError(t, err)
	require.Empty(t, prog.Fns)
}

func TestParse_MinimalFn(t *testing.T) {
	prog, err := Parse(`fn main() { return 0; }`)
	require.NoError(t, err)
	require.Len(t, prog.Fns, 1)
	fn := prog.Fns[0]
	require.Equal(t, "main", fn.Name)
	require.Empty(t, fn.Params)
	require.Empty(t, fn.RetType)
	require.Len(t, fn.Body, 1)
	ret, ok := fn.Body[0].(*ReturnStmt)
	require.True(t, ok)
	lit, ok := ret.Expr.(*IntLit)
	require.True(t, ok)
	require.Equal(t, int64(0), lit.Value)
}

func TestParse_ParamsAndReturnType(t *testing.T) {
	prog, err := Parse(`fn add(a: i32, b: i32) -> i32 { return a + b; }`)
	require.NoError(t, err)
	fn := prog.Fns[0]
	require.Equal(t, []Param{{Name: "a", Type: "i32"}, {Name: "b", Type: "i32"}}, fn.Params)
	require.Equal(t, "i32", fn.RetType)
}

func TestParse_ConstStmt(t *testing.T) {
	prog, err := Parse(`fn f() { const x = 5; return x; }`)
	require.NoError(t, err)
	body := prog.Fns[0].Body
	require.Len(t, body, 2)
	c, ok := body[0].(*ConstStmt)
	require.True(t, ok)
	require.Equal(t, "x", c.Name)
}

func TestParse_BinaryPrecedence(t *testing.T) {
	prog, err := Parse(`fn f() { return 1 + 2 * 3; }`)
	require.NoError(t, err)
	ret := prog.Fns[0].Body[0].(*ReturnStmt)
	top, ok := ret.Expr.(*Binary)
	require.True(t, ok)
	require.Equal(t, OpAdd, top.Op)
	_, leftIsLit := top.Left.(*IntLit)
	require.True(t, leftIsLit)
	right, ok := top.Right.(*Binary)
	require.True(t, ok)
	require.Equal(t, OpMul, right.Op)
}

func TestParse_LeftAssociativity(t *testing.T) {
	prog, err := Parse(`fn f() { return 1 - 2 - 3; }`)
	require.NoError(t, err)
	ret := prog.Fns[0].Body[0].(*ReturnStmt)
	top := ret.Expr.(*Binary)
	require.Equal(t, OpSub, top.Op)
	_, rightIsLit := top.Right.(*IntLit)
	require.True(t, rightIsLit, "right operand of the outer op is the last literal")
	_, leftIsBinary := top.Left.(*Binary)
	require.True(t, leftIsBinary, "left-associative: (1 - 2) - 3")
}

func TestParse_ParenthesesOverridePrecedence(t *testing.T) {
	prog, err := Parse(`fn f() { return (1 + 2) * 3; }`)
	require.NoError(t, err)
	ret := prog.Fns[0].Body[0].(*ReturnStmt)
	top := ret.Expr.(*Binary)
	require.Equal(t, OpMul, top.Op)
	_, leftIsBinary := top.Left.(*Binary)
	require.True(t, leftIsBinary)
}

func TestParse_UnaryMinusDesugarsToZeroMinus(t *testing.T) {
	prog, err := Parse(`fn f() { return -x; }`)
	require.NoError(t, err)
	ret := prog.Fns[0].Body[0].(*ReturnStmt)
	b, ok := ret.Expr.(*Binary)
	require.True(t, ok)
	require.Equal(t, OpSub, b.Op)
	lit, ok := b.Left.(*IntLit)
	require.True(t, ok)
	require.Equal(t, int64(0), lit.Value)
	_, rightIsIdent := b.Right.(*Ident)
	require.True(t, rightIsIdent)
}

func TestParse_Call(t *testing.T) {
	prog, err := Parse(`fn f() { return add(1, 2); }`)
	require.NoError(t, err)
	ret := prog.Fns[0].Body[0].(*ReturnStmt)
	call, ok := ret.Expr.(*Call)
	require.True(t, ok)
	require.Equal(t, "add", call.Callee)
	require.Len(t, call.Args, 2)
}

func TestParse_CallWithNoArgs(t *testing.T) {
	prog, err := Parse(`fn f() { return g(); }`)
	require.NoError(t, err)
	ret := prog.Fns[0].Body[0].(*ReturnStmt)
	call := ret.Expr.(*Call)
	require.Empty(t, call.Args)
}

func TestParse_MultipleFunctions(t *testing.T) {
	prog, err := Parse(`fn a() { return 1; } fn b() { return 2; }`)
	require.NoError(t, err)
	require.Len(t, prog.Fns, 2)
	require.Equal(t, "a", prog.Fns[0].Name)
	require.Equal(t, "b", prog.Fns[1].Name)
}

func TestParse_MissingSemicolonIsError(t *testing.T) {
	_, err := Parse(`fn f() { return 1 }`)
	require.Error(t, err)
}

func TestParse_UnexpectedTokenReportsPosition(t *testing.T) {
	_, err := Parse(`fn f() { return ; }`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "1:")
}

func TestParse_UnclosedParenIsError(t *testing.T) {
	_, err := Parse(`fn f() { return (1 + 2; }`)
	require.Error(t, err)
}

func TestParse_PropagatesLexError(t *testing.T) {
	_, err := Parse(`fn f() { return @; }`)
	require.Error(t, err)
}
