// Package check lowers a parsed parser.Program into ir.Functions,
// registering every function's signature up front (so forward and mutual
// calls resolve) before lowering any body, and reporting malformed input
// as ordinary Go errors rather than panics — panics in this compiler
// are reserved for internal invariant violations (spec.md §6).
package check

import (
	"fmt"

	"github.com/exp-lang/expc/internal/ir"
	"github.com/exp-lang/expc/internal/parser"
	"github.com/exp-lang/expc/internal/types"
)

// binding is what a name resolves to inside a function body: the
// Operand to use at any reference site, its type, and — for names whose
// defining expression folds to a compile-time constant — that constant
// value, tracked so a constant-expression context (e.g. an array bound,
// were this language to grow one) can still fold through a name.
type binding struct {
	Operand  ir.Operand
	Type     types.ID
	Const    types.Scalar
	HasConst bool
}

// Checker holds the module-scoped tables built during signature
// registration and consulted while lowering bodies.
type Checker struct {
	mod    *ir.Module
	sigs   map[string]types.ID // function name -> KindFunction type
	labels map[string]ir.LabelIdx
}

// Check registers every declared function's signature, then lowers each
// body in declaration order, returning the built Functions in that same
// order.
func Check(mod *ir.Module, prog *parser.Program) ([]*ir.Function, error) {
	c := &Checker{mod: mod, sigs: map[string]types.ID{}, labels: map[string]ir.LabelIdx{}}

	for _, fn := range prog.Fns {
		if _, exists := c.sigs[fn.Name]; exists {
			return nil, fmt.Errorf("%d: function %q already declared", fn.Line, fn.Name)
		}
		argTypes := make([]types.ID, len(fn.Params))
		for i, p := range fn.Params {
			kind, err := scalarKindByName(p.Type)
			if err != nil {
				return nil, fmt.Errorf("%d: parameter %q: %v", fn.Line, p.Name, err)
			}
			argTypes[i] = mod.Types.InternScalar(kind)
		}
		retKind := types.I32
		if fn.RetType != "" {
			k, err := scalarKindByName(fn.RetType)
			if err != nil {
				return nil, fmt.Errorf("%d: function %q: %v", fn.Line, fn.Name, err)
			}
			retKind = k
		}
		retType := mod.Types.InternScalar(retKind)
		ftype := mod.Types.InternFunction(retType, argTypes)
		name := mod.Strings.Intern(fn.Name)

		c.sigs[fn.Name] = ftype
		c.labels[fn.Name] = mod.Labels.Add(name)
		mod.Symbols.Define(name, ir.Symbol{Type: ftype, Fn: &ir.Function{Name: name, ReturnType: retType, State: ir.Building}})
	}

	funcs := make([]*ir.Function, 0, len(prog.Fns))
	for _, fn := range prog.Fns {
		built, err := c.lowerFn(fn)
		if err != nil {
			return nil, err
		}
		name := c.mod.Strings.Intern(fn.Name)
		sym, _ := c.mod.Symbols.Lookup(name)
		sym.Fn = built
		c.mod.Symbols.Define(name, sym)
		funcs = append(funcs, built)
	}
	return funcs, nil
}

func (c *Checker) lowerFn(fn *parser.FnDecl) (*ir.Function, error) {
	ftype := c.sigs[fn.Name]
	retType, argTypes := c.mod.Types.FunctionSignature(ftype)

	argNames := make([]types.StringView, len(fn.Params))
	for i, p := range fn.Params {
		argNames[i] = c.mod.Strings.Intern(p.Name)
	}
	name := c.mod.Strings.Intern(fn.Name)
	b := ir.NewBuilder(name, argTypes, argNames, retType)

	scope := make(map[string]binding, len(fn.Params))
	for i, p := range fn.Params {
		scope[p.Name] = binding{Operand: ir.Ssa(uint32(i)), Type: argTypes[i]}
	}

	returned := false
	for _, st := range fn.Body {
		if returned {
			return nil, fmt.Errorf("%d: unreachable statement after return in function %q", stmtLine(st), fn.Name)
		}
		switch s := st.(type) {
		case *parser.ConstStmt:
			if _, exists := scope[s.Name]; exists {
				return nil, fmt.Errorf("%d: %q already declared in function %q", s.Line, s.Name, fn.Name)
			}
			op, typ, cv, isConst, err := c.lowerExpr(b, scope, s.Expr)
			if err != nil {
				return nil, err
			}
			scope[s.Name] = binding{Operand: op, Type: typ, Const: cv, HasConst: isConst}
		case *parser.ReturnStmt:
			op, typ, _, _, err := c.lowerExpr(b, scope, s.Expr)
			if err != nil {
				return nil, err
			}
			if typ != retType {
				return nil, fmt.Errorf("%d: return value has type %s, function %q returns %s",
					s.Line, c.mod.Types.String(typ), fn.Name, c.mod.Types.String(retType))
			}
			b.Emit(ir.Ret(op))
			returned = true
		default:
			return nil, fmt.Errorf("BUG: unhandled statement type %T", st)
		}
	}
	if !returned {
		return nil, fmt.Errorf("function %q: missing return statement", fn.Name)
	}
	return b.Finish(), nil
}

func stmtLine(s parser.Stmt) int {
	switch v := s.(type) {
	case *parser.ConstStmt:
		return v.Line
	case *parser.ReturnStmt:
		return v.Line
	default:
		return 0
	}
}

// lowerExpr emits whatever instructions e requires into b and returns the
// resulting Operand, its type, and — when every sub-expression folds to a
// compile-time constant — that constant value, which lets an enclosing
// binary expression fold too (and report a constant division by zero).
// Call results never fold, and call arguments are lowered without using
// their constant values.
func (c *Checker) lowerExpr(b *ir.Builder, scope map[string]binding, e parser.Expr) (ir.Operand, types.ID, types.Scalar, bool, error) {
	switch v := e.(type) {
	case *parser.IntLit:
		typ := c.mod.Types.InternScalar(types.I32)
		sc := types.NewInt(types.I32, v.Value)
		return ir.Immediate(sc), typ, sc, true, nil

	case *parser.Ident:
		bnd, ok := scope[v.Name]
		if !ok {
			return ir.Operand{}, 0, types.Scalar{}, false, fmt.Errorf("%d: undefined name %q", v.Line, v.Name)
		}
		return bnd.Operand, bnd.Type, bnd.Const, bnd.HasConst, nil

	case *parser.Binary:
		lOp, lTyp, lConst, lOk, err := c.lowerExpr(b, scope, v.Left)
		if err != nil {
			return ir.Operand{}, 0, types.Scalar{}, false, err
		}
		rOp, rTyp, rConst, rOk, err := c.lowerExpr(b, scope, v.Right)
		if err != nil {
			return ir.Operand{}, 0, types.Scalar{}, false, err
		}
		if lTyp != rTyp {
			return ir.Operand{}, 0, types.Scalar{}, false, fmt.Errorf(
				"%d: type mismatch in binary expression: %s vs %s", v.Line, c.mod.Types.String(lTyp), c.mod.Types.String(rTyp))
		}
		dst := b.NewLocal(lTyp)
		b.Emit(binaryInstruction(v.Op, dst, lOp, rOp))

		var cv types.Scalar
		var isConst bool
		if lOk && rOk {
			kind := c.mod.Types.Scalar(lTyp)
			folded, err := foldArith(v.Op, lConst, rConst, kind)
			if err != nil {
				return ir.Operand{}, 0, types.Scalar{}, false, fmt.Errorf("%d: %v", v.Line, err)
			}
			cv, isConst = folded, true
		}
		return ir.Ssa(dst), lTyp, cv, isConst, nil

	case *parser.Call:
		name := c.mod.Strings.Intern(v.Callee)
		sym, ok := c.mod.Symbols.Lookup(name)
		if !ok || !sym.IsFunction() {
			return ir.Operand{}, 0, types.Scalar{}, false, fmt.Errorf("%d: call to undeclared function %q", v.Line, v.Callee)
		}
		retType, argTypes := c.mod.Types.FunctionSignature(sym.Type)
		if len(v.Args) != len(argTypes) {
			return ir.Operand{}, 0, types.Scalar{}, false, fmt.Errorf(
				"%d: %q expects %d argument(s), found %d", v.Line, v.Callee, len(argTypes), len(v.Args))
		}
		args := make([]ir.Operand, len(v.Args))
		for i, a := range v.Args {
			op, aTyp, _, _, err := c.lowerExpr(b, scope, a)
			if err != nil {
				return ir.Operand{}, 0, types.Scalar{}, false, fmt.Errorf("%d: argument %d to %q: %v", v.Line, i, v.Callee, err)
			}
			if aTyp != argTypes[i] {
				return ir.Operand{}, 0, types.Scalar{}, false, fmt.Errorf(
					"%d: argument %d to %q has type %s, want %s", v.Line, i, v.Callee, c.mod.Types.String(aTyp), c.mod.Types.String(argTypes[i]))
			}
			args[i] = op
		}
		argsIdx := c.mod.Args.Add(args)
		label := c.labels[v.Callee]
		dst := b.NewLocal(retType)
		b.Emit(ir.Call(dst, ir.Label(label), ir.Args(argsIdx)))
		return ir.Ssa(dst), retType, types.Scalar{}, false, nil

	default:
		return ir.Operand{}, 0, types.Scalar{}, false, fmt.Errorf("BUG: unhandled expression type %T", e)
	}
}

func binaryInstruction(op parser.BinOp, dst uint32, l, r ir.Operand) ir.Instruction {
	switch op {
	case parser.OpAdd:
		return ir.Add(dst, l, r)
	case parser.OpSub:
		return ir.Sub(dst, l, r)
	case parser.OpMul:
		return ir.Mul(dst, l, r)
	case parser.OpDiv:
		return ir.Div(dst, l, r)
	case parser.OpMod:
		return ir.Mod(dst, l, r)
	default:
		panic(fmt.Sprintf("BUG: invalid BinOp %d", byte(op)))
	}
}

func foldArith(op parser.BinOp, l, r types.Scalar, kind types.ScalarKind) (types.Scalar, error) {
	a, b := l.Int64(), r.Int64()
	switch op {
	case parser.OpAdd:
		return types.NewInt(kind, a+b), nil
	case parser.OpSub:
		return types.NewInt(kind, a-b), nil
	case parser.OpMul:
		return types.NewInt(kind, a*b), nil
	case parser.OpDiv:
		if b == 0 {
			return types.Scalar{}, fmt.Errorf("division by zero in constant expression")
		}
		return types.NewInt(kind, a/b), nil
	case parser.OpMod:
		if b == 0 {
			return types.Scalar{}, fmt.Errorf("modulo by zero in constant expression")
		}
		return types.NewInt(kind, a%b), nil
	default:
		panic(fmt.Sprintf("BUG: invalid BinOp %d", byte(op)))
	}
}

func scalarKindByName(name string) (types.ScalarKind, error) {
	switch name {
	case "i8":
		return types.I8, nil
	case "i16":
		return types.I16, nil
	case "i32":
		return types.I32, nil
	case "i64":
		return types.I64, nil
	case "u8":
		return types.U8, nil
	case "u16":
		return types.U16, nil
	case "u32":
		return types.U32, nil
	case "u64":
		return types.U64, nil
	case "bool":
		return types.Bool, nil
	default:
		return 0, fmt.Errorf("unknown type %q", name)
	}
}
