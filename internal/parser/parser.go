package parser

import (
	"fmt"

	"github.com/exp-lang/expc/internal/lexer"
)

// Parser turns a pre-scanned token slice into a Program by hand-written
// recursive descent, matching internal/lexer's style: no parser
// generator, one function per grammar production.
type Parser struct {
	toks []lexer.Token
	pos  int
}

// Parse lexes and parses src in one call.
func Parse(src string) (*Program, error) {
	toks, err := lexer.All(src)
	if err != nil {
		return nil, err
	}
	p := &Parser{toks: toks}
	return p.parseProgram()
}

func (p *Parser) cur() lexer.Token  { return p.toks[p.pos] }
func (p *Parser) peek1() lexer.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) advance() lexer.Token {
	t := p.cur()
	if t.Kind != lexer.EOF {
		p.pos++
	}
	return t
}

func (p *Parser) expect(k lexer.Kind) (lexer.Token, error) {
	t := p.cur()
	if t.Kind != k {
		return t, fmt.Errorf("%d:%d: expected %s, found %s", t.Line, t.Column, k, t.Kind)
	}
	return p.advance(), nil
}

func (p *Parser) parseProgram() (*Program, error) {
	var prog Program
	for p.cur().Kind != lexer.EOF {
		fn, err := p.parseFnDecl()
		if err != nil {
			return nil, err
		}
		prog.Fns = append(prog.Fns, fn)
	}
	return &prog, nil
}

func (p *Parser) parseFnDecl() (*FnDecl, error) {
	kw, err := p.expect(lexer.KwFn)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	var params []Param
	for p.cur().Kind != lexer.RParen {
		if len(params) > 0 {
			if _, err := p.expect(lexer.Comma); err != nil {
				return nil, err
			}
		}
		pname, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.Colon); err != nil {
			return nil, err
		}
		ptype, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		params = append(params, Param{Name: pname.Text, Type: ptype.Text})
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	var retType string
	if p.cur().Kind == lexer.Arrow {
		p.advance()
		rt, err := p.expect(lexer.Ident)
		if err != nil {
			return nil, err
		}
		retType = rt.Text
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &FnDecl{Name: name.Text, Params: params, RetType: retType, Body: body, Line: kw.Line}, nil
}

func (p *Parser) parseBlock() ([]Stmt, error) {
	if _, err := p.expect(lexer.LBrace); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for p.cur().Kind != lexer.RBrace {
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if _, err := p.expect(lexer.RBrace); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseStmt() (Stmt, error) {
	switch p.cur().Kind {
	case lexer.KwConst:
		return p.parseConstStmt()
	case lexer.KwReturn:
		return p.parseReturnStmt()
	default:
		t := p.cur()
		return nil, fmt.Errorf("%d:%d: expected a statement, found %s", t.Line, t.Column, t.Kind)
	}
}

func (p *Parser) parseConstStmt() (Stmt, error) {
	kw, err := p.expect(lexer.KwConst)
	if err != nil {
		return nil, err
	}
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Equals); err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	return &ConstStmt{Name: name.Text, Expr: expr, Line: kw.Line}, nil
}

func (p *Parser) parseReturnStmt() (Stmt, error) {
	kw, err := p.expect(lexer.KwReturn)
	if err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.Semicolon); err != nil {
		return nil, err
	}
	return &ReturnStmt{Expr: expr, Line: kw.Line}, nil
}

// Expression grammar, lowest to highest precedence:
//
//	expr   = term (('+' | '-') term)*
//	term   = unary (('*' | '/' | '%') unary)*
//	unary  = '-' unary | primary
//	primary = Int | Ident | Ident '(' args ')' | '(' expr ')'

func (p *Parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == lexer.Plus || p.cur().Kind == lexer.Minus {
		op := p.advance()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		binop := OpAdd
		if op.Kind == lexer.Minus {
			binop = OpSub
		}
		left = &Binary{Op: binop, Left: left, Right: right, Line: op.Line}
	}
	return left, nil
}

func (p *Parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.cur().Kind == lexer.Star || p.cur().Kind == lexer.Slash || p.cur().Kind == lexer.Percent {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		var binop BinOp
		switch op.Kind {
		case lexer.Star:
			binop = OpMul
		case lexer.Slash:
			binop = OpDiv
		default:
			binop = OpMod
		}
		left = &Binary{Op: binop, Left: left, Right: right, Line: op.Line}
	}
	return left, nil
}

// parseUnary desugars a leading '-' into `0 - x`: this grammar has no
// dedicated NEG expression node, since scalar negation is just
// subtraction from zero at this surface level. The IR's NEG opcode is
// part of the closed instruction set for front ends that want to emit
// it directly; this one never does.
func (p *Parser) parseUnary() (Expr, error) {
	if p.cur().Kind == lexer.Minus {
		op := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: OpSub, Left: &IntLit{Value: 0, Line: op.Line}, Right: operand, Line: op.Line}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expr, error) {
	t := p.cur()
	switch t.Kind {
	case lexer.Int:
		p.advance()
		var v int64
		if _, err := fmt.Sscanf(t.Text, "%d", &v); err != nil {
			return nil, fmt.Errorf("%d:%d: invalid integer literal %q", t.Line, t.Column, t.Text)
		}
		return &IntLit{Value: v, Line: t.Line}, nil
	case lexer.Ident:
		if p.peek1().Kind == lexer.LParen {
			return p.parseCall()
		}
		p.advance()
		return &Ident{Name: t.Text, Line: t.Line}, nil
	case lexer.LParen:
		p.advance()
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(lexer.RParen); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("%d:%d: expected an expression, found %s", t.Line, t.Column, t.Kind)
	}
}

func (p *Parser) parseCall() (Expr, error) {
	name, err := p.expect(lexer.Ident)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(lexer.LParen); err != nil {
		return nil, err
	}
	var args []Expr
	for p.cur().Kind != lexer.RParen {
		if len(args) > 0 {
			if _, err := p.expect(lexer.Comma); err != nil {
				return nil, err
			}
		}
		a, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	if _, err := p.expect(lexer.RParen); err != nil {
		return nil, err
	}
	return &Call{Callee: name.Text, Args: args, Line: name.Line}, nil
}
