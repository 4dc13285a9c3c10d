// Package lexer turns expc source text into a token stream, by hand, in
// the teacher's style: no generated scanner, no regex tables — a single
// switch over the current byte.
package lexer

import "fmt"

// Kind tags a Token's lexical class.
type Kind byte

const (
	Invalid Kind = iota
	EOF

	Ident
	Int

	KwFn
	KwConst
	KwReturn

	LParen
	RParen
	LBrace
	RBrace
	Comma
	Colon
	Semicolon
	Equals
	Arrow

	Plus
	Minus
	Star
	Slash
	Percent
)

var kindNames = map[Kind]string{
	Invalid: "invalid", EOF: "eof", Ident: "ident", Int: "int",
	KwFn: "fn", KwConst: "const", KwReturn: "return",
	LParen: "(", RParen: ")", LBrace: "{", RBrace: "}",
	Comma: ",", Colon: ":", Semicolon: ";", Equals: "=", Arrow: "->",
	Plus: "+", Minus: "-", Star: "*", Slash: "/", Percent: "%",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

var keywords = map[string]Kind{
	"fn":     KwFn,
	"const":  KwConst,
	"return": KwReturn,
}

// Token is one lexeme with its source position, reported 1-based per
// spec.md's diagnostic shape (file/line/column).
type Token struct {
	Kind   Kind
	Text   string // raw source text; the integer literal's decimal digits for Int
	Line   int
	Column int
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)@%d:%d", t.Kind, t.Text, t.Line, t.Column)
}
