// Package formula implements the restricted arithmetic expression language
// used by custom-formula cost distribution. The grammar supports numeric
// literals, allow-listed variables, unary minus, the four basic operators,
// and parentheses. There is no call-expression production: any token shaped
// like a function invocation fails to parse, so dangerous identifiers are
// rejected structurally rather than by pattern matching.
package formula

import "fmt"

// TokenType identifies a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenNumber
	TokenIdent
	TokenPlus
	TokenMinus
	TokenStar
	TokenSlash
	TokenLParen
	TokenRParen
	TokenIllegal
)

// Token is a single lexical token with its source position.
type Token struct {
	Type    TokenType
	Literal string
	Pos     int // 0-based byte offset
}

func (t Token) String() string {
	switch t.Type {
	case TokenEOF:
		return "end of expression"
	default:
		return fmt.Sprintf("%q", t.Literal)
	}
}
