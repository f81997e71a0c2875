package formula

import (
	"unicode"
	"unicode/utf8"
)

// lexer tokenizes a formula expression.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

func (l *lexer) advance() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size
	return r
}

func (l *lexer) skipWhitespace() {
	for l.pos < len(l.input) {
		r := l.peek()
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			l.advance()
		} else {
			break
		}
	}
}

// next scans and returns the next token.
func (l *lexer) next() Token {
	l.skipWhitespace()

	start := l.pos
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: start}
	}

	r := l.peek()

	if r >= '0' && r <= '9' || r == '.' && l.peekDigitAt(1) {
		return l.scanNumber(start)
	}
	if isIdentStart(r) {
		return l.scanIdent(start)
	}

	l.advance()
	switch r {
	case '+':
		return Token{Type: TokenPlus, Literal: "+", Pos: start}
	case '-':
		return Token{Type: TokenMinus, Literal: "-", Pos: start}
	case '*':
		return Token{Type: TokenStar, Literal: "*", Pos: start}
	case '/':
		return Token{Type: TokenSlash, Literal: "/", Pos: start}
	case '(':
		return Token{Type: TokenLParen, Literal: "(", Pos: start}
	case ')':
		return Token{Type: TokenRParen, Literal: ")", Pos: start}
	}

	return Token{Type: TokenIllegal, Literal: string(r), Pos: start}
}

func (l *lexer) peekDigitAt(offset int) bool {
	p := l.pos + offset
	if p >= len(l.input) {
		return false
	}
	r, _ := utf8.DecodeRuneInString(l.input[p:])
	return r >= '0' && r <= '9'
}

func (l *lexer) scanNumber(start int) Token {
	sawDot := false
	for l.pos < len(l.input) {
		r := l.peek()
		if r >= '0' && r <= '9' {
			l.advance()
		} else if r == '.' && !sawDot {
			sawDot = true
			l.advance()
		} else {
			break
		}
	}
	return Token{Type: TokenNumber, Literal: l.input[start:l.pos], Pos: start}
}

func (l *lexer) scanIdent(start int) Token {
	for l.pos < len(l.input) {
		if isIdentPart(l.peek()) {
			l.advance()
		} else {
			break
		}
	}
	return Token{Type: TokenIdent, Literal: l.input[start:l.pos], Pos: start}
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
