package formula

import (
	"fmt"
	"strconv"
)

// SyntaxError describes a parse failure with its source position.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("formula syntax error at offset %d: %s", e.Pos, e.Msg)
}

// parser is a recursive-descent parser for the formula grammar:
//
//	expr   := term (('+' | '-') term)*
//	term   := factor (('*' | '/') factor)*
//	factor := NUMBER | IDENT | '-' factor | '(' expr ')'
//
// IDENT must be a member of the allowed variable set. The grammar has no
// production for calls, indexing, or assignment.
type parser struct {
	lex     *lexer
	tok     Token
	allowed map[string]struct{}
}

// Parse parses an expression against an allow-list of variable names and
// returns the expression tree. It never evaluates anything, so it is safe
// to use for validation of stored configuration.
func Parse(input string, allowedVars []string) (Expr, error) {
	allowed := make(map[string]struct{}, len(allowedVars))
	for _, v := range allowedVars {
		allowed[v] = struct{}{}
	}

	p := &parser{lex: newLexer(input), allowed: allowed}
	p.next()

	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.Type != TokenEOF {
		return nil, &SyntaxError{Pos: p.tok.Pos, Msg: fmt.Sprintf("unexpected %s", p.tok)}
	}
	return expr, nil
}

func (p *parser) next() {
	p.tok = p.lex.next()
}

func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == TokenPlus || p.tok.Type == TokenMinus {
		op := p.tok.Type
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for p.tok.Type == TokenStar || p.tok.Type == TokenSlash {
		op := p.tok.Type
		p.next()
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = &binaryExpr{op: op, left: left, right: right}
	}
	return left, nil
}

func (p *parser) parseFactor() (Expr, error) {
	switch p.tok.Type {
	case TokenNumber:
		value, err := strconv.ParseFloat(p.tok.Literal, 64)
		if err != nil {
			return nil, &SyntaxError{Pos: p.tok.Pos, Msg: fmt.Sprintf("invalid number %q", p.tok.Literal)}
		}
		p.next()
		return &numberLit{value: value}, nil

	case TokenIdent:
		name := p.tok.Literal
		pos := p.tok.Pos
		p.next()
		if p.tok.Type == TokenLParen {
			return nil, &SyntaxError{Pos: p.tok.Pos, Msg: fmt.Sprintf("call expressions are not allowed: %q", name)}
		}
		if _, ok := p.allowed[name]; !ok {
			return nil, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("unknown variable %q", name)}
		}
		return &varRef{name: name}, nil

	case TokenMinus:
		p.next()
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return &unaryExpr{op: TokenMinus, operand: operand}, nil

	case TokenLParen:
		p.next()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.tok.Type != TokenRParen {
			return nil, &SyntaxError{Pos: p.tok.Pos, Msg: fmt.Sprintf("expected ')', found %s", p.tok)}
		}
		p.next()
		return expr, nil

	case TokenIllegal:
		return nil, &SyntaxError{Pos: p.tok.Pos, Msg: fmt.Sprintf("unexpected character %s", p.tok)}

	default:
		return nil, &SyntaxError{Pos: p.tok.Pos, Msg: fmt.Sprintf("unexpected %s", p.tok)}
	}
}
