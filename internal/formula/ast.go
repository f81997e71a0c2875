package formula

// Expr is a parsed formula expression node.
type Expr interface {
	eval(vars map[string]float64) (float64, error)
}

type numberLit struct {
	value float64
}

type varRef struct {
	name string
}

type unaryExpr struct {
	op      TokenType // TokenMinus
	operand Expr
}

type binaryExpr struct {
	op    TokenType
	left  Expr
	right Expr
}
