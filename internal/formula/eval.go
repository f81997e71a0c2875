package formula

import (
	"errors"
	"fmt"
	"math"
)

// ErrDivisionByZero is returned when evaluation would divide by zero.
var ErrDivisionByZero = errors.New("division_by_zero")

// ErrNotFinite is returned when evaluation produces NaN or infinity.
var ErrNotFinite = errors.New("result_not_finite")

// Validate parses the expression against the allowed variable set without
// evaluating it. It is the parse-only safety gate used at configuration
// save time.
func Validate(input string, allowedVars []string) error {
	_, err := Parse(input, allowedVars)
	return err
}

// Evaluate parses and evaluates the expression with the given variables.
// The variable map keys form the allow-list; evaluation is deterministic
// and holds no state between calls.
func Evaluate(input string, vars map[string]float64) (float64, error) {
	allowed := make([]string, 0, len(vars))
	for name := range vars {
		allowed = append(allowed, name)
	}

	expr, err := Parse(input, allowed)
	if err != nil {
		return 0, err
	}

	result, err := expr.eval(vars)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, ErrNotFinite
	}
	return result, nil
}

func (n *numberLit) eval(map[string]float64) (float64, error) {
	return n.value, nil
}

func (v *varRef) eval(vars map[string]float64) (float64, error) {
	value, ok := vars[v.name]
	if !ok {
		// Parse guarantees membership; a miss here is a programming error.
		return 0, fmt.Errorf("variable %q not bound", v.name)
	}
	return value, nil
}

func (u *unaryExpr) eval(vars map[string]float64) (float64, error) {
	value, err := u.operand.eval(vars)
	if err != nil {
		return 0, err
	}
	return -value, nil
}

func (b *binaryExpr) eval(vars map[string]float64) (float64, error) {
	left, err := b.left.eval(vars)
	if err != nil {
		return 0, err
	}
	right, err := b.right.eval(vars)
	if err != nil {
		return 0, err
	}

	switch b.op {
	case TokenPlus:
		return left + right, nil
	case TokenMinus:
		return left - right, nil
	case TokenStar:
		return left * right, nil
	case TokenSlash:
		if right == 0 {
			return 0, ErrDivisionByZero
		}
		return left / right, nil
	default:
		return 0, fmt.Errorf("unsupported operator %d", b.op)
	}
}
