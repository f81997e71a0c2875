package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var standardVars = []string{"area", "consumption"}

func TestEvaluate_Arithmetic(t *testing.T) {
	vars := map[string]float64{"area": 50, "consumption": 120}

	cases := []struct {
		expr string
		want float64
	}{
		{"area", 50},
		{"area + consumption", 170},
		{"area * 2 + consumption", 220},
		{"(area + consumption) * 2", 340},
		{"consumption / 4", 30},
		{"-area + 100", 50},
		{"area * 0.7 + consumption * 0.3", 71},
		{"2 + 3 * 4", 14}, // precedence
		{"10 - 2 - 3", 5}, // left associativity
		{".5 * area", 25},
	}

	for _, tc := range cases {
		got, err := Evaluate(tc.expr, vars)
		assert.NoError(t, err, "expr %q", tc.expr)
		assert.InDelta(t, tc.want, got, 1e-9, "expr %q", tc.expr)
	}
}

func TestEvaluate_DivisionByZero(t *testing.T) {
	_, err := Evaluate("area / 0", map[string]float64{"area": 10})
	assert.ErrorIs(t, err, ErrDivisionByZero)

	_, err = Evaluate("1 / (consumption - consumption)", map[string]float64{"consumption": 3})
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestEvaluate_Deterministic(t *testing.T) {
	vars := map[string]float64{"area": 33.3, "consumption": 17.1}
	expr := "(area * 3 + consumption) / 7"

	first, err := Evaluate(expr, vars)
	assert.NoError(t, err)
	second, err := Evaluate(expr, vars)
	assert.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestValidate_RejectsCallExpressions(t *testing.T) {
	for _, expr := range []string{
		"eval(area)",
		"system('ls')",
		"exec(consumption)",
		"area + max(1, 2)",
		"sqrt(area)",
	} {
		err := Validate(expr, standardVars)
		assert.Error(t, err, "expr %q must be rejected", expr)
		var syntaxErr *SyntaxError
		assert.ErrorAs(t, err, &syntaxErr, "expr %q", expr)
	}
}

func TestValidate_RejectsUnknownIdentifiers(t *testing.T) {
	for _, expr := range []string{
		"eval",
		"area + rm_rf",
		"include",
		"consumption * phpinfo",
	} {
		err := Validate(expr, standardVars)
		assert.Error(t, err, "expr %q must be rejected", expr)
	}
}

func TestValidate_RejectsMalformedInput(t *testing.T) {
	for _, expr := range []string{
		"",
		"area +",
		"(area",
		"area )",
		"1 ; 2",
		"area = 5",
		"a.b",
		"$area",
		"1..2 + 3 4",
	} {
		assert.Error(t, Validate(expr, standardVars), "expr %q must be rejected", expr)
	}
}

func TestValidate_AcceptsAllowedVariables(t *testing.T) {
	assert.NoError(t, Validate("area * 0.5 + consumption * 0.5", standardVars))
	assert.NoError(t, Validate("floor_weight * area", []string{"area", "floor_weight"}))

	// Same identifier is rejected once it leaves the allow-list.
	assert.Error(t, Validate("floor_weight * area", standardVars))
}
