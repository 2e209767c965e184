package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/copiloto/internal/llm"
)

func TestCalc(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"(2+3)*4/5", 4},
		{"1 + 2 * 3", 7},
		{"-3 + 5", 2},
		{"-(2+2)", -4},
		{"10 / 4", 2.5},
		{"2 - -1", 3},
		{".5 * 4", 2},
		{"((1))", 1},
	}
	for _, tt := range tests {
		got, err := Calc(tt.expr)
		require.NoError(t, err, tt.expr)
		assert.InDelta(t, tt.want, got, 1e-9, tt.expr)
	}
}

func TestCalc_InvalidExpression(t *testing.T) {
	for _, expr := range []string{
		"2+3; rm -rf",
		"2**`id`",
		"Math.PI",
		"1e3",
		"",
		"   ",
		"(1+2",
		"1+2)",
		"1..2",
		"3 4",
		"*",
	} {
		_, err := Calc(expr)
		assert.ErrorIs(t, err, ErrInvalidExpression, expr)
	}
}

func TestCalc_NonFinite(t *testing.T) {
	for _, expr := range []string{"1/0", "0/0", "-1/0", "3/(1-1)", "1/(1/0)", "5+1/(2/0)"} {
		_, err := Calc(expr)
		assert.ErrorIs(t, err, ErrNonFiniteResult, expr)
	}
}

func TestCalcTool_Result(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(CalcTool()))

	res := r.Invoke(context.Background(), llm.ToolCall{ID: "c", Name: "calc", Arguments: map[string]any{"expression": "(2+3)*4/5"}})
	assert.JSONEq(t, `{"expression":"(2+3)*4/5","result":4}`, res.Content)

	res = r.Invoke(context.Background(), llm.ToolCall{ID: "d", Name: "calc", Arguments: map[string]any{"expression": "2+3; rm -rf"}})
	assert.JSONEq(t, `{"error":"Expresión inválida"}`, res.Content)
}
