package jobtracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubstituteResolvesPlaceholders(t *testing.T) {
	scope := templateScope{"simname": "sim42"}
	out, err := substitute("run --name {simname}", scope)
	require.NoError(t, err)
	assert.Equal(t, "run --name sim42", out)
}

func TestSubstituteRejectsUndefinedVariable(t *testing.T) {
	_, err := substitute("{missing}", templateScope{})
	assert.Error(t, err)
}

func TestSubstituteRejectsUnterminatedBrace(t *testing.T) {
	_, err := substitute("{simname", templateScope{"simname": "x"})
	assert.Error(t, err)
}

func TestEvalExprArithmetic(t *testing.T) {
	tests := []struct {
		expr     string
		expected string
	}{
		{"2 + 3", "5"},
		{"10 - 4", "6"},
		{"3 * 4", "12"},
		{"10 / 4", "2.5"},
		{"len(hello)", "5"},
		{"upper(abc)", "ABC"},
		{"lower(ABC)", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			out, err := evalExpr(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out)
		})
	}
}

func TestEvalExprDivisionByZero(t *testing.T) {
	_, err := evalExpr("1 / 0")
	assert.Error(t, err)
}

func TestEvalExprStringConcatenation(t *testing.T) {
	out, err := evalExpr("foo + bar")
	require.NoError(t, err)
	assert.Equal(t, "foobar", out)
}

func TestRenderValueList(t *testing.T) {
	scope := templateScope{"simname": "sim1"}
	out, err := renderValue([]interface{}{"prefix-", "{simname}", "-suffix"}, scope)
	require.NoError(t, err)
	assert.Equal(t, "prefix-sim1-suffix", out)
}

func TestRenderValueEvalNode(t *testing.T) {
	scope := templateScope{"count": "4"}
	out, err := renderValue(map[string]interface{}{"eval": "{count} * 2"}, scope)
	require.NoError(t, err)
	assert.Equal(t, "8", out)
}

func TestRenderValueRejectsNonEvalMap(t *testing.T) {
	_, err := renderValue(map[string]interface{}{"other": "x"}, templateScope{})
	assert.Error(t, err)
}

func TestCommandRendersPreambleAndBody(t *testing.T) {
	tr := newTestTracker(t, &fakeAdapter{})
	tr.cfg.Script = "echo hello {simname}"
	tr.cfg.Variables = nil

	out, err := tr.Command([]string{"sim1"})
	require.NoError(t, err)
	assert.Contains(t, out, "date:")
	assert.Contains(t, out, "echo hello sim1")
}

func TestCommandRejectsWrongBundleSize(t *testing.T) {
	tr := newTestTracker(t, &fakeAdapter{})
	_, err := tr.Command([]string{"sim1", "sim2"})
	assert.Error(t, err)
}
