package expression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	params := map[string]float64{
		"transactionVolume": 1500,
		"standardVatRate":   20,
		"currentRate":       19,
		"zero":              0,
	}

	tests := []struct {
		name string
		expr string
		want float64
	}{
		{"literal", "42", 42},
		{"decimal literal", "0.25", 0.25},
		{"leading dot", ".5 * 4", 2},
		{"variable", "standardVatRate", 20},
		{"precedence", "2 + 3 * 4", 14},
		{"parentheses", "(2 + 3) * 4", 20},
		{"left associative subtraction", "10 - 4 - 3", 3},
		{"left associative division", "100 / 10 / 5", 2},
		{"unary minus", "-currentRate + 20", 1},
		{"double unary", "--3", 3},
		{"unary plus", "+3", 3},
		{"comparison true", "transactionVolume > 1000", 1},
		{"comparison false", "transactionVolume <= 1000", 0},
		{"equality", "standardVatRate == 20", 1},
		{"inequality", "standardVatRate != 20", 0},
		{"threshold rule", "transactionVolume > 1000 ? 18 : 21", 18},
		{"nested conditional", "transactionVolume > 5000 ? 10 : transactionVolume > 1000 ? 5 : 0", 5},
		{"conditional in arithmetic", "(transactionVolume > 1000 ? 2 : 1) * 50", 100},
		{"logical and", "transactionVolume > 1000 && standardVatRate < 25", 1},
		{"logical or", "transactionVolume > 9000 || standardVatRate == 20", 1},
		{"whitespace", " \t2 *\n 3 ", 6},
		{"chained rate adjustment", "currentRate - 1.5", 17.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, params)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	params := map[string]float64{"zero": 0, "volume": 10, "huge": 1e200, "inf": math.Inf(1)}

	tests := []struct {
		name string
		expr string
		kind ErrorKind
	}{
		{"division by zero literal", "1 / 0", DivisionByZero},
		{"division by zero parameter", "volume / zero", DivisionByZero},
		{"missing parameter", "volume * missingRate", UnknownParameter},
		{"missing parameter in taken branch", "volume > 5 ? missing : 1", UnknownParameter},
		{"empty", "   ", SyntaxError},
		{"unbalanced open", "(1 + 2", SyntaxError},
		{"unbalanced close", "1 + 2)", SyntaxError},
		{"dangling operator", "1 +", SyntaxError},
		{"unknown operator", "2 ^ 3", SyntaxError},
		{"modulo not supported", "5 % 2", SyntaxError},
		{"incomplete conditional", "volume > 1 ? 2", SyntaxError},
		{"malformed number", "1.2.3", SyntaxError},
		{"exponent not supported", "1e5", SyntaxError},
		{"adjacent operands", "2 3", SyntaxError},
		{"single equals", "volume = 10", SyntaxError},
		{"overflow in result", "huge * huge", NonFinite},
		{"overflow inside comparison", "huge * huge > 0 ? 1 : 2", NonFinite},
		{"overflow inside logical", "volume > 1 && huge * huge", NonFinite},
		{"non-finite parameter", "inf > 0 ? 1 : 2", NonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.expr, params)
			require.Error(t, err)
			var ee *Error
			require.ErrorAs(t, err, &ee)
			assert.Equal(t, tt.kind, ee.Kind, err.Error())
		})
	}
}

func TestEvaluate_ShortCircuit(t *testing.T) {
	params := map[string]float64{"volume": 0}

	got, err := Evaluate("volume > 0 ? 100 / volume : 0", params)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = Evaluate("volume > 0 && 100 / volume > 1", params)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got)

	got, err = Evaluate("volume == 0 || missing", params)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestValidate(t *testing.T) {
	valid := []string{
		"transactionVolume > 1000 ? 18 : 21",
		"undeclaredParameter * 2",
		"((1))",
		"a ? b ? 1 : 2 : 3",
		"-(-(1))",
	}
	for _, e := range valid {
		assert.True(t, Validate(e), e)
	}

	invalid := []string{"", "(", ")", "1 +* 2", "a ?: b", "a b", "1 ! 2", "sum(1,2)"}
	for _, e := range invalid {
		assert.False(t, Validate(e), e)
	}
}

func TestCheck_ReportsPosition(t *testing.T) {
	err := Check("1 + (2 * 3")
	require.Error(t, err)
	var ee *Error
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, SyntaxError, ee.Kind)
	assert.Equal(t, 10, ee.Pos)
	assert.True(t, IsSyntax(err))
}

func TestCompile_Variables(t *testing.T) {
	p, err := Compile("countryCount > 1 ? subtotal * 0.05 : subtotal * 0 + countryCount")
	require.NoError(t, err)
	assert.Equal(t, []string{"countryCount", "subtotal"}, p.Variables())
	assert.True(t, p.References("countryCount"))
	assert.False(t, p.References("transactionVolume"))
	assert.IsType(t, &Conditional{}, p.Root())
}

func TestCompile_DeepNesting(t *testing.T) {
	deep := ""
	for i := 0; i < maxDepth+5; i++ {
		deep += "("
	}
	deep += "1"
	for i := 0; i < maxDepth+5; i++ {
		deep += ")"
	}
	assert.False(t, Validate(deep))
}

func TestProgram_ReusableAcrossParameterSets(t *testing.T) {
	p, err := Compile("transactionVolume > 1000 ? 18 : 21")
	require.NoError(t, err)

	low, err := p.Eval(map[string]float64{"transactionVolume": 10})
	require.NoError(t, err)
	high, err := p.Eval(map[string]float64{"transactionVolume": 10000})
	require.NoError(t, err)

	assert.Equal(t, 21.0, low)
	assert.Equal(t, 18.0, high)
}
