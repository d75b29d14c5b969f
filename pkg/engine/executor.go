package engine

import (
	"github.com/Victor-armando18/vatpricing/internal/infrastructure/expression"
)

// EvaluateExpression avalia uma expressão de regra isolada, útil para pré-visualizar regras antes de as publicar.
func EvaluateExpression(src string, params map[string]float64) (float64, error) {
	return expression.Evaluate(src, params)
}

// ExpressionVariables devolve os parâmetros que a expressão referencia, por ordem alfabética.
func ExpressionVariables(src string) ([]string, error) {
	p, err := expression.Compile(src)
	if err != nil {
		return nil, err
	}
	return p.Variables(), nil
}

// ValidExpression é true quando a expressão tem sintaxe válida.
func ValidExpression(src string) bool { return expression.Validate(src) }
