package expression

import (
	"fmt"
	"math"
)

// Evaluate analisa e avalia a expressão. Para avaliações repetidas use Compile.
func Evaluate(src string, params map[string]float64) (float64, error) {
	p, err := Compile(src)
	if err != nil {
		return 0, err
	}
	return p.Eval(params)
}

// Eval percorre a AST. Parâmetros em falta e divisão por zero são erros, nunca valores por omissão.
func (p *Program) Eval(params map[string]float64) (float64, error) {
	v, err := p.root.Accept(&evaluator{params: params})
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &Error{Kind: NonFinite, Pos: 0, Msg: fmt.Sprintf("expression produced %v", v)}
	}
	return v, nil
}

type evaluator struct {
	params map[string]float64
}

func (e *evaluator) VisitLiteral(n *Literal) (float64, error) { return n.Value, nil }

func (e *evaluator) VisitVariable(n *Variable) (float64, error) {
	v, ok := e.params[n.Name]
	if !ok {
		return 0, &Error{Kind: UnknownParameter, Pos: n.At, Msg: fmt.Sprintf("parameter %q not supplied", n.Name)}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &Error{Kind: NonFinite, Pos: n.At, Msg: fmt.Sprintf("parameter %q is %v", n.Name, v)}
	}
	return v, nil
}

func (e *evaluator) VisitConditional(n *Conditional) (float64, error) {
	c, err := n.Cond.Accept(e)
	if err != nil {
		return 0, err
	}
	if truthy(c) {
		return n.Then.Accept(e)
	}
	return n.Else.Accept(e)
}

func (e *evaluator) VisitBinaryOp(n *BinaryOp) (float64, error) {
	a, err := n.Left.Accept(e)
	if err != nil {
		return 0, err
	}

	// curto-circuito lógico
	switch n.Op {
	case OpAnd:
		if !truthy(a) {
			return 0, nil
		}
		b, err := n.Right.Accept(e)
		if err != nil {
			return 0, err
		}
		return boolean(truthy(b)), nil
	case OpOr:
		if truthy(a) {
			return 1, nil
		}
		b, err := n.Right.Accept(e)
		if err != nil {
			return 0, err
		}
		return boolean(truthy(b)), nil
	}

	b, err := n.Right.Accept(e)
	if err != nil {
		return 0, err
	}
	v, err := binary(n, a, b)
	if err != nil {
		return 0, err
	}
	// Infinito intermédio não pode chegar a uma comparação.
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &Error{Kind: NonFinite, Pos: n.At, Msg: fmt.Sprintf("operation produced %v", v)}
	}
	return v, nil
}

func binary(n *BinaryOp, a, b float64) (float64, error) {
	switch n.Op {
	case OpAdd:
		return a + b, nil
	case OpSub:
		return a - b, nil
	case OpMul:
		return a * b, nil
	case OpDiv:
		if b == 0 {
			return 0, &Error{Kind: DivisionByZero, Pos: n.At, Msg: "divisor evaluated to zero"}
		}
		return a / b, nil
	case OpLT:
		return boolean(a < b), nil
	case OpLE:
		return boolean(a <= b), nil
	case OpGT:
		return boolean(a > b), nil
	case OpGE:
		return boolean(a >= b), nil
	case OpEQ:
		return boolean(a == b), nil
	case OpNE:
		return boolean(a != b), nil
	}
	return 0, &Error{Kind: SyntaxError, Pos: n.At, Msg: fmt.Sprintf("unknown operator %d", n.Op)}
}

func truthy(v float64) bool { return v != 0 }

func boolean(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
