package expression

// Operator identifica o operador de um BinaryOp.
type Operator int

const (
	OpAdd Operator = iota + 1
	OpSub
	OpMul
	OpDiv
	OpLT
	OpLE
	OpGT
	OpGE
	OpEQ
	OpNE
	OpAnd
	OpOr
)

var operatorSymbols = map[Operator]string{
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/",
	OpLT: "<", OpLE: "<=", OpGT: ">", OpGE: ">=", OpEQ: "==", OpNE: "!=",
	OpAnd: "&&", OpOr: "||",
}

var symbolOperators = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorSymbols))
	for op, s := range operatorSymbols {
		m[s] = op
	}
	return m
}()

func (o Operator) String() string { return operatorSymbols[o] }

// Node é uma das variantes fechadas da AST: *Literal, *Variable, *BinaryOp, *Conditional.
type Node interface {
	Accept(v Visitor) (float64, error)
	Pos() int
	node()
}

type Visitor interface {
	VisitLiteral(n *Literal) (float64, error)
	VisitVariable(n *Variable) (float64, error)
	VisitBinaryOp(n *BinaryOp) (float64, error)
	VisitConditional(n *Conditional) (float64, error)
}

type Literal struct {
	Value float64
	At    int
}

type Variable struct {
	Name string
	At   int
}

// BinaryOp também representa o menos unário como 0 - operando.
type BinaryOp struct {
	Op          Operator
	Left, Right Node
	At          int
}

type Conditional struct {
	Cond, Then, Else Node
	At               int
}

func (n *Literal) Accept(v Visitor) (float64, error)     { return v.VisitLiteral(n) }
func (n *Variable) Accept(v Visitor) (float64, error)    { return v.VisitVariable(n) }
func (n *BinaryOp) Accept(v Visitor) (float64, error)    { return v.VisitBinaryOp(n) }
func (n *Conditional) Accept(v Visitor) (float64, error) { return v.VisitConditional(n) }

func (n *Literal) Pos() int     { return n.At }
func (n *Variable) Pos() int    { return n.At }
func (n *BinaryOp) Pos() int    { return n.At }
func (n *Conditional) Pos() int { return n.At }

func (*Literal) node()     {}
func (*Variable) node()    {}
func (*BinaryOp) node()    {}
func (*Conditional) node() {}

// Walk visits n and every descendant in depth-first order.
func Walk(n Node, fn func(Node)) {
	fn(n)
	switch t := n.(type) {
	case *BinaryOp:
		Walk(t.Left, fn)
		Walk(t.Right, fn)
	case *Conditional:
		Walk(t.Cond, fn)
		Walk(t.Then, fn)
		Walk(t.Else, fn)
	}
}
