package expression

import (
	"sort"
	"strings"
)

const maxDepth = 128

type parser struct {
	toks  []token
	i     int
	depth int
}

// Program é uma expressão já analisada; pode ser avaliada concorrentemente.
type Program struct {
	source string
	root   Node
	vars   []string
}

// Compile analisa a expressão uma única vez.
func Compile(src string) (*Program, error) {
	root, err := parse(src)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var vars []string
	Walk(root, func(n Node) {
		if v, ok := n.(*Variable); ok && !seen[v.Name] {
			seen[v.Name] = true
			vars = append(vars, v.Name)
		}
	})
	sort.Strings(vars)
	return &Program{source: src, root: root, vars: vars}, nil
}

// Validate faz apenas verificações estruturais; parâmetros não declarados são aceites.
func Validate(src string) bool {
	_, err := parse(src)
	return err == nil
}

// Check é como Validate mas devolve o erro de sintaxe com a posição.
func Check(src string) error {
	_, err := parse(src)
	return err
}

func (p *Program) Source() string { return p.source }
func (p *Program) Root() Node     { return p.root }

// Variables devolve os nomes de parâmetros referenciados, ordenados.
func (p *Program) Variables() []string { return append([]string(nil), p.vars...) }

func (p *Program) References(name string) bool {
	i := sort.SearchStrings(p.vars, name)
	return i < len(p.vars) && p.vars[i] == name
}

func parse(src string) (Node, error) {
	if strings.TrimSpace(src) == "" {
		return nil, syntaxErr(0, "empty expression")
	}
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.ternary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		if t.kind == tokRParen {
			return nil, syntaxErr(t.pos, "unbalanced parenthesis")
		}
		return nil, syntaxErr(t.pos, "unexpected %q", t.text)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) isOp(ops ...string) (token, bool) {
	t := p.peek()
	if t.kind != tokOp {
		return t, false
	}
	for _, o := range ops {
		if t.text == o {
			return t, true
		}
	}
	return t, false
}

func (p *parser) ternary() (Node, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxDepth {
		return nil, syntaxErr(p.peek().pos, "expression nested too deeply")
	}

	cond, err := p.binary(0)
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokQuestion {
		return cond, nil
	}
	q := p.next()
	then, err := p.ternary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokColon {
		return nil, syntaxErr(t.pos, "expected ':' in conditional started at offset %d", q.pos)
	}
	p.next()
	els, err := p.ternary()
	if err != nil {
		return nil, err
	}
	return &Conditional{Cond: cond, Then: then, Else: els, At: q.pos}, nil
}

// levels vai da menor para a maior precedência.
var levels = [][]string{
	{"||"},
	{"&&"},
	{"==", "!="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/"},
}

func (p *parser) binary(level int) (Node, error) {
	if level == len(levels) {
		return p.unary()
	}
	left, err := p.binary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		t, ok := p.isOp(levels[level]...)
		if !ok {
			return left, nil
		}
		p.next()
		right, err := p.binary(level + 1)
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: symbolOperators[t.text], Left: left, Right: right, At: t.pos}
	}
}

func (p *parser) unary() (Node, error) {
	if t, ok := p.isOp("-", "+"); ok {
		p.depth++
		defer func() { p.depth-- }()
		if p.depth > maxDepth {
			return nil, syntaxErr(t.pos, "expression nested too deeply")
		}
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		if t.text == "+" {
			return operand, nil
		}
		return &BinaryOp{Op: OpSub, Left: &Literal{Value: 0, At: t.pos}, Right: operand, At: t.pos}, nil
	}
	return p.primary()
}

func (p *parser) primary() (Node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return &Literal{Value: t.num, At: t.pos}, nil
	case tokIdent:
		return &Variable{Name: t.text, At: t.pos}, nil
	case tokLParen:
		n, err := p.ternary()
		if err != nil {
			return nil, err
		}
		if c := p.peek(); c.kind != tokRParen {
			return nil, syntaxErr(c.pos, "unbalanced parenthesis opened at offset %d", t.pos)
		}
		p.next()
		return n, nil
	case tokEOF:
		return nil, syntaxErr(t.pos, "unexpected end of expression")
	}
	return nil, syntaxErr(t.pos, "unexpected %q", t.text)
}
