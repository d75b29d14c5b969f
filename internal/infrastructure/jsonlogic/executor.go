package jsonlogic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"

	"github.com/Victor-armando18/vatpricing/internal/interfaces"
)

// Executor corre regras JsonLogic (guards de pedido) com operadores customizados no topo da regra.
type Executor struct {
	customOps map[string]func(args ...any) any
}

var _ interfaces.GuardExecutor = (*Executor)(nil)

func NewExecutor() *Executor {
	e := &Executor{customOps: make(map[string]func(args ...any) any)}
	e.RegisterCustomOperator("round", Round)
	e.RegisterCustomOperator("between", Between)
	return e
}

func (e *Executor) RegisterCustomOperator(name string, fn func(args ...any) any) {
	e.customOps[name] = fn
}

func (e *Executor) Execute(ctx context.Context, logic map[string]any, data map[string]any) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for name, fn := range e.customOps {
		if args, ok := logic[name]; ok && len(logic) == 1 {
			return e.handleManualEval(ctx, args, data, fn)
		}
	}

	ruleJSON, err := json.Marshal(logic)
	if err != nil {
		return nil, fmt.Errorf("failed to encode rule: %w", err)
	}
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode data: %w", err)
	}

	var result bytes.Buffer
	if err := jsonlogic.Apply(bytes.NewReader(ruleJSON), bytes.NewReader(dataJSON), &result); err != nil {
		return nil, fmt.Errorf("jsonlogic apply: %w", err)
	}

	out := strings.TrimSpace(result.String())
	if out == "" || out == "null" {
		return nil, nil
	}

	var res any
	dec := json.NewDecoder(strings.NewReader(out))
	dec.UseNumber()
	if err := dec.Decode(&res); err != nil {
		return nil, fmt.Errorf("failed to decode jsonlogic result: %w", err)
	}
	return finalizeValue(res), nil
}

func (e *Executor) handleManualEval(ctx context.Context, args any, data map[string]any, fn func(args ...any) any) (any, error) {
	list, ok := args.([]any)
	if !ok {
		list = []any{args}
	}
	params := make([]any, 0, len(list))
	for _, item := range list {
		if m, isRule := item.(map[string]any); isRule {
			if _, isVar := m["var"]; !isVar {
				res, err := e.Execute(ctx, m, data)
				if err != nil {
					return nil, err
				}
				params = append(params, res)
				continue
			}
		}
		params = append(params, resolveVar(item, data))
	}
	return fn(params...), nil
}

func resolveVar(arg any, data map[string]any) any {
	m, ok := arg.(map[string]any)
	if !ok {
		return arg
	}
	path, ok := m["var"].(string)
	if !ok {
		return arg
	}
	var cur any = data
	for _, part := range strings.Split(path, ".") {
		node, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = node[part]
	}
	return finalizeValue(cur)
}

func finalizeValue(v any) any {
	if n, ok := v.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return v
}

// ToData converte qualquer estrutura serializável no mapa genérico que JsonLogic consome.
func ToData(key string, v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var inner any
	if err := json.Unmarshal(raw, &inner); err != nil {
		return nil, err
	}
	return map[string]any{key: inner}, nil
}
