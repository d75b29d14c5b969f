package compare

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Victor-armando18/vatpricing/internal/domain"
	"github.com/Victor-armando18/vatpricing/internal/infrastructure"
	"github.com/Victor-armando18/vatpricing/internal/interfaces"
)

const (
	BaselineName = "baseline"
	MaxScenarios = 20
)

// Scenario descreve uma variação do pedido base como JSON Patch (RFC 6902).
type Scenario struct {
	Name  string          `json:"name"`
	Patch json.RawMessage `json:"patch"`
}

type ScenarioResult struct {
	Name       string                    `json:"name"`
	Request    domain.CalculationRequest `json:"request"`
	Result     *domain.CalculationResult `json:"result"`
	Difference decimal.Decimal           `json:"difference"`
	Delta      json.RawMessage           `json:"delta"`
}

type Comparison struct {
	Baseline  *domain.CalculationResult `json:"baseline"`
	Scenarios []ScenarioResult          `json:"scenarios"`
	Cheapest  string                    `json:"cheapest"`
}

type Differ interface {
	Diff(before, after any) (json.RawMessage, error)
}

type UseCase struct {
	Engine interfaces.EngineFacade
	Differ Differ
}

// pricedView é a parte do resultado que interessa comparar; ids e instantes mudam sempre.
type pricedView struct {
	TotalCost              decimal.Decimal            `json:"totalCost"`
	CountryCosts           []domain.CountryCostResult `json:"countryCosts"`
	Discounts              []domain.DiscountLine      `json:"discounts"`
	AdditionalServiceCosts []domain.ServiceCostLine   `json:"additionalServiceCosts"`
}

func view(r *domain.CalculationResult) pricedView {
	return pricedView{
		TotalCost:              r.TotalCost,
		CountryCosts:           r.CountryCosts,
		Discounts:              r.Discounts,
		AdditionalServiceCosts: r.AdditionalServiceCosts,
	}
}

// Compare calcula o pedido base e cada cenário; qualquer falha aborta a comparação.
func (u *UseCase) Compare(ctx context.Context, base domain.CalculationRequest, scenarios []Scenario) (*Comparison, error) {
	if len(scenarios) == 0 {
		return nil, domain.NewError(domain.KindValidation, "at least one scenario is required")
	}
	if len(scenarios) > MaxScenarios {
		return nil, domain.NewError(domain.KindValidation, "at most %d scenarios can be compared", MaxScenarios)
	}
	seen := map[string]bool{BaselineName: true}
	for _, s := range scenarios {
		if s.Name == "" || seen[s.Name] {
			return nil, domain.NewError(domain.KindValidation, "scenario names must be unique and non-empty (got %q)", s.Name)
		}
		seen[s.Name] = true
	}

	baseline, err := u.Engine.Calculate(ctx, base)
	if err != nil {
		return nil, err
	}

	out := &Comparison{Baseline: baseline, Cheapest: BaselineName}
	cheapest := baseline.TotalCost
	for _, s := range scenarios {
		req, err := infrastructure.ApplyRequestPatch(base, s.Patch)
		if err != nil {
			return nil, domain.WrapError(domain.KindValidation, err, "scenario %q has an invalid patch", s.Name)
		}
		res, err := u.Engine.Calculate(ctx, req)
		if err != nil {
			return nil, &domain.CalculationError{
				Kind:    domain.KindOf(err),
				Message: fmt.Sprintf("scenario %q failed", s.Name),
				Err:     err,
			}
		}
		delta, err := u.Differ.Diff(view(baseline), view(res))
		if err != nil {
			return nil, domain.WrapError(domain.KindInternal, err, "scenario %q could not be compared", s.Name)
		}
		out.Scenarios = append(out.Scenarios, ScenarioResult{
			Name:       s.Name,
			Request:    req,
			Result:     res,
			Difference: res.TotalCost.Sub(baseline.TotalCost),
			Delta:      delta,
		})
		if res.TotalCost.LessThan(cheapest) {
			cheapest = res.TotalCost
			out.Cheapest = s.Name
		}
	}
	return out, nil
}
