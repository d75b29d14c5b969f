package usecase

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Victor-armando18/vatpricing/internal/domain"
)

// Assembler monta o resultado final: custos por país, descontos e serviços adicionais.
type Assembler struct {
	catalog  domain.ServiceCatalog
	currency string
	now      func() time.Time
	newID    func(computedAt time.Time) string
}

// ResolveServices converte as chaves pedidas em linhas de custo, ordenadas por chave.
func (a *Assembler) ResolveServices(keys []string) ([]domain.ServiceCostLine, error) {
	lines := make([]domain.ServiceCostLine, 0, len(keys))
	var unknown []string
	for _, k := range keys {
		offering, ok := a.catalog[k]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		lines = append(lines, domain.ServiceCostLine{
			Key:  k,
			Name: offering.Name,
			Cost: domain.RoundMoney(offering.Cost, a.currency),
		})
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, domain.NewError(domain.KindInvalidAdditionalService, "unknown additional services: %s", strings.Join(unknown, ", "))
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Key < lines[j].Key })
	return lines, nil
}

// Assemble garante totalCost = Σ países + Σ serviços − Σ descontos, com piso em zero.
func (a *Assembler) Assemble(costs []domain.CountryCostResult, discounts []domain.DiscountLine, services []string) (*domain.CalculationResult, error) {
	lines, err := a.ResolveServices(services)
	if err != nil {
		return nil, err
	}
	if discounts == nil {
		discounts = []domain.DiscountLine{}
	}
	if costs == nil {
		costs = []domain.CountryCostResult{}
	}

	res := &domain.CalculationResult{
		CurrencyCode:           a.currency,
		CountryCosts:           costs,
		Discounts:              discounts,
		AdditionalServiceCosts: lines,
		ComputedAt:             a.now().UTC(),
	}
	total := res.Subtotal().Add(res.ServicesTotal()).Sub(res.DiscountTotal())
	if total.IsNegative() {
		total = decimal.Zero
	}
	res.TotalCost = domain.RoundMoney(total, a.currency)
	res.CalculationID = a.newID(res.ComputedAt)
	return res, nil
}
