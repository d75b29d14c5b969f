package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Victor-armando18/vatpricing/internal/domain"
)

// CountryEvaluator calcula o custo de um país a partir das regras em vigor na data da calculação.
// É construído por calculação e não guarda estado mutável, por isso pode ser usado em paralelo.
type CountryEvaluator struct {
	selector *RuleSelector
	runner   ruleRunner
	schedule domain.PricingSchedule
	currency string
	asOf     time.Time
	logger   *zap.Logger
}

func (e *CountryEvaluator) EvaluateCountry(ctx context.Context, country domain.Country, req domain.CalculationRequest) (domain.CountryCostResult, error) {
	params, err := parameters(req, e.schedule)
	if err != nil {
		return domain.CountryCostResult{}, err
	}
	params["standardVatRate"] = country.StandardVatRate
	applied := []string{}

	// 1. Taxa efetiva: cada regra VatRate recebe a taxa produzida pela anterior.
	rate := country.StandardVatRate
	vatRules, err := e.selector.SelectApplicableRules(ctx, country.Code, ruleTypePtr(domain.VatRate), e.asOf)
	if err != nil {
		return domain.CountryCostResult{}, err
	}
	for _, r := range vatRules {
		if err := ctx.Err(); err != nil {
			return domain.CountryCostResult{}, err
		}
		params["currentRate"] = rate
		v, err := e.runner.run(r, params)
		if err != nil {
			return domain.CountryCostResult{}, err
		}
		if v < 0 {
			return domain.CountryCostResult{}, negativeOutput(r, v)
		}
		rate = v
		applied = append(applied, r.ID)
	}

	// 2. Custo base.
	units := float64(req.TransactionVolume) * params["serviceTypeMultiplier"] * params["filingFrequencyMultiplier"]
	baseCost := decimal.NewFromFloat(rate).
		Div(decimal.NewFromInt(100)).
		Mul(decimal.NewFromFloat(units)).
		Mul(e.schedule.UnitPrice)
	baseCost = domain.RoundMoney(baseCost, e.currency)

	params["currentRate"] = rate
	params["effectiveRate"] = rate
	params["billableUnits"] = units
	params["baseCost"] = baseCost.InexactFloat64()

	// 3. Custos adicionais, por tipo e depois por prioridade.
	additional := decimal.Zero
	for _, rt := range domain.AdditionalCostOrder {
		rules, err := e.selector.SelectApplicableRules(ctx, country.Code, ruleTypePtr(rt), e.asOf)
		if err != nil {
			return domain.CountryCostResult{}, err
		}
		for _, r := range rules {
			if err := ctx.Err(); err != nil {
				return domain.CountryCostResult{}, err
			}
			v, err := e.runner.run(r, params)
			if err != nil {
				return domain.CountryCostResult{}, err
			}
			if v < 0 {
				return domain.CountryCostResult{}, negativeOutput(r, v)
			}
			additional = additional.Add(domain.RoundMoney(decimal.NewFromFloat(v), e.currency))
			applied = append(applied, r.ID)
		}
	}

	if e.logger != nil {
		e.logger.Debug("country evaluated",
			zap.String("country", country.Code),
			zap.Float64("effectiveRate", rate),
			zap.String("baseCost", baseCost.String()),
			zap.String("additionalCost", additional.String()),
			zap.Strings("rules", applied),
		)
	}

	return domain.CountryCostResult{
		CountryCode:    country.Code,
		CountryName:    country.Name,
		EffectiveRate:  rate,
		BaseCost:       baseCost,
		AdditionalCost: additional,
		TotalCost:      baseCost.Add(additional),
		AppliedRuleIDs: applied,
	}, nil
}

func ruleTypePtr(t domain.RuleType) *domain.RuleType { return &t }

func negativeOutput(rule domain.Rule, v float64) *domain.CalculationError {
	return &domain.CalculationError{
		Kind:        domain.KindRuleEvaluationFailed,
		Message:     fmt.Sprintf("%s rule %q produced negative value %g", rule.Type, rule.Name, v),
		RuleID:      rule.ID,
		CountryCode: rule.CountryCode,
	}
}
