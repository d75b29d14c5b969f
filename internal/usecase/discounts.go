package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Victor-armando18/vatpricing/internal/domain"
)

const (
	VolumeDiscountName       = "Volume discount"
	MultiCountryDiscountName = "Multi-country discount"

	countryCountParam = "countryCount"
)

// DiscountEngine aplica os descontos em dois passos sequenciais: volume e depois multi-país.
// Regras Discount cuja expressão referencia countryCount contam como multi-país; as restantes como volume.
// Sem regras aplicáveis num passo, valem os escalões da tabela de preços.
type DiscountEngine struct {
	selector *RuleSelector
	runner   ruleRunner
	schedule domain.PricingSchedule
	currency string
	asOf     time.Time
}

// ApplyDiscounts devolve o subtotal descontado e as linhas de desconto com valor positivo.
func (d *DiscountEngine) ApplyDiscounts(ctx context.Context, costs []domain.CountryCostResult, req domain.CalculationRequest) (decimal.Decimal, []domain.DiscountLine, error) {
	subtotal := decimal.Zero
	for _, c := range costs {
		subtotal = subtotal.Add(c.TotalCost)
	}

	rules, err := d.selector.SelectDiscountRules(ctx, req.CountryCodes, d.asOf)
	if err != nil {
		return decimal.Zero, nil, err
	}
	var volumeRules, multiRules []domain.Rule
	for _, r := range rules {
		p, err := d.runner.program(r)
		if err != nil {
			return decimal.Zero, nil, err
		}
		if p.References(countryCountParam) {
			multiRules = append(multiRules, r)
		} else {
			volumeRules = append(volumeRules, r)
		}
	}

	params, err := parameters(req, d.schedule)
	if err != nil {
		return decimal.Zero, nil, err
	}

	lines := []domain.DiscountLine{}

	volume, volumeIDs, err := d.step(ctx, volumeRules, params, subtotal, d.schedule.VolumeDiscountTiers, float64(req.TransactionVolume))
	if err != nil {
		return decimal.Zero, nil, err
	}
	if volume.IsPositive() {
		lines = append(lines, domain.DiscountLine{Name: VolumeDiscountName, Amount: volume, AppliedRuleIDs: volumeIDs})
	}
	intermediate := subtotal.Sub(volume)

	if len(req.CountryCodes) > 1 {
		multi, multiIDs, err := d.step(ctx, multiRules, params, intermediate, d.schedule.MultiCountryDiscountTiers, float64(len(req.CountryCodes)))
		if err != nil {
			return decimal.Zero, nil, err
		}
		if multi.IsPositive() {
			lines = append(lines, domain.DiscountLine{Name: MultiCountryDiscountName, Amount: multi, AppliedRuleIDs: multiIDs})
		}
		intermediate = intermediate.Sub(multi)
	}

	return intermediate, lines, nil
}

// step calcula um passo de desconto sobre base, limitado a [0, base].
func (d *DiscountEngine) step(ctx context.Context, rules []domain.Rule, params map[string]float64, base decimal.Decimal, tiers []domain.Tier, observed float64) (decimal.Decimal, []string, error) {
	amount := decimal.Zero
	var ids []string
	if len(rules) == 0 {
		pct := domain.TierPercent(tiers, observed)
		amount = base.Mul(decimal.NewFromFloat(pct)).Div(decimal.NewFromInt(100))
	} else {
		p := cloneParams(params)
		p["subtotal"] = base.InexactFloat64()
		for _, r := range rules {
			if err := ctx.Err(); err != nil {
				return decimal.Zero, nil, err
			}
			v, err := d.runner.run(r, p)
			if err != nil {
				return decimal.Zero, nil, err
			}
			amount = amount.Add(decimal.NewFromFloat(v))
			ids = append(ids, r.ID)
		}
	}
	return domain.RoundMoney(domain.ClampAmount(amount, base), d.currency), ids, nil
}
