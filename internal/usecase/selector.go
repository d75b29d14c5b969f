package usecase

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Victor-armando18/vatpricing/internal/domain"
	"github.com/Victor-armando18/vatpricing/internal/interfaces"
)

// RuleSelector devolve as regras em vigor numa data, ordenadas por prioridade crescente e ruleId.
type RuleSelector struct {
	rules interfaces.RuleSource
}

func NewRuleSelector(rules interfaces.RuleSource) *RuleSelector {
	return &RuleSelector{rules: rules}
}

// SelectApplicableRules filtra por país e, quando ruleType não é nil, por tipo.
// Nenhuma regra aplicável resulta numa lista vazia, não num erro.
func (s *RuleSelector) SelectApplicableRules(ctx context.Context, countryCode string, ruleType *domain.RuleType, asOf time.Time) ([]domain.Rule, error) {
	candidates, err := s.rules.GetRulesByCountry(ctx, countryCode)
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, err, "failed to fetch rules for %s", countryCode)
	}
	out := candidates[:0:0]
	for _, r := range candidates {
		if ruleType != nil && r.Type != *ruleType {
			continue
		}
		if r.ApplicableAt(asOf) {
			out = append(out, r)
		}
	}
	sortRules(out)
	return out, nil
}

// SelectDiscountRules devolve as regras Discount dos países pedidos e do âmbito global.
func (s *RuleSelector) SelectDiscountRules(ctx context.Context, countryCodes []string, asOf time.Time) ([]domain.Rule, error) {
	candidates, err := s.rules.GetRulesByType(ctx, domain.Discount)
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, err, "failed to fetch discount rules")
	}
	scope := map[string]bool{domain.GlobalScope: true}
	for _, c := range countryCodes {
		scope[strings.ToUpper(c)] = true
	}
	var out []domain.Rule
	for _, r := range candidates {
		if scope[strings.ToUpper(r.CountryCode)] && r.ApplicableAt(asOf) {
			out = append(out, r)
		}
	}
	sortRules(out)
	return out, nil
}

func sortRules(rules []domain.Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Priority != rules[j].Priority {
			return rules[i].Priority < rules[j].Priority
		}
		return rules[i].ID < rules[j].ID
	})
}
