package domain

import (
	"fmt"
	"time"
)

// RuleType é a união fechada de categorias de regra.
type RuleType string

const (
	VatRate            RuleType = "VatRate"
	Threshold          RuleType = "Threshold"
	Complexity         RuleType = "Complexity"
	SpecialRequirement RuleType = "SpecialRequirement"
	Discount           RuleType = "Discount"
)

// AdditionalCostOrder é a ordem fixa das categorias que somam ao custo adicional.
var AdditionalCostOrder = []RuleType{Threshold, Complexity, SpecialRequirement}

// GlobalScope marca regras que valem para todos os países (usado pelos descontos).
const GlobalScope = "*"

func ParseRuleType(s string) (RuleType, error) {
	switch t := RuleType(s); t {
	case VatRate, Threshold, Complexity, SpecialRequirement, Discount:
		return t, nil
	}
	return "", fmt.Errorf("unknown rule type %q", s)
}

type Rule struct {
	ID            string     `json:"ruleId" yaml:"ruleId"`
	CountryCode   string     `json:"countryCode" yaml:"countryCode"`
	Type          RuleType   `json:"ruleType" yaml:"ruleType"`
	Name          string     `json:"name" yaml:"name"`
	Expression    string     `json:"expression" yaml:"expression"`
	EffectiveFrom time.Time  `json:"effectiveFrom" yaml:"effectiveFrom"`
	EffectiveTo   *time.Time `json:"effectiveTo,omitempty" yaml:"effectiveTo"`
	Priority      int        `json:"priority" yaml:"priority"`
	IsActive      bool       `json:"isActive" yaml:"isActive"`
}

// ApplicableAt reports whether the rule is active and its effective window contains the UTC day of d.
// Both bounds are inclusive whole days.
func (r Rule) ApplicableAt(d time.Time) bool {
	if !r.IsActive {
		return false
	}
	day := Day(d)
	if Day(r.EffectiveFrom).After(day) {
		return false
	}
	return r.EffectiveTo == nil || !Day(*r.EffectiveTo).Before(day)
}

// Day trunca t ao início do dia UTC.
func Day(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
