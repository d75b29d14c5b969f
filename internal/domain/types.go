package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// --- Estruturas de Entrada/Saída ---

type ServiceType string

const (
	StandardFiling  ServiceType = "StandardFiling"
	ComplexFiling   ServiceType = "ComplexFiling"
	PriorityService ServiceType = "PriorityService"
)

// Code é o valor numérico exposto às expressões como serviceTypeCode.
func (s ServiceType) Code() float64 {
	switch s {
	case StandardFiling:
		return 1
	case ComplexFiling:
		return 2
	case PriorityService:
		return 3
	}
	return 0
}

type FilingFrequency string

const (
	Monthly   FilingFrequency = "Monthly"
	Quarterly FilingFrequency = "Quarterly"
	Annually  FilingFrequency = "Annually"
)

// Code é o valor numérico exposto às expressões como filingFrequencyCode.
func (f FilingFrequency) Code() float64 {
	switch f {
	case Monthly:
		return 1
	case Quarterly:
		return 2
	case Annually:
		return 3
	}
	return 0
}

func (f FilingFrequency) FilingsPerYear() float64 {
	switch f {
	case Monthly:
		return 12
	case Quarterly:
		return 4
	case Annually:
		return 1
	}
	return 0
}

// CalculationRequest representa o pedido de estimativa recebido da camada de serviço.
type CalculationRequest struct {
	ServiceType        ServiceType     `json:"serviceType" yaml:"serviceType" validate:"required,oneof=StandardFiling ComplexFiling PriorityService"`
	TransactionVolume  int64           `json:"transactionVolume" yaml:"transactionVolume" validate:"gte=0"`
	FilingFrequency    FilingFrequency `json:"filingFrequency" yaml:"filingFrequency" validate:"required,oneof=Monthly Quarterly Annually"`
	CountryCodes       []string        `json:"countryCodes" yaml:"countryCodes" validate:"required,min=1,dive,len=2,alpha"`
	AdditionalServices []string        `json:"additionalServices,omitempty" yaml:"additionalServices" validate:"dive,required"`
	AsOf               *time.Time      `json:"asOf,omitempty" yaml:"asOf"`
}

// Country é dado de referência, apenas leitura para o motor.
type Country struct {
	Code                       string            `json:"code" yaml:"code"`
	Name                       string            `json:"name" yaml:"name"`
	StandardVatRate            float64           `json:"standardVatRate" yaml:"standardVatRate"`
	CurrencyCode               string            `json:"currencyCode" yaml:"currencyCode"`
	AvailableFilingFrequencies []FilingFrequency `json:"availableFilingFrequencies" yaml:"availableFilingFrequencies"`
	IsActive                   bool              `json:"isActive" yaml:"isActive"`
}

type CountryCostResult struct {
	CountryCode    string          `json:"countryCode"`
	CountryName    string          `json:"countryName"`
	EffectiveRate  float64         `json:"effectiveRate"`
	BaseCost       decimal.Decimal `json:"baseCost"`
	AdditionalCost decimal.Decimal `json:"additionalCost"`
	TotalCost      decimal.Decimal `json:"totalCost"`
	AppliedRuleIDs []string        `json:"appliedRuleIds"`
}

type DiscountLine struct {
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	AppliedRuleIDs []string        `json:"appliedRuleIds,omitempty"`
}

type ServiceCostLine struct {
	Key  string          `json:"key"`
	Name string          `json:"name"`
	Cost decimal.Decimal `json:"cost"`
}

type CalculationResult struct {
	CalculationID          string              `json:"calculationId"`
	TotalCost              decimal.Decimal     `json:"totalCost"`
	CurrencyCode           string              `json:"currencyCode"`
	CountryCosts           []CountryCostResult `json:"countryCosts"`
	Discounts              []DiscountLine      `json:"discounts"`
	AdditionalServiceCosts []ServiceCostLine   `json:"additionalServiceCosts"`
	RulesVersion           string              `json:"rulesVersion,omitempty"`
	ComputedAt             time.Time           `json:"computedAt"`
}

// Subtotal é a soma dos custos por país antes de descontos.
func (r CalculationResult) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, c := range r.CountryCosts {
		sum = sum.Add(c.TotalCost)
	}
	return sum
}

func (r CalculationResult) DiscountTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, d := range r.Discounts {
		sum = sum.Add(d.Amount)
	}
	return sum
}

func (r CalculationResult) ServicesTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, s := range r.AdditionalServiceCosts {
		sum = sum.Add(s.Cost)
	}
	return sum
}

// ServiceOffering é uma entrada do catálogo fixo de serviços adicionais.
type ServiceOffering struct {
	Key  string          `json:"key" yaml:"key"`
	Name string          `json:"name" yaml:"name"`
	Cost decimal.Decimal `json:"cost" yaml:"cost"`
}

type ServiceCatalog map[string]ServiceOffering

// Tier aplica Percent (0-100) quando o valor observado é >= Min.
type Tier struct {
	Min     float64 `json:"min" yaml:"min"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// PricingSchedule define como a taxa efetiva se converte em custo base e os descontos por omissão.
type PricingSchedule struct {
	UnitPrice                  decimal.Decimal             `json:"unitPrice" yaml:"unitPrice"`
	ServiceTypeMultipliers     map[ServiceType]float64     `json:"serviceTypeMultipliers" yaml:"serviceTypeMultipliers"`
	FilingFrequencyMultipliers map[FilingFrequency]float64 `json:"filingFrequencyMultipliers" yaml:"filingFrequencyMultipliers"`
	VolumeDiscountTiers        []Tier                      `json:"volumeDiscountTiers" yaml:"volumeDiscountTiers"`
	MultiCountryDiscountTiers  []Tier                      `json:"multiCountryDiscountTiers" yaml:"multiCountryDiscountTiers"`
}

func DefaultPricingSchedule() PricingSchedule {
	return PricingSchedule{
		UnitPrice: decimal.NewFromInt(1),
		ServiceTypeMultipliers: map[ServiceType]float64{
			StandardFiling:  1.0,
			ComplexFiling:   1.5,
			PriorityService: 2.0,
		},
		FilingFrequencyMultipliers: map[FilingFrequency]float64{
			Monthly:   1.5,
			Quarterly: 1.0,
			Annually:  0.8,
		},
		VolumeDiscountTiers: []Tier{
			{Min: 1000, Percent: 5},
			{Min: 5000, Percent: 10},
			{Min: 10000, Percent: 15},
		},
		MultiCountryDiscountTiers: []Tier{
			{Min: 2, Percent: 5},
			{Min: 4, Percent: 10},
			{Min: 8, Percent: 15},
		},
	}
}

// TierPercent devolve a percentagem do maior escalão atingido, ou 0.
func TierPercent(tiers []Tier, value float64) float64 {
	best := 0.0
	bestMin := -1.0
	for _, t := range tiers {
		if value >= t.Min && t.Min > bestMin {
			best, bestMin = t.Percent, t.Min
		}
	}
	return best
}

// Guard é uma restrição JsonLogic sobre o pedido; resultado verdadeiro significa violação.
type Guard struct {
	ID      string         `json:"id" yaml:"id"`
	Logic   map[string]any `json:"logic" yaml:"logic"`
	Message string         `json:"message" yaml:"message"`
}

type GuardViolation struct {
	GuardID string `json:"guardId"`
	Message string `json:"message"`
}

// ReferenceData é o pacote completo de dados de referência, tal como carregado do disco.
type ReferenceData struct {
	Version   string
	Countries []Country
	Rules     []Rule
	Catalog   ServiceCatalog
	Schedule  PricingSchedule
	Guards    []Guard
}

func DefaultServiceCatalog() ServiceCatalog {
	return ServiceCatalog{
		"vat_registration":      {Key: "vat_registration", Name: "VAT Registration", Cost: decimal.NewFromInt(150)},
		"fiscal_representation": {Key: "fiscal_representation", Name: "Fiscal Representation", Cost: decimal.NewFromInt(300)},
		"ec_sales_list":         {Key: "ec_sales_list", Name: "EC Sales List", Cost: decimal.NewFromInt(75)},
		"intrastat_reporting":   {Key: "intrastat_reporting", Name: "Intrastat Reporting", Cost: decimal.NewFromInt(100)},
		"audit_support":         {Key: "audit_support", Name: "Audit Support", Cost: decimal.NewFromInt(250)},
	}
}
