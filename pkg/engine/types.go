package engine

import (
	"github.com/Victor-armando18/vatpricing/internal/config"
	"github.com/Victor-armando18/vatpricing/internal/domain"
	"github.com/Victor-armando18/vatpricing/internal/interfaces"
	"github.com/Victor-armando18/vatpricing/internal/usecase/compare"
)

type (
	Config = config.Config

	CalculationRequest = domain.CalculationRequest
	CalculationResult  = domain.CalculationResult
	CountryCostResult  = domain.CountryCostResult
	DiscountLine       = domain.DiscountLine
	ServiceCostLine    = domain.ServiceCostLine
	ServiceOffering    = domain.ServiceOffering
	Country            = domain.Country
	ServiceType        = domain.ServiceType
	FilingFrequency    = domain.FilingFrequency
	CalculationError   = domain.CalculationError
	ErrorKind          = domain.ErrorKind
	ReferenceData      = domain.ReferenceData

	ReferenceLoader = interfaces.ReferenceLoader

	Scenario       = compare.Scenario
	ScenarioResult = compare.ScenarioResult
	Comparison     = compare.Comparison
)

const (
	StandardFiling  = domain.StandardFiling
	ComplexFiling   = domain.ComplexFiling
	PriorityService = domain.PriorityService

	Monthly   = domain.Monthly
	Quarterly = domain.Quarterly
	Annually  = domain.Annually

	KindValidation               = domain.KindValidation
	KindCountryNotSupported      = domain.KindCountryNotSupported
	KindRuleEvaluationFailed     = domain.KindRuleEvaluationFailed
	KindInvalidAdditionalService = domain.KindInvalidAdditionalService
	KindTimeout                  = domain.KindTimeout
	KindInternal                 = domain.KindInternal
)

var (
	ErrValidation               = domain.ErrValidation
	ErrCountryNotSupported      = domain.ErrCountryNotSupported
	ErrRuleEvaluationFailed     = domain.ErrRuleEvaluationFailed
	ErrInvalidAdditionalService = domain.ErrInvalidAdditionalService
	ErrTimeout                  = domain.ErrTimeout
	ErrInternal                 = domain.ErrInternal

	KindOf     = domain.KindOf
	LoadConfig = config.Load
)
