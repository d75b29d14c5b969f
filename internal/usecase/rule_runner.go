package usecase

import (
	"fmt"

	"github.com/Victor-armando18/vatpricing/internal/domain"
	"github.com/Victor-armando18/vatpricing/internal/infrastructure/expression"
	"github.com/Victor-armando18/vatpricing/internal/interfaces"
)

// ruleRunner avalia uma regra contra um conjunto de parâmetros, reaproveitando ASTs pré-compiladas.
type ruleRunner struct {
	programs interfaces.ProgramSource
	recorder interfaces.Recorder
}

func newRuleRunner(programs interfaces.ProgramSource, recorder interfaces.Recorder) ruleRunner {
	return ruleRunner{programs: programs, recorder: recorder}
}

func (r ruleRunner) program(rule domain.Rule) (*expression.Program, error) {
	var (
		p   *expression.Program
		err error
	)
	if r.programs != nil {
		p, err = r.programs.Program(rule)
	} else {
		p, err = expression.Compile(rule.Expression)
	}
	if err != nil {
		return nil, ruleFailure(rule, err)
	}
	return p, nil
}

func (r ruleRunner) run(rule domain.Rule, params map[string]float64) (float64, error) {
	p, err := r.program(rule)
	if err != nil {
		return 0, err
	}
	if r.recorder != nil {
		r.recorder.RuleEvaluated(rule.Type)
	}
	v, err := p.Eval(params)
	if err != nil {
		return 0, ruleFailure(rule, err)
	}
	return v, nil
}

func ruleFailure(rule domain.Rule, err error) *domain.CalculationError {
	return &domain.CalculationError{
		Kind:        domain.KindRuleEvaluationFailed,
		Message:     fmt.Sprintf("%s rule %q could not be evaluated", rule.Type, rule.Name),
		RuleID:      rule.ID,
		CountryCode: rule.CountryCode,
		Err:         err,
	}
}

// parameters são os valores comuns a todas as expressões de uma calculação.
func parameters(req domain.CalculationRequest, schedule domain.PricingSchedule) (map[string]float64, error) {
	stm, ok := schedule.ServiceTypeMultipliers[req.ServiceType]
	if !ok {
		return nil, domain.NewError(domain.KindInternal, "pricing schedule has no multiplier for service type %s", req.ServiceType)
	}
	ffm, ok := schedule.FilingFrequencyMultipliers[req.FilingFrequency]
	if !ok {
		return nil, domain.NewError(domain.KindInternal, "pricing schedule has no multiplier for filing frequency %s", req.FilingFrequency)
	}
	return map[string]float64{
		"transactionVolume":         float64(req.TransactionVolume),
		"filingFrequencyCode":       req.FilingFrequency.Code(),
		"serviceTypeCode":           req.ServiceType.Code(),
		"filingsPerYear":            req.FilingFrequency.FilingsPerYear(),
		"countryCount":              float64(len(req.CountryCodes)),
		"serviceTypeMultiplier":     stm,
		"filingFrequencyMultiplier": ffm,
	}, nil
}

func cloneParams(src map[string]float64) map[string]float64 {
	dst := make(map[string]float64, len(src)+4)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
