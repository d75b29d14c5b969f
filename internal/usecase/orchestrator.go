package usecase

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Victor-armando18/vatpricing/internal/domain"
	"github.com/Victor-armando18/vatpricing/internal/interfaces"
)

type countryEvaluator interface {
	EvaluateCountry(ctx context.Context, country domain.Country, req domain.CalculationRequest) (domain.CountryCostResult, error)
}

// Orchestrator valida os países pedidos e avalia cada um em paralelo.
type Orchestrator struct {
	countries   interfaces.CountrySource
	evaluator   countryEvaluator
	parallelism int
	tracer      trace.Tracer
}

func NewOrchestrator(countries interfaces.CountrySource, evaluator countryEvaluator, parallelism int) *Orchestrator {
	return &Orchestrator{countries: countries, evaluator: evaluator, parallelism: parallelism}
}

// ValidateCountries falha com CountryNotSupported se algum código não existir ou estiver inativo.
// Todos os códigos inválidos são reportados de uma vez.
func (o *Orchestrator) ValidateCountries(ctx context.Context, codes []string) ([]domain.Country, error) {
	var unsupported []string
	for _, code := range codes {
		ok, err := o.countries.ExistsAndActive(ctx, code)
		if err != nil {
			return nil, domain.WrapError(domain.KindInternal, err, "failed to look up country %s", code)
		}
		if !ok {
			unsupported = append(unsupported, code)
		}
	}
	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		e := domain.NewError(domain.KindCountryNotSupported, "unsupported or inactive countries: %s", strings.Join(unsupported, ", "))
		if len(unsupported) == 1 {
			e.CountryCode = unsupported[0]
		}
		return nil, e
	}

	countries, err := o.countries.GetCountriesByCodes(ctx, codes)
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, err, "failed to fetch countries")
	}
	if len(countries) != len(codes) {
		return nil, domain.NewError(domain.KindInternal, "expected %d countries, reference data returned %d", len(codes), len(countries))
	}
	return countries, nil
}

// CheckFilingFrequency rejeita países que não oferecem a frequência pedida.
// Um país sem availableFilingFrequencies aceita todas.
func CheckFilingFrequency(countries []domain.Country, freq domain.FilingFrequency) error {
	var refused []string
	for _, c := range countries {
		if len(c.AvailableFilingFrequencies) > 0 && !slices.Contains(c.AvailableFilingFrequencies, freq) {
			refused = append(refused, c.Code)
		}
	}
	if len(refused) == 0 {
		return nil
	}
	sort.Strings(refused)
	e := domain.NewError(domain.KindValidation, "filing frequency %s is not available in: %s", freq, strings.Join(refused, ", "))
	if len(refused) == 1 {
		e.CountryCode = refused[0]
	}
	return e
}

// EvaluateAll avalia os países em paralelo; o primeiro erro cancela os restantes.
// O resultado vem ordenado por código de país, independentemente da ordem de conclusão.
func (o *Orchestrator) EvaluateAll(ctx context.Context, countries []domain.Country, req domain.CalculationRequest) ([]domain.CountryCostResult, error) {
	if o.tracer != nil {
		var span trace.Span
		ctx, span = o.tracer.Start(ctx, "pricing.EvaluateAll", trace.WithAttributes(attribute.Int("countries", len(countries))))
		defer span.End()
	}
	g, gctx := errgroup.WithContext(ctx)
	if o.parallelism > 0 {
		g.SetLimit(o.parallelism)
	}
	results := make([]domain.CountryCostResult, len(countries))
	for i, c := range countries {
		i, c := i, c
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &domain.CalculationError{
						Kind:        domain.KindInternal,
						Message:     fmt.Sprintf("panic while evaluating country: %v", r),
						CountryCode: c.Code,
					}
				}
			}()
			cctx := gctx
			if o.tracer != nil {
				var span trace.Span
				cctx, span = o.tracer.Start(gctx, "pricing.EvaluateCountry", trace.WithAttributes(attribute.String("country", c.Code)))
				defer span.End()
			}
			r, err := o.evaluator.EvaluateCountry(cctx, c, req)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].CountryCode < results[j].CountryCode })
	return results, nil
}
