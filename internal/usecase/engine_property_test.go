package usecase

import (
	"context"
	"reflect"
	"sort"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/Victor-armando18/vatpricing/internal/domain"
)

var (
	propCountries    = []string{"DE", "FR", "GB", "IT"}
	propServiceTypes = []domain.ServiceType{domain.StandardFiling, domain.ComplexFiling, domain.PriorityService}
	propFrequencies  = []domain.FilingFrequency{domain.Monthly, domain.Quarterly, domain.Annually}
)

func propServices() []string {
	keys := make([]string, 0)
	for k := range domain.DefaultServiceCatalog() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func genRequest() gopter.Gen {
	services := propServices()
	return gopter.CombineGens(
		gen.Int64Range(0, 200000),
		gen.IntRange(0, len(propServiceTypes)-1),
		gen.IntRange(0, len(propFrequencies)-1),
		gen.IntRange(1, 1<<len(propCountries)-1),
		gen.IntRange(0, 1<<len(services)-1),
	).Map(func(v []interface{}) domain.CalculationRequest {
		req := domain.CalculationRequest{
			TransactionVolume: v[0].(int64),
			ServiceType:       propServiceTypes[v[1].(int)],
			FilingFrequency:   propFrequencies[v[2].(int)],
		}
		for i, c := range propCountries {
			if v[3].(int)&(1<<i) != 0 {
				req.CountryCodes = append(req.CountryCodes, c)
			}
		}
		for i, s := range services {
			if v[4].(int)&(1<<i) != 0 {
				req.AdditionalServices = append(req.AdditionalServices, s)
			}
		}
		return req
	})
}

func TestCalculate_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	engine := newTestEngine(fixtureSnapshot())
	ctx := context.Background()

	properties.Property("total equals countries plus services minus discounts, floored at zero", prop.ForAll(
		func(req domain.CalculationRequest) bool {
			res, err := engine.Calculate(ctx, req)
			if err != nil {
				return false
			}
			want := res.Subtotal().Add(res.ServicesTotal()).Sub(res.DiscountTotal())
			if want.IsNegative() {
				want = decimal.Zero
			}
			return res.TotalCost.Equal(want.Round(2)) && !res.TotalCost.IsNegative()
		},
		genRequest(),
	))

	properties.Property("discount lines are positive and never exceed the subtotal", prop.ForAll(
		func(req domain.CalculationRequest) bool {
			res, err := engine.Calculate(ctx, req)
			if err != nil {
				return false
			}
			for _, d := range res.Discounts {
				if !d.Amount.IsPositive() {
					return false
				}
			}
			return res.DiscountTotal().LessThanOrEqual(res.Subtotal())
		},
		genRequest(),
	))

	properties.Property("single country never gets a multi-country discount", prop.ForAll(
		func(req domain.CalculationRequest) bool {
			req.CountryCodes = req.CountryCodes[:1]
			res, err := engine.Calculate(ctx, req)
			if err != nil {
				return false
			}
			for _, d := range res.Discounts {
				if d.Name == MultiCountryDiscountName {
					return false
				}
			}
			return true
		},
		genRequest(),
	))

	properties.Property("repeated calculation is identical", prop.ForAll(
		func(req domain.CalculationRequest) bool {
			a, errA := engine.Calculate(ctx, req)
			b, errB := engine.Calculate(ctx, req)
			return errA == nil && errB == nil && reflect.DeepEqual(a, b)
		},
		genRequest(),
	))

	properties.Property("country order does not change the result", prop.ForAll(
		func(req domain.CalculationRequest) bool {
			reversed := req
			reversed.CountryCodes = make([]string, len(req.CountryCodes))
			for i, c := range req.CountryCodes {
				reversed.CountryCodes[len(req.CountryCodes)-1-i] = c
			}
			a, errA := engine.Calculate(ctx, req)
			b, errB := engine.Calculate(ctx, reversed)
			return errA == nil && errB == nil && reflect.DeepEqual(a, b)
		},
		genRequest(),
	))

	properties.Property("an unknown country always fails the whole calculation", prop.ForAll(
		func(req domain.CalculationRequest) bool {
			req.CountryCodes = append(req.CountryCodes, "ZZ")
			res, err := engine.Calculate(ctx, req)
			return res == nil && domain.KindOf(err) == domain.KindCountryNotSupported
		},
		genRequest(),
	))

	properties.TestingRun(t)
}
