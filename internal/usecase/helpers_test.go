package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/Victor-armando18/vatpricing/internal/domain"
	"github.com/Victor-armando18/vatpricing/internal/infrastructure/cache"
	"github.com/Victor-armando18/vatpricing/internal/interfaces"
)

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func fixtureCountries() []domain.Country {
	return []domain.Country{
		{Code: "GB", Name: "United Kingdom", StandardVatRate: 20, CurrencyCode: "GBP", IsActive: true},
		{Code: "DE", Name: "Germany", StandardVatRate: 19, CurrencyCode: "EUR", IsActive: true},
		{Code: "FR", Name: "France", StandardVatRate: 20, CurrencyCode: "EUR", IsActive: true},
		{Code: "IT", Name: "Italy", StandardVatRate: 22, CurrencyCode: "EUR", IsActive: true},
		{Code: "CH", Name: "Switzerland", StandardVatRate: 8.1, CurrencyCode: "CHF", IsActive: false},
	}
}

func fixtureRules() []domain.Rule {
	return []domain.Rule{
		{ID: "GB-RATE-OLD", CountryCode: "GB", Type: domain.VatRate, Name: "Old GB rate", Expression: "currentRate + 5",
			EffectiveFrom: date(2019, 1, 1), EffectiveTo: datePtr(2020, 12, 31), IsActive: true},
		{ID: "DE-THRESHOLD", CountryCode: "DE", Type: domain.Threshold, Name: "DE high volume", Expression: "transactionVolume > 10000 ? 120 : 0",
			EffectiveFrom: date(2020, 1, 1), IsActive: true},
		{ID: "DE-COMPLEXITY", CountryCode: "DE", Type: domain.Complexity, Name: "DE complex filing", Expression: "serviceTypeCode >= 2 ? 45 : 0",
			EffectiveFrom: date(2020, 1, 1), IsActive: true},
		{ID: "IT-RATE-02", CountryCode: "IT", Type: domain.VatRate, Name: "IT uplift", Expression: "currentRate * 1.05",
			EffectiveFrom: date(2020, 1, 1), Priority: 20, IsActive: true},
		{ID: "IT-RATE-01", CountryCode: "IT", Type: domain.VatRate, Name: "IT volume relief", Expression: "transactionVolume > 5000 ? currentRate - 2 : currentRate",
			EffectiveFrom: date(2020, 1, 1), Priority: 10, IsActive: true},
		{ID: "IT-SPECIAL", CountryCode: "IT", Type: domain.SpecialRequirement, Name: "IT e-invoicing", Expression: "baseCost * 0.1",
			EffectiveFrom: date(2020, 1, 1), IsActive: true},
		{ID: "FR-FUTURE", CountryCode: "FR", Type: domain.VatRate, Name: "FR future rate", Expression: "currentRate * 2",
			EffectiveFrom: date(2030, 1, 1), IsActive: true},
		{ID: "FR-DISABLED", CountryCode: "FR", Type: domain.Threshold, Name: "FR disabled", Expression: "999",
			EffectiveFrom: date(2020, 1, 1), IsActive: false},
	}
}

func fixtureData(extra ...domain.Rule) *domain.ReferenceData {
	return &domain.ReferenceData{
		Version:   "test-1",
		Countries: fixtureCountries(),
		Rules:     append(fixtureRules(), extra...),
		Catalog:   domain.DefaultServiceCatalog(),
		Schedule:  domain.DefaultPricingSchedule(),
	}
}

func fixtureSnapshot(extra ...domain.Rule) *cache.Snapshot {
	return cache.NewSnapshot(fixtureData(extra...), fixedNow)
}

func newTestEngine(ref interfaces.ReferenceProvider, opts ...Option) *EngineService {
	base := []Option{WithClock(func() time.Time { return fixedNow })}
	return NewEngineService(ref, append(base, opts...)...)
}

func request(volume int64, countries ...string) domain.CalculationRequest {
	return domain.CalculationRequest{
		ServiceType:       domain.StandardFiling,
		TransactionVolume: volume,
		FilingFrequency:   domain.Quarterly,
		CountryCodes:      countries,
	}
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
	rules    map[domain.RuleType]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{outcomes: map[string]int{}, rules: map[domain.RuleType]int{}}
}

func (r *countingRecorder) CalculationFinished(kind string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[kind]++
}

func (r *countingRecorder) RuleEvaluated(t domain.RuleType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules[t]++
}

func (r *countingRecorder) ReferenceRefreshed(bool) {}

// blockingProvider só responde quando o contexto termina.
type blockingProvider struct{}

func (blockingProvider) Snapshot(ctx context.Context) (interfaces.ReferenceSnapshot, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type panickingProvider struct{}

func (panickingProvider) Snapshot(context.Context) (interfaces.ReferenceSnapshot, error) {
	panic("reference store exploded")
}
