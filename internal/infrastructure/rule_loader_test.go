package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Victor-armando18/vatpricing/internal/domain"
)

func referenceDir() string {
	return filepath.Join("..", "..", "data", "reference")
}

func TestFileReferenceLoader_SamplePack(t *testing.T) {
	data, err := NewFileReferenceLoader(referenceDir()).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "2026.10-1", data.Version)
	assert.Len(t, data.Countries, 10)
	assert.NotEmpty(t, data.Rules)
	assert.Contains(t, data.Catalog, "vat_registration")
	assert.Len(t, data.Guards, 2)
	assert.Equal(t, 1.5, data.Schedule.ServiceTypeMultipliers[domain.ComplexFiling])

	var expired *domain.Rule
	for i := range data.Rules {
		if data.Rules[i].ID == "GB-RATE-2020" {
			expired = &data.Rules[i]
		}
	}
	require.NotNil(t, expired)
	require.NotNil(t, expired.EffectiveTo)
	assert.Equal(t, domain.VatRate, expired.Type)
}

func writePack(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	return dir
}

const minimalCountries = `[{"code": "GB", "name": "United Kingdom", "standardVatRate": 20, "currencyCode": "GBP", "isActive": true}]`

func TestFileReferenceLoader_JSONAndDefaults(t *testing.T) {
	dir := writePack(t, map[string]string{
		"countries.json": minimalCountries,
		"rules.json":     `[]`,
		"schedule.yaml":  "unitPrice: 2.5\nvolumeDiscountTiers: []\n",
	})

	data, err := NewFileReferenceLoader(dir).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", data.Version)
	assert.Equal(t, domain.DefaultServiceCatalog(), data.Catalog)
	assert.Equal(t, "2.5", data.Schedule.UnitPrice.String())
	assert.Empty(t, data.Schedule.VolumeDiscountTiers)
	assert.Len(t, data.Schedule.MultiCountryDiscountTiers, 3)
	assert.Equal(t, 0.8, data.Schedule.FilingFrequencyMultipliers[domain.Annually])
}

func TestFileReferenceLoader_ServiceKeysAreLowercased(t *testing.T) {
	dir := writePack(t, map[string]string{
		"countries.json": minimalCountries,
		"rules.json":     `[]`,
		"services.yaml":  "- {key: \" VAT_Registration\", name: VAT Registration, cost: 150}\n",
	})

	data, err := NewFileReferenceLoader(dir).Load(context.Background())
	require.NoError(t, err)
	require.Contains(t, data.Catalog, "vat_registration")
	assert.Equal(t, "vat_registration", data.Catalog["vat_registration"].Key)
	assert.Equal(t, "150", data.Catalog["vat_registration"].Cost.String())
}

func TestCheckReferenceData_ServiceKeys(t *testing.T) {
	data := &domain.ReferenceData{Catalog: domain.ServiceCatalog{
		"Audit": {Key: "Audit", Name: "A"},
		"audit": {Key: "audit", Name: "B"},
	}}
	assert.ErrorContains(t, CheckReferenceData(data), "declared twice")

	data.Catalog = domain.ServiceCatalog{"": {Name: "Blank"}}
	assert.ErrorContains(t, CheckReferenceData(data), "has no key")
}

func TestFileReferenceLoader_Errors(t *testing.T) {
	rule := func(id, country, typ, from string) string {
		return `- {ruleId: "` + id + `", countryCode: "` + country + `", ruleType: ` + typ +
			`, expression: "1", effectiveFrom: ` + from + `, isActive: true}` + "\n"
	}

	tests := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{"missing countries", map[string]string{"rules.yaml": "[]"}, "countries"},
		{"missing rules", map[string]string{"countries.json": minimalCountries}, "rules"},
		{"malformed yaml", map[string]string{"countries.yaml": "- code: [", "rules.yaml": "[]"}, "failed to parse"},
		{"duplicate rule", map[string]string{
			"countries.json": minimalCountries,
			"rules.yaml":     rule("R1", "GB", "VatRate", "2024-01-01T00:00:00Z") + rule("R1", "GB", "VatRate", "2024-01-01T00:00:00Z"),
		}, "declared twice"},
		{"unknown type", map[string]string{
			"countries.json": minimalCountries,
			"rules.yaml":     rule("R1", "GB", "Surcharge", "2024-01-01T00:00:00Z"),
		}, "unknown rule type"},
		{"unknown country", map[string]string{
			"countries.json": minimalCountries,
			"rules.yaml":     rule("R1", "FR", "VatRate", "2024-01-01T00:00:00Z"),
		}, "unknown country"},
		{"service without key", map[string]string{
			"countries.json": minimalCountries,
			"rules.yaml":     "[]",
			"services.yaml":  "- {key: \"  \", name: Blank, cost: 10}\n",
		}, "has no key"},
		{"duplicate service", map[string]string{
			"countries.json": minimalCountries,
			"rules.yaml":     "[]",
			"services.yaml":  "- {key: audit, name: A, cost: 10}\n- {key: AUDIT, name: B, cost: 20}\n",
		}, "declared twice"},
		{"missing effectiveFrom", map[string]string{
			"countries.json": minimalCountries,
			"rules.yaml":     `- {ruleId: R1, countryCode: GB, ruleType: VatRate, expression: "1", isActive: true}`,
		}, "effectiveFrom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFileReferenceLoader(writePack(t, tt.files)).Load(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCheckReferenceData_GlobalScope(t *testing.T) {
	data := &domain.ReferenceData{
		Countries: []domain.Country{{Code: "GB"}},
		Rules: []domain.Rule{{
			ID: "G1", CountryCode: domain.GlobalScope, Type: domain.Discount,
			Expression: "0", EffectiveFrom: mustDate(t, "2024-01-01"), IsActive: true,
		}},
	}
	assert.NoError(t, CheckReferenceData(data))
}
