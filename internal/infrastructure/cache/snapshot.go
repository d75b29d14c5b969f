package cache

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Victor-armando18/vatpricing/internal/domain"
	"github.com/Victor-armando18/vatpricing/internal/infrastructure/expression"
	"github.com/Victor-armando18/vatpricing/internal/interfaces"
)

type compiled struct {
	expr    string
	program *expression.Program
	err     error
}

// Snapshot é imutável depois de construído; todas as leituras devolvem cópias.
type Snapshot struct {
	version   string
	loadedAt  time.Time
	countries map[string]domain.Country
	ordered   []domain.Country
	byCountry map[string][]domain.Rule
	byType    map[domain.RuleType][]domain.Rule
	programs  map[string]compiled
	catalog   domain.ServiceCatalog
	schedule  domain.PricingSchedule
	guards    []domain.Guard
}

var (
	_ interfaces.ReferenceSnapshot = (*Snapshot)(nil)
	_ interfaces.ProgramSource     = (*Snapshot)(nil)
	_ interfaces.ReferenceProvider = (*Snapshot)(nil)
)

// NewSnapshot indexa os dados e pré-compila todas as expressões de regra.
func NewSnapshot(data *domain.ReferenceData, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		version:   data.Version,
		loadedAt:  loadedAt,
		countries: make(map[string]domain.Country, len(data.Countries)),
		byCountry: map[string][]domain.Rule{},
		byType:    map[domain.RuleType][]domain.Rule{},
		programs:  make(map[string]compiled, len(data.Rules)),
		catalog:   make(domain.ServiceCatalog, len(data.Catalog)),
		schedule:  data.Schedule,
		guards:    append([]domain.Guard(nil), data.Guards...),
	}
	if s.version == "" {
		s.version = loadedAt.UTC().Format("20060102T150405Z")
	}

	for _, c := range data.Countries {
		c.Code = strings.ToUpper(c.Code)
		s.countries[c.Code] = c
		s.ordered = append(s.ordered, c)
	}
	sort.Slice(s.ordered, func(i, j int) bool { return s.ordered[i].Code < s.ordered[j].Code })

	for _, r := range data.Rules {
		r.CountryCode = strings.ToUpper(r.CountryCode)
		s.byCountry[r.CountryCode] = append(s.byCountry[r.CountryCode], r)
		s.byType[r.Type] = append(s.byType[r.Type], r)
		p, err := expression.Compile(r.Expression)
		s.programs[r.ID] = compiled{expr: r.Expression, program: p, err: err}
	}

	for k, v := range data.Catalog {
		v.Key = strings.ToLower(strings.TrimSpace(k))
		s.catalog[v.Key] = v
	}
	return s
}

func (s *Snapshot) Version() string     { return s.version }
func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

func (s *Snapshot) Snapshot(context.Context) (interfaces.ReferenceSnapshot, error) { return s, nil }

func (s *Snapshot) GetRulesByCountry(_ context.Context, countryCode string) ([]domain.Rule, error) {
	return append([]domain.Rule(nil), s.byCountry[strings.ToUpper(countryCode)]...), nil
}

func (s *Snapshot) GetRulesByType(_ context.Context, ruleType domain.RuleType) ([]domain.Rule, error) {
	return append([]domain.Rule(nil), s.byType[ruleType]...), nil
}

func (s *Snapshot) GetCountriesByCodes(_ context.Context, codes []string) ([]domain.Country, error) {
	out := make([]domain.Country, 0, len(codes))
	for _, code := range codes {
		if c, ok := s.countries[strings.ToUpper(code)]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Snapshot) ExistsAndActive(_ context.Context, code string) (bool, error) {
	c, ok := s.countries[strings.ToUpper(code)]
	return ok && c.IsActive, nil
}

func (s *Snapshot) Countries() []domain.Country {
	return append([]domain.Country(nil), s.ordered...)
}

func (s *Snapshot) Catalog() domain.ServiceCatalog {
	out := make(domain.ServiceCatalog, len(s.catalog))
	for k, v := range s.catalog {
		out[k] = v
	}
	return out
}

func (s *Snapshot) Schedule() domain.PricingSchedule { return s.schedule }

func (s *Snapshot) Guards() []domain.Guard { return append([]domain.Guard(nil), s.guards...) }

// Program devolve a AST pré-compilada; regras desconhecidas ou alteradas são compiladas na hora.
func (s *Snapshot) Program(rule domain.Rule) (*expression.Program, error) {
	if c, ok := s.programs[rule.ID]; ok && c.expr == rule.Expression {
		return c.program, c.err
	}
	return expression.Compile(rule.Expression)
}
