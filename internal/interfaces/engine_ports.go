package interfaces

import (
	"context"
	"time"

	"github.com/Victor-armando18/vatpricing/internal/domain"
	"github.com/Victor-armando18/vatpricing/internal/infrastructure/expression"
)

// RuleSource devolve regras em bruto; filtro por data e prioridade é responsabilidade do motor.
type RuleSource interface {
	GetRulesByCountry(ctx context.Context, countryCode string) ([]domain.Rule, error)
	GetRulesByType(ctx context.Context, ruleType domain.RuleType) ([]domain.Rule, error)
}

// CountrySource expõe os países de referência.
type CountrySource interface {
	GetCountriesByCodes(ctx context.Context, codes []string) ([]domain.Country, error)
	ExistsAndActive(ctx context.Context, code string) (bool, error)
}

// ProgramSource entrega a AST pré-compilada de uma regra, evitando reanálise por cálculo.
type ProgramSource interface {
	Program(rule domain.Rule) (*expression.Program, error)
}

// ReferenceSnapshot é uma vista imutável e consistente dos dados de referência.
type ReferenceSnapshot interface {
	RuleSource
	CountrySource
	ProgramSource
	Countries() []domain.Country
	Catalog() domain.ServiceCatalog
	Schedule() domain.PricingSchedule
	Guards() []domain.Guard
	Version() string
}

// ReferenceProvider entrega o snapshot a usar durante toda uma calculação.
type ReferenceProvider interface {
	Snapshot(ctx context.Context) (ReferenceSnapshot, error)
}

// ReferenceLoader define o contrato para carregar o pacote de referência (de disco, rede, etc.).
type ReferenceLoader interface {
	Load(ctx context.Context) (*domain.ReferenceData, error)
}

// GuardExecutor executa uma regra JsonLogic com operadores customizados.
type GuardExecutor interface {
	Execute(ctx context.Context, logic map[string]any, data map[string]any) (any, error)
	RegisterCustomOperator(name string, fn func(args ...any) any)
}

// Recorder recebe métricas do motor; implementações devem ser seguras para uso concorrente.
type Recorder interface {
	CalculationFinished(kind string, elapsed time.Duration)
	RuleEvaluated(ruleType domain.RuleType)
	ReferenceRefreshed(ok bool)
}

// EngineFacade é a porta de entrada exposta à camada de serviço.
type EngineFacade interface {
	Calculate(ctx context.Context, req domain.CalculationRequest) (*domain.CalculationResult, error)
	ValidateExpression(expr string) error
}
