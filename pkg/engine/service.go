package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Victor-armando18/vatpricing/internal/infrastructure"
	"github.com/Victor-armando18/vatpricing/internal/infrastructure/cache"
	"github.com/Victor-armando18/vatpricing/internal/infrastructure/diff"
	"github.com/Victor-armando18/vatpricing/internal/infrastructure/jsonlogic"
	"github.com/Victor-armando18/vatpricing/internal/metrics"
	"github.com/Victor-armando18/vatpricing/internal/usecase"
	"github.com/Victor-armando18/vatpricing/internal/usecase/compare"
)

// Engine liga o motor de cálculo à cache de referência, métricas e refresh periódico.
type Engine struct {
	svc       *usecase.EngineService
	store     *cache.Store
	refresher *cache.Refresher
	compare   *compare.UseCase
	recorder  *metrics.Recorder
	logger    *zap.Logger
}

type options struct {
	logger   *zap.Logger
	registry *prometheus.Registry
	loader   ReferenceLoader
}

type Option func(*options)

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

func WithRegistry(r *prometheus.Registry) Option { return func(o *options) { o.registry = r } }

// WithLoader substitui o carregamento a partir de cfg.ReferenceDir.
func WithLoader(l ReferenceLoader) Option { return func(o *options) { o.loader = l } }

// New carrega os dados de referência de imediato; um pacote inválido impede o arranque.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := options{logger: zap.NewNop()}
	for _, fn := range opts {
		fn(&o)
	}
	if o.loader == nil {
		o.loader = infrastructure.NewFileReferenceLoader(cfg.ReferenceDir)
	}

	recorder, err := metrics.NewRecorder(o.registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	store := cache.NewStore(o.loader, cfg.CacheTTL, cache.WithLogger(o.logger), cache.WithRecorder(recorder))
	if err := store.Refresh(ctx); err != nil {
		return nil, fmt.Errorf("engine bootstrap: %w", err)
	}

	svc := usecase.NewEngineService(store,
		usecase.WithGuardExecutor(jsonlogic.NewExecutor()),
		usecase.WithLogger(o.logger),
		usecase.WithRecorder(recorder),
		usecase.WithTimeout(cfg.CalculationTimeout),
		usecase.WithCurrency(cfg.Currency),
		usecase.WithParallelism(cfg.MaxParallelism),
	)

	e := &Engine{
		svc:      svc,
		store:    store,
		compare:  &compare.UseCase{Engine: svc, Differ: &diff.Differ{}},
		recorder: recorder,
		logger:   o.logger,
	}
	if cfg.RefreshSchedule != "" {
		e.refresher = cache.NewRefresher(store, cfg.RefreshSchedule, o.logger)
	}
	return e, nil
}

func (e *Engine) Calculate(ctx context.Context, req CalculationRequest) (*CalculationResult, error) {
	return e.svc.Calculate(ctx, req)
}

// PatchAndCalculate aplica um JSON Patch ao pedido e calcula o resultado.
func (e *Engine) PatchAndCalculate(ctx context.Context, req CalculationRequest, patch []byte) (CalculationRequest, *CalculationResult, error) {
	updated, err := infrastructure.ApplyRequestPatch(req, patch)
	if err != nil {
		return req, nil, &CalculationError{Kind: KindValidation, Message: "invalid request patch", Err: err}
	}
	res, err := e.svc.Calculate(ctx, updated)
	return updated, res, err
}

func (e *Engine) Compare(ctx context.Context, base CalculationRequest, scenarios []Scenario) (*Comparison, error) {
	return e.compare.Compare(ctx, base, scenarios)
}

func (e *Engine) ValidateExpression(expr string) error { return e.svc.ValidateExpression(expr) }

func (e *Engine) Countries(ctx context.Context) ([]Country, error) {
	snap, err := e.svc.Reference(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Countries(), nil
}

// Services devolve o catálogo ordenado por chave.
func (e *Engine) Services(ctx context.Context) ([]ServiceOffering, error) {
	snap, err := e.svc.Reference(ctx)
	if err != nil {
		return nil, err
	}
	catalog := snap.Catalog()
	out := make([]ServiceOffering, 0, len(catalog))
	for _, s := range catalog {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Refresh recarrega os dados de referência; em caso de falha o snapshot anterior continua ativo.
func (e *Engine) Refresh(ctx context.Context) (string, error) {
	if err := e.store.Refresh(ctx); err != nil {
		return e.store.Version(), err
	}
	return e.store.Version(), nil
}

// Invalidate força o próximo cálculo a recarregar os dados de referência.
func (e *Engine) Invalidate() { e.store.Invalidate() }

func (e *Engine) ReferenceVersion() string { return e.store.Version() }

func (e *Engine) Currency() string { return e.svc.Currency() }

func (e *Engine) Metrics() *metrics.Recorder { return e.recorder }

// Start arranca o refresh periódico, se configurado.
func (e *Engine) Start() error {
	if e.refresher == nil {
		return nil
	}
	return e.refresher.Start()
}

func (e *Engine) Stop() {
	if e.refresher != nil {
		<-e.refresher.Stop().Done()
	}
}
