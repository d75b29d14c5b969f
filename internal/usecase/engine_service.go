package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Victor-armando18/vatpricing/internal/domain"
	"github.com/Victor-armando18/vatpricing/internal/infrastructure/expression"
	"github.com/Victor-armando18/vatpricing/internal/interfaces"
)

const tracerName = "github.com/Victor-armando18/vatpricing/internal/usecase"

// calculationNamespace deriva ids determinísticos: mesmo pedido, mesmos dados e mesmo instante dão o mesmo id.
var calculationNamespace = uuid.MustParse("6f1c2a9e-4b0d-5e8a-9c3f-7d2e1b4a8c60")

type EngineService struct {
	reference   interfaces.ReferenceProvider
	guards      interfaces.GuardExecutor
	validator   *RequestValidator
	logger      *zap.Logger
	recorder    interfaces.Recorder
	tracer      trace.Tracer
	timeout     time.Duration
	currency    string
	parallelism int
	now         func() time.Time
}

type Option func(*EngineService)

func WithGuardExecutor(g interfaces.GuardExecutor) Option {
	return func(e *EngineService) { e.guards = g }
}

func WithLogger(l *zap.Logger) Option { return func(e *EngineService) { e.logger = l } }

func WithRecorder(r interfaces.Recorder) Option { return func(e *EngineService) { e.recorder = r } }

func WithTracer(t trace.Tracer) Option { return func(e *EngineService) { e.tracer = t } }

// WithTimeout limita cada calculação; zero desativa o limite.
func WithTimeout(d time.Duration) Option { return func(e *EngineService) { e.timeout = d } }

func WithCurrency(code string) Option { return func(e *EngineService) { e.currency = code } }

func WithParallelism(n int) Option { return func(e *EngineService) { e.parallelism = n } }

func WithClock(now func() time.Time) Option { return func(e *EngineService) { e.now = now } }

func NewEngineService(reference interfaces.ReferenceProvider, opts ...Option) *EngineService {
	e := &EngineService{
		reference:   reference,
		validator:   NewRequestValidator(),
		logger:      zap.NewNop(),
		tracer:      otel.Tracer(tracerName),
		timeout:     5 * time.Second,
		currency:    "EUR",
		parallelism: 8,
		now:         time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	e.logger = e.logger.Named("pricing")
	return e
}

var _ interfaces.EngineFacade = (*EngineService)(nil)

// Calculate produz uma estimativa completa ou falha por inteiro; nunca devolve resultados parciais.
func (e *EngineService) Calculate(ctx context.Context, req domain.CalculationRequest) (res *domain.CalculationResult, err error) {
	start := time.Now()
	ctx, span := e.tracer.Start(ctx, "pricing.Calculate",
		trace.WithAttributes(attribute.StringSlice("countries", req.CountryCodes)))
	defer span.End()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	stage := domain.StageRequested
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = &domain.CalculationError{Kind: domain.KindInternal, Message: fmt.Sprintf("panic: %v", r), Stage: stage}
		}
		e.finish(span, start, res, err)
	}()

	res, err = e.run(ctx, req, &stage)
	if err != nil {
		return nil, classify(ctx, err, stage)
	}
	return res, nil
}

func (e *EngineService) run(ctx context.Context, req domain.CalculationRequest, stage *domain.Stage) (*domain.CalculationResult, error) {
	req = Normalize(req)
	if err := e.validator.Validate(req); err != nil {
		return nil, err
	}

	snap, err := e.reference.Snapshot(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, err, "reference data unavailable")
	}

	hits, err := CheckGuards(ctx, e.guards, snap.Guards(), req)
	if err != nil {
		return nil, err
	}
	if len(hits) > 0 {
		return nil, guardError(hits)
	}

	// Vigência é avaliada por dia: effectiveTo inclui o próprio dia.
	asOf := domain.Day(e.now())
	if req.AsOf != nil {
		asOf = *req.AsOf
	}
	schedule := snap.Schedule()
	selector := NewRuleSelector(snap)
	runner := newRuleRunner(snap, e.recorder)

	idPayload, _ := json.Marshal(req)
	assembler := &Assembler{
		catalog:  snap.Catalog(),
		currency: e.currency,
		now:      e.now,
		newID: func(at time.Time) string {
			seed := fmt.Sprintf("%s|%s|%s", idPayload, snap.Version(), at.Format(time.RFC3339Nano))
			return uuid.NewSHA1(calculationNamespace, []byte(seed)).String()
		},
	}
	// Serviços desconhecidos falham antes de qualquer avaliação de regras.
	if _, err := assembler.ResolveServices(req.AdditionalServices); err != nil {
		return nil, err
	}

	evaluator := &CountryEvaluator{
		selector: selector,
		runner:   runner,
		schedule: schedule,
		currency: e.currency,
		asOf:     asOf,
		logger:   e.logger,
	}
	orchestrator := NewOrchestrator(snap, evaluator, e.parallelism)
	orchestrator.tracer = e.tracer

	countries, err := orchestrator.ValidateCountries(ctx, req.CountryCodes)
	if err != nil {
		return nil, err
	}
	if err := CheckFilingFrequency(countries, req.FilingFrequency); err != nil {
		return nil, err
	}
	*stage = domain.StageCountriesValidated

	costs, err := orchestrator.EvaluateAll(ctx, countries, req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	*stage = domain.StageCountryCostsComputed

	discounts := &DiscountEngine{
		selector: selector,
		runner:   runner,
		schedule: schedule,
		currency: e.currency,
		asOf:     asOf,
	}
	_, lines, err := discounts.ApplyDiscounts(ctx, costs, req)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	*stage = domain.StageDiscountsApplied

	res, err := assembler.Assemble(costs, lines, req.AdditionalServices)
	if err != nil {
		return nil, err
	}
	res.RulesVersion = snap.Version()
	*stage = domain.StageAssembled
	return res, nil
}

// classify converte qualquer falha num CalculationError com o estágio atingido.
func classify(ctx context.Context, err error, stage domain.Stage) error {
	var ce *domain.CalculationError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		ce = domain.WrapError(domain.KindTimeout, err, "calculation exceeded its time limit")
	case errors.Is(err, context.Canceled):
		ce = domain.WrapError(domain.KindInternal, err, "calculation cancelled")
	case errors.As(err, &ce):
	default:
		ce = domain.WrapError(domain.KindInternal, err, "calculation failed")
	}
	if ce.Stage == "" {
		ce.Stage = stage
	}
	return ce
}

func (e *EngineService) finish(span trace.Span, start time.Time, res *domain.CalculationResult, err error) {
	elapsed := time.Since(start)
	outcome := "ok"
	if err != nil {
		outcome = string(domain.KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		e.logger.Warn("calculation failed", zap.String("kind", outcome), zap.Duration("elapsed", elapsed), zap.Error(err))
	} else {
		span.SetAttributes(attribute.String("calculation.id", res.CalculationID), attribute.String("total", res.TotalCost.String()))
		e.logger.Info("calculation completed",
			zap.String("calculationId", res.CalculationID),
			zap.String("totalCost", res.TotalCost.String()),
			zap.Int("countries", len(res.CountryCosts)),
			zap.String("rulesVersion", res.RulesVersion),
			zap.Duration("elapsed", elapsed),
		)
	}
	if e.recorder != nil {
		e.recorder.CalculationFinished(outcome, elapsed)
	}
}

// ValidateExpression verifica apenas a sintaxe; a posição do primeiro erro segue na mensagem.
func (e *EngineService) ValidateExpression(expr string) error {
	if err := expression.Check(expr); err != nil {
		return domain.WrapError(domain.KindValidation, err, "invalid rule expression")
	}
	return nil
}

// Reference expõe o snapshot atual para listagens (países, serviços).
func (e *EngineService) Reference(ctx context.Context) (interfaces.ReferenceSnapshot, error) {
	snap, err := e.reference.Snapshot(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.KindInternal, err, "reference data unavailable")
	}
	return snap, nil
}

func (e *EngineService) Currency() string { return e.currency }
