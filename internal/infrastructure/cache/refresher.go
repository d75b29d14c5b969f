package cache

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher recarrega o Store num horário cron (ex.: "@every 5m").
type Refresher struct {
	cron     *cron.Cron
	store    *Store
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
}

func NewRefresher(store *Store, schedule string, logger *zap.Logger) *Refresher {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("reference_refresher")
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))
	return &Refresher{
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger))),
		store:    store,
		schedule: schedule,
		timeout:  30 * time.Second,
		logger:   logger,
	}
}

func (r *Refresher) Start() error {
	if _, err := r.cron.AddFunc(r.schedule, r.Run); err != nil {
		r.logger.Error("failed to schedule reference refresh", zap.String("schedule", r.schedule), zap.Error(err))
		return err
	}
	r.logger.Info("scheduled reference refresh", zap.String("schedule", r.schedule))
	r.cron.Start()
	return nil
}

// Run executa uma atualização imediata; é a função agendada.
func (r *Refresher) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.store.Refresh(ctx); err != nil {
		r.logger.Warn("scheduled reference refresh failed", zap.Error(err))
	}
}

// Stop para o agendador; o contexto devolvido termina quando o job em curso acabar.
func (r *Refresher) Stop() context.Context {
	return r.cron.Stop()
}
