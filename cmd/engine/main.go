package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/Victor-armando18/vatpricing/internal/logger"
	"github.com/Victor-armando18/vatpricing/pkg/engine"
)

func main() {
	cfg, err := engine.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuração inválida: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(logger.Config{Level: cfg.LogLevel, Stage: cfg.Stage}); err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Log
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	eng, err := engine.New(ctx, cfg, engine.WithLogger(log), engine.WithRegistry(reg))
	if err != nil {
		log.Fatal("engine bootstrap failed", zap.Error(err))
	}
	if err := eng.Start(); err != nil {
		log.Fatal("reference refresher failed to start", zap.Error(err))
	}
	defer eng.Stop()

	srv := newServer(eng, eng.Metrics().Handler(), log)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("rulesVersion", eng.ReferenceVersion()))
		if err := srv.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
