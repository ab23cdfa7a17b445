package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/msldiarra/sirafuel/internal/alerts"
	"github.com/msldiarra/sirafuel/internal/bootstrap"
	"github.com/msldiarra/sirafuel/internal/httpapi"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Open(ctx, "query-api", true)
	if err != nil {
		log.Fatalf("query-api startup error: %v", err)
	}
	defer deps.Close()

	logger := deps.Logger
	cfg := deps.Config

	generator := alerts.NewGenerator(deps.Repo, deps.SweepLocker, deps.Publisher(cfg.KafkaTopicAlerts), logger)
	resolver := alerts.NewResolver(deps.Repo, logger)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewQueryRouter(deps.Repo, generator, resolver, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("query-api listening", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("query-api server error", zap.Error(err))
	}
}
