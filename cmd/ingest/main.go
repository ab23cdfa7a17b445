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

	"github.com/msldiarra/sirafuel/internal/bootstrap"
	"github.com/msldiarra/sirafuel/internal/estimate"
	"github.com/msldiarra/sirafuel/internal/httpapi"
	"github.com/msldiarra/sirafuel/internal/ingest"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Open(ctx, "ingest", true)
	if err != nil {
		log.Fatalf("ingest startup error: %v", err)
	}
	defer deps.Close()

	logger := deps.Logger
	cfg := deps.Config

	service := ingest.NewService(
		deps.Repo,
		estimate.NewEstimator(deps.Repo, nil),
		deps.Locker,
		deps.Publisher(cfg.KafkaTopicStatus),
		cfg.RecomputeLockWait,
		logger,
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpapi.NewIngestRouter(service, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("ingest listening", zap.String("addr", cfg.HTTPAddr), zap.String("status_topic", cfg.KafkaTopicStatus))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("ingest server error", zap.Error(err))
	}
}
