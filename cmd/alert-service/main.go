package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/msldiarra/sirafuel/internal/alerts"
	"github.com/msldiarra/sirafuel/internal/bootstrap"
)

// alert-service runs a single sweep and exits; schedule it from cron.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Open(ctx, "alert-service", false)
	if err != nil {
		log.Fatalf("alert-service startup error: %v", err)
	}

	generator := alerts.NewGenerator(deps.Repo, deps.SweepLocker, deps.Publisher(deps.Config.KafkaTopicAlerts), deps.Logger)

	report, err := generator.Sweep(ctx)
	if err != nil {
		deps.Logger.Error("alert sweep failed", zap.Error(err))
		deps.Close()
		os.Exit(1)
	}

	deps.Logger.Info("alert sweep done",
		zap.Bool("skipped", report.Skipped),
		zap.Int("stations_checked", report.StationsChecked),
		zap.Int("alerts_opened", len(report.Opened)),
		zap.Int("failures", len(report.Failures)))
	deps.Close()
}
