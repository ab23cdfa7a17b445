package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/msldiarra/sirafuel/internal/bootstrap"
	"github.com/msldiarra/sirafuel/internal/mq"
	"github.com/msldiarra/sirafuel/internal/notify"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.Open(ctx, "notifier", false)
	if err != nil {
		log.Fatalf("notifier startup error: %v", err)
	}
	defer deps.Close()

	logger := deps.Logger
	cfg := deps.Config

	reader := mq.NewReader(cfg.KafkaBrokers, cfg.KafkaTopicStatus, cfg.ConsumerGroupPrefix+"-notifier")
	defer reader.Close()

	consumer := notify.NewConsumer(reader, notify.NewNotifier(deps.Repo, logger), logger)

	logger.Info("notifier consuming", zap.String("topic", cfg.KafkaTopicStatus))
	consumer.Run(ctx)
	logger.Info("notifier shutting down")
}
