package notify

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/msldiarra/sirafuel/internal/contracts"
	"github.com/msldiarra/sirafuel/internal/mq"
)

const (
	defaultAttempts = 5
	defaultBackoff  = 500 * time.Millisecond
)

// MessageReader is the subset of *kafka.Reader the consumer uses. Offsets
// are committed explicitly.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Handler interface {
	Handle(ctx context.Context, event contracts.StatusChangedEvent) (int, error)
}

// Consumer feeds status-change messages to a Handler. An offset is
// committed once its event is handled, or once the last attempt fails and
// the event is dropped with an error log. Shutdown mid-retry leaves the
// offset uncommitted so the event is redelivered.
type Consumer struct {
	reader   MessageReader
	handler  Handler
	logger   *zap.Logger
	attempts int
	backoff  time.Duration
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewConsumer(reader MessageReader, handler Handler, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader:   reader,
		handler:  handler,
		logger:   logger,
		attempts: defaultAttempts,
		backoff:  defaultBackoff,
		sleep:    sleepContext,
	}
}

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("notifier fetch error", zap.Error(err))
			if c.sleep(ctx, c.backoff) != nil {
				return
			}
			continue
		}

		if err := c.process(ctx, msg); err != nil {
			return
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("notifier commit failed",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err))
		}
	}
}

// process returns an error only when ctx ended before the event settled.
func (c *Consumer) process(ctx context.Context, msg kafka.Message) error {
	event, err := mq.ParseMessageJSON[contracts.StatusChangedEvent](msg)
	if err != nil {
		c.logger.Warn("notifier decode error", zap.Error(err), zap.ByteString("key", msg.Key))
		return nil
	}

	for attempt := 1; ; attempt++ {
		_, err := c.handler.Handle(ctx, event)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fields := []zap.Field{
			zap.String("station_id", event.StationID),
			zap.String("station_status_id", event.StationStatusID),
			zap.Int("attempt", attempt),
			zap.Error(err),
		}
		if attempt >= c.attempts {
			c.logger.Error("notification fan-out abandoned", fields...)
			return nil
		}
		c.logger.Warn("notification fan-out failed, retrying", fields...)

		if err := c.sleep(ctx, c.backoff*time.Duration(attempt)); err != nil {
			return err
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
