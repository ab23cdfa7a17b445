package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/msldiarra/sirafuel/internal/config"
	"github.com/msldiarra/sirafuel/internal/lock"
	"github.com/msldiarra/sirafuel/internal/logging"
	"github.com/msldiarra/sirafuel/internal/mq"
	"github.com/msldiarra/sirafuel/internal/storage"
)

// Deps holds the process-wide collaborators shared by the binaries.
type Deps struct {
	Config config.Config
	Logger *zap.Logger
	Repo   *storage.Repository
	Locker lock.Locker
	// SweepLocker guards the alert sweep, which outlives a recompute.
	SweepLocker lock.Locker

	closers []func()
}

// Open connects to Postgres and Redis. Redis is optional: without
// REDIS_ADDR every lock is granted locally.
func Open(ctx context.Context, service string, migrate bool) (*Deps, error) {
	cfg := config.Load()

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: service})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	d := &Deps{Config: cfg, Logger: logger}
	d.closers = append(d.closers, func() { _ = logger.Sync() })

	pool, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.closers = append(d.closers, pool.Close)

	if migrate {
		if err := storage.RunMigrations(ctx, pool); err != nil {
			d.Close()
			return nil, err
		}
	}

	db := storage.SQLDB(pool)
	d.closers = append(d.closers, func() { _ = db.Close() })
	d.Repo = storage.NewRepository(db)

	d.Locker = lock.Noop{}
	d.SweepLocker = lock.Noop{}
	if cfg.RedisAddr != "" {
		client := lock.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			d.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		d.closers = append(d.closers, func() { _ = client.Close() })
		d.Locker = lock.NewRedisLocker(client, "sirafuel:", cfg.RecomputeLockTTL)
		d.SweepLocker = lock.NewRedisLocker(client, "sirafuel:", cfg.SweepLockTTL)
	} else {
		logger.Warn("REDIS_ADDR not set, running without distributed locks")
	}

	return d, nil
}

// Publisher returns a Kafka publisher for topic, closed with the deps.
func (d *Deps) Publisher(topic string) mq.Publisher {
	if len(d.Config.KafkaBrokers) == 0 || topic == "" {
		return mq.Discard{}
	}
	writer := mq.NewWriter(d.Config.KafkaBrokers, topic)
	d.closers = append(d.closers, func() { _ = writer.Close() })
	return mq.NewKafkaPublisher(writer)
}

// Close releases resources in reverse order of acquisition.
func (d *Deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
	d.closers = nil
}
