package alerts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/msldiarra/sirafuel/internal/contracts"
	"github.com/msldiarra/sirafuel/internal/lock"
	"github.com/msldiarra/sirafuel/internal/mq"
)

const (
	NoUpdateAfter       = 90 * time.Minute
	HighWaitMinutes     = 90
	ContradictionWindow = 60 * time.Minute

	sweepLockKey = "alerts:sweep"
)

type Store interface {
	ListActiveStations(ctx context.Context) ([]contracts.Station, error)
	LatestStatus(ctx context.Context, stationID string) (*contracts.StationStatus, error)
	FuelStatusesSince(ctx context.Context, stationID string, since time.Time) ([]contracts.Availability, error)
	HasOpenAlert(ctx context.Context, stationID string, alertType contracts.AlertType) (bool, error)
	InsertAlert(ctx context.Context, alert contracts.Alert) (bool, error)
}

type StationFailure struct {
	StationID string `json:"station_id"`
	Error     string `json:"error"`
}

type SweepReport struct {
	StartedAt       time.Time         `json:"started_at"`
	StationsChecked int               `json:"stations_checked"`
	Opened          []contracts.Alert `json:"opened"`
	Failures        []StationFailure  `json:"failures,omitempty"`
	Skipped         bool              `json:"skipped,omitempty"`
}

// Generator runs one alert sweep per call. Scheduling is left to the caller.
type Generator struct {
	store     Store
	locker    lock.Locker
	publisher mq.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewGenerator(store Store, locker lock.Locker, publisher mq.Publisher, logger *zap.Logger) *Generator {
	if locker == nil {
		locker = lock.Noop{}
	}
	if publisher == nil {
		publisher = mq.Discard{}
	}
	return &Generator{
		store:     store,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Sweep evaluates every active station once. A station whose evaluation
// fails is recorded in the report and the sweep moves on. When another
// sweep holds the lock the call returns a skipped report.
func (g *Generator) Sweep(ctx context.Context) (SweepReport, error) {
	now := g.now().UTC()
	report := SweepReport{StartedAt: now, Opened: []contracts.Alert{}}

	release, err := g.locker.Acquire(ctx, sweepLockKey, 0)
	if errors.Is(err, lock.ErrNotAcquired) {
		g.logger.Info("alert sweep already running, skipping")
		report.Skipped = true
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("alert sweep lock: %w", err)
	}
	defer release()

	stations, err := g.store.ListActiveStations(ctx)
	if err != nil {
		return report, fmt.Errorf("list active stations: %w", err)
	}

	for _, station := range stations {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.StationsChecked++
		opened, err := g.sweepStation(ctx, station.ID, now)
		report.Opened = append(report.Opened, opened...)
		if err != nil {
			g.logger.Error("alert evaluation failed",
				zap.String("station_id", station.ID),
				zap.Error(err))
			report.Failures = append(report.Failures, StationFailure{StationID: station.ID, Error: err.Error()})
		}
	}

	g.logger.Info("alert sweep finished",
		zap.Int("stations_checked", report.StationsChecked),
		zap.Int("alerts_opened", len(report.Opened)),
		zap.Int("failures", len(report.Failures)))

	return report, nil
}

func (g *Generator) sweepStation(ctx context.Context, stationID string, now time.Time) ([]contracts.Alert, error) {
	conditions, err := g.evaluate(ctx, stationID, now)
	if err != nil {
		return nil, err
	}

	// Each condition is opened on its own; one failing type does not hide the others.
	var opened []contracts.Alert
	var errs []error
	for _, alertType := range conditions {
		alert, ok, err := g.open(ctx, stationID, alertType, now)
		if err != nil {
			errs = append(errs, fmt.Errorf("open %s alert: %w", alertType, err))
			continue
		}
		if ok {
			opened = append(opened, alert)
		}
	}
	return opened, errors.Join(errs...)
}

// evaluate returns the alert types whose condition holds for the station.
func (g *Generator) evaluate(ctx context.Context, stationID string, now time.Time) ([]contracts.AlertType, error) {
	var conditions []contracts.AlertType

	latest, err := g.store.LatestStatus(ctx, stationID)
	if err != nil {
		return nil, err
	}
	if latest == nil || latest.UpdatedAt.Before(now.Add(-NoUpdateAfter)) {
		conditions = append(conditions, contracts.AlertNoUpdate)
	}
	if latest != nil && latest.WaitingTimeMax != nil && *latest.WaitingTimeMax > HighWaitMinutes {
		conditions = append(conditions, contracts.AlertHighWait)
	}

	statuses, err := g.store.FuelStatusesSince(ctx, stationID, now.Add(-ContradictionWindow))
	if err != nil {
		return nil, err
	}
	if distinct(statuses) > 1 {
		conditions = append(conditions, contracts.AlertContradiction)
	}

	return conditions, nil
}

func (g *Generator) open(ctx context.Context, stationID string, alertType contracts.AlertType, now time.Time) (contracts.Alert, bool, error) {
	exists, err := g.store.HasOpenAlert(ctx, stationID, alertType)
	if err != nil || exists {
		return contracts.Alert{}, false, err
	}

	alert := contracts.Alert{
		ID:        uuid.NewString(),
		StationID: stationID,
		Type:      alertType,
		Status:    contracts.AlertOpen,
		CreatedAt: now,
	}
	inserted, err := g.store.InsertAlert(ctx, alert)
	if err != nil || !inserted {
		return contracts.Alert{}, false, err
	}

	g.logger.Info("alert opened",
		zap.String("station_id", stationID),
		zap.String("type", string(alertType)))

	event := contracts.AlertOpenedEvent{
		AlertID:   alert.ID,
		StationID: stationID,
		Type:      alertType,
		Timestamp: now,
	}
	if err := g.publisher.Publish(ctx, event.Key(), event); err != nil {
		g.logger.Error("publish alert failed", zap.String("station_id", stationID), zap.Error(err))
	}

	return alert, true, nil
}

func distinct(statuses []contracts.Availability) int {
	seen := make(map[contracts.Availability]struct{}, len(statuses))
	for _, s := range statuses {
		seen[s] = struct{}{}
	}
	return len(seen)
}
