package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/msldiarra/sirafuel/internal/contracts"
	"github.com/msldiarra/sirafuel/internal/estimate"
	"github.com/msldiarra/sirafuel/internal/lock"
	"github.com/msldiarra/sirafuel/internal/mq"
)

var ErrInvalidSubmission = errors.New("invalid submission")

type Store interface {
	InsertContribution(ctx context.Context, c contracts.Contribution) (contracts.Contribution, error)
	UpsertStationStatus(ctx context.Context, u contracts.StatusUpdate) (contracts.StationStatus, error)
	UpdateDerivedFields(ctx context.Context, stationID string, waitMin, waitMax *int, score int) (int64, error)
	UserRole(ctx context.Context, userID string) (contracts.UserRole, error)
}

type Estimator interface {
	WaitingTime(ctx context.Context, stationID string) (estimate.Range, error)
	ReliabilityScore(ctx context.Context, stationID string) (int, error)
}

// Submission is one user report. SourceType may be empty when UserID is
// set; it is then derived from the reporter's role. FuelTypes narrows which
// rows a FuelStatus applies to and is rejected without one.
type Submission struct {
	StationID     string                   `json:"station_id"`
	SourceType    contracts.SourceType     `json:"source_type,omitempty"`
	QueueCategory *contracts.QueueCategory `json:"queue_category,omitempty"`
	FuelStatus    *contracts.Availability  `json:"fuel_status,omitempty"`
	FuelTypes     []contracts.FuelType     `json:"fuel_types,omitempty"`
	UserID        *string                  `json:"user_id,omitempty"`
	PhotoURL      *string                  `json:"photo_url,omitempty"`
}

type Receipt struct {
	Contribution  contracts.Contribution    `json:"contribution"`
	Statuses      []contracts.StationStatus `json:"statuses"`
	Recomputation *Recomputation            `json:"recomputation,omitempty"`
	Warnings      []string                  `json:"warnings,omitempty"`
}

type Recomputation struct {
	StationID      string        `json:"station_id"`
	WaitingTimeMin *int          `json:"waiting_time_min"`
	WaitingTimeMax *int          `json:"waiting_time_max"`
	Score          int           `json:"reliability_score"`
	Band           estimate.Band `json:"reliability_band"`
	RowsUpdated    int64         `json:"rows_updated"`
}

type Service struct {
	store     Store
	estimator Estimator
	locker    lock.Locker
	publisher mq.Publisher
	lockWait  time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(store Store, estimator Estimator, locker lock.Locker, publisher mq.Publisher, lockWait time.Duration, logger *zap.Logger) *Service {
	if locker == nil {
		locker = lock.Noop{}
	}
	if publisher == nil {
		publisher = mq.Discard{}
	}
	return &Service{
		store:     store,
		estimator: estimator,
		locker:    locker,
		publisher: publisher,
		lockWait:  lockWait,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) validate(sub *Submission) error {
	if sub.StationID == "" {
		return fmt.Errorf("%w: station_id is required", ErrInvalidSubmission)
	}
	if _, err := uuid.Parse(sub.StationID); err != nil {
		return fmt.Errorf("%w: station_id %q is not a valid id", ErrInvalidSubmission, sub.StationID)
	}
	if sub.UserID != nil {
		if _, err := uuid.Parse(*sub.UserID); err != nil {
			return fmt.Errorf("%w: user_id %q is not a valid id", ErrInvalidSubmission, *sub.UserID)
		}
	}
	if sub.SourceType != "" && !sub.SourceType.Valid() {
		return fmt.Errorf("%w: unknown source_type %q", ErrInvalidSubmission, sub.SourceType)
	}
	if sub.SourceType == "" && sub.UserID == nil {
		return fmt.Errorf("%w: source_type is required for anonymous reports", ErrInvalidSubmission)
	}
	if sub.QueueCategory != nil && !sub.QueueCategory.Valid() {
		return fmt.Errorf("%w: unknown queue_category %q", ErrInvalidSubmission, *sub.QueueCategory)
	}
	if sub.FuelStatus != nil && !sub.FuelStatus.Valid() {
		return fmt.Errorf("%w: unknown fuel_status %q", ErrInvalidSubmission, *sub.FuelStatus)
	}
	if sub.QueueCategory == nil && sub.FuelStatus == nil {
		return fmt.Errorf("%w: a report needs a queue_category or a fuel_status", ErrInvalidSubmission)
	}
	if len(sub.FuelTypes) > 0 && sub.FuelStatus == nil {
		return fmt.Errorf("%w: fuel_types needs a fuel_status", ErrInvalidSubmission)
	}
	for _, f := range sub.FuelTypes {
		if !f.Valid() {
			return fmt.Errorf("%w: unknown fuel_type %q", ErrInvalidSubmission, f)
		}
	}
	return nil
}

// Submit records a report and brings the station's status rows up to date.
// The contribution is persisted before anything else; a failure after that
// point still leaves it in the log.
func (s *Service) Submit(ctx context.Context, sub Submission) (Receipt, error) {
	if err := s.validate(&sub); err != nil {
		return Receipt{}, err
	}

	source := sub.SourceType
	if source == "" {
		role, err := s.store.UserRole(ctx, *sub.UserID)
		switch {
		case errors.Is(err, contracts.ErrNotFound):
			role = contracts.RolePublic
		case err != nil:
			return Receipt{}, fmt.Errorf("resolve reporter role: %w", err)
		}
		source = contracts.SourceForRole(role)
	}

	contribution, err := s.store.InsertContribution(ctx, contracts.Contribution{
		StationID:     sub.StationID,
		UserID:        sub.UserID,
		SourceType:    source,
		QueueCategory: sub.QueueCategory,
		FuelStatus:    sub.FuelStatus,
		PhotoURL:      sub.PhotoURL,
		CreatedAt:     s.now().UTC(),
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("append contribution: %w", err)
	}

	receipt := Receipt{Contribution: contribution, Statuses: []contracts.StationStatus{}}

	if sub.FuelStatus != nil {
		fuelTypes := sub.FuelTypes
		if len(fuelTypes) == 0 {
			fuelTypes = contracts.AllFuelTypes
		}

		for _, fuel := range dedupe(fuelTypes) {
			status, err := s.store.UpsertStationStatus(ctx, contracts.StatusUpdate{
				StationID:    sub.StationID,
				FuelType:     fuel,
				Availability: *sub.FuelStatus,
				Source:       source,
				UpdatedAt:    contribution.CreatedAt,
			})
			if errors.Is(err, contracts.ErrWriteDenied) {
				s.logger.Warn("status write denied",
					zap.String("station_id", sub.StationID),
					zap.String("fuel_type", string(fuel)),
					zap.String("contribution_id", contribution.ID))
				receipt.Warnings = append(receipt.Warnings, fmt.Sprintf("status update for %s was not applied: write denied", fuel))
				continue
			}
			if err != nil {
				return receipt, fmt.Errorf("update %s status: %w", fuel, err)
			}

			receipt.Statuses = append(receipt.Statuses, status)
			s.publishStatusChanged(ctx, status, contribution)
		}
	}

	rec, err := s.Recompute(ctx, sub.StationID)
	if errors.Is(err, lock.ErrNotAcquired) {
		s.logger.Warn("recompute skipped, station busy",
			zap.String("station_id", sub.StationID))
		receipt.Warnings = append(receipt.Warnings, "estimates will refresh on the next recompute")
		return receipt, nil
	}
	if err != nil {
		return receipt, err
	}
	receipt.Recomputation = &rec

	return receipt, nil
}

// Recompute derives waiting time and reliability from the contribution log
// and writes them onto every status row of the station. Calls for the same
// station are serialized.
func (s *Service) Recompute(ctx context.Context, stationID string) (Recomputation, error) {
	release, err := s.locker.Acquire(ctx, "recompute:"+stationID, s.lockWait)
	if err != nil {
		return Recomputation{}, fmt.Errorf("recompute %s: %w", stationID, err)
	}
	defer release()

	waiting, err := s.estimator.WaitingTime(ctx, stationID)
	if err != nil {
		return Recomputation{}, fmt.Errorf("recompute %s: %w", stationID, err)
	}

	score, err := s.estimator.ReliabilityScore(ctx, stationID)
	if err != nil {
		return Recomputation{}, fmt.Errorf("recompute %s: %w", stationID, err)
	}

	rows, err := s.store.UpdateDerivedFields(ctx, stationID, waiting.Min, waiting.Max, score)
	if err != nil {
		return Recomputation{}, fmt.Errorf("recompute %s: %w", stationID, err)
	}

	s.logger.Debug("station recomputed",
		zap.String("station_id", stationID),
		zap.Int("reliability_score", score),
		zap.Int64("rows_updated", rows))

	return Recomputation{
		StationID:      stationID,
		WaitingTimeMin: waiting.Min,
		WaitingTimeMax: waiting.Max,
		Score:          score,
		Band:           estimate.BandFor(score),
		RowsUpdated:    rows,
	}, nil
}

func (s *Service) publishStatusChanged(ctx context.Context, status contracts.StationStatus, c contracts.Contribution) {
	event := contracts.StatusChangedEvent{
		StationStatusID: status.ID,
		StationID:       status.StationID,
		FuelType:        status.FuelType,
		Availability:    status.Availability,
		Source:          status.LastUpdateSource,
		ContributionID:  c.ID,
		AuthorID:        c.UserID,
		Timestamp:       status.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, event.Key(), event); err != nil {
		s.logger.Error("publish status change failed",
			zap.String("station_id", status.StationID),
			zap.String("fuel_type", string(status.FuelType)),
			zap.Error(err))
	}
}

func dedupe(fuelTypes []contracts.FuelType) []contracts.FuelType {
	seen := make(map[contracts.FuelType]bool, len(fuelTypes))
	out := make([]contracts.FuelType, 0, len(fuelTypes))
	for _, f := range fuelTypes {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}
