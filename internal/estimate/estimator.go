package estimate

import (
	"context"
	"fmt"
	"time"

	"github.com/msldiarra/sirafuel/internal/contracts"
)

// Store is the read side of the contribution log the estimator needs.
type Store interface {
	// RecentQueueCategories returns up to limit non-null queue categories
	// for the station, newest first.
	RecentQueueCategories(ctx context.Context, stationID string, limit int) ([]contracts.QueueCategory, error)
	// LatestPumpsActive returns pumps_active of the station's most recently
	// updated status row, or nil when unknown.
	LatestPumpsActive(ctx context.Context, stationID string) (*int, error)
	ContributionsSince(ctx context.Context, stationID string, since time.Time) ([]contracts.Contribution, error)
}

// Estimator reads fresh data on every call; it keeps no cache.
type Estimator struct {
	store Store
	now   func() time.Time
}

func NewEstimator(store Store, now func() time.Time) *Estimator {
	if now == nil {
		now = time.Now
	}
	return &Estimator{store: store, now: now}
}

func (e *Estimator) WaitingTime(ctx context.Context, stationID string) (Range, error) {
	categories, err := e.store.RecentQueueCategories(ctx, stationID, QueueLookback)
	if err != nil {
		return Range{}, fmt.Errorf("load queue reports: %w", err)
	}
	if len(categories) == 0 {
		return Range{}, nil
	}

	pumps, err := e.store.LatestPumpsActive(ctx, stationID)
	if err != nil {
		return Range{}, fmt.Errorf("load pumps active: %w", err)
	}

	return WaitingTimeFor(categories, pumps), nil
}

func (e *Estimator) ReliabilityScore(ctx context.Context, stationID string) (int, error) {
	now := e.now().UTC()
	contributions, err := e.store.ContributionsSince(ctx, stationID, now.Add(-ScoreWindow))
	if err != nil {
		return 0, fmt.Errorf("load recent contributions: %w", err)
	}
	return Score(contributions, now), nil
}
