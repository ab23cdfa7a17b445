package alerts

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/msldiarra/sirafuel/internal/contracts"
)

type ResolveStore interface {
	ResolveAlert(ctx context.Context, id string, at time.Time) (contracts.Alert, error)
}

// Resolver applies the operator action that closes an alert.
type Resolver struct {
	store  ResolveStore
	logger *zap.Logger
	now    func() time.Time
}

func NewResolver(store ResolveStore, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, logger: logger, now: time.Now}
}

// Resolve moves an OPEN alert to RESOLVED. It fails with
// contracts.ErrNotFound or contracts.ErrAlreadyResolved.
func (r *Resolver) Resolve(ctx context.Context, alertID string) (contracts.Alert, error) {
	alert, err := r.store.ResolveAlert(ctx, alertID, r.now().UTC())
	if err != nil {
		return contracts.Alert{}, err
	}

	r.logger.Info("alert resolved",
		zap.String("alert_id", alert.ID),
		zap.String("station_id", alert.StationID),
		zap.String("type", string(alert.Type)))
	return alert, nil
}
