package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/msldiarra/sirafuel/internal/contracts"
)

// Notification ids are derived from the event and recipient, so a
// redelivered event rewrites the same rows instead of duplicating them.
var notificationSpace = uuid.MustParse("5b0f4a52-8f3e-4c1d-a7b6-2e9d1c0f3a84")

func notificationID(event contracts.StatusChangedEvent, userID string) string {
	name := event.StationStatusID + "|" + event.ContributionID + "|" + userID
	return uuid.NewSHA1(notificationSpace, []byte(name)).String()
}

type Store interface {
	NotificationRecipients(ctx context.Context) ([]contracts.UserProfile, error)
	InsertNotification(ctx context.Context, n contracts.StationUpdateNotification) error
}

// Notifier fans a status change out to every follower except its author.
type Notifier struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

func NewNotifier(store Store, logger *zap.Logger) *Notifier {
	return &Notifier{store: store, logger: logger, now: time.Now}
}

// Handle returns the number of notifications written.
func (n *Notifier) Handle(ctx context.Context, event contracts.StatusChangedEvent) (int, error) {
	recipients, err := n.store.NotificationRecipients(ctx)
	if err != nil {
		return 0, fmt.Errorf("load recipients: %w", err)
	}

	written := 0
	for _, profile := range recipients {
		if !profile.NotificationsEnabled {
			continue
		}
		if profile.Role != contracts.RoleTrustedReporter && profile.Role != contracts.RoleAdmin {
			continue
		}
		if event.AuthorID != nil && *event.AuthorID == profile.ID {
			continue
		}

		err := n.store.InsertNotification(ctx, contracts.StationUpdateNotification{
			ID:              notificationID(event, profile.ID),
			UserID:          profile.ID,
			StationID:       event.StationID,
			StationStatusID: event.StationStatusID,
			CreatedAt:       n.now().UTC(),
		})
		if err != nil {
			return written, fmt.Errorf("notify %s: %w", profile.ID, err)
		}
		written++
	}

	n.logger.Debug("status change fanned out",
		zap.String("station_id", event.StationID),
		zap.String("fuel_type", string(event.FuelType)),
		zap.Int("notifications", written))

	return written, nil
}
