package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/msldiarra/sirafuel/internal/contracts"
)

// NotificationRecipients lists the profiles that follow status changes.
func (r *Repository) NotificationRecipients(ctx context.Context) ([]contracts.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, role, station_id, notifications_enabled
        FROM user_profile
        WHERE notifications_enabled
          AND role IN ('TRUSTED_REPORTER', 'ADMIN')
    `)
	if err != nil {
		return nil, fmt.Errorf("query notification recipients: %w", err)
	}
	defer rows.Close()

	var profiles []contracts.UserProfile
	for rows.Next() {
		var p contracts.UserProfile
		if err := rows.Scan(&p.ID, &p.Role, &p.StationID, &p.NotificationsEnabled); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		profiles = append(profiles, p)
	}

	return profiles, rows.Err()
}

func (r *Repository) InsertNotification(ctx context.Context, n contracts.StationUpdateNotification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO station_update_notification
            (id, user_id, station_id, station_status_id, is_read, created_at)
        VALUES
            ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (id) DO NOTHING
    `, n.ID, n.UserID, n.StationID, n.StationStatusID, n.IsRead, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", classify(err))
	}
	return nil
}

func (r *Repository) ListNotifications(ctx context.Context, userID string, limit int) ([]contracts.StationUpdateNotification, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT id, user_id, station_id, station_status_id, is_read, created_at
        FROM station_update_notification
        WHERE user_id = $1
        ORDER BY created_at DESC
        LIMIT $2
    `, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", classify(err))
	}
	defer rows.Close()

	notifications := make([]contracts.StationUpdateNotification, 0, limit)
	for rows.Next() {
		var n contracts.StationUpdateNotification
		if err := rows.Scan(&n.ID, &n.UserID, &n.StationID, &n.StationStatusID, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	return notifications, rows.Err()
}

func (r *Repository) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE station_update_notification SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("notification %s: %w", id, contracts.ErrNotFound)
	}
	return nil
}
