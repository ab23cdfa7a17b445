package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/msldiarra/sirafuel/internal/contracts"
)

const alertColumns = `id, station_id, type, status, created_at, resolved_at`

func scanAlert(row rowScanner) (contracts.Alert, error) {
	var a contracts.Alert
	err := row.Scan(&a.ID, &a.StationID, &a.Type, &a.Status, &a.CreatedAt, &a.ResolvedAt)
	return a, err
}

func (r *Repository) HasOpenAlert(ctx context.Context, stationID string, alertType contracts.AlertType) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
        SELECT EXISTS (
            SELECT 1
            FROM alert
            WHERE station_id = $1
              AND type = $2
              AND status = 'OPEN'
        )
    `, stationID, alertType).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check open alert: %w", err)
	}
	return exists, nil
}

// InsertAlert opens an alert. It reports false when the partial unique
// index already holds an open alert of that type for the station.
func (r *Repository) InsertAlert(ctx context.Context, alert contracts.Alert) (bool, error) {
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	if alert.Status == "" {
		alert.Status = contracts.AlertOpen
	}
	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx, `
        INSERT INTO alert
            (id, station_id, type, status, created_at)
        VALUES
            ($1, $2, $3, $4, $5)
        ON CONFLICT (station_id, type) WHERE status = 'OPEN' DO NOTHING
    `, alert.ID, alert.StationID, alert.Type, alert.Status, alert.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert alert: %w", classify(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert alert rows affected: %w", err)
	}
	return n == 1, nil
}

func (r *Repository) GetAlert(ctx context.Context, id string) (contracts.Alert, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+alertColumns+` FROM alert WHERE id = $1`, id)
	a, err := scanAlert(row)
	if err != nil {
		return contracts.Alert{}, fmt.Errorf("get alert %s: %w", id, classify(err))
	}
	return a, nil
}

func (r *Repository) ListAlerts(ctx context.Context, status contracts.AlertStatus, alertType contracts.AlertType, limit int) ([]contracts.Alert, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
        SELECT `+alertColumns+`
        FROM alert
        WHERE ($1 = '' OR status = $1)
          AND ($2 = '' OR type = $2)
        ORDER BY created_at DESC
        LIMIT $3
    `, string(status), string(alertType), limit)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]contracts.Alert, 0, limit)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// ResolveAlert moves an OPEN alert to RESOLVED. Unknown ids yield
// ErrNotFound and already resolved alerts ErrAlreadyResolved.
func (r *Repository) ResolveAlert(ctx context.Context, id string, at time.Time) (contracts.Alert, error) {
	row := r.db.QueryRowContext(ctx, `
        UPDATE alert
        SET status = 'RESOLVED',
            resolved_at = $2
        WHERE id = $1
          AND status = 'OPEN'
        RETURNING `+alertColumns, id, at)

	a, err := scanAlert(row)
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return contracts.Alert{}, fmt.Errorf("resolve alert %s: %w", id, classify(err))
	}

	if _, err := r.GetAlert(ctx, id); err != nil {
		return contracts.Alert{}, err
	}
	return contracts.Alert{}, fmt.Errorf("resolve alert %s: %w", id, contracts.ErrAlreadyResolved)
}

type DashboardSummary struct {
	ActiveStations          int     `json:"active_stations"`
	OpenAlerts              int     `json:"open_alerts"`
	OpenNoUpdate            int     `json:"open_no_update"`
	OpenHighWait            int     `json:"open_high_wait"`
	OpenContradiction       int     `json:"open_contradiction"`
	ResolvedSince           int     `json:"resolved_since"`
	ContributionsSince      int     `json:"contributions_since"`
	AvgReliabilityScore     float64 `json:"avg_reliability_score"`
	StationsWithoutStatuses int     `json:"stations_without_status"`
}

func (r *Repository) DashboardSummary(ctx context.Context, since time.Time) (DashboardSummary, error) {
	var summary DashboardSummary
	err := r.db.QueryRowContext(ctx, `
        SELECT
            (SELECT COUNT(*) FROM station WHERE is_active) AS active_stations,
            COUNT(*) FILTER (WHERE status = 'OPEN') AS open_alerts,
            COUNT(*) FILTER (WHERE status = 'OPEN' AND type = 'NO_UPDATE') AS open_no_update,
            COUNT(*) FILTER (WHERE status = 'OPEN' AND type = 'HIGH_WAIT') AS open_high_wait,
            COUNT(*) FILTER (WHERE status = 'OPEN' AND type = 'CONTRADICTION') AS open_contradiction,
            COUNT(*) FILTER (WHERE status = 'RESOLVED' AND resolved_at >= $1) AS resolved_since,
            (SELECT COUNT(*) FROM contribution WHERE created_at >= $1) AS contributions_since,
            COALESCE((SELECT AVG(reliability_score) FROM station_status), 0)::float8 AS avg_reliability_score,
            (SELECT COUNT(*) FROM station s
              WHERE s.is_active
                AND NOT EXISTS (SELECT 1 FROM station_status ss WHERE ss.station_id = s.id)) AS stations_without_status
        FROM alert
    `, since).Scan(
		&summary.ActiveStations,
		&summary.OpenAlerts,
		&summary.OpenNoUpdate,
		&summary.OpenHighWait,
		&summary.OpenContradiction,
		&summary.ResolvedSince,
		&summary.ContributionsSince,
		&summary.AvgReliabilityScore,
		&summary.StationsWithoutStatuses,
	)
	if err != nil {
		return DashboardSummary{}, fmt.Errorf("dashboard summary: %w", err)
	}
	return summary, nil
}
