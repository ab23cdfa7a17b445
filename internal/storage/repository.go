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

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

const statusColumns = `id, station_id, fuel_type, availability, pumps_active, waiting_time_min, waiting_time_max, reliability_score, last_update_source, updated_at`

func scanStatus(row rowScanner) (contracts.StationStatus, error) {
	var s contracts.StationStatus
	err := row.Scan(
		&s.ID,
		&s.StationID,
		&s.FuelType,
		&s.Availability,
		&s.PumpsActive,
		&s.WaitingTimeMin,
		&s.WaitingTimeMax,
		&s.ReliabilityScore,
		&s.LastUpdateSource,
		&s.UpdatedAt,
	)
	return s, err
}

func (r *Repository) InsertContribution(ctx context.Context, c contracts.Contribution) (contracts.Contribution, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO contribution
            (id, station_id, user_id, source_type, queue_category, fuel_status, photo_url, created_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8)
    `, c.ID, c.StationID, c.UserID, c.SourceType, c.QueueCategory, c.FuelStatus, c.PhotoURL, c.CreatedAt)
	if err != nil {
		return contracts.Contribution{}, fmt.Errorf("insert contribution: %w", classify(err))
	}

	return c, nil
}

func (r *Repository) RecentQueueCategories(ctx context.Context, stationID string, limit int) ([]contracts.QueueCategory, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT queue_category
        FROM contribution
        WHERE station_id = $1
          AND queue_category IS NOT NULL
        ORDER BY created_at DESC
        LIMIT $2
    `, stationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query queue categories: %w", err)
	}
	defer rows.Close()

	categories := make([]contracts.QueueCategory, 0, limit)
	for rows.Next() {
		var q contracts.QueueCategory
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan queue category: %w", err)
		}
		categories = append(categories, q)
	}

	return categories, rows.Err()
}

func (r *Repository) ContributionsSince(ctx context.Context, stationID string, since time.Time) ([]contracts.Contribution, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, station_id, user_id, source_type, queue_category, fuel_status, photo_url, created_at
        FROM contribution
        WHERE station_id = $1
          AND created_at >= $2
        ORDER BY created_at DESC
    `, stationID, since)
	if err != nil {
		return nil, fmt.Errorf("query contributions: %w", classify(err))
	}
	defer rows.Close()

	contributions := make([]contracts.Contribution, 0, 16)
	for rows.Next() {
		var c contracts.Contribution
		if err := rows.Scan(
			&c.ID,
			&c.StationID,
			&c.UserID,
			&c.SourceType,
			&c.QueueCategory,
			&c.FuelStatus,
			&c.PhotoURL,
			&c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan contribution: %w", err)
		}
		contributions = append(contributions, c)
	}

	return contributions, rows.Err()
}

func (r *Repository) FuelStatusesSince(ctx context.Context, stationID string, since time.Time) ([]contracts.Availability, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT fuel_status
        FROM contribution
        WHERE station_id = $1
          AND created_at >= $2
          AND fuel_status IS NOT NULL
    `, stationID, since)
	if err != nil {
		return nil, fmt.Errorf("query fuel statuses: %w", classify(err))
	}
	defer rows.Close()

	var statuses []contracts.Availability
	for rows.Next() {
		var a contracts.Availability
		if err := rows.Scan(&a); err != nil {
			return nil, fmt.Errorf("scan fuel status: %w", err)
		}
		statuses = append(statuses, a)
	}

	return statuses, rows.Err()
}

func (r *Repository) ListActiveStations(ctx context.Context) ([]contracts.Station, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, brand, municipality, neighborhood, latitude, longitude, is_active, created_at, updated_at
        FROM station
        WHERE is_active
        ORDER BY name ASC
    `)
	if err != nil {
		return nil, fmt.Errorf("query active stations: %w", err)
	}
	defer rows.Close()

	stations := make([]contracts.Station, 0, 64)
	for rows.Next() {
		s, err := scanStation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, s)
	}

	return stations, rows.Err()
}

func (r *Repository) GetStation(ctx context.Context, id string) (contracts.Station, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, brand, municipality, neighborhood, latitude, longitude, is_active, created_at, updated_at
        FROM station
        WHERE id = $1
    `, id)
	s, err := scanStation(row)
	if err != nil {
		return contracts.Station{}, fmt.Errorf("get station %s: %w", id, classify(err))
	}
	return s, nil
}

func scanStation(row rowScanner) (contracts.Station, error) {
	var s contracts.Station
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Brand,
		&s.Municipality,
		&s.Neighborhood,
		&s.Latitude,
		&s.Longitude,
		&s.IsActive,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

// UpsertStationStatus overwrites the display fields of the (station, fuel
// type) row in one statement, creating the row when missing. Derived
// fields of an existing row are left untouched.
func (r *Repository) UpsertStationStatus(ctx context.Context, u contracts.StatusUpdate) (contracts.StationStatus, error) {
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = time.Now().UTC()
	}

	row := r.db.QueryRowContext(ctx, `
        INSERT INTO station_status
            (id, station_id, fuel_type, availability, last_update_source, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (station_id, fuel_type) DO UPDATE
        SET availability = EXCLUDED.availability,
            last_update_source = EXCLUDED.last_update_source,
            updated_at = EXCLUDED.updated_at
        RETURNING `+statusColumns,
		uuid.NewString(), u.StationID, u.FuelType, u.Availability, u.Source, u.UpdatedAt)

	status, err := scanStatus(row)
	if err != nil {
		return contracts.StationStatus{}, fmt.Errorf("upsert station status %s/%s: %w", u.StationID, u.FuelType, classify(err))
	}
	return status, nil
}

// UpdateDerivedFields writes the recomputed waiting time and score onto
// every status row of the station and reports how many rows changed.
func (r *Repository) UpdateDerivedFields(ctx context.Context, stationID string, waitMin, waitMax *int, score int) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
        UPDATE station_status
        SET waiting_time_min = $2,
            waiting_time_max = $3,
            reliability_score = $4
        WHERE station_id = $1
    `, stationID, waitMin, waitMax, score)
	if err != nil {
		return 0, fmt.Errorf("update derived fields: %w", classify(err))
	}
	return res.RowsAffected()
}

// LatestStatus returns the most recently updated status row of the
// station across fuel types, or nil when the station has none.
func (r *Repository) LatestStatus(ctx context.Context, stationID string) (*contracts.StationStatus, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT `+statusColumns+`
        FROM station_status
        WHERE station_id = $1
        ORDER BY updated_at DESC
        LIMIT 1
    `, stationID)

	status, err := scanStatus(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest station status: %w", classify(err))
	}
	return &status, nil
}

func (r *Repository) LatestPumpsActive(ctx context.Context, stationID string) (*int, error) {
	status, err := r.LatestStatus(ctx, stationID)
	if err != nil || status == nil {
		return nil, err
	}
	return status.PumpsActive, nil
}

func (r *Repository) ListStationStatuses(ctx context.Context, stationID string) ([]contracts.StationStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT `+statusColumns+`
        FROM station_status
        WHERE station_id = $1
        ORDER BY fuel_type ASC
    `, stationID)
	if err != nil {
		return nil, fmt.Errorf("query station statuses: %w", classify(err))
	}
	defer rows.Close()

	statuses := make([]contracts.StationStatus, 0, len(contracts.AllFuelTypes))
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station status: %w", err)
		}
		statuses = append(statuses, s)
	}

	return statuses, rows.Err()
}

// ActiveStatuses returns the status rows of every active station keyed by
// station id.
func (r *Repository) ActiveStatuses(ctx context.Context) (map[string][]contracts.StationStatus, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT ss.id, ss.station_id, ss.fuel_type, ss.availability, ss.pumps_active, ss.waiting_time_min,
               ss.waiting_time_max, ss.reliability_score, ss.last_update_source, ss.updated_at
        FROM station_status ss
        JOIN station s ON s.id = ss.station_id
        WHERE s.is_active
        ORDER BY ss.station_id, ss.fuel_type
    `)
	if err != nil {
		return nil, fmt.Errorf("query active statuses: %w", err)
	}
	defer rows.Close()

	byStation := make(map[string][]contracts.StationStatus)
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, fmt.Errorf("scan station status: %w", err)
		}
		byStation[s.StationID] = append(byStation[s.StationID], s)
	}

	return byStation, rows.Err()
}

func (r *Repository) UserRole(ctx context.Context, userID string) (contracts.UserRole, error) {
	var role contracts.UserRole
	err := r.db.QueryRowContext(ctx, `SELECT role FROM user_profile WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		return "", fmt.Errorf("user role %s: %w", userID, classify(err))
	}
	return role, nil
}
