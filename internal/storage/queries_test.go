package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msldiarra/sirafuel/internal/contracts"
)

var stationCols = []string{
	"id", "name", "brand", "municipality", "neighborhood", "latitude", "longitude", "is_active", "created_at", "updated_at",
}

func TestFuelStatusesSince(t *testing.T) {
	db, mock, repo := setupMockRepository(t)
	defer db.Close()

	since := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT fuel_status\s+FROM contribution\s+WHERE station_id = \$1\s+AND created_at >= \$2\s+AND fuel_status IS NOT NULL`).
		WithArgs("station-1", since).
		WillReturnRows(sqlmock.NewRows([]string{"fuel_status"}).
			AddRow("OUT").
			AddRow("AVAILABLE"))

	got, err := repo.FuelStatusesSince(context.Background(), "station-1", since)

	require.NoError(t, err)
	assert.Equal(t, []contracts.Availability{contracts.AvailabilityOut, contracts.AvailabilityAvailable}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListActiveStations(t *testing.T) {
	db, mock, repo := setupMockRepository(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM station\s+WHERE is_active\s+ORDER BY name ASC`).
		WillReturnRows(sqlmock.NewRows(stationCols).
			AddRow("station-2", "Shell Hamdallaye", "Shell", "Commune IV", "Hamdallaye", 12.6392, -8.0029, true, now, now).
			AddRow("station-1", "Total ACI 2000", nil, "Commune IV", "ACI 2000", 12.6251, -8.0232, true, now, now))

	got, err := repo.ListActiveStations(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Shell Hamdallaye", got[0].Name)
	require.NotNil(t, got[0].Brand)
	assert.Equal(t, "Shell", *got[0].Brand)
	assert.Nil(t, got[1].Brand)
	assert.True(t, got[1].IsActive)
	assert.InDelta(t, -8.0232, got[1].Longitude, 1e-9)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActiveStatuses_GroupsByStation(t *testing.T) {
	db, mock, repo := setupMockRepository(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(`FROM station_status ss\s+JOIN station s ON s.id = ss.station_id\s+WHERE s.is_active`).
		WillReturnRows(sqlmock.NewRows(statusCols).
			AddRow("status-1", "station-1", "ESSENCE", "AVAILABLE", 3, 15, 30, 55, "OFFICIAL", now).
			AddRow("status-2", "station-1", "GASOIL", "LIMITED", nil, nil, nil, 12, "PUBLIC", now).
			AddRow("status-3", "station-2", "GASOIL", "OUT", nil, nil, nil, 0, "TRUSTED", now))

	got, err := repo.ActiveStatuses(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Len(t, got["station-1"], 2)
	require.Len(t, got["station-2"], 1)
	require.NotNil(t, got["station-1"][0].PumpsActive)
	assert.Equal(t, 3, *got["station-1"][0].PumpsActive)
	assert.Equal(t, contracts.FuelGasoil, got["station-1"][1].FuelType)
	assert.Equal(t, contracts.AvailabilityOut, got["station-2"][0].Availability)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardSummary(t *testing.T) {
	db, mock, repo := setupMockRepository(t)
	defer db.Close()

	since := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT\s+\(SELECT COUNT\(\*\) FROM station WHERE is_active\) AS active_stations`).
		WithArgs(since).
		WillReturnRows(sqlmock.NewRows([]string{
			"active_stations", "open_alerts", "open_no_update", "open_high_wait", "open_contradiction",
			"resolved_since", "contributions_since", "avg_reliability_score", "stations_without_status",
		}).AddRow(12, 5, 2, 1, 2, 7, 140, 38.5, 3))

	got, err := repo.DashboardSummary(context.Background(), since)

	require.NoError(t, err)
	assert.Equal(t, DashboardSummary{
		ActiveStations:          12,
		OpenAlerts:              5,
		OpenNoUpdate:            2,
		OpenHighWait:            1,
		OpenContradiction:       2,
		ResolvedSince:           7,
		ContributionsSince:      140,
		AvgReliabilityScore:     38.5,
		StationsWithoutStatuses: 3,
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardSummary_QueryFailure(t *testing.T) {
	db, mock, repo := setupMockRepository(t)
	defer db.Close()

	mock.ExpectQuery(`FROM alert`).WillReturnError(errors.New("connection reset"))

	_, err := repo.DashboardSummary(context.Background(), time.Now())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "dashboard summary")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassify_SQLStates(t *testing.T) {
	tests := []struct {
		name string
		code string
		want error
	}{
		{"policy rejection", "42501", contracts.ErrWriteDenied},
		{"malformed literal", "22P02", contracts.ErrInvalidInput},
		{"missing reference", "23503", contracts.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(&pgconn.PgError{Code: tt.code, Message: "rejected"})
			assert.ErrorIs(t, err, tt.want)
		})
	}

	plain := &pgconn.PgError{Code: "53300"}
	assert.Same(t, plain, classify(plain))
}

func TestInsertContribution_UnknownStation(t *testing.T) {
	db, mock, repo := setupMockRepository(t)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO contribution`).
		WillReturnError(&pgconn.PgError{Code: "23503", Message: `insert or update on table "contribution" violates foreign key constraint`})

	_, err := repo.InsertContribution(context.Background(), contracts.Contribution{StationID: "station-1", SourceType: contracts.SourcePublic})

	assert.ErrorIs(t, err, contracts.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListNotifications_MalformedUserID(t *testing.T) {
	db, mock, repo := setupMockRepository(t)
	defer db.Close()

	mock.ExpectQuery(`FROM station_update_notification`).
		WillReturnError(&pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "user-1"`})

	_, err := repo.ListNotifications(context.Background(), "user-1", 10)

	assert.ErrorIs(t, err, contracts.ErrInvalidInput)
	require.NoError(t, mock.ExpectationsWereMet())
}
