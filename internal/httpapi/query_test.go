package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/msldiarra/sirafuel/internal/alerts"
	"github.com/msldiarra/sirafuel/internal/contracts"
	"github.com/msldiarra/sirafuel/internal/storage"
)

const (
	userA      = "9b1e4f20-5c3d-4a7b-8e6f-0d1c2b3a4f5e"
	notifA     = "c4e5f6a7-1b2c-4d3e-8f9a-0b1c2d3e4f5a"
	notifGone  = "d5f6a7b8-2c3d-4e4f-9a0b-1c2d3e4f5a6b"
	alertOpen  = "e6a7b8c9-3d4e-4f5a-8b1c-2d3e4f5a6b7c"
	alertDone  = "f7b8c9d0-4e5f-4a6b-9c2d-3e4f5a6b7c8d"
	alertGone  = "08c9d0e1-5f6a-4b7c-8d3e-4f5a6b7c8d9e"
	stationOff = "19d0e1f2-6a7b-4c8d-9e4f-5a6b7c8d9e0f"
)

type fakeQueryStore struct {
	stations      map[string]contracts.Station
	statuses      map[string][]contracts.StationStatus
	alerts        []contracts.Alert
	notifications map[string][]contracts.StationUpdateNotification

	gotStatus contracts.AlertStatus
	gotType   contracts.AlertType
	gotLimit  int
}

func (f *fakeQueryStore) ListActiveStations(context.Context) ([]contracts.Station, error) {
	out := make([]contracts.Station, 0, len(f.stations))
	for _, id := range []string{stationA, stationB} {
		if s, ok := f.stations[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeQueryStore) GetStation(_ context.Context, id string) (contracts.Station, error) {
	s, ok := f.stations[id]
	if !ok {
		return contracts.Station{}, fmt.Errorf("get station %s: %w", id, contracts.ErrNotFound)
	}
	return s, nil
}

func (f *fakeQueryStore) ListStationStatuses(_ context.Context, id string) ([]contracts.StationStatus, error) {
	return f.statuses[id], nil
}

func (f *fakeQueryStore) ActiveStatuses(context.Context) (map[string][]contracts.StationStatus, error) {
	return f.statuses, nil
}

func (f *fakeQueryStore) ListAlerts(_ context.Context, status contracts.AlertStatus, alertType contracts.AlertType, limit int) ([]contracts.Alert, error) {
	f.gotStatus, f.gotType, f.gotLimit = status, alertType, limit
	return f.alerts, nil
}

func (f *fakeQueryStore) DashboardSummary(context.Context, time.Time) (storage.DashboardSummary, error) {
	return storage.DashboardSummary{ActiveStations: 2, OpenAlerts: 1}, nil
}

func (f *fakeQueryStore) ListNotifications(_ context.Context, userID string, _ int) ([]contracts.StationUpdateNotification, error) {
	return f.notifications[userID], nil
}

func (f *fakeQueryStore) MarkNotificationRead(_ context.Context, id string) error {
	for _, list := range f.notifications {
		for _, n := range list {
			if n.ID == id {
				return nil
			}
		}
	}
	return fmt.Errorf("notification %s: %w", id, contracts.ErrNotFound)
}

type fakeSweeper struct{ calls int }

func (f *fakeSweeper) Sweep(context.Context) (alerts.SweepReport, error) {
	f.calls++
	return alerts.SweepReport{StationsChecked: 2, Opened: []contracts.Alert{}}, nil
}

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, id string) (contracts.Alert, error) {
	switch id {
	case alertOpen:
		return contracts.Alert{ID: id, Status: contracts.AlertResolved}, nil
	case alertDone:
		return contracts.Alert{}, fmt.Errorf("resolve alert %s: %w", id, contracts.ErrAlreadyResolved)
	default:
		return contracts.Alert{}, fmt.Errorf("get alert %s: %w", id, contracts.ErrNotFound)
	}
}

func setupQueryRouter() (http.Handler, *fakeQueryStore, *fakeSweeper) {
	store := &fakeQueryStore{
		stations: map[string]contracts.Station{
			stationA: {ID: stationA, Name: "Total ACI 2000", IsActive: true},
			stationB: {ID: stationB, Name: "Shell Hamdallaye", IsActive: true},
		},
		statuses: map[string][]contracts.StationStatus{
			stationA: {
				{ID: "s-1", StationID: stationA, FuelType: contracts.FuelEssence, ReliabilityScore: 55},
				{ID: "s-2", StationID: stationA, FuelType: contracts.FuelGasoil, ReliabilityScore: 21},
			},
		},
		notifications: map[string][]contracts.StationUpdateNotification{
			userA: {{ID: notifA, UserID: userA, StationID: stationA}},
		},
	}
	sweeper := &fakeSweeper{}
	return NewQueryRouter(store, sweeper, fakeResolver{}, zap.NewNop()), store, sweeper
}

func TestListStations_IncludesBands(t *testing.T) {
	h, _, _ := setupQueryRouter()

	rec := do(t, h, http.MethodGet, "/v1/stations", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Items []struct {
			ID       string `json:"id"`
			Statuses []struct {
				FuelType string `json:"fuel_type"`
				Band     string `json:"reliability_band"`
			} `json:"statuses"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 2)
	require.Len(t, body.Items[0].Statuses, 2)
	assert.Equal(t, "HIGH", body.Items[0].Statuses[0].Band)
	assert.Equal(t, "MEDIUM", body.Items[0].Statuses[1].Band)
	assert.Empty(t, body.Items[1].Statuses)
}

func TestGetStation(t *testing.T) {
	h, _, _ := setupQueryRouter()

	rec := do(t, h, http.MethodGet, "/v1/stations/"+stationA, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Total ACI 2000"`)

	rec = do(t, h, http.MethodGet, "/v1/stations/"+stationOff, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/stations/missing", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAlerts_Filters(t *testing.T) {
	h, store, _ := setupQueryRouter()

	rec := do(t, h, http.MethodGet, "/v1/alerts?status=OPEN&type=HIGH_WAIT&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contracts.AlertOpen, store.gotStatus)
	assert.Equal(t, contracts.AlertHighWait, store.gotType)
	assert.Equal(t, 5, store.gotLimit)

	rec = do(t, h, http.MethodGet, "/v1/alerts?status=ACKNOWLEDGED", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/v1/alerts?type=FIRE", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveAlert(t *testing.T) {
	h, _, _ := setupQueryRouter()

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"open", alertOpen, http.StatusOK},
		{"already resolved", alertDone, http.StatusConflict},
		{"unknown", alertGone, http.StatusNotFound},
		{"malformed id", "open", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPatch, "/v1/alerts/"+tt.id+"/resolve", "")
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGenerateAlerts(t *testing.T) {
	h, _, sweeper := setupQueryRouter()

	rec := do(t, h, http.MethodPost, "/v1/alerts/generate", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, sweeper.calls)
	assert.Contains(t, rec.Body.String(), `"stations_checked":2`)
}

func TestDashboardSummary(t *testing.T) {
	h, _, _ := setupQueryRouter()

	rec := do(t, h, http.MethodGet, "/v1/dashboard/summary", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active_stations":2`)
}

func TestNotifications(t *testing.T) {
	h, _, _ := setupQueryRouter()

	rec := do(t, h, http.MethodGet, "/v1/users/"+userA+"/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"`+notifA+`"`)

	rec = do(t, h, http.MethodPatch, "/v1/notifications/"+notifA+"/read", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPatch, "/v1/notifications/"+notifGone+"/read", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotifications_MalformedIDs(t *testing.T) {
	h, _, _ := setupQueryRouter()

	rec := do(t, h, http.MethodGet, "/v1/users/user-1/notifications", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPatch, "/v1/notifications/n-1/read", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
