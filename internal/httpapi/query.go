package httpapi

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/msldiarra/sirafuel/internal/alerts"
	"github.com/msldiarra/sirafuel/internal/contracts"
	"github.com/msldiarra/sirafuel/internal/estimate"
	"github.com/msldiarra/sirafuel/internal/httpx"
	"github.com/msldiarra/sirafuel/internal/storage"
)

type QueryStore interface {
	ListActiveStations(ctx context.Context) ([]contracts.Station, error)
	GetStation(ctx context.Context, id string) (contracts.Station, error)
	ListStationStatuses(ctx context.Context, stationID string) ([]contracts.StationStatus, error)
	ActiveStatuses(ctx context.Context) (map[string][]contracts.StationStatus, error)
	ListAlerts(ctx context.Context, status contracts.AlertStatus, alertType contracts.AlertType, limit int) ([]contracts.Alert, error)
	DashboardSummary(ctx context.Context, since time.Time) (storage.DashboardSummary, error)
	ListNotifications(ctx context.Context, userID string, limit int) ([]contracts.StationUpdateNotification, error)
	MarkNotificationRead(ctx context.Context, id string) error
}

type Sweeper interface {
	Sweep(ctx context.Context) (alerts.SweepReport, error)
}

type AlertResolver interface {
	Resolve(ctx context.Context, alertID string) (contracts.Alert, error)
}

type StatusView struct {
	contracts.StationStatus
	ReliabilityBand estimate.Band `json:"reliability_band"`
}

type StationView struct {
	contracts.Station
	Statuses []StatusView `json:"statuses"`
}

func statusViews(statuses []contracts.StationStatus) []StatusView {
	views := make([]StatusView, 0, len(statuses))
	for _, s := range statuses {
		views = append(views, StatusView{StationStatus: s, ReliabilityBand: estimate.BandFor(s.ReliabilityScore)})
	}
	return views
}

func NewQueryRouter(store QueryStore, sweeper Sweeper, resolver AlertResolver, logger *zap.Logger) http.Handler {
	router := newRouter("query-api", logger)

	router.Get("/v1/stations", func(w http.ResponseWriter, r *http.Request) {
		stations, err := store.ListActiveStations(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		statuses, err := store.ActiveStatuses(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}

		items := make([]StationView, 0, len(stations))
		for _, s := range stations {
			items = append(items, StationView{Station: s, Statuses: statusViews(statuses[s.ID])})
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
	})

	router.Get("/v1/stations/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		station, err := store.GetStation(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		statuses, err := store.ListStationStatuses(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, StationView{Station: station, Statuses: statusViews(statuses)})
	})

	router.Get("/v1/alerts", func(w http.ResponseWriter, r *http.Request) {
		status := contracts.AlertStatus(r.URL.Query().Get("status"))
		alertType := contracts.AlertType(r.URL.Query().Get("type"))
		if status != "" && status != contracts.AlertOpen && status != contracts.AlertResolved {
			httpx.WriteError(w, http.StatusBadRequest, "status must be OPEN or RESOLVED")
			return
		}
		if alertType != "" && !alertType.Valid() {
			httpx.WriteError(w, http.StatusBadRequest, "unknown alert type")
			return
		}

		items, err := store.ListAlerts(r.Context(), status, alertType, parseLimit(r.URL.Query().Get("limit"), 100))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
	})

	router.Patch("/v1/alerts/{id}/resolve", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		alert, err := resolver.Resolve(r.Context(), id)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, alert)
	})

	router.Post("/v1/alerts/generate", func(w http.ResponseWriter, r *http.Request) {
		report, err := sweeper.Sweep(r.Context())
		if err != nil {
			writeError(w, logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, report)
	})

	router.Get("/v1/dashboard/summary", func(w http.ResponseWriter, r *http.Request) {
		since := time.Now().UTC().Add(-24 * time.Hour)
		summary, err := store.DashboardSummary(r.Context(), since)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, summary)
	})

	router.Get("/v1/users/{id}/notifications", func(w http.ResponseWriter, r *http.Request) {
		userID, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		items, err := store.ListNotifications(r.Context(), userID, parseLimit(r.URL.Query().Get("limit"), 10))
		if err != nil {
			writeError(w, logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
	})

	router.Patch("/v1/notifications/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		if err := store.MarkNotificationRead(r.Context(), id); err != nil {
			writeError(w, logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, map[string]any{"id": id, "is_read": true})
	})

	return router
}
