package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/msldiarra/sirafuel/internal/httpx"
	"github.com/msldiarra/sirafuel/internal/ingest"
)

type IngestService interface {
	Submit(ctx context.Context, sub ingest.Submission) (ingest.Receipt, error)
	Recompute(ctx context.Context, stationID string) (ingest.Recomputation, error)
}

func NewIngestRouter(svc IngestService, logger *zap.Logger) http.Handler {
	router := newRouter("ingest", logger)

	router.Post("/v1/contributions", func(w http.ResponseWriter, r *http.Request) {
		var sub ingest.Submission
		if err := httpx.DecodeJSON(w, r, &sub); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		sub.StationID = strings.TrimSpace(sub.StationID)

		receipt, err := svc.Submit(r.Context(), sub)
		if err != nil && receipt.Contribution.ID == "" {
			writeError(w, logger, err)
			return
		}
		if err != nil {
			// The report is in the log; only derived state lags.
			logger.Error("post-append processing failed",
				zap.String("station_id", sub.StationID),
				zap.String("contribution_id", receipt.Contribution.ID),
				zap.Error(err))
			receipt.Warnings = append(receipt.Warnings, "station status could not be refreshed")
		}

		httpx.WriteJSON(w, http.StatusCreated, receipt)
	})

	recompute := func(w http.ResponseWriter, r *http.Request, stationID string) {
		if stationID == "" {
			httpx.WriteError(w, http.StatusBadRequest, "station_id is required")
			return
		}
		if _, err := uuid.Parse(stationID); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, "station_id must be a valid id")
			return
		}
		rec, err := svc.Recompute(r.Context(), stationID)
		if err != nil {
			writeError(w, logger, err)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, rec)
	}

	router.Post("/v1/recompute", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			StationID string `json:"station_id"`
		}
		if err := httpx.DecodeJSON(w, r, &body); err != nil {
			httpx.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		recompute(w, r, strings.TrimSpace(body.StationID))
	})

	router.Post("/v1/stations/{id}/recompute", func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "id")
		if !ok {
			return
		}
		recompute(w, r, id)
	})

	return router
}
