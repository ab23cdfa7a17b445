package contracts

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrWriteDenied     = errors.New("write denied by policy")
	ErrAlreadyResolved = errors.New("alert already resolved")
	ErrInvalidInput    = errors.New("invalid input")
)

// StatusChangedEvent is published on the change feed whenever a report
// overwrites the display state of a (station, fuel type) row.
type StatusChangedEvent struct {
	StationStatusID string       `json:"station_status_id"`
	StationID       string       `json:"station_id"`
	FuelType        FuelType     `json:"fuel_type"`
	Availability    Availability `json:"availability"`
	Source          SourceType   `json:"source"`
	ContributionID  string       `json:"contribution_id"`
	AuthorID        *string      `json:"author_id,omitempty"`
	Timestamp       time.Time    `json:"timestamp"`
}

type AlertOpenedEvent struct {
	AlertID   string    `json:"alert_id"`
	StationID string    `json:"station_id"`
	Type      AlertType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func (e StatusChangedEvent) Key() string {
	return e.StationID + "|" + string(e.FuelType)
}

func (e AlertOpenedEvent) Key() string {
	return e.StationID + "|" + string(e.Type)
}
