package contracts

import "time"

type FuelType string

const (
	FuelEssence FuelType = "ESSENCE"
	FuelGasoil  FuelType = "GASOIL"
)

// AllFuelTypes is the set of fuel types a report without an explicit
// selection applies to.
var AllFuelTypes = []FuelType{FuelEssence, FuelGasoil}

func (f FuelType) Valid() bool {
	return f == FuelEssence || f == FuelGasoil
}

type Availability string

const (
	AvailabilityAvailable Availability = "AVAILABLE"
	AvailabilityLimited   Availability = "LIMITED"
	AvailabilityOut       Availability = "OUT"
)

func (a Availability) Valid() bool {
	switch a {
	case AvailabilityAvailable, AvailabilityLimited, AvailabilityOut:
		return true
	default:
		return false
	}
}

type SourceType string

const (
	SourceOfficial SourceType = "OFFICIAL"
	SourceTrusted  SourceType = "TRUSTED"
	SourcePublic   SourceType = "PUBLIC"
)

func (s SourceType) Valid() bool {
	switch s {
	case SourceOfficial, SourceTrusted, SourcePublic:
		return true
	default:
		return false
	}
}

type QueueCategory string

const (
	Queue0To10  QueueCategory = "Q_0_10"
	Queue10To30 QueueCategory = "Q_10_30"
	Queue30To60 QueueCategory = "Q_30_60"
	Queue60Plus QueueCategory = "Q_60_PLUS"
)

func (q QueueCategory) Valid() bool {
	switch q {
	case Queue0To10, Queue10To30, Queue30To60, Queue60Plus:
		return true
	default:
		return false
	}
}

type UserRole string

const (
	RolePublic          UserRole = "PUBLIC"
	RoleStationManager  UserRole = "STATION_MANAGER"
	RoleTrustedReporter UserRole = "TRUSTED_REPORTER"
	RoleAdmin           UserRole = "ADMIN"
)

// SourceForRole maps a reporter's role to the trust tier of what they submit.
func SourceForRole(role UserRole) SourceType {
	switch role {
	case RoleStationManager:
		return SourceOfficial
	case RoleTrustedReporter:
		return SourceTrusted
	default:
		return SourcePublic
	}
}

type Station struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Brand        *string   `json:"brand,omitempty"`
	Municipality string    `json:"municipality"`
	Neighborhood string    `json:"neighborhood"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type StationStatus struct {
	ID               string       `json:"id"`
	StationID        string       `json:"station_id"`
	FuelType         FuelType     `json:"fuel_type"`
	Availability     Availability `json:"availability"`
	PumpsActive      *int         `json:"pumps_active"`
	WaitingTimeMin   *int         `json:"waiting_time_min"`
	WaitingTimeMax   *int         `json:"waiting_time_max"`
	ReliabilityScore int          `json:"reliability_score"`
	LastUpdateSource SourceType   `json:"last_update_source"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// StatusUpdate carries the display fields a report overwrites on a
// (station, fuel type) row. Derived fields are never part of it.
type StatusUpdate struct {
	StationID    string
	FuelType     FuelType
	Availability Availability
	Source       SourceType
	UpdatedAt    time.Time
}

type Contribution struct {
	ID            string         `json:"id"`
	StationID     string         `json:"station_id"`
	UserID        *string        `json:"user_id"`
	SourceType    SourceType     `json:"source_type"`
	QueueCategory *QueueCategory `json:"queue_category"`
	FuelStatus    *Availability  `json:"fuel_status"`
	PhotoURL      *string        `json:"photo_url,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

type AlertType string

const (
	AlertNoUpdate      AlertType = "NO_UPDATE"
	AlertHighWait      AlertType = "HIGH_WAIT"
	AlertContradiction AlertType = "CONTRADICTION"
)

func (t AlertType) Valid() bool {
	switch t {
	case AlertNoUpdate, AlertHighWait, AlertContradiction:
		return true
	default:
		return false
	}
}

type AlertStatus string

const (
	AlertOpen     AlertStatus = "OPEN"
	AlertResolved AlertStatus = "RESOLVED"
)

type Alert struct {
	ID         string      `json:"id"`
	StationID  string      `json:"station_id"`
	Type       AlertType   `json:"type"`
	Status     AlertStatus `json:"status"`
	CreatedAt  time.Time   `json:"created_at"`
	ResolvedAt *time.Time  `json:"resolved_at,omitempty"`
}

type UserProfile struct {
	ID                   string   `json:"id"`
	Role                 UserRole `json:"role"`
	StationID            *string  `json:"station_id,omitempty"`
	NotificationsEnabled bool     `json:"notifications_enabled"`
}

type StationUpdateNotification struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	StationID       string    `json:"station_id"`
	StationStatusID string    `json:"station_status_id"`
	IsRead          bool      `json:"is_read"`
	CreatedAt       time.Time `json:"created_at"`
}
