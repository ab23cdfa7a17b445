package estimate

import (
	"math"

	"github.com/msldiarra/sirafuel/internal/contracts"
)

const (
	// QueueLookback is how many queue reports are fetched. Only the newest
	// one drives the estimate.
	QueueLookback = 5

	minutesPerVehicle = 3
)

var vehiclesByQueue = map[contracts.QueueCategory][2]int{
	contracts.Queue0To10:  {0, 3},
	contracts.Queue10To30: {3, 10},
	contracts.Queue30To60: {10, 20},
	contracts.Queue60Plus: {20, 50},
}

// Range is a waiting time estimate in minutes. Nil bounds mean unknown,
// never zero.
type Range struct {
	Min *int `json:"min"`
	Max *int `json:"max"`
}

func (r Range) Known() bool {
	return r.Min != nil && r.Max != nil
}

// WaitingTimeFor estimates the wait from queue categories ordered newest
// first and the number of pumps serving. A missing or non-positive pump
// count means a single pump.
func WaitingTimeFor(categories []contracts.QueueCategory, pumpsActive *int) Range {
	if len(categories) == 0 {
		return Range{}
	}
	vehicles, ok := vehiclesByQueue[categories[0]]
	if !ok {
		return Range{}
	}

	pumps := 1
	if pumpsActive != nil && *pumpsActive > 0 {
		pumps = *pumpsActive
	}

	lo := waitMinutes(vehicles[0], pumps)
	hi := waitMinutes(vehicles[1], pumps)
	return Range{Min: &lo, Max: &hi}
}

func waitMinutes(vehicles, pumps int) int {
	return int(math.Floor(float64(vehicles) / float64(pumps) * minutesPerVehicle))
}
