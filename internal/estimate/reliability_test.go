package estimate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/msldiarra/sirafuel/internal/contracts"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func report(source contracts.SourceType, age time.Duration, status *contracts.Availability) contracts.Contribution {
	return contracts.Contribution{
		StationID:  "station-1",
		SourceType: source,
		FuelStatus: status,
		CreatedAt:  fixedNow.Add(-age),
	}
}

func availability(a contracts.Availability) *contracts.Availability { return &a }

func TestScore_EmptyWindow(t *testing.T) {
	assert.Equal(t, 0, Score(nil, fixedNow))

	old := []contracts.Contribution{
		report(contracts.SourceOfficial, 3*time.Hour, nil),
		report(contracts.SourceOfficial, 2*time.Hour+time.Second, nil),
	}
	assert.Equal(t, 0, Score(old, fixedNow))
}

func TestScore_SourceWeights(t *testing.T) {
	tests := []struct {
		name   string
		source contracts.SourceType
		want   int
	}{
		{"official", contracts.SourceOfficial, 10},
		{"trusted", contracts.SourceTrusted, 5},
		{"public", contracts.SourcePublic, 1},
		{"unknown source falls back to one", contracts.SourceType("PARTNER"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score([]contracts.Contribution{report(tt.source, 0, nil)}, fixedNow)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScore_LinearDecay(t *testing.T) {
	// 10 * (1 - 30/120) = 7.5 -> 8
	assert.Equal(t, 8, Score([]contracts.Contribution{report(contracts.SourceOfficial, 30*time.Minute, nil)}, fixedNow))

	// 10 * (1 - 60/120) = 5, not yet stale
	assert.Equal(t, 5, Score([]contracts.Contribution{report(contracts.SourceOfficial, time.Hour, nil)}, fixedNow))

	// exactly at the window edge the contribution weighs nothing
	assert.Equal(t, 0, Score([]contracts.Contribution{report(contracts.SourceOfficial, ScoreWindow, nil)}, fixedNow))
}

func TestScore_FutureTimestampCountsAsFresh(t *testing.T) {
	got := Score([]contracts.Contribution{report(contracts.SourceTrusted, -5*time.Minute, nil)}, fixedNow)
	assert.Equal(t, 5, got)
}

func TestScore_OnlyTenNewestContribute(t *testing.T) {
	contributions := make([]contracts.Contribution, 0, 15)
	for i := 0; i < 10; i++ {
		contributions = append(contributions, report(contracts.SourcePublic, 0, nil))
	}
	for i := 0; i < 5; i++ {
		contributions = append(contributions, report(contracts.SourceOfficial, 10*time.Minute, nil))
	}

	assert.Equal(t, 10, Score(contributions, fixedNow))
}

func TestScore_ContradictionHalvesScore(t *testing.T) {
	agreeing := []contracts.Contribution{
		report(contracts.SourceOfficial, 0, availability(contracts.AvailabilityOut)),
		report(contracts.SourceOfficial, 0, availability(contracts.AvailabilityOut)),
	}
	conflicting := []contracts.Contribution{
		report(contracts.SourceOfficial, 0, availability(contracts.AvailabilityOut)),
		report(contracts.SourceOfficial, 0, availability(contracts.AvailabilityAvailable)),
	}

	base := Score(agreeing, fixedNow)
	assert.Equal(t, 20, base)
	assert.Equal(t, base/2, Score(conflicting, fixedNow))
}

func TestScore_ContradictionWindowIsThirtyMinutes(t *testing.T) {
	contributions := []contracts.Contribution{
		report(contracts.SourceOfficial, 0, availability(contracts.AvailabilityOut)),
		report(contracts.SourceOfficial, 30*time.Minute, availability(contracts.AvailabilityAvailable)),
	}

	// 10 + 10*0.75 = 17.5 -> 18, the older report is outside the 30 minute window
	assert.Equal(t, 18, Score(contributions, fixedNow))
}

func TestScore_NullStatusesDoNotContradict(t *testing.T) {
	contributions := []contracts.Contribution{
		report(contracts.SourceTrusted, 0, availability(contracts.AvailabilityLimited)),
		report(contracts.SourceTrusted, 0, nil),
	}
	assert.Equal(t, 10, Score(contributions, fixedNow))
}

func TestScore_StalenessPenalty(t *testing.T) {
	// 10 * (1 - 75/120) = 3.75, stale: * 0.7 = 2.625 -> 3
	got := Score([]contracts.Contribution{report(contracts.SourceOfficial, 75*time.Minute, nil)}, fixedNow)
	assert.Equal(t, 3, got)
}

func TestPenalize(t *testing.T) {
	assert.InDelta(t, 20.0, penalize(20, false, false), 1e-9)
	assert.InDelta(t, 10.0, penalize(20, true, false), 1e-9)
	assert.InDelta(t, 14.0, penalize(20, false, true), 1e-9)
	assert.InDelta(t, 7.0, penalize(20, true, true), 1e-9)
}

func TestScore_StaleJustPastOneHour(t *testing.T) {
	// 10 * (1 - 61/120) = 4.92, stale: * 0.7 = 3.44 -> 3
	got := Score([]contracts.Contribution{report(contracts.SourceOfficial, 61*time.Minute, nil)}, fixedNow)
	assert.Equal(t, 3, got)
}

func TestScore_UnsortedInput(t *testing.T) {
	sorted := []contracts.Contribution{
		report(contracts.SourceOfficial, 5*time.Minute, nil),
		report(contracts.SourcePublic, 70*time.Minute, nil),
	}
	reversed := []contracts.Contribution{sorted[1], sorted[0]}

	assert.Equal(t, Score(sorted, fixedNow), Score(reversed, fixedNow))
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, BandHigh, BandFor(50))
	assert.Equal(t, BandHigh, BandFor(120))
	assert.Equal(t, BandMedium, BandFor(49))
	assert.Equal(t, BandMedium, BandFor(20))
	assert.Equal(t, BandLow, BandFor(19))
	assert.Equal(t, BandLow, BandFor(0))
}
