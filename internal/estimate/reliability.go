package estimate

import (
	"math"
	"sort"
	"time"

	"github.com/msldiarra/sirafuel/internal/contracts"
)

const (
	// ScoreWindow bounds both the contributions read for a score and the
	// linear decay of each contribution's weight.
	ScoreWindow = 2 * time.Hour

	maxScoredContributions = 10
	contradictionWindow    = 30 * time.Minute
	staleAfter             = time.Hour

	contradictionPenalty = 0.5
	stalenessPenalty     = 0.7
)

var sourceWeights = map[contracts.SourceType]float64{
	contracts.SourceOfficial: 10,
	contracts.SourceTrusted:  5,
	contracts.SourcePublic:   1,
}

// Score turns the contributions of one station into a trust score. Input
// order does not matter and contributions outside ScoreWindow are ignored.
func Score(contributions []contracts.Contribution, now time.Time) int {
	window := newestFirst(contributions, now.Add(-ScoreWindow))
	if len(window) == 0 {
		return 0
	}

	score := 0.0
	for i, c := range window {
		if i == maxScoredContributions {
			break
		}
		score += sourceWeight(c.SourceType) * recency(now.Sub(c.CreatedAt))
	}

	contradicted := hasContradiction(window, now, contradictionWindow)
	stale := now.Sub(window[0].CreatedAt) > staleAfter

	return int(math.Max(0, math.Round(penalize(score, contradicted, stale))))
}

// penalize applies the contradiction and staleness multipliers; they are
// independent and stack.
func penalize(score float64, contradicted, stale bool) float64 {
	if contradicted {
		score *= contradictionPenalty
	}
	if stale {
		score *= stalenessPenalty
	}
	return score
}

func sourceWeight(source contracts.SourceType) float64 {
	if w, ok := sourceWeights[source]; ok {
		return w
	}
	return 1
}

// recency decays linearly from 1 (now) to 0 (ScoreWindow old). Reports
// stamped in the future count as fresh.
func recency(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	return clamp(1-float64(age)/float64(ScoreWindow), 0, 1)
}

// hasContradiction reports whether more than one distinct fuel status was
// reported less than window ago.
func hasContradiction(contributions []contracts.Contribution, now time.Time, window time.Duration) bool {
	seen := make(map[contracts.Availability]struct{}, 3)
	for _, c := range contributions {
		if c.FuelStatus == nil || now.Sub(c.CreatedAt) >= window {
			continue
		}
		seen[*c.FuelStatus] = struct{}{}
	}
	return len(seen) > 1
}

func newestFirst(contributions []contracts.Contribution, cutoff time.Time) []contracts.Contribution {
	out := make([]contracts.Contribution, 0, len(contributions))
	for _, c := range contributions {
		if !c.CreatedAt.Before(cutoff) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

type Band string

const (
	BandHigh   Band = "HIGH"
	BandMedium Band = "MEDIUM"
	BandLow    Band = "LOW"
)

// BandFor buckets a score for display.
func BandFor(score int) Band {
	switch {
	case score >= 50:
		return BandHigh
	case score >= 20:
		return BandMedium
	default:
		return BandLow
	}
}

func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
