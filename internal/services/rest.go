package services

import (
	"math"
	"trip-scheduler-service/internal/domain"
)

const (
	minRestMinutes       = 15
	maxRestMinutes       = 90
	restDurationRatio    = 0.25
	configuredRestMargin = 15
)

// RestMinutes returns the turnaround rest after a leg of durationMinutes.
//
// The dynamic value is 25% of the leg clamped to [15, 90]. A configured base
// above it is honored, but never beyond dynamic + 15.
func RestMinutes(durationMinutes int, configuredBase int) int {
	dynamic := int(math.Round(float64(durationMinutes) * restDurationRatio))
	dynamic = max(minRestMinutes, min(dynamic, maxRestMinutes))

	if configuredBase > dynamic {
		return min(configuredBase, dynamic+configuredRestMargin)
	}
	return dynamic
}

// RestPolicy carries the cooperative-configured base rest per category.
type RestPolicy struct {
	BaseMinutesIntra int
	BaseMinutesInter int
}

func (p RestPolicy) RestAfter(durationMinutes int, category domain.RouteCategory) int {
	base := p.BaseMinutesInter
	if category == domain.RouteIntra {
		base = p.BaseMinutesIntra
	}
	return RestMinutes(durationMinutes, base)
}
