package services

import (
	"math"
	"trip-scheduler-service/internal/domain"
)

// DefaultInterprovincialThresholdKm separates intra- from inter-regional routes.
const DefaultInterprovincialThresholdKm = 100.0

// Classification is the cached classifier verdict for one route.
type Classification struct {
	Category domain.RouteCategory
	MaxStops int
}

// RouteClassifier is a pure distance/duration classifier.
type RouteClassifier struct {
	thresholdKm float64
}

func NewRouteClassifier(thresholdKm float64) RouteClassifier {
	if thresholdKm <= 0 {
		thresholdKm = DefaultInterprovincialThresholdKm
	}
	return RouteClassifier{thresholdKm: thresholdKm}
}

// Classify returns INTER for distances above the threshold and, fail-safe,
// for missing or non-finite distances.
func (c RouteClassifier) Classify(distanceKm *float64) domain.RouteCategory {
	if distanceKm == nil {
		return domain.RouteInter
	}
	d := *distanceKm
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		return domain.RouteInter
	}
	if d > c.thresholdKm {
		return domain.RouteInter
	}
	return domain.RouteIntra
}

func (c RouteClassifier) ClassifyRoute(spec domain.RouteSpec) Classification {
	category := c.Classify(spec.DistanceKm)
	return Classification{
		Category: category,
		MaxStops: MaxIntermediateStops(category, spec.DurationMinutes),
	}
}

// MaxIntermediateStops is 0 for intra-regional routes; inter-regional routes
// get 1 stop up to 3h, 2 up to 6h and 3 beyond.
func MaxIntermediateStops(category domain.RouteCategory, durationMinutes int) int {
	if category != domain.RouteInter {
		return 0
	}
	switch {
	case durationMinutes <= 3*60:
		return 1
	case durationMinutes <= 6*60:
		return 2
	default:
		return 3
	}
}

// EffectiveStops applies the request flags to the classifier allowance.
// An override is clamped to [0, MaxStops].
func EffectiveStops(c Classification, allowStops bool, override *int) int {
	if !allowStops {
		return 0
	}
	if override == nil {
		return c.MaxStops
	}
	return max(0, min(*override, c.MaxStops))
}
