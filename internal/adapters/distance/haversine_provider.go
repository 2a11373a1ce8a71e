package distance

import (
	"context"
	"fmt"
	"math"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/ports"
)

const (
	defaultAverageSpeedKmh = 60.0
	defaultRoadFactor      = 1.3
)

// HaversineProvider estimates road distance as the great-circle distance
// scaled by a road factor, and duration at a constant average speed. It needs
// no network and never fails for terminals with coordinates.
type HaversineProvider struct {
	averageSpeedKmh float64
	roadFactor      float64
}

func NewHaversineProvider(averageSpeedKmh, roadFactor float64) *HaversineProvider {
	if averageSpeedKmh <= 0 {
		averageSpeedKmh = defaultAverageSpeedKmh
	}
	if roadFactor < 1 {
		roadFactor = defaultRoadFactor
	}
	return &HaversineProvider{averageSpeedKmh: averageSpeedKmh, roadFactor: roadFactor}
}

func (p *HaversineProvider) GetDistance(_ context.Context, origin, destination domain.Terminal) (ports.DistanceResult, error) {
	if origin.Location.IsZero() || destination.Location.IsZero() {
		return ports.DistanceResult{}, fmt.Errorf("haversine %s -> %s: missing coordinates", origin.TerminalID, destination.TerminalID)
	}

	km := origin.Location.HaversineKm(destination.Location) * p.roadFactor
	hours := km / p.averageSpeedKmh

	return ports.DistanceResult{
		DistanceMeters:  int(math.Round(km * 1000)),
		DurationSeconds: int(hours * 3600),
	}, nil
}
