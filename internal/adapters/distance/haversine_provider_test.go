package distance

import (
	"context"
	"testing"
	"trip-scheduler-service/internal/domain"
)

func TestHaversineProviderGetDistance(t *testing.T) {
	p := NewHaversineProvider(60, 1)

	// One degree of latitude is ~111.2 km.
	a := domain.Terminal{TerminalID: "A", Location: domain.Coordinates{Lon: -77.0, Lat: -12.0}}
	b := domain.Terminal{TerminalID: "B", Location: domain.Coordinates{Lon: -77.0, Lat: -11.0}}

	r, err := p.GetDistance(context.Background(), a, b)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.DistanceMeters < 111000 || r.DistanceMeters > 111400 {
		t.Fatalf("distance = %d, want ~111195", r.DistanceMeters)
	}
	// 111.2 km at 60 km/h is ~111 minutes.
	if mins := r.DurationSeconds / 60; mins < 110 || mins > 112 {
		t.Fatalf("duration = %d min, want ~111", mins)
	}
}

func TestHaversineProviderAppliesRoadFactor(t *testing.T) {
	a := domain.Terminal{TerminalID: "A", Location: domain.Coordinates{Lon: -77.0, Lat: -12.0}}
	b := domain.Terminal{TerminalID: "B", Location: domain.Coordinates{Lon: -77.0, Lat: -11.0}}

	straight, _ := NewHaversineProvider(60, 1).GetDistance(context.Background(), a, b)
	road, _ := NewHaversineProvider(60, 1.3).GetDistance(context.Background(), a, b)

	if road.DistanceMeters <= straight.DistanceMeters {
		t.Fatalf("road distance %d should exceed straight %d", road.DistanceMeters, straight.DistanceMeters)
	}
}

func TestHaversineProviderMissingCoordinates(t *testing.T) {
	p := NewHaversineProvider(0, 0)

	_, err := p.GetDistance(context.Background(),
		domain.Terminal{TerminalID: "A"},
		domain.Terminal{TerminalID: "B", Location: domain.Coordinates{Lon: 1, Lat: 1}},
	)
	if err == nil {
		t.Fatalf("expected error for terminal without coordinates")
	}
}
