package ports

import (
	"context"
	"time"
	"trip-scheduler-service/internal/domain"
)

// Port: create-or-fetch of route records keyed by terminal pair.
type RouteRepository interface {
	GetOrCreate(ctx context.Context, cooperativeID string, spec domain.RouteSpec, category domain.RouteCategory, maxStops int) (domain.Route, error)
}

// Port: durable TripInstance storage.
type TripRepository interface {
	// Delete every active trip of the cooperative together with its
	// occupancy rows. Returns the number of trips removed.
	DeleteActive(ctx context.Context, cooperativeID string) (int64, error)
	// Return the subset of keys that already belong to an active trip.
	ExistingActiveKeys(ctx context.Context, cooperativeID string, keys []domain.TripKey) (map[domain.TripKey]struct{}, error)
	// Insert a batch in a single transaction together with the departure
	// occupancy rows. Returns how many trips were inserted; conflicting
	// active keys are ignored, not failed.
	InsertBatch(ctx context.Context, trips []domain.TripInstance) (int, error)
	ListActive(ctx context.Context, cooperativeID string, from, to time.Time) ([]domain.TripInstance, error)
	Deactivate(ctx context.Context, tripID string) error
}

// Port: persisted terminal occupancy (one row per anchored departure).
type OccupancyRepository interface {
	// Return the number of anchored departures per 15-minute slot index.
	SlotCounts(ctx context.Context, terminalID string, date time.Time) (map[int]int, error)
}
