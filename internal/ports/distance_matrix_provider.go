package ports

import (
	"context"
	"trip-scheduler-service/internal/domain"
)

// Optional extension of DistanceProvider that supports batched lookups.
type DistanceMatrixProvider interface {
	DistanceProvider
	// Return distances from one origin to many destinations, keyed by terminal id.
	GetDistances(ctx context.Context, origin domain.Terminal, destinations []domain.Terminal) (map[string]DistanceResult, error)
}
