package ports

import (
	"context"
	"trip-scheduler-service/internal/domain"
)

// Distance and travel duration between two terminals.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Contract for estimating travel distance and duration between terminals.
type DistanceProvider interface {
	// Return travel distance and estimated duration between two terminals.
	GetDistance(ctx context.Context, origin, destination domain.Terminal) (DistanceResult, error)
}
