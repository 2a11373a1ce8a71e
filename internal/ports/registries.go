package ports

import (
	"context"
	"time"
	"trip-scheduler-service/internal/domain"
)

// Port: read-only view of a cooperative's fleet and its bus/driver pairing.
type FleetRegistry interface {
	// Return every bus of the cooperative with its paired driver, ordered by bus id.
	// Buses without a driver carry a zero Driver.
	ListAssignments(ctx context.Context, cooperativeID string) ([]domain.BusAssignment, error)
}

// Port: per-date bus exclusions.
type AvailabilityRegistry interface {
	ListUnavailable(ctx context.Context, cooperativeID string, from, to time.Time) ([]domain.BusUnavailability, error)
}

// Port: terminal catalog.
type TerminalRegistry interface {
	ListTerminals(ctx context.Context, cooperativeID string) ([]domain.Terminal, error)
	GetTerminal(ctx context.Context, terminalID string) (domain.Terminal, error)
}

// Port: cooperative-level scheduling parameters.
type SettingsRepository interface {
	// Returns domain.ErrNotFound when the cooperative has no stored settings.
	GetSettings(ctx context.Context, cooperativeID string) (domain.CooperativeSettings, error)
}
