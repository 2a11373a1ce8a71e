package ports

import (
	"context"
	"time"
)

// Port: cache of serialized preview results.
type PreviewCache interface {
	// Returns domain.ErrNotFound on a cache miss.
	Get(ctx context.Context, cooperativeID, fingerprint string) ([]byte, error)
	Set(ctx context.Context, cooperativeID, fingerprint string, payload []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, cooperativeID string) error
}

// Port: mutual exclusion of generate runs per cooperative.
type CooperativeLocker interface {
	// Returns domain.ErrLockNotAcquired when another run holds the lock.
	Lock(ctx context.Context, cooperativeID string) (unlock func(), err error)
}

// Event emitted after a generate run.
type ScheduleRegenerated struct {
	CooperativeID string    `json:"cooperative_id"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Deleted       int64     `json:"deleted"`
	Created       int       `json:"created"`
	Skipped       int       `json:"skipped"`
	Failed        int       `json:"failed"`
	GeneratedAt   time.Time `json:"generated_at"`
}

// Port: outbound schedule events.
type EventPublisher interface {
	PublishRegenerated(ctx context.Context, event ScheduleRegenerated) error
}
