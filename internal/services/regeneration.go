package services

import (
	"context"
	"fmt"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/platform/obs"
	"trip-scheduler-service/internal/ports"

	"go.uber.org/zap"
)

// DefaultBatchSize bounds the trips written per transaction.
const DefaultBatchSize = 50

// GenerationSummary reports what a regeneration did.
type GenerationSummary struct {
	Deleted  int64
	Created  int
	Skipped  int
	Failed   int
	Messages []string
}

// RegenerationManager replaces a cooperative's active trips with a freshly
// scheduled set.
//
// Deletion runs first and is all-or-nothing. Inserts are batched and each
// batch commits on its own: a failed batch is counted and earlier batches
// stay committed.
type RegenerationManager struct {
	log       *zap.Logger
	routes    ports.RouteRepository
	trips     ports.TripRepository
	batchSize int
}

func NewRegenerationManager(log *zap.Logger, routes ports.RouteRepository, trips ports.TripRepository, batchSize int) *RegenerationManager {
	if log == nil {
		log = zap.NewNop()
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &RegenerationManager{
		log:       log,
		routes:    routes,
		trips:     trips,
		batchSize: batchSize,
	}
}

type terminalPair struct {
	origin, destination string
}

// Regenerate deletes the cooperative's active trips and persists trips.
func (m *RegenerationManager) Regenerate(ctx context.Context, cooperativeID string, trips []domain.TripInstance) (summary GenerationSummary, err error) {
	const op = "service.RegenerationManager.Regenerate"
	defer obs.Time(ctx, op)(&err)

	summary.Messages = []string{}

	deleted, err := m.trips.DeleteActive(ctx, cooperativeID)
	if err != nil {
		return summary, fmt.Errorf("%s: delete active trips: %w", op, err)
	}
	summary.Deleted = deleted

	prepared := m.prepare(ctx, cooperativeID, trips, &summary)

	for start := 0; start < len(prepared); start += m.batchSize {
		if err := ctx.Err(); err != nil {
			summary.Failed += len(prepared) - start
			summary.Messages = append(summary.Messages, fmt.Sprintf("aborted before batch at %d: %v", start, err))
			return summary, fmt.Errorf("%s: %w", op, err)
		}

		end := min(start+m.batchSize, len(prepared))
		m.persistBatch(ctx, cooperativeID, prepared[start:end], start/m.batchSize+1, &summary)
	}

	m.log.Info("trips regenerated",
		zap.String("op", op),
		zap.String("cooperative_id", cooperativeID),
		zap.Int64("deleted", summary.Deleted),
		zap.Int("created", summary.Created),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// prepare resolves route records and drops in-run duplicates.
func (m *RegenerationManager) prepare(ctx context.Context, cooperativeID string, trips []domain.TripInstance, summary *GenerationSummary) []domain.TripInstance {
	routeIDs := make(map[terminalPair]string)
	failedPairs := make(map[terminalPair]struct{})
	seen := make(map[domain.TripKey]struct{}, len(trips))

	out := make([]domain.TripInstance, 0, len(trips))
	for _, t := range trips {
		t.CooperativeID = cooperativeID
		t.Active = true

		outcome := m.resolveRoute(ctx, t, routeIDs, failedPairs, summary)
		if outcome.Kind == OutcomeError {
			summary.Failed++
			continue
		}
		t = *outcome.Trip

		key := t.Key()
		if _, dup := seen[key]; dup {
			summary.Skipped++
			continue
		}
		seen[key] = struct{}{}

		if t.TripID == "" {
			t.TripID = domain.NewTripID(cooperativeID, key)
		}
		out = append(out, t)
	}
	return out
}

// resolveRoute attaches the persisted route id for the trip's terminal pair,
// creating the route record on first use.
func (m *RegenerationManager) resolveRoute(
	ctx context.Context,
	t domain.TripInstance,
	routeIDs map[terminalPair]string,
	failedPairs map[terminalPair]struct{},
	summary *GenerationSummary,
) Outcome {
	pair := terminalPair{t.OriginTerminalID, t.DestinationTerminalID}
	if _, failed := failedPairs[pair]; failed {
		return errorOutcome("route unavailable")
	}

	id, ok := routeIDs[pair]
	if !ok {
		spec := domain.RouteSpec{
			OriginTerminalID:      t.OriginTerminalID,
			DestinationTerminalID: t.DestinationTerminalID,
			DistanceKm:            t.DistanceKm,
			DurationMinutes:       t.DurationMinutes(),
			Price:                 t.Price,
		}
		route, err := m.routes.GetOrCreate(ctx, t.CooperativeID, spec, t.Category, t.MaxStops)
		if err != nil {
			failedPairs[pair] = struct{}{}
			msg := fmt.Sprintf("route %s could not be resolved: %v", spec.Label(), err)
			summary.Messages = append(summary.Messages, msg)
			m.log.Warn("route resolution failed",
				zap.String("route", spec.Label()),
				zap.Error(err),
			)
			return errorOutcome(msg)
		}
		id = route.RouteID
		routeIDs[pair] = id
	}

	t.RouteID = id
	return okOutcome(t)
}

func (m *RegenerationManager) persistBatch(ctx context.Context, cooperativeID string, batch []domain.TripInstance, n int, summary *GenerationSummary) {
	keys := make([]domain.TripKey, len(batch))
	for i, t := range batch {
		keys[i] = t.Key()
	}

	existing, err := m.trips.ExistingActiveKeys(ctx, cooperativeID, keys)
	if err != nil {
		summary.Failed += len(batch)
		summary.Messages = append(summary.Messages, fmt.Sprintf("batch %d: duplicate check failed: %v", n, err))
		m.log.Error("duplicate check failed", zap.Int("batch", n), zap.Error(err))
		return
	}

	fresh := make([]domain.TripInstance, 0, len(batch))
	for _, t := range batch {
		if _, dup := existing[t.Key()]; dup {
			summary.Skipped++
			continue
		}
		fresh = append(fresh, t)
	}
	if len(fresh) == 0 {
		return
	}

	inserted, err := m.trips.InsertBatch(ctx, fresh)
	if err != nil {
		summary.Failed += len(fresh)
		summary.Messages = append(summary.Messages, fmt.Sprintf("batch %d: %d trips not saved: %v", n, len(fresh), err))
		m.log.Error("batch insert failed",
			zap.String("cooperative_id", cooperativeID),
			zap.Int("batch", n),
			zap.Int("size", len(fresh)),
			zap.Error(err),
		)
		return
	}

	summary.Created += inserted
	// Rows ignored by the store's uniqueness constraint are duplicates too.
	summary.Skipped += len(fresh) - inserted
}
