package repositories

import (
	"context"
	"errors"
	"fmt"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/platform/obs"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRouteRepository creates or fetches route records keyed by cooperative
// and terminal pair.
type PGRouteRepository struct {
	DB *pgxpool.Pool
}

func NewPGRouteRepository(db *pgxpool.Pool) *PGRouteRepository {
	return &PGRouteRepository{DB: db}
}

const selectRouteQuery = `
	SELECT route_id, cooperative_id, origin_terminal_id, destination_terminal_id,
		distance_km, duration_minutes, category, max_stops
	FROM routes
	WHERE cooperative_id = $1 AND origin_terminal_id = $2 AND destination_terminal_id = $3
`

func (r *PGRouteRepository) GetOrCreate(
	ctx context.Context,
	cooperativeID string,
	spec domain.RouteSpec,
	category domain.RouteCategory,
	maxStops int,
) (_ domain.Route, err error) {
	defer obs.Time(ctx, "repo.routes.GetOrCreate")(&err)

	if r.DB == nil {
		return domain.Route{}, errors.New("route repository: DB is nil")
	}

	route, err := r.find(ctx, cooperativeID, spec)
	if err == nil {
		return route, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.Route{}, err
	}

	const insert = `
		INSERT INTO routes (route_id, cooperative_id, origin_terminal_id, destination_terminal_id,
			distance_km, duration_minutes, category, max_stops, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (cooperative_id, origin_terminal_id, destination_terminal_id) DO NOTHING
	`
	if _, err := r.DB.Exec(ctx, insert,
		uuid.NewString(), cooperativeID, spec.OriginTerminalID, spec.DestinationTerminalID,
		spec.DistanceKm, spec.DurationMinutes, string(category), maxStops, spec.Price,
	); err != nil {
		return domain.Route{}, fmt.Errorf("create route %s: %w", spec.Label(), err)
	}

	// Re-read so a concurrent insert of the same pair resolves to one id.
	return r.find(ctx, cooperativeID, spec)
}

func (r *PGRouteRepository) find(ctx context.Context, cooperativeID string, spec domain.RouteSpec) (domain.Route, error) {
	var (
		route    domain.Route
		category string
	)
	err := r.DB.QueryRow(ctx, selectRouteQuery, cooperativeID, spec.OriginTerminalID, spec.DestinationTerminalID).Scan(
		&route.RouteID,
		&route.CooperativeID,
		&route.OriginTerminalID,
		&route.DestinationTerminalID,
		&route.DistanceKm,
		&route.DurationMinutes,
		&category,
		&route.MaxStops,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Route{}, domain.ErrNotFound
		}
		return domain.Route{}, fmt.Errorf("get route %s: %w", spec.Label(), err)
	}
	route.Category = domain.RouteCategory(category)
	return route, nil
}
