package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"trip-scheduler-service/internal/platform/obs"
	"trip-scheduler-service/internal/ports"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGDistanceCache is a Postgres-backed cache of terminal->terminal distance
// results.
type PGDistanceCache struct {
	DB *pgxpool.Pool
}

func NewPGDistanceCache(db *pgxpool.Pool) *PGDistanceCache {
	return &PGDistanceCache{DB: db}
}

// Fetch cached distances for one origin terminal and many destinations.
func (s *PGDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("distance cache: db is nil")
	}

	if origin == "" {
		return nil, errors.New("get distance cache: origin must not be empty")
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(destinations))
	for _, d := range destinations {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}

		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		uniq = append(uniq, d)
	}

	if len(uniq) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	const q = `
		SELECT destination_terminal_id, distance_meters, duration_seconds
		FROM distance_cache
		WHERE origin_terminal_id = $1
			AND destination_terminal_id = ANY($2::text[])
	`

	rows, err := s.DB.Query(ctx, q, origin, uniq)
	if err != nil {
		return nil, fmt.Errorf("get distance cache: query distance_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ports.DistanceResult, len(uniq))
	for rows.Next() {
		var dest string
		var meters, seconds int
		if err := rows.Scan(&dest, &meters, &seconds); err != nil {
			return nil, fmt.Errorf("get distance cache: scan rows: %w", err)
		}
		out[dest] = ports.DistanceResult{
			DistanceMeters:  meters,
			DurationSeconds: seconds,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get distance cache: row iteration: %w", err)
	}

	return out, nil
}

// Store many cached distance results for a single origin terminal.
func (s *PGDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, "distance.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	if origin == "" {
		return errors.New("insert distance cache: origin must not be empty")
	}

	if len(results) == 0 {
		return nil
	}

	const q = `
		INSERT INTO distance_cache (origin_terminal_id, destination_terminal_id, distance_meters, duration_seconds)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (origin_terminal_id, destination_terminal_id) DO UPDATE
		SET distance_meters = EXCLUDED.distance_meters,
			duration_seconds = EXCLUDED.duration_seconds,
			updated_at = now()
	`

	batch := &pgx.Batch{}
	for dest, r := range results {
		if strings.TrimSpace(dest) == "" {
			return fmt.Errorf("insert distance cache: empty destination key")
		}
		batch.Queue(q, origin, dest, r.DistanceMeters, r.DurationSeconds)
	}

	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("insert distance cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert distance cache: exec batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("insert distance cache commit: %w", err)
	}

	return nil
}
