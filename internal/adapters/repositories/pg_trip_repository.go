package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/platform/obs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const slotMinutes = 15

// PGTripRepository stores trip instances and their departure occupancy rows.
type PGTripRepository struct {
	DB *pgxpool.Pool
}

func NewPGTripRepository(db *pgxpool.Pool) *PGTripRepository {
	return &PGTripRepository{DB: db}
}

// DeleteActive removes the cooperative's active trips in one statement;
// occupancy rows go with them through ON DELETE CASCADE.
func (r *PGTripRepository) DeleteActive(ctx context.Context, cooperativeID string) (_ int64, err error) {
	defer obs.Time(ctx, "repo.trips.DeleteActive")(&err)

	if r.DB == nil {
		return 0, errors.New("trip repository: DB is nil")
	}

	tag, err := r.DB.Exec(ctx, `DELETE FROM trip_instances WHERE cooperative_id = $1 AND active`, cooperativeID)
	if err != nil {
		return 0, fmt.Errorf("delete active trips: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *PGTripRepository) ExistingActiveKeys(ctx context.Context, cooperativeID string, keys []domain.TripKey) (_ map[domain.TripKey]struct{}, err error) {
	defer obs.Time(ctx, "repo.trips.ExistingActiveKeys")(&err)

	out := make(map[domain.TripKey]struct{})
	if len(keys) == 0 {
		return out, nil
	}

	buses := make([]string, len(keys))
	departures := make([]time.Time, len(keys))
	wanted := make(map[domain.TripKey]struct{}, len(keys))
	for i, k := range keys {
		buses[i] = k.BusID
		departures[i] = k.DepartAt.UTC()
		wanted[k] = struct{}{}
	}

	const q = `
		SELECT t.bus_id, t.origin_terminal_id, t.destination_terminal_id, t.departure_at
		FROM trip_instances t
		JOIN unnest($2::text[], $3::timestamptz[]) AS k(bus_id, departure_at)
			ON k.bus_id = t.bus_id AND k.departure_at = t.departure_at
		WHERE t.cooperative_id = $1 AND t.active
	`

	rows, err := r.DB.Query(ctx, q, cooperativeID, buses, departures)
	if err != nil {
		return nil, fmt.Errorf("existing active keys: query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k domain.TripKey
		if err := rows.Scan(&k.BusID, &k.OriginTerminalID, &k.DestinationTerminalID, &k.DepartAt); err != nil {
			return nil, fmt.Errorf("existing active keys: scan row: %w", err)
		}
		k.DepartAt = k.DepartAt.UTC()
		if _, ok := wanted[k]; ok {
			out[k] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("existing active keys: row iteration: %w", err)
	}

	return out, nil
}

// insertTripQuery inserts one trip and, when it was not a duplicate, its
// departure occupancy row. RowsAffected is 1 for an inserted trip.
const insertTripQuery = `
	WITH ins AS (
		INSERT INTO trip_instances (
			trip_id, cooperative_id, route_id, service_date, weekday, direction,
			origin_terminal_id, destination_terminal_id, bus_id, driver_id,
			departure_at, arrival_at, seat_capacity, rest_minutes, category,
			max_stops, price, distance_km, sequence, active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, TRUE)
		ON CONFLICT DO NOTHING
		RETURNING id, origin_terminal_id, service_date
	)
	INSERT INTO terminal_occupancy (trip_pk, terminal_id, service_date, slot)
	SELECT id, origin_terminal_id, service_date, $20 FROM ins
`

// InsertBatch writes trips in a single transaction.
func (r *PGTripRepository) InsertBatch(ctx context.Context, trips []domain.TripInstance) (_ int, err error) {
	defer obs.Time(ctx, "repo.trips.InsertBatch")(&err)

	if r.DB == nil {
		return 0, errors.New("trip repository: DB is nil")
	}
	if len(trips) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, t := range trips {
		depart := t.DepartAt.UTC()
		slot := (depart.Hour()*60 + depart.Minute()) / slotMinutes
		batch.Queue(insertTripQuery,
			t.TripID, t.CooperativeID, t.RouteID, domain.DateOf(t.Date), int(t.Weekday), string(t.Direction),
			t.OriginTerminalID, t.DestinationTerminalID, t.BusID, t.DriverID,
			depart, t.ArriveAt.UTC(), t.SeatCapacity, t.RestMinutes, string(t.Category),
			t.MaxStops, t.Price, t.DistanceKm, t.Sequence, slot,
		)
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("insert trips: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	br := tx.SendBatch(ctx, batch)
	inserted := 0
	for i := range trips {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return 0, fmt.Errorf("insert trips: trip %s: %w", trips[i].TripID, err)
		}
		inserted += int(tag.RowsAffected())
	}
	if err := br.Close(); err != nil {
		return 0, fmt.Errorf("insert trips: close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("insert trips: commit: %w", err)
	}
	return inserted, nil
}

func (r *PGTripRepository) ListActive(ctx context.Context, cooperativeID string, from, to time.Time) (_ []domain.TripInstance, err error) {
	defer obs.Time(ctx, "repo.trips.ListActive")(&err)

	if r.DB == nil {
		return nil, errors.New("trip repository: DB is nil")
	}

	const q = `
		SELECT trip_id, cooperative_id, route_id, service_date, weekday, direction,
			origin_terminal_id, destination_terminal_id, bus_id, driver_id,
			departure_at, arrival_at, seat_capacity, rest_minutes, category,
			max_stops, price::float8, distance_km, sequence, active
		FROM trip_instances
		WHERE cooperative_id = $1 AND active AND service_date BETWEEN $2 AND $3
		ORDER BY service_date, departure_at, bus_id, sequence
	`

	rows, err := r.DB.Query(ctx, q, cooperativeID, domain.DateOf(from), domain.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("list trips: query: %w", err)
	}
	defer rows.Close()

	out := make([]domain.TripInstance, 0, 64)
	for rows.Next() {
		var (
			t         domain.TripInstance
			weekday   int
			direction string
			category  string
		)
		if err := rows.Scan(
			&t.TripID, &t.CooperativeID, &t.RouteID, &t.Date, &weekday, &direction,
			&t.OriginTerminalID, &t.DestinationTerminalID, &t.BusID, &t.DriverID,
			&t.DepartAt, &t.ArriveAt, &t.SeatCapacity, &t.RestMinutes, &category,
			&t.MaxStops, &t.Price, &t.DistanceKm, &t.Sequence, &t.Active,
		); err != nil {
			return nil, fmt.Errorf("list trips: scan row: %w", err)
		}
		t.Weekday = time.Weekday(weekday)
		t.Direction = domain.Direction(direction)
		t.Category = domain.RouteCategory(category)
		t.DepartAt = t.DepartAt.UTC()
		t.ArriveAt = t.ArriveAt.UTC()
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list trips: row iteration: %w", err)
	}

	return out, nil
}

// Deactivate clears the active flag and frees the trip's occupancy row.
func (r *PGTripRepository) Deactivate(ctx context.Context, tripID string) (err error) {
	defer obs.Time(ctx, "repo.trips.Deactivate")(&err)

	if r.DB == nil {
		return errors.New("trip repository: DB is nil")
	}

	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("deactivate trip: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var pk int64
	err = tx.QueryRow(ctx,
		`UPDATE trip_instances SET active = FALSE WHERE trip_id = $1 AND active RETURNING id`,
		tripID,
	).Scan(&pk)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("trip %s: %w", tripID, domain.ErrNotFound)
		}
		return fmt.Errorf("deactivate trip %s: %w", tripID, err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM terminal_occupancy WHERE trip_pk = $1`, pk); err != nil {
		return fmt.Errorf("deactivate trip %s: release occupancy: %w", tripID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("deactivate trip %s: commit: %w", tripID, err)
	}
	return nil
}

// SlotCounts returns anchored departures per slot for a terminal and date.
func (r *PGTripRepository) SlotCounts(ctx context.Context, terminalID string, date time.Time) (_ map[int]int, err error) {
	defer obs.Time(ctx, "repo.trips.SlotCounts")(&err)

	if r.DB == nil {
		return nil, errors.New("trip repository: DB is nil")
	}

	const q = `
		SELECT slot, count(*)
		FROM terminal_occupancy
		WHERE terminal_id = $1 AND service_date = $2
		GROUP BY slot
	`
	rows, err := r.DB.Query(ctx, q, terminalID, domain.DateOf(date))
	if err != nil {
		return nil, fmt.Errorf("slot counts: query: %w", err)
	}
	defer rows.Close()

	out := make(map[int]int)
	for rows.Next() {
		var slot int16
		var n int64
		if err := rows.Scan(&slot, &n); err != nil {
			return nil, fmt.Errorf("slot counts: scan row: %w", err)
		}
		out[int(slot)] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("slot counts: row iteration: %w", err)
	}
	return out, nil
}
