package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/platform/obs"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGFleetRepository reads buses, their paired drivers and per-date
// unavailability.
type PGFleetRepository struct {
	DB *pgxpool.Pool
}

func NewPGFleetRepository(db *pgxpool.Pool) *PGFleetRepository {
	return &PGFleetRepository{DB: db}
}

func (r *PGFleetRepository) ListAssignments(ctx context.Context, cooperativeID string) (_ []domain.BusAssignment, err error) {
	defer obs.Time(ctx, "repo.fleet.ListAssignments")(&err)

	if r.DB == nil {
		return nil, errors.New("fleet repository: DB is nil")
	}

	const q = `
		SELECT
			b.bus_id,
			b.cooperative_id,
			b.plate,
			b.capacity,
			b.status,
			COALESCE(b.home_terminal_id, ''),
			COALESCE(d.driver_id, ''),
			COALESCE(d.name, ''),
			COALESCE(d.extended_days_this_week, 0),
			COALESCE(d.iso_year, 0),
			COALESCE(d.iso_week, 0)
		FROM buses b
		LEFT JOIN drivers d ON d.driver_id = b.driver_id
		WHERE b.cooperative_id = $1
		ORDER BY b.bus_id
	`

	rows, err := r.DB.Query(ctx, q, cooperativeID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: query buses: %w", err)
	}
	defer rows.Close()

	out := make([]domain.BusAssignment, 0, 32)
	for rows.Next() {
		var (
			a      domain.BusAssignment
			status string
		)
		if err := rows.Scan(
			&a.Bus.BusID,
			&a.Bus.CooperativeID,
			&a.Bus.Plate,
			&a.Bus.Capacity,
			&status,
			&a.Bus.HomeTerminalID,
			&a.Driver.DriverID,
			&a.Driver.Name,
			&a.Driver.ExtendedDaysThisWeek,
			&a.Driver.ISOYear,
			&a.Driver.ISOWeek,
		); err != nil {
			return nil, fmt.Errorf("list assignments: scan row: %w", err)
		}
		a.Bus.Status = domain.BusStatus(status)
		a.Bus.DriverID = a.Driver.DriverID
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list assignments: row iteration: %w", err)
	}

	return out, nil
}

func (r *PGFleetRepository) ListUnavailable(ctx context.Context, cooperativeID string, from, to time.Time) (_ []domain.BusUnavailability, err error) {
	defer obs.Time(ctx, "repo.fleet.ListUnavailable")(&err)

	if r.DB == nil {
		return nil, errors.New("fleet repository: DB is nil")
	}

	const q = `
		SELECT u.bus_id, u.service_date, u.reason
		FROM bus_unavailability u
		JOIN buses b ON b.bus_id = u.bus_id
		WHERE b.cooperative_id = $1
			AND u.service_date BETWEEN $2 AND $3
		ORDER BY u.bus_id, u.service_date
	`

	rows, err := r.DB.Query(ctx, q, cooperativeID, domain.DateOf(from), domain.DateOf(to))
	if err != nil {
		return nil, fmt.Errorf("list unavailability: query: %w", err)
	}
	defer rows.Close()

	var out []domain.BusUnavailability
	for rows.Next() {
		var u domain.BusUnavailability
		if err := rows.Scan(&u.BusID, &u.Date, &u.Reason); err != nil {
			return nil, fmt.Errorf("list unavailability: scan row: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unavailability: row iteration: %w", err)
	}

	return out, nil
}
