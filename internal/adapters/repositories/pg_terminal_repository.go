package repositories

import (
	"context"
	"errors"
	"fmt"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/platform/obs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGTerminalRepository struct {
	DB *pgxpool.Pool
}

func NewPGTerminalRepository(db *pgxpool.Pool) *PGTerminalRepository {
	return &PGTerminalRepository{DB: db}
}

const terminalColumns = `terminal_id, cooperative_id, name, stands, COALESCE(lon, 0), COALESCE(lat, 0)`

func scanTerminal(row pgx.Row) (domain.Terminal, error) {
	var t domain.Terminal
	err := row.Scan(&t.TerminalID, &t.CooperativeID, &t.Name, &t.Stands, &t.Location.Lon, &t.Location.Lat)
	return t, err
}

func (r *PGTerminalRepository) ListTerminals(ctx context.Context, cooperativeID string) (_ []domain.Terminal, err error) {
	defer obs.Time(ctx, "repo.terminals.ListTerminals")(&err)

	if r.DB == nil {
		return nil, errors.New("terminal repository: DB is nil")
	}

	rows, err := r.DB.Query(ctx,
		`SELECT `+terminalColumns+` FROM terminals WHERE cooperative_id = $1 ORDER BY terminal_id`,
		cooperativeID,
	)
	if err != nil {
		return nil, fmt.Errorf("list terminals: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Terminal
	for rows.Next() {
		t, err := scanTerminal(rows)
		if err != nil {
			return nil, fmt.Errorf("list terminals: scan row: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list terminals: row iteration: %w", err)
	}

	return out, nil
}

func (r *PGTerminalRepository) GetTerminal(ctx context.Context, terminalID string) (_ domain.Terminal, err error) {
	defer obs.Time(ctx, "repo.terminals.GetTerminal")(&err)

	if r.DB == nil {
		return domain.Terminal{}, errors.New("terminal repository: DB is nil")
	}

	t, err := scanTerminal(r.DB.QueryRow(ctx,
		`SELECT `+terminalColumns+` FROM terminals WHERE terminal_id = $1`,
		terminalID,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Terminal{}, fmt.Errorf("terminal %s: %w", terminalID, domain.ErrNotFound)
		}
		return domain.Terminal{}, fmt.Errorf("get terminal %s: %w", terminalID, err)
	}
	return t, nil
}
