package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"trip-scheduler-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"
)

// Seed is a cooperative with its catalog, as read from a seed file.
type Seed struct {
	Cooperatives []CooperativeSeed `json:"cooperatives" yaml:"cooperatives"`
}

type CooperativeSeed struct {
	CooperativeID string         `json:"cooperative_id" yaml:"cooperative_id"`
	Name          string         `json:"name" yaml:"name"`
	Settings      *SettingsSeed  `json:"settings,omitempty" yaml:"settings,omitempty"`
	Terminals     []TerminalSeed `json:"terminals" yaml:"terminals"`
	Drivers       []DriverSeed   `json:"drivers" yaml:"drivers"`
	Buses         []BusSeed      `json:"buses" yaml:"buses"`
	Unavailable   []UnavailSeed  `json:"unavailable,omitempty" yaml:"unavailable,omitempty"`
}

type SettingsSeed struct {
	InterprovincialThresholdKm *float64 `json:"interprovincial_threshold_km,omitempty" yaml:"interprovincial_threshold_km,omitempty"`
	StandardDayHours           *int     `json:"standard_day_hours,omitempty" yaml:"standard_day_hours,omitempty"`
	ExtendedDayHours           *int     `json:"extended_day_hours,omitempty" yaml:"extended_day_hours,omitempty"`
	MaxExtendedDaysPerWeek     *int     `json:"max_extended_days_per_week,omitempty" yaml:"max_extended_days_per_week,omitempty"`
	RestBaseMinutesIntra       *int     `json:"rest_base_minutes_intra,omitempty" yaml:"rest_base_minutes_intra,omitempty"`
	RestBaseMinutesInter       *int     `json:"rest_base_minutes_inter,omitempty" yaml:"rest_base_minutes_inter,omitempty"`
	WindowOpen                 *string  `json:"window_open,omitempty" yaml:"window_open,omitempty"`
	WindowClose                *string  `json:"window_close,omitempty" yaml:"window_close,omitempty"`
}

type TerminalSeed struct {
	TerminalID string   `json:"terminal_id" yaml:"terminal_id"`
	Name       string   `json:"name" yaml:"name"`
	Stands     int      `json:"stands" yaml:"stands"`
	Lon        *float64 `json:"lon,omitempty" yaml:"lon,omitempty"`
	Lat        *float64 `json:"lat,omitempty" yaml:"lat,omitempty"`
}

type DriverSeed struct {
	DriverID string `json:"driver_id" yaml:"driver_id"`
	Name     string `json:"name" yaml:"name"`
}

type BusSeed struct {
	BusID          string `json:"bus_id" yaml:"bus_id"`
	Plate          string `json:"plate" yaml:"plate"`
	Capacity       int    `json:"capacity" yaml:"capacity"`
	Status         string `json:"status" yaml:"status"`
	HomeTerminalID string `json:"home_terminal_id,omitempty" yaml:"home_terminal_id,omitempty"`
	DriverID       string `json:"driver_id,omitempty" yaml:"driver_id,omitempty"`
}

type UnavailSeed struct {
	BusID  string `json:"bus_id" yaml:"bus_id"`
	Date   string `json:"date" yaml:"date"`
	Reason string `json:"reason" yaml:"reason"`
}

// LoadSeedFile reads a .json, .yaml or .yml seed file and validates it.
func LoadSeedFile(path string) (Seed, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("seed: read %q: %w", path, err)
	}

	var seed Seed
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &seed)
	case ".json":
		err = json.Unmarshal(b, &seed)
	default:
		return Seed{}, fmt.Errorf("seed: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return Seed{}, fmt.Errorf("seed: parse %q: %w", path, err)
	}

	if err := seed.Validate(); err != nil {
		return Seed{}, err
	}
	return seed, nil
}

func (s Seed) Validate() error {
	for i, c := range s.Cooperatives {
		if strings.TrimSpace(c.CooperativeID) == "" {
			return fmt.Errorf("seed: cooperative at index %d: id cannot be empty", i)
		}
		terminals := make(map[string]struct{}, len(c.Terminals))
		for j, t := range c.Terminals {
			if strings.TrimSpace(t.TerminalID) == "" {
				return fmt.Errorf("seed: %s terminal at index %d: id cannot be empty", c.CooperativeID, j)
			}
			if t.Stands <= 0 {
				return fmt.Errorf("seed: terminal %s: stands must be positive", t.TerminalID)
			}
			terminals[t.TerminalID] = struct{}{}
		}
		drivers := make(map[string]struct{}, len(c.Drivers))
		for _, d := range c.Drivers {
			drivers[d.DriverID] = struct{}{}
		}
		for _, b := range c.Buses {
			if b.Capacity <= 0 {
				return fmt.Errorf("seed: bus %s: capacity must be positive", b.BusID)
			}
			switch domain.BusStatus(b.Status) {
			case "", domain.BusAvailable, domain.BusInService, domain.BusMaintenance, domain.BusStopped:
			default:
				return fmt.Errorf("seed: bus %s: unknown status %q", b.BusID, b.Status)
			}
			if b.DriverID != "" {
				if _, ok := drivers[b.DriverID]; !ok {
					return fmt.Errorf("seed: bus %s: unknown driver %s", b.BusID, b.DriverID)
				}
			}
			if b.HomeTerminalID != "" {
				if _, ok := terminals[b.HomeTerminalID]; !ok {
					return fmt.Errorf("seed: bus %s: unknown home terminal %s", b.BusID, b.HomeTerminalID)
				}
			}
		}
		for _, u := range c.Unavailable {
			if _, err := domain.ParseDate(u.Date); err != nil {
				return fmt.Errorf("seed: unavailability of %s: %w", u.BusID, err)
			}
		}
	}
	return nil
}

// Apply upserts the seed in a single transaction.
func (s Seed) Apply(ctx context.Context, db *pgxpool.Pool) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, c := range s.Cooperatives {
		if err := applyCooperative(ctx, tx, c); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}
	return nil
}

func applyCooperative(ctx context.Context, tx pgx.Tx, c CooperativeSeed) error {
	batch := &pgx.Batch{}

	batch.Queue(`
		INSERT INTO cooperatives (cooperative_id, name) VALUES ($1, $2)
		ON CONFLICT (cooperative_id) DO UPDATE SET name = EXCLUDED.name`,
		c.CooperativeID, c.Name,
	)

	if st := c.Settings; st != nil {
		batch.Queue(`
			INSERT INTO cooperative_settings (cooperative_id, interprovincial_threshold_km,
				standard_day_hours, extended_day_hours, max_extended_days_per_week,
				rest_base_minutes_intra, rest_base_minutes_inter, window_open, window_close)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (cooperative_id) DO UPDATE SET
				interprovincial_threshold_km = EXCLUDED.interprovincial_threshold_km,
				standard_day_hours = EXCLUDED.standard_day_hours,
				extended_day_hours = EXCLUDED.extended_day_hours,
				max_extended_days_per_week = EXCLUDED.max_extended_days_per_week,
				rest_base_minutes_intra = EXCLUDED.rest_base_minutes_intra,
				rest_base_minutes_inter = EXCLUDED.rest_base_minutes_inter,
				window_open = EXCLUDED.window_open,
				window_close = EXCLUDED.window_close`,
			c.CooperativeID, st.InterprovincialThresholdKm, st.StandardDayHours, st.ExtendedDayHours,
			st.MaxExtendedDaysPerWeek, st.RestBaseMinutesIntra, st.RestBaseMinutesInter,
			st.WindowOpen, st.WindowClose,
		)
	}

	for _, t := range c.Terminals {
		batch.Queue(`
			INSERT INTO terminals (terminal_id, cooperative_id, name, stands, lon, lat)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (terminal_id) DO UPDATE SET
				name = EXCLUDED.name, stands = EXCLUDED.stands, lon = EXCLUDED.lon, lat = EXCLUDED.lat`,
			t.TerminalID, c.CooperativeID, t.Name, t.Stands, t.Lon, t.Lat,
		)
	}

	for _, d := range c.Drivers {
		batch.Queue(`
			INSERT INTO drivers (driver_id, cooperative_id, name) VALUES ($1, $2, $3)
			ON CONFLICT (driver_id) DO UPDATE SET name = EXCLUDED.name`,
			d.DriverID, c.CooperativeID, d.Name,
		)
	}

	for _, b := range c.Buses {
		status := b.Status
		if status == "" {
			status = string(domain.BusAvailable)
		}
		batch.Queue(`
			INSERT INTO buses (bus_id, cooperative_id, plate, capacity, status, home_terminal_id, driver_id)
			VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
			ON CONFLICT (bus_id) DO UPDATE SET
				plate = EXCLUDED.plate, capacity = EXCLUDED.capacity, status = EXCLUDED.status,
				home_terminal_id = EXCLUDED.home_terminal_id, driver_id = EXCLUDED.driver_id`,
			b.BusID, c.CooperativeID, b.Plate, b.Capacity, status, b.HomeTerminalID, b.DriverID,
		)
	}

	for _, u := range c.Unavailable {
		date, _ := domain.ParseDate(u.Date)
		batch.Queue(`
			INSERT INTO bus_unavailability (bus_id, service_date, reason) VALUES ($1, $2, $3)
			ON CONFLICT (bus_id, service_date) DO UPDATE SET reason = EXCLUDED.reason`,
			u.BusID, date, u.Reason,
		)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("seed: cooperative %s: %w", c.CooperativeID, err)
	}
	return nil
}
