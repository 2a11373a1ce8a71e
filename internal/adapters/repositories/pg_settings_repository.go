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

type PGSettingsRepository struct {
	DB *pgxpool.Pool
}

func NewPGSettingsRepository(db *pgxpool.Pool) *PGSettingsRepository {
	return &PGSettingsRepository{DB: db}
}

// GetSettings returns the stored overrides; NULL columns come back as zero
// values so CooperativeSettings.Merge fills them from defaults.
func (r *PGSettingsRepository) GetSettings(ctx context.Context, cooperativeID string) (_ domain.CooperativeSettings, err error) {
	defer obs.Time(ctx, "repo.settings.GetSettings")(&err)

	if r.DB == nil {
		return domain.CooperativeSettings{}, errors.New("settings repository: DB is nil")
	}

	const q = `
		SELECT
			cooperative_id,
			COALESCE(interprovincial_threshold_km, 0),
			COALESCE(standard_day_hours, 0),
			COALESCE(extended_day_hours, 0),
			COALESCE(max_extended_days_per_week, 0),
			COALESCE(rest_base_minutes_intra, 0),
			COALESCE(rest_base_minutes_inter, 0),
			window_open,
			window_close
		FROM cooperative_settings
		WHERE cooperative_id = $1
	`

	var (
		s         domain.CooperativeSettings
		openText  *string
		closeText *string
	)
	err = r.DB.QueryRow(ctx, q, cooperativeID).Scan(
		&s.CooperativeID,
		&s.InterprovincialThresholdKm,
		&s.StandardDayHours,
		&s.ExtendedDayHours,
		&s.MaxExtendedDaysPerWeek,
		&s.RestBaseMinutesIntra,
		&s.RestBaseMinutesInter,
		&openText,
		&closeText,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CooperativeSettings{}, domain.ErrNotFound
		}
		return domain.CooperativeSettings{}, fmt.Errorf("get settings %s: %w", cooperativeID, err)
	}

	if openText != nil && closeText != nil {
		open, err := domain.ParseTimeOfDay(*openText)
		if err != nil {
			return domain.CooperativeSettings{}, fmt.Errorf("get settings %s: window open: %w", cooperativeID, err)
		}
		closeAt, err := domain.ParseTimeOfDay(*closeText)
		if err != nil {
			return domain.CooperativeSettings{}, fmt.Errorf("get settings %s: window close: %w", cooperativeID, err)
		}
		s.DefaultWindow = &domain.OperatingWindow{Open: open, Close: closeAt}
	}

	return s, nil
}
