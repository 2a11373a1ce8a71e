package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/platform/obs"
	"trip-scheduler-service/internal/ports"

	"go.uber.org/zap"
)

// ScheduleDeps are the collaborators of ScheduleService. Availability,
// Settings, Distance, Cache, Locker and Publisher are optional.
type ScheduleDeps struct {
	Fleet        ports.FleetRegistry
	Availability ports.AvailabilityRegistry
	Terminals    ports.TerminalRegistry
	Settings     ports.SettingsRepository
	Distance     ports.DistanceProvider
	Routes       ports.RouteRepository
	Trips        ports.TripRepository
	Cache        ports.PreviewCache
	Locker       ports.CooperativeLocker
	Publisher    ports.EventPublisher
}

type ScheduleOptions struct {
	Defaults               domain.CooperativeSettings
	BatchSize              int
	PreviewTTL             time.Duration
	StrictTerminalCapacity bool
}

// GenerationReport is the result of a generate call.
type GenerationReport struct {
	Viable     bool
	Summary    GenerationSummary
	Advisories []string
	Errors     []string
}

// ScheduleService runs previews and generate calls for a cooperative.
type ScheduleService struct {
	log       *zap.Logger
	deps      ScheduleDeps
	opts      ScheduleOptions
	scheduler *CircuitScheduler
	regen     *RegenerationManager
	now       func() time.Time
}

func NewScheduleService(log *zap.Logger, deps ScheduleDeps, opts ScheduleOptions) *ScheduleService {
	if log == nil {
		log = zap.NewNop()
	}
	if deps.Locker == nil {
		deps.Locker = NewLocalLocker()
	}
	return &ScheduleService{
		log:       log,
		deps:      deps,
		opts:      opts,
		scheduler: NewCircuitScheduler(log),
		regen:     NewRegenerationManager(log, deps.Routes, deps.Trips, opts.BatchSize),
		now:       time.Now,
	}
}

// Preview simulates the request without touching persisted trips.
func (s *ScheduleService) Preview(ctx context.Context, req ScheduleRequest) (res *ScheduleResult, err error) {
	const op = "service.ScheduleService.Preview"
	defer obs.Time(ctx, op)(&err)

	in, err := s.load(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	fingerprint, err := previewFingerprint(req, in)
	if err != nil {
		return nil, fmt.Errorf("%s: fingerprint: %w", op, err)
	}

	if cached, ok := s.cachedPreview(ctx, req.CooperativeID, fingerprint); ok {
		return cached, nil
	}

	res, err = s.run(ctx, req, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.storePreview(ctx, req.CooperativeID, fingerprint, res)
	return res, nil
}

// Generate simulates the request and replaces the cooperative's active trips
// with the result. Runs for the same cooperative are mutually exclusive.
// Nothing is deleted when the simulation yields no trips.
func (s *ScheduleService) Generate(ctx context.Context, req ScheduleRequest) (report *GenerationReport, err error) {
	const op = "service.ScheduleService.Generate"
	defer obs.Time(ctx, op)(&err)

	unlock, err := s.deps.Locker.Lock(ctx, req.CooperativeID)
	if err != nil {
		return nil, fmt.Errorf("%s: lock cooperative %s: %w", op, req.CooperativeID, err)
	}
	defer unlock()

	in, err := s.load(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := s.run(ctx, req, in)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report = &GenerationReport{
		Viable:     res.Viable,
		Summary:    GenerationSummary{Messages: []string{}},
		Advisories: res.Advisories,
		Errors:     res.Errors,
	}
	if len(res.Trips) == 0 {
		return report, nil
	}

	summary, err := s.regen.Regenerate(ctx, req.CooperativeID, res.Trips)
	report.Summary = summary
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.deps.Cache != nil {
		if err := s.deps.Cache.Invalidate(ctx, req.CooperativeID); err != nil {
			s.log.Warn("preview cache invalidation failed",
				zap.String("op", op),
				zap.String("cooperative_id", req.CooperativeID),
				zap.Error(err),
			)
		}
	}
	s.publish(ctx, req, summary)

	return report, nil
}

// load reads the collaborator state a simulation of req depends on.
func (s *ScheduleService) load(ctx context.Context, req ScheduleRequest) (SchedulerInput, error) {
	settings, err := s.settingsFor(ctx, req.CooperativeID)
	if err != nil {
		return SchedulerInput{}, err
	}

	fleet, err := s.deps.Fleet.ListAssignments(ctx, req.CooperativeID)
	if err != nil {
		return SchedulerInput{}, fmt.Errorf("list fleet: %w", err)
	}

	terminals, err := s.deps.Terminals.ListTerminals(ctx, req.CooperativeID)
	if err != nil {
		return SchedulerInput{}, fmt.Errorf("list terminals: %w", err)
	}

	var unavailable []domain.BusUnavailability
	if s.deps.Availability != nil && req.DateRange.Validate() == nil {
		unavailable, err = s.deps.Availability.ListUnavailable(ctx, req.CooperativeID, req.DateRange.Start, req.DateRange.End)
		if err != nil {
			return SchedulerInput{}, fmt.Errorf("list bus unavailability: %w", err)
		}
	}

	return SchedulerInput{
		Fleet:       fleet,
		Unavailable: unavailable,
		Terminals:   terminals,
		Settings:    settings,
	}, nil
}

// run estimates missing route metrics and simulates req against in.
func (s *ScheduleService) run(ctx context.Context, req ScheduleRequest, in SchedulerInput) (*ScheduleResult, error) {
	routes, advisories := FillRouteMetrics(ctx, s.deps.Distance, req.Routes, in.Terminals)
	req.Routes = routes
	req.StrictTerminalCapacity = req.StrictTerminalCapacity || s.opts.StrictTerminalCapacity

	res, err := s.scheduler.Schedule(ctx, req, in)
	if err != nil {
		return nil, err
	}
	res.Advisories = append(advisories, res.Advisories...)
	return res, nil
}

func (s *ScheduleService) settingsFor(ctx context.Context, cooperativeID string) (domain.CooperativeSettings, error) {
	if s.deps.Settings == nil {
		return s.opts.Defaults, nil
	}
	stored, err := s.deps.Settings.GetSettings(ctx, cooperativeID)
	if errors.Is(err, domain.ErrNotFound) {
		return s.opts.Defaults, nil
	}
	if err != nil {
		return domain.CooperativeSettings{}, fmt.Errorf("load settings: %w", err)
	}
	return stored.Merge(s.opts.Defaults), nil
}

func (s *ScheduleService) cachedPreview(ctx context.Context, cooperativeID, fingerprint string) (*ScheduleResult, bool) {
	if s.deps.Cache == nil {
		return nil, false
	}
	payload, err := s.deps.Cache.Get(ctx, cooperativeID, fingerprint)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("preview cache read failed", zap.String("cooperative_id", cooperativeID), zap.Error(err))
		}
		return nil, false
	}
	var res ScheduleResult
	if err := json.Unmarshal(payload, &res); err != nil {
		s.log.Warn("preview cache entry unreadable", zap.String("cooperative_id", cooperativeID), zap.Error(err))
		return nil, false
	}
	return &res, true
}

func (s *ScheduleService) storePreview(ctx context.Context, cooperativeID, fingerprint string, res *ScheduleResult) {
	if s.deps.Cache == nil || s.opts.PreviewTTL <= 0 {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		s.log.Warn("preview encode failed", zap.Error(err))
		return
	}
	if err := s.deps.Cache.Set(ctx, cooperativeID, fingerprint, payload, s.opts.PreviewTTL); err != nil {
		s.log.Warn("preview cache write failed", zap.String("cooperative_id", cooperativeID), zap.Error(err))
	}
}

func (s *ScheduleService) publish(ctx context.Context, req ScheduleRequest, summary GenerationSummary) {
	if s.deps.Publisher == nil {
		return
	}
	event := ports.ScheduleRegenerated{
		CooperativeID: req.CooperativeID,
		StartDate:     domain.FormatDate(req.DateRange.Start),
		EndDate:       domain.FormatDate(req.DateRange.End),
		Deleted:       summary.Deleted,
		Created:       summary.Created,
		Skipped:       summary.Skipped,
		Failed:        summary.Failed,
		GeneratedAt:   s.now().UTC(),
	}
	if err := s.deps.Publisher.PublishRegenerated(ctx, event); err != nil {
		s.log.Warn("schedule event not published",
			zap.String("cooperative_id", req.CooperativeID),
			zap.Error(err),
		)
	}
}

// previewFingerprint hashes the request together with the loaded state, so
// fleet, terminal, settings or availability changes miss the cache.
func previewFingerprint(req ScheduleRequest, in SchedulerInput) (string, error) {
	b, err := json.Marshal(struct {
		Request ScheduleRequest
		Input   SchedulerInput
	}{req, in})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
