package services

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"
	"trip-scheduler-service/internal/adapters/distance"
	"trip-scheduler-service/internal/domain"

	"go.uber.org/zap"
)

type serviceFixture struct {
	fleet     *fakeFleet
	terminals *fakeTerminals
	settings  *fakeSettings
	routes    *fakeRouteRepo
	trips     *fakeTripStore
	cache     *fakePreviewCache
	publisher *fakePublisher
	locker    *LocalLocker
	svc       *ScheduleService
}

func newServiceFixture(buses int) *serviceFixture {
	window := testWindow("05:00", "22:00")
	f := &serviceFixture{
		fleet:     &fakeFleet{fleet: testFleet(buses)},
		terminals: &fakeTerminals{terminals: locatedTerminals()[:3]},
		settings:  &fakeSettings{},
		routes:    &fakeRouteRepo{},
		trips:     newFakeTripStore(),
		cache:     &fakePreviewCache{},
		publisher: &fakePublisher{},
		locker:    NewLocalLocker(),
	}
	f.svc = NewScheduleService(zap.NewNop(), ScheduleDeps{
		Fleet:        f.fleet,
		Availability: f.fleet,
		Terminals:    f.terminals,
		Settings:     f.settings,
		Distance:     distance.NewHaversineProvider(60, 1.3),
		Routes:       f.routes,
		Trips:        f.trips,
		Cache:        f.cache,
		Locker:       f.locker,
		Publisher:    f.publisher,
	}, ScheduleOptions{
		Defaults: domain.CooperativeSettings{
			InterprovincialThresholdKm: 100,
			StandardDayHours:           8,
			ExtendedDayHours:           10,
			MaxExtendedDaysPerWeek:     2,
			DefaultWindow:              &window,
		},
		BatchSize:  10,
		PreviewTTL: time.Minute,
	})
	f.svc.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return f
}

func serviceRequest() ScheduleRequest {
	return ScheduleRequest{
		CooperativeID: "coop",
		DateRange:     domain.DateRange{Start: day("2025-03-03"), End: day("2025-03-04")},
		Routes:        []domain.RouteSpec{testRoute("T1", "T2", 120, 150)},
	}
}

func TestPreviewDoesNotPersistAndIsCached(t *testing.T) {
	f := newServiceFixture(1)

	first, err := f.svc.Preview(context.Background(), serviceRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !first.Viable || len(first.Trips) != 10 {
		t.Fatalf("viable=%v trips=%d", first.Viable, len(first.Trips))
	}
	if len(f.trips.active) != 0 || f.trips.insertCalls != 0 {
		t.Fatalf("preview must not persist")
	}
	if f.cache.sets != 1 {
		t.Fatalf("cache sets = %d", f.cache.sets)
	}

	second, err := f.svc.Preview(context.Background(), serviceRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if f.cache.sets != 1 {
		t.Fatalf("second preview should be served from cache, cache sets = %d", f.cache.sets)
	}
	if len(second.Trips) != len(first.Trips) || second.Trips[4].TripID != first.Trips[4].TripID {
		t.Fatalf("cached preview differs")
	}
	if !second.Trips[0].DepartAt.Equal(first.Trips[0].DepartAt) {
		t.Fatalf("cached departure = %v", second.Trips[0].DepartAt)
	}
}

func TestPreviewCacheMissesAfterFleetChange(t *testing.T) {
	f := newServiceFixture(1)
	ctx := context.Background()

	first, err := f.svc.Preview(ctx, serviceRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !first.Viable {
		t.Fatalf("errors = %v", first.Errors)
	}

	f.fleet.fleet[0].Bus.Status = domain.BusMaintenance

	second, err := f.svc.Preview(ctx, serviceRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if second.Viable || len(second.Trips) != 0 || !slices.Contains(second.Errors, "no buses available") {
		t.Fatalf("stale preview: viable=%v trips=%d errors=%v", second.Viable, len(second.Trips), second.Errors)
	}
	if f.cache.sets != 2 {
		t.Fatalf("cache sets = %d, want a fresh entry for the changed fleet", f.cache.sets)
	}
}

func TestPreviewEstimatesMissingMetrics(t *testing.T) {
	f := newServiceFixture(1)
	req := serviceRequest()
	req.Routes = []domain.RouteSpec{{OriginTerminalID: "T1", DestinationTerminalID: "T3", Price: 3}}

	res, err := f.svc.Preview(context.Background(), req)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !res.Viable {
		t.Fatalf("errors = %v", res.Errors)
	}
	trip := res.Trips[0]
	if trip.DistanceKm == nil || *trip.DistanceKm <= 0 || trip.DurationMinutes() <= 0 {
		t.Fatalf("trip = %+v", trip)
	}
	if trip.Category != domain.RouteIntra {
		t.Fatalf("T1->T3 is well under 100 km, category = %s", trip.Category)
	}
}

func TestPreviewUsesStoredSettings(t *testing.T) {
	f := newServiceFixture(1)
	f.settings.settings = &domain.CooperativeSettings{ExtendedDayHours: 8}

	res, err := f.svc.Preview(context.Background(), serviceRequest())
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(res.Trips) != 8 {
		t.Fatalf("trips = %d, want 4 per day under an 8 h ceiling", len(res.Trips))
	}
}

func TestGeneratePersistsAndNotifies(t *testing.T) {
	f := newServiceFixture(2)
	ctx := context.Background()

	if _, err := f.svc.Preview(ctx, serviceRequest()); err != nil {
		t.Fatalf("preview: %v", err)
	}

	report, err := f.svc.Generate(ctx, serviceRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !report.Viable || report.Summary.Created != 20 || report.Summary.Failed != 0 {
		t.Fatalf("report = %+v", report)
	}
	if len(f.trips.active) != 20 {
		t.Fatalf("active = %d", len(f.trips.active))
	}
	if len(f.cache.invalidated) != 1 || f.cache.entries != nil {
		t.Fatalf("previews must be invalidated after generate")
	}
	if len(f.publisher.events) != 1 {
		t.Fatalf("events = %d", len(f.publisher.events))
	}
	e := f.publisher.events[0]
	if e.CooperativeID != "coop" || e.Created != 20 || e.StartDate != "2025-03-03" || e.EndDate != "2025-03-04" {
		t.Fatalf("event = %+v", e)
	}

	again, err := f.svc.Generate(ctx, serviceRequest())
	if err != nil {
		t.Fatalf("second generate: %v", err)
	}
	if again.Summary.Deleted != 20 || again.Summary.Created != 20 || len(f.trips.active) != 20 {
		t.Fatalf("second report = %+v active=%d", again.Summary, len(f.trips.active))
	}
}

func TestGenerateWithoutTripsKeepsExistingState(t *testing.T) {
	f := newServiceFixture(1)
	ctx := context.Background()
	if _, err := f.svc.Generate(ctx, serviceRequest()); err != nil {
		t.Fatalf("generate: %v", err)
	}

	f.fleet.fleet = nil
	report, err := f.svc.Generate(ctx, serviceRequest())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Viable || !slices.Contains(report.Errors, "no buses available") {
		t.Fatalf("report = %+v", report)
	}
	if len(f.trips.active) != 10 {
		t.Fatalf("existing trips must survive a run without trips, active = %d", len(f.trips.active))
	}
	if len(f.publisher.events) != 1 {
		t.Fatalf("no event for a run that changed nothing")
	}
}

func TestGenerateRejectsConcurrentRunForSameCooperative(t *testing.T) {
	f := newServiceFixture(1)
	unlock, err := f.locker.Lock(context.Background(), "coop")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	_, err = f.svc.Generate(context.Background(), serviceRequest())
	if !errors.Is(err, domain.ErrLockNotAcquired) {
		t.Fatalf("err = %v, want ErrLockNotAcquired", err)
	}

	other := serviceRequest()
	other.CooperativeID = "coop-2"
	if _, err := f.svc.Generate(context.Background(), other); err != nil {
		t.Fatalf("other cooperative must not be blocked: %v", err)
	}

	unlock()
	if _, err := f.svc.Generate(context.Background(), serviceRequest()); err != nil {
		t.Fatalf("generate after unlock: %v", err)
	}
}

func TestGenerateSurvivesPublishFailure(t *testing.T) {
	f := newServiceFixture(1)
	f.publisher.err = errors.New("channel closed")

	report, err := f.svc.Generate(context.Background(), serviceRequest())
	if err != nil {
		t.Fatalf("publish failure must not fail generate: %v", err)
	}
	if report.Summary.Created != 10 {
		t.Fatalf("report = %+v", report.Summary)
	}
}

func TestLocalLockerUnlockIsIdempotent(t *testing.T) {
	l := NewLocalLocker()
	unlock, err := l.Lock(context.Background(), "c")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "c")
	if err != nil {
		t.Fatalf("relock: %v", err)
	}
	again()
}
