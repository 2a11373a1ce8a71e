package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/ports"
)

type fakeTripStore struct {
	mu          sync.Mutex
	active      map[domain.TripKey]domain.TripInstance
	inactive    []domain.TripInstance
	insertCalls int
	failBatch   int // 1-based InsertBatch call that fails; 0 never
	deleteErr   error
	slotCounts  map[int]int
}

func newFakeTripStore() *fakeTripStore {
	return &fakeTripStore{active: make(map[domain.TripKey]domain.TripInstance)}
}

func (s *fakeTripStore) DeleteActive(_ context.Context, cooperativeID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	var n int64
	for k, t := range s.active {
		if t.CooperativeID == cooperativeID {
			delete(s.active, k)
			n++
		}
	}
	return n, nil
}

func (s *fakeTripStore) ExistingActiveKeys(_ context.Context, cooperativeID string, keys []domain.TripKey) (map[domain.TripKey]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.TripKey]struct{})
	for _, k := range keys {
		if t, ok := s.active[k]; ok && t.CooperativeID == cooperativeID {
			out[k] = struct{}{}
		}
	}
	return out, nil
}

func (s *fakeTripStore) InsertBatch(_ context.Context, trips []domain.TripInstance) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertCalls++
	if s.insertCalls == s.failBatch {
		return 0, errors.New("connection reset")
	}
	n := 0
	for _, t := range trips {
		if _, dup := s.active[t.Key()]; dup {
			continue
		}
		s.active[t.Key()] = t
		n++
	}
	return n, nil
}

func (s *fakeTripStore) ListActive(_ context.Context, cooperativeID string, from, to time.Time) ([]domain.TripInstance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.TripInstance
	for _, t := range s.active {
		if t.CooperativeID == cooperativeID && !t.Date.Before(from) && !t.Date.After(to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTripStore) Deactivate(_ context.Context, tripID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, t := range s.active {
		if t.TripID == tripID {
			delete(s.active, k)
			t.Active = false
			s.inactive = append(s.inactive, t)
			return nil
		}
	}
	return fmt.Errorf("trip %s: %w", tripID, domain.ErrNotFound)
}

func (s *fakeTripStore) SlotCounts(context.Context, string, time.Time) (map[int]int, error) {
	return s.slotCounts, nil
}

type fakeRouteRepo struct {
	mu       sync.Mutex
	calls    int
	ids      map[string]string
	failPair string
}

func (r *fakeRouteRepo) GetOrCreate(_ context.Context, cooperativeID string, spec domain.RouteSpec, category domain.RouteCategory, maxStops int) (domain.Route, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	label := spec.Label()
	if label == r.failPair {
		return domain.Route{}, errors.New("unique violation")
	}
	if r.ids == nil {
		r.ids = make(map[string]string)
	}
	id, ok := r.ids[label]
	if !ok {
		id = fmt.Sprintf("route-%d", len(r.ids)+1)
		r.ids[label] = id
	}
	return domain.Route{
		RouteID:               id,
		CooperativeID:         cooperativeID,
		OriginTerminalID:      spec.OriginTerminalID,
		DestinationTerminalID: spec.DestinationTerminalID,
		Category:              category,
		MaxStops:              maxStops,
	}, nil
}

type fakeFleet struct {
	fleet       []domain.BusAssignment
	unavailable []domain.BusUnavailability
	calls       int
}

func (f *fakeFleet) ListAssignments(context.Context, string) ([]domain.BusAssignment, error) {
	f.calls++
	return f.fleet, nil
}

func (f *fakeFleet) ListUnavailable(context.Context, string, time.Time, time.Time) ([]domain.BusUnavailability, error) {
	return f.unavailable, nil
}

type fakeTerminals struct {
	terminals []domain.Terminal
}

func (f *fakeTerminals) ListTerminals(context.Context, string) ([]domain.Terminal, error) {
	return f.terminals, nil
}

func (f *fakeTerminals) GetTerminal(_ context.Context, terminalID string) (domain.Terminal, error) {
	for _, t := range f.terminals {
		if t.TerminalID == terminalID {
			return t, nil
		}
	}
	return domain.Terminal{}, fmt.Errorf("terminal %s: %w", terminalID, domain.ErrNotFound)
}

type fakeSettings struct {
	settings *domain.CooperativeSettings
}

func (f *fakeSettings) GetSettings(context.Context, string) (domain.CooperativeSettings, error) {
	if f.settings == nil {
		return domain.CooperativeSettings{}, domain.ErrNotFound
	}
	return *f.settings, nil
}

type fakePreviewCache struct {
	entries     map[string][]byte
	sets        int
	invalidated []string
}

func (c *fakePreviewCache) Get(_ context.Context, cooperativeID, fingerprint string) ([]byte, error) {
	b, ok := c.entries[cooperativeID+"/"+fingerprint]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

func (c *fakePreviewCache) Set(_ context.Context, cooperativeID, fingerprint string, payload []byte, _ time.Duration) error {
	if c.entries == nil {
		c.entries = make(map[string][]byte)
	}
	c.sets++
	c.entries[cooperativeID+"/"+fingerprint] = payload
	return nil
}

func (c *fakePreviewCache) Invalidate(_ context.Context, cooperativeID string) error {
	c.invalidated = append(c.invalidated, cooperativeID)
	c.entries = nil
	return nil
}

type fakePublisher struct {
	events []ports.ScheduleRegenerated
	err    error
}

func (p *fakePublisher) PublishRegenerated(_ context.Context, e ports.ScheduleRegenerated) error {
	p.events = append(p.events, e)
	return p.err
}
