package services

import (
	"context"
	"errors"
	"testing"
	"trip-scheduler-service/internal/domain"
)

func newTripServiceFixture() (*TripService, *fakeTripStore) {
	store := newFakeTripStore()
	terminals := &fakeTerminals{terminals: locatedTerminals()}
	return NewTripService(nil, store, store, terminals, testWindow("05:00", "22:00")), store
}

func TestTripServiceListActive(t *testing.T) {
	svc, store := newTripServiceFixture()
	for _, trip := range scheduledTrips(t, 1) {
		store.active[trip.Key()] = trip
	}

	trips, err := svc.ListActive(context.Background(), "coop", singleDay("2025-03-04"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trips) != 5 {
		t.Fatalf("trips = %d, want the 5 legs of 2025-03-04", len(trips))
	}

	_, err = svc.ListActive(context.Background(), "coop", domain.DateRange{Start: day("2025-03-04"), End: day("2025-03-03")})
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
}

func TestTripServiceDeactivate(t *testing.T) {
	svc, store := newTripServiceFixture()
	trips := scheduledTrips(t, 1)
	for _, trip := range trips {
		store.active[trip.Key()] = trip
	}

	if err := svc.Deactivate(context.Background(), trips[0].TripID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if len(store.active) != len(trips)-1 || len(store.inactive) != 1 {
		t.Fatalf("active=%d inactive=%d", len(store.active), len(store.inactive))
	}

	err := svc.Deactivate(context.Background(), trips[0].TripID)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second deactivate err = %v, want ErrNotFound", err)
	}
}

func TestTripServiceSuggestSlots(t *testing.T) {
	svc, store := newTripServiceFixture()
	store.slotCounts = map[int]int{20: 2}

	slots, err := svc.SuggestSlots(context.Background(), "T1", day("2025-03-03"), testWindow("05:00", "06:00"), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("slots = %+v", slots)
	}
	for _, s := range slots {
		if s.Slot == 20 {
			t.Fatalf("05:00 is full and must not be suggested")
		}
	}

	all, err := svc.SuggestSlots(context.Background(), "T1", day("2025-03-03"), domain.OperatingWindow{}, 0)
	if err != nil {
		t.Fatalf("default window: %v", err)
	}
	if len(all) != 67 {
		t.Fatalf("default window slots = %d, want 67", len(all))
	}
}

func TestTripServiceSuggestSlotsErrors(t *testing.T) {
	svc, _ := newTripServiceFixture()

	_, err := svc.SuggestSlots(context.Background(), "T9", day("2025-03-03"), domain.OperatingWindow{}, 5)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown terminal err = %v", err)
	}

	_, err = svc.SuggestSlots(context.Background(), "T1", day("2025-03-03"), testWindow("12:00", "06:00"), 5)
	if !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("inverted window err = %v", err)
	}
}
