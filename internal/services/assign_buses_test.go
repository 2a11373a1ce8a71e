package services

import (
	"fmt"
	"testing"
	"time"
	"trip-scheduler-service/internal/domain"
)

func testFleet(n int) []domain.BusAssignment {
	out := make([]domain.BusAssignment, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.BusAssignment{
			Bus: domain.Bus{
				BusID:    fmt.Sprintf("B%d", i),
				Capacity: 40,
				Status:   domain.BusAvailable,
				DriverID: fmt.Sprintf("D%d", i),
			},
			Driver: domain.Driver{DriverID: fmt.Sprintf("D%d", i)},
		})
	}
	return out
}

func busIDs(as []domain.BusAssignment) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.Bus.BusID)
	}
	return out
}

func TestAssignBusesToRoutes(t *testing.T) {
	cases := []struct {
		name   string
		routes int
		buses  int
		want   [][]string
	}{
		{"one per route", 2, 2, [][]string{{"B1"}, {"B2"}}},
		{"extras round robin", 2, 5, [][]string{{"B1", "B3", "B5"}, {"B2", "B4"}}},
		{"fewer buses than routes", 3, 1, [][]string{{"B1"}, nil, nil}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AssignBusesToRoutes(tc.routes, testFleet(tc.buses))
			if len(got) != tc.routes {
				t.Fatalf("routes = %d, want %d", len(got), tc.routes)
			}
			for i := range tc.want {
				ids := busIDs(got[i])
				if fmt.Sprint(ids) != fmt.Sprint(tc.want[i]) {
					t.Fatalf("route %d = %v, want %v", i, ids, tc.want[i])
				}
			}
		})
	}

	if got := AssignBusesToRoutes(0, testFleet(2)); got != nil {
		t.Fatalf("no routes should yield nil, got %v", got)
	}
}

func TestStaggerOffset(t *testing.T) {
	if StaggerOffset(0) != 0 || StaggerOffset(3) != 45*time.Minute {
		t.Fatalf("offsets = %v, %v", StaggerOffset(0), StaggerOffset(3))
	}
}

func TestEligibleBuses(t *testing.T) {
	fleet := testFleet(4)
	fleet[1].Bus.Status = domain.BusMaintenance
	fleet[2].Bus.Status = domain.BusInService
	fleet[3].Driver = domain.Driver{}

	got, advisories := eligibleBuses(fleet)
	if fmt.Sprint(busIDs(got)) != "[B1 B3]" {
		t.Fatalf("eligible = %v", busIDs(got))
	}
	want := []string{
		"bus B2 is maintenance and was excluded",
		"bus B4 has no paired driver and was excluded",
	}
	if fmt.Sprint(advisories) != fmt.Sprint(want) {
		t.Fatalf("advisories = %q", advisories)
	}
}

func TestAvailableOn(t *testing.T) {
	fleet := testFleet(2)
	idx := indexUnavailability([]domain.BusUnavailability{
		{BusID: "B2", Date: time.Date(2025, 3, 4, 13, 0, 0, 0, time.UTC)},
	})

	if got := availableOn(fleet, idx, day("2025-03-03")); len(got) != 2 {
		t.Fatalf("monday = %v", busIDs(got))
	}
	if got := availableOn(fleet, idx, day("2025-03-04")); fmt.Sprint(busIDs(got)) != "[B1]" {
		t.Fatalf("tuesday = %v", busIDs(got))
	}
}
