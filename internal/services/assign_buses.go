package services

import (
	"time"
	"trip-scheduler-service/internal/domain"
)

// StaggerStep separates the first departures of buses sharing a route.
const StaggerStep = SlotMinutes * time.Minute

// AssignBusesToRoutes partitions buses across routes round-robin.
//
// Bus i goes to route i mod len(routes), so routes are fed in selection order
// and extra buses double up from the first route on. With fewer buses than
// routes the trailing routes receive none. Buses keep their input order
// within a route, which fixes their stagger.
func AssignBusesToRoutes(routeCount int, buses []domain.BusAssignment) [][]domain.BusAssignment {
	if routeCount <= 0 {
		return nil
	}

	out := make([][]domain.BusAssignment, routeCount)
	for i, b := range buses {
		ri := i % routeCount
		out[ri] = append(out[ri], b)
	}
	return out
}

// StaggerOffset is the first-departure offset of the n-th bus on a route.
func StaggerOffset(n int) time.Duration {
	return time.Duration(n) * StaggerStep
}

// eligibleBuses keeps buses that are schedulable and paired with a driver.
// Exclusions are reported as advisories.
func eligibleBuses(fleet []domain.BusAssignment) ([]domain.BusAssignment, []string) {
	var (
		out        []domain.BusAssignment
		advisories []string
	)
	for _, a := range fleet {
		switch {
		case !a.Bus.Schedulable():
			advisories = append(advisories, "bus "+a.Bus.BusID+" is "+string(a.Bus.Status)+" and was excluded")
		case a.Driver.DriverID == "":
			advisories = append(advisories, "bus "+a.Bus.BusID+" has no paired driver and was excluded")
		default:
			out = append(out, a)
		}
	}
	return out, advisories
}

// availableOn drops buses marked unavailable on date.
func availableOn(buses []domain.BusAssignment, unavailable map[string]map[time.Time]struct{}, date time.Time) []domain.BusAssignment {
	day := domain.DateOf(date)
	out := make([]domain.BusAssignment, 0, len(buses))
	for _, b := range buses {
		if _, off := unavailable[b.Bus.BusID][day]; off {
			continue
		}
		out = append(out, b)
	}
	return out
}

func indexUnavailability(rows []domain.BusUnavailability) map[string]map[time.Time]struct{} {
	idx := make(map[string]map[time.Time]struct{})
	for _, r := range rows {
		days, ok := idx[r.BusID]
		if !ok {
			days = make(map[time.Time]struct{})
			idx[r.BusID] = days
		}
		days[domain.DateOf(r.Date)] = struct{}{}
	}
	return idx
}
