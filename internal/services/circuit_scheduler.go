package services

import (
	"context"
	"fmt"
	"time"
	"trip-scheduler-service/internal/domain"

	"go.uber.org/zap"
)

// ScheduleRequest is the caller's selection for a preview or generate run.
type ScheduleRequest struct {
	CooperativeID string
	DateRange     domain.DateRange
	// OperatingDays lists the allowed weekdays. Empty means every day.
	OperatingDays []time.Weekday
	// Window may be zero, in which case the cooperative default applies.
	Window           domain.OperatingWindow
	Routes           []domain.RouteSpec
	AllowStops       bool
	MaxStopsOverride *int
	// StrictTerminalCapacity delays a departure to the next slot with a free
	// stand instead of reporting an advisory.
	StrictTerminalCapacity bool
}

// SchedulerInput holds the resolved collaborators for one run.
type SchedulerInput struct {
	Fleet       []domain.BusAssignment
	Unavailable []domain.BusUnavailability
	Terminals   []domain.Terminal
	Settings    domain.CooperativeSettings
}

// ScheduleResult is the outcome of a simulation run.
type ScheduleResult struct {
	Viable        bool
	Trips         []domain.TripInstance
	TripsPerRoute map[string]int
	TripsPerBus   map[string]int
	BusesUsed     int
	Advisories    []string
	Errors        []string
}

func newScheduleResult() *ScheduleResult {
	return &ScheduleResult{
		Trips:         []domain.TripInstance{},
		TripsPerRoute: map[string]int{},
		TripsPerBus:   map[string]int{},
		Advisories:    []string{},
		Errors:        []string{},
	}
}

// CircuitScheduler simulates outbound/return circuits day by day.
//
// A run is single-threaded: all day state lives in local values and the
// ledgers are owned by the run. Separate runs may execute concurrently.
type CircuitScheduler struct {
	log *zap.Logger
}

func NewCircuitScheduler(log *zap.Logger) *CircuitScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &CircuitScheduler{log: log}
}

// plannedRoute is a selected route that passed the feasibility checks.
type plannedRoute struct {
	spec           domain.RouteSpec
	label          string
	classification Classification
	stops          int
}

type busDayState struct {
	assignment    domain.BusAssignment
	ceiling       int
	minutesWorked int
	sequence      int
	availableAt   time.Time
}

// schedulingRun carries the per-invocation ledgers and outputs.
type schedulingRun struct {
	req       ScheduleRequest
	window    domain.OperatingWindow
	rest      RestPolicy
	drivers   *DriverWeeklyLedger
	occupancy *TerminalOccupancyLedger
	result    *ScheduleResult
	noted     map[string]struct{}
}

func (r *schedulingRun) advise(msg string) {
	if _, seen := r.noted[msg]; seen {
		return
	}
	r.noted[msg] = struct{}{}
	r.result.Advisories = append(r.result.Advisories, msg)
}

// Schedule runs the simulation. Input problems are reported in the result's
// Errors with no trips; the returned error is reserved for cancellation.
func (s *CircuitScheduler) Schedule(ctx context.Context, req ScheduleRequest, in SchedulerInput) (*ScheduleResult, error) {
	const op = "service.CircuitScheduler.Schedule"

	res := newScheduleResult()

	window := req.Window
	if window == (domain.OperatingWindow{}) && in.Settings.DefaultWindow != nil {
		window = *in.Settings.DefaultWindow
	}

	if errs := validateScheduleInput(req, window, in); len(errs) > 0 {
		res.Errors = errs
		s.log.Info("schedule rejected",
			zap.String("op", op),
			zap.String("cooperative_id", req.CooperativeID),
			zap.Strings("errors", errs),
		)
		return res, nil
	}

	run := &schedulingRun{
		req:    req,
		window: window,
		rest: RestPolicy{
			BaseMinutesIntra: in.Settings.RestBaseMinutesIntra,
			BaseMinutesInter: in.Settings.RestBaseMinutesInter,
		},
		drivers:   NewDriverWeeklyLedger(laborPolicyFrom(in.Settings)),
		occupancy: NewTerminalOccupancyLedger(in.Terminals),
		result:    res,
		noted:     make(map[string]struct{}),
	}

	routes := s.planRoutes(run, req, in)
	if len(routes) == 0 {
		res.Errors = append(res.Errors, "no feasible routes to schedule")
		return res, nil
	}

	buses, excluded := eligibleBuses(in.Fleet)
	for _, a := range excluded {
		run.advise(a)
	}
	if len(buses) == 0 {
		res.Errors = append(res.Errors, "no buses available")
		return res, nil
	}
	if len(buses) < len(in.Fleet) {
		run.advise(fmt.Sprintf("%d of %d buses will be used", len(buses), len(in.Fleet)))
	}
	if len(buses) < len(routes) {
		run.advise(fmt.Sprintf("only %d of %d routes will receive buses", len(buses), len(routes)))
	}

	for _, a := range buses {
		run.drivers.Seed(a.Driver)
	}

	unavailable := indexUnavailability(in.Unavailable)
	weekdays := weekdaySet(req.OperatingDays)

	var prevWeek domain.ISOWeek
	for _, day := range req.DateRange.Days() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !weekdays[day.Weekday()] {
			continue
		}

		week := domain.ISOWeekOf(day)
		if prevWeek != (domain.ISOWeek{}) && week != prevWeek {
			run.drivers.ResetWeek(week)
			s.log.Debug("driver week reset",
				zap.String("op", op),
				zap.Int("iso_year", week.Year),
				zap.Int("iso_week", week.Week),
			)
		}
		prevWeek = week

		dayBuses := availableOn(buses, unavailable, day)
		if len(dayBuses) == 0 {
			run.advise("no eligible buses on " + domain.FormatDate(day))
			continue
		}

		s.scheduleDay(run, routes, dayBuses, day)
	}

	for _, r := range routes {
		if res.TripsPerRoute[r.label] == 0 {
			run.advise("route " + r.label + " has no trips scheduled")
		}
	}

	res.BusesUsed = len(res.TripsPerBus)
	res.Viable = len(res.Trips) > 0

	s.log.Info("schedule simulated",
		zap.String("op", op),
		zap.String("cooperative_id", req.CooperativeID),
		zap.Int("trips", len(res.Trips)),
		zap.Int("buses_used", res.BusesUsed),
		zap.Int("advisories", len(res.Advisories)),
		zap.Int("errors", len(res.Errors)),
	)
	return res, nil
}

func validateScheduleInput(req ScheduleRequest, window domain.OperatingWindow, in SchedulerInput) []string {
	var errs []string
	if len(in.Fleet) == 0 {
		errs = append(errs, "no buses available")
	}
	if len(in.Terminals) == 0 {
		errs = append(errs, "no terminals configured")
	}
	if len(req.Routes) == 0 {
		errs = append(errs, "no routes selected")
	}
	if err := req.DateRange.Validate(); err != nil {
		errs = append(errs, "invalid date range: "+err.Error())
	}
	if err := window.Validate(); err != nil {
		errs = append(errs, "invalid operating window: "+err.Error())
	}
	return errs
}

// planRoutes classifies each selected route once and drops the infeasible
// ones with an error naming them.
func (s *CircuitScheduler) planRoutes(run *schedulingRun, req ScheduleRequest, in SchedulerInput) []plannedRoute {
	terminals := make(map[string]struct{}, len(in.Terminals))
	for _, t := range in.Terminals {
		terminals[t.TerminalID] = struct{}{}
	}

	classifier := NewRouteClassifier(in.Settings.InterprovincialThresholdKm)
	ceiling := laborPolicyFrom(in.Settings).ExtendedDayMinutes
	cache := make(map[classificationKey]Classification)

	var out []plannedRoute
	for _, spec := range req.Routes {
		label := spec.Label()

		outcome := checkRoute(spec, terminals, ceiling)
		if outcome.Kind != OutcomeOK {
			run.result.Errors = append(run.result.Errors, outcome.Reason)
			s.log.Warn("route skipped",
				zap.String("route", label),
				zap.String("reason", outcome.Reason),
			)
			continue
		}

		key := classificationKeyOf(spec)
		c, ok := cache[key]
		if !ok {
			c = classifier.ClassifyRoute(spec)
			cache[key] = c
		}

		out = append(out, plannedRoute{
			spec:           spec,
			label:          label,
			classification: c,
			stops:          EffectiveStops(c, req.AllowStops, req.MaxStopsOverride),
		})
	}
	return out
}

// classificationKey identifies the inputs of a classification, so the same
// terminal pair selected with different metrics is classified separately.
type classificationKey struct {
	label           string
	hasDistance     bool
	distanceKm      float64
	durationMinutes int
}

func classificationKeyOf(spec domain.RouteSpec) classificationKey {
	k := classificationKey{label: spec.Label(), durationMinutes: spec.DurationMinutes}
	if spec.DistanceKm != nil {
		k.hasDistance = true
		k.distanceKm = *spec.DistanceKm
	}
	return k
}

func checkRoute(spec domain.RouteSpec, terminals map[string]struct{}, ceilingMinutes int) Outcome {
	label := spec.Label()
	if spec.OriginTerminalID == spec.DestinationTerminalID {
		return errorOutcome("route " + label + " has the same origin and destination; route skipped")
	}
	for _, id := range []string{spec.OriginTerminalID, spec.DestinationTerminalID} {
		if _, ok := terminals[id]; !ok {
			return errorOutcome("route " + label + " references unknown terminal " + id + "; route skipped")
		}
	}
	if spec.DurationMinutes <= 0 {
		return errorOutcome("route " + label + " has no travel duration; route skipped")
	}
	if spec.DurationMinutes > ceilingMinutes {
		return errorOutcome(fmt.Sprintf(
			"route %s one-way duration of %d min exceeds the %d h daily ceiling; route skipped",
			label, spec.DurationMinutes, ceilingMinutes/60,
		))
	}
	return okOutcome(domain.TripInstance{})
}

func (s *CircuitScheduler) scheduleDay(run *schedulingRun, routes []plannedRoute, buses []domain.BusAssignment, day time.Time) {
	partition := AssignBusesToRoutes(len(routes), buses)
	opensAt := run.window.Open.On(day)

	var worked []*busDayState
	for ri, route := range partition {
		for bi, a := range route {
			st := &busDayState{
				assignment:  a,
				ceiling:     run.drivers.CeilingMinutes(a.Driver.DriverID, day),
				availableAt: opensAt.Add(StaggerOffset(bi)),
			}
			s.runBusDay(run, routes[ri], st, day)
			if st.minutesWorked > 0 {
				worked = append(worked, st)
			}
		}
	}

	for _, st := range worked {
		run.drivers.RecordDay(st.assignment.Driver.DriverID, day, st.minutesWorked)
	}
}

// runBusDay alternates outbound and return legs until the driver ceiling or
// the window close stops the bus.
func (s *CircuitScheduler) runBusDay(run *schedulingRun, route plannedRoute, st *busDayState, day time.Time) {
	legs := [2]struct {
		spec      domain.RouteSpec
		direction domain.Direction
	}{
		{route.spec, domain.DirectionOutbound},
		{route.spec.Reverse(), domain.DirectionReturn},
	}

	for {
		for _, leg := range legs {
			outcome := s.planLeg(run, route, leg.spec, leg.direction, st, day)
			if outcome.Kind != OutcomeOK {
				s.log.Debug("bus day ended",
					zap.String("bus_id", st.assignment.Bus.BusID),
					zap.String("date", domain.FormatDate(day)),
					zap.String("reason", outcome.Reason),
				)
				return
			}
			run.emit(route, *outcome.Trip)
		}
	}
}

func (s *CircuitScheduler) planLeg(run *schedulingRun, route plannedRoute, spec domain.RouteSpec, dir domain.Direction, st *busDayState, day time.Time) Outcome {
	duration := spec.DurationMinutes
	if st.minutesWorked+duration > st.ceiling {
		return skippedOutcome("driver ceiling reached")
	}

	closesAt := run.window.Close.On(day)
	depart := st.availableAt
	// Slots only index the simulated day; rest may carry the bus past it.
	if !domain.DateOf(depart).Equal(domain.DateOf(day)) || !depart.Before(closesAt) {
		return skippedOutcome("operating window closes")
	}
	slot := SlotOf(depart)

	reserved := false
	if run.req.StrictTerminalCapacity {
		free, ok, err := run.occupancy.NextFreeSlot(spec.OriginTerminalID, day, slot, run.window)
		if err != nil {
			return errorOutcome(err.Error())
		}
		if !ok {
			return skippedOutcome("no free stand at " + spec.OriginTerminalID)
		}
		if free != slot {
			slot = free
			depart = SlotStart(day, slot)
		}
		if err := run.occupancy.Reserve(spec.OriginTerminalID, day, slot); err != nil {
			return errorOutcome(err.Error())
		}
		reserved = true
	}

	arrive := depart.Add(time.Duration(duration) * time.Minute)
	if arrive.After(closesAt) {
		if reserved {
			run.occupancy.Release(spec.OriginTerminalID, day, slot)
		}
		return skippedOutcome("operating window closes")
	}

	if !reserved {
		if err := run.occupancy.Reserve(spec.OriginTerminalID, day, slot); err != nil {
			run.advise(fmt.Sprintf("terminal %s has no free stand at %s on %s",
				spec.OriginTerminalID, SlotStart(day, slot).Format("15:04"), domain.FormatDate(day)))
		}
	}

	rest := run.rest.RestAfter(duration, route.classification.Category)
	st.sequence++
	st.minutesWorked += duration
	st.availableAt = arrive.Add(time.Duration(rest) * time.Minute)

	bus := st.assignment.Bus
	trip := domain.TripInstance{
		CooperativeID:         run.req.CooperativeID,
		Date:                  day,
		Weekday:               day.Weekday(),
		Direction:             dir,
		OriginTerminalID:      spec.OriginTerminalID,
		DestinationTerminalID: spec.DestinationTerminalID,
		BusID:                 bus.BusID,
		DriverID:              st.assignment.Driver.DriverID,
		DepartAt:              depart,
		ArriveAt:              arrive,
		SeatCapacity:          bus.Capacity,
		RestMinutes:           rest,
		Category:              route.classification.Category,
		MaxStops:              route.stops,
		Price:                 spec.Price,
		DistanceKm:            spec.DistanceKm,
		Sequence:              st.sequence,
		Active:                true,
	}
	trip.TripID = domain.NewTripID(trip.CooperativeID, trip.Key())
	return okOutcome(trip)
}

func (r *schedulingRun) emit(route plannedRoute, trip domain.TripInstance) {
	r.result.Trips = append(r.result.Trips, trip)
	r.result.TripsPerRoute[route.label]++
	r.result.TripsPerBus[trip.BusID]++
}

func weekdaySet(days []time.Weekday) map[time.Weekday]bool {
	set := make(map[time.Weekday]bool, 7)
	if len(days) == 0 {
		for d := time.Sunday; d <= time.Saturday; d++ {
			set[d] = true
		}
		return set
	}
	for _, d := range days {
		set[d] = true
	}
	return set
}
