package dto

import (
	"fmt"
	"strings"
	"time"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/services"
)

type DateRangeRequest struct {
	Start string `json:"start" validate:"required,datetime=2006-01-02"`
	End   string `json:"end" validate:"required,datetime=2006-01-02"`
}

type WindowRequest struct {
	Open  string `json:"open" validate:"required"`
	Close string `json:"close" validate:"required"`
}

type RouteRequest struct {
	OriginTerminalID      string   `json:"origin_terminal_id" validate:"required"`
	DestinationTerminalID string   `json:"destination_terminal_id" validate:"required,nefield=OriginTerminalID"`
	DistanceKm            *float64 `json:"distance_km" validate:"omitempty,gte=0"`
	DurationMinutes       int      `json:"duration_minutes" validate:"gte=0"`
	Price                 float64  `json:"price" validate:"gte=0"`
}

// ScheduleRequest is the body of preview and generate calls. OperatingDays
// accepts weekday numbers (0 = Sunday) or English names; empty means every day.
type ScheduleRequest struct {
	DateRange              DateRangeRequest `json:"date_range"`
	OperatingDays          []string         `json:"operating_days" validate:"dive,required"`
	OperatingWindow        *WindowRequest   `json:"operating_window"`
	Routes                 []RouteRequest   `json:"routes" validate:"dive"`
	AllowStops             bool             `json:"allow_stops"`
	MaxStopsOverride       *int             `json:"max_stops_override" validate:"omitempty,gte=0"`
	StrictTerminalCapacity bool             `json:"strict_terminal_capacity"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "0": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "1": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "2": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "3": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "4": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "5": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "6": time.Saturday,
}

// ToService converts a validated request into the scheduler's request type.
func (r ScheduleRequest) ToService(cooperativeID string) (services.ScheduleRequest, error) {
	start, err := domain.ParseDate(r.DateRange.Start)
	if err != nil {
		return services.ScheduleRequest{}, err
	}
	end, err := domain.ParseDate(r.DateRange.End)
	if err != nil {
		return services.ScheduleRequest{}, err
	}

	days := make([]time.Weekday, 0, len(r.OperatingDays))
	seen := make(map[time.Weekday]bool, 7)
	for _, raw := range r.OperatingDays {
		d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(raw))]
		if !ok {
			return services.ScheduleRequest{}, fmt.Errorf("unknown operating day %q", raw)
		}
		if !seen[d] {
			seen[d] = true
			days = append(days, d)
		}
	}

	var window domain.OperatingWindow
	if r.OperatingWindow != nil {
		open, err := domain.ParseTimeOfDay(r.OperatingWindow.Open)
		if err != nil {
			return services.ScheduleRequest{}, err
		}
		closeAt, err := domain.ParseTimeOfDay(r.OperatingWindow.Close)
		if err != nil {
			return services.ScheduleRequest{}, err
		}
		window = domain.OperatingWindow{Open: open, Close: closeAt}
	}

	routes := make([]domain.RouteSpec, 0, len(r.Routes))
	for _, rt := range r.Routes {
		routes = append(routes, domain.RouteSpec{
			OriginTerminalID:      strings.TrimSpace(rt.OriginTerminalID),
			DestinationTerminalID: strings.TrimSpace(rt.DestinationTerminalID),
			DistanceKm:            rt.DistanceKm,
			DurationMinutes:       rt.DurationMinutes,
			Price:                 rt.Price,
		})
	}

	return services.ScheduleRequest{
		CooperativeID:          cooperativeID,
		DateRange:              domain.DateRange{Start: start, End: end},
		OperatingDays:          days,
		Window:                 window,
		Routes:                 routes,
		AllowStops:             r.AllowStops,
		MaxStopsOverride:       r.MaxStopsOverride,
		StrictTerminalCapacity: r.StrictTerminalCapacity,
	}, nil
}

type TripResponse struct {
	TripID                string   `json:"trip_id"`
	RouteID               string   `json:"route_id,omitempty"`
	Date                  string   `json:"date"`
	Weekday               string   `json:"weekday"`
	Direction             string   `json:"direction"`
	OriginTerminalID      string   `json:"origin_terminal_id"`
	DestinationTerminalID string   `json:"destination_terminal_id"`
	BusID                 string   `json:"bus_id"`
	DriverID              string   `json:"driver_id"`
	DepartAt              string   `json:"depart_at"`
	ArriveAt              string   `json:"arrive_at"`
	SeatCapacity          int      `json:"seat_capacity"`
	RestMinutes           int      `json:"rest_minutes"`
	Category              string   `json:"category"`
	MaxStops              int      `json:"max_stops"`
	Price                 float64  `json:"price"`
	DistanceKm            *float64 `json:"distance_km"`
	Sequence              int      `json:"sequence"`
	Active                bool     `json:"active"`
}

func NewTripResponse(t domain.TripInstance) TripResponse {
	return TripResponse{
		TripID:                t.TripID,
		RouteID:               t.RouteID,
		Date:                  domain.FormatDate(t.Date),
		Weekday:               t.Weekday.String(),
		Direction:             string(t.Direction),
		OriginTerminalID:      t.OriginTerminalID,
		DestinationTerminalID: t.DestinationTerminalID,
		BusID:                 t.BusID,
		DriverID:              t.DriverID,
		DepartAt:              t.DepartAt.UTC().Format("2006-01-02T15:04"),
		ArriveAt:              t.ArriveAt.UTC().Format("2006-01-02T15:04"),
		SeatCapacity:          t.SeatCapacity,
		RestMinutes:           t.RestMinutes,
		Category:              string(t.Category),
		MaxStops:              t.MaxStops,
		Price:                 t.Price,
		DistanceKm:            t.DistanceKm,
		Sequence:              t.Sequence,
		Active:                t.Active,
	}
}

func newTripResponses(trips []domain.TripInstance) []TripResponse {
	out := make([]TripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, NewTripResponse(t))
	}
	return out
}

type PreviewResponse struct {
	Viable        bool           `json:"viable"`
	Trips         []TripResponse `json:"trips"`
	TripsPerRoute map[string]int `json:"trips_per_route"`
	TripsPerBus   map[string]int `json:"trips_per_bus"`
	BusesUsed     int            `json:"buses_used"`
	Advisories    []string       `json:"advisories"`
	Errors        []string       `json:"errors"`
}

func NewPreviewResponse(res *services.ScheduleResult) PreviewResponse {
	return PreviewResponse{
		Viable:        res.Viable,
		Trips:         newTripResponses(res.Trips),
		TripsPerRoute: nonNilCounts(res.TripsPerRoute),
		TripsPerBus:   nonNilCounts(res.TripsPerBus),
		BusesUsed:     res.BusesUsed,
		Advisories:    nonNil(res.Advisories),
		Errors:        nonNil(res.Errors),
	}
}

type GenerateResponse struct {
	Viable     bool     `json:"viable"`
	Deleted    int64    `json:"deleted"`
	Created    int      `json:"created"`
	Skipped    int      `json:"skipped"`
	Failed     int      `json:"failed"`
	Messages   []string `json:"messages"`
	Advisories []string `json:"advisories"`
	Errors     []string `json:"errors"`
}

func NewGenerateResponse(r *services.GenerationReport) GenerateResponse {
	return GenerateResponse{
		Viable:     r.Viable,
		Deleted:    r.Summary.Deleted,
		Created:    r.Summary.Created,
		Skipped:    r.Summary.Skipped,
		Failed:     r.Summary.Failed,
		Messages:   nonNil(r.Summary.Messages),
		Advisories: nonNil(r.Advisories),
		Errors:     nonNil(r.Errors),
	}
}

type ListTripsResponse struct {
	Trips []TripResponse `json:"trips"`
}

func NewListTripsResponse(trips []domain.TripInstance) ListTripsResponse {
	return ListTripsResponse{Trips: newTripResponses(trips)}
}

type SlotResponse struct {
	Slot     int    `json:"slot"`
	StartsAt string `json:"starts_at"`
	Occupied int    `json:"occupied"`
	Spare    int    `json:"spare"`
	Score    int    `json:"score"`
}

type ListSlotsResponse struct {
	TerminalID string         `json:"terminal_id"`
	Date       string         `json:"date"`
	Slots      []SlotResponse `json:"slots"`
}

func NewListSlotsResponse(terminalID string, date time.Time, slots []services.SlotSuggestion) ListSlotsResponse {
	res := ListSlotsResponse{
		TerminalID: terminalID,
		Date:       domain.FormatDate(date),
		Slots:      make([]SlotResponse, 0, len(slots)),
	}
	for _, s := range slots {
		res.Slots = append(res.Slots, SlotResponse{
			Slot:     s.Slot,
			StartsAt: s.StartsAt.UTC().Format("15:04"),
			Occupied: s.Occupied,
			Spare:    s.Spare,
			Score:    s.Score,
		})
	}
	return res
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilCounts(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}
