package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Direction of a leg within a circuit.
type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionReturn   Direction = "return"
)

// tripNamespace scopes deterministic trip ids.
var tripNamespace = uuid.MustParse("6f1c9f0e-3c53-4b7e-9d0a-2a8f4f6b1c11")

// TripInstance ("frequency") is a single scheduled one-way departure.
// It is immutable once created except for Active.
type TripInstance struct {
	TripID                string
	CooperativeID         string
	RouteID               string
	Date                  time.Time
	Weekday               time.Weekday
	Direction             Direction
	OriginTerminalID      string
	DestinationTerminalID string
	BusID                 string
	DriverID              string
	DepartAt              time.Time
	ArriveAt              time.Time
	SeatCapacity          int
	RestMinutes           int
	Category              RouteCategory
	MaxStops              int
	Price                 float64
	DistanceKm            *float64
	Sequence              int
	Active                bool
}

// TripKey is the uniqueness key of an active trip: bus, route (terminal
// pair) and departure time.
type TripKey struct {
	BusID                 string
	OriginTerminalID      string
	DestinationTerminalID string
	DepartAt              time.Time
}

func (k TripKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s", k.BusID, k.OriginTerminalID, k.DestinationTerminalID, k.DepartAt.UTC().Format(time.RFC3339))
}

func (t TripInstance) Key() TripKey {
	return TripKey{
		BusID:                 t.BusID,
		OriginTerminalID:      t.OriginTerminalID,
		DestinationTerminalID: t.DestinationTerminalID,
		DepartAt:              t.DepartAt.UTC(),
	}
}

// DurationMinutes is the scheduled leg length in whole minutes.
func (t TripInstance) DurationMinutes() int {
	return int(t.ArriveAt.Sub(t.DepartAt) / time.Minute)
}

// NewTripID derives a stable id from the cooperative and the trip key, so
// identical inputs always produce identical ids.
func NewTripID(cooperativeID string, key TripKey) string {
	return uuid.NewSHA1(tripNamespace, []byte(cooperativeID+"|"+key.String())).String()
}
