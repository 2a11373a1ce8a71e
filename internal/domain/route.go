package domain

import "fmt"

// RouteCategory classifies a route by distance.
type RouteCategory string

const (
	RouteIntra RouteCategory = "INTRA"
	RouteInter RouteCategory = "INTER"
)

// RouteSpec is a candidate origin-destination pair selected for scheduling.
// DistanceKm is nil when the distance is unknown.
type RouteSpec struct {
	OriginTerminalID      string
	DestinationTerminalID string
	DistanceKm            *float64
	DurationMinutes       int
	Price                 float64
}

// Label is the stable human-readable key of the pair, "A->B".
func (r RouteSpec) Label() string {
	return fmt.Sprintf("%s->%s", r.OriginTerminalID, r.DestinationTerminalID)
}

// Reverse returns the symmetric return leg spec.
func (r RouteSpec) Reverse() RouteSpec {
	out := r
	out.OriginTerminalID, out.DestinationTerminalID = r.DestinationTerminalID, r.OriginTerminalID
	return out
}

// Route is a persisted route record, unique per cooperative and terminal pair.
type Route struct {
	RouteID               string
	CooperativeID         string
	OriginTerminalID      string
	DestinationTerminalID string
	DistanceKm            *float64
	DurationMinutes       int
	Category              RouteCategory
	MaxStops              int
}
