package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/ports"
)

// orsMatrixQuery asks for one source row: index 0 is the origin terminal,
// the rest are destinations in order.
type orsMatrixQuery struct {
	Locations    [][]float64 `json:"locations"`
	Sources      []int       `json:"sources"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
}

type orsMatrixReply struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

func newMatrixQuery(origin domain.Terminal, destinations []domain.Terminal) orsMatrixQuery {
	q := orsMatrixQuery{
		Locations:    [][]float64{origin.Location.CoordsToList()},
		Sources:      []int{0},
		Destinations: make([]int, len(destinations)),
		Metrics:      []string{"distance", "duration"},
	}
	for i, d := range destinations {
		q.Locations = append(q.Locations, d.Location.CoordsToList())
		q.Destinations[i] = i + 1
	}
	return q
}

// row maps the single source row onto destination terminal ids. Metrics are
// rounded to whole meters and seconds.
func (r orsMatrixReply) row(destinations []domain.Terminal) (map[string]ports.DistanceResult, error) {
	if len(r.Distances) != 1 || len(r.Durations) != 1 {
		return nil, fmt.Errorf("matrix has %d distance and %d duration rows, want 1", len(r.Distances), len(r.Durations))
	}
	meters, seconds := r.Distances[0], r.Durations[0]
	if len(meters) != len(destinations) || len(seconds) != len(destinations) {
		return nil, fmt.Errorf("matrix row covers %d/%d cells for %d terminals", len(meters), len(seconds), len(destinations))
	}

	out := make(map[string]ports.DistanceResult, len(destinations))
	for i, d := range destinations {
		if meters[i] == nil || seconds[i] == nil {
			return nil, fmt.Errorf("no drivable route to terminal %s", d.TerminalID)
		}
		out[d.TerminalID] = ports.DistanceResult{
			DistanceMeters:  int(math.Round(*meters[i])),
			DurationSeconds: int(math.Round(*seconds[i])),
		}
	}
	return out, nil
}

func pairLabel(origin domain.Terminal, destinations []domain.Terminal) string {
	ids := make([]string, len(destinations))
	for i, d := range destinations {
		ids[i] = d.TerminalID
	}
	return origin.TerminalID + "->" + strings.Join(ids, ",")
}

// fetchMatrixRow asks ORS for origin->destination metrics in one call.
func (o *ORSDistanceProvider) fetchMatrixRow(ctx context.Context, origin domain.Terminal, destinations []domain.Terminal) (map[string]ports.DistanceResult, error) {
	if len(destinations) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	payload, err := json.Marshal(newMatrixQuery(origin, destinations))
	if err != nil {
		return nil, fmt.Errorf("encode matrix query: %w", err)
	}

	endpoint := o.baseURL + "/v2/matrix/" + o.profile
	pair := pairLabel(origin, destinations)

	resp, err := o.postWithRetry(ctx, endpoint, pair, payload)
	if err != nil {
		return nil, fmt.Errorf("matrix %s: %w", pair, err)
	}
	defer resp.Body.Close()

	var reply orsMatrixReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("matrix %s: decode: %w", pair, err)
	}
	row, err := reply.row(destinations)
	if err != nil {
		return nil, fmt.Errorf("matrix %s: %w", pair, err)
	}
	return row, nil
}
