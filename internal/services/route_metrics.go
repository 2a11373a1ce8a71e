package services

import (
	"context"
	"fmt"
	"sync"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/ports"
)

const maxConcurrentLookups = 5

type originLookup struct {
	origin  string
	results map[string]ports.DistanceResult
	err     error
}

// FillRouteMetrics estimates distance and duration for routes that lack them,
// from terminal coordinates. Known values are never overwritten. Lookup
// failures are returned as advisories and leave the route unchanged.
func FillRouteMetrics(
	ctx context.Context,
	provider ports.DistanceProvider,
	routes []domain.RouteSpec,
	terminals []domain.Terminal,
) ([]domain.RouteSpec, []string) {
	out := make([]domain.RouteSpec, len(routes))
	copy(out, routes)
	if provider == nil {
		return out, nil
	}

	byID := make(map[string]domain.Terminal, len(terminals))
	for _, t := range terminals {
		byID[t.TerminalID] = t
	}

	// origin -> destinations needing a lookup, in first-seen order.
	var origins []string
	targets := make(map[string][]domain.Terminal)
	queued := make(map[[2]string]struct{})
	var advisories []string

	for _, r := range out {
		if r.DistanceKm != nil && r.DurationMinutes > 0 {
			continue
		}
		o, okO := byID[r.OriginTerminalID]
		d, okD := byID[r.DestinationTerminalID]
		if !okO || !okD {
			continue
		}
		if o.Location.IsZero() || d.Location.IsZero() {
			advisories = append(advisories, "route "+r.Label()+" has no coordinates to estimate distance")
			continue
		}
		pair := [2]string{o.TerminalID, d.TerminalID}
		if _, ok := queued[pair]; ok {
			continue
		}
		queued[pair] = struct{}{}
		if _, ok := targets[o.TerminalID]; !ok {
			origins = append(origins, o.TerminalID)
		}
		targets[o.TerminalID] = append(targets[o.TerminalID], d)
	}
	if len(origins) == 0 {
		return out, advisories
	}

	mp, hasMatrix := provider.(ports.DistanceMatrixProvider)

	sem := make(chan struct{}, maxConcurrentLookups)
	resultsCh := make(chan originLookup, len(origins))
	var wg sync.WaitGroup

	for _, origin := range origins {
		wg.Add(1)
		go func(orig domain.Terminal, dests []domain.Terminal) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			if hasMatrix {
				res, err := mp.GetDistances(ctx, orig, dests)
				if err != nil {
					err = fmt.Errorf("distances from %s: %w", orig.TerminalID, err)
				}
				resultsCh <- originLookup{origin: orig.TerminalID, results: res, err: err}
				return
			}

			res := make(map[string]ports.DistanceResult, len(dests))
			for _, d := range dests {
				r, err := provider.GetDistance(ctx, orig, d)
				if err != nil {
					resultsCh <- originLookup{origin: orig.TerminalID, err: fmt.Errorf("distance %s->%s: %w", orig.TerminalID, d.TerminalID, err)}
					return
				}
				res[d.TerminalID] = r
			}
			resultsCh <- originLookup{origin: orig.TerminalID, results: res}
		}(byID[origin], targets[origin])
	}

	wg.Wait()
	close(resultsCh)

	found := make(map[[2]string]ports.DistanceResult)
	failed := make(map[string]string)
	for res := range resultsCh {
		if res.err != nil {
			failed[res.origin] = res.err.Error()
			continue
		}
		for dest, r := range res.results {
			found[[2]string{res.origin, dest}] = r
		}
	}

	for i, r := range out {
		if r.DistanceKm != nil && r.DurationMinutes > 0 {
			continue
		}
		m, ok := found[[2]string{r.OriginTerminalID, r.DestinationTerminalID}]
		if !ok {
			if reason, bad := failed[r.OriginTerminalID]; bad {
				advisories = append(advisories, "route "+r.Label()+" distance estimate failed: "+reason)
			}
			continue
		}
		if r.DistanceKm == nil {
			km := float64(m.DistanceMeters) / 1000
			out[i].DistanceKm = &km
		}
		if r.DurationMinutes <= 0 {
			out[i].DurationMinutes = m.DurationSeconds / 60
		}
	}
	return out, advisories
}
