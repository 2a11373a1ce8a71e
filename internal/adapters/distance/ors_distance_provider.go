package distance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"trip-scheduler-service/internal/adapters/cache"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/platform/obs"
	"trip-scheduler-service/internal/ports"

	"go.uber.org/zap"
)

const (
	defaultORSBaseURL = "https://api.openrouteservice.org"
	defaultORSProfile = "driving-car"
)

// ORSOptions configures the ORS client. RetryAttempts counts the first call
// and RetryBackoff doubles on every retry.
type ORSOptions struct {
	APIKey        string
	BaseURL       string
	Profile       string
	Timeout       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
}

// ORSDistanceProvider implements DistanceMatrixProvider using the
// OpenRouteService matrix endpoint on terminal coordinates.
//
// Results are cached by terminal pair when a distance cache is configured.
// The provider is safe for concurrent use.
type ORSDistanceProvider struct {
	log           *zap.Logger
	session       *http.Client
	apiKey        string
	baseURL       string
	profile       string
	retry         retryPolicy
	distanceCache *cache.PGDistanceCache
}

func NewORSDistanceProvider(log *zap.Logger, opts ORSOptions, distanceCache *cache.PGDistanceCache) (*ORSDistanceProvider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultORSBaseURL
	}
	if opts.Profile == "" {
		opts.Profile = defaultORSProfile
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}

	return &ORSDistanceProvider{
		log:           log,
		session:       &http.Client{Timeout: opts.Timeout},
		apiKey:        opts.APIKey,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		profile:       opts.Profile,
		retry:         newRetryPolicy(opts.RetryAttempts, opts.RetryBackoff),
		distanceCache: distanceCache,
	}, nil
}

// Delegate to batched path to reuse caching and matrix logic.
func (o *ORSDistanceProvider) GetDistance(ctx context.Context, origin, destination domain.Terminal) (ports.DistanceResult, error) {
	results, err := o.GetDistances(ctx, origin, []domain.Terminal{destination})
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf(
			"get distances %s -> %s: %w",
			origin.TerminalID, destination.TerminalID, err,
		)
	}

	result, ok := results[destination.TerminalID]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("no distance result for %s -> %s", origin.TerminalID, destination.TerminalID)
	}

	return result, nil
}

// Compute distances from a single origin terminal to many destinations.
func (o *ORSDistanceProvider) GetDistances(
	ctx context.Context,
	origin domain.Terminal,
	destinations []domain.Terminal,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "ors.GetDistances")(&err)

	if origin.TerminalID == "" {
		return nil, errors.New("origin terminal id must be non-empty")
	}
	if origin.Location.IsZero() {
		return nil, fmt.Errorf("origin %s has no coordinates", origin.TerminalID)
	}

	seen := make(map[string]struct{}, len(destinations))
	destList := make([]domain.Terminal, 0, len(destinations))
	for _, d := range destinations {
		if d.TerminalID == "" || d.TerminalID == origin.TerminalID {
			continue
		}
		if _, ok := seen[d.TerminalID]; ok {
			continue
		}
		if d.Location.IsZero() {
			return nil, fmt.Errorf("destination %s has no coordinates", d.TerminalID)
		}
		seen[d.TerminalID] = struct{}{}
		destList = append(destList, d)
	}

	if len(destList) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	destIDs := make([]string, len(destList))
	for i, d := range destList {
		destIDs[i] = d.TerminalID
	}

	destinationHits := make(map[string]ports.DistanceResult)
	// Check persistent distance cache before issuing external API calls.
	if o.distanceCache != nil {
		destinationHits, err = o.distanceCache.GetMany(ctx, origin.TerminalID, destIDs)
		if err != nil {
			return nil, fmt.Errorf("ORS get distance cache: %w", err)
		}
	}

	misses := make([]domain.Terminal, 0, len(destList))
	for _, d := range destList {
		if _, ok := destinationHits[d.TerminalID]; !ok {
			misses = append(misses, d)
		}
	}

	if len(misses) == 0 {
		return destinationHits, nil
	}

	// Fetch a single origin->many matrix row for all cache misses.
	fetched, err := o.fetchMatrixRow(ctx, origin, misses)
	if err != nil {
		return nil, fmt.Errorf("fetching matrix row: %w", err)
	}

	missing := make([]string, 0)
	for _, d := range misses {
		if _, ok := fetched[d.TerminalID]; !ok {
			missing = append(missing, d.TerminalID)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf(
			"ORS matrix service did not return the following destinations: %s",
			strings.Join(missing, ", "),
		)
	}

	if o.distanceCache != nil {
		if err := o.distanceCache.PutMany(ctx, origin.TerminalID, fetched); err != nil {
			o.log.Warn("distance cache write failed",
				zap.String("origin", origin.TerminalID),
				zap.Error(err),
			)
		}
	}

	out := make(map[string]ports.DistanceResult, len(destinationHits)+len(fetched))
	for k, v := range destinationHits {
		out[k] = v
	}
	for k, v := range fetched {
		out[k] = v
	}

	return out, nil
}
