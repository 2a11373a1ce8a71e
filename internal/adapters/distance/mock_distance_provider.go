package distance

import (
	"context"
	"fmt"
	"sync"
	"trip-scheduler-service/internal/domain"
	"trip-scheduler-service/internal/ports"
)

// MockPair is a canned distance between two terminal ids.
type MockPair struct {
	From, To string
	Meters   int
	Seconds  int
}

// MockDistanceProvider serves canned pairs and counts lookups. It is safe
// for concurrent use.
type MockDistanceProvider struct {
	m     map[string]ports.DistanceResult
	mu    sync.Mutex
	calls int
}

func NewMockDistanceProvider(pairs []MockPair) *MockDistanceProvider {
	m := make(map[string]ports.DistanceResult, len(pairs))
	for _, p := range pairs {
		m[p.From+"|"+p.To] = ports.DistanceResult{DistanceMeters: p.Meters, DurationSeconds: p.Seconds}
	}
	return &MockDistanceProvider{m: m}
}

func (p *MockDistanceProvider) GetDistance(ctx context.Context, origin, destination domain.Terminal) (ports.DistanceResult, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	r, ok := p.m[origin.TerminalID+"|"+destination.TerminalID]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("missing pair %q -> %q", origin.TerminalID, destination.TerminalID)
	}

	return r, nil
}

func (p *MockDistanceProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}
