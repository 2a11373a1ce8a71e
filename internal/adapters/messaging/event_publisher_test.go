package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
	"trip-scheduler-service/internal/ports"
)

type fakeBroker struct {
	exchange string
	key      string
	body     []byte
	err      error
}

func (f *fakeBroker) Publish(_ context.Context, exchange, routingKey string, body []byte) error {
	f.exchange, f.key, f.body = exchange, routingKey, body
	return f.err
}

func TestScheduleEventPublisherPublishRegenerated(t *testing.T) {
	broker := &fakeBroker{}
	p := NewScheduleEventPublisher(broker, "schedule_topic", nil)

	event := ports.ScheduleRegenerated{
		CooperativeID: "coop-1",
		StartDate:     "2026-03-02",
		EndDate:       "2026-03-08",
		Deleted:       3,
		Created:       10,
		GeneratedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := p.PublishRegenerated(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if broker.exchange != "schedule_topic" || broker.key != RoutingKeyRegenerated {
		t.Fatalf("published to %s/%s", broker.exchange, broker.key)
	}

	var got map[string]any
	if err := json.Unmarshal(broker.body, &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["cooperative_id"] != "coop-1" || got["created"] != float64(10) {
		t.Fatalf("unexpected body %s", broker.body)
	}
}

func TestScheduleEventPublisherWrapsBrokerError(t *testing.T) {
	boom := errors.New("channel closed")
	p := NewScheduleEventPublisher(&fakeBroker{err: boom}, "schedule_topic", nil)

	err := p.PublishRegenerated(context.Background(), ports.ScheduleRegenerated{CooperativeID: "coop-1"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped broker error, got %v", err)
	}
}
