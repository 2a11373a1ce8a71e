package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"trip-scheduler-service/internal/ports"

	"go.uber.org/zap"
)

// RoutingKeyRegenerated is the routing key of schedule.regenerated events.
const RoutingKeyRegenerated = "schedule.regenerated"

type publisher interface {
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error
}

// ScheduleEventPublisher publishes schedule events to a topic exchange.
type ScheduleEventPublisher struct {
	mq       publisher
	exchange string
	log      *zap.Logger
}

func NewScheduleEventPublisher(mq publisher, exchange string, log *zap.Logger) *ScheduleEventPublisher {
	if log == nil {
		log = zap.NewNop()
	}
	return &ScheduleEventPublisher{mq: mq, exchange: exchange, log: log}
}

func (p *ScheduleEventPublisher) PublishRegenerated(ctx context.Context, event ports.ScheduleRegenerated) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal schedule event: %w", err)
	}

	if err := p.mq.Publish(ctx, p.exchange, RoutingKeyRegenerated, payload); err != nil {
		return fmt.Errorf("publish %s: %w", RoutingKeyRegenerated, err)
	}

	p.log.Debug("schedule event published",
		zap.String("routing_key", RoutingKeyRegenerated),
		zap.String("cooperative_id", event.CooperativeID),
	)
	return nil
}
