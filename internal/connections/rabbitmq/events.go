package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

// EventPublisher publishes domain events on the sales exchange.
type EventPublisher struct {
	client *Client
	source string
}

func NewEventPublisher(client *Client, source string) *EventPublisher {
	return &EventPublisher{client: client, source: source}
}

func (p *EventPublisher) PublishEvent(ctx context.Context, ev domain.Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	headers := amqp.Table{
		"x-source":   p.source,
		"x-event-id": ev.ID,
	}
	if err := p.client.Publish(ctx, SalesExchange, ev.Type, body, headers, "application/json", true); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}
