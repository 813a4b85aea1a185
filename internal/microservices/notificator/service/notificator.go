package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/connections/rabbitmq"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

// Channel is the part of *amqp.Channel the subscriber needs.
type Channel interface {
	rabbitmq.Declarer
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

// Sink receives every decoded event.
type Sink func(domain.Event)

// NotificatorService follows the sales exchange on a private queue and hands
// every event to a sink. Nothing is acknowledged: the queue is auto-ack and
// disappears with the subscriber.
type NotificatorService struct {
	keys []string
	sink Sink
	log  *logger.Logger
}

// NewNotificatorService subscribes to keys, or to every event when keys is
// empty. A nil sink only logs.
func NewNotificatorService(keys []string, sink Sink, log *logger.Logger) *NotificatorService {
	if len(keys) == 0 {
		keys = []string{"#"}
	}
	return &NotificatorService{keys: keys, sink: sink, log: log}
}

// Notify consumes until ctx is canceled or the channel closes.
func (s *NotificatorService) Notify(ctx context.Context, ch Channel) error {
	if err := rabbitmq.DeclareTopology(ch); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("declare subscriber queue: %w", err)
	}
	for _, key := range s.keys {
		if err := ch.QueueBind(q.Name, key, rabbitmq.SalesExchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	msgs, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	s.log.Info("subscribed", map[string]any{"queue": q.Name, "keys": s.keys})
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("subscriber channel closed")
			}
			s.handle(d)
		}
	}
}

func (s *NotificatorService) handle(d amqp.Delivery) {
	var ev domain.Event
	if err := json.Unmarshal(d.Body, &ev); err != nil {
		s.log.Warn("event_undecodable", map[string]any{"routing_key": d.RoutingKey, "error": err.Error()})
		return
	}
	s.log.Info("event_received", map[string]any{
		"type":         ev.Type,
		"event_id":     ev.ID,
		"sales_rep_id": ev.SalesRepID,
		"source":       d.Headers["x-source"],
	})
	if s.sink != nil {
		s.sink(ev)
	}
}
