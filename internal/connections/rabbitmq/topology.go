package rabbitmq

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	SalesExchange = "sales_topic"
	DeadLetterX   = "sales_dlx"
	DeadLetterQ   = "sales_dlq"
	PackagerQueue = "packager.q"
)

// PackagerBindings are the routing keys that make a data package stale.
var PackagerBindings = []string{"orders.#", "catalog.#", "routes.#"}

// Declarer is the part of *amqp.Channel used to declare the topology.
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// DeclareTopology declares exchanges and queues idempotently.
func DeclareTopology(ch Declarer) error {
	if err := ch.ExchangeDeclare(SalesExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.ExchangeDeclare(DeadLetterX, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(DeadLetterQ, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(DeadLetterQ, DeadLetterQ, DeadLetterX, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(PackagerQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    DeadLetterX,
		"x-dead-letter-routing-key": DeadLetterQ,
	}); err != nil {
		return err
	}
	for _, key := range PackagerBindings {
		if err := ch.QueueBind(PackagerQueue, key, SalesExchange, false, nil); err != nil {
			return err
		}
	}
	return nil
}
