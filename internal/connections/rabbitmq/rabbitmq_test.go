package rabbitmq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasganxd/vendas-fortes-sub005/internal/config"
)

func TestURL(t *testing.T) {
	assert.Equal(t, "amqp://guest:guest@mq:5672/%2F", URL(config.RabbitMQConfig{
		Host: "mq", Port: 5672, User: "guest", Password: "guest",
	}))
	assert.Equal(t, "amqps://u:p@mq:5671/vendas", URL(config.RabbitMQConfig{
		Host: "mq", Port: 5671, User: "u", Password: "p", VHost: "vendas", UseTLS: true,
	}))
}

type recordingDeclarer struct {
	exchanges []string
	queues    map[string]amqp.Table
	bindings  []string
}

func (r *recordingDeclarer) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	r.exchanges = append(r.exchanges, name+":"+kind)
	return nil
}

func (r *recordingDeclarer) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	if r.queues == nil {
		r.queues = map[string]amqp.Table{}
	}
	r.queues[name] = args
	return amqp.Queue{Name: name}, nil
}

func (r *recordingDeclarer) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	r.bindings = append(r.bindings, exchange+"->"+name+"@"+key)
	return nil
}

func TestDeclareTopology(t *testing.T) {
	rec := &recordingDeclarer{}
	require.NoError(t, DeclareTopology(rec))

	assert.Equal(t, []string{"sales_topic:topic", "sales_dlx:direct"}, rec.exchanges)
	assert.Equal(t, DeadLetterX, rec.queues[PackagerQueue]["x-dead-letter-exchange"])
	assert.Contains(t, rec.bindings, "sales_topic->packager.q@orders.#")
	assert.Contains(t, rec.bindings, "sales_topic->packager.q@catalog.#")
	assert.Contains(t, rec.bindings, "sales_dlx->sales_dlq@sales_dlq")
}
