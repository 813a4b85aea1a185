package service

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/connections/rabbitmq"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

type fakeChannel struct {
	bound []string
	msgs  chan amqp.Delivery
}

func (f *fakeChannel) ExchangeDeclare(string, string, bool, bool, bool, bool, amqp.Table) error {
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	if name == "" {
		name = "amq.gen-test"
	}
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, _ bool, _ amqp.Table) error {
	if name == "amq.gen-test" && exchange == rabbitmq.SalesExchange {
		f.bound = append(f.bound, key)
	}
	return nil
}

func (f *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return f.msgs, nil
}

func TestNotify(t *testing.T) {
	ch := &fakeChannel{msgs: make(chan amqp.Delivery, 2)}
	ch.msgs <- amqp.Delivery{RoutingKey: "orders.created", Body: []byte("nope")}
	ch.msgs <- amqp.Delivery{RoutingKey: "orders.created", Body: []byte(`{"event_id":"e1","type":"orders.created","sales_rep_id":7}`)}
	close(ch.msgs)

	var got []domain.Event
	s := NewNotificatorService([]string{"orders.#"}, func(ev domain.Event) { got = append(got, ev) },
		logger.NewWithCore("test", zapcore.NewNopCore()))

	err := s.Notify(context.Background(), ch)
	require.Error(t, err)
	assert.Equal(t, []string{"orders.#"}, ch.bound)
	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)
	assert.Equal(t, int64(7), got[0].SalesRepID)
}

func TestNotify_Canceled(t *testing.T) {
	ch := &fakeChannel{msgs: make(chan amqp.Delivery)}
	s := NewNotificatorService(nil, nil, logger.NewWithCore("test", zapcore.NewNopCore()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	require.NoError(t, s.Notify(ctx, ch))
	assert.Equal(t, []string{"#"}, ch.bound)
}
