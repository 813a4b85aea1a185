package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zapcore"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/connections/rabbitmq"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeWorkers struct {
	mu        sync.Mutex
	regErr    error
	stale     time.Duration
	built     int
	offline   bool
	heartbeat int
}

func (f *fakeWorkers) RegisterOrFail(_ context.Context, _, _ string, staleAfter time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stale = staleAfter
	return f.regErr
}

func (f *fakeWorkers) Heartbeat(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.heartbeat++
	return nil
}

func (f *fakeWorkers) SetOffline(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offline = true
	return nil
}

func (f *fakeWorkers) AddBuilt(_ context.Context, _ string, n int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.built += n
	return nil
}

type fakeBuilder struct {
	mu      sync.Mutex
	reps    []int64
	all     int
	changed bool
	err     error
}

func (f *fakeBuilder) Rebuild(_ context.Context, rep int64) (syncpkg.Package, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reps = append(f.reps, rep)
	if f.err != nil {
		return syncpkg.Package{}, false, f.err
	}
	return syncpkg.Package{Version: 2}, f.changed, nil
}

func (f *fakeBuilder) RebuildAll(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.all++
	return 3, nil
}

func nopLogger() *logger.Logger { return logger.NewWithCore("test", zapcore.NewNopCore()) }

func event(t *testing.T, typ string, rep int64) []byte {
	t.Helper()
	b, err := json.Marshal(domain.Event{ID: "e1", Type: typ, SalesRepID: rep, OccurredAt: time.Now()})
	require.NoError(t, err)
	return b
}

func TestHandle(t *testing.T) {
	b := &fakeBuilder{changed: true}
	s := NewPackagerService(&fakeWorkers{}, b, "w1", 0, 0, nopLogger())
	ctx := context.Background()

	n, err := s.Handle(ctx, event(t, domain.EventOrderCreated, 7))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{7}, b.reps)

	n, err = s.Handle(ctx, event(t, domain.EventCatalogChanged, 0))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, b.all)

	_, err = s.Handle(ctx, []byte("{not json"))
	assert.ErrorIs(t, err, ErrDLQ)
	_, err = s.Handle(ctx, []byte(`{"sales_rep_id":1}`))
	assert.ErrorIs(t, err, ErrDLQ)
	_, err = s.Handle(ctx, event(t, domain.EventOrderCreated, -1))
	assert.ErrorIs(t, err, ErrDLQ)
}

func TestHandle_Failures(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr error
	}{
		{"inactive rep is skipped", domain.Invalidf("sales rep 7 is inactive"), nil},
		{"unknown rep is skipped", domain.NotFoundf("sales rep 7"), nil},
		{"database down is retried", errors.New("connection refused"), ErrRequeue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewPackagerService(&fakeWorkers{}, &fakeBuilder{err: tt.err}, "w1", 1, time.Second, nopLogger())
			n, err := s.Handle(context.Background(), event(t, domain.EventOrderStatus, 7))
			assert.Zero(t, n)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHandle_UnchangedIsNotCounted(t *testing.T) {
	b := &fakeBuilder{}
	s := NewPackagerService(&fakeWorkers{}, b, "w1", 1, time.Second, nopLogger())
	n, err := s.Handle(context.Background(), event(t, domain.EventRoutesChanged, 7))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, []int64{7}, b.reps)
}

type ackResult struct {
	tag     uint64
	ack     bool
	requeue bool
}

type fakeAcker struct {
	results chan ackResult
}

func (a *fakeAcker) Ack(tag uint64, _ bool) error {
	a.results <- ackResult{tag: tag, ack: true}
	return nil
}

func (a *fakeAcker) Nack(tag uint64, _ bool, requeue bool) error {
	a.results <- ackResult{tag: tag, requeue: requeue}
	return nil
}

func (a *fakeAcker) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type fakeChannel struct {
	deliveries chan amqp.Delivery
	queues     []string
	prefetch   int
	canceled   string
}

func (c *fakeChannel) ExchangeDeclare(string, string, bool, bool, bool, bool, amqp.Table) error {
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, _, _, _, _ bool, _ amqp.Table) (amqp.Queue, error) {
	c.queues = append(c.queues, name)
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) QueueBind(string, string, string, bool, amqp.Table) error { return nil }

func (c *fakeChannel) Qos(prefetch, _ int, _ bool) error {
	c.prefetch = prefetch
	return nil
}

func (c *fakeChannel) Consume(string, string, bool, bool, bool, bool, amqp.Table) (<-chan amqp.Delivery, error) {
	return c.deliveries, nil
}

func (c *fakeChannel) Cancel(consumer string, _ bool) error {
	c.canceled = consumer
	return nil
}

func (c *fakeChannel) NotifyClose(ch chan *amqp.Error) chan *amqp.Error { return ch }

func TestRun(t *testing.T) {
	workers := &fakeWorkers{}
	builder := &fakeBuilder{changed: true}
	s := NewPackagerService(workers, builder, "w1", 4, time.Hour, nopLogger())
	ch := &fakeChannel{deliveries: make(chan amqp.Delivery, 2)}
	acker := &fakeAcker{results: make(chan ackResult, 2)}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, ch) }()

	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 1, Body: event(t, domain.EventOrderCreated, 7)}
	ch.deliveries <- amqp.Delivery{Acknowledger: acker, DeliveryTag: 2, Body: []byte("garbage")}

	var got []ackResult
	for range 2 {
		select {
		case r := <-acker.results:
			got = append(got, r)
		case <-time.After(2 * time.Second):
			t.Fatal("delivery not settled")
		}
	}
	assert.Equal(t, []ackResult{{tag: 1, ack: true}, {tag: 2}}, got)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	assert.Equal(t, 4, ch.prefetch)
	assert.Contains(t, ch.queues, rabbitmq.PackagerQueue)
	assert.Equal(t, "w1", ch.canceled)
	workers.mu.Lock()
	defer workers.mu.Unlock()
	assert.Equal(t, 3*time.Hour, workers.stale)
	assert.Equal(t, 1, workers.built)
	assert.True(t, workers.offline)
	assert.Equal(t, 1, builder.all)
}

func TestRun_DuplicateWorker(t *testing.T) {
	workers := &fakeWorkers{regErr: errors.New("worker online")}
	s := NewPackagerService(workers, &fakeBuilder{}, "w1", 1, time.Second, nopLogger())
	err := s.Run(context.Background(), &fakeChannel{})
	require.Error(t, err)
	assert.False(t, workers.offline)
}

func TestRun_EmptyName(t *testing.T) {
	s := NewPackagerService(&fakeWorkers{}, &fakeBuilder{}, " ", 1, time.Second, nopLogger())
	assert.Error(t, s.Run(context.Background(), &fakeChannel{}))
}
