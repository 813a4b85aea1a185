package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/connections/rabbitmq"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
)

var (
	ErrRequeue = errors.New("requeue")     // nack(requeue=true)
	ErrDLQ     = errors.New("dead_letter") // nack(requeue=false)
)

const WorkerType = "packager"

type PackagerServiceInterface interface {
	Handle(ctx context.Context, body []byte) (int, error)
	Run(ctx context.Context, ch Channel) error
}

type PackagerService struct {
	workers Workers
	builder Builder
	log     *logger.Logger

	WorkerName string
	Prefetch   int
	BeatEvery  time.Duration
}

func NewPackagerService(workers Workers, builder Builder, name string, prefetch int, beat time.Duration, log *logger.Logger) *PackagerService {
	if prefetch <= 0 {
		prefetch = 1
	}
	if beat <= 0 {
		beat = 30 * time.Second
	}
	return &PackagerService{
		workers:    workers,
		builder:    builder,
		log:        log.With(map[string]any{"worker": name}),
		WorkerName: name,
		Prefetch:   prefetch,
		BeatEvery:  beat,
	}
}

// Handle rebuilds what one event makes stale and reports how many packages
// got a new version. The builder prunes old versions on every write.
func (s *PackagerService) Handle(ctx context.Context, body []byte) (int, error) {
	var ev domain.Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDLQ, err)
	}
	if ev.Type == "" || ev.SalesRepID < 0 {
		return 0, fmt.Errorf("%w: event without type or with rep %d", ErrDLQ, ev.SalesRepID)
	}

	if ev.SalesRepID == 0 {
		n, err := s.builder.RebuildAll(ctx)
		if err != nil {
			return n, fmt.Errorf("%w: %v", ErrRequeue, err)
		}
		return n, nil
	}

	p, changed, err := s.builder.Rebuild(ctx, ev.SalesRepID)
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
		s.log.Warn("package_skipped", map[string]any{"sales_rep_id": ev.SalesRepID, "event": ev.Type, "reason": err.Error()})
		return 0, nil
	case err != nil:
		return 0, fmt.Errorf("%w: %v", ErrRequeue, err)
	case !changed:
		return 0, nil
	}
	s.log.Debug("package_built", map[string]any{"sales_rep_id": ev.SalesRepID, "version": p.Version, "event": ev.Type})
	return 1, nil
}

func (s *PackagerService) settle(ctx context.Context, d amqp.Delivery) {
	n, err := s.Handle(ctx, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
		if n > 0 {
			if err := s.workers.AddBuilt(ctx, s.WorkerName, n); err != nil {
				s.log.Error("worker_counter_failed", err, nil)
			}
		}
	case errors.Is(err, ErrDLQ):
		s.log.Warn("event_dead_lettered", map[string]any{"routing_key": d.RoutingKey, "reason": err.Error()})
		_ = d.Nack(false, false)
	default:
		s.log.Error("event_requeued", err, map[string]any{"routing_key": d.RoutingKey})
		_ = d.Nack(false, true)
	}
}

// Run registers the worker and consumes the packager queue until ctx is
// canceled or the channel dies.
func (s *PackagerService) Run(ctx context.Context, ch Channel) error {
	if strings.TrimSpace(s.WorkerName) == "" {
		return fmt.Errorf("worker name is empty: pass --worker-name")
	}

	if err := s.workers.RegisterOrFail(ctx, s.WorkerName, WorkerType, 3*s.BeatEvery); err != nil {
		s.log.Error("worker_registration_failed", err, nil)
		return err
	}
	s.log.Info("worker_registered", map[string]any{"type": WorkerType})
	defer func() {
		if err := s.workers.SetOffline(context.WithoutCancel(ctx), s.WorkerName); err != nil {
			s.log.Error("worker_offline_failed", err, nil)
		}
	}()

	if err := rabbitmq.DeclareTopology(ch); err != nil {
		return fmt.Errorf("declare topology: %w", err)
	}
	if err := ch.Qos(s.Prefetch, 0, false); err != nil {
		return err
	}
	closeCh := ch.NotifyClose(make(chan *amqp.Error, 1))
	msgs, err := ch.Consume(rabbitmq.PackagerQueue, s.WorkerName, false, false, false, false, nil)
	if err != nil {
		return err
	}

	if n, err := s.builder.RebuildAll(ctx); err != nil {
		s.log.Error("initial_rebuild_failed", err, nil)
	} else {
		s.log.Info("initial_rebuild_done", map[string]any{"changed": n})
	}

	var wg sync.WaitGroup
	stopBeat := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.heartbeat(ctx, stopBeat)
	}()
	defer func() {
		close(stopBeat)
		wg.Wait()
	}()

	s.log.Info("consuming", map[string]any{"queue": rabbitmq.PackagerQueue, "prefetch": s.Prefetch})
	for {
		select {
		case <-ctx.Done():
			s.log.Info("graceful_shutdown", nil)
			_ = ch.Cancel(s.WorkerName, false)
			return nil
		case e, ok := <-closeCh:
			if !ok {
				closeCh = nil
				continue
			}
			return fmt.Errorf("amqp channel closed: %d %s", e.Code, e.Reason)
		case d, ok := <-msgs:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("consumer stopped by broker")
			}
			s.settle(ctx, d)
		}
	}
}

func (s *PackagerService) heartbeat(ctx context.Context, stop <-chan struct{}) {
	t := time.NewTicker(s.BeatEvery)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-t.C:
			if err := s.workers.Heartbeat(ctx, s.WorkerName); err != nil {
				s.log.Error("heartbeat_failed", err, nil)
				continue
			}
			s.log.Debug("heartbeat_sent", nil)
		}
	}
}
