package service

import (
	"context"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rasganxd/vendas-fortes-sub005/internal/connections/rabbitmq"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

// Workers is the worker registry, implemented by repository.WorkersPG.
type Workers interface {
	RegisterOrFail(ctx context.Context, name, wtype string, staleAfter time.Duration) error
	Heartbeat(ctx context.Context, name string) error
	SetOffline(ctx context.Context, name string) error
	AddBuilt(ctx context.Context, name string, n int) error
}

// Builder is implemented by *syncpkg.Builder.
type Builder interface {
	Rebuild(ctx context.Context, salesRepID int64) (syncpkg.Package, bool, error)
	RebuildAll(ctx context.Context) (int, error)
}

// Channel is the part of *amqp.Channel the worker consumes with.
type Channel interface {
	rabbitmq.Declarer
	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error
	NotifyClose(c chan *amqp.Error) chan *amqp.Error
}
