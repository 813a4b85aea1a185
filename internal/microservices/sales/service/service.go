package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/logger"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/repository"
)

// EventPublisher is implemented by rabbitmq.EventPublisher.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev domain.Event) error
}

type Service struct {
	CustomerService     CustomerServiceInterface
	ProductService      ProductServiceInterface
	SalesRepService     SalesRepServiceInterface
	PaymentTableService PaymentTableServiceInterface
	OrderService        OrderServiceInterface
	PaymentService      PaymentServiceInterface
	LoadService         LoadServiceInterface
	RouteService        RouteServiceInterface
}

func New(repo repository.Repository, pub EventPublisher, log *logger.Logger) *Service {
	ev := &events{pub: pub, log: log}
	return &Service{
		CustomerService:     NewCustomerService(repo.CustomerRepo),
		ProductService:      NewProductService(repo.ProductRepo, ev),
		SalesRepService:     NewSalesRepService(repo.SalesRepRepo),
		PaymentTableService: NewPaymentTableService(repo.PaymentTableRepo, ev),
		OrderService:        NewOrderService(repo, ev),
		PaymentService:      NewPaymentService(repo.PaymentRepo),
		LoadService:         NewLoadService(repo.LoadRepo, ev),
		RouteService:        NewRouteService(repo.RouteRepo, repo.SalesRepRepo, ev),
	}
}

// events publishes after the database change is committed. Publish errors
// are logged and never fail the request: packages are rebuilt on the next
// event or on demand.
type events struct {
	pub EventPublisher
	log *logger.Logger
	now func() time.Time
}

func (e *events) emit(ctx context.Context, typ string, salesRepID int64, payload any) {
	if e == nil || e.pub == nil {
		return
	}
	now := time.Now
	if e.now != nil {
		now = e.now
	}
	ev := domain.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		SalesRepID: salesRepID,
		OccurredAt: now().UTC(),
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err == nil {
			ev.Payload = body
		}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := e.pub.PublishEvent(ctx, ev); err != nil && e.log != nil {
		e.log.Error("event_publish_failed", err, map[string]any{"type": typ, "sales_rep_id": salesRepID})
	}
}
