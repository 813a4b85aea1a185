package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/repository"
	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
)

type OrderServiceInterface interface {
	Create(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error)
	// Submit creates the order unless one with the same device and local id
	// already exists, in which case that order is returned with duplicate set.
	Submit(ctx context.Context, req domain.CreateOrderRequest) (o domain.Order, duplicate bool, err error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error)
	Update(ctx context.Context, id int64, req domain.UpdateOrderRequest) (domain.Order, error)
	ChangeStatus(ctx context.Context, id int64, req domain.StatusChangeRequest, changedBy string) (domain.Order, error)
	Timeline(ctx context.Context, id int64) ([]domain.StatusLogEntry, error)
}

type OrderService struct {
	orders    repository.OrderRepositoryInterface
	customers repository.CustomerRepositoryInterface
	reps      repository.SalesRepRepositoryInterface
	products  repository.ProductRepositoryInterface
	tables    repository.PaymentTableRepositoryInterface
	events    *events
	now       func() time.Time
}

func NewOrderService(repo repository.Repository, ev *events) OrderServiceInterface {
	return &OrderService{
		orders:    repo.OrderRepo,
		customers: repo.CustomerRepo,
		reps:      repo.SalesRepRepo,
		products:  repo.ProductRepo,
		tables:    repo.PaymentTableRepo,
		events:    ev,
		now:       time.Now,
	}
}

// FormatOrderNumber renders PED-YYYYMMDD-NNNNN.
func FormatOrderNumber(day time.Time, seq int64) string {
	return fmt.Sprintf("PED-%s-%05d", day.Format("20060102"), seq)
}

func (s *OrderService) Create(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	o, _, err := s.Submit(ctx, req)
	return o, err
}

func (s *OrderService) Submit(ctx context.Context, req domain.CreateOrderRequest) (domain.Order, bool, error) {
	// 1. Basic validation
	if req.CustomerID <= 0 {
		return domain.Order{}, false, domain.Invalidf("customer_id is required")
	}
	if req.SalesRepID <= 0 {
		return domain.Order{}, false, domain.Invalidf("sales_rep_id is required")
	}
	if len(req.Items) == 0 {
		return domain.Order{}, false, domain.Invalidf("at least one item is required")
	}
	if req.Source == "" {
		req.Source = domain.SourceDesktop
	}
	if req.Source != domain.SourceDesktop && req.Source != domain.SourceMobile {
		return domain.Order{}, false, domain.Invalidf("invalid source %q", req.Source)
	}
	idempotent := req.DeviceID != "" && req.LocalID != ""
	if idempotent {
		existing, err := s.orders.FindByLocalID(ctx, req.DeviceID, req.LocalID)
		if err == nil {
			return existing, true, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, false, err
		}
	}

	// 2. References
	customer, err := s.customers.Get(ctx, req.CustomerID)
	if err != nil {
		return domain.Order{}, false, err
	}
	if !customer.Active {
		return domain.Order{}, false, domain.Invalidf("customer %s is inactive", customer.Code)
	}
	rep, err := s.reps.Get(ctx, req.SalesRepID)
	if err != nil {
		return domain.Order{}, false, err
	}
	if !rep.Active {
		return domain.Order{}, false, domain.Invalidf("sales rep %s is inactive", rep.Code)
	}

	// 3. Price lines and schedule installments
	created := s.now()
	if req.CreatedAt != nil && !req.CreatedAt.IsZero() {
		created = *req.CreatedAt
	}
	items, total, weight, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return domain.Order{}, false, err
	}
	installments, err := s.schedule(ctx, req.PaymentTableID, total, created)
	if err != nil {
		return domain.Order{}, false, err
	}

	// 4. Number and save
	seq, err := s.orders.NextNumber(ctx)
	if err != nil {
		return domain.Order{}, false, err
	}
	order := domain.Order{
		Number:         FormatOrderNumber(created, seq),
		CustomerID:     customer.ID,
		SalesRepID:     rep.ID,
		PaymentTableID: req.PaymentTableID,
		Status:         domain.OrderPending,
		Source:         req.Source,
		Total:          total,
		Weight:         weight,
		Notes:          strings.TrimSpace(req.Notes),
		DeviceID:       req.DeviceID,
		LocalID:        req.LocalID,
		Items:          items,
		Installments:   installments,
		CreatedAt:      created,
	}
	changedBy := "order-service"
	if req.Source == domain.SourceMobile {
		changedBy = "device " + req.DeviceID
	}
	saved, err := s.orders.Create(ctx, order, changedBy)
	if err != nil {
		if idempotent && errors.Is(err, domain.ErrConflict) {
			existing, ferr := s.orders.FindByLocalID(ctx, req.DeviceID, req.LocalID)
			if ferr == nil {
				return existing, true, nil
			}
		}
		return domain.Order{}, false, err
	}

	// 5. Notify
	s.events.emit(ctx, domain.EventOrderCreated, saved.SalesRepID, orderEvent(saved))
	return saved, false, nil
}

func orderEvent(o domain.Order) map[string]any {
	return map[string]any{
		"order_id": o.ID,
		"number":   o.Number,
		"status":   o.Status,
		"total":    o.Total,
	}
}

// priceItems prices every input line against the product catalog.
func (s *OrderService) priceItems(ctx context.Context, in []domain.OrderItemInput) ([]domain.OrderItem, decimal.Decimal, decimal.Decimal, error) {
	ids := make([]int64, 0, len(in))
	for _, it := range in {
		ids = append(ids, it.ProductID)
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, decimal.Zero, err
	}
	return domain.PriceItems(products, in)
}

func (s *OrderService) schedule(ctx context.Context, tableID *int64, total decimal.Decimal, base time.Time) ([]paymentplan.Installment, error) {
	if tableID == nil {
		return nil, nil
	}
	t, err := s.tables.Get(ctx, *tableID)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, domain.Invalidf("payment table %s is inactive", t.Name)
	}
	inst, err := paymentplan.Schedule(t.Terms, total, base)
	if err != nil {
		return nil, domain.Invalidf("payment table %s: %v", t.Name, err)
	}
	return inst, nil
}

func (s *OrderService) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.orders.Get(ctx, id)
}

func (s *OrderService) List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, domain.Invalidf("unknown status %q", f.Status)
	}
	return s.orders.List(ctx, f)
}

func (s *OrderService) Update(ctx context.Context, id int64, req domain.UpdateOrderRequest) (domain.Order, error) {
	if len(req.Items) == 0 {
		return domain.Order{}, domain.Invalidf("at least one item is required")
	}
	cur, err := s.orders.Get(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	if cur.Status != domain.OrderPending {
		return domain.Order{}, fmt.Errorf("%w: order %s is %s and can no longer be edited",
			domain.ErrInvalidTransition, cur.Number, cur.Status)
	}
	items, total, weight, err := s.priceItems(ctx, req.Items)
	if err != nil {
		return domain.Order{}, err
	}
	installments, err := s.schedule(ctx, req.PaymentTableID, total, cur.CreatedAt)
	if err != nil {
		return domain.Order{}, err
	}

	cur.Version = req.Version
	cur.PaymentTableID = req.PaymentTableID
	cur.Notes = strings.TrimSpace(req.Notes)
	cur.Items = items
	cur.Total = total
	cur.Weight = weight
	cur.Installments = installments
	saved, err := s.orders.Update(ctx, cur)
	if err != nil {
		return domain.Order{}, err
	}
	s.events.emit(ctx, domain.EventOrderUpdated, saved.SalesRepID, orderEvent(saved))
	return saved, nil
}

// ChangeStatus applies a manual transition. Moving into or out of loaded is
// reserved to load operations.
func (s *OrderService) ChangeStatus(ctx context.Context, id int64, req domain.StatusChangeRequest, changedBy string) (domain.Order, error) {
	if !req.Status.Valid() {
		return domain.Order{}, domain.Invalidf("unknown status %q", req.Status)
	}
	if req.Status == domain.OrderLoaded {
		return domain.Order{}, fmt.Errorf("%w: orders are loaded by adding them to a load", domain.ErrInvalidTransition)
	}
	if changedBy == "" {
		changedBy = "order-service"
	}
	saved, err := s.orders.ChangeStatus(ctx, id, req.Status, changedBy, strings.TrimSpace(req.Notes),
		func(cur domain.Order) error {
			if cur.Status == domain.OrderLoaded {
				return fmt.Errorf("%w: order %s is in a load, remove it from the load first",
					domain.ErrInvalidTransition, cur.Number)
			}
			if !cur.Status.CanTransition(req.Status) {
				return fmt.Errorf("%w: order %s cannot go from %s to %s",
					domain.ErrInvalidTransition, cur.Number, cur.Status, req.Status)
			}
			return nil
		})
	if err != nil {
		return domain.Order{}, err
	}
	s.events.emit(ctx, domain.EventOrderStatus, saved.SalesRepID, orderEvent(saved))
	return saved, nil
}

func (s *OrderService) Timeline(ctx context.Context, id int64) ([]domain.StatusLogEntry, error) {
	return s.orders.Timeline(ctx, id)
}
