package service

import (
	"context"
	"strings"
	"time"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/repository"
)

type LoadServiceInterface interface {
	Create(ctx context.Context, req domain.CreateLoadRequest) (domain.Load, error)
	Get(ctx context.Context, id int64) (domain.Load, error)
	List(ctx context.Context, status domain.LoadStatus, page domain.Page) ([]domain.Load, error)
	AddOrders(ctx context.Context, id int64, orderIDs []int64) (domain.Load, error)
	RemoveOrder(ctx context.Context, id, orderID int64) (domain.Load, error)
	ChangeStatus(ctx context.Context, id int64, to domain.LoadStatus) (domain.Load, error)
}

type LoadService struct {
	repo   repository.LoadRepositoryInterface
	events *events
}

func NewLoadService(repo repository.LoadRepositoryInterface, ev *events) LoadServiceInterface {
	return &LoadService{repo: repo, events: ev}
}

func uniqueIDs(ids []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return nil, domain.Invalidf("invalid order id %d", id)
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

func (s *LoadService) Create(ctx context.Context, req domain.CreateLoadRequest) (domain.Load, error) {
	plate := strings.ToUpper(strings.TrimSpace(req.VehiclePlate))
	if plate == "" {
		return domain.Load{}, domain.Invalidf("vehicle_plate is required")
	}
	ids, err := uniqueIDs(req.OrderIDs)
	if err != nil {
		return domain.Load{}, err
	}
	l, err := s.repo.Create(ctx, domain.Load{
		Description:   strings.TrimSpace(req.Description),
		VehiclePlate:  plate,
		DriverName:    strings.TrimSpace(req.DriverName),
		DepartureDate: req.DepartureDate,
	}, ids)
	if err != nil {
		return domain.Load{}, err
	}
	s.notify(ctx, l)
	return l, nil
}

func (s *LoadService) Get(ctx context.Context, id int64) (domain.Load, error) {
	return s.repo.Get(ctx, id)
}

func (s *LoadService) List(ctx context.Context, status domain.LoadStatus, page domain.Page) ([]domain.Load, error) {
	switch status {
	case "", domain.LoadOpen, domain.LoadClosed, domain.LoadDelivered:
	default:
		return nil, domain.Invalidf("unknown load status %q", status)
	}
	return s.repo.List(ctx, status, page)
}

func (s *LoadService) AddOrders(ctx context.Context, id int64, orderIDs []int64) (domain.Load, error) {
	ids, err := uniqueIDs(orderIDs)
	if err != nil {
		return domain.Load{}, err
	}
	if len(ids) == 0 {
		return domain.Load{}, domain.Invalidf("order_ids is required")
	}
	l, err := s.repo.AddOrders(ctx, id, ids)
	if err != nil {
		return domain.Load{}, err
	}
	s.notify(ctx, l)
	return l, nil
}

func (s *LoadService) RemoveOrder(ctx context.Context, id, orderID int64) (domain.Load, error) {
	l, err := s.repo.RemoveOrder(ctx, id, orderID)
	if err != nil {
		return domain.Load{}, err
	}
	s.notify(ctx, l)
	return l, nil
}

func (s *LoadService) ChangeStatus(ctx context.Context, id int64, to domain.LoadStatus) (domain.Load, error) {
	switch to {
	case domain.LoadOpen, domain.LoadClosed, domain.LoadDelivered:
	default:
		return domain.Load{}, domain.Invalidf("unknown load status %q", to)
	}
	l, err := s.repo.ChangeStatus(ctx, id, to)
	if err != nil {
		return domain.Load{}, err
	}
	s.notify(ctx, l)
	return l, nil
}

// notify tells every rep that order statuses may have changed.
func (s *LoadService) notify(ctx context.Context, l domain.Load) {
	s.events.emit(ctx, domain.EventOrderStatus, 0, map[string]any{
		"load_id":   l.ID,
		"number":    l.Number,
		"status":    l.Status,
		"order_ids": l.OrderIDs,
	})
}

type RouteServiceInterface interface {
	Create(ctx context.Context, req domain.RouteRequest) (domain.Route, error)
	Get(ctx context.Context, id int64) (domain.Route, error)
	List(ctx context.Context, f domain.RouteFilter) ([]domain.Route, error)
	ReplaceStops(ctx context.Context, id int64, customerIDs []int64) (domain.Route, error)
	MarkStop(ctx context.Context, id int64, position int, req domain.VisitRequest) (domain.Route, error)
}

type RouteService struct {
	repo   repository.RouteRepositoryInterface
	reps   repository.SalesRepRepositoryInterface
	events *events
	now    func() time.Time
}

func NewRouteService(repo repository.RouteRepositoryInterface, reps repository.SalesRepRepositoryInterface, ev *events) RouteServiceInterface {
	return &RouteService{repo: repo, reps: reps, events: ev, now: time.Now}
}

// ParseDate reads a YYYY-MM-DD calendar day.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, domain.Invalidf("date must be YYYY-MM-DD")
	}
	return d, nil
}

func validateStops(ids []int64) error {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if id <= 0 {
			return domain.Invalidf("invalid customer id %d", id)
		}
		if _, dup := seen[id]; dup {
			return domain.Invalidf("customer %d appears twice in the route", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

func (s *RouteService) Create(ctx context.Context, req domain.RouteRequest) (domain.Route, error) {
	date, err := ParseDate(req.Date)
	if err != nil {
		return domain.Route{}, err
	}
	if err := validateStops(req.CustomerIDs); err != nil {
		return domain.Route{}, err
	}
	rep, err := s.reps.Get(ctx, req.SalesRepID)
	if err != nil {
		return domain.Route{}, err
	}
	if !rep.Active {
		return domain.Route{}, domain.Invalidf("sales rep %s is inactive", rep.Code)
	}
	rt := domain.Route{SalesRepID: rep.ID, Date: date, Name: strings.TrimSpace(req.Name)}
	for i, id := range req.CustomerIDs {
		rt.Stops = append(rt.Stops, domain.RouteStop{Position: i + 1, CustomerID: id, Status: domain.StopPending})
	}
	out, err := s.repo.Create(ctx, rt)
	if err != nil {
		return domain.Route{}, err
	}
	s.events.emit(ctx, domain.EventRoutesChanged, out.SalesRepID, map[string]any{"route_id": out.ID})
	return out, nil
}

func (s *RouteService) Get(ctx context.Context, id int64) (domain.Route, error) {
	return s.repo.Get(ctx, id)
}

func (s *RouteService) List(ctx context.Context, f domain.RouteFilter) ([]domain.Route, error) {
	return s.repo.List(ctx, f)
}

func (s *RouteService) ReplaceStops(ctx context.Context, id int64, customerIDs []int64) (domain.Route, error) {
	if err := validateStops(customerIDs); err != nil {
		return domain.Route{}, err
	}
	out, err := s.repo.ReplaceStops(ctx, id, customerIDs)
	if err != nil {
		return domain.Route{}, err
	}
	s.events.emit(ctx, domain.EventRoutesChanged, out.SalesRepID, map[string]any{"route_id": out.ID})
	return out, nil
}

func (s *RouteService) MarkStop(ctx context.Context, id int64, position int, req domain.VisitRequest) (domain.Route, error) {
	switch req.Status {
	case domain.StopPending, domain.StopVisited, domain.StopSkipped:
	default:
		return domain.Route{}, domain.Invalidf("unknown stop status %q", req.Status)
	}
	if position <= 0 {
		return domain.Route{}, domain.Invalidf("invalid stop position %d", position)
	}
	out, err := s.repo.MarkStop(ctx, id, position, req.Status, strings.TrimSpace(req.Notes), s.now())
	if err != nil {
		return domain.Route{}, err
	}
	s.events.emit(ctx, domain.EventRoutesChanged, out.SalesRepID, map[string]any{"route_id": out.ID})
	return out, nil
}
