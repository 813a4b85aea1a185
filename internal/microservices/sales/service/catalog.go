package service

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/repository"
	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
	"github.com/rasganxd/vendas-fortes-sub005/internal/pricing"
)

type CustomerServiceInterface interface {
	Create(ctx context.Context, c domain.Customer) (domain.Customer, error)
	Get(ctx context.Context, id int64) (domain.Customer, error)
	List(ctx context.Context, f domain.CustomerFilter) ([]domain.Customer, error)
	Update(ctx context.Context, c domain.Customer) (domain.Customer, error)
	Deactivate(ctx context.Context, id int64) error
}

type CustomerService struct {
	repo repository.CustomerRepositoryInterface
}

func NewCustomerService(repo repository.CustomerRepositoryInterface) CustomerServiceInterface {
	return &CustomerService{repo: repo}
}

func normalizeCustomer(c *domain.Customer) {
	c.Code = strings.TrimSpace(c.Code)
	c.Name = strings.TrimSpace(c.Name)
	c.State = strings.ToUpper(strings.TrimSpace(c.State))
}

func (s *CustomerService) Create(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	normalizeCustomer(&c)
	if err := c.Validate(); err != nil {
		return domain.Customer{}, err
	}
	return s.repo.Create(ctx, c)
}

func (s *CustomerService) Get(ctx context.Context, id int64) (domain.Customer, error) {
	return s.repo.Get(ctx, id)
}

func (s *CustomerService) List(ctx context.Context, f domain.CustomerFilter) ([]domain.Customer, error) {
	return s.repo.List(ctx, f)
}

func (s *CustomerService) Update(ctx context.Context, c domain.Customer) (domain.Customer, error) {
	normalizeCustomer(&c)
	if err := c.Validate(); err != nil {
		return domain.Customer{}, err
	}
	return s.repo.Update(ctx, c)
}

func (s *CustomerService) Deactivate(ctx context.Context, id int64) error {
	return s.repo.SetActive(ctx, id, false)
}

type ProductServiceInterface interface {
	Create(ctx context.Context, p domain.Product) (domain.Product, error)
	Get(ctx context.Context, id int64) (domain.Product, error)
	List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error)
	Update(ctx context.Context, p domain.Product) (domain.Product, error)
	Deactivate(ctx context.Context, id int64) error
	Quote(ctx context.Context, id int64, unit string, qty decimal.Decimal, price *decimal.Decimal) (pricing.Quote, error)
}

type ProductService struct {
	repo   repository.ProductRepositoryInterface
	events *events
}

func NewProductService(repo repository.ProductRepositoryInterface, ev *events) ProductServiceInterface {
	return &ProductService{repo: repo, events: ev}
}

func normalizeProduct(p *domain.Product) {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	p.Unit = strings.ToUpper(strings.TrimSpace(p.Unit))
	p.SubUnit = strings.ToUpper(strings.TrimSpace(p.SubUnit))
	if p.SubUnit == "" {
		p.SubUnitRatio = decimal.Zero
	}
}

func (s *ProductService) Create(ctx context.Context, p domain.Product) (domain.Product, error) {
	normalizeProduct(&p)
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	out, err := s.repo.Create(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	s.events.emit(ctx, domain.EventCatalogChanged, 0, map[string]any{"product_id": out.ID})
	return out, nil
}

func (s *ProductService) Get(ctx context.Context, id int64) (domain.Product, error) {
	return s.repo.Get(ctx, id)
}

func (s *ProductService) List(ctx context.Context, f domain.ProductFilter) ([]domain.Product, error) {
	return s.repo.List(ctx, f)
}

func (s *ProductService) Update(ctx context.Context, p domain.Product) (domain.Product, error) {
	normalizeProduct(&p)
	if err := p.Validate(); err != nil {
		return domain.Product{}, err
	}
	out, err := s.repo.Update(ctx, p)
	if err != nil {
		return domain.Product{}, err
	}
	s.events.emit(ctx, domain.EventCatalogChanged, 0, map[string]any{"product_id": out.ID})
	return out, nil
}

func (s *ProductService) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}
	s.events.emit(ctx, domain.EventCatalogChanged, 0, map[string]any{"product_id": id})
	return nil
}

func (s *ProductService) Quote(ctx context.Context, id int64, unit string, qty decimal.Decimal, price *decimal.Decimal) (pricing.Quote, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		return pricing.Quote{}, err
	}
	q, err := p.Quote(unit, qty, price)
	if err != nil {
		return pricing.Quote{}, domain.Invalidf("product %s: %v", p.Code, err)
	}
	return q, nil
}

type SalesRepServiceInterface interface {
	Create(ctx context.Context, r domain.SalesRep) (domain.SalesRep, error)
	Get(ctx context.Context, id int64) (domain.SalesRep, error)
	List(ctx context.Context, active *bool, page domain.Page) ([]domain.SalesRep, error)
	Update(ctx context.Context, r domain.SalesRep) (domain.SalesRep, error)
}

type SalesRepService struct {
	repo repository.SalesRepRepositoryInterface
}

func NewSalesRepService(repo repository.SalesRepRepositoryInterface) SalesRepServiceInterface {
	return &SalesRepService{repo: repo}
}

func (s *SalesRepService) Create(ctx context.Context, r domain.SalesRep) (domain.SalesRep, error) {
	r.Code = strings.TrimSpace(r.Code)
	if err := r.Validate(); err != nil {
		return domain.SalesRep{}, err
	}
	return s.repo.Create(ctx, r)
}

func (s *SalesRepService) Get(ctx context.Context, id int64) (domain.SalesRep, error) {
	return s.repo.Get(ctx, id)
}

func (s *SalesRepService) List(ctx context.Context, active *bool, page domain.Page) ([]domain.SalesRep, error) {
	return s.repo.List(ctx, active, page)
}

func (s *SalesRepService) Update(ctx context.Context, r domain.SalesRep) (domain.SalesRep, error) {
	r.Code = strings.TrimSpace(r.Code)
	if err := r.Validate(); err != nil {
		return domain.SalesRep{}, err
	}
	return s.repo.Update(ctx, r)
}

type PaymentTableServiceInterface interface {
	Create(ctx context.Context, t paymentplan.Table) (paymentplan.Table, error)
	Get(ctx context.Context, id int64) (paymentplan.Table, error)
	List(ctx context.Context, activeOnly bool) ([]paymentplan.Table, error)
	Update(ctx context.Context, t paymentplan.Table) (paymentplan.Table, error)
	Preview(ctx context.Context, id int64, total decimal.Decimal, base time.Time) ([]paymentplan.Installment, error)
}

type PaymentTableService struct {
	repo   repository.PaymentTableRepositoryInterface
	events *events
}

func NewPaymentTableService(repo repository.PaymentTableRepositoryInterface, ev *events) PaymentTableServiceInterface {
	return &PaymentTableService{repo: repo, events: ev}
}

func (s *PaymentTableService) Create(ctx context.Context, t paymentplan.Table) (paymentplan.Table, error) {
	if err := t.Validate(); err != nil {
		return paymentplan.Table{}, domain.Invalidf("%v", err)
	}
	out, err := s.repo.Create(ctx, t)
	if err != nil {
		return paymentplan.Table{}, err
	}
	s.events.emit(ctx, domain.EventCatalogChanged, 0, map[string]any{"payment_table_id": out.ID})
	return out, nil
}

func (s *PaymentTableService) Get(ctx context.Context, id int64) (paymentplan.Table, error) {
	return s.repo.Get(ctx, id)
}

func (s *PaymentTableService) List(ctx context.Context, activeOnly bool) ([]paymentplan.Table, error) {
	return s.repo.List(ctx, activeOnly)
}

func (s *PaymentTableService) Update(ctx context.Context, t paymentplan.Table) (paymentplan.Table, error) {
	if err := t.Validate(); err != nil {
		return paymentplan.Table{}, domain.Invalidf("%v", err)
	}
	out, err := s.repo.Update(ctx, t)
	if err != nil {
		return paymentplan.Table{}, err
	}
	s.events.emit(ctx, domain.EventCatalogChanged, 0, map[string]any{"payment_table_id": out.ID})
	return out, nil
}

func (s *PaymentTableService) Preview(ctx context.Context, id int64, total decimal.Decimal, base time.Time) ([]paymentplan.Installment, error) {
	if total.IsNegative() {
		return nil, domain.Invalidf("total cannot be negative")
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	inst, err := paymentplan.Schedule(t.Terms, total, base)
	if err != nil {
		return nil, domain.Invalidf("%v", err)
	}
	return inst, nil
}
