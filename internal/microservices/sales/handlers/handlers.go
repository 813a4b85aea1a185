package handlers

import "github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/service"

type Handler struct {
	CustomerHandler     *CustomerHandler
	ProductHandler      *ProductHandler
	SalesRepHandler     *SalesRepHandler
	PaymentTableHandler *PaymentTableHandler
	OrderHandler        *OrderHandler
	LoadHandler         *LoadHandler
	RouteHandler        *RouteHandler
}

func New(s *service.Service) *Handler {
	return &Handler{
		CustomerHandler:     NewCustomerHandler(s.CustomerService),
		ProductHandler:      NewProductHandler(s.ProductService),
		SalesRepHandler:     NewSalesRepHandler(s.SalesRepService),
		PaymentTableHandler: NewPaymentTableHandler(s.PaymentTableService),
		OrderHandler:        NewOrderHandler(s.OrderService, s.PaymentService),
		LoadHandler:         NewLoadHandler(s.LoadService),
		RouteHandler:        NewRouteHandler(s.RouteService),
	}
}
