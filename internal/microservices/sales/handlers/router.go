package handlers

import (
	"net/http"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/httpx"
)

func Router(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/v1/customers", h.CustomerHandler.Create)
	mux.HandleFunc("GET /api/v1/customers", h.CustomerHandler.List)
	mux.HandleFunc("GET /api/v1/customers/{id}", h.CustomerHandler.Get)
	mux.HandleFunc("PUT /api/v1/customers/{id}", h.CustomerHandler.Update)
	mux.HandleFunc("DELETE /api/v1/customers/{id}", h.CustomerHandler.Deactivate)

	mux.HandleFunc("POST /api/v1/products", h.ProductHandler.Create)
	mux.HandleFunc("GET /api/v1/products", h.ProductHandler.List)
	mux.HandleFunc("GET /api/v1/products/{id}", h.ProductHandler.Get)
	mux.HandleFunc("PUT /api/v1/products/{id}", h.ProductHandler.Update)
	mux.HandleFunc("DELETE /api/v1/products/{id}", h.ProductHandler.Deactivate)
	mux.HandleFunc("GET /api/v1/products/{id}/price", h.ProductHandler.Quote)

	mux.HandleFunc("POST /api/v1/sales-reps", h.SalesRepHandler.Create)
	mux.HandleFunc("GET /api/v1/sales-reps", h.SalesRepHandler.List)
	mux.HandleFunc("GET /api/v1/sales-reps/{id}", h.SalesRepHandler.Get)
	mux.HandleFunc("PUT /api/v1/sales-reps/{id}", h.SalesRepHandler.Update)

	mux.HandleFunc("POST /api/v1/payment-tables", h.PaymentTableHandler.Create)
	mux.HandleFunc("GET /api/v1/payment-tables", h.PaymentTableHandler.List)
	mux.HandleFunc("GET /api/v1/payment-tables/{id}", h.PaymentTableHandler.Get)
	mux.HandleFunc("PUT /api/v1/payment-tables/{id}", h.PaymentTableHandler.Update)
	mux.HandleFunc("GET /api/v1/payment-tables/{id}/schedule", h.PaymentTableHandler.Schedule)

	mux.HandleFunc("POST /api/v1/orders", h.OrderHandler.Create)
	mux.HandleFunc("GET /api/v1/orders", h.OrderHandler.List)
	mux.HandleFunc("GET /api/v1/orders/{id}", h.OrderHandler.Get)
	mux.HandleFunc("PUT /api/v1/orders/{id}", h.OrderHandler.Update)
	mux.HandleFunc("POST /api/v1/orders/{id}/status", h.OrderHandler.ChangeStatus)
	mux.HandleFunc("GET /api/v1/orders/{id}/timeline", h.OrderHandler.Timeline)
	mux.HandleFunc("POST /api/v1/orders/{id}/payments", h.OrderHandler.AddPayment)
	mux.HandleFunc("GET /api/v1/orders/{id}/payments", h.OrderHandler.Payments)

	mux.HandleFunc("POST /api/v1/loads", h.LoadHandler.Create)
	mux.HandleFunc("GET /api/v1/loads", h.LoadHandler.List)
	mux.HandleFunc("GET /api/v1/loads/{id}", h.LoadHandler.Get)
	mux.HandleFunc("POST /api/v1/loads/{id}/orders", h.LoadHandler.AddOrders)
	mux.HandleFunc("DELETE /api/v1/loads/{id}/orders/{order_id}", h.LoadHandler.RemoveOrder)
	mux.HandleFunc("POST /api/v1/loads/{id}/status", h.LoadHandler.ChangeStatus)

	mux.HandleFunc("POST /api/v1/routes", h.RouteHandler.Create)
	mux.HandleFunc("GET /api/v1/routes", h.RouteHandler.List)
	mux.HandleFunc("GET /api/v1/routes/{id}", h.RouteHandler.Get)
	mux.HandleFunc("PUT /api/v1/routes/{id}/stops", h.RouteHandler.ReplaceStops)
	mux.HandleFunc("POST /api/v1/routes/{id}/stops/{position}", h.RouteHandler.MarkStop)

	return mux
}
