package handlers

import (
	"net/http"
	"time"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/httpx"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/service"
)

type OrderHandler struct {
	service  service.OrderServiceInterface
	payments service.PaymentServiceInterface
}

func NewOrderHandler(s service.OrderServiceInterface, p service.PaymentServiceInterface) *OrderHandler {
	return &OrderHandler{service: s, payments: p}
}

func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	out, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	out, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func queryDate(r *http.Request, key string) (*time.Time, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, nil
	}
	d, err := service.ParseDate(s)
	if err != nil {
		return nil, domain.Invalidf("%s must be YYYY-MM-DD", key)
	}
	return &d, nil
}

// List filters by status, sales_rep_id, customer_id, load_id and the
// from/to creation days (to is inclusive).
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	f := domain.OrderFilter{
		Status: domain.OrderStatus(r.URL.Query().Get("status")),
		Page:   httpx.Page(r),
	}
	var err error
	if f.SalesRepID, err = httpx.QueryInt64(r, "sales_rep_id"); err != nil {
		httpx.WriteError(w, err)
		return
	}
	if f.CustomerID, err = httpx.QueryInt64(r, "customer_id"); err != nil {
		httpx.WriteError(w, err)
		return
	}
	if f.LoadID, err = httpx.QueryInt64(r, "load_id"); err != nil {
		httpx.WriteError(w, err)
		return
	}
	if f.From, err = queryDate(r, "from"); err != nil {
		httpx.WriteError(w, err)
		return
	}
	to, err := queryDate(r, "to")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	if to != nil {
		next := to.AddDate(0, 0, 1)
		f.To = &next
	}

	out, err := h.service.List(r.Context(), f)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.UpdateOrderRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	out, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *OrderHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.StatusChangeRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	out, err := h.service.ChangeStatus(r.Context(), id, req, r.Header.Get("X-User"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *OrderHandler) Timeline(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	events, err := h.service.Timeline(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"order_id": id, "events": events})
}

func (h *OrderHandler) AddPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	var req domain.PaymentRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	out, err := h.payments.Register(r.Context(), id, req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *OrderHandler) Payments(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	out, err := h.payments.Summary(r.Context(), id)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
