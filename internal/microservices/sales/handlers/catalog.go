package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/httpx"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/service"
	"github.com/rasganxd/vendas-fortes-sub005/internal/paymentplan"
)

type CustomerHandler struct {
	service service.CustomerServiceInterface
}

func NewCustomerHandler(s service.CustomerServiceInterface) *CustomerHandler {
	return &CustomerHandler{service: s}
}

func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	c := domain.Customer{Active: true}
	if !httpx.DecodeJSON(w, r, &c) {
		return
	}
	out, err := h.service.Create(r.Context(), c)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *CustomerHandler) Get(w http.ResponseWriter, r *http.Request) {
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

func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	rep, err := httpx.QueryInt64(r, "sales_rep_id")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	active, err := httpx.QueryBool(r, "active")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	out, err := h.service.List(r.Context(), domain.CustomerFilter{
		Search:     r.URL.Query().Get("q"),
		SalesRepID: rep,
		Active:     active,
		Page:       httpx.Page(r),
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"customers": out})
}

func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	var c domain.Customer
	if !httpx.DecodeJSON(w, r, &c) {
		return
	}
	c.ID = id
	out, err := h.service.Update(r.Context(), c)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *CustomerHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type ProductHandler struct {
	service service.ProductServiceInterface
}

func NewProductHandler(s service.ProductServiceInterface) *ProductHandler {
	return &ProductHandler{service: s}
}

func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	p := domain.Product{Active: true}
	if !httpx.DecodeJSON(w, r, &p) {
		return
	}
	out, err := h.service.Create(r.Context(), p)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
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

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	active, err := httpx.QueryBool(r, "active")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	q := r.URL.Query()
	out, err := h.service.List(r.Context(), domain.ProductFilter{
		Search:   q.Get("q"),
		Category: q.Get("category"),
		Active:   active,
		Page:     httpx.Page(r),
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"products": out})
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	var p domain.Product
	if !httpx.DecodeJSON(w, r, &p) {
		return
	}
	p.ID = id
	out, err := h.service.Update(r.Context(), p)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *ProductHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Deactivate(r.Context(), id); err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Quote answers GET /products/{id}/price?unit=UN&quantity=3&price=4.50.
func (h *ProductHandler) Quote(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	qty := decimal.NewFromInt(1)
	if s := q.Get("quantity"); s != "" {
		v, err := decimal.NewFromString(s)
		if err != nil {
			httpx.WriteError(w, domain.Invalidf("quantity must be a number"))
			return
		}
		qty = v
	}
	var price *decimal.Decimal
	if s := q.Get("price"); s != "" {
		v, err := decimal.NewFromString(s)
		if err != nil {
			httpx.WriteError(w, domain.Invalidf("price must be a number"))
			return
		}
		price = &v
	}
	out, err := h.service.Quote(r.Context(), id, q.Get("unit"), qty, price)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type SalesRepHandler struct {
	service service.SalesRepServiceInterface
}

func NewSalesRepHandler(s service.SalesRepServiceInterface) *SalesRepHandler {
	return &SalesRepHandler{service: s}
}

func (h *SalesRepHandler) Create(w http.ResponseWriter, r *http.Request) {
	rep := domain.SalesRep{Active: true}
	if !httpx.DecodeJSON(w, r, &rep) {
		return
	}
	out, err := h.service.Create(r.Context(), rep)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *SalesRepHandler) Get(w http.ResponseWriter, r *http.Request) {
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

func (h *SalesRepHandler) List(w http.ResponseWriter, r *http.Request) {
	active, err := httpx.QueryBool(r, "active")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	out, err := h.service.List(r.Context(), active, httpx.Page(r))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"sales_reps": out})
}

func (h *SalesRepHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	var rep domain.SalesRep
	if !httpx.DecodeJSON(w, r, &rep) {
		return
	}
	rep.ID = id
	out, err := h.service.Update(r.Context(), rep)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type PaymentTableHandler struct {
	service service.PaymentTableServiceInterface
}

func NewPaymentTableHandler(s service.PaymentTableServiceInterface) *PaymentTableHandler {
	return &PaymentTableHandler{service: s}
}

func (h *PaymentTableHandler) Create(w http.ResponseWriter, r *http.Request) {
	t := paymentplan.Table{Active: true}
	if !httpx.DecodeJSON(w, r, &t) {
		return
	}
	out, err := h.service.Create(r.Context(), t)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

func (h *PaymentTableHandler) Get(w http.ResponseWriter, r *http.Request) {
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

func (h *PaymentTableHandler) List(w http.ResponseWriter, r *http.Request) {
	active, err := httpx.QueryBool(r, "active")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	out, err := h.service.List(r.Context(), active != nil && *active)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"payment_tables": out})
}

func (h *PaymentTableHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	var t paymentplan.Table
	if !httpx.DecodeJSON(w, r, &t) {
		return
	}
	t.ID = id
	out, err := h.service.Update(r.Context(), t)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

// Schedule previews installments: ?total=300.00&date=2024-03-01.
func (h *PaymentTableHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	q := r.URL.Query()
	total, err := decimal.NewFromString(strings.TrimSpace(q.Get("total")))
	if err != nil {
		httpx.WriteError(w, domain.Invalidf("total must be a number"))
		return
	}
	base := time.Now()
	if s := q.Get("date"); s != "" {
		if base, err = service.ParseDate(s); err != nil {
			httpx.WriteError(w, err)
			return
		}
	}
	out, err := h.service.Preview(r.Context(), id, total, base)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"payment_table_id": id, "total": total, "installments": out})
}
