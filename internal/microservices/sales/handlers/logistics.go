package handlers

import (
	"net/http"
	"strconv"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/httpx"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/service"
)

type LoadHandler struct {
	service service.LoadServiceInterface
}

func NewLoadHandler(s service.LoadServiceInterface) *LoadHandler {
	return &LoadHandler{service: s}
}

func (h *LoadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLoadRequest
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

func (h *LoadHandler) Get(w http.ResponseWriter, r *http.Request) {
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

func (h *LoadHandler) List(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.List(r.Context(), domain.LoadStatus(r.URL.Query().Get("status")), httpx.Page(r))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"loads": out})
}

func (h *LoadHandler) AddOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		OrderIDs []int64 `json:"order_ids"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	out, err := h.service.AddOrders(r.Context(), id, req.OrderIDs)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *LoadHandler) RemoveOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	orderID, ok := httpx.PathID(w, r, "order_id")
	if !ok {
		return
	}
	out, err := h.service.RemoveOrder(r.Context(), id, orderID)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *LoadHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Status domain.LoadStatus `json:"status"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	out, err := h.service.ChangeStatus(r.Context(), id, req.Status)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

type RouteHandler struct {
	service service.RouteServiceInterface
}

func NewRouteHandler(s service.RouteServiceInterface) *RouteHandler {
	return &RouteHandler{service: s}
}

func (h *RouteHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.RouteRequest
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

func (h *RouteHandler) Get(w http.ResponseWriter, r *http.Request) {
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

func (h *RouteHandler) List(w http.ResponseWriter, r *http.Request) {
	rep, err := httpx.QueryInt64(r, "sales_rep_id")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	out, err := h.service.List(r.Context(), domain.RouteFilter{SalesRepID: rep, Date: date, Page: httpx.Page(r)})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"routes": out})
}

func (h *RouteHandler) ReplaceStops(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		CustomerIDs []int64 `json:"customer_ids"`
	}
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	out, err := h.service.ReplaceStops(r.Context(), id, req.CustomerIDs)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *RouteHandler) MarkStop(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.PathID(w, r, "id")
	if !ok {
		return
	}
	pos, err := strconv.Atoi(r.PathValue("position"))
	if err != nil || pos <= 0 {
		httpx.WriteProblem(w, http.StatusBadRequest, "bad_request", "invalid position")
		return
	}
	var req domain.VisitRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	out, err := h.service.MarkStop(r.Context(), id, pos, req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
