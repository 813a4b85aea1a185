package handler

import (
	"net/http"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/httpx"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/syncserver/service"
)

// MonitorHandler shows which devices sync and which workers build packages.
type MonitorHandler struct {
	service service.MonitorServiceInterface
}

func NewMonitorHandler(s service.MonitorServiceInterface) *MonitorHandler {
	return &MonitorHandler{service: s}
}

func (h *MonitorHandler) Devices(w http.ResponseWriter, r *http.Request) {
	rep, err := httpx.QueryInt64(r, "sales_rep_id")
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	out, err := h.service.Devices(r.Context(), rep, httpx.Page(r))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *MonitorHandler) DeviceLogs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	out, err := h.service.DeviceLogs(r.Context(), id, httpx.Page(r))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"device_id": id, "events": out})
}

func (h *MonitorHandler) Workers(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.Workers(r.Context())
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}
