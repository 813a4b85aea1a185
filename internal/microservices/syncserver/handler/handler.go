package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/httpx"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/syncserver/service"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

type SyncHandler struct {
	service service.SyncServiceInterface
}

func NewSyncHandler(s service.SyncServiceInterface) *SyncHandler {
	return &SyncHandler{service: s}
}

// Router mounts the sync API and the monitoring endpoints.
func Router(h *SyncHandler, m *MonitorHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("POST /api/v1/sync/devices", h.Register)
	mux.HandleFunc("GET /api/v1/sync/package", h.authorized(h.Pull))
	mux.HandleFunc("POST /api/v1/sync/orders", h.authorized(h.Push))
	mux.HandleFunc("GET /api/v1/sync/status", h.Status)

	mux.HandleFunc("GET /api/v1/sync/devices", m.Devices)
	mux.HandleFunc("GET /api/v1/sync/devices/{id}/logs", m.DeviceLogs)
	mux.HandleFunc("GET /api/v1/sync/workers", m.Workers)
	return mux
}

type deviceKey struct{}

func bearer(r *http.Request) string {
	const prefix = "Bearer "
	v := r.Header.Get("Authorization")
	if len(v) < len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(v[len(prefix):])
}

func (h *SyncHandler) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dev, err := h.service.Authenticate(r.Context(), bearer(r))
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), deviceKey{}, dev)))
	}
}

func device(r *http.Request) domain.Device {
	dev, _ := r.Context().Value(deviceKey{}).(domain.Device)
	return dev
}

func (h *SyncHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req syncpkg.RegisterRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	out, err := h.service.Register(r.Context(), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, out)
}

// Pull answers 304 when the device already holds the current version.
func (h *SyncHandler) Pull(w http.ResponseWriter, r *http.Request) {
	var since int64
	if s := r.URL.Query().Get("since"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			httpx.WriteError(w, domain.Invalidf("since must be a non-negative integer"))
			return
		}
		since = n
	}
	p, notModified, err := h.service.Pull(r.Context(), device(r), since)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(p.Version, 10)))
	if notModified {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, p)
}

func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	var req syncpkg.UploadRequest
	if !httpx.DecodeJSON(w, r, &req) {
		return
	}
	out, err := h.service.Push(r.Context(), device(r), req)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, out)
}

func (h *SyncHandler) Status(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, h.service.Status())
}
