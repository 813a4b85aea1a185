package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/syncserver/service"
	"github.com/rasganxd/vendas-fortes-sub005/internal/repository"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

type stubSync struct {
	service.SyncServiceInterface
	since  int64
	device domain.Device
	pushed syncpkg.UploadRequest
}

func (s *stubSync) Authenticate(_ context.Context, token string) (domain.Device, error) {
	if token != "secret" {
		return domain.Device{}, domain.ErrUnauthorized
	}
	return domain.Device{ID: "d1", SalesRepID: 7}, nil
}

func (s *stubSync) Register(_ context.Context, req syncpkg.RegisterRequest) (syncpkg.RegisterResponse, error) {
	if req.SalesRepCode == "" {
		return syncpkg.RegisterResponse{}, domain.Invalidf("sales_rep_code is required")
	}
	return syncpkg.RegisterResponse{DeviceID: "d1", Token: "secret"}, nil
}

func (s *stubSync) Pull(_ context.Context, d domain.Device, since int64) (syncpkg.Package, bool, error) {
	s.device, s.since = d, since
	return syncpkg.Package{Version: 5}, since == 5, nil
}

func (s *stubSync) Push(_ context.Context, d domain.Device, req syncpkg.UploadRequest) (syncpkg.PushResponse, error) {
	s.device, s.pushed = d, req
	return syncpkg.PushResponse{Accepted: len(req.Orders)}, nil
}

func (s *stubSync) Status() syncpkg.ServerStatus {
	return syncpkg.ServerStatus{ServerID: "srv"}
}

type stubMonitor struct {
	service.MonitorServiceInterface
}

func (stubMonitor) DeviceLogs(_ context.Context, id string, page domain.Page) ([]repository.SyncLog, error) {
	return []repository.SyncLog{{DeviceID: id, Kind: "push", OrdersAccepted: page.Limit}}, nil
}

func (stubMonitor) Workers(context.Context) ([]repository.Worker, error) {
	return []repository.Worker{{Name: "packager-1", Status: "online"}}, nil
}

func do(t *testing.T, srv *httptest.Server, method, path, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRegister(t *testing.T) {
	srv := httptest.NewServer(Router(NewSyncHandler(&stubSync{}), NewMonitorHandler(stubMonitor{})))
	defer srv.Close()

	resp := do(t, srv, http.MethodPost, "/api/v1/sync/devices", "", `{"sales_rep_code":"R01","device_id":"d1"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var out syncpkg.RegisterResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "secret", out.Token)

	resp = do(t, srv, http.MethodPost, "/api/v1/sync/devices", "", `{"device_id":"d1"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPull(t *testing.T) {
	stub := &stubSync{}
	srv := httptest.NewServer(Router(NewSyncHandler(stub), NewMonitorHandler(stubMonitor{})))
	defer srv.Close()

	resp := do(t, srv, http.MethodGet, "/api/v1/sync/package", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/v1/sync/package?since=2", "secret", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `"5"`, resp.Header.Get("ETag"))
	var p syncpkg.Package
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	assert.Equal(t, int64(5), p.Version)
	assert.Equal(t, int64(2), stub.since)
	assert.Equal(t, "d1", stub.device.ID)

	resp = do(t, srv, http.MethodGet, "/api/v1/sync/package?since=5", "secret", "")
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)

	resp = do(t, srv, http.MethodGet, "/api/v1/sync/package?since=x", "secret", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPush(t *testing.T) {
	stub := &stubSync{}
	srv := httptest.NewServer(Router(NewSyncHandler(stub), NewMonitorHandler(stubMonitor{})))
	defer srv.Close()

	body := `{"orders":[{"local_id":"a","customer_id":1,"created_at":"2024-03-01T09:00:00Z","items":[{"product_id":2,"quantity":"3"}]}]}`
	resp := do(t, srv, http.MethodPost, "/api/v1/sync/orders", "secret", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out syncpkg.PushResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, 1, out.Accepted)
	require.Len(t, stub.pushed.Orders, 1)
	assert.Equal(t, "3", stub.pushed.Orders[0].Items[0].Quantity.String())

	resp = do(t, srv, http.MethodPost, "/api/v1/sync/orders", "wrong", body)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStatus(t *testing.T) {
	srv := httptest.NewServer(Router(NewSyncHandler(&stubSync{}), NewMonitorHandler(stubMonitor{})))
	defer srv.Close()

	resp := do(t, srv, http.MethodGet, "/api/v1/sync/status", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st syncpkg.ServerStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, "srv", st.ServerID)
}

func TestBearer(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", bearer(r))
	r.Header.Set("Authorization", "bearer abc ")
	assert.Equal(t, "abc", bearer(r))
	r.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", bearer(r))
}

func TestMonitor(t *testing.T) {
	srv := httptest.NewServer(Router(NewSyncHandler(&stubSync{}), NewMonitorHandler(stubMonitor{})))
	defer srv.Close()

	resp := do(t, srv, http.MethodGet, "/api/v1/sync/devices/d1/logs?limit=5", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var logs struct {
		DeviceID string               `json:"device_id"`
		Events   []repository.SyncLog `json:"events"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&logs))
	assert.Equal(t, "d1", logs.DeviceID)
	require.Len(t, logs.Events, 1)
	assert.Equal(t, 5, logs.Events[0].OrdersAccepted)

	resp = do(t, srv, http.MethodGet, "/api/v1/sync/workers", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var ws []repository.Worker
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ws))
	assert.Equal(t, "packager-1", ws[0].Name)

	resp = do(t, srv, http.MethodGet, "/api/v1/sync/devices?sales_rep_id=x", "", "")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
