package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/microservices/sales/service"
	"github.com/rasganxd/vendas-fortes-sub005/internal/pricing"
)

type stubOrders struct {
	service.OrderServiceInterface
	created domain.CreateOrderRequest
	filter  domain.OrderFilter
	status  domain.StatusChangeRequest
	by      string
}

func (s *stubOrders) Create(_ context.Context, req domain.CreateOrderRequest) (domain.Order, error) {
	s.created = req
	return domain.Order{ID: 1, Number: "PED-20240301-00001", Status: domain.OrderPending}, nil
}

func (s *stubOrders) Get(_ context.Context, id int64) (domain.Order, error) {
	return domain.Order{}, domain.NotFoundf("order %d", id)
}

func (s *stubOrders) List(_ context.Context, f domain.OrderFilter) ([]domain.Order, error) {
	s.filter = f
	return []domain.Order{}, nil
}

func (s *stubOrders) ChangeStatus(_ context.Context, id int64, req domain.StatusChangeRequest, by string) (domain.Order, error) {
	s.status, s.by = req, by
	return domain.Order{ID: id, Status: req.Status}, nil
}

type stubProducts struct {
	service.ProductServiceInterface
	unit  string
	qty   decimal.Decimal
	price *decimal.Decimal
}

func (s *stubProducts) Quote(_ context.Context, _ int64, unit string, qty decimal.Decimal, price *decimal.Decimal) (pricing.Quote, error) {
	s.unit, s.qty, s.price = unit, qty, price
	return pricing.Quote{Unit: "UN", Quantity: qty}, nil
}

type stubLoads struct {
	service.LoadServiceInterface
}

func (stubLoads) ChangeStatus(context.Context, int64, domain.LoadStatus) (domain.Load, error) {
	return domain.Load{}, domain.ErrInvalidTransition
}

func newTestServer(orders *stubOrders, products *stubProducts) *httptest.Server {
	h := New(&service.Service{
		OrderService:   orders,
		ProductService: products,
		LoadService:    stubLoads{},
	})
	return httptest.NewServer(Router(h))
}

func problem(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(&stubOrders{}, &stubProducts{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCreateOrder(t *testing.T) {
	orders := &stubOrders{}
	srv := newTestServer(orders, &stubProducts{})
	defer srv.Close()

	body := `{"customer_id":1,"sales_rep_id":7,"items":[{"product_id":10,"unit":"UN","quantity":"6","unit_price":"9.50"}]}`
	resp, err := http.Post(srv.URL+"/api/v1/orders", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Len(t, orders.created.Items, 1)
	assert.True(t, orders.created.Items[0].UnitPrice.Equal(decimal.RequireFromString("9.5")))
	assert.Empty(t, orders.created.DeviceID)
}

func TestCreateOrder_UnknownField(t *testing.T) {
	srv := newTestServer(&stubOrders{}, &stubProducts{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/orders", "application/json", strings.NewReader(`{"device_id":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetOrder_NotFound(t *testing.T) {
	srv := newTestServer(&stubOrders{}, &stubProducts{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/orders/42")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not_found", problem(t, resp)["type"])

	resp2, err := http.Get(srv.URL + "/api/v1/orders/abc")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestListOrders_Filters(t *testing.T) {
	orders := &stubOrders{}
	srv := newTestServer(orders, &stubProducts{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/orders?status=approved&sales_rep_id=7&from=2024-03-01&to=2024-03-31&limit=10")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	f := orders.filter
	assert.Equal(t, domain.OrderApproved, f.Status)
	require.NotNil(t, f.SalesRepID)
	assert.Equal(t, int64(7), *f.SalesRepID)
	require.NotNil(t, f.To)
	assert.Equal(t, "2024-04-01", f.To.Format("2006-01-02"))
	assert.Equal(t, 10, f.Limit)

	bad, err := http.Get(srv.URL + "/api/v1/orders?from=yesterday")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, bad.StatusCode)
}

func TestChangeStatus_PassesUser(t *testing.T) {
	orders := &stubOrders{}
	srv := newTestServer(orders, &stubProducts{})
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/orders/3/status", strings.NewReader(`{"status":"approved"}`))
	req.Header.Set("X-User", "maria")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.OrderApproved, orders.status.Status)
	assert.Equal(t, "maria", orders.by)
}

func TestProductQuote(t *testing.T) {
	products := &stubProducts{}
	srv := newTestServer(&stubOrders{}, products)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/products/10/price?unit=UN&quantity=6&price=9.50")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "UN", products.unit)
	assert.True(t, products.qty.Equal(decimal.NewFromInt(6)))
	require.NotNil(t, products.price)

	resp2, err := http.Get(srv.URL + "/api/v1/products/10/price?quantity=lots")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp2.StatusCode)
}

func TestLoadStatus_Conflict(t *testing.T) {
	srv := newTestServer(&stubOrders{}, &stubProducts{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/loads/1/status", "application/json", strings.NewReader(`{"status":"delivered"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "invalid_transition", problem(t, resp)["type"])
}
