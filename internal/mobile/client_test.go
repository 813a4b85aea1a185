package mobile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasganxd/vendas-fortes-sub005/internal/common/httpx"
	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

func fakeServer(t *testing.T, pkg syncpkg.Package) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer tok" {
				httpx.WriteError(w, domain.ErrUnauthorized)
				return
			}
			next(w, r)
		}
	}
	mux.HandleFunc("POST /api/v1/sync/devices", func(w http.ResponseWriter, r *http.Request) {
		var req syncpkg.RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.SalesRepCode != "R01" {
			httpx.WriteError(w, domain.Invalidf("unknown rep"))
			return
		}
		httpx.WriteJSON(w, http.StatusCreated, syncpkg.RegisterResponse{
			DeviceID: req.DeviceID, Token: "tok", SalesRep: domain.SalesRep{ID: 7, Code: "R01"},
		})
	})
	mux.HandleFunc("GET /api/v1/sync/package", authed(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("since") == "5" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		httpx.WriteJSON(w, http.StatusOK, pkg)
	}))
	mux.HandleFunc("POST /api/v1/sync/orders", authed(func(w http.ResponseWriter, r *http.Request) {
		var req syncpkg.UploadRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		out := syncpkg.PushResponse{}
		for i, o := range req.Orders {
			out.Accepted++
			out.Results = append(out.Results, syncpkg.UploadResult{LocalID: o.LocalID, Accepted: true, OrderID: int64(i + 1)})
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	}))
	mux.HandleFunc("GET /api/v1/sync/status", func(w http.ResponseWriter, _ *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, syncpkg.ServerStatus{ServerID: "srv"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Pull(t *testing.T) {
	srv := fakeServer(t, testPackage(5))
	ctx := context.Background()

	_, _, err := NewClient(srv.URL, "").Pull(ctx, 0)
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusUnauthorized, herr.Status)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	c := NewClient(srv.URL+"/", "tok")
	p, notModified, err := c.Pull(ctx, 3)
	require.NoError(t, err)
	assert.False(t, notModified)
	assert.Equal(t, int64(5), p.Version)

	_, notModified, err = c.Pull(ctx, 5)
	require.NoError(t, err)
	assert.True(t, notModified)
}

func TestClient_PullRejectsCorruptPackage(t *testing.T) {
	p := testPackage(2)
	p.Checksum = "deadbeef"
	srv := fakeServer(t, p)

	_, _, err := NewClient(srv.URL, "tok").Pull(context.Background(), 0)
	assert.ErrorIs(t, err, syncpkg.ErrChecksum)
}

func TestClient_PushAndStatus(t *testing.T) {
	srv := fakeServer(t, testPackage(1))
	c := NewClient(srv.URL, "tok")

	out, err := c.Push(context.Background(), []syncpkg.UploadOrder{{LocalID: "a"}, {LocalID: "b"}})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Accepted)
	assert.Equal(t, "b", out.Results[1].LocalID)

	st, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "srv", st.ServerID)
}

func TestEnroll(t *testing.T) {
	srv := fakeServer(t, testPackage(1))
	store := openStore(t)
	ctx := context.Background()
	c := NewClient(srv.URL, "")

	_, err := Enroll(ctx, store, c, "R99", "tablet")
	assert.ErrorIs(t, err, domain.ErrValidation)

	resp, err := Enroll(ctx, store, c, "R01", "tablet")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.DeviceID)

	for key, want := range map[string]string{
		MetaDeviceID: resp.DeviceID, MetaToken: "tok", MetaServerURL: srv.URL, MetaSalesRep: "R01",
	} {
		got, err := store.Meta(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, got, key)
	}

	again, err := Enroll(ctx, store, c, "R01", "tablet")
	require.NoError(t, err)
	assert.Equal(t, resp.DeviceID, again.DeviceID)

	_, _, err = c.Pull(ctx, 0)
	assert.NoError(t, err)
}
