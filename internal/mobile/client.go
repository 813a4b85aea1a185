package mobile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rasganxd/vendas-fortes-sub005/internal/domain"
	"github.com/rasganxd/vendas-fortes-sub005/internal/syncpkg"
)

// HTTPError is a non 2xx answer of the sync server.
type HTTPError struct {
	Status int
	Type   string
	Detail string
}

func (e *HTTPError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("sync server: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("sync server: %d %s", e.Status, e.Detail)
}

func (e *HTTPError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusUnprocessableEntity:
		return domain.ErrValidation
	case http.StatusNotFound:
		return domain.ErrNotFound
	}
	return nil
}

type Client struct {
	base  string
	token string
	hc    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		hc:    &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) BaseURL() string { return c.base }

func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) do(ctx context.Context, method, path string, in, out any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return resp, nil
	case resp.StatusCode >= 300:
		var p struct {
			Type   string `json:"type"`
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&p)
		return resp, &HTTPError{Status: resp.StatusCode, Type: p.Type, Detail: p.Detail}
	case out != nil:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return resp, nil
}

func (c *Client) Register(ctx context.Context, req syncpkg.RegisterRequest) (syncpkg.RegisterResponse, error) {
	var out syncpkg.RegisterResponse
	_, err := c.do(ctx, http.MethodPost, "/api/v1/sync/devices", req, &out)
	return out, err
}

// Pull downloads the current package unless the server still has version
// since. A downloaded package must pass its checksum.
func (c *Client) Pull(ctx context.Context, since int64) (syncpkg.Package, bool, error) {
	var p syncpkg.Package
	resp, err := c.do(ctx, http.MethodGet, "/api/v1/sync/package?since="+strconv.FormatInt(since, 10), nil, &p)
	if err != nil {
		return syncpkg.Package{}, false, err
	}
	if resp.StatusCode == http.StatusNotModified {
		return syncpkg.Package{}, true, nil
	}
	if err := p.Verify(); err != nil {
		return syncpkg.Package{}, false, err
	}
	return p, false, nil
}

func (c *Client) Push(ctx context.Context, orders []syncpkg.UploadOrder) (syncpkg.PushResponse, error) {
	var out syncpkg.PushResponse
	_, err := c.do(ctx, http.MethodPost, "/api/v1/sync/orders", syncpkg.UploadRequest{Orders: orders}, &out)
	return out, err
}

func (c *Client) Status(ctx context.Context) (syncpkg.ServerStatus, error) {
	var out syncpkg.ServerStatus
	_, err := c.do(ctx, http.MethodGet, "/api/v1/sync/status", nil, &out)
	return out, err
}
