package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/swamys/hotfoods/internal/model"
)

// ErrStreamClosed is returned by WatchStoreStatus when the server ends the
// stream.
var ErrStreamClosed = errors.New("status stream closed by server")

var _ Client = (*HTTPClient)(nil)

// HTTPClient implements Client using the hotfoods HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *HTTPClient) { c.token = token }
}

// WithHTTPClient replaces the underlying http.Client. It must not set a
// Timeout if WatchStoreStatus is used.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewHTTPClient creates a client targeting baseURL (e.g.
// "http://localhost:8080").
func NewHTTPClient(baseURL string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Store config ---

func (c *HTTPClient) GetStoreConfig(ctx context.Context) (*model.StatusPayload, error) {
	var p model.StatusPayload
	if err := c.doJSON(ctx, http.MethodGet, "/v1/store-config", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) UpdateStoreConfig(ctx context.Context, u model.StoreConfigUpdate) (*model.StatusPayload, error) {
	var p model.StatusPayload
	if err := c.doJSON(ctx, http.MethodPut, "/v1/store-config", u, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) WatchStoreStatus(ctx context.Context, fn func(*model.StatusPayload) error) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/store-config/stream", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return apiError(resp.StatusCode, body)
	}

	err = readEvents(resp.Body, func(data []byte) error {
		var p model.StatusPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return fmt.Errorf("decoding status event: %w", err)
		}
		return fn(&p)
	})
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// readEvents parses a server-sent event stream, calling fn with the data of
// each event. Comment lines (keepalives) are skipped.
func readEvents(r io.Reader, fn func(data []byte) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var data []byte
	for sc.Scan() {
		line := sc.Bytes()
		switch {
		case len(line) == 0:
			if len(data) > 0 {
				if err := fn(data); err != nil {
					return err
				}
				data = data[:0]
			}
		case line[0] == ':':
		case bytes.HasPrefix(line, []byte("data:")):
			if len(data) > 0 {
				data = append(data, '\n')
			}
			data = append(data, bytes.TrimPrefix(bytes.TrimPrefix(line, []byte("data:")), []byte(" "))...)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	return ErrStreamClosed
}

// --- Menu ---

func (c *HTTPClient) ListMenu(ctx context.Context, req *ListMenuRequest) ([]*model.MenuItem, error) {
	q := url.Values{}
	if req != nil {
		if req.Slot != "" {
			q.Set("slot", req.Slot)
		}
		if req.Ingredient != "" {
			q.Set("ingredient", req.Ingredient)
		}
		if req.Limit > 0 {
			q.Set("limit", strconv.Itoa(req.Limit))
		}
		if req.Offset > 0 {
			q.Set("offset", strconv.Itoa(req.Offset))
		}
	}
	path := "/v1/menu"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var items []*model.MenuItem
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) GetMenuItem(ctx context.Context, id string) (*model.MenuItem, error) {
	var item model.MenuItem
	if err := c.doJSON(ctx, http.MethodGet, "/v1/menu/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// AvailableMenu lists items served at at. A zero at means now, as judged by
// the server's clock.
func (c *HTTPClient) AvailableMenu(ctx context.Context, at time.Time) ([]*model.MenuItem, error) {
	path := "/v1/menu/available"
	if !at.IsZero() {
		path += "?at=" + url.QueryEscape(at.Format(time.RFC3339))
	}
	var items []*model.MenuItem
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *HTTPClient) CreateMenuItem(ctx context.Context, item *model.MenuItem) (*model.MenuItem, error) {
	var out model.MenuItem
	if err := c.doJSON(ctx, http.MethodPost, "/v1/menu", item, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateMenuItem(ctx context.Context, id string, u model.MenuItemUpdate) (*model.MenuItem, error) {
	var out model.MenuItem
	if err := c.doJSON(ctx, http.MethodPut, "/v1/menu/"+url.PathEscape(id), u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteMenuItem(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/menu/"+url.PathEscape(id), nil, nil)
}

// --- Timing templates ---

func (c *HTTPClient) ListTemplates(ctx context.Context) ([]*model.TimingTemplate, error) {
	var list []*model.TimingTemplate
	if err := c.doJSON(ctx, http.MethodGet, "/v1/templates", nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func (c *HTTPClient) CreateTemplate(ctx context.Context, tmpl *model.TimingTemplate) (*model.TimingTemplate, error) {
	var out model.TimingTemplate
	if err := c.doJSON(ctx, http.MethodPost, "/v1/templates", tmpl, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteTemplate(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/templates/"+url.PathEscape(id), nil, nil)
}

func (c *HTTPClient) AssignTemplate(ctx context.Context, menuIDs []string, key string) (int, error) {
	body := map[string]any{"menuIds": menuIDs, "templateKey": key}
	var resp struct {
		Count int `json:"count"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/menu/template", body, &resp); err != nil {
		return 0, err
	}
	return resp.Count, nil
}

// --- Auth ---

func (c *HTTPClient) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var resp LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/v1/auth/logout", nil, nil)
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

func apiError(code int, body []byte) error {
	var errResp struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &errResp) == nil && errResp.Error != "" {
		return &APIError{StatusCode: code, Message: errResp.Error}
	}
	return &APIError{StatusCode: code, Message: strings.TrimSpace(string(body))}
}

func (c *HTTPClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	// 204 No Content: success with no body.
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return apiError(resp.StatusCode, respBody)
	}
	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}
