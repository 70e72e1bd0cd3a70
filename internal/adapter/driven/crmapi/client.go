// Package crmapi implements the tenant REST API ports over net/http.
package crmapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/tiendapanel/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.AuthAPI       = (*Client)(nil)
	_ driven.LeadAPI       = (*Client)(nil)
	_ driven.BackupAPI     = (*Client)(nil)
	_ driven.CommerceAPI   = (*Client)(nil)
	_ driven.PlanCatalog   = (*Client)(nil)
	_ driven.StorefrontAPI = (*Client)(nil)
)

// Client talks to the tenant REST API. Authenticated calls go through this
// transport stack:
//  1. metrics (prometheus counters and latency histogram per call)
//  2. bearer (Authorization header chosen by the TokenResolver)
//  3. base transport
//
// The public plan catalog uses a separate unauthenticated stack with
// httpcache in place of the bearer transport.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	catalog *http.Client
	logger  *slog.Logger
}

// Option customizes a Client.
type Option func(*options)

type options struct {
	base   http.RoundTripper
	logger *slog.Logger
}

// WithTransport replaces the base transport (tests inject httptest clients here).
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

// WithLogger sets the logger used for per-call debug logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, resolver driven.TokenResolver, opts ...Option) (*Client, error) {
	o := options{base: http.DefaultTransport, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing base URL: %q is not absolute", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	authed := &metricsTransport{next: &bearerTransport{resolver: resolver, next: o.base}}

	cache := httpcache.NewMemoryCacheTransport()
	cache.Transport = o.base
	anonymous := &metricsTransport{next: cache}

	return &Client{
		baseURL: u,
		http:    &http.Client{Transport: authed},
		catalog: &http.Client{Transport: anonymous},
		logger:  o.logger,
	}, nil
}

// endpoint resolves a relative API path against the base URL.
func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// doJSON sends body (if non-nil) as JSON and decodes a 2xx response into out
// (if non-nil). Non-2xx responses become *APIError.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(c.http, req, out)
}

// send executes req and decodes the response into out.
func (c *Client) send(client *http.Client, req *http.Request, out any) error {
	resp, err := c.exchange(client, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s: %w", req.Method, req.URL.Path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

// exchange performs the round trip and converts transport failures and
// non-2xx statuses into errors. On success the caller owns resp.Body.
func (c *Client) exchange(client *http.Client, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, ctxErr)
		}
		return nil, fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Path, driven.ErrUnreachable, err)
	}

	c.logger.Debug("api call",
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, newAPIError(resp)
	}
	return resp, nil
}

// stream copies a 2xx response body to w.
func (c *Client) stream(ctx context.Context, path string, query url.Values, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(path, query), nil)
	if err != nil {
		return 0, fmt.Errorf("building GET %s: %w", path, err)
	}

	resp, err := c.exchange(c.http, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("streaming %s: %w", path, err)
	}
	return n, nil
}

// listEnvelope accepts both a bare JSON array and a paginated
// {"results": [...]} object.
type listEnvelope[T any] struct {
	items []T
}

func (l *listEnvelope[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		return json.Unmarshal(data, &l.items)
	}

	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(data, &page); err != nil {
		return err
	}
	l.items = page.Results
	return nil
}

func getList[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var env listEnvelope[T]
	if err := c.doJSON(ctx, http.MethodGet, path, query, nil, &env); err != nil {
		return nil, err
	}
	if env.items == nil {
		return []T{}, nil
	}
	return env.items, nil
}

// IsAPIStatus reports whether err is an *APIError with the given status.
func IsAPIStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}
