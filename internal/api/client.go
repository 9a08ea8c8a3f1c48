// Package api is the client for the inventory backend's REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/erazemk/inventrack/internal/observability"
)

// Backend resources.
const (
	ResourceItems      = "items"
	ResourceCategories = "categories"
	ResourceUsers      = "users"
	ResourceLogs       = "logs"
)

// maxPages bounds how many envelope pages a single list call follows.
const maxPages = 100

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 10 << 20

// Client issues requests against the backend's collection endpoints.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  *observability.Tracer
	metrics *observability.Metrics

	tokenScheme string
	token       string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithToken sends "Authorization: <scheme> <token>" on every request.
func WithToken(scheme, token string) Option {
	return func(c *Client) {
		c.tokenScheme = scheme
		c.token = token
	}
}

// WithObservability sets the tracer and metrics used for backend calls.
func WithObservability(cfg *observability.Config) Option {
	return func(c *Client) {
		c.tracer = cfg.Tracer()
		c.metrics = cfg.Metrics()
	}
}

// New creates a client for the backend at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tracer:  observability.NewNoopTracer(),
		metrics: observability.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(c)
	}

	// Copy so a caller-supplied client is not modified.
	hc := *c.http
	hc.Transport = &headerTransport{
		base:   hc.Transport,
		scheme: c.tokenScheme,
		token:  c.token,
	}
	c.http = &hc

	return c, nil
}

// BaseURL returns the backend base URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends a request to path (relative to the base URL, or absolute when it
// already carries a scheme) and returns the response body. Status codes of
// 400 and above are returned as *Error.
func (c *Client) do(ctx context.Context, resource, operation, method, path string, body any) ([]byte, error) {
	ctx, span := c.tracer.StartCall(ctx, resource, operation)

	start := time.Now()
	data, status, err := c.send(ctx, method, c.resolve(path), body, span.SetAttributes)
	observability.EndSpan(span, err)

	if status != 0 {
		c.metrics.RecordCall(ctx, resource, operation, status, time.Since(start))
	}
	if err != nil {
		errType := "transport"
		if status != 0 {
			errType = "http"
		}
		c.metrics.RecordError(ctx, resource, operation, errType)
		return nil, err
	}
	return data, nil
}

func (c *Client) send(ctx context.Context, method, target string, body any, annotate func(...attribute.KeyValue)) ([]byte, int, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	annotate(attribute.String(observability.AttrRequestID, requestID))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := newError(resp.StatusCode, data)
		slog.Warn("backend request failed",
			"method", method, "url", target, "status", resp.StatusCode,
			"request_id", requestID, "duration", time.Since(start).Round(time.Millisecond))
		return nil, resp.StatusCode, apiErr
	}
	return data, resp.StatusCode, nil
}

// resolve turns a path into an absolute URL. Paths that already carry a
// scheme (pagination links) are used as-is.
func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return c.baseURL + path
}

// list fetches every element of a collection, following envelope "next"
// links until exhausted.
func (c *Client) list(ctx context.Context, resource string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	next := "/" + resource + "/"

	for page := 0; next != ""; page++ {
		if page == maxPages {
			return nil, fmt.Errorf("listing %s: more than %d pages", resource, maxPages)
		}

		data, err := c.do(ctx, resource, observability.OpList, http.MethodGet, next, nil)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", resource, err)
		}

		elems, nextURL, err := decodeCollection(data)
		if err != nil {
			return nil, &ParseError{Resource: resource, Index: -1, Err: err}
		}
		all = append(all, elems...)
		next = nextURL
	}

	return all, nil
}
