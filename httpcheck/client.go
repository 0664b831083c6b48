// Package httpcheck sends HTTP requests to the application under test and gives steps
// convenient access to the response.
package httpcheck

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

	"github.com/tidwall/gjson"
)

const (
	// DefaultPingTimeout bounds the reachability check of the application.
	DefaultPingTimeout = 5 * time.Second
	maxResponseBody    = 10 << 20
)

// Request is an HTTP request relative to the client's base URL.
type Request struct {
	Method string
	// Path is appended to the base URL. Absolute URLs are used as is.
	Path   string
	Header http.Header
	// Body is sent as JSON. POST and PUT send "{}" when it is nil.
	Body json.RawMessage
}

// Response is a fully read HTTP response. Any status code is a response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// IsJSON reports whether the body is a JSON object or array.
func (r *Response) IsJSON() bool {
	if !gjson.ValidBytes(r.Body) {
		return false
	}
	parsed := gjson.ParseBytes(r.Body)
	return parsed.IsObject() || parsed.IsArray()
}

// Field returns the value at a gjson path like "song.title" or "items.0.id".
func (r *Response) Field(path string) (gjson.Result, bool) {
	result := gjson.GetBytes(r.Body, path)
	return result, result.Exists()
}

// Contains reports whether the body contains text. JSON bodies are also searched in their
// compact form.
func (r *Response) Contains(text string) bool {
	if bytes.Contains(r.Body, []byte(text)) {
		return true
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, r.Body); err != nil {
		return false
	}
	return strings.Contains(compact.String(), text)
}

// Client sends requests to one base URL.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

type ClientOption func(*Client)

// WithTimeout bounds each request including reading the body.
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

// WithTransport sets the round tripper, e.g. to record exchanges.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.http.Transport = rt
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func NewClient(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the base URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Resolve returns the absolute URL for path.
func (c *Client) Resolve(path string) string {
	if u, err := url.Parse(path); err == nil && u.IsAbs() {
		return path
	}
	if path == "" {
		return c.baseURL
	}
	if !strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "?") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Send performs req. Only transport failures are errors; error statuses are returned as
// responses.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	body := req.Body
	if body == nil && (method == http.MethodPost || method == http.MethodPut) {
		body = json.RawMessage("{}")
	}
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	target := c.Resolve(req.Path)
	httpReq, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", method, target, err)
	}
	for name, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json, text/plain, */*")
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		c.logger.WarnContext(ctx, "Request failed", slog.String("method", method), slog.String("url", target), slog.Any("error", err))
		return nil, fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("reading response of %s %s: %w", method, target, err)
	}

	c.logger.DebugContext(ctx, "Request sent",
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header.Clone(),
		Body:       data,
	}, nil
}

// Ping reports whether GET on the base URL answers 200 within DefaultPingTimeout.
func (c *Client) Ping(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, DefaultPingTimeout)
	defer cancel()

	resp, err := c.Send(ctx, Request{Method: http.MethodGet})
	if err != nil {
		return false
	}
	return resp.StatusCode == http.StatusOK
}
