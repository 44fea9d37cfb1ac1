// Package httpclient is the request pipeline used to talk to the forum API.
//
// Every request runs through an ordered list of middleware. Each middleware
// has a pre-send phase (Before, run in order) that may decorate or reject the
// outgoing request, and a post-receive phase (After, run in reverse order)
// that observes the outcome. After hooks cannot alter the response or error
// returned to the caller.
//
// Failures are reported as *NetworkError (match with ErrUnavailable) or
// *HTTPError (match with ErrUnauthorized / ErrValidation). Nothing is retried.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultTimeout bounds every request when the caller does not supply one.
const DefaultTimeout = 5 * time.Second

// Middleware is one stage of the request pipeline.
type Middleware interface {
	// Before may return a replacement request (e.g. with a derived context).
	// A non-nil error aborts the request before it is sent.
	Before(req *http.Request) (*http.Request, error)
	// After observes the outcome. resp is nil on transport failure.
	After(req *http.Request, resp *Response, err error)
}

// Client sends requests to a fixed base URL.
type Client struct {
	baseURL     string
	http        *http.Client
	middlewares []Middleware
}

type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client (its Timeout is kept).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithMiddleware appends stages to the pipeline.
func WithMiddleware(m ...Middleware) Option {
	return func(c *Client) { c.middlewares = append(c.middlewares, m...) }
}

// New returns a client for baseURL. A non-positive timeout selects
// DefaultTimeout.
func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Use appends middleware. It must not be called concurrently with Do.
func (c *Client) Use(m ...Middleware) {
	c.middlewares = append(c.middlewares, m...)
}

// BaseURL returns the origin all request paths are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do runs r through the pipeline and returns the fully read response.
// For non-2xx statuses both the response and an *HTTPError are returned.
func (c *Client) Do(ctx context.Context, r *Request) (*Response, error) {
	if r == nil {
		return nil, fmt.Errorf("request is required")
	}

	path := r.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	for k, v := range r.Header {
		req.Header[k] = append([]string(nil), v...)
	}

	for i, m := range c.middlewares {
		next, err := m.Before(req)
		if err != nil {
			runAfter(c.middlewares[:i], req, nil, err)
			return nil, err
		}
		if next != nil {
			req = next
		}
	}

	resp, err := c.send(req)
	runAfter(c.middlewares, req, resp, err)
	return resp, err
}

func runAfter(ms []Middleware, req *http.Request, resp *Response, err error) {
	for i := len(ms) - 1; i >= 0; i-- {
		ms[i].After(req, resp, err)
	}
}

func (c *Client) send(req *http.Request) (*Response, error) {
	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: req.URL.Path, Err: err}
	}
	defer httpResp.Body.Close()

	b, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &NetworkError{Method: req.Method, Path: req.URL.Path, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: b}
	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return resp, &HTTPError{StatusCode: httpResp.StatusCode, Body: b}
	}
	return resp, nil
}
