package httpclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Request is a request relative to the client's base URL.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// NewRequest builds a request without a body.
func NewRequest(method, path string) *Request {
	return &Request{Method: method, Path: path, Header: http.Header{}}
}

// NewJSONRequest encodes v as the JSON body of the request.
func NewJSONRequest(method, path string, v any) (*Request, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	req := NewRequest(method, path)
	req.Header.Set("Content-Type", "application/json")
	req.Body = b
	return req, nil
}

// NewFormRequest encodes form as an application/x-www-form-urlencoded body.
func NewFormRequest(method, path string, form url.Values) *Request {
	req := NewRequest(method, path)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Body = []byte(form.Encode())
	return req
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// DecodeJSON unmarshals the response body into v.
func (r *Response) DecodeJSON(v any) error {
	if len(strings.TrimSpace(string(r.Body))) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}
