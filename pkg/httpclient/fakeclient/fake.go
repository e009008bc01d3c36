// Package fakeclient provides an in-memory httpclient.Doer for tests.
//
// Responses are registered per method and URL path (query strings are ignored unless a
// handler inspects them) and every call is recorded for assertions.
package fakeclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/Ramsey-B/clover/pkg/httpclient"
)

// Call is one recorded request.
type Call struct {
	Method  string
	URL     string
	Path    string
	Query   url.Values
	Headers map[string]string
	Body    json.RawMessage
}

// HandlerFunc produces a response for a call.
type HandlerFunc func(call Call) (*httpclient.Response, error)

// Client implements httpclient.Doer.
type Client struct {
	mu       sync.Mutex
	handlers map[string]HandlerFunc
	calls    []Call
}

func New() *Client {
	return &Client{handlers: make(map[string]HandlerFunc)}
}

// Handle registers a handler for method + path.
func (c *Client) Handle(method, path string, handler HandlerFunc) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[method+" "+path] = handler
	return c
}

// HandleJSON registers a fixed JSON response for method + path.
func (c *Client) HandleJSON(method, path string, status int, body any) *Client {
	return c.Handle(method, path, func(_ Call) (*httpclient.Response, error) {
		return JSON(status, body)
	})
}

// Calls returns every recorded call.
func (c *Client) Calls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Call, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallsTo returns the recorded calls for method + path.
func (c *Client) CallsTo(method, path string) []Call {
	var out []Call
	for _, call := range c.Calls() {
		if call.Method == method && call.Path == path {
			out = append(out, call)
		}
	}
	return out
}

func (c *Client) Get(ctx context.Context, rawURL string, headers map[string]string) (*httpclient.Response, error) {
	return c.do(http.MethodGet, rawURL, nil, headers)
}

func (c *Client) Post(ctx context.Context, rawURL string, body any, headers map[string]string) (*httpclient.Response, error) {
	return c.do(http.MethodPost, rawURL, body, headers)
}

func (c *Client) Patch(ctx context.Context, rawURL string, body any, headers map[string]string) (*httpclient.Response, error) {
	return c.do(http.MethodPatch, rawURL, body, headers)
}

func (c *Client) do(method, rawURL string, body any, headers map[string]string) (*httpclient.Response, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}

	call := Call{
		Method:  method,
		URL:     rawURL,
		Path:    parsed.Path,
		Query:   parsed.Query(),
		Headers: headers,
	}
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		call.Body = raw
	}

	c.mu.Lock()
	c.calls = append(c.calls, call)
	handler, ok := c.handlers[method+" "+parsed.Path]
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("fakeclient: no handler for %s %s", method, parsed.Path)
	}
	return handler(call)
}

// JSON builds a response with a JSON body.
func JSON(status int, body any) (*httpclient.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return &httpclient.Response{
		StatusCode:  status,
		Headers:     map[string]string{"Content-Type": "application/json"},
		Body:        raw,
		ContentType: "application/json",
	}, nil
}

// Text builds a response with a plain text body.
func Text(status int, body string) (*httpclient.Response, error) {
	return &httpclient.Response{
		StatusCode:  status,
		Headers:     map[string]string{"Content-Type": "text/plain"},
		Body:        []byte(body),
		ContentType: "text/plain",
	}, nil
}
