// Package client is the typed HTTP adapter for the todo API.
package client

import (
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

	"go_todo/internal/config"
	"go_todo/internal/todo"
)

type Client struct {
	baseURL    *url.URL
	timeout    time.Duration
	httpClient *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func New(cfg config.ClientConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}

	c := &Client{
		baseURL:    base,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) ListTodos(ctx context.Context, userID string) ([]todo.Todo, error) {
	var todos []todo.Todo
	if err := c.do(ctx, http.MethodGet, todosPath(userID), nil, &todos); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []todo.Todo{}
	}
	return todos, nil
}

func (c *Client) GetTodo(ctx context.Context, userID string, id int64) (todo.Todo, error) {
	var t todo.Todo
	err := c.do(ctx, http.MethodGet, todoPath(userID, id), nil, &t)
	return t, err
}

func (c *Client) CreateTodo(ctx context.Context, userID string, req todo.CreateRequest) (todo.Todo, error) {
	var t todo.Todo
	err := c.do(ctx, http.MethodPost, todosPath(userID), req, &t)
	return t, err
}

func (c *Client) UpdateTodo(ctx context.Context, userID string, id int64, patch todo.UpdateRequest) (todo.Todo, error) {
	var t todo.Todo
	err := c.do(ctx, http.MethodPatch, todoPath(userID, id), patch, &t)
	return t, err
}

func (c *Client) DeleteTodo(ctx context.Context, userID string, id int64) error {
	return c.do(ctx, http.MethodDelete, todoPath(userID, id), nil, nil)
}

func todosPath(userID string) string {
	return "/users/" + url.PathEscape(userID) + "/todos"
}

func todoPath(userID string, id int64) string {
	return todosPath(userID) + "/" + strconv.FormatInt(id, 10)
}

// do sends one request under the configured timeout and decodes a 2xx
// JSON body into out when out is non-nil. There are no retries.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindTransport, Message: "encode request body", Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		return &Error{Kind: KindTransport, Message: "build request", Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindTransport, Status: resp.StatusCode, Message: "decode response body", Err: err}
	}
	return nil
}

func transportError(err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Status: http.StatusRequestTimeout, Code: "TIMEOUT", Message: "Request timeout", Err: err}
	}
	return &Error{Kind: KindTransport, Message: err.Error(), Err: err}
}

// statusError reads the server's error body; both {"error": ...} and
// {"message": ..., "code": ..., "details": ...} shapes are understood.
func statusError(status int, data []byte) *Error {
	apiErr := &Error{
		Kind:    kindForStatus(status),
		Status:  status,
		Message: fmt.Sprintf("Request failed with status %d", status),
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
		Code    string `json:"code"`
		Details any    `json:"details"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return apiErr
	}
	switch {
	case payload.Message != "":
		apiErr.Message = payload.Message
	case payload.Error != "":
		apiErr.Message = payload.Error
	}
	apiErr.Code = payload.Code
	apiErr.Details = payload.Details
	return apiErr
}
