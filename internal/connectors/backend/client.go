// Package backend is the transport to the template/metrics API: it issues
// requests, tells JSON from plain-text responses and turns failures into
// operator-facing messages.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Payload is a response body and whether the backend declared it as JSON.
type Payload struct {
	JSON bool
	Body []byte
}

// Text returns the body as an opaque string.
func (p *Payload) Text() string {
	if p == nil {
		return ""
	}
	return string(p.Body)
}

// Pretty renders the payload for display. JSON is re-indented in its
// backend key order; text is shown as a quoted JSON string.
func (p *Payload) Pretty() string {
	if p == nil {
		return ""
	}
	if p.JSON {
		return prettyJSON(p.Body)
	}
	quoted, err := json.Marshal(string(p.Body))
	if err != nil {
		return string(p.Body)
	}
	return string(quoted)
}

// Decode unmarshals a JSON payload into v.
func (p *Payload) Decode(v any) error {
	if p == nil || !p.JSON {
		return errors.New("response is not JSON")
	}
	return json.Unmarshal(p.Body, v)
}

// Upload is a local file sent as the multipart "file" field.
type Upload struct {
	Filename string
	Reader   io.Reader
	Size     int64
}

// RequestOptions describes the optional parts of a backend request.
type RequestOptions struct {
	// Operation names the call for logs and metrics.
	Operation string
	Query     map[string]string
	Form      map[string]string
	File      *Upload
}

// Observer receives the outcome of every backend call.
type Observer func(operation string, duration time.Duration, err error)

// Client talks to the backend API over JSON/multipart HTTP.
type Client struct {
	endpoint string
	http     *resty.Client
	logger   *zap.Logger
	observer Observer
}

// NewClient builds a client for endpoint. A zero timeout leaves requests
// bounded only by their context. Requests are never retried.
func NewClient(endpoint string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")

	rc := resty.New().
		SetBaseURL(endpoint).
		SetRetryCount(0).
		SetLogger(logger.Named("resty").Sugar())
	if timeout > 0 {
		rc.SetTimeout(timeout)
	}

	return &Client{
		endpoint: endpoint,
		http:     rc,
		logger:   logger,
	}
}

// Endpoint returns the configured base URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Observe registers fn to be called after every request. It must be set
// before the client is shared.
func (c *Client) Observe(fn Observer) {
	c.observer = fn
}

// Do sends one request and returns the payload of a 2xx response. Any
// other status yields an *APIError.
func (c *Client) Do(ctx context.Context, method, path string, opts RequestOptions) (*Payload, error) {
	start := time.Now()
	payload, err := c.do(ctx, method, path, opts)
	elapsed := time.Since(start)

	if c.observer != nil {
		c.observer(opts.Operation, elapsed, err)
	}
	if err != nil {
		c.logger.Debug("backend request failed",
			zap.String("operation", opts.Operation),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
	} else {
		c.logger.Debug("backend request",
			zap.String("operation", opts.Operation),
			zap.String("method", method),
			zap.String("path", path),
			zap.Duration("duration", elapsed),
		)
	}
	return payload, err
}

func (c *Client) do(ctx context.Context, method, path string, opts RequestOptions) (*Payload, error) {
	req := c.http.R().SetContext(ctx)
	if len(opts.Query) > 0 {
		req.SetQueryParams(opts.Query)
	}
	if opts.File != nil {
		req.SetFileReader("file", opts.File.Filename, opts.File.Reader)
		if len(opts.Form) > 0 {
			req.SetMultipartFormData(opts.Form)
		}
	} else if len(opts.Form) > 0 {
		req.SetFormData(opts.Form)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, err
	}

	payload := &Payload{
		JSON: strings.Contains(resp.Header().Get("Content-Type"), "application/json"),
		Body: resp.Body(),
	}
	if payload.JSON && !json.Valid(payload.Body) {
		return nil, fmt.Errorf("invalid JSON in %s %s response (status %d)", method, path, resp.StatusCode())
	}
	if !resp.IsSuccess() {
		return nil, newAPIError(resp.StatusCode(), payload)
	}
	return payload, nil
}
