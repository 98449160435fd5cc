// Package transport executes JSON requests against the broker REST API.
//
// It is a thin layer over resty: one call is one HTTP round trip. Retries are
// disabled and no client-side timeout is set, callers bound requests with
// their context.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rxtech-lab/traderz-go/internal/logger"
	"github.com/rxtech-lab/traderz-go/internal/version"
	"go.uber.org/zap"
)

// Request describes a single REST call relative to the base URL.
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Query   map[string]string
	// Body is JSON-encoded when non-nil.
	Body any
}

// Response is the raw outcome of a request that reached the server.
type Response struct {
	StatusCode int
	Body       []byte
}

// IsSuccess reports whether the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Text returns the body as a string.
func (r *Response) Text() string {
	return string(r.Body)
}

// DecodeJSON decodes the body into out. Numbers landing in interface values
// are kept as json.Number so they round-trip without losing precision.
func (r *Response) DecodeJSON(out any) error {
	decoder := json.NewDecoder(bytes.NewReader(r.Body))
	decoder.UseNumber()

	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}

	return nil
}

// Client sends requests to a single base URL.
type Client struct {
	client  *resty.Client
	baseURL string
	log     *logger.Logger
}

// Option configures a Client.
type Option func(*options)

type options struct {
	httpClient *http.Client
	log        *logger.Logger
}

// WithHTTPClient makes the Client use the given *http.Client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) {
		o.httpClient = httpClient
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New creates a Client for baseURL. A trailing slash on baseURL is ignored.
func New(baseURL string, opts ...Option) *Client {
	o := &options{
		httpClient: nil,
		log:        nil,
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.log == nil {
		o.log = logger.NewNopLogger()
	}

	// Auth travels only in per-request headers, so cookies set by the
	// server must never be replayed on later calls.
	var rc *resty.Client
	if o.httpClient != nil {
		hc := *o.httpClient
		hc.Jar = nil
		rc = resty.NewWithClient(&hc)
	} else {
		rc = resty.New().SetCookieJar(nil)
	}

	baseURL = strings.TrimSuffix(baseURL, "/")
	rc.SetBaseURL(baseURL).SetRetryCount(0)

	return &Client{
		client:  rc,
		baseURL: baseURL,
		log:     o.log,
	}
}

// BaseURL returns the base URL requests are resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs the request and returns the response for any status code.
// An error is returned only when no response was received.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	r := c.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", version.UserAgent())

	for k, v := range req.Headers {
		r.SetHeader(k, v)
	}

	if len(req.Query) > 0 {
		r.SetQueryParams(req.Query)
	}

	if req.Body != nil {
		r.SetHeader("Content-Type", "application/json")
		r.SetBody(req.Body)
	}

	start := time.Now()
	resp, err := r.Execute(req.Method, req.Path)
	duration := time.Since(start)

	if err != nil {
		c.log.Debug("request failed",
			zap.String("method", req.Method),
			zap.String("path", req.Path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)

		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, err)
	}

	c.log.Debug("request completed",
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("duration", duration),
	)

	return &Response{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}, nil
}
