package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/bimakw/top-holders-frame/internal/domain/repositories"
)

// maxBodySize caps upstream response bodies
const maxBodySize = 8 << 20

var (
	upstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upstream_requests_total",
			Help: "Total number of requests made to upstream services",
		},
		[]string{"service", "status"},
	)

	upstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upstream_request_duration_seconds",
			Help:    "Upstream request duration in seconds",
			Buckets: []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"service"},
	)
)

// Option configures a Client
type Option func(*Client)

// WithHeader adds a header to every request
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if value != "" {
			c.headers.Set(key, value)
		}
	}
}

// WithRateLimit throttles outgoing requests to rps with the given burst
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps > 0 {
			if burst <= 0 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// Client is an instrumented HTTP client for one upstream service
type Client struct {
	service string
	http    *http.Client
	headers http.Header
	limiter *rate.Limiter
	logger  *zap.Logger
}

// New creates a client for the named upstream service
func New(service string, timeout time.Duration, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		service: service,
		http:    &http.Client{Timeout: timeout},
		headers: make(http.Header),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned when the upstream answers with a non-2xx status
type StatusError struct {
	Service    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.StatusCode, e.Body)
}

// Unwrap classifies every status failure as an upstream failure
func (e *StatusError) Unwrap() error {
	return repositories.ErrUpstream
}

// Do sends the request and returns the response body of a 2xx response
func (c *Client) Do(ctx context.Context, req *http.Request) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%s rate limit wait: %w", c.service, err)
		}
	}

	for k, vs := range c.headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req.WithContext(ctx))
	upstreamRequestDuration.WithLabelValues(c.service).Observe(time.Since(start).Seconds())
	if err != nil {
		upstreamRequestsTotal.WithLabelValues(c.service, "error").Inc()
		return nil, fmt.Errorf("%s request failed: %w: %w", c.service, repositories.ErrUpstream, err)
	}
	defer resp.Body.Close()

	upstreamRequestsTotal.WithLabelValues(c.service, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w: %w", c.service, repositories.ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Upstream returned error status",
			zap.String("service", c.service),
			zap.Int("status", resp.StatusCode),
		)
		return nil, &StatusError{Service: c.service, StatusCode: resp.StatusCode, Body: truncate(string(body), 256)}
	}

	return body, nil
}

// Get fetches url and returns the raw body
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.service, err)
	}
	return c.Do(ctx, req)
}

// GetJSON fetches url and decodes the JSON body into dest
func (c *Client) GetJSON(ctx context.Context, url string, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", c.service, err)
	}
	req.Header.Set("Accept", "application/json")

	body, err := c.Do(ctx, req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode %s response: %w: %w", c.service, repositories.ErrUpstream, err)
	}
	return nil
}

// Post sends body with the given content type and returns the response body
func (c *Client) Post(ctx context.Context, url, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", c.service, err)
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
