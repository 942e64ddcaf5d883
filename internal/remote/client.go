// Package remote is the typed client for the ledger HTTP API. Transport
// failures surface as ErrUnreachable and non-2xx answers as *RejectedError so
// callers can tell "offline" from "refused".
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nimasrn/denitracker/internal/model"
	"github.com/nimasrn/denitracker/pkg/logger"
	"github.com/valyala/fasthttp"
)

const IdempotencyHeader = "Idempotency-Key"

type Config struct {
	BaseURL                 string
	Timeout                 time.Duration
	MaxRetries              int
	RetryDelay              time.Duration
	MaxConns                int
	CircuitBreakerThreshold int
	CircuitBreakerTimeout   time.Duration
}

// Observer receives one call per request attempt; outcome is "ok",
// "rejected" or "unreachable".
type Observer func(method, outcome string, latency time.Duration)

type Client struct {
	config           Config
	http             *fasthttp.Client
	stats            *Stats
	circuitOpenUntil atomic.Int64
	observer         atomic.Pointer[Observer]

	Customers    *Resource[model.Customer, model.CustomerPatch, customerWire]
	Items        *Resource[model.Item, model.ItemPatch, itemWire]
	Transactions *TransactionResource
}

func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("base url is required")
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.MaxConns <= 0 {
		config.MaxConns = 4
	}
	if config.CircuitBreakerThreshold <= 0 {
		config.CircuitBreakerThreshold = 3
	}
	if config.CircuitBreakerTimeout <= 0 {
		config.CircuitBreakerTimeout = 30 * time.Second
	}

	c := &Client{
		config: config,
		http: &fasthttp.Client{
			MaxConnsPerHost:     config.MaxConns,
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
		stats: NewStats(),
	}
	c.Customers = &Resource[model.Customer, model.CustomerPatch, customerWire]{client: c, path: "/customers", toWire: toCustomerWire}
	// the mirror keeps deactivated items, so the list asks for all of them
	c.Items = &Resource[model.Item, model.ItemPatch, itemWire]{client: c, path: "/items", listQuery: "?all=true", toWire: toItemWire}
	c.Transactions = &TransactionResource{client: c, path: "/transactions"}

	logger.Info("Remote client initialized", "base_url", config.BaseURL, "timeout", config.Timeout)
	return c, nil
}

func (c *Client) SetObserver(o Observer) {
	c.observer.Store(&o)
}

func (c *Client) observe(method, outcome string, latency time.Duration) {
	if o := c.observer.Load(); o != nil && *o != nil {
		(*o)(method, outcome, latency)
	}
}

type request struct {
	method         string
	path           string
	body           any
	out            any
	idempotencyKey string
}

// retryable: reads, deletes and keyed creates can be sent twice safely.
func (r request) retryable() bool {
	switch r.method {
	case fasthttp.MethodGet, fasthttp.MethodDelete, fasthttp.MethodPut:
		return true
	case fasthttp.MethodPost:
		return r.idempotencyKey != ""
	}
	return false
}

func (c *Client) circuitOpen() bool {
	return time.Now().UnixNano() < c.circuitOpenUntil.Load()
}

func (c *Client) checkCircuitBreaker() {
	consecutiveFails := c.stats.ConsecutiveFails.Load()
	if consecutiveFails >= int32(c.config.CircuitBreakerThreshold) {
		c.circuitOpenUntil.Store(time.Now().Add(c.config.CircuitBreakerTimeout).UnixNano())
		logger.Warn("Circuit breaker opened", "consecutive_fails", consecutiveFails, "timeout", c.config.CircuitBreakerTimeout)
	}
}

func (c *Client) do(ctx context.Context, r request) error {
	if c.circuitOpen() {
		return unreachable(ErrCircuitOpen)
	}

	var body []byte
	if r.body != nil {
		var err error
		if body, err = json.Marshal(r.body); err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
	}

	attempts := 1
	if r.retryable() {
		attempts += c.config.MaxRetries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return unreachable(ctx.Err())
			case <-time.After(c.config.RetryDelay):
			}
		}

		start := time.Now()
		response, err := c.doRequest(ctx, r, body)
		latency := time.Since(start)

		if err != nil && IsUnreachable(err) {
			c.stats.RecordFailure()
			c.checkCircuitBreaker()
			c.observe(r.method, "unreachable", latency)
			logger.Debug("Remote request failed", "method", r.method, "path", r.path, "attempt", attempt+1, "error", err)
			lastErr = err
			if c.circuitOpen() {
				break
			}
			continue
		}

		rejected := err != nil
		c.stats.RecordSuccess(latency.Milliseconds(), rejected)
		if rejected {
			c.observe(r.method, "rejected", latency)
			return err
		}
		c.observe(r.method, "ok", latency)

		if r.out != nil && len(response) > 0 {
			if err := json.Unmarshal(response, r.out); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
		}
		return nil
	}
	return lastErr
}

// doRequest performs a single HTTP exchange.
func (c *Client) doRequest(ctx context.Context, r request, body []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, unreachable(err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + r.path)
	req.Header.SetMethod(r.method)
	req.Header.SetContentType("application/json")
	req.Header.Set("Accept", "application/json")
	if r.idempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, r.idempotencyKey)
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline := time.Now().Add(c.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		return nil, unreachable(err)
	}

	statusCode := resp.StatusCode()
	if statusCode < 200 || statusCode > 299 {
		return nil, &RejectedError{StatusCode: statusCode, Body: string(resp.Body())}
	}

	result := make([]byte, len(resp.Body()))
	copy(result, resp.Body())
	return result, nil
}

// Health probes the server, bypassing the circuit breaker. A healthy answer
// closes the breaker.
func (c *Client) Health(ctx context.Context) error {
	start := time.Now()
	response, err := c.doRequest(ctx, request{method: fasthttp.MethodGet, path: "/health"}, nil)
	if err != nil {
		if IsUnreachable(err) {
			c.stats.RecordFailure()
		}
		return err
	}
	c.stats.RecordSuccess(time.Since(start).Milliseconds(), false)
	c.circuitOpenUntil.Store(0)

	var health struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(response, &health); err != nil || health.Status != "healthy" {
		return &RejectedError{StatusCode: fasthttp.StatusServiceUnavailable, Body: string(response)}
	}
	return nil
}

func (c *Client) Stats() Snapshot {
	return Snapshot{
		TotalRequests:    c.stats.TotalRequests.Load(),
		SuccessfulReqs:   c.stats.SuccessfulReqs.Load(),
		RejectedReqs:     c.stats.RejectedReqs.Load(),
		FailedReqs:       c.stats.FailedReqs.Load(),
		Availability:     c.stats.Availability(),
		AvgLatencyMs:     c.stats.AvgLatencyMs(),
		P95LatencyMs:     c.stats.P95LatencyMs(),
		ConsecutiveFails: c.stats.ConsecutiveFails.Load(),
		CircuitOpen:      c.circuitOpen(),
	}
}

func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	logger.Info("Remote client closed")
	return nil
}
