// Package resilience wraps outbound HTTP calls to external providers with
// retry, timeout, and circuit breaker protection.
package resilience

import (
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker/v2"
)

// Predefined errors for resilient operations.
var (
	// ErrCircuitOpen is returned when the circuit breaker rejects the call.
	ErrCircuitOpen = errors.New("circuit breaker is open")
)

// ClientConfig holds configuration for the resilient HTTP client.
type ClientConfig struct {
	// Name identifies this client in circuit breaker state and ops output.
	Name string

	// Timeout is the per-attempt HTTP timeout. Default: 10s.
	Timeout time.Duration

	// MaxRetries is the number of retry attempts after the first call.
	// Default: 3.
	MaxRetries uint64

	// InitialInterval is the first retry backoff delay. Default: 200ms.
	InitialInterval time.Duration

	// MaxInterval caps the retry backoff delay. Default: 5s.
	MaxInterval time.Duration

	// BreakerTimeout is how long the breaker stays open before probing.
	// Default: 60s.
	BreakerTimeout time.Duration
}

// Client is an HTTP client that retries transient failures with exponential
// backoff and trips a circuit breaker on sustained errors.
type Client struct {
	name       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*http.Response]
	config     ClientConfig
}

// NewClient creates a resilient HTTP client. The breaker trips once at least
// five calls have been made and half of them failed.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialInterval == 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	if cfg.MaxInterval == 0 {
		cfg.MaxInterval = 5 * time.Second
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = 60 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && ratio >= 0.5
		},
	})

	return &Client{
		name:       cfg.Name,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    breaker,
		config:     cfg,
	}
}

// Do executes the request, retrying network errors and 5xx responses with
// exponential backoff. It returns ErrCircuitOpen without calling the server
// when the breaker is open. The caller owns the response body.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.config.InitialInterval
	bo.MaxInterval = c.config.MaxInterval
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, c.config.MaxRetries), ctx)

	var lastResp *http.Response

	operation := func() error {
		resp, err := c.breaker.Execute(func() (*http.Response, error) { //nolint:bodyclose // caller closes
			r, err := c.httpClient.Do(req.Clone(ctx))
			if err != nil {
				return nil, err
			}
			// 5xx responses count as breaker failures and are retried.
			if r.StatusCode >= 500 {
				return r, &serverError{status: r.StatusCode}
			}
			return r, nil
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(ErrCircuitOpen)
			}
			if resp != nil {
				lastResp = resp
			}
			return err
		}
		lastResp = resp
		return nil
	}

	if err := backoff.Retry(operation, policy); err != nil {
		if lastResp != nil {
			return lastResp, nil
		}
		return nil, err
	}
	return lastResp, nil
}

type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return "server error: " + http.StatusText(e.status)
}

// Health is a point-in-time view of the client's breaker, exposed by the ops
// status endpoint.
type Health struct {
	Name         string `json:"name"`
	State        string `json:"state"`
	Requests     uint32 `json:"requests"`
	Failures     uint32 `json:"failures"`
	ConsecutiveF uint32 `json:"consecutive_failures"`
}

// Healthy reports whether the breaker is closed.
func (h Health) Healthy() bool {
	return h.State == gobreaker.StateClosed.String()
}

// Health returns the current breaker health for this client.
func (c *Client) Health() Health {
	counts := c.breaker.Counts()
	return Health{
		Name:         c.name,
		State:        c.breaker.State().String(),
		Requests:     counts.Requests,
		Failures:     counts.TotalFailures,
		ConsecutiveF: counts.ConsecutiveFailures,
	}
}
