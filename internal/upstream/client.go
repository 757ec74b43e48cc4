package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/i474232898/energy-data-aggregation/internal/metrics"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff retries once after 200ms.
var DefaultBackoff = BackoffConfig{
	MaxRetries:      1,
	InitialInterval: 200 * time.Millisecond,
	MaxInterval:     2 * time.Second,
}

// MaxBodyBytes caps how much of a response body Fetch reads.
const MaxBodyBytes = 8 << 20

var (
	ErrBodyTooLarge  = errors.New("response body too large")
	ErrRateLimited   = errors.New("rate limited")
	ErrServerError   = errors.New("server error")
	ErrUnexpected    = errors.New("unexpected status code")
	ErrCircuitOpen   = errors.New("circuit breaker open")
	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// Error reports a failed call to an external data source.
type Error struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// statusError carries the status code through the circuit breaker.
type statusError struct {
	code int
	err  error
}

func (e *statusError) Error() string { return fmt.Sprintf("%v: %d", e.err, e.code) }
func (e *statusError) Unwrap() error { return e.err }

// Client performs outbound requests for one provider with retries,
// exponential backoff and a circuit breaker.
type Client struct {
	name    string
	http    *http.Client
	backoff BackoffConfig
	breaker *gobreaker.CircuitBreaker
	maxBody int64
	log     *zap.Logger
}

// New creates a Client named after the provider it talks to.
func New(name string, httpClient *http.Client, backoff BackoffConfig, log *zap.Logger) *Client {
	log = log.Named("upstream").With(zap.String("provider", name))
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		name:    name,
		http:    httpClient,
		backoff: backoff,
		breaker: cb,
		maxBody: MaxBodyBytes,
		log:     log,
	}
}

// Name returns the provider name.
func (c *Client) Name() string { return c.name }

// Fetch runs the request and returns the full response body.
// buildRequest is called once per attempt.
func (c *Client) Fetch(ctx context.Context, buildRequest func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	start := time.Now()
	body, err := c.fetch(ctx, buildRequest)
	metrics.UpstreamLatency.WithLabelValues(c.name).Observe(time.Since(start).Seconds())
	metrics.UpstreamRequestsTotal.WithLabelValues(c.name, metrics.Result(err)).Inc()
	if err != nil {
		c.log.Warn("upstream request failed", zap.Error(err))
		return nil, err
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, buildRequest func(ctx context.Context) (*http.Request, error)) ([]byte, error) {
	if c.http == nil {
		return nil, &Error{Provider: c.name, Err: errNoHTTPClient}
	}
	if c.backoff.MaxRetries < 0 || c.backoff.InitialInterval <= 0 {
		return nil, &Error{Provider: c.name, Err: errInvalidConfig}
	}

	var attempt int
	for {
		if err := ctx.Err(); err != nil {
			return nil, &Error{Provider: c.name, Err: err}
		}

		req, err := buildRequest(ctx)
		if err != nil {
			return nil, fmt.Errorf("%s: building request: %w", c.name, err)
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			resp, execErr := c.http.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusTooManyRequests:
				return nil, &statusError{code: resp.StatusCode, err: ErrRateLimited}
			case resp.StatusCode >= 500:
				return nil, &statusError{code: resp.StatusCode, err: ErrServerError}
			case resp.StatusCode < 200 || resp.StatusCode >= 300:
				return nil, &statusError{code: resp.StatusCode, err: ErrUnexpected}
			}
			return c.readBody(resp.Body)
		})
		if err == nil {
			body, ok := result.([]byte)
			if !ok {
				return nil, &Error{Provider: c.name, Err: fmt.Errorf("unexpected result type %T", result)}
			}
			return body, nil
		}

		if errors.Is(err, ErrBodyTooLarge) {
			return nil, &Error{Provider: c.name, Err: err}
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &Error{Provider: c.name, Err: fmt.Errorf("%w: %v", ErrCircuitOpen, err)}
		}

		upErr := &Error{Provider: c.name, Err: err}
		var se *statusError
		if errors.As(err, &se) {
			upErr.StatusCode = se.code
			upErr.Err = se.err
			// Client errors will not change on retry.
			if errors.Is(se.err, ErrUnexpected) {
				return nil, upErr
			}
		}

		if attempt >= c.backoff.MaxRetries {
			return nil, upErr
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.backoff.MaxInterval && c.backoff.MaxInterval > 0 {
			delay = c.backoff.MaxInterval
		}
		c.log.Debug("retrying upstream request", zap.Int("attempt", attempt+1), zap.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &Error{Provider: c.name, Err: ctx.Err()}
		case <-timer.C:
		}

		attempt++
	}
}

// readBody reads at most maxBody bytes and fails if the body is longer.
func (c *Client) readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, c.maxBody+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: over %d bytes", ErrBodyTooLarge, c.maxBody)
	}
	return body, nil
}
