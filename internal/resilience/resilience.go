// Package resilience wraps outbound HTTP calls with a circuit breaker and
// optional exponential backoff.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

// BackoffConfig controls exponential backoff behaviour.
// MaxRetries of 0 means a single attempt.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
}

var (
	ErrRateLimited = errors.New("rate limited")
	ErrServerError = errors.New("server error")
	ErrUnexpected  = errors.New("unexpected status code")
	ErrCircuitOpen = errors.New("circuit breaker open")

	errNoHTTPClient  = errors.New("http client not configured")
	errInvalidConfig = errors.New("invalid backoff configuration")
)

// NoRetry makes a single attempt. Cascade sources use it: retrying is the
// caller's job there.
var NoRetry = BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond}

// NewBreaker returns the circuit breaker settings shared by every upstream.
func NewBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
}

// Execute runs fn through the circuit breaker and normalises breaker rejections
// to ErrCircuitOpen. Use it for calls that do not go through Do, e.g. library
// clients that own their request.
func Execute[T any](cb *gobreaker.CircuitBreaker, fn func() (T, error)) (T, error) {
	var zero T
	if cb == nil {
		return fn()
	}
	result, err := cb.Execute(func() (interface{}, error) {
		return fn()
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		return zero, err
	}
	v, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return v, nil
}

// Do sends the request built by buildRequest until it succeeds, the retry
// budget runs out, or the breaker opens. A fresh request is built per attempt.
// The caller owns closing the response body.
func Do(
	ctx context.Context,
	cfg HTTPClientConfig,
	cb *gobreaker.CircuitBreaker,
	buildRequest func() (*http.Request, error),
) (*http.Response, error) {
	if cfg.Client == nil {
		return nil, errNoHTTPClient
	}
	if cfg.Backoff.MaxRetries < 0 || cfg.Backoff.InitialInterval <= 0 {
		return nil, errInvalidConfig
	}

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := buildRequest()
		if err != nil {
			return nil, err
		}
		req = req.WithContext(ctx)

		var retryAfter time.Duration
		resp, err := Execute(cb, func() (*http.Response, error) {
			resp, err := cfg.Client.Do(req)
			if err != nil {
				return nil, err
			}
			if err := classify(resp); err != nil {
				retryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
				resp.Body.Close()
				return nil, err
			}
			return resp, nil
		})
		switch {
		case err == nil:
			return resp, nil
		case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrUnexpected):
			return nil, err
		case attempt >= cfg.Backoff.MaxRetries:
			return nil, err
		}

		delay := cfg.Backoff.Delay(attempt)
		if retryAfter > delay {
			delay = min(retryAfter, cfg.Backoff.ceiling())
		}
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// Delay is the wait before retry number attempt+1: InitialInterval doubled per
// attempt, capped at MaxInterval when set.
func (b BackoffConfig) Delay(attempt int) time.Duration {
	d := b.InitialInterval << min(attempt, 30)
	if c := b.ceiling(); d > c || d <= 0 {
		return c
	}
	return d
}

func (b BackoffConfig) ceiling() time.Duration {
	if b.MaxInterval > 0 {
		return b.MaxInterval
	}
	return time.Duration(math.MaxInt64)
}

// classify maps a response status onto the package errors. 429 and 5xx are
// retryable; any other non-2xx is not.
func classify(resp *http.Response) error {
	switch code := resp.StatusCode; {
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code >= 500:
		return fmt.Errorf("%w: %d", ErrServerError, code)
	case code < 200 || code >= 300:
		return fmt.Errorf("%w: %d", ErrUnexpected, code)
	}
	return nil
}

// parseRetryAfter understands the delta-seconds form only.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Get is a convenience for a plain GET with the given headers.
func Get(ctx context.Context, cfg HTTPClientConfig, cb *gobreaker.CircuitBreaker, url string, headers map[string]string) (*http.Response, error) {
	return Do(ctx, cfg, cb, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
}
