package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/travel-context/internal/resilience"
	"github.com/i474232898/travel-context/internal/weather"
)

// endpoint is the HTTP plumbing every provider shares: one base URL behind
// its own breaker. A fetch is a single request; the next refresh is the retry.
type endpoint struct {
	name    string
	baseURL string
	httpCfg resilience.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

func newEndpoint(name, baseURL string, client *http.Client) endpoint {
	return endpoint{
		name:    name,
		baseURL: baseURL,
		httpCfg: resilience.HTTPClientConfig{Client: client, Backoff: resilience.NoRetry},
		circuit: resilience.NewBreaker(name),
	}
}

// Name identifies the provider in logs and snapshots.
func (e endpoint) Name() string {
	return e.name
}

// getJSON issues GET baseURL?query and decodes the body into out. Decode
// failures are reported as weather.ErrMalformedPayload.
func (e endpoint) getJSON(ctx context.Context, query url.Values, out any) error {
	resp, err := resilience.Get(ctx, e.httpCfg, e.circuit, e.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", weather.ErrMalformedPayload, err)
	}
	return nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// unixOrNow treats a zero epoch as "not reported".
func unixOrNow(sec int64) time.Time {
	if sec == 0 {
		return time.Now().UTC()
	}
	return time.Unix(sec, 0).UTC()
}

func ptr[T any](v T) *T {
	return &v
}
