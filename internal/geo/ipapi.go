package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/travel-context/internal/resilience"
)

const defaultIPAPIURL = "http://ip-api.com/json/"

// IPAPILocator uses ip-api.com (free, no API key, 45 req/min).
type IPAPILocator struct {
	baseURL string
	httpCfg resilience.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewIPAPILocator creates a locator. An empty baseURL selects the public endpoint.
func NewIPAPILocator(client *http.Client, baseURL string) *IPAPILocator {
	if baseURL == "" {
		baseURL = defaultIPAPIURL
	}
	return &IPAPILocator{
		baseURL: baseURL,
		httpCfg: resilience.HTTPClientConfig{Client: client, Backoff: resilience.NoRetry},
		circuit: resilience.NewBreaker("ip-api"),
	}
}

type ipAPIResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Country string   `json:"country"`
	City    string   `json:"city"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// LocateByIP looks up the public IP of the calling host.
func (l *IPAPILocator) LocateByIP(ctx context.Context) (IPLocation, error) {
	u := strings.TrimRight(l.baseURL, "/") + "/?fields=status,message,country,city,lat,lon"

	resp, err := resilience.Get(ctx, l.httpCfg, l.circuit, u, nil)
	if err != nil {
		return IPLocation{}, fmt.Errorf("ip-api request: %w", err)
	}
	defer resp.Body.Close()

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return IPLocation{}, fmt.Errorf("parse ip-api response: %w", err)
	}

	if result.Status != "success" {
		return IPLocation{}, fmt.Errorf("ip-api lookup failed: %s", result.Message)
	}
	if result.Lat == nil || result.Lon == nil {
		return IPLocation{}, fmt.Errorf("ip-api response missing coordinates")
	}

	return IPLocation{
		Coordinates: Coordinates{Latitude: *result.Lat, Longitude: *result.Lon},
		City:        result.City,
		Country:     result.Country,
	}, nil
}
