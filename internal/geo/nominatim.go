package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sony/gobreaker"

	"github.com/i474232898/travel-context/internal/resilience"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org/reverse"

// NominatimGeocoder performs reverse lookups against OpenStreetMap Nominatim.
type NominatimGeocoder struct {
	baseURL   string
	userAgent string
	httpCfg   resilience.HTTPClientConfig
	circuit   *gobreaker.CircuitBreaker
}

// NewNominatimGeocoder creates a geocoder. Nominatim's usage policy requires an
// identifying User-Agent.
func NewNominatimGeocoder(client *http.Client, baseURL, userAgent string) *NominatimGeocoder {
	if baseURL == "" {
		baseURL = defaultNominatimURL
	}
	if userAgent == "" {
		userAgent = "travel-context/1.0"
	}
	return &NominatimGeocoder{
		baseURL:   baseURL,
		userAgent: userAgent,
		httpCfg:   resilience.HTTPClientConfig{Client: client, Backoff: resilience.NoRetry},
		circuit:   resilience.NewBreaker("nominatim"),
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
		State   string `json:"state"`
		Country string `json:"country"`
	} `json:"address"`
}

// ReverseGeocode returns the most specific settlement name available.
func (g *NominatimGeocoder) ReverseGeocode(ctx context.Context, c Coordinates) (string, error) {
	values := url.Values{}
	values.Set("format", "jsonv2")
	values.Set("lat", fmt.Sprintf("%f", c.Latitude))
	values.Set("lon", fmt.Sprintf("%f", c.Longitude))
	values.Set("zoom", "10")

	u := fmt.Sprintf("%s?%s", g.baseURL, values.Encode())
	resp, err := resilience.Get(ctx, g.httpCfg, g.circuit, u, map[string]string{"User-Agent": g.userAgent})
	if err != nil {
		return "", fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	var payload nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("parse nominatim response: %w", err)
	}
	if payload.Error != "" {
		return "", fmt.Errorf("%w: %s", ErrNoPlaceName, payload.Error)
	}

	a := payload.Address
	for _, name := range []string{a.City, a.Town, a.Village, a.County, a.State} {
		if name = strings.TrimSpace(name); name != "" {
			if a.Country != "" {
				return name + ", " + a.Country, nil
			}
			return name, nil
		}
	}
	if name := strings.TrimSpace(payload.DisplayName); name != "" {
		return name, nil
	}
	return "", ErrNoPlaceName
}
