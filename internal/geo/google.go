package geo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
	"github.com/sony/gobreaker"

	"github.com/i474232898/travel-context/internal/resilience"
)

// geocoder keeps its key in a package variable.
var googleKeyMu sync.Mutex

// GoogleGeocoder performs reverse lookups through the Google Geocoding API.
type GoogleGeocoder struct {
	apiKey  string
	circuit *gobreaker.CircuitBreaker
	lookup  func(geocoder.Location) ([]geocoder.Address, error)
}

// NewGoogleGeocoder creates a geocoder for the given API key.
func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey:  apiKey,
		circuit: resilience.NewBreaker("google-geocoder"),
		lookup:  geocoder.GeocodingReverse,
	}
}

// ReverseGeocode returns "City, Country" for the first matching address.
func (g *GoogleGeocoder) ReverseGeocode(ctx context.Context, c Coordinates) (string, error) {
	if g.apiKey == "" {
		return "", fmt.Errorf("google geocoder api key is not configured")
	}

	type result struct {
		name string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		name, err := resilience.Execute(g.circuit, func() (string, error) {
			googleKeyMu.Lock()
			geocoder.ApiKey = g.apiKey
			addresses, err := g.lookup(geocoder.Location{Latitude: c.Latitude, Longitude: c.Longitude})
			googleKeyMu.Unlock()
			if err != nil {
				return "", err
			}
			return placeName(addresses)
		})
		done <- result{name: name, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		if r.err != nil {
			return "", fmt.Errorf("google reverse geocode: %w", r.err)
		}
		return r.name, nil
	}
}

func placeName(addresses []geocoder.Address) (string, error) {
	for _, a := range addresses {
		city := strings.TrimSpace(a.City)
		if city == "" {
			continue
		}
		if country := strings.TrimSpace(a.Country); country != "" {
			return city + ", " + country, nil
		}
		return city, nil
	}
	for _, a := range addresses {
		if name := strings.TrimSpace(a.FormattedAddress); name != "" {
			return name, nil
		}
	}
	return "", ErrNoPlaceName
}
