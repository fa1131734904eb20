package weather

import (
	"context"
	"time"

	"github.com/i474232898/travel-context/internal/geo"
)

// Reading is a single provider's raw payload, already converted to metric units
// and WMO weather codes. Nil means the provider did not report the field.
type Reading struct {
	ProviderName string
	ObservedAt   time.Time

	TemperatureC *float64
	FeelsLikeC   *float64
	WeatherCode  *int
	IsDay        *bool
	HumidityPct  *float64
	WindKph      *float64
	VisibilityKm *float64
}

// Provider abstracts a weather data source (e.g. Open-Meteo, WeatherAPI, OpenWeatherMap).
type Provider interface {
	Name() string
	Fetch(ctx context.Context, coords geo.Coordinates) (Reading, error)
}
