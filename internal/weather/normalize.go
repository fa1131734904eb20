package weather

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/i474232898/travel-context/internal/geo"
)

// ErrMalformedPayload marks a reading that arrived but cannot be normalized.
var ErrMalformedPayload = errors.New("malformed weather payload")

// Normalize turns a provider reading into a Snapshot for loc.
// Temperature, weather code and the day flag are required. Feels-like defaults
// to the temperature; humidity, wind and visibility default to 0.
func Normalize(r Reading, loc geo.LocationLabel, fetchedAt time.Time) (Snapshot, error) {
	switch {
	case r.TemperatureC == nil:
		return Snapshot{}, fmt.Errorf("%w: %s: missing temperature", ErrMalformedPayload, r.ProviderName)
	case r.WeatherCode == nil:
		return Snapshot{}, fmt.Errorf("%w: %s: missing weather code", ErrMalformedPayload, r.ProviderName)
	case r.IsDay == nil:
		return Snapshot{}, fmt.Errorf("%w: %s: missing day flag", ErrMalformedPayload, r.ProviderName)
	}

	temp := *r.TemperatureC
	if math.IsNaN(temp) || math.IsInf(temp, 0) {
		return Snapshot{}, fmt.Errorf("%w: %s: temperature is not a number", ErrMalformedPayload, r.ProviderName)
	}

	return Snapshot{
		TemperatureC: temp,
		FeelsLikeC:   valueOr(r.FeelsLikeC, temp),
		WeatherCode:  *r.WeatherCode,
		IsDaytime:    *r.IsDay,
		HumidityPct:  int(math.Round(valueOr(r.HumidityPct, 0))),
		WindKph:      valueOr(r.WindKph, 0),
		VisibilityKm: valueOr(r.VisibilityKm, 0),
		Location:     loc,
		FetchedAt:    fetchedAt.UTC(),
		Provider:     r.ProviderName,
	}, nil
}

func valueOr(v *float64, def float64) float64 {
	if v == nil || math.IsNaN(*v) {
		return def
	}
	return *v
}
