package weather

import (
	"time"

	"github.com/i474232898/travel-context/internal/geo"
)

// Snapshot is the normalized current-weather view for one location. A new fetch
// replaces it wholesale; fields are never merged with an older snapshot.
type Snapshot struct {
	TemperatureC float64           `json:"temperatureC"`
	FeelsLikeC   float64           `json:"feelsLikeC"`
	WeatherCode  int               `json:"weatherCode"` // WMO code
	IsDaytime    bool              `json:"isDaytime"`
	HumidityPct  int               `json:"humidityPct"`
	WindKph      float64           `json:"windKph"`
	VisibilityKm float64           `json:"visibilityKm"`
	Location     geo.LocationLabel `json:"location"`
	FetchedAt    time.Time         `json:"fetchedAt"` // always UTC

	// Provider names the upstream that produced the reading.
	Provider string `json:"provider"`
}

// Named is a batch request entry.
type Named struct {
	Name        string          `json:"name"`
	Coordinates geo.Coordinates `json:"coordinates"`
}
