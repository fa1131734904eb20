package providers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/travel-context/internal/geo"
	"github.com/i474232898/travel-context/internal/weather"
)

// OpenWeatherProvider reads current conditions from OpenWeatherMap and maps
// its condition ids onto WMO codes.
type OpenWeatherProvider struct {
	endpoint
	apiKey string
}

func NewOpenWeatherProvider(client *http.Client, apiKey string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		endpoint: newEndpoint("openweathermap", "https://api.openweathermap.org/data/2.5/weather", client),
		apiKey:   apiKey,
	}
}

func (p *OpenWeatherProvider) Fetch(ctx context.Context, coords geo.Coordinates) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, errors.New("openweather api key is not configured")
	}
	query := url.Values{
		"appid": {p.apiKey},
		"units": {"metric"},
		"lat":   {coord(coords.Latitude)},
		"lon":   {coord(coords.Longitude)},
	}

	var payload struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      *float64 `json:"temp"`
			FeelsLike *float64 `json:"feels_like"`
			Humidity  *float64 `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed *float64 `json:"speed"` // m/s
		} `json:"wind"`
		Visibility *float64 `json:"visibility"` // metres
		Weather    []struct {
			ID   int    `json:"id"`
			Main string `json:"main"`
			Icon string `json:"icon"`
		} `json:"weather"`
	}

	if err := p.getJSON(ctx, query, &payload); err != nil {
		return weather.Reading{}, err
	}

	reading := weather.Reading{
		ProviderName: p.name,
		ObservedAt:   unixOrNow(payload.Dt),
		TemperatureC: payload.Main.Temp,
		FeelsLikeC:   payload.Main.FeelsLike,
		HumidityPct:  payload.Main.Humidity,
	}
	if payload.Wind.Speed != nil {
		reading.WindKph = ptr(*payload.Wind.Speed * 3.6)
	}
	if payload.Visibility != nil {
		reading.VisibilityKm = ptr(*payload.Visibility / 1000)
	}
	if len(payload.Weather) > 0 {
		w := payload.Weather[0]
		reading.WeatherCode = ptr(mapOpenWeatherCondition(w.ID))
		// Icon codes end in "d" or "n", e.g. "10d".
		switch {
		case strings.HasSuffix(w.Icon, "d"):
			reading.IsDay = ptr(true)
		case strings.HasSuffix(w.Icon, "n"):
			reading.IsDay = ptr(false)
		}
	}
	return reading, nil
}

// mapOpenWeatherCondition converts an OpenWeatherMap condition id to a WMO code.
func mapOpenWeatherCondition(id int) int {
	switch {
	case id >= 200 && id < 300:
		return 95
	case id >= 300 && id < 400:
		return 53
	case id == 500:
		return 61
	case id == 501:
		return 63
	case id >= 502 && id <= 504:
		return 65
	case id == 511:
		return 66
	case id >= 520 && id < 600:
		return 80
	case id == 600:
		return 71
	case id == 601:
		return 73
	case id == 602:
		return 75
	case id >= 611 && id <= 616:
		return 77
	case id >= 620 && id < 700:
		return 85
	case id >= 700 && id < 800:
		return 45
	case id == 800:
		return 0
	case id == 801:
		return 1
	case id == 802:
		return 2
	default:
		return 3
	}
}
