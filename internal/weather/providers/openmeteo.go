package providers

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/travel-context/internal/geo"
	"github.com/i474232898/travel-context/internal/weather"
)

// OpenMeteoProvider reads current conditions from Open-Meteo, which reports
// WMO codes natively and needs no API key.
type OpenMeteoProvider struct {
	endpoint
}

func NewOpenMeteoProvider(client *http.Client) *OpenMeteoProvider {
	return &OpenMeteoProvider{newEndpoint("openmeteo", "https://api.open-meteo.com/v1/forecast", client)}
}

const openMeteoCurrent = "temperature_2m,apparent_temperature,relative_humidity_2m,is_day,weather_code,wind_speed_10m,visibility"

func (p *OpenMeteoProvider) Fetch(ctx context.Context, coords geo.Coordinates) (weather.Reading, error) {
	query := url.Values{
		"latitude":        {coord(coords.Latitude)},
		"longitude":       {coord(coords.Longitude)},
		"current":         {openMeteoCurrent},
		"wind_speed_unit": {"kmh"},
		"timezone":        {"GMT"},
	}

	var payload struct {
		Current struct {
			Time                string   `json:"time"`
			Temperature         *float64 `json:"temperature_2m"`
			ApparentTemperature *float64 `json:"apparent_temperature"`
			RelativeHumidity    *float64 `json:"relative_humidity_2m"`
			IsDay               *int     `json:"is_day"`
			WeatherCode         *int     `json:"weather_code"`
			WindSpeed           *float64 `json:"wind_speed_10m"`
			Visibility          *float64 `json:"visibility"` // metres
		} `json:"current"`
	}

	if err := p.getJSON(ctx, query, &payload); err != nil {
		return weather.Reading{}, err
	}

	cur := payload.Current
	ts, err := time.Parse("2006-01-02T15:04", cur.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	reading := weather.Reading{
		ProviderName: p.name,
		ObservedAt:   ts.UTC(),
		TemperatureC: cur.Temperature,
		FeelsLikeC:   cur.ApparentTemperature,
		WeatherCode:  cur.WeatherCode,
		HumidityPct:  cur.RelativeHumidity,
		WindKph:      cur.WindSpeed,
	}
	if cur.IsDay != nil {
		reading.IsDay = ptr(*cur.IsDay == 1)
	}
	if cur.Visibility != nil {
		reading.VisibilityKm = ptr(*cur.Visibility / 1000)
	}
	return reading, nil
}
