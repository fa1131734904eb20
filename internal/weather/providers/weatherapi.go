package providers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/i474232898/travel-context/internal/common"
	"github.com/i474232898/travel-context/internal/geo"
	"github.com/i474232898/travel-context/internal/weather"
)

// WeatherAPIProvider reads current conditions from WeatherAPI.com.
type WeatherAPIProvider struct {
	endpoint
	apiKey string
}

func NewWeatherAPIProvider(client *http.Client, apiKey string) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		endpoint: newEndpoint("weatherapi", "https://api.weatherapi.com/v1/current.json", client),
		apiKey:   apiKey,
	}
}

func (p *WeatherAPIProvider) Fetch(ctx context.Context, coords geo.Coordinates) (weather.Reading, error) {
	if p.apiKey == "" {
		return weather.Reading{}, errors.New("weatherapi api key is not configured")
	}
	// "q" accepts "lat,lon".
	query := url.Values{
		"key": {p.apiKey},
		"q":   {coord(coords.Latitude) + "," + coord(coords.Longitude)},
	}

	var payload struct {
		Current struct {
			LastUpdatedEpoch int64    `json:"last_updated_epoch"`
			TempC            *float64 `json:"temp_c"`
			FeelsLikeC       *float64 `json:"feelslike_c"`
			Humidity         *float64 `json:"humidity"`
			WindKph          *float64 `json:"wind_kph"`
			VisKm            *float64 `json:"vis_km"`
			IsDay            *int     `json:"is_day"`
			Condition        struct {
				Text string `json:"text"`
				Code int    `json:"code"`
			} `json:"condition"`
		} `json:"current"`
	}

	if err := p.getJSON(ctx, query, &payload); err != nil {
		return weather.Reading{}, err
	}

	cur := payload.Current

	reading := weather.Reading{
		ProviderName: p.name,
		ObservedAt:   unixOrNow(cur.LastUpdatedEpoch),
		TemperatureC: cur.TempC,
		FeelsLikeC:   cur.FeelsLikeC,
		HumidityPct:  cur.Humidity,
		WindKph:      cur.WindKph,
		VisibilityKm: cur.VisKm,
	}
	if cur.IsDay != nil {
		reading.IsDay = ptr(*cur.IsDay == 1)
	}
	if code, ok := mapWeatherAPICondition(cur.Condition.Code, cur.Condition.Text); ok {
		reading.WeatherCode = ptr(code)
	}
	return reading, nil
}

// mapWeatherAPICondition converts a WeatherAPI condition code to the closest WMO
// code, falling back to the condition text for codes it does not know.
func mapWeatherAPICondition(code int, text string) (int, bool) {
	switch code {
	case 1000:
		return 0, true
	case 1003:
		return 2, true
	case 1006, 1009:
		return 3, true
	case 1030, 1135, 1147:
		return 45, true
	case 1063, 1180, 1183:
		return 61, true
	case 1150, 1153:
		return 51, true
	case 1168, 1171:
		return 56, true
	case 1186, 1189:
		return 63, true
	case 1192, 1195:
		return 65, true
	case 1198, 1201, 1069, 1072, 1204, 1207:
		return 66, true
	case 1240:
		return 80, true
	case 1243:
		return 81, true
	case 1246:
		return 82, true
	case 1066, 1210, 1213:
		return 71, true
	case 1216, 1219:
		return 73, true
	case 1114, 1117, 1222, 1225:
		return 75, true
	case 1237, 1261, 1264:
		return 77, true
	case 1249, 1252, 1255:
		return 85, true
	case 1258:
		return 86, true
	case 1087, 1273, 1276:
		return 95, true
	case 1279, 1282:
		return 96, true
	}

	t := strings.ToLower(text)
	switch {
	case t == "":
		return 0, false
	case common.HasAny(t, "thunder", "storm"):
		return 95, true
	case common.HasAny(t, "snow", "sleet", "blizzard", "ice"):
		return 71, true
	case common.HasAny(t, "rain", "shower", "drizzle"):
		return 61, true
	case common.HasAny(t, "fog", "mist"):
		return 45, true
	case common.HasAny(t, "overcast"):
		return 3, true
	case common.HasAny(t, "cloud"):
		return 2, true
	case common.HasAny(t, "sunny", "clear"):
		return 0, true
	default:
		return 0, false
	}
}
