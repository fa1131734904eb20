package weather

// Category is the semantic sky/precipitation class of a WMO weather code.
type Category string

const (
	CategoryClear    Category = "clear"
	CategoryCloudy   Category = "cloudy"
	CategoryOvercast Category = "overcast"
	CategoryFog      Category = "fog"
	CategoryRain     Category = "rain"
	CategorySnow     Category = "snow"
	CategoryStorm    Category = "storm"
)

// Label returns the display text for the category.
func (c Category) Label() string {
	switch c {
	case CategoryClear:
		return "Clear"
	case CategoryCloudy:
		return "Partly cloudy"
	case CategoryFog:
		return "Fog"
	case CategoryRain:
		return "Rain"
	case CategorySnow:
		return "Snow"
	case CategoryStorm:
		return "Thunderstorm"
	default:
		return "Overcast"
	}
}

// Classification pairs a category with the icon key the front end renders.
type Classification struct {
	Category Category `json:"category"`
	IconKey  string   `json:"iconKey"`
}

// Classify maps a WMO code to a category. It is total: codes outside the known
// bands are overcast. The day flag only changes the icon of the clear and
// partly-cloudy bands.
func Classify(code int, isDaytime bool) Classification {
	suffix := "-night"
	if isDaytime {
		suffix = "-day"
	}

	switch {
	case code == 0:
		return Classification{CategoryClear, "clear" + suffix}
	case code == 1:
		return Classification{CategoryClear, "mostly-clear" + suffix}
	case code == 2:
		return Classification{CategoryCloudy, "partly-cloudy" + suffix}
	case code == 3:
		return Classification{CategoryOvercast, "overcast"}
	case code == 45 || code == 48:
		return Classification{CategoryFog, "fog"}
	case code >= 51 && code <= 57:
		return Classification{CategoryRain, "drizzle"}
	case code >= 61 && code <= 67:
		return Classification{CategoryRain, "rain"}
	case code >= 80 && code <= 82:
		return Classification{CategoryRain, "showers"}
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return Classification{CategorySnow, "snow"}
	case code >= 95 && code <= 99:
		return Classification{CategoryStorm, "thunderstorm"}
	default:
		return Classification{CategoryOvercast, "overcast"}
	}
}

// IsPrecipitation reports whether the code describes any falling precipitation.
func IsPrecipitation(code int) bool {
	switch Classify(code, true).Category {
	case CategoryRain, CategorySnow, CategoryStorm:
		return true
	}
	return false
}

// IsClearSky reports whether the code is clear or mostly clear.
func IsClearSky(code int) bool {
	return code == 0 || code == 1
}
