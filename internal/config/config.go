package config

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/travel-context/internal/geo"
	"github.com/i474232898/travel-context/internal/news"
)

var validate = validator.New()

// LocationConfig is a named coordinate pair from the environment or YAML file.
type LocationConfig struct {
	Name string  `yaml:"name" validate:"required"`
	Lat  float64 `yaml:"lat" validate:"latitude"`
	Lon  float64 `yaml:"lon" validate:"longitude"`
}

// Label converts the location into a fallback-tier label.
func (l LocationConfig) Label() geo.LocationLabel {
	return geo.LocationLabel{
		DisplayName: l.Name,
		Source:      geo.SourceFallback,
		Coordinates: geo.Coordinates{Latitude: l.Lat, Longitude: l.Lon},
	}
}

// AppConfig is the resolved service configuration.
type AppConfig struct {
	Port string `validate:"required,numeric"`

	// RefreshInterval controls how often the context is refreshed.
	RefreshInterval time.Duration `validate:"gt=0"`
	HTTPTimeout     time.Duration `validate:"gt=0"`
	DeviceTimeout   time.Duration `validate:"gt=0"`
	SourceTimeout   time.Duration `validate:"gt=0"`

	WeatherProviders     []string `validate:"min=1,dive,oneof=openmeteo weatherapi openweather"`
	OpenWeatherAPIKey    string
	WeatherAPIKey        string
	GoogleGeocoderAPIKey string
	NominatimUserAgent   string `validate:"required"`

	FeedBridge       string `validate:"oneof=gofeed rss2json"`
	RSS2JSONAPIKey   string
	FallbackImageURL string            `validate:"omitempty,url"`
	Feeds            []news.FeedSource `validate:"min=1,dive"`
	Fallback         LocationConfig
	BatchLocations   []LocationConfig `validate:"max=20,dive"`

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
}

// fileConfig is the optional YAML file named by TRAVEL_CONFIG.
type fileConfig struct {
	Fallback *LocationConfig   `yaml:"fallback"`
	Feeds    []news.FeedSource `yaml:"feeds"`
	Batch    []LocationConfig  `yaml:"batch"`
}

// DefaultFeeds are tried in order when no YAML file overrides them.
var DefaultFeeds = []news.FeedSource{
	{Name: "The Kathmandu Post", URL: "https://kathmandupost.com/rss"},
	{Name: "Nepali Times", URL: "https://nepalitimes.com/feed"},
	{Name: "Lonely Planet", URL: "https://www.lonelyplanet.com/news/feed/atom/"},
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	var err error
	cfg.Port = getenvDefault("PORT", "8080")
	if cfg.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.DeviceTimeout, err = getenvDuration("DEVICE_TIMEOUT", 6*time.Second); err != nil {
		return nil, err
	}
	if cfg.SourceTimeout, err = getenvDuration("SOURCE_TIMEOUT", 8*time.Second); err != nil {
		return nil, err
	}

	cfg.WeatherProviders = splitList(getenvDefault("WEATHER_PROVIDERS", "openmeteo"))
	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.WeatherAPIKey = os.Getenv("WEATHERAPI_API_KEY")
	cfg.GoogleGeocoderAPIKey = os.Getenv("GOOGLE_GEOCODER_API_KEY")
	cfg.NominatimUserAgent = getenvDefault("NOMINATIM_USER_AGENT", "travel-context/1.0")

	cfg.FeedBridge = strings.ToLower(getenvDefault("FEED_BRIDGE", "gofeed"))
	cfg.RSS2JSONAPIKey = os.Getenv("RSS2JSON_API_KEY")
	cfg.FallbackImageURL = os.Getenv("FALLBACK_IMAGE_URL")
	cfg.Feeds = append([]news.FeedSource(nil), DefaultFeeds...)

	cfg.Fallback = LocationConfig{
		Name: getenvDefault("FALLBACK_CITY", geo.DefaultLocation.DisplayName),
		Lat:  getenvFloat("FALLBACK_LAT", geo.DefaultLocation.Coordinates.Latitude),
		Lon:  getenvFloat("FALLBACK_LON", geo.DefaultLocation.Coordinates.Longitude),
	}

	cfg.LogLevel = strings.ToLower(getenvDefault("LOG_LEVEL", "info"))
	cfg.LogFormat = strings.ToLower(getenvDefault("LOG_FORMAT", "text"))

	if path := os.Getenv("TRAVEL_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and provider API keys.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if slices.Contains(c.WeatherProviders, "weatherapi") && c.WeatherAPIKey == "" {
		return errors.New("invalid config: WEATHERAPI_API_KEY is required for the weatherapi provider")
	}
	if slices.Contains(c.WeatherProviders, "openweather") && c.OpenWeatherAPIKey == "" {
		return errors.New("invalid config: OPENWEATHER_API_KEY is required for the openweather provider")
	}
	return nil
}

func (c *AppConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Fallback != nil {
		c.Fallback = *fc.Fallback
	}
	if len(fc.Feeds) > 0 {
		c.Feeds = fc.Feeds
	}
	if len(fc.Batch) > 0 {
		c.BatchLocations = fc.Batch
	}
	return nil
}

// NewLogger builds the process logger from LogLevel and LogFormat.
func (c *AppConfig) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(c.LogLevel)}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
