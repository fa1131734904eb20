package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/i474232898/travel-context/internal/config"
	"github.com/i474232898/travel-context/internal/geo"
	"github.com/i474232898/travel-context/internal/news"
	"github.com/i474232898/travel-context/internal/store"
	"github.com/i474232898/travel-context/internal/suggest"
	"github.com/i474232898/travel-context/internal/weather"
	"github.com/i474232898/travel-context/internal/weather/providers"
)

// components is everything the commands need, built once from config.
type components struct {
	cfg     *config.AppConfig
	logger  *slog.Logger
	geo     *geo.Service
	weather *weather.Service
	engine  *suggest.Engine
	store   *store.MemoryStore
	news    *news.Panel
}

func build(cfg *config.AppConfig, logger *slog.Logger) (*components, error) {
	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	provs, err := weatherProviders(cfg, httpClient)
	if err != nil {
		return nil, err
	}

	names := geo.NewChainGeocoder(logger)
	if cfg.GoogleGeocoderAPIKey != "" {
		names.Add("google", geo.NewGoogleGeocoder(cfg.GoogleGeocoderAPIKey))
	}
	names.Add("nominatim", geo.NewNominatimGeocoder(httpClient, "", cfg.NominatimUserAgent))

	fallback := cfg.Fallback.Label()
	geoSvc := geo.NewService(geo.NoPosition, names, geo.NewIPAPILocator(httpClient, ""), geo.Options{
		DeviceTimeout: cfg.DeviceTimeout,
		IPTimeout:     cfg.SourceTimeout,
		Fallback:      &fallback,
		Logger:        logger,
	})

	var bridge news.Bridge
	switch cfg.FeedBridge {
	case "rss2json":
		bridge = news.NewRSS2JSONBridge(httpClient, "", cfg.RSS2JSONAPIKey)
	default:
		bridge = news.NewGofeedBridge(httpClient)
	}
	resolver := news.NewResolver(cfg.Feeds, bridge, cfg.FallbackImageURL, cfg.SourceTimeout, logger)

	return &components{
		cfg:     cfg,
		logger:  logger,
		geo:     geoSvc,
		weather: weather.NewService(provs, weather.WithTimeout(cfg.SourceTimeout), weather.WithLogger(logger)),
		engine:  suggest.NewEngine(),
		store:   store.NewMemoryStore(),
		news:    news.NewPanel(resolver),
	}, nil
}

// weatherProviders builds the provider cascade in configured order.
func weatherProviders(cfg *config.AppConfig, client *http.Client) ([]weather.Provider, error) {
	provs := make([]weather.Provider, 0, len(cfg.WeatherProviders))
	for _, name := range cfg.WeatherProviders {
		switch name {
		case "openmeteo":
			provs = append(provs, providers.NewOpenMeteoProvider(client))
		case "weatherapi":
			provs = append(provs, providers.NewWeatherAPIProvider(client, cfg.WeatherAPIKey))
		case "openweather":
			provs = append(provs, providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey))
		default:
			return nil, fmt.Errorf("unknown weather provider %q", name)
		}
	}
	return provs, nil
}
