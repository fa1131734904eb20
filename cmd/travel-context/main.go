// travel-context serves location, weather, suggestion and news context for a
// travel companion front end.
//
// Usage:
//
//	travel-context serve              # HTTP API + refresh scheduler
//	travel-context locate             # resolve the current location
//	travel-context weather --batch    # weather for the configured batch locations
//	travel-context suggest            # one suggestion for the current context
//	travel-context news               # resolve the news panel once
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/travel-context/internal/api/http"
	"github.com/i474232898/travel-context/internal/config"
	"github.com/i474232898/travel-context/internal/geo"
	"github.com/i474232898/travel-context/internal/scheduler"
	"github.com/i474232898/travel-context/internal/weather"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "travel-context",
		Short:        "Location, weather, suggestion and news context for travellers",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(locateCmd())
	rootCmd.AddCommand(weatherCmd())
	rootCmd.AddCommand(suggestCmd())
	rootCmd.AddCommand(newsCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads config and builds the components shared by every command.
func setup() (*components, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := cfg.NewLogger(os.Stderr)
	slog.SetDefault(log)
	return build(cfg, log)
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the refresh scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), c)
		},
	}
}

func serve(parent context.Context, c *components) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Scheduler that periodically refreshes the environmental context.
	sched := scheduler.New(c.geo, c.weather, c.engine, c.store, c.cfg.RefreshInterval, c.logger)
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "travel-context",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          30 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(fc *fiber.Ctx) error {
		return fc.JSON(fiber.Map{
			"status":  "ok",
			"service": "travel-context",
			"loading": sched.IsLoading(),
		})
	})

	httpapi.RegisterRoutes(app, httpapi.Services{
		Geo:       c.geo,
		Weather:   c.weather,
		Suggest:   c.engine,
		Scheduler: sched,
		News:      c.news,
	})

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("http: listening", "port", c.cfg.Port)
		errCh <- app.Listen(":" + c.cfg.Port)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("fiber server stopped: %w", err)
		}
	}

	c.logger.Info("http: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		c.logger.Error("error during shutdown", "error", err)
	}
	return nil
}

// coordFlags registers --lat/--lon, the coordinates a device would report.
func coordFlags(cmd *cobra.Command, lat, lon *float64) {
	cmd.Flags().Float64Var(lat, "lat", 0, "device latitude")
	cmd.Flags().Float64Var(lon, "lon", 0, "device longitude")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
}

func positioner(cmd *cobra.Command, lat, lon float64) geo.Positioner {
	if cmd.Flags().Changed("lat") {
		return geo.NewReportedPosition(lat, lon)
	}
	return geo.NoPosition
}

func locateCmd() *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Resolve the current location through device, IP and fallback",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup()
			if err != nil {
				return err
			}
			return printJSON(c.geo.ResolveLocationFrom(cmd.Context(), positioner(cmd, lat, lon)))
		},
	}
	coordFlags(cmd, &lat, &lon)
	return cmd
}

func weatherCmd() *cobra.Command {
	var lat, lon float64
	var batch bool
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Fetch current weather for the current location or the batch list",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup()
			if err != nil {
				return err
			}

			if batch {
				named := make([]weather.Named, 0, len(c.cfg.BatchLocations))
				for _, l := range c.cfg.BatchLocations {
					named = append(named, weather.Named{Name: l.Name, Coordinates: geo.Coordinates{Latitude: l.Lat, Longitude: l.Lon}})
				}
				if len(named) == 0 {
					return errors.New("no batch locations configured; set batch in TRAVEL_CONFIG")
				}
				return printJSON(c.weather.FetchBatch(cmd.Context(), named))
			}

			loc := c.geo.ResolveLocationFrom(cmd.Context(), positioner(cmd, lat, lon))
			snap, err := c.weather.FetchCurrent(cmd.Context(), loc)
			if err != nil {
				return err
			}
			return printJSON(fiber.Map{
				"snapshot":       snap,
				"classification": weather.Classify(snap.WeatherCode, snap.IsDaytime),
			})
		},
	}
	coordFlags(cmd, &lat, &lon)
	cmd.Flags().BoolVar(&batch, "batch", false, "fetch the configured batch locations")
	cmd.MarkFlagsMutuallyExclusive("batch", "lat")
	return cmd
}

func suggestCmd() *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Produce one activity suggestion for the current context",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup()
			if err != nil {
				return err
			}

			loc := c.geo.ResolveLocationFrom(cmd.Context(), positioner(cmd, lat, lon))
			snap, err := c.weather.FetchCurrent(cmd.Context(), loc)
			if err != nil {
				return err
			}
			res := c.engine.Suggest(snap)
			fmt.Printf("%s (%s, %s)\n", res.Text, loc.DisplayName, weather.Classify(snap.WeatherCode, snap.IsDaytime).Category.Label())
			return nil
		},
	}
	coordFlags(cmd, &lat, &lon)
	return cmd
}

func newsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "news",
		Short: "Resolve the news panel once",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := setup()
			if err != nil {
				return err
			}
			state := c.news.Load(cmd.Context())
			if state.Unavailable {
				return errors.New("news unavailable: every feed source failed")
			}
			return printJSON(state)
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
