package httpapi

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/travel-context/internal/geo"
	"github.com/i474232898/travel-context/internal/news"
	"github.com/i474232898/travel-context/internal/scheduler"
	"github.com/i474232898/travel-context/internal/suggest"
	"github.com/i474232898/travel-context/internal/weather"
)

var validate = validator.New()

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// Services are the components the HTTP surface reads from.
type Services struct {
	Geo       *geo.Service
	Weather   *weather.Service
	Suggest   *suggest.Engine
	Scheduler *scheduler.RefreshScheduler
	News      *news.Panel
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Services) {
	v1 := app.Group("/api/v1")

	v1.Get("/location", func(c *fiber.Ctx) error {
		q, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(svc.Geo.ResolveLocationFrom(c.UserContext(), q.positioner()))
	})

	v1.Get("/weather/current", func(c *fiber.Ctx) error {
		q, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := svc.Geo.ResolveLocationFrom(c.UserContext(), q.positioner())
		snapshot, err := svc.Weather.FetchCurrent(c.UserContext(), loc)
		if err != nil {
			return weatherError(err)
		}
		return c.JSON(currentResponse{
			Snapshot:       snapshot,
			Classification: weather.Classify(snapshot.WeatherCode, snapshot.IsDaytime),
		})
	})

	v1.Post("/weather/batch", func(c *fiber.Ctx) error {
		var req batchRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		named := make([]weather.Named, 0, len(req.Locations))
		for _, l := range req.Locations {
			named = append(named, weather.Named{
				Name:        l.Name,
				Coordinates: geo.Coordinates{Latitude: *l.Lat, Longitude: *l.Lon},
			})
		}

		snapshots := svc.Weather.FetchBatch(c.UserContext(), named)
		return c.JSON(fiber.Map{
			"requested": len(named),
			"snapshots": snapshots,
		})
	})

	v1.Get("/suggestion", func(c *fiber.Ctx) error {
		q, err := parseCoordQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := svc.Geo.ResolveLocationFrom(c.UserContext(), q.positioner())
		snapshot, err := svc.Weather.FetchCurrent(c.UserContext(), loc)
		if err != nil {
			return weatherError(err)
		}
		return c.JSON(fiber.Map{
			"location":       loc,
			"classification": weather.Classify(snapshot.WeatherCode, snapshot.IsDaytime),
			"suggestion":     svc.Suggest.Suggest(snapshot),
		})
	})

	v1.Get("/context", func(c *fiber.Ctx) error {
		return c.JSON(svc.Scheduler.State())
	})

	v1.Get("/news", func(c *fiber.Ctx) error {
		return c.JSON(svc.News.Load(c.UserContext()))
	})

	v1.Post("/news/retry", func(c *fiber.Ctx) error {
		return c.JSON(svc.News.Retry(c.UserContext()))
	})
}

type currentResponse struct {
	Snapshot       weather.Snapshot       `json:"snapshot"`
	Classification weather.Classification `json:"classification"`
}

func weatherError(err error) error {
	if errors.Is(err, weather.ErrUnavailable) {
		return fiber.NewError(fiber.StatusServiceUnavailable, "Unavailable")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch weather data")
}

// coordQuery holds the optional device coordinates a client shared. Both or
// neither must be present.
type coordQuery struct {
	Lat *float64 `validate:"required_with=Lon,omitempty,latitude"`
	Lon *float64 `validate:"required_with=Lat,omitempty,longitude"`
}

func (q coordQuery) positioner() geo.Positioner {
	if q.Lat == nil || q.Lon == nil {
		return geo.NoPosition
	}
	return geo.NewReportedPosition(*q.Lat, *q.Lon)
}

func parseCoordQuery(c *fiber.Ctx) (coordQuery, error) {
	var q coordQuery

	lat, err := optionalFloat(c, "lat")
	if err != nil {
		return q, err
	}
	lon, err := optionalFloat(c, "lon")
	if err != nil {
		return q, err
	}
	q.Lat, q.Lon = lat, lon

	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}

func optionalFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", key)
	}
	return &v, nil
}

// batchRequest is the body of POST /weather/batch.
type batchRequest struct {
	Locations []batchLocation `json:"locations" validate:"required,min=1,max=20,dive"`
}

type batchLocation struct {
	Name string   `json:"name" validate:"max=120"`
	Lat  *float64 `json:"lat" validate:"required,latitude"`
	Lon  *float64 `json:"lon" validate:"required,longitude"`
}
