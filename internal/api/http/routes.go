package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/climacol/clima-core/internal/security"
	"github.com/climacol/clima-core/internal/weather"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, aggregator *weather.Aggregator, alerts *weather.AlertEngine) {
	v1 := app.Group("/api/v1")

	v1.Get("/weather", func(c *fiber.Ctx) error {
		coords, err := parseCoordsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := aggregator.FetchWeather(c.Context(), coords.Lat, coords.Lon)
		if err != nil {
			switch {
			case errors.Is(err, weather.ErrInvalidInput):
				return fiber.NewError(fiber.StatusBadRequest, security.SanitizeError(err))
			case errors.Is(err, weather.ErrRateLimited):
				return fiber.NewError(fiber.StatusTooManyRequests,
					"Demasiadas solicitudes. Intenta nuevamente en un momento")
			default:
				return fiber.NewError(fiber.StatusBadGateway, security.SanitizeError(err))
			}
		}

		return c.JSON(snapshot)
	})

	v1.Get("/alerts", func(c *fiber.Ctx) error {
		coords, err := parseCoordsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		// FetchAlerts never fails; worst case is the synthetic entry.
		return c.JSON(fiber.Map{
			"alerts": alerts.FetchAlerts(c.Context(), coords.Lat, coords.Lon),
		})
	})

	v1.Get("/geocode/search", func(c *fiber.Ctx) error {
		var q searchQuery
		q.Query = c.Query("q")
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		return c.JSON(fiber.Map{
			"suggestions": aggregator.SearchCities(c.Context(), q.Query),
		})
	})

	v1.Get("/geocode/reverse", func(c *fiber.Ctx) error {
		coords, err := parseCoordsQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		suggestion := aggregator.ReverseGeocode(c.Context(), coords.Lat, coords.Lon)
		if suggestion == nil {
			return fiber.NewError(fiber.StatusNotFound, "no se encontró una ubicación para esas coordenadas")
		}

		return c.JSON(suggestion)
	})

	v1.Post("/cache/clear", func(c *fiber.Ctx) error {
		aggregator.ClearCache()
		return c.JSON(fiber.Map{"cleared": true})
	})
}

// coordsQuery holds the lat/lon query parameters shared by most endpoints.
type coordsQuery struct {
	Lat float64
	Lon float64
}

// rawCoordsQuery enforces presence before numeric parsing.
type rawCoordsQuery struct {
	Lat string `validate:"required"`
	Lon string `validate:"required"`
}

type searchQuery struct {
	Query string `validate:"required,max=100"`
}

func parseCoordsQuery(c *fiber.Ctx) (coordsQuery, error) {
	raw := rawCoordsQuery{
		Lat: c.Query("lat"),
		Lon: c.Query("lon"),
	}
	if err := validate.Struct(raw); err != nil {
		return coordsQuery{}, err
	}

	lat, err := strconv.ParseFloat(raw.Lat, 64)
	if err != nil {
		return coordsQuery{}, errors.New("lat must be a number")
	}
	lon, err := strconv.ParseFloat(raw.Lon, 64)
	if err != nil {
		return coordsQuery{}, errors.New("lon must be a number")
	}

	return coordsQuery{Lat: lat, Lon: lon}, nil
}
