package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/airqd/airqd/internal/read"
)

var validate = validator.New()

// RegisterRoutes wires the read-only handlers into the Fiber app. Every
// handler serves cached data via the read surface; a miss is reported as
// 404, never answered with a live provider call.
func RegisterRoutes(app *fiber.App, surface *read.Surface) {
	v1 := app.Group("/api/v1")

	v1.Get("/air/current", func(c *fiber.Ctx) error {
		location, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		snapshot, err := surface.Current(c.Context(), location)
		if err != nil {
			if errors.Is(err, read.ErrUnavailable) {
				return fiber.NewError(fiber.StatusNotFound, "no air quality data for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read air quality data")
		}

		return c.JSON(snapshot)
	})

	v1.Get("/air/forecast", func(c *fiber.Ctx) error {
		location, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		forecast, err := surface.Forecast(c.Context(), location)
		if err != nil {
			if errors.Is(err, read.ErrUnavailable) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read forecast")
		}

		return c.JSON(forecast)
	})

	v1.Get("/air/combined", func(c *fiber.Ctx) error {
		location, err := parseLocationQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		combined, err := surface.Combined(c.Context(), location)
		if err != nil {
			if errors.Is(err, read.ErrUnavailable) {
				return fiber.NewError(fiber.StatusNotFound, "no air quality data for requested location")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read air quality data")
		}

		return c.JSON(combined)
	})
}

// locationQuery holds the query parameter identifying a location.
type locationQuery struct {
	Location string `validate:"required"`
}

func parseLocationQuery(c *fiber.Ctx) (string, error) {
	q := locationQuery{Location: c.Query("location")}
	if err := validate.Struct(q); err != nil {
		return "", err
	}
	return q.Location, nil
}
