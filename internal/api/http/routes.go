// Package httpapi exposes the persisted dataset to the presentation layer.
package httpapi

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"weather-dashboard/internal/dataset"
	"weather-dashboard/internal/forecast"
	"weather-dashboard/internal/storage"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, cache *dataset.Cache) {
	v1 := app.Group("/api/v1")

	v1.Get("/cities", func(c *fiber.Ctx) error {
		cities, err := cache.Cities()
		if err != nil {
			return datasetError(err)
		}
		return c.JSON(fiber.Map{"cities": cities})
	})

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		req, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rows, err := cache.CityRows(req.City)
		if err != nil {
			if errors.Is(err, dataset.ErrCityNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast data for requested city")
			}
			return datasetError(err)
		}

		return c.JSON(fiber.Map{
			"city":    req.City,
			"rows":    rows,
			"palette": forecast.StatusColors,
		})
	})

	v1.Get("/forecast/export", func(c *fiber.Ctx) error {
		req, err := parseCityQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		rows, err := cache.CityRows(req.City)
		if err != nil {
			if errors.Is(err, dataset.ErrCityNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast data for requested city")
			}
			return datasetError(err)
		}

		body, err := storage.MarshalCSV(rows)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render CSV")
		}

		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename=%q`, req.City+"_weather_data.csv"))
		return c.Send(body)
	})
}

// datasetError maps dataset read failures: a missing file means no pipeline
// run has produced data yet.
func datasetError(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fiber.NewError(fiber.StatusServiceUnavailable, "dataset not available yet")
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to read dataset")
}

// cityQuery holds query parameters identifying a city.
type cityQuery struct {
	City string `validate:"required"`
}

func parseCityQuery(c *fiber.Ctx) (cityQuery, error) {
	q := cityQuery{City: c.Query("city")}
	if err := validate.Struct(q); err != nil {
		return q, err
	}
	return q, nil
}
