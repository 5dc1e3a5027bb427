package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/airaware/aqibot/internal/airquality"
	"github.com/airaware/aqibot/internal/bot"
	"github.com/airaware/aqibot/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *bot.Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/airquality/latest", func(c *fiber.Ctx) error {
		loc, err := parseCityQuery(c, service)
		if err != nil {
			return err
		}

		record, err := service.GetLatest(loc)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no posts recorded for requested city")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch post history")
		}

		return c.JSON(record)
	})

	v1.Get("/airquality/history", func(c *fiber.Ctx) error {
		var req historyQuery
		if err := req.bind(c, service); err != nil {
			return err
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.GetRange(req.Location, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no posts recorded in requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch post history")
		}

		return c.JSON(fiber.Map{
			"city":    req.Location.Name,
			"from":    req.From,
			"to":      req.To,
			"records": records,
		})
	})

	// Manual trigger; accepts no parameters and runs the job for all cities.
	v1.Post("/run", func(c *fiber.Ctx) error {
		if err := service.RunAll(c.Context()); err != nil {
			return fiber.NewError(fiber.StatusBadGateway, err.Error())
		}
		return c.JSON(fiber.Map{
			"status": "completed",
			"cities": len(service.Locations()),
		})
	})
}

// cityQuery holds the query parameter identifying a configured city.
type cityQuery struct {
	City string `validate:"required"`
}

func parseCityQuery(c *fiber.Ctx, service *bot.Service) (loc airquality.Location, err error) {
	q := cityQuery{City: c.Query("city")}
	if err := validate.Struct(q); err != nil {
		return loc, fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	found, ok := service.LocationByName(q.City)
	if !ok {
		return loc, fiber.NewError(fiber.StatusNotFound, "city is not configured")
	}
	return found, nil
}

// historyQuery holds query parameters for the history endpoint.
type historyQuery struct {
	Location airquality.Location
	From     time.Time `validate:"required"`
	To       time.Time `validate:"required,gtefield=From"`
}

func (h *historyQuery) bind(c *fiber.Ctx, service *bot.Service) error {
	loc, err := parseCityQuery(c, service)
	if err != nil {
		return err
	}
	h.Location = loc

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return fiber.NewError(fiber.StatusBadRequest, "from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	to, err := parseTime(toStr)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	h.From = from
	h.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
