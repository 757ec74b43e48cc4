package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/energy-data-aggregation/internal/geo"
	"github.com/i474232898/energy-data-aggregation/internal/ledger"
	"github.com/i474232898/energy-data-aggregation/internal/market"
	"github.com/i474232898/energy-data-aggregation/internal/market/entsoe"
	"github.com/i474232898/energy-data-aggregation/internal/solar"
	"github.com/i474232898/energy-data-aggregation/internal/weather"
)

var (
	badRequest = []error{
		ledger.ErrInvalidUser,
		ledger.ErrInvalidHour,
		ledger.ErrInvalidDate,
		ledger.ErrInvalidKind,
		ledger.ErrInvalidValue,
		ledger.ErrUnknownUser,
		market.ErrLengthMismatch,
		market.ErrInvalidFeeType,
		market.ErrInvalidFixedValue,
		market.ErrNoPricePoints,
		market.ErrInvalidPosition,
		entsoe.ErrUnknownCountry,
		solar.ErrInvalidSite,
		solar.ErrInvalidTimezone,
		weather.ErrMissingLocation,
		geo.ErrEmptyQuery,
		errNoGeneration,
	}
	notFound = []error{
		ledger.ErrUserNotFound,
		entsoe.ErrNoData,
		weather.ErrNoForecast,
	}
)

// statusFor maps an error returned by a handler to an HTTP status.
func statusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	if errors.Is(err, ledger.ErrDuplicateUser) {
		return fiber.StatusConflict
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return fiber.StatusBadRequest
		}
	}
	for _, target := range notFound {
		if errors.Is(err, target) {
			return fiber.StatusNotFound
		}
	}
	return fiber.StatusInternalServerError
}

// ErrorHandler renders every handler error as {"error": true, "message": ...}
// and logs server-side failures.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := statusFor(err)

		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.Error(err),
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error":   true,
			"message": err.Error(),
		})
	}
}
