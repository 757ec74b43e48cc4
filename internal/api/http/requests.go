package httpapi

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/energy-data-aggregation/internal/ledger"
	"github.com/i474232898/energy-data-aggregation/internal/solar"
	"github.com/i474232898/energy-data-aggregation/internal/weather"
)

var validate = validator.New()

// bind parses the JSON body into req and validates it.
func bind(c *fiber.Ctx, req any) error {
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if err := validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type readingRequest struct {
	Email string   `json:"email" validate:"required"`
	Date  string   `json:"date" validate:"required"`
	Hour  string   `json:"hour" validate:"required"`
	Value *float64 `json:"value" validate:"required"`
	Kind  string   `json:"kind" validate:"required,oneof=consumption production"`
}

func (r readingRequest) toReading() ledger.Reading {
	return ledger.Reading{
		Kind:  ledger.Kind(r.Kind),
		Email: r.Email,
		Date:  r.Date,
		Hour:  r.Hour,
		Value: *r.Value,
	}
}

type dayRequest struct {
	Email string `json:"email" validate:"required"`
	Kind  string `json:"kind" validate:"required,oneof=consumption production"`
	Date  string `json:"date"`
}

type surplusRequest struct {
	Email string `json:"email" validate:"required"`
	Date  string `json:"date"`
}

type countryRequest struct {
	Country string `json:"country" validate:"required"`
}

// locationFields identifies a place by coordinates or by city.
type locationFields struct {
	Latitude  *float64 `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	City      string   `json:"city" validate:"required_without_all=Latitude Longitude"`
	Country   string   `json:"country"`
}

func (l locationFields) toLocation() weather.Location {
	return weather.Location{
		City:    l.City,
		Country: l.Country,
		Lat:     l.Latitude,
		Lon:     l.Longitude,
	}
}

type pvRequest struct {
	locationFields
	Altitude   float64 `json:"altitude"`
	Surface    float64 `json:"surface" validate:"gt=0"`
	Efficiency float64 `json:"efficiency" validate:"gt=0,lte=100"`
	Timezone   string  `json:"timezone" validate:"required"`
	Date       string  `json:"date"`
}

// day returns the requested local date, or today in the site's timezone.
func (r pvRequest) day(now time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.Time{}, solar.ErrInvalidTimezone
	}
	if r.Date == "" {
		return now.In(loc), nil
	}
	d, err := time.ParseInLocation(ledger.DateLayout, r.Date, loc)
	if err != nil {
		return time.Time{}, ledger.ErrInvalidDate
	}
	return d, nil
}

func (r pvRequest) site(lat, lon float64) solar.Site {
	return solar.Site{
		Latitude:   lat,
		Longitude:  lon,
		Altitude:   r.Altitude,
		Surface:    r.Surface,
		Efficiency: r.Efficiency,
		Timezone:   r.Timezone,
	}
}

type revenueRequest struct {
	PriceMode        string      `json:"priceMode" validate:"required"`
	FixedValue       json.Number `json:"fixedValue"`
	Country          string      `json:"country" validate:"required_if=PriceMode MARKET"`
	GenerationSeries []float64   `json:"generationSeries"`
	PV               *pvRequest  `json:"pv"`
}

var errNoGeneration = errors.New("generationSeries or pv is required")

type weatherRequest struct {
	locationFields
	Timezone string `json:"timezone"`
}
