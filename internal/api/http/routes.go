package httpapi

import (
	"context"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/i474232898/energy-data-aggregation/internal/ledger"
	"github.com/i474232898/energy-data-aggregation/internal/market"
	"github.com/i474232898/energy-data-aggregation/internal/solar"
	"github.com/i474232898/energy-data-aggregation/internal/weather"
)

// Services are the dependencies the HTTP handlers call into.
type Services struct {
	Ledger  *ledger.Service
	Market  *market.Service
	Weather *weather.Service
	Now     func() time.Time
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, svc Services) {
	if svc.Now == nil {
		svc.Now = time.Now
	}
	h := &handlers{svc: svc}

	v1 := app.Group("/api/v1")

	v1.Post("/users", h.register)
	v1.Get("/users/:email", h.user)
	v1.Get("/users/:email/ledger", h.exportUser)
	v1.Post("/readings", h.recordReading)
	v1.Post("/ledger/day", h.day)
	v1.Post("/ledger/surplus", h.surplus)

	v1.Post("/market/revenue", h.revenue)
	v1.Post("/market/day-ahead-prices", h.dayAheadPrices)
	v1.Post("/market/generation-mix", h.generationMix)

	v1.Post("/solar/pv-generation", h.pvGeneration)
	v1.Post("/weather/hourly", h.weatherHourly)
}

// RegisterSystemRoutes adds the unversioned health and metrics endpoints.
func RegisterSystemRoutes(app *fiber.App, name string, store Pinger) {
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		status, storeStatus := "ok", "ok"
		code := fiber.StatusOK
		if err := store.Ping(ctx); err != nil {
			status, storeStatus = "degraded", err.Error()
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":  status,
			"service": name,
			"store":   storeStatus,
		})
	})

	metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	app.Get("/metrics", func(c *fiber.Ctx) error {
		metrics(c.Context())
		return nil
	})
}

type handlers struct {
	svc Services
}

func (h *handlers) register(c *fiber.Ctx) error {
	var req registerRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if _, err := h.svc.Ledger.Register(c.UserContext(), req.Name, req.Email, req.Password); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "user registered"})
}

func (h *handlers) user(c *fiber.Ctx) error {
	email, err := emailParam(c)
	if err != nil {
		return err
	}
	u, err := h.svc.Ledger.User(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"name": u.Name, "email": u.Email})
}

func (h *handlers) exportUser(c *fiber.Ctx) error {
	email, err := emailParam(c)
	if err != nil {
		return err
	}
	doc, err := h.svc.Ledger.Export(c.UserContext(), email)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"name":        doc.Name,
		"email":       doc.Email,
		"consumption": doc.Consumption,
		"production":  doc.Production,
	})
}

func (h *handlers) recordReading(c *fiber.Ctx) error {
	var req readingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.svc.Ledger.Record(c.UserContext(), req.toReading()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "reading recorded"})
}

func (h *handlers) day(c *fiber.Ctx) error {
	var req dayRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	series, err := h.svc.Ledger.DaySeries(c.UserContext(), ledger.Kind(req.Kind), req.Email, req.Date)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"hourly": series.Record()})
}

func (h *handlers) surplus(c *fiber.Ctx) error {
	var req surplusRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	hourly, err := h.svc.Ledger.Surplus(c.UserContext(), req.Email, req.Date)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"hourly": hourly})
}

func (h *handlers) revenue(c *fiber.Ctx) error {
	var req revenueRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	generation := req.GenerationSeries
	if generation == nil {
		if req.PV == nil {
			return errNoGeneration
		}
		watts, err := h.pvWatts(c.UserContext(), *req.PV)
		if err != nil {
			return err
		}
		generation = solar.Kilowatts(watts)
	}

	sell, err := h.svc.Market.Sell(c.UserContext(), market.Mode(req.PriceMode), req.FixedValue.String(), req.Country, generation)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"sell": sell})
}

func (h *handlers) dayAheadPrices(c *fiber.Ctx) error {
	var req countryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	points, err := h.svc.Market.DayAheadPrices(c.UserContext(), req.Country)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": points})
}

func (h *handlers) generationMix(c *fiber.Ctx) error {
	var req countryRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	mix, err := h.svc.Market.GenerationMix(c.UserContext(), req.Country)
	if err != nil {
		return err
	}
	return c.JSON(mix)
}

func (h *handlers) pvGeneration(c *fiber.Ctx) error {
	var req pvRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	watts, err := h.pvWatts(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"power": watts})
}

func (h *handlers) pvWatts(ctx context.Context, req pvRequest) ([]float64, error) {
	day, err := req.day(h.svc.Now())
	if err != nil {
		return nil, err
	}
	lat, lon, err := h.svc.Weather.Coordinates(ctx, req.toLocation())
	if err != nil {
		return nil, err
	}
	return solar.Generation(req.site(lat, lon), day)
}

func (h *handlers) weatherHourly(c *fiber.Ctx) error {
	var req weatherRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	forecast, err := h.svc.Weather.Hourly(c.UserContext(), req.toLocation(), req.Timezone)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"images":   forecast.Images(),
		"hours":    forecast.Hours,
		"sun":      forecast.Sun,
		"location": forecast.Location,
	})
}

func emailParam(c *fiber.Ctx) (string, error) {
	email, err := url.PathUnescape(c.Params("email"))
	if err != nil || email == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "invalid email")
	}
	return email, nil
}
