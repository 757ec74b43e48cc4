package entsoe

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/energy-data-aggregation/internal/market"
	"github.com/i474232898/energy-data-aggregation/internal/upstream"
)

// DefaultBaseURL is the ENTSO-E transparency platform REST endpoint.
const DefaultBaseURL = "https://web-api.tp.entsoe.eu/api"

const (
	documentDayAheadPrices = "A44"
	documentGenerationType = "A75"
	processRealised        = "A16"
	hourlyResolution       = "PT60M"
)

var (
	ErrUnknownCountry = errors.New("unknown country")
	ErrNoData         = errors.New("no matching data")
)

// Client fetches day-ahead prices and generation mixes from ENTSO-E.
type Client struct {
	up      *upstream.Client
	baseURL string
	apiKey  string
	tables  *Tables
	log     *zap.Logger
}

// NewClient creates a Client backed by up.
func NewClient(up *upstream.Client, baseURL, apiKey string, tables *Tables, log *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		up:      up,
		baseURL: baseURL,
		apiKey:  apiKey,
		tables:  tables,
		log:     log.Named("entsoe"),
	}
}

// Window returns the periodStart/periodEnd pair covering day: 22:00 on the
// previous date through 22:00 on day, as yyyymmddhhmm.
func Window(day time.Time) (start, end string) {
	return day.AddDate(0, 0, -1).Format("20060102") + "2200", day.Format("20060102") + "2200"
}

// DayAheadPrices returns the hourly day-ahead price points for country.
// Only the first series published at hourly resolution is used.
func (c *Client) DayAheadPrices(ctx context.Context, country string, day time.Time) ([]market.PricePoint, error) {
	area, err := c.tables.Area(country)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("documentType", documentDayAheadPrices)
	params.Set("in_Domain", area)
	params.Set("out_Domain", area)

	body, err := c.get(ctx, params, day)
	if err != nil {
		return nil, err
	}

	var doc publicationDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decoding day-ahead prices: %w", err)
	}

	for _, ts := range doc.TimeSeries {
		if ts.Period.Resolution != hourlyResolution {
			continue
		}
		points := make([]market.PricePoint, 0, len(ts.Period.Points))
		for _, p := range ts.Period.Points {
			points = append(points, market.PricePoint{Position: p.Position, Price: p.Price})
		}
		return points, nil
	}

	c.log.Info("no hourly price series in response",
		zap.String("country", country),
		zap.Int("series", len(doc.TimeSeries)),
	)
	return nil, fmt.Errorf("%w: no %s price series for %s", ErrNoData, hourlyResolution, country)
}

// GenerationMix returns the generation per production type at the latest
// interval end found in the response, with zero entries dropped, and the
// CO2 emitted by that mix.
func (c *Client) GenerationMix(ctx context.Context, country string, day time.Time) (market.GenerationMix, error) {
	area, err := c.tables.Area(country)
	if err != nil {
		return market.GenerationMix{}, err
	}

	params := url.Values{}
	params.Set("documentType", documentGenerationType)
	params.Set("processType", processRealised)
	params.Set("in_Domain", area)

	body, err := c.get(ctx, params, day)
	if err != nil {
		return market.GenerationMix{}, err
	}

	var doc glDocument
	if err := xml.Unmarshal(body, &doc); err != nil {
		return market.GenerationMix{}, fmt.Errorf("decoding generation: %w", err)
	}

	gen, err := c.latestGeneration(doc.TimeSeries)
	if err != nil {
		return market.GenerationMix{}, err
	}
	return market.GenerationMix{Generation: gen, CO2: c.co2(gen)}, nil
}

func (c *Client) latestGeneration(series []generationTimeSeries) (map[string]float64, error) {
	var latest time.Time
	for _, ts := range series {
		end, err := ts.end()
		if err != nil {
			return nil, fmt.Errorf("parsing interval end %q: %w", ts.Period.TimeInterval.End, err)
		}
		if end.After(latest) {
			latest = end
		}
	}

	gen := make(map[string]float64)
	for _, ts := range series {
		end, _ := ts.end()
		if !end.Equal(latest) {
			continue
		}
		name, known := c.tables.PSRName(ts.PSRType)
		if !known {
			c.log.Warn("unknown production type", zap.String("psrType", ts.PSRType))
		}

		// Series without an in-domain are consumption (e.g. pumping) and
		// only reserve the key.
		if ts.InBiddingZone == nil {
			if _, ok := gen[name]; !ok {
				gen[name] = 0
			}
			continue
		}
		if n := len(ts.Period.Points); n > 0 {
			gen[name] = ts.Period.Points[n-1].Quantity
		}
	}

	for name, v := range gen {
		if v == 0 {
			delete(gen, name)
		}
	}
	return gen, nil
}

// co2 sums MW times gCO2eq/Wh over the mix.
func (c *Client) co2(gen map[string]float64) float64 {
	var total float64
	for name, mw := range gen {
		factor, ok := c.tables.CO2Factors[name]
		if !ok {
			c.log.Warn("no CO2 factor for production type", zap.String("type", name))
			continue
		}
		total += mw * factor
	}
	return total
}

func (c *Client) get(ctx context.Context, params url.Values, day time.Time) ([]byte, error) {
	start, end := Window(day)
	params.Set("securityToken", c.apiKey)
	params.Set("periodStart", start)
	params.Set("periodEnd", end)

	u := c.baseURL + "?" + params.Encode()
	body, err := c.up.Fetch(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, err
	}

	root, err := rootElement(body)
	if err != nil {
		return nil, fmt.Errorf("reading response document: %w", err)
	}
	if root == acknowledgementRoot {
		var ack acknowledgementDocument
		if err := xml.Unmarshal(body, &ack); err != nil {
			return nil, fmt.Errorf("%w: unreadable acknowledgement", ErrNoData)
		}
		return nil, fmt.Errorf("%w: %s", ErrNoData, ack.Reason.Text)
	}
	return body, nil
}
