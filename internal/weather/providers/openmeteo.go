package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/i474232898/energy-data-aggregation/internal/upstream"
	"github.com/i474232898/energy-data-aggregation/internal/weather"
)

const openMeteoTimeLayout = "2006-01-02T15:04"

// OpenMeteoProvider implements weather.HourlyProvider for Open-Meteo.
type OpenMeteoProvider struct {
	baseURL string
	client  *upstream.Client
}

func NewOpenMeteoProvider(client *upstream.Client, baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1/forecast"
	}
	return &OpenMeteoProvider{
		baseURL: baseURL,
		client:  client,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.client.Name()
}

func (p *OpenMeteoProvider) HourlyCodes(ctx context.Context, lat, lon float64, timezone string) ([]weather.HourlyCode, error) {
	if timezone == "" {
		timezone = "auto"
	}

	values := url.Values{}
	values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	values.Set("hourly", "weather_code")
	values.Set("timezone", timezone)
	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())

	body, err := p.client.Fetch(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Hourly struct {
			Time        []string `json:"time"`
			WeatherCode []*int   `json:"weather_code"`
		} `json:"hourly"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decoding open-meteo response: %w", err)
	}
	if len(payload.Hourly.Time) != len(payload.Hourly.WeatherCode) {
		return nil, fmt.Errorf("open-meteo returned %d times and %d codes",
			len(payload.Hourly.Time), len(payload.Hourly.WeatherCode))
	}

	n := min(len(payload.Hourly.Time), weather.HoursAhead)
	out := make([]weather.HourlyCode, 0, n)
	for i := 0; i < n; i++ {
		ts, err := time.Parse(openMeteoTimeLayout, payload.Hourly.Time[i])
		if err != nil {
			return nil, fmt.Errorf("parsing open-meteo time %q: %w", payload.Hourly.Time[i], err)
		}
		code := 0
		if c := payload.Hourly.WeatherCode[i]; c != nil {
			code = *c
		}
		out = append(out, weather.HourlyCode{Time: ts, Code: code})
	}
	return out, nil
}
