package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/i474232898/energy-data-aggregation/internal/upstream"
	"github.com/i474232898/energy-data-aggregation/internal/weather"
)

var errMissingAPIKey = errors.New("weatherapi api key is not configured")

// WeatherAPIProvider implements weather.AstronomyProvider for WeatherAPI.com.
type WeatherAPIProvider struct {
	apiKey  string
	baseURL string
	client  *upstream.Client
}

func NewWeatherAPIProvider(client *upstream.Client, baseURL, apiKey string) *WeatherAPIProvider {
	if baseURL == "" {
		baseURL = "https://api.weatherapi.com/v1/astronomy.json"
	}
	return &WeatherAPIProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.client.Name()
}

func (p *WeatherAPIProvider) SunTimes(ctx context.Context, lat, lon float64) (weather.SunTimes, error) {
	if p.apiKey == "" {
		return weather.SunTimes{}, errMissingAPIKey
	}

	values := url.Values{}
	values.Set("key", p.apiKey)
	// WeatherAPI uses "q" for location; it accepts "lat,lon".
	values.Set("q", fmt.Sprintf("%f,%f", lat, lon))
	u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())

	body, err := p.client.Fetch(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	})
	if err != nil {
		return weather.SunTimes{}, err
	}

	var payload struct {
		Astronomy struct {
			Astro weather.SunTimes `json:"astro"`
		} `json:"astronomy"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return weather.SunTimes{}, fmt.Errorf("decoding weatherapi response: %w", err)
	}
	if payload.Astronomy.Astro.Sunrise == "" || payload.Astronomy.Astro.Sunset == "" {
		return weather.SunTimes{}, weather.ErrInvalidSunTimes
	}
	return payload.Astronomy.Astro, nil
}
