package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port string

	LogLevel  string
	LogFormat string

	// StoreBackend is "memory" or "redis".
	StoreBackend string
	RedisURL     string

	EntsoeAPIKey     string
	WeatherAPIKey    string
	GeocoderAPIKey   string
	HTTPTimeout      time.Duration
	UpstreamRetries  int
	LedgerLocation   *time.Location
	PriceCountries   []string
	PriceRefresh     time.Duration
	PriceCacheTTL    time.Duration
	ShutdownTimeout  time.Duration
	EntsoeBaseURL    string
	OpenMeteoBaseURL string
	WeatherAPIURL    string
}

// Load reads configuration from .env (if present) and the environment with
// sensible defaults.
func Load() (*AppConfig, error) {
	// A missing .env file is normal outside development.
	_ = godotenv.Load()

	return fromEnv()
}

func fromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Port:             getenvDefault("PORT", "8080"),
		LogLevel:         getenvDefault("LOG_LEVEL", "info"),
		LogFormat:        getenvDefault("LOG_FORMAT", "json"),
		StoreBackend:     strings.ToLower(getenvDefault("STORE_BACKEND", "memory")),
		RedisURL:         getenvDefault("REDIS_URL", "redis://localhost:6379/0"),
		EntsoeAPIKey:     os.Getenv("ENTSOE_API_KEY"),
		WeatherAPIKey:    os.Getenv("WEATHERAPI_API_KEY"),
		GeocoderAPIKey:   os.Getenv("GEOCODER_API_KEY"),
		PriceCountries:   splitList(os.Getenv("PRICE_COUNTRIES")),
		EntsoeBaseURL:    os.Getenv("ENTSOE_BASE_URL"),
		OpenMeteoBaseURL: os.Getenv("OPENMETEO_BASE_URL"),
		WeatherAPIURL:    os.Getenv("WEATHERAPI_BASE_URL"),
	}

	switch cfg.StoreBackend {
	case "memory", "redis":
	default:
		return nil, fmt.Errorf("invalid STORE_BACKEND %q: want memory or redis", cfg.StoreBackend)
	}

	var err error
	if cfg.UpstreamRetries, err = getenvInt("UPSTREAM_RETRIES", 1); err != nil {
		return nil, err
	}
	if cfg.UpstreamRetries < 0 {
		return nil, fmt.Errorf("invalid UPSTREAM_RETRIES: must not be negative")
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.PriceRefresh, err = getenvDuration("PRICE_REFRESH_INTERVAL", "60m"); err != nil {
		return nil, err
	}
	if cfg.PriceCacheTTL, err = getenvDuration("PRICE_CACHE_TTL", "1h"); err != nil {
		return nil, err
	}
	if cfg.ShutdownTimeout, err = getenvDuration("SHUTDOWN_TIMEOUT", "10s"); err != nil {
		return nil, err
	}

	tz := getenvDefault("LEDGER_TIMEZONE", "UTC")
	if cfg.LedgerLocation, err = time.LoadLocation(tz); err != nil {
		return nil, fmt.Errorf("invalid LEDGER_TIMEZONE %q: %w", tz, err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key, def string) (time.Duration, error) {
	raw := getenvDefault(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
