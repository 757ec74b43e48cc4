package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/i474232898/energy-data-aggregation/internal/metrics"
)

// Source provides market data for a country and delivery day.
type Source interface {
	DayAheadPrices(ctx context.Context, country string, day time.Time) ([]PricePoint, error)
	GenerationMix(ctx context.Context, country string, day time.Time) (GenerationMix, error)
}

type cachedSeries struct {
	day       string
	series    []float64
	fetchedAt time.Time
}

// Service builds price series and revenue projections.
type Service struct {
	source   Source
	log      *zap.Logger
	ttl      time.Duration
	location *time.Location
	now      func() time.Time

	mu    sync.RWMutex
	cache map[string]cachedSeries
}

// Option customizes a Service.
type Option func(*Service)

// WithCacheTTL sets how long a fetched market series is reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithLocation sets the timezone that defines the delivery day.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.location = loc }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(source Source, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		source:   source,
		log:      log.Named("market"),
		ttl:      time.Hour,
		location: time.UTC,
		now:      time.Now,
		cache:    make(map[string]cachedSeries),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	return s.now().In(s.location)
}

// PriceSeries returns the hourly price series for mode.
func (s *Service) PriceSeries(ctx context.Context, mode Mode, fixedValue, country string) ([]float64, error) {
	switch mode {
	case ModeFixed:
		return FixedSeries(fixedValue)
	case ModeMarket:
		return s.MarketSeries(ctx, country)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidFeeType, mode)
	}
}

// MarketSeries returns today's gap-filled day-ahead prices in €/kWh,
// served from cache while fresh.
func (s *Service) MarketSeries(ctx context.Context, country string) ([]float64, error) {
	day := s.today()
	key := day.Format("2006-01-02")

	s.mu.RLock()
	c, ok := s.cache[country]
	s.mu.RUnlock()
	if ok && c.day == key && s.now().Sub(c.fetchedAt) < s.ttl {
		metrics.PriceCacheTotal.WithLabelValues(metrics.CacheHit).Inc()
		return append([]float64(nil), c.series...), nil
	}
	metrics.PriceCacheTotal.WithLabelValues(metrics.CacheMiss).Inc()

	series, err := s.fetch(ctx, country, day)
	if err != nil {
		return nil, err
	}
	return append([]float64(nil), series...), nil
}

// Refresh fetches today's prices for country and replaces the cached entry.
func (s *Service) Refresh(ctx context.Context, country string) error {
	_, err := s.fetch(ctx, country, s.today())
	return err
}

func (s *Service) fetch(ctx context.Context, country string, day time.Time) ([]float64, error) {
	points, err := s.source.DayAheadPrices(ctx, country, day)
	if err != nil {
		return nil, err
	}
	filled, err := GapFill(points)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", country, err)
	}
	series := ScaleMarket(filled)

	s.mu.Lock()
	s.cache[country] = cachedSeries{
		day:       day.Format("2006-01-02"),
		series:    series,
		fetchedAt: s.now(),
	}
	s.mu.Unlock()

	s.log.Debug("day-ahead prices cached", zap.String("country", country), zap.Int("points", len(series)))
	return series, nil
}

// DayAheadPrices returns today's raw price points.
func (s *Service) DayAheadPrices(ctx context.Context, country string) ([]PricePoint, error) {
	return s.source.DayAheadPrices(ctx, country, s.today())
}

// GenerationMix returns the latest generation per type and its CO2 total.
func (s *Service) GenerationMix(ctx context.Context, country string) (GenerationMix, error) {
	return s.source.GenerationMix(ctx, country, s.today())
}

// Sell projects hourly revenue for generation under the chosen price mode.
func (s *Service) Sell(ctx context.Context, mode Mode, fixedValue, country string, generation []float64) ([]float64, error) {
	price, err := s.PriceSeries(ctx, mode, fixedValue, country)
	if err != nil {
		return nil, err
	}
	return Revenue(price, generation)
}
