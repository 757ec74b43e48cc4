package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = errors.New("geocoder api key is not configured")
	ErrEmptyQuery    = errors.New("city is required")
)

// Coordinates is a resolved point in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Resolver turns a city/country pair into coordinates using the Google
// geocoding API. Results are memoized for the life of the process.
type Resolver struct {
	lookup func(geocoder.Address) (geocoder.Location, error)
	log    *zap.Logger

	mu    sync.RWMutex
	cache map[string]Coordinates
}

// NewResolver configures the geocoder with apiKey.
func NewResolver(apiKey string, log *zap.Logger) *Resolver {
	var lookup func(geocoder.Address) (geocoder.Location, error)
	if apiKey != "" {
		geocoder.ApiKey = apiKey
		lookup = geocoder.Geocoding
	}
	return newResolver(lookup, log)
}

func newResolver(lookup func(geocoder.Address) (geocoder.Location, error), log *zap.Logger) *Resolver {
	return &Resolver{
		lookup: lookup,
		log:    log.Named("geo"),
		cache:  make(map[string]Coordinates),
	}
}

// Resolve returns the coordinates of city in country.
func (r *Resolver) Resolve(ctx context.Context, city, country string) (Coordinates, error) {
	city, country = strings.TrimSpace(city), strings.TrimSpace(country)
	if city == "" {
		return Coordinates{}, ErrEmptyQuery
	}
	if r.lookup == nil {
		return Coordinates{}, ErrNotConfigured
	}

	key := strings.ToLower(city + ":" + country)
	r.mu.RLock()
	c, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return c, nil
	}

	type result struct {
		loc geocoder.Location
		err error
	}
	done := make(chan result, 1)
	go func() {
		loc, err := r.lookup(geocoder.Address{City: city, Country: country})
		done <- result{loc, err}
	}()

	select {
	case <-ctx.Done():
		return Coordinates{}, ctx.Err()
	case res := <-done:
		if res.err != nil {
			r.log.Warn("geocoding failed", zap.String("city", city), zap.String("country", country), zap.Error(res.err))
			return Coordinates{}, fmt.Errorf("geocoding %s, %s: %w", city, country, res.err)
		}
		c = Coordinates{Latitude: res.loc.Latitude, Longitude: res.loc.Longitude}
	}

	r.mu.Lock()
	r.cache[key] = c
	r.mu.Unlock()

	r.log.Debug("geocoded", zap.String("city", city), zap.Float64("lat", c.Latitude), zap.Float64("lon", c.Longitude))
	return c, nil
}
