package weather

import (
	"context"

	"github.com/i474232898/energy-data-aggregation/internal/geo"
)

// HourlyProvider supplies hourly WMO weather codes in the requested timezone.
type HourlyProvider interface {
	Name() string
	HourlyCodes(ctx context.Context, lat, lon float64, timezone string) ([]HourlyCode, error)
}

// AstronomyProvider supplies today's sunrise and sunset.
type AstronomyProvider interface {
	Name() string
	SunTimes(ctx context.Context, lat, lon float64) (SunTimes, error)
}

// Geocoder resolves a city to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, city, country string) (geo.Coordinates, error)
}
