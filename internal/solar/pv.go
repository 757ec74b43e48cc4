package solar

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// HoursPerDay is the length of every irradiance and power series.
const HoursPerDay = 24

var (
	ErrInvalidSite     = errors.New("invalid site")
	ErrInvalidTimezone = errors.New("invalid timezone")
)

// Site describes a PV installation.
type Site struct {
	Latitude   float64
	Longitude  float64
	Altitude   float64
	Surface    float64 // m²
	Efficiency float64 // percent
	Timezone   string
}

// Validate checks coordinate ranges and panel parameters and resolves the timezone.
func (s Site) Validate() (*time.Location, error) {
	switch {
	case math.IsNaN(s.Latitude) || s.Latitude < -90 || s.Latitude > 90:
		return nil, fmt.Errorf("%w: latitude %v out of range", ErrInvalidSite, s.Latitude)
	case math.IsNaN(s.Longitude) || s.Longitude < -180 || s.Longitude > 180:
		return nil, fmt.Errorf("%w: longitude %v out of range", ErrInvalidSite, s.Longitude)
	case !(s.Surface > 0) || math.IsInf(s.Surface, 0):
		return nil, fmt.Errorf("%w: surface must be positive", ErrInvalidSite)
	case !(s.Efficiency > 0) || s.Efficiency > 100:
		return nil, fmt.Errorf("%w: efficiency must be in (0, 100]", ErrInvalidSite)
	}

	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, s.Timezone)
	}
	return loc, nil
}

// ClearSkyDay returns GHI at the start of each local hour of the date of day,
// interpreted in loc.
func ClearSkyDay(lat, lon float64, day time.Time, loc *time.Location) []float64 {
	y, m, d := day.In(loc).Date()
	out := make([]float64, HoursPerDay)
	for h := 0; h < HoursPerDay; h++ {
		t := time.Date(y, m, d, h, 0, 0, 0, loc)
		out[h] = HaurwitzGHI(CosZenith(t, lat, lon))
	}
	return out
}

// Generation returns the hourly clear-sky PV output of site in watts for the
// local date of day.
func Generation(site Site, day time.Time) ([]float64, error) {
	loc, err := site.Validate()
	if err != nil {
		return nil, err
	}

	factor := site.Efficiency / 100 * site.Surface
	ghi := ClearSkyDay(site.Latitude, site.Longitude, day, loc)
	for i := range ghi {
		ghi[i] *= factor
	}
	return ghi, nil
}

// Kilowatts converts watts to kW rounded to 5 decimals.
func Kilowatts(watts []float64) []float64 {
	out := make([]float64, len(watts))
	for i, w := range watts {
		out[i] = math.Round(w/1000*1e5) / 1e5
	}
	return out
}
