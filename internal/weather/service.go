package weather

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
)

// Service combines the hourly forecast and astronomy feeds.
type Service struct {
	hourly   HourlyProvider
	astro    AstronomyProvider
	geocoder Geocoder
	log      *zap.Logger
}

// NewService creates a new Service. geocoder may be nil, in which case
// locations must carry coordinates.
func NewService(hourly HourlyProvider, astro AstronomyProvider, geocoder Geocoder, log *zap.Logger) *Service {
	return &Service{
		hourly:   hourly,
		astro:    astro,
		geocoder: geocoder,
		log:      log.Named("weather"),
	}
}

// Coordinates returns the location's coordinates, geocoding the city when
// they are absent.
func (s *Service) Coordinates(ctx context.Context, loc Location) (lat, lon float64, err error) {
	if loc.HasCoordinates() {
		return *loc.Lat, *loc.Lon, nil
	}
	if loc.City == "" || s.geocoder == nil {
		return 0, 0, ErrMissingLocation
	}
	c, err := s.geocoder.Resolve(ctx, loc.City, loc.Country)
	if err != nil {
		return 0, 0, err
	}
	return c.Latitude, c.Longitude, nil
}

// Hourly fetches the next 24 hourly codes and today's sun times concurrently
// and labels each hour as day or night.
func (s *Service) Hourly(ctx context.Context, loc Location, timezone string) (Forecast, error) {
	lat, lon, err := s.Coordinates(ctx, loc)
	if err != nil {
		return Forecast{}, err
	}

	var (
		wg       sync.WaitGroup
		codes    []HourlyCode
		sun      SunTimes
		codesErr error
		sunErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		codes, codesErr = s.hourly.HourlyCodes(ctx, lat, lon, timezone)
	}()
	go func() {
		defer wg.Done()
		sun, sunErr = s.astro.SunTimes(ctx, lat, lon)
	}()
	wg.Wait()

	if codesErr != nil {
		return Forecast{}, fmt.Errorf("%s: %w", s.hourly.Name(), codesErr)
	}
	if sunErr != nil {
		return Forecast{}, fmt.Errorf("%s: %w", s.astro.Name(), sunErr)
	}
	if len(codes) == 0 {
		return Forecast{}, ErrNoForecast
	}
	if len(codes) > HoursAhead {
		codes = codes[:HoursAhead]
	}

	hours, err := Label(codes, sun)
	if err != nil {
		return Forecast{}, err
	}

	s.log.Debug("hourly forecast built", zap.String("location", loc.Key()), zap.Int("hours", len(hours)))

	loc.Lat, loc.Lon = &lat, &lon
	return Forecast{Location: loc, Sun: sun, Hours: hours}, nil
}

// Label marks each hour "day-<code>" when its local time falls within
// [sunrise, sunset] and "night-<code>" otherwise.
func Label(codes []HourlyCode, sun SunTimes) ([]HourlyForecast, error) {
	rise, set, err := sun.minutes()
	if err != nil {
		return nil, err
	}

	out := make([]HourlyForecast, len(codes))
	for i, c := range codes {
		m := c.Time.Hour()*60 + c.Time.Minute()
		day := rise <= m && m <= set

		prefix := "night-"
		if day {
			prefix = "day-"
		}
		out[i] = HourlyForecast{
			Time:      c.Time.Format("2006-01-02T15:04"),
			Code:      c.Code,
			Condition: ConditionFromCode(c.Code),
			Daylight:  day,
			Image:     prefix + strconv.Itoa(c.Code),
		}
	}
	return out, nil
}
