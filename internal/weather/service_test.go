package weather

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/i474232898/energy-data-aggregation/internal/geo"
)

type stubHourly struct {
	codes []HourlyCode
	err   error
	lat   float64
}

func (s *stubHourly) Name() string { return "stub-hourly" }

func (s *stubHourly) HourlyCodes(_ context.Context, lat, _ float64, _ string) ([]HourlyCode, error) {
	s.lat = lat
	return s.codes, s.err
}

type stubAstro struct {
	sun SunTimes
	err error
}

func (s stubAstro) Name() string { return "stub-astro" }

func (s stubAstro) SunTimes(context.Context, float64, float64) (SunTimes, error) {
	return s.sun, s.err
}

type stubGeocoder struct{}

func (stubGeocoder) Resolve(context.Context, string, string) (geo.Coordinates, error) {
	return geo.Coordinates{Latitude: 48.85, Longitude: 2.35}, nil
}

func hours(codes ...int) []HourlyCode {
	out := make([]HourlyCode, len(codes))
	for i, c := range codes {
		out[i] = HourlyCode{Time: time.Date(2024, 5, 1, i, 0, 0, 0, time.UTC), Code: c}
	}
	return out
}

func TestLabel(t *testing.T) {
	codes := hours(0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20, 21, 22, 23)
	got, err := Label(codes, SunTimes{Sunrise: "07:00 AM", Sunset: "09:30 PM"})
	require.NoError(t, err)
	require.Len(t, got, 24)

	assert.Equal(t, "night-6", got[6].Image)
	assert.Equal(t, "day-7", got[7].Image) // sunrise is inclusive
	assert.Equal(t, "day-21", got[21].Image)
	assert.Equal(t, "night-22", got[22].Image)
	assert.True(t, got[12].Daylight)
}

func TestLabelInvalidSunTimes(t *testing.T) {
	_, err := Label(hours(0), SunTimes{Sunrise: "25:00", Sunset: "09:00 PM"})
	assert.ErrorIs(t, err, ErrInvalidSunTimes)
}

func TestHourlyWithCoordinates(t *testing.T) {
	h := &stubHourly{codes: hours(3, 3, 61)}
	svc := NewService(h, stubAstro{sun: SunTimes{Sunrise: "1:00 AM", Sunset: "1:30 AM"}}, nil, zap.NewNop())

	lat, lon := 40.4, -3.7
	f, err := svc.Hourly(context.Background(), Location{Lat: &lat, Lon: &lon}, "Europe/Madrid")
	require.NoError(t, err)
	assert.Equal(t, []string{"night-3", "day-3", "night-61"}, f.Images())
	assert.Equal(t, ConditionRain, f.Hours[2].Condition)
}

func TestHourlyGeocodesCity(t *testing.T) {
	h := &stubHourly{codes: hours(0)}
	svc := NewService(h, stubAstro{sun: SunTimes{Sunrise: "06:00 AM", Sunset: "08:00 PM"}}, stubGeocoder{}, zap.NewNop())

	f, err := svc.Hourly(context.Background(), Location{City: "Paris", Country: "FR"}, "Europe/Paris")
	require.NoError(t, err)
	assert.Equal(t, 48.85, h.lat)
	require.NotNil(t, f.Location.Lat)
	assert.Equal(t, 48.85, *f.Location.Lat)
}

func TestHourlyErrors(t *testing.T) {
	svc := NewService(&stubHourly{}, stubAstro{}, nil, zap.NewNop())
	_, err := svc.Hourly(context.Background(), Location{City: "Paris"}, "UTC")
	assert.ErrorIs(t, err, ErrMissingLocation)

	lat, lon := 1.0, 1.0
	boom := errors.New("boom")
	svc = NewService(&stubHourly{err: boom}, stubAstro{}, nil, zap.NewNop())
	_, err = svc.Hourly(context.Background(), Location{Lat: &lat, Lon: &lon}, "UTC")
	assert.ErrorIs(t, err, boom)

	svc = NewService(&stubHourly{codes: hours(1)}, stubAstro{err: boom}, nil, zap.NewNop())
	_, err = svc.Hourly(context.Background(), Location{Lat: &lat, Lon: &lon}, "UTC")
	assert.ErrorIs(t, err, boom)

	svc = NewService(&stubHourly{}, stubAstro{sun: SunTimes{Sunrise: "6:00 AM", Sunset: "6:00 PM"}}, nil, zap.NewNop())
	_, err = svc.Hourly(context.Background(), Location{Lat: &lat, Lon: &lon}, "UTC")
	assert.ErrorIs(t, err, ErrNoForecast)
}

func TestConditionFromCode(t *testing.T) {
	assert.Equal(t, ConditionClear, ConditionFromCode(0))
	assert.Equal(t, ConditionCloudy, ConditionFromCode(2))
	assert.Equal(t, ConditionFog, ConditionFromCode(45))
	assert.Equal(t, ConditionSnow, ConditionFromCode(73))
	assert.Equal(t, ConditionStorm, ConditionFromCode(95))
	assert.Equal(t, ConditionUnknown, ConditionFromCode(40))
}
