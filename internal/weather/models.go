package weather

import (
	"errors"
	"fmt"
	"time"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionFog     Condition = "fog"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
)

// HoursAhead is how many hourly entries a forecast carries.
const HoursAhead = 24

// sunTimeLayout is the 12-hour clock format used for sunrise and sunset.
const sunTimeLayout = "3:04 PM"

var (
	ErrMissingLocation = errors.New("coordinates or city are required")
	ErrInvalidSunTimes = errors.New("invalid sunrise or sunset")
	ErrNoForecast      = errors.New("no hourly forecast available")
)

// Location is either a coordinate pair or a city/country to be geocoded.
type Location struct {
	City    string   `json:"city"`
	Country string   `json:"country"`
	Lat     *float64 `json:"latitude,omitempty"`
	Lon     *float64 `json:"longitude,omitempty"`
}

// Key returns a canonical string key for the location.
func (l Location) Key() string {
	if l.HasCoordinates() {
		return fmt.Sprintf("%.4f,%.4f", *l.Lat, *l.Lon)
	}
	return l.City + ":" + l.Country
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lon != nil
}

// HourlyCode is one forecast hour. Time is local wall-clock time at the location.
type HourlyCode struct {
	Time time.Time
	Code int
}

// SunTimes holds sunrise and sunset as reported by the astronomy feed,
// e.g. "07:15 AM".
type SunTimes struct {
	Sunrise string `json:"sunrise"`
	Sunset  string `json:"sunset"`
}

// minutes returns sunrise and sunset as minutes after local midnight.
func (s SunTimes) minutes() (rise, set int, err error) {
	r, err := time.Parse(sunTimeLayout, s.Sunrise)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: sunrise %q", ErrInvalidSunTimes, s.Sunrise)
	}
	t, err := time.Parse(sunTimeLayout, s.Sunset)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: sunset %q", ErrInvalidSunTimes, s.Sunset)
	}
	return r.Hour()*60 + r.Minute(), t.Hour()*60 + t.Minute(), nil
}

// HourlyForecast is one labelled forecast hour.
type HourlyForecast struct {
	Time      string    `json:"time"`
	Code      int       `json:"code"`
	Condition Condition `json:"condition"`
	Daylight  bool      `json:"daylight"`
	Image     string    `json:"image"`
}

// Forecast is the next 24 hours for a location.
type Forecast struct {
	Location Location         `json:"location"`
	Sun      SunTimes         `json:"sun"`
	Hours    []HourlyForecast `json:"hours"`
}

// Images returns the image label of every hour, in order.
func (f Forecast) Images() []string {
	out := make([]string, len(f.Hours))
	for i, h := range f.Hours {
		out[i] = h.Image
	}
	return out
}

// ConditionFromCode maps a WMO weather code to a Condition.
func ConditionFromCode(code int) Condition {
	switch {
	case code == 0:
		return ConditionClear
	case code >= 1 && code <= 3:
		return ConditionCloudy
	case code == 45 || code == 48:
		return ConditionFog
	case (code >= 51 && code <= 67) || (code >= 80 && code <= 82):
		return ConditionRain
	case (code >= 71 && code <= 77) || code == 85 || code == 86:
		return ConditionSnow
	case code >= 95:
		return ConditionStorm
	default:
		return ConditionUnknown
	}
}
