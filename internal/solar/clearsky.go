package solar

import (
	"math"
	"time"
)

const deg = math.Pi / 180

// CosZenith returns the cosine of the solar zenith angle at t for a point at
// lat/lon degrees, using the NOAA fractional-year approximations for the
// declination and equation of time.
func CosZenith(t time.Time, lat, lon float64) float64 {
	t = t.UTC()
	hour := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600

	gamma := 2 * math.Pi / 365 * (float64(t.YearDay()-1) + (hour-12)/24)

	eqTime := 229.18 * (0.000075 +
		0.001868*math.Cos(gamma) - 0.032077*math.Sin(gamma) -
		0.014615*math.Cos(2*gamma) - 0.040849*math.Sin(2*gamma))

	decl := 0.006918 -
		0.399912*math.Cos(gamma) + 0.070257*math.Sin(gamma) -
		0.006758*math.Cos(2*gamma) + 0.000907*math.Sin(2*gamma) -
		0.002697*math.Cos(3*gamma) + 0.00148*math.Sin(3*gamma)

	// True solar time in minutes.
	tst := hour*60 + eqTime + 4*lon
	hourAngle := (tst/4 - 180) * deg

	phi := lat * deg
	return math.Sin(phi)*math.Sin(decl) + math.Cos(phi)*math.Cos(decl)*math.Cos(hourAngle)
}

// HaurwitzGHI returns clear-sky global horizontal irradiance in W/m² for the
// given zenith cosine. The sun below the horizon yields zero.
func HaurwitzGHI(cosZ float64) float64 {
	if cosZ <= 0 {
		return 0
	}
	return 1098 * cosZ * math.Exp(-0.059/cosZ)
}
