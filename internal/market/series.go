package market

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// HoursPerDay is the length of a fixed-fee price series.
const HoursPerDay = 24

// Mode selects where the price series comes from.
type Mode string

const (
	ModeFixed  Mode = "FIXED"
	ModeMarket Mode = "MARKET"
)

var (
	ErrLengthMismatch    = errors.New("price and generation series must have the same length")
	ErrInvalidFeeType    = errors.New("not a valid fee type")
	ErrInvalidFixedValue = errors.New("fixed value must be a number")
	ErrNoPricePoints     = errors.New("no price points")
	ErrInvalidPosition   = errors.New("price point position must be positive")
)

// PricePoint is one entry of a day-ahead price publication. Position is 1-based.
type PricePoint struct {
	Position int     `json:"position"`
	Price    float64 `json:"price"`
}

// GenerationMix is the latest generation per production type plus the
// resulting emissions.
type GenerationMix struct {
	Generation map[string]float64 `json:"data"`
	CO2        float64            `json:"co2"`
}

// Revenue multiplies price and generation hour by hour.
func Revenue(price, generation []float64) ([]float64, error) {
	if len(price) != len(generation) {
		return nil, fmt.Errorf("%w: %d prices, %d generation values", ErrLengthMismatch, len(price), len(generation))
	}
	out := make([]float64, len(price))
	for i := range price {
		out[i] = price[i] * generation[i]
	}
	return out, nil
}

// FixedSeries parses raw and repeats it for every hour of the day.
func FixedSeries(raw string) ([]float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFixedValue, raw)
	}
	out := make([]float64, HoursPerDay)
	for i := range out {
		out[i] = v
	}
	return out, nil
}

// GapFill expands sparse price points into a dense 0-based series sized to
// the highest position.
//
// While inserting, every empty slot before the current position takes the
// previous point's price once one exists. A final sweep fills anything still
// empty with the last price inserted.
func GapFill(points []PricePoint) ([]float64, error) {
	if len(points) == 0 {
		return nil, ErrNoPricePoints
	}

	size := 0
	for _, p := range points {
		if p.Position < 1 {
			return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, p.Position)
		}
		if p.Position > size {
			size = p.Position
		}
	}

	out := make([]float64, size)
	filled := make([]bool, size)

	var prev float64
	hasPrev := false
	for _, p := range points {
		idx := p.Position - 1
		if hasPrev && idx > 0 {
			for i := 0; i < idx; i++ {
				if !filled[i] {
					out[i] = prev
					filled[i] = true
				}
			}
		}
		out[idx] = p.Price
		filled[idx] = true
		prev = p.Price
		hasPrev = true
	}

	for i := range out {
		if !filled[i] {
			out[i] = prev
		}
	}
	return out, nil
}

// ScaleMarket converts €/MWh to €/kWh rounded to 5 decimals.
func ScaleMarket(series []float64) []float64 {
	out := make([]float64, len(series))
	for i, v := range series {
		out[i] = Round5(v / 1000)
	}
	return out
}

// Round5 rounds v to 5 decimal places.
func Round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}
