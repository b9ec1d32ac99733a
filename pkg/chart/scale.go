package chart

import "errors"

// TickCount is the number of ticks generated per axis, endpoints included
const TickCount = 6

// ErrEmptyDataset is returned when there is nothing to compute an extent from
var ErrEmptyDataset = errors.New("empty dataset")

// Extent returns the minimum and maximum of values
func Extent(values []float64) (float64, float64, error) {
	if len(values) == 0 {
		return 0, 0, ErrEmptyDataset
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, nil
}

// Scale is a linear mapping from a data domain to a pixel range.
// For a vertical axis pass the range swapped so larger values render higher.
type Scale struct {
	DomainMin float64 `json:"domain_min"`
	DomainMax float64 `json:"domain_max"`
	RangeMin  float64 `json:"range_min"`
	RangeMax  float64 `json:"range_max"`
}

// NewScale builds a linear scale
func NewScale(domainMin, domainMax, rangeMin, rangeMax float64) Scale {
	return Scale{
		DomainMin: domainMin,
		DomainMax: domainMax,
		RangeMin:  rangeMin,
		RangeMax:  rangeMax,
	}
}

// Degenerate reports whether the domain has zero width
func (s Scale) Degenerate() bool {
	return s.DomainMax == s.DomainMin
}

// Apply maps v into the pixel range. A degenerate domain maps everything
// to the middle of the range.
func (s Scale) Apply(v float64) float64 {
	if s.Degenerate() {
		return (s.RangeMin + s.RangeMax) / 2
	}
	return s.RangeMin + (s.RangeMax-s.RangeMin)*(v-s.DomainMin)/(s.DomainMax-s.DomainMin)
}

// Ticks returns TickCount evenly spaced values from lo to hi inclusive.
// Values are not rounded to "nice" numbers.
func Ticks(lo, hi float64) []float64 {
	ticks := make([]float64, TickCount)
	for k := 0; k < TickCount; k++ {
		ticks[k] = lo + float64(k)/float64(TickCount-1)*(hi-lo)
	}
	// pin the last tick so float error never leaves it short of hi
	ticks[TickCount-1] = hi
	return ticks
}
