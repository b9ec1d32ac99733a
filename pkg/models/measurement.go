package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrUnknownMetricKey is returned when a metric name is not part of the closed enumeration
var ErrUnknownMetricKey = errors.New("unknown metric key")

// MetricKey identifies a plottable dependent variable
type MetricKey string

const (
	MetricCurrent       MetricKey = "current"
	MetricIntensity     MetricKey = "intensity"
	MetricLightResponse MetricKey = "light_response"
)

type metricInfo struct {
	label string
	unit  string
}

var metricCatalog = map[MetricKey]metricInfo{
	MetricCurrent:       {label: "Current", unit: "A"},
	MetricIntensity:     {label: "Intensity", unit: "W"},
	MetricLightResponse: {label: "Light Response", unit: "A/W"},
}

// MetricKeys returns every known metric in display order
func MetricKeys() []MetricKey {
	return []MetricKey{MetricCurrent, MetricIntensity, MetricLightResponse}
}

// ParseMetricKey validates a metric name against the enumeration
func ParseMetricKey(s string) (MetricKey, error) {
	k := MetricKey(s)
	if _, ok := metricCatalog[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMetricKey, s)
	}
	return k, nil
}

// Valid reports whether the key belongs to the enumeration
func (k MetricKey) Valid() bool {
	_, ok := metricCatalog[k]
	return ok
}

// Label returns the display label, e.g. "Light Response"
func (k MetricKey) Label() string {
	return metricCatalog[k].label
}

// Unit returns the unit string, e.g. "A/W"
func (k MetricKey) Unit() string {
	return metricCatalog[k].unit
}

// Title returns the axis title, e.g. "Light Response (A/W)"
func (k MetricKey) Title() string {
	info, ok := metricCatalog[k]
	if !ok {
		return string(k)
	}
	return fmt.Sprintf("%s (%s)", info.label, info.unit)
}

// MeasurementPoint represents one calibration observation of a PMT
type MeasurementPoint struct {
	ID         string                `json:"id,omitempty" doc:"Measurement identifier"`
	SourceID   string                `json:"source_id" minLength:"1" doc:"PMT serial / run identifier"`
	Wavelength float64               `json:"wavelength" doc:"Wavelength in nanometers"`
	Metrics    map[MetricKey]float64 `json:"metrics" doc:"Measured values keyed by metric"`
	CreatedAt  time.Time             `json:"created_at,omitempty" doc:"When the measurement was stored"`
}

// Value returns the value of a metric and whether the point carries it
func (p MeasurementPoint) Value(k MetricKey) (float64, bool) {
	v, ok := p.Metrics[k]
	return v, ok
}

// Validate checks the invariants a point must satisfy before it is stored
func (p MeasurementPoint) Validate() error {
	if p.SourceID == "" {
		return errors.New("source_id is required")
	}
	if math.IsNaN(p.Wavelength) || math.IsInf(p.Wavelength, 0) {
		return fmt.Errorf("source %s: wavelength must be finite", p.SourceID)
	}
	if len(p.Metrics) == 0 {
		return fmt.Errorf("source %s: at least one metric value is required", p.SourceID)
	}
	for k, v := range p.Metrics {
		if !k.Valid() {
			return fmt.Errorf("source %s: %w: %q", p.SourceID, ErrUnknownMetricKey, k)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("source %s: %s must be finite", p.SourceID, k)
		}
	}
	return nil
}
