package chart

import (
	"fmt"

	"github.com/RMahshie/pmtview/pkg/models"
)

// FormatXTick formats a wavelength tick in fixed-point notation
func FormatXTick(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// FormatYTick formats a metric tick in scientific notation with 3 significant digits
func FormatYTick(v float64) string {
	return fmt.Sprintf("%.2e", v)
}

// Tooltip formats the hover text of a single vertex
func Tooltip(sourceID string, wavelength float64, metric models.MetricKey, value float64) string {
	return fmt.Sprintf("%s: Wavelength=%.1fnm, %s=%.2e", sourceID, wavelength, metric, value)
}
