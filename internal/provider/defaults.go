package provider

import "github.com/RMahshie/pmtview/pkg/models"

// DefaultSourceID is the PMT of the bundled calibration run
const DefaultSourceID = "ZK5024"

// DefaultDataset returns the calibration run written to an empty store.
// Light response is the anode current per watt of incident light.
func DefaultDataset() []models.MeasurementPoint {
	rows := []struct {
		wavelength, current, intensity float64
	}{
		{205.988, 2.460e-18, 1.20e-6},
		{216.541, 3.003e-18, 1.30e-6},
		{227.090, 3.528e-18, 1.40e-6},
		{237.642, 3.990e-18, 1.50e-6},
		{248.192, 4.384e-18, 1.60e-6},
	}

	points := make([]models.MeasurementPoint, 0, len(rows))
	for _, r := range rows {
		points = append(points, models.MeasurementPoint{
			SourceID:   DefaultSourceID,
			Wavelength: r.wavelength,
			Metrics: map[models.MetricKey]float64{
				models.MetricCurrent:       r.current,
				models.MetricIntensity:     r.intensity,
				models.MetricLightResponse: r.current / r.intensity,
			},
		})
	}
	return points
}
