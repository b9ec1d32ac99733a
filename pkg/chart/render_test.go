package chart

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/pmtview/pkg/models"
)

var testSizing = Sizing{Width: 600, Height: 300, Padding: 50}

func point(source string, wavelength float64, metrics map[models.MetricKey]float64) models.MeasurementPoint {
	return models.MeasurementPoint{SourceID: source, Wavelength: wavelength, Metrics: metrics}
}

func lightResponse(source string, wavelength, value float64) models.MeasurementPoint {
	return point(source, wavelength, map[models.MetricKey]float64{models.MetricLightResponse: value})
}

// singlePMT mirrors the default calibration run
func singlePMT() []models.MeasurementPoint {
	return []models.MeasurementPoint{
		lightResponse("ZK5024", 227.090, 2.52e-12),
		lightResponse("ZK5024", 205.988, 2.05e-12),
		lightResponse("ZK5024", 248.192, 2.74e-12),
		lightResponse("ZK5024", 216.541, 2.31e-12),
		lightResponse("ZK5024", 237.642, 2.66e-12),
	}
}

func TestRender_SingleSource(t *testing.T) {
	scene, err := Render(singlePMT(), []string{"ZK5024"}, models.MetricLightResponse, testSizing)
	require.NoError(t, err)
	require.Nil(t, scene.Placeholder)

	require.Len(t, scene.Series, 1)
	series := scene.Series[0]
	assert.Equal(t, "ZK5024", series.SourceID)
	assert.Equal(t, Palette[0], series.Color)
	require.Len(t, series.Vertices, 5)

	require.Len(t, scene.XTicks, 6)
	assert.Equal(t, 205.988, scene.XTicks[0].Value)
	assert.Equal(t, 248.192, scene.XTicks[5].Value)
	assert.Equal(t, "206.0", scene.XTicks[0].Label)
	assert.Equal(t, "248.2", scene.XTicks[5].Label)

	require.Len(t, scene.YTicks, 6)
	assert.Equal(t, 2.05e-12, scene.YTicks[0].Value)
	assert.Equal(t, 2.74e-12, scene.YTicks[5].Value)
	assert.Equal(t, "2.74e-12", scene.YTicks[5].Label)

	first, last := series.Vertices[0], series.Vertices[4]
	assert.InDelta(t, 50, first.X, 1e-9)
	assert.InDelta(t, 250, first.Y, 1e-9)
	assert.InDelta(t, 550, last.X, 1e-9)
	assert.InDelta(t, 50, last.Y, 1e-9)
	assert.Equal(t, "ZK5024: Wavelength=206.0nm, light_response=2.05e-12", first.Tooltip)

	for i := 1; i < len(series.Vertices); i++ {
		assert.Greater(t, series.Vertices[i].X, series.Vertices[i-1].X)
	}

	assert.Equal(t, WavelengthTitle, scene.XTitle)
	assert.Equal(t, "Light Response (A/W)", scene.YTitle)
	assert.Len(t, scene.GridLines, 12)
	assert.Len(t, scene.Axes, 2)
}

func TestRender_TwoSourcesShareCoordinateSystem(t *testing.T) {
	points := []models.MeasurementPoint{
		lightResponse("B", 400, 4e-12),
		lightResponse("A", 250, 2e-12),
		lightResponse("B", 300, 3e-12),
		lightResponse("A", 200, 1e-12),
		lightResponse("B", 350, 5e-12),
	}

	scene, err := Render(points, []string{"B", "A"}, models.MetricLightResponse, testSizing)
	require.NoError(t, err)
	require.Len(t, scene.Series, 2)

	// selection order is preserved
	assert.Equal(t, "B", scene.Series[0].SourceID)
	assert.Equal(t, "A", scene.Series[1].SourceID)

	// colors follow sorted ids, not selection order
	assert.Equal(t, Palette[1], scene.Series[0].Color)
	assert.Equal(t, Palette[0], scene.Series[1].Color)

	assert.Equal(t, 200.0, scene.XScale.DomainMin)
	assert.Equal(t, 400.0, scene.XScale.DomainMax)
	assert.Equal(t, 1e-12, scene.YScale.DomainMin)
	assert.Equal(t, 5e-12, scene.YScale.DomainMax)

	a := scene.Series[1].Vertices
	require.Len(t, a, 2)
	assert.InDelta(t, 50, a[0].X, 1e-9)
	assert.InDelta(t, 175, a[1].X, 1e-9)

	b := scene.Series[0].Vertices
	require.Len(t, b, 3)
	assert.Equal(t, []float64{300, 350, 400}, []float64{b[0].Wavelength, b[1].Wavelength, b[2].Wavelength})
	assert.InDelta(t, 550, b[2].X, 1e-9)
}

func TestRender_EmptySnapshot(t *testing.T) {
	scene, err := Render(nil, []string{"ZK5024"}, models.MetricLightResponse, testSizing)
	require.NoError(t, err)
	require.NotNil(t, scene.Placeholder)
	assert.NotEmpty(t, scene.Placeholder.Message)
	assert.Nil(t, scene.XScale)
	assert.Nil(t, scene.YScale)
	assert.Empty(t, scene.Series)
	assert.Empty(t, scene.ActiveSelection)
	assert.Equal(t, 600.0, scene.Width)
	assert.Equal(t, 300.0, scene.Height)
}

func TestRender_NoPointsCarryMetric(t *testing.T) {
	points := []models.MeasurementPoint{
		point("ZK5024", 210, map[models.MetricKey]float64{models.MetricCurrent: 1e-9}),
	}
	scene, err := Render(points, []string{"ZK5024"}, models.MetricIntensity, testSizing)
	require.NoError(t, err)
	require.NotNil(t, scene.Placeholder)
	assert.Equal(t, []string{"ZK5024"}, scene.ActiveSelection)
	assert.Nil(t, scene.XScale)
}

func TestRender_UnknownSelectionIsDropped(t *testing.T) {
	scene, err := Render(singlePMT(), []string{"GHOST", "ZK5024", "ZK5024"}, models.MetricLightResponse, testSizing)
	require.NoError(t, err)
	assert.Equal(t, []string{"ZK5024"}, scene.ActiveSelection)
	require.Len(t, scene.Series, 1)
	assert.Equal(t, "ZK5024", scene.Series[0].SourceID)
}

func TestRender_DegenerateWavelength(t *testing.T) {
	points := []models.MeasurementPoint{
		lightResponse("ZK5024", 400, 1e-12),
		lightResponse("ZK5024", 400, 3e-12),
		lightResponse("ZK5024", 400, 2e-12),
	}

	scene, err := Render(points, []string{"ZK5024"}, models.MetricLightResponse, testSizing)
	require.NoError(t, err)
	require.Len(t, scene.Series, 1)
	for _, v := range scene.Series[0].Vertices {
		assert.Equal(t, 300.0, v.X)
	}
	for _, tick := range scene.XTicks {
		assert.Equal(t, 300.0, tick.Position)
	}
}

func TestRender_DegenerateValues(t *testing.T) {
	points := []models.MeasurementPoint{
		lightResponse("ZK5024", 200, 2e-12),
		lightResponse("ZK5024", 300, 2e-12),
	}

	scene, err := Render(points, []string{"ZK5024"}, models.MetricLightResponse, testSizing)
	require.NoError(t, err)
	for _, v := range scene.Series[0].Vertices {
		assert.Equal(t, 150.0, v.Y)
	}
}

func TestRender_UnknownMetric(t *testing.T) {
	_, err := Render(singlePMT(), []string{"ZK5024"}, models.MetricKey("gain"), testSizing)
	assert.ErrorIs(t, err, models.ErrUnknownMetricKey)
}

func TestRender_InvalidSizing(t *testing.T) {
	tests := []Sizing{
		{Width: 0, Height: 300, Padding: 10},
		{Width: 600, Height: -1, Padding: 10},
		{Width: 100, Height: 300, Padding: 50},
		{Width: 600, Height: 300, Padding: -5},
		{Width: math.NaN(), Height: 300, Padding: 50},
		{Width: math.Inf(1), Height: 300, Padding: 50},
		{Width: 600, Height: math.Inf(1), Padding: 50},
		{Width: 600, Height: 300, Padding: math.NaN()},
	}
	for _, s := range tests {
		_, err := Render(singlePMT(), []string{"ZK5024"}, models.MetricLightResponse, s)
		assert.ErrorIs(t, err, ErrInvalidSizing, "sizing %+v", s)
	}
}

func TestRender_DoesNotMutateInput(t *testing.T) {
	points := singlePMT()
	before := fmt.Sprint(points)

	_, err := Render(points, []string{"ZK5024"}, models.MetricLightResponse, testSizing)
	require.NoError(t, err)
	assert.Equal(t, before, fmt.Sprint(points))
}

func TestRender_Repeatable(t *testing.T) {
	points := singlePMT()
	first, err := Render(points, []string{"ZK5024"}, models.MetricLightResponse, testSizing)
	require.NoError(t, err)
	second, err := Render(points, []string{"ZK5024"}, models.MetricLightResponse, testSizing)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
