package chart

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RMahshie/pmtview/pkg/models"
)

// ErrInvalidSizing is returned when the requested size leaves no plot area
var ErrInvalidSizing = errors.New("invalid chart sizing")

// WavelengthTitle is the horizontal axis title
const WavelengthTitle = "Wavelength (nm)"

const (
	msgNoSelection = "Select one or more PMTs to display their measurements."
	msgNoData      = "No measurements available for the selected PMTs."
)

// Sizing is the outer size of the chart and the padding around the plot area
type Sizing struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Padding float64 `json:"padding"`
}

// Validate checks that the sizing leaves a positive plot area
func (s Sizing) Validate() error {
	for _, v := range []float64{s.Width, s.Height, s.Padding} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: width, height and padding must be finite", ErrInvalidSizing)
		}
	}
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: width and height must be positive", ErrInvalidSizing)
	}
	if s.Padding < 0 || 2*s.Padding >= s.Width || 2*s.Padding >= s.Height {
		return fmt.Errorf("%w: padding %.0f leaves no plot area in %.0fx%.0f", ErrInvalidSizing, s.Padding, s.Width, s.Height)
	}
	return nil
}

// Line is a straight segment in pixel space
type Line struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Tick is an axis reference value with its pixel position and label
type Tick struct {
	Value    float64 `json:"value"`
	Position float64 `json:"position"`
	Label    string  `json:"label"`
}

// Vertex is one plotted point with its tooltip
type Vertex struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Wavelength float64 `json:"wavelength"`
	Value      float64 `json:"value"`
	Tooltip    string  `json:"tooltip"`
}

// SeriesPath is the polyline geometry of one source
type SeriesPath struct {
	SourceID string   `json:"source_id"`
	Color    string   `json:"color"`
	Vertices []Vertex `json:"vertices"`
}

// Points returns the vertices as an SVG polyline points attribute
func (p SeriesPath) Points() string {
	var b strings.Builder
	for i, v := range p.Vertices {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(v.X, 'f', 2, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(v.Y, 'f', 2, 64))
	}
	return b.String()
}

// Placeholder replaces the plot when there is nothing to draw
type Placeholder struct {
	Message string `json:"message"`
}

// Scene is the presentation-independent description of a rendered chart.
// Consumers draw GridLines and ticks first, then Series in order, then Axes.
type Scene struct {
	Width           float64           `json:"width"`
	Height          float64           `json:"height"`
	Metric          models.MetricKey  `json:"metric"`
	ActiveSelection []string          `json:"active_selection"`
	Colors          map[string]string `json:"colors"`
	Placeholder     *Placeholder      `json:"placeholder,omitempty"`
	XTitle          string            `json:"x_title,omitempty"`
	YTitle          string            `json:"y_title,omitempty"`
	XScale          *Scale            `json:"x_scale,omitempty"`
	YScale          *Scale            `json:"y_scale,omitempty"`
	XTicks          []Tick            `json:"x_ticks,omitempty"`
	YTicks          []Tick            `json:"y_ticks,omitempty"`
	GridLines       []Line            `json:"grid_lines,omitempty"`
	Series          []SeriesPath      `json:"series,omitempty"`
	Axes            []Line            `json:"axes,omitempty"`
}

// Render computes the scene for the selected sources and metric. It is a
// pure function of its arguments and never mutates points.
func Render(points []models.MeasurementPoint, selected []string, metric models.MetricKey, sizing Sizing) (*Scene, error) {
	if !metric.Valid() {
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownMetricKey, metric)
	}
	if err := sizing.Validate(); err != nil {
		return nil, err
	}

	active := ValidateSelection(points, selected)
	scene := &Scene{
		Width:           sizing.Width,
		Height:          sizing.Height,
		Metric:          metric,
		ActiveSelection: active,
		Colors:          AssignColors(points),
	}
	if len(active) == 0 {
		scene.Placeholder = &Placeholder{Message: msgNoSelection}
		return scene, nil
	}

	groups := plottable(GroupSeries(points, active), metric)
	var xs, ys []float64
	for _, g := range groups {
		for _, p := range g.Points {
			xs = append(xs, p.Wavelength)
			ys = append(ys, p.Metrics[metric])
		}
	}
	if len(xs) == 0 {
		scene.Placeholder = &Placeholder{Message: msgNoData}
		return scene, nil
	}

	xMin, xMax, _ := Extent(xs)
	yMin, yMax, _ := Extent(ys)

	left, right := sizing.Padding, sizing.Width-sizing.Padding
	top, bottom := sizing.Padding, sizing.Height-sizing.Padding
	xScale := NewScale(xMin, xMax, left, right)
	yScale := NewScale(yMin, yMax, bottom, top)

	scene.XTitle = WavelengthTitle
	scene.YTitle = metric.Title()
	scene.XScale = &xScale
	scene.YScale = &yScale

	for _, v := range Ticks(xMin, xMax) {
		x := xScale.Apply(v)
		scene.XTicks = append(scene.XTicks, Tick{Value: v, Position: x, Label: FormatXTick(v)})
		scene.GridLines = append(scene.GridLines, Line{X1: x, Y1: top, X2: x, Y2: bottom})
	}
	for _, v := range Ticks(yMin, yMax) {
		y := yScale.Apply(v)
		scene.YTicks = append(scene.YTicks, Tick{Value: v, Position: y, Label: FormatYTick(v)})
		scene.GridLines = append(scene.GridLines, Line{X1: left, Y1: y, X2: right, Y2: y})
	}

	for _, g := range groups {
		path := SeriesPath{
			SourceID: g.SourceID,
			Color:    scene.Colors[g.SourceID],
			Vertices: make([]Vertex, 0, len(g.Points)),
		}
		for _, p := range g.Points {
			value := p.Metrics[metric]
			path.Vertices = append(path.Vertices, Vertex{
				X:          xScale.Apply(p.Wavelength),
				Y:          yScale.Apply(value),
				Wavelength: p.Wavelength,
				Value:      value,
				Tooltip:    Tooltip(g.SourceID, p.Wavelength, metric, value),
			})
		}
		scene.Series = append(scene.Series, path)
	}

	scene.Axes = []Line{
		{X1: left, Y1: bottom, X2: right, Y2: bottom},
		{X1: left, Y1: top, X2: left, Y2: bottom},
	}
	return scene, nil
}

// plottable drops points that do not carry metric, and series left empty
func plottable(groups []Series, metric models.MetricKey) []Series {
	out := make([]Series, 0, len(groups))
	for _, g := range groups {
		pts := make([]models.MeasurementPoint, 0, len(g.Points))
		for _, p := range g.Points {
			if _, ok := p.Value(metric); ok {
				pts = append(pts, p)
			}
		}
		if len(pts) > 0 {
			out = append(out, Series{SourceID: g.SourceID, Points: pts})
		}
	}
	return out
}
