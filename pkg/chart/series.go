package chart

import (
	"sort"

	"github.com/RMahshie/pmtview/pkg/models"
)

// Palette is the fixed series palette. Sources beyond its length wrap around.
var Palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// Series is the wavelength-sorted run of points from a single source
type Series struct {
	SourceID string
	Points   []models.MeasurementPoint
}

// SourceIDs returns the sorted distinct source ids present in points
func SourceIDs(points []models.MeasurementPoint) []string {
	seen := make(map[string]struct{})
	ids := make([]string, 0)
	for _, p := range points {
		if _, ok := seen[p.SourceID]; ok {
			continue
		}
		seen[p.SourceID] = struct{}{}
		ids = append(ids, p.SourceID)
	}
	sort.Strings(ids)
	return ids
}

// AssignColors maps every source in the full snapshot to a palette color by
// its index in sorted order. The result does not depend on any selection.
func AssignColors(points []models.MeasurementPoint) map[string]string {
	ids := SourceIDs(points)
	colors := make(map[string]string, len(ids))
	for i, id := range ids {
		colors[id] = Palette[i%len(Palette)]
	}
	return colors
}

// ValidateSelection drops ids that are not present in points, and
// duplicates, keeping the order of the selection.
func ValidateSelection(points []models.MeasurementPoint, selected []string) []string {
	present := make(map[string]struct{})
	for _, p := range points {
		present[p.SourceID] = struct{}{}
	}
	active := make([]string, 0, len(selected))
	seen := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		if _, ok := present[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		active = append(active, id)
	}
	return active
}

// GroupSeries partitions points by source, keeps only the selected sources
// that exist in points, and sorts each partition by ascending wavelength.
// Series are returned in selection order.
func GroupSeries(points []models.MeasurementPoint, selected []string) []Series {
	active := ValidateSelection(points, selected)
	bySource := make(map[string][]models.MeasurementPoint, len(active))
	for _, id := range active {
		bySource[id] = nil
	}
	for _, p := range points {
		if _, ok := bySource[p.SourceID]; ok {
			bySource[p.SourceID] = append(bySource[p.SourceID], p)
		}
	}

	series := make([]Series, 0, len(active))
	for _, id := range active {
		pts := bySource[id]
		sort.SliceStable(pts, func(i, j int) bool {
			return pts[i].Wavelength < pts[j].Wavelength
		})
		series = append(series, Series{SourceID: id, Points: pts})
	}
	return series
}
