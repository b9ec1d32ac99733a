package models

import (
	"time"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Body struct {
		Status   string    `json:"status" example:"healthy" doc:"Service health status"`
		Version  string    `json:"version" example:"1.0.0" doc:"API version"`
		Time     time.Time `json:"time" doc:"Current server time"`
		Snapshot uint64    `json:"snapshot_version" doc:"Version of the in-memory measurement snapshot"`
	}
}

// MetricInfo describes one plottable metric
type MetricInfo struct {
	Key   MetricKey `json:"key" doc:"Metric key"`
	Label string    `json:"label" doc:"Display label"`
	Unit  string    `json:"unit" doc:"Unit string"`
}

// ListMetricsResponse lists the metric catalog
type ListMetricsResponse struct {
	Body struct {
		Metrics []MetricInfo `json:"metrics" doc:"Plottable metrics"`
	}
}

// SourceInfo describes one PMT present in the snapshot
type SourceInfo struct {
	ID     string `json:"id" doc:"PMT serial / run identifier"`
	Color  string `json:"color" doc:"Assigned series color"`
	Points int    `json:"points" doc:"Number of measurements"`
}

// ListSourcesResponse lists the sources in the current snapshot
type ListSourcesResponse struct {
	Body struct {
		Sources []SourceInfo `json:"sources" doc:"Sources sorted by id"`
	}
}

// ListMeasurementsRequest filters the measurement listing
type ListMeasurementsRequest struct {
	Source string `query:"source" doc:"Only return measurements of this source"`
}

// ListMeasurementsResponse returns measurements from the current snapshot
type ListMeasurementsResponse struct {
	Body struct {
		Version      uint64             `json:"version" doc:"Snapshot version"`
		Measurements []MeasurementPoint `json:"measurements" doc:"Measurements"`
	}
}

// CreateMeasurementsRequest represents a batch of new measurements
type CreateMeasurementsRequest struct {
	Body struct {
		Measurements []MeasurementPoint `json:"measurements" minItems:"1" maxItems:"10000" required:"true" doc:"Measurements to store"`
	}
}

// CreateMeasurementsResponse confirms a stored batch
type CreateMeasurementsResponse struct {
	Body struct {
		Created int    `json:"created" doc:"Number of measurements stored"`
		Version uint64 `json:"version" doc:"Snapshot version after the insert"`
	}
}

// DeleteSourceRequest removes every measurement of a source
type DeleteSourceRequest struct {
	ID string `path:"id" doc:"Source ID"`
}

// DeleteSourceResponse reports the removal
type DeleteSourceResponse struct {
	Body struct {
		Deleted int64 `json:"deleted" doc:"Number of measurements removed"`
	}
}

// ChartQuery carries the chart selection and sizing as query parameters
type ChartQuery struct {
	Sources []string `query:"sources" doc:"Selected source ids, in display order"`
	Metric  string   `query:"metric" default:"light_response" doc:"Metric to plot"`
	Width   float64  `query:"width" default:"0" doc:"Chart width in pixels (0 uses the configured default)"`
	Height  float64  `query:"height" default:"0" doc:"Chart height in pixels (0 uses the configured default)"`
	Padding float64  `query:"padding" default:"-1" doc:"Padding in pixels (-1 uses the configured default)"`
}

// ChartSVGRequest requests an SVG rendering
type ChartSVGRequest struct {
	ChartQuery
	IfNoneMatch string `header:"If-None-Match" doc:"ETag of a previously fetched rendering"`
}

// ChartSVGResponse carries a rendered SVG document
type ChartSVGResponse struct {
	ContentType  string `header:"Content-Type"`
	ETag         string `header:"ETag"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// Selection is the active chart selection of a session
type Selection struct {
	SessionID string    `json:"session_id" doc:"Client session identifier"`
	Sources   []string  `json:"sources" doc:"Active sources, validated against the snapshot"`
	Metric    MetricKey `json:"metric" doc:"Selected metric"`
	UpdatedAt time.Time `json:"updated_at" doc:"Last change of the selection"`
}

// PutSelectionRequest replaces a session's selection
type PutSelectionRequest struct {
	ID   string `path:"id" minLength:"10" maxLength:"50" doc:"Client session identifier"`
	Body struct {
		Sources []string `json:"sources" required:"true" doc:"Requested sources"`
		Metric  string   `json:"metric" required:"true" doc:"Metric to plot"`
	}
}

// GetSelectionRequest fetches a session's selection
type GetSelectionRequest struct {
	ID string `path:"id" minLength:"10" maxLength:"50" doc:"Client session identifier"`
}

// SelectionResponse returns a session's selection
type SelectionResponse struct {
	Body *Selection
}

// SessionChartRequest renders the chart for a session's selection
type SessionChartRequest struct {
	ID          string  `path:"id" minLength:"10" maxLength:"50" doc:"Client session identifier"`
	Width       float64 `query:"width" default:"0" doc:"Chart width in pixels (0 uses the configured default)"`
	Height      float64 `query:"height" default:"0" doc:"Chart height in pixels (0 uses the configured default)"`
	Padding     float64 `query:"padding" default:"-1" doc:"Padding in pixels (-1 uses the configured default)"`
	IfNoneMatch string  `header:"If-None-Match" doc:"ETag of a previously fetched rendering"`
}

// ExportChartRequest renders a chart and stores it in object storage
type ExportChartRequest struct {
	Body struct {
		Sources []string `json:"sources" required:"true" doc:"Selected source ids"`
		Metric  string   `json:"metric" required:"true" doc:"Metric to plot"`
		Width   float64  `json:"width,omitempty" doc:"Chart width in pixels"`
		Height  float64  `json:"height,omitempty" doc:"Chart height in pixels"`
		Padding *float64 `json:"padding,omitempty" doc:"Padding in pixels"`
		Format  string   `json:"format,omitempty" enum:"svg,json" doc:"Export encoding: the SVG document or the scene JSON (default svg)"`
	}
}

// ExportChartResponse returns where the exported chart can be downloaded
type ExportChartResponse struct {
	Body struct {
		Name        string `json:"name" doc:"Export name, usable with /api/charts/{name}"`
		Key         string `json:"key" doc:"Object key of the exported chart"`
		DownloadURL string `json:"download_url" doc:"Pre-signed download URL"`
		ExpiresIn   int    `json:"expires_in" doc:"URL expiration time in seconds"`
	}
}

// ChartFileRequest identifies a previously exported chart
type ChartFileRequest struct {
	Name string `path:"name" maxLength:"64" doc:"Export name as returned by the export endpoint"`
}

// ChartFileResponse streams a previously exported chart
type ChartFileResponse struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}
