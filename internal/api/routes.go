package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RMahshie/pmtview/internal/api/handlers"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(api huma.API, measurements *handlers.MeasurementHandler, charts *handlers.ChartHandler, sessions *handlers.SessionHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service",
	}, measurements.Health)

	// Measurements
	huma.Register(api, huma.Operation{
		OperationID: "listMeasurements",
		Method:      http.MethodGet,
		Path:        "/api/measurements",
		Summary:     "List measurements",
		Description: "Returns the measurements of the current snapshot, optionally for one source",
		Tags:        []string{"Measurements"},
	}, measurements.ListMeasurements)

	huma.Register(api, huma.Operation{
		OperationID: "createMeasurements",
		Method:      http.MethodPost,
		Path:        "/api/measurements",
		Summary:     "Store measurements",
		Description: "Validates and stores a batch of measurements",
		Tags:        []string{"Measurements"},
	}, measurements.CreateMeasurements)

	huma.Register(api, huma.Operation{
		OperationID: "deleteSource",
		Method:      http.MethodDelete,
		Path:        "/api/sources/{id}",
		Summary:     "Delete a source",
		Description: "Removes every measurement of a source",
		Tags:        []string{"Measurements"},
	}, measurements.DeleteSource)

	// Charts
	huma.Register(api, huma.Operation{
		OperationID: "listMetrics",
		Method:      http.MethodGet,
		Path:        "/api/metrics",
		Summary:     "List metrics",
		Description: "Returns the plottable metrics with labels and units",
		Tags:        []string{"Charts"},
	}, charts.ListMetrics)

	huma.Register(api, huma.Operation{
		OperationID: "listSources",
		Method:      http.MethodGet,
		Path:        "/api/sources",
		Summary:     "List sources",
		Description: "Returns the sources of the current snapshot with their series colors",
		Tags:        []string{"Charts"},
	}, charts.ListSources)

	huma.Register(api, huma.Operation{
		OperationID: "getChartScene",
		Method:      http.MethodGet,
		Path:        "/api/chart",
		Summary:     "Render chart scene",
		Description: "Returns the laid out chart as JSON",
		Tags:        []string{"Charts"},
	}, charts.GetScene)

	huma.Register(api, huma.Operation{
		OperationID: "getChartSVG",
		Method:      http.MethodGet,
		Path:        "/api/chart.svg",
		Summary:     "Render chart SVG",
		Description: "Returns the chart as an SVG document",
		Tags:        []string{"Charts"},
	}, charts.GetSVG)

	huma.Register(api, huma.Operation{
		OperationID: "exportChart",
		Method:      http.MethodPost,
		Path:        "/api/charts/export",
		Summary:     "Export chart",
		Description: "Renders the chart, stores it in object storage and returns a download URL",
		Tags:        []string{"Charts"},
	}, charts.ExportChart)

	huma.Register(api, huma.Operation{
		OperationID: "downloadChart",
		Method:      http.MethodGet,
		Path:        "/api/charts/{name}",
		Summary:     "Download exported chart",
		Description: "Streams a previously exported chart from object storage",
		Tags:        []string{"Charts"},
	}, charts.DownloadChart)

	huma.Register(api, huma.Operation{
		OperationID:   "deleteChart",
		Method:        http.MethodDelete,
		Path:          "/api/charts/{name}",
		Summary:       "Delete exported chart",
		Description:   "Removes a previously exported chart from object storage",
		Tags:          []string{"Charts"},
		DefaultStatus: http.StatusNoContent,
	}, charts.DeleteChart)

	// Sessions
	huma.Register(api, huma.Operation{
		OperationID: "putSelection",
		Method:      http.MethodPut,
		Path:        "/api/sessions/{id}/selection",
		Summary:     "Set selection",
		Description: "Replaces the chart selection of a session",
		Tags:        []string{"Sessions"},
	}, sessions.PutSelection)

	huma.Register(api, huma.Operation{
		OperationID: "getSelection",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{id}/selection",
		Summary:     "Get selection",
		Description: "Returns the chart selection of a session",
		Tags:        []string{"Sessions"},
	}, sessions.GetSelection)

	huma.Register(api, huma.Operation{
		OperationID: "getSessionChartSVG",
		Method:      http.MethodGet,
		Path:        "/api/sessions/{id}/chart.svg",
		Summary:     "Render session chart",
		Description: "Returns the SVG chart of a session's selection",
		Tags:        []string{"Sessions"},
	}, sessions.GetChartSVG)
}

// MountMetrics exposes the prometheus registry on /metrics
func MountMetrics(router chi.Router, gatherer prometheus.Gatherer) {
	router.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
