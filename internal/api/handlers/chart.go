package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/pmtview/internal/render"
	"github.com/RMahshie/pmtview/pkg/chart"
	"github.com/RMahshie/pmtview/pkg/models"
)

// ChartSceneResponse returns a rendered scene description
type ChartSceneResponse struct {
	Body *chart.Scene
}

// ChartHandler handles chart rendering requests
type ChartHandler struct {
	render    render.Service
	snapshots render.SnapshotSource
	defaults  chart.Sizing
}

// NewChartHandler creates a new chart handler
func NewChartHandler(renderSvc render.Service, snapshots render.SnapshotSource, defaults chart.Sizing) *ChartHandler {
	return &ChartHandler{
		render:    renderSvc,
		snapshots: snapshots,
		defaults:  defaults,
	}
}

// ListMetrics returns the metric catalog
func (h *ChartHandler) ListMetrics(ctx context.Context, _ *struct{}) (*models.ListMetricsResponse, error) {
	resp := &models.ListMetricsResponse{}
	for _, k := range models.MetricKeys() {
		resp.Body.Metrics = append(resp.Body.Metrics, models.MetricInfo{Key: k, Label: k.Label(), Unit: k.Unit()})
	}
	return resp, nil
}

// ListSources returns the sources of the current snapshot with their colors
func (h *ChartHandler) ListSources(ctx context.Context, _ *struct{}) (*models.ListSourcesResponse, error) {
	snap := h.snapshots.Snapshot()
	colors := chart.AssignColors(snap.Points)
	counts := make(map[string]int, len(colors))
	for _, p := range snap.Points {
		counts[p.SourceID]++
	}

	resp := &models.ListSourcesResponse{}
	resp.Body.Sources = make([]models.SourceInfo, 0, len(colors))
	for _, id := range chart.SourceIDs(snap.Points) {
		resp.Body.Sources = append(resp.Body.Sources, models.SourceInfo{ID: id, Color: colors[id], Points: counts[id]})
	}
	return resp, nil
}

// GetScene renders the chart as a scene description
func (h *ChartHandler) GetScene(ctx context.Context, req *models.ChartQuery) (*ChartSceneResponse, error) {
	scene, err := h.render.Scene(ctx, h.request(req))
	if err != nil {
		return nil, renderError(err)
	}
	return &ChartSceneResponse{Body: scene}, nil
}

// GetSVG renders the chart as an SVG document
func (h *ChartHandler) GetSVG(ctx context.Context, req *models.ChartSVGRequest) (*models.ChartSVGResponse, error) {
	return svgResponse(ctx, h.render, h.request(&req.ChartQuery), req.IfNoneMatch)
}

// ExportChart renders the chart and stores it in object storage
func (h *ChartHandler) ExportChart(ctx context.Context, req *models.ExportChartRequest) (*models.ExportChartResponse, error) {
	padding := -1.0
	if req.Body.Padding != nil {
		padding = *req.Body.Padding
	}
	format, err := render.ParseFormat(req.Body.Format)
	if err != nil {
		return nil, renderError(err)
	}
	out, err := h.render.Export(ctx, render.Request{
		Sources: req.Body.Sources,
		Metric:  req.Body.Metric,
		Sizing:  resolveSizing(h.defaults, req.Body.Width, req.Body.Height, padding),
	}, format)
	if err != nil {
		return nil, renderError(err)
	}

	resp := &models.ExportChartResponse{}
	resp.Body.Name = out.Name
	resp.Body.Key = out.Key
	resp.Body.DownloadURL = out.DownloadURL
	resp.Body.ExpiresIn = int(out.ExpiresIn.Seconds())
	return resp, nil
}

// DownloadChart streams a previously exported chart
func (h *ChartHandler) DownloadChart(ctx context.Context, req *models.ChartFileRequest) (*models.ChartFileResponse, error) {
	out, err := h.render.Download(ctx, req.Name)
	if err != nil {
		return nil, renderError(err)
	}
	return &models.ChartFileResponse{ContentType: out.ContentType, Body: out.Data}, nil
}

// DeleteChart removes a previously exported chart
func (h *ChartHandler) DeleteChart(ctx context.Context, req *models.ChartFileRequest) (*struct{}, error) {
	if err := h.render.DeleteExport(ctx, req.Name); err != nil {
		return nil, renderError(err)
	}
	return nil, nil
}

func (h *ChartHandler) request(q *models.ChartQuery) render.Request {
	return render.Request{
		Sources: q.Sources,
		Metric:  q.Metric,
		Sizing:  resolveSizing(h.defaults, q.Width, q.Height, q.Padding),
	}
}

func svgResponse(ctx context.Context, svc render.Service, req render.Request, ifNoneMatch string) (*models.ChartSVGResponse, error) {
	out, err := svc.SVG(ctx, req)
	if err != nil {
		return nil, renderError(err)
	}
	if ifNoneMatch != "" && ifNoneMatch == out.ETag {
		return nil, huma.Status304NotModified()
	}
	return &models.ChartSVGResponse{
		ContentType:  "image/svg+xml",
		ETag:         out.ETag,
		CacheControl: "no-cache",
		Body:         out.Data,
	}, nil
}

// resolveSizing fills unset dimensions from defaults. A width or height of
// zero and a negative padding mean "unset".
func resolveSizing(defaults chart.Sizing, width, height, padding float64) chart.Sizing {
	s := defaults
	if width != 0 {
		s.Width = width
	}
	if height != 0 {
		s.Height = height
	}
	if padding >= 0 {
		s.Padding = padding
	}
	return s
}

// renderError translates render failures to API errors
func renderError(err error) error {
	switch {
	case errors.Is(err, models.ErrUnknownMetricKey):
		return huma.Error400BadRequest("Unknown metric", err)
	case errors.Is(err, chart.ErrInvalidSizing):
		return huma.Error400BadRequest("Invalid chart size", err)
	case errors.Is(err, render.ErrUnsupportedFormat):
		return huma.Error400BadRequest("Unsupported export format", err)
	case errors.Is(err, render.ErrExportNotFound):
		return huma.Error404NotFound("Exported chart not found", err)
	case errors.Is(err, render.ErrExportDisabled):
		return huma.Error503ServiceUnavailable("Chart export is not configured", err)
	default:
		log.Error().Err(err).Msg("Chart rendering failed")
		return huma.Error500InternalServerError("Failed to render chart", err)
	}
}
