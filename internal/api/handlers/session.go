package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/RMahshie/pmtview/internal/render"
	"github.com/RMahshie/pmtview/internal/session"
	"github.com/RMahshie/pmtview/pkg/chart"
	"github.com/RMahshie/pmtview/pkg/models"
)

// SessionHandler handles per-session selection state
type SessionHandler struct {
	sessions  *session.Store
	snapshots render.SnapshotSource
	render    render.Service
	defaults  chart.Sizing
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions *session.Store, snapshots render.SnapshotSource, renderSvc render.Service, defaults chart.Sizing) *SessionHandler {
	return &SessionHandler{
		sessions:  sessions,
		snapshots: snapshots,
		render:    renderSvc,
		defaults:  defaults,
	}
}

// PutSelection replaces the selection of a session
func (h *SessionHandler) PutSelection(ctx context.Context, req *models.PutSelectionRequest) (*models.SelectionResponse, error) {
	snap := h.snapshots.Snapshot()
	sel, err := h.sessions.Select(req.ID, req.Body.Sources, req.Body.Metric, snap.Points)
	if err != nil {
		return nil, huma.Error400BadRequest("Unknown metric", err)
	}
	return &models.SelectionResponse{Body: &sel}, nil
}

// GetSelection returns the selection of a session
func (h *SessionHandler) GetSelection(ctx context.Context, req *models.GetSelectionRequest) (*models.SelectionResponse, error) {
	sel, err := h.sessions.Get(req.ID)
	if err != nil {
		return nil, sessionError(err)
	}
	return &models.SelectionResponse{Body: &sel}, nil
}

// GetChartSVG renders the chart for the session's selection
func (h *SessionHandler) GetChartSVG(ctx context.Context, req *models.SessionChartRequest) (*models.ChartSVGResponse, error) {
	sel, err := h.sessions.Get(req.ID)
	if err != nil {
		return nil, sessionError(err)
	}
	return svgResponse(ctx, h.render, render.Request{
		Sources: sel.Sources,
		Metric:  string(sel.Metric),
		Sizing:  resolveSizing(h.defaults, req.Width, req.Height, req.Padding),
	}, req.IfNoneMatch)
}

func sessionError(err error) error {
	if errors.Is(err, session.ErrNotFound) {
		return huma.Error404NotFound("Session has no selection", err)
	}
	return huma.Error500InternalServerError("Failed to load session", err)
}
