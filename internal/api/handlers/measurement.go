package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/pmtview/internal/provider"
	"github.com/RMahshie/pmtview/pkg/models"
)

// MeasurementProvider is the data provider the measurement endpoints need
type MeasurementProvider interface {
	Snapshot() provider.Snapshot
	Add(ctx context.Context, points []models.MeasurementPoint) (provider.Snapshot, error)
	RemoveSource(ctx context.Context, sourceID string) (int64, error)
}

// MeasurementHandler handles measurement CRUD requests
type MeasurementHandler struct {
	provider MeasurementProvider
}

// NewMeasurementHandler creates a new measurement handler
func NewMeasurementHandler(p MeasurementProvider) *MeasurementHandler {
	return &MeasurementHandler{provider: p}
}

// Health reports service status and the snapshot version
func (h *MeasurementHandler) Health(ctx context.Context, _ *struct{}) (*models.HealthResponse, error) {
	resp := &models.HealthResponse{}
	resp.Body.Status = "healthy"
	resp.Body.Version = "1.0.0"
	resp.Body.Time = time.Now()
	resp.Body.Snapshot = h.provider.Snapshot().Version
	return resp, nil
}

// ListMeasurements returns measurements from the current snapshot
func (h *MeasurementHandler) ListMeasurements(ctx context.Context, req *models.ListMeasurementsRequest) (*models.ListMeasurementsResponse, error) {
	snap := h.provider.Snapshot()

	resp := &models.ListMeasurementsResponse{}
	resp.Body.Version = snap.Version
	resp.Body.Measurements = make([]models.MeasurementPoint, 0, len(snap.Points))
	for _, p := range snap.Points {
		if req.Source != "" && p.SourceID != req.Source {
			continue
		}
		resp.Body.Measurements = append(resp.Body.Measurements, p)
	}
	return resp, nil
}

// CreateMeasurements stores a batch of measurements
func (h *MeasurementHandler) CreateMeasurements(ctx context.Context, req *models.CreateMeasurementsRequest) (*models.CreateMeasurementsResponse, error) {
	log.Info().Int("count", len(req.Body.Measurements)).Msg("Storing measurements")

	snap, err := h.provider.Add(ctx, req.Body.Measurements)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidMeasurement) {
			return nil, huma.Error400BadRequest("Invalid measurement", err)
		}
		log.Error().Err(err).Msg("Failed to store measurements")
		return nil, huma.Error500InternalServerError("Failed to store measurements", err)
	}

	resp := &models.CreateMeasurementsResponse{}
	resp.Body.Created = len(req.Body.Measurements)
	resp.Body.Version = snap.Version
	return resp, nil
}

// DeleteSource removes every measurement of a source
func (h *MeasurementHandler) DeleteSource(ctx context.Context, req *models.DeleteSourceRequest) (*models.DeleteSourceResponse, error) {
	n, err := h.provider.RemoveSource(ctx, req.ID)
	if err != nil {
		log.Error().Err(err).Str("sourceID", req.ID).Msg("Failed to delete source")
		return nil, huma.Error500InternalServerError("Failed to delete source", err)
	}
	if n == 0 {
		return nil, huma.Error404NotFound("Source not found")
	}

	log.Info().Str("sourceID", req.ID).Int64("deleted", n).Msg("Source deleted")
	resp := &models.DeleteSourceResponse{}
	resp.Body.Deleted = n
	return resp, nil
}
