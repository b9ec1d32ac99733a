package repository

import (
	"context"

	"github.com/RMahshie/pmtview/pkg/models"
)

// MeasurementRepository defines the interface for measurement data operations
type MeasurementRepository interface {
	List(ctx context.Context) ([]models.MeasurementPoint, error)
	InsertBatch(ctx context.Context, points []models.MeasurementPoint) error
	// SeedIfEmpty stores points only when the store holds no measurements.
	// It reports whether the seed was written.
	SeedIfEmpty(ctx context.Context, points []models.MeasurementPoint) (bool, error)
	DeleteBySource(ctx context.Context, sourceID string) (int64, error)
}

// ChangeFeed delivers a signal whenever the stored measurements change
type ChangeFeed interface {
	Changes() <-chan struct{}
	Close() error
}
