package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/RMahshie/pmtview/internal/repository"
	"github.com/RMahshie/pmtview/pkg/models"
)

// ChangeChannel is the LISTEN/NOTIFY channel the measurements trigger publishes on
const ChangeChannel = "measurements_changed"

// advisory lock ids
const (
	migrateLockID = 0x706d7401
	seedLockID    = 0x706d7402
)

//go:embed schema.sql
var schema string

// Migrate creates the measurements table and its change trigger
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, migrateLockID); err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return tx.Commit()
}

// PostgresMeasurementRepository implements MeasurementRepository for PostgreSQL
type PostgresMeasurementRepository struct {
	db *sql.DB
}

// NewPostgresMeasurementRepository creates a new PostgreSQL measurement repository
func NewPostgresMeasurementRepository(db *sql.DB) repository.MeasurementRepository {
	return &PostgresMeasurementRepository{db: db}
}

// List retrieves every measurement ordered by source and wavelength
func (r *PostgresMeasurementRepository) List(ctx context.Context) ([]models.MeasurementPoint, error) {
	query := `
		SELECT id, source_id, wavelength, metrics, created_at
		FROM measurements
		ORDER BY source_id, wavelength`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]models.MeasurementPoint, 0)
	for rows.Next() {
		var p models.MeasurementPoint
		var metrics []byte

		if err := rows.Scan(&p.ID, &p.SourceID, &p.Wavelength, &metrics, &p.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(metrics, &p.Metrics); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metrics of %s: %w", p.ID, err)
		}
		points = append(points, p)
	}

	return points, rows.Err()
}

// InsertBatch stores points in a single COPY
func (r *PostgresMeasurementRepository) InsertBatch(ctx context.Context, points []models.MeasurementPoint) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := copyPoints(ctx, tx, points); err != nil {
		return err
	}
	return tx.Commit()
}

// SeedIfEmpty stores points only if the table is empty. Concurrent callers
// serialise on an advisory lock so the seed is written at most once.
func (r *PostgresMeasurementRepository) SeedIfEmpty(ctx context.Context, points []models.MeasurementPoint) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, seedLockID); err != nil {
		return false, fmt.Errorf("failed to acquire seed lock: %w", err)
	}

	var n int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM measurements`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	if err := copyPoints(ctx, tx, points); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

// DeleteBySource removes every measurement of a source
func (r *PostgresMeasurementRepository) DeleteBySource(ctx context.Context, sourceID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM measurements WHERE source_id = $1`, sourceID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func copyPoints(ctx context.Context, tx *sql.Tx, points []models.MeasurementPoint) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("measurements", "id", "source_id", "wavelength", "metrics", "created_at"))
	if err != nil {
		return fmt.Errorf("failed to prepare copy: %w", err)
	}

	now := time.Now()
	for _, p := range points {
		metrics, err := json.Marshal(p.Metrics)
		if err != nil {
			stmt.Close()
			return fmt.Errorf("failed to marshal metrics: %w", err)
		}

		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		createdAt := p.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}

		if _, err := stmt.ExecContext(ctx, id, p.SourceID, p.Wavelength, string(metrics), createdAt); err != nil {
			stmt.Close()
			return fmt.Errorf("failed to copy measurement: %w", err)
		}
	}

	// flush buffered rows
	if _, err := stmt.ExecContext(ctx); err != nil {
		stmt.Close()
		return fmt.Errorf("failed to flush copy: %w", err)
	}
	return stmt.Close()
}
