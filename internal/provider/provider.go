// Package provider keeps an in-memory snapshot of the stored measurements,
// synchronised with the repository, and notifies observers when it changes.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/pmtview/internal/metrics"
	"github.com/RMahshie/pmtview/internal/repository"
	"github.com/RMahshie/pmtview/pkg/models"
)

// ErrInvalidMeasurement wraps validation failures of submitted points
var ErrInvalidMeasurement = errors.New("invalid measurement")

// Snapshot is an immutable view of the measurements at one version.
// Callers must not modify Points.
type Snapshot struct {
	Version uint64
	Points  []models.MeasurementPoint
}

// Observer is called with every new snapshot
type Observer func(Snapshot)

// Provider owns the current snapshot
type Provider struct {
	repo repository.MeasurementRepository

	mu       sync.RWMutex
	snapshot Snapshot

	subMu     sync.Mutex
	observers map[int]Observer
	nextID    int

	// serialises refreshes so versions are published in order
	refreshMu sync.Mutex
}

// New creates a provider with an empty snapshot; call Refresh to load it
func New(repo repository.MeasurementRepository) *Provider {
	return &Provider{
		repo:      repo,
		observers: make(map[int]Observer),
	}
}

// Snapshot returns the current snapshot
func (p *Provider) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshot
}

// Subscribe registers fn to be called after every refresh. The returned
// function removes the registration.
func (p *Provider) Subscribe(fn Observer) func() {
	p.subMu.Lock()
	id := p.nextID
	p.nextID++
	p.observers[id] = fn
	p.subMu.Unlock()

	return func() {
		p.subMu.Lock()
		delete(p.observers, id)
		p.subMu.Unlock()
	}
}

// Refresh reloads the snapshot from the repository and notifies observers
func (p *Provider) Refresh(ctx context.Context) error {
	p.refreshMu.Lock()
	defer p.refreshMu.Unlock()

	start := time.Now()
	points, err := p.repo.List(ctx)
	if err != nil {
		metrics.SnapshotRefreshes.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to load measurements: %w", err)
	}

	p.mu.Lock()
	p.snapshot = Snapshot{Version: p.snapshot.Version + 1, Points: points}
	snap := p.snapshot
	p.mu.Unlock()

	metrics.SnapshotRefreshes.WithLabelValues("ok").Inc()
	metrics.SnapshotPoints.Set(float64(len(points)))
	log.Debug().
		Uint64("version", snap.Version).
		Int("points", len(points)).
		Dur("latency", time.Since(start)).
		Msg("Snapshot refreshed")

	p.notify(snap)
	return nil
}

func (p *Provider) notify(snap Snapshot) {
	p.subMu.Lock()
	observers := make([]Observer, 0, len(p.observers))
	for _, fn := range p.observers {
		observers = append(observers, fn)
	}
	p.subMu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
}

// SeedIfEmpty writes defaults when the store holds no measurements, then
// refreshes the snapshot. It reports whether the seed was written.
func (p *Provider) SeedIfEmpty(ctx context.Context, defaults []models.MeasurementPoint) (bool, error) {
	seeded, err := p.repo.SeedIfEmpty(ctx, defaults)
	if err != nil {
		return false, fmt.Errorf("failed to seed measurements: %w", err)
	}
	if seeded {
		log.Info().Int("points", len(defaults)).Msg("Seeded empty store with default dataset")
	} else {
		log.Info().Msg("Store already populated, skipping seed")
	}
	return seeded, p.Refresh(ctx)
}

// Add validates and stores points, then refreshes the snapshot
func (p *Provider) Add(ctx context.Context, points []models.MeasurementPoint) (Snapshot, error) {
	for i, pt := range points {
		if err := pt.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("%w: measurement %d: %w", ErrInvalidMeasurement, i, err)
		}
	}
	if err := p.repo.InsertBatch(ctx, points); err != nil {
		return Snapshot{}, fmt.Errorf("failed to store measurements: %w", err)
	}
	if err := p.Refresh(ctx); err != nil {
		return Snapshot{}, err
	}
	return p.Snapshot(), nil
}

// RemoveSource deletes every measurement of a source and refreshes the snapshot
func (p *Provider) RemoveSource(ctx context.Context, sourceID string) (int64, error) {
	n, err := p.repo.DeleteBySource(ctx, sourceID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete source %s: %w", sourceID, err)
	}
	if n == 0 {
		return 0, nil
	}
	return n, p.Refresh(ctx)
}

// Watch refreshes the snapshot on every change notification until ctx is
// done or the feed closes. Refresh failures are logged and retried on the
// next notification.
func (p *Provider) Watch(ctx context.Context, feed repository.ChangeFeed) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-feed.Changes():
			if !ok {
				return nil
			}
			if err := p.Refresh(ctx); err != nil {
				log.Error().Err(err).Msg("Failed to refresh snapshot after change")
			}
		}
	}
}
