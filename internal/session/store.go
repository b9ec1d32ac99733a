package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/RMahshie/pmtview/pkg/chart"
	"github.com/RMahshie/pmtview/pkg/models"
)

// ErrNotFound is returned for sessions without a stored selection
var ErrNotFound = errors.New("session not found")

// Store keeps the active chart selection of every session in memory
type Store struct {
	mu       sync.Mutex
	sessions map[string]*models.Selection
	now      func() time.Time
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*models.Selection),
		now:      time.Now,
	}
}

// Select replaces the selection of a session. The metric must be known;
// sources missing from points are dropped.
func (s *Store) Select(sessionID string, sources []string, metric string, points []models.MeasurementPoint) (models.Selection, error) {
	key, err := models.ParseMetricKey(metric)
	if err != nil {
		return models.Selection{}, err
	}

	sel := &models.Selection{
		SessionID: sessionID,
		Sources:   chart.ValidateSelection(points, sources),
		Metric:    key,
		UpdatedAt: s.now(),
	}

	s.mu.Lock()
	s.sessions[sessionID] = sel
	s.mu.Unlock()

	if dropped := len(sources) - len(sel.Sources); dropped > 0 {
		log.Debug().Str("sessionID", sessionID).Int("dropped", dropped).Msg("Dropped unknown sources from selection")
	}
	return copySelection(sel), nil
}

// Get returns the selection of a session
func (s *Store) Get(sessionID string) (models.Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sel, ok := s.sessions[sessionID]
	if !ok {
		return models.Selection{}, fmt.Errorf("%w: %s", ErrNotFound, sessionID)
	}
	return copySelection(sel), nil
}

// Prune revalidates every selection against points, dropping sources that
// are no longer present. It returns the number of sessions changed.
func (s *Store) Prune(points []models.MeasurementPoint) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, sel := range s.sessions {
		active := chart.ValidateSelection(points, sel.Sources)
		if len(active) == len(sel.Sources) {
			continue
		}
		sel.Sources = active
		sel.UpdatedAt = s.now()
		changed++
	}
	return changed
}

// Len returns the number of sessions
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func copySelection(sel *models.Selection) models.Selection {
	out := *sel
	out.Sources = append([]string(nil), sel.Sources...)
	if out.Sources == nil {
		out.Sources = []string{}
	}
	return out
}
