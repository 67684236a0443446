// Package session holds processed upload results in memory, keyed by an
// opaque session id, with TTL-based expiry and per-session write
// serialization.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"datainsights/internal/pipeline"
	apiv1 "datainsights/pkg/contracts/api/v1"
	"datainsights/pkg/contracts/domain"
)

// ErrNotFound is returned for sessions that never existed, expired or
// were deleted. Callers cannot distinguish the three cases.
var ErrNotFound = errors.New("session not found")

// ErrSeriesNotFound is returned when a series-update names a series the
// session does not contain.
var ErrSeriesNotFound = errors.New("series not found")

// Status is the lifecycle snapshot of one session.
type Status struct {
	SessionID        string         `json:"session_id"`
	State            pipeline.State `json:"state"`
	OriginalFilename string         `json:"original_filename"`
	SeriesCount      int            `json:"series_count"`
	TotalRows        int            `json:"total_rows"`
	CreatedAt        time.Time      `json:"created_at"`
	ExpiresAt        time.Time      `json:"expires_at"`
}

// entry is one stored session. The mutex serializes writes so two
// concurrent updates never interleave field changes; reads copy the
// record out under the same lock and work on the snapshot afterwards.
type entry struct {
	mu        sync.Mutex
	data      *domain.ProcessedData
	state     pipeline.State
	createdAt time.Time
	expiresAt time.Time
}

// Store is an in-memory session store with background expiry.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry

	ttl    time.Duration
	logger *slog.Logger

	stopOnce sync.Once
	stop     chan struct{}
}

// NewStore creates a store and starts the expiry sweep goroutine.
func NewStore(ttl, sweepInterval time.Duration, logger *slog.Logger) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		logger:  logger.With(slog.String("component", "session_store")),
		stop:    make(chan struct{}),
	}

	go s.sweepLoop(sweepInterval)

	return s
}

// Close stops the expiry sweep.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Create stores a processed record under a fresh session id. Repeated
// uploads of the same file always yield distinct ids.
func (s *Store) Create(data *domain.ProcessedData) string {
	id := uuid.New().String()
	now := time.Now()

	data = data.Clone()
	data.SessionID = id

	e := &entry{
		data:      data,
		state:     pipeline.StateReady,
		createdAt: now,
		expiresAt: now.Add(s.ttl),
	}

	s.mu.Lock()
	s.entries[id] = e
	s.mu.Unlock()

	s.logger.Info("session created",
		slog.String("session_id", id),
		slog.String("filename", data.OriginalFilename),
		slog.Int("series_count", len(data.Series)),
	)

	return id
}

// Get returns a snapshot of the session's data. The snapshot is a deep
// copy: concurrent updates or deletion of the backing entry do not
// affect it.
func (s *Store) Get(id string) (*domain.ProcessedData, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.data.Clone(), nil
}

// UpdateSeries applies a visibility/color patch to one stored series.
// An unknown series name is an explicit not-found condition.
func (s *Store) UpdateSeries(id, name string, patch apiv1.SeriesPatchRequest) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Copy-on-write keeps snapshots handed out by Get untouched.
	updated := e.data.Clone()
	series := updated.SeriesByName(name)
	if series == nil {
		return ErrSeriesNotFound
	}

	if patch.Visible != nil {
		series.Visible = *patch.Visible
	}
	if patch.Color != "" {
		series.Color = patch.Color
	}

	e.data = updated
	return nil
}

// SetState moves the session through its lifecycle, enforcing the valid
// transition set.
func (s *Store) SetState(id string, next pipeline.State) error {
	e, err := s.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	state, err := e.state.Transition(next)
	if err != nil {
		return err
	}
	e.state = state
	return nil
}

// Delete removes the session. In-flight readers holding a snapshot are
// unaffected.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || time.Now().After(e.expiresAt) {
		delete(s.entries, id)
		return ErrNotFound
	}

	delete(s.entries, id)
	s.logger.Info("session deleted", slog.String("session_id", id))
	return nil
}

// Status returns lifecycle info for the session.
func (s *Store) Status(id string) (*Status, error) {
	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return &Status{
		SessionID:        id,
		State:            e.state,
		OriginalFilename: e.data.OriginalFilename,
		SeriesCount:      len(e.data.Series),
		TotalRows:        e.data.TotalRows(),
		CreatedAt:        e.createdAt,
		ExpiresAt:        e.expiresAt,
	}, nil
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// lookup finds a live entry, treating expired entries as missing.
func (s *Store) lookup(id string) (*entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || time.Now().After(e.expiresAt) {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Store) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep drops expired entries. Readers already holding a snapshot keep
// working on their copy.
func (s *Store) sweep() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
			s.logger.Info("session expired", slog.String("session_id", id))
		}
	}
}
