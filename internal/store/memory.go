package store

import (
	"errors"
	"sync"
	"time"

	"github.com/i474232898/travel-context/internal/suggest"
	"github.com/i474232898/travel-context/internal/weather"
)

var (
	// ErrNotFound is returned when no snapshot has been stored yet.
	ErrNotFound = errors.New("no weather snapshot available")
	// ErrStale is returned when a snapshot older than the current one is offered.
	ErrStale = errors.New("snapshot is older than the current one")
)

// Context is the environmental context shown to the user. It is replaced as a
// single value so readers never see a snapshot paired with another snapshot's
// suggestion.
type Context struct {
	Snapshot       *weather.Snapshot       `json:"snapshot"`
	Classification *weather.Classification `json:"classification,omitempty"`
	Suggestion     *suggest.Result         `json:"suggestion,omitempty"`
	IsLoading      bool                    `json:"isLoading"`
	Unavailable    bool                    `json:"unavailable"`
	UpdatedAt      time.Time               `json:"updatedAt"`
}

// MemoryStore is a concurrency-safe holder for the current context.
// Superseded snapshots are dropped, not archived.
type MemoryStore struct {
	mu      sync.RWMutex
	current Context
	now     func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now}
}

// Current returns a copy of the current context.
func (s *MemoryStore) Current() Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Snapshot returns the current snapshot.
func (s *MemoryStore) Snapshot() (weather.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current.Snapshot == nil {
		return weather.Snapshot{}, ErrNotFound
	}
	return *s.current.Snapshot, nil
}

// Replace installs a new snapshot together with its suggestion. Snapshots
// fetched before the current one are rejected with ErrStale.
func (s *MemoryStore) Replace(snapshot weather.Snapshot, suggestion suggest.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur := s.current.Snapshot; cur != nil && snapshot.FetchedAt.Before(cur.FetchedAt) {
		return ErrStale
	}

	class := weather.Classify(snapshot.WeatherCode, snapshot.IsDaytime)
	s.current = Context{
		Snapshot:       &snapshot,
		Classification: &class,
		Suggestion:     &suggestion,
		UpdatedAt:      s.now().UTC(),
	}
	return nil
}

// MarkFailed records a failed refresh. The last good snapshot is kept; the
// context is only unavailable when there is nothing to show.
func (s *MemoryStore) MarkFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current.IsLoading = false
	s.current.Unavailable = s.current.Snapshot == nil
	s.current.UpdatedAt = s.now().UTC()
}

// SetLoading toggles the loading flag.
func (s *MemoryStore) SetLoading(loading bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current.IsLoading = loading
}

func (c Context) clone() Context {
	out := c
	if c.Snapshot != nil {
		snap := *c.Snapshot
		out.Snapshot = &snap
	}
	if c.Classification != nil {
		class := *c.Classification
		out.Classification = &class
	}
	if c.Suggestion != nil {
		sug := *c.Suggestion
		out.Suggestion = &sug
	}
	return out
}
