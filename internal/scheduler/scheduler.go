package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/travel-context/internal/geo"
	"github.com/i474232898/travel-context/internal/store"
	"github.com/i474232898/travel-context/internal/suggest"
	"github.com/i474232898/travel-context/internal/weather"
)

// DefaultInterval is how often the context is refreshed.
const DefaultInterval = 60 * time.Second

var ErrAlreadyStarted = errors.New("scheduler already started or stopped")

// Locator resolves the current location. It must always return a label.
type Locator interface {
	ResolveLocation(ctx context.Context) geo.LocationLabel
}

// Fetcher fetches current weather for a location.
type Fetcher interface {
	FetchCurrent(ctx context.Context, loc geo.LocationLabel) (weather.Snapshot, error)
}

// Suggester derives a suggestion from a snapshot.
type Suggester interface {
	Suggest(s weather.Snapshot) suggest.Result
}

// RefreshScheduler periodically runs location -> weather -> suggestion and
// publishes the result to the store.
type RefreshScheduler struct {
	scheduler *gocron.Scheduler
	locator   Locator
	fetcher   Fetcher
	suggester Suggester
	store     *store.MemoryStore
	interval  time.Duration
	logger    *slog.Logger

	// cycle serializes refreshes. Background ticks skip when it is held; the
	// foreground first cycle waits for it.
	cycle sync.Mutex

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

// New creates a RefreshScheduler. interval <= 0 means DefaultInterval.
func New(locator Locator, fetcher Fetcher, suggester Suggester, st *store.MemoryStore, interval time.Duration, logger *slog.Logger) *RefreshScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshScheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		locator:   locator,
		fetcher:   fetcher,
		suggester: suggester,
		store:     st,
		interval:  interval,
		logger:    logger,
	}
}

// Start runs the first cycle synchronously, then schedules the periodic job.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil || s.stopped {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.runCycle(runCtx, true)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return nil
	}

	_, err := s.scheduler.Every(s.interval).WaitForSchedule().Do(func() {
		s.runCycle(runCtx, false)
	})
	if err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler: started", "interval", s.interval)
	return nil
}

// Stop cancels in-flight work and stops future runs. It is safe to call more
// than once.
func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	// gocron waits for running jobs, which take mu in discarded.
	s.scheduler.Stop()
	s.logger.Info("scheduler: stopped")
}

// RunCycle runs one refresh in the background role: it never sets loading.
// It returns false when another cycle was already in flight.
func (s *RefreshScheduler) RunCycle(ctx context.Context) bool {
	return s.runCycle(ctx, false)
}

// State returns the current context.
func (s *RefreshScheduler) State() store.Context {
	return s.store.Current()
}

// IsLoading reports whether the first fetch is still pending.
func (s *RefreshScheduler) IsLoading() bool {
	return s.store.Current().IsLoading
}

// CurrentSnapshot returns the last good snapshot, if any.
func (s *RefreshScheduler) CurrentSnapshot() (weather.Snapshot, bool) {
	snap, err := s.store.Snapshot()
	return snap, err == nil
}

func (s *RefreshScheduler) runCycle(ctx context.Context, foreground bool) bool {
	if foreground {
		if _, err := s.store.Snapshot(); err != nil {
			s.store.SetLoading(true)
		}
		s.cycle.Lock()
	} else if !s.cycle.TryLock() {
		s.logger.Debug("scheduler: cycle still running, skipping tick")
		return false
	}
	defer s.cycle.Unlock()

	loc := s.locator.ResolveLocation(ctx)
	snap, err := s.fetcher.FetchCurrent(ctx, loc)

	if s.discarded(ctx) {
		if foreground {
			s.store.SetLoading(false)
		}
		s.logger.Debug("scheduler: discarding result of cancelled cycle")
		return true
	}
	if err != nil {
		s.logger.Warn("scheduler: weather refresh failed", "location", loc.DisplayName, "error", err)
		s.store.MarkFailed()
		return true
	}

	cur := s.store.Current()
	var result suggest.Result
	if cur.Suggestion != nil && cur.Snapshot != nil && suggest.SameBasis(*cur.Snapshot, snap) {
		result = *cur.Suggestion
	} else {
		result = s.suggester.Suggest(snap)
	}

	if err := s.store.Replace(snap, result); err != nil {
		s.logger.Warn("scheduler: snapshot rejected", "error", err)
		return true
	}
	s.logger.Debug("scheduler: context refreshed",
		"location", snap.Location.DisplayName,
		"source", snap.Location.Source,
		"code", snap.WeatherCode,
		"provider", snap.Provider,
	)
	return true
}

func (s *RefreshScheduler) discarded(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}
