package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/i474232898/travel-context/internal/cascade"
	"github.com/i474232898/travel-context/internal/geo"
)

// ErrUnavailable is wrapped by every FetchError.
var ErrUnavailable = errors.New("weather unavailable")

// FetchError is returned when no provider produced a usable snapshot.
type FetchError struct {
	Location geo.LocationLabel
	Tried    []string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("weather unavailable for %q after trying %v", e.Location.DisplayName, e.Tried)
}

func (e *FetchError) Unwrap() error { return ErrUnavailable }

// Service fetches and normalizes current weather.
type Service struct {
	providers []Provider
	timeout   time.Duration
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds each provider attempt.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithClock overrides the clock used for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new Service. Providers are tried in order; with a single
// provider every fetch is exactly one upstream call.
func NewService(providers []Provider, opts ...Option) *Service {
	s := &Service{
		providers: providers,
		timeout:   10 * time.Second,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchCurrent returns the current weather at loc.Coordinates, labeled with loc.
func (s *Service) FetchCurrent(ctx context.Context, loc geo.LocationLabel) (Snapshot, error) {
	tried := make([]string, 0, len(s.providers))
	sources := make([]cascade.Source[Snapshot], 0, len(s.providers))

	for _, p := range s.providers {
		p := p
		tried = append(tried, p.Name())
		sources = append(sources, cascade.Source[Snapshot]{
			Name:    p.Name(),
			Timeout: s.timeout,
			Attempt: func(ctx context.Context) (Snapshot, error) {
				r, err := p.Fetch(ctx, loc.Coordinates)
				if err != nil {
					return Snapshot{}, err
				}
				if r.ProviderName == "" {
					r.ProviderName = p.Name()
				}
				return Normalize(r, loc, s.now())
			},
		})
	}

	res, ok := cascade.Resolve(ctx, s.logger, sources)
	if !ok {
		return Snapshot{}, &FetchError{Location: loc, Tried: tried}
	}
	return res.Value, nil
}

// FetchBatch fetches all locations concurrently. Failed entries are dropped, so
// the result may be shorter than the input; successes keep their input order.
func (s *Service) FetchBatch(ctx context.Context, locations []Named) []Snapshot {
	results := make([]*Snapshot, len(locations))

	var wg sync.WaitGroup
	for i, named := range locations {
		i, named := i, named
		wg.Add(1)
		go func() {
			defer wg.Done()

			label := geo.LocationLabel{
				DisplayName: named.Name,
				Source:      geo.SourceNamed,
				Coordinates: named.Coordinates,
			}
			if label.DisplayName == "" {
				label.DisplayName = named.Coordinates.String()
			}

			snap, err := s.FetchCurrent(ctx, label)
			if err != nil {
				// Log and continue; partial batches are expected.
				s.logger.Warn("weather: batch entry failed", "location", label.DisplayName, "error", err)
				return
			}
			results[i] = &snap
		}()
	}
	wg.Wait()

	snapshots := make([]Snapshot, 0, len(locations))
	for _, snap := range results {
		if snap != nil {
			snapshots = append(snapshots, *snap)
		}
	}
	return snapshots
}
