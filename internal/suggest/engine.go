// Package suggest picks a short activity suggestion for the current weather,
// time of day and place. Output always comes from static pools, so it works
// offline and never fails.
package suggest

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/i474232898/travel-context/internal/common"
	"github.com/i474232898/travel-context/internal/weather"
)

// Bundle is the predicate bucket a snapshot falls into.
type Bundle string

const (
	BundleRain    Bundle = "rain"
	BundleNight   Bundle = "night"
	BundleClear   Bundle = "clear"
	BundleDefault Bundle = "default"
)

// Result is a generated suggestion and the snapshot it was derived from.
type Result struct {
	Text        string           `json:"text"`
	GeneratedAt time.Time        `json:"generatedAt"`
	Basis       weather.Snapshot `json:"basis"`
}

// Rand is the random source used to pick among candidates.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Engine derives suggestions. It is safe for concurrent use.
type Engine struct {
	mu     sync.Mutex
	rng    Rand
	now    func() time.Time
	pools  map[Bundle][]string
	places []Place
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the random source, e.g. a seeded *rand.Rand in tests.
func WithRand(r Rand) Option {
	return func(e *Engine) { e.rng = r }
}

// WithClock overrides the clock used for GeneratedAt.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPlaces replaces the built-in gazetteer.
func WithPlaces(places []Place) Option {
	return func(e *Engine) { e.places = places }
}

// NewEngine creates an Engine with the built-in pools and gazetteer.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		rng:    globalRand{},
		now:    time.Now,
		pools:  basePools,
		places: Gazetteer,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BundleFor classifies a snapshot. Precedence: rain, night, clear, default.
func BundleFor(s weather.Snapshot) Bundle {
	switch {
	case weather.IsPrecipitation(s.WeatherCode):
		return BundleRain
	case !s.IsDaytime:
		return BundleNight
	case weather.IsClearSky(s.WeatherCode):
		return BundleClear
	default:
		return BundleDefault
	}
}

// Candidates returns the pool a suggestion for s is drawn from: the base pool for
// its bundle plus the entries of every gazetteer place named in the location.
func (e *Engine) Candidates(s weather.Snapshot) []string {
	bundle := BundleFor(s)
	base := e.pools[bundle]

	pool := make([]string, 0, len(base)+4)
	pool = append(pool, base...)
	for _, place := range e.places {
		if place.Matches(s.Location.DisplayName) {
			pool = append(pool, place.Candidates[bundle]...)
		}
	}
	if len(pool) == 0 {
		pool = append(pool, basePools[BundleDefault]...)
	}
	return pool
}

// Suggest picks one candidate uniformly at random.
func (e *Engine) Suggest(s weather.Snapshot) Result {
	pool := e.Candidates(s)

	e.mu.Lock()
	idx := e.rng.IntN(len(pool))
	e.mu.Unlock()

	return Result{
		Text:        pool[idx],
		GeneratedAt: e.now().UTC(),
		Basis:       s,
	}
}

// SameBasis reports whether two snapshots would draw from the same pool:
// same weather code, day flag and place name. Temperature is ignored.
func SameBasis(a, b weather.Snapshot) bool {
	return a.WeatherCode == b.WeatherCode &&
		a.IsDaytime == b.IsDaytime &&
		a.Location.DisplayName == b.Location.DisplayName
}

// Place is a gazetteer entry. Keywords are matched case-insensitively as
// substrings of the location's display name.
type Place struct {
	Keywords   []string
	Candidates map[Bundle][]string
}

// Matches reports whether name mentions the place.
func (p Place) Matches(name string) bool {
	if name == "" {
		return false
	}
	for _, kw := range p.Keywords {
		if common.ContainsFold(name, kw) {
			return true
		}
	}
	return false
}
