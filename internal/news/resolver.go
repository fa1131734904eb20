// Package news resolves the headline panel by cascading through feed sources.
package news

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/i474232898/travel-context/internal/cascade"
)

// Resolver tries feed sources in order and keeps the first that yields items.
type Resolver struct {
	sources    []FeedSource
	bridge     Bridge
	normalizer Normalizer
	timeout    time.Duration
	logger     *slog.Logger
}

// NewResolver creates a Resolver. timeout bounds each source attempt.
func NewResolver(sources []FeedSource, bridge Bridge, fallbackImage string, timeout time.Duration, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		sources:    sources,
		bridge:     bridge,
		normalizer: Normalizer{FallbackImage: fallbackImage},
		timeout:    timeout,
		logger:     logger,
	}
}

// Sources returns the configured feed sources in priority order.
func (r *Resolver) Sources() []FeedSource {
	return append([]FeedSource(nil), r.sources...)
}

// ResolveFeed returns the first source's normalized items, or false when every
// source failed or came back empty.
func (r *Resolver) ResolveFeed(ctx context.Context) (Feed, bool) {
	attempts := make([]cascade.Source[Feed], 0, len(r.sources))
	for _, src := range r.sources {
		src := src
		attempts = append(attempts, cascade.Source[Feed]{
			Name:    src.Name,
			Timeout: r.timeout,
			Attempt: func(ctx context.Context) (Feed, error) {
				return r.fetch(ctx, src)
			},
		})
	}

	res, ok := cascade.Resolve(ctx, r.logger, attempts)
	if !ok {
		return Feed{}, false
	}
	return res.Value, true
}

func (r *Resolver) fetch(ctx context.Context, src FeedSource) (Feed, error) {
	entries, err := r.bridge.Entries(ctx, src)
	if err != nil {
		return Feed{}, err
	}

	items := make([]Item, 0, MaxItems)
	for _, e := range entries {
		if len(items) == MaxItems {
			break
		}
		if item, ok := r.normalizer.Normalize(e, src.Name); ok {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return Feed{}, fmt.Errorf("feed %s: %w", src.Name, cascade.ErrEmptyResult)
	}
	return Feed{Items: items, SourceName: src.Name}, nil
}

// PanelState is what the news panel renders. Unavailable means the last
// resolution failed; Items is then empty rather than stale.
type PanelState struct {
	Items       []Item    `json:"items"`
	SourceName  string    `json:"sourceName,omitempty"`
	Unavailable bool      `json:"unavailable"`
	Loaded      bool      `json:"loaded"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Panel holds the current news panel state.
type Panel struct {
	resolver *Resolver
	now      func() time.Time

	// resolving serializes resolutions so concurrent first loads share one.
	resolving sync.Mutex

	mu    sync.Mutex
	state PanelState
}

// NewPanel creates a panel backed by resolver.
func NewPanel(resolver *Resolver) *Panel {
	return &Panel{resolver: resolver, now: time.Now}
}

// Load resolves the feed on first use and returns the cached state afterwards.
func (p *Panel) Load(ctx context.Context) PanelState {
	if st := p.State(); st.Loaded {
		return st
	}

	p.resolving.Lock()
	defer p.resolving.Unlock()
	// Another caller may have finished the first load while we waited.
	if st := p.State(); st.Loaded {
		return st
	}
	return p.resolve(ctx)
}

// Retry forces a new resolution and replaces the state wholesale.
func (p *Panel) Retry(ctx context.Context) PanelState {
	p.resolving.Lock()
	defer p.resolving.Unlock()
	return p.resolve(ctx)
}

func (p *Panel) resolve(ctx context.Context) PanelState {
	feed, ok := p.resolver.ResolveFeed(ctx)

	next := PanelState{Loaded: true, UpdatedAt: p.now().UTC()}
	if ok {
		next.Items = feed.Items
		next.SourceName = feed.SourceName
	} else {
		next.Items = []Item{}
		next.Unavailable = true
	}

	p.mu.Lock()
	p.state = next
	p.mu.Unlock()
	return next
}

// State returns the current state without resolving.
func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}
