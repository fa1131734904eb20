package news

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeBridge struct {
	mu      sync.Mutex
	entries map[string][]RawEntry
	errs    map[string]error
	calls   []string
	gate    chan struct{}
}

func (f *fakeBridge) Entries(ctx context.Context, src FeedSource) ([]RawEntry, error) {
	f.mu.Lock()
	f.calls = append(f.calls, src.Name)
	f.mu.Unlock()
	if f.gate != nil {
		<-f.gate
	}
	if err := f.errs[src.Name]; err != nil {
		return nil, err
	}
	return f.entries[src.Name], nil
}

func entries(n int) []RawEntry {
	out := make([]RawEntry, n)
	for i := range out {
		out[i] = RawEntry{Title: fmt.Sprintf("Headline %d", i+1), Link: fmt.Sprintf("https://news.example.com/%d", i+1)}
	}
	return out
}

var sources = []FeedSource{
	{Name: "primary", URL: "https://a.example.com/rss"},
	{Name: "secondary", URL: "https://b.example.com/rss"},
	{Name: "tertiary", URL: "https://c.example.com/rss"},
}

func TestResolveFeedCascadesAndCaps(t *testing.T) {
	bridge := &fakeBridge{
		errs:    map[string]error{"primary": errors.New("503")},
		entries: map[string][]RawEntry{"secondary": entries(15), "tertiary": entries(2)},
	}
	r := NewResolver(sources, bridge, "", 0, quiet)

	feed, ok := r.ResolveFeed(context.Background())
	if !ok {
		t.Fatalf("expected a feed")
	}
	if feed.SourceName != "secondary" {
		t.Fatalf("expected secondary source, got %s", feed.SourceName)
	}
	if len(feed.Items) != MaxItems {
		t.Fatalf("expected %d items, got %d", MaxItems, len(feed.Items))
	}
	if feed.Items[0].Title != "Headline 1" || feed.Items[8].Title != "Headline 9" {
		t.Fatalf("items out of order: %q .. %q", feed.Items[0].Title, feed.Items[8].Title)
	}
	if len(bridge.calls) != 2 {
		t.Fatalf("tertiary must not be attempted, calls=%v", bridge.calls)
	}
}

func TestResolveFeedSkipsEmptyFeeds(t *testing.T) {
	bridge := &fakeBridge{
		entries: map[string][]RawEntry{
			"primary":   {},
			"secondary": {{Title: ""}, {Title: "<p></p>"}},
			"tertiary":  entries(3),
		},
	}
	feed, ok := NewResolver(sources, bridge, "", 0, quiet).ResolveFeed(context.Background())
	if !ok || feed.SourceName != "tertiary" || len(feed.Items) != 3 {
		t.Fatalf("unexpected feed %+v ok=%v", feed, ok)
	}
}

func TestResolveFeedExhaustion(t *testing.T) {
	bridge := &fakeBridge{errs: map[string]error{
		"primary": errors.New("a"), "secondary": errors.New("b"), "tertiary": errors.New("c"),
	}}
	feed, ok := NewResolver(sources, bridge, "", 0, quiet).ResolveFeed(context.Background())
	if ok {
		t.Fatalf("expected unavailable, got %+v", feed)
	}
	if len(bridge.calls) != 3 {
		t.Fatalf("expected every source to be tried, got %v", bridge.calls)
	}
}

func TestPanelLoadRetryAndUnavailable(t *testing.T) {
	bridge := &fakeBridge{entries: map[string][]RawEntry{"primary": entries(2)}}
	panel := NewPanel(NewResolver(sources[:1], bridge, "", 0, quiet))

	if st := panel.State(); st.Loaded {
		t.Fatalf("panel should start unloaded")
	}

	first := panel.Load(context.Background())
	if first.Unavailable || len(first.Items) != 2 || first.SourceName != "primary" {
		t.Fatalf("unexpected first state %+v", first)
	}

	// Cached: Load must not hit the bridge again.
	panel.Load(context.Background())
	if len(bridge.calls) != 1 {
		t.Fatalf("expected cached load, calls=%v", bridge.calls)
	}

	bridge.errs = map[string]error{"primary": errors.New("down")}
	failed := panel.Retry(context.Background())
	if !failed.Unavailable {
		t.Fatalf("expected unavailable after failed retry")
	}
	if failed.Items == nil || len(failed.Items) != 0 {
		t.Fatalf("failed resolution must clear items, got %v", failed.Items)
	}
	if failed.SourceName != "" {
		t.Fatalf("failed resolution must clear the source name")
	}

	bridge.errs = nil
	recovered := panel.Retry(context.Background())
	if recovered.Unavailable || len(recovered.Items) != 2 {
		t.Fatalf("unexpected recovered state %+v", recovered)
	}
}

func TestPanelConcurrentFirstLoadsResolveOnce(t *testing.T) {
	bridge := &fakeBridge{entries: map[string][]RawEntry{"primary": entries(3)}, gate: make(chan struct{})}
	panel := NewPanel(NewResolver(sources[:1], bridge, "", 0, quiet))

	var wg sync.WaitGroup
	states := make([]PanelState, 8)
	for i := range states {
		wg.Add(1)
		go func() {
			defer wg.Done()
			states[i] = panel.Load(context.Background())
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(bridge.gate)
	wg.Wait()

	bridge.mu.Lock()
	calls := len(bridge.calls)
	bridge.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected one resolution for concurrent first loads, got %d", calls)
	}
	for i, st := range states {
		if !st.Loaded || len(st.Items) != 3 {
			t.Fatalf("load %d returned %+v", i, st)
		}
	}
}

func TestSourcesReturnsCopy(t *testing.T) {
	r := NewResolver(sources, &fakeBridge{}, "", 0, quiet)
	got := r.Sources()
	got[0].Name = "mutated"
	if r.Sources()[0].Name != "primary" {
		t.Fatalf("Sources must return a copy")
	}
}
