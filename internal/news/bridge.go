package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"github.com/i474232898/travel-context/internal/resilience"
)

const userAgent = "travel-context/1.0"

// GofeedBridge parses RSS, Atom and JSON Feed documents directly. Each feed
// URL has its own breaker, so one dead host never blocks another.
type GofeedBridge struct {
	client *http.Client

	mu       sync.Mutex
	circuits map[string]*gobreaker.CircuitBreaker
}

// NewGofeedBridge creates a bridge using client for fetches.
func NewGofeedBridge(client *http.Client) *GofeedBridge {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &GofeedBridge{
		client:   client,
		circuits: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (b *GofeedBridge) circuit(src FeedSource) *gobreaker.CircuitBreaker {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, ok := b.circuits[src.URL]
	if !ok {
		cb = resilience.NewBreaker("gofeed " + src.URL)
		b.circuits[src.URL] = cb
	}
	return cb
}

// Entries fetches and parses the feed at src.URL.
func (b *GofeedBridge) Entries(ctx context.Context, src FeedSource) ([]RawEntry, error) {
	feed, err := resilience.Execute(b.circuit(src), func() (*gofeed.Feed, error) {
		fp := gofeed.NewParser()
		fp.Client = b.client
		fp.UserAgent = userAgent
		return fp.ParseURLWithContext(src.URL, ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Name, err)
	}

	entries := make([]RawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entries = append(entries, RawEntry{
			Title:       item.Title,
			Description: item.Description,
			Content:     item.Content,
			Thumbnail:   gofeedThumbnail(item),
			Enclosure:   gofeedEnclosure(item),
			PubDate:     gofeedDate(item),
			Link:        item.Link,
			Categories:  item.Categories,
		})
	}
	return entries, nil
}

func gofeedThumbnail(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	// <media:thumbnail url="..."/> and <media:content medium="image" url="..."/>
	if media, ok := item.Extensions["media"]; ok {
		for _, name := range []string{"thumbnail", "content"} {
			for _, ext := range media[name] {
				if u := ext.Attrs["url"]; u != "" {
					if name == "content" && ext.Attrs["medium"] != "" && ext.Attrs["medium"] != "image" {
						continue
					}
					return u
				}
			}
		}
	}
	return ""
}

func gofeedEnclosure(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if enc.Type == "" || strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}

func gofeedDate(item *gofeed.Item) string {
	switch {
	case item.PublishedParsed != nil:
		return item.PublishedParsed.Format(time.RFC3339)
	case item.UpdatedParsed != nil:
		return item.UpdatedParsed.Format(time.RFC3339)
	case item.Published != "":
		return item.Published
	default:
		return item.Updated
	}
}

const defaultRSS2JSONURL = "https://api.rss2json.com/v1/api.json"

// RSS2JSONBridge converts feeds through the rss2json.com service. Every feed
// goes through that one host, so a single breaker guards it.
type RSS2JSONBridge struct {
	baseURL string
	apiKey  string
	httpCfg resilience.HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewRSS2JSONBridge creates a bridge. apiKey is optional.
func NewRSS2JSONBridge(client *http.Client, baseURL, apiKey string) *RSS2JSONBridge {
	if baseURL == "" {
		baseURL = defaultRSS2JSONURL
	}
	return &RSS2JSONBridge{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpCfg: resilience.HTTPClientConfig{Client: client, Backoff: resilience.NoRetry},
		circuit: resilience.NewBreaker("rss2json"),
	}
}

type rss2jsonResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Items   []struct {
		Title       string   `json:"title"`
		PubDate     string   `json:"pubDate"`
		Link        string   `json:"link"`
		Thumbnail   string   `json:"thumbnail"`
		Description string   `json:"description"`
		Content     string   `json:"content"`
		Categories  []string `json:"categories"`
		Enclosure   struct {
			Link string `json:"link"`
			Type string `json:"type"`
		} `json:"enclosure"`
	} `json:"items"`
}

// Entries implements Bridge.
func (b *RSS2JSONBridge) Entries(ctx context.Context, src FeedSource) ([]RawEntry, error) {
	values := url.Values{}
	values.Set("rss_url", src.URL)
	if b.apiKey != "" {
		values.Set("api_key", b.apiKey)
	}

	u := fmt.Sprintf("%s?%s", b.baseURL, values.Encode())
	resp, err := resilience.Get(ctx, b.httpCfg, b.circuit, u, map[string]string{"User-Agent": userAgent})
	if err != nil {
		return nil, fmt.Errorf("rss2json %s: %w", src.Name, err)
	}
	defer resp.Body.Close()

	var payload rss2jsonResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode rss2json %s: %w", src.Name, err)
	}
	if payload.Status != "ok" {
		return nil, fmt.Errorf("rss2json %s: status %q: %s", src.Name, payload.Status, payload.Message)
	}

	entries := make([]RawEntry, 0, len(payload.Items))
	for _, it := range payload.Items {
		enclosure := it.Enclosure.Link
		if it.Enclosure.Type != "" && !strings.HasPrefix(it.Enclosure.Type, "image/") {
			enclosure = ""
		}
		entries = append(entries, RawEntry{
			Title:       it.Title,
			Description: it.Description,
			Content:     it.Content,
			Thumbnail:   it.Thumbnail,
			Enclosure:   enclosure,
			PubDate:     it.PubDate,
			Link:        it.Link,
			Categories:  it.Categories,
		})
	}
	return entries, nil
}
