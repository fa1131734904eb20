package news

import "context"

// Item is a normalized headline ready for display.
type Item struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Summary        string  `json:"summary"` // plain text, at most 160 characters
	SourceName     string  `json:"sourceName"`
	PublishedLabel string  `json:"publishedLabel"`
	ThumbnailURL   *string `json:"thumbnailUrl"`
	Link           *string `json:"link"`
	Category       string  `json:"category"`
}

// Feed is the winning source's items.
type Feed struct {
	Items      []Item `json:"items"`
	SourceName string `json:"sourceName"`
}

// FeedSource is one remote feed in the cascade.
type FeedSource struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	URL  string `yaml:"url" json:"url" validate:"required,url"`
}

// RawEntry is a feed entry as delivered by a bridge, before normalization.
type RawEntry struct {
	Title       string
	Description string
	Content     string
	Thumbnail   string
	Enclosure   string
	PubDate     string
	Link        string
	Categories  []string
}

// Bridge turns a remote feed into raw entries.
type Bridge interface {
	Entries(ctx context.Context, src FeedSource) ([]RawEntry, error)
}
