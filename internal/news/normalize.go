package news

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/i474232898/travel-context/internal/common"
)

const (
	// MaxItems caps a resolved feed; the panel shows the latest headlines only.
	MaxItems = 9
	// SummaryLimit is the maximum summary length in characters.
	SummaryLimit = 160

	defaultCategory = "Travel"
)

var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02 15:04:05",
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02",
}

// Normalizer converts raw entries into Items.
type Normalizer struct {
	FallbackImage string
}

// Normalize converts one entry. Entries without a title are rejected.
func (n Normalizer) Normalize(e RawEntry, sourceName string) (Item, bool) {
	title := common.CollapseSpace(stripMarkup(e.Title))
	if title == "" {
		return Item{}, false
	}

	item := Item{
		ID:             itemID(e.Link),
		Title:          title,
		Summary:        summarize(e.Description, e.Content),
		SourceName:     sourceName,
		PublishedLabel: publishedLabel(e.PubDate),
		Category:       category(e.Categories),
	}
	if link := strings.TrimSpace(e.Link); link != "" {
		item.Link = &link
	}
	if thumb := n.thumbnail(e); thumb != "" {
		item.ThumbnailURL = &thumb
	}
	return item, true
}

// thumbnail tries, in order: explicit thumbnail, enclosure, first image in the
// description, first image in the content, fallback image.
func (n Normalizer) thumbnail(e RawEntry) string {
	candidates := []string{
		strings.TrimSpace(e.Thumbnail),
		strings.TrimSpace(e.Enclosure),
		firstImage(e.Description),
		firstImage(e.Content),
	}
	for _, c := range candidates {
		if c != "" {
			return absolute(c, e.Link)
		}
	}
	return n.FallbackImage
}

// firstImage returns the src of the first <img> in an HTML fragment.
func firstImage(html string) string {
	if !strings.Contains(html, "<img") && !strings.Contains(html, "<IMG") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var src string
	doc.Find("img").EachWithBreak(func(i int, s *goquery.Selection) bool {
		for _, attr := range []string{"src", "data-src", "data-lazy-src"} {
			if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" && !strings.HasPrefix(v, "data:") {
				src = strings.TrimSpace(v)
				return false
			}
		}
		return true
	})
	return src
}

// stripMarkup returns the text content of an HTML fragment.
func stripMarkup(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return html
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}

func summarize(description, content string) string {
	for _, src := range []string{description, content} {
		if text := common.CollapseSpace(stripMarkup(src)); text != "" {
			return common.Truncate(text, SummaryLimit)
		}
	}
	return ""
}

func publishedLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format("Jan 2, 2006")
		}
	}
	return raw
}

func category(categories []string) string {
	for _, c := range categories {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return defaultCategory
}

// itemID is stable for a given link so re-resolving a feed keeps ids.
func itemID(link string) string {
	if link = strings.TrimSpace(link); link != "" {
		return uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String()
	}
	return uuid.NewString()
}

func absolute(ref, base string) string {
	u, err := url.Parse(ref)
	if err != nil || u.IsAbs() || base == "" {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return ref
	}
	return b.ResolveReference(u).String()
}
