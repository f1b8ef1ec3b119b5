package collect

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"
)

const maxSummaryLen = 280

var stripTags = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// Release is the newest entry of a provider's release bulletin.
type Release struct {
	Title     string
	Link      string
	Published *time.Time
	Summary   string
}

func (r *Release) asMap() map[string]any {
	m := map[string]any{"title": r.Title, "link": r.Link}
	if r.Published != nil {
		m["published"] = r.Published.UTC().Format(time.RFC3339)
	}
	if r.Summary != "" {
		m["summary"] = r.Summary
	}
	return m
}

// BulletinReader looks up the latest release in an RSS/Atom feed.
type BulletinReader interface {
	Latest(ctx context.Context, feedURL string) (*Release, error)
}

// FeedReader reads bulletins with gofeed.
type FeedReader struct {
	parser *gofeed.Parser
}

// NewFeedReader creates a reader whose HTTP requests time out after timeout.
func NewFeedReader(timeout time.Duration) *FeedReader {
	p := gofeed.NewParser()
	p.Client = &http.Client{Timeout: timeout}
	return &FeedReader{parser: p}
}

// Latest returns the most recently published item, or nil for an empty feed.
func (f *FeedReader) Latest(ctx context.Context, feedURL string) (*Release, error) {
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parsing feed %s: %w", feedURL, err)
	}

	var latest *Release
	for _, item := range feed.Items {
		rel := parseItem(item)
		if rel == nil {
			continue
		}
		if latest == nil || newer(rel, latest) {
			latest = rel
		}
	}
	return latest, nil
}

func parseItem(item *gofeed.Item) *Release {
	link := item.Link
	if link == "" {
		link = item.GUID
	}
	title := strings.TrimSpace(item.Title)
	if link == "" || title == "" {
		return nil
	}

	published := item.PublishedParsed
	if published == nil {
		published = item.UpdatedParsed
	}

	summary := stripHTML(item.Description)
	if runes := []rune(summary); len(runes) > maxSummaryLen {
		summary = strings.TrimSpace(string(runes[:maxSummaryLen])) + "..."
	}

	return &Release{Title: title, Link: link, Published: published, Summary: summary}
}

// newer reports whether a was published after b. Undated items never win
// over dated ones.
func newer(a, b *Release) bool {
	if a.Published == nil {
		return false
	}
	if b.Published == nil {
		return true
	}
	return a.Published.After(*b.Published)
}

func stripHTML(text string) string {
	s := html.UnescapeString(stripTags.Sanitize(text))
	return strings.Join(strings.Fields(s), " ")
}
