package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"FeedSignals/internal/domain"
	"FeedSignals/internal/scanner"
	"FeedSignals/internal/textutil"
)

const defaultFeedLimit = 20

// RSSScanner reads a generic feed endpoint such as an RSSHub route.
type RSSScanner struct {
	client *http.Client
}

var _ scanner.Scanner = (*RSSScanner)(nil)

// NewRSSScanner wires an HTTP client.
func NewRSSScanner(client *http.Client) *RSSScanner {
	return &RSSScanner{client: defaultHTTPClient(client)}
}

// Name identifies the strategy inside the registry.
func (r *RSSScanner) Name() string {
	return "rss"
}

// Scan returns at most req.Limit entries (20 by default) as title+summary items.
func (r *RSSScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ContentItem, error) {
	if strings.TrimSpace(req.URL) == "" {
		return nil, fmt.Errorf("no feed url provided for source %s", req.SourceName)
	}

	feed, err := fetchFeed(ctx, r.client, req.URL)
	if err != nil {
		return nil, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	entries := feed.Items
	if len(entries) > limit {
		entries = entries[:limit]
	}

	label := req.SourceName
	if label == "" {
		label = feed.Title
	}

	items := make([]domain.ContentItem, 0, len(entries))
	for _, entry := range entries {
		title := textutil.HTMLToText(entry.Title)
		summary := textutil.HTMLToText(summaryOf(entry))
		items = append(items, domain.ContentItem{
			SourceLabel: label,
			Title:       title,
			Summary:     summary,
			Text:        strings.TrimSpace(title + " " + summary),
			URL:         strings.TrimSpace(entry.Link),
			PublishedAt: entry.Published,
		})
	}
	return items, nil
}
