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

const defaultNitterInstance = "https://nitter.net"

// NitterScanner reads the RSS timeline of a single account from a Nitter instance.
type NitterScanner struct {
	client   *http.Client
	instance string
}

var _ scanner.Scanner = (*NitterScanner)(nil)

// NewNitterScanner wires an HTTP client; instance defaults to nitter.net.
func NewNitterScanner(client *http.Client, instance string) *NitterScanner {
	instance = strings.TrimSuffix(strings.TrimSpace(instance), "/")
	if instance == "" {
		instance = defaultNitterInstance
	}
	return &NitterScanner{client: defaultHTTPClient(client), instance: instance}
}

// Name identifies the strategy inside the registry.
func (n *NitterScanner) Name() string {
	return "nitter"
}

// Scan returns the account's posts in feed order (newest first).
func (n *NitterScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ContentItem, error) {
	account := strings.TrimPrefix(strings.TrimSpace(req.Target), "@")
	if account == "" {
		return nil, fmt.Errorf("no account provided for source %s", req.SourceName)
	}

	base := n.instance
	if req.URL != "" {
		base = strings.TrimSuffix(req.URL, "/")
	}
	feedURL := fmt.Sprintf("%s/%s/rss", base, account)

	feed, err := fetchFeed(ctx, n.client, feedURL)
	if err != nil {
		return nil, fmt.Errorf("account @%s: %w", account, err)
	}

	label := fmt.Sprintf("Twitter RSS (@%s)", account)
	items := make([]domain.ContentItem, 0, len(feed.Items))
	for _, entry := range feed.Items {
		items = append(items, domain.ContentItem{
			SourceLabel: label,
			Text:        textutil.HTMLToText(entry.Title),
			URL:         strings.TrimSpace(entry.Link),
			PublishedAt: entry.Published,
		})
	}
	return items, nil
}
