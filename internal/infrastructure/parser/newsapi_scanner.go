package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"FeedSignals/internal/domain"
	"FeedSignals/internal/scanner"
	"FeedSignals/internal/textutil"
)

const newsAPIEndpoint = "https://newsapi.org/v2/everything"

// NewsAPIScanner searches newsapi.org for articles matching the source's keywords.
type NewsAPIScanner struct {
	client   *http.Client
	apiKey   string
	endpoint string
}

var _ scanner.Scanner = (*NewsAPIScanner)(nil)

// NewNewsAPIScanner builds a scanner for the /v2/everything endpoint.
func NewNewsAPIScanner(client *http.Client, apiKey string) *NewsAPIScanner {
	return &NewsAPIScanner{client: defaultHTTPClient(client), apiKey: apiKey, endpoint: newsAPIEndpoint}
}

// Name identifies the strategy inside the registry.
func (n *NewsAPIScanner) Name() string {
	return "newsapi"
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Source struct {
			Name string `json:"name"`
		} `json:"source"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		PublishedAt string `json:"publishedAt"`
	} `json:"articles"`
}

// Scan queries by req.Target; options "language" and "sort_by" override the defaults.
func (n *NewsAPIScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ContentItem, error) {
	if n.apiKey == "" {
		return nil, fmt.Errorf("newsapi client misconfigured")
	}
	keywords := strings.TrimSpace(req.Target)
	if keywords == "" {
		return nil, fmt.Errorf("no keywords provided for source %s", req.SourceName)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultFeedLimit
	}

	endpoint := n.endpoint
	if req.URL != "" {
		endpoint = req.URL
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid newsapi url %s: %w", endpoint, err)
	}
	query := parsed.Query()
	query.Set("q", keywords)
	query.Set("language", option(req.Options, "language", "en"))
	query.Set("sortBy", option(req.Options, "sort_by", "publishedAt"))
	query.Set("pageSize", strconv.Itoa(limit))
	parsed.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("X-Api-Key", n.apiKey)

	resp, err := n.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request news: %w", err)
	}
	defer resp.Body.Close()

	var payload newsAPIResponse
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if json.Unmarshal(body, &payload) == nil && payload.Message != "" {
			return nil, fmt.Errorf("newsapi returned %s: %s", resp.Status, payload.Message)
		}
		return nil, fmt.Errorf("newsapi returned %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode news: %w", err)
	}

	items := make([]domain.ContentItem, 0, len(payload.Articles))
	for _, article := range payload.Articles {
		title := textutil.Collapse(article.Title)
		summary := textutil.HTMLToText(article.Description)

		label := "NewsAPI"
		if article.Source.Name != "" {
			label = "NewsAPI (" + article.Source.Name + ")"
		}

		items = append(items, domain.ContentItem{
			SourceLabel: label,
			Title:       title,
			Summary:     summary,
			Text:        strings.TrimSpace(title + " " + summary),
			URL:         strings.TrimSpace(article.URL),
			PublishedAt: article.PublishedAt,
		})
	}
	return items, nil
}

func option(opts map[string]string, key, fallback string) string {
	if v := strings.TrimSpace(opts[key]); v != "" {
		return v
	}
	return fallback
}
