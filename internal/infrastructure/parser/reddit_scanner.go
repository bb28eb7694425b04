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
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"FeedSignals/internal/domain"
	"FeedSignals/internal/scanner"
	"FeedSignals/internal/textutil"
)

const (
	redditAuthURL      = "https://www.reddit.com/api/v1/access_token"
	redditAPIURL       = "https://oauth.reddit.com"
	redditDefaultLimit = 5
	redditTextMax      = 250
)

// RedditCredentials are the script-app credentials used for client_credentials auth.
type RedditCredentials struct {
	ClientID     string
	ClientSecret string
}

// RedditScanner lists the newest posts of one subreddit.
type RedditScanner struct {
	client  *http.Client
	baseURL string
}

var _ scanner.Scanner = (*RedditScanner)(nil)

// NewRedditScanner builds an OAuth2-authenticated scanner.
func NewRedditScanner(ctx context.Context, creds RedditCredentials) (*RedditScanner, error) {
	if creds.ClientID == "" || creds.ClientSecret == "" {
		return nil, fmt.Errorf("reddit client misconfigured")
	}

	oauthConf := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     redditAuthURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	httpClient := oauthConf.Client(context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: 15 * time.Second}))
	httpClient.Timeout = 20 * time.Second
	return newRedditScanner(httpClient, redditAPIURL), nil
}

func newRedditScanner(client *http.Client, baseURL string) *RedditScanner {
	return &RedditScanner{client: defaultHTTPClient(client), baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Name identifies the strategy inside the registry.
func (r *RedditScanner) Name() string {
	return "reddit"
}

type redditListing struct {
	Data struct {
		Children []struct {
			Data redditPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPost struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	CreatedUTC float64 `json:"created_utc"`
}

// Scan returns "title - body" items truncated to 250 characters.
func (r *RedditScanner) Scan(ctx context.Context, req scanner.Request) ([]domain.ContentItem, error) {
	sub := strings.TrimPrefix(strings.TrimSpace(req.Target), "r/")
	if sub == "" {
		return nil, fmt.Errorf("no subreddit provided for source %s", req.SourceName)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = redditDefaultLimit
	}

	endpoint, err := url.Parse(fmt.Sprintf("%s/r/%s/new", r.baseURL, url.PathEscape(sub)))
	if err != nil {
		return nil, fmt.Errorf("invalid subreddit url: %w", err)
	}
	query := endpoint.Query()
	query.Set("limit", strconv.Itoa(limit))
	query.Set("raw_json", "1")
	endpoint.RawQuery = query.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("r/%s: request posts: %w", sub, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("r/%s: reddit returned %s: %s", sub, resp.Status, strings.TrimSpace(string(body)))
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, fmt.Errorf("r/%s: decode listing: %w", sub, err)
	}

	label := fmt.Sprintf("Reddit (r/%s)", sub)
	items := make([]domain.ContentItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		text := textutil.Collapse(post.Title)
		if body := textutil.MarkdownToText(post.Selftext); body != "" {
			text = text + " - " + body
		}

		link := post.URL
		if link == "" && post.Permalink != "" {
			link = "https://www.reddit.com" + post.Permalink
		}

		var published string
		if post.CreatedUTC > 0 {
			published = time.Unix(int64(post.CreatedUTC), 0).UTC().Format(time.RFC3339)
		}

		items = append(items, domain.ContentItem{
			SourceLabel: label,
			Text:        textutil.Truncate(text, redditTextMax),
			URL:         link,
			PublishedAt: published,
		})
	}
	return items, nil
}
