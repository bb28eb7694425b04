package scanner

import (
	"context"
	"fmt"
	"sort"

	"FeedSignals/internal/domain"
)

// Request carries all parameters required to fetch one source.
type Request struct {
	SourceName string
	// Target is the account, subreddit or query the source follows.
	Target  string
	URL     string
	Limit   int
	Options map[string]string
}

// Scanner captures a single fetch strategy (nitter, rss, reddit, newsapi).
type Scanner interface {
	Name() string
	Scan(ctx context.Context, req Request) ([]domain.ContentItem, error)
}

// Registry keeps a mapping from scanner names to their implementations.
type Registry struct {
	scanners map[string]Scanner
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{scanners: map[string]Scanner{}}
}

// Register adds or replaces a scanner implementation.
func (r *Registry) Register(scanner Scanner) {
	if r.scanners == nil {
		r.scanners = map[string]Scanner{}
	}
	r.scanners[scanner.Name()] = scanner
}

// Resolve returns a scanner by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Scanner, error) {
	if scanner, ok := r.scanners[name]; ok {
		return scanner, nil
	}
	return nil, fmt.Errorf("scanner %s is not registered", name)
}

// Names lists registered scanners, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.scanners))
	for name := range r.scanners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
