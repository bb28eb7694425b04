package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"FeedSignals/internal/domain"
	"FeedSignals/internal/identity"
	"FeedSignals/internal/ports"
)

// DefaultCuratedLimit bounds how many items one curated source contributes per cycle.
const DefaultCuratedLimit = 5

// Source is one configured content source as seen by the aggregator.
type Source struct {
	Name    string
	Curated bool
	Fetcher ports.ContentSource
}

// SourceStats describes what a single source contributed to a cycle.
type SourceStats struct {
	Name    string
	Fetched int
	Novel   int
	Failed  bool
}

// Batch is the novel content found during one cycle.
type Batch struct {
	Texts  []string
	NewIDs []identity.ID
	Stats  []SourceStats
}

// Empty reports whether the cycle found nothing new.
func (b Batch) Empty() bool {
	return len(b.Texts) == 0
}

// Aggregator fetches all sources in priority order and keeps only novel items.
type Aggregator struct {
	curatedLimit int
	logger       *slog.Logger
}

// NewAggregator returns an aggregator; a non-positive limit selects DefaultCuratedLimit.
func NewAggregator(curatedLimit int, logger *slog.Logger) *Aggregator {
	if curatedLimit <= 0 {
		curatedLimit = DefaultCuratedLimit
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{curatedLimit: curatedLimit, logger: logger}
}

// Aggregate queries every source and inserts the identities of novel items
// into log. It never persists log and never fails: a broken source
// contributes zero items.
func (a *Aggregator) Aggregate(ctx context.Context, sources []Source, log *identity.Log) Batch {
	var batch Batch
	for _, src := range prioritized(sources) {
		if ctx.Err() != nil {
			break
		}

		stats := SourceStats{Name: src.Name}
		items, err := a.fetch(ctx, src)
		if err != nil {
			a.logger.Warn("source fetch failed", "source", src.Name, "error", err)
			stats.Failed = true
			batch.Stats = append(batch.Stats, stats)
			continue
		}
		if src.Curated && len(items) > a.curatedLimit {
			a.logger.Debug("capping curated source", "source", src.Name, "fetched", len(items), "limit", a.curatedLimit)
			items = items[:a.curatedLimit]
		}
		stats.Fetched = len(items)

		for _, item := range items {
			text := strings.TrimSpace(item.Text)
			if text == "" {
				continue
			}
			item.Text = text

			id := identity.Of(item)
			if !log.Add(id) {
				a.logger.Debug("already processed", "source", src.Name, "id", id)
				continue
			}

			a.logger.Info("new content", "source", labelOf(src, item), "text", preview(text, 120))
			batch.Texts = append(batch.Texts, text)
			batch.NewIDs = append(batch.NewIDs, id)
			stats.Novel++
		}
		batch.Stats = append(batch.Stats, stats)
	}
	return batch
}

func (a *Aggregator) fetch(ctx context.Context, src Source) (items []domain.ContentItem, err error) {
	if src.Fetcher == nil {
		return nil, fmt.Errorf("source %s has no fetcher", src.Name)
	}
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, fmt.Errorf("source %s panicked: %v", src.Name, r)
		}
	}()
	return src.Fetcher.Fetch(ctx)
}

// prioritized puts curated sources first, keeping configuration order within each class.
func prioritized(sources []Source) []Source {
	ordered := append([]Source(nil), sources...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Curated && !ordered[j].Curated
	})
	return ordered
}

func labelOf(src Source, item domain.ContentItem) string {
	if item.SourceLabel != "" {
		return item.SourceLabel
	}
	return src.Name
}

func preview(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
