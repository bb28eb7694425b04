package usecase

import (
	"context"
	"fmt"
	"testing"

	"FeedSignals/internal/domain"
	"FeedSignals/internal/identity"
)

func TestAggregateNoveltyIsIdempotent(t *testing.T) {
	t.Parallel()

	src := &fakeSource{items: []domain.ContentItem{
		item("https://x.test/1", "first"),
		item("https://x.test/2", "second"),
	}}
	sources := []Source{{Name: "feed", Fetcher: src}}
	agg := NewAggregator(0, discardLogger())
	log := identity.NewLog()

	first := agg.Aggregate(context.Background(), sources, log)
	if len(first.Texts) != 2 || len(first.NewIDs) != 2 {
		t.Fatalf("expected two novel items, got %+v", first)
	}

	second := agg.Aggregate(context.Background(), sources, log)
	if !second.Empty() || len(second.NewIDs) != 0 {
		t.Fatalf("expected no novel items on repeat, got %+v", second)
	}
	if log.Len() != 2 {
		t.Fatalf("expected 2 identities, got %d", log.Len())
	}
}

func TestAggregateCapsCuratedSources(t *testing.T) {
	t.Parallel()

	var items []domain.ContentItem
	for i := 0; i < 12; i++ {
		items = append(items, item(fmt.Sprintf("https://x.test/%d", i), fmt.Sprintf("post %d", i)))
	}
	curated := &fakeSource{items: items}
	generic := &fakeSource{items: items}

	agg := NewAggregator(DefaultCuratedLimit, discardLogger())
	batch := agg.Aggregate(context.Background(), []Source{{Name: "acct", Curated: true, Fetcher: curated}}, identity.NewLog())
	if len(batch.Texts) != 5 {
		t.Fatalf("expected 5 capped items, got %d", len(batch.Texts))
	}
	for i, text := range batch.Texts {
		if want := fmt.Sprintf("post %d", i); text != want {
			t.Fatalf("expected first five in fetch order, got %q at %d", text, i)
		}
	}

	batch = agg.Aggregate(context.Background(), []Source{{Name: "feed", Fetcher: generic}}, identity.NewLog())
	if len(batch.Texts) != 12 {
		t.Fatalf("generic source should not be capped, got %d", len(batch.Texts))
	}
}

func TestAggregateIsolatesFailingSources(t *testing.T) {
	t.Parallel()

	good := &fakeSource{items: []domain.ContentItem{item("https://x.test/ok", "still here")}}
	sources := []Source{
		{Name: "broken", Curated: true, Fetcher: &fakeSource{err: errBoom}},
		{Name: "panicky", Curated: true, Fetcher: &fakeSource{panic: true}},
		{Name: "unwired"},
		{Name: "good", Fetcher: good},
	}

	batch := NewAggregator(0, discardLogger()).Aggregate(context.Background(), sources, identity.NewLog())
	if len(batch.Texts) != 1 || batch.Texts[0] != "still here" {
		t.Fatalf("expected only the healthy source, got %+v", batch.Texts)
	}
	failed := 0
	for _, s := range batch.Stats {
		if s.Failed {
			failed++
		}
	}
	if failed != 3 || len(batch.Stats) != 4 {
		t.Fatalf("unexpected stats: %+v", batch.Stats)
	}
}

func TestAggregateOrdersCuratedFirst(t *testing.T) {
	t.Parallel()

	sources := []Source{
		{Name: "generic-1", Fetcher: &fakeSource{items: []domain.ContentItem{item("g1", "generic one")}}},
		{Name: "acct-1", Curated: true, Fetcher: &fakeSource{items: []domain.ContentItem{item("c1", "curated one")}}},
		{Name: "generic-2", Fetcher: &fakeSource{items: []domain.ContentItem{item("g2", "generic two")}}},
		{Name: "acct-2", Curated: true, Fetcher: &fakeSource{items: []domain.ContentItem{item("c2", "curated two")}}},
	}

	batch := NewAggregator(0, discardLogger()).Aggregate(context.Background(), sources, identity.NewLog())
	want := []string{"curated one", "curated two", "generic one", "generic two"}
	if len(batch.Texts) != len(want) {
		t.Fatalf("unexpected texts: %v", batch.Texts)
	}
	for i := range want {
		if batch.Texts[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v", i, batch.Texts)
		}
	}
}

func TestAggregateSkipsEmptyAndRepeatedItems(t *testing.T) {
	t.Parallel()

	src := &fakeSource{items: []domain.ContentItem{
		item("https://x.test/blank", "   "),
		{Text: "  no url  "},
		{Text: "no url"},
		item("https://x.test/a", "a"),
		item("https://x.test/a", "a again"),
	}}

	log := identity.NewLog()
	batch := NewAggregator(0, discardLogger()).Aggregate(context.Background(), []Source{{Name: "feed", Fetcher: src}}, log)
	if len(batch.Texts) != 2 || batch.Texts[0] != "no url" || batch.Texts[1] != "a" {
		t.Fatalf("unexpected texts: %q", batch.Texts)
	}
	if log.Contains(identity.ID("https://x.test/blank")) {
		t.Fatalf("empty item must not be recorded")
	}
}
