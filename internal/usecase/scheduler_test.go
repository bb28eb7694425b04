package usecase

import (
	"context"
	"strings"
	"testing"

	"FeedSignals/internal/domain"
)

type pollFixture struct {
	source    *fakeSource
	store     *memoryStore
	sentiment *fakeSentiment
	notifier  *fakeNotifier
	poller    *PollScheduler
}

func newPollFixture(t *testing.T, initial ...string) *pollFixture {
	t.Helper()

	f := &pollFixture{
		source:    &fakeSource{},
		store:     &memoryStore{initial: initial},
		sentiment: &fakeSentiment{judgment: &domain.SentimentJudgment{Score: 0.5, Confidence: 0.9}},
		notifier:  &fakeNotifier{},
	}
	f.poller = NewPollScheduler(context.Background(), PollDeps{
		Sources:   []Source{{Name: "acct", Curated: true, Fetcher: f.source}},
		Store:     f.store,
		Sentiment: f.sentiment,
		Notifier:  f.notifier,
		Prompt:    PromptBuilder{Symbols: []string{"BTC/USDT"}, IncludeInstructions: true},
		Signals:   NewSignalGenerator(),
		Symbols:   []string{"BTC/USDT", "ETH/USDT"},
		Logger:    discardLogger(),
	})
	return f
}

func items(ids ...string) []domain.ContentItem {
	out := make([]domain.ContentItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, item("https://x.test/"+id, "post "+id))
	}
	return out
}

func TestRunCycleOnlyAnalyzesNovelContent(t *testing.T) {
	t.Parallel()

	f := newPollFixture(t)
	ctx := context.Background()

	f.source.items = items("a", "b", "c")
	first := f.poller.RunCycle(ctx)
	if first.Novel != 3 || !first.Persisted || first.Err != nil {
		t.Fatalf("unexpected first report: %+v", first)
	}
	if len(f.sentiment.payloads) != 1 {
		t.Fatalf("expected one sentiment call, got %d", len(f.sentiment.payloads))
	}
	if got := f.store.saved[0]; len(got) != 3 {
		t.Fatalf("expected 3 persisted identities, got %v", got)
	}

	f.source.items = items("a", "b", "c", "d")
	second := f.poller.RunCycle(ctx)
	if second.Novel != 1 || !second.Persisted {
		t.Fatalf("unexpected second report: %+v", second)
	}
	payload := f.sentiment.payloads[1]
	if !strings.Contains(payload, "post d") || strings.Contains(payload, "post a") {
		t.Fatalf("second payload should carry only the novel text: %q", payload)
	}
	if got := f.store.saved[1]; len(got) != 4 || got[3] != "https://x.test/d" {
		t.Fatalf("expected 4 persisted identities in insertion order, got %v", got)
	}
	for _, s := range second.Signals {
		if s.Signal != domain.SignalBuy {
			t.Fatalf("expected BUY for %s, got %s", s.Symbol, s.Signal)
		}
	}
	if f.poller.Phase() != PhaseIdle {
		t.Fatalf("expected IDLE after cycle, got %s", f.poller.Phase())
	}
}

func TestRunCycleWithoutNewContentHoldsAndSkipsPersistence(t *testing.T) {
	t.Parallel()

	f := newPollFixture(t, "https://x.test/a")
	f.source.items = items("a")

	report := f.poller.RunCycle(context.Background())
	if report.Novel != 0 || report.Persisted || report.Judgment != nil {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(f.sentiment.payloads) != 0 || len(f.store.saved) != 0 || len(f.notifier.reports) != 0 {
		t.Fatalf("nothing should be analyzed, saved or published")
	}
	for _, s := range report.Signals {
		if s.Signal != domain.SignalHold {
			t.Fatalf("expected HOLD, got %s", s.Signal)
		}
	}
}

func TestRunCycleHoldsWhenSentimentFails(t *testing.T) {
	t.Parallel()

	f := newPollFixture(t)
	f.sentiment.err = errBoom
	f.source.items = items("a")

	report := f.poller.RunCycle(context.Background())
	if report.Judgment != nil || !report.Persisted {
		t.Fatalf("expected persisted cycle without judgment: %+v", report)
	}
	for _, s := range report.Signals {
		if s.Signal != domain.SignalHold {
			t.Fatalf("expected HOLD, got %s", s.Signal)
		}
	}
	if len(f.notifier.reports) != 1 || !strings.Contains(f.notifier.reports[0], "HOLD") {
		t.Fatalf("expected one HOLD report, got %v", f.notifier.reports)
	}
}

func TestRunCycleForgetsIdentitiesWhenSaveFails(t *testing.T) {
	t.Parallel()

	f := newPollFixture(t, "https://x.test/old")
	f.store.saveErr = errBoom
	f.source.items = items("a", "b")

	report := f.poller.RunCycle(context.Background())
	if report.Persisted || report.Novel != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Signals) != 2 {
		t.Fatalf("signals should still be reported: %+v", report.Signals)
	}
	if f.poller.Known() != 1 {
		t.Fatalf("expected rollback to the loaded log, got %d identities", f.poller.Known())
	}

	f.store.saveErr = nil
	retry := f.poller.RunCycle(context.Background())
	if retry.Novel != 2 || !retry.Persisted {
		t.Fatalf("items should be novel again after a failed save: %+v", retry)
	}
}

func TestRunCycleHoldsWhenSentimentReturnsNothing(t *testing.T) {
	t.Parallel()

	for name, sentiment := range map[string]*fakeSentiment{
		"nil judgment": {},
		"panic":        {panic: true},
	} {
		sentiment := sentiment
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			f := newPollFixture(t)
			f.poller.sentiment = sentiment
			f.source.items = items("a")

			report := f.poller.RunCycle(context.Background())
			if report.Err != nil || report.Judgment != nil {
				t.Fatalf("expected degraded cycle without error: %+v", report)
			}
			if len(report.Signals) != 2 {
				t.Fatalf("expected a signal per symbol, got %+v", report.Signals)
			}
			for _, s := range report.Signals {
				if s.Signal != domain.SignalHold {
					t.Fatalf("expected HOLD for %s, got %s", s.Symbol, s.Signal)
				}
			}
			if !report.Persisted || f.poller.Known() != 1 {
				t.Fatalf("novel identity should be persisted: persisted=%v known=%d", report.Persisted, f.poller.Known())
			}
		})
	}
}

func TestRunCycleRecoversPanics(t *testing.T) {
	t.Parallel()

	f := newPollFixture(t)
	f.store.panic = true
	f.source.items = items("a")

	report := f.poller.RunCycle(context.Background())
	if report.Err == nil {
		t.Fatalf("expected cycle error")
	}
	if f.poller.Known() != 0 {
		t.Fatalf("insertions should be rolled back, got %d", f.poller.Known())
	}
	if f.poller.Phase() != PhaseIdle {
		t.Fatalf("expected IDLE after panic, got %s", f.poller.Phase())
	}
	if len(f.store.saved) != 0 {
		t.Fatalf("nothing should be persisted")
	}
}

func TestRunDrivesCyclesUntilDriverStops(t *testing.T) {
	t.Parallel()

	f := newPollFixture(t)
	f.source.items = items("a")
	f.poller.driver = &countingDriver{runs: 3}

	if err := f.poller.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.source.calls != 3 {
		t.Fatalf("expected 3 cycles, got %d", f.source.calls)
	}
	if len(f.store.saved) != 1 {
		t.Fatalf("only the first cycle had new content, got %d saves", len(f.store.saved))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.poller.Run(ctx); err == nil {
		t.Fatalf("expected cancelled context to stop the loop")
	}

	f.poller.driver = nil
	if err := f.poller.Run(context.Background()); err == nil {
		t.Fatalf("expected error without driver")
	}
}
