package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"FeedSignals/internal/domain"
	"FeedSignals/internal/identity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeSource struct {
	items []domain.ContentItem
	err   error
	panic bool
	calls int
}

func (f *fakeSource) Fetch(context.Context) ([]domain.ContentItem, error) {
	f.calls++
	if f.panic {
		panic("feed exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.ContentItem(nil), f.items...), nil
}

func item(url, text string) domain.ContentItem {
	return domain.ContentItem{SourceLabel: "test", URL: url, Text: text}
}

type memoryStore struct {
	initial []string
	saved   [][]string
	saveErr error
	panic   bool
}

func (m *memoryStore) Load(context.Context) *identity.Log {
	return identity.FromStrings(m.initial)
}

func (m *memoryStore) Save(_ context.Context, log *identity.Log) error {
	if m.panic {
		panic("disk exploded")
	}
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, log.Strings())
	return nil
}

type fakeSentiment struct {
	judgment *domain.SentimentJudgment
	err      error
	panic    bool
	payloads []string
}

func (f *fakeSentiment) Analyze(_ context.Context, payload string) (*domain.SentimentJudgment, error) {
	f.payloads = append(f.payloads, payload)
	if f.panic {
		panic("model exploded")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.judgment, nil
}

type fakeNotifier struct {
	reports []string
	err     error
}

func (f *fakeNotifier) PublishSignals(_ context.Context, report string) error {
	f.reports = append(f.reports, report)
	return f.err
}

// countingDriver triggers the job a fixed number of times.
type countingDriver struct {
	runs int
}

func (d *countingDriver) Run(ctx context.Context, job func(context.Context, time.Time)) error {
	for i := 0; i < d.runs; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		job(ctx, time.Now())
	}
	return nil
}

var errBoom = errors.New("boom")
