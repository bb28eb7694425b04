package ports

import (
	"context"
	"time"

	"FeedSignals/internal/domain"
	"FeedSignals/internal/identity"
)

// ContentSource fetches the current items of one configured source.
type ContentSource interface {
	Fetch(ctx context.Context) ([]domain.ContentItem, error)
}

// IdentityStore persists the identity log across restarts.
type IdentityStore interface {
	// Load never fails: unreadable or corrupt storage yields an empty log.
	Load(ctx context.Context) *identity.Log
	Save(ctx context.Context, log *identity.Log) error
}

// SentimentClient asks a language model (or a local scorer) for a judgment.
type SentimentClient interface {
	Analyze(ctx context.Context, payload string) (*domain.SentimentJudgment, error)
}

// Notifier streams per-cycle signal reports to Telegram or other channels.
type Notifier interface {
	PublishSignals(ctx context.Context, report string) error
}

// Scheduler controls when cycles execute.
type Scheduler interface {
	Run(ctx context.Context, job func(ctx context.Context, trigger time.Time)) error
}
