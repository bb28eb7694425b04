package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"FeedSignals/internal/domain"
	"FeedSignals/internal/identity"
	"FeedSignals/internal/ports"
)

const promptPreviewChars = 300

// Phase is the state of the poll cycle.
type Phase string

const (
	PhaseIdle       Phase = "IDLE"
	PhaseFetching   Phase = "FETCHING"
	PhaseAnalyzing  Phase = "ANALYZING"
	PhaseDeciding   Phase = "DECIDING"
	PhasePersisting Phase = "PERSISTING"
)

// PollDeps wires all driven adapters into the poll scheduler.
type PollDeps struct {
	Sources    []Source
	Store      ports.IdentityStore
	Sentiment  ports.SentimentClient
	Notifier   ports.Notifier
	Driver     ports.Scheduler
	Aggregator *Aggregator
	Prompt     PromptBuilder
	Signals    SignalGenerator
	Symbols    []string
	Logger     *slog.Logger
}

// CycleReport summarises one completed cycle.
type CycleReport struct {
	Started   time.Time
	Novel     int
	Judgment  *domain.SentimentJudgment
	Signals   []domain.SymbolSignal
	Persisted bool
	Err       error
}

// PollScheduler owns the identity log and runs fetch, analyze, decide and
// persist in sequence, once per trigger of its driver.
type PollScheduler struct {
	sources    []Source
	store      ports.IdentityStore
	sentiment  ports.SentimentClient
	notifier   ports.Notifier
	driver     ports.Scheduler
	aggregator *Aggregator
	prompt     PromptBuilder
	signals    SignalGenerator
	symbols    []string
	logger     *slog.Logger

	log   *identity.Log
	phase Phase
}

// NewPollScheduler builds the scheduler and loads the identity log once.
func NewPollScheduler(ctx context.Context, deps PollDeps) *PollScheduler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	aggregator := deps.Aggregator
	if aggregator == nil {
		aggregator = NewAggregator(DefaultCuratedLimit, logger)
	}

	log := identity.NewLog()
	if deps.Store != nil {
		if loaded := deps.Store.Load(ctx); loaded != nil {
			log = loaded
		}
	}
	logger.Info("identity log loaded", "identities", log.Len())

	return &PollScheduler{
		sources:    deps.Sources,
		store:      deps.Store,
		sentiment:  deps.Sentiment,
		notifier:   deps.Notifier,
		driver:     deps.Driver,
		aggregator: aggregator,
		prompt:     deps.Prompt,
		signals:    deps.Signals,
		symbols:    deps.Symbols,
		logger:     logger,
		log:        log,
		phase:      PhaseIdle,
	}
}

// Phase returns the current cycle state.
func (p *PollScheduler) Phase() Phase {
	return p.phase
}

// Known returns how many identities the in-memory log holds.
func (p *PollScheduler) Known() int {
	return p.log.Len()
}

// Run executes cycles on the driver's schedule until ctx is cancelled.
// Cancellation stops the loop between cycles; a started cycle runs to the end.
func (p *PollScheduler) Run(ctx context.Context) error {
	if p.driver == nil {
		return fmt.Errorf("poll scheduler has no driver")
	}
	return p.driver.Run(ctx, func(ctx context.Context, trigger time.Time) {
		report := p.RunCycle(context.WithoutCancel(ctx))
		if report.Err != nil {
			p.logger.Error("cycle aborted", "trigger", trigger, "error", report.Err)
		}
	})
}

// RunCycle performs one full cycle. It never panics: a failure inside the
// cycle is recorded in the report and the cycle's log insertions are undone.
func (p *PollScheduler) RunCycle(ctx context.Context) (report CycleReport) {
	report.Started = time.Now()
	mark := p.log.Len()

	defer func() {
		if r := recover(); r != nil {
			p.rollbackSince(mark)
			report.Err = fmt.Errorf("cycle panicked: %v", r)
		}
		p.enter(PhaseIdle)
	}()

	p.enter(PhaseFetching)
	batch := p.aggregator.Aggregate(ctx, p.sources, p.log)
	report.Novel = len(batch.NewIDs)
	p.logger.Info("sources polled", "sources", len(batch.Stats), "novel", report.Novel)

	p.enter(PhaseAnalyzing)
	report.Judgment = p.analyze(ctx, batch)

	p.enter(PhaseDeciding)
	report.Signals = p.signals.Ordered(report.Judgment, p.symbols)
	for _, s := range report.Signals {
		p.logger.Info("signal", "symbol", s.Symbol, "signal", s.Signal)
	}

	p.enter(PhasePersisting)
	report.Persisted = p.persist(ctx, batch.NewIDs)
	mark = p.log.Len()

	if !batch.Empty() {
		p.notify(ctx, FormatReport(report.Signals, report.Judgment, report.Novel))
	}
	return report
}

func (p *PollScheduler) analyze(ctx context.Context, batch Batch) *domain.SentimentJudgment {
	if batch.Empty() {
		p.logger.Info("no new content, holding")
		return nil
	}
	if p.sentiment == nil {
		p.logger.Warn("sentiment client not configured, holding")
		return nil
	}

	payload := p.prompt.Build(batch.Texts)
	p.logger.Debug("prompt preview", "prompt", preview(payload, promptPreviewChars))

	judgment, err := p.callSentiment(ctx, payload)
	if err != nil {
		p.logger.Warn("sentiment analysis failed", "error", err)
		return nil
	}
	if judgment == nil {
		p.logger.Warn("sentiment client returned no judgment, holding")
		return nil
	}
	p.logger.Info("sentiment judgment",
		"score", judgment.Score,
		"confidence", judgment.Confidence,
		"reasoning", judgment.Reasoning)
	return judgment
}

// callSentiment turns a panicking client into an ordinary failure.
func (p *PollScheduler) callSentiment(ctx context.Context, payload string) (judgment *domain.SentimentJudgment, err error) {
	defer func() {
		if r := recover(); r != nil {
			judgment, err = nil, fmt.Errorf("sentiment client panicked: %v", r)
		}
	}()
	return p.sentiment.Analyze(ctx, payload)
}

// persist flushes the whole log when the cycle found new identities. On
// failure the new identities are forgotten so they are seen again next cycle.
func (p *PollScheduler) persist(ctx context.Context, newIDs []identity.ID) bool {
	if len(newIDs) == 0 || p.store == nil {
		return false
	}
	if err := p.store.Save(ctx, p.log); err != nil {
		p.logger.Error("persist identity log", "error", err, "dropped", len(newIDs))
		p.log.Remove(newIDs...)
		return false
	}
	p.logger.Debug("identity log persisted", "identities", p.log.Len())
	return true
}

func (p *PollScheduler) notify(ctx context.Context, report string) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.PublishSignals(ctx, report); err != nil {
		p.logger.Warn("publish signals", "error", err)
	}
}

func (p *PollScheduler) rollbackSince(mark int) {
	values := p.log.Values()
	if mark < len(values) {
		p.log.Remove(values[mark:]...)
	}
}

func (p *PollScheduler) enter(phase Phase) {
	p.phase = phase
	p.logger.Debug("cycle phase", "phase", phase)
}
