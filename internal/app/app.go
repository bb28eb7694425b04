package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"FeedSignals/internal/config"
	"FeedSignals/internal/infrastructure/lexicon"
	"FeedSignals/internal/infrastructure/llm"
	"FeedSignals/internal/infrastructure/ml"
	"FeedSignals/internal/infrastructure/parser"
	"FeedSignals/internal/infrastructure/scheduler"
	"FeedSignals/internal/infrastructure/storage"
	"FeedSignals/internal/infrastructure/telegram"
	"FeedSignals/internal/logging"
	"FeedSignals/internal/ports"
	"FeedSignals/internal/scanner"
	"FeedSignals/internal/usecase"
)

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg     config.Config
	poller  *usecase.PollScheduler
	closers []func() error
	logger  *slog.Logger
}

// New builds a runnable application. Every error it returns is a
// configuration failure; nothing has been polled yet.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level, cfg.Logging.Format)
	}
	a := &Application{cfg: cfg, logger: baseLogger}

	registry, err := buildRegistry(ctx, cfg, baseLogger)
	if err != nil {
		return nil, err
	}

	sources, err := buildSources(registry, cfg.Sources, baseLogger)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, errors.New("no usable sources configured")
	}

	store, err := a.buildStore(ctx, baseLogger.With("component", "storage."+cfg.Storage.Driver))
	if err != nil {
		a.Close()
		return nil, err
	}

	sentiment, err := buildSentiment(cfg.Sentiment)
	if err != nil {
		a.Close()
		return nil, err
	}

	var notifier ports.Notifier
	if tg := cfg.Notifications.Telegram; tg.BotToken != "" && tg.ChatID != "" {
		notifier = telegram.NewNotifier(tg.BotToken, tg.ChatID, baseLogger.With("component", "notifier.telegram"))
	}

	a.poller = usecase.NewPollScheduler(ctx, usecase.PollDeps{
		Sources:    sources,
		Store:      store,
		Sentiment:  sentiment,
		Notifier:   notifier,
		Driver:     scheduler.NewIntervalDriver(cfg.Scheduler.Interval),
		Aggregator: usecase.NewAggregator(usecase.DefaultCuratedLimit, baseLogger.With("component", "aggregator")),
		Prompt: usecase.PromptBuilder{
			Symbols:             cfg.Trading.Symbols,
			IncludeInstructions: cfg.Sentiment.Provider != config.ProviderVader,
			MaxChars:            cfg.Sentiment.MaxPromptChars,
		},
		Signals: usecase.SignalGenerator{
			BuyThreshold:  cfg.Trading.BuyThreshold,
			SellThreshold: cfg.Trading.SellThreshold,
			MinConfidence: cfg.Trading.MinConfidence,
		},
		Symbols: cfg.Trading.Symbols,
		Logger:  baseLogger.With("component", "poller"),
	})

	baseLogger.Info("application ready",
		"sources", len(sources),
		"symbols", cfg.Trading.Symbols,
		"storage", cfg.Storage.Driver,
		"sentiment", cfg.Sentiment.Provider,
		"interval", cfg.Scheduler.Interval)
	return a, nil
}

// Run polls until ctx is cancelled. Cancellation is a clean shutdown.
func (a *Application) Run(ctx context.Context) error {
	err := a.poller.Run(ctx)
	if errors.Is(err, context.Canceled) {
		a.logger.Info("shutting down")
		return nil
	}
	return err
}

// RunOnce performs a single cycle and returns.
func (a *Application) RunOnce(ctx context.Context) (usecase.CycleReport, error) {
	report := a.poller.RunCycle(ctx)
	return report, report.Err
}

// Close releases store connections.
func (a *Application) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close resource", "error", err)
		}
	}
	a.closers = nil
}

func buildRegistry(ctx context.Context, cfg config.Config, logger *slog.Logger) (*scanner.Registry, error) {
	registry := scanner.NewRegistry()
	registry.Register(parser.NewNitterScanner(nil, ""))
	registry.Register(parser.NewRSSScanner(nil))

	creds := cfg.Credentials
	if creds.RedditClientID != "" && creds.RedditClientSecret != "" {
		reddit, err := parser.NewRedditScanner(ctx, parser.RedditCredentials{
			ClientID:     creds.RedditClientID,
			ClientSecret: creds.RedditClientSecret,
		})
		if err != nil {
			return nil, err
		}
		registry.Register(reddit)
	}
	if creds.NewsAPIKey != "" {
		registry.Register(parser.NewNewsAPIScanner(nil, creds.NewsAPIKey))
	}

	logger.Debug("scanners registered", "scanners", registry.Names())
	return registry, nil
}

// buildSources expands every enabled source into one usecase.Source per
// target. Sources whose scanner lacks credentials are skipped with a warning.
func buildSources(registry *scanner.Registry, configs []config.SourceConfig, logger *slog.Logger) ([]usecase.Source, error) {
	available := map[string]bool{}
	for _, name := range registry.Names() {
		available[name] = true
	}

	var sources []usecase.Source
	for _, sc := range configs {
		if sc.Disabled {
			continue
		}
		if !available[sc.Scanner] {
			if sc.Scanner == config.ScannerReddit || sc.Scanner == config.ScannerNewsAPI {
				logger.Warn("source skipped: credentials missing", "source", sc.Name, "scanner", sc.Scanner)
				continue
			}
			return nil, fmt.Errorf("source %s: unknown scanner %q", sc.Name, sc.Scanner)
		}

		targets := sc.Targets
		if len(targets) == 0 {
			targets = []string{""}
		}
		for _, target := range targets {
			name := sc.Name
			if target != "" {
				name = sc.Name + ":" + target
			}
			req := scanner.Request{
				SourceName: name,
				Target:     target,
				URL:        sc.URL,
				Limit:      sc.Limit,
				Options:    sc.Options,
			}
			fetcher, err := parser.NewStrategySource(registry, sc.Scanner, req, logger.With("component", "source"))
			if err != nil {
				return nil, err
			}
			sources = append(sources, usecase.Source{Name: name, Curated: sc.Curated(), Fetcher: fetcher})
		}
	}
	return sources, nil
}

func (a *Application) buildStore(ctx context.Context, logger *slog.Logger) (ports.IdentityStore, error) {
	st := a.cfg.Storage
	switch st.Driver {
	case config.StorageFile:
		return storage.NewFileStore(st.Path, logger), nil
	case config.StorageSQLite:
		store, err := storage.OpenSQLite(ctx, st.Path, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	case config.StorageValkey:
		store, err := storage.NewValkeyStore(ctx, storage.ValkeyOptions{
			Address:  st.Valkey.Address,
			Password: st.Valkey.Password,
			DB:       st.Valkey.DB,
			Key:      st.Valkey.Key,
		}, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			store.Close()
			return nil
		})
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", st.Driver)
	}
}

func buildSentiment(cfg config.SentimentConfig) (ports.SentimentClient, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		client, err := llm.NewSentimentClient(cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderInference:
		if cfg.BaseURL == "" {
			return nil, errors.New("inference provider needs a base url")
		}
		return ml.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Timeout), nil
	case config.ProviderVader:
		return lexicon.NewVaderClient(), nil
	default:
		return nil, fmt.Errorf("unknown sentiment provider %q", cfg.Provider)
	}
}
