package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"FeedSignals/internal/config"
	"FeedSignals/internal/domain"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>home</title>
<item><title>Bitcoin ETF approved, great news</title><link>https://feed.test/1</link><description>Investors are happy</description></item>
<item><title>Exchange hacked, terrible losses</title><link>https://feed.test/2</link><description>Panic everywhere</description></item>
</channel></rss>`

func testConfig(t *testing.T, feedURL string) config.Config {
	t.Helper()
	return config.Config{
		Logging:   config.LoggingConfig{Level: "error", Format: "text"},
		Scheduler: config.SchedulerConfig{Interval: time.Minute},
		Trading: config.TradingConfig{
			Symbols:       []string{"BTC/USDT", "ETH/USDT"},
			BuyThreshold:  0.2,
			SellThreshold: -0.2,
		},
		Storage:   config.StorageConfig{Driver: config.StorageFile, Path: filepath.Join(t.TempDir(), "identity_log.json")},
		Sentiment: config.SentimentConfig{Provider: config.ProviderVader},
		Sources: []config.SourceConfig{
			{Name: "home", Scanner: config.ScannerRSS, URL: feedURL},
			{Name: "reddit", Scanner: config.ScannerReddit, Targets: []string{"CryptoCurrency"}},
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunOncePersistsNovelIdentities(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = io.WriteString(w, sampleFeed)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)
	ctx := context.Background()

	application, err := New(ctx, cfg, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer application.Close()

	report, err := application.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if report.Novel != 2 || !report.Persisted || report.Judgment == nil {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.Signals) != 2 {
		t.Fatalf("expected a signal per symbol, got %+v", report.Signals)
	}

	raw, err := os.ReadFile(cfg.Storage.Path)
	if err != nil {
		t.Fatalf("read identity log: %v", err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		t.Fatalf("decode identity log: %v", err)
	}
	if len(ids) != 2 || ids[0] != "https://feed.test/1" || ids[1] != "https://feed.test/2" {
		t.Fatalf("unexpected identities: %v", ids)
	}

	// a restarted process sees nothing new
	restarted, err := New(ctx, cfg, discardLogger())
	if err != nil {
		t.Fatalf("New after restart: %v", err)
	}
	defer restarted.Close()
	again, err := restarted.RunOnce(ctx)
	if err != nil {
		t.Fatalf("RunOnce after restart: %v", err)
	}
	if again.Novel != 0 || again.Judgment != nil {
		t.Fatalf("expected no novel content after restart: %+v", again)
	}
	for _, s := range again.Signals {
		if s.Signal != domain.SignalHold {
			t.Fatalf("expected HOLD, got %s", s.Signal)
		}
	}
}

func TestNewRejectsBadConfiguration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cfg := testConfig(t, "http://feed.invalid")
	cfg.Sources = append(cfg.Sources, config.SourceConfig{Name: "mystery", Scanner: "gopher", Targets: []string{"x"}})
	if _, err := New(ctx, cfg, discardLogger()); err == nil {
		t.Fatalf("expected unknown scanner error")
	}

	cfg = testConfig(t, "http://feed.invalid")
	cfg.Sources = cfg.Sources[1:]
	if _, err := New(ctx, cfg, discardLogger()); err == nil {
		t.Fatalf("expected error when every source lacks credentials")
	}

	cfg = testConfig(t, "http://feed.invalid")
	cfg.Sentiment = config.SentimentConfig{Provider: config.ProviderOpenAI}
	if _, err := New(ctx, cfg, discardLogger()); err == nil {
		t.Fatalf("expected sentiment misconfiguration error")
	}

	cfg = testConfig(t, "http://feed.invalid")
	cfg.Storage.Driver = "tape"
	if _, err := New(ctx, cfg, discardLogger()); err == nil {
		t.Fatalf("expected unknown storage error")
	}
}

func TestNewBuildsSQLiteStore(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://feed.invalid")
	cfg.Storage = config.StorageConfig{Driver: config.StorageSQLite, Path: filepath.Join(t.TempDir(), "identities.db")}

	application, err := New(context.Background(), cfg, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	application.Close()
	if _, err := os.Stat(cfg.Storage.Path); err != nil {
		t.Fatalf("expected sqlite database file: %v", err)
	}
}
