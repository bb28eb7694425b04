package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

const (
	configPathEnv      = "FEEDSIGNALS_CONFIG"
	logLevelEnv        = "LOG_LEVEL"
	symbolsEnv         = "SYMBOLS"
	pollIntervalEnv    = "POLL_INTERVAL"
	llmAPIKeyEnv       = "LLM_API_KEY"
	llmBaseURLEnv      = "LLM_BASE_URL"
	llmModelEnv        = "LLM_MODEL"
	redditIDEnv        = "REDDIT_CLIENT_ID"
	redditSecretEnv    = "REDDIT_CLIENT_SECRET"
	newsAPIKeyEnv      = "NEWS_API_KEY"
	telegramTokenEnv   = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv  = "TELEGRAM_CHAT_ID"
	valkeyAddressEnv   = "VALKEY_ADDRESS"
	valkeyPasswordEnv  = "VALKEY_PASSWORD"
	identityLogPathEnv = "IDENTITY_LOG_PATH"
)

// Scanner names accepted in source configuration.
const (
	ScannerNitter  = "nitter"
	ScannerRSS     = "rss"
	ScannerReddit  = "reddit"
	ScannerNewsAPI = "newsapi"
)

// Storage drivers for the identity log.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageValkey = "valkey"
)

// Sentiment providers.
const (
	ProviderOpenAI    = "openai"
	ProviderInference = "inference"
	ProviderVader     = "vader"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Trading       TradingConfig      `yaml:"trading"`
	Storage       StorageConfig      `yaml:"storage"`
	Sentiment     SentimentConfig    `yaml:"sentiment"`
	Credentials   CredentialsConfig  `yaml:"credentials"`
	Notifications NotificationConfig `yaml:"notifications"`
	Sources       []SourceConfig     `yaml:"sources"`
}

// LoggingConfig selects level and console format ("tint" or "text").
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig defines the fixed wait between cycles.
type SchedulerConfig struct {
	Interval time.Duration `yaml:"interval"`
}

// TradingConfig lists tracked symbols and the score-to-signal mapping.
type TradingConfig struct {
	Symbols       []string `yaml:"symbols"`
	BuyThreshold  float64  `yaml:"buyThreshold"`
	SellThreshold float64  `yaml:"sellThreshold"`
	// MinConfidence forces HOLD below the floor; zero keeps confidence out of the decision.
	MinConfidence float64 `yaml:"minConfidence"`
}

// StorageConfig describes where the identity log lives.
type StorageConfig struct {
	Driver string       `yaml:"driver"`
	Path   string       `yaml:"path"`
	Valkey ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig holds the connection for the valkey identity store.
type ValkeyConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Key      string `yaml:"key"`
}

// SentimentConfig defines how to contact the sentiment service.
type SentimentConfig struct {
	Provider       string        `yaml:"provider"`
	BaseURL        string        `yaml:"baseUrl"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"apiKey"`
	SystemPrompt   string        `yaml:"systemPrompt"`
	Timeout        time.Duration `yaml:"timeout"`
	MaxPromptChars int           `yaml:"maxPromptChars"`
}

// CredentialsConfig groups the API credentials of credentialed sources.
type CredentialsConfig struct {
	RedditClientID     string `yaml:"redditClientId"`
	RedditClientSecret string `yaml:"redditClientSecret"`
	NewsAPIKey         string `yaml:"newsApiKey"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
}

// SourceConfig describes one source with its scanner strategy. Each target
// (account, subreddit, query) becomes its own source at runtime.
type SourceConfig struct {
	Name     string            `yaml:"name"`
	Scanner  string            `yaml:"scanner"`
	URL      string            `yaml:"url"`
	Targets  []string          `yaml:"targets"`
	Limit    int               `yaml:"limit"`
	Disabled bool              `yaml:"disabled"`
	Options  map[string]string `yaml:"options"`
}

// Curated reports whether the source follows hand-picked accounts, which
// are fetched before generic feeds and capped per cycle.
func (s SourceConfig) Curated() bool {
	return s.Scanner == ScannerNitter || s.Scanner == ScannerReddit
}

// LoadEnvFile loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is fine.
func LoadEnvFile(path string) {
	if path == "" {
		return
	}
	if err := gotenv.Load(path); err != nil {
		slog.Debug("config: no env file loaded, using OS environment", "path", path, "error", err)
	}
}

// Load reads YAML configuration (if present) and applies environment overrides.
// path wins over the FEEDSIGNALS_CONFIG variable. A named file that cannot be
// read or parsed is an error; with no file the defaults apply. Keys absent
// from the file keep their defaults, so zero values such as a 0 threshold
// can be set explicitly.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.normalize()

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(symbolsEnv); v != "" {
		c.Trading.Symbols = splitList(v)
	}
	if v := os.Getenv(pollIntervalEnv); v != "" {
		if d, err := parseInterval(v); err == nil {
			c.Scheduler.Interval = d
		} else {
			slog.Warn("config: ignoring invalid poll interval", "value", v, "error", err)
		}
	}

	if v := os.Getenv(llmAPIKeyEnv); v != "" {
		c.Sentiment.APIKey = v
	}
	if v := os.Getenv(llmBaseURLEnv); v != "" {
		c.Sentiment.BaseURL = v
	}
	if v := os.Getenv(llmModelEnv); v != "" {
		c.Sentiment.Model = v
	}

	if v := os.Getenv(redditIDEnv); v != "" {
		c.Credentials.RedditClientID = v
	}
	if v := os.Getenv(redditSecretEnv); v != "" {
		c.Credentials.RedditClientSecret = v
	}
	if v := os.Getenv(newsAPIKeyEnv); v != "" {
		c.Credentials.NewsAPIKey = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(valkeyAddressEnv); v != "" {
		c.Storage.Valkey.Address = v
	}
	if v := os.Getenv(valkeyPasswordEnv); v != "" {
		c.Storage.Valkey.Password = v
	}
	if v := os.Getenv(identityLogPathEnv); v != "" {
		c.Storage.Path = v
	}
}

// normalize trims list entries and lowercases enum-like fields.
func (c *Config) normalize() {
	c.Trading.Symbols = compact(c.Trading.Symbols)
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Sentiment.Provider = strings.ToLower(strings.TrimSpace(c.Sentiment.Provider))
	for i := range c.Sources {
		c.Sources[i].Scanner = strings.ToLower(strings.TrimSpace(c.Sources[i].Scanner))
		c.Sources[i].Targets = compact(c.Sources[i].Targets)
		if c.Sources[i].Name == "" {
			c.Sources[i].Name = c.Sources[i].Scanner
		}
	}
}

func defaultConfig() Config {
	return Config{
		Logging:   LoggingConfig{Level: "info", Format: "tint"},
		Scheduler: SchedulerConfig{Interval: 60 * time.Second},
		Trading: TradingConfig{
			Symbols:       []string{"BTC/USDT"},
			BuyThreshold:  0.2,
			SellThreshold: -0.2,
		},
		Storage: StorageConfig{
			Driver: StorageFile,
			Path:   "data/identity_log.json",
			Valkey: ValkeyConfig{Key: "feedsignals:identities"},
		},
		Sentiment: SentimentConfig{
			Provider:       ProviderOpenAI,
			BaseURL:        "https://api.deepseek.com/v1",
			Model:          "deepseek-chat",
			Timeout:        60 * time.Second,
			MaxPromptChars: 12000,
		},
		Sources: []SourceConfig{
			{
				Name:    "nitter",
				Scanner: ScannerNitter,
				URL:     "https://nitter.net",
				Targets: []string{"elonmusk", "VitalikButerin"},
			},
			{
				Name:    "rsshub-home",
				Scanner: ScannerRSS,
				URL:     "http://localhost:1200/twitter/home_latest",
				Limit:   20,
			},
		},
	}
}

func splitList(v string) []string {
	return compact(strings.Split(v, ","))
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// parseInterval accepts Go durations ("90s") or plain seconds ("90").
func parseInterval(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse interval %q: %w", v, err)
	}
	return d, nil
}
