package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
// Any error here is fatal: the poller must not start half-configured.
func (c *Config) Validate() error {
	if len(c.Trading.Symbols) == 0 {
		return errors.New("trading.symbols must list at least one symbol")
	}
	if c.Trading.BuyThreshold < c.Trading.SellThreshold {
		return errors.New("trading.buyThreshold must be >= trading.sellThreshold")
	}
	if c.Trading.MinConfidence < 0 || c.Trading.MinConfidence > 1 {
		return errors.New("trading.minConfidence must be within [0, 1]")
	}

	if c.Scheduler.Interval <= 0 {
		return errors.New("scheduler.interval must be positive")
	}

	switch c.Storage.Driver {
	case StorageFile, StorageSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for driver %s", c.Storage.Driver)
		}
	case StorageValkey:
		if c.Storage.Valkey.Address == "" {
			return errors.New("storage.valkey.address is required for driver valkey")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Sentiment.Provider {
	case ProviderOpenAI:
		if c.Sentiment.APIKey == "" {
			return errors.New("sentiment.apiKey (or LLM_API_KEY) is required for provider openai")
		}
		if c.Sentiment.Model == "" {
			return errors.New("sentiment.model is required for provider openai")
		}
	case ProviderInference:
		if c.Sentiment.BaseURL == "" {
			return errors.New("sentiment.baseUrl is required for provider inference")
		}
	case ProviderVader:
	default:
		return fmt.Errorf("unknown sentiment provider %q", c.Sentiment.Provider)
	}

	enabled := 0
	for _, src := range c.Sources {
		if src.Disabled {
			continue
		}
		switch src.Scanner {
		case ScannerNitter, ScannerReddit, ScannerNewsAPI:
			if len(src.Targets) == 0 {
				return fmt.Errorf("source %s: targets are required for scanner %s", src.Name, src.Scanner)
			}
		case ScannerRSS:
			if src.URL == "" {
				return fmt.Errorf("source %s: url is required for scanner rss", src.Name)
			}
		default:
			return fmt.Errorf("source %s: unknown scanner %q", src.Name, src.Scanner)
		}
		enabled++
	}
	if enabled == 0 {
		return errors.New("at least one enabled source is required")
	}

	return nil
}
