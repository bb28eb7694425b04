package parser

import (
	"context"
	"fmt"
	"log/slog"

	"FeedSignals/internal/domain"
	"FeedSignals/internal/ports"
	"FeedSignals/internal/scanner"
)

// StrategySource implements ContentSource for one configured source via a
// registered scanner strategy.
type StrategySource struct {
	strategy scanner.Scanner
	request  scanner.Request
	logger   *slog.Logger
}

var _ ports.ContentSource = (*StrategySource)(nil)

// NewStrategySource resolves the scanner for req and binds it.
func NewStrategySource(reg *scanner.Registry, scannerName string, req scanner.Request, log *slog.Logger) (*StrategySource, error) {
	if reg == nil {
		return nil, fmt.Errorf("scanner registry is not configured")
	}
	strategy, err := reg.Resolve(scannerName)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", req.SourceName, err)
	}
	return &StrategySource{strategy: strategy, request: req, logger: log}, nil
}

// Fetch executes the bound scanner and fills in missing source labels.
func (s *StrategySource) Fetch(ctx context.Context) ([]domain.ContentItem, error) {
	s.debug("fetch source", "source", s.request.SourceName, "scanner", s.strategy.Name(), "target", s.request.Target)

	results, err := s.strategy.Scan(ctx, s.request)
	if err != nil {
		return nil, fmt.Errorf("scan source %s: %w", s.request.SourceName, err)
	}

	for i := range results {
		if results[i].SourceLabel == "" {
			results[i].SourceLabel = s.request.SourceName
		}
	}
	s.debug("source produced items", "source", s.request.SourceName, "count", len(results))
	return results, nil
}

func (s *StrategySource) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
