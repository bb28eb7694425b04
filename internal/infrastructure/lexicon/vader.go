// Package lexicon scores sentiment offline with the VADER lexicon, for
// running without a language-model endpoint.
package lexicon

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/jonreiter/govader"

	"FeedSignals/internal/domain"
	"FeedSignals/internal/ports"
)

// VaderClient implements ports.SentimentClient with a local lexicon.
type VaderClient struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

var _ ports.SentimentClient = (*VaderClient)(nil)

func NewVaderClient() *VaderClient {
	return &VaderClient{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Analyze scores each line separately and averages the compound scores, so
// one long line does not drown the rest. Confidence is the share of
// non-neutral wording.
func (v *VaderClient) Analyze(ctx context.Context, payload string) (*domain.SentimentJudgment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		compound, polar float64
		scored          int
	)
	for _, line := range strings.Split(payload, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		s := v.analyzer.PolarityScores(line)
		compound += s.Compound
		polar += 1 - s.Neutral
		scored++
	}
	if scored == 0 {
		return nil, fmt.Errorf("%w: nothing to score", domain.ErrMalformedJudgment)
	}

	score := compound / float64(scored)
	return &domain.SentimentJudgment{
		Score:      math.Max(-1, math.Min(1, score)),
		Confidence: math.Max(0, math.Min(1, polar/float64(scored))),
		Reasoning:  fmt.Sprintf("VADER mean compound %.3f over %d lines", score, scored),
	}, nil
}
