package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrMalformedJudgment marks a sentiment answer that could not be used.
var ErrMalformedJudgment = errors.New("malformed sentiment judgment")

// DecodeJudgment parses a JSON judgment, tolerating markdown code fences
// around it. A missing sentiment_score is malformed; values are clamped
// into their documented ranges.
func DecodeJudgment(raw string) (*SentimentJudgment, error) {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedJudgment)
	}

	var wire struct {
		Score      *float64 `json:"sentiment_score"`
		Confidence *float64 `json:"confidence"`
		Reasoning  string   `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedJudgment, err)
	}
	if wire.Score == nil {
		return nil, fmt.Errorf("%w: sentiment_score missing", ErrMalformedJudgment)
	}

	judgment := &SentimentJudgment{
		Score:     clamp(*wire.Score, -1, 1),
		Reasoning: strings.TrimSpace(wire.Reasoning),
	}
	if wire.Confidence != nil {
		judgment.Confidence = clamp(*wire.Confidence, 0, 1)
	}
	return judgment, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
