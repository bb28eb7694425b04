package usecase

import (
	"fmt"
	"strings"

	"FeedSignals/internal/domain"
)

// Default score thresholds. Comparisons are strict.
const (
	DefaultBuyThreshold  = 0.2
	DefaultSellThreshold = -0.2
)

// SignalGenerator maps one sentiment judgment to a signal per symbol.
type SignalGenerator struct {
	BuyThreshold  float64
	SellThreshold float64
	// MinConfidence forces HOLD when the judgment's confidence is below it; zero disables the floor.
	MinConfidence float64
}

// NewSignalGenerator returns a generator with the default thresholds.
func NewSignalGenerator() SignalGenerator {
	return SignalGenerator{BuyThreshold: DefaultBuyThreshold, SellThreshold: DefaultSellThreshold}
}

// Decide maps a judgment to a single signal. A nil judgment is HOLD.
func (g SignalGenerator) Decide(j *domain.SentimentJudgment) domain.Signal {
	switch {
	case j == nil:
		return domain.SignalHold
	case g.MinConfidence > 0 && j.Confidence < g.MinConfidence:
		return domain.SignalHold
	case j.Score > g.BuyThreshold:
		return domain.SignalBuy
	case j.Score < g.SellThreshold:
		return domain.SignalSell
	default:
		return domain.SignalHold
	}
}

// Generate returns the signal for every symbol. All symbols share the batch's judgment.
func (g SignalGenerator) Generate(j *domain.SentimentJudgment, symbols []string) map[string]domain.Signal {
	out := make(map[string]domain.Signal, len(symbols))
	for _, s := range g.Ordered(j, symbols) {
		out[s.Symbol] = s.Signal
	}
	return out
}

// Ordered is Generate preserving the order of symbols, for reporting.
func (g SignalGenerator) Ordered(j *domain.SentimentJudgment, symbols []string) []domain.SymbolSignal {
	signal := g.Decide(j)
	out := make([]domain.SymbolSignal, 0, len(symbols))
	for _, symbol := range symbols {
		out = append(out, domain.SymbolSignal{Symbol: symbol, Signal: signal})
	}
	return out
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// FormatReport renders per-symbol signals as a Markdown message. Free text
// (symbols, model reasoning) is escaped.
func FormatReport(signals []domain.SymbolSignal, j *domain.SentimentJudgment, novel int) string {
	var sb strings.Builder
	sb.WriteString("*Signals*\n")
	for _, s := range signals {
		fmt.Fprintf(&sb, "- %s: %s\n", markdownEscaper.Replace(s.Symbol), s.Signal)
	}
	fmt.Fprintf(&sb, "New items: %d\n", novel)
	if j != nil {
		fmt.Fprintf(&sb, "Score: %.2f (confidence %.2f)\n", j.Score, j.Confidence)
		if j.Reasoning != "" {
			sb.WriteString(markdownEscaper.Replace(j.Reasoning))
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("No sentiment judgment\n")
	}
	return sb.String()
}
