package domain

// ContentItem is one piece of content fetched from a source adapter.
type ContentItem struct {
	SourceLabel string
	Title       string
	Summary     string
	Text        string
	URL         string
	// PublishedAt keeps the origin's own format; it is only displayed.
	PublishedAt string
}

// SentimentJudgment is the structured answer of the sentiment service for one cycle.
type SentimentJudgment struct {
	Score      float64 `json:"sentiment_score"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Signal is a discrete recommendation for a tracked symbol.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)

// SymbolSignal pairs a tracked symbol with the signal computed for it.
type SymbolSignal struct {
	Symbol string
	Signal Signal
}
