package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"FeedSignals/internal/config"
	"FeedSignals/internal/domain"
	"FeedSignals/internal/ports"
)

const defaultSystemPrompt = `Analyze the sentiment of the provided text regarding its potential impact on the cryptocurrency market.
Determine if the sentiment is positive, negative, or neutral from a crypto investor's perspective.

Respond with a single JSON object and nothing else, with these fields:
1. "sentiment_score": a float between -1.0 (very negative) and 1.0 (very positive).
2. "confidence": a float between 0.0 (not confident) and 1.0 (very confident) in your assessment.
3. "reasoning": a brief, one-sentence explanation for your analysis.

Example: {"sentiment_score": -0.7, "confidence": 0.85, "reasoning": "The text reports a major security breach, which typically leads to a loss of investor confidence."}`

type completionService interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// SentimentClient implements ports.SentimentClient backed by OpenAI-compatible APIs
// (OpenAI, DeepSeek, vLLM, Ollama...).
type SentimentClient struct {
	completions  completionService
	model        string
	systemPrompt string
}

var _ ports.SentimentClient = (*SentimentClient)(nil)

// NewSentimentClient builds a client from configuration. Retries are disabled:
// a failed call degrades the cycle instead.
func NewSentimentClient(cfg config.SentimentConfig) (*SentimentClient, error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, fmt.Errorf("sentiment client misconfigured")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: timeoutOrDefault(cfg.Timeout)}),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")+"/"))
	}

	client := openai.NewClient(opts...)
	return &SentimentClient{
		completions:  client.Chat.Completions,
		model:        cfg.Model,
		systemPrompt: safePrompt(cfg.SystemPrompt),
	}, nil
}

// Analyze sends the payload as the user message and decodes the JSON judgment.
func (c *SentimentClient) Analyze(ctx context.Context, payload string) (*domain.SentimentJudgment, error) {
	if c == nil || c.completions == nil {
		return nil, fmt.Errorf("sentiment client is nil")
	}

	completion, err := c.completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(c.systemPrompt),
			openai.UserMessage(payload),
		}),
		Model:       openai.F(openai.ChatModel(c.model)),
		Temperature: openai.Float(0),
		ResponseFormat: openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](openai.ResponseFormatJSONObjectParam{
			Type: openai.F(openai.ResponseFormatJSONObjectTypeJSONObject),
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", domain.ErrMalformedJudgment)
	}

	return domain.DecodeJudgment(completion.Choices[0].Message.Content)
}

func safePrompt(prompt string) string {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 60 * time.Second
	}
	return d
}
