package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"FeedSignals/internal/ports"
)

const (
	defaultAPIBase = "https://api.telegram.org"
	parseMode      = "Markdown"
)

// Notifier sends signal reports to a Telegram chat via bot API.
type Notifier struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
	logger   *slog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

// NewNotifier registers bot token and chat identifier.
func NewNotifier(botToken, chatID string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 5 * time.Second},
		logger:   logger,
	}
}

// sendMessageResponse is the envelope every Bot API method answers with.
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
}

// PublishSignals posts report as Markdown. When Telegram cannot parse the
// markup the same text is sent again without formatting.
func (n *Notifier) PublishSignals(ctx context.Context, report string) error {
	if n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}
	if strings.TrimSpace(report) == "" {
		return nil
	}

	resp, err := n.sendMessage(ctx, report, parseMode)
	if err != nil {
		return err
	}
	if resp.OK {
		return nil
	}
	if resp.ErrorCode == http.StatusBadRequest && strings.Contains(strings.ToLower(resp.Description), "parse entities") {
		n.logger.Warn("telegram rejected markdown, resending as plain text", "description", resp.Description)
		resp, err = n.sendMessage(ctx, report, "")
		if err != nil {
			return err
		}
		if resp.OK {
			return nil
		}
	}
	return fmt.Errorf("telegram error %d: %s", resp.ErrorCode, resp.Description)
}

func (n *Notifier) sendMessage(ctx context.Context, text, mode string) (sendMessageResponse, error) {
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimSuffix(n.apiBase, "/"), n.botToken)
	form := url.Values{}
	form.Set("chat_id", n.chatID)
	form.Set("text", text)
	if mode != "" {
		form.Set("parse_mode", mode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return sendMessageResponse{}, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	httpResp, err := n.client.Do(req)
	if err != nil {
		return sendMessageResponse{}, fmt.Errorf("do request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, 64<<10))
	if err != nil {
		return sendMessageResponse{}, fmt.Errorf("read response: %w", err)
	}

	var out sendMessageResponse
	if err := json.Unmarshal(body, &out); err != nil {
		if httpResp.StatusCode != http.StatusOK {
			return sendMessageResponse{}, fmt.Errorf("telegram error: %s", httpResp.Status)
		}
		return sendMessageResponse{}, fmt.Errorf("decode response: %w", err)
	}
	if !out.OK && out.ErrorCode == 0 {
		out.ErrorCode = httpResp.StatusCode
	}
	return out, nil
}
