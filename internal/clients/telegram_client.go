package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"strings"
	"time"

	"catalog-service/internal/models"
	"golang.org/x/time/rate"
)

var ErrTelegramNotConfigured = errors.New("telegram credentials are not configured")

// TelegramClient sends messages through the Telegram Bot API
type TelegramClient struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
}

// NewTelegramClient creates a new Telegram client
func NewTelegramClient(baseURL string) *TelegramClient {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &TelegramClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(1), 5), // 1 message per second per chat
	}
}

// SendMessage posts an HTML message to the chat.
func (c *TelegramClient) SendMessage(ctx context.Context, token, chatID, text string) error {
	if token == "" || chatID == "" {
		return ErrTelegramNotConfigured
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// the error text contains the url and therefore the token
		return errors.New("failed to send telegram message: transport error")
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var tgResp telegramResponse
	_ = json.Unmarshal(body, &tgResp)

	if resp.StatusCode != http.StatusOK || !tgResp.OK {
		return fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, tgResp.Description)
	}
	return nil
}

// FormatOrderMessage renders the lead notification. User-supplied fields are
// HTML-escaped.
func FormatOrderMessage(siteName string, order *models.Order) string {
	e := html.EscapeString
	var b strings.Builder
	fmt.Fprintf(&b, "🟢 <b>НОВАЯ ЗАЯВКА С САЙТА %s</b> 🟢\n\n", e(siteName))
	fmt.Fprintf(&b, "👤 <b>Клиент:</b> %s\n", e(order.Name))
	fmt.Fprintf(&b, "📞 <b>Телефон:</b> <code>%s</code>\n", e(order.Phone))
	fmt.Fprintf(&b, "📧 <b>Email:</b> %s\n", e(order.Email))
	fmt.Fprintf(&b, "🏠 <b>Интересует:</b> %s\n", e(order.Product))
	fmt.Fprintf(&b, "📝 <b>Комментарий:</b> %s\n", e(order.Message))
	fmt.Fprintf(&b, "✅ <b>Согласие на обработку:</b> %s\n\n", e(order.Consent))
	fmt.Fprintf(&b, "⏰ <b>Время заявки:</b> %s\n", e(order.Date))
	fmt.Fprintf(&b, "🌐 <b>Источник:</b> %s", e(order.Source))
	return b.String()
}
