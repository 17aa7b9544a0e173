package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/sling"
)

const (
	APIBaseURL = "https://api.telegram.org/"
	timeout    = 10 * time.Second

	// MaxMessageLength is the Bot API limit for one message
	MaxMessageLength = 4096
)

// Client represents a Telegram Bot API client
type Client struct {
	chatID string
	api    *sling.Sling
}

// Option customises a Client
type Option func(*clientConfig)

type clientConfig struct {
	baseURL    string
	httpClient *http.Client
}

// WithBaseURL points the client at another Bot API host
func WithBaseURL(u string) Option {
	return func(c *clientConfig) { c.baseURL = u }
}

// WithHTTPClient replaces the default 10s-timeout client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) { c.httpClient = hc }
}

// NewClient creates a new Telegram client
func NewClient(botToken, chatID string, opts ...Option) (*Client, error) {
	if botToken == "" {
		return nil, fmt.Errorf("bot token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("chat ID is required")
	}

	cfg := clientConfig{
		baseURL:    APIBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if !strings.HasSuffix(cfg.baseURL, "/") {
		cfg.baseURL += "/"
	}

	return &Client{
		chatID: chatID,
		api:    sling.New().Client(cfg.httpClient).Base(cfg.baseURL + "bot" + botToken + "/"),
	}, nil
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage sends an HTML message to the configured chat
func (c *Client) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("message text is required")
	}

	req, err := c.api.New().Post("sendMessage").BodyJSON(sendMessageRequest{
		ChatID:                c.chatID,
		Text:                  text,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	}).Request()
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	var result apiResponse
	resp, err := c.api.Do(req.WithContext(ctx), &result, &result)
	if err != nil {
		if resp != nil {
			return fmt.Errorf("telegram API error (status %d): %w", resp.StatusCode, err)
		}
		return fmt.Errorf("sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !result.OK {
		if result.Description != "" {
			return fmt.Errorf("telegram API error (status %d): %s", resp.StatusCode, result.Description)
		}
		return fmt.Errorf("telegram API error (status %d)", resp.StatusCode)
	}

	return nil
}
