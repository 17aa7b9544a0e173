package notifier

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/therocksalt/curator/internal/curator"
	"github.com/therocksalt/curator/internal/telegram"
)

// Notifier defines the interface for delivering run reports
type Notifier interface {
	// Notify delivers the report of one curation run
	Notify(ctx context.Context, report *curator.Report) error
}

// Kinds accepted by New
const (
	KindNone     = ""
	KindTelegram = "telegram"
	KindDryRun   = "dry-run"
)

// Options carries what the notifiers need
type Options struct {
	TelegramToken  string
	TelegramChatID string
	Output         io.Writer // dry-run destination
}

// New returns the notifier for kind, or nil for KindNone
func New(kind string, opts Options) (Notifier, error) {
	switch strings.ToLower(kind) {
	case KindNone, "none":
		return nil, nil
	case KindDryRun:
		return NewDryRunNotifier(opts.Output), nil
	case KindTelegram:
		n, err := NewTelegramNotifier(opts.TelegramToken, opts.TelegramChatID)
		if err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown notifier: %q", kind)
	}
}

// TelegramNotifier posts reports to a Telegram chat
type TelegramNotifier struct {
	client *telegram.Client
}

// NewTelegramNotifier creates a notifier for the given bot and chat
func NewTelegramNotifier(botToken, chatID string, opts ...telegram.Option) (*TelegramNotifier, error) {
	client, err := telegram.NewClient(botToken, chatID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating telegram client: %w", err)
	}
	return &TelegramNotifier{client: client}, nil
}

// Notify sends the formatted report
func (n *TelegramNotifier) Notify(ctx context.Context, report *curator.Report) error {
	if err := n.client.SendMessage(ctx, telegram.FormatReport(report)); err != nil {
		return fmt.Errorf("failed to post report %s: %w", report.RunID, err)
	}
	return nil
}
