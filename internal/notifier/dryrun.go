package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
	"unicode/utf8"

	"github.com/therocksalt/curator/internal/curator"
	"github.com/therocksalt/curator/internal/telegram"
)

// DryRunNotifier prints what would be sent without actually posting
type DryRunNotifier struct {
	out io.Writer
}

// NewDryRunNotifier creates a dry-run notifier writing to out (stderr when nil)
func NewDryRunNotifier(out io.Writer) *DryRunNotifier {
	if out == nil {
		out = os.Stderr
	}
	return &DryRunNotifier{out: out}
}

// Notify prints the message that would be posted
func (n *DryRunNotifier) Notify(_ context.Context, report *curator.Report) error {
	msg := telegram.FormatReport(report)
	_, err := fmt.Fprintf(n.out, "--- Report %s ---\n%s\n\n(Length: %d characters)\n",
		report.RunID, msg, utf8.RuneCountInString(msg))
	return err
}
