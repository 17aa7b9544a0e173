package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/therocksalt/curator/internal/curator"
)

// maxListedErrors caps the errors quoted in a report message
const maxListedErrors = 10

// FormatReport formats a curation report as an HTML Telegram message
func FormatReport(r *curator.Report) string {
	var msg strings.Builder

	// Header with emoji
	if r.Success {
		msg.WriteString("🎸 <b>Event curation complete</b>\n\n")
	} else {
		msg.WriteString("⚠️ <b>Event curation failed</b>\n\n")
	}

	msg.WriteString(fmt.Sprintf("✅ Created: %d\n", r.Created))
	msg.WriteString(fmt.Sprintf("🔁 Updated: %d\n", r.Updated))
	if r.Skipped > 0 {
		msg.WriteString(fmt.Sprintf("🚫 Not music: %d\n", r.Skipped))
	}
	if r.VenuesCreated > 0 {
		msg.WriteString(fmt.Sprintf("🏠 New venues: %d\n", r.VenuesCreated))
	}

	// Per-source breakdown
	if names := r.SourceNames(); len(names) > 0 {
		msg.WriteString("\n")
		for _, src := range names {
			s := r.Sources[src]
			msg.WriteString(fmt.Sprintf("• <b>%s</b>: %d fetched, %d new, %d updated\n",
				html.EscapeString(string(src)), s.Fetched, s.Created, s.Updated))
		}
	}

	if r.ErrorCount > 0 {
		msg.WriteString(fmt.Sprintf("\n❌ <b>%d %s</b>\n", r.ErrorCount, pluralize(r.ErrorCount, "error", "errors")))
		for i, e := range r.Errors {
			if i == maxListedErrors {
				msg.WriteString(fmt.Sprintf("<i>…and %d more</i>\n", len(r.Errors)-maxListedErrors))
				break
			}
			msg.WriteString(fmt.Sprintf("– %s\n", html.EscapeString(e.String())))
		}
	}

	msg.WriteString(fmt.Sprintf("\n<i>Run %s in %s</i>", html.EscapeString(shortID(r.RunID)), r.Duration().Round(100*time.Millisecond)))

	return truncate(msg.String(), MaxMessageLength)
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// truncate cuts s to at most limit runes
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
