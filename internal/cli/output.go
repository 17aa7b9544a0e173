package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/therocksalt/curator/internal/curator"
	"github.com/therocksalt/curator/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// ParseFormat validates a --format value
func ParseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// EventRow is an event joined with its venue for listing
type EventRow struct {
	event.Event
	Venue *event.Venue `json:"venue,omitempty"`
}

// WriteReport writes a curation report in the specified format
func WriteReport(w io.Writer, report *curator.Report, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, report)
	case FormatText:
		return writeReportText(w, report)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteVenues writes stored venues in the specified format
func WriteVenues(w io.Writer, venues []event.Venue, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, venues)
	case FormatText:
		if len(venues) == 0 {
			fmt.Fprintln(w, "No venues found.")
			return nil
		}
		for _, v := range venues {
			fmt.Fprintf(w, "%4d  %-32s %s, %s", v.ID, v.Name, v.City, v.State)
			if v.Address != "" {
				fmt.Fprintf(w, "  (%s)", v.Address)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "\nTotal: %d venues\n", len(venues))
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteEvents writes event rows in the specified format
func WriteEvents(w io.Writer, rows []EventRow, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatText:
		return writeEventsText(w, rows, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeReportText outputs a report as human-readable text
func writeReportText(w io.Writer, r *curator.Report) error {
	fmt.Fprintln(w, r.Summary())
	fmt.Fprintf(w, "Run %s finished in %s\n", r.RunID, r.Duration().Round(time.Millisecond))

	if names := r.SourceNames(); len(names) > 0 {
		fmt.Fprintln(w, "\nSources:")
		for _, name := range names {
			s := r.Sources[name]
			fmt.Fprintf(w, "  %-12s %3d fetched %3d kept %3d created %3d updated", name, s.Fetched, s.Kept, s.Created, s.Updated)
			if s.Errors > 0 {
				fmt.Fprintf(w, " %3d errors", s.Errors)
			}
			fmt.Fprintln(w)
		}
	}

	if r.VenuesCreated > 0 {
		fmt.Fprintf(w, "\nNew venues: %d\n", r.VenuesCreated)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  - %s\n", e.String())
		}
	}
	return nil
}

// writeEventsText outputs events as human-readable text
func writeEventsText(w io.Writer, rows []EventRow, verbose bool) error {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, row := range rows {
		venue := "unknown venue"
		if row.Venue != nil {
			venue = row.Venue.Name
		}
		fmt.Fprintf(w, "%s  %s @ %s\n", displayStart(row.StartTime), row.Name, venue)
		if verbose {
			fmt.Fprintf(w, "     ID: %s\n", row.ExternalID)
			if row.Venue != nil {
				fmt.Fprintf(w, "     Where: %s, %s\n", row.Venue.City, row.Venue.State)
			}
			if row.TicketURL != "" {
				fmt.Fprintf(w, "     Tickets: %s\n", row.TicketURL)
			}
			if row.AgeRestriction != "" {
				fmt.Fprintf(w, "     Ages: %s\n", row.AgeRestriction)
			}
		}
	}
	fmt.Fprintf(w, "\nTotal: %d events\n", len(rows))
	return nil
}

// displayStart trims the seconds from a naive start time
func displayStart(start string) string {
	t, err := time.Parse(event.StartLayout, start)
	if err != nil {
		return start
	}
	return t.Format("Mon Jan 2 2006 3:04PM")
}
