package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/therocksalt/curator/internal/event"
)

// DefaultDuration is assumed for events, since no source reports an end time
const DefaultDuration = 3 * time.Hour

// Calendar renders stored events as one iCalendar feed
type Calendar struct {
	Name     string
	Location *time.Location // zone the naive start times are in
	Now      func() time.Time
}

// New creates a calendar whose start times are interpreted in loc
func New(name string, loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.UTC
	}
	return &Calendar{Name: name, Location: loc, Now: time.Now}
}

// GenerateICS renders events as a VCALENDAR. venues supplies the LOCATION
// of each event; events with an unparseable start time are skipped.
func (c *Calendar) GenerateICS(events []event.Event, venues map[int64]event.Venue) string {
	var ics strings.Builder

	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	ics.WriteString("PRODID:-//The Rock Salt//rocksalt-curate//EN\r\n")
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")
	if c.Name != "" {
		writeLine(&ics, "X-WR-CALNAME:"+escapeICS(c.Name))
	}

	stamp := formatICSTime(c.Now())
	for _, evt := range events {
		start, err := time.ParseInLocation(event.StartLayout, evt.StartTime, c.Location)
		if err != nil {
			continue
		}

		ics.WriteString("BEGIN:VEVENT\r\n")
		writeLine(&ics, fmt.Sprintf("UID:%s@therocksalt.com", evt.ExternalID))
		ics.WriteString(fmt.Sprintf("DTSTAMP:%s\r\n", stamp))
		ics.WriteString(fmt.Sprintf("DTSTART:%s\r\n", formatICSTime(start)))
		ics.WriteString(fmt.Sprintf("DTEND:%s\r\n", formatICSTime(start.Add(DefaultDuration))))
		writeLine(&ics, "SUMMARY:"+escapeICS(evt.Name))

		if desc := description(evt); desc != "" {
			writeLine(&ics, "DESCRIPTION:"+escapeICS(desc))
		}
		if v, ok := venues[evt.VenueID]; ok {
			writeLine(&ics, "LOCATION:"+escapeICS(venueLocation(v)))
		}
		if evt.TicketURL != "" {
			writeLine(&ics, "URL:"+evt.TicketURL)
		}

		ics.WriteString("STATUS:CONFIRMED\r\n")
		ics.WriteString("TRANSP:OPAQUE\r\n")
		ics.WriteString("END:VEVENT\r\n")
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func description(evt event.Event) string {
	parts := make([]string, 0, 3)
	if evt.Description != "" {
		parts = append(parts, evt.Description)
	}
	if evt.AgeRestriction != "" {
		parts = append(parts, "Ages: "+evt.AgeRestriction)
	}
	if evt.TicketURL != "" {
		parts = append(parts, "Tickets: "+evt.TicketURL)
	}
	return strings.Join(parts, "\n\n")
}

func venueLocation(v event.Venue) string {
	switch {
	case v.Address != "":
		return v.Name + ", " + v.Address
	case v.City != "":
		return fmt.Sprintf("%s, %s, %s", v.Name, v.City, v.State)
	}
	return v.Name
}

// formatICSTime formats a time.Time as an iCalendar UTC datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// maxLineOctets is the RFC 5545 content line limit, excluding CRLF
const maxLineOctets = 75

// writeLine writes a content line, folding it at 75 octets without
// splitting a UTF-8 sequence
func writeLine(b *strings.Builder, line string) {
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8Start(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines start with a space
		limit = maxLineOctets - 1
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func utf8Start(c byte) bool {
	return c&0xC0 != 0x80
}
