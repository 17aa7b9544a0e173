package scraper

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/logger"
)

const CityWeeklyURL = "https://events.cityweekly.net/"

var (
	// "Today", "Tomorrow" or "Wednesday, November 19"
	cwDayHeader = regexp.MustCompile(`(?i)^(today|tomorrow|(?:monday|tuesday|wednesday|thursday|friday|saturday|sunday),?\s+([a-z]+)\s+(\d{1,2}))$`)

	cwAllDay = regexp.MustCompile(`(?i)^all day$`)

	// "4-8pm": both ends share the period
	cwSharedRange = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*-\s*(\d{1,2})(?::\d{2})?\s*(am|pm)$`)

	// "9:00pm", "7:00 PM", "7pm - 10pm"
	cwClock = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*(am|pm)\b`)
)

var monthsByName = func() map[string]time.Month {
	m := make(map[string]time.Month, 12)
	for month := time.January; month <= time.December; month++ {
		m[strings.ToLower(month.String())] = month
	}
	return m
}()

// CityWeekly scrapes the single-page City Weekly events calendar
type CityWeekly struct {
	fetcher *Fetcher
	url     string
	loc     *time.Location
	now     func() time.Time
}

// NewCityWeekly creates the adapter. Relative date headers are resolved in
// loc (UTC when nil).
func NewCityWeekly(f *Fetcher, url string, loc *time.Location) *CityWeekly {
	if url == "" {
		url = CityWeeklyURL
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CityWeekly{fetcher: f, url: url, loc: loc, now: time.Now}
}

// Name returns the source this adapter feeds
func (c *CityWeekly) Name() event.Source {
	return event.SourceCityWeekly
}

// FetchEvents fetches and parses the calendar page
func (c *CityWeekly) FetchEvents(ctx context.Context, _ event.LocationHint) []event.RawEvent {
	doc, err := c.fetcher.Document(ctx, c.url)
	if err != nil {
		logger.Error("City Weekly fetch failed", logger.Fields{
			"source": string(event.SourceCityWeekly),
			"url":    c.url,
		}, err)
		return []event.RawEvent{}
	}

	parsed := ParseCityWeekly(doc, c.now().In(c.loc))

	// Deduplicate events listed under several headers
	seen := make(map[string]bool)
	events := make([]event.RawEvent, 0, len(parsed))
	for _, e := range parsed {
		key := event.ExternalID(e.Source, "", e.Title, e.StartDateTime, e.VenueName)
		if seen[key] {
			continue
		}
		seen[key] = true
		events = append(events, e)
	}

	logger.Info("City Weekly events fetched", logger.Fields{
		"source": string(event.SourceCityWeekly),
		"events": len(events),
	})
	return events
}

// ParseCityWeekly extracts events from the calendar page: JSON-LD when
// present, otherwise the text layout
//
//	Wednesday, November 19
//	Gloom Daddies
//	9:00pm
//	@ Tavernacle Social Club
//
// now anchors "Today", "Tomorrow" and year-less dates; a date earlier than
// today is taken to be next year.
func ParseCityWeekly(doc *goquery.Document, now time.Time) []event.RawEvent {
	if events := ParseJSONLD(doc, event.SourceCityWeekly); len(events) > 0 {
		return events
	}
	return parseCityWeeklyLines(TextLines(doc), now)
}

func parseCityWeeklyLines(lines []string, now time.Time) []event.RawEvent {
	events := make([]event.RawEvent, 0)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	var day time.Time
	haveDay := false

	for i := 0; i < len(lines); i++ {
		if d, ok := cwHeaderDate(lines[i], today); ok {
			day, haveDay = d, true
			continue
		}
		if !haveDay || i == 0 {
			continue
		}

		hour, minute, ok := cwStartClock(lines[i])
		if !ok {
			continue
		}

		title := lines[i-1]
		if _, isHeader := cwHeaderDate(title, today); isHeader {
			continue
		}
		if _, _, isTime := cwStartClock(title); isTime || strings.HasPrefix(title, "@") {
			continue
		}

		venue, ok := cwVenue(lines, i+1)
		if !ok {
			continue
		}

		start := time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
		events = append(events, event.RawEvent{
			Source:        event.SourceCityWeekly,
			Title:         event.CleanText(title),
			VenueName:     event.CleanText(venue),
			StartDateTime: start.Format(event.StartLayout),
		})
	}

	return events
}

// cwHeaderDate resolves a day header against today
func cwHeaderDate(line string, today time.Time) (time.Time, bool) {
	m := cwDayHeader.FindStringSubmatch(line)
	if m == nil {
		return time.Time{}, false
	}

	switch strings.ToLower(m[1]) {
	case "today":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	}

	month, ok := monthsByName[strings.ToLower(m[2])]
	if !ok {
		return time.Time{}, false
	}
	dayOfMonth, _ := strconv.Atoi(m[3])

	d := time.Date(today.Year(), month, dayOfMonth, 0, 0, 0, 0, today.Location())
	if d.Day() != dayOfMonth {
		// e.g. "February 30"
		return time.Time{}, false
	}
	if d.Before(today) {
		d = time.Date(today.Year()+1, month, dayOfMonth, 0, 0, 0, 0, today.Location())
	}
	return d, true
}

// cwStartClock returns the 24h start time of a listing time line.
// "All day" starts at midnight.
func cwStartClock(line string) (int, int, bool) {
	if cwAllDay.MatchString(line) {
		return 0, 0, true
	}

	if m := cwSharedRange.FindStringSubmatch(line); m != nil {
		start, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		end, _ := strconv.Atoi(m[3])
		period := strings.ToUpper(m[4])

		// "11-2pm" starts in the morning
		if period == "PM" && start%12 > end%12 {
			period = "AM"
		}
		return event.Clock(start, minute, period)
	}

	if m := cwClock.FindStringSubmatch(line); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		return event.Clock(hour, minute, m[3])
	}

	return 0, 0, false
}

// cwVenue reads "@ Venue" at lines[i], also accepting "@" and the venue
// name as separate lines
func cwVenue(lines []string, i int) (string, bool) {
	if i >= len(lines) || !strings.HasPrefix(lines[i], "@") {
		return "", false
	}
	venue := strings.TrimSpace(strings.TrimPrefix(lines[i], "@"))
	if venue == "" && i+1 < len(lines) {
		venue = lines[i+1]
	}
	return venue, venue != ""
}
