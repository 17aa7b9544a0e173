package scraper

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/logger"
)

const (
	SlugMagURL = "https://www.slugmag.com"

	DefaultSlugMagPages = 5
	DefaultPageDelay    = 500 * time.Millisecond
)

// SlugCategories are the event categories SLUG Magazine lists under each event
var SlugCategories = []string{
	"Concert or Performance",
	"Game or Competition",
	"Class, Training, or Workshop",
	"Attraction",
	"Other",
}

var (
	// "20 Nov" or "20 Nov - 22 Nov"
	slugDayHeader = regexp.MustCompile(`(?i)^\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)(?:\s*-\s*\d{1,2}\s+(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec))?$`)

	// "11-20-2025 07:00 PM - 11-20-2025 11:30 PM", only the start is used
	slugDateRange = regexp.MustCompile(`(?i)^(\d{1,2})-(\d{1,2})-(\d{4})\s+(\d{1,2}):(\d{2})\s*(am|pm)`)
)

// SlugMagOptions configures the SLUG Magazine adapter
type SlugMagOptions struct {
	BaseURL   string
	MaxPages  int
	PageDelay time.Duration
}

// SlugMag scrapes the paginated SLUG Magazine events calendar
type SlugMag struct {
	fetcher  *Fetcher
	baseURL  string
	maxPages int
	limiter  *rate.Limiter
}

// NewSlugMag creates the adapter. Zero options use the public site, five
// pages and a 500ms delay between page fetches. Page fetches are throttled
// and never retried, whatever retry count f carries.
func NewSlugMag(f *Fetcher, opts SlugMagOptions) *SlugMag {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = SlugMagURL
	}
	pages := opts.MaxPages
	if pages <= 0 {
		pages = DefaultSlugMagPages
	}

	limit := rate.Inf
	switch {
	case opts.PageDelay > 0:
		limit = rate.Every(opts.PageDelay)
	case opts.PageDelay == 0:
		limit = rate.Every(DefaultPageDelay)
	}

	return &SlugMag{
		fetcher:  f.withoutRetries(),
		baseURL:  base,
		maxPages: pages,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Name returns the source this adapter feeds
func (s *SlugMag) Name() event.Source {
	return event.SourceSlugMag
}

// FetchEvents walks /events/page/N/ until a page yields no events, a fetch
// fails or the page cap is reached. Events seen on earlier pages are dropped.
func (s *SlugMag) FetchEvents(ctx context.Context, _ event.LocationHint) []event.RawEvent {
	all := make([]event.RawEvent, 0)
	seen := make(map[string]bool)

	for page := 1; page <= s.maxPages; page++ {
		if err := s.limiter.Wait(ctx); err != nil {
			logger.Warn("SLUG Magazine pagination interrupted", logger.Fields{
				"source": string(event.SourceSlugMag),
				"page":   page,
				"error":  err.Error(),
			})
			break
		}

		url := s.pageURL(page)
		doc, err := s.fetcher.Document(ctx, url)
		if err != nil {
			var statusErr *StatusError
			if page > 1 && errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
				logger.Debug("SLUG Magazine pagination ended", logger.Fields{"url": url})
			} else {
				logger.Error("SLUG Magazine fetch failed", logger.Fields{
					"source": string(event.SourceSlugMag),
					"url":    url,
				}, err)
			}
			break
		}

		events := ParseSlugMag(doc)
		if len(events) == 0 {
			break
		}
		for _, e := range events {
			key := event.ExternalID(e.Source, "", e.Title, e.StartDateTime, e.VenueName)
			if seen[key] {
				continue
			}
			seen[key] = true
			all = append(all, e)
		}
	}

	logger.Info("SLUG Magazine events fetched", logger.Fields{
		"source": string(event.SourceSlugMag),
		"events": len(all),
	})
	return all
}

func (s *SlugMag) pageURL(page int) string {
	return fmt.Sprintf("%s/events/page/%d/", s.baseURL, page)
}

// ParseSlugMag extracts events from one calendar page: JSON-LD when present,
// otherwise the text layout
//
//	20 Nov
//	Gloom Daddies
//	11-20-2025 07:00 PM - 11-20-2025 11:30 PM
//	The Commonwealth Room; 195 W 2100 S Expy, South Salt Lake, UT 84115
//	Concert or Performance
func ParseSlugMag(doc *goquery.Document) []event.RawEvent {
	if events := ParseJSONLD(doc, event.SourceSlugMag); len(events) > 0 {
		return events
	}
	return parseSlugMagLines(TextLines(doc))
}

func parseSlugMagLines(lines []string) []event.RawEvent {
	events := make([]event.RawEvent, 0)

	for i := 1; i+1 < len(lines); i++ {
		m := slugDateRange.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}

		title := lines[i-1]
		if slugDayHeader.MatchString(title) || slugCategory(title) != "" {
			continue
		}

		venueLine := lines[i+1]
		if slugCategory(venueLine) != "" || slugDateRange.MatchString(venueLine) || slugDayHeader.MatchString(venueLine) {
			continue
		}
		venue, address, _ := strings.Cut(venueLine, ";")

		start, ok := slugStart(m)
		if !ok {
			continue
		}

		category := ""
		for j := i + 2; j < len(lines) && j <= i+3; j++ {
			if c := slugCategory(lines[j]); c != "" {
				category = c
				break
			}
			if slugDateRange.MatchString(lines[j]) {
				break
			}
		}

		events = append(events, event.RawEvent{
			Source:        event.SourceSlugMag,
			Title:         event.CleanText(title),
			VenueName:     event.CleanText(venue),
			VenueAddress:  event.CleanText(address),
			StartDateTime: start,
			Category:      category,
		})
	}

	return events
}

// slugStart builds a naive start time from a slugDateRange match
func slugStart(m []string) (string, bool) {
	month, _ := strconv.Atoi(m[1])
	day, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])

	hour, minute, ok := event.Clock(hour, minute, m[6])
	if !ok {
		return "", false
	}

	start := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:00", year, month, day, hour, minute)
	if _, err := time.Parse(event.StartLayout, start); err != nil {
		return "", false
	}
	return start, true
}

func slugCategory(line string) string {
	for _, c := range SlugCategories {
		if strings.EqualFold(line, c) {
			return c
		}
	}
	return ""
}
