package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/therocksalt/curator/internal/event"
)

func TestParseSlugMag_TextFallback(t *testing.T) {
	doc := loadFixture(t, "slugmag_page.html")
	events := ParseSlugMag(doc)

	want := []event.RawEvent{
		{
			Source:        event.SourceSlugMag,
			Title:         "Gloom Daddies",
			VenueName:     "The Commonwealth Room",
			VenueAddress:  "195 W 2100 S Expy, South Salt Lake, UT 84115",
			StartDateTime: "2025-11-20T19:00:00",
			Category:      "Concert or Performance",
		},
		{
			Source:        event.SourceSlugMag,
			Title:         "Holiday Craft Fair",
			VenueName:     "Salt Palace Convention Center",
			VenueAddress:  "100 S West Temple, Salt Lake City, UT 84101",
			StartDateTime: "2025-11-21T10:00:00",
			Category:      "Attraction",
		},
		{
			Source:        event.SourceSlugMag,
			Title:         "Midnight Jazz & Blues",
			VenueName:     "Kilby Court",
			StartDateTime: "2025-11-22T00:15:00",
			Category:      "Concert or Performance",
		},
	}

	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d =\n%+v\nwant\n%+v", i, events[i], want[i])
		}
	}
}

func TestParseSlugMag_PrefersJSONLD(t *testing.T) {
	events := ParseSlugMag(loadFixture(t, "slugmag_jsonld.html"))
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for _, e := range events {
		if e.Title == "Fallback Title" {
			t.Error("text fallback should not run when JSON-LD is present")
		}
	}
}

func TestParseSlugMagLines_InvalidDate(t *testing.T) {
	lines := []string{"30 Feb", "Impossible Show", "02-30-2025 07:00 PM", "Kilby Court", "Concert or Performance"}
	if events := parseSlugMagLines(lines); len(events) != 0 {
		t.Errorf("expected invalid date to be skipped, got %+v", events)
	}
}

const slugPage2 = `<html><body>
<div>25 Nov</div><h3>Brand New Band</h3><div>11-25-2025 08:00 PM</div>
<address>Urban Lounge; 241 S 500 E, Salt Lake City, UT 84102</address><div>Concert or Performance</div>
<div>20 Nov</div><h3>Gloom Daddies</h3><div>11-20-2025 07:00 PM - 11-20-2025 11:30 PM</div>
<address>The Commonwealth Room; 195 W 2100 S Expy, South Salt Lake, UT 84115</address><div>Concert or Performance</div>
</body></html>`

const slugEmptyPage = `<html><body><p>There are no upcoming events.</p></body></html>`

func TestSlugMag_FetchEvents(t *testing.T) {
	page1, err := os.ReadFile(filepath.Join("testdata", "slugmag_page.html"))
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	tests := []struct {
		name         string
		maxPages     int
		pages        map[string]string
		notFound     bool
		serverErr    bool
		wantEvents   int
		wantRequests int32
	}{
		{
			name:         "stops at empty page and drops duplicates",
			maxPages:     5,
			pages:        map[string]string{"/events/page/1/": string(page1), "/events/page/2/": slugPage2},
			wantEvents:   4,
			wantRequests: 3,
		},
		{
			name:         "stops at page cap",
			maxPages:     1,
			pages:        map[string]string{"/events/page/1/": string(page1), "/events/page/2/": slugPage2},
			wantEvents:   3,
			wantRequests: 1,
		},
		{
			name:         "stops when a later page is missing",
			maxPages:     5,
			pages:        map[string]string{"/events/page/1/": string(page1)},
			notFound:     true,
			wantEvents:   3,
			wantRequests: 2,
		},
		{
			name:         "server error ends pagination without retry",
			maxPages:     5,
			pages:        map[string]string{"/events/page/1/": string(page1)},
			serverErr:    true,
			wantEvents:   3,
			wantRequests: 2,
		},
		{
			name:         "first page missing",
			maxPages:     5,
			pages:        map[string]string{},
			notFound:     true,
			wantEvents:   0,
			wantRequests: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requests atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				body, ok := tt.pages[r.URL.Path]
				if !ok {
					if tt.notFound {
						http.NotFound(w, r)
						return
					}
					if tt.serverErr {
						http.Error(w, "upstream down", http.StatusBadGateway)
						return
					}
					body = slugEmptyPage
				}
				_, _ = w.Write([]byte(body))
			}))
			defer server.Close()

			s := NewSlugMag(testFetcher(server, 3), SlugMagOptions{
				BaseURL:   server.URL + "/",
				MaxPages:  tt.maxPages,
				PageDelay: time.Millisecond,
			})
			events := s.FetchEvents(context.Background(), event.DefaultHint)

			if events == nil {
				t.Fatal("FetchEvents must return a non-nil slice")
			}
			if len(events) != tt.wantEvents {
				t.Errorf("got %d events, want %d", len(events), tt.wantEvents)
			}
			if got := requests.Load(); got != tt.wantRequests {
				t.Errorf("requests = %d, want %d", got, tt.wantRequests)
			}
		})
	}
}

func TestSlugMag_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(slugPage2))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSlugMag(testFetcher(server, 0), SlugMagOptions{BaseURL: server.URL, PageDelay: time.Millisecond})
	if events := s.FetchEvents(ctx, event.DefaultHint); len(events) != 0 {
		t.Errorf("expected no events, got %d", len(events))
	}
}

func TestNewSlugMag_Defaults(t *testing.T) {
	f := NewFetcher(FetcherOptions{MaxRetries: 3})
	s := NewSlugMag(f, SlugMagOptions{})
	if s.fetcher.maxRetries != 0 {
		t.Errorf("page fetcher retries = %d, want 0", s.fetcher.maxRetries)
	}
	if f.maxRetries != 3 {
		t.Errorf("shared fetcher retries changed to %d", f.maxRetries)
	}
	if s.baseURL != SlugMagURL {
		t.Errorf("baseURL = %q", s.baseURL)
	}
	if s.maxPages != DefaultSlugMagPages {
		t.Errorf("maxPages = %d", s.maxPages)
	}
	if got := s.pageURL(3); got != "https://www.slugmag.com/events/page/3/" {
		t.Errorf("pageURL(3) = %q", got)
	}
	if s.Name() != event.SourceSlugMag {
		t.Errorf("Name = %q", s.Name())
	}
}
