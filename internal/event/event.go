package event

import (
	"crypto/sha1"
	"fmt"
	"strings"
	"time"
)

// Source identifies the upstream an event came from
type Source string

const (
	SourceBandsintown Source = "bandsintown"
	SourceSongkick    Source = "songkick"
	SourceSlugMag     Source = "slugmag"
	SourceCityWeekly  Source = "cityweekly"
)

// AllSources lists every known source in run order
var AllSources = []Source{SourceBandsintown, SourceSongkick, SourceSlugMag, SourceCityWeekly}

const (
	// DefaultVenueType is assigned to venues created during curation
	DefaultVenueType = "club"
	// DefaultTier is assigned to auto-imported events
	DefaultTier = "free"
)

// Scraped reports whether the source is an HTML scrape with no native event id
func (s Source) Scraped() bool {
	return s == SourceSlugMag || s == SourceCityWeekly
}

// Valid reports whether s is one of the known sources
func (s Source) Valid() bool {
	for _, known := range AllSources {
		if s == known {
			return true
		}
	}
	return false
}

// ParseSource converts a user-supplied name into a Source
func ParseSource(name string) (Source, error) {
	s := Source(strings.ToLower(strings.TrimSpace(name)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown source: %q", name)
	}
	return s, nil
}

// LocationHint narrows source queries to one metro area
type LocationHint struct {
	City        string `json:"city"`
	State       string `json:"state"`
	RadiusMiles int    `json:"radius_miles"`
}

// DefaultHint is the Salt Lake metro area
var DefaultHint = LocationHint{City: "Salt Lake City", State: "UT", RadiusMiles: 50}

// RawEvent is the common shape every adapter maps its upstream data into.
// Empty strings stand for absent values.
type RawEvent struct {
	Source         Source `json:"source"`
	Title          string `json:"title"`
	VenueName      string `json:"venue_name"`
	VenueAddress   string `json:"venue_address,omitempty"`
	CityHint       string `json:"city_hint,omitempty"`  // locality reported by an API source
	StateHint      string `json:"state_hint,omitempty"` // region reported by an API source
	StartDateTime  string `json:"start_date_time"`
	SourceEventID  string `json:"source_event_id,omitempty"`
	DetailURL      string `json:"detail_url,omitempty"`
	Category       string `json:"category,omitempty"`
	AgeRestriction string `json:"age_restriction,omitempty"`
	Description    string `json:"description,omitempty"`
}

// CuratedEvent is a RawEvent after normalization, ready to persist
type CuratedEvent struct {
	RawEvent
	StartTime  string `json:"start_time"` // naive local time, StartLayout
	VenueCity  string `json:"venue_city"`
	VenueState string `json:"venue_state"`
	ExternalID string `json:"external_id"`
}

// Venue is a persisted venue record
type Venue struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Address   string    `json:"address,omitempty"`
	VenueType string    `json:"venue_type"`
	Website   string    `json:"website,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Event is a persisted event record
type Event struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description,omitempty"`
	StartTime      string    `json:"start_time"`
	VenueID        int64     `json:"venue_id"`
	TicketURL      string    `json:"ticket_url,omitempty"`
	ExternalID     string    `json:"external_id"`
	ExternalSource Source    `json:"external_source"`
	AgeRestriction string    `json:"age_restriction,omitempty"`
	Tier           string    `json:"tier"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ExternalID returns the stable, source-qualified id for an event.
// API sources use their own event id; scraped sources (or an API event that
// came without one) hash the title, start date and venue name.
func ExternalID(src Source, sourceEventID, title, start, venue string) string {
	if id := strings.TrimSpace(sourceEventID); id != "" && !src.Scraped() {
		return fmt.Sprintf("%s-%s", src, id)
	}

	key := normalizeKey(title) + "|" + DateKey(start) + "|" + normalizeKey(venue)
	sum := sha1.Sum([]byte(key))
	return fmt.Sprintf("%s-%x", src, sum[:8])
}

// normalizeKey lowercases and collapses whitespace for hashing
func normalizeKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Curate builds a CuratedEvent from a raw event and its resolved locality
func Curate(raw RawEvent, start, city, state string) CuratedEvent {
	return CuratedEvent{
		RawEvent:   raw,
		StartTime:  start,
		VenueCity:  city,
		VenueState: state,
		ExternalID: ExternalID(raw.Source, raw.SourceEventID, raw.Title, start, raw.VenueName),
	}
}

// Record maps a curated event onto the persisted event shape
func (c CuratedEvent) Record(venueID int64) Event {
	return Event{
		Name:           c.Title,
		Description:    c.Description,
		StartTime:      c.StartTime,
		VenueID:        venueID,
		TicketURL:      c.DetailURL,
		ExternalID:     c.ExternalID,
		ExternalSource: c.Source,
		AgeRestriction: c.AgeRestriction,
		Tier:           DefaultTier,
	}
}
