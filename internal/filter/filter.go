// Package filter decides whether a scraped event is music-related.
//
// Classification is a keyword heuristic over an event's title, category,
// venue name and description. Exclusion keywords are checked first; an
// excluded event survives only when it is at a known music venue and also
// carries a music keyword. Otherwise an event passes when it has a music
// keyword or is at a known music venue.
//
// Apply is pure and order-preserving: its output is always a subset of its
// input, and applying it twice gives the same result as applying it once.
//
// Example usage:
//
//	f := filter.New(filter.DefaultRules())
//	music := f.Apply(scraped)
package filter

import (
	"strings"

	"github.com/therocksalt/curator/internal/event"
)

// Rules holds the keyword lists used for classification
type Rules struct {
	Music   []string `yaml:"music"`
	Exclude []string `yaml:"exclude"`
	Venues  []string `yaml:"venues"`
}

// Filter classifies events using a normalized copy of its rules
type Filter struct {
	music   []string
	exclude []string
	venues  []string
}

// New creates a Filter. Keywords are matched case-insensitively; blank
// entries are dropped.
func New(rules Rules) *Filter {
	return &Filter{
		music:   normalize(rules.Music),
		exclude: normalize(rules.Exclude),
		venues:  normalize(rules.Venues),
	}
}

var defaultFilter = New(DefaultRules())

// FilterMusicEvents applies the default rules to events
func FilterMusicEvents(events []event.RawEvent) []event.RawEvent {
	return defaultFilter.Apply(events)
}

// Apply returns the music-related events in their original order.
// The input slice is not modified.
func (f *Filter) Apply(events []event.RawEvent) []event.RawEvent {
	kept := make([]event.RawEvent, 0, len(events))
	for _, evt := range events {
		if f.IsMusicEvent(evt.Title, evt.Category, evt.VenueName, evt.Description) {
			kept = append(kept, evt)
		}
	}
	return kept
}

// IsMusicEvent reports whether the given fields describe a music event
func (f *Filter) IsMusicEvent(title, category, venue, description string) bool {
	parts := make([]string, 0, 4)
	for _, p := range []string{title, category, venue, description} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	text := strings.ToLower(strings.Join(parts, " "))

	atMusicVenue := f.isMusicVenue(venue)
	hasMusic := containsAny(text, f.music)

	for _, kw := range f.exclude {
		if !strings.Contains(text, kw) {
			continue
		}
		if atMusicVenue && hasMusic {
			continue
		}
		return false
	}

	return hasMusic || atMusicVenue
}

// isMusicVenue checks the venue name against the known music venue list
func (f *Filter) isMusicVenue(venue string) bool {
	if venue == "" {
		return false
	}
	return containsAny(strings.ToLower(venue), f.venues)
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func normalize(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
