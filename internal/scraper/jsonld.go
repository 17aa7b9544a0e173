package scraper

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/logger"
)

// musicCategory is assigned to MusicEvent items that carry no genre
const musicCategory = "Concert or Performance"

// ParseJSONLD extracts Event and MusicEvent items from the page's
// <script type="application/ld+json"> blocks. Items without a start date
// are skipped; blocks that fail to decode are ignored.
func ParseJSONLD(doc *goquery.Document, src event.Source) []event.RawEvent {
	events := make([]event.RawEvent, 0)

	doc.Find(`script[type*="ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &data); err != nil {
			logger.Debug("Skipping malformed JSON-LD block", logger.Fields{
				"source": string(src),
				"error":  err.Error(),
			})
			return
		}

		for _, item := range ldItems(data) {
			if evt, ok := ldEvent(item, src); ok {
				events = append(events, evt)
			}
		}
	})

	return events
}

// ldItems flattens arrays and @graph containers into a list of objects
func ldItems(data any) []map[string]any {
	switch v := data.(type) {
	case []any:
		var items []map[string]any
		for _, elem := range v {
			items = append(items, ldItems(elem)...)
		}
		return items
	case map[string]any:
		if graph, ok := v["@graph"]; ok {
			return ldItems(graph)
		}
		return []map[string]any{v}
	default:
		return nil
	}
}

func ldEvent(item map[string]any, src event.Source) (event.RawEvent, bool) {
	kind, ok := eventType(item["@type"])
	if !ok {
		return event.RawEvent{}, false
	}

	start := pickStr(item, "startDate")
	if start == "" {
		return event.RawEvent{}, false
	}

	venue, address := ldLocation(item["location"])

	category := joinStrings(item["genre"])
	if category == "" && kind == "MusicEvent" {
		category = musicCategory
	}
	if category == "" {
		if mode := pickStr(item, "eventAttendanceMode"); mode != "" {
			category = mode[strings.LastIndex(mode, "/")+1:]
		}
	}

	return event.RawEvent{
		Source:        src,
		Title:         event.CleanText(pickStr(item, "name")),
		VenueName:     event.CleanText(venue),
		VenueAddress:  event.CleanText(address),
		StartDateTime: start,
		DetailURL:     pickStr(item, "url"),
		Category:      category,
		Description:   event.CleanText(pickStr(item, "description")),
	}, true
}

// eventType returns "Event" or "MusicEvent" when @type names one of them.
// @type may be a string, a schema.org URL or a list of either.
func eventType(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		name := t[strings.LastIndex(t, "/")+1:]
		if name == "Event" || name == "MusicEvent" {
			return name, true
		}
	case []any:
		found := ""
		for _, elem := range t {
			if name, ok := eventType(elem); ok {
				if name == "MusicEvent" {
					return name, true
				}
				found = name
			}
		}
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// ldLocation returns the venue name and a formatted address from a
// schema.org location (Place object, list of places, or plain text)
func ldLocation(v any) (string, string) {
	switch loc := v.(type) {
	case string:
		return strings.TrimSpace(loc), ""
	case []any:
		for _, elem := range loc {
			if name, addr := ldLocation(elem); name != "" {
				return name, addr
			}
		}
	case map[string]any:
		name := pickStr(loc, "name")
		switch addr := loc["address"].(type) {
		case string:
			return name, strings.TrimSpace(addr)
		case map[string]any:
			if name == "" {
				name = pickStr(addr, "addressLocality")
			}
			return name, formatAddress(addr)
		}
		return name, ""
	}
	return "", ""
}

// formatAddress renders a PostalAddress as "street, city, ST zip"
func formatAddress(addr map[string]any) string {
	var parts []string
	if street := pickStr(addr, "streetAddress"); street != "" {
		parts = append(parts, street)
	}
	if city := pickStr(addr, "addressLocality"); city != "" {
		parts = append(parts, city)
	}
	region := pickStr(addr, "addressRegion")
	if postal := pickStr(addr, "postalCode"); postal != "" {
		region = strings.TrimSpace(region + " " + postal)
	}
	if region != "" {
		parts = append(parts, region)
	}
	return strings.Join(parts, ", ")
}

// pickStr returns the first non-empty string value among keys
func pickStr(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// joinStrings renders a string or list of strings as a comma separated value
func joinStrings(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		var parts []string
		for _, elem := range t {
			if s, ok := elem.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
