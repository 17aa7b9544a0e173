// Package location extracts a city and state from free-text venue addresses.
//
// Parsing is best effort and total: Parse always returns a non-empty city and
// state. Precedence, strongest first:
//
//  1. A known-city table entry appearing in the address or venue name
//  2. A trailing ", CITY, ST ZIP" pattern on the address
//  3. A trailing "CITY, ST" pattern on the address
//  4. The configured default location
//
// The known-city table wins over formal addressing because local venue names
// often carry the city while their addresses are incomplete.
package location

import (
	"regexp"
	"sort"
	"strings"
)

// Location is a city and two-letter state code
type Location struct {
	City  string `json:"city" yaml:"city"`
	State string `json:"state" yaml:"state"`
}

// Default is the fallback used when nothing in the input matches
var Default = Location{City: "Salt Lake City", State: "UT"}

var (
	// ", Salt Lake City, UT 84102" at the end of an address
	cityStateZip = regexp.MustCompile(`,\s*([A-Za-z .'-]+?),\s*([A-Z]{2})\s+\d{5}(?:-\d{4})?\s*$`)

	// "Provo, UT" at the end of an address
	cityState = regexp.MustCompile(`([A-Za-z .'-]+?),\s*([A-Z]{2})\s*$`)
)

type knownCity struct {
	loc     Location
	pattern *regexp.Regexp
}

// Parser resolves locations against a known-city table and a fallback
type Parser struct {
	fallback Location
	cities   []knownCity
}

// NewParser creates a Parser. Cities are matched case-insensitively on word
// boundaries, longest name first so "South Salt Lake" beats "Salt Lake City".
// Empty fallback fields are filled from Default.
func NewParser(fallback Location, cities []Location) *Parser {
	if fallback.City == "" {
		fallback.City = Default.City
	}
	if fallback.State == "" {
		fallback.State = Default.State
	}

	sorted := make([]Location, 0, len(cities))
	for _, c := range cities {
		c.City = strings.TrimSpace(c.City)
		c.State = strings.ToUpper(strings.TrimSpace(c.State))
		if c.City == "" || c.State == "" {
			continue
		}
		sorted = append(sorted, c)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].City) > len(sorted[j].City)
	})

	p := &Parser{fallback: fallback}
	for _, c := range sorted {
		p.cities = append(p.cities, knownCity{
			loc:     c,
			pattern: regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(c.City) + `\b`),
		})
	}
	return p
}

var defaultParser = NewParser(Default, UtahCities())

// ParseVenueLocation parses with the default Utah table and fallback
func ParseVenueLocation(address, venueName string) Location {
	return defaultParser.Parse(address, venueName)
}

// Parse extracts a location from an address and venue name. Either may be
// empty. The result never has an empty city or state.
func (p *Parser) Parse(address, venueName string) Location {
	address = strings.TrimSpace(address)
	venueName = strings.TrimSpace(venueName)

	if loc, ok := p.lookup(address + " " + venueName); ok {
		return loc
	}

	if address != "" {
		if m := cityStateZip.FindStringSubmatch(address); m != nil {
			if loc, ok := build(m[1], m[2]); ok {
				return loc
			}
		}
		if m := cityState.FindStringSubmatch(address); m != nil {
			if loc, ok := build(m[1], m[2]); ok {
				return loc
			}
		}
	}

	return p.fallback
}

func (p *Parser) lookup(text string) (Location, bool) {
	for _, c := range p.cities {
		if c.pattern.MatchString(text) {
			return c.loc, true
		}
	}
	return Location{}, false
}

func build(city, state string) (Location, bool) {
	city = strings.Join(strings.Fields(city), " ")
	city = strings.Trim(city, " .-'")
	if city == "" || state == "" {
		return Location{}, false
	}
	return Location{City: city, State: state}, true
}
