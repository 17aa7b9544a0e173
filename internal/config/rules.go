package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/therocksalt/curator/internal/filter"
	"github.com/therocksalt/curator/internal/location"
)

// Rules is the classification and geography data a run uses
type Rules struct {
	Filter filter.Rules
	Cities []location.Location
}

// rulesFile is the on-disk shape. Absent or empty lists keep the built-in
// defaults.
//
//	music: [concert, gig]
//	exclude: [yoga]
//	venues: [kilby court]
//	cities:
//	  - {city: Ogden, state: UT}
type rulesFile struct {
	Music   []string            `yaml:"music"`
	Exclude []string            `yaml:"exclude"`
	Venues  []string            `yaml:"venues"`
	Cities  []location.Location `yaml:"cities"`
}

// DefaultRules returns the built-in rules
func DefaultRules() Rules {
	return Rules{Filter: filter.DefaultRules(), Cities: location.UtahCities()}
}

// LoadRules reads path over the defaults. An empty path returns the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("reading rules file: %w", err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Rules{}, fmt.Errorf("parsing rules file %s: %w", path, err)
	}

	if len(f.Music) > 0 {
		rules.Filter.Music = f.Music
	}
	if len(f.Exclude) > 0 {
		rules.Filter.Exclude = f.Exclude
	}
	if len(f.Venues) > 0 {
		rules.Filter.Venues = f.Venues
	}
	if len(f.Cities) > 0 {
		for i, c := range f.Cities {
			if c.City == "" || c.State == "" {
				return Rules{}, fmt.Errorf("rules file %s: city entry %d needs city and state", path, i+1)
			}
		}
		rules.Cities = f.Cities
	}
	return rules, nil
}
