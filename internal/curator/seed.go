package curator

import (
	"context"
	"fmt"
	"strings"

	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/logger"
)

// UtahVenues returns the known Salt Lake area music venues
func UtahVenues() []event.Venue {
	slc := func(name, slug, address, website string) event.Venue {
		return event.Venue{Name: name, Slug: slug, Address: address, City: "Salt Lake City", State: "UT", Website: website}
	}
	return []event.Venue{
		slc("Urban Lounge", "urban-lounge", "241 S 500 E", "https://www.theurbanloungeslc.com"),
		slc("Kilby Court", "kilby-court", "741 S Kilby Ct", "https://www.kilbycourt.com"),
		slc("The Depot", "the-depot", "400 W South Temple", "https://depotslc.com"),
		slc("Metro Music Hall", "metro-music-hall", "615 W 100 S", "https://metromusichall.com"),
		slc("The State Room", "the-state-room", "638 S State St", ""),
		slc("Piper Down", "piper-down", "1492 S State St", ""),
		slc("Aces High Saloon", "aces-high-saloon", "1550 S State St", ""),
		slc("The Commonwealth Room", "the-commonwealth-room", "195 W 2100 S", ""),
		slc("Soundwell", "soundwell", "149 W 200 S", "https://www.soundwellslc.com"),
		slc("Ice Haus", "ice-haus", "", ""),
		slc("Barbary Coast", "barbary-coast", "", ""),
		{Name: "Velour Live Music Gallery", Slug: "velour", Address: "135 N University Ave", City: "Provo", State: "UT", Website: "https://velourlive.com"},
		slc("The Complex", "the-complex", "536 W 100 S", ""),
		slc("Vivint Arena", "vivint-arena", "301 S Temple", ""),
		slc("Red Butte Garden Amphitheatre", "red-butte-garden", "", ""),
	}
}

// SeedResult counts what Seed did
type SeedResult struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
}

// Seed inserts each venue whose name is not stored yet. Names match
// case-insensitively; a slug already in use gets a numeric suffix.
func Seed(ctx context.Context, s VenueStore, venues []event.Venue) (SeedResult, error) {
	var result SeedResult

	cache, err := LoadVenueCache(ctx, s)
	if err != nil {
		return result, err
	}

	for _, v := range venues {
		v.Name = strings.TrimSpace(v.Name)
		if v.Name == "" {
			continue
		}
		if _, ok := cache.Lookup(v.Name); ok {
			result.Existing++
			continue
		}

		slug := v.Slug
		if slug == "" {
			slug = v.Name
		}
		v.Slug = cache.uniqueSlug(slug)
		if v.VenueType == "" {
			v.VenueType = event.DefaultVenueType
		}

		created, err := s.CreateVenue(ctx, v)
		if err != nil {
			return result, fmt.Errorf("seeding venue %q: %w", v.Name, err)
		}
		cache.Add(created)
		result.Created++

		logger.Debug("Venue seeded", logger.Fields{"venue_id": created.ID, "slug": created.Slug})
	}

	logger.Info("Venues seeded", logger.Fields{"created": result.Created, "existing": result.Existing})
	return result, nil
}
