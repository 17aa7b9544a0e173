package curator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/logger"
)

// VenueStore is the part of the store the resolver needs
type VenueStore interface {
	ListVenues(ctx context.Context) ([]event.Venue, error)
	CreateVenue(ctx context.Context, v event.Venue) (event.Venue, error)
}

// VenueCache maps lowercased venue names to venue records for one run
type VenueCache struct {
	byName map[string]event.Venue
	slugs  map[string]bool
}

// NewVenueCache builds a cache from preloaded venues
func NewVenueCache(venues []event.Venue) *VenueCache {
	c := &VenueCache{
		byName: make(map[string]event.Venue, len(venues)),
		slugs:  make(map[string]bool, len(venues)),
	}
	for _, v := range venues {
		c.Add(v)
	}
	return c
}

// LoadVenueCache preloads every stored venue
func LoadVenueCache(ctx context.Context, s VenueStore) (*VenueCache, error) {
	venues, err := s.ListVenues(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading venues: %w", err)
	}
	return NewVenueCache(venues), nil
}

// Lookup matches name case-insensitively
func (c *VenueCache) Lookup(name string) (event.Venue, bool) {
	v, ok := c.byName[strings.ToLower(name)]
	return v, ok
}

// Add caches v under its name and reserves its slug
func (c *VenueCache) Add(v event.Venue) {
	c.byName[strings.ToLower(v.Name)] = v
	if v.Slug != "" {
		c.slugs[v.Slug] = true
	}
}

// Len returns the number of cached venues
func (c *VenueCache) Len() int {
	return len(c.byName)
}

// uniqueSlug derives a slug for name that no cached venue uses yet
func (c *VenueCache) uniqueSlug(name string) string {
	base := event.Slugify(name)
	if base == "" {
		base = "venue"
	}
	slug := base
	for n := 2; c.slugs[slug]; n++ {
		slug = fmt.Sprintf("%s-%d", base, n)
	}
	return slug
}

// Resolver finds or creates the venue for an event. Resolve is safe for
// concurrent use; lookups and inserts are serialized so one name never
// produces two venues.
type Resolver struct {
	store VenueStore
	cache *VenueCache

	mu      sync.Mutex
	created int
}

// NewResolver creates a resolver over a preloaded cache
func NewResolver(s VenueStore, cache *VenueCache) *Resolver {
	return &Resolver{store: s, cache: cache}
}

// Resolve returns the id of the venue called name, creating it with the
// given locality when no cached venue matches
func (r *Resolver) Resolve(ctx context.Context, name, city, state, address string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("missing venue")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.cache.Lookup(name); ok {
		return v.ID, nil
	}

	v, err := r.store.CreateVenue(ctx, event.Venue{
		Name:      name,
		Slug:      r.cache.uniqueSlug(name),
		City:      city,
		State:     state,
		Address:   address,
		VenueType: event.DefaultVenueType,
	})
	if err != nil {
		return 0, fmt.Errorf("creating venue %q: %w", name, err)
	}

	r.cache.Add(v)
	r.created++

	logger.Info("Venue created", logger.Fields{
		"venue_id": v.ID,
		"name":     v.Name,
		"slug":     v.Slug,
		"city":     v.City,
		"state":    v.State,
	})
	return v.ID, nil
}

// Created returns how many venues this resolver inserted
func (r *Resolver) Created() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created
}
