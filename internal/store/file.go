package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/therocksalt/curator/internal/event"
)

// FileName is the document the file backend keeps in its data directory
const FileName = "curator.json"

// document is the on-disk shape of the file backend
type document struct {
	Venues      []event.Venue `json:"venues"`
	Events      []event.Event `json:"events"`
	NextVenueID int64         `json:"next_venue_id"`
	NextEventID int64         `json:"next_event_id"`
	UpdatedAt   string        `json:"updated_at"`
}

// File is a Store backed by one JSON document. Every write rewrites the
// document through a temp file and rename.
type File struct {
	path string
	now  func() time.Time

	mu  sync.Mutex
	doc document
}

// NewFile opens the document in dataDir, creating the directory if needed
func NewFile(dataDir string) (*File, error) {
	dataDir, err := expandHome(dataDir)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	f := &File{
		path: filepath.Join(dataDir, FileName),
		now:  time.Now,
		doc:  document{NextVenueID: 1, NextEventID: 1},
	}
	if err := f.load(); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *File) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading store document: %w", err)
	}

	if err := json.Unmarshal(data, &f.doc); err != nil {
		return fmt.Errorf("parsing store document: %w", err)
	}
	if f.doc.NextVenueID < 1 {
		f.doc.NextVenueID = 1
	}
	if f.doc.NextEventID < 1 {
		f.doc.NextEventID = 1
	}
	return nil
}

// save must be called with mu held
func (f *File) save() error {
	f.doc.UpdatedAt = f.now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(f.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".curator-*.json")
	if err != nil {
		return fmt.Errorf("writing store document: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing store document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing store document: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("replacing store document: %w", err)
	}
	return nil
}

// Close is a no-op; every write is already on disk
func (f *File) Close() error {
	return nil
}

// ListVenues returns every venue ordered by id
func (f *File) ListVenues(_ context.Context) ([]event.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	venues := make([]event.Venue, len(f.doc.Venues))
	copy(venues, f.doc.Venues)
	return venues, nil
}

// GetVenue returns the venue with the given id
func (f *File) GetVenue(_ context.Context, id int64) (event.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, v := range f.doc.Venues {
		if v.ID == id {
			return v, nil
		}
	}
	return event.Venue{}, fmt.Errorf("venue %d: %w", id, ErrNotFound)
}

// CreateVenue inserts a venue and returns it with its id set
func (f *File) CreateVenue(_ context.Context, v event.Venue) (event.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.doc.Venues {
		if strings.EqualFold(existing.Name, v.Name) || existing.Slug == v.Slug {
			return event.Venue{}, fmt.Errorf("creating venue %q: %w", v.Name, ErrDuplicate)
		}
	}

	if v.VenueType == "" {
		v.VenueType = event.DefaultVenueType
	}
	v.ID = f.doc.NextVenueID
	v.CreatedAt = f.now().UTC()

	f.doc.NextVenueID++
	f.doc.Venues = append(f.doc.Venues, v)
	if err := f.save(); err != nil {
		f.doc.Venues = f.doc.Venues[:len(f.doc.Venues)-1]
		f.doc.NextVenueID--
		return event.Venue{}, err
	}
	return v, nil
}

// GetEventByExternalID returns ErrNotFound when no event carries the id
func (f *File) GetEventByExternalID(_ context.Context, externalID string) (event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.doc.Events {
		if e.ExternalID == externalID {
			return e, nil
		}
	}
	return event.Event{}, fmt.Errorf("event %s: %w", externalID, ErrNotFound)
}

// CreateEvent inserts an event and returns it with its id set
func (f *File) CreateEvent(_ context.Context, e event.Event) (event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.doc.Events {
		if existing.ExternalID == e.ExternalID {
			return event.Event{}, fmt.Errorf("creating event %s: %w", e.ExternalID, ErrDuplicate)
		}
	}

	if e.Tier == "" {
		e.Tier = event.DefaultTier
	}
	now := f.now().UTC()
	e.ID = f.doc.NextEventID
	e.CreatedAt, e.UpdatedAt = now, now

	f.doc.NextEventID++
	f.doc.Events = append(f.doc.Events, e)
	if err := f.save(); err != nil {
		f.doc.Events = f.doc.Events[:len(f.doc.Events)-1]
		f.doc.NextEventID--
		return event.Event{}, err
	}
	return e, nil
}

// UpdateEvent overwrites the event with e.ID, keeping its creation time
func (f *File) UpdateEvent(_ context.Context, e event.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	idx := -1
	for i, existing := range f.doc.Events {
		if existing.ID == e.ID {
			idx = i
			continue
		}
		if existing.ExternalID == e.ExternalID {
			return fmt.Errorf("updating event %d: %w", e.ID, ErrDuplicate)
		}
	}
	if idx < 0 {
		return fmt.Errorf("event %d: %w", e.ID, ErrNotFound)
	}

	if e.Tier == "" {
		e.Tier = event.DefaultTier
	}
	prev := f.doc.Events[idx]
	e.CreatedAt = prev.CreatedAt
	e.UpdatedAt = f.now().UTC()

	f.doc.Events[idx] = e
	if err := f.save(); err != nil {
		f.doc.Events[idx] = prev
		return err
	}
	return nil
}

// ListEvents returns matching events ordered by start time
func (f *File) ListEvents(_ context.Context, filter EventFilter) ([]event.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	events := make([]event.Event, 0)
	for _, e := range f.doc.Events {
		if filter.match(e) {
			events = append(events, e)
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		if events[i].StartTime != events[j].StartTime {
			return events[i].StartTime < events[j].StartTime
		}
		return events[i].ID < events[j].ID
	})

	if filter.Limit > 0 && len(events) > filter.Limit {
		events = events[:filter.Limit]
	}
	return events, nil
}

// CountEvents returns the number of stored events
func (f *File) CountEvents(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.doc.Events), nil
}
