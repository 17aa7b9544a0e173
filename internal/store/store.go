package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/therocksalt/curator/internal/event"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a uniqueness rule
	ErrDuplicate = errors.New("duplicate")
)

// Backend names
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

// Store is the persistence layer the curator writes through
type Store interface {
	ListVenues(ctx context.Context) ([]event.Venue, error)
	GetVenue(ctx context.Context, id int64) (event.Venue, error)
	CreateVenue(ctx context.Context, v event.Venue) (event.Venue, error)

	GetEventByExternalID(ctx context.Context, externalID string) (event.Event, error)
	CreateEvent(ctx context.Context, e event.Event) (event.Event, error)
	UpdateEvent(ctx context.Context, e event.Event) error
	ListEvents(ctx context.Context, f EventFilter) ([]event.Event, error)
	CountEvents(ctx context.Context) (int, error)

	Close() error
}

// EventFilter narrows ListEvents. From and To are inclusive naive start
// times (or date prefixes); zero values match everything.
type EventFilter struct {
	Source  event.Source
	VenueID int64
	From    string
	To      string
	Limit   int
}

// match reports whether e passes the filter
func (f EventFilter) match(e event.Event) bool {
	if f.Source != "" && e.ExternalSource != f.Source {
		return false
	}
	if f.VenueID != 0 && e.VenueID != f.VenueID {
		return false
	}
	if f.From != "" && e.StartTime < f.From {
		return false
	}
	if f.To != "" && e.StartTime > upperBound(f.To) {
		return false
	}
	return true
}

// upperBound widens a date-only bound to the end of that day
func upperBound(to string) string {
	if len(to) == len("2006-01-02") {
		return to + "T23:59:59"
	}
	return to
}

// Options selects and configures a backend
type Options struct {
	Backend string
	Path    string // SQLite database file
	DataDir string // JSON document directory
}

// Open returns the configured backend, creating parent directories as needed
func Open(opts Options) (Store, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendSQLite:
		path, err := expandHome(opts.Path)
		if err != nil {
			return nil, err
		}
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendFile:
		s, err := NewFile(opts.DataDir)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", opts.Backend)
	}
}

// expandHome expands a leading ~/ to the user's home directory
func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}
