package curator

import (
	"context"
	"errors"
	"fmt"

	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/store"
)

// EventStore is the part of the store the upserter needs
type EventStore interface {
	GetEventByExternalID(ctx context.Context, externalID string) (event.Event, error)
	CreateEvent(ctx context.Context, e event.Event) (event.Event, error)
	UpdateEvent(ctx context.Context, e event.Event) error
}

// Outcome is the result of one upsert
type Outcome int

const (
	Created Outcome = iota + 1
	Updated
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	}
	return "unknown"
}

// Upserter writes curated events, keyed by external id
type Upserter struct {
	store EventStore
}

// NewUpserter creates an upserter over s
func NewUpserter(s EventStore) *Upserter {
	return &Upserter{store: s}
}

// Upsert updates the stored event with the same external id, overwriting
// every field, or inserts a new one
func (u *Upserter) Upsert(ctx context.Context, ce event.CuratedEvent, venueID int64) (Outcome, error) {
	rec := ce.Record(venueID)

	existing, err := u.store.GetEventByExternalID(ctx, ce.ExternalID)
	switch {
	case err == nil:
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		if err := u.store.UpdateEvent(ctx, rec); err != nil {
			return 0, fmt.Errorf("updating event: %w", err)
		}
		return Updated, nil

	case errors.Is(err, store.ErrNotFound):
		if _, err := u.store.CreateEvent(ctx, rec); err != nil {
			return 0, fmt.Errorf("creating event: %w", err)
		}
		return Created, nil

	default:
		return 0, fmt.Errorf("looking up event: %w", err)
	}
}
