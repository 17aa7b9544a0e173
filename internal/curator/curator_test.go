package curator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/store"
)

// fakeSource returns a fixed list of events
type fakeSource struct {
	name   event.Source
	events []event.RawEvent
	panics bool

	mu    sync.Mutex
	calls int
	hint  event.LocationHint
}

func (f *fakeSource) Name() event.Source { return f.name }

func (f *fakeSource) FetchEvents(_ context.Context, hint event.LocationHint) []event.RawEvent {
	f.mu.Lock()
	f.calls++
	f.hint = hint
	f.mu.Unlock()

	if f.panics {
		panic("upstream exploded")
	}
	out := make([]event.RawEvent, len(f.events))
	copy(out, f.events)
	return out
}

func source(name event.Source, events ...event.RawEvent) *fakeSource {
	for i := range events {
		events[i].Source = name
	}
	return &fakeSource{name: name, events: events}
}

func testStore(t *testing.T) store.Store {
	t.Helper()

	s, err := store.NewFile(t.TempDir())
	require.NoError(t, err)
	return s
}

func run(t *testing.T, s Store, opts Options) *Report {
	t.Helper()
	return New(s, opts).Run(context.Background())
}

func allEvents(t *testing.T, s store.Store) []event.Event {
	t.Helper()

	events, err := s.ListEvents(context.Background(), store.EventFilter{})
	require.NoError(t, err)
	return events
}

func allVenues(t *testing.T, s store.Store) []event.Venue {
	t.Helper()

	venues, err := s.ListVenues(context.Background())
	require.NoError(t, err)
	return venues
}

func TestRun_SingleAPIEvent(t *testing.T) {
	s := testStore(t)
	bt := source(event.SourceBandsintown, event.RawEvent{
		SourceEventID: "bt-42",
		Title:         "Band X",
		VenueName:     "Urban Lounge",
		StartDateTime: "2025-12-12T21:00:00",
	})

	report := run(t, s, Options{Sources: []Source{bt}})

	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 0, report.Updated)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 1, report.VenuesCreated)
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.FinishedAt.IsZero())

	venues := allVenues(t, s)
	require.Len(t, venues, 1)
	assert.Equal(t, "Urban Lounge", venues[0].Name)
	assert.Equal(t, "urban-lounge", venues[0].Slug)
	assert.Equal(t, "Salt Lake City", venues[0].City)
	assert.Equal(t, "UT", venues[0].State)
	assert.Equal(t, event.DefaultVenueType, venues[0].VenueType)

	events := allEvents(t, s)
	require.Len(t, events, 1)
	assert.Equal(t, "bandsintown-bt-42", events[0].ExternalID)
	assert.Equal(t, "Band X", events[0].Name)
	assert.Equal(t, "2025-12-12T21:00:00", events[0].StartTime)
	assert.Equal(t, venues[0].ID, events[0].VenueID)
	assert.Equal(t, event.DefaultTier, events[0].Tier)
	assert.Equal(t, event.SourceBandsintown, events[0].ExternalSource)

	assert.Equal(t, event.DefaultHint, bt.hint)
}

func mixedSources() []Source {
	return []Source{
		source(event.SourceBandsintown,
			event.RawEvent{SourceEventID: "1", Title: "Band A + Band B", VenueName: "Urban Lounge", StartDateTime: "2025-12-01T20:00:00"},
			event.RawEvent{SourceEventID: "2", Title: "Band C", VenueName: "The State Room", StartDateTime: "2025-12-02T20:00:00"},
		),
		source(event.SourceSongkick,
			event.RawEvent{SourceEventID: "sk-9", Title: "Band D", VenueName: "Kilby Court", StartDateTime: "2025-12-03T19:00:00-0700"},
		),
		source(event.SourceSlugMag,
			event.RawEvent{Title: "Punk Night", VenueName: "Kilby Court", StartDateTime: "2025-12-04T19:00:00", Category: "Concert or Performance"},
		),
		source(event.SourceCityWeekly,
			event.RawEvent{Title: "Jazz Brunch", VenueName: "The Garage", StartDateTime: "2025-12-05T11:00:00"},
		),
	}
}

func TestRun_Idempotent(t *testing.T) {
	s := testStore(t)
	opts := Options{Sources: mixedSources()}

	first := run(t, s, opts)
	require.True(t, first.Success)
	assert.Equal(t, 5, first.Created)
	assert.Equal(t, 0, first.Updated)
	assert.Empty(t, first.Errors)
	countAfterFirst := len(allEvents(t, s))
	venuesAfterFirst := len(allVenues(t, s))

	second := run(t, s, opts)
	require.True(t, second.Success)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 5, second.Updated)
	assert.Equal(t, 0, second.VenuesCreated)
	assert.Len(t, allEvents(t, s), countAfterFirst)
	assert.Len(t, allVenues(t, s), venuesAfterFirst)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestRun_SequentialMatchesConcurrent(t *testing.T) {
	concurrent := run(t, testStore(t), Options{Sources: mixedSources()})
	sequential := run(t, testStore(t), Options{Sources: mixedSources(), Sequential: true})

	assert.Equal(t, concurrent.Created, sequential.Created)
	assert.Equal(t, concurrent.VenuesCreated, sequential.VenuesCreated)
	assert.Equal(t, concurrent.Sources, sequential.Sources)
}

func TestRun_VenueDedupAcrossSources(t *testing.T) {
	s := testStore(t)
	sources := []Source{
		source(event.SourceBandsintown, event.RawEvent{SourceEventID: "1", Title: "Band A", VenueName: "Kilby Court", StartDateTime: "2025-12-01T19:00:00"}),
		source(event.SourceSongkick, event.RawEvent{SourceEventID: "2", Title: "Band B", VenueName: "kilby court", StartDateTime: "2025-12-02T19:00:00"}),
		source(event.SourceSlugMag, event.RawEvent{Title: "Band C Live", VenueName: "KILBY COURT", StartDateTime: "2025-12-03T19:00:00", Category: "Concert or Performance"}),
	}

	report := run(t, s, Options{Sources: sources})

	require.True(t, report.Success)
	assert.Equal(t, 3, report.Created)
	assert.Equal(t, 1, report.VenuesCreated)

	venues := allVenues(t, s)
	require.Len(t, venues, 1)
	for _, e := range allEvents(t, s) {
		assert.Equal(t, venues[0].ID, e.VenueID)
	}
}

func TestRun_ExternalIDStableAcrossTitleChange(t *testing.T) {
	s := testStore(t)
	raw := event.RawEvent{SourceEventID: "777", Title: "Band X", VenueName: "Urban Lounge", StartDateTime: "2025-12-12T21:00:00"}

	first := run(t, s, Options{Sources: []Source{source(event.SourceSongkick, raw)}})
	require.Equal(t, 1, first.Created)

	raw.Title = "Band X with Special Guest Band Y"
	second := run(t, s, Options{Sources: []Source{source(event.SourceSongkick, raw)}})
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 1, second.Updated)

	events := allEvents(t, s)
	require.Len(t, events, 1)
	assert.Equal(t, "songkick-777", events[0].ExternalID)
	assert.Equal(t, "Band X with Special Guest Band Y", events[0].Name)
}

func TestRun_PartialFailureIsolation(t *testing.T) {
	s := testStore(t)
	failing := &fakeSource{name: event.SourceSongkick, panics: true}
	sources := []Source{
		source(event.SourceBandsintown, event.RawEvent{SourceEventID: "1", Title: "Band A", VenueName: "Urban Lounge", StartDateTime: "2025-12-01T20:00:00"}),
		failing,
		source(event.SourceCityWeekly, event.RawEvent{Title: "Live Band Karaoke", VenueName: "Piper Down", StartDateTime: "2025-12-02T21:00:00"}),
	}

	report := run(t, s, Options{Sources: sources})

	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Sources[event.SourceBandsintown].Created)
	assert.Equal(t, 1, report.Sources[event.SourceCityWeekly].Created)
	assert.Equal(t, 0, report.Sources[event.SourceSongkick].Fetched)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "source songkick", report.Errors[0].Context)
	assert.Contains(t, report.Errors[0].Message, "upstream exploded")
}

func TestRun_EmptySourceIsNotAnError(t *testing.T) {
	report := run(t, testStore(t), Options{Sources: []Source{source(event.SourceSongkick)}})

	assert.True(t, report.Success)
	assert.Empty(t, report.Errors)
	assert.Equal(t, 0, report.Created)
}

func TestRun_FilterAppliesToScrapedSourcesOnly(t *testing.T) {
	s := testStore(t)
	pottery := event.RawEvent{Title: "Pottery Night", VenueName: "Clay Studio", StartDateTime: "2025-12-01T18:00:00"}
	apiPottery := pottery
	apiPottery.SourceEventID = "p-1"

	sources := []Source{
		source(event.SourceBandsintown, apiPottery),
		source(event.SourceSlugMag,
			pottery,
			event.RawEvent{Title: "Gloom Daddies", VenueName: "Kilby Court", StartDateTime: "2025-12-02T19:00:00", Category: "Concert or Performance"},
		),
	}

	report := run(t, s, Options{Sources: sources})

	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, SourceStats{Fetched: 2, Kept: 1, Created: 1}, *report.Sources[event.SourceSlugMag])
	assert.Equal(t, SourceStats{Fetched: 1, Kept: 1, Created: 1}, *report.Sources[event.SourceBandsintown])
}

func TestRun_PerEventErrors(t *testing.T) {
	s := testStore(t)
	bt := source(event.SourceBandsintown,
		event.RawEvent{SourceEventID: "ok", Title: "Band A", VenueName: "Urban Lounge", StartDateTime: "2025-12-01T20:00:00"},
		event.RawEvent{SourceEventID: "no-venue", Title: "Band B", VenueName: "  ", StartDateTime: "2025-12-01T20:00:00"},
		event.RawEvent{SourceEventID: "bad-date", Title: "Band C", VenueName: "Urban Lounge", StartDateTime: "next friday"},
		event.RawEvent{SourceEventID: "no-title", Title: "", VenueName: "Urban Lounge", StartDateTime: "2025-12-01T20:00:00"},
	)

	report := run(t, s, Options{Sources: []Source{bt}})

	assert.True(t, report.Success, "per-event errors do not fail the run")
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 3, report.ErrorCount)
	assert.Equal(t, 3, report.Sources[event.SourceBandsintown].Errors)

	byContext := make(map[string]string)
	for _, e := range report.Errors {
		byContext[e.Context] = e.Message
	}
	assert.Equal(t, "missing venue", byContext["bandsintown event no-venue"])
	assert.Equal(t, "missing title", byContext["bandsintown event no-title"])
	assert.Contains(t, byContext["bandsintown event bad-date"], "unparseable start time")
}

func TestRun_APILocalityWins(t *testing.T) {
	s := testStore(t)
	sk := source(event.SourceSongkick,
		event.RawEvent{SourceEventID: "1", Title: "Band A", VenueName: "Ogden Amphitheater", CityHint: "Ogden", StateHint: "UT", VenueAddress: "Provo, UT", StartDateTime: "2025-12-01T20:00:00"},
		event.RawEvent{SourceEventID: "2", Title: "Band B", VenueName: "Velour Live Music Gallery", VenueAddress: "135 N University Ave, Provo, UT 84601", StartDateTime: "2025-12-01T20:00:00"},
	)

	run(t, s, Options{Sources: []Source{sk}})

	got := make(map[string]string)
	for _, v := range allVenues(t, s) {
		got[v.Name] = v.City + ", " + v.State
	}
	assert.Equal(t, "Ogden, UT", got["Ogden Amphitheater"])
	assert.Equal(t, "Provo, UT", got["Velour Live Music Gallery"])
}

// failingStore wraps a store and fails selected operations
type failingStore struct {
	store.Store
	listErr   error
	createErr map[string]error // by external id
	venueErr  map[string]error // by venue name
}

func (f *failingStore) ListVenues(ctx context.Context) ([]event.Venue, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.Store.ListVenues(ctx)
}

func (f *failingStore) CreateVenue(ctx context.Context, v event.Venue) (event.Venue, error) {
	if err, ok := f.venueErr[v.Name]; ok {
		return event.Venue{}, err
	}
	return f.Store.CreateVenue(ctx, v)
}

func (f *failingStore) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	if err, ok := f.createErr[e.ExternalID]; ok {
		return event.Event{}, err
	}
	return f.Store.CreateEvent(ctx, e)
}

func TestRun_FatalVenuePreload(t *testing.T) {
	bt := source(event.SourceBandsintown, event.RawEvent{SourceEventID: "1", Title: "Band A", VenueName: "Urban Lounge", StartDateTime: "2025-12-01T20:00:00"})
	s := &failingStore{Store: testStore(t), listErr: errors.New("database is locked")}

	report := run(t, s, Options{Sources: []Source{bt}})

	assert.False(t, report.Success)
	assert.Equal(t, 0, report.Created)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "fatal", report.Errors[0].Context)
	assert.Contains(t, report.Errors[0].Message, "database is locked")
	assert.Equal(t, 0, bt.calls, "sources are not fetched when setup fails")
	assert.Contains(t, report.Summary(), "failed")
}

func TestRun_UpsertFailureIsPerEvent(t *testing.T) {
	s := &failingStore{
		Store:     testStore(t),
		createErr: map[string]error{"bandsintown-2": errors.New("disk full")},
	}
	bt := source(event.SourceBandsintown,
		event.RawEvent{SourceEventID: "1", Title: "Band A", VenueName: "Urban Lounge", StartDateTime: "2025-12-01T20:00:00"},
		event.RawEvent{SourceEventID: "2", Title: "Band B", VenueName: "Urban Lounge", StartDateTime: "2025-12-02T20:00:00"},
		event.RawEvent{SourceEventID: "3", Title: "Band C", VenueName: "Urban Lounge", StartDateTime: "2025-12-03T20:00:00"},
	)

	report := run(t, s, Options{Sources: []Source{bt}})

	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Created)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "bandsintown event 2", report.Errors[0].Context)
	assert.Contains(t, report.Errors[0].Message, "disk full")
}

func TestRun_VenueCreateFailureIsPerEvent(t *testing.T) {
	s := &failingStore{
		Store:    testStore(t),
		venueErr: map[string]error{"Kilby Court": errors.New("read-only database")},
	}
	bt := source(event.SourceBandsintown,
		event.RawEvent{SourceEventID: "1", Title: "Band A", VenueName: "Urban Lounge", StartDateTime: "2025-12-01T20:00:00"},
		event.RawEvent{SourceEventID: "2", Title: "Band B", VenueName: "Kilby Court", StartDateTime: "2025-12-02T20:00:00"},
		event.RawEvent{SourceEventID: "3", Title: "Band C", VenueName: "Urban Lounge", StartDateTime: "2025-12-03T20:00:00"},
	)

	report := run(t, s, Options{Sources: []Source{bt}})

	assert.True(t, report.Success)
	assert.Equal(t, 2, report.Created)
	assert.Equal(t, 1, report.VenuesCreated)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "bandsintown event 2", report.Errors[0].Context)
	assert.Contains(t, report.Errors[0].Message, "creating venue")
	assert.Contains(t, report.Errors[0].Message, "read-only database")

	events := allEvents(t, s)
	require.Len(t, events, 2)
	for _, e := range events {
		assert.NotEqual(t, "bandsintown-2", e.ExternalID)
	}
	venues := allVenues(t, s)
	require.Len(t, venues, 1)
	assert.Equal(t, "Urban Lounge", venues[0].Name)
}

func TestRun_CanceledContext(t *testing.T) {
	bt := source(event.SourceBandsintown, event.RawEvent{SourceEventID: "1", Title: "Band A", VenueName: "Urban Lounge", StartDateTime: "2025-12-01T20:00:00"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := New(testStore(t), Options{Sources: []Source{bt}}).Run(ctx)

	assert.False(t, report.Success)
	assert.Equal(t, 0, report.Created)
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[len(report.Errors)-1].Message, "interrupted")
}

func TestRun_ErrorListIsBounded(t *testing.T) {
	events := make([]event.RawEvent, 0, MaxReportErrors+5)
	for i := 0; i < MaxReportErrors+5; i++ {
		events = append(events, event.RawEvent{SourceEventID: fmt.Sprint(i), Title: "Band", VenueName: "Urban Lounge", StartDateTime: "soon"})
	}

	report := run(t, testStore(t), Options{Sources: []Source{source(event.SourceBandsintown, events...)}})

	assert.True(t, report.Success)
	assert.Equal(t, MaxReportErrors+5, report.ErrorCount)
	require.Len(t, report.Errors, MaxReportErrors+1)
	last := report.Errors[len(report.Errors)-1]
	assert.Equal(t, "report", last.Context)
	assert.Equal(t, "5 more errors suppressed", last.Message)
}

func TestResolver_Concurrent(t *testing.T) {
	s := testStore(t)
	r := NewResolver(s, NewVenueCache(nil))

	names := []string{"Kilby Court", "kilby court", "KILBY COURT", "Kilby Court"}
	ids := make([]int64, 20)

	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := r.Resolve(context.Background(), names[i%len(names)], "Salt Lake City", "UT", "")
			assert.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.Created())
	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, allVenues(t, s), 1)
}

func TestResolver_PreloadedAndSlugCollision(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	existing, err := s.CreateVenue(ctx, event.Venue{Name: "Urban Lounge", Slug: "urban-lounge", City: "Salt Lake City", State: "UT"})
	require.NoError(t, err)

	cache, err := LoadVenueCache(ctx, s)
	require.NoError(t, err)
	r := NewResolver(s, cache)

	id, err := r.Resolve(ctx, "URBAN LOUNGE", "Provo", "UT", "")
	require.NoError(t, err)
	assert.Equal(t, existing.ID, id, "preloaded venue is reused")

	_, err = r.Resolve(ctx, "Urban-Lounge", "Salt Lake City", "UT", "")
	require.NoError(t, err)

	slugs := make([]string, 0)
	for _, v := range allVenues(t, s) {
		slugs = append(slugs, v.Slug)
	}
	assert.ElementsMatch(t, []string{"urban-lounge", "urban-lounge-2"}, slugs)

	_, err = r.Resolve(ctx, "   ", "Salt Lake City", "UT", "")
	assert.EqualError(t, err, "missing venue")
}

func TestVenueCache(t *testing.T) {
	c := NewVenueCache([]event.Venue{{ID: 1, Name: "The Complex", Slug: "the-complex"}})

	v, ok := c.Lookup("the complex")
	assert.True(t, ok)
	assert.Equal(t, int64(1), v.ID)

	_, ok = c.Lookup("Complex")
	assert.False(t, ok, "matching is exact apart from case")

	assert.Equal(t, "the-complex-2", c.uniqueSlug("The Complex!"))
	assert.Equal(t, "venue", c.uniqueSlug("!!!"))
	assert.Equal(t, 1, c.Len())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "created", Created.String())
	assert.Equal(t, "updated", Updated.String())
	assert.Equal(t, "unknown", Outcome(0).String())
}

func TestEventContext(t *testing.T) {
	assert.Equal(t, "songkick event 123", eventContext(event.RawEvent{Source: event.SourceSongkick, SourceEventID: "123"}))
	assert.Equal(t, `slugmag event "Gloom Daddies"`, eventContext(event.RawEvent{Source: event.SourceSlugMag, Title: " Gloom Daddies "}))
	assert.True(t, strings.HasSuffix(eventContext(event.RawEvent{Source: event.SourceCityWeekly}), `"(untitled)"`))
}
