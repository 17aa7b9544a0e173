package curator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/filter"
	"github.com/therocksalt/curator/internal/location"
	"github.com/therocksalt/curator/internal/logger"
)

// Source is an event adapter. FetchEvents must not fail: upstream errors
// are logged by the adapter and yield an empty (or partial) list.
type Source interface {
	Name() event.Source
	FetchEvents(ctx context.Context, hint event.LocationHint) []event.RawEvent
}

// Store is everything a curation run reads and writes
type Store interface {
	VenueStore
	EventStore
}

// Options configures a Curator. Zero values use the default filter rules,
// the Utah location parser, UTC and the Salt Lake metro hint.
type Options struct {
	Sources    []Source
	Filter     *filter.Filter
	Parser     *location.Parser
	Location   *time.Location
	Hint       event.LocationHint
	Sequential bool // fetch sources one at a time
}

// Curator runs curation passes against a store
type Curator struct {
	store      Store
	sources    []Source
	filter     *filter.Filter
	parser     *location.Parser
	loc        *time.Location
	hint       event.LocationHint
	sequential bool
	now        func() time.Time
}

// New creates a Curator
func New(s Store, opts Options) *Curator {
	c := &Curator{
		store:      s,
		sources:    opts.Sources,
		filter:     opts.Filter,
		parser:     opts.Parser,
		loc:        opts.Location,
		hint:       opts.Hint,
		sequential: opts.Sequential,
		now:        time.Now,
	}
	if c.filter == nil {
		c.filter = filter.New(filter.DefaultRules())
	}
	if c.parser == nil {
		c.parser = location.NewParser(location.Default, location.UtahCities())
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.hint == (event.LocationHint{}) {
		c.hint = event.DefaultHint
	}
	return c
}

// batch is one source's fetch result
type batch struct {
	source event.Source
	events []event.RawEvent
	err    error
}

// Run performs one curation pass. It always returns a report; Success is
// false only when the venue preload fails or ctx is canceled mid-run.
func (c *Curator) Run(ctx context.Context) *Report {
	report := newReport(c.now())
	defer func() { report.finish(c.now()) }()

	logger.Info("Curation started", logger.Fields{
		"run_id":  report.RunID,
		"sources": len(c.sources),
	})

	cache, err := LoadVenueCache(ctx, c.store)
	if err != nil {
		report.fail(err)
		logger.Error("Curation failed", logger.Fields{"run_id": report.RunID}, err)
		return report
	}
	resolver := NewResolver(c.store, cache)
	upserter := NewUpserter(c.store)

	batches := c.fetch(ctx)
	logger.Info("Sources fetched", logger.Fields{
		"run_id": report.RunID,
		"venues": cache.Len(),
	})

	queue := make([]event.RawEvent, 0)
	for _, b := range batches {
		stats := report.source(b.source)
		if b.err != nil {
			report.addError(fmt.Sprintf("source %s", b.source), "%v", b.err)
		}
		stats.Fetched += len(b.events)

		kept := b.events
		if b.source.Scraped() {
			kept = c.filter.Apply(b.events)
		}
		stats.Kept += len(kept)
		report.Skipped += len(b.events) - len(kept)
		queue = append(queue, kept...)
	}

	logger.Info("Events normalized", logger.Fields{
		"run_id":  report.RunID,
		"events":  len(queue),
		"skipped": report.Skipped,
	})

	for _, raw := range queue {
		if err := ctx.Err(); err != nil {
			report.fail(fmt.Errorf("curation interrupted: %w", err))
			break
		}
		c.process(ctx, raw, resolver, upserter, report)
	}
	report.VenuesCreated = resolver.Created()

	fields := logger.Fields{
		"run_id":         report.RunID,
		"created":        report.Created,
		"updated":        report.Updated,
		"skipped":        report.Skipped,
		"venues_created": report.VenuesCreated,
		"errors":         report.ErrorCount,
	}
	if report.Success {
		logger.Info("Curation complete", fields)
	} else {
		logger.Warn("Curation halted", fields)
	}
	return report
}

// fetch runs every source, concurrently unless configured otherwise.
// Results keep the configured source order.
func (c *Curator) fetch(ctx context.Context) []batch {
	batches := make([]batch, len(c.sources))

	if c.sequential {
		for i, src := range c.sources {
			batches[i] = c.fetchOne(ctx, src)
		}
		return batches
	}

	var g errgroup.Group
	for i, src := range c.sources {
		g.Go(func() error {
			batches[i] = c.fetchOne(ctx, src)
			return nil
		})
	}
	_ = g.Wait()

	return batches
}

// fetchOne shields the run from an adapter that panics
func (c *Curator) fetchOne(ctx context.Context, src Source) (b batch) {
	b.source = src.Name()
	start := c.now()

	defer func() {
		if r := recover(); r != nil {
			b.events = nil
			b.err = fmt.Errorf("adapter panic: %v", r)
			logger.Error("Source adapter panicked", logger.Fields{"source": string(b.source)}, b.err)
		}
	}()

	b.events = src.FetchEvents(ctx, c.hint)
	logger.Debug("Source fetched", logger.Fields{
		"source":      string(b.source),
		"events":      len(b.events),
		"duration_ms": c.now().Sub(start).Milliseconds(),
	})
	return b
}

// process normalizes, resolves and upserts one event, recording any failure
// in the report
func (c *Curator) process(ctx context.Context, raw event.RawEvent, resolver *Resolver, upserter *Upserter, report *Report) {
	stats := report.source(raw.Source)
	where := eventContext(raw)
	fail := func(format string, args ...any) {
		stats.Errors++
		report.addError(where, format, args...)
	}

	raw.Title = strings.TrimSpace(raw.Title)
	raw.VenueName = strings.TrimSpace(raw.VenueName)
	if raw.Title == "" {
		fail("missing title")
		return
	}
	if raw.VenueName == "" {
		fail("missing venue")
		return
	}

	start, err := event.NormalizeStart(raw.StartDateTime, c.loc)
	if err != nil {
		fail("%v", err)
		return
	}

	city, state := strings.TrimSpace(raw.CityHint), strings.TrimSpace(raw.StateHint)
	if city == "" || state == "" {
		loc := c.parser.Parse(raw.VenueAddress, raw.VenueName)
		city, state = loc.City, loc.State
	}

	curated := event.Curate(raw, start, city, state)

	venueID, err := resolver.Resolve(ctx, raw.VenueName, city, state, raw.VenueAddress)
	if err != nil {
		fail("%v", err)
		return
	}

	outcome, err := upserter.Upsert(ctx, curated, venueID)
	if err != nil {
		fail("%v", err)
		return
	}

	switch outcome {
	case Created:
		report.Created++
		stats.Created++
	case Updated:
		report.Updated++
		stats.Updated++
	}
}
