package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"

	"github.com/therocksalt/curator/internal/event"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// timeLayout is how created/updated timestamps are stored
const timeLayout = time.RFC3339Nano

// NewDB opens a SQLite database connection and applies connection pragmas
func NewDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA temp_store=MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Migrate runs all pending database migrations
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// SQLite is the database-backed Store
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) and migrates the database at path
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := NewDB(path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the database
func (s *SQLite) Close() error {
	return s.db.Close()
}

const venueColumns = `id, name, slug, city, state, address, venue_type, website, created_at`

// ListVenues returns every venue ordered by id
func (s *SQLite) ListVenues(ctx context.Context) ([]event.Venue, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+venueColumns+` FROM venues ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing venues: %w", err)
	}
	defer rows.Close()

	venues := make([]event.Venue, 0)
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning venue: %w", err)
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing venues: %w", err)
	}
	return venues, nil
}

// GetVenue returns the venue with the given id
func (s *SQLite) GetVenue(ctx context.Context, id int64) (event.Venue, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id)
	v, err := scanVenue(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Venue{}, fmt.Errorf("venue %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return event.Venue{}, fmt.Errorf("getting venue %d: %w", id, err)
	}
	return v, nil
}

// CreateVenue inserts a venue and returns it with its id set
func (s *SQLite) CreateVenue(ctx context.Context, v event.Venue) (event.Venue, error) {
	if v.VenueType == "" {
		v.VenueType = event.DefaultVenueType
	}
	v.CreatedAt = s.now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO venues (name, slug, city, state, address, venue_type, website, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		v.Name, v.Slug, v.City, v.State, v.Address, v.VenueType, v.Website, v.CreatedAt.Format(timeLayout))
	if err != nil {
		return event.Venue{}, fmt.Errorf("creating venue %q: %w", v.Name, wrapConstraint(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return event.Venue{}, fmt.Errorf("reading venue id: %w", err)
	}
	v.ID = id
	return v, nil
}

const eventColumns = `id, name, description, start_time, venue_id, ticket_url, external_id,
	external_source, age_restriction, tier, created_at, updated_at`

// GetEventByExternalID returns ErrNotFound when no event carries the id
func (s *SQLite) GetEventByExternalID(ctx context.Context, externalID string) (event.Event, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE external_id = ?`, externalID)
	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, fmt.Errorf("event %s: %w", externalID, ErrNotFound)
	}
	if err != nil {
		return event.Event{}, fmt.Errorf("getting event %s: %w", externalID, err)
	}
	return e, nil
}

// CreateEvent inserts an event and returns it with its id set
func (s *SQLite) CreateEvent(ctx context.Context, e event.Event) (event.Event, error) {
	now := s.now().UTC()
	e.CreatedAt, e.UpdatedAt = now, now
	if e.Tier == "" {
		e.Tier = event.DefaultTier
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO events (name, description, start_time, venue_id, ticket_url, external_id,
		 external_source, age_restriction, tier, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Description, e.StartTime, e.VenueID, e.TicketURL, e.ExternalID,
		string(e.ExternalSource), e.AgeRestriction, e.Tier,
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return event.Event{}, fmt.Errorf("creating event %s: %w", e.ExternalID, wrapConstraint(err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return event.Event{}, fmt.Errorf("reading event id: %w", err)
	}
	e.ID = id
	return e, nil
}

// UpdateEvent overwrites every mutable column of the event with e.ID
func (s *SQLite) UpdateEvent(ctx context.Context, e event.Event) error {
	if e.Tier == "" {
		e.Tier = event.DefaultTier
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE events SET name = ?, description = ?, start_time = ?, venue_id = ?, ticket_url = ?,
		 external_id = ?, external_source = ?, age_restriction = ?, tier = ?, updated_at = ?
		 WHERE id = ?`,
		e.Name, e.Description, e.StartTime, e.VenueID, e.TicketURL, e.ExternalID,
		string(e.ExternalSource), e.AgeRestriction, e.Tier,
		s.now().UTC().Format(timeLayout), e.ID)
	if err != nil {
		return fmt.Errorf("updating event %d: %w", e.ID, wrapConstraint(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating event %d: %w", e.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("event %d: %w", e.ID, ErrNotFound)
	}
	return nil
}

// ListEvents returns matching events ordered by start time
func (s *SQLite) ListEvents(ctx context.Context, f EventFilter) ([]event.Event, error) {
	var (
		where []string
		args  []any
	)
	if f.Source != "" {
		where = append(where, "external_source = ?")
		args = append(args, string(f.Source))
	}
	if f.VenueID != 0 {
		where = append(where, "venue_id = ?")
		args = append(args, f.VenueID)
	}
	if f.From != "" {
		where = append(where, "start_time >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		where = append(where, "start_time <= ?")
		args = append(args, upperBound(f.To))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	events := make([]event.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return events, nil
}

// CountEvents returns the number of stored events
func (s *SQLite) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting events: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanVenue(row scanner) (event.Venue, error) {
	var (
		v       event.Venue
		created string
	)
	err := row.Scan(&v.ID, &v.Name, &v.Slug, &v.City, &v.State, &v.Address, &v.VenueType, &v.Website, &created)
	if err != nil {
		return event.Venue{}, err
	}
	v.CreatedAt = parseTime(created)
	return v, nil
}

func scanEvent(row scanner) (event.Event, error) {
	var (
		e                event.Event
		source           string
		created, updated string
	)
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.StartTime, &e.VenueID, &e.TicketURL, &e.ExternalID,
		&source, &e.AgeRestriction, &e.Tier, &created, &updated)
	if err != nil {
		return event.Event{}, err
	}
	e.ExternalSource = event.Source(source)
	e.CreatedAt = parseTime(created)
	e.UpdatedAt = parseTime(updated)
	return e, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// wrapConstraint maps unique constraint failures onto ErrDuplicate
func wrapConstraint(err error) error {
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}
