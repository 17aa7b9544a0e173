package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/therocksalt/curator/internal/event"
	"github.com/therocksalt/curator/internal/store"
)

// setEnv points the CLI at a file store in a temp dir with no network sources
func setEnv(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("ROCKSALT_STORE", "file")
	t.Setenv("ROCKSALT_DATA_DIR", dir)
	t.Setenv("ROCKSALT_SOURCES", "songkick")
	t.Setenv("ROCKSALT_SONGKICK_API_KEY", "")
	t.Setenv("ROCKSALT_CACHE", "none")
	t.Setenv("ROCKSALT_TIME_ZONE", "America/Denver")
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedEvents(t *testing.T, dir string) {
	t.Helper()

	s, err := store.NewFile(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ctx := context.Background()
	kilby, err := s.CreateVenue(ctx, event.Venue{Name: "Kilby Court", Slug: "kilby-court", City: "Salt Lake City", State: "UT"})
	if err != nil {
		t.Fatal(err)
	}
	urban, err := s.CreateVenue(ctx, event.Venue{Name: "Urban Lounge", Slug: "urban-lounge", City: "Salt Lake City", State: "UT"})
	if err != nil {
		t.Fatal(err)
	}

	for _, e := range []event.Event{
		{Name: "Zephyr Trio", StartTime: "2025-12-05T20:00:00", VenueID: kilby.ID, ExternalID: "songkick-1", ExternalSource: event.SourceSongkick, Tier: "free"},
		{Name: "Apex Wolves", StartTime: "2025-12-09T19:30:00", VenueID: urban.ID, ExternalID: "bandsintown-2", ExternalSource: event.SourceBandsintown, Tier: "free"},
		{Name: "Midnight Choir", StartTime: "2025-12-01T21:00:00", VenueID: urban.ID, ExternalID: "songkick-3", ExternalSource: event.SourceSongkick, Tier: "free"},
	} {
		if _, err := s.CreateEvent(ctx, e); err != nil {
			t.Fatal(err)
		}
	}
}

func TestCurate_JSON(t *testing.T) {
	setEnv(t)

	out, err := execute(t, "curate", "--format", "json", "--sequential")
	if err != nil {
		t.Fatalf("curate error: %v", err)
	}

	var report struct {
		RunID   string                     `json:"run_id"`
		Success bool                       `json:"success"`
		Created int                        `json:"created"`
		Sources map[string]json.RawMessage `json:"sources"`
	}
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decoding report: %v\n%s", err, out)
	}
	if !report.Success || report.RunID == "" || report.Created != 0 {
		t.Errorf("report = %+v", report)
	}
	if _, ok := report.Sources["songkick"]; !ok {
		t.Errorf("sources = %v", report.Sources)
	}
}

func TestCurate_Text(t *testing.T) {
	setEnv(t)

	out, err := execute(t, "curate", "--notify", "dry-run")
	if err != nil {
		t.Fatalf("curate error: %v", err)
	}
	if !strings.Contains(out, "Curation succeeded: 0 created, 0 updated, 0 skipped, 0 errors") {
		t.Errorf("output:\n%s", out)
	}
}

func TestCurate_InvalidFlags(t *testing.T) {
	setEnv(t)

	tests := [][]string{
		{"curate", "--format", "xml"},
		{"curate", "--sources", "eventbrite"},
		{"curate", "--notify", "twitter"},
		{"curate", "extra-arg"},
	}
	for _, args := range tests {
		if _, err := execute(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestCurate_BadConfig(t *testing.T) {
	setEnv(t)
	t.Setenv("ROCKSALT_STORE", "postgres")

	if _, err := execute(t, "curate"); err == nil || errors.Is(err, errRunFailed) {
		t.Errorf("error = %v, want a config error", err)
	}
}

func TestVenues_SeedAndList(t *testing.T) {
	setEnv(t)

	out, err := execute(t, "venues", "seed")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "15 created, 0 already present") {
		t.Errorf("first seed: %q", out)
	}

	out, err = execute(t, "venues", "seed")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "0 created, 15 already present") {
		t.Errorf("second seed: %q", out)
	}

	out, err = execute(t, "venues", "list", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var venues []event.Venue
	if err := json.Unmarshal([]byte(out), &venues); err != nil {
		t.Fatalf("decoding venues: %v", err)
	}
	if len(venues) != 15 {
		t.Errorf("listed %d venues, want 15", len(venues))
	}

	out, err = execute(t, "venues", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Velour Live Music Gallery") || !strings.Contains(out, "Total: 15 venues") {
		t.Errorf("text output:\n%s", out)
	}
}

func TestEvents_List(t *testing.T) {
	dir := setEnv(t)

	out, err := execute(t, "events", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "No events found.") {
		t.Errorf("empty store output: %q", out)
	}

	seedEvents(t, dir)

	out, err = execute(t, "events", "list", "--sort", "title")
	if err != nil {
		t.Fatal(err)
	}
	apex, mid, zeph := strings.Index(out, "Apex Wolves"), strings.Index(out, "Midnight Choir"), strings.Index(out, "Zephyr Trio")
	if apex < 0 || !(apex < mid && mid < zeph) {
		t.Errorf("title order wrong:\n%s", out)
	}
	if !strings.Contains(out, "Fri Dec 5 2025 8:00PM  Zephyr Trio @ Kilby Court") {
		t.Errorf("row format:\n%s", out)
	}

	out, err = execute(t, "events", "list", "--source", "songkick", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var rows []EventRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decoding rows: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "Midnight Choir" || rows[0].Venue == nil || rows[0].Venue.Name != "Urban Lounge" {
		t.Errorf("rows = %+v", rows)
	}

	if _, err := execute(t, "events", "list", "--sort", "price"); err == nil {
		t.Error("expected error for unknown sort")
	}
	if _, err := execute(t, "events", "list", "--source", "myspace"); err == nil {
		t.Error("expected error for unknown source")
	}
}

func TestEvents_Export(t *testing.T) {
	dir := setEnv(t)
	seedEvents(t, dir)

	out, err := execute(t, "events", "export", "--to", "2025-12-05")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "BEGIN:VCALENDAR") {
		t.Errorf("output is not a calendar:\n%s", out)
	}
	if strings.Count(out, "BEGIN:VEVENT") != 2 || strings.Contains(out, "Apex Wolves") {
		t.Errorf("--to should keep two events:\n%s", out)
	}
	if !strings.Contains(out, "UID:songkick-1@therocksalt.com") {
		t.Errorf("missing UID:\n%s", out)
	}

	path := filepath.Join(t.TempDir(), "shows.ics")
	if _, err := execute(t, "events", "export", "-o", path, "--name", "Test Feed"); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(string(data), "BEGIN:VEVENT") != 3 || !strings.Contains(string(data), "X-WR-CALNAME:Test Feed") {
		t.Errorf("file output:\n%s", data)
	}
}
