package curator

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/therocksalt/curator/internal/event"
)

// MaxReportErrors bounds Report.Errors; later errors are only counted
const MaxReportErrors = 100

// ReportError describes one failed event or the fatal failure of a run
type ReportError struct {
	Context string `json:"context"`
	Message string `json:"message"`
}

func (e ReportError) String() string {
	if e.Context == "" {
		return e.Message
	}
	return e.Context + ": " + e.Message
}

// SourceStats counts one source's events through the pass
type SourceStats struct {
	Fetched int `json:"fetched"`
	Kept    int `json:"kept"` // after the music filter
	Created int `json:"created"`
	Updated int `json:"updated"`
	Errors  int `json:"errors"`
}

// Report summarises a curation run
type Report struct {
	RunID         string                        `json:"run_id"`
	StartedAt     time.Time                     `json:"started_at"`
	FinishedAt    time.Time                     `json:"finished_at"`
	Success       bool                          `json:"success"`
	Created       int                           `json:"created"`
	Updated       int                           `json:"updated"`
	Skipped       int                           `json:"skipped"` // dropped by the music filter
	VenuesCreated int                           `json:"venues_created"`
	ErrorCount    int                           `json:"error_count"`
	Errors        []ReportError                 `json:"errors"`
	Sources       map[event.Source]*SourceStats `json:"sources"`

	suppressed int
}

func newReport(started time.Time) *Report {
	return &Report{
		RunID:     uuid.NewString(),
		StartedAt: started,
		Success:   true,
		Errors:    make([]ReportError, 0),
		Sources:   make(map[event.Source]*SourceStats),
	}
}

// source returns the stats entry for src, creating it on first use
func (r *Report) source(src event.Source) *SourceStats {
	s, ok := r.Sources[src]
	if !ok {
		s = &SourceStats{}
		r.Sources[src] = s
	}
	return s
}

// addError records a per-event error, keeping at most MaxReportErrors
func (r *Report) addError(context, format string, args ...any) {
	r.ErrorCount++
	if len(r.Errors) >= MaxReportErrors {
		r.suppressed++
		return
	}
	r.Errors = append(r.Errors, ReportError{Context: context, Message: fmt.Sprintf(format, args...)})
}

// fail marks the run unsuccessful. The fatal error is always listed.
func (r *Report) fail(err error) {
	r.Success = false
	r.ErrorCount++
	r.Errors = append(r.Errors, ReportError{Context: "fatal", Message: err.Error()})
}

func (r *Report) finish(at time.Time) {
	r.FinishedAt = at
	if r.suppressed > 0 {
		r.Errors = append(r.Errors, ReportError{
			Context: "report",
			Message: fmt.Sprintf("%d more errors suppressed", r.suppressed),
		})
		r.suppressed = 0
	}
}

// Duration is the wall time of the run
func (r *Report) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary is a one-line description of the run
func (r *Report) Summary() string {
	status := "succeeded"
	if !r.Success {
		status = "failed"
	}
	return fmt.Sprintf("Curation %s: %d created, %d updated, %d skipped, %d errors",
		status, r.Created, r.Updated, r.Skipped, r.ErrorCount)
}

// Fetched is the number of raw events across all sources
func (r *Report) Fetched() int {
	n := 0
	for _, s := range r.Sources {
		n += s.Fetched
	}
	return n
}

// SourceNames lists the sources in the report in run order
func (r *Report) SourceNames() []event.Source {
	names := make([]event.Source, 0, len(r.Sources))
	for _, src := range event.AllSources {
		if _, ok := r.Sources[src]; ok {
			names = append(names, src)
		}
	}
	return names
}

// eventContext identifies a raw event in report errors
func eventContext(raw event.RawEvent) string {
	if id := strings.TrimSpace(raw.SourceEventID); id != "" {
		return fmt.Sprintf("%s event %s", raw.Source, id)
	}
	title := strings.TrimSpace(raw.Title)
	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf("%s event %q", raw.Source, title)
}
