package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/therocksalt/curator/internal/curator"
	"github.com/therocksalt/curator/internal/logger"
)

// ErrBusy is returned when a pass is requested while another is running
var ErrBusy = errors.New("curation already running")

// Curation performs one curation pass
type Curation interface {
	Run(ctx context.Context) *curator.Report
}

// Hook receives every finished report. A hook error is logged and does not
// affect the report.
type Hook func(ctx context.Context, report *curator.Report) error

// Runner serialises curation passes
type Runner struct {
	curation Curation
	hooks    []Hook

	mu      sync.Mutex
	running bool
	last    *curator.Report
}

// NewRunner creates a Runner
func NewRunner(c Curation, hooks ...Hook) *Runner {
	return &Runner{curation: c, hooks: hooks}
}

// Run performs one pass, or returns ErrBusy if a pass is in progress
func (r *Runner) Run(ctx context.Context) (*curator.Report, error) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil, ErrBusy
	}
	r.running = true
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	report := r.curation.Run(ctx)

	for _, hook := range r.hooks {
		if err := hook(ctx, report); err != nil {
			logger.Error("Report hook failed", logger.Fields{"run_id": report.RunID}, err)
		}
	}

	r.mu.Lock()
	r.last = report
	r.mu.Unlock()

	return report, nil
}

// Last returns the most recent report, or nil before the first pass
func (r *Runner) Last() *curator.Report {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
