package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/therocksalt/curator/internal/logger"
)

// DefaultSchedule runs curation at the top of every hour
const DefaultSchedule = "0 * * * *"

// DefaultTimeout bounds a scheduled pass
const DefaultTimeout = 10 * time.Minute

// Scheduler triggers the Runner from a cron expression
type Scheduler struct {
	cron     *cron.Cron
	runner   *Runner
	schedule string
	timeout  time.Duration
}

// New creates a Scheduler. The schedule is a standard five-field cron
// expression (descriptors such as "@hourly" are accepted); an empty schedule
// uses DefaultSchedule.
func New(runner *Runner, schedule string, timeout time.Duration) (*Scheduler, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	log := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(log),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		runner:   runner,
		schedule: schedule,
		timeout:  timeout,
	}, nil
}

// Start registers the curation job and starts the cron loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return fmt.Errorf("adding curation job: %w", err)
	}

	s.cron.Start()
	logger.Info("Scheduler started", logger.Fields{
		"schedule": s.schedule,
		"next":     s.Next().Format(time.RFC3339),
	})
	return nil
}

// Stop halts the cron loop and waits for a running pass to finish or ctx to
// be done
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		logger.Info("Scheduler stopped", nil)
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for scheduled run: %w", ctx.Err())
	}
}

// Next returns the next scheduled run, or the zero time when not started
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	report, err := s.runner.Run(ctx)
	if err != nil {
		logger.Warn("Scheduled curation skipped", logger.Fields{"reason": err.Error()})
		return
	}
	logger.Info("Scheduled curation finished", logger.Fields{
		"run_id":  report.RunID,
		"success": report.Success,
	})
}

// cronLogger routes cron's own messages into the structured logger
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug("cron: "+msg, pairs(keysAndValues))
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error("cron: "+msg, pairs(keysAndValues), err)
}

func pairs(kv []interface{}) logger.Fields {
	if len(kv) == 0 {
		return nil
	}
	fields := make(logger.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return fields
}
