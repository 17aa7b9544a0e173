package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/therocksalt/curator/internal/curator"
)

type fakeCuration struct {
	calls   atomic.Int32
	release chan struct{}
	started chan struct{}
}

func (f *fakeCuration) Run(ctx context.Context) *curator.Report {
	n := f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return &curator.Report{RunID: string(rune('0' + n)), Success: true}
}

func TestRunner_Run(t *testing.T) {
	fc := &fakeCuration{}
	var seen []string
	hookErr := errors.New("hook down")

	r := NewRunner(fc,
		func(_ context.Context, rep *curator.Report) error {
			seen = append(seen, "first:"+rep.RunID)
			return hookErr
		},
		func(_ context.Context, rep *curator.Report) error {
			seen = append(seen, "second:"+rep.RunID)
			return nil
		},
	)

	if r.Last() != nil {
		t.Error("Last() should be nil before the first pass")
	}

	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if report.RunID != "1" {
		t.Errorf("RunID = %q, want 1", report.RunID)
	}
	if len(seen) != 2 || seen[0] != "first:1" || seen[1] != "second:1" {
		t.Errorf("hooks saw %v", seen)
	}
	if r.Last() != report {
		t.Error("Last() should return the finished report")
	}
}

func TestRunner_Busy(t *testing.T) {
	fc := &fakeCuration{release: make(chan struct{}), started: make(chan struct{}, 1)}
	r := NewRunner(fc)

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background())
		done <- err
	}()
	<-fc.started

	if _, err := r.Run(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent Run() error = %v, want ErrBusy", err)
	}

	close(fc.release)
	if err := <-done; err != nil {
		t.Fatalf("first Run() error: %v", err)
	}

	fc.started = nil
	if _, err := r.Run(context.Background()); err != nil {
		t.Errorf("Run() after release error: %v", err)
	}
	if got := fc.calls.Load(); got != 2 {
		t.Errorf("calls = %d, want 2", got)
	}
}

// panickyCuration panics on its first pass
type panickyCuration struct {
	calls atomic.Int32
}

func (p *panickyCuration) Run(context.Context) *curator.Report {
	if p.calls.Add(1) == 1 {
		panic("source exploded")
	}
	return &curator.Report{RunID: "2", Success: true}
}

func TestRunner_RecoversAfterPanic(t *testing.T) {
	pc := &panickyCuration{}
	r := NewRunner(pc)

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected the first pass to panic")
			}
		}()
		_, _ = r.Run(context.Background())
	}()

	if r.Last() != nil {
		t.Error("Last() should stay nil after a panicked pass")
	}

	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() after panic error: %v", err)
	}
	if report.RunID != "2" {
		t.Errorf("RunID = %q, want 2", report.RunID)
	}
	if r.Last() != report {
		t.Error("Last() should return the second report")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		schedule string
		want     string
		wantErr  bool
	}{
		{"default", "", DefaultSchedule, false},
		{"five fields", "*/15 * * * *", "*/15 * * * *", false},
		{"descriptor", "@hourly", "@hourly", false},
		{"seconds field", "0 0 * * * *", "", true},
		{"garbage", "every hour", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(NewRunner(&fakeCuration{}), tt.schedule, 0)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			if s.schedule != tt.want {
				t.Errorf("schedule = %q, want %q", s.schedule, tt.want)
			}
			if s.timeout != DefaultTimeout {
				t.Errorf("timeout = %v, want %v", s.timeout, DefaultTimeout)
			}
		})
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s, err := New(NewRunner(&fakeCuration{}), "@hourly", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if !s.Next().IsZero() {
		t.Error("Next() should be zero before Start")
	}

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if next := s.Next(); !next.After(time.Now()) {
		t.Errorf("Next() = %v, want a future time", next)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Stop(ctx); err != nil {
		t.Errorf("Stop() error: %v", err)
	}
}

func TestScheduler_RunOnce(t *testing.T) {
	fc := &fakeCuration{}
	var hooked atomic.Bool
	r := NewRunner(fc, func(context.Context, *curator.Report) error {
		hooked.Store(true)
		return nil
	})
	s, err := New(r, "", time.Second)
	if err != nil {
		t.Fatal(err)
	}

	s.runOnce()

	if fc.calls.Load() != 1 || !hooked.Load() {
		t.Errorf("calls = %d, hooked = %v", fc.calls.Load(), hooked.Load())
	}
}

func TestPairs(t *testing.T) {
	if pairs(nil) != nil {
		t.Error("pairs(nil) should be nil")
	}
	got := pairs([]interface{}{"entry", 3, "dangling"})
	if len(got) != 1 || got["entry"] != 3 {
		t.Errorf("pairs() = %v", got)
	}
}
