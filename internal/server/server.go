package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/therocksalt/curator/internal/curator"
	"github.com/therocksalt/curator/internal/logger"
	"github.com/therocksalt/curator/internal/scheduler"
)

// SyncPath is the curation trigger route
const SyncPath = "/api/cron/sync-events"

// DefaultRunTimeout bounds a pass started over HTTP
const DefaultRunTimeout = 5 * time.Minute

// Trigger starts a curation pass
type Trigger interface {
	Run(ctx context.Context) (*curator.Report, error)
	Last() *curator.Report
}

// Options configures the server
type Options struct {
	Secret     string       // bearer token for the trigger; empty disables the check
	Metrics    http.Handler // served at /metrics when non-nil
	RunTimeout time.Duration
}

// Server routes HTTP requests to the curation runner
type Server struct {
	trigger    Trigger
	secret     string
	runTimeout time.Duration
	router     chi.Router
}

// New creates a Server
func New(trigger Trigger, opts Options) *Server {
	s := &Server{
		trigger:    trigger,
		secret:     opts.Secret,
		runTimeout: opts.RunTimeout,
	}
	if s.runTimeout <= 0 {
		s.runTimeout = DefaultRunTimeout
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(requestLogger)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Group(func(r chi.Router) {
		r.Use(s.requireSecret)
		r.Get(SyncPath, s.handleSync)
		r.Post(SyncPath, s.handleSync)
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	s.router = r
	return s
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      s.runTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logger.Fields{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	logger.Info("HTTP server stopped", nil)
	return nil
}

type syncDetails struct {
	RunID         string   `json:"run_id"`
	Created       int      `json:"created"`
	Updated       int      `json:"updated"`
	Skipped       int      `json:"skipped"`
	VenuesCreated int      `json:"venues_created"`
	DurationMs    int64    `json:"duration_ms"`
	Errors        []string `json:"errors,omitempty"`
}

type syncResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Details *syncDetails `json:"details,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	// detached from the request: only the run timeout stops a pass
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), s.runTimeout)
	defer cancel()

	report, err := s.trigger.Run(ctx)
	if errors.Is(err, scheduler.ErrBusy) {
		writeJSON(w, http.StatusConflict, syncResponse{Error: err.Error()})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, syncResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, syncResponse{
		Success: report.Success,
		Message: fmt.Sprintf("Event sync complete: %d created, %d updated", report.Created, report.Updated),
		Details: details(report),
	})
}

func details(report *curator.Report) *syncDetails {
	d := &syncDetails{
		RunID:         report.RunID,
		Created:       report.Created,
		Updated:       report.Updated,
		Skipped:       report.Skipped,
		VenuesCreated: report.VenuesCreated,
		DurationMs:    report.Duration().Milliseconds(),
	}
	for _, e := range report.Errors {
		d.Errors = append(d.Errors, e.String())
	}
	return d
}

type healthResponse struct {
	Status  string       `json:"status"`
	LastRun *syncDetails `json:"last_run,omitempty"`
	LastOK  *bool        `json:"last_run_success,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok"}
	if last := s.trigger.Last(); last != nil {
		resp.LastRun = details(last)
		resp.LastRun.Errors = nil
		ok := last.Success
		resp.LastOK = &ok
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) requireSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.secret != "" {
			want := "Bearer " + s.secret
			got := r.Header.Get("Authorization")
			if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
				writeJSON(w, http.StatusUnauthorized, syncResponse{Error: "Unauthorized"})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logger.Info("HTTP request", logger.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  chimw.GetReqID(r.Context()),
			"remote":      r.RemoteAddr,
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Writing response failed", logger.Fields{"error": err.Error()})
	}
}
