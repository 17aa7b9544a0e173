package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/therocksalt/curator/internal/curator"
	"github.com/therocksalt/curator/internal/logger"
	"github.com/therocksalt/curator/internal/metrics"
	"github.com/therocksalt/curator/internal/scheduler"
	"github.com/therocksalt/curator/internal/server"
)

var (
	flagServeAddr     string
	flagServeSchedule string
	flagServeNotify   string
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the sync endpoint and run curation on a schedule",
		Long: `Starts an HTTP server exposing GET|POST ` + server.SyncPath + `, /healthz and
/metrics, and runs curation on the configured cron schedule. Pass
--schedule off to rely on the endpoint alone.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().StringVar(&flagServeAddr, "addr", "", "Listen address (default ROCKSALT_LISTEN_ADDR)")
	cmd.Flags().StringVar(&flagServeSchedule, "schedule", "", "Cron schedule, or 'off' (default ROCKSALT_SCHEDULE)")
	cmd.Flags().StringVar(&flagServeNotify, "notify", "", "Send each report: telegram or dry-run")

	return cmd
}

// runServe is the serve command logic
func runServe(cmd *cobra.Command, _ []string) error {
	addr := firstNonEmpty(flagServeAddr, cfg.ListenAddr)
	schedule := firstNonEmpty(flagServeSchedule, cfg.Schedule)

	names, err := cfg.SourceList()
	if err != nil {
		return err
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	a.metrics = metrics.New()

	notify, err := a.notifyHook(flagServeNotify, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c, err := a.curator(names, false)
	if err != nil {
		return err
	}

	observe := func(_ context.Context, r *curator.Report) error {
		a.metrics.ObserveRun(r)
		return nil
	}
	run := runner(c, observe, notify)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sched *scheduler.Scheduler
	if !strings.EqualFold(schedule, "off") {
		sched, err = scheduler.New(run, schedule, 0)
		if err != nil {
			return err
		}
		if err := sched.Start(); err != nil {
			return err
		}
	}

	srv := server.New(run, server.Options{
		Secret:  cfg.CronSecret,
		Metrics: a.metrics.Handler(),
	})
	serveErr := srv.ListenAndServe(ctx, addr)

	if sched != nil {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := sched.Stop(stopCtx); err != nil {
			logger.Warn("Scheduler did not stop cleanly", logger.Fields{"error": err.Error()})
		}
	}
	return serveErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
