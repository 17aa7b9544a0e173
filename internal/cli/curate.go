package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/therocksalt/curator/internal/event"
)

var (
	flagCurateFormat     string
	flagCurateSources    []string
	flagCurateSequential bool
	flagCurateNotify     string
)

func newCurateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "curate",
		Short: "Run one curation pass and print the report",
		Long: `Fetches every enabled source, filters and normalizes the events, and
upserts them into the store. Per-event errors are listed in the report and do
not change the exit code; the command exits 1 only when the pass itself failed.`,
		Args: cobra.NoArgs,
		RunE: runCurate,
	}

	cmd.Flags().StringVar(&flagCurateFormat, "format", "text", "Output format: text or json")
	cmd.Flags().StringSliceVar(&flagCurateSources, "sources", nil, "Only run these sources (default ROCKSALT_SOURCES)")
	cmd.Flags().BoolVar(&flagCurateSequential, "sequential", false, "Fetch sources one at a time")
	cmd.Flags().StringVar(&flagCurateNotify, "notify", "", "Send the report: telegram or dry-run")

	return cmd
}

// runCurate is the curate command logic
func runCurate(cmd *cobra.Command, _ []string) error {
	format, err := ParseFormat(flagCurateFormat)
	if err != nil {
		return err
	}

	names, err := cfg.SourceList()
	if err != nil {
		return err
	}
	if len(flagCurateSources) > 0 {
		names, err = parseSources(flagCurateSources)
		if err != nil {
			return err
		}
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	notify, err := a.notifyHook(flagCurateNotify, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	c, err := a.curator(names, flagCurateSequential)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := runner(c, notify).Run(ctx)
	if err != nil {
		return err
	}

	if err := WriteReport(cmd.OutOrStdout(), report, format); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if !report.Success {
		return errRunFailed
	}
	return nil
}

// parseSources converts --sources values, dropping duplicates
func parseSources(values []string) ([]event.Source, error) {
	seen := make(map[event.Source]bool, len(values))
	out := make([]event.Source, 0, len(values))
	for _, v := range values {
		src, err := event.ParseSource(v)
		if err != nil {
			return nil, err
		}
		if !seen[src] {
			seen[src] = true
			out = append(out, src)
		}
	}
	return out, nil
}
