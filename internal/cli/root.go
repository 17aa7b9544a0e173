package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/therocksalt/curator/internal/config"
	"github.com/therocksalt/curator/internal/logger"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// errRunFailed marks a pass whose report has success=false; the report has
// already been printed
var errRunFailed = errors.New("curation failed")

var (
	flagEnvFiles []string
	flagLogLevel string
	flagVerbose  bool

	cfg *config.Config
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rocksalt-curate",
		Short: "Curate Utah music events into The Rock Salt calendar",
		Long: `Pulls upcoming events from Bandsintown, Songkick, SLUG Magazine and
City Weekly, keeps the music-related ones, resolves their venues and upserts
them into the event store. Settings come from ROCKSALT_* environment
variables, optionally loaded from a .env file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	cmd.PersistentFlags().StringSliceVar(&flagEnvFiles, "env-file", nil, "Load variables from these .env files (default .env)")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Override ROCKSALT_LOG_LEVEL: debug, info, warn or error")
	cmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Shorthand for --log-level debug")

	cmd.AddCommand(
		newCurateCmd(),
		newServeCmd(),
		newVenuesCmd(),
		newEventsCmd(),
	)
	return cmd
}

// setup loads configuration and installs the logger before any subcommand
func setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(flagEnvFiles...); err != nil {
		return err
	}

	loaded, err := config.Load()
	if err != nil {
		return err
	}

	levelName := loaded.LogLevel
	if flagLogLevel != "" {
		levelName = flagLogLevel
	}
	if flagVerbose {
		levelName = "debug"
	}
	level, err := logger.ParseLevel(levelName)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(level, cmd.ErrOrStderr()))

	cfg = loaded
	return nil
}

// Execute runs the CLI
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(ExitError)
	}
}
