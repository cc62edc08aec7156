package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andante-io/andante/internal/config"
	"github.com/andante-io/andante/internal/pacer"
	"github.com/andante-io/andante/internal/pipeline"
	"github.com/andante-io/andante/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database  string
	Speed     float64
	Threshold float64
	Cooldown  float64
	Output    string
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a recorded event stream with original timing",
		Long: `Replay events from a recorded store, reproducing the original
inter-event spacing.

--speed scales the timeline (2 replays twice as fast, 0.5 at half speed).
--threshold caps any single timeline delay in seconds, so a long recording
pause does not stall the replay. --cooldown enforces a minimum wall-clock
distance from each event's recorded timestamp.

Example:
  andante replay --db events.db
  andante replay --db events.db --speed 10 --threshold 30`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the recorded event store (required)")
	cmd.Flags().Float64Var(&opts.Speed, "speed", 1, "replay speed divisor (0 = as fast as possible)")
	cmd.Flags().Float64Var(&opts.Threshold, "threshold", 0, "cap on a single timeline delay in seconds (0 = uncapped)")
	cmd.Flags().Float64Var(&opts.Cooldown, "cooldown", 0, "minimum seconds between recorded time and replay time")
	cmd.Flags().StringVar(&opts.Output, "output", "", "write replayed events to this file instead of stdout")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *ReplayOptions) error {
	log := newLogger(opts.Verbose)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			log.Error("closing database", "error", closeErr)
		}
	}()

	events, err := st.ReadAll(context.Background())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}
	if len(events) == 0 {
		return NewExitError(ExitCommandError, "no recorded events to replay")
	}
	log.Info("loaded recorded events", "count", len(events))

	settings := map[string]any{
		"replay": true,
		"time":   opts.Speed,
	}
	if opts.Threshold > 0 {
		settings["threshold"] = opts.Threshold
	}
	if opts.Cooldown > 0 {
		settings["cooldown"] = opts.Cooldown
	}

	sink, err := buildSink(sinkConfigFor(opts.Output))
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open sink", err)
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			log.Error("closing sink", "error", closeErr)
		}
	}()

	// Replay pacing is stateful per instance, so the pipeline runs a
	// single worker to keep the recorded order intact.
	p, err := pipeline.New("replay", 1, &pipeline.SliceSource{Events: events}, sink,
		[]pipeline.FilterSpec{{Use: pacer.Name, Settings: settings}}, log)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build pipeline", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		return WrapExitError(ExitFailure, "replay error", err)
	}

	return nil
}

func sinkConfigFor(output string) config.SinkConfig {
	if output == "" {
		return config.SinkConfig{Type: "stdout"}
	}
	return config.SinkConfig{Type: "file", Path: output}
}
