package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/andante-io/andante/internal/config"
	"github.com/andante-io/andante/internal/event"
	"github.com/andante-io/andante/internal/pipeline"
	"github.com/andante-io/andante/internal/store"
)

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Run a pipeline from a config file",
		Long: `Run an event pipeline described by a YAML config file.

The pipeline reads events from the configured source, paces them through
the configured filter chain, and writes them to the configured sink.
Interrupting the process stops the pipeline; an in-progress pacing delay
is cut short rather than waited out.

Example:
  andante run pipeline.yaml
  andante run pipeline.yaml --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(rootOpts, args[0])
		},
	}

	return cmd
}

func runPipeline(opts *RootOptions, configPath string) error {
	log := newLogger(opts.Verbose)

	cfg, errs := config.Load(configPath, config.LoadModeFailFast)
	if len(errs) > 0 {
		return WrapExitError(ExitCommandError, "failed to load config", errs[0])
	}

	source, cleanup, err := buildSource(cfg.Source)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open source", err)
	}
	defer cleanup()

	sink, err := buildSink(cfg.Sink)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open sink", err)
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			log.Error("closing sink", "error", closeErr)
		}
	}()

	specs := make([]pipeline.FilterSpec, len(cfg.Filters))
	for i, f := range cfg.Filters {
		specs[i] = pipeline.FilterSpec{Use: f.Use, Alias: f.Alias, Settings: f.Settings}
	}

	p, err := pipeline.New(cfg.Pipeline.Name, cfg.Pipeline.Workers, source, sink, specs, log)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to build pipeline", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("pipeline starting", "name", cfg.Pipeline.Name, "workers", cfg.Pipeline.Workers)
	if err := p.Run(ctx); err != nil && ctx.Err() == nil {
		return WrapExitError(ExitFailure, "pipeline error", err)
	}
	log.Info("pipeline done")

	return nil
}

// newLogger builds the process logger; verbose enables debug level.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// buildSource turns a source config into a pipeline source. The returned
// cleanup releases whatever the source holds open.
func buildSource(cfg config.SourceConfig) (pipeline.Source, func(), error) {
	switch cfg.Type {
	case "stdin":
		return &pipeline.ReaderSource{Reader: os.Stdin, IDs: event.UUIDv7Generator{}}, func() {}, nil

	case "file":
		f, err := os.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		return &pipeline.ReaderSource{Reader: f, IDs: event.UUIDv7Generator{}}, func() { f.Close() }, nil

	case "store":
		st, err := store.Open(cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		events, err := st.ReadAll(context.Background())
		if err != nil {
			st.Close()
			return nil, nil, err
		}
		return &pipeline.SliceSource{Events: events}, func() { st.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

// buildSink turns a sink config into a pipeline sink.
func buildSink(cfg config.SinkConfig) (pipeline.Sink, error) {
	switch cfg.Type {
	case "stdout":
		return &pipeline.WriterSink{Writer: os.Stdout}, nil

	case "file":
		f, err := os.Create(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &pipeline.WriterSink{Writer: f}, nil

	default:
		return nil, fmt.Errorf("unknown sink type %q", cfg.Type)
	}
}
