package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/andante-io/andante/internal/event"
	"github.com/andante-io/andante/internal/store"
)

// RecordOptions holds flags for the record command.
type RecordOptions struct {
	*RootOptions
	Database string
}

// NewRecordCommand creates the record command.
func NewRecordCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "record <events.ndjson>",
		Short: "Import an NDJSON event stream into a store",
		Long: `Import newline-delimited JSON events into a SQLite store for later
replay. Events keep their recorded timestamps; events without an ID are
assigned one. Importing the same file twice is a no-op.

Example:
  andante record --db events.db captured.ndjson`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecord(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to the event store (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runRecord(opts *RecordOptions, inputPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	f, err := os.Open(inputPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open input", err)
	}
	defer f.Close()

	events, err := readNDJSON(f)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to parse input", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := st.AppendAll(ctx, events); err != nil {
		return WrapExitError(ExitFailure, "failed to record events", err)
	}

	total, err := st.Count(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count events", err)
	}

	return formatter.Success(
		fmt.Sprintf("recorded %d events (%d total in store)", len(events), total),
		map[string]any{"recorded": len(events), "total": total},
	)
}

// readNDJSON decodes every event in an NDJSON stream, assigning IDs to
// events that lack one.
func readNDJSON(f *os.File) ([]*event.Event, error) {
	ids := event.UUIDv7Generator{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var events []*event.Event
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		e, err := event.UnmarshalLine(raw)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if e.ID == "" {
			e.ID = ids.Generate()
		}
		events = append(events, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
