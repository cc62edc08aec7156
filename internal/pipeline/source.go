package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/andante-io/andante/internal/event"
)

// Source feeds events into a pipeline. Read sends events on out in order
// and returns when the input is exhausted or ctx is cancelled; the
// pipeline owns closing out.
type Source interface {
	Read(ctx context.Context, out chan<- *event.Event) error
}

// ReaderSource decodes NDJSON events from an io.Reader. Events missing an
// ID are assigned one from IDs.
type ReaderSource struct {
	Reader io.Reader
	IDs    event.IDGenerator
}

func (s *ReaderSource) Read(ctx context.Context, out chan<- *event.Event) error {
	scanner := bufio.NewScanner(s.Reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		e, err := event.UnmarshalLine(raw)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if e.ID == "" && s.IDs != nil {
			e.ID = s.IDs.Generate()
		}
		select {
		case out <- e:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return scanner.Err()
}

// SliceSource replays an in-memory slice of events, in order. Used by the
// replay command (events loaded from the store) and by tests.
type SliceSource struct {
	Events []*event.Event
}

func (s *SliceSource) Read(ctx context.Context, out chan<- *event.Event) error {
	for _, e := range s.Events {
		select {
		case out <- e:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
