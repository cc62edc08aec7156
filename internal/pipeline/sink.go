package pipeline

import (
	"fmt"
	"io"

	"github.com/andante-io/andante/internal/event"
)

// Sink receives processed events. Write is only ever called from one
// goroutine; implementations need no locking.
type Sink interface {
	Write(e *event.Event) error
	Close() error
}

// WriterSink emits one canonical JSON line per event. Canonical
// serialization keeps output byte-stable for golden comparison.
type WriterSink struct {
	Writer io.Writer
}

func (s *WriterSink) Write(e *event.Event) error {
	b, err := event.MarshalCanonical(e)
	if err != nil {
		return err
	}
	if _, err := s.Writer.Write(append(b, '\n')); err != nil {
		return fmt.Errorf("write event %s: %w", e.ID, err)
	}
	return nil
}

func (s *WriterSink) Close() error {
	if c, ok := s.Writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// CollectSink accumulates events in memory, for tests and dry runs.
type CollectSink struct {
	Events []*event.Event
}

func (s *CollectSink) Write(e *event.Event) error {
	s.Events = append(s.Events, e)
	return nil
}

func (s *CollectSink) Close() error {
	return nil
}
