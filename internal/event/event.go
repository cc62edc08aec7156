package event

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

// Event is the unit of data flowing through a pipeline.
//
// Timestamp is the event's recorded time (when it was originally observed),
// not the time it entered this process. Pacing filters key off this value.
//
// Fields holds the event payload. Filters never mutate Fields; the only
// mutation a pipeline performs on an event is tagging.
type Event struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Fields    map[string]any `json:"fields"`
	Tags      []string       `json:"tags,omitempty"`
}

// New creates an event with the given recorded timestamp and payload.
func New(id string, ts time.Time, fields map[string]any) *Event {
	if fields == nil {
		fields = make(map[string]any)
	}
	return &Event{ID: id, Timestamp: ts, Fields: fields}
}

// ClockSeconds returns the recorded timestamp as floating-point epoch seconds.
func (e *Event) ClockSeconds() float64 {
	return float64(e.Timestamp.UnixNano()) / float64(time.Second)
}

// Field returns the named payload field, or nil if absent.
func (e *Event) Field(name string) any {
	return e.Fields[name]
}

// Tag appends a tag unless the event already carries it.
// The pipeline uses tags to mark events as processed by a filter.
func (e *Event) Tag(name string) {
	if e.HasTag(name) {
		return
	}
	e.Tags = append(e.Tags, name)
}

// HasTag reports whether the event carries the given tag.
func (e *Event) HasTag(name string) bool {
	for _, t := range e.Tags {
		if t == name {
			return true
		}
	}
	return false
}

// fieldRef matches %{name} placeholders in templates.
var fieldRef = regexp.MustCompile(`%\{([^}]+)\}`)

// Format substitutes %{name} placeholders in the template with the
// corresponding payload fields, rendered with fmt. Placeholders that
// reference absent fields substitute the empty string; the caller decides
// how to treat the resulting text.
func (e *Event) Format(template string) string {
	return fieldRef.ReplaceAllStringFunc(template, func(ref string) string {
		name := ref[2 : len(ref)-1]
		v, ok := e.Fields[name]
		if !ok || v == nil {
			return ""
		}
		return fmt.Sprintf("%v", v)
	})
}

// UnmarshalLine decodes a single NDJSON line into an event.
func UnmarshalLine(line []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(line, &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if e.Fields == nil {
		e.Fields = make(map[string]any)
	}
	return &e, nil
}
