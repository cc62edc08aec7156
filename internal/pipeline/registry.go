package pipeline

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/andante-io/andante/internal/event"
)

// Filter is a pipeline stage invoked once per event.
//
// Init receives the filter's settings map exactly once, before any event.
// Filter must be a payload passthrough: it may delay, tag bookkeeping
// state internally, or log, but the event it returns carries the same
// payload it was given. Filter is only ever called sequentially by the
// owning worker.
type Filter interface {
	Init(settings map[string]any, alias string, log *slog.Logger) error
	Filter(e *event.Event) *event.Event
	Close() error
}

// FilterFactory creates a fresh, uninitialized filter instance.
// Called once per worker so instances never share state.
type FilterFactory func() Filter

var filterFactories = map[string]FilterFactory{}

// RegisterFilter registers a filter factory under a stable name.
// Intended to be called from package init functions; panics on duplicate
// registration because that is always a programming error.
func RegisterFilter(name string, factory FilterFactory) {
	if _, ok := filterFactories[name]; ok {
		panic(fmt.Sprintf("pipeline: filter %q registered twice", name))
	}
	filterFactories[name] = factory
}

// NewFilter instantiates a registered filter by name.
func NewFilter(name string) (Filter, error) {
	factory, ok := filterFactories[name]
	if !ok {
		return nil, fmt.Errorf("unknown filter %q (registered: %v)", name, FilterNames())
	}
	return factory(), nil
}

// FilterNames returns the registered filter names, sorted.
func FilterNames() []string {
	names := make([]string, 0, len(filterFactories))
	for name := range filterFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
