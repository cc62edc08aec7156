package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/andante-io/andante/internal/event"
)

// FilterSpec names one filter stage of a pipeline.
type FilterSpec struct {
	// Use is the registered filter name.
	Use string

	// Alias identifies this instance in logs and event tags. Defaults to
	// Use when empty.
	Alias string

	// Settings is handed to Filter.Init verbatim, once.
	Settings map[string]any
}

// ContextAware is implemented by filters whose blocking calls should be
// interrupted when the pipeline's run context is cancelled.
type ContextAware interface {
	BindContext(ctx context.Context)
}

// Pipeline runs events from a source through per-worker filter chains into
// a sink.
type Pipeline struct {
	name    string
	workers int
	source  Source
	sink    Sink
	specs   []FilterSpec
	log     *slog.Logger

	// chains[i] is worker i's private filter chain.
	chains [][]Filter
}

// New builds a pipeline and instantiates one filter chain per worker.
// Filter Init errors surface here, before any event flows: a pipeline
// with a misconfigured filter never starts.
func New(name string, workers int, source Source, sink Sink, specs []FilterSpec, log *slog.Logger) (*Pipeline, error) {
	if workers < 1 {
		workers = 1
	}
	p := &Pipeline{
		name:    name,
		workers: workers,
		source:  source,
		sink:    sink,
		specs:   specs,
		log:     log.With("pipeline", name),
	}

	for w := 0; w < workers; w++ {
		chain := make([]Filter, 0, len(specs))
		for _, spec := range specs {
			f, err := NewFilter(spec.Use)
			if err != nil {
				return nil, fmt.Errorf("pipeline %s: %w", name, err)
			}
			alias := spec.Alias
			if alias == "" {
				alias = spec.Use
			}
			if err := f.Init(spec.Settings, alias, p.log); err != nil {
				return nil, fmt.Errorf("pipeline %s: init filter %s: %w", name, alias, err)
			}
			chain = append(chain, f)
		}
		p.chains = append(p.chains, chain)
	}

	return p, nil
}

// Run drives the pipeline until the source is exhausted or ctx is
// cancelled. Filters that implement ContextAware are bound to ctx first so
// cancellation interrupts in-progress delays.
func (p *Pipeline) Run(ctx context.Context) error {
	// An internal cancel lets a failing sink unblock workers and source.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, chain := range p.chains {
		for _, f := range chain {
			if ca, ok := f.(ContextAware); ok {
				ca.BindContext(runCtx)
			}
		}
	}

	in := make(chan *event.Event)
	out := make(chan *event.Event)
	errc := make(chan error, p.workers+2)

	// Source goroutine closes in when exhausted.
	go func() {
		defer close(in)
		if err := p.source.Read(runCtx, in); err != nil {
			errc <- fmt.Errorf("source: %w", err)
		}
	}()

	var workers sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		workers.Add(1)
		chain := p.chains[w]
		go func(id int, chain []Filter) {
			defer workers.Done()
			p.runWorker(runCtx, id, chain, in, out)
		}(w, chain)
	}

	// Single sink goroutine keeps Sink implementations free of locking.
	var sinkDone sync.WaitGroup
	sinkDone.Add(1)
	go func() {
		defer sinkDone.Done()
		for e := range out {
			if err := p.sink.Write(e); err != nil {
				errc <- fmt.Errorf("sink: %w", err)
				cancel()
				return
			}
		}
	}()

	workers.Wait()
	close(out)
	sinkDone.Wait()

	for _, chain := range p.chains {
		for _, f := range chain {
			if err := f.Close(); err != nil {
				p.log.Error("closing filter", "error", err)
			}
		}
	}

	select {
	case err := <-errc:
		return err
	default:
	}
	return ctx.Err()
}

// runWorker processes events sequentially through one private chain.
// Each filter's return is tagged with the filter alias: the host-side
// signal that the event passed through successfully.
func (p *Pipeline) runWorker(ctx context.Context, id int, chain []Filter, in <-chan *event.Event, out chan<- *event.Event) {
	log := p.log.With("worker", id)
	processed := 0
	for e := range in {
		for i, f := range chain {
			e = f.Filter(e)
			alias := p.specs[i].Alias
			if alias == "" {
				alias = p.specs[i].Use
			}
			e.Tag(alias)
		}
		processed++

		select {
		case out <- e:
		case <-ctx.Done():
			log.Debug("worker stopping", "processed", processed)
			return
		}
	}
	log.Debug("worker done", "processed", processed)
}
