package pacer

import (
	"context"
	"log/slog"

	"github.com/andante-io/andante/internal/event"
	"github.com/andante-io/andante/internal/pipeline"
)

// Name is the stable name the pace filter registers under.
const Name = "pace"

// Pacer deliberately delays the forward flow of events.
//
// In periodic mode it sleeps for the resolved `time` every Every-th event.
// In replay mode it reproduces the recorded inter-event spacing of the
// stream, optionally scaled by `time`, capped by `threshold` and floored
// by `cooldown`.
//
// A Pacer is owned by exactly one pipeline worker and must be invoked
// sequentially; its state is never shared, so no locking is needed.
type Pacer struct {
	alias   string
	log     *slog.Logger
	cfg     Config
	clock   Clock
	sleeper Sleeper

	// Mutable per-instance state. count tracks events seen since the last
	// periodic trigger. lastClock is the recorded timestamp of the
	// previous replayed event; hasLast distinguishes "no event seen yet"
	// from a genuine epoch-zero timestamp.
	count     int
	lastClock float64
	hasLast   bool
}

// Option configures a Pacer at construction.
type Option func(*Pacer)

// WithClock overrides the wall-clock source (for testing).
func WithClock(c Clock) Option {
	return func(p *Pacer) { p.clock = c }
}

// WithSleeper overrides the blocking sleep primitive (for testing).
func WithSleeper(s Sleeper) Option {
	return func(p *Pacer) { p.sleeper = s }
}

// New creates a Pacer from an already-parsed Config. Most callers go
// through the pipeline registry and Init instead; New exists for direct
// embedding and tests.
func New(cfg Config, log *slog.Logger, opts ...Option) *Pacer {
	p := &Pacer{
		cfg:     cfg,
		log:     log,
		clock:   SystemClock{},
		sleeper: SystemSleeper{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Init implements pipeline.Filter. It validates the settings map and
// resets the runtime state. A ConfigError here is fatal to the instance:
// the pipeline refuses to start.
func (p *Pacer) Init(settings map[string]any, alias string, log *slog.Logger) error {
	cfg, err := ParseConfig(settings)
	if err != nil {
		return err
	}

	p.cfg = cfg
	p.alias = alias
	p.log = log.With("filter", Name, "alias", alias)
	if p.clock == nil {
		p.clock = SystemClock{}
	}
	if p.sleeper == nil {
		p.sleeper = SystemSleeper{}
	}

	p.count = 0
	p.lastClock = 0
	p.hasLast = false

	return nil
}

// BindContext ties in-progress sleeps to the pipeline's run context so
// shutdown does not wait out a long delay. Called by the pipeline before
// the first event; steady-state timing is unchanged.
func (p *Pacer) BindContext(ctx context.Context) {
	p.sleeper = ContextSleeper{Ctx: ctx}
}

// Filter paces one event. The event passes through unmodified; the side
// effects are a blocking sleep and the state mutation backing the next
// decision.
func (p *Pacer) Filter(e *event.Event) *event.Event {
	if p.cfg.Replay {
		p.replay(e)
	} else {
		p.periodic(e)
	}
	return e
}

// Close implements pipeline.Filter. The pacer holds no resources.
func (p *Pacer) Close() error {
	return nil
}

// periodic sleeps for the resolved `time` on every Every-th event.
//
// The trigger comparison runs in floating point so an `every` supplied as
// a numeric string behaves identically to a native number. A resolved
// duration of zero or less still counts as a trigger but degrades to a
// no-op sleep.
func (p *Pacer) periodic(e *event.Event) {
	p.count++
	seconds := p.cfg.Delay.Seconds(e)
	if float64(p.count) >= p.cfg.Every {
		p.count = 0
		if seconds < 0 {
			seconds = 0
		}
		p.log.Debug("pacing event", "seconds", seconds)
		p.sleeper.Sleep(durationOf(seconds))
	}
}

// replay reproduces recorded inter-event spacing.
//
// Two sleeps can occur per event. The cooldown sleep runs on every event
// and enforces the minimum wall-clock distance from the event's recorded
// timestamp; with the default cooldown of 0 it clamps to a zero-length
// no-op. The timeline sleep then covers the recorded gap to the previous
// event, scaled by the speed divisor and capped by the threshold. The time
// already spent in the cooldown sleep is subtracted from the gap so it is
// not counted twice.
func (p *Pacer) replay(e *event.Event) {
	clock := e.ClockSeconds()
	now := epochSeconds(p.clock.Now())

	cooldownDelay := clock + p.cfg.Cooldown - now
	if cooldownDelay < 0 {
		cooldownDelay = 0
	}
	p.sleeper.Sleep(durationOf(cooldownDelay))

	if p.hasLast {
		speed := p.cfg.Delay.Seconds(e)
		if speed > 0 {
			elapsed := clock - p.lastClock - cooldownDelay
			sleepSeconds := elapsed / speed
			if sleepSeconds > p.cfg.Threshold {
				sleepSeconds = p.cfg.Threshold
			}
			if sleepSeconds > 0 {
				p.log.Debug("replaying gap", "seconds", sleepSeconds)
				p.sleeper.Sleep(durationOf(sleepSeconds))
			}
		} else {
			// A zero or negative speed divisor cannot scale a gap; skip
			// the timeline sleep rather than divide by zero or stall.
			p.log.Debug("skipping timeline sleep", "speed", speed)
		}
	}

	// Even the first event records its timestamp so the second one has a
	// reference point.
	p.lastClock = clock
	p.hasLast = true
}

func init() {
	pipeline.RegisterFilter(Name, func() pipeline.Filter {
		return &Pacer{}
	})
}
