package pacer

import (
	"context"
	"time"
)

// Clock supplies the current wall-clock time. Injectable so replay-mode
// timing is deterministic under test.
type Clock interface {
	Now() time.Time
}

// SystemClock delegates to the standard time package.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// Sleeper blocks the calling goroutine for a duration. Blocking is the
// mechanism by which the pace filter applies backpressure to its pipeline,
// so implementations must not return before the duration elapses (except
// for shutdown, see ContextSleeper). Durations <= 0 are a no-op.
type Sleeper interface {
	Sleep(d time.Duration)
}

// SystemSleeper sleeps on the real clock.
type SystemSleeper struct{}

func (SystemSleeper) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	time.Sleep(d)
}

// ContextSleeper sleeps on the real clock but returns early when the bound
// context is cancelled. Pipelines bind this to their run context so a long
// replay sleep does not hold up shutdown. Steady-state timing is identical
// to SystemSleeper.
type ContextSleeper struct {
	Ctx context.Context
}

func (s ContextSleeper) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-s.Ctx.Done():
	case <-t.C:
	}
}

// epochSeconds converts a time to floating-point epoch seconds, the unit
// all pacing arithmetic is carried out in.
func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// durationOf converts floating-point seconds to a time.Duration, clamping
// negative values to zero.
func durationOf(seconds float64) time.Duration {
	if seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
