package testutil

import (
	"sync"
	"time"
)

// RecordingSleeper captures sleep calls instead of blocking.
//
// Tests assert on call count and argument values rather than real elapsed
// time. When Clock is set, each sleep advances it by the requested
// duration, which models wall time passing while a real sleeper blocks.
//
// Thread-safety: safe for concurrent use, though pacing tests are
// single-threaded by design.
type RecordingSleeper struct {
	mu    sync.Mutex
	calls []time.Duration

	// Clock, when non-nil, is advanced by every sleep.
	Clock *FakeClock
}

// Sleep records the requested duration and returns immediately.
func (s *RecordingSleeper) Sleep(d time.Duration) {
	s.mu.Lock()
	s.calls = append(s.calls, d)
	s.mu.Unlock()

	if s.Clock != nil && d > 0 {
		s.Clock.Advance(d)
	}
}

// Calls returns a copy of the recorded sleep durations, in order.
func (s *RecordingSleeper) Calls() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.calls))
	copy(out, s.calls)
	return out
}

// Count returns the number of sleeps recorded so far.
func (s *RecordingSleeper) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Seconds returns the recorded durations as floating-point seconds.
func (s *RecordingSleeper) Seconds() []float64 {
	calls := s.Calls()
	out := make([]float64, len(calls))
	for i, d := range calls {
		out[i] = d.Seconds()
	}
	return out
}

// Reset discards all recorded calls.
func (s *RecordingSleeper) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = nil
}
