// Package pacer implements the pace filter - deliberate delay of event
// flow inside a pipeline.
//
// The filter has two mutually exclusive modes, chosen once at
// configuration time:
//
// Periodic mode imposes a fixed rate limit: every Nth event triggers a
// blocking sleep for a configured duration. The duration is either a
// constant or a %{field} template resolved against each event.
//
// Replay mode reproduces the recorded spacing of a stream: each event's
// delay derives from the gap between its recorded timestamp and the
// previous event's, divided by a speed factor, capped by a threshold, and
// floored by a cooldown measured from the recorded timestamp.
//
// CRITICAL PATTERNS:
//
// Single caller per instance:
// A Pacer belongs to exactly one pipeline worker and is invoked
// sequentially. Its counters are unsynchronized on purpose; sharing an
// instance across goroutines is a bug in the caller.
//
// Blocking as backpressure:
// The sleep happens on the calling goroutine. That is the mechanism, not
// a side effect: while the pacer sleeps, the worker cannot pull the next
// event, which is exactly the pacing contract.
//
// Liveness over strictness:
// Configuration constants are validated fail-fast at Init. Anything
// resolved per event (template durations) degrades to a zero-length sleep
// when malformed; a bad event must never stall the stream.
package pacer
