// Package pipeline implements the andante event pipeline host.
//
// A pipeline is a source, a chain of filters, and a sink. The host owns
// scheduling; filters own per-event behavior.
//
// ARCHITECTURE:
//
// Per-Worker Filter Instances:
// Each worker builds its own filter chain from the registry. Filter state
// (such as the pace filter's counters) is exclusively owned by one worker
// and never shared, so filters need no internal locking.
//
// Event Processing Flow:
// 1. The source reads events onto a shared channel.
// 2. Each worker dequeues events one at a time and runs them through its
//    filter chain in declaration order.
// 3. After a filter returns, the worker tags the event with the filter's
//    alias to mark it as processed. No filter drops or mutates payloads.
// 4. Processed events are handed to a single sink goroutine.
//
// Within one worker, events are processed, and any filter-imposed delays
// executed, strictly in arrival order. There is no buffering or reordering
// inside a filter. Across workers no global ordering is guaranteed; run
// with one worker when byte-stable output matters.
//
// Filters that block (the pace filter sleeps as backpressure) may
// implement ContextAware to have in-progress sleeps interrupted on
// shutdown.
package pipeline
