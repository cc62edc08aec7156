// Package store persists recorded event streams in SQLite.
//
// The store is the backing source for replay-mode pacing: the record
// command appends events with their original timestamps, and the replay
// command reads them back ordered by recorded time so the pace filter can
// reproduce the original spacing.
//
// The database is a single table of events keyed by an autoincrement seq.
// Reads order by (ts_ns, seq) so events recorded in the same nanosecond
// keep their insertion order.
package store
