package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andante-io/andante/internal/event"
)

// Append inserts one event into the log.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - recording the same
// stream twice does not duplicate events.
func (s *Store) Append(ctx context.Context, e *event.Event) error {
	fieldsJSON, tagsJSON, err := marshalPayload(e)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO events (id, ts_ns, fields, tags)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		e.ID,
		e.Timestamp.UnixNano(),
		fieldsJSON,
		tagsJSON,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	return nil
}

// AppendAll inserts events in one transaction, preserving slice order for
// events sharing a timestamp.
func (s *Store) AppendAll(ctx context.Context, events []*event.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (id, ts_ns, fields, tags)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		fieldsJSON, tagsJSON, err := marshalPayload(e)
		if err != nil {
			return fmt.Errorf("append event %s: %w", e.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, e.ID, e.Timestamp.UnixNano(), fieldsJSON, tagsJSON); err != nil {
			return fmt.Errorf("append event %s: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	return nil
}

// ReadAll returns every recorded event ordered by recorded timestamp,
// then insertion order.
func (s *Store) ReadAll(ctx context.Context) ([]*event.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts_ns, fields, tags
		FROM events
		ORDER BY ts_ns, seq
	`)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		var (
			id         string
			tsNS       int64
			fieldsJSON string
			tagsJSON   string
		)
		if err := rows.Scan(&id, &tsNS, &fieldsJSON, &tagsJSON); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		e := event.New(id, time.Unix(0, tsNS).UTC(), nil)
		if err := json.Unmarshal([]byte(fieldsJSON), &e.Fields); err != nil {
			return nil, fmt.Errorf("decode fields of event %s: %w", id, err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of event %s: %w", id, err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}

	return events, nil
}

// Count returns the number of recorded events.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// marshalPayload serializes an event's fields and tags as JSON documents.
// Fields use canonical serialization so identical events store identical
// bytes.
func marshalPayload(e *event.Event) (string, string, error) {
	canonical, err := event.MarshalCanonical(e)
	if err != nil {
		return "", "", err
	}

	// Reuse the canonical form's fields object rather than re-sorting here.
	var doc struct {
		Fields json.RawMessage `json:"fields"`
	}
	if err := json.Unmarshal(canonical, &doc); err != nil {
		return "", "", err
	}

	tagsJSON := []byte("[]")
	if len(e.Tags) > 0 {
		tagsJSON, err = json.Marshal(e.Tags)
		if err != nil {
			return "", "", err
		}
	}

	return string(doc.Fields), string(tagsJSON), nil
}
