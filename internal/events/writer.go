// Package events records the trip's audit trail: every mutation appends
// one row describing what changed, to which entity, and by whom. The log
// is append-only and written inside the same transaction as the change.
package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// EventPayload is the free-form detail attached to an event, stored as JSON.
type EventPayload map[string]any

// Writer appends audit events. Now is injectable for tests.
type Writer struct {
	DB  *sql.DB
	Now func() time.Time
}

// Append writes one event row on the caller's transaction. Trip and entity
// ids may be empty (workspace-level events) and are stored as NULL.
func (w Writer) Append(ctx context.Context, tx *sql.Tx, evtType, tripID, entityKind, entityID, actorID string, payload EventPayload) error {
	clock := w.Now
	if clock == nil {
		clock = time.Now
	}
	if payload == nil {
		payload = EventPayload{}
	}
	detail, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", evtType, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO events(ts,type,trip_id,entity_kind,entity_id,actor_id,payload_json) VALUES (?,?,?,?,?,?,?)`,
		clock().UTC().Format(time.RFC3339), evtType,
		sql.NullString{String: tripID, Valid: tripID != ""},
		entityKind,
		sql.NullString{String: entityID, Valid: entityID != ""},
		actorID, string(detail))
	if err != nil {
		return fmt.Errorf("append %s event: %w", evtType, err)
	}
	return nil
}
