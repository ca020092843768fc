package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	audit "ghostpost/pkg/platform/audit"
	txcontext "ghostpost/pkg/platform/tx"
)

// Store implements audit.Store on the audit_events table. Appends join a
// transaction bound to the context, so an event commits or rolls back with
// the change it describes.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	query := `
		INSERT INTO audit_events (event_type, category, actor, subject, ticket, reason, request_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, query,
		string(event.Type),
		string(event.Category()),
		event.Actor,
		event.Subject,
		event.Ticket,
		event.Reason,
		event.RequestID,
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) ([]audit.Event, error) {
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT event_type, actor, subject, ticket, reason, request_id, created_at
		FROM audit_events
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var (
			e         audit.Event
			eventType string
		)
		if err := rows.Scan(&eventType, &e.Actor, &e.Subject, &e.Ticket, &e.Reason, &e.RequestID, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Type = audit.EventType(eventType)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
