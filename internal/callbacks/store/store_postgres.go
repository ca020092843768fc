package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"ghostpost/internal/callbacks/models"
	"ghostpost/pkg/domain"
	txcontext "ghostpost/pkg/platform/tx"
)

// PostgresStore persists the board in zk_callbacks. Tickets are NUMERIC(39,0)
// and travel as decimal text.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Add(ctx context.Context, cb models.Callback) (bool, error) {
	res, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO zk_callbacks (ticket, action, created_at)
		VALUES ($1::numeric, $2, $3)
		ON CONFLICT (ticket) DO NOTHING
	`, cb.Ticket.String(), string(cb.Action), cb.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("insert callback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert callback: %w", err)
	}
	return n == 1, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.Callback, error) {
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT ticket::text, action, created_at FROM zk_callbacks ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list callbacks: %w", err)
	}
	defer rows.Close()

	var out []models.Callback
	for rows.Next() {
		var (
			raw    string
			action string
			cb     models.Callback
		)
		if err := rows.Scan(&raw, &action, &cb.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan callback: %w", err)
		}
		if cb.Ticket, err = domain.ParseTicket(raw); err != nil {
			return nil, fmt.Errorf("stored callback ticket %q: %w", raw, err)
		}
		cb.Action = models.Action(action)
		out = append(out, cb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate callbacks: %w", err)
	}
	return out, nil
}

// Contains looks the whole batch up in one round trip.
func (s *PostgresStore) Contains(ctx context.Context, tickets []domain.Ticket) ([]domain.Ticket, error) {
	if len(tickets) == 0 {
		return nil, nil
	}
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT ticket::text FROM zk_callbacks WHERE ticket = ANY($1::numeric[]) ORDER BY id
	`, pq.Array(domain.FormatTickets(tickets)))
	if err != nil {
		return nil, fmt.Errorf("check callbacks: %w", err)
	}
	defer rows.Close()

	var found []domain.Ticket
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan callback ticket: %w", err)
		}
		t, err := domain.ParseTicket(raw)
		if err != nil {
			return nil, fmt.Errorf("stored callback ticket %q: %w", raw, err)
		}
		found = append(found, t)
	}
	return found, rows.Err()
}
