package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ghostpost/internal/forum/models"
	"ghostpost/internal/platform/postgres"
	"ghostpost/pkg/domain"
	"ghostpost/pkg/platform/sentinel"
	txcontext "ghostpost/pkg/platform/tx"
)

// PostgresUserStore persists accounts in forum_users.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgresUsers(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

func (s *PostgresUserStore) Save(ctx context.Context, u *models.User) error {
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO forum_users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, u.ID.String(), u.Username, u.PasswordHash, u.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var (
		rawID string
		u     models.User
	)
	err := txcontext.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id::text, username, password_hash, created_at
		FROM forum_users WHERE lower(username) = lower($1)
	`, username).Scan(&rawID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	parsed, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored user id: %w", err)
	}
	u.ID = domain.UserID(parsed)
	return &u, nil
}

// PostgresPostStore persists posts in forum_posts. Consumed tickets are kept
// in forum_post_tickets so deleting a post never frees its ticket.
type PostgresPostStore struct {
	db *sql.DB
}

func NewPostgresPosts(db *sql.DB) *PostgresPostStore {
	return &PostgresPostStore{db: db}
}

func (s *PostgresPostStore) Save(ctx context.Context, p *models.Post) error {
	conn := txcontext.Conn(ctx, s.db)
	res, err := conn.ExecContext(ctx, `
		INSERT INTO forum_post_tickets (ticket, created_at)
		VALUES ($1::numeric, $2)
		ON CONFLICT (ticket) DO NOTHING
	`, p.Ticket.String(), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("consume ticket: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("consume ticket: %w", err)
	} else if n == 0 {
		return sentinel.ErrAlreadyUsed
	}

	_, err = conn.ExecContext(ctx, `
		INSERT INTO forum_posts (id, content, ticket, created_at)
		VALUES ($1, $2, $3::numeric, $4)
	`, p.ID.String(), p.Content, p.Ticket.String(), p.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrAlreadyUsed
	}
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// List returns posts newest first.
func (s *PostgresPostStore) List(ctx context.Context) ([]*models.Post, error) {
	rows, err := txcontext.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT id::text, content, ticket::text, created_at
		FROM forum_posts
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []*models.Post
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *PostgresPostStore) Delete(ctx context.Context, id domain.PostID) (*models.Post, error) {
	row := txcontext.Conn(ctx, s.db).QueryRowContext(ctx, `
		DELETE FROM forum_posts WHERE id = $1
		RETURNING id::text, content, ticket::text, created_at
	`, id.String())
	p, err := scanPost(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return p, err
}

func scanPost(scan func(dest ...any) error) (*models.Post, error) {
	var (
		rawID, rawTicket string
		p                models.Post
		createdAt        time.Time
	)
	if err := scan(&rawID, &p.Content, &rawTicket, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	parsed, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored post id: %w", err)
	}
	ticket, err := domain.ParseTicket(rawTicket)
	if err != nil {
		return nil, fmt.Errorf("stored post ticket: %w", err)
	}
	p.ID = domain.PostID(parsed)
	p.Ticket = ticket
	p.CreatedAt = createdAt
	return &p, nil
}
