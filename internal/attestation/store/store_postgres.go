package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"ghostpost/internal/attestation/models"
	"ghostpost/internal/continuation"
	"ghostpost/internal/platform/postgres"
	"ghostpost/pkg/domain"
	"ghostpost/pkg/platform/sentinel"
	txcontext "ghostpost/pkg/platform/tx"
)

// PostgresStore persists enrollments and accepted continuations.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) SaveEnrollment(ctx context.Context, e models.Enrollment) error {
	if err := s.ensureCommitmentUnused(ctx, e.Commitment); err != nil {
		return err
	}
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO zk_enrollments (user_id, commitment, created_at)
		VALUES ($1, $2, $3)
	`, e.UserID.String(), e.Commitment.String(), e.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert enrollment: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindEnrollment(ctx context.Context, userID domain.UserID) (*models.Enrollment, error) {
	var (
		raw string
		e   = models.Enrollment{UserID: userID}
	)
	err := txcontext.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT commitment, created_at FROM zk_enrollments WHERE user_id = $1
	`, userID.String()).Scan(&raw, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find enrollment: %w", err)
	}
	if e.Commitment, err = continuation.ParseCommitment(raw); err != nil {
		return nil, fmt.Errorf("stored enrollment commitment: %w", err)
	}
	return &e, nil
}

func (s *PostgresStore) SaveRecord(ctx context.Context, r models.Record) error {
	if err := s.ensureCommitmentUnused(ctx, r.Commitment); err != nil {
		return err
	}
	_, err := txcontext.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO zk_commitments (commitment, replay_nonce, new_ticket, created_at)
		VALUES ($1, $2::numeric, $3::numeric, $4)
	`, r.Commitment.String(), r.ReplayNonce.String(), r.NewTicket.String(), r.CreatedAt)
	if postgres.IsUniqueViolation(err) {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert commitment: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsIssued(ctx context.Context, ticket domain.Ticket) (bool, error) {
	var exists bool
	err := txcontext.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM zk_commitments WHERE new_ticket = $1::numeric)
	`, ticket.String()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check issued ticket: %w", err)
	}
	return exists, nil
}

// ensureCommitmentUnused keeps commitments unique across both tables.
func (s *PostgresStore) ensureCommitmentUnused(ctx context.Context, c continuation.Commitment) error {
	var exists bool
	err := txcontext.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM zk_enrollments WHERE commitment = $1)
		    OR EXISTS (SELECT 1 FROM zk_commitments WHERE commitment = $1)
	`, c.String()).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check commitment: %w", err)
	}
	if exists {
		return sentinel.ErrConflict
	}
	return nil
}

// PostgresNonceGuard spends nonces in zk_spent_nonces. Run inside the
// submission transaction, a rolled back submission un-spends its nonce.
type PostgresNonceGuard struct {
	db *sql.DB
}

func NewPostgresNonceGuard(db *sql.DB) *PostgresNonceGuard {
	return &PostgresNonceGuard{db: db}
}

func (g *PostgresNonceGuard) Claim(ctx context.Context, nonce domain.Nonce) error {
	res, err := txcontext.Conn(ctx, g.db).ExecContext(ctx, `
		INSERT INTO zk_spent_nonces (nonce, created_at)
		VALUES ($1::numeric, now())
		ON CONFLICT (nonce) DO NOTHING
	`, nonce.String())
	if err != nil {
		return fmt.Errorf("claim nonce: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim nonce: %w", err)
	}
	if n == 0 {
		return sentinel.ErrAlreadyUsed
	}
	return nil
}

// Release is a no-op: the transaction rollback already removed the claim,
// and deleting here could erase a concurrent submission's committed claim.
func (g *PostgresNonceGuard) Release(context.Context, domain.Nonce) error {
	return nil
}
