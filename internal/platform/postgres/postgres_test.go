package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	dup := &pgconn.PgError{Code: "23505", ConstraintName: "forum_posts_ticket_key"}

	assert.True(t, IsUniqueViolation(dup))
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", dup)))
	assert.True(t, IsUniqueViolation(dup, "other", "forum_posts_ticket_key"))
	assert.False(t, IsUniqueViolation(dup, "forum_users_username_key"))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("boom")))
	assert.False(t, IsUniqueViolation(nil))
}

func TestOpenRequiresDSN(t *testing.T) {
	_, err := Open(t.Context(), "")
	assert.Error(t, err)
}
