//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"ghostpost/internal/forum/models"
	"ghostpost/pkg/domain"
	"ghostpost/pkg/platform/sentinel"
	"ghostpost/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	users *PostgresUserStore
	posts *PostgresPostStore
	ctx   context.Context
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.users = NewPostgresUsers(s.pg.DB)
	s.posts = NewPostgresPosts(s.pg.DB)
	s.ctx = context.Background()
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(s.ctx, "forum_users", "forum_posts", "forum_post_tickets"))
}

func (s *PostgresStoreSuite) TestUsernamesAreCaseInsensitive() {
	u := &models.User{ID: domain.UserID(uuid.New()), Username: "Alice", PasswordHash: "hash", CreatedAt: time.Now()}
	s.Require().NoError(s.users.Save(s.ctx, u))

	err := s.users.Save(s.ctx, &models.User{ID: domain.UserID(uuid.New()), Username: "alice", PasswordHash: "x", CreatedAt: time.Now()})
	s.ErrorIs(err, sentinel.ErrConflict)

	got, err := s.users.FindByUsername(s.ctx, "ALICE")
	s.Require().NoError(err)
	s.Equal(u.ID, got.ID)
	s.Equal("hash", got.PasswordHash)
}

func (s *PostgresStoreSuite) TestPostLifecycle() {
	widest, err := domain.ParseTicket("340282366920938463463374607431768211455")
	s.Require().NoError(err)
	base := time.Now().UTC().Truncate(time.Microsecond)
	older := &models.Post{ID: domain.PostID(uuid.New()), Content: "older", Ticket: domain.TicketFrom64(1), CreatedAt: base}
	newer := &models.Post{ID: domain.PostID(uuid.New()), Content: "newer", Ticket: widest, CreatedAt: base.Add(time.Minute)}
	s.Require().NoError(s.posts.Save(s.ctx, older))
	s.Require().NoError(s.posts.Save(s.ctx, newer))

	posts, err := s.posts.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(posts, 2)
	s.Equal("newer", posts[0].Content)
	s.Equal(widest, posts[0].Ticket)

	removed, err := s.posts.Delete(s.ctx, older.ID)
	s.Require().NoError(err)
	s.Equal(older.Ticket, removed.Ticket)

	_, err = s.posts.Delete(s.ctx, older.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	reuse := &models.Post{ID: domain.PostID(uuid.New()), Content: "reuse", Ticket: domain.TicketFrom64(1), CreatedAt: time.Now()}
	s.ErrorIs(s.posts.Save(s.ctx, reuse), sentinel.ErrAlreadyUsed)
}
