package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	callbackModels "ghostpost/internal/callbacks/models"
	"ghostpost/internal/forum/models"
	"ghostpost/internal/forum/password"
	"ghostpost/internal/platform/metrics"
	"ghostpost/pkg/domain"
	dErrors "ghostpost/pkg/domain-errors"
	audit "ghostpost/pkg/platform/audit"
	"ghostpost/pkg/platform/sentinel"
	txcontext "ghostpost/pkg/platform/tx"
	"ghostpost/pkg/requestcontext"
)

const (
	DefaultTokenTTL = time.Hour

	maxUsernameLength = 64
	maxContentLength  = 10_000
)

// UserStore persists accounts. Save returns sentinel.ErrConflict for a taken
// username; lookups are case-insensitive.
type UserStore interface {
	Save(ctx context.Context, u *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// PostStore persists posts. Save returns sentinel.ErrAlreadyUsed when the
// ticket was consumed before, even by a deleted post.
type PostStore interface {
	Save(ctx context.Context, p *models.Post) error
	List(ctx context.Context) ([]*models.Post, error)
	Delete(ctx context.Context, id domain.PostID) (*models.Post, error)
}

// TicketIssuer reports whether an accepted continuation revealed a ticket.
type TicketIssuer interface {
	IsIssued(ctx context.Context, ticket domain.Ticket) (bool, error)
}

// CallbackBoard is the revocation board moderation writes to.
type CallbackBoard interface {
	Register(ctx context.Context, ticket domain.Ticket, action callbackModels.Action) error
	Flagged(ctx context.Context, tickets []domain.Ticket) ([]domain.Ticket, error)
}

type TokenIssuer interface {
	GenerateAccessToken(userID domain.UserID, username string, expiresIn time.Duration) (string, error)
}

type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service implements accounts, ticketed posting and moderation.
type Service struct {
	users    UserStore
	posts    PostStore
	tickets  TicketIssuer
	board    CallbackBoard
	tokens   TokenIssuer
	tokenTTL time.Duration
	tx       TxRunner
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

type Option func(*Service)

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) {
		if tx != nil {
			s.tx = tx
		}
	}
}

func WithAuditor(a AuditPublisher) Option {
	return func(s *Service) { s.auditor = a }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(users UserStore, posts PostStore, tickets TicketIssuer, board CallbackBoard, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		users:    users,
		posts:    posts,
		tickets:  tickets,
		board:    board,
		tokens:   tokens,
		tokenTTL: DefaultTokenTTL,
		tx:       txcontext.NewLockingRunner(0),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TokenTTL is the lifetime of tokens issued by Login.
func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, username, plaintext string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || plaintext == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "username and password required")
	}
	if utf8.RuneCountInString(username) > maxUsernameLength {
		return nil, dErrors.New(dErrors.CodeValidation, "username is too long")
	}
	hash, err := password.Hash(plaintext)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	user := &models.User{
		ID:           domain.UserID(uuid.New()),
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    requestcontext.Now(ctx),
	}
	err = s.users.Save(ctx, user)
	if errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.New(dErrors.CodeConflict, "username already exists")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save user")
	}

	s.metrics.IncrementUsersCreated()
	s.logger.InfoContext(ctx, "user registered",
		"user_id", user.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Type:      audit.EventUserRegistered,
		Actor:     user.ID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return user, nil
}

// Login checks credentials and issues a session token.
func (s *Service) Login(ctx context.Context, username, plaintext string) (string, error) {
	if username == "" || plaintext == "" {
		return "", dErrors.New(dErrors.CodeValidation, "username and password required")
	}
	user, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, sentinel.ErrNotFound) {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	if err := password.Verify(plaintext, user.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			s.logger.WarnContext(ctx, "login failed",
				"user_id", user.ID.String(),
				"request_id", requestcontext.RequestID(ctx),
			)
			return "", err
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify password")
	}

	token, err := s.tokens.GenerateAccessToken(user.ID, user.Username, s.tokenTTL)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return token, nil
}

// CreatePost publishes content under a ticket issued by an accepted proof.
// A ticket authorizes exactly one post and flagged tickets are refused.
func (s *Service) CreatePost(ctx context.Context, content string, ticket domain.Ticket) (*models.Post, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "content and ticket required")
	}
	if utf8.RuneCountInString(content) > maxContentLength {
		return nil, dErrors.New(dErrors.CodeValidation, "content is too long")
	}

	issued, err := s.tickets.IsIssued(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if !issued {
		return nil, dErrors.New(dErrors.CodeForbidden, "ticket was not issued by an accepted proof")
	}
	flagged, err := s.board.Flagged(ctx, []domain.Ticket{ticket})
	if err != nil {
		return nil, err
	}
	if len(flagged) > 0 {
		return nil, dErrors.New(dErrors.CodeBanned, "ticket is on the callback board")
	}

	post := &models.Post{
		ID:        domain.PostID(uuid.New()),
		Content:   content,
		Ticket:    ticket,
		CreatedAt: requestcontext.Now(ctx),
	}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		return s.posts.Save(ctx, post)
	})
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return nil, dErrors.New(dErrors.CodeConflict, "ticket already used by another post")
	case dErrors.HasCode(err, dErrors.CodeTimeout):
		return nil, err
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save post")
	}

	s.metrics.IncrementPostsCreated()
	s.logger.InfoContext(ctx, "post created",
		"post_id", post.ID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Type:      audit.EventPostCreated,
		Subject:   post.ID.String(),
		Ticket:    ticket.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return post, nil
}

// ListPosts returns every post, newest first.
func (s *Service) ListPosts(ctx context.Context) ([]*models.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list posts")
	}
	return posts, nil
}

// Moderate deletes a post and bans its ticket in one unit of work. Identities
// holding the ticket can no longer continue.
func (s *Service) Moderate(ctx context.Context, id domain.PostID) (*models.Post, error) {
	var removed *models.Post
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		p, err := s.posts.Delete(ctx, id)
		if err != nil {
			return err
		}
		removed = p
		return s.board.Register(ctx, p.Ticket, callbackModels.ActionBan)
	})
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, dErrors.New(dErrors.CodeNotFound, "post not found")
	case dErrors.HasCode(err, dErrors.CodeTimeout), dErrors.HasCode(err, dErrors.CodeInternal):
		return nil, err
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to moderate post")
	}

	s.logger.InfoContext(ctx, "post moderated",
		"post_id", id.String(),
		"ticket", removed.Ticket.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Type:      audit.EventPostModerated,
		Subject:   id.String(),
		Ticket:    removed.Ticket.String(),
		Reason:    string(callbackModels.ActionBan),
		RequestID: requestcontext.RequestID(ctx),
	})
	return removed, nil
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"event_type", string(event.Type),
			"error", err,
		)
	}
}
