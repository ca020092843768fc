package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ghostpost/internal/forum/models"
	"ghostpost/pkg/domain"
	dErrors "ghostpost/pkg/domain-errors"
	"ghostpost/pkg/platform/httputil"
	"ghostpost/pkg/platform/middleware/admin"
	"ghostpost/pkg/requestcontext"
)

// Service defines the forum operations exposed over HTTP.
type Service interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	TokenTTL() time.Duration
	CreatePost(ctx context.Context, content string, ticket domain.Ticket) (*models.Post, error)
	ListPosts(ctx context.Context) ([]*models.Post, error)
	Moderate(ctx context.Context, id domain.PostID) (*models.Post, error)
}

// Handler serves accounts, posts and moderation.
type Handler struct {
	logger     *slog.Logger
	service    Service
	adminToken string
}

func New(service Service, logger *slog.Logger, adminToken string) *Handler {
	return &Handler{logger: logger, service: service, adminToken: adminToken}
}

// Register mounts the forum routes. Deleting a post requires the admin token.
func (h *Handler) Register(r chi.Router) {
	r.Post("/forum/register", h.handleRegister)
	r.Post("/forum/login", h.handleLogin)
	r.Post("/forum/posts", h.handleCreatePost)
	r.Get("/forum/posts", h.handleListPosts)

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(h.adminToken, h.logger))
		r.Delete("/forum/posts/{id}", h.handleModerate)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CredentialsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	user, err := h.service.Register(ctx, req.Username, req.Password)
	if err != nil {
		h.logFailure(ctx, "registration failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.RegisterResponse{
		Message: "Registered Successfully",
		UserID:  user.ID.String(),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CredentialsRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	token, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		h.logFailure(ctx, "login failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(h.service.TokenTTL().Seconds()),
	})
}

func (h *Handler) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req models.CreatePostRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Ticket == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "content and ticket required"))
		return
	}
	ticket, err := domain.ParseTicket(req.Ticket)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "ticket must be a decimal u128"))
		return
	}
	post, err := h.service.CreatePost(ctx, req.Content, ticket)
	if err != nil {
		h.logFailure(ctx, "post rejected", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewPostResponse(post))
}

func (h *Handler) handleListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	posts, err := h.service.ListPosts(ctx)
	if err != nil {
		h.logFailure(ctx, "failed to list posts", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewPostList(posts))
}

func (h *Handler) handleModerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := domain.ParsePostID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid post id"))
		return
	}
	if _, err := h.service.Moderate(ctx, id); err != nil {
		h.logFailure(ctx, "moderation failed", err)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.MessageResponse{Message: "Post deleted & callback recorded."})
}

// logFailure logs client errors at warn and everything else at error.
func (h *Handler) logFailure(ctx context.Context, msg string, err error) {
	level := slog.LevelWarn
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		level = slog.LevelError
	}
	h.logger.Log(ctx, level, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
