package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ghostpost/pkg/domain"
	"ghostpost/pkg/platform/httputil"
	"ghostpost/pkg/requestcontext"
)

// Service defines the board operations exposed over HTTP.
type Service interface {
	Tickets(ctx context.Context) ([]domain.Ticket, error)
}

// Handler serves the public callback board.
type Handler struct {
	logger  *slog.Logger
	service Service
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{logger: logger, service: service}
}

// Register mounts the callback routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/zk/callbacks", h.handleList)
}

// handleList returns every callback ticket as a decimal string, oldest first.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tickets, err := h.service.Tickets(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list callbacks",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, domain.FormatTickets(tickets))
}
