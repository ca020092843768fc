package handler

import (
	"context"
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ghostpost/internal/attestation/models"
	"ghostpost/internal/continuation"
	"ghostpost/internal/prover"
	"ghostpost/pkg/domain"
	dErrors "ghostpost/pkg/domain-errors"
	"ghostpost/pkg/platform/httputil"
	"ghostpost/pkg/platform/middleware/auth"
	"ghostpost/pkg/requestcontext"
)

// Service defines the attestation operations exposed over HTTP.
type Service interface {
	PublicKey() []byte
	ProgramID() prover.ProgramID
	Enroll(ctx context.Context, userID domain.UserID, commitment continuation.Commitment) (*models.Attestation, error)
	Submit(ctx context.Context, receipt *prover.Receipt) (*models.Accepted, error)
	IsIssued(ctx context.Context, ticket domain.Ticket) (bool, error)
}

// Handler serves enrollment and proof submission.
type Handler struct {
	logger       *slog.Logger
	service      Service
	jwtValidator auth.JWTValidator
}

func New(service Service, logger *slog.Logger, jwtValidator auth.JWTValidator) *Handler {
	return &Handler{logger: logger, service: service, jwtValidator: jwtValidator}
}

// Register mounts the attestation routes. Enrollment requires a forum session.
func (h *Handler) Register(r chi.Router) {
	r.Get("/zk/server-key", h.handleServerKey)
	r.Post("/zk/submit-proof", h.handleSubmitProof)
	r.Get("/zk/tickets/{ticket}", h.handleTicketStatus)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(h.jwtValidator, h.logger))
		r.Post("/zk/enroll", h.handleEnroll)
	})
}

func (h *Handler) handleServerKey(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, models.ServerKeyResponse{
		PublicKey: hex.EncodeToString(h.service.PublicKey()),
		ProgramID: h.service.ProgramID().String(),
	})
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req models.EnrollRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.logger.WarnContext(ctx, "invalid enroll request",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	commitment, err := continuation.ParseCommitment(req.Commitment)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeValidation, "commitment must be 32 bytes of hex"))
		return
	}

	att, err := h.service.Enroll(ctx, requestcontext.UserID(ctx), commitment)
	if err != nil {
		h.logger.WarnContext(ctx, "enrollment failed",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, models.NewAttestationResponse(*att))
}

func (h *Handler) handleSubmitProof(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var receipt prover.Receipt
	if err := httputil.DecodeJSON(r, &receipt); err != nil {
		h.logger.WarnContext(ctx, "invalid receipt body",
			"error", err,
			"request_id", requestID,
		)
		httputil.WriteError(w, err)
		return
	}

	accepted, err := h.service.Submit(ctx, &receipt)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.NewSubmitResponse(accepted))
}

func (h *Handler) handleTicketStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ticket, err := domain.ParseTicket(chi.URLParam(r, "ticket"))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInvalidInput, "ticket must be a decimal u128"))
		return
	}
	issued, err := h.service.IsIssued(ctx, ticket)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to check ticket",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.TicketStatusResponse{Ticket: ticket.String(), Issued: issued})
}
