package service

import (
	"context"
	"log/slog"

	"ghostpost/internal/callbacks/models"
	"ghostpost/internal/platform/metrics"
	"ghostpost/pkg/domain"
	dErrors "ghostpost/pkg/domain-errors"
	audit "ghostpost/pkg/platform/audit"
	"ghostpost/pkg/requestcontext"
)

// Store persists the callback board. Add reports whether the ticket was new.
type Store interface {
	Add(ctx context.Context, cb models.Callback) (bool, error)
	List(ctx context.Context) ([]models.Callback, error)
	Contains(ctx context.Context, tickets []domain.Ticket) ([]domain.Ticket, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service maintains the public revocation board.
type Service struct {
	store   Store
	auditor AuditPublisher
	metrics *metrics.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

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

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register posts a callback for ticket. Posting the same ticket twice is a
// no-op.
func (s *Service) Register(ctx context.Context, ticket domain.Ticket, action models.Action) error {
	if _, err := models.ParseAction(string(action)); err != nil {
		return err
	}
	created, err := s.store.Add(ctx, models.Callback{
		Ticket:    ticket,
		Action:    action,
		CreatedAt: requestcontext.Now(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to register callback")
	}
	if !created {
		return nil
	}

	s.metrics.IncrementCallbacksRegistered()
	s.logger.InfoContext(ctx, "callback registered",
		"ticket", ticket.String(),
		"action", string(action),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Type:      audit.EventCallbackRegistered,
		Ticket:    ticket.String(),
		Reason:    string(action),
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// Tickets returns every ticket on the board, oldest first.
func (s *Service) Tickets(ctx context.Context) ([]domain.Ticket, error) {
	callbacks, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list callbacks")
	}
	tickets := make([]domain.Ticket, 0, len(callbacks))
	for _, cb := range callbacks {
		tickets = append(tickets, cb.Ticket)
	}
	return tickets, nil
}

// Flagged returns the subset of tickets that are on the board.
func (s *Service) Flagged(ctx context.Context, tickets []domain.Ticket) ([]domain.Ticket, error) {
	if len(tickets) == 0 {
		return nil, nil
	}
	found, err := s.store.Contains(ctx, tickets)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check callbacks")
	}
	return found, nil
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
