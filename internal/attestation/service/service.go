package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ghostpost/internal/attestation/models"
	"ghostpost/internal/continuation"
	"ghostpost/internal/platform/metrics"
	"ghostpost/internal/prover"
	"ghostpost/pkg/domain"
	dErrors "ghostpost/pkg/domain-errors"
	audit "ghostpost/pkg/platform/audit"
	"ghostpost/pkg/platform/sentinel"
	txcontext "ghostpost/pkg/platform/tx"
	"ghostpost/pkg/requestcontext"
)

// CommitmentStore is the commitment ledger. Saves return sentinel.ErrConflict
// when the user or the commitment is already present.
type CommitmentStore interface {
	SaveEnrollment(ctx context.Context, e models.Enrollment) error
	FindEnrollment(ctx context.Context, userID domain.UserID) (*models.Enrollment, error)
	SaveRecord(ctx context.Context, r models.Record) error
	IsIssued(ctx context.Context, ticket domain.Ticket) (bool, error)
}

// NonceGuard spends replay nonces. Claim returns sentinel.ErrAlreadyUsed for
// a nonce that was spent before. Release undoes a claim whose submission
// failed for an unrelated reason.
type NonceGuard interface {
	Claim(ctx context.Context, nonce domain.Nonce) error
	Release(ctx context.Context, nonce domain.Nonce) error
}

// ReceiptVerifier checks a receipt against a program identity.
type ReceiptVerifier interface {
	Verify(r *prover.Receipt, expected prover.ProgramID) (continuation.Journal, error)
}

// Signer attests commitments.
type Signer interface {
	Sign(c continuation.Commitment) []byte
	PublicKey() []byte
}

// TxRunner groups the nonce claim and the ledger write.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the server side of the continuation protocol.
type Service struct {
	store    CommitmentStore
	guard    NonceGuard
	verifier ReceiptVerifier
	signer   Signer
	program  prover.ProgramID
	tx       TxRunner
	auditor  AuditPublisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

const tracerName = "ghostpost/attestation"

type Option func(*Service)

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

// WithTracer replaces the tracer taken from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithProgramID overrides the expected program identity.
func WithProgramID(p prover.ProgramID) Option {
	return func(s *Service) { s.program = p }
}

func New(store CommitmentStore, guard NonceGuard, verifier ReceiptVerifier, signer Signer, opts ...Option) *Service {
	s := &Service{
		store:    store,
		guard:    guard,
		verifier: verifier,
		signer:   signer,
		program:  prover.DefaultProgramID,
		tx:       txcontext.NewLockingRunner(0),
		logger:   slog.New(slog.DiscardHandler),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PublicKey returns the compressed SEC1 attestation key.
func (s *Service) PublicKey() []byte {
	return s.signer.PublicKey()
}

// ProgramID returns the program identity receipts must carry.
func (s *Service) ProgramID() prover.ProgramID {
	return s.program
}

// Enroll registers a user's first commitment and attests it.
func (s *Service) Enroll(ctx context.Context, userID domain.UserID, commitment continuation.Commitment) (*models.Attestation, error) {
	ctx, span := s.tracer.Start(ctx, "attestation.Enroll")
	defer span.End()
	att, err := s.enroll(ctx, userID, commitment)
	endSpan(span, err)
	return att, err
}

func (s *Service) enroll(ctx context.Context, userID domain.UserID, commitment continuation.Commitment) (*models.Attestation, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	err := s.store.SaveEnrollment(ctx, models.Enrollment{
		UserID:     userID,
		Commitment: commitment,
		CreatedAt:  requestcontext.Now(ctx),
	})
	if errors.Is(err, sentinel.ErrConflict) {
		return nil, dErrors.New(dErrors.CodeConflict, "user already enrolled")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save enrollment")
	}

	att := s.attest(commitment)
	s.metrics.IncrementEnrollments()
	s.logger.InfoContext(ctx, "identity enrolled",
		"user_id", userID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	s.emit(ctx, audit.Event{
		Type:      audit.EventIdentityEnrolled,
		Actor:     userID.String(),
		Subject:   commitment.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return att, nil
}

// Enrollment returns the user's enrollment.
func (s *Service) Enrollment(ctx context.Context, userID domain.UserID) (*models.Enrollment, error) {
	e, err := s.store.FindEnrollment(ctx, userID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "user not enrolled")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load enrollment")
	}
	return e, nil
}

// Submit verifies a continuation receipt, spends its replay nonce, records the
// new commitment and attests it.
func (s *Service) Submit(ctx context.Context, receipt *prover.Receipt) (*models.Accepted, error) {
	ctx, span := s.tracer.Start(ctx, "attestation.Submit")
	defer span.End()
	accepted, err := s.submit(ctx, receipt)
	if err == nil {
		span.SetAttributes(attribute.String("ghostpost.commitment", accepted.Record.Commitment.String()))
	}
	endSpan(span, err)
	return accepted, err
}

func (s *Service) submit(ctx context.Context, receipt *prover.Receipt) (*models.Accepted, error) {
	requestID := requestcontext.RequestID(ctx)

	start := time.Now()
	journal, err := s.verifier.Verify(receipt, s.program)
	s.metrics.ObserveProofVerify(time.Since(start))
	if err != nil {
		s.metrics.IncrementProofSubmissions("invalid")
		s.logger.WarnContext(ctx, "receipt rejected",
			"error", err,
			"request_id", requestID,
		)
		s.emit(ctx, audit.Event{
			Type:      audit.EventProofRejected,
			Reason:    err.Error(),
			RequestID: requestID,
		})
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidProof, "proof verification failed")
	}

	record := models.Record{
		Commitment:  journal.NewCommitment,
		ReplayNonce: journal.ReplayNonce,
		NewTicket:   journal.NewTicket,
		CreatedAt:   requestcontext.Now(ctx),
	}

	claimed := false
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.guard.Claim(ctx, record.ReplayNonce); err != nil {
			return err
		}
		claimed = true
		return s.store.SaveRecord(ctx, record)
	})
	if err != nil && claimed {
		if relErr := s.guard.Release(ctx, record.ReplayNonce); relErr != nil {
			s.logger.ErrorContext(ctx, "failed to release replay nonce",
				"error", relErr,
				"request_id", requestID,
			)
		}
	}
	switch {
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		s.metrics.IncrementProofSubmissions("replay")
		s.metrics.IncrementReplaysRejected()
		s.logger.WarnContext(ctx, "replay nonce already spent",
			"replay_nonce", record.ReplayNonce.String(),
			"request_id", requestID,
		)
		s.emit(ctx, audit.Event{
			Type:      audit.EventReplayRejected,
			Subject:   record.Commitment.String(),
			Reason:    "replay nonce " + record.ReplayNonce.String() + " already used",
			RequestID: requestID,
		})
		return nil, dErrors.New(dErrors.CodeReplayDetected, "replay nonce already used")
	case errors.Is(err, sentinel.ErrConflict):
		s.metrics.IncrementProofSubmissions("conflict")
		return nil, dErrors.New(dErrors.CodeConflict, "commitment already recorded")
	case err != nil:
		if dErrors.HasCode(err, dErrors.CodeTimeout) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record commitment")
	}

	accepted := &models.Accepted{Record: record, Attestation: *s.attest(record.Commitment)}
	s.metrics.IncrementProofSubmissions("accepted")
	s.logger.InfoContext(ctx, "continuation accepted",
		"commitment", record.Commitment.String(),
		"new_ticket", record.NewTicket.String(),
		"request_id", requestID,
	)
	s.emit(ctx, audit.Event{
		Type:      audit.EventProofAccepted,
		Subject:   record.Commitment.String(),
		Ticket:    record.NewTicket.String(),
		RequestID: requestID,
	})
	return accepted, nil
}

// IsIssued reports whether ticket was revealed by an accepted continuation.
func (s *Service) IsIssued(ctx context.Context, ticket domain.Ticket) (bool, error) {
	ok, err := s.store.IsIssued(ctx, ticket)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check ticket")
	}
	return ok, nil
}

func endSpan(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
}

func (s *Service) attest(c continuation.Commitment) *models.Attestation {
	return &models.Attestation{
		Commitment: c,
		Signature:  s.signer.Sign(c),
		PublicKey:  s.signer.PublicKey(),
	}
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
