package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"ghostpost/internal/attestation/models"
	"ghostpost/internal/attestation/store"
	"ghostpost/internal/continuation"
	"ghostpost/internal/continuation/authorization"
	"ghostpost/internal/continuation/commitment"
	"ghostpost/internal/platform/metrics"
	"ghostpost/internal/prover"
	"ghostpost/pkg/domain"
	dErrors "ghostpost/pkg/domain-errors"
	audit "ghostpost/pkg/platform/audit"
	"ghostpost/pkg/platform/audit/publisher"
	auditmemory "ghostpost/pkg/platform/audit/store/memory"
	"ghostpost/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctx     context.Context
	engine  *prover.DevEngine
	signer  *authorization.Signer
	store   *store.InMemoryStore
	guard   *store.InMemoryNonceGuard
	audit   *auditmemory.InMemoryStore
	metrics *metrics.Metrics
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	var err error
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC))
	s.ctx = requestcontext.WithRequestID(s.ctx, "req-1")
	s.engine = prover.NewDevEngine()
	s.signer, err = authorization.GenerateSigner()
	s.Require().NoError(err)
	s.store = store.NewInMemoryStore()
	s.guard = store.NewInMemoryNonceGuard()
	s.audit = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.service = New(s.store, s.guard, s.engine, s.signer,
		WithAuditor(publisher.NewPublisher(s.audit)),
		WithMetrics(s.metrics),
	)
}

// enroll registers a fresh identity and returns the state, opening nonce and
// attestation a host would keep.
func (s *ServiceSuite) enroll(internal uint64) (continuation.IdentityState, domain.Nonce, *models.Attestation) {
	state := continuation.IdentityState{
		Tickets:       []domain.Ticket{domain.TicketFrom64(internal*10 + 1), domain.TicketFrom64(internal*10 + 2)},
		InternalNonce: domain.NonceFrom64(internal),
	}
	opening := domain.NonceFrom64(internal + 1000)
	c, err := commitment.Commit(state, opening)
	s.Require().NoError(err)

	att, err := s.service.Enroll(s.ctx, domain.UserID(uuid.New()), c)
	s.Require().NoError(err)
	return state, opening, att
}

func rotateTo(v uint64) *domain.Nonce {
	n := domain.NonceFrom64(v)
	return &n
}

func (s *ServiceSuite) prove(state continuation.IdentityState, opening domain.Nonce, att *models.Attestation, next uint64) *prover.Receipt {
	receipt, _, err := s.engine.Prove(s.ctx, continuation.PrivateInput{
		State:             state,
		OldNonce:          opening,
		NewNonce:          domain.NonceFrom64(next + 5000),
		ClaimedCommitment: att.Commitment,
		ServerSignature:   att.Signature,
		ServerKey:         att.PublicKey,
		NewTicket:         domain.TicketFrom64(next),
		NextInternalNonce: rotateTo(next + 9000),
	})
	s.Require().NoError(err)
	return receipt
}

func (s *ServiceSuite) TestEnrollAttestsCommitment() {
	_, _, att := s.enroll(1)

	s.NoError(authorization.Verify(att.Commitment, att.Signature, att.PublicKey))
	s.Equal(s.signer.PublicKey(), att.PublicKey)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Enrollments))

	events, err := s.audit.ListByType(s.ctx, audit.EventIdentityEnrolled)
	s.Require().NoError(err)
	s.Len(events, 1)
	s.Equal("req-1", events[0].RequestID)
}

func (s *ServiceSuite) TestEnrollOncePerUser() {
	user := domain.UserID(uuid.New())
	_, err := s.service.Enroll(s.ctx, user, continuation.Commitment{1})
	s.Require().NoError(err)

	_, err = s.service.Enroll(s.ctx, user, continuation.Commitment{2})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	e, err := s.service.Enrollment(s.ctx, user)
	s.Require().NoError(err)
	s.Equal(continuation.Commitment{1}, e.Commitment)
}

func (s *ServiceSuite) TestEnrollRequiresUser() {
	_, err := s.service.Enroll(s.ctx, domain.UserID{}, continuation.Commitment{1})
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestEnrollmentNotFound() {
	_, err := s.service.Enrollment(s.ctx, domain.UserID(uuid.New()))
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestSubmitAcceptsAndIssuesTicket() {
	state, opening, att := s.enroll(7)
	receipt := s.prove(state, opening, att, 4242)

	accepted, err := s.service.Submit(s.ctx, receipt)
	s.Require().NoError(err)
	s.Equal(domain.TicketFrom64(4242), accepted.Record.NewTicket)
	s.Equal(domain.NonceFrom64(7), accepted.Record.ReplayNonce)
	s.NoError(authorization.Verify(accepted.Record.Commitment, accepted.Attestation.Signature, accepted.Attestation.PublicKey))

	issued, err := s.service.IsIssued(s.ctx, domain.TicketFrom64(4242))
	s.Require().NoError(err)
	s.True(issued)

	s.Equal(1.0, testutil.ToFloat64(s.metrics.ProofSubmissions.WithLabelValues("accepted")))
	events, err := s.audit.ListByType(s.ctx, audit.EventProofAccepted)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal("4242", events[0].Ticket)
}

func (s *ServiceSuite) TestSubmitRejectsReplay() {
	state, opening, att := s.enroll(8)
	s.Require().NoError(s.submit(s.prove(state, opening, att, 100)))

	// A second proof from the same prior state reveals the same replay nonce.
	err := s.submit(s.prove(state, opening, att, 101))
	s.True(dErrors.HasCode(err, dErrors.CodeReplayDetected))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ReplaysRejected))

	issued, err := s.service.IsIssued(s.ctx, domain.TicketFrom64(101))
	s.Require().NoError(err)
	s.False(issued)

	events, err := s.audit.ListByType(s.ctx, audit.EventReplayRejected)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *ServiceSuite) TestSubmitChainsContinuations() {
	state, opening, att := s.enroll(9)
	receipt, outcome, err := s.engine.Prove(s.ctx, continuation.PrivateInput{
		State:             state,
		OldNonce:          opening,
		NewNonce:          domain.NonceFrom64(31),
		ClaimedCommitment: att.Commitment,
		ServerSignature:   att.Signature,
		ServerKey:         att.PublicKey,
		NewTicket:         domain.TicketFrom64(300),
		NextInternalNonce: rotateTo(32),
	})
	s.Require().NoError(err)
	accepted, err := s.service.Submit(s.ctx, receipt)
	s.Require().NoError(err)

	next := accepted.Attestation
	s.Require().NoError(s.submit(s.prove(outcome.State, domain.NonceFrom64(31), &next, 301)))
}

func (s *ServiceSuite) TestSubmitRejectsInvalidProof() {
	state, opening, att := s.enroll(10)
	receipt := s.prove(state, opening, att, 500)
	receipt.Seal[0] ^= 0xff

	err := s.submit(receipt)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidProof))
	s.True(errors.Is(err, prover.ErrInvalidSeal))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ProofSubmissions.WithLabelValues("invalid")))

	events, err := s.audit.ListByType(s.ctx, audit.EventProofRejected)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *ServiceSuite) TestSubmitRejectsOtherProgram() {
	svc := New(s.store, s.guard, s.engine, s.signer, WithProgramID(prover.ProgramIDFor("other")))
	state, opening, att := s.enroll(11)

	_, err := svc.Submit(s.ctx, s.prove(state, opening, att, 600))
	s.True(errors.Is(err, prover.ErrProgramMismatch))
}

func (s *ServiceSuite) TestConflictReleasesNonce() {
	state, opening, att := s.enroll(12)
	receipt := s.prove(state, opening, att, 700)
	journal, err := s.engine.Verify(receipt, prover.DefaultProgramID)
	s.Require().NoError(err)

	// Pre-record the commitment under a different nonce.
	s.Require().NoError(s.store.SaveRecord(s.ctx, models.Record{
		Commitment:  journal.NewCommitment,
		ReplayNonce: domain.NonceFrom64(1),
		NewTicket:   domain.TicketFrom64(1),
	}))

	err = s.submit(receipt)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.NoError(s.guard.Claim(s.ctx, journal.ReplayNonce), "nonce must be released after a failed write")
}

func (s *ServiceSuite) TestSubmitCancelledContext() {
	state, opening, att := s.enroll(13)
	receipt := s.prove(state, opening, att, 800)

	ctx, cancel := context.WithCancel(s.ctx)
	cancel()
	_, err := s.service.Submit(ctx, receipt)
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *ServiceSuite) submit(r *prover.Receipt) error {
	_, err := s.service.Submit(s.ctx, r)
	return err
}
