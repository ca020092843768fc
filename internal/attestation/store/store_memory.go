package store

import (
	"context"
	"sync"

	"ghostpost/internal/attestation/models"
	"ghostpost/internal/continuation"
	"ghostpost/pkg/domain"
	"ghostpost/pkg/platform/sentinel"
)

// InMemoryStore is the commitment ledger for single-process deployments.
type InMemoryStore struct {
	mu          sync.RWMutex
	enrollments map[domain.UserID]models.Enrollment
	commitments map[continuation.Commitment]struct{}
	records     []models.Record
	issued      map[domain.Ticket]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		enrollments: make(map[domain.UserID]models.Enrollment),
		commitments: make(map[continuation.Commitment]struct{}),
		issued:      make(map[domain.Ticket]struct{}),
	}
}

func (s *InMemoryStore) SaveEnrollment(_ context.Context, e models.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.enrollments[e.UserID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.commitments[e.Commitment]; ok {
		return sentinel.ErrConflict
	}
	s.enrollments[e.UserID] = e
	s.commitments[e.Commitment] = struct{}{}
	return nil
}

func (s *InMemoryStore) FindEnrollment(_ context.Context, userID domain.UserID) (*models.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enrollments[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &e, nil
}

func (s *InMemoryStore) SaveRecord(_ context.Context, r models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.commitments[r.Commitment]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.issued[r.NewTicket]; ok {
		return sentinel.ErrConflict
	}
	s.commitments[r.Commitment] = struct{}{}
	s.issued[r.NewTicket] = struct{}{}
	s.records = append(s.records, r)
	return nil
}

func (s *InMemoryStore) IsIssued(_ context.Context, ticket domain.Ticket) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.issued[ticket]
	return ok, nil
}

// Records returns accepted continuations in order.
func (s *InMemoryStore) Records(_ context.Context) ([]models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Record{}, s.records...), nil
}

// InMemoryNonceGuard remembers spent replay nonces in process memory.
type InMemoryNonceGuard struct {
	mu    sync.Mutex
	spent map[domain.Nonce]struct{}
}

func NewInMemoryNonceGuard() *InMemoryNonceGuard {
	return &InMemoryNonceGuard{spent: make(map[domain.Nonce]struct{})}
}

func (g *InMemoryNonceGuard) Claim(_ context.Context, nonce domain.Nonce) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.spent[nonce]; ok {
		return sentinel.ErrAlreadyUsed
	}
	g.spent[nonce] = struct{}{}
	return nil
}

func (g *InMemoryNonceGuard) Release(_ context.Context, nonce domain.Nonce) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.spent, nonce)
	return nil
}
