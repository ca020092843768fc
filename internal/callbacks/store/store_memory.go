package store

import (
	"context"
	"sync"

	"ghostpost/internal/callbacks/models"
	"ghostpost/pkg/domain"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	callbacks []models.Callback
	index     map[domain.Ticket]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{index: make(map[domain.Ticket]struct{})}
}

func (s *InMemoryStore) Add(_ context.Context, cb models.Callback) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[cb.Ticket]; ok {
		return false, nil
	}
	s.index[cb.Ticket] = struct{}{}
	s.callbacks = append(s.callbacks, cb)
	return true, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]models.Callback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Callback{}, s.callbacks...), nil
}

func (s *InMemoryStore) Contains(_ context.Context, tickets []domain.Ticket) ([]domain.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found []domain.Ticket
	for _, t := range tickets {
		if _, ok := s.index[t]; ok {
			found = append(found, t)
		}
	}
	return found, nil
}
