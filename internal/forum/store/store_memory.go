package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"ghostpost/internal/forum/models"
	"ghostpost/pkg/domain"
	"ghostpost/pkg/platform/sentinel"
)

// InMemoryUserStore keys accounts by case-folded username.
type InMemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewInMemoryUserStore() *InMemoryUserStore {
	return &InMemoryUserStore{users: make(map[string]*models.User)}
}

func (s *InMemoryUserStore) Save(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(u.Username)
	if _, ok := s.users[key]; ok {
		return sentinel.ErrConflict
	}
	cp := *u
	s.users[key] = &cp
	return nil
}

func (s *InMemoryUserStore) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[strings.ToLower(username)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// InMemoryPostStore holds posts and the tickets they consumed.
type InMemoryPostStore struct {
	mu      sync.RWMutex
	posts   map[domain.PostID]*models.Post
	tickets map[domain.Ticket]struct{}
}

func NewInMemoryPostStore() *InMemoryPostStore {
	return &InMemoryPostStore{
		posts:   make(map[domain.PostID]*models.Post),
		tickets: make(map[domain.Ticket]struct{}),
	}
}

func (s *InMemoryPostStore) Save(_ context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tickets[p.Ticket]; ok {
		return sentinel.ErrAlreadyUsed
	}
	cp := *p
	s.posts[p.ID] = &cp
	s.tickets[p.Ticket] = struct{}{}
	return nil
}

// List returns posts newest first.
func (s *InMemoryPostStore) List(_ context.Context) ([]*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		cp := *p
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a post. Its ticket stays consumed.
func (s *InMemoryPostStore) Delete(_ context.Context, id domain.PostID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	delete(s.posts, id)
	return p, nil
}
