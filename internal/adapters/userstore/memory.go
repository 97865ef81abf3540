package userstore

import (
	"context"
	"sync"
)

// MemoryStore implements Store with mutex-guarded maps.
type MemoryStore struct {
	mu         sync.RWMutex
	byID       map[string]User
	byUsername map[string]string // username -> id
}

// NewMemoryStore creates an empty in-memory user store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:       make(map[string]User),
		byUsername: make(map[string]string),
	}
}

// Create persists a new user, enforcing username uniqueness.
func (s *MemoryStore) Create(ctx context.Context, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byUsername[u.Username]; taken {
		return ErrUserExists
	}
	s.byUsername[u.Username] = u.UserID
	s.byID[u.UserID] = u
	return nil
}

// ByUsername looks a user up by their unique username.
func (s *MemoryStore) ByUsername(ctx context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[username]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return s.byID[id], nil
}

// ByID looks a user up by id.
func (s *MemoryStore) ByID(ctx context.Context, id string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}
