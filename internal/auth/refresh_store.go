package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/store"
)

// UserTokens is the slice of the user repository the refresh store needs.
type UserTokens interface {
	FindByID(ctx context.Context, id ids.ID) (models.User, error)
	SetRefreshToken(ctx context.Context, id ids.ID, token string) error
	ClearRefreshToken(ctx context.Context, id ids.ID) error
}

// UserRefreshStore keeps the refresh token on the user document.
type UserRefreshStore struct {
	users UserTokens
}

// NewUserRefreshStore wraps the user repository.
func NewUserRefreshStore(users UserTokens) *UserRefreshStore {
	return &UserRefreshStore{users: users}
}

// Save stores token on user.
func (s *UserRefreshStore) Save(ctx context.Context, user ids.ID, token string) error {
	return s.users.SetRefreshToken(ctx, user, token)
}

// Current returns the stored token of user.
func (s *UserRefreshStore) Current(ctx context.Context, user ids.ID) (string, error) {
	u, err := s.users.FindByID(ctx, user)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrSessionNotFound
	}
	if err != nil {
		return "", err
	}
	return u.RefreshToken, nil
}

// Revoke clears the stored token of user.
func (s *UserRefreshStore) Revoke(ctx context.Context, user ids.ID) error {
	return s.users.ClearRefreshToken(ctx, user)
}

// NewInMemoryRefreshStore returns a RefreshStore backed by an in-memory map.
func NewInMemoryRefreshStore() *InMemoryRefreshStore {
	return &InMemoryRefreshStore{tokens: make(map[ids.ID]string)}
}

// InMemoryRefreshStore implements RefreshStore for tests and local development.
type InMemoryRefreshStore struct {
	mu     sync.RWMutex
	tokens map[ids.ID]string
}

// Save records token as the active refresh token of user.
func (s *InMemoryRefreshStore) Save(_ context.Context, user ids.ID, token string) error {
	s.mu.Lock()
	s.tokens[user] = token
	s.mu.Unlock()
	return nil
}

// Current returns the active refresh token of user.
func (s *InMemoryRefreshStore) Current(_ context.Context, user ids.ID) (string, error) {
	s.mu.RLock()
	token, ok := s.tokens[user]
	s.mu.RUnlock()
	if !ok {
		return "", ErrSessionNotFound
	}
	return token, nil
}

// Revoke forgets the refresh token of user.
func (s *InMemoryRefreshStore) Revoke(_ context.Context, user ids.ID) error {
	s.mu.Lock()
	delete(s.tokens, user)
	s.mu.Unlock()
	return nil
}

// Has reports whether user holds a refresh token. Useful for tests.
func (s *InMemoryRefreshStore) Has(user ids.ID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tokens[user]
	return ok
}
