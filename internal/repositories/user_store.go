package repositories

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BradenHooton/authgate/internal/models"
	"github.com/BradenHooton/authgate/pkg/auth"
)

// MemoryUserStore keeps users for the lifetime of the process
type MemoryUserStore struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{users: make(map[string]models.User)}
}

func (s *MemoryUserStore) AddUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := user.Email.String()
	if _, exists := s.users[key]; exists {
		return models.ErrConflict
	}
	s.users[key] = *user
	return nil
}

func (s *MemoryUserStore) GetUser(_ context.Context, email models.Email) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[email.String()]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &user, nil
}

func (s *MemoryUserStore) ValidateUser(ctx context.Context, email models.Email, password models.Password) error {
	user, err := s.GetUser(ctx, email)
	return verifyUserPassword(user, err, password)
}

// verifyUserPassword checks password against the user returned by a lookup.
// An unknown email still costs one hash comparison.
func verifyUserPassword(user *models.User, lookupErr error, password models.Password) error {
	if lookupErr != nil {
		if errors.Is(lookupErr, models.ErrNotFound) {
			auth.CompareDummy(password.Expose())
		}
		return lookupErr
	}

	err := auth.ComparePassword(user.PasswordHash, password.Expose())
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrMismatchedPassword):
		return models.ErrPasswordMismatch
	default:
		return fmt.Errorf("failed to verify password: %w", err)
	}
}
