package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/authgate/internal/models"
)

type twoFAChallenge struct {
	attemptID models.LoginAttemptID
	code      models.TwoFACode
	expiresAt time.Time
}

// MemoryTwoFACodeStore keeps 2FA challenges in process memory. A challenge
// older than ttl reads as absent.
type MemoryTwoFACodeStore struct {
	mu         sync.RWMutex
	challenges map[string]twoFAChallenge
	ttl        time.Duration
	now        func() time.Time
}

func NewMemoryTwoFACodeStore(ttl time.Duration) *MemoryTwoFACodeStore {
	return &MemoryTwoFACodeStore{
		challenges: make(map[string]twoFAChallenge),
		ttl:        ttl,
		now:        time.Now,
	}
}

// WithClock replaces the time source, for tests
func (s *MemoryTwoFACodeStore) WithClock(now func() time.Time) *MemoryTwoFACodeStore {
	s.now = now
	return s
}

func (s *MemoryTwoFACodeStore) AddCode(_ context.Context, email models.Email, attemptID models.LoginAttemptID, code models.TwoFACode) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.challenges[email.String()] = twoFAChallenge{
		attemptID: attemptID,
		code:      code,
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryTwoFACodeStore) GetCode(_ context.Context, email models.Email) (models.LoginAttemptID, models.TwoFACode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	challenge, ok := s.challenges[email.String()]
	if !ok || !challenge.expiresAt.After(s.now()) {
		return "", models.TwoFACode{}, models.ErrChallengeNotFound
	}
	return challenge.attemptID, challenge.code, nil
}

func (s *MemoryTwoFACodeStore) RemoveCode(_ context.Context, email models.Email) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := email.String()
	challenge, ok := s.challenges[key]
	if !ok {
		return models.ErrChallengeNotFound
	}
	delete(s.challenges, key)

	if !challenge.expiresAt.After(s.now()) {
		return models.ErrChallengeNotFound
	}
	return nil
}

func (s *MemoryTwoFACodeStore) RemoveCodeIfMatch(_ context.Context, email models.Email, attemptID models.LoginAttemptID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := email.String()
	challenge, ok := s.challenges[key]
	if !ok || !challenge.attemptID.Equal(attemptID) {
		return models.ErrChallengeNotFound
	}
	delete(s.challenges, key)

	if !challenge.expiresAt.After(s.now()) {
		return models.ErrChallengeNotFound
	}
	return nil
}

// PurgeExpired removes challenges that expired before now
func (s *MemoryTwoFACodeStore) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, challenge := range s.challenges {
		if !challenge.expiresAt.After(now) {
			delete(s.challenges, key)
			removed++
		}
	}
	return removed
}
