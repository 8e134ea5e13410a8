package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/authgate/internal/models"
)

// MemoryBannedTokenStore keeps revoked tokens in process memory. Entries
// stay until PurgeExpired drops those past their token's expiry.
type MemoryBannedTokenStore struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
}

func NewMemoryBannedTokenStore() *MemoryBannedTokenStore {
	return &MemoryBannedTokenStore{tokens: make(map[string]time.Time)}
}

func (s *MemoryBannedTokenStore) AddBannedToken(_ context.Context, token models.Secret, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[token.Expose()] = expiresAt
	return nil
}

func (s *MemoryBannedTokenStore) IsBanned(_ context.Context, token models.Secret) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, banned := s.tokens[token.Expose()]
	return banned, nil
}

// PurgeExpired removes entries whose token expired before now
func (s *MemoryBannedTokenStore) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, expiresAt := range s.tokens {
		if !expiresAt.After(now) {
			delete(s.tokens, token)
			removed++
		}
	}
	return removed
}

func (s *MemoryBannedTokenStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
