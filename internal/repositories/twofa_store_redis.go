package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/authgate/internal/models"
	"github.com/redis/go-redis/v9"
)

const twoFACodeKeyPrefix = "two_fa_code:"

// RedisTwoFACodeStore stores each challenge as JSON under a key that
// expires after ttl
type RedisTwoFACodeStore struct {
	redis redis.UniversalClient
	ttl   time.Duration
}

type twoFACodeRecord struct {
	LoginAttemptID string `json:"login_attempt_id"`
	Code           string `json:"code"`
}

func NewRedisTwoFACodeStore(client redis.UniversalClient, ttl time.Duration) *RedisTwoFACodeStore {
	return &RedisTwoFACodeStore{redis: client, ttl: ttl}
}

func twoFACodeKey(email models.Email) string {
	return twoFACodeKeyPrefix + email.String()
}

func (s *RedisTwoFACodeStore) AddCode(ctx context.Context, email models.Email, attemptID models.LoginAttemptID, code models.TwoFACode) error {
	payload, err := json.Marshal(twoFACodeRecord{
		LoginAttemptID: attemptID.String(),
		Code:           code.Expose(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode 2fa challenge: %w", err)
	}

	if err := s.redis.Set(ctx, twoFACodeKey(email), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store 2fa challenge: %w", err)
	}
	return nil
}

func (s *RedisTwoFACodeStore) GetCode(ctx context.Context, email models.Email) (models.LoginAttemptID, models.TwoFACode, error) {
	data, err := s.redis.Get(ctx, twoFACodeKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", models.TwoFACode{}, models.ErrChallengeNotFound
		}
		return "", models.TwoFACode{}, fmt.Errorf("failed to load 2fa challenge: %w", err)
	}

	var record twoFACodeRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return "", models.TwoFACode{}, fmt.Errorf("failed to decode 2fa challenge: %w", err)
	}

	attemptID, err := models.ParseLoginAttemptID(record.LoginAttemptID)
	if err != nil {
		return "", models.TwoFACode{}, fmt.Errorf("stored login attempt id is invalid: %v", err)
	}
	code, err := models.ParseTwoFACode(record.Code)
	if err != nil {
		return "", models.TwoFACode{}, fmt.Errorf("stored 2fa code is invalid: %v", err)
	}

	return attemptID, code, nil
}

func (s *RedisTwoFACodeStore) RemoveCode(ctx context.Context, email models.Email) error {
	n, err := s.redis.Del(ctx, twoFACodeKey(email)).Result()
	if err != nil {
		return fmt.Errorf("failed to remove 2fa challenge: %w", err)
	}
	if n == 0 {
		return models.ErrChallengeNotFound
	}
	return nil
}

// RemoveCodeIfMatch deletes the challenge under WATCH so that a challenge
// replaced by a concurrent login is never removed on behalf of the old one.
func (s *RedisTwoFACodeStore) RemoveCodeIfMatch(ctx context.Context, email models.Email, attemptID models.LoginAttemptID) error {
	key := twoFACodeKey(email)

	err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return models.ErrChallengeNotFound
			}
			return fmt.Errorf("failed to load 2fa challenge: %w", err)
		}

		var record twoFACodeRecord
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("failed to decode 2fa challenge: %w", err)
		}
		stored, err := models.ParseLoginAttemptID(record.LoginAttemptID)
		if err != nil || !stored.Equal(attemptID) {
			return models.ErrChallengeNotFound
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrChallengeNotFound), errors.Is(err, redis.TxFailedErr):
		return models.ErrChallengeNotFound
	default:
		return fmt.Errorf("failed to remove 2fa challenge: %w", err)
	}
}
