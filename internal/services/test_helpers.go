package services

import (
	"context"
	"sync"
	"time"

	"github.com/BradenHooton/authgate/internal/models"
)

// MockUserStore implements repositories.UserStore for testing
type MockUserStore struct {
	AddUserFunc      func(ctx context.Context, user *models.User) error
	GetUserFunc      func(ctx context.Context, email models.Email) (*models.User, error)
	ValidateUserFunc func(ctx context.Context, email models.Email, password models.Password) error
}

func (m *MockUserStore) AddUser(ctx context.Context, user *models.User) error {
	if m.AddUserFunc != nil {
		return m.AddUserFunc(ctx, user)
	}
	return nil
}

func (m *MockUserStore) GetUser(ctx context.Context, email models.Email) (*models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserStore) ValidateUser(ctx context.Context, email models.Email, password models.Password) error {
	if m.ValidateUserFunc != nil {
		return m.ValidateUserFunc(ctx, email, password)
	}
	return models.ErrNotFound
}

// MockBannedTokenStore implements repositories.BannedTokenStore for testing
type MockBannedTokenStore struct {
	AddBannedTokenFunc func(ctx context.Context, token models.Secret, expiresAt time.Time) error
	IsBannedFunc       func(ctx context.Context, token models.Secret) (bool, error)
}

func (m *MockBannedTokenStore) AddBannedToken(ctx context.Context, token models.Secret, expiresAt time.Time) error {
	if m.AddBannedTokenFunc != nil {
		return m.AddBannedTokenFunc(ctx, token, expiresAt)
	}
	return nil
}

func (m *MockBannedTokenStore) IsBanned(ctx context.Context, token models.Secret) (bool, error) {
	if m.IsBannedFunc != nil {
		return m.IsBannedFunc(ctx, token)
	}
	return false, nil
}

// MockTwoFACodeStore implements repositories.TwoFACodeStore for testing
type MockTwoFACodeStore struct {
	AddCodeFunc    func(ctx context.Context, email models.Email, attemptID models.LoginAttemptID, code models.TwoFACode) error
	GetCodeFunc    func(ctx context.Context, email models.Email) (models.LoginAttemptID, models.TwoFACode, error)
	RemoveCodeFunc func(ctx context.Context, email models.Email) error

	RemoveCodeIfMatchFunc func(ctx context.Context, email models.Email, attemptID models.LoginAttemptID) error
}

func (m *MockTwoFACodeStore) AddCode(ctx context.Context, email models.Email, attemptID models.LoginAttemptID, code models.TwoFACode) error {
	if m.AddCodeFunc != nil {
		return m.AddCodeFunc(ctx, email, attemptID, code)
	}
	return nil
}

func (m *MockTwoFACodeStore) GetCode(ctx context.Context, email models.Email) (models.LoginAttemptID, models.TwoFACode, error) {
	if m.GetCodeFunc != nil {
		return m.GetCodeFunc(ctx, email)
	}
	return "", models.TwoFACode{}, models.ErrChallengeNotFound
}

func (m *MockTwoFACodeStore) RemoveCode(ctx context.Context, email models.Email) error {
	if m.RemoveCodeFunc != nil {
		return m.RemoveCodeFunc(ctx, email)
	}
	return nil
}

func (m *MockTwoFACodeStore) RemoveCodeIfMatch(ctx context.Context, email models.Email, attemptID models.LoginAttemptID) error {
	if m.RemoveCodeIfMatchFunc != nil {
		return m.RemoveCodeIfMatchFunc(ctx, email, attemptID)
	}
	return nil
}

// SentEmail is one message captured by MockNotifier
type SentEmail struct {
	To      models.Email
	Subject string
	Content string
}

// MockNotifier records sent emails. SendEmailFunc, when set, decides the result.
type MockNotifier struct {
	SendEmailFunc func(ctx context.Context, recipient models.Email, subject, content string) error

	mu   sync.Mutex
	Sent []SentEmail
}

func (m *MockNotifier) SendEmail(ctx context.Context, recipient models.Email, subject, content string) error {
	if m.SendEmailFunc != nil {
		if err := m.SendEmailFunc(ctx, recipient, subject, content); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentEmail{To: recipient, Subject: subject, Content: content})
	return nil
}

// LastCode returns the content of the most recent email
func (m *MockNotifier) LastCode() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return ""
	}
	return m.Sent[len(m.Sent)-1].Content
}
