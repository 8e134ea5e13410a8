package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/authgate/internal/models"
	"gorm.io/gorm"
)

// UserRecord is the GORM row for SQLiteUserStore
type UserRecord struct {
	Email        string `gorm:"primaryKey"`
	PasswordHash string `gorm:"not null"`
	Requires2FA  bool   `gorm:"column:requires_2fa;not null;default:false"`
	CreatedAt    time.Time
}

func (UserRecord) TableName() string {
	return "users"
}

// SQLiteUserStore persists users through GORM. The database must be opened
// with TranslateError enabled.
type SQLiteUserStore struct {
	db *gorm.DB
}

func NewSQLiteUserStore(db *gorm.DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

func (s *SQLiteUserStore) AddUser(ctx context.Context, user *models.User) error {
	record := UserRecord{
		Email:        user.Email.String(),
		PasswordHash: user.PasswordHash,
		Requires2FA:  user.Requires2FA,
	}

	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *SQLiteUserStore) GetUser(ctx context.Context, email models.Email) (*models.User, error) {
	var record UserRecord
	err := s.db.WithContext(ctx).Where("email = ?", email.String()).Take(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	parsed, err := models.ParseEmail(record.Email)
	if err != nil {
		return nil, fmt.Errorf("stored email is invalid: %v", err)
	}

	return &models.User{
		Email:        parsed,
		PasswordHash: record.PasswordHash,
		Requires2FA:  record.Requires2FA,
	}, nil
}

func (s *SQLiteUserStore) ValidateUser(ctx context.Context, email models.Email, password models.Password) error {
	user, err := s.GetUser(ctx, email)
	return verifyUserPassword(user, err, password)
}
