package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/authgate/internal/database"
	"github.com/BradenHooton/authgate/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserStore persists users in the users table. Email uniqueness is
// enforced by the primary key.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

func NewPostgresUserStore(db *database.DB) *PostgresUserStore {
	return &PostgresUserStore{pool: db.Pool}
}

func (s *PostgresUserStore) AddUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, requires_2fa)
		VALUES ($1, $2, $3)
	`

	if _, err := s.pool.Exec(ctx, query, user.Email.String(), user.PasswordHash, user.Requires2FA); err != nil {
		return fmt.Errorf("failed to insert user: %w", database.MapPostgresError(err))
	}
	return nil
}

func (s *PostgresUserStore) GetUser(ctx context.Context, email models.Email) (*models.User, error) {
	query := `SELECT email, password_hash, requires_2fa FROM users WHERE email = $1`

	var (
		rawEmail string
		user     models.User
	)
	err := s.pool.QueryRow(ctx, query, email.String()).Scan(&rawEmail, &user.PasswordHash, &user.Requires2FA)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.Email, err = models.ParseEmail(rawEmail)
	if err != nil {
		return nil, fmt.Errorf("stored email is invalid: %v", err)
	}
	return &user, nil
}

func (s *PostgresUserStore) ValidateUser(ctx context.Context, email models.Email, password models.Password) error {
	user, err := s.GetUser(ctx, email)
	return verifyUserPassword(user, err, password)
}
