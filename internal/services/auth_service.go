package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/authgate/internal/auth"
	"github.com/BradenHooton/authgate/internal/models"
	"github.com/BradenHooton/authgate/internal/notify"
	"github.com/BradenHooton/authgate/internal/repositories"
	pkgauth "github.com/BradenHooton/authgate/pkg/auth"
	pkglogger "github.com/BradenHooton/authgate/pkg/logger"
)

const (
	twoFAEmailSubject    = "Your 2FA code"
	defaultNotifyTimeout = 10 * time.Second
)

// Dependencies are the collaborators of AuthService. Backends are chosen by
// the caller.
type Dependencies struct {
	Users         repositories.UserStore
	BannedTokens  repositories.BannedTokenStore
	TwoFACodes    repositories.TwoFACodeStore
	Tokens        *auth.TokenManager
	Notifier      notify.Notifier
	Timing        *auth.TimingDelay
	Logger        *slog.Logger
	Events        *pkglogger.AuthEventLogger
	NotifyTimeout time.Duration
}

// AuthService sequences the signup, login, verify-2fa, logout and
// verify-token flows. Every error it returns matches exactly one of the
// models flow sentinels under errors.Is.
type AuthService struct {
	users         repositories.UserStore
	banned        repositories.BannedTokenStore
	codes         repositories.TwoFACodeStore
	tm            *auth.TokenManager
	notifier      notify.Notifier
	timing        *auth.TimingDelay
	logger        *slog.Logger
	events        *pkglogger.AuthEventLogger
	notifyTimeout time.Duration
}

func NewAuthService(deps Dependencies) *AuthService {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Events == nil {
		deps.Events = pkglogger.NewAuthEventLogger(deps.Logger)
	}
	if deps.NotifyTimeout <= 0 {
		deps.NotifyTimeout = defaultNotifyTimeout
	}

	return &AuthService{
		users:         deps.Users,
		banned:        deps.BannedTokens,
		codes:         deps.TwoFACodes,
		tm:            deps.Tokens,
		notifier:      deps.Notifier,
		timing:        deps.Timing,
		logger:        deps.Logger,
		events:        deps.Events,
		notifyTimeout: deps.NotifyTimeout,
	}
}

// LoginResult carries a session when login completed, or the attempt id of
// the 2FA challenge that must be answered first
type LoginResult struct {
	Session        *models.Session
	LoginAttemptID models.LoginAttemptID
}

func (r *LoginResult) Requires2FA() bool {
	return r.Session == nil
}

// unexpected logs cause and returns it wrapped in models.ErrUnexpected
func (s *AuthService) unexpected(ctx context.Context, msg string, cause error) error {
	s.logger.ErrorContext(ctx, msg, slog.Any("error", cause))
	return fmt.Errorf("%w: %s: %w", models.ErrUnexpected, msg, cause)
}

// Signup registers a new user
func (s *AuthService) Signup(ctx context.Context, rawEmail, rawPassword string, requires2FA bool) error {
	email, err := models.ParseEmail(rawEmail)
	if err != nil {
		return err
	}
	password, err := models.ParsePassword(rawPassword)
	if err != nil {
		return err
	}

	if _, err := s.users.GetUser(ctx, email); err == nil {
		s.logger.InfoContext(ctx, "signup rejected: email taken", slog.Any("email", email))
		return models.ErrUserAlreadyExists
	} else if !errors.Is(err, models.ErrNotFound) {
		return s.unexpected(ctx, "failed to check existing user", err)
	}

	hash, err := pkgauth.HashPassword(password.Expose())
	if err != nil {
		return s.unexpected(ctx, "failed to hash password", err)
	}

	user := &models.User{Email: email, PasswordHash: hash, Requires2FA: requires2FA}
	if err := s.users.AddUser(ctx, user); err != nil {
		// A concurrent signup can pass the pre-check; the store has the final say.
		if errors.Is(err, models.ErrConflict) {
			return models.ErrUserAlreadyExists
		}
		return s.unexpected(ctx, "failed to add user", err)
	}

	s.logger.InfoContext(ctx, "user signed up", slog.Any("email", email), slog.Bool("requires_2fa", requires2FA))
	s.events.Log(ctx, pkglogger.AuthEvent{EventType: pkglogger.EventSignup, Email: email.String(), Success: true})
	return nil
}

// Login checks credentials. It returns a session, or starts a 2FA challenge
// for users that require one.
func (s *AuthService) Login(ctx context.Context, rawEmail, rawPassword string) (*LoginResult, error) {
	start := time.Now()

	email, err := models.ParseEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	password, err := models.ParsePassword(rawPassword)
	if err != nil {
		return nil, err
	}

	if err := s.users.ValidateUser(ctx, email, password); err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrPasswordMismatch) {
			s.events.Log(ctx, pkglogger.AuthEvent{
				EventType:     pkglogger.EventLoginFailed,
				Email:         email.String(),
				FailureReason: "invalid_credentials",
			})
			s.timing.WaitFrom(ctx, start)
			return nil, models.ErrIncorrectCredentials
		}
		return nil, s.unexpected(ctx, "failed to validate user", err)
	}

	user, err := s.users.GetUser(ctx, email)
	if err != nil {
		return nil, s.unexpected(ctx, "failed to load validated user", err)
	}

	if !user.Requires2FA {
		session, err := s.tm.Issue(email)
		if err != nil {
			return nil, s.unexpected(ctx, "failed to issue session token", err)
		}
		s.events.Log(ctx, pkglogger.AuthEvent{EventType: pkglogger.EventLoginSuccess, Email: email.String(), Success: true})
		return &LoginResult{Session: session}, nil
	}

	attemptID, err := s.startChallenge(ctx, email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{LoginAttemptID: attemptID}, nil
}

// startChallenge stores a fresh challenge for email, replacing any earlier
// one, and emails the code. A failed send leaves the stored challenge in
// place; the next login replaces it.
func (s *AuthService) startChallenge(ctx context.Context, email models.Email) (models.LoginAttemptID, error) {
	attemptID := models.NewLoginAttemptID()
	code, err := models.NewTwoFACode()
	if err != nil {
		return "", s.unexpected(ctx, "failed to generate 2fa code", err)
	}

	if err := s.codes.AddCode(ctx, email, attemptID, code); err != nil {
		return "", s.unexpected(ctx, "failed to store 2fa challenge", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.notifyTimeout)
	defer cancel()

	if err := s.notifier.SendEmail(sendCtx, email, twoFAEmailSubject, code.Expose()); err != nil {
		return "", s.unexpected(ctx, "failed to send 2fa code", err)
	}

	s.events.Log(ctx, pkglogger.AuthEvent{EventType: pkglogger.EventChallengeIssued, Email: email.String(), Success: true})
	return attemptID, nil
}

// Verify2FA answers the outstanding challenge for email and issues a
// session. A challenge can be answered successfully once.
func (s *AuthService) Verify2FA(ctx context.Context, rawEmail, rawAttemptID, rawCode string) (*models.Session, error) {
	start := time.Now()

	email, err := models.ParseEmail(rawEmail)
	if err != nil {
		return nil, err
	}
	attemptID, err := models.ParseLoginAttemptID(rawAttemptID)
	if err != nil {
		return nil, err
	}
	code, err := models.ParseTwoFACode(rawCode)
	if err != nil {
		return nil, err
	}

	fail := func(reason string, cause error) error {
		s.events.Log(ctx, pkglogger.AuthEvent{
			EventType:     pkglogger.EventTwoFAFailed,
			Email:         email.String(),
			FailureReason: reason,
		})
		s.timing.WaitFrom(ctx, start)
		if cause != nil {
			return fmt.Errorf("%w: %w", models.ErrIncorrectCredentials, cause)
		}
		return models.ErrIncorrectCredentials
	}

	storedID, storedCode, err := s.codes.GetCode(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrChallengeNotFound) {
			return nil, fail("no_challenge", models.ErrChallengeNotFound)
		}
		return nil, s.unexpected(ctx, "failed to load 2fa challenge", err)
	}

	// Both comparisons always run.
	idMatches := storedID.Equal(attemptID)
	codeMatches := storedCode.Equal(code)
	if !idMatches || !codeMatches {
		return nil, fail("mismatch", nil)
	}

	// Removal is conditional on the checked attempt id: a challenge that was
	// consumed or replaced by a newer login since GetCode fails here.
	if err := s.codes.RemoveCodeIfMatch(ctx, email, storedID); err != nil {
		if errors.Is(err, models.ErrChallengeNotFound) {
			return nil, fail("superseded", models.ErrChallengeNotFound)
		}
		return nil, s.unexpected(ctx, "failed to remove 2fa challenge", err)
	}

	session, err := s.tm.Issue(email)
	if err != nil {
		return nil, s.unexpected(ctx, "failed to issue session token", err)
	}

	s.events.Log(ctx, pkglogger.AuthEvent{EventType: pkglogger.EventTwoFAVerified, Email: email.String(), Success: true})
	return session, nil
}

// Logout revokes token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, token models.Secret) error {
	claims, err := s.validate(ctx, token)
	if err != nil {
		return err
	}

	if err := s.banned.AddBannedToken(ctx, token, claims.ExpiresAt.Time); err != nil {
		return s.unexpected(ctx, "failed to ban token", err)
	}

	s.events.Log(ctx, pkglogger.AuthEvent{EventType: pkglogger.EventLogout, Email: claims.Subject, Success: true})
	return nil
}

// VerifyToken returns the claims of a live, unrevoked token
func (s *AuthService) VerifyToken(ctx context.Context, token models.Secret) (*models.TokenClaims, error) {
	return s.validate(ctx, token)
}

func (s *AuthService) validate(ctx context.Context, token models.Secret) (*models.TokenClaims, error) {
	if token.IsEmpty() {
		return nil, models.ErrMissingToken
	}

	claims, err := s.tm.ValidateToken(ctx, token)
	if err != nil {
		if errors.Is(err, models.ErrUnexpected) {
			return nil, s.unexpected(ctx, "failed to validate token", err)
		}
		s.logger.DebugContext(ctx, "token rejected", slog.Any("error", err))
		return nil, models.ErrInvalidToken
	}
	return claims, nil
}
