// Package auth implements registration, login, and session resolution for
// the dashboard API. Sessions are opaque random tokens stored server-side;
// passwords are bcrypt-hashed.
package auth

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"skycast/internal/types"
)

// sessionTokenPrefix marks tokens as session credentials in logs and tooling
// without revealing anything about their contents.
const sessionTokenPrefix = "sess_"

// sessionTokenBytes is the entropy of a session token before hex encoding.
const sessionTokenBytes = 32

// PasswordHasher abstracts bcrypt operations for testability.
type PasswordHasher interface {
	CompareHashAndPassword(hashedPassword, password string) error
	GenerateFromPassword(password string) (string, error)
}

// bcryptHasher is the production implementation of PasswordHasher.
type bcryptHasher struct {
	cost int
}

func (b *bcryptHasher) CompareHashAndPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func (b *bcryptHasher) GenerateFromPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), b.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Service wires user and session persistence into the auth flows. It also
// implements the server's Authenticator so the HTTP layer can resolve
// bearer tokens without knowing about sessions.
type Service struct {
	users      types.UserRepository
	sessions   types.SessionRepository
	hasher     PasswordHasher
	secret     []byte
	sessionTTL time.Duration
	clock      types.Clock
	logger     *slog.Logger
}

// ServiceConfig holds the dependencies for creating a Service.
type ServiceConfig struct {
	Users    types.UserRepository
	Sessions types.SessionRepository
	Hasher   PasswordHasher
	// SessionSecret keys the HMAC applied to session tokens before they
	// are persisted. Clients hold the raw token; the store only ever sees
	// the digest.
	SessionSecret string
	BcryptCost    int
	SessionTTL    time.Duration
	Clock         types.Clock
	Logger        *slog.Logger
}

// NewService creates an auth Service. If Hasher is nil, a bcrypt hasher with
// the configured cost is used. If Clock is nil, RealClock is used.
func NewService(cfg ServiceConfig) *Service {
	hasher := cfg.Hasher
	if hasher == nil {
		cost := cfg.BcryptCost
		if cost == 0 {
			cost = bcrypt.DefaultCost
		}
		hasher = &bcryptHasher{cost: cost}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &Service{
		users:      cfg.Users,
		sessions:   cfg.Sessions,
		hasher:     hasher,
		secret:     []byte(cfg.SessionSecret),
		sessionTTL: ttl,
		clock:      clock,
		logger:     logger,
	}
}

// Register creates a new user with default preferences and logs them in,
// returning the user and a fresh session token.
func (s *Service) Register(ctx context.Context, username, email, password string) (*types.User, string, error) {
	hash, err := s.hasher.GenerateFromPassword(password)
	if err != nil {
		return nil, "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to hash password", err)
	}

	now := s.clock.Now().UTC()
	user := &types.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hash,
		Preferences:  types.DefaultPreferences(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	return user, token, nil
}

// Login verifies credentials and creates a session. Lookup failures and
// password mismatches both surface as invalid credentials so the endpoint
// does not leak which emails are registered.
func (s *Service) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) && appErr.Code == types.ErrCodeNotFoundUser {
			return nil, "", types.NewAppError(types.ErrCodeAuthInvalidCreds, "invalid email or password", nil)
		}
		return nil, "", err
	}

	if err := s.hasher.CompareHashAndPassword(user.PasswordHash, password); err != nil {
		s.logger.Warn("failed login attempt", slog.String("user_id", user.ID))
		return nil, "", types.NewAppError(types.ErrCodeAuthInvalidCreds, "invalid email or password", nil)
	}

	token, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout deletes the session for the given token. Unknown tokens are a
// no-op so logout stays idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, s.digestToken(token))
}

// ResolveToken implements core.Authenticator: it maps a bearer token to the
// owning user, rejecting unknown and expired sessions.
func (s *Service) ResolveToken(ctx context.Context, token string) (*types.User, error) {
	session, err := s.sessions.GetByToken(ctx, s.digestToken(token))
	if err != nil {
		return nil, err
	}

	if s.clock.Now().After(session.ExpiresAt) {
		// Lazy cleanup; the periodic sweeper catches the rest.
		if delErr := s.sessions.Delete(ctx, session.Token); delErr != nil {
			s.logger.Warn("failed to delete expired session", slog.String("error", delErr.Error()))
		}
		return nil, types.NewAppError(types.ErrCodeAuthSessionExpired, "session expired", nil)
	}

	return s.users.GetByID(ctx, session.UserID)
}

// PurgeExpiredSessions removes sessions past their expiry. Intended to run
// periodically from the server loop.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.clock.Now())
}

func (s *Service) createSession(ctx context.Context, userID string) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", types.NewAppError(types.ErrCodeInternalUnexpected, "failed to generate session token", err)
	}

	now := s.clock.Now().UTC()
	session := &types.Session{
		Token:     s.digestToken(token),
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}
	return token, nil
}

// digestToken keys session rows with an HMAC of the raw token so a leaked
// sessions table cannot be replayed as bearer credentials.
func (s *Service) digestToken(token string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

func generateSessionToken() (string, error) {
	b := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read entropy: %w", err)
	}
	return sessionTokenPrefix + hex.EncodeToString(b), nil
}
