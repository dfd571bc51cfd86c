// Package auth implements account registration, credential verification, and
// bearer-token session management for the Subtrack API.
package auth

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"subtrack/internal/types"
)

// UserRepo defines the data access methods the Service needs for users.
type UserRepo interface {
	Create(ctx context.Context, user *types.User) error
	GetByID(ctx context.Context, id string) (*types.User, error)
	GetByEmail(ctx context.Context, email string) (*types.User, error)
}

// SessionRepo defines the data access methods the Service needs for sessions.
type SessionRepo interface {
	Create(ctx context.Context, session *types.Session) error
	GetByToken(ctx context.Context, token string) (*types.Session, error)
	Delete(ctx context.Context, token string) error
}

// PasswordHasher abstracts bcrypt operations for testability.
type PasswordHasher interface {
	CompareHashAndPassword(hashedPassword, password string) error
	GenerateFromPassword(password string) (string, error)
}

// bcryptHasher is the production PasswordHasher.
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

// Service implements signup, login, logout, and session resolution. It also
// satisfies the router's Authenticator contract via ResolveToken.
type Service struct {
	users      UserRepo
	sessions   SessionRepo
	hasher     PasswordHasher
	tokenGen   TokenGenerator
	sessionTTL time.Duration
	clock      types.Clock
	logger     *slog.Logger
}

// ServiceConfig holds the dependencies for creating a Service.
type ServiceConfig struct {
	Users      UserRepo
	Sessions   SessionRepo
	Hasher     PasswordHasher
	TokenGen   TokenGenerator
	SessionTTL time.Duration
	BcryptCost int
	Clock      types.Clock
	Logger     *slog.Logger
}

// NewService creates an auth Service. Nil Hasher, TokenGen, Clock, and Logger
// fall back to production defaults.
func NewService(cfg ServiceConfig) *Service {
	hasher := cfg.Hasher
	if hasher == nil {
		cost := cfg.BcryptCost
		if cost < bcrypt.MinCost {
			cost = bcrypt.DefaultCost
		}
		hasher = &bcryptHasher{cost: cost}
	}
	tokenGen := cfg.TokenGen
	if tokenGen == nil {
		tokenGen = CryptoTokenGenerator{}
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:      cfg.Users,
		sessions:   cfg.Sessions,
		hasher:     hasher,
		tokenGen:   tokenGen,
		sessionTTL: ttl,
		clock:      clock,
		logger:     logger,
	}
}

// Signup registers a new account and opens a session for it. The email is
// canonicalized before storage; a duplicate email surfaces as a conflict
// error from the repository.
func (s *Service) Signup(ctx context.Context, email, password string) (*types.User, *types.Session, error) {
	email = CanonicalizeEmail(email)

	hash, err := s.hasher.GenerateFromPassword(password)
	if err != nil {
		return nil, nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to hash password", err)
	}

	user := &types.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, err
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user signed up", "user_id", user.ID)
	return user, session, nil
}

// Login verifies credentials and opens a session. Both unknown emails and
// wrong passwords return the same generic credentials error so the endpoint
// cannot be used to enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*types.User, *types.Session, error) {
	email = CanonicalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if appErr, ok := err.(*types.AppError); ok && appErr.Code == types.ErrCodeNotFoundUser {
			return nil, nil, types.NewAppError(types.ErrCodeAuthInvalidCreds, "invalid email or password", nil)
		}
		return nil, nil, err
	}

	if err := s.hasher.CompareHashAndPassword(user.PasswordHash, password); err != nil {
		return nil, nil, types.NewAppError(types.ErrCodeAuthInvalidCreds, "invalid email or password", nil)
	}

	session, err := s.createSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, session, nil
}

// Logout deletes the session for the given token. Unknown tokens are not an
// error; logout is idempotent.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return err
	}
	s.logger.Info("session deleted")
	return nil
}

// ResolveToken maps a bearer token to the acting user. Returns
// auth_token_invalid for unknown tokens and auth_session_expired for sessions
// past their TTL. Expired sessions are deleted opportunistically.
func (s *Service) ResolveToken(ctx context.Context, token string) (*types.Actor, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.Expired(s.clock.Now()) {
		if delErr := s.sessions.Delete(ctx, token); delErr != nil {
			s.logger.Warn("failed to delete expired session", "error", delErr)
		}
		return nil, types.NewAppError(types.ErrCodeAuthSessionExpired, "session has expired", nil)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	return &types.Actor{ID: user.ID, Email: user.Email}, nil
}

func (s *Service) createSession(ctx context.Context, userID string) (*types.Session, error) {
	token, err := s.tokenGen.GenerateSessionToken()
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalUnexpected, "failed to generate session token", err)
	}

	now := s.clock.Now()
	session := &types.Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
