package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"subtrack/internal/types"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *types.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*types.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*types.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*types.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*types.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockSessionRepo struct {
	mock.Mock
}

func (m *mockSessionRepo) Create(ctx context.Context, session *types.Session) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionRepo) GetByToken(ctx context.Context, token string) (*types.Session, error) {
	args := m.Called(ctx, token)
	if s := args.Get(0); s != nil {
		return s.(*types.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockSessionRepo) Delete(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

// fakeHasher avoids real bcrypt work in tests.
type fakeHasher struct{}

func (fakeHasher) CompareHashAndPassword(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return errors.New("mismatch")
	}
	return nil
}

func (fakeHasher) GenerateFromPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time { return c.now }

func newTestService(users *mockUserRepo, sessions *mockSessionRepo, clock types.Clock) *Service {
	return NewService(ServiceConfig{
		Users:      users,
		Sessions:   sessions,
		Hasher:     fakeHasher{},
		SessionTTL: 7 * 24 * time.Hour,
		Clock:      clock,
		Logger:     slog.New(slog.DiscardHandler),
	})
}

func TestService_Signup(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(users, sessions, fixedClock{now})
	ctx := context.Background()

	users.On("Create", ctx, mock.MatchedBy(func(u *types.User) bool {
		return u.Email == "new@example.com" && u.PasswordHash == "hashed:pw123456" && u.ID != ""
	})).Return(nil)
	sessions.On("Create", ctx, mock.MatchedBy(func(s *types.Session) bool {
		return strings.HasPrefix(s.Token, "sess_") && s.ExpiresAt.Equal(now.Add(7*24*time.Hour))
	})).Return(nil)

	user, session, err := svc.Signup(ctx, "  NEW@Example.com ", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email, "email must be canonicalized")
	assert.Equal(t, user.ID, session.UserID)
	users.AssertExpectations(t)
	sessions.AssertExpectations(t)
}

func TestService_Signup_DuplicateEmail(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions, types.RealClock{})

	conflict := types.NewAppError(types.ErrCodeConflictEmail, "email is already registered", nil)
	users.On("Create", mock.Anything, mock.Anything).Return(conflict)

	_, _, err := svc.Signup(context.Background(), "dup@example.com", "pw123456")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeConflictEmail, appErr.Code)
	sessions.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestService_Login_Success(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions, types.RealClock{})
	ctx := context.Background()

	users.On("GetByEmail", ctx, "test@example.com").
		Return(&types.User{ID: "u123", Email: "test@example.com", PasswordHash: "hashed:correct"}, nil)
	sessions.On("Create", ctx, mock.Anything).Return(nil)

	user, session, err := svc.Login(ctx, "test@example.com", "correct")
	require.NoError(t, err)
	assert.Equal(t, "u123", user.ID)
	assert.True(t, strings.HasPrefix(session.Token, "sess_"))
}

func TestService_Login_WrongPassword(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions, types.RealClock{})

	users.On("GetByEmail", mock.Anything, "test@example.com").
		Return(&types.User{ID: "u123", PasswordHash: "hashed:correct"}, nil)

	_, _, err := svc.Login(context.Background(), "test@example.com", "wrong")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeAuthInvalidCreds, appErr.Code)
}

func TestService_Login_UnknownEmailMaskedAsInvalidCreds(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions, types.RealClock{})

	notFound := types.NewAppError(types.ErrCodeNotFoundUser, "user not found", nil)
	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, notFound)

	_, _, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeAuthInvalidCreds, appErr.Code,
		"unknown emails must be indistinguishable from wrong passwords")
}

func TestService_Logout(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions, types.RealClock{})
	ctx := context.Background()

	sessions.On("Delete", ctx, "sess_abc").Return(nil)

	require.NoError(t, svc.Logout(ctx, "sess_abc"))
	sessions.AssertExpectations(t)
}

func TestService_ResolveToken_Valid(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(users, sessions, fixedClock{now})
	ctx := context.Background()

	sessions.On("GetByToken", ctx, "sess_abc").
		Return(&types.Session{Token: "sess_abc", UserID: "u123", ExpiresAt: now.Add(time.Hour)}, nil)
	users.On("GetByID", ctx, "u123").
		Return(&types.User{ID: "u123", Email: "test@example.com"}, nil)

	actor, err := svc.ResolveToken(ctx, "sess_abc")
	require.NoError(t, err)
	assert.Equal(t, "u123", actor.ID)
	assert.Equal(t, "test@example.com", actor.Email)
}

func TestService_ResolveToken_Expired(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestService(users, sessions, fixedClock{now})
	ctx := context.Background()

	sessions.On("GetByToken", ctx, "sess_old").
		Return(&types.Session{Token: "sess_old", UserID: "u123", ExpiresAt: now.Add(-time.Minute)}, nil)
	sessions.On("Delete", ctx, "sess_old").Return(nil)

	_, err := svc.ResolveToken(ctx, "sess_old")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeAuthSessionExpired, appErr.Code)
	sessions.AssertCalled(t, "Delete", ctx, "sess_old")
}

func TestService_ResolveToken_Unknown(t *testing.T) {
	users := new(mockUserRepo)
	sessions := new(mockSessionRepo)
	svc := newTestService(users, sessions, types.RealClock{})

	invalid := types.NewAppError(types.ErrCodeAuthTokenInvalid, "session not found", nil)
	sessions.On("GetByToken", mock.Anything, "sess_bogus").Return(nil, invalid)

	_, err := svc.ResolveToken(context.Background(), "sess_bogus")
	require.Error(t, err)

	var appErr *types.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, types.ErrCodeAuthTokenInvalid, appErr.Code)
}

func TestCryptoTokenGenerator(t *testing.T) {
	gen := CryptoTokenGenerator{}

	a, err := gen.GenerateSessionToken()
	require.NoError(t, err)
	b, err := gen.GenerateSessionToken()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "sess_"))
	assert.Len(t, a, len("sess_")+64)
	assert.NotEqual(t, a, b)
}

func TestCanonicalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", CanonicalizeEmail("  User@EXAMPLE.com "))
}
