package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fieldverify/verification-portal-backend/internal/apperrors"
	"fieldverify/verification-portal-backend/internal/config"
)

type MockCredentialStore struct {
	mock.Mock
}

func (m *MockCredentialStore) CredentialsByEmail(ctx context.Context, email string) (*Credentials, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Credentials), args.Error(1)
}

func (m *MockCredentialStore) CredentialsByID(ctx context.Context, id primitive.ObjectID) (*Credentials, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Credentials), args.Error(1)
}

func testSecurityConfig() config.SecurityConfig {
	return config.SecurityConfig{
		JWTSecret:     "test-auth-secret",
		RefreshSecret: "test-refresh-secret",
		TokenExpiry:   3 * time.Minute,
		RefreshExpiry: 28 * 24 * time.Hour,
	}
}

func newTestService() (*Service, *MockCredentialStore) {
	store := new(MockCredentialStore)
	return NewService(store, testSecurityConfig(), zap.NewNop()), store
}

func storedCredentials(t *testing.T, password string) *Credentials {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &Credentials{
		ID:           primitive.NewObjectID(),
		Name:         "Ravi Kumar",
		Email:        "ravi.kumar@example.com",
		RoleLevel:    LevelAdmin,
		PasswordHash: string(hash),
	}
}

func TestLogin(t *testing.T) {
	t.Run("issues a verifiable token pair", func(t *testing.T) {
		svc, store := newTestService()
		creds := storedCredentials(t, "s3cret")
		store.On("CredentialsByEmail", mock.Anything, creds.Email).Return(creds, nil)

		pair, got, err := svc.Login(context.Background(), creds.Email, "s3cret")

		require.NoError(t, err)
		assert.Equal(t, creds.ID, got.ID)
		require.NotEmpty(t, pair.AuthToken)
		require.NotEmpty(t, pair.RefreshToken)
		assert.NotEqual(t, pair.AuthToken, pair.RefreshToken)

		p, err := svc.Verify(context.Background(), pair.AuthToken)
		require.NoError(t, err)
		assert.Equal(t, creds.ID, p.AccountID)
		assert.Equal(t, LevelAdmin, p.RoleLevel)
	})

	t.Run("wrong password", func(t *testing.T) {
		svc, store := newTestService()
		creds := storedCredentials(t, "s3cret")
		store.On("CredentialsByEmail", mock.Anything, creds.Email).Return(creds, nil)

		_, _, err := svc.Login(context.Background(), creds.Email, "guess")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("unknown email", func(t *testing.T) {
		svc, store := newTestService()
		store.On("CredentialsByEmail", mock.Anything, "nobody@example.com").
			Return(nil, apperrors.ErrNotFound)

		_, _, err := svc.Login(context.Background(), "nobody@example.com", "s3cret")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("disabled account fails like an unknown one", func(t *testing.T) {
		svc, store := newTestService()
		creds := storedCredentials(t, "s3cret")
		creds.Disabled = true
		store.On("CredentialsByEmail", mock.Anything, creds.Email).Return(creds, nil)

		_, _, err := svc.Login(context.Background(), creds.Email, "s3cret")

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("exchanges a refresh token for a new pair", func(t *testing.T) {
		svc, store := newTestService()
		creds := storedCredentials(t, "s3cret")
		store.On("CredentialsByEmail", mock.Anything, creds.Email).Return(creds, nil)
		store.On("CredentialsByID", mock.Anything, creds.ID).Return(creds, nil)

		pair, _, err := svc.Login(context.Background(), creds.Email, "s3cret")
		require.NoError(t, err)

		fresh, err := svc.Refresh(context.Background(), pair.RefreshToken)

		require.NoError(t, err)
		p, err := svc.Verify(context.Background(), fresh.AuthToken)
		require.NoError(t, err)
		assert.Equal(t, creds.ID, p.AccountID)
	})

	t.Run("auth token is not accepted as a refresh token", func(t *testing.T) {
		svc, store := newTestService()
		creds := storedCredentials(t, "s3cret")
		store.On("CredentialsByEmail", mock.Anything, creds.Email).Return(creds, nil)

		pair, _, err := svc.Login(context.Background(), creds.Email, "s3cret")
		require.NoError(t, err)

		_, err = svc.Refresh(context.Background(), pair.AuthToken)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		store.AssertNotCalled(t, "CredentialsByID", mock.Anything, mock.Anything)
	})

	t.Run("refresh fails once the account is disabled", func(t *testing.T) {
		svc, store := newTestService()
		creds := storedCredentials(t, "s3cret")
		store.On("CredentialsByEmail", mock.Anything, creds.Email).Return(creds, nil)

		pair, _, err := svc.Login(context.Background(), creds.Email, "s3cret")
		require.NoError(t, err)

		disabled := *creds
		disabled.Disabled = true
		store.On("CredentialsByID", mock.Anything, creds.ID).Return(&disabled, nil)

		_, err = svc.Refresh(context.Background(), pair.RefreshToken)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestVerify(t *testing.T) {
	t.Run("garbage token", func(t *testing.T) {
		svc, _ := newTestService()

		_, err := svc.Verify(context.Background(), "not-a-jwt")

		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		svc, store := newTestService()
		creds := storedCredentials(t, "s3cret")
		store.On("CredentialsByEmail", mock.Anything, creds.Email).Return(creds, nil)
		pair, _, err := svc.Login(context.Background(), creds.Email, "s3cret")
		require.NoError(t, err)

		other := testSecurityConfig()
		other.JWTSecret = "rotated-secret"
		stranger := NewService(store, other, zap.NewNop())

		_, err = stranger.Verify(context.Background(), pair.AuthToken)

		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("expired token", func(t *testing.T) {
		store := new(MockCredentialStore)
		cfg := testSecurityConfig()
		cfg.TokenExpiry = -time.Minute
		svc := NewService(store, cfg, zap.NewNop())
		creds := storedCredentials(t, "s3cret")
		store.On("CredentialsByEmail", mock.Anything, creds.Email).Return(creds, nil)

		pair, _, err := svc.Login(context.Background(), creds.Email, "s3cret")
		require.NoError(t, err)

		_, err = svc.Verify(context.Background(), pair.AuthToken)

		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})
}
