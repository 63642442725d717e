package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"fieldverify/verification-portal-backend/internal/apperrors"
	"fieldverify/verification-portal-backend/internal/config"
)

// Credentials is the minimal account view the auth service needs. The accounts
// repository implements CredentialStore over the same collection.
type Credentials struct {
	ID           primitive.ObjectID
	Name         string
	Email        string
	RoleLevel    RoleLevel
	PasswordHash string
	Disabled     bool
}

// CredentialStore resolves login credentials and principals.
type CredentialStore interface {
	CredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
	CredentialsByID(ctx context.Context, id primitive.ObjectID) (*Credentials, error)
}

// TokenPair is the access/refresh pair issued on login.
type TokenPair struct {
	AuthToken    string `json:"authToken"`
	RefreshToken string `json:"refreshToken"`
}

type claims struct {
	RoleLevel int `json:"roleLevel"`
	jwt.RegisteredClaims
}

// Service issues and verifies tokens and resolves principals.
type Service struct {
	store  CredentialStore
	cfg    config.SecurityConfig
	logger *zap.Logger
}

// NewService creates a new auth service
func NewService(store CredentialStore, cfg config.SecurityConfig, logger *zap.Logger) *Service {
	return &Service{store: store, cfg: cfg, logger: logger}
}

// Login verifies the password and issues a token pair. Unknown emails, wrong
// passwords and disabled accounts all fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*TokenPair, *Credentials, error) {
	creds, err := s.store.CredentialsByEmail(ctx, email)
	if err != nil {
		return nil, nil, apperrors.ErrNotFound
	}
	if creds.Disabled {
		return nil, nil, apperrors.ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperrors.ErrNotFound
	}

	pair, err := s.issuePair(creds)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("account logged in", zap.String("account_id", creds.ID.Hex()))
	return pair, creds, nil
}

// Refresh exchanges a valid refresh token for a new pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	id, _, err := s.parse(refreshToken, s.cfg.RefreshSecret)
	if err != nil {
		return nil, apperrors.ErrNotFound
	}

	creds, err := s.store.CredentialsByID(ctx, id)
	if err != nil || creds.Disabled {
		return nil, apperrors.ErrNotFound
	}
	return s.issuePair(creds)
}

// Verify parses an access token into a Principal.
func (s *Service) Verify(ctx context.Context, token string) (Principal, error) {
	id, level, err := s.parse(token, s.cfg.JWTSecret)
	if err != nil {
		return Principal{}, apperrors.ErrPermissionDenied
	}
	return Principal{AccountID: id, RoleLevel: level}, nil
}

func (s *Service) issuePair(creds *Credentials) (*TokenPair, error) {
	auth, err := s.sign(creds, s.cfg.JWTSecret, s.cfg.TokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign auth token: %w", err)
	}
	refresh, err := s.sign(creds, s.cfg.RefreshSecret, s.cfg.RefreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{AuthToken: auth, RefreshToken: refresh}, nil
}

func (s *Service) sign(creds *Credentials, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RoleLevel: int(creds.RoleLevel),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   creds.ID.Hex(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	})
	return token.SignedString([]byte(secret))
}

func (s *Service) parse(raw, secret string) (primitive.ObjectID, RoleLevel, error) {
	var c claims
	token, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return primitive.NilObjectID, 0, fmt.Errorf("invalid token: %w", err)
	}
	id, err := primitive.ObjectIDFromHex(c.Subject)
	if err != nil {
		return primitive.NilObjectID, 0, fmt.Errorf("invalid subject: %w", err)
	}
	return id, RoleLevel(c.RoleLevel), nil
}
