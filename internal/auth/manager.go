// Package auth issues and verifies the JWT access and refresh tokens and
// hashes passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
)

var (
	// ErrInvalidToken indicates a token that is malformed, expired or signed
	// with the wrong secret.
	ErrInvalidToken = errors.New("invalid token")
	// ErrSessionNotFound indicates the refresh token is not the one currently
	// stored for its user, either because it was rotated or revoked.
	ErrSessionNotFound = errors.New("session not found")
)

// RefreshStore persists the single active refresh token of each user.
type RefreshStore interface {
	Save(ctx context.Context, user ids.ID, token string) error
	Current(ctx context.Context, user ids.ID) (string, error)
	Revoke(ctx context.Context, user ids.ID) error
}

// Claims are carried by access tokens.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	jwt.RegisteredClaims
}

// UserID parses the subject of the token.
func (c Claims) UserID() (ids.ID, error) {
	id, err := ids.Parse(c.Subject)
	if err != nil {
		return ids.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return id, nil
}

// Config holds the signing secrets and lifetimes of both token kinds.
type Config struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// Manager manages the lifecycle of issued tokens backed by a refresh store.
type Manager struct {
	cfg   Config
	store RefreshStore
	now   func() time.Time
}

// NewManager constructs a Manager. Both secrets must be set.
func NewManager(cfg Config, store RefreshStore) (*Manager, error) {
	if store == nil {
		return nil, errors.New("auth: refresh store must not be nil")
	}
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("auth: token secrets must be provided")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("auth: token lifetimes must be positive")
	}
	return &Manager{cfg: cfg, store: store, now: time.Now}, nil
}

// Issue signs a new token pair for user and stores the refresh token,
// replacing any previous one.
func (m *Manager) Issue(ctx context.Context, user models.User) (models.AuthTokens, error) {
	if ids.IsZero(user.ID) {
		return models.AuthTokens{}, errors.New("user id must be provided")
	}

	now := m.now().UTC()
	access, err := sign(m.cfg.AccessSecret, Claims{
		Username:         user.Username,
		Email:            user.Email,
		FullName:         user.FullName,
		RegisteredClaims: registered(user.ID, now, m.cfg.AccessTTL),
	})
	if err != nil {
		return models.AuthTokens{}, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := sign(m.cfg.RefreshSecret, registered(user.ID, now, m.cfg.RefreshTTL))
	if err != nil {
		return models.AuthTokens{}, fmt.Errorf("sign refresh token: %w", err)
	}

	if err := m.store.Save(ctx, user.ID, refresh); err != nil {
		return models.AuthTokens{}, fmt.Errorf("save refresh token: %w", err)
	}

	return models.AuthTokens{AccessToken: access, RefreshToken: refresh}, nil
}

// ParseAccess verifies an access token and returns its claims.
func (m *Manager) ParseAccess(token string) (Claims, error) {
	var claims Claims
	if err := m.parse(token, m.cfg.AccessSecret, &claims); err != nil {
		return Claims{}, err
	}
	return claims, nil
}

// VerifyRefresh checks that token is valid and is the refresh token
// currently stored for its user. It returns that user's id.
func (m *Manager) VerifyRefresh(ctx context.Context, token string) (ids.ID, error) {
	if token == "" {
		return ids.Nil, ErrSessionNotFound
	}

	var claims jwt.RegisteredClaims
	if err := m.parse(token, m.cfg.RefreshSecret, &claims); err != nil {
		return ids.Nil, err
	}
	user, err := ids.Parse(claims.Subject)
	if err != nil {
		return ids.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}

	current, err := m.store.Current(ctx, user)
	if err != nil {
		return ids.Nil, err
	}
	if current == "" || current != token {
		return ids.Nil, ErrSessionNotFound
	}
	return user, nil
}

// Revoke drops the stored refresh token of user.
func (m *Manager) Revoke(ctx context.Context, user ids.ID) error {
	return m.store.Revoke(ctx, user)
}

func (m *Manager) parse(token, secret string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

func registered(user ids.ID, now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   user.Hex(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func sign(secret string, claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
