package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobboard/internal/apperr"
	"jobboard/internal/crypto"
)

// Session is a refresh-token record. Only the token hash is stored.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	TokenHash string    `json:"token_hash"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store persists refresh sessions.
type Store interface {
	Create(ctx context.Context, s Session) error
	Get(ctx context.Context, tokenHash string) (Session, error)
	Delete(ctx context.Context, tokenHash string) error
}

// Manager issues, rotates and revokes refresh tokens.
type Manager struct {
	store Store
	ttl   time.Duration
}

// NewManager creates a manager with the given refresh TTL.
func NewManager(store Store, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{store: store, ttl: ttl}
}

// Issue creates a new refresh session and returns the opaque token.
func (m *Manager) Issue(ctx context.Context, accountID string) (string, error) {
	token, err := crypto.NewRefreshToken()
	if err != nil {
		return "", fmt.Errorf("new refresh token: %w", err)
	}
	now := time.Now().UTC()
	s := Session{
		ID:        uuid.NewString(),
		AccountID: accountID,
		TokenHash: crypto.HashToken(token),
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.Create(ctx, s); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate redeems a refresh token, revokes it, and issues a replacement.
func (m *Manager) Rotate(ctx context.Context, token string) (string, string, error) {
	accountID, err := m.redeem(ctx, token)
	if err != nil {
		return "", "", err
	}
	if err := m.store.Delete(ctx, crypto.HashToken(token)); err != nil {
		return "", "", err
	}
	next, err := m.Issue(ctx, accountID)
	if err != nil {
		return "", "", err
	}
	return accountID, next, nil
}

// Revoke invalidates a refresh token. Unknown tokens are a no-op.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	return m.store.Delete(ctx, crypto.HashToken(token))
}

func (m *Manager) redeem(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", apperr.ErrUnauthenticated
	}
	s, err := m.store.Get(ctx, crypto.HashToken(token))
	if err != nil {
		return "", err
	}
	if time.Now().UTC().After(s.ExpiresAt) {
		_ = m.store.Delete(ctx, s.TokenHash)
		return "", apperr.ErrUnauthenticated
	}
	return s.AccountID, nil
}
