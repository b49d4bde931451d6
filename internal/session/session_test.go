package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobboard/internal/apperr"
)

func TestIssueAndRotate(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), time.Hour)
	ctx := context.Background()

	token, err := mgr.Issue(ctx, "acct-1")
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}

	accountID, next, err := mgr.Rotate(ctx, token)
	if err != nil {
		t.Fatalf("rotate error: %v", err)
	}
	if accountID != "acct-1" {
		t.Fatalf("expected acct-1, got %s", accountID)
	}
	if next == token {
		t.Fatalf("rotation must replace the token")
	}

	// The old token is spent.
	if _, _, err := mgr.Rotate(ctx, token); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for spent token, got %v", err)
	}
}

func TestRevoke(t *testing.T) {
	mgr := NewManager(NewMemoryStore(), time.Hour)
	ctx := context.Background()

	token, err := mgr.Issue(ctx, "acct-1")
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}
	if err := mgr.Revoke(ctx, token); err != nil {
		t.Fatalf("revoke error: %v", err)
	}
	if _, _, err := mgr.Rotate(ctx, token); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated after revoke, got %v", err)
	}
}

func TestExpiredSession(t *testing.T) {
	store := NewMemoryStore()
	mgr := NewManager(store, time.Hour)
	ctx := context.Background()

	token, err := mgr.Issue(ctx, "acct-1")
	if err != nil {
		t.Fatalf("issue error: %v", err)
	}

	// Age the stored session past its expiry.
	for hash, s := range store.sessions {
		s.ExpiresAt = time.Now().UTC().Add(-time.Minute)
		store.sessions[hash] = s
	}

	if _, _, err := mgr.Rotate(ctx, token); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("expected unauthenticated for expired session, got %v", err)
	}
}
