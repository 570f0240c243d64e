package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/ids"
	"github.com/vidtube/backend/internal/models"
)

func testConfig() Config {
	return Config{
		AccessSecret:  "access-secret",
		AccessTTL:     time.Minute,
		RefreshSecret: "refresh-secret",
		RefreshTTL:    time.Hour,
	}
}

func newTestManager(t *testing.T) (*Manager, *InMemoryRefreshStore) {
	t.Helper()
	store := NewInMemoryRefreshStore()
	manager, err := NewManager(testConfig(), store)
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	return manager, store
}

func TestManagerIssueAndParse(t *testing.T) {
	manager, store := newTestManager(t)
	user := models.User{ID: ids.New(), Username: "alice", Email: "alice@example.com", FullName: "Alice"}

	tokens, err := manager.Issue(context.Background(), user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty tokens: %+v", tokens)
	}
	if !store.Has(user.ID) {
		t.Fatal("expected refresh token to be stored")
	}

	claims, err := manager.ParseAccess(tokens.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	id, err := claims.UserID()
	if err != nil || !ids.Equal(id, user.ID) {
		t.Fatalf("expected subject %s, got %s (%v)", user.ID.Hex(), id.Hex(), err)
	}
	if claims.Username != "alice" || claims.Email != "alice@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := manager.ParseAccess(tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected refresh token to be rejected as access token, got %v", err)
	}
}

func TestManagerRefreshRotation(t *testing.T) {
	manager, _ := newTestManager(t)
	user := models.User{ID: ids.New(), Username: "bob"}
	ctx := context.Background()

	first, err := manager.Issue(ctx, user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := manager.VerifyRefresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("verify refresh: %v", err)
	}
	if !ids.Equal(got, user.ID) {
		t.Fatalf("expected user %s, got %s", user.ID.Hex(), got.Hex())
	}

	second, err := manager.Issue(ctx, user)
	if err != nil {
		t.Fatalf("reissue: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected new refresh token")
	}
	if _, err := manager.VerifyRefresh(ctx, first.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected rotated token to be rejected, got %v", err)
	}

	if err := manager.Revoke(ctx, user.ID); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := manager.VerifyRefresh(ctx, second.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected revoked token to be rejected, got %v", err)
	}
}

func TestManagerRejectsExpiredAndForeignTokens(t *testing.T) {
	manager, _ := newTestManager(t)
	user := models.User{ID: ids.New()}
	ctx := context.Background()

	tokens, err := manager.Issue(ctx, user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	manager.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := manager.ParseAccess(tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired access token to fail, got %v", err)
	}
	if _, err := manager.VerifyRefresh(ctx, tokens.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired refresh token to fail, got %v", err)
	}

	other, err := NewManager(Config{AccessSecret: "x", AccessTTL: time.Minute, RefreshSecret: "y", RefreshTTL: time.Hour}, NewInMemoryRefreshStore())
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	foreign, err := other.Issue(ctx, user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	manager.now = time.Now
	if _, err := manager.ParseAccess(foreign.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected token signed with another secret to fail, got %v", err)
	}
	if _, err := manager.VerifyRefresh(ctx, ""); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected empty token to fail, got %v", err)
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := map[string]struct {
		cfg   Config
		store RefreshStore
	}{
		"nil store":      {cfg: testConfig()},
		"missing secret": {cfg: Config{AccessSecret: "a", AccessTTL: time.Minute, RefreshTTL: time.Hour}, store: NewInMemoryRefreshStore()},
		"zero ttl":       {cfg: Config{AccessSecret: "a", RefreshSecret: "b"}, store: NewInMemoryRefreshStore()},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := NewManager(tc.cfg, tc.store); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	manager, _ := newTestManager(t)
	if _, err := manager.Issue(context.Background(), models.User{}); err == nil {
		t.Fatal("expected error for empty user id")
	}
}

func TestPasswordHashing(t *testing.T) {
	HashCost = bcrypt.MinCost
	t.Cleanup(func() { HashCost = bcrypt.DefaultCost })

	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "s3cret" {
		t.Fatal("expected a hash, got the password")
	}
	if err := ComparePassword(hash, "s3cret"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := ComparePassword(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}
