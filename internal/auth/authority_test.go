package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

func newTestAuthority(t *testing.T) (*Authority, *InMemoryAccountStore) {
	t.Helper()
	store := NewInMemoryAccountStore()
	signer := NewTokenSigner("test-secret", 15*time.Minute, 240*time.Hour)
	return NewAuthority(store, signer), store
}

func registerTestAccount(t *testing.T, authority *Authority) models.Account {
	t.Helper()
	account, err := authority.Register(context.Background(), "alice", "alice@example.com", "Alice", "supersafe", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return account
}

func TestRegisterHashesPasswordAndSanitizes(t *testing.T) {
	authority, store := newTestAuthority(t)

	account := registerTestAccount(t, authority)

	if account.Password != "" || account.RefreshToken != "" {
		t.Fatalf("expected sanitized account, got %+v", account)
	}

	stored, err := store.FindByID(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("find stored account: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("supersafe")) != nil {
		t.Fatal("stored password is not the bcrypt hash of the input")
	}
}

func TestRegisterNormalizesIdentifiers(t *testing.T) {
	authority, _ := newTestAuthority(t)

	account, err := authority.Register(context.Background(), "  Bob ", "Bob@Example.COM", "Bob", "supersafe", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if account.Handle != "bob" || account.Email != "bob@example.com" {
		t.Fatalf("expected lowercased identifiers, got %+v", account)
	}
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	authority, _ := newTestAuthority(t)

	if _, err := authority.Register(context.Background(), "", "a@b.c", "A", "pw", ""); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField got %v", err)
	}
}

func TestRegisterDuplicateHandleConflicts(t *testing.T) {
	authority, _ := newTestAuthority(t)

	registerTestAccount(t, authority)

	_, err := authority.Register(context.Background(), "alice", "other@example.com", "Alice Two", "supersafe", "")
	if !errors.Is(err, repositories.ErrConflict) {
		t.Fatalf("expected ErrConflict got %v", err)
	}
}

func TestLoginIssuesTokensAndStoresRefresh(t *testing.T) {
	authority, store := newTestAuthority(t)
	account := registerTestAccount(t, authority)

	got, tokens, err := authority.Login(context.Background(), "alice", "supersafe")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.ID != account.ID {
		t.Fatalf("expected account %s got %s", account.ID, got.ID)
	}
	if got.Password != "" {
		t.Fatal("login must not expose the password hash")
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected non-empty token pair: %+v", tokens)
	}
	if store.StoredRefreshToken(account.ID) != tokens.RefreshToken {
		t.Fatal("issued refresh token was not persisted")
	}
}

func TestLoginByEmail(t *testing.T) {
	authority, _ := newTestAuthority(t)
	registerTestAccount(t, authority)

	if _, _, err := authority.Login(context.Background(), "alice@example.com", "supersafe"); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestLoginFailuresAreUniform(t *testing.T) {
	authority, _ := newTestAuthority(t)
	registerTestAccount(t, authority)

	_, _, unknownErr := authority.Login(context.Background(), "nobody", "supersafe")
	_, _, wrongErr := authority.Login(context.Background(), "alice", "wrong")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown identifier got %v", unknownErr)
	}
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password got %v", wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatal("unknown-identifier and wrong-password failures must be indistinguishable")
	}
}

func TestLoginOverwritesPreviousSession(t *testing.T) {
	authority, _ := newTestAuthority(t)
	registerTestAccount(t, authority)

	_, first, err := authority.Login(context.Background(), "alice", "supersafe")
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	_, _, err = authority.Login(context.Background(), "alice", "supersafe")
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if _, err := authority.Refresh(context.Background(), first.RefreshToken); !errors.Is(err, ErrStaleRefreshToken) {
		t.Fatalf("expected first session's refresh token to be stale, got %v", err)
	}
}

func TestRefreshRotatesTokens(t *testing.T) {
	authority, store := newTestAuthority(t)
	account := registerTestAccount(t, authority)

	_, tokens, err := authority.Login(context.Background(), "alice", "supersafe")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := authority.Refresh(context.Background(), tokens.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == tokens.RefreshToken {
		t.Fatal("expected a new refresh token")
	}
	if store.StoredRefreshToken(account.ID) != rotated.RefreshToken {
		t.Fatal("rotation did not persist the new refresh token")
	}

	// Replaying the pre-rotation token must fail even though its signature
	// is still valid.
	if _, err := authority.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrStaleRefreshToken) {
		t.Fatalf("expected ErrStaleRefreshToken on replay got %v", err)
	}
}

func TestRefreshRejectsGarbage(t *testing.T) {
	authority, _ := newTestAuthority(t)

	if _, err := authority.Refresh(context.Background(), "not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	authority, store := newTestAuthority(t)
	account := registerTestAccount(t, authority)

	_, tokens, err := authority.Login(context.Background(), "alice", "supersafe")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := authority.Logout(context.Background(), account.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if store.StoredRefreshToken(account.ID) != "" {
		t.Fatal("logout must clear the stored refresh token")
	}

	if _, err := authority.Refresh(context.Background(), tokens.RefreshToken); !errors.Is(err, ErrStaleRefreshToken) {
		t.Fatalf("expected ErrStaleRefreshToken after logout got %v", err)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	authority, _ := newTestAuthority(t)
	account := registerTestAccount(t, authority)

	if err := authority.Logout(context.Background(), account.ID); err != nil {
		t.Fatalf("first logout: %v", err)
	}
	if err := authority.Logout(context.Background(), account.ID); err != nil {
		t.Fatalf("second logout: %v", err)
	}
}

func TestAuthenticateReturnsSanitizedAccount(t *testing.T) {
	authority, _ := newTestAuthority(t)
	account := registerTestAccount(t, authority)

	_, tokens, err := authority.Login(context.Background(), "alice", "supersafe")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	got, err := authority.Authenticate(context.Background(), tokens.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if got.ID != account.ID {
		t.Fatalf("expected account %s got %s", account.ID, got.ID)
	}
	if got.Password != "" || got.RefreshToken != "" {
		t.Fatalf("expected sanitized account, got %+v", got)
	}
}

func TestAuthenticateSurvivesLogout(t *testing.T) {
	authority, _ := newTestAuthority(t)
	account := registerTestAccount(t, authority)

	_, tokens, err := authority.Login(context.Background(), "alice", "supersafe")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := authority.Logout(context.Background(), account.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}

	// Access tokens are claim-checked only; they stay valid until expiry.
	if _, err := authority.Authenticate(context.Background(), tokens.AccessToken); err != nil {
		t.Fatalf("expected access token to remain valid after logout, got %v", err)
	}
}

func TestAuthenticateRejectsExpiredAccessToken(t *testing.T) {
	authority, _ := newTestAuthority(t)
	registerTestAccount(t, authority)

	past := time.Now().UTC().Add(-time.Hour)
	authority.WithNowFunc(func() time.Time { return past })

	_, tokens, err := authority.Login(context.Background(), "alice", "supersafe")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, err := authority.Authenticate(context.Background(), tokens.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired access token got %v", err)
	}
}

func TestChangePasswordKeepsSessionAlive(t *testing.T) {
	authority, _ := newTestAuthority(t)
	account := registerTestAccount(t, authority)

	_, tokens, err := authority.Login(context.Background(), "alice", "supersafe")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := authority.ChangePassword(context.Background(), account.ID, "supersafe", "evensafer"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	// Changing the password leaves the stored refresh token alone.
	if _, err := authority.Refresh(context.Background(), tokens.RefreshToken); err != nil {
		t.Fatalf("expected session to survive password change, got %v", err)
	}

	if _, _, err := authority.Login(context.Background(), "alice", "supersafe"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected old password to be rejected got %v", err)
	}
	if _, _, err := authority.Login(context.Background(), "alice", "evensafer"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestChangePasswordRejectsWrongOldPassword(t *testing.T) {
	authority, _ := newTestAuthority(t)
	account := registerTestAccount(t, authority)

	err := authority.ChangePassword(context.Background(), account.ID, "wrong", "evensafer")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials got %v", err)
	}
}
