package auth

import (
	"testing"
	"time"

	"github.com/clipstream/backend/internal/models"
)

func testSigner() *TokenSigner {
	return NewTokenSigner("test-secret", 15*time.Minute, 240*time.Hour)
}

func TestMintAndVerifyAccessToken(t *testing.T) {
	signer := testSigner()
	now := time.Now().UTC()

	account := models.Account{
		ID:          "acct-1",
		Handle:      "alice",
		Email:       "alice@example.com",
		DisplayName: "Alice",
	}

	token, expiresAt, err := signer.MintAccessToken(account, now)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if got, want := expiresAt, now.Add(15*time.Minute); !got.Equal(want) {
		t.Fatalf("expected expiry %v got %v", want, got)
	}

	identity, err := signer.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	if identity.AccountID != "acct-1" || identity.Handle != "alice" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestVerifyAccessTokenRejectsExpired(t *testing.T) {
	signer := testSigner()
	past := time.Now().UTC().Add(-time.Hour)

	token, _, err := signer.MintAccessToken(models.Account{ID: "acct-1"}, past)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := signer.VerifyAccessToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestVerifyAccessTokenRejectsWrongSecret(t *testing.T) {
	signer := testSigner()
	other := NewTokenSigner("other-secret", 15*time.Minute, 240*time.Hour)

	token, _, err := signer.MintAccessToken(models.Account{ID: "acct-1"}, time.Now().UTC())
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	if _, err := other.VerifyAccessToken(token); err == nil {
		t.Fatal("expected token signed with different secret to be rejected")
	}
}

func TestVerifyAccessTokenRejectsGarbage(t *testing.T) {
	signer := testSigner()
	if _, err := signer.VerifyAccessToken("not-a-token"); err == nil {
		t.Fatal("expected malformed token to be rejected")
	}
}

func TestVerifyRefreshTokenRoundTrip(t *testing.T) {
	signer := testSigner()
	now := time.Now().UTC()

	token, expiresAt, err := signer.MintRefreshToken("acct-9", now)
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}
	if got, want := expiresAt, now.Add(240*time.Hour); !got.Equal(want) {
		t.Fatalf("expected expiry %v got %v", want, got)
	}

	accountID, err := signer.VerifyRefreshToken(token)
	if err != nil {
		t.Fatalf("verify refresh token: %v", err)
	}
	if accountID != "acct-9" {
		t.Fatalf("expected account acct-9 got %q", accountID)
	}
}

func TestRefreshTokensDifferWithinSameSecond(t *testing.T) {
	signer := testSigner()
	now := time.Now().UTC().Truncate(time.Second)

	first, _, err := signer.MintRefreshToken("acct-9", now)
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}
	second, _, err := signer.MintRefreshToken("acct-9", now)
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}

	if first == second {
		t.Fatal("expected refresh tokens minted at the same instant to differ")
	}
}

func TestVerifyRefreshTokenRejectsExpired(t *testing.T) {
	signer := NewTokenSigner("test-secret", 15*time.Minute, time.Minute)
	past := time.Now().UTC().Add(-time.Hour)

	token, _, err := signer.MintRefreshToken("acct-9", past)
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}

	if _, err := signer.VerifyRefreshToken(token); err == nil {
		t.Fatal("expected expired refresh token to be rejected")
	}
}
