package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

var (
	// ErrInvalidCredentials indicates the identifier/password pair did not
	// resolve to an account. Unknown identifiers and wrong passwords are
	// deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidToken indicates a token failed signature or expiry checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrStaleRefreshToken indicates a refresh token that verifies but no
	// longer matches the value stored on the account: it has been rotated
	// away, revoked by logout, or replayed.
	ErrStaleRefreshToken = errors.New("refresh token expired or reused")
	// ErrMissingField indicates a blank required input.
	ErrMissingField = errors.New("required field missing")
)

// dummyHash keeps credential verification on the same code path when the
// identifier does not resolve, so content and timing match a wrong-password
// failure.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("clipstream-placeholder"), bcrypt.DefaultCost)

func newTokenID() string {
	return uuid.NewString()
}

// AccountStore is the persistence contract the Authority depends on.
// Implementations report repositories.ErrNotFound and repositories.ErrConflict
// for the corresponding conditions.
type AccountStore interface {
	Create(ctx context.Context, account models.Account) error
	FindByID(ctx context.Context, id string) (models.Account, error)
	FindByIdentifier(ctx context.Context, identifier string) (models.Account, error)
	UpdateRefreshToken(ctx context.Context, id, refreshToken string) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// Authority turns credential presentations into token pairs and presented
// tokens back into authenticated identities. An account holds at most one
// live refresh token: every Login and Refresh overwrites it, and Logout
// clears it.
type Authority struct {
	accounts AccountStore
	signer   *TokenSigner
	nowFunc  func() time.Time
}

// NewAuthority constructs a session authority over the provided account store.
func NewAuthority(accounts AccountStore, signer *TokenSigner) *Authority {
	if accounts == nil {
		panic("auth: account store must not be nil")
	}
	if signer == nil {
		panic("auth: token signer must not be nil")
	}
	return &Authority{
		accounts: accounts,
		signer:   signer,
		nowFunc:  func() time.Time { return time.Now().UTC() },
	}
}

// WithNowFunc overrides the time source. Used by tests.
func (a *Authority) WithNowFunc(now func() time.Time) {
	if now != nil {
		a.nowFunc = now
	}
}

// Register creates a new account with a hashed password. The returned account
// is sanitized.
func (a *Authority) Register(ctx context.Context, handle, email, displayName, password, avatarURL string) (models.Account, error) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	email = strings.ToLower(strings.TrimSpace(email))
	displayName = strings.TrimSpace(displayName)

	if err := requireFields(map[string]string{
		"handle":      handle,
		"email":       email,
		"displayName": displayName,
		"password":    password,
	}); err != nil {
		return models.Account{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := a.nowFunc()
	account := models.Account{
		ID:          uuid.NewString(),
		Handle:      handle,
		Email:       email,
		DisplayName: displayName,
		Password:    string(hashed),
		AvatarURL:   avatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := a.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repositories.ErrConflict) {
			return models.Account{}, repositories.ErrConflict
		}
		return models.Account{}, fmt.Errorf("create account: %w", err)
	}

	return account.Sanitized(), nil
}

// Login verifies the identifier/password pair and, on success, issues a fresh
// token pair. The refresh token is persisted onto the account, invalidating
// any session issued earlier.
func (a *Authority) Login(ctx context.Context, identifier, password string) (models.Account, models.SessionTokens, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return models.Account{}, models.SessionTokens{}, fmt.Errorf("%w: identifier and password", ErrMissingField)
	}

	account, err := a.accounts.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Burn a compare so the miss costs the same as a mismatch.
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return models.Account{}, models.SessionTokens{}, ErrInvalidCredentials
		}
		return models.Account{}, models.SessionTokens{}, fmt.Errorf("find account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)) != nil {
		return models.Account{}, models.SessionTokens{}, ErrInvalidCredentials
	}

	tokens, err := a.issueTokens(ctx, account)
	if err != nil {
		return models.Account{}, models.SessionTokens{}, err
	}

	return account.Sanitized(), tokens, nil
}

// Refresh rotates a presented refresh token into a new token pair. The
// presented token must verify and match the account's stored token byte for
// byte; the stored-value check is the sole replay defense, so any earlier
// token fails here even when its signature is still good.
func (a *Authority) Refresh(ctx context.Context, presented string) (models.SessionTokens, error) {
	accountID, err := a.signer.VerifyRefreshToken(presented)
	if err != nil {
		return models.SessionTokens{}, err
	}

	account, err := a.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, ErrInvalidToken
		}
		return models.SessionTokens{}, fmt.Errorf("find account: %w", err)
	}

	if account.RefreshToken == "" ||
		subtle.ConstantTimeCompare([]byte(account.RefreshToken), []byte(presented)) != 1 {
		return models.SessionTokens{}, ErrStaleRefreshToken
	}

	return a.issueTokens(ctx, account)
}

// Logout clears the account's stored refresh token. Any refresh attempt with
// the previously issued token fails afterwards, expired or not.
func (a *Authority) Logout(ctx context.Context, accountID string) error {
	if accountID == "" {
		return fmt.Errorf("%w: accountId", ErrMissingField)
	}

	if err := a.accounts.UpdateRefreshToken(ctx, accountID, ""); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return repositories.ErrNotFound
		}
		return fmt.Errorf("clear refresh token: %w", err)
	}

	return nil
}

// Authenticate admits or rejects a presented access token and returns the
// acting account, sanitized. Access-token validity is purely claim-based;
// the stored refresh token is not consulted.
func (a *Authority) Authenticate(ctx context.Context, accessToken string) (models.Account, error) {
	identity, err := a.signer.VerifyAccessToken(accessToken)
	if err != nil {
		return models.Account{}, err
	}

	account, err := a.accounts.FindByID(ctx, identity.AccountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Account{}, ErrInvalidToken
		}
		return models.Account{}, fmt.Errorf("find account: %w", err)
	}

	return account.Sanitized(), nil
}

// ChangePassword re-hashes and stores a new password after verifying the old
// one. The stored refresh token is left alone: the live session survives.
func (a *Authority) ChangePassword(ctx context.Context, accountID, oldPassword, newPassword string) error {
	if accountID == "" || oldPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: accountId, oldPassword and newPassword", ErrMissingField)
	}

	account, err := a.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return repositories.ErrNotFound
		}
		return fmt.Errorf("find account: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := a.accounts.UpdatePassword(ctx, accountID, string(hashed)); err != nil {
		return fmt.Errorf("store password: %w", err)
	}

	return nil
}

// issueTokens mints a token pair and persists the refresh token onto the
// account in a single write. If the caller goes away before seeing the
// response the write stands; the new session is the effective one.
func (a *Authority) issueTokens(ctx context.Context, account models.Account) (models.SessionTokens, error) {
	now := a.nowFunc()

	accessToken, accessExpiresAt, err := a.signer.MintAccessToken(account, now)
	if err != nil {
		return models.SessionTokens{}, err
	}

	refreshToken, refreshExpiresAt, err := a.signer.MintRefreshToken(account.ID, now)
	if err != nil {
		return models.SessionTokens{}, err
	}

	if err := a.accounts.UpdateRefreshToken(ctx, account.ID, refreshToken); err != nil {
		return models.SessionTokens{}, fmt.Errorf("store refresh token: %w", err)
	}

	return models.SessionTokens{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

func requireFields(fields map[string]string) error {
	for name, value := range fields {
		if value == "" {
			return fmt.Errorf("%w: %s", ErrMissingField, name)
		}
	}
	return nil
}
