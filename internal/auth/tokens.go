package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clipstream/backend/internal/models"
)

const tokenIssuer = "clipstream"

// Identity is the claim set carried by a verified access token.
type Identity struct {
	AccountID   string
	Handle      string
	Email       string
	DisplayName string
}

type accessClaims struct {
	Handle      string `json:"handle"`
	Email       string `json:"email"`
	DisplayName string `json:"name"`
	jwt.RegisteredClaims
}

type refreshClaims struct {
	jwt.RegisteredClaims
}

// TokenSigner mints and verifies the signed claim sets used as access and
// refresh tokens. Both are HS256-signed; the refresh token carries only the
// account id since its validity additionally depends on server-side state.
type TokenSigner struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenSigner constructs a signer from an explicit secret and TTL pair.
func NewTokenSigner(secret string, accessTTL, refreshTTL time.Duration) *TokenSigner {
	if secret == "" {
		panic("auth: token secret must not be empty")
	}
	return &TokenSigner{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// MintAccessToken issues a short-lived access token for the account.
func (s *TokenSigner) MintAccessToken(account models.Account, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.accessTTL)
	claims := accessClaims{
		Handle:      account.Handle,
		Email:       account.Email,
		DisplayName: account.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}

	return signed, expiresAt, nil
}

// MintRefreshToken issues a longer-lived refresh token naming only the account.
func (s *TokenSigner) MintRefreshToken(accountID string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.refreshTTL)
	claims := refreshClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        newTokenID(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign refresh token: %w", err)
	}

	return signed, expiresAt, nil
}

// VerifyAccessToken checks signature and expiry and returns the embedded identity.
func (s *TokenSigner) VerifyAccessToken(token string) (Identity, error) {
	claims := &accessClaims{}
	if err := s.verify(token, claims); err != nil {
		return Identity{}, err
	}

	if claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{
		AccountID:   claims.Subject,
		Handle:      claims.Handle,
		Email:       claims.Email,
		DisplayName: claims.DisplayName,
	}, nil
}

// VerifyRefreshToken checks signature and expiry and returns the account id
// named in the claims. Byte-equality against the stored token is the caller's
// responsibility; a valid signature alone does not make a refresh token usable.
func (s *TokenSigner) VerifyRefreshToken(token string) (string, error) {
	claims := &refreshClaims{}
	if err := s.verify(token, claims); err != nil {
		return "", err
	}

	if claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

func (s *TokenSigner) verify(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, ErrInvalidToken
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return ErrInvalidToken
	}

	if !parsed.Valid {
		return ErrInvalidToken
	}

	return nil
}
