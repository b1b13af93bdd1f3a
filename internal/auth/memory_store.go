package auth

import (
	"context"
	"sync"

	"github.com/clipstream/backend/internal/models"
	"github.com/clipstream/backend/internal/repositories"
)

// NewInMemoryAccountStore returns an AccountStore backed by in-memory maps.
func NewInMemoryAccountStore() *InMemoryAccountStore {
	return &InMemoryAccountStore{accounts: make(map[string]models.Account)}
}

// InMemoryAccountStore implements AccountStore for tests and local development.
type InMemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
}

// Create persists the account, enforcing handle and email uniqueness.
func (s *InMemoryAccountStore) Create(_ context.Context, account models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.accounts {
		if existing.Handle == account.Handle || existing.Email == account.Email {
			return repositories.ErrConflict
		}
	}
	s.accounts[account.ID] = account
	return nil
}

// FindByID retrieves an account by id.
func (s *InMemoryAccountStore) FindByID(_ context.Context, id string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return models.Account{}, repositories.ErrNotFound
	}
	return account, nil
}

// FindByIdentifier retrieves an account by handle or email.
func (s *InMemoryAccountStore) FindByIdentifier(_ context.Context, identifier string) (models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, account := range s.accounts {
		if account.Handle == identifier || account.Email == identifier {
			return account, nil
		}
	}
	return models.Account{}, repositories.ErrNotFound
}

// UpdateRefreshToken overwrites the stored refresh token.
func (s *InMemoryAccountStore) UpdateRefreshToken(_ context.Context, id, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	account.RefreshToken = refreshToken
	s.accounts[id] = account
	return nil
}

// UpdatePassword overwrites the stored password hash.
func (s *InMemoryAccountStore) UpdatePassword(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return repositories.ErrNotFound
	}
	account.Password = passwordHash
	s.accounts[id] = account
	return nil
}

// StoredRefreshToken reports the refresh token currently held for an account.
// Useful for tests.
func (s *InMemoryAccountStore) StoredRefreshToken(id string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[id].RefreshToken
}

var _ AccountStore = (*InMemoryAccountStore)(nil)
