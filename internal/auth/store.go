package auth

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// ErrAccountNotFound is returned when no account exists for a name.
var ErrAccountNotFound = errors.New("account not found")

// Account is a login identity. Name keeps the canonical display casing.
type Account struct {
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountStore persists accounts. Lookups are case-insensitive.
type AccountStore interface {
	Account(ctx context.Context, name string) (*Account, error)
	PutAccount(ctx context.Context, account Account) error
	Close() error
}

func accountKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// MemoryStore keeps accounts in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]Account)}
}

func (s *MemoryStore) Account(_ context.Context, name string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[accountKey(name)]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return &account, nil
}

func (s *MemoryStore) PutAccount(_ context.Context, account Account) error {
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[accountKey(account.Name)] = account
	return nil
}

func (s *MemoryStore) Close() error { return nil }
