package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Service authenticates accounts and issues session tokens.
type Service struct {
	store  AccountStore
	hasher *PasswordHasher
	tokens *TokenManager
}

// NewService wires the login dependencies together.
func NewService(store AccountStore, hasher *PasswordHasher, tokens *TokenManager) *Service {
	return &Service{store: store, hasher: hasher, tokens: tokens}
}

// Login checks the credentials and returns a token with the account's
// canonical display name.
func (s *Service) Login(ctx context.Context, username, password string) (string, string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", "", ErrInvalidCredentials
	}

	account, err := s.store.Account(ctx, username)
	if errors.Is(err, ErrAccountNotFound) {
		return "", "", ErrInvalidCredentials
	}
	if err != nil {
		return "", "", fmt.Errorf("load account: %w", err)
	}

	if !s.hasher.Verify(password, account.PasswordHash) {
		return "", "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(account.Name)
	if err != nil {
		return "", "", fmt.Errorf("issue token: %w", err)
	}
	return token, account.Name, nil
}

// Seed stores accounts whose passwords are already hashed.
func Seed(ctx context.Context, store AccountStore, accounts []Account) error {
	for _, account := range accounts {
		if strings.TrimSpace(account.Name) == "" || account.PasswordHash == "" {
			return fmt.Errorf("seed account %q: name and password hash are required", account.Name)
		}
		if err := store.PutAccount(ctx, account); err != nil {
			return fmt.Errorf("seed account %q: %w", account.Name, err)
		}
	}
	return nil
}
