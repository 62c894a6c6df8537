package identity

import (
	"context"
	"strings"
	"sync"
	"time"

	"cgms.org/internal/ids"
)

// InMemory implements Store with in-process concurrency safety. Used by
// tests and local development; production runs on the pg store.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	byEmail  map[string]string
}

// NewInMemory creates an empty account store.
func NewInMemory() *InMemory {
	return &InMemory{
		accounts: make(map[string]*Account),
		byEmail:  make(map[string]string),
	}
}

func (s *InMemory) CreateAccount(ctx context.Context, account Account) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(account.Email)
	if _, exists := s.byEmail[email]; exists {
		return Account{}, ErrEmailTaken
	}
	if account.ID == "" {
		account.ID = ids.New()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.Email = email

	stored := account
	s.accounts[stored.ID] = &stored
	s.byEmail[email] = stored.ID
	return copyAccount(&stored), nil
}

func (s *InMemory) GetAccount(ctx context.Context, id string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return copyAccount(acc), nil
}

func (s *InMemory) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return copyAccount(s.accounts[id]), nil
}

func (s *InMemory) UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	if upd.Username != nil {
		acc.Username = *upd.Username
	}
	if upd.Email != nil {
		email := strings.ToLower(*upd.Email)
		if owner, exists := s.byEmail[email]; exists && owner != id {
			return Account{}, ErrEmailTaken
		}
		delete(s.byEmail, acc.Email)
		acc.Email = email
		s.byEmail[email] = id
	}
	return copyAccount(acc), nil
}

func (s *InMemory) SetVerificationCode(ctx context.Context, id string, code VerificationCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	pending := code
	acc.Pending = &pending
	return nil
}

func (s *InMemory) MarkVerified(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	acc.Verified = true
	acc.Pending = nil
	return nil
}

func (s *InMemory) CountAccounts(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts), nil
}

func (s *InMemory) DeleteAccount(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byEmail, acc.Email)
	delete(s.accounts, id)
	return nil
}

func copyAccount(acc *Account) Account {
	out := *acc
	if acc.Pending != nil {
		pending := *acc.Pending
		out.Pending = &pending
	}
	return out
}
