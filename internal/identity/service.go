package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cgms.org/internal/auth"
)

const defaultCodeTTL = 10 * time.Minute

// Notifier delivers verification codes. The core builds the request; the
// transport lives in the mailer package.
type Notifier interface {
	SendVerificationCode(ctx context.Context, email, code string, ttl time.Duration) error
}

// Service implements registration, login, profile management, and the
// verification-code protocol over a Store.
type Service struct {
	store    Store
	tokens   *auth.TokenService
	notifier Notifier

	codeTTL time.Duration
	now     func() time.Time
	newCode func() (string, error)
}

// Option configures Service behavior.
type Option func(*Service)

// WithCodeTTL overrides the verification-code lifetime.
func WithCodeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.codeTTL = ttl
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithCodeSource overrides code generation (useful for tests).
func WithCodeSource(fn func() (string, error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.newCode = fn
		}
	}
}

// NewService constructs the identity service.
func NewService(store Store, tokens *auth.TokenService, notifier Notifier, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("identity: store is required")
	}
	if tokens == nil {
		return nil, errors.New("identity: token service is required")
	}
	s := &Service{
		store:    store,
		tokens:   tokens,
		notifier: notifier,
		codeTTL:  defaultCodeTTL,
		now:      time.Now,
		newCode:  generateCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register creates an unverified submitter account. Fails with ErrEmailTaken
// when the email is already registered.
func (s *Service) Register(ctx context.Context, username, email, password string) (Account, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" {
		return Account{}, fmt.Errorf("username is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return Account{}, fmt.Errorf("valid email is required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return Account{}, err
	}
	return s.store.CreateAccount(ctx, Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleSubmitter,
		CreatedAt:    s.now().UTC(),
	})
}

// Session is an issued login credential.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Account   Account
}

// Login verifies credentials and issues a session token. The two failure
// modes stay distinct, matching the external contract.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	account, err := s.store.GetAccountByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return Session{}, err
	}
	if err := auth.VerifyPassword(account.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidPassword
	}
	token, expiresAt, err := s.tokens.Issue(account.ID, account.Role)
	if err != nil {
		return Session{}, err
	}
	return Session{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

// Profile returns the account for display.
func (s *Service) Profile(ctx context.Context, accountID string) (Account, error) {
	return s.store.GetAccount(ctx, accountID)
}

// UpdateProfile applies optional username/email changes.
func (s *Service) UpdateProfile(ctx context.Context, accountID string, upd ProfileUpdate) (Account, error) {
	if upd.Email != nil {
		email := strings.TrimSpace(strings.ToLower(*upd.Email))
		if email == "" || !strings.Contains(email, "@") {
			return Account{}, fmt.Errorf("valid email is required")
		}
		upd.Email = &email
	}
	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username == "" {
			return Account{}, fmt.Errorf("username is required")
		}
		upd.Username = &username
	}
	return s.store.UpdateProfile(ctx, accountID, upd)
}

// Count returns the number of accounts, for the admin dashboard.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.store.CountAccounts(ctx)
}
