package department

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"cgms.org/internal/auth"
	"cgms.org/internal/identity"
)

const defaultPasswordLength = 12

// Password alphabet leaves out look-alike characters since the value is read
// out of an email.
const passwordAlphabet = "abcdefghijkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Accounts is the slice of the identity store provisioning needs.
type Accounts interface {
	CreateAccount(ctx context.Context, account identity.Account) (identity.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

// CredentialsNotifier delivers the generated staff login to the department
// mailbox. The plaintext password exists only in that message.
type CredentialsNotifier interface {
	SendDepartmentCredentials(ctx context.Context, email, name, password string) error
}

// Service provisions departments and resolves staff accounts back to them.
type Service struct {
	store    Store
	accounts Accounts
	notifier CredentialsNotifier

	passwordLength int
	now            func() time.Time
	newPassword    func(int) (string, error)
}

type Option func(*Service)

func WithPasswordLength(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.passwordLength = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPasswordSource overrides password generation (useful for tests).
func WithPasswordSource(fn func(int) (string, error)) Option {
	return func(s *Service) { s.newPassword = fn }
}

func NewService(store Store, accounts Accounts, notifier CredentialsNotifier, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("department: store is required")
	}
	if accounts == nil {
		return nil, errors.New("department: account store is required")
	}
	s := &Service{
		store:          store,
		accounts:       accounts,
		notifier:       notifier,
		passwordLength: defaultPasswordLength,
		now:            time.Now,
		newPassword:    generatePassword,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func generatePassword(length int) (string, error) {
	alphabetLen := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[n.Int64()]
	}
	return string(out), nil
}

// usernameFor derives the staff account username from the department name.
func usernameFor(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "."))
}

// Provision creates a department together with its staff login account. The
// account is created pre-verified with a generated password; only the bcrypt
// hash is stored, and the plaintext is handed to the notifier. When the
// store supports it the two records are created in one transaction,
// otherwise a failed department create deletes the freshly created account.
func (s *Service) Provision(ctx context.Context, name, email string) (Department, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" {
		return Department{}, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if email == "" || !strings.Contains(email, "@") {
		return Department{}, fmt.Errorf("%w: valid email required", ErrInvalidInput)
	}
	if _, err := s.store.GetByName(ctx, name); err == nil {
		return Department{}, ErrNameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Department{}, err
	}

	password, err := s.newPassword(s.passwordLength)
	if err != nil {
		return Department{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return Department{}, err
	}

	now := s.now().UTC()
	account := identity.Account{
		Username:     usernameFor(name),
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleDepartment,
		Verified:     true,
		CreatedAt:    now,
	}
	dep := Department{Name: name, Email: email, CreatedAt: now}

	if tx, ok := s.store.(AtomicProvisioner); ok {
		dep, account, err = tx.ProvisionDepartment(ctx, dep, account)
		if err != nil {
			if errors.Is(err, identity.ErrEmailTaken) {
				return Department{}, fmt.Errorf("%w: email already registered", ErrInvalidInput)
			}
			return Department{}, err
		}
	} else {
		account, err = s.accounts.CreateAccount(ctx, account)
		if err != nil {
			if errors.Is(err, identity.ErrEmailTaken) {
				return Department{}, fmt.Errorf("%w: email already registered", ErrInvalidInput)
			}
			return Department{}, err
		}
		dep.AccountID = account.ID
		dep, err = s.store.CreateDepartment(ctx, dep)
		if err != nil {
			if delErr := s.accounts.DeleteAccount(ctx, account.ID); delErr != nil {
				return Department{}, fmt.Errorf("create department: %w (account cleanup failed: %v)", err, delErr)
			}
			return Department{}, err
		}
	}

	if s.notifier != nil {
		if err := s.notifier.SendDepartmentCredentials(ctx, email, name, password); err != nil {
			// Undo both records; a department whose credentials were never
			// delivered is unreachable.
			if delErr := s.store.DeleteDepartment(ctx, dep.ID); delErr != nil && !errors.Is(delErr, ErrNotFound) {
				return Department{}, fmt.Errorf("deliver credentials: %w (department cleanup failed: %v)", err, delErr)
			}
			if delErr := s.accounts.DeleteAccount(ctx, account.ID); delErr != nil && !errors.Is(delErr, identity.ErrNotFound) {
				return Department{}, fmt.Errorf("deliver credentials: %w (account cleanup failed: %v)", err, delErr)
			}
			return Department{}, fmt.Errorf("deliver department credentials: %w", err)
		}
	}
	return dep, nil
}

// ResolveByAccount maps a staff account back to its department. Used when
// authenticating department tokens.
func (s *Service) ResolveByAccount(ctx context.Context, accountID string) (Department, error) {
	return s.store.GetByAccountID(ctx, accountID)
}

// DepartmentExists reports whether name identifies a provisioned department.
func (s *Service) DepartmentExists(ctx context.Context, name string) (bool, error) {
	_, err := s.store.GetByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all departments sorted by name.
func (s *Service) List(ctx context.Context) ([]Department, error) {
	return s.store.ListDepartments(ctx)
}
