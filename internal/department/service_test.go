package department

import (
	"context"
	"errors"
	"testing"

	"cgms.org/internal/auth"
	"cgms.org/internal/identity"
)

type recordingMailer struct {
	emails    []string
	names     []string
	passwords []string
	fail      error
}

func (m *recordingMailer) SendDepartmentCredentials(ctx context.Context, email, name, password string) error {
	if m.fail != nil {
		return m.fail
	}
	m.emails = append(m.emails, email)
	m.names = append(m.names, name)
	m.passwords = append(m.passwords, password)
	return nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, *InMemory, *identity.InMemory, *recordingMailer) {
	t.Helper()
	store := NewInMemory()
	accounts := identity.NewInMemory()
	mailer := &recordingMailer{}
	svc, err := NewService(store, accounts, mailer, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store, accounts, mailer
}

func TestProvision(t *testing.T) {
	svc, _, accounts, mailer := newTestService(t)
	ctx := context.Background()

	dep, err := svc.Provision(ctx, "Front Desk", "Desk@Hotel.example")
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if dep.ID == "" || dep.AccountID == "" {
		t.Fatalf("ids not assigned: %+v", dep)
	}
	if dep.Email != "desk@hotel.example" {
		t.Fatalf("email not normalized: %s", dep.Email)
	}

	acc, err := accounts.GetAccount(ctx, dep.AccountID)
	if err != nil {
		t.Fatalf("GetAccount: %v", err)
	}
	if acc.Role != auth.RoleDepartment {
		t.Fatalf("unexpected role: %s", acc.Role)
	}
	if !acc.Verified {
		t.Fatal("staff accounts are provisioned pre-verified")
	}
	if acc.Username != "front.desk" {
		t.Fatalf("unexpected username: %s", acc.Username)
	}

	if len(mailer.passwords) != 1 {
		t.Fatalf("expected one credentials mail, got %d", len(mailer.passwords))
	}
	if mailer.emails[0] != "desk@hotel.example" || mailer.names[0] != "Front Desk" {
		t.Fatalf("credentials mailed to wrong target: %s / %s", mailer.emails[0], mailer.names[0])
	}
	// Only the hash is stored; the mailed plaintext must verify against it.
	if err := auth.VerifyPassword(acc.PasswordHash, mailer.passwords[0]); err != nil {
		t.Fatalf("mailed password does not match stored hash: %v", err)
	}
	if acc.PasswordHash == mailer.passwords[0] {
		t.Fatal("password stored in plaintext")
	}
}

func TestProvisionDuplicateName(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Provision(ctx, "Housekeeping", "hk@hotel.example"); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	if _, err := svc.Provision(ctx, "housekeeping", "hk2@hotel.example"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}
}

func TestProvisionValidation(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Provision(ctx, "", "x@hotel.example"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty name, got %v", err)
	}
	if _, err := svc.Provision(ctx, "Spa", "not-an-email"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad email, got %v", err)
	}
}

func TestProvisionEmailTaken(t *testing.T) {
	svc, _, accounts, _ := newTestService(t)
	ctx := context.Background()

	if _, err := accounts.CreateAccount(ctx, identity.Account{Username: "guest", Email: "shared@hotel.example", Role: auth.RoleSubmitter}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	if _, err := svc.Provision(ctx, "Spa", "shared@hotel.example"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestProvisionRollsBackWhenMailFails(t *testing.T) {
	svc, store, accounts, mailer := newTestService(t)
	mailer.fail = errors.New("smtp down")
	ctx := context.Background()

	if _, err := svc.Provision(ctx, "Spa", "spa@hotel.example"); err == nil {
		t.Fatal("expected delivery error")
	}
	if _, err := store.GetByName(ctx, "Spa"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("department should be rolled back, got %v", err)
	}
	if _, err := accounts.GetAccountByEmail(ctx, "spa@hotel.example"); !errors.Is(err, identity.ErrNotFound) {
		t.Fatalf("account should be rolled back, got %v", err)
	}
	// The name is free for a retry once mail works.
	mailer.fail = nil
	if _, err := svc.Provision(ctx, "Spa", "spa@hotel.example"); err != nil {
		t.Fatalf("retry after mail recovery: %v", err)
	}
}

func TestResolveByAccount(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	dep, err := svc.Provision(ctx, "Maintenance", "mx@hotel.example")
	if err != nil {
		t.Fatalf("Provision: %v", err)
	}
	got, err := svc.ResolveByAccount(ctx, dep.AccountID)
	if err != nil {
		t.Fatalf("ResolveByAccount: %v", err)
	}
	if got.ID != dep.ID {
		t.Fatalf("resolved wrong department: %s", got.ID)
	}
	if _, err := svc.ResolveByAccount(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDepartmentExists(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Provision(ctx, "Dining", "dining@hotel.example"); err != nil {
		t.Fatalf("Provision: %v", err)
	}
	ok, err := svc.DepartmentExists(ctx, "Dining")
	if err != nil || !ok {
		t.Fatalf("expected Dining to exist: ok=%v err=%v", ok, err)
	}
	ok, err = svc.DepartmentExists(ctx, "Valet")
	if err != nil || ok {
		t.Fatalf("expected Valet to be unknown: ok=%v err=%v", ok, err)
	}
}
