package department

import (
	"context"

	"cgms.org/internal/identity"
)

// Store is the durable department record contract.
type Store interface {
	CreateDepartment(ctx context.Context, d Department) (Department, error)
	GetByName(ctx context.Context, name string) (Department, error)
	GetByAccountID(ctx context.Context, accountID string) (Department, error)
	ListDepartments(ctx context.Context) ([]Department, error)
	DeleteDepartment(ctx context.Context, id string) error
}

// AtomicProvisioner is implemented by stores that can create the staff
// account and the department in one transaction. The service falls back to
// create-then-compensate when the store cannot.
type AtomicProvisioner interface {
	ProvisionDepartment(ctx context.Context, d Department, account identity.Account) (Department, identity.Account, error)
}
