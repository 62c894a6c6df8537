package identity

import "context"

// Store is the durable account record contract. Implementations must
// serialize writes per account record; no cross-record transaction is
// required here.
type Store interface {
	CreateAccount(ctx context.Context, account Account) (Account, error)
	GetAccount(ctx context.Context, id string) (Account, error)
	GetAccountByEmail(ctx context.Context, email string) (Account, error)
	UpdateProfile(ctx context.Context, id string, upd ProfileUpdate) (Account, error)

	// SetVerificationCode replaces the pending code pair on the account.
	SetVerificationCode(ctx context.Context, id string, code VerificationCode) error
	// MarkVerified flips verified to true and clears the pending pair.
	MarkVerified(ctx context.Context, id string) error

	CountAccounts(ctx context.Context) (int, error)
	DeleteAccount(ctx context.Context, id string) error
}
