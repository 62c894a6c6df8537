package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"cgms.org/internal/auth"
	"cgms.org/internal/identity"
	"cgms.org/internal/ids"
)

const accountColumns = `id, username, email, password_hash, role, verified, verification_code, verification_expires_at, created_at`

func scanAccount(row interface{ Scan(...any) error }) (identity.Account, error) {
	var acc identity.Account
	var role string
	var code sql.NullString
	var expires sql.NullTime
	err := row.Scan(&acc.ID, &acc.Username, &acc.Email, &acc.PasswordHash, &role, &acc.Verified, &code, &expires, &acc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return identity.Account{}, identity.ErrNotFound
	}
	if err != nil {
		return identity.Account{}, err
	}
	acc.Role = auth.Role(role)
	// The schema enforces that code and expiry are both set or both null.
	if code.Valid && expires.Valid {
		acc.Pending = &identity.VerificationCode{Code: code.String, ExpiresAt: expires.Time.UTC()}
	}
	return acc, nil
}

func (s *Store) CreateAccount(ctx context.Context, account identity.Account) (identity.Account, error) {
	if account.ID == "" {
		account.ID = ids.New()
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	account.Email = strings.ToLower(account.Email)
	_, err := s.db.ExecContext(ctx, `
		insert into accounts(id, username, email, password_hash, role, verified, created_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, account.ID, account.Username, account.Email, account.PasswordHash, string(account.Role), account.Verified, account.CreatedAt)
	if isUniqueViolation(err) {
		return identity.Account{}, identity.ErrEmailTaken
	}
	if err != nil {
		return identity.Account{}, err
	}
	return account, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (identity.Account, error) {
	row := s.db.QueryRowContext(ctx, `select `+accountColumns+` from accounts where id=$1`, id)
	return scanAccount(row)
}

func (s *Store) GetAccountByEmail(ctx context.Context, email string) (identity.Account, error) {
	row := s.db.QueryRowContext(ctx, `select `+accountColumns+` from accounts where email=$1`, strings.ToLower(email))
	return scanAccount(row)
}

func (s *Store) UpdateProfile(ctx context.Context, id string, upd identity.ProfileUpdate) (identity.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return identity.Account{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if upd.Username != nil {
		if _, err := tx.ExecContext(ctx, `update accounts set username=$2 where id=$1`, id, *upd.Username); err != nil {
			return identity.Account{}, err
		}
	}
	if upd.Email != nil {
		_, err := tx.ExecContext(ctx, `update accounts set email=$2 where id=$1`, id, strings.ToLower(*upd.Email))
		if isUniqueViolation(err) {
			return identity.Account{}, identity.ErrEmailTaken
		}
		if err != nil {
			return identity.Account{}, err
		}
	}
	acc, err := scanAccount(tx.QueryRowContext(ctx, `select `+accountColumns+` from accounts where id=$1`, id))
	if err != nil {
		return identity.Account{}, err
	}
	if err := tx.Commit(); err != nil {
		return identity.Account{}, err
	}
	return acc, nil
}

func (s *Store) SetVerificationCode(ctx context.Context, id string, code identity.VerificationCode) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts set verification_code=$2, verification_expires_at=$3 where id=$1
	`, id, code.Code, code.ExpiresAt)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) MarkVerified(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts set verified=true, verification_code=null, verification_expires_at=null where id=$1
	`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) CountAccounts(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `select count(*) from accounts`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from accounts where id=$1`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return identity.ErrNotFound
	}
	return nil
}
