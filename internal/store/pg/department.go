package pg

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"cgms.org/internal/department"
	"cgms.org/internal/identity"
	"cgms.org/internal/ids"
)

const departmentColumns = `id, name, email, account_id, created_at`

func scanDepartment(row interface{ Scan(...any) error }) (department.Department, error) {
	var d department.Department
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.AccountID, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return department.Department{}, department.ErrNotFound
	}
	if err != nil {
		return department.Department{}, err
	}
	d.CreatedAt = d.CreatedAt.UTC()
	return d, nil
}

func (s *Store) CreateDepartment(ctx context.Context, d department.Department) (department.Department, error) {
	if d.ID == "" {
		d.ID = ids.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		insert into departments(id, name, email, account_id, created_at)
		values ($1,$2,$3,$4,$5)
	`, d.ID, d.Name, strings.ToLower(d.Email), d.AccountID, d.CreatedAt)
	if isUniqueViolation(err) {
		return department.Department{}, department.ErrNameTaken
	}
	if err != nil {
		return department.Department{}, err
	}
	return d, nil
}

func (s *Store) GetByName(ctx context.Context, name string) (department.Department, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+departmentColumns+` from departments where lower(name)=lower($1)`, strings.TrimSpace(name))
	return scanDepartment(row)
}

func (s *Store) GetByAccountID(ctx context.Context, accountID string) (department.Department, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+departmentColumns+` from departments where account_id=$1`, accountID)
	return scanDepartment(row)
}

func (s *Store) ListDepartments(ctx context.Context) ([]department.Department, error) {
	rows, err := s.db.QueryContext(ctx, `select `+departmentColumns+` from departments order by name asc`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]department.Department, 0)
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) DeleteDepartment(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from departments where id=$1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return department.ErrNotFound
	}
	return nil
}

// ProvisionDepartment creates the staff account and the department in one
// transaction, so a failure on either side leaves no orphan record.
func (s *Store) ProvisionDepartment(ctx context.Context, d department.Department, account identity.Account) (department.Department, identity.Account, error) {
	if account.ID == "" {
		account.ID = ids.New()
	}
	if d.ID == "" {
		d.ID = ids.New()
	}
	d.AccountID = account.ID
	account.Email = strings.ToLower(account.Email)
	d.Email = account.Email

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return department.Department{}, identity.Account{}, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		insert into accounts(id, username, email, password_hash, role, verified, created_at)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, account.ID, account.Username, account.Email, account.PasswordHash, string(account.Role), account.Verified, account.CreatedAt)
	if isUniqueViolation(err) {
		return department.Department{}, identity.Account{}, identity.ErrEmailTaken
	}
	if err != nil {
		return department.Department{}, identity.Account{}, err
	}

	_, err = tx.ExecContext(ctx, `
		insert into departments(id, name, email, account_id, created_at)
		values ($1,$2,$3,$4,$5)
	`, d.ID, d.Name, d.Email, d.AccountID, d.CreatedAt)
	if isUniqueViolation(err) {
		return department.Department{}, identity.Account{}, department.ErrNameTaken
	}
	if err != nil {
		return department.Department{}, identity.Account{}, err
	}

	if err := tx.Commit(); err != nil {
		return department.Department{}, identity.Account{}, err
	}
	return d, account, nil
}
