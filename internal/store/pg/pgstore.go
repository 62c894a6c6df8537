// Package pg implements the durable stores on PostgreSQL.
package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"cgms.org/internal/config"
	"cgms.org/internal/department"
	"cgms.org/internal/grievance"
	"cgms.org/internal/identity"
)

const (
	pgErrUniqueViolation = "23505"
)

type Store struct {
	db *sql.DB
}

var (
	_ identity.Store               = (*Store)(nil)
	_ grievance.Store              = (*Store)(nil)
	_ department.Store             = (*Store)(nil)
	_ department.AtomicProvisioner = (*Store)(nil)
)

// Open connects to PostgreSQL and applies pool settings from config.
func Open(cfg config.Database) (*Store, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(time.Duration(cfg.MaxIdleTime) * time.Second)
	db.SetConnMaxLifetime(15 * time.Minute)
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection; tests use this with sqlmock.
func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func maybePgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func isUniqueViolation(err error) bool {
	pgErr, ok := maybePgError(err)
	return ok && pgErr.Code == pgErrUniqueViolation
}
