// Package department manages service departments and their staff accounts.
package department

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("department: not found")
	ErrNameTaken    = errors.New("department: name already in use")
	ErrInvalidInput = errors.New("invalid input")
)

// Department routes grievances and owns one staff login account.
type Department struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AccountID string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
