// Package grievance owns the grievance record and its status state machine.
package grievance

import (
	"errors"
	"fmt"
	"time"
)

// Status values match the wire format of the legacy system.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusInProgress Status = "In Progress"
	StatusResolved   Status = "Resolved"
)

var (
	ErrNotFound     = errors.New("grievance: not found")
	ErrInvalidInput = errors.New("invalid input")
)

// ParseStatus maps a requested status string onto the closed set.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending:
		return StatusPending, nil
	case StatusInProgress:
		return StatusInProgress, nil
	case StatusResolved:
		return StatusResolved, nil
	}
	return "", fmt.Errorf("%w: invalid status", ErrInvalidInput)
}

// Feedback is attached once a grievance is resolved.
type Feedback struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Grievance is a filed service complaint.
//
// Exactly one of SubmitterID and TrackingCode is set: identified grievances
// reference their author, anonymous ones carry an opaque tracking code. The
// tracking code is returned once at submission and never serialized again;
// possession of the code is the only read credential for anonymous records.
type Grievance struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	IsAnonymous  bool   `json:"is_anonymous"`
	SubmitterID  string `json:"submitter_id,omitempty"`
	TrackingCode string `json:"-"`

	Department     string    `json:"department"`
	ResolutionNote string    `json:"resolution_note"`
	Feedback       *Feedback `json:"feedback,omitempty"`
}

// Filter narrows admin listings.
type Filter struct {
	Status   string
	Category string
}

// Stats summarizes grievances for the admin dashboard.
type Stats struct {
	Pending    int         `json:"pending"`
	InProgress int         `json:"in_progress"`
	Resolved   int         `json:"resolved"`
	Recent     []Grievance `json:"recent"`
}

// DepartmentFeedback aggregates feedback over resolved grievances of one
// department.
type DepartmentFeedback struct {
	Department    string  `json:"department"`
	AverageRating float64 `json:"average_rating"`
	Count         int     `json:"count"`
}
