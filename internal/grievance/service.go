package grievance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"cgms.org/internal/ids"
	"cgms.org/internal/obs"
)

const recentStatsLimit = 5

// DepartmentDirectory answers whether a named department is provisioned.
// Implemented by the department package; transitions into "In Progress" must
// route to a real department.
type DepartmentDirectory interface {
	DepartmentExists(ctx context.Context, name string) (bool, error)
}

// Service drives the grievance lifecycle on top of a Store.
type Service struct {
	store       Store
	departments DepartmentDirectory
	now         func() time.Time
	newCode     func() string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTrackingCodeSource overrides anonymous tracking code generation.
func WithTrackingCodeSource(next func() string) Option {
	return func(s *Service) { s.newCode = next }
}

func NewService(store Store, departments DepartmentDirectory, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("grievance: nil store")
	}
	if departments == nil {
		return nil, fmt.Errorf("grievance: nil department directory")
	}
	s := &Service{
		store:       store,
		departments: departments,
		now:         time.Now,
		newCode:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SubmitRequest carries a new grievance. Anonymous submissions leave
// SubmitterID empty; identified ones must set it.
type SubmitRequest struct {
	Description string
	Category    string
	Anonymous   bool
	SubmitterID string
}

// Submit files a grievance in Pending. Anonymous submissions get a fresh
// tracking code; the returned record is the single place the code is handed
// out.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (Grievance, error) {
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)
	if req.Description == "" {
		return Grievance{}, fmt.Errorf("%w: description required", ErrInvalidInput)
	}
	if req.Category == "" {
		return Grievance{}, fmt.Errorf("%w: category required", ErrInvalidInput)
	}
	if !req.Anonymous && req.SubmitterID == "" {
		return Grievance{}, fmt.Errorf("%w: submitter required", ErrInvalidInput)
	}

	now := s.now().UTC()
	g := Grievance{
		ID:          ids.New(),
		Description: req.Description,
		Category:    req.Category,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		IsAnonymous: req.Anonymous,
	}
	if req.Anonymous {
		g.TrackingCode = s.newCode()
	} else {
		g.SubmitterID = req.SubmitterID
	}

	created, err := s.store.Create(ctx, g)
	if err != nil {
		return Grievance{}, err
	}
	obs.CountGrievanceSubmitted(req.Anonymous)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (Grievance, error) {
	return s.store.Get(ctx, id)
}

// TrackByCode looks an anonymous grievance up by its tracking code.
// Possession of the code is the caller's only credential.
func (s *Service) TrackByCode(ctx context.Context, code string) (Grievance, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Grievance{}, ErrNotFound
	}
	return s.store.GetByTrackingCode(ctx, code)
}

func (s *Service) ListForSubmitter(ctx context.Context, accountID string) ([]Grievance, error) {
	return s.store.ListBySubmitter(ctx, accountID)
}

func (s *Service) ListForDepartment(ctx context.Context, department string) ([]Grievance, error) {
	return s.store.ListByDepartment(ctx, department)
}

func (s *Service) List(ctx context.Context, filter Filter) ([]Grievance, error) {
	if filter.Status != "" {
		if _, err := ParseStatus(filter.Status); err != nil {
			return nil, err
		}
	}
	return s.store.List(ctx, filter)
}

// UpdateStatus advances a grievance through the state machine.
//
// Moving to "In Progress" assigns the grievance to an existing department.
// Moving to "Resolved" records a non-empty resolution note; the department
// assignment may change in the same step. Resolved is terminal and "Pending"
// is never a valid target. The mutation runs under the store's per-record
// serialization, so concurrent updates cannot interleave reads and writes.
func (s *Service) UpdateStatus(ctx context.Context, id, requested, department, resolutionNote string) (Grievance, error) {
	target, err := ParseStatus(requested)
	if err != nil {
		return Grievance{}, err
	}
	if target == StatusPending {
		return Grievance{}, fmt.Errorf("%w: invalid status", ErrInvalidInput)
	}
	department = strings.TrimSpace(department)
	resolutionNote = strings.TrimSpace(resolutionNote)

	if department != "" {
		ok, err := s.departments.DepartmentExists(ctx, department)
		if err != nil {
			return Grievance{}, err
		}
		if !ok {
			return Grievance{}, fmt.Errorf("%w: unknown department", ErrInvalidInput)
		}
	}

	updated, err := s.store.Update(ctx, id, func(g *Grievance) error {
		if g.Status == StatusResolved {
			return fmt.Errorf("%w: grievance already resolved", ErrInvalidInput)
		}
		switch target {
		case StatusInProgress:
			if department == "" && g.Department == "" {
				return fmt.Errorf("%w: department required", ErrInvalidInput)
			}
		case StatusResolved:
			if resolutionNote == "" {
				return fmt.Errorf("%w: resolution note required", ErrInvalidInput)
			}
			g.ResolutionNote = resolutionNote
		}
		if department != "" {
			g.Department = department
		}
		g.Status = target
		g.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return Grievance{}, err
	}
	obs.CountGrievanceTransition(string(target))
	return updated, nil
}

// AttachFeedback records a rating and optional comment on a resolved
// grievance. Repeated calls overwrite the previous feedback.
func (s *Service) AttachFeedback(ctx context.Context, id string, rating int, comment string) (Grievance, error) {
	if rating < 1 || rating > 5 {
		return Grievance{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}
	return s.store.Update(ctx, id, func(g *Grievance) error {
		if g.Status != StatusResolved {
			return fmt.Errorf("%w: feedback requires a resolved grievance", ErrInvalidInput)
		}
		g.Feedback = &Feedback{Rating: rating, Comment: strings.TrimSpace(comment)}
		g.UpdatedAt = s.now().UTC()
		return nil
	})
}

// AttachFeedbackByTrackingCode is the anonymous feedback path: the tracking
// code both locates the grievance and authorizes the write.
func (s *Service) AttachFeedbackByTrackingCode(ctx context.Context, code string, rating int, comment string) (Grievance, error) {
	g, err := s.TrackByCode(ctx, code)
	if err != nil {
		return Grievance{}, err
	}
	return s.AttachFeedback(ctx, g.ID, rating, comment)
}

// Stats reports per-status counts and the most recent filings.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx, recentStatsLimit)
}

// FeedbackStats aggregates ratings per department, best average first.
func (s *Service) FeedbackStats(ctx context.Context) ([]DepartmentFeedback, error) {
	return s.store.FeedbackStats(ctx)
}
