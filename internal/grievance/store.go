package grievance

import "context"

// Store is the durable grievance record contract.
//
// Update runs the mutation inside the store's per-record write serialization:
// concurrent updates to the same grievance apply one at a time, and a
// caller's committed update is visible to its next read. Updates to
// different grievances need no coordination.
type Store interface {
	Create(ctx context.Context, g Grievance) (Grievance, error)
	Get(ctx context.Context, id string) (Grievance, error)
	GetByTrackingCode(ctx context.Context, code string) (Grievance, error)
	Update(ctx context.Context, id string, apply func(*Grievance) error) (Grievance, error)

	ListBySubmitter(ctx context.Context, accountID string) ([]Grievance, error)
	ListByDepartment(ctx context.Context, department string) ([]Grievance, error)
	List(ctx context.Context, filter Filter) ([]Grievance, error)

	Stats(ctx context.Context, recentLimit int) (Stats, error)
	FeedbackStats(ctx context.Context) ([]DepartmentFeedback, error)
}
