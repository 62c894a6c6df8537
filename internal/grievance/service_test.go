package grievance

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeDirectory struct {
	names map[string]bool
}

func (d *fakeDirectory) DepartmentExists(ctx context.Context, name string) (bool, error) {
	return d.names[name], nil
}

func newTestService(t *testing.T, opts ...Option) (*Service, *InMemory) {
	t.Helper()
	store := NewInMemory()
	dir := &fakeDirectory{names: map[string]bool{"Housekeeping": true, "Maintenance": true}}
	svc, err := NewService(store, dir, opts...)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, store
}

func submit(t *testing.T, svc *Service, req SubmitRequest) Grievance {
	t.Helper()
	g, err := svc.Submit(context.Background(), req)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return g
}

func TestSubmitIdentified(t *testing.T) {
	svc, _ := newTestService(t)

	g := submit(t, svc, SubmitRequest{
		Description: "AC not working",
		Category:    "Room",
		SubmitterID: "acct-1",
	})
	if g.Status != StatusPending {
		t.Fatalf("new grievances start Pending, got %s", g.Status)
	}
	if g.ID == "" {
		t.Fatal("expected an id")
	}
	if g.TrackingCode != "" {
		t.Fatal("identified grievances carry no tracking code")
	}
	if g.SubmitterID != "acct-1" {
		t.Fatalf("submitter not recorded: %q", g.SubmitterID)
	}
	if g.CreatedAt.IsZero() || !g.UpdatedAt.Equal(g.CreatedAt) {
		t.Fatalf("timestamps not initialized: created=%v updated=%v", g.CreatedAt, g.UpdatedAt)
	}
}

func TestSubmitAnonymous(t *testing.T) {
	svc, _ := newTestService(t, WithTrackingCodeSource(func() string { return "code-123" }))

	g := submit(t, svc, SubmitRequest{Description: "noisy hallway", Category: "Noise", Anonymous: true})
	if g.TrackingCode != "code-123" {
		t.Fatalf("expected tracking code, got %q", g.TrackingCode)
	}
	if g.SubmitterID != "" {
		t.Fatal("anonymous grievances must not reference an account")
	}

	tracked, err := svc.TrackByCode(context.Background(), "code-123")
	if err != nil {
		t.Fatalf("TrackByCode: %v", err)
	}
	if tracked.ID != g.ID {
		t.Fatalf("tracked wrong grievance: %s", tracked.ID)
	}
	if _, err := svc.TrackByCode(context.Background(), "wrong"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown code, got %v", err)
	}
}

func TestSubmitValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	cases := []SubmitRequest{
		{Description: "", Category: "Room", SubmitterID: "acct-1"},
		{Description: "broken lamp", Category: "", SubmitterID: "acct-1"},
		{Description: "broken lamp", Category: "Room"}, // identified without submitter
	}
	for i, req := range cases {
		if _, err := svc.Submit(ctx, req); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestLifecycleHappyPath(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	g := submit(t, svc, SubmitRequest{Description: "AC not working", Category: "Room", SubmitterID: "acct-1"})

	g, err := svc.UpdateStatus(ctx, g.ID, "In Progress", "Maintenance", "")
	if err != nil {
		t.Fatalf("UpdateStatus to In Progress: %v", err)
	}
	if g.Status != StatusInProgress || g.Department != "Maintenance" {
		t.Fatalf("unexpected state: %s / %s", g.Status, g.Department)
	}

	g, err = svc.UpdateStatus(ctx, g.ID, "Resolved", "", "Fixed unit")
	if err != nil {
		t.Fatalf("UpdateStatus to Resolved: %v", err)
	}
	if g.Status != StatusResolved || g.ResolutionNote != "Fixed unit" {
		t.Fatalf("unexpected state: %s / %q", g.Status, g.ResolutionNote)
	}
	// Department assignment survives resolution.
	if g.Department != "Maintenance" {
		t.Fatalf("department lost: %q", g.Department)
	}
}

func TestDirectResolveFromPending(t *testing.T) {
	svc, _ := newTestService(t)

	g := submit(t, svc, SubmitRequest{Description: "cold food", Category: "Dining", SubmitterID: "acct-1"})
	g, err := svc.UpdateStatus(context.Background(), g.ID, "Resolved", "Housekeeping", "apologized and replaced")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if g.Status != StatusResolved {
		t.Fatalf("expected Resolved, got %s", g.Status)
	}
}

func TestUpdateStatusRejections(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	g := submit(t, svc, SubmitRequest{Description: "leaky tap", Category: "Room", SubmitterID: "acct-1"})

	tests := []struct {
		name       string
		status     string
		department string
		note       string
	}{
		{"unknown status", "Escalated", "", ""},
		{"pending is not a target", "Pending", "", ""},
		{"in progress without department", "In Progress", "", ""},
		{"unknown department", "In Progress", "Spa", ""},
		{"resolved without note", "Resolved", "Maintenance", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.UpdateStatus(ctx, g.ID, tc.status, tc.department, tc.note); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}

	if _, err := svc.UpdateStatus(ctx, "missing-id", "In Progress", "Maintenance", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolvedIsTerminal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	g := submit(t, svc, SubmitRequest{Description: "dirty pool", Category: "Facilities", SubmitterID: "acct-1"})
	if _, err := svc.UpdateStatus(ctx, g.ID, "Resolved", "Housekeeping", "cleaned"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, g.ID, "In Progress", "Maintenance", ""); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput leaving Resolved, got %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, g.ID, "Resolved", "", "again"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput re-resolving, got %v", err)
	}
}

func TestAttachFeedback(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	g := submit(t, svc, SubmitRequest{Description: "AC not working", Category: "Room", SubmitterID: "acct-1"})

	// Feedback before resolution is rejected.
	if _, err := svc.AttachFeedback(ctx, g.ID, 4, "quick"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput on unresolved grievance, got %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, g.ID, "Resolved", "Maintenance", "Fixed unit"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	for _, rating := range []int{0, 6} {
		if _, err := svc.AttachFeedback(ctx, g.ID, rating, ""); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("rating %d: expected ErrInvalidInput, got %v", rating, err)
		}
	}

	g, err := svc.AttachFeedback(ctx, g.ID, 4, "quick fix")
	if err != nil {
		t.Fatalf("AttachFeedback: %v", err)
	}
	if g.Feedback == nil || g.Feedback.Rating != 4 {
		t.Fatalf("feedback not recorded: %+v", g.Feedback)
	}

	// Repeated feedback overwrites.
	g, err = svc.AttachFeedback(ctx, g.ID, 5, "even better")
	if err != nil {
		t.Fatalf("AttachFeedback overwrite: %v", err)
	}
	if g.Feedback.Rating != 5 || g.Feedback.Comment != "even better" {
		t.Fatalf("feedback not overwritten: %+v", g.Feedback)
	}
}

func TestFeedbackByTrackingCode(t *testing.T) {
	svc, _ := newTestService(t, WithTrackingCodeSource(func() string { return "anon-1" }))
	ctx := context.Background()

	g := submit(t, svc, SubmitRequest{Description: "noisy hallway", Category: "Noise", Anonymous: true})
	if _, err := svc.UpdateStatus(ctx, g.ID, "Resolved", "Housekeeping", "spoke with guests"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	got, err := svc.AttachFeedbackByTrackingCode(ctx, "anon-1", 3, "ok")
	if err != nil {
		t.Fatalf("AttachFeedbackByTrackingCode: %v", err)
	}
	if got.Feedback == nil || got.Feedback.Rating != 3 {
		t.Fatalf("feedback not recorded: %+v", got.Feedback)
	}
	if _, err := svc.AttachFeedbackByTrackingCode(ctx, "bogus", 3, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	a := submit(t, svc, SubmitRequest{Description: "one", Category: "Room", SubmitterID: "acct-1"})
	submit(t, svc, SubmitRequest{Description: "two", Category: "Dining", SubmitterID: "acct-2"})
	submit(t, svc, SubmitRequest{Description: "three", Category: "Room", Anonymous: true})

	mine, err := svc.ListForSubmitter(ctx, "acct-1")
	if err != nil {
		t.Fatalf("ListForSubmitter: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Fatalf("unexpected submitter listing: %+v", mine)
	}

	if _, err := svc.UpdateStatus(ctx, a.ID, "In Progress", "Maintenance", ""); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	dept, err := svc.ListForDepartment(ctx, "Maintenance")
	if err != nil {
		t.Fatalf("ListForDepartment: %v", err)
	}
	if len(dept) != 1 || dept[0].ID != a.ID {
		t.Fatalf("unexpected department listing: %+v", dept)
	}

	rooms, err := svc.List(ctx, Filter{Category: "room"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("expected 2 Room grievances, got %d", len(rooms))
	}

	pending, err := svc.List(ctx, Filter{Status: "Pending"})
	if err != nil {
		t.Fatalf("List by status: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 Pending grievances, got %d", len(pending))
	}

	if _, err := svc.List(ctx, Filter{Status: "Open"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad status filter, got %v", err)
	}
}

func TestStats(t *testing.T) {
	clock := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	svc, _ := newTestService(t, WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	for i := 0; i < 7; i++ {
		submit(t, svc, SubmitRequest{Description: "filler", Category: "Room", SubmitterID: "acct-1"})
	}
	g := submit(t, svc, SubmitRequest{Description: "latest", Category: "Room", SubmitterID: "acct-1"})
	if _, err := svc.UpdateStatus(ctx, g.ID, "Resolved", "Maintenance", "done"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	st, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Pending != 7 || st.Resolved != 1 || st.InProgress != 0 {
		t.Fatalf("unexpected counts: %+v", st)
	}
	if len(st.Recent) != 5 {
		t.Fatalf("expected 5 recent entries, got %d", len(st.Recent))
	}
	if st.Recent[0].ID != g.ID {
		t.Fatalf("recent list not newest-first: %s", st.Recent[0].ID)
	}
}

func TestFeedbackStats(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	resolveWithRating := func(dept string, rating int) {
		t.Helper()
		g := submit(t, svc, SubmitRequest{Description: "x", Category: "Room", SubmitterID: "acct-1"})
		if _, err := svc.UpdateStatus(ctx, g.ID, "Resolved", dept, "done"); err != nil {
			t.Fatalf("UpdateStatus: %v", err)
		}
		if _, err := svc.AttachFeedback(ctx, g.ID, rating, ""); err != nil {
			t.Fatalf("AttachFeedback: %v", err)
		}
	}

	resolveWithRating("Maintenance", 2)
	resolveWithRating("Maintenance", 4)
	resolveWithRating("Housekeeping", 5)

	// Resolved without feedback does not count.
	g := submit(t, svc, SubmitRequest{Description: "x", Category: "Room", SubmitterID: "acct-1"})
	if _, err := svc.UpdateStatus(ctx, g.ID, "Resolved", "Housekeeping", "done"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	stats, err := svc.FeedbackStats(ctx)
	if err != nil {
		t.Fatalf("FeedbackStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 departments, got %d", len(stats))
	}
	if stats[0].Department != "Housekeeping" || stats[0].AverageRating != 5 || stats[0].Count != 1 {
		t.Fatalf("unexpected leader: %+v", stats[0])
	}
	if stats[1].Department != "Maintenance" || stats[1].AverageRating != 3 || stats[1].Count != 2 {
		t.Fatalf("unexpected runner-up: %+v", stats[1])
	}
}
