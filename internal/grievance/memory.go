package grievance

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// InMemory is a map-backed Store used by tests and local runs.
type InMemory struct {
	mu     sync.Mutex
	items  map[string]Grievance
	byCode map[string]string
	order  []string
}

func NewInMemory() *InMemory {
	return &InMemory{
		items:  make(map[string]Grievance),
		byCode: make(map[string]string),
	}
}

func copyGrievance(g Grievance) Grievance {
	out := g
	if g.Feedback != nil {
		fb := *g.Feedback
		out.Feedback = &fb
	}
	return out
}

func (m *InMemory) Create(ctx context.Context, g Grievance) (Grievance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[g.ID] = copyGrievance(g)
	if g.TrackingCode != "" {
		m.byCode[g.TrackingCode] = g.ID
	}
	m.order = append(m.order, g.ID)
	return copyGrievance(g), nil
}

func (m *InMemory) Get(ctx context.Context, id string) (Grievance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.items[id]
	if !ok {
		return Grievance{}, ErrNotFound
	}
	return copyGrievance(g), nil
}

func (m *InMemory) GetByTrackingCode(ctx context.Context, code string) (Grievance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byCode[code]
	if !ok {
		return Grievance{}, ErrNotFound
	}
	return copyGrievance(m.items[id]), nil
}

func (m *InMemory) Update(ctx context.Context, id string, apply func(*Grievance) error) (Grievance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.items[id]
	if !ok {
		return Grievance{}, ErrNotFound
	}
	g = copyGrievance(g)
	if err := apply(&g); err != nil {
		return Grievance{}, err
	}
	m.items[id] = copyGrievance(g)
	return g, nil
}

func (m *InMemory) ListBySubmitter(ctx context.Context, accountID string) ([]Grievance, error) {
	return m.list(func(g Grievance) bool { return !g.IsAnonymous && g.SubmitterID == accountID })
}

func (m *InMemory) ListByDepartment(ctx context.Context, department string) ([]Grievance, error) {
	return m.list(func(g Grievance) bool { return g.Department == department })
}

func (m *InMemory) List(ctx context.Context, filter Filter) ([]Grievance, error) {
	return m.list(func(g Grievance) bool {
		if filter.Status != "" && string(g.Status) != filter.Status {
			return false
		}
		if filter.Category != "" && !strings.EqualFold(g.Category, filter.Category) {
			return false
		}
		return true
	})
}

// list returns matches newest first.
func (m *InMemory) list(match func(Grievance) bool) ([]Grievance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Grievance, 0)
	for i := len(m.order) - 1; i >= 0; i-- {
		g := m.items[m.order[i]]
		if match(g) {
			out = append(out, copyGrievance(g))
		}
	}
	return out, nil
}

func (m *InMemory) Stats(ctx context.Context, recentLimit int) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var st Stats
	for i := len(m.order) - 1; i >= 0; i-- {
		g := m.items[m.order[i]]
		switch g.Status {
		case StatusPending:
			st.Pending++
		case StatusInProgress:
			st.InProgress++
		case StatusResolved:
			st.Resolved++
		}
		if len(st.Recent) < recentLimit {
			st.Recent = append(st.Recent, copyGrievance(g))
		}
	}
	return st, nil
}

func (m *InMemory) FeedbackStats(ctx context.Context) ([]DepartmentFeedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, g := range m.items {
		if g.Status != StatusResolved || g.Feedback == nil || g.Department == "" {
			continue
		}
		sums[g.Department] += g.Feedback.Rating
		counts[g.Department]++
	}
	out := make([]DepartmentFeedback, 0, len(counts))
	for dept, n := range counts {
		out = append(out, DepartmentFeedback{
			Department:    dept,
			AverageRating: float64(sums[dept]) / float64(n),
			Count:         n,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AverageRating != out[j].AverageRating {
			return out[i].AverageRating > out[j].AverageRating
		}
		return out[i].Department < out[j].Department
	})
	return out, nil
}
