package department

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"cgms.org/internal/ids"
)

// InMemory implements Store for tests and local runs.
type InMemory struct {
	mu        sync.RWMutex
	items     map[string]Department
	byName    map[string]string
	byAccount map[string]string
}

func NewInMemory() *InMemory {
	return &InMemory{
		items:     make(map[string]Department),
		byName:    make(map[string]string),
		byAccount: make(map[string]string),
	}
}

func nameKey(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

func (s *InMemory) CreateDepartment(ctx context.Context, d Department) (Department, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := nameKey(d.Name)
	if _, exists := s.byName[key]; exists {
		return Department{}, ErrNameTaken
	}
	if d.ID == "" {
		d.ID = ids.New()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	s.items[d.ID] = d
	s.byName[key] = d.ID
	if d.AccountID != "" {
		s.byAccount[d.AccountID] = d.ID
	}
	return d, nil
}

func (s *InMemory) GetByName(ctx context.Context, name string) (Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[nameKey(name)]
	if !ok {
		return Department{}, ErrNotFound
	}
	return s.items[id], nil
}

func (s *InMemory) GetByAccountID(ctx context.Context, accountID string) (Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byAccount[accountID]
	if !ok {
		return Department{}, ErrNotFound
	}
	return s.items[id], nil
}

func (s *InMemory) ListDepartments(ctx context.Context) ([]Department, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Department, 0, len(s.items))
	for _, d := range s.items {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemory) DeleteDepartment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.items[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	delete(s.byName, nameKey(d.Name))
	delete(s.byAccount, d.AccountID)
	return nil
}
