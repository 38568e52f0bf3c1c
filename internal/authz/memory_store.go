package authz

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps the roster in memory. Used in development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	students map[string]*Student
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory roster.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{students: make(map[string]*Student)}
}

// Seed adds active entries for the given ids. Handy for local development.
func (m *MemoryStore) Seed(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.students[id]; !ok {
			m.students[id] = &Student{ID: id, Active: true}
		}
	}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	student, ok := m.students[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *student
	return &cp, nil
}

func (m *MemoryStore) Upsert(_ context.Context, student *Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *student
	if existing, ok := m.students[student.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	}
	m.students[student.ID] = &cp
	return nil
}

func (m *MemoryStore) SetActive(_ context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	student, ok := m.students[id]
	if !ok {
		return ErrNotFound
	}
	student.Active = active
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]*Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Student, 0, len(m.students))
	for _, s := range m.students {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
