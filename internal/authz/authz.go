// Package authz manages the roster of student ids allowed to submit telemetry.
//
// An id must be on the roster and active before the agent starts a session;
// the ingest path consults the same roster for every new user it sees.
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xscout-labs/xscout/internal/logging"
	"github.com/xscout-labs/xscout/internal/metrics"
)

var (
	// ErrNotFound is returned for ids that were never added to the roster.
	ErrNotFound = errors.New("student id not found")
	// ErrEmptyID rejects blank ids.
	ErrEmptyID = errors.New("student id is empty")
)

// Student is one roster entry. Deactivated entries stay on the roster so an
// id can be revoked and later restored without losing its history.
type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists the roster.
type Store interface {
	Get(ctx context.Context, id string) (*Student, error)
	Upsert(ctx context.Context, student *Student) error
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context) ([]*Student, error)
}

// Manager answers authorization queries against the roster.
type Manager struct {
	store Store
}

// NewManager creates a roster manager.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Authorize reports whether a user id may submit telemetry. An unknown id is
// a denial, not an error.
func (m *Manager) Authorize(ctx context.Context, user string) (bool, error) {
	student, err := m.store.Get(ctx, user)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return student.Active, nil
}

// Verify checks an id at session start and records the outcome.
func (m *Manager) Verify(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		metrics.AuthVerificationsTotal.WithLabelValues("invalid").Inc()
		return false, ErrEmptyID
	}

	ok, err := m.Authorize(ctx, id)
	if err != nil {
		metrics.AuthVerificationsTotal.WithLabelValues("error").Inc()
		return false, err
	}

	outcome := "denied"
	if ok {
		outcome = "granted"
	}
	metrics.AuthVerificationsTotal.WithLabelValues(outcome).Inc()
	logging.L(ctx).Info("student id verified", "student_id", id, "granted", ok)
	return ok, nil
}

// Add puts a new active id on the roster, or reactivates an existing one.
func (m *Manager) Add(ctx context.Context, id, name string) (*Student, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrEmptyID
	}

	student := &Student{
		ID:        id,
		Name:      name,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.store.Upsert(ctx, student); err != nil {
		return nil, fmt.Errorf("upsert student: %w", err)
	}
	return student, nil
}

// Deactivate revokes an id without removing it from the roster.
func (m *Manager) Deactivate(ctx context.Context, id string) error {
	return m.store.SetActive(ctx, id, false)
}

// List returns the full roster.
func (m *Manager) List(ctx context.Context) ([]*Student, error) {
	return m.store.List(ctx)
}
