// Package ingest stores and serves per-user telemetry time series.
//
// Samples are append-only: the store keeps every accepted sample per user in
// timestamp order, with arrival order breaking ties. The dashboard reads two
// projections: the latest sample per user (the live table) and one user's
// full series (the time-travel replay).
//
// Ingestion is at-least-once. A duplicate user+timestamp submission may
// appear twice in the history; it never corrupts ordering.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xscout-labs/xscout/internal/logging"
	"github.com/xscout-labs/xscout/internal/metrics"
	"github.com/xscout-labs/xscout/internal/telemetry"
	"github.com/xscout-labs/xscout/internal/traces"
)

var (
	// ErrUnauthorized rejects samples for users the authorizer has denied.
	ErrUnauthorized = errors.New("user is not authorized for telemetry")
	// ErrUnknownUser is returned by history queries for users with no samples.
	ErrUnknownUser = errors.New("no telemetry recorded for user")
)

// Store persists per-user telemetry series.
type Store interface {
	// Put appends a sample to its user's series. Appends for one user are
	// serialized; appends for distinct users may proceed in parallel.
	Put(ctx context.Context, sample *telemetry.Sample) error
	// LatestPerUser returns the most recent sample of every known user.
	LatestPerUser(ctx context.Context) ([]*telemetry.Sample, error)
	// HistoryOf returns the newest limit samples of one user, oldest first.
	// limit <= 0 means the full series. Unknown users yield ErrUnknownUser.
	HistoryOf(ctx context.Context, user string, limit int) ([]*telemetry.Sample, error)
	// Users returns the number of users with at least one sample.
	Users(ctx context.Context) (int, error)
}

// Authorizer decides whether a user id may submit and receive telemetry.
// The decision lives at the session boundary; this package only consumes it.
type Authorizer interface {
	Authorize(ctx context.Context, user string) (bool, error)
}

// Service validates, authorizes and stores incoming samples.
type Service struct {
	store Store
	authz Authorizer

	// Authorization decisions are checked once per user and cached until
	// ResetAuth. A cached denial keeps rejecting that id.
	mu      sync.Mutex
	granted map[string]bool
}

// NewService creates an ingestion service.
func NewService(store Store, authz Authorizer) *Service {
	return &Service{
		store:   store,
		authz:   authz,
		granted: make(map[string]bool),
	}
}

// Submit validates and stores one sample.
func (s *Service) Submit(ctx context.Context, sample *telemetry.Sample) error {
	ctx, span := traces.StartSpan(ctx, "ingest.submit", traces.User(sample.User), traces.RiskScore(sample.AI))
	defer span.End()

	if err := sample.Validate(); err != nil {
		metrics.SamplesRejectedTotal.WithLabelValues("invalid").Inc()
		return fmt.Errorf("invalid sample: %w", err)
	}
	sample.Normalize()

	ok, err := s.authorized(ctx, sample.User)
	if err != nil {
		metrics.SamplesRejectedTotal.WithLabelValues("auth_error").Inc()
		return fmt.Errorf("authorization check: %w", err)
	}
	if !ok {
		metrics.SamplesRejectedTotal.WithLabelValues("unauthorized").Inc()
		return fmt.Errorf("%w: %s", ErrUnauthorized, sample.User)
	}

	if err := s.store.Put(ctx, sample); err != nil {
		return fmt.Errorf("store sample: %w", err)
	}
	metrics.SamplesIngestedTotal.Inc()

	if n, err := s.store.Users(ctx); err == nil {
		metrics.TrackedUsers.Set(float64(n))
	}

	logging.L(ctx).Debug("sample stored",
		"user", sample.User,
		"flow_state", sample.Behavior.FlowState,
		"risk", sample.AI,
	)
	return nil
}

// authorized resolves the cached per-user authorization decision.
func (s *Service) authorized(ctx context.Context, user string) (bool, error) {
	s.mu.Lock()
	decision, cached := s.granted[user]
	s.mu.Unlock()
	if cached {
		return decision, nil
	}

	ok, err := s.authz.Authorize(ctx, user)
	if err != nil {
		// Do not cache transient failures.
		return false, err
	}

	s.mu.Lock()
	s.granted[user] = ok
	s.mu.Unlock()
	return ok, nil
}

// ResetAuth drops the cached decision for a user, forcing the next sample to
// re-consult the authorizer. Called when an id is verified or revoked.
func (s *Service) ResetAuth(user string) {
	s.mu.Lock()
	delete(s.granted, user)
	s.mu.Unlock()
}

// Latest returns the most recent sample per user for the live table.
func (s *Service) Latest(ctx context.Context) ([]*telemetry.Sample, error) {
	ctx, span := traces.StartSpan(ctx, "ingest.latest")
	defer span.End()

	samples, err := s.store.LatestPerUser(ctx)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(traces.SampleCount(len(samples)))
	return samples, nil
}

// History returns one user's series, oldest first, capped at limit.
func (s *Service) History(ctx context.Context, user string, limit int) ([]*telemetry.Sample, error) {
	ctx, span := traces.StartSpan(ctx, "ingest.history", traces.User(user))
	defer span.End()

	samples, err := s.store.HistoryOf(ctx, user, limit)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(traces.SampleCount(len(samples)))
	return samples, nil
}
