package ingest

import (
	"context"
	"sort"
	"sync"

	"github.com/xscout-labs/xscout/internal/telemetry"
)

// MemoryStore keeps every series in memory. Used in development and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	series map[string][]*telemetry.Sample
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		series: make(map[string][]*telemetry.Sample),
	}
}

// Put appends a sample to its user's series, keeping the series sorted by
// timestamp. An equal timestamp lands after the existing entries, so arrival
// order breaks ties.
func (m *MemoryStore) Put(_ context.Context, sample *telemetry.Sample) error {
	cp := sample.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()

	series := m.series[cp.User]
	i := sort.Search(len(series), func(i int) bool {
		return series[i].Timestamp.After(cp.Timestamp)
	})
	series = append(series, nil)
	copy(series[i+1:], series[i:])
	series[i] = cp
	m.series[cp.User] = series
	return nil
}

// LatestPerUser returns each user's newest sample, sorted by user id.
func (m *MemoryStore) LatestPerUser(_ context.Context) ([]*telemetry.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*telemetry.Sample, 0, len(m.series))
	for _, series := range m.series {
		out = append(out, series[len(series)-1].Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].User < out[j].User })
	return out, nil
}

// HistoryOf returns the newest limit samples of one user, oldest first.
func (m *MemoryStore) HistoryOf(_ context.Context, user string, limit int) ([]*telemetry.Sample, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	series, ok := m.series[user]
	if !ok {
		return nil, ErrUnknownUser
	}
	if limit > 0 && len(series) > limit {
		series = series[len(series)-limit:]
	}
	out := make([]*telemetry.Sample, len(series))
	for i, s := range series {
		out[i] = s.Clone()
	}
	return out, nil
}

// Users returns the number of users with at least one sample.
func (m *MemoryStore) Users(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.series), nil
}
