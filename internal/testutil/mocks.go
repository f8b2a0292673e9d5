// Package testutil holds fakes shared by package tests.
package testutil

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/udisondev/posetouch/internal/score"
)

// MockStore is an in-memory score.Store. Safe for concurrent use.
type MockStore struct {
	mu    sync.Mutex
	saved []score.Result

	// SaveErr, when set, is returned by SaveResult.
	SaveErr error
}

// NewMockStore creates an empty store.
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) SaveResult(_ context.Context, r score.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SaveErr != nil {
		return m.SaveErr
	}
	for i := range m.saved {
		if m.saved[i].SessionID == r.SessionID {
			m.saved[i] = r
			return nil
		}
	}
	m.saved = append(m.saved, r)
	return nil
}

// TopResults orders by score, then by earlier finish, like the SQL stores.
func (m *MockStore) TopResults(_ context.Context, limit int) ([]score.Result, error) {
	m.mu.Lock()
	out := slices.Clone(m.saved)
	m.mu.Unlock()

	slices.SortStableFunc(out, func(a, b score.Result) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return a.EndedAt.Compare(b.EndedAt)
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockStore) BestScore(_ context.Context, player string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	best := 0
	for _, r := range m.saved {
		if r.Player == player {
			best = max(best, r.Score)
		}
	}
	return best, nil
}

func (m *MockStore) PurgeResults(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.saved))
	m.saved = nil
	return n, nil
}

// Saved returns a copy of stored results in insertion order.
func (m *MockStore) Saved() []score.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.saved)
}

// Count returns the number of stored results.
func (m *MockStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock stopped at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
