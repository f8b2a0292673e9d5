package score

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore implements Store for testing.
type mockStore struct {
	mu      sync.Mutex
	results []Result
	queries int
	err     error
}

func (s *mockStore) SaveResult(_ context.Context, r Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.results = append(s.results, r)
	return nil
}

func (s *mockStore) TopResults(_ context.Context, limit int) ([]Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Result(nil), s.results...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *mockStore) BestScore(_ context.Context, player string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	best := 0
	for _, r := range s.results {
		if r.Player == player && r.Score > best {
			best = r.Score
		}
	}
	return best, nil
}

func (s *mockStore) PurgeResults(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.results))
	s.results = nil
	return n, nil
}

func result(id, player string, score int) Result {
	start := time.Unix(1000, 0)
	return Result{SessionID: id, Player: player, Score: score, StartedAt: start, EndedAt: start.Add(time.Minute)}
}

func TestState(t *testing.T) {
	var seen []int
	s := NewState(func(v int) { seen = append(seen, v) })

	assert.Equal(t, 0, s.Score())
	assert.Equal(t, 1, s.Increment())
	assert.Equal(t, 2, s.Increment())
	s.Reset()
	assert.Equal(t, 0, s.Score())
	assert.Equal(t, []int{1, 2, 0}, seen)

	// nil listener is fine
	NewState(nil).Increment()
}

func TestManager_RecordValidates(t *testing.T) {
	t.Parallel()

	m := NewManager(&mockStore{})
	ctx := context.Background()

	assert.ErrorIs(t, m.Record(ctx, result("", "ann", 1)), ErrInvalidResult)
	assert.ErrorIs(t, m.Record(ctx, result("s1", "ann", -1)), ErrInvalidResult)

	bad := result("s1", "ann", 1)
	bad.EndedAt = bad.StartedAt.Add(-time.Second)
	assert.ErrorIs(t, m.Record(ctx, bad), ErrInvalidResult)

	require.NoError(t, m.Record(ctx, result("s1", "ann", 3)))
}

func TestManager_RecordStoreError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	m := NewManager(&mockStore{err: boom})
	assert.ErrorIs(t, m.Record(context.Background(), result("s1", "ann", 1)), boom)
}

func TestManager_TopClampsLimit(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	m := NewManager(store)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		require.NoError(t, m.Record(ctx, result("s"+string(rune('a'+i)), "p", i)))
	}

	top, err := m.Top(ctx, 0)
	require.NoError(t, err)
	require.Len(t, top, DefaultTopLimit)
	assert.Equal(t, 14, top[0].Score)

	top, err = m.Top(ctx, 1000)
	require.NoError(t, err)
	assert.Len(t, top, 15)
}

func TestManager_BestUsesCache(t *testing.T) {
	t.Parallel()

	store := &mockStore{}
	m := NewManager(store)
	ctx := context.Background()

	require.NoError(t, m.Record(ctx, result("s1", "ann", 4)))

	best, err := m.Best(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, 4, best)

	require.NoError(t, m.Record(ctx, result("s2", "ann", 9)))
	best, err = m.Best(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, 9, best)
	assert.Equal(t, 1, store.queries)

	n, err := m.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	best, err = m.Best(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, 0, best)
	assert.Equal(t, 2, store.queries)
}
