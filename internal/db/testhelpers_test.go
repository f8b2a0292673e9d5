package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/udisondev/posetouch/internal/score"
)

var base = time.Date(2024, 5, 10, 18, 30, 0, 0, time.UTC)

func result(id, player string, points int, endedAfter time.Duration) score.Result {
	return score.Result{
		SessionID:       id,
		Player:          player,
		Score:           points,
		Spawned:         points + 2,
		Touched:         points,
		Expired:         2,
		BodyPart:        "hand",
		ObjectSize:      "medium",
		IntervalSeconds: 5,
		StartedAt:       base,
		EndedAt:         base.Add(endedAfter),
	}
}

// newSQLiteStore opens a fresh store in a temp dir.
func newSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "results.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// startPostgres runs PostgreSQL 16 in a container and returns its DSN.
// Skips the test when Docker is not available.
func startPostgres(t *testing.T) string {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("posetouch_test"),
		postgres.WithUsername("posetouch"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "starting postgres container")
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// checkStore exercises the score.Store contract.
func checkStore(t *testing.T, s score.Store) {
	t.Helper()
	ctx := context.Background()

	best, err := s.BestScore(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, best, "no results yet")

	require.NoError(t, s.SaveResult(ctx, result("s1", "alice", 4, time.Minute)))
	require.NoError(t, s.SaveResult(ctx, result("s2", "bob", 9, 2*time.Minute)))
	require.NoError(t, s.SaveResult(ctx, result("s3", "alice", 9, time.Minute)))
	require.NoError(t, s.SaveResult(ctx, result("s4", "carol", 1, time.Minute)))

	top, err := s.TopResults(ctx, 3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, "s3", top[0].SessionID, "tie broken by earlier finish")
	assert.Equal(t, "s2", top[1].SessionID)
	assert.Equal(t, "s1", top[2].SessionID)

	got := top[0]
	want := result("s3", "alice", 9, time.Minute)
	assert.Equal(t, want.Player, got.Player)
	assert.Equal(t, want.Spawned, got.Spawned)
	assert.Equal(t, want.Touched, got.Touched)
	assert.Equal(t, want.Expired, got.Expired)
	assert.Equal(t, want.BodyPart, got.BodyPart)
	assert.Equal(t, want.ObjectSize, got.ObjectSize)
	assert.InDelta(t, want.IntervalSeconds, got.IntervalSeconds, 1e-9)
	assert.True(t, want.StartedAt.Equal(got.StartedAt), "started_at %v", got.StartedAt)
	assert.True(t, want.EndedAt.Equal(got.EndedAt), "ended_at %v", got.EndedAt)

	best, err = s.BestScore(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 9, best)

	// saving the same session again replaces it
	require.NoError(t, s.SaveResult(ctx, result("s4", "carol", 12, time.Minute)))
	top, err = s.TopResults(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 4)
	assert.Equal(t, "s4", top[0].SessionID)
	assert.Equal(t, 12, top[0].Score)

	n, err := s.PurgeResults(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	top, err = s.TopResults(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}
