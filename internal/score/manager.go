package score

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Leaderboard limits.
const (
	DefaultTopLimit = 10
	MaxTopLimit     = 100
)

// ErrInvalidResult is returned for results that cannot be stored.
var ErrInvalidResult = errors.New("invalid session result")

// Result is the outcome of one finished session.
type Result struct {
	SessionID       string    `json:"sessionId"`
	Player          string    `json:"player"`
	Score           int       `json:"score"`
	Spawned         int       `json:"spawned"`
	Touched         int       `json:"touched"`
	Expired         int       `json:"expired"`
	BodyPart        string    `json:"bodyPart"`
	ObjectSize      string    `json:"objectSize"`
	IntervalSeconds float64   `json:"intervalSeconds"`
	StartedAt       time.Time `json:"startedAt"`
	EndedAt         time.Time `json:"endedAt"`
}

// Store provides persistence for session results.
type Store interface {
	SaveResult(ctx context.Context, r Result) error
	TopResults(ctx context.Context, limit int) ([]Result, error)
	BestScore(ctx context.Context, player string) (int, error)
	PurgeResults(ctx context.Context) (int64, error)
}

// Manager records finished sessions and serves the leaderboard.
type Manager struct {
	store Store

	mu   sync.RWMutex
	best map[string]int // player → best score (cache)
}

// NewManager creates a manager on top of store.
func NewManager(store Store) *Manager {
	return &Manager{
		store: store,
		best:  make(map[string]int, 64),
	}
}

// Record stores a finished session.
func (m *Manager) Record(ctx context.Context, r Result) error {
	if r.SessionID == "" {
		return fmt.Errorf("%w: empty session id", ErrInvalidResult)
	}
	if r.Score < 0 {
		return fmt.Errorf("%w: negative score %d", ErrInvalidResult, r.Score)
	}
	if r.EndedAt.Before(r.StartedAt) {
		return fmt.Errorf("%w: ended before started", ErrInvalidResult)
	}

	if err := m.store.SaveResult(ctx, r); err != nil {
		return fmt.Errorf("save result %s: %w", r.SessionID, err)
	}

	m.mu.Lock()
	if cur, ok := m.best[r.Player]; ok && r.Score > cur {
		m.best[r.Player] = r.Score
	}
	m.mu.Unlock()

	slog.Info("session recorded",
		"session", r.SessionID,
		"player", r.Player,
		"score", r.Score,
		"touched", r.Touched,
		"expired", r.Expired)

	return nil
}

// Top returns the best results, highest score first.
// limit <= 0 means DefaultTopLimit; larger than MaxTopLimit is clamped.
func (m *Manager) Top(ctx context.Context, limit int) ([]Result, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	limit = min(limit, MaxTopLimit)

	res, err := m.store.TopResults(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("top results: %w", err)
	}
	return res, nil
}

// Best returns the best score of a player. Uses cache if available, otherwise queries the store.
func (m *Manager) Best(ctx context.Context, player string) (int, error) {
	m.mu.RLock()
	if v, ok := m.best[player]; ok {
		m.mu.RUnlock()
		return v, nil
	}
	m.mu.RUnlock()

	v, err := m.store.BestScore(ctx, player)
	if err != nil {
		return 0, fmt.Errorf("best score %q: %w", player, err)
	}

	m.mu.Lock()
	m.best[player] = v
	m.mu.Unlock()

	return v, nil
}

// Purge deletes every stored result. Returns number of deleted rows.
func (m *Manager) Purge(ctx context.Context) (int64, error) {
	n, err := m.store.PurgeResults(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge results: %w", err)
	}

	m.mu.Lock()
	m.best = make(map[string]int, 64)
	m.mu.Unlock()

	slog.Info("session results purged", "deleted", n)
	return n, nil
}
