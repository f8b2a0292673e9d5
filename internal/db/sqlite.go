package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/udisondev/posetouch/internal/score"
)

// SQLiteStore stores session results in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path and applies migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1) // one writer

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("pinging sqlite %s: %w", path, err)
	}
	if err := migrate(ctx, sqlDB, goose.DialectSQLite3, "sqlite"); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return &SQLiteStore{db: sqlDB}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveResult inserts or replaces a result by session id.
func (s *SQLiteStore) SaveResult(ctx context.Context, res score.Result) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_results
		   (session_id, player, score, spawned, touched, expired,
		    body_part, object_size, interval_seconds, started_at, ended_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (session_id) DO UPDATE SET
		   player           = excluded.player,
		   score            = excluded.score,
		   spawned          = excluded.spawned,
		   touched          = excluded.touched,
		   expired          = excluded.expired,
		   body_part        = excluded.body_part,
		   object_size      = excluded.object_size,
		   interval_seconds = excluded.interval_seconds,
		   started_at       = excluded.started_at,
		   ended_at         = excluded.ended_at`,
		res.SessionID, res.Player, res.Score, res.Spawned, res.Touched, res.Expired,
		res.BodyPart, res.ObjectSize, res.IntervalSeconds,
		res.StartedAt.UnixMilli(), res.EndedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("upsert session_results %s: %w", res.SessionID, err)
	}
	return nil
}

// TopResults returns up to limit results, highest score first, earlier finish breaking ties.
func (s *SQLiteStore) TopResults(ctx context.Context, limit int) ([]score.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT session_id, player, score, spawned, touched, expired,
		        body_part, object_size, interval_seconds, started_at, ended_at
		 FROM session_results
		 ORDER BY score DESC, ended_at ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query session_results: %w", err)
	}
	defer rows.Close()

	var result []score.Result
	for rows.Next() {
		var (
			res            score.Result
			started, ended int64
		)
		if err := rows.Scan(&res.SessionID, &res.Player, &res.Score, &res.Spawned, &res.Touched, &res.Expired,
			&res.BodyPart, &res.ObjectSize, &res.IntervalSeconds, &started, &ended); err != nil {
			return nil, fmt.Errorf("scan session_results: %w", err)
		}
		res.StartedAt = time.UnixMilli(started).UTC()
		res.EndedAt = time.UnixMilli(ended).UTC()
		result = append(result, res)
	}
	return result, rows.Err()
}

// BestScore returns the highest score of player, 0 when the player has none.
func (s *SQLiteStore) BestScore(ctx context.Context, player string) (int, error) {
	var best int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(score), 0) FROM session_results WHERE player = ?`, player,
	).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("query best score %q: %w", player, err)
	}
	return best, nil
}

// PurgeResults deletes every result.
func (s *SQLiteStore) PurgeResults(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM session_results`)
	if err != nil {
		return 0, fmt.Errorf("delete session_results: %w", err)
	}
	return res.RowsAffected()
}
