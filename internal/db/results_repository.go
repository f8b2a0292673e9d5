package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/posetouch/internal/score"
)

// ResultRepository stores session results in PostgreSQL.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// SaveResult inserts or replaces a result by session id.
func (r *ResultRepository) SaveResult(ctx context.Context, res score.Result) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO session_results
		   (session_id, player, score, spawned, touched, expired,
		    body_part, object_size, interval_seconds, started_at, ended_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (session_id) DO UPDATE SET
		   player           = EXCLUDED.player,
		   score            = EXCLUDED.score,
		   spawned          = EXCLUDED.spawned,
		   touched          = EXCLUDED.touched,
		   expired          = EXCLUDED.expired,
		   body_part        = EXCLUDED.body_part,
		   object_size      = EXCLUDED.object_size,
		   interval_seconds = EXCLUDED.interval_seconds,
		   started_at       = EXCLUDED.started_at,
		   ended_at         = EXCLUDED.ended_at`,
		res.SessionID, res.Player, res.Score, res.Spawned, res.Touched, res.Expired,
		res.BodyPart, res.ObjectSize, res.IntervalSeconds, res.StartedAt, res.EndedAt)
	if err != nil {
		return fmt.Errorf("upsert session_results %s: %w", res.SessionID, err)
	}
	return nil
}

// TopResults returns up to limit results, highest score first, earlier finish breaking ties.
func (r *ResultRepository) TopResults(ctx context.Context, limit int) ([]score.Result, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT session_id, player, score, spawned, touched, expired,
		        body_part, object_size, interval_seconds, started_at, ended_at
		 FROM session_results
		 ORDER BY score DESC, ended_at ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query session_results: %w", err)
	}
	defer rows.Close()

	var result []score.Result
	for rows.Next() {
		var res score.Result
		if err := rows.Scan(&res.SessionID, &res.Player, &res.Score, &res.Spawned, &res.Touched, &res.Expired,
			&res.BodyPart, &res.ObjectSize, &res.IntervalSeconds, &res.StartedAt, &res.EndedAt); err != nil {
			return nil, fmt.Errorf("scan session_results: %w", err)
		}
		result = append(result, res)
	}
	return result, rows.Err()
}

// BestScore returns the highest score of player, 0 when the player has none.
func (r *ResultRepository) BestScore(ctx context.Context, player string) (int, error) {
	var best int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(score), 0) FROM session_results WHERE player = $1`, player,
	).Scan(&best)
	if err != nil {
		return 0, fmt.Errorf("query best score %q: %w", player, err)
	}
	return best, nil
}

// PurgeResults deletes every result.
func (r *ResultRepository) PurgeResults(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM session_results`)
	if err != nil {
		return 0, fmt.Errorf("delete session_results: %w", err)
	}
	return tag.RowsAffected(), nil
}
