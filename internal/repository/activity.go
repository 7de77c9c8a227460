package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trophyhub/internal/model"
)

// ActivityRepository handles the append-only public activity feed. Rows are
// never updated or deleted once written.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository instance.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// CreateIn appends one feed entry inside the caller's transaction, so the
// entry commits together with the reconciliation step that produced it.
func (r *ActivityRepository) CreateIn(ctx context.Context, q DBTX, userID int64, gameID, kind string, trophyCount int64) (*model.Activity, error) {
	const query = `
		INSERT INTO activities (user_id, game_id, kind, trophy_count, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, user_id, game_id, kind, trophy_count, created_at
	`

	var activity model.Activity
	err := q.QueryRow(ctx, query, userID, gameID, kind, trophyCount).Scan(
		&activity.ID,
		&activity.UserID,
		&activity.GameID,
		&activity.Kind,
		&activity.TrophyCount,
		&activity.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	return &activity, nil
}

// Recent retrieves the newest feed entries across all users.
func (r *ActivityRepository) Recent(ctx context.Context, limit int) ([]*model.Activity, error) {
	const query = `
		SELECT id, user_id, game_id, kind, trophy_count, created_at
		FROM activities
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// GetByUser retrieves a user's feed entries, newest first.
func (r *ActivityRepository) GetByUser(ctx context.Context, userID int64, limit int) ([]*model.Activity, error) {
	const query = `
		SELECT id, user_id, game_id, kind, trophy_count, created_at
		FROM activities
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get user activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// CountByUserAndKind counts a user's feed entries of one kind. Used by tests
// and by the profile UI's milestone counters.
func (r *ActivityRepository) CountByUserAndKind(ctx context.Context, userID int64, kind string) (int64, error) {
	const query = `SELECT COUNT(*) FROM activities WHERE user_id = $1 AND kind = $2`

	var count int64
	err := r.pool.QueryRow(ctx, query, userID, kind).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count activities: %w", err)
	}

	return count, nil
}

func scanActivities(rows pgx.Rows) ([]*model.Activity, error) {
	var activities []*model.Activity
	for rows.Next() {
		var activity model.Activity
		err := rows.Scan(
			&activity.ID,
			&activity.UserID,
			&activity.GameID,
			&activity.Kind,
			&activity.TrophyCount,
			&activity.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		activities = append(activities, &activity)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activities: %w", err)
	}

	return activities, nil
}
