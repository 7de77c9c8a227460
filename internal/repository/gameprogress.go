package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trophyhub/internal/model"
)

// GameProgressRepository handles per-(user, game) reconciliation state.
// Writes keep unlocked_count monotonic and is_top_tier a one-way latch at
// the SQL level, so a stale or regressed provider report can never move
// stored state backwards.
type GameProgressRepository struct {
	pool *pgxpool.Pool
}

// NewGameProgressRepository creates a new GameProgressRepository instance.
func NewGameProgressRepository(pool *pgxpool.Pool) *GameProgressRepository {
	return &GameProgressRepository{pool: pool}
}

// EnsureIn inserts a zero-state row for (userID, gameID) if none exists.
// Reconciliation calls this before locking the row, so two concurrent first
// syncs for the same pair serialize on the same row instead of both seeing
// an empty prior state.
func (r *GameProgressRepository) EnsureIn(ctx context.Context, q DBTX, userID int64, gameID string) error {
	const query = `
		INSERT INTO game_progress (user_id, game_id, unlocked_count, total_count, is_top_tier, top_tier_achieved_at, last_synced_at)
		VALUES ($1, $2, 0, 0, false, NULL, NOW())
		ON CONFLICT (user_id, game_id) DO NOTHING
	`

	_, err := q.Exec(ctx, query, userID, gameID)
	if err != nil {
		return fmt.Errorf("failed to ensure game progress: %w", err)
	}

	return nil
}

// GetForUpdateIn loads the row for (userID, gameID) with a row lock held for
// the rest of the transaction.
func (r *GameProgressRepository) GetForUpdateIn(ctx context.Context, q DBTX, userID int64, gameID string) (*model.GameProgress, error) {
	const query = `
		SELECT user_id, game_id, unlocked_count, total_count, is_top_tier, top_tier_achieved_at, last_synced_at
		FROM game_progress
		WHERE user_id = $1 AND game_id = $2
		FOR UPDATE
	`

	return r.scanOne(q.QueryRow(ctx, query, userID, gameID))
}

// Get retrieves the row for (userID, gameID) without locking.
func (r *GameProgressRepository) Get(ctx context.Context, userID int64, gameID string) (*model.GameProgress, error) {
	const query = `
		SELECT user_id, game_id, unlocked_count, total_count, is_top_tier, top_tier_achieved_at, last_synced_at
		FROM game_progress
		WHERE user_id = $1 AND game_id = $2
	`

	return r.scanOne(r.pool.QueryRow(ctx, query, userID, gameID))
}

// UpdateIn writes the reconciled state. GREATEST and COALESCE guards keep
// unlocked_count non-decreasing and top_tier_achieved_at immutable once set
// even if a caller passes stale values.
func (r *GameProgressRepository) UpdateIn(ctx context.Context, q DBTX, gp *model.GameProgress) error {
	const query = `
		UPDATE game_progress SET
			unlocked_count = GREATEST(unlocked_count, $3),
			total_count = $4,
			is_top_tier = is_top_tier OR $5,
			top_tier_achieved_at = COALESCE(top_tier_achieved_at, $6),
			last_synced_at = $7
		WHERE user_id = $1 AND game_id = $2
	`

	result, err := q.Exec(ctx, query,
		gp.UserID,
		gp.GameID,
		gp.UnlockedCount,
		gp.TotalCount,
		gp.IsTopTier,
		gp.TopTierAchievedAt,
		gp.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update game progress: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrProgressNotFound
	}

	return nil
}

// TopCompleters retrieves the first-to-complete leaderboard for a game:
// top-tier rows ordered by achievement time, earliest first. Ties on the
// timestamp break on user id so pagination stays stable.
func (r *GameProgressRepository) TopCompleters(ctx context.Context, gameID string, limit int) ([]*model.GameProgress, error) {
	const query = `
		SELECT user_id, game_id, unlocked_count, total_count, is_top_tier, top_tier_achieved_at, last_synced_at
		FROM game_progress
		WHERE game_id = $1 AND is_top_tier = true
		ORDER BY top_tier_achieved_at ASC, user_id ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, gameID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top completers: %w", err)
	}
	defer rows.Close()

	var records []*model.GameProgress
	for rows.Next() {
		var gp model.GameProgress
		err := rows.Scan(
			&gp.UserID,
			&gp.GameID,
			&gp.UnlockedCount,
			&gp.TotalCount,
			&gp.IsTopTier,
			&gp.TopTierAchievedAt,
			&gp.LastSyncedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game progress: %w", err)
		}
		records = append(records, &gp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top completers: %w", err)
	}

	return records, nil
}

// GetByUser retrieves all of a user's game progress rows, most recently
// synced first.
func (r *GameProgressRepository) GetByUser(ctx context.Context, userID int64) ([]*model.GameProgress, error) {
	const query = `
		SELECT user_id, game_id, unlocked_count, total_count, is_top_tier, top_tier_achieved_at, last_synced_at
		FROM game_progress
		WHERE user_id = $1
		ORDER BY last_synced_at DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game progress by user: %w", err)
	}
	defer rows.Close()

	var records []*model.GameProgress
	for rows.Next() {
		var gp model.GameProgress
		err := rows.Scan(
			&gp.UserID,
			&gp.GameID,
			&gp.UnlockedCount,
			&gp.TotalCount,
			&gp.IsTopTier,
			&gp.TopTierAchievedAt,
			&gp.LastSyncedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game progress: %w", err)
		}
		records = append(records, &gp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating game progress: %w", err)
	}

	return records, nil
}

func (r *GameProgressRepository) scanOne(row pgx.Row) (*model.GameProgress, error) {
	var gp model.GameProgress
	err := row.Scan(
		&gp.UserID,
		&gp.GameID,
		&gp.UnlockedCount,
		&gp.TotalCount,
		&gp.IsTopTier,
		&gp.TopTierAchievedAt,
		&gp.LastSyncedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get game progress: %w", err)
	}

	return &gp, nil
}
