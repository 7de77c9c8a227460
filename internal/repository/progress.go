package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trophyhub/internal/model"
)

// ProgressRepository handles quest progress persistence. One row exists per
// (user, quest, period key); the unique constraint treats NULL period keys as
// equal so periodless quests also get exactly one row.
type ProgressRepository struct {
	pool *pgxpool.Pool
}

// NewProgressRepository creates a new ProgressRepository instance.
func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{pool: pool}
}

// ClaimableProgress is a progress row joined with the reward fields of its
// quest definition, as loaded for a claim attempt.
type ClaimableProgress struct {
	Progress    model.QuestProgress
	QuestTitle  string
	RewardCoins int64
}

// Apply atomically applies amount to the progress counter for
// (userID, questID, periodKey), creating the row if absent. The increment,
// the completion latch and the completed_at stamp happen in a single
// statement, so two concurrent events are both counted and exactly one of
// the calls that push the counter across target observes the completion.
//
// Returns the resulting row and whether this call crossed the target.
func (r *ProgressRepository) Apply(ctx context.Context, userID, questID int64, periodKey *time.Time, amount, target int64) (*model.QuestProgress, bool, error) {
	return r.ApplyIn(ctx, r.pool, userID, questID, periodKey, amount, target)
}

// ApplyIn is Apply executing on the given transaction or pool.
func (r *ProgressRepository) ApplyIn(ctx context.Context, q DBTX, userID, questID int64, periodKey *time.Time, amount, target int64) (*model.QuestProgress, bool, error) {
	const query = `
		INSERT INTO quest_progress (user_id, quest_id, period_key, current_progress, is_completed, completed_at, is_claimed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4 >= $5, CASE WHEN $4 >= $5 THEN NOW() END, false, NOW(), NOW())
		ON CONFLICT (user_id, quest_id, period_key) DO UPDATE SET
			current_progress = quest_progress.current_progress + EXCLUDED.current_progress,
			is_completed = quest_progress.is_completed OR quest_progress.current_progress + EXCLUDED.current_progress >= $5,
			completed_at = CASE
				WHEN NOT quest_progress.is_completed AND quest_progress.current_progress + EXCLUDED.current_progress >= $5 THEN NOW()
				ELSE quest_progress.completed_at
			END,
			updated_at = NOW()
		RETURNING id, user_id, quest_id, period_key, current_progress, is_completed, completed_at, is_claimed, created_at, updated_at
	`

	var progress model.QuestProgress
	err := q.QueryRow(ctx, query, userID, questID, periodKey, amount, target).Scan(
		&progress.ID,
		&progress.UserID,
		&progress.QuestID,
		&progress.PeriodKey,
		&progress.CurrentProgress,
		&progress.IsCompleted,
		&progress.CompletedAt,
		&progress.IsClaimed,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to apply progress: %w", err)
	}

	// This call crossed the target iff the counter was below target before
	// the increment. The returned value is the post-increment counter and
	// row updates serialize, so exactly one concurrent caller sees this.
	crossed := progress.IsCompleted && progress.CurrentProgress-amount < target
	return &progress, crossed, nil
}

// GetByID retrieves a progress record by id.
// Returns ErrProgressNotFound if no such record exists.
func (r *ProgressRepository) GetByID(ctx context.Context, progressID int64) (*model.QuestProgress, error) {
	const query = `
		SELECT id, user_id, quest_id, period_key, current_progress, is_completed, completed_at, is_claimed, created_at, updated_at
		FROM quest_progress
		WHERE id = $1
	`

	var progress model.QuestProgress
	err := r.pool.QueryRow(ctx, query, progressID).Scan(
		&progress.ID,
		&progress.UserID,
		&progress.QuestID,
		&progress.PeriodKey,
		&progress.CurrentProgress,
		&progress.IsCompleted,
		&progress.CompletedAt,
		&progress.IsClaimed,
		&progress.CreatedAt,
		&progress.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	return &progress, nil
}

// GetForClaimIn loads a progress row joined with its quest's reward fields,
// locking the row for the duration of the claim transaction.
func (r *ProgressRepository) GetForClaimIn(ctx context.Context, q DBTX, progressID int64) (*ClaimableProgress, error) {
	const query = `
		SELECT qp.id, qp.user_id, qp.quest_id, qp.period_key, qp.current_progress, qp.is_completed, qp.completed_at, qp.is_claimed, qp.created_at, qp.updated_at,
		       qd.title, qd.reward_coins
		FROM quest_progress qp
		JOIN quest_definitions qd ON qd.id = qp.quest_id
		WHERE qp.id = $1
		FOR UPDATE OF qp
	`

	var claimable ClaimableProgress
	err := q.QueryRow(ctx, query, progressID).Scan(
		&claimable.Progress.ID,
		&claimable.Progress.UserID,
		&claimable.Progress.QuestID,
		&claimable.Progress.PeriodKey,
		&claimable.Progress.CurrentProgress,
		&claimable.Progress.IsCompleted,
		&claimable.Progress.CompletedAt,
		&claimable.Progress.IsClaimed,
		&claimable.Progress.CreatedAt,
		&claimable.Progress.UpdatedAt,
		&claimable.QuestTitle,
		&claimable.RewardCoins,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProgressNotFound
		}
		return nil, fmt.Errorf("failed to get progress for claim: %w", err)
	}

	return &claimable, nil
}

// MarkClaimedIn latches is_claimed on a completed, unclaimed progress row.
// Returns true when this call performed the latch; false means the row was
// not eligible (already claimed, not completed, or not owned by userID).
func (r *ProgressRepository) MarkClaimedIn(ctx context.Context, q DBTX, progressID, userID int64) (bool, error) {
	const query = `
		UPDATE quest_progress
		SET is_claimed = true, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_completed = true AND is_claimed = false
	`

	result, err := q.Exec(ctx, query, progressID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to mark progress claimed: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// UserQuestRow is one entry of the quest UI read: an active quest definition
// with the user's current-period progress, if any.
type UserQuestRow struct {
	Quest    model.QuestDefinition
	Progress *model.QuestProgress
}

// GetUserQuests joins the active catalog against the user's progress for the
// given daily and weekly period keys. Quests with no progress row yet are
// returned with a nil Progress.
func (r *ProgressRepository) GetUserQuests(ctx context.Context, userID int64, dailyKey, weeklyKey time.Time) ([]*UserQuestRow, error) {
	const query = `
		SELECT qd.id, qd.title, qd.action_type, qd.period_type, qd.target_amount, qd.reward_coins, qd.is_active, qd.created_at, qd.updated_at,
		       qp.id, qp.user_id, qp.quest_id, qp.period_key, qp.current_progress, qp.is_completed, qp.completed_at, qp.is_claimed, qp.created_at, qp.updated_at
		FROM quest_definitions qd
		LEFT JOIN quest_progress qp ON qp.quest_id = qd.id AND qp.user_id = $1
			AND ((qd.period_type = 'none' AND qp.period_key IS NULL)
				OR (qd.period_type = 'daily' AND qp.period_key = $2)
				OR (qd.period_type = 'weekly' AND qp.period_key = $3))
		WHERE qd.is_active = true
		ORDER BY qd.id ASC
	`

	rows, err := r.pool.Query(ctx, query, userID, dailyKey, weeklyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get user quests: %w", err)
	}
	defer rows.Close()

	var result []*UserQuestRow
	for rows.Next() {
		var row UserQuestRow
		var (
			progressID      *int64
			progressUserID  *int64
			progressQuestID *int64
			periodKey       *time.Time
			currentProgress *int64
			isCompleted     *bool
			completedAt     *time.Time
			isClaimed       *bool
			createdAt       *time.Time
			updatedAt       *time.Time
		)
		err := rows.Scan(
			&row.Quest.ID,
			&row.Quest.Title,
			&row.Quest.ActionType,
			&row.Quest.PeriodType,
			&row.Quest.TargetAmount,
			&row.Quest.RewardCoins,
			&row.Quest.IsActive,
			&row.Quest.CreatedAt,
			&row.Quest.UpdatedAt,
			&progressID,
			&progressUserID,
			&progressQuestID,
			&periodKey,
			&currentProgress,
			&isCompleted,
			&completedAt,
			&isClaimed,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user quest: %w", err)
		}

		if progressID != nil {
			row.Progress = &model.QuestProgress{
				ID:              *progressID,
				UserID:          *progressUserID,
				QuestID:         *progressQuestID,
				PeriodKey:       periodKey,
				CurrentProgress: *currentProgress,
				IsCompleted:     *isCompleted,
				CompletedAt:     completedAt,
				IsClaimed:       *isClaimed,
				CreatedAt:       *createdAt,
				UpdatedAt:       *updatedAt,
			}
		}
		result = append(result, &row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user quests: %w", err)
	}

	return result, nil
}
