package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trophyhub/internal/model"
)

// QuestRepository handles the administered quest catalog. The engine only
// reads from it; Create exists for the admin collaborator's write path.
type QuestRepository struct {
	pool *pgxpool.Pool
}

// NewQuestRepository creates a new QuestRepository instance.
func NewQuestRepository(pool *pgxpool.Pool) *QuestRepository {
	return &QuestRepository{pool: pool}
}

// Create inserts a new quest definition and returns it with its id.
func (r *QuestRepository) Create(ctx context.Context, quest *model.QuestDefinition) (*model.QuestDefinition, error) {
	const query = `
		INSERT INTO quest_definitions (title, action_type, period_type, target_amount, reward_coins, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, title, action_type, period_type, target_amount, reward_coins, is_active, created_at, updated_at
	`

	var created model.QuestDefinition
	err := r.pool.QueryRow(ctx, query,
		quest.Title,
		quest.ActionType,
		quest.PeriodType,
		quest.TargetAmount,
		quest.RewardCoins,
		quest.IsActive,
	).Scan(
		&created.ID,
		&created.Title,
		&created.ActionType,
		&created.PeriodType,
		&created.TargetAmount,
		&created.RewardCoins,
		&created.IsActive,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create quest definition: %w", err)
	}

	return &created, nil
}

// GetByID retrieves a quest definition by id.
// Returns ErrQuestNotFound if no such quest exists.
func (r *QuestRepository) GetByID(ctx context.Context, questID int64) (*model.QuestDefinition, error) {
	const query = `
		SELECT id, title, action_type, period_type, target_amount, reward_coins, is_active, created_at, updated_at
		FROM quest_definitions
		WHERE id = $1
	`

	var quest model.QuestDefinition
	err := r.pool.QueryRow(ctx, query, questID).Scan(
		&quest.ID,
		&quest.Title,
		&quest.ActionType,
		&quest.PeriodType,
		&quest.TargetAmount,
		&quest.RewardCoins,
		&quest.IsActive,
		&quest.CreatedAt,
		&quest.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuestNotFound
		}
		return nil, fmt.Errorf("failed to get quest definition: %w", err)
	}

	return &quest, nil
}

// GetActiveByAction retrieves all active quest definitions tracking the given
// behavior action type.
func (r *QuestRepository) GetActiveByAction(ctx context.Context, actionType string) ([]*model.QuestDefinition, error) {
	const query = `
		SELECT id, title, action_type, period_type, target_amount, reward_coins, is_active, created_at, updated_at
		FROM quest_definitions
		WHERE action_type = $1 AND is_active = true
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query, actionType)
	if err != nil {
		return nil, fmt.Errorf("failed to get quests by action: %w", err)
	}
	defer rows.Close()

	return scanQuestDefinitions(rows)
}

// GetAllActive retrieves every active quest definition.
func (r *QuestRepository) GetAllActive(ctx context.Context) ([]*model.QuestDefinition, error) {
	const query = `
		SELECT id, title, action_type, period_type, target_amount, reward_coins, is_active, created_at, updated_at
		FROM quest_definitions
		WHERE is_active = true
		ORDER BY id ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get active quests: %w", err)
	}
	defer rows.Close()

	return scanQuestDefinitions(rows)
}

func scanQuestDefinitions(rows pgx.Rows) ([]*model.QuestDefinition, error) {
	var quests []*model.QuestDefinition
	for rows.Next() {
		var quest model.QuestDefinition
		err := rows.Scan(
			&quest.ID,
			&quest.Title,
			&quest.ActionType,
			&quest.PeriodType,
			&quest.TargetAmount,
			&quest.RewardCoins,
			&quest.IsActive,
			&quest.CreatedAt,
			&quest.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan quest definition: %w", err)
		}
		quests = append(quests, &quest)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating quest definitions: %w", err)
	}

	return quests, nil
}
