package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trophyhub/internal/model"
)

// GameRepository handles the global external game catalog.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

// UpsertIn inserts or refreshes a catalog entry. Title, icon and trophy total
// may be refreshed on every sync; the entry itself is keyed by game id and
// the upsert is idempotent.
func (r *GameRepository) UpsertIn(ctx context.Context, q DBTX, game *model.Game) error {
	const query = `
		INSERT INTO games (game_id, platform, title, icon_url, total_trophies, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (game_id) DO UPDATE SET
			title = EXCLUDED.title,
			icon_url = EXCLUDED.icon_url,
			total_trophies = EXCLUDED.total_trophies,
			updated_at = NOW()
	`

	_, err := q.Exec(ctx, query, game.GameID, game.Platform, game.Title, game.IconURL, game.TotalTrophies)
	if err != nil {
		return fmt.Errorf("failed to upsert game: %w", err)
	}

	return nil
}

// GetByID retrieves a catalog entry by game id.
func (r *GameRepository) GetByID(ctx context.Context, gameID string) (*model.Game, error) {
	const query = `
		SELECT game_id, platform, title, icon_url, total_trophies, created_at, updated_at
		FROM games
		WHERE game_id = $1
	`

	var game model.Game
	err := r.pool.QueryRow(ctx, query, gameID).Scan(
		&game.GameID,
		&game.Platform,
		&game.Title,
		&game.IconURL,
		&game.TotalTrophies,
		&game.CreatedAt,
		&game.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	return &game, nil
}
