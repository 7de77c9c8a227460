package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"trophyhub/internal/model"
	"trophyhub/internal/pkg/lock"
	"trophyhub/internal/repository"
)

// Options configures the progression engine.
type Options struct {
	Location       *time.Location
	CatalogSize    int
	CatalogTTL     time.Duration
	PerUnlockCoins int64
	TopTierBonus   int64
}

// Engine bundles the engine services behind one facade. Platform request
// handlers hold an Engine and call its services in process.
type Engine struct {
	Quests  *QuestService
	Sync    *SyncService
	Wallet  *WalletService
	Shop    *ShopService
	Ranking *RankingService

	questRepo *repository.QuestRepository
}

// NewEngine wires repositories and services against the given pool.
func NewEngine(pool *pgxpool.Pool, opts Options) (*Engine, error) {
	accountRepo := repository.NewAccountRepository(pool)
	txRepo := repository.NewTransactionRepository(pool)
	questRepo := repository.NewQuestRepository(pool)
	progressRepo := repository.NewProgressRepository(pool)
	gameRepo := repository.NewGameRepository(pool)
	gameProgressRepo := repository.NewGameProgressRepository(pool)
	activityRepo := repository.NewActivityRepository(pool)

	locks := lock.NewKeyLock()

	quests, err := NewQuestService(
		pool,
		questRepo,
		progressRepo,
		accountRepo,
		txRepo,
		locks,
		opts.Location,
		opts.CatalogSize,
		opts.CatalogTTL,
	)
	if err != nil {
		return nil, err
	}

	wallet := NewWalletService(pool, accountRepo, txRepo)

	return &Engine{
		Quests: quests,
		Sync: NewSyncService(
			pool,
			gameRepo,
			gameProgressRepo,
			accountRepo,
			txRepo,
			activityRepo,
			locks,
			opts.PerUnlockCoins,
			opts.TopTierBonus,
		),
		Wallet:    wallet,
		Shop:      NewShopService(wallet),
		Ranking:   NewRankingService(accountRepo, gameProgressRepo, activityRepo),
		questRepo: questRepo,
	}, nil
}

// SeedDefaultQuests inserts a starter quest catalog when none exists yet.
// The admin collaborator owns the catalog afterwards.
func (e *Engine) SeedDefaultQuests(ctx context.Context) error {
	existing, err := e.questRepo.GetAllActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to check quest catalog: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	defaults := []model.QuestDefinition{
		{Title: "Daily check-in", ActionType: model.ActionLogin, PeriodType: model.PeriodDaily, TargetAmount: 1, RewardCoins: 10, IsActive: true},
		{Title: "Chatterbox", ActionType: model.ActionSendChat, PeriodType: model.PeriodDaily, TargetAmount: 3, RewardCoins: 15, IsActive: true},
		{Title: "Guide enthusiast", ActionType: model.ActionLikeGuide, PeriodType: model.PeriodWeekly, TargetAmount: 5, RewardCoins: 30, IsActive: true},
		{Title: "Guide author", ActionType: model.ActionWriteGuide, PeriodType: model.PeriodWeekly, TargetAmount: 1, RewardCoins: 50, IsActive: true},
		{Title: "Social butterfly", ActionType: model.ActionFollowUser, PeriodType: model.PeriodNone, TargetAmount: 10, RewardCoins: 25, IsActive: true},
	}

	for i := range defaults {
		if _, err := e.questRepo.Create(ctx, &defaults[i]); err != nil {
			return fmt.Errorf("failed to seed quest catalog: %w", err)
		}
	}

	return nil
}
