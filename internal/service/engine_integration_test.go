// Integration tests exercising the engine services against a real PostgreSQL
// container. Skipped when Docker is not available.
package service

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"trophyhub/internal/model"
	"trophyhub/internal/repository"
	"trophyhub/internal/shop"
)

func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestEngine creates a PostgreSQL container, applies the schema and
// returns a fully wired Engine
func setupTestEngine(t *testing.T) (*Engine, *pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, applyTestSchema(ctx, pool))

	engine, err := NewEngine(pool, Options{
		Location:       time.UTC,
		CatalogSize:    32,
		CatalogTTL:     time.Minute,
		PerUnlockCoins: 3,
		TopTierBonus:   100,
	})
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return engine, pool, cleanup
}

func applyTestSchema(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS coin_transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS quest_definitions (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			action_type VARCHAR(50) NOT NULL,
			period_type VARCHAR(20) NOT NULL DEFAULT 'none',
			target_amount BIGINT NOT NULL CHECK (target_amount > 0),
			reward_coins BIGINT NOT NULL DEFAULT 0 CHECK (reward_coins >= 0),
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS quest_progress (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			quest_id BIGINT NOT NULL REFERENCES quest_definitions(id) ON DELETE CASCADE,
			period_key TIMESTAMPTZ,
			current_progress BIGINT NOT NULL DEFAULT 0 CHECK (current_progress >= 0),
			is_completed BOOLEAN NOT NULL DEFAULT false,
			completed_at TIMESTAMPTZ,
			is_claimed BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT quest_progress_one_per_period UNIQUE NULLS NOT DISTINCT (user_id, quest_id, period_key)
		)`,
		`CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			platform VARCHAR(50) NOT NULL,
			title VARCHAR(255) NOT NULL,
			icon_url TEXT NOT NULL DEFAULT '',
			total_trophies BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS game_progress (
			user_id BIGINT NOT NULL,
			game_id TEXT NOT NULL REFERENCES games(game_id) ON DELETE CASCADE,
			unlocked_count BIGINT NOT NULL DEFAULT 0 CHECK (unlocked_count >= 0),
			total_count BIGINT NOT NULL DEFAULT 0,
			is_top_tier BOOLEAN NOT NULL DEFAULT false,
			top_tier_achieved_at TIMESTAMPTZ,
			last_synced_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, game_id)
		)`,
		`CREATE TABLE IF NOT EXISTS activities (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			game_id TEXT NOT NULL,
			kind VARCHAR(20) NOT NULL,
			trophy_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func createQuest(t *testing.T, pool *pgxpool.Pool, actionType, periodType string, target, reward int64) *model.QuestDefinition {
	t.Helper()
	quest, err := repository.NewQuestRepository(pool).Create(context.Background(), &model.QuestDefinition{
		Title:        "Test quest",
		ActionType:   actionType,
		PeriodType:   periodType,
		TargetAmount: target,
		RewardCoins:  reward,
		IsActive:     true,
	})
	require.NoError(t, err)
	return quest
}

// ============================================================================
// QuestService Tests
// ============================================================================

func TestQuestService_ApplyEventCompletesQuest(t *testing.T) {
	engine, pool, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	createQuest(t, pool, model.ActionSendChat, model.PeriodDaily, 3, 15)

	_, _, err := engine.Wallet.EnsureAccount(ctx, 1, "alice")
	require.NoError(t, err)

	// First two events make progress without completing
	completed, err := engine.Quests.ApplyEvent(ctx, 1, model.ActionSendChat, 1)
	require.NoError(t, err)
	assert.Empty(t, completed)

	completed, err = engine.Quests.ApplyEvent(ctx, 1, model.ActionSendChat, 1)
	require.NoError(t, err)
	assert.Empty(t, completed)

	// The third crosses the target
	completed, err = engine.Quests.ApplyEvent(ctx, 1, model.ActionSendChat, 1)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, int64(15), completed[0].RewardCoins)

	rows, err := engine.Quests.GetUserQuests(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Progress)
	assert.Equal(t, int64(3), rows[0].Progress.CurrentProgress)
	assert.True(t, rows[0].Progress.IsCompleted)
	assert.False(t, rows[0].Progress.IsClaimed)

	// Completion does not pay out by itself
	balance, err := engine.Wallet.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestQuestService_ApplyEventRejectsInvalidAmount(t *testing.T) {
	engine, pool, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	createQuest(t, pool, model.ActionSendChat, model.PeriodDaily, 3, 15)

	_, err := engine.Quests.ApplyEvent(ctx, 1, model.ActionSendChat, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = engine.Quests.ApplyEvent(ctx, 1, model.ActionSendChat, -5)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// An action with no matching quest is a no-op, not an error
	completed, err := engine.Quests.ApplyEvent(ctx, 1, model.ActionWriteGuide, 1)
	require.NoError(t, err)
	assert.Empty(t, completed)
}

func TestQuestService_ClaimPaysExactlyOnce(t *testing.T) {
	engine, pool, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	createQuest(t, pool, model.ActionWriteGuide, model.PeriodWeekly, 1, 50)

	_, _, err := engine.Wallet.EnsureAccount(ctx, 1, "alice")
	require.NoError(t, err)

	completed, err := engine.Quests.ApplyEvent(ctx, 1, model.ActionWriteGuide, 1)
	require.NoError(t, err)
	require.Len(t, completed, 1)

	balance, err := engine.Quests.Claim(ctx, 1, completed[0].ProgressID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	// A second claim is rejected and the balance is untouched
	_, err = engine.Quests.Claim(ctx, 1, completed[0].ProgressID)
	assert.ErrorIs(t, err, ErrAlreadyClaimed)

	balance, err = engine.Wallet.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	// Exactly one audit record exists for the payout
	history, err := engine.Wallet.History(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.TxTypeQuestReward, history[0].Type)
	assert.Equal(t, int64(50), history[0].Amount)
}

func TestQuestService_ConcurrentClaims(t *testing.T) {
	engine, pool, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	createQuest(t, pool, model.ActionWriteGuide, model.PeriodWeekly, 1, 50)

	_, _, err := engine.Wallet.EnsureAccount(ctx, 1, "alice")
	require.NoError(t, err)

	completed, err := engine.Quests.ApplyEvent(ctx, 1, model.ActionWriteGuide, 1)
	require.NoError(t, err)
	require.Len(t, completed, 1)

	// 10 concurrent claims: exactly one wins, the rest see AlreadyClaimed
	var successes, rejected int64
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Quests.Claim(ctx, 1, completed[0].ProgressID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case assert.ErrorIs(t, err, ErrAlreadyClaimed):
				rejected++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), successes)
	assert.Equal(t, int64(9), rejected)

	balance, err := engine.Wallet.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)
}

func TestQuestService_ClaimGuards(t *testing.T) {
	engine, pool, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	createQuest(t, pool, model.ActionSendChat, model.PeriodDaily, 3, 15)

	_, _, err := engine.Wallet.EnsureAccount(ctx, 1, "alice")
	require.NoError(t, err)
	_, _, err = engine.Wallet.EnsureAccount(ctx, 2, "bob")
	require.NoError(t, err)

	// Incomplete progress cannot be claimed
	_, err = engine.Quests.ApplyEvent(ctx, 1, model.ActionSendChat, 1)
	require.NoError(t, err)

	rows, err := engine.Quests.GetUserQuests(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Progress)
	progressID := rows[0].Progress.ID

	_, err = engine.Quests.Claim(ctx, 1, progressID)
	assert.ErrorIs(t, err, ErrNotEligible)

	// Another user's progress record is invisible to the claimer
	_, err = engine.Quests.Claim(ctx, 2, progressID)
	assert.ErrorIs(t, err, ErrNotFound)

	// An unknown progress id is not found
	_, err = engine.Quests.Claim(ctx, 1, 99999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestQuestService_PeriodlessQuestKeepsCounting(t *testing.T) {
	engine, pool, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	createQuest(t, pool, model.ActionFollowUser, model.PeriodNone, 10, 25)

	_, _, err := engine.Wallet.EnsureAccount(ctx, 1, "alice")
	require.NoError(t, err)

	completed, err := engine.Quests.ApplyEvent(ctx, 1, model.ActionFollowUser, 7)
	require.NoError(t, err)
	assert.Empty(t, completed)

	// Overshooting the target completes once and keeps the full count
	completed, err = engine.Quests.ApplyEvent(ctx, 1, model.ActionFollowUser, 5)
	require.NoError(t, err)
	require.Len(t, completed, 1)

	rows, err := engine.Quests.GetUserQuests(ctx, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].Progress)
	assert.Equal(t, int64(12), rows[0].Progress.CurrentProgress)
	assert.True(t, rows[0].Progress.IsCompleted)
}

// ============================================================================
// SyncService Tests
// ============================================================================

func TestSyncService_ReconcileGrantsDeltasOnly(t *testing.T) {
	engine, _, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	_, _, err := engine.Wallet.EnsureAccount(ctx, 1, "alice")
	require.NoError(t, err)

	report := model.TrophyReport{
		GameID:        "g1",
		Title:         "Test Game",
		UnlockedCount: 10,
		TotalCount:    30,
	}

	// First sync pays for every unlocked trophy
	summary, err := engine.Sync.Reconcile(ctx, 1, "psn", []model.TrophyReport{report})
	require.NoError(t, err)
	assert.Equal(t, int64(30), summary.CoinsGranted)
	assert.Equal(t, 0, summary.FailedReports)

	// An identical re-sync pays nothing
	summary, err = engine.Sync.Reconcile(ctx, 1, "psn", []model.TrophyReport{report})
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.CoinsGranted)

	// Growth pays only for the new trophies
	report.UnlockedCount = 15
	summary, err = engine.Sync.Reconcile(ctx, 1, "psn", []model.TrophyReport{report})
	require.NoError(t, err)
	assert.Equal(t, int64(15), summary.CoinsGranted)

	// A regressed snapshot pays nothing and does not lower stored state
	report.UnlockedCount = 8
	summary, err = engine.Sync.Reconcile(ctx, 1, "psn", []model.TrophyReport{report})
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.CoinsGranted)

	balance, err := engine.Wallet.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(45), balance)

	// Two trophy activities were published, one per paying sync
	feed, err := engine.Ranking.UserActivity(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, feed, 2)
}

func TestSyncService_TopTierBonusGrantedOnce(t *testing.T) {
	engine, _, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	_, _, err := engine.Wallet.EnsureAccount(ctx, 1, "alice")
	require.NoError(t, err)

	earnedAt := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	report := model.TrophyReport{
		GameID:        "g1",
		Title:         "Test Game",
		UnlockedCount: 30,
		TotalCount:    30,
		IsTopTier:     true,
		EarnedAt:      &earnedAt,
	}

	// 30 trophies at 3 coins each plus the one-time 100 coin bonus
	summary, err := engine.Sync.Reconcile(ctx, 1, "psn", []model.TrophyReport{report})
	require.NoError(t, err)
	assert.Equal(t, int64(190), summary.CoinsGranted)
	assert.Equal(t, 1, summary.TopTiersGranted)

	// Re-syncing the finished game grants nothing more
	summary, err = engine.Sync.Reconcile(ctx, 1, "psn", []model.TrophyReport{report})
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.CoinsGranted)
	assert.Equal(t, 0, summary.TopTiersGranted)

	balance, err := engine.Wallet.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(190), balance)

	// The ranking records the provider's unlock time, not the sync time
	ranked, err := engine.Ranking.TopCompleters(ctx, "g1", 10)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	require.NotNil(t, ranked[0].TopTierAchievedAt)
	assert.True(t, earnedAt.Equal(*ranked[0].TopTierAchievedAt))
}

func TestSyncService_ConcurrentReconcile(t *testing.T) {
	engine, _, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	_, _, err := engine.Wallet.EnsureAccount(ctx, 1, "alice")
	require.NoError(t, err)

	report := model.TrophyReport{
		GameID:        "g1",
		Title:         "Test Game",
		UnlockedCount: 30,
		TotalCount:    30,
		IsTopTier:     true,
	}

	// 10 concurrent syncs of the same snapshot must pay exactly once
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Sync.Reconcile(ctx, 1, "psn", []model.TrophyReport{report})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	balance, err := engine.Wallet.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(190), balance)

	// Exactly one top-tier activity was published
	feed, err := engine.Ranking.UserActivity(ctx, 1, 100)
	require.NoError(t, err)
	var topTiers int
	for _, activity := range feed {
		if activity.Kind == model.ActivityTopTier {
			topTiers++
		}
	}
	assert.Equal(t, 1, topTiers)
}

func TestSyncService_BatchIsolatesFailures(t *testing.T) {
	engine, _, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	// No account: every paying report fails, but the batch itself succeeds
	summary, err := engine.Sync.Reconcile(ctx, 999, "psn", []model.TrophyReport{
		{GameID: "g1", Title: "A", UnlockedCount: 5, TotalCount: 30},
		{GameID: "g2", Title: "B", UnlockedCount: 0, TotalCount: 30},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.CoinsGranted)
	assert.Equal(t, 1, summary.FailedReports)
}

// ============================================================================
// WalletService and RankingService Tests
// ============================================================================

func TestWalletService_DebitGuards(t *testing.T) {
	engine, _, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	_, _, err := engine.Wallet.EnsureAccount(ctx, 1, "alice")
	require.NoError(t, err)

	balance, err := engine.Wallet.Credit(ctx, 1, 100, model.TxTypeAdminAdjust, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance)

	desc := "sticker pack"
	balance, err = engine.Wallet.Debit(ctx, 1, 30, model.TxTypeShopPurchase, &desc)
	require.NoError(t, err)
	assert.Equal(t, int64(70), balance)

	_, err = engine.Wallet.Debit(ctx, 1, 71, model.TxTypeShopPurchase, &desc)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = engine.Wallet.Debit(ctx, 42, 1, model.TxTypeShopPurchase, &desc)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Both successful adjustments left audit records
	history, err := engine.Wallet.History(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestWalletService_Transfer(t *testing.T) {
	engine, _, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	_, _, err := engine.Wallet.EnsureAccount(ctx, 1, "alice")
	require.NoError(t, err)
	_, _, err = engine.Wallet.EnsureAccount(ctx, 2, "bob")
	require.NoError(t, err)

	_, err = engine.Wallet.Credit(ctx, 1, 100, model.TxTypeAdminAdjust, nil)
	require.NoError(t, err)

	require.NoError(t, engine.Wallet.Transfer(ctx, 1, 2, 40))

	senderBalance, err := engine.Wallet.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(60), senderBalance)

	receiverBalance, err := engine.Wallet.GetBalance(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(40), receiverBalance)

	// Guards: self transfer, overdraft, unknown receiver
	assert.ErrorIs(t, engine.Wallet.Transfer(ctx, 1, 1, 10), ErrSelfTransfer)
	assert.ErrorIs(t, engine.Wallet.Transfer(ctx, 1, 2, 61), ErrInsufficientFunds)
	assert.ErrorIs(t, engine.Wallet.Transfer(ctx, 1, 99, 10), ErrUserNotFound)

	// A failed transfer leaves both balances untouched
	senderBalance, err = engine.Wallet.GetBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(60), senderBalance)

	// Both sides of the successful transfer are in the audit trail
	history, err := engine.Wallet.History(ctx, 2, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.TxTypeTransfer, history[0].Type)
	assert.Equal(t, int64(40), history[0].Amount)
}

func TestShopService_Purchase(t *testing.T) {
	engine, _, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	_, _, err := engine.Wallet.EnsureAccount(ctx, 1, "alice")
	require.NoError(t, err)
	_, err = engine.Wallet.Credit(ctx, 1, 400, model.TxTypeAdminAdjust, nil)
	require.NoError(t, err)

	balance, err := engine.Shop.Purchase(ctx, 1, shop.ItemStickerPack)
	require.NoError(t, err)
	assert.Equal(t, int64(200), balance)

	// Too expensive now
	_, err = engine.Shop.Purchase(ctx, 1, shop.ItemGoldFrame)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = engine.Shop.Purchase(ctx, 1, shop.ItemID("unknown"))
	assert.ErrorIs(t, err, ErrItemNotFound)

	history, err := engine.Wallet.History(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.TxTypeShopPurchase, history[0].Type)
	assert.Equal(t, int64(-200), history[0].Amount)
}

func TestRankingService_TopBalances(t *testing.T) {
	engine, _, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	for i, coins := range []int64{50, 200, 100} {
		userID := int64(i + 1)
		_, _, err := engine.Wallet.EnsureAccount(ctx, userID, "user")
		require.NoError(t, err)
		if coins > 0 {
			_, err = engine.Wallet.Credit(ctx, userID, coins, model.TxTypeAdminAdjust, nil)
			require.NoError(t, err)
		}
	}

	top, err := engine.Ranking.TopBalances(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(2), top[0].UserID)
	assert.Equal(t, int64(200), top[0].Balance)
	assert.Equal(t, int64(3), top[1].UserID)
}

func TestEngine_SeedDefaultQuests(t *testing.T) {
	engine, pool, cleanup := setupTestEngine(t)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, engine.SeedDefaultQuests(ctx))

	quests, err := repository.NewQuestRepository(pool).GetAllActive(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, quests)

	// Seeding again is a no-op
	require.NoError(t, engine.SeedDefaultQuests(ctx))
	again, err := repository.NewQuestRepository(pool).GetAllActive(ctx)
	require.NoError(t, err)
	assert.Len(t, again, len(quests))
}
