package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"trophyhub/internal/model"
	"trophyhub/internal/pkg/lock"
	"trophyhub/internal/repository"
)

// SyncService reconciles externally-reported trophy counts into coin grants,
// one-time top-tier bonuses and public activity records. Each report of a
// batch is an independent unit of work in its own transaction.
type SyncService struct {
	pool             *pgxpool.Pool
	gameRepo         *repository.GameRepository
	gameProgressRepo *repository.GameProgressRepository
	accountRepo      *repository.AccountRepository
	txRepo           *repository.TransactionRepository
	activityRepo     *repository.ActivityRepository
	locks            *lock.KeyLock
	perUnlockCoins   int64
	topTierBonus     int64
}

// NewSyncService creates a new SyncService instance.
func NewSyncService(
	pool *pgxpool.Pool,
	gameRepo *repository.GameRepository,
	gameProgressRepo *repository.GameProgressRepository,
	accountRepo *repository.AccountRepository,
	txRepo *repository.TransactionRepository,
	activityRepo *repository.ActivityRepository,
	locks *lock.KeyLock,
	perUnlockCoins int64,
	topTierBonus int64,
) *SyncService {
	return &SyncService{
		pool:             pool,
		gameRepo:         gameRepo,
		gameProgressRepo: gameProgressRepo,
		accountRepo:      accountRepo,
		txRepo:           txRepo,
		activityRepo:     activityRepo,
		locks:            locks,
		perUnlockCoins:   perUnlockCoins,
		topTierBonus:     topTierBonus,
	}
}

// Reconcile merges a normalized sync batch for one user into platform state.
// A failed report is logged and counted but does not abort the rest of the
// batch; reconciliation is usually a background sync and the report is simply
// retried on the next run.
func (s *SyncService) Reconcile(ctx context.Context, userID int64, platform string, reports []model.TrophyReport) (model.SyncSummary, error) {
	var summary model.SyncSummary

	for i := range reports {
		report := &reports[i]

		// Nothing unlocked means no state change is possible
		if report.UnlockedCount <= 0 {
			continue
		}

		coins, newTopTier, err := s.reconcileReport(ctx, userID, platform, report)
		if err != nil {
			summary.FailedReports++
			log.Warn().
				Err(err).
				Int64("user_id", userID).
				Str("game_id", report.GameID).
				Msg("Failed to reconcile report")
			continue
		}

		summary.CoinsGranted += coins
		if newTopTier {
			summary.TopTiersGranted++
		}
	}

	log.Info().
		Int64("user_id", userID).
		Str("platform", platform).
		Int("reports", len(reports)).
		Int64("coins_granted", summary.CoinsGranted).
		Int("top_tiers", summary.TopTiersGranted).
		Int("failed", summary.FailedReports).
		Msg("Sync batch reconciled")

	return summary, nil
}

// reconcileReport applies one per-game report in a single transaction: the
// coin mint, the top-tier latch, the activity rows and the state update all
// commit together or not at all.
func (s *SyncService) reconcileReport(ctx context.Context, userID int64, platform string, report *model.TrophyReport) (int64, bool, error) {
	key := lock.GameKey(userID, report.GameID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	now := time.Now()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin sync transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = s.gameRepo.UpsertIn(ctx, tx, &model.Game{
		GameID:        report.GameID,
		Platform:      platform,
		Title:         report.Title,
		IconURL:       report.IconURL,
		TotalTrophies: report.TotalCount,
	})
	if err != nil {
		return 0, false, err
	}

	// Ensure the row exists, then lock it. Two concurrent syncs for the
	// same (user, game) serialize here, so only one can observe a prior
	// state without the top tier.
	if err := s.gameProgressRepo.EnsureIn(ctx, tx, userID, report.GameID); err != nil {
		return 0, false, err
	}
	prior, err := s.gameProgressRepo.GetForUpdateIn(ctx, tx, userID, report.GameID)
	if err != nil {
		return 0, false, err
	}

	delta := unlockedDelta(prior.UnlockedCount, report.UnlockedCount)

	var coins int64
	if delta > 0 {
		coins = delta * s.perUnlockCoins
		if _, err := s.accountRepo.CreditIn(ctx, tx, userID, coins); err != nil {
			return 0, false, err
		}
		desc := fmt.Sprintf("%d new trophies in %s", delta, report.Title)
		if _, err := s.txRepo.CreateIn(ctx, tx, userID, coins, model.TxTypeTrophySync, &desc); err != nil {
			return 0, false, err
		}
		if _, err := s.activityRepo.CreateIn(ctx, tx, userID, report.GameID, model.ActivityTrophy, delta); err != nil {
			return 0, false, err
		}
	}

	newTopTier := report.IsTopTier && !prior.IsTopTier
	achievedAt := prior.TopTierAchievedAt
	if newTopTier {
		// Prefer the provider's unlock time for the race ranking and fall
		// back to observation time when the provider doesn't expose one.
		at := now
		if report.EarnedAt != nil {
			at = *report.EarnedAt
		}
		achievedAt = &at

		if _, err := s.accountRepo.CreditIn(ctx, tx, userID, s.topTierBonus); err != nil {
			return 0, false, err
		}
		desc := fmt.Sprintf("Platinum bonus for %s", report.Title)
		if _, err := s.txRepo.CreateIn(ctx, tx, userID, s.topTierBonus, model.TxTypeTopTierBonus, &desc); err != nil {
			return 0, false, err
		}
		if _, err := s.activityRepo.CreateIn(ctx, tx, userID, report.GameID, model.ActivityTopTier, 0); err != nil {
			return 0, false, err
		}
		coins += s.topTierBonus
	}

	err = s.gameProgressRepo.UpdateIn(ctx, tx, &model.GameProgress{
		UserID:            userID,
		GameID:            report.GameID,
		UnlockedCount:     report.UnlockedCount,
		TotalCount:        report.TotalCount,
		IsTopTier:         prior.IsTopTier || report.IsTopTier,
		TopTierAchievedAt: achievedAt,
		LastSyncedAt:      now,
	})
	if err != nil {
		return 0, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, fmt.Errorf("failed to commit sync transaction: %w", err)
	}

	return coins, newTopTier, nil
}

// unlockedDelta returns the number of newly unlocked trophies. A reported
// count below the stored one is a provider regression (stale cache) and
// clamps to zero.
func unlockedDelta(prior, reported int64) int64 {
	if reported <= prior {
		return 0
	}
	return reported - prior
}
