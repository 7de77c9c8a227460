// Package service provides business logic implementations.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"trophyhub/internal/model"
	"trophyhub/internal/pkg/lock"
	"trophyhub/internal/pkg/period"
	"trophyhub/internal/repository"
)

// Quest service errors.
var (
	ErrInvalidAmount  = errors.New("invalid amount: must be positive")
	ErrNotFound       = errors.New("progress record not found")
	ErrNotEligible    = errors.New("quest not completed yet")
	ErrAlreadyClaimed = errors.New("reward already claimed")
)

// cachedQuests is one catalog cache entry: the active definitions for an
// action type and when they were loaded.
type cachedQuests struct {
	quests    []*model.QuestDefinition
	fetchedAt time.Time
}

// QuestService is the quest progress ledger and reward claim authority.
// Behavioral events flow in through ApplyEvent; completed quests are claimed
// exactly once through Claim.
type QuestService struct {
	pool         *pgxpool.Pool
	questRepo    *repository.QuestRepository
	progressRepo *repository.ProgressRepository
	accountRepo  *repository.AccountRepository
	txRepo       *repository.TransactionRepository
	locks        *lock.KeyLock
	loc          *time.Location
	catalog      *lru.Cache
	catalogTTL   time.Duration
}

// NewQuestService creates a new QuestService instance.
func NewQuestService(
	pool *pgxpool.Pool,
	questRepo *repository.QuestRepository,
	progressRepo *repository.ProgressRepository,
	accountRepo *repository.AccountRepository,
	txRepo *repository.TransactionRepository,
	locks *lock.KeyLock,
	loc *time.Location,
	catalogSize int,
	catalogTTL time.Duration,
) (*QuestService, error) {
	if loc == nil {
		loc = time.UTC
	}
	if catalogSize <= 0 {
		catalogSize = 64
	}
	catalog, err := lru.New(catalogSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog cache: %w", err)
	}

	return &QuestService{
		pool:         pool,
		questRepo:    questRepo,
		progressRepo: progressRepo,
		accountRepo:  accountRepo,
		txRepo:       txRepo,
		locks:        locks,
		loc:          loc,
		catalog:      catalog,
		catalogTTL:   catalogTTL,
	}, nil
}

// ApplyEvent applies one behavioral event to every active quest tracking the
// action type. All matching quest counters update in a single transaction,
// so a failed event leaves nothing applied and the caller can safely retry.
//
// Returns the quests this event pushed over their target, for completion
// toasts. Events for quests already completed this period keep counting
// (overflow is shown in the UI) but never re-complete.
func (s *QuestService) ApplyEvent(ctx context.Context, userID int64, actionType string, amount int64) ([]model.CompletedQuest, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	quests, err := s.activeQuests(ctx, actionType)
	if err != nil {
		return nil, err
	}
	if len(quests) == 0 {
		return nil, nil
	}

	now := time.Now()

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin event transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var completed []model.CompletedQuest
	for _, quest := range quests {
		key := period.KeyFor(quest.PeriodType, now, s.loc)

		progress, crossed, err := s.progressRepo.ApplyIn(ctx, tx, userID, quest.ID, key, amount, quest.TargetAmount)
		if err != nil {
			return nil, fmt.Errorf("failed to apply event to quest %d: %w", quest.ID, err)
		}

		if crossed {
			completed = append(completed, model.CompletedQuest{
				ProgressID:  progress.ID,
				QuestID:     quest.ID,
				Title:       quest.Title,
				RewardCoins: quest.RewardCoins,
			})
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit event transaction: %w", err)
	}

	if len(completed) > 0 {
		log.Debug().
			Int64("user_id", userID).
			Str("action", actionType).
			Int("completed", len(completed)).
			Msg("Quests completed")
	}

	return completed, nil
}

// Claim claims the reward of a completed quest exactly once. The claim latch
// and the balance credit commit in one transaction; a crash between them
// cannot leave a claimed-but-unpaid or paid-but-unclaimed record.
//
// Returns the user's resulting balance for client display.
func (s *QuestService) Claim(ctx context.Context, userID, progressID int64) (int64, error) {
	key := lock.ProgressKey(progressID)
	s.locks.Lock(key)
	defer s.locks.Unlock(key)

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	claimable, err := s.progressRepo.GetForClaimIn(ctx, tx, progressID)
	if err != nil {
		if errors.Is(err, repository.ErrProgressNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	// Not exposing other users' progress ids: a foreign record looks absent
	if claimable.Progress.UserID != userID {
		return 0, ErrNotFound
	}
	if !claimable.Progress.IsCompleted {
		return 0, ErrNotEligible
	}
	if claimable.Progress.IsClaimed {
		return 0, ErrAlreadyClaimed
	}

	latched, err := s.progressRepo.MarkClaimedIn(ctx, tx, progressID, userID)
	if err != nil {
		return 0, err
	}
	if !latched {
		return 0, ErrAlreadyClaimed
	}

	user, err := s.accountRepo.CreditIn(ctx, tx, userID, claimable.RewardCoins)
	if err != nil {
		return 0, fmt.Errorf("failed to credit quest reward: %w", err)
	}

	desc := fmt.Sprintf("Reward for quest %q", claimable.QuestTitle)
	if _, err := s.txRepo.CreateIn(ctx, tx, userID, claimable.RewardCoins, model.TxTypeQuestReward, &desc); err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit claim transaction: %w", err)
	}

	log.Info().
		Int64("user_id", userID).
		Int64("progress_id", progressID).
		Int64("reward", claimable.RewardCoins).
		Msg("Quest reward claimed")

	return user.Balance, nil
}

// GetUserQuests returns the active catalog joined with the user's
// current-period progress, for the quest UI.
func (s *QuestService) GetUserQuests(ctx context.Context, userID int64) ([]*repository.UserQuestRow, error) {
	now := time.Now()
	dailyKey := period.KeyFor(model.PeriodDaily, now, s.loc)
	weeklyKey := period.KeyFor(model.PeriodWeekly, now, s.loc)
	return s.progressRepo.GetUserQuests(ctx, userID, *dailyKey, *weeklyKey)
}

// activeQuests returns the active definitions for an action type, served
// from the lru catalog cache when fresh.
func (s *QuestService) activeQuests(ctx context.Context, actionType string) ([]*model.QuestDefinition, error) {
	if v, ok := s.catalog.Get(actionType); ok {
		entry := v.(*cachedQuests)
		if s.catalogTTL <= 0 || time.Since(entry.fetchedAt) < s.catalogTTL {
			return entry.quests, nil
		}
	}

	quests, err := s.questRepo.GetActiveByAction(ctx, actionType)
	if err != nil {
		return nil, fmt.Errorf("failed to load quest catalog: %w", err)
	}

	s.catalog.Add(actionType, &cachedQuests{quests: quests, fetchedAt: time.Now()})
	return quests, nil
}

// InvalidateCatalog drops the cached definitions for an action type. The
// admin collaborator calls this after editing the catalog.
func (s *QuestService) InvalidateCatalog(actionType string) {
	s.catalog.Remove(actionType)
}
