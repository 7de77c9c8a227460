package service

import (
	"context"

	"trophyhub/internal/model"
	"trophyhub/internal/repository"
)

// RankingService derives leaderboards and feed reads from reconciled state.
type RankingService struct {
	accountRepo      *repository.AccountRepository
	gameProgressRepo *repository.GameProgressRepository
	activityRepo     *repository.ActivityRepository
}

// NewRankingService creates a new RankingService instance.
func NewRankingService(
	accountRepo *repository.AccountRepository,
	gameProgressRepo *repository.GameProgressRepository,
	activityRepo *repository.ActivityRepository,
) *RankingService {
	return &RankingService{
		accountRepo:      accountRepo,
		gameProgressRepo: gameProgressRepo,
		activityRepo:     activityRepo,
	}
}

// TopCompleters returns the first-to-complete ranking for a game: users who
// reached the top tier, earliest achievement first. Rank 1 is the user the
// platform credits with getting there first.
func (s *RankingService) TopCompleters(ctx context.Context, gameID string, limit int) ([]*model.GameProgress, error) {
	return s.gameProgressRepo.TopCompleters(ctx, gameID, limit)
}

// TopBalances returns the platform-wide coin leaderboard.
func (s *RankingService) TopBalances(ctx context.Context, limit int) ([]*model.User, error) {
	return s.accountRepo.GetTopBalances(ctx, limit)
}

// RecentActivity returns the newest public feed entries.
func (s *RankingService) RecentActivity(ctx context.Context, limit int) ([]*model.Activity, error) {
	return s.activityRepo.Recent(ctx, limit)
}

// UserActivity returns one user's feed entries.
func (s *RankingService) UserActivity(ctx context.Context, userID int64, limit int) ([]*model.Activity, error) {
	return s.activityRepo.GetByUser(ctx, userID, limit)
}
