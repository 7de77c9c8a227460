// Package model defines the data models for the progression engine.
package model

import "time"

// User represents a platform user account with a coin balance.
type User struct {
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	Balance   int64     `db:"balance"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CoinTransaction represents a balance change record.
type CoinTransaction struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Amount      int64     `db:"amount"`
	Type        string    `db:"type"`
	Description *string   `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// QuestDefinition is an administered catalog entry describing a trackable
// behavioral goal. Read-only to the engine.
type QuestDefinition struct {
	ID           int64     `db:"id"`
	Title        string    `db:"title"`
	ActionType   string    `db:"action_type"`
	PeriodType   string    `db:"period_type"`
	TargetAmount int64     `db:"target_amount"`
	RewardCoins  int64     `db:"reward_coins"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// QuestProgress tracks a user's progress on one quest within one period.
// PeriodKey is nil for quests without a period; for daily/weekly quests it is
// the canonical end-of-period boundary. One row exists per
// (user, quest, period key).
type QuestProgress struct {
	ID              int64      `db:"id"`
	UserID          int64      `db:"user_id"`
	QuestID         int64      `db:"quest_id"`
	PeriodKey       *time.Time `db:"period_key"`
	CurrentProgress int64      `db:"current_progress"`
	IsCompleted     bool       `db:"is_completed"`
	CompletedAt     *time.Time `db:"completed_at"`
	IsClaimed       bool       `db:"is_claimed"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

// Game is a global catalog entry for an external game.
type Game struct {
	GameID        string    `db:"game_id"`
	Platform      string    `db:"platform"`
	Title         string    `db:"title"`
	IconURL       string    `db:"icon_url"`
	TotalTrophies int64     `db:"total_trophies"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// GameProgress is the reconciliation state for one user on one external game.
// UnlockedCount never decreases; IsTopTier latches true exactly once and
// TopTierAchievedAt is fixed at that moment.
type GameProgress struct {
	UserID            int64      `db:"user_id"`
	GameID            string     `db:"game_id"`
	UnlockedCount     int64      `db:"unlocked_count"`
	TotalCount        int64      `db:"total_count"`
	IsTopTier         bool       `db:"is_top_tier"`
	TopTierAchievedAt *time.Time `db:"top_tier_achieved_at"`
	LastSyncedAt      time.Time  `db:"last_synced_at"`
}

// Activity is an append-only public feed entry produced when trophies or a
// top-tier completion are reconciled.
type Activity struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	GameID      string    `db:"game_id"`
	Kind        string    `db:"kind"`
	TrophyCount int64     `db:"trophy_count"`
	CreatedAt   time.Time `db:"created_at"`
}

// TrophyReport is one normalized per-game entry of an external sync batch.
// EarnedAt is the provider-supplied unlock time of the top-tier trophy when
// the provider exposes one; ranking prefers it over observation time.
type TrophyReport struct {
	GameID        string
	Title         string
	IconURL       string
	UnlockedCount int64
	TotalCount    int64
	IsTopTier     bool
	EarnedAt      *time.Time
}

// CompletedQuest is returned by the progress ledger when an event pushes a
// quest over its target, for "quest completed" UI feedback.
type CompletedQuest struct {
	ProgressID  int64
	QuestID     int64
	Title       string
	RewardCoins int64
}

// SyncSummary aggregates the outcome of one reconciliation batch for caller
// feedback.
type SyncSummary struct {
	CoinsGranted    int64
	TopTiersGranted int
	FailedReports   int
}

// Trackable behavior action types.
const (
	ActionSendChat   = "send_chat"
	ActionWriteGuide = "write_guide"
	ActionLikeGuide  = "like_guide"
	ActionFollowUser = "follow_user"
	ActionLogin      = "login"
)

// Quest period types.
const (
	PeriodNone   = "none"
	PeriodDaily  = "daily"
	PeriodWeekly = "weekly"
)

// Activity kinds.
const (
	ActivityTrophy  = "trophy"
	ActivityTopTier = "top_tier"
)

// Transaction types for categorizing balance changes.
const (
	TxTypeQuestReward  = "quest_reward"   // Claimed quest reward
	TxTypeTrophySync   = "trophy_sync"    // Per-unlock coins from reconciliation
	TxTypeTopTierBonus = "top_tier_bonus" // One-time platinum bonus
	TxTypeShopPurchase = "shop_purchase"  // Cosmetics shop debit
	TxTypeTransfer     = "transfer"       // User-to-user transfer
	TxTypeAdminAdjust  = "admin_adjust"   // Manual adjustment by an admin
)
