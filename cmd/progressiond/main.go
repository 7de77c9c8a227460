// Package main is the entry point for the progression engine daemon. It
// wires the engine services against PostgreSQL and keeps the pool healthy;
// platform request handlers consume the services in process.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"trophyhub/internal/config"
	"trophyhub/internal/pkg/db"
	"trophyhub/internal/service"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Wire the engine
	engine, err := service.NewEngine(dbPool.Pool, service.Options{
		Location:       cfg.Quests.Location(),
		CatalogSize:    cfg.Quests.CatalogSize,
		CatalogTTL:     cfg.Quests.CatalogMaxAge,
		PerUnlockCoins: cfg.Rewards.PerUnlockCoins,
		TopTierBonus:   cfg.Rewards.TopTierBonus,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create engine")
	}

	// Seed the starter quest catalog on first run
	if err := engine.SeedDefaultQuests(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to seed quest catalog")
	}

	log.Info().
		Int64("per_unlock_coins", cfg.Rewards.PerUnlockCoins).
		Int64("top_tier_bonus", cfg.Rewards.TopTierBonus).
		Str("timezone", cfg.Quests.Timezone).
		Msg("Progression engine ready")

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Periodic pool health check until shutdown
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case sig := <-sigChan:
			log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			return
		case <-ticker.C:
			if err := dbPool.HealthCheck(ctx); err != nil {
				log.Error().Err(err).Msg("Database health check failed")
			}
		}
	}
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: Create users table
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			user_id BIGINT PRIMARY KEY,
			username VARCHAR(255) NOT NULL,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_balance ON users(balance DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: users table created")

	// Migration 2: Create coin_transactions table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS coin_transactions (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			amount BIGINT NOT NULL,
			type VARCHAR(50) NOT NULL,
			description TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_coin_transactions_user_time ON coin_transactions(user_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_coin_transactions_type_time ON coin_transactions(type, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 2: coin_transactions table created")

	// Migration 3: Create quest catalog and progress tables
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS quest_definitions (
			id BIGSERIAL PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			action_type VARCHAR(50) NOT NULL,
			period_type VARCHAR(20) NOT NULL DEFAULT 'none',
			target_amount BIGINT NOT NULL CHECK (target_amount > 0),
			reward_coins BIGINT NOT NULL DEFAULT 0 CHECK (reward_coins >= 0),
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_quest_definitions_action ON quest_definitions(action_type) WHERE is_active;
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3a: quest_definitions table created")

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS quest_progress (
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
		);
		CREATE INDEX IF NOT EXISTS idx_quest_progress_user ON quest_progress(user_id);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 3b: quest_progress table created")

	// Migration 4: Create game catalog and reconciliation state tables
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS games (
			game_id TEXT PRIMARY KEY,
			platform VARCHAR(50) NOT NULL,
			title VARCHAR(255) NOT NULL,
			icon_url TEXT NOT NULL DEFAULT '',
			total_trophies BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4a: games table created")

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS game_progress (
			user_id BIGINT NOT NULL,
			game_id TEXT NOT NULL REFERENCES games(game_id) ON DELETE CASCADE,
			unlocked_count BIGINT NOT NULL DEFAULT 0 CHECK (unlocked_count >= 0),
			total_count BIGINT NOT NULL DEFAULT 0,
			is_top_tier BOOLEAN NOT NULL DEFAULT false,
			top_tier_achieved_at TIMESTAMPTZ,
			last_synced_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, game_id)
		);
		CREATE INDEX IF NOT EXISTS idx_game_progress_top_tier ON game_progress(game_id, top_tier_achieved_at ASC) WHERE is_top_tier;
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 4b: game_progress table created")

	// Migration 5: Create activities table
	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS activities (
			id BIGSERIAL PRIMARY KEY,
			user_id BIGINT NOT NULL,
			game_id TEXT NOT NULL,
			kind VARCHAR(20) NOT NULL,
			trophy_count BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_activities_time ON activities(created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_activities_user_time ON activities(user_id, created_at DESC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 5: activities table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
