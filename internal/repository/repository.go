// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Common errors for repository operations.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrQuestNotFound     = errors.New("quest not found")
	ErrGameNotFound      = errors.New("game not found")
	ErrProgressNotFound  = errors.New("progress record not found")
)

// DBTX is the subset of pgx execution methods shared by *pgxpool.Pool and
// pgx.Tx. Repository methods with an `In` suffix take it explicitly so that
// multi-entity operations can run inside one transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
