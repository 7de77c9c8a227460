package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trophyhub/internal/model"
)

// AccountRepository handles user account and coin balance persistence.
// Balance mutations are always relative adjustments executed in SQL, never a
// read-modify-write from the application, so concurrent credits and debits
// cannot lose updates.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create creates a new user account with a zero balance.
func (r *AccountRepository) Create(ctx context.Context, userID int64, username string) (*model.User, error) {
	const query = `
		INSERT INTO users (user_id, username, balance, created_at, updated_at)
		VALUES ($1, $2, 0, NOW(), NOW())
		RETURNING user_id, username, balance, created_at, updated_at
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, userID, username).Scan(
		&user.UserID,
		&user.Username,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return &user, nil
}

// GetByID retrieves a user account by id.
// Returns ErrAccountNotFound if the account does not exist.
func (r *AccountRepository) GetByID(ctx context.Context, userID int64) (*model.User, error) {
	const query = `
		SELECT user_id, username, balance, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, userID).Scan(
		&user.UserID,
		&user.Username,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &user, nil
}

// GetOrCreate retrieves an account by id, creating one if it doesn't exist.
func (r *AccountRepository) GetOrCreate(ctx context.Context, userID int64, username string) (*model.User, bool, error) {
	// Try to get existing account first
	user, err := r.GetByID(ctx, userID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrAccountNotFound) {
		return nil, false, err
	}

	user, err = r.Create(ctx, userID, username)
	if err != nil {
		// Handle race condition: another request might have created the account
		user, err = r.GetByID(ctx, userID)
		if err != nil {
			return nil, false, err
		}
		return user, false, nil
	}

	return user, true, nil
}

// Credit atomically adds amount to the user's balance and returns the
// updated account.
func (r *AccountRepository) Credit(ctx context.Context, userID int64, amount int64) (*model.User, error) {
	return r.CreditIn(ctx, r.pool, userID, amount)
}

// CreditIn is Credit executing on the given transaction or pool.
func (r *AccountRepository) CreditIn(ctx context.Context, q DBTX, userID int64, amount int64) (*model.User, error) {
	const query = `
		UPDATE users
		SET balance = balance + $2, updated_at = NOW()
		WHERE user_id = $1
		RETURNING user_id, username, balance, created_at, updated_at
	`

	var user model.User
	err := q.QueryRow(ctx, query, userID, amount).Scan(
		&user.UserID,
		&user.Username,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to credit account: %w", err)
	}

	return &user, nil
}

// Debit atomically subtracts amount from the user's balance. The update is
// guarded so the balance can never go negative; an insufficient balance
// returns ErrInsufficientFunds with no mutation.
func (r *AccountRepository) Debit(ctx context.Context, userID int64, amount int64) (*model.User, error) {
	return r.DebitIn(ctx, r.pool, userID, amount)
}

// DebitIn is Debit executing on the given transaction or pool.
func (r *AccountRepository) DebitIn(ctx context.Context, q DBTX, userID int64, amount int64) (*model.User, error) {
	const query = `
		UPDATE users
		SET balance = balance - $2, updated_at = NOW()
		WHERE user_id = $1 AND balance >= $2
		RETURNING user_id, username, balance, created_at, updated_at
	`

	var user model.User
	err := q.QueryRow(ctx, query, userID, amount).Scan(
		&user.UserID,
		&user.Username,
		&user.Balance,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Zero rows means either no such account or a guard miss
			if _, getErr := r.GetByID(ctx, userID); getErr != nil {
				return nil, getErr
			}
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to debit account: %w", err)
	}

	return &user, nil
}

// GetTopBalances retrieves the top N users by coin balance.
func (r *AccountRepository) GetTopBalances(ctx context.Context, limit int) ([]*model.User, error) {
	const query = `
		SELECT user_id, username, balance, created_at, updated_at
		FROM users
		ORDER BY balance DESC, user_id ASC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top balances: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		var user model.User
		err := rows.Scan(
			&user.UserID,
			&user.Username,
			&user.Balance,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
