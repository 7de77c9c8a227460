package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trophyhub/internal/model"
	"trophyhub/internal/repository"
)

// Wallet service errors.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUserNotFound      = errors.New("user not found")
	ErrSelfTransfer      = errors.New("cannot transfer to self")
)

// WalletService is the currency ledger boundary shared by the engine and by
// the shop/admin flows. All adjustments are relative and each one commits
// together with its audit row.
type WalletService struct {
	pool        *pgxpool.Pool
	accountRepo *repository.AccountRepository
	txRepo      *repository.TransactionRepository
}

// NewWalletService creates a new WalletService instance.
func NewWalletService(
	pool *pgxpool.Pool,
	accountRepo *repository.AccountRepository,
	txRepo *repository.TransactionRepository,
) *WalletService {
	return &WalletService{
		pool:        pool,
		accountRepo: accountRepo,
		txRepo:      txRepo,
	}
}

// EnsureAccount ensures an account exists for the user, creating one with a
// zero balance if necessary. Returns the account and whether it was created.
func (s *WalletService) EnsureAccount(ctx context.Context, userID int64, username string) (*model.User, bool, error) {
	user, created, err := s.accountRepo.GetOrCreate(ctx, userID, username)
	if err != nil {
		return nil, false, fmt.Errorf("failed to ensure account: %w", err)
	}
	return user, created, nil
}

// GetBalance retrieves a user's current balance.
func (s *WalletService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	user, err := s.accountRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return user.Balance, nil
}

// Credit atomically adds amount to the user's balance and records the
// adjustment. Returns the resulting balance.
func (s *WalletService) Credit(ctx context.Context, userID, amount int64, txType string, description *string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	user, err := s.adjust(ctx, userID, amount, txType, description)
	if err != nil {
		return 0, err
	}
	return user.Balance, nil
}

// Debit atomically subtracts amount from the user's balance and records the
// adjustment. Fails with ErrInsufficientFunds and no mutation when the
// balance is too low; the balance can never go negative.
func (s *WalletService) Debit(ctx context.Context, userID, amount int64, txType string, description *string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	user, err := s.adjust(ctx, userID, -amount, txType, description)
	if err != nil {
		return 0, err
	}
	return user.Balance, nil
}

// Transfer moves coins from one user to another. The guarded debit, the
// credit and both audit rows commit in one transaction, so a transfer either
// happens completely or not at all.
func (s *WalletService) Transfer(ctx context.Context, fromID, toID, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if fromID == toID {
		return ErrSelfTransfer
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transfer transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := s.accountRepo.DebitIn(ctx, tx, fromID, amount); err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			return ErrUserNotFound
		case errors.Is(err, repository.ErrInsufficientFunds):
			return ErrInsufficientFunds
		}
		return fmt.Errorf("failed to debit sender: %w", err)
	}
	if _, err := s.accountRepo.CreditIn(ctx, tx, toID, amount); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to credit receiver: %w", err)
	}

	senderDesc := fmt.Sprintf("Transfer to user %d", toID)
	receiverDesc := fmt.Sprintf("Transfer from user %d", fromID)
	if _, err := s.txRepo.CreateIn(ctx, tx, fromID, -amount, model.TxTypeTransfer, &senderDesc); err != nil {
		return err
	}
	if _, err := s.txRepo.CreateIn(ctx, tx, toID, amount, model.TxTypeTransfer, &receiverDesc); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transfer transaction: %w", err)
	}

	return nil
}

// History retrieves a user's coin transaction history, newest first.
func (s *WalletService) History(ctx context.Context, userID int64, limit int) ([]*model.CoinTransaction, error) {
	return s.txRepo.GetByUserID(ctx, userID, limit)
}

// adjust applies one signed balance change and its audit row in a single
// transaction.
func (s *WalletService) adjust(ctx context.Context, userID, amount int64, txType string, description *string) (*model.User, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to begin wallet transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var user *model.User
	if amount >= 0 {
		user, err = s.accountRepo.CreditIn(ctx, tx, userID, amount)
	} else {
		user, err = s.accountRepo.DebitIn(ctx, tx, userID, -amount)
	}
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrInsufficientFunds):
			return nil, ErrInsufficientFunds
		}
		return nil, err
	}

	if _, err := s.txRepo.CreateIn(ctx, tx, userID, amount, txType, description); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit wallet transaction: %w", err)
	}

	return user, nil
}
