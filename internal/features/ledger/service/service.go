package service

import (
	"context"
	"errors"
	"fmt"

	"giveaway-draw-backend/internal/common/logger"
	"giveaway-draw-backend/internal/features/ledger/models"
	"giveaway-draw-backend/internal/features/ledger/repository"
)

var (
	ErrInsufficientFunds = repository.ErrInsufficientFunds
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Service exposes the credit ledger operations. Every successful credit or
// debit appends exactly one entry; the running balance always equals the sum
// of all entries for the user.
type Service interface {
	// Credit adds amount to the user's balance.
	Credit(ctx context.Context, userID, amount int64, reason, actor string) (int64, error)

	// Debit removes amount from the user's balance. It fails without
	// mutating state when amount exceeds the current balance.
	Debit(ctx context.Context, userID, amount int64, reason, actor string) (int64, error)

	// AdminDeduct is the explicit override path: it removes up to amount,
	// flooring the balance at zero.
	AdminDeduct(ctx context.Context, userID, amount int64, reason string) (int64, error)

	Balance(ctx context.Context, userID int64) (int64, error)
	History(ctx context.Context, userID int64, limit, offset int64) ([]models.Entry, error)
}

type ledgerService struct {
	repo repository.Repository
}

func NewLedgerService(repo repository.Repository) Service {
	return &ledgerService{repo: repo}
}

func (s *ledgerService) Credit(ctx context.Context, userID, amount int64, reason, actor string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	entry, err := s.repo.Apply(ctx, repository.Delta{
		UserID: userID,
		Amount: amount,
		Reason: reason,
		Actor:  actor,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to credit user %d: %w", userID, err)
	}

	logger.Debug().
		Int64("user_id", userID).
		Int64("amount", amount).
		Int64("balance", entry.BalanceAfter).
		Str("reason", reason).
		Msg("Credits added")

	return entry.BalanceAfter, nil
}

func (s *ledgerService) Debit(ctx context.Context, userID, amount int64, reason, actor string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	entry, err := s.repo.Apply(ctx, repository.Delta{
		UserID: userID,
		Amount: -amount,
		Reason: reason,
		Actor:  actor,
	})
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return 0, err
		}
		return 0, fmt.Errorf("failed to debit user %d: %w", userID, err)
	}

	logger.Debug().
		Int64("user_id", userID).
		Int64("amount", amount).
		Int64("balance", entry.BalanceAfter).
		Str("reason", reason).
		Msg("Credits debited")

	return entry.BalanceAfter, nil
}

func (s *ledgerService) AdminDeduct(ctx context.Context, userID, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	entry, err := s.repo.Apply(ctx, repository.Delta{
		UserID:      userID,
		Amount:      -amount,
		Reason:      reason,
		Actor:       models.ActorOperator,
		ClampToZero: true,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to deduct credits from user %d: %w", userID, err)
	}

	logger.Info().
		Int64("user_id", userID).
		Int64("requested", amount).
		Int64("applied", -entry.Amount).
		Int64("balance", entry.BalanceAfter).
		Msg("Administrative deduction applied")

	return entry.BalanceAfter, nil
}

func (s *ledgerService) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.repo.Balance(ctx, userID)
}

func (s *ledgerService) History(ctx context.Context, userID int64, limit, offset int64) ([]models.Entry, error) {
	return s.repo.Entries(ctx, userID, limit, offset)
}
