package service

import (
	"context"
	"fmt"

	"stakeforge/events"
	"stakeforge/models"

	log "github.com/sirupsen/logrus"
)

type stakeService struct {
	uowFactory UnitOfWorkFactory
}

// NewStakeService creates a new stake lifecycle service
func NewStakeService(uowFactory UnitOfWorkFactory) StakeService {
	return &stakeService{
		uowFactory: uowFactory,
	}
}

// CreateStake escrows amount coins against an issue. The debit and the stake
// insert commit together: a failed debit leaves no stake row, and a failed
// insert returns the debited coins.
func (s *stakeService) CreateStake(ctx context.Context, userID, issueID int64, repository string, amount int64, prURL *string) (*models.Stake, error) {
	// Validate inputs
	if amount <= 0 {
		return nil, fmt.Errorf("stake amount must be positive: %w", ErrInvalidArgument)
	}
	if repository == "" {
		return nil, fmt.Errorf("repository is required: %w", ErrInvalidArgument)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	// Escrow the coins before the stake exists so a failed debit is the
	// only outcome other than a fully-created stake
	if err := uow.UserRepository().DeductCoins(ctx, userID, amount); err != nil {
		return nil, err
	}

	stake := &models.Stake{
		UserID:     userID,
		IssueID:    issueID,
		Repository: repository,
		Amount:     amount,
		PRURL:      prURL,
		Status:     models.StakeStatusPending,
	}

	if err := uow.StakeRepository().Create(ctx, stake); err != nil {
		return nil, fmt.Errorf("failed to create stake: %w", err)
	}

	uow.EventBus().Publish(events.StakeCreatedEvent{
		StakeID:    stake.ID,
		UserID:     userID,
		IssueID:    issueID,
		Repository: repository,
		Amount:     amount,
	})
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:       userID,
		ChangeAmount: -amount,
		Reason:       "stake_escrow",
		StakeID:      stake.ID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"stakeID":    stake.ID,
		"userID":     userID,
		"issueID":    issueID,
		"repository": repository,
		"amount":     amount,
	}).Info("Stake created")

	return stake, nil
}

// UpdateStakeStatus applies the single terminal transition for a stake.
// The row lock plus the PENDING-guarded update guarantee the economic
// effects are applied exactly once even under concurrent resolution.
func (s *stakeService) UpdateStakeStatus(ctx context.Context, stakeID int64, status models.StakeStatus, xpEarned, coinsEarned int64) (*models.Stake, error) {
	// Validate inputs
	if !status.IsTerminal() {
		return nil, fmt.Errorf("invalid target status %s: %w", status, ErrInvalidArgument)
	}
	if xpEarned < 0 || coinsEarned < 0 {
		return nil, fmt.Errorf("earned amounts must be non-negative: %w", ErrInvalidArgument)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	// Row-lock the stake so concurrent resolvers serialize here
	stake, err := uow.StakeRepository().GetByIDForUpdate(ctx, stakeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stake: %w", err)
	}
	if stake == nil {
		return nil, ErrStakeNotFound
	}
	if stake.Status != models.StakeStatusPending {
		return nil, fmt.Errorf("stake %d is %s: %w", stakeID, stake.Status, ErrStakeNotPending)
	}

	updated, err := uow.StakeRepository().UpdateStatusIfPending(ctx, stakeID, status, xpEarned, coinsEarned)
	if err != nil {
		return nil, fmt.Errorf("failed to update stake status: %w", err)
	}
	if !updated {
		// Should not happen under the row lock, but treat it as a lost race
		return nil, fmt.Errorf("stake %d left pending concurrently: %w", stakeID, ErrStakeNotPending)
	}

	// Settle the escrow per the target status
	var coinsDelta int64
	switch status {
	case models.StakeStatusAccepted:
		// Escrow returned plus the bounty, plus the XP reward
		coinsDelta = stake.Amount + coinsEarned
		if err := uow.UserRepository().AddXP(ctx, stake.UserID, xpEarned); err != nil {
			return nil, fmt.Errorf("failed to add xp: %w", err)
		}
	case models.StakeStatusRejected:
		// Escrow forfeited; only the consolation coins (if any) are credited
		coinsDelta = coinsEarned
	case models.StakeStatusExpired:
		// Escrow returned, nothing earned
		coinsDelta = stake.Amount
	}

	if coinsDelta > 0 {
		if err := uow.UserRepository().AddCoins(ctx, stake.UserID, coinsDelta); err != nil {
			return nil, fmt.Errorf("failed to credit coins: %w", err)
		}
	}

	stake.Status = status
	stake.XPEarned = xpEarned
	stake.CoinsEarned = coinsEarned

	uow.EventBus().Publish(events.StakeResolvedEvent{
		StakeID:     stakeID,
		UserID:      stake.UserID,
		Status:      status,
		XPEarned:    xpEarned,
		CoinsEarned: coinsEarned,
	})
	if coinsDelta != 0 {
		uow.EventBus().Publish(events.BalanceChangeEvent{
			UserID:       stake.UserID,
			ChangeAmount: coinsDelta,
			Reason:       "stake_" + string(status),
			StakeID:      stakeID,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"stakeID":     stakeID,
		"userID":      stake.UserID,
		"status":      status,
		"xpEarned":    xpEarned,
		"coinsEarned": coinsEarned,
		"coinsDelta":  coinsDelta,
	}).Info("Stake resolved")

	return stake, nil
}

func (s *stakeService) GetUserStakes(ctx context.Context, userID int64) ([]*models.Stake, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	stakes, err := uow.StakeRepository().GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stakes: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return stakes, nil
}
