package repository

import (
	"context"
	"fmt"

	"stakeforge/database"
	"stakeforge/models"

	"github.com/jackc/pgx/v5"
)

const stakeColumns = `id, user_id, issue_id, repository, amount, pr_url, status, xp_earned, coins_earned, created_at, updated_at`

// StakeRepository implements the service.StakeRepository interface
type StakeRepository struct {
	q queryable
}

// NewStakeRepository creates a new stake repository
func NewStakeRepository(db *database.DB) *StakeRepository {
	return &StakeRepository{q: db.Pool}
}

// newStakeRepositoryWithTx creates a new stake repository with a transaction
func newStakeRepositoryWithTx(tx queryable) *StakeRepository {
	return &StakeRepository{q: tx}
}

func scanStake(row pgx.Row) (*models.Stake, error) {
	var stake models.Stake
	err := row.Scan(
		&stake.ID,
		&stake.UserID,
		&stake.IssueID,
		&stake.Repository,
		&stake.Amount,
		&stake.PRURL,
		&stake.Status,
		&stake.XPEarned,
		&stake.CoinsEarned,
		&stake.CreatedAt,
		&stake.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stake, nil
}

// Create persists a new stake in PENDING and fills ID and timestamps
func (r *StakeRepository) Create(ctx context.Context, stake *models.Stake) error {
	query := `
		INSERT INTO stakes (user_id, issue_id, repository, amount, pr_url, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		stake.UserID,
		stake.IssueID,
		stake.Repository,
		stake.Amount,
		stake.PRURL,
		stake.Status,
	).Scan(&stake.ID, &stake.CreatedAt, &stake.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create stake: %w", err)
	}
	return nil
}

// GetByID retrieves a stake by ID
func (r *StakeRepository) GetByID(ctx context.Context, id int64) (*models.Stake, error) {
	query := `SELECT ` + stakeColumns + ` FROM stakes WHERE id = $1`

	stake, err := scanStake(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get stake %d: %w", id, err)
	}
	return stake, nil
}

// GetByIDForUpdate retrieves a stake and row-locks it until the surrounding
// transaction ends, serializing concurrent terminal transitions
func (r *StakeRepository) GetByIDForUpdate(ctx context.Context, id int64) (*models.Stake, error) {
	query := `SELECT ` + stakeColumns + ` FROM stakes WHERE id = $1 FOR UPDATE`

	stake, err := scanStake(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to lock stake %d: %w", id, err)
	}
	return stake, nil
}

// GetByUser returns all stakes owned by a user, newest-created first
func (r *StakeRepository) GetByUser(ctx context.Context, userID int64) ([]*models.Stake, error) {
	query := `SELECT ` + stakeColumns + ` FROM stakes WHERE user_id = $1 ORDER BY created_at DESC, id DESC`

	rows, err := r.q.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get stakes for user %d: %w", userID, err)
	}
	defer rows.Close()

	var stakes []*models.Stake
	for rows.Next() {
		var stake models.Stake
		err := rows.Scan(
			&stake.ID,
			&stake.UserID,
			&stake.IssueID,
			&stake.Repository,
			&stake.Amount,
			&stake.PRURL,
			&stake.Status,
			&stake.XPEarned,
			&stake.CoinsEarned,
			&stake.CreatedAt,
			&stake.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stake: %w", err)
		}
		stakes = append(stakes, &stake)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate stakes: %w", err)
	}

	return stakes, nil
}

// UpdateStatusIfPending applies a terminal transition with a compare-and-set
// on the status column. Zero rows affected means another transition already
// won; the caller must treat that as a conflict and apply no economic effects.
func (r *StakeRepository) UpdateStatusIfPending(ctx context.Context, id int64, status models.StakeStatus, xpEarned, coinsEarned int64) (bool, error) {
	query := `
		UPDATE stakes
		SET status = $1, xp_earned = $2, coins_earned = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`

	result, err := r.q.Exec(ctx, query, status, xpEarned, coinsEarned, id, models.StakeStatusPending)
	if err != nil {
		return false, fmt.Errorf("failed to update stake %d status: %w", id, err)
	}

	return result.RowsAffected() > 0, nil
}
