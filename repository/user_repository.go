package repository

import (
	"context"
	"fmt"

	"stakeforge/database"
	"stakeforge/models"
	"stakeforge/service"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, password_hash, role, github_username, access_token, github_info, coins, xp, created_at, updated_at`

// UserRepository implements the service.UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.GitHubUsername,
		&user.AccessToken,
		&user.GitHubInfo,
		&user.Coins,
		&user.XP,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetByEmailAndRole retrieves a user by email within a role
func (r *UserRepository) GetByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND role = $2`

	user, err := scanUser(r.q.QueryRow(ctx, query, email, role))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// GetByGitHubUsernameAndRole retrieves a user by GitHub username within a role
func (r *UserRepository) GetByGitHubUsernameAndRole(ctx context.Context, username string, role models.Role) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE github_username = $1 AND role = $2`

	user, err := scanUser(r.q.QueryRow(ctx, query, username, role))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by github username: %w", err)
	}
	return user, nil
}

// Create persists a new user and fills ID and timestamps
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, password_hash, role, github_username, access_token, github_info, coins, xp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.q.QueryRow(ctx, query,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.GitHubUsername,
		user.AccessToken,
		user.GitHubInfo,
		user.Coins,
		user.XP,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// AddCoins credits a user's balance atomically
func (r *UserRepository) AddCoins(ctx context.Context, userID int64, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("credit amount must not be negative")
	}
	if amount == 0 {
		return nil
	}

	query := `
		UPDATE users
		SET coins = coins + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to add coins for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("add coins for user %d: %w", userID, service.ErrUserNotFound)
	}
	return nil
}

// DeductCoins debits a user's balance atomically, failing if the balance
// would go negative. The conditional update means the debit either applies
// in full or not at all.
func (r *UserRepository) DeductCoins(ctx context.Context, userID int64, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("debit amount must be positive")
	}

	query := `
		UPDATE users
		SET coins = coins - $1, updated_at = NOW()
		WHERE id = $2 AND coins >= $1
	`

	result, err := r.q.Exec(ctx, query, amount, userID)
	if err != nil {
		return fmt.Errorf("failed to deduct coins for user %d: %w", userID, err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a missing user from an insufficient balance
		user, err := r.GetByID(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if user == nil {
			return fmt.Errorf("deduct coins for user %d: %w", userID, service.ErrUserNotFound)
		}
		return fmt.Errorf("have %d, need %d: %w", user.Coins, amount, service.ErrInsufficientFunds)
	}

	return nil
}

// AddXP adds experience points atomically
func (r *UserRepository) AddXP(ctx context.Context, userID int64, delta int64) error {
	if delta < 0 {
		return fmt.Errorf("xp delta must not be negative")
	}
	if delta == 0 {
		return nil
	}

	query := `
		UPDATE users
		SET xp = xp + $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, delta, userID)
	if err != nil {
		return fmt.Errorf("failed to add xp for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("add xp for user %d: %w", userID, service.ErrUserNotFound)
	}
	return nil
}

// UpdateGitHubInfo stores a refreshed profile snapshot
func (r *UserRepository) UpdateGitHubInfo(ctx context.Context, userID int64, info *models.GitHubInfo) error {
	query := `
		UPDATE users
		SET github_info = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, info, userID)
	if err != nil {
		return fmt.Errorf("failed to update github info for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update github info for user %d: %w", userID, service.ErrUserNotFound)
	}
	return nil
}

// UpdateAccessToken stores a new source-hosting access token
func (r *UserRepository) UpdateAccessToken(ctx context.Context, userID int64, token string) error {
	query := `
		UPDATE users
		SET access_token = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.q.Exec(ctx, query, token, userID)
	if err != nil {
		return fmt.Errorf("failed to update access token for user %d: %w", userID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update access token for user %d: %w", userID, service.ErrUserNotFound)
	}
	return nil
}
