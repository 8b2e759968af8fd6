package service

import (
	"context"

	"stakeforge/events"
	"stakeforge/github"
	"stakeforge/models"
)

// UserRepository defines the interface for user data access. AddCoins,
// DeductCoins and AddXP are the only sanctioned mutation paths for a user's
// economy fields.
type UserRepository interface {
	// GetByID retrieves a user by ID, nil when not found
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmailAndRole retrieves a company user by email, nil when not found
	GetByEmailAndRole(ctx context.Context, email string, role models.Role) (*models.User, error)

	// GetByGitHubUsernameAndRole retrieves a contributor/maintainer, nil when not found
	GetByGitHubUsernameAndRole(ctx context.Context, username string, role models.Role) (*models.User, error)

	// Create persists a new user and fills ID and timestamps
	Create(ctx context.Context, user *models.User) error

	// AddCoins credits a user's balance atomically
	AddCoins(ctx context.Context, userID int64, amount int64) error

	// DeductCoins debits a user's balance atomically, failing with
	// ErrInsufficientFunds when the balance would go negative
	DeductCoins(ctx context.Context, userID int64, amount int64) error

	// AddXP adds experience points atomically, delta >= 0
	AddXP(ctx context.Context, userID int64, delta int64) error

	// UpdateGitHubInfo stores a refreshed profile snapshot
	UpdateGitHubInfo(ctx context.Context, userID int64, info *models.GitHubInfo) error

	// UpdateAccessToken stores a new source-hosting access token
	UpdateAccessToken(ctx context.Context, userID int64, token string) error
}

// StakeRepository defines the interface for stake data access
type StakeRepository interface {
	// Create persists a new stake and fills ID and timestamps
	Create(ctx context.Context, stake *models.Stake) error

	// GetByID retrieves a stake by ID, nil when not found
	GetByID(ctx context.Context, id int64) (*models.Stake, error)

	// GetByIDForUpdate retrieves a stake and row-locks it for the duration
	// of the surrounding transaction, nil when not found
	GetByIDForUpdate(ctx context.Context, id int64) (*models.Stake, error)

	// GetByUser returns all stakes owned by a user, newest-created first
	GetByUser(ctx context.Context, userID int64) ([]*models.Stake, error)

	// UpdateStatusIfPending applies a terminal transition only if the stake
	// is still PENDING; returns false when another transition won
	UpdateStatusIfPending(ctx context.Context, id int64, status models.StakeStatus, xpEarned, coinsEarned int64) (bool, error)
}

// GitHubClient defines the source-hosting API surface the services consume
type GitHubClient interface {
	GetUser(ctx context.Context, token, username string) (*github.UserProfile, error)
	ListPersonalRepos(ctx context.Context, token string) ([]*github.Repository, error)
	ListOrgs(ctx context.Context, token string) ([]*github.Organization, error)
	ListOrgRepos(ctx context.Context, token, org string) ([]*github.Repository, error)
	ListIssues(ctx context.Context, token, repoFullName, labels string, perPage int) ([]*github.Issue, error)
	GetRepo(ctx context.Context, token, owner, repo string) (*github.Repository, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	UserRepository() UserRepository
	StakeRepository() StakeRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UserService defines the interface for account and profile operations
type UserService interface {
	// Register creates a new user with the starting coin grant
	Register(ctx context.Context, email, password string, role models.Role, githubUsername string) (*models.User, error)

	// Authenticate verifies credentials and returns the matching user
	Authenticate(ctx context.Context, email, password string, role models.Role, githubUsername string) (*models.User, error)

	// GetUser retrieves a user by ID
	GetUser(ctx context.Context, userID int64) (*models.User, error)

	// GetProfile retrieves a user with a GitHub profile snapshot, fetching
	// one from upstream when none is stored and a token is available
	GetProfile(ctx context.Context, userID int64) (*models.User, error)

	// ConnectGitHub verifies and stores an access token for the user and
	// refreshes the stored profile snapshot
	ConnectGitHub(ctx context.Context, userID int64, accessToken string) error
}

// StakeService defines the interface for the stake lifecycle engine
type StakeService interface {
	// CreateStake escrows amount coins against an issue; the debit and the
	// stake insert are one atomic unit
	CreateStake(ctx context.Context, userID, issueID int64, repository string, amount int64, prURL *string) (*models.Stake, error)

	// UpdateStakeStatus applies the single terminal transition for a stake
	// and credits the owner per the target status
	UpdateStakeStatus(ctx context.Context, stakeID int64, status models.StakeStatus, xpEarned, coinsEarned int64) (*models.Stake, error)

	// GetUserStakes returns a user's stakes, newest-created first
	GetUserStakes(ctx context.Context, userID int64) ([]*models.Stake, error)
}

// AnalysisService defines the interface for repository aggregation and
// opportunity scoring
type AnalysisService interface {
	// AnalyzeRepositories aggregates the user's accessible repositories and
	// scores stake-able issue candidates; sub-fetch failures degrade to
	// partial results
	AnalyzeRepositories(ctx context.Context, user *models.User) (*models.RepositoryAnalysis, error)
}

// SummaryService defines the interface for LLM repository summarization
type SummaryService interface {
	// GenerateContext fetches descriptors for the given repository URLs and
	// returns a free-text summary
	GenerateContext(ctx context.Context, repoURLs []string) (string, error)
}
