package service

import (
	"context"
	"fmt"
	"strings"

	"stakeforge/events"
	"stakeforge/github"
	"stakeforge/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// userService implements the UserService interface
type userService struct {
	uowFactory    UnitOfWorkFactory
	githubClient  GitHubClient
	startingCoins int64
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, githubClient GitHubClient, startingCoins int64) UserService {
	return &userService{
		uowFactory:    uowFactory,
		githubClient:  githubClient,
		startingCoins: startingCoins,
	}
}

// Register creates a new user with the starting coin grant. Companies are
// keyed by email; contributors and maintainers by github username + role.
func (s *userService) Register(ctx context.Context, email, password string, role models.Role, githubUsername string) (*models.User, error) {
	// Validate inputs
	if password == "" {
		return nil, fmt.Errorf("password is required: %w", ErrInvalidArgument)
	}
	email = strings.TrimSpace(strings.ToLower(email))
	githubUsername = strings.TrimSpace(githubUsername)

	switch role {
	case models.RoleCompany:
		if email == "" {
			return nil, fmt.Errorf("email is required for company accounts: %w", ErrInvalidArgument)
		}
	case models.RoleContributor, models.RoleMaintainer:
		if githubUsername == "" {
			return nil, fmt.Errorf("github username is required for %s accounts: %w", role, ErrInvalidArgument)
		}
	default:
		return nil, fmt.Errorf("invalid role %s: %w", role, ErrInvalidArgument)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	existing, err := s.findByIdentity(ctx, uow.UserRepository(), email, role, githubUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	user := &models.User{
		Email:          email,
		PasswordHash:   string(hash),
		Role:           role,
		GitHubUsername: githubUsername,
		Coins:          s.startingCoins,
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:        user.ID,
		Role:          role,
		StartingCoins: s.startingCoins,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"userID": user.ID,
		"role":   role,
	}).Info("User registered")

	return user, nil
}

// Authenticate verifies credentials against the role-appropriate identity
func (s *userService) Authenticate(ctx context.Context, email, password string, role models.Role, githubUsername string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	githubUsername = strings.TrimSpace(githubUsername)

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := s.findByIdentity(ctx, uow.UserRepository(), email, role, githubUsername)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *userService) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// GetProfile returns the user with a GitHub snapshot attached. A missing
// snapshot is refreshed from upstream once and stored; when the upstream
// fetch is impossible or fails, a default snapshot is written instead so the
// miss is not re-chased on every read.
func (s *userService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.GitHubInfo != nil || user.GitHubUsername == "" {
		return user, nil
	}

	info := models.DefaultGitHubInfo(user.GitHubUsername)
	if user.HasGitHubAccess() {
		profile, err := s.githubClient.GetUser(ctx, user.AccessToken, user.GitHubUsername)
		if err != nil {
			log.WithFields(log.Fields{
				"userID": userID,
				"error":  err,
			}).Warn("Failed to fetch GitHub profile, storing defaults")
		} else {
			info = snapshotFromProfile(user.GitHubUsername, profile)
		}
	}

	if err := s.storeGitHubInfo(ctx, userID, info); err != nil {
		return nil, err
	}

	user.GitHubInfo = info
	return user, nil
}

// ConnectGitHub stores a user's GitHub access token and re-fetches the
// profile snapshot under the new credentials. The token is verified against
// upstream before anything is written.
func (s *userService) ConnectGitHub(ctx context.Context, userID int64, accessToken string) error {
	if strings.TrimSpace(accessToken) == "" {
		return fmt.Errorf("access token is required: %w", ErrInvalidArgument)
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.GitHubUsername == "" {
		return fmt.Errorf("account has no github identity: %w", ErrInvalidArgument)
	}

	profile, err := s.githubClient.GetUser(ctx, accessToken, user.GitHubUsername)
	if err != nil {
		return fmt.Errorf("token verification failed: %w", ErrGitHubAuthRequired)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().UpdateAccessToken(ctx, userID, accessToken); err != nil {
		return fmt.Errorf("failed to store access token: %w", err)
	}
	if err := uow.UserRepository().UpdateGitHubInfo(ctx, userID, snapshotFromProfile(user.GitHubUsername, profile)); err != nil {
		return fmt.Errorf("failed to store github info: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("userID", userID).Info("GitHub account connected")
	return nil
}

func (s *userService) storeGitHubInfo(ctx context.Context, userID int64, info *models.GitHubInfo) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.UserRepository().UpdateGitHubInfo(ctx, userID, info); err != nil {
		return fmt.Errorf("failed to store github info: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// snapshotFromProfile resolves every default at write time so the stored
// snapshot reads back the same regardless of later upstream changes.
func snapshotFromProfile(username string, p *github.UserProfile) *models.GitHubInfo {
	info := &models.GitHubInfo{
		Version:         models.GitHubInfoVersion,
		Name:            p.Name,
		Bio:             p.Bio,
		Location:        p.Location,
		Company:         p.Company,
		AvatarURL:       p.AvatarURL,
		HTMLURL:         p.HTMLURL,
		Blog:            p.Blog,
		TwitterUsername: p.TwitterUsername,
		PublicRepos:     p.PublicRepos,
		Followers:       p.Followers,
		Following:       p.Following,
	}
	if info.Name == "" {
		info.Name = username
	}
	if info.AvatarURL == "" {
		info.AvatarURL = "https://github.com/" + username + ".png"
	}
	if info.HTMLURL == "" {
		info.HTMLURL = "https://github.com/" + username
	}
	return info
}

func (s *userService) findByIdentity(ctx context.Context, repo UserRepository, email string, role models.Role, githubUsername string) (*models.User, error) {
	if role == models.RoleCompany {
		return repo.GetByEmailAndRole(ctx, email, role)
	}
	return repo.GetByGitHubUsernameAndRole(ctx, githubUsername, role)
}
